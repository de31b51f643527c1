package config

const (
	defaultDaemonBinary        = "nzbget"
	defaultMainDir             = "~/.local/share/nzbharness/nzbget.temp"
	defaultNServDataDir        = "~/.local/share/nzbharness/nserv.temp"
	defaultLogDir              = "~/.local/share/nzbharness/logs"
	defaultSevenZipBinary      = "7z"
	defaultPar2Binary          = "par2"
	defaultControlHost         = "127.0.0.1"
	defaultControlPort         = 6789
	defaultServerHost          = "127.0.0.1"
	defaultServerConnections   = 10
	defaultNServVerbosity      = 0
	defaultNServInstances      = 2
	defaultNServSegmentSize    = 3000
	defaultReadinessAttempts   = 3
	defaultReadinessIntervalMS = 500
	defaultPollIntervalMS      = 100
	defaultRemoveAttempts      = 20
	defaultRemoveBackoffMS     = 200
	defaultSampleMediumMB      = 192
	defaultSampleLargeMB       = 1024
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

var defaultServerPorts = []int{6791, 6792}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DaemonBinary:   defaultDaemonBinary,
			MainDir:        defaultMainDir,
			NServDataDir:   defaultNServDataDir,
			LogDir:         defaultLogDir,
			SevenZipBinary: defaultSevenZipBinary,
			Par2Binary:     defaultPar2Binary,
		},
		Control: Control{
			Host: defaultControlHost,
			Port: defaultControlPort,
		},
		Servers: Servers{
			Host:        defaultServerHost,
			Ports:       append([]int(nil), defaultServerPorts...),
			Connections: defaultServerConnections,
		},
		NServ: NServ{
			Verbosity:   defaultNServVerbosity,
			Instances:   defaultNServInstances,
			SegmentSize: defaultNServSegmentSize,
		},
		Readiness: Readiness{
			Attempts:   defaultReadinessAttempts,
			IntervalMS: defaultReadinessIntervalMS,
		},
		Completion: Completion{
			PollIntervalMS: defaultPollIntervalMS,
		},
		Teardown: Teardown{
			RemoveAttempts:  defaultRemoveAttempts,
			RemoveBackoffMS: defaultRemoveBackoffMS,
		},
		Fixtures: Fixtures{
			SampleMediumMB: defaultSampleMediumMB,
			SampleLargeMB:  defaultSampleLargeMB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
