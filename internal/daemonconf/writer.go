package daemonconf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"nzbharness/internal/config"
	"nzbharness/internal/faults"
)

// Server is one news server entry (ServerN.* keys).
type Server struct {
	Host        string
	Port        int
	Connections int
	Level       int
	Active      bool
}

// Base holds the settings written into every session config.
type Base struct {
	SevenZipCmd     string
	WebDir          string
	ConfigTemplate  string
	ControlIP       string
	ControlPort     int
	ControlUsername string
	ControlPassword string
	Servers         []Server
}

// BaseFromConfig builds Base from harness configuration. Server N gets level
// N-1; only the first server is active so tests opt into fail-over explicitly.
func BaseFromConfig(cfg *config.Config) Base {
	base := Base{
		SevenZipCmd:     cfg.Paths.SevenZipBinary,
		WebDir:          cfg.WebDir(),
		ConfigTemplate:  cfg.ConfigTemplate(),
		ControlIP:       cfg.Control.Host,
		ControlPort:     cfg.Control.Port,
		ControlUsername: cfg.Control.Username,
		ControlPassword: cfg.Control.Password,
	}
	for i, port := range cfg.Servers.Ports {
		base.Servers = append(base.Servers, Server{
			Host:        cfg.Servers.Host,
			Port:        port,
			Connections: cfg.Servers.Connections,
			Level:       i,
			Active:      i == 0,
		})
	}
	return base
}

// fixed behaviour keys; logging goes to the log file so the harness can tail it.
var behaviour = [][2]string{
	{"WriteLog", "append"},
	{"DetailTarget", "log"},
	{"InfoTarget", "log"},
	{"WarningTarget", "log"},
	{"ErrorTarget", "log"},
	{"DebugTarget", "none"},
	{"CrashTrace", "no"},
	{"CrashDump", "yes"},
	{"ContinuePartial", "no"},
	{"DirectWrite", "yes"},
	{"ArticleCache", "500"},
	{"WriteBuffer", "1024"},
	{"NzbDirInterval", "0"},
	{"FlushQueue", "no"},
}

// Line formats a single override line.
func Line(key, value string) string {
	return key + "=" + value
}

// Render produces the complete config file content. Overrides are appended
// after the mandatory keys exactly as given.
func Render(layout Layout, base Base, overrides []string) []byte {
	var buf bytes.Buffer
	write := func(key, value string) {
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(value)
		buf.WriteByte('\n')
	}

	write("MainDir", layout.MainDir)
	write("DestDir", "${MainDir}/complete")
	write("InterDir", "${MainDir}/intermediate")
	write("TempDir", "${MainDir}/temp")
	write("QueueDir", "${MainDir}/queue")
	write("NzbDir", "${MainDir}/nzb")
	write("LogFile", "${MainDir}/nzbget.log")
	write("SevenZipCmd", base.SevenZipCmd)
	for _, kv := range behaviour {
		write(kv[0], kv[1])
	}
	write("WebDir", base.WebDir)
	write("ConfigTemplate", base.ConfigTemplate)
	write("ControlUsername", base.ControlUsername)
	write("ControlPassword", base.ControlPassword)
	write("ControlIP", base.ControlIP)
	if base.ControlPort != 0 {
		write("ControlPort", strconv.Itoa(base.ControlPort))
	}
	for i, srv := range base.Servers {
		prefix := fmt.Sprintf("Server%d.", i+1)
		write(prefix+"host", srv.Host)
		write(prefix+"port", strconv.Itoa(srv.Port))
		write(prefix+"connections", strconv.Itoa(srv.Connections))
		write(prefix+"level", strconv.Itoa(srv.Level))
		if !srv.Active {
			write(prefix+"active", "no")
		}
	}
	for _, opt := range overrides {
		buf.WriteString(opt)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Write renders the config and writes it to layout.ConfigPath, replacing any
// existing file. The work directory must already exist.
func Write(layout Layout, base Base, overrides []string) error {
	data := Render(layout, base, overrides)
	if err := os.WriteFile(layout.ConfigPath, data, 0o644); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "daemonconf", "write config",
			fmt.Sprintf("cannot write %s", filepath.Base(layout.ConfigPath)), err)
	}
	return nil
}

// LastValue reports the value the daemon will apply for key under last-wins
// parsing. Keys compare case-insensitively, as the daemon does.
func LastValue(lines []string, key string) (string, bool) {
	var (
		value string
		found bool
	)
	for _, line := range lines {
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(k), key) {
			value = strings.TrimSpace(v)
			found = true
		}
	}
	return value, found
}

// Lines splits rendered content back into lines, dropping the trailing empty one.
func Lines(content []byte) []string {
	text := strings.TrimSuffix(string(content), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
