package daemonconf

import "path/filepath"

// Layout names the files and directories of one session work directory.
type Layout struct {
	MainDir    string
	DestDir    string
	InterDir   string
	TempDir    string
	QueueDir   string
	NzbDir     string
	LogFile    string
	ConfigPath string
}

// NewLayout derives the session layout from the work directory root.
func NewLayout(mainDir string) Layout {
	return Layout{
		MainDir:    mainDir,
		DestDir:    filepath.Join(mainDir, "complete"),
		InterDir:   filepath.Join(mainDir, "intermediate"),
		TempDir:    filepath.Join(mainDir, "temp"),
		QueueDir:   filepath.Join(mainDir, "queue"),
		NzbDir:     filepath.Join(mainDir, "nzb"),
		LogFile:    filepath.Join(mainDir, "nzbget.log"),
		ConfigPath: filepath.Join(mainDir, "nzbget.conf"),
	}
}
