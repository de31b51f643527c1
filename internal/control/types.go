package control

import "encoding/json"

// DupeMode selects how the daemon treats a job that duplicates earlier content.
type DupeMode string

const (
	DupeScore DupeMode = "SCORE"
	DupeAll   DupeMode = "ALL"
	DupeForce DupeMode = "FORCE"
)

// Edit commands accepted by EditQueue and EditQueueParam.
const (
	HistoryDelete      = "HistoryDelete"
	HistoryFinalDelete = "HistoryFinalDelete"
	HistoryRedownload  = "HistoryRedownload"
	HistoryRetryFailed = "HistoryRetryFailed"
	HistoryReturn      = "HistoryReturn"
	GroupMoveOffset    = "GroupMoveOffset"
	GroupMoveTop       = "GroupMoveTop"
	GroupMoveBottom    = "GroupMoveBottom"
	GroupMoveBefore    = "GroupMoveBefore"
	GroupMoveAfter     = "GroupMoveAfter"
	GroupSort          = "GroupSort"
	GroupPause         = "GroupPause"
	GroupResume        = "GroupResume"
	GroupDelete        = "GroupDelete"
	GroupFinalDelete   = "GroupFinalDelete"
)

// Param is one post-processing parameter. Order matters and duplicate names
// are legal.
type Param struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// AppendRequest is the argument list of the append method.
type AppendRequest struct {
	Filename  string
	Content   string // base64, standard encoding
	Category  string
	Priority  int
	AddToTop  bool
	AddPaused bool
	DupeKey   string
	DupeScore int
	DupeMode  DupeMode
	Params    []Param
}

// HistoryRecord is one entry of the daemon's history log.
type HistoryRecord struct {
	ID           int    `json:"NZBID"`
	Name         string `json:"Name"`
	NZBFilename  string `json:"NZBFilename"`
	Status       string `json:"Status"`
	DeleteStatus string `json:"DeleteStatus"`
	DestDir      string `json:"DestDir"`
	Category     string `json:"Category"`
	Kind         string `json:"Kind"`
}

// QueueGroup is one job currently in the download queue.
type QueueGroup struct {
	ID          int    `json:"NZBID"`
	Name        string `json:"NZBName"`
	NZBFilename string `json:"NZBFilename"`
	Status      string `json:"Status"`
	Category    string `json:"Category"`
	DestDir     string `json:"DestDir"`
}

// LogEntry is one message from a job's log.
type LogEntry struct {
	ID   int    `json:"ID"`
	Kind string `json:"Kind"`
	Time int64  `json:"Time"`
	Text string `json:"Text"`
}

// Status is the daemon status snapshot. A successful Status call is the
// readiness signal.
type Status struct {
	DownloadPaused  bool  `json:"DownloadPaused"`
	PostPaused      bool  `json:"PostPaused"`
	ServerStandBy   bool  `json:"ServerStandBy"`
	RemainingSizeMB int64 `json:"RemainingSizeMB"`
	DownloadRate    int64 `json:"DownloadRate"`
	ThreadCount     int   `json:"ThreadCount"`
	UpTimeSec       int64 `json:"UpTimeSec"`
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     int64  `json:"id"`
}

type rpcResponse struct {
	Version string         `json:"version"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcErrorReply `json:"error"`
}

type rpcErrorReply struct {
	Name    string `json:"name"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}
