package testsupport

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"nzbharness/internal/control"
)

// RPCCall records one method invocation seen by FakeDaemon.
type RPCCall struct {
	Method string
	Params []json.RawMessage
}

// AppendedJob is a job received through append.
type AppendedJob struct {
	ID       int
	Filename string
	Content  []byte
	Category string
	DupeMode string
	Params   []control.Param
}

// FakeDaemon is an in-memory stand-in for the daemon's JSON-RPC endpoint.
// Appended jobs land in history after HistoryDelay history polls with the
// status chosen by Outcome.
type FakeDaemon struct {
	Server *httptest.Server

	mu             sync.Mutex
	Username       string
	Password       string
	StatusFailures int
	HistoryDelay   int
	Outcome        func(job AppendedJob) string
	Handlers       map[string]func(params []json.RawMessage) (any, error)

	calls   []RPCCall
	nextID  int
	pending []pendingJob
	history []control.HistoryRecord
	groups  []control.QueueGroup
	logs    map[int][]control.LogEntry
	jobs    []AppendedJob
}

type pendingJob struct {
	job   AppendedJob
	polls int
}

// NewFakeDaemon starts a fake daemon that is closed when the test ends.
func NewFakeDaemon(t testing.TB) *FakeDaemon {
	t.Helper()
	fd := &FakeDaemon{logs: map[int][]control.LogEntry{}}
	fd.Server = httptest.NewServer(http.HandlerFunc(fd.serve))
	t.Cleanup(fd.Server.Close)
	return fd
}

// URL returns the JSON-RPC endpoint.
func (fd *FakeDaemon) URL() string {
	return fd.Server.URL + "/jsonrpc"
}

// Calls returns a copy of every call received so far.
func (fd *FakeDaemon) Calls() []RPCCall {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return append([]RPCCall(nil), fd.calls...)
}

// CallCount counts calls to method.
func (fd *FakeDaemon) CallCount(method string) int {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	n := 0
	for _, c := range fd.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Jobs returns every appended job.
func (fd *FakeDaemon) Jobs() []AppendedJob {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return append([]AppendedJob(nil), fd.jobs...)
}

// SetHistory replaces the history list.
func (fd *FakeDaemon) SetHistory(records ...control.HistoryRecord) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.history = append([]control.HistoryRecord(nil), records...)
}

// SetGroups replaces the queue.
func (fd *FakeDaemon) SetGroups(groups ...control.QueueGroup) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.groups = append([]control.QueueGroup(nil), groups...)
}

// SetLog stores log entries for job id.
func (fd *FakeDaemon) SetLog(id int, entries ...control.LogEntry) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.logs[id] = append([]control.LogEntry(nil), entries...)
}

type fakeRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     int64             `json:"id"`
}

func (fd *FakeDaemon) serve(w http.ResponseWriter, r *http.Request) {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.Username != "" || fd.Password != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != fd.Username || pass != fd.Password {
			http.Error(w, "not authorized", http.StatusUnauthorized)
			return
		}
	}

	var req fakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	fd.calls = append(fd.calls, RPCCall{Method: req.Method, Params: req.Params})

	if req.Method == "status" && fd.StatusFailures > 0 {
		fd.StatusFailures--
		http.Error(w, "starting", http.StatusServiceUnavailable)
		return
	}

	var (
		result any
		err    error
	)
	if h, ok := fd.Handlers[req.Method]; ok {
		result, err = h(req.Params)
	} else {
		result, err = fd.dispatch(req.Method, req.Params)
	}

	w.Header().Set("Content-Type", "application/json")
	reply := map[string]any{"version": "1.1"}
	if err != nil {
		reply["error"] = map[string]any{"name": "JSONRPCError", "code": 1, "message": err.Error()}
	} else {
		reply["result"] = result
	}
	_ = json.NewEncoder(w).Encode(reply)
}

type rpcFault string

func (e rpcFault) Error() string { return string(e) }

func (fd *FakeDaemon) dispatch(method string, params []json.RawMessage) (any, error) {
	switch method {
	case "status":
		return control.Status{ThreadCount: 4, UpTimeSec: 1}, nil
	case "version":
		return "fake-1.0", nil
	case "append":
		return fd.append(params)
	case "history":
		fd.advance()
		return fd.history, nil
	case "listgroups":
		if fd.groups == nil {
			return []control.QueueGroup{}, nil
		}
		return fd.groups, nil
	case "loadlog":
		var id int
		if len(params) > 0 {
			_ = json.Unmarshal(params[0], &id)
		}
		entries := fd.logs[id]
		if entries == nil {
			entries = []control.LogEntry{}
		}
		return entries, nil
	case "editqueue":
		return fd.editQueue(params), nil
	case "editserver", "pausedownload", "resumedownload", "pausepost", "resumepost", "shutdown":
		return true, nil
	default:
		return nil, rpcFault("Invalid procedure")
	}
}

func (fd *FakeDaemon) append(params []json.RawMessage) (any, error) {
	if len(params) < 10 {
		return nil, rpcFault("Invalid parameter")
	}
	var (
		job     AppendedJob
		content string
	)
	_ = json.Unmarshal(params[0], &job.Filename)
	_ = json.Unmarshal(params[1], &content)
	_ = json.Unmarshal(params[2], &job.Category)
	_ = json.Unmarshal(params[8], &job.DupeMode)
	_ = json.Unmarshal(params[9], &job.Params)
	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return 0, nil
	}
	job.Content = decoded
	fd.nextID++
	job.ID = fd.nextID
	fd.jobs = append(fd.jobs, job)
	fd.pending = append(fd.pending, pendingJob{job: job})
	fd.groups = append(fd.groups, control.QueueGroup{ID: job.ID, NZBFilename: job.Filename, Name: job.Filename, Status: "QUEUED", Category: job.Category})
	return job.ID, nil
}

// advance moves pending jobs into history once they have been polled
// HistoryDelay times. New records are prepended, newest first.
func (fd *FakeDaemon) advance() {
	remaining := fd.pending[:0]
	for _, p := range fd.pending {
		if p.polls < fd.HistoryDelay {
			p.polls++
			remaining = append(remaining, p)
			continue
		}
		status := "SUCCESS/HEALTH"
		if fd.Outcome != nil {
			status = fd.Outcome(p.job)
		}
		record := control.HistoryRecord{
			ID:          p.job.ID,
			Name:        p.job.Filename,
			NZBFilename: p.job.Filename,
			Status:      status,
			Category:    p.job.Category,
			Kind:        "NZB",
		}
		fd.history = append([]control.HistoryRecord{record}, fd.history...)
		fd.removeGroup(p.job.ID)
	}
	fd.pending = remaining
}

func (fd *FakeDaemon) removeGroup(id int) {
	kept := fd.groups[:0]
	for _, g := range fd.groups {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	fd.groups = kept
}

func (fd *FakeDaemon) editQueue(params []json.RawMessage) bool {
	if len(params) == 0 {
		return false
	}
	var command string
	_ = json.Unmarshal(params[0], &command)
	var ids []int
	_ = json.Unmarshal(params[len(params)-1], &ids)
	switch command {
	case control.HistoryFinalDelete, control.HistoryDelete:
		drop := make(map[int]struct{}, len(ids))
		for _, id := range ids {
			drop[id] = struct{}{}
		}
		kept := fd.history[:0]
		for _, h := range fd.history {
			if _, ok := drop[h.ID]; !ok {
				kept = append(kept, h)
			}
		}
		fd.history = kept
	}
	return true
}
