package control_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nzbharness/internal/control"
	"nzbharness/internal/faults"
	"nzbharness/internal/testsupport"
)

func TestAppendSendsPositionalArguments(t *testing.T) {
	fd := testsupport.NewFakeDaemon(t)
	client, err := control.NewClient(fd.URL())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	content := base64.StdEncoding.EncodeToString([]byte("<nzb/>"))
	id, err := client.Append(context.Background(), control.AppendRequest{
		Filename: "1k.dat.nzb",
		Content:  content,
		Category: "test",
		DupeMode: control.DupeForce,
		Params:   []control.Param{{Name: "*unpack:", Value: "no"}, {Name: "*unpack:", Value: "yes"}},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}

	calls := fd.Calls()
	if len(calls) != 1 || calls[0].Method != "append" || len(calls[0].Params) != 10 {
		t.Fatalf("unexpected calls %+v", calls)
	}
	var mode string
	_ = json.Unmarshal(calls[0].Params[8], &mode)
	if mode != "FORCE" {
		t.Fatalf("expected dupe mode FORCE, got %q", mode)
	}
	jobs := fd.Jobs()
	if string(jobs[0].Content) != "<nzb/>" {
		t.Fatalf("content not base64 round-tripped: %q", jobs[0].Content)
	}
	if len(jobs[0].Params) != 2 || jobs[0].Params[1].Value != "yes" {
		t.Fatalf("expected ordered duplicate params, got %+v", jobs[0].Params)
	}
}

func TestHistoryDecodesRecords(t *testing.T) {
	fd := testsupport.NewFakeDaemon(t)
	fd.SetHistory(
		control.HistoryRecord{ID: 7, NZBFilename: "a.nzb", Status: "SUCCESS/HEALTH"},
		control.HistoryRecord{ID: 8, NZBFilename: "b.nzb", Status: "FAILURE/HEALTH", DeleteStatus: "HEALTH"},
	)
	client, _ := control.NewClient(fd.URL())

	records, err := client.History(context.Background())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 2 || records[1].ID != 8 || records[1].DeleteStatus != "HEALTH" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestBasicAuthFromURL(t *testing.T) {
	fd := testsupport.NewFakeDaemon(t)
	fd.Username = "harness"
	fd.Password = "s3cret"

	anon, _ := control.NewClient(fd.URL())
	if _, err := anon.Status(context.Background()); !errors.Is(err, faults.ErrTransport) {
		t.Fatalf("expected transport error without credentials, got %v", err)
	}

	authed, _ := control.NewClient(strings.Replace(fd.URL(), "http://", "http://harness:s3cret@", 1))
	if strings.Contains(authed.Endpoint(), "s3cret") {
		t.Fatalf("endpoint leaks credentials: %s", authed.Endpoint())
	}
	if _, err := authed.Status(context.Background()); err != nil {
		t.Fatalf("Status with credentials: %v", err)
	}
}

func TestRPCErrorIsNotTransport(t *testing.T) {
	fd := testsupport.NewFakeDaemon(t)
	client, _ := control.NewClient(fd.URL())

	err := client.Call(context.Background(), "bogus", nil, nil)
	var rpcErr *control.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %T %v", err, err)
	}
	if errors.Is(err, faults.ErrTransport) {
		t.Fatal("daemon-reported error must not classify as transport")
	}
}

func TestConnectionRefusedIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, _ := control.NewClient(url)
	_, err := client.Status(context.Background())
	var te *control.TransportError
	if !errors.As(err, &te) || !errors.Is(err, faults.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestEditQueueForms(t *testing.T) {
	fd := testsupport.NewFakeDaemon(t)
	client, _ := control.NewClient(fd.URL())
	ctx := context.Background()

	if _, err := client.EditQueue(ctx, control.HistoryFinalDelete, 0, "", []int{1, 2}); err != nil {
		t.Fatalf("EditQueue: %v", err)
	}
	if _, err := client.EditQueueParam(ctx, control.GroupMoveOffset, "-1", []int{3}); err != nil {
		t.Fatalf("EditQueueParam: %v", err)
	}
	calls := fd.Calls()
	if len(calls[0].Params) != 4 || len(calls[1].Params) != 3 {
		t.Fatalf("unexpected argument counts: %d, %d", len(calls[0].Params), len(calls[1].Params))
	}
	var param string
	_ = json.Unmarshal(calls[1].Params[1], &param)
	if param != "-1" {
		t.Fatalf("expected string param, got %q", param)
	}
}

func TestNewClientDefaultsPath(t *testing.T) {
	client, err := control.NewClient("http://127.0.0.1:6789")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Endpoint() != "http://127.0.0.1:6789/jsonrpc" {
		t.Fatalf("unexpected endpoint %q", client.Endpoint())
	}
	if _, err := control.NewClient("127.0.0.1:6789"); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestLoadLogAndVersion(t *testing.T) {
	fd := testsupport.NewFakeDaemon(t)
	fd.SetLog(5, control.LogEntry{ID: 1, Kind: "INFO", Time: 1700000000, Text: "Successfully renamed"})
	client, _ := control.NewClient(fd.URL())

	entries, err := client.LoadLog(context.Background(), 5, 0, 10000)
	if err != nil {
		t.Fatalf("LoadLog: %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "Successfully renamed" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	version, err := client.Version(context.Background())
	if err != nil || version != "fake-1.0" {
		t.Fatalf("Version: %q %v", version, err)
	}
}
