package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Garsondee/Swarm-Control/internal/fleet"
	"github.com/Garsondee/Swarm-Control/internal/mockremote"
)

func startMock(t *testing.T) (*mockremote.Server, string) {
	t.Helper()
	mock := mockremote.New(mockremote.WithStreamInterval(10 * time.Millisecond))
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)
	return mock, srv.URL
}

func runCLI(t *testing.T, base string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--base-url", base, "--no-speech"}, args...)
	err := run(context.Background(), full, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestState_PrintsRosterAndTasks(t *testing.T) {
	_, base := startMock(t)
	out, _, err := runCLI(t, base, "state")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	for _, want := range []string{"ROBOT 1", "ROBOT 2", "ROBOT 3", "TASK 1", "-> R1", "unassigned", "57%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("state output missing %q:\n%s", want, out)
		}
	}
}

func TestTask_PostsAndLogs(t *testing.T) {
	mock, base := startMock(t)
	out, _, err := runCLI(t, base, "task", "120", "80.4")
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	reqs := mock.Requests()
	if len(reqs) != 1 || reqs[0].Path != "/tasks" {
		t.Fatalf("expected one POST /tasks, got %+v", reqs)
	}
	if reqs[0].Body["x"] != 120.0 || reqs[0].Body["priority"] != 5.0 {
		t.Fatalf("unexpected body %v", reqs[0].Body)
	}
	if !strings.Contains(out, "[MISSION] Task injected at (120, 80)") {
		t.Fatalf("missing log line:\n%s", out)
	}
}

func TestDeploy_PostsDeploy(t *testing.T) {
	mock, base := startMock(t)
	out, _, err := runCLI(t, base, "deploy", "50", "60")
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	reqs := mock.Requests()
	if len(reqs) != 1 || reqs[0].Path != "/robots/deploy" {
		t.Fatalf("expected one POST /robots/deploy, got %+v", reqs)
	}
	if !strings.Contains(out, "[SYSTEM] Robot deployed at (50, 60)") {
		t.Fatalf("missing log line:\n%s", out)
	}
	if strings.Contains(out, "Mode changed") {
		t.Fatalf("mode switch should not be printed:\n%s", out)
	}
}

func TestAutoTaskOff_SendsFalse(t *testing.T) {
	mock, base := startMock(t)
	out, _, err := runCLI(t, base, "auto-task", "off")
	if err != nil {
		t.Fatalf("auto-task: %v", err)
	}
	reqs := mock.Requests()
	if len(reqs) != 1 || reqs[0].Body["enabled"] != false {
		t.Fatalf("expected enabled=false, got %+v", reqs)
	}
	if !strings.Contains(out, "Auto-Task: OFF") {
		t.Fatalf("missing log line:\n%s", out)
	}
}

func TestResume_SendsResume(t *testing.T) {
	mock, base := startMock(t)
	if _, _, err := runCLI(t, base, "resume"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	reqs := mock.Requests()
	if len(reqs) != 1 || reqs[0].Path != "/control/resume" {
		t.Fatalf("expected POST /control/resume, got %+v", reqs)
	}
}

func TestCommand_RemoteFailureExitsNonZero(t *testing.T) {
	mock, base := startMock(t)
	mock.SetFailing(true)
	out, _, err := runCLI(t, base, "reset")
	if !errors.Is(err, errCommand) {
		t.Fatalf("expected errCommand, got %v", err)
	}
	if !strings.Contains(out, "[ERROR] Reset failed.") {
		t.Fatalf("missing error line:\n%s", out)
	}
}

func TestUsageErrors(t *testing.T) {
	_, base := startMock(t)
	cases := [][]string{
		{},
		{"teleport"},
		{"task", "1"},
		{"task", "x", "2"},
		{"auto-task", "maybe"},
	}
	for _, args := range cases {
		_, stderr, err := runCLI(t, base, args...)
		if !errors.Is(err, errUsage) {
			t.Fatalf("%q: expected errUsage, got %v", args, err)
		}
		if stderr == "" {
			t.Fatalf("%q: expected a message on stderr", args)
		}
	}
}

func TestWatch_PrintsEventsAndSummary(t *testing.T) {
	mock, base := startMock(t)
	go func() {
		time.Sleep(100 * time.Millisecond)
		mock.Emit(fleet.Event{Type: fleet.EventClearTasks, Time: float64(time.Now().Unix() + 60)})
	}()
	out, _, err := runCLI(t, base, "--interval", "20ms", "--for", "500ms", "watch")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	for _, want := range []string{"watching", "ONLINE", "[SYSTEM] All tasks cleared.", ">> All tasks cleared.", "SUMMARY", "uptime", "system 1", "critical 0", "last event", "last line"} {
		if !strings.Contains(out, want) {
			t.Fatalf("watch output missing %q:\n%s", want, out)
		}
	}
}

func TestLogFile_KeepsTerminalClean(t *testing.T) {
	_, base := startMock(t)
	path := filepath.Join(t.TempDir(), "fleetctl.log")
	out, stderr, err := runCLI(t, base, "--log-file", path, "--log-level", "debug", "fail")
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if stderr != "" {
		t.Fatalf("logs leaked to stderr: %q", stderr)
	}
	if !strings.Contains(out, "[SYSTEM] Triggering failure...") {
		t.Fatalf("missing log line:\n%s", out)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("expected debug logs in %s, got %v", path, err)
	}
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint([]string{"1.5", "-2"})
	if err != nil || p.X != 1.5 || p.Y != -2 {
		t.Fatalf("got %+v, %v", p, err)
	}
}
