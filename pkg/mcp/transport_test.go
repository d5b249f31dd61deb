package mcp

import (
	"encoding/json"
	"errors"
	"runtime"
	"testing"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests spawn unix shell utilities")
	}
}

func TestTransportEchoRoundTrip(t *testing.T) {
	skipWithoutShell(t)

	tr, err := StartTransport("cat", nil, nil)
	if err != nil {
		t.Fatalf("StartTransport: %v", err)
	}
	defer tr.Close()

	payload := map[string]any{"jsonrpc": "2.0", "id": 1, "method": "initialize"}
	if err := tr.Send(payload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	line, err := tr.ReceiveLine()
	if err != nil {
		t.Fatalf("ReceiveLine: %v", err)
	}

	var echoed map[string]any
	if err := json.Unmarshal([]byte(line), &echoed); err != nil {
		t.Fatalf("echoed line is not JSON: %q", line)
	}
	if echoed["method"] != "initialize" || echoed["id"] != float64(1) {
		t.Errorf("echoed payload = %v", echoed)
	}
}

func TestTransportOneLinePerSend(t *testing.T) {
	skipWithoutShell(t)

	tr, err := StartTransport("cat", nil, nil)
	if err != nil {
		t.Fatalf("StartTransport: %v", err)
	}
	defer tr.Close()

	for i := 1; i <= 3; i++ {
		if err := tr.Send(map[string]any{"id": i}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	for i := 1; i <= 3; i++ {
		line, err := tr.ReceiveLine()
		if err != nil {
			t.Fatalf("ReceiveLine %d: %v", i, err)
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line %d not JSON: %q", i, line)
		}
		if m["id"] != float64(i) {
			t.Errorf("line %d carries id %v", i, m["id"])
		}
	}
}

func TestTransportDetectsProcessExit(t *testing.T) {
	skipWithoutShell(t)

	tr, err := StartTransport("sh", []string{"-c", "exit 0"}, nil)
	if err != nil {
		t.Fatalf("StartTransport: %v", err)
	}
	defer tr.Close()

	_, err = tr.ReceiveLine()
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after process exit, got %v", err)
	}
}

func TestTransportSendAfterClose(t *testing.T) {
	skipWithoutShell(t)

	tr, err := StartTransport("cat", nil, nil)
	if err != nil {
		t.Fatalf("StartTransport: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := tr.Send(map[string]any{"id": 1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestTransportChildEnv(t *testing.T) {
	skipWithoutShell(t)

	tr, err := StartTransport("sh", []string{"-c", `printf '{"token":"%s"}\n' "$AETHER_TEST_TOKEN"`},
		map[string]string{"AETHER_TEST_TOKEN": "abc123"})
	if err != nil {
		t.Fatalf("StartTransport: %v", err)
	}
	defer tr.Close()

	line, err := tr.ReceiveLine()
	if err != nil {
		t.Fatalf("ReceiveLine: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("line not JSON: %q", line)
	}
	if m["token"] != "abc123" {
		t.Errorf("child env not applied, got %q", m["token"])
	}
}

func TestStartTransportEmptyCommand(t *testing.T) {
	if _, err := StartTransport("", nil, nil); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestStartTransportMissingBinary(t *testing.T) {
	skipWithoutShell(t)

	if _, err := StartTransport("/nonexistent/aether-test-binary", nil, nil); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
