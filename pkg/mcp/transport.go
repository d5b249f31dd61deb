package mcp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aetherlabs/aether/pkg/logger"
)

const closeGracePeriod = 2 * time.Second

// Transport owns one child tool process and the pipes to it. All protocol
// traffic goes through Send and ReceiveLine; no other component may touch the
// streams. A single goroutine drives a Transport at a time.
type Transport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
	reader *bufio.Reader
	waitCh chan struct{}

	mu     sync.Mutex
	closed bool
}

// StartTransport spawns the tool process with stdin, stdout and stderr
// redirected into pipes; the child never inherits the host terminal. Stderr
// is drained into the log in the background.
func StartTransport(command string, args []string, env map[string]string) (*Transport, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("tool process command is empty")
	}

	cmd := exec.Command(command, args...)
	cmd.Env = buildProcessEnv(env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start tool process: %w", err)
	}

	t := &Transport{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		reader: bufio.NewReaderSize(stdout, 64*1024),
		waitCh: make(chan struct{}),
	}

	go t.waitLoop()
	go t.drainStderr()

	return t, nil
}

// Send marshals one JSON document, appends exactly one newline and writes it
// to the tool process. The pipe write is unbuffered, so the line is flushed
// when Send returns.
func (t *Transport) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json-rpc payload: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("tool process is not writable: %w", ErrClosed)
	}
	if _, err := t.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write request line: %w", err)
	}
	return nil
}

// ReceiveLine blocks until a full LF-terminated line of output is available
// and returns it without the terminator. End-of-stream before a complete
// line reports ErrClosed.
func (t *Transport) ReceiveLine() (string, error) {
	line, err := t.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, fs.ErrClosed) {
			return "", ErrClosed
		}
		return "", fmt.Errorf("read response line: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Close ends the session: stdin is closed so a well-behaved tool exits on its
// own, and the process is killed if it lingers past the grace period.
// Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	if t.stdin != nil {
		_ = t.stdin.Close()
	}

	select {
	case <-t.waitCh:
		return nil
	case <-time.After(closeGracePeriod):
	}

	if t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	select {
	case <-t.waitCh:
	case <-time.After(closeGracePeriod):
	}
	return nil
}

func (t *Transport) waitLoop() {
	err := t.cmd.Wait()
	close(t.waitCh)
	if err != nil {
		logger.WarnCF("mcp", "tool process exited with error",
			map[string]any{"error": err.Error()})
	}
}

func (t *Transport) drainStderr() {
	scanner := bufio.NewScanner(t.stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		logger.DebugCF("mcp", "tool process stderr", map[string]any{"line": line})
	}
}

func buildProcessEnv(custom map[string]string) []string {
	base := os.Environ()
	if len(custom) == 0 {
		return base
	}

	keys := make([]string, 0, len(custom))
	for key := range custom {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(base)+len(keys))
	env = append(env, base...)
	for _, key := range keys {
		env = append(env, key+"="+custom[key])
	}
	return env
}
