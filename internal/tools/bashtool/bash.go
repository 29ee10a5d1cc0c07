// Package bashtool implements the Bash tool: the Tool Runner's shell
// execution surface (spec §4.2). Every command is checked against
// internal/tools/safety before a subprocess is ever spawned, runs in its
// own process group, and is torn down with SIGTERM followed by SIGKILL
// on cancellation or timeout, so a killed agent task never leaves an
// orphaned child behind.
package bashtool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/internal/tools/safety"
	"github.com/haasonsaas/agentcore/pkg/models"
)

const (
	defaultTimeout = 2 * time.Minute
	maxTimeout     = 10 * time.Minute
	maxOutputBytes = 30000
	killGrace      = 2 * time.Second
)

// Config scopes a Bash tool to one workspace.
type Config struct {
	Workspace string
}

// Tool runs shell commands inside cfg.Workspace, one process group per
// call.
type Tool struct {
	workDir string
}

// New creates a Bash tool scoped to cfg.Workspace.
func New(cfg Config) *Tool {
	return &Tool{workDir: cfg.Workspace}
}

func (t *Tool) Name() string                            { return tools.NameBash }
func (t *Tool) ConcurrencyClass() tools.ConcurrencyClass { return tools.Sequential }

func (t *Tool) Description() string {
	return fmt.Sprintf(
		"Executes a shell command in the workspace. Commands are checked against a safety "+
			"allowlist before running: destructive rm/trash forms, unscoped git, and "+
			"shell-escaping sed/awk/find invocations are rejected. Default timeout %s, "+
			"maximum %s.",
		defaultTimeout, maxTimeout)
}

func (t *Tool) Parameters() json.RawMessage {
	return schemaBytes(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"description": "The shell command to run.",
			},
			"timeout_ms": map[string]interface{}{
				"type":        "integer",
				"description": "Optional timeout in milliseconds (max 600000).",
				"minimum":     0,
			},
			"description": map[string]interface{}{
				"type":        "string",
				"description": "A short, human-readable description of what the command does.",
			},
		},
		"required": []string{"command"},
	})
}

func schemaBytes(schema map[string]interface{}) json.RawMessage {
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

func (t *Tool) Execute(ctx context.Context, callID string, argumentsJSON json.RawMessage) models.ToolResultItem {
	var input struct {
		Command   string `json:"command"`
		TimeoutMs int    `json:"timeout_ms"`
	}
	if err := json.Unmarshal(argumentsJSON, &input); err != nil {
		return t.errorf(callID, fmt.Sprintf("Invalid arguments: %v", err))
	}
	if input.Command == "" {
		return t.errorf(callID, "command is required")
	}

	if ok, reason := safety.Check(input.Command, t.workDir); !ok {
		return t.errorf(callID, reason)
	}

	timeout := defaultTimeout
	if input.TimeoutMs > 0 {
		timeout = time.Duration(input.TimeoutMs) * time.Millisecond
	}
	if timeout > maxTimeout {
		timeout = maxTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, exitCode, runErr := t.run(runCtx, input.Command)
	if runErr == context.DeadlineExceeded {
		return t.errorf(callID, fmt.Sprintf("Command timed out after %s", timeout))
	}
	if runErr == context.Canceled {
		return models.ToolResultItem{CallID: callID, ToolName: t.Name(), Output: "Command cancelled", Status: models.ToolResultAborted}
	}

	suffix := ""
	if exitCode != 0 {
		suffix = fmt.Sprintf("\n[exit code %d]", exitCode)
	}
	return models.ToolResultItem{
		CallID:   callID,
		ToolName: t.Name(),
		Output:   output + suffix,
		Status:   models.ToolResultSuccess,
	}
}

func (t *Tool) errorf(callID, message string) models.ToolResultItem {
	return models.ToolResultItem{CallID: callID, ToolName: t.Name(), Output: message, Status: models.ToolResultError}
}

// run executes command in its own process group via /bin/sh -c, so a
// cancelled context can SIGTERM/SIGKILL the whole group rather than just
// the shell itself, which may leave children running past its own exit.
func (t *Tool) run(ctx context.Context, command string) (string, int, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	if t.workDir != "" {
		cmd.Dir = t.workDir
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var buf limitedWriter
	buf.max = maxOutputBytes
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Start(); err != nil {
		return "", -1, fmt.Errorf("start command: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return buf.String(), exitCode(err), nil
	case <-ctx.Done():
		// Only the pre-existing cmd.Wait() goroutine above reaps the
		// process; signal it and wait on the same `done` channel rather
		// than calling Process.Wait() again, which would race the reaper.
		signalProcessGroup(cmd, syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(killGrace):
			signalProcessGroup(cmd, syscall.SIGKILL)
			<-done
		}
		return buf.String(), -1, ctx.Err()
	}
}

// signalProcessGroup delivers sig to the command's whole process group
// (negative pid), falling back to signalling just the process if the
// group lookup fails.
func signalProcessGroup(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd.Process == nil {
		return
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		_ = cmd.Process.Signal(sig)
		return
	}
	_ = syscall.Kill(-pgid, sig)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// limitedWriter caps captured output at max bytes, silently dropping the
// remainder rather than letting a noisy command exhaust memory.
type limitedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.max > 0 && w.buf.Len() >= w.max {
		return len(p), nil
	}
	remaining := w.max - w.buf.Len()
	if w.max > 0 && len(p) > remaining {
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	w.buf.Write(p)
	return len(p), nil
}

func (w *limitedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}
