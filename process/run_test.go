package process_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/taskflow/process"
)

func TestRunEcho(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"hello", "world"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success() {
		t.Fatalf("expected success, got exit code %d", result.ExitCode)
	}
	out := strings.TrimSpace(string(result.Stdout))
	if out != "hello world" {
		t.Fatalf("expected 'hello world', got %q", out)
	}
}

func TestRunStdin(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "cat",
		Stdin:  strings.NewReader("from stdin"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Stdout) != "from stdin" {
		t.Fatalf("expected 'from stdin', got %q", result.Stdout)
	}
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo partial; echo broken >&2; exit 42"},
	})
	if err != nil {
		t.Fatalf("non-zero exit should be reported in the result, got error %v", err)
	}
	if result.ExitCode != 42 || result.Success() {
		t.Fatalf("expected exit code 42, got %d", result.ExitCode)
	}
	if strings.TrimSpace(string(result.Stdout)) != "partial" || strings.TrimSpace(string(result.Stderr)) != "broken" {
		t.Fatalf("expected captured output, got stdout=%q stderr=%q", result.Stdout, result.Stderr)
	}
}

func TestRunMissingBinary(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "definitely-not-a-real-binary-4242",
	})
	if err == nil {
		t.Fatal("expected error when the binary cannot be started")
	}
	if errors.Is(err, process.ErrKilled) {
		t.Fatalf("start failure should not be reported as killed: %v", err)
	}
	if result.ExitCode != -1 {
		t.Fatalf("expected exit code -1, got %d", result.ExitCode)
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if !errors.Is(err, process.ErrKilled) {
		t.Fatalf("expected ErrKilled, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped DeadlineExceeded, got %v", err)
	}
	if result.Duration > 5*time.Second {
		t.Fatalf("process took too long to kill: %v", result.Duration)
	}
}

func TestRunTimeout(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		Timeout:     50 * time.Millisecond,
		GracePeriod: 200 * time.Millisecond,
	})
	if !errors.Is(err, process.ErrKilled) {
		t.Fatalf("expected ErrKilled from Timeout, got %v", err)
	}
	if result.ExitCode != -1 {
		t.Fatalf("expected exit code -1 for killed process, got %d", result.ExitCode)
	}
}

func TestRunEmptyBinary(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{})
	if err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRunEnvAndDir(t *testing.T) {
	dir := t.TempDir()
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo $MY_TEST_VAR; pwd"},
		Env:    []string{"MY_TEST_VAR=hello123"},
		Dir:    dir,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(result.Stdout)), "\n")
	if len(lines) != 2 || lines[0] != "hello123" {
		t.Fatalf("unexpected output %q", result.Stdout)
	}
	if !strings.HasSuffix(lines[1], strings.TrimPrefix(dir, "/private")) {
		t.Fatalf("expected working dir %s, got %s", dir, lines[1])
	}
}

func TestCommandString(t *testing.T) {
	c := process.Command{Binary: "bash", Args: []string{"scripts/build.sh"}}
	if c.String() != "bash scripts/build.sh" {
		t.Fatalf("unexpected command string %q", c.String())
	}
	if (process.Command{Binary: "true"}).String() != "true" {
		t.Fatal("expected bare binary")
	}
}
