package runner

import (
	"context"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/kbukum/taskflow/dag"
	"github.com/kbukum/taskflow/errors"
	"github.com/kbukum/taskflow/process"
	"github.com/kbukum/taskflow/validation"
)

// Interpreter runs scripts of one kind. The script path is appended after Args.
type Interpreter struct {
	Binary string
	Args   []string
}

// DefaultInterpreters returns the built-in suffix table.
func DefaultInterpreters() map[string]Interpreter {
	return map[string]Interpreter{
		".py":   {Binary: "python3"},
		".sh":   {Binary: "bash"},
		".bash": {Binary: "bash"},
	}
}

// Config configures a ScriptExecutor.
type Config struct {
	// ScriptDir is the directory task names are resolved against.
	ScriptDir string
	// WorkDir is the working directory of every script. Empty inherits ours.
	WorkDir string
	// Timeout bounds a single attempt. Zero means no timeout.
	Timeout time.Duration
	// Env is added to the inherited environment (key=value).
	Env []string
}

// Option configures a ScriptExecutor.
type Option func(*ScriptExecutor)

// WithInterpreter registers or replaces the interpreter for a file suffix
// such as ".rb".
func WithInterpreter(suffix string, in Interpreter) Option {
	return func(e *ScriptExecutor) {
		e.interpreters[normalizeSuffix(suffix)] = in
	}
}

// ScriptExecutor runs tasks as scripts under a directory.
type ScriptExecutor struct {
	cfg          Config
	interpreters map[string]Interpreter
}

var _ dag.Executor = (*ScriptExecutor)(nil)

// New creates a ScriptExecutor with the default interpreters.
func New(cfg Config, opts ...Option) *ScriptExecutor {
	e := &ScriptExecutor{cfg: cfg, interpreters: DefaultInterpreters()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Suffixes returns the registered suffixes in sorted order.
func (e *ScriptExecutor) Suffixes() []string {
	return slices.Sorted(maps.Keys(e.interpreters))
}

// Path returns the script path for task.
func (e *ScriptExecutor) Path(task string) string {
	return filepath.Join(e.cfg.ScriptDir, filepath.FromSlash(task))
}

// Command returns the command that would run task, or an error explaining
// why the task cannot run.
func (e *ScriptExecutor) Command(task string) (process.Command, error) {
	if err := validation.New().TaskName("task", task).Validate(); err != nil {
		return process.Command{}, err
	}

	path := e.Path(task)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		if err == nil || os.IsNotExist(err) {
			return process.Command{}, errors.TaskNotFound(task)
		}
		return process.Command{}, err
	}

	suffix := normalizeSuffix(filepath.Ext(task))
	in, ok := e.interpreters[suffix]
	if !ok {
		return process.Command{}, errors.UnsupportedTask(task, suffix)
	}

	return process.Command{
		Binary:  in.Binary,
		Args:    append(slices.Clone(in.Args), path),
		Dir:     e.cfg.WorkDir,
		Env:     e.cfg.Env,
		Timeout: e.cfg.Timeout,
	}, nil
}

// Execute runs task once. A missing script is OutcomeNotFound, an unknown
// suffix OutcomeUnsupported, exit code zero OutcomeSuccess and any other exit
// code, or a timeout, OutcomeFailure. An interpreter that cannot be started
// is returned as an error.
func (e *ScriptExecutor) Execute(ctx context.Context, task string) (dag.Outcome, error) {
	cmd, err := e.Command(task)
	switch {
	case errors.Is(err, errors.ErrTaskNotFound):
		return dag.Outcome{Status: dag.OutcomeNotFound, Err: err}, nil
	case errors.Is(err, errors.ErrUnsupportedTask):
		return dag.Outcome{Status: dag.OutcomeUnsupported, Err: err}, nil
	case err != nil:
		return dag.Outcome{}, err
	}

	res, err := process.Run(ctx, cmd)
	if res == nil {
		return dag.Outcome{}, err
	}

	out := dag.Outcome{
		Stdout:   strings.TrimSpace(string(res.Stdout)),
		Stderr:   strings.TrimSpace(string(res.Stderr)),
		Duration: res.Duration,
	}
	switch {
	case errors.Is(err, process.ErrKilled):
		out.Status = dag.OutcomeFailure
		out.Err = err
	case err != nil:
		return out, err
	case res.Success():
		out.Status = dag.OutcomeSuccess
	default:
		out.Status = dag.OutcomeFailure
		out.Err = fmt.Errorf("%s exited with status %d", cmd, res.ExitCode)
	}
	return out, nil
}

// Discover lists the runnable scripts under the script directory as task
// names, sorted.
func (e *ScriptExecutor) Discover() ([]string, error) {
	var tasks []string
	err := filepath.WalkDir(e.cfg.ScriptDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := e.interpreters[normalizeSuffix(filepath.Ext(path))]; !ok {
			return nil
		}
		rel, err := filepath.Rel(e.cfg.ScriptDir, path)
		if err != nil {
			return err
		}
		tasks = append(tasks, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(tasks)
	return tasks, nil
}

func normalizeSuffix(s string) string {
	s = strings.ToLower(s)
	if s != "" && !strings.HasPrefix(s, ".") {
		s = "." + s
	}
	return s
}
