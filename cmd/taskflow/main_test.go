package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/taskflow/errors"
	"github.com/kbukum/taskflow/version"
)

type workspace struct {
	dir    string
	config string
}

func newWorkspace(t *testing.T, buildFile string, scripts map[string]string) *workspace {
	t.Helper()
	dir := t.TempDir()
	w := &workspace{dir: dir, config: filepath.Join(dir, "taskflow.yml")}

	cfg := fmt.Sprintf(`name: taskflow-test
logging:
  output: none
  no_color: true
orchestrator:
  build_file: %s
  script_dir: %s
  log_dir: %s
  dashboard_file: %s
  max_retries: 0
  initial_backoff: 1ms
  max_backoff: 1ms
`,
		filepath.Join(dir, "build.yaml"),
		filepath.Join(dir, "scripts"),
		filepath.Join(dir, "logs"),
		filepath.Join(dir, "logs", "dashboard.json"),
	)
	w.write(t, "taskflow.yml", cfg)
	w.write(t, "build.yaml", buildFile)
	for name, body := range scripts {
		w.write(t, filepath.Join("scripts", name), body)
	}
	return w
}

func (w *workspace) write(t *testing.T, name, body string) {
	t.Helper()
	path := filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (w *workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config", w.config))
	err := cmd.Execute()
	return out.String(), err
}

func requireBash(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skipf("bash not available: %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), version.Version) {
		t.Errorf("output %q does not mention version %q", out.String(), version.Version)
	}
}

func TestPlanCmd(t *testing.T) {
	build := "lint.sh: []\nunit.sh: [lint.sh]\ndocs.sh: []\npackage.sh: [unit.sh, docs.sh]\n"

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "levels",
			args: []string{"plan"},
			want: "level 0: docs.sh, lint.sh\nlevel 1: unit.sh\nlevel 2: package.sh\n",
		},
		{
			name: "order",
			args: []string{"plan", "--order"},
			want: "docs.sh\nlint.sh\nunit.sh\npackage.sh\n",
		},
		{
			name: "target",
			args: []string{"plan", "--script", "unit.sh"},
			want: "level 0: lint.sh\nlevel 1: unit.sh\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorkspace(t, build, nil)
			out, err := w.run(t, tt.args...)
			if err != nil {
				t.Fatalf("plan failed: %v\n%s", err, out)
			}
			if out != tt.want {
				t.Errorf("output:\n%s\nwant:\n%s", out, tt.want)
			}
		})
	}
}

func TestPlanCmd_Cycle(t *testing.T) {
	w := newWorkspace(t, "a.sh: [b.sh]\nb.sh: [a.sh]\n", nil)
	if _, err := w.run(t, "plan"); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestRunCmd(t *testing.T) {
	requireBash(t)

	scripts := map[string]string{
		"lint.sh": "echo lint\n",
		"unit.sh": "echo unit\n",
		"bad.sh":  "echo broken >&2\nexit 2\n",
	}

	t.Run("all succeed", func(t *testing.T) {
		w := newWorkspace(t, "lint.sh: []\nunit.sh: [lint.sh]\n", scripts)
		out, err := w.run(t, "run", "--all")
		if err != nil {
			t.Fatalf("run failed: %v\n%s", err, out)
		}
		for _, want := range []string{"lint.sh", "unit.sh", "success"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if _, err := os.Stat(filepath.Join(w.dir, "logs", "dashboard.json")); err != nil {
			t.Errorf("dashboard not written: %v", err)
		}
		if _, err := os.Stat(filepath.Join(w.dir, "logs", "build.log")); err != nil {
			t.Errorf("build log not written: %v", err)
		}
	})

	t.Run("failure exits non-zero", func(t *testing.T) {
		w := newWorkspace(t, "lint.sh: []\nbad.sh: [lint.sh]\n", scripts)
		out, err := w.run(t, "run", "--no-parallel")
		if err == nil {
			t.Fatalf("expected error, output:\n%s", out)
		}
		if !strings.Contains(out, "failed") {
			t.Errorf("table does not show the failure:\n%s", out)
		}
	})

	t.Run("script with dependencies", func(t *testing.T) {
		w := newWorkspace(t, "lint.sh: []\nunit.sh: [lint.sh]\nbad.sh: []\n", scripts)
		out, err := w.run(t, "run", "--script", "unit.sh")
		if err != nil {
			t.Fatalf("run failed: %v\n%s", err, out)
		}
		if strings.Contains(out, "bad.sh") {
			t.Errorf("unrelated task ran:\n%s", out)
		}
	})

	t.Run("unknown script", func(t *testing.T) {
		w := newWorkspace(t, "lint.sh: []\n", scripts)
		_, err := w.run(t, "run", "--script", "nope.sh")
		if !errors.Is(err, errors.ErrTaskNotFound) {
			t.Errorf("err = %v, want TASK_NOT_FOUND", err)
		}
	})

	t.Run("all and script are exclusive", func(t *testing.T) {
		w := newWorkspace(t, "lint.sh: []\n", scripts)
		if _, err := w.run(t, "run", "--all", "--script", "lint.sh"); err == nil {
			t.Error("expected flag conflict error")
		}
	})
}

func TestClearLogsCmd(t *testing.T) {
	w := newWorkspace(t, "", nil)
	w.write(t, filepath.Join("logs", "build.log"), "{}\n")
	w.write(t, filepath.Join("logs", "dashboard.json"), "{}\n")

	out, err := w.run(t, "clear-logs")
	if err != nil {
		t.Fatalf("clear-logs failed: %v", err)
	}
	if strings.Count(out, "removed ") != 2 {
		t.Errorf("output:\n%s", out)
	}
	for _, name := range []string{"build.log", "dashboard.json"} {
		if _, err := os.Stat(filepath.Join(w.dir, "logs", name)); !os.IsNotExist(err) {
			t.Errorf("%s still exists", name)
		}
	}

	out, err = w.run(t, "clear-logs")
	if err != nil {
		t.Fatalf("second clear-logs failed: %v", err)
	}
	if !strings.Contains(out, "nothing to clear") {
		t.Errorf("output:\n%s", out)
	}
}
