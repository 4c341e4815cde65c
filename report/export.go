package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kbukum/taskflow/dag"
	"github.com/kbukum/taskflow/errors"
)

// ExportJSON writes s to path as indented JSON, creating parent
// directories. The file is replaced atomically.
func ExportJSON(path string, s *dag.Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadJSON reads a summary written by ExportJSON. A missing file is a
// NOT_FOUND error.
func LoadJSON(path string) (*dag.Summary, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFound("dashboard", path).WithCause(err)
	}
	if err != nil {
		return nil, err
	}
	var s dag.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Internal(err)
	}
	return &s, nil
}

// ClearLogs removes the given files and returns the ones that existed.
// Missing files are not an error.
func ClearLogs(paths ...string) ([]string, error) {
	var removed []string
	var errs []error
	for _, p := range paths {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed = append(removed, p)
		case !os.IsNotExist(err):
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}
