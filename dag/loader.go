package dag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/taskflow/errors"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/validation"
)

// Build file formats, selected by file extension.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// BuildFile is the list form of a build file. The mapping form
// (task name to dependency list at the top level) is normalized into it.
//
//	includes: [common.yaml]
//	tasks:
//	  - name: test.sh
//	    depends_on: [lint.sh]
type BuildFile struct {
	Includes []string  `yaml:"includes" json:"includes" toml:"includes"`
	Tasks    []TaskDef `yaml:"tasks" json:"tasks" toml:"tasks"`
}

// TaskDef declares one task and its dependencies.
type TaskDef struct {
	Name      string   `yaml:"name" json:"name" toml:"name"`
	DependsOn []string `yaml:"depends_on" json:"depends_on" toml:"depends_on"`
}

// FormatOf returns the build file format for path, or "" if the extension
// is not recognized.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return ""
	}
}

// ParseBuildFile decodes a build file in the given format. A document with
// a top-level "tasks" or "includes" key is read in list form; any other
// document maps task names to dependency lists. An empty document is an
// empty build file.
func ParseBuildFile(data []byte, format string) (*BuildFile, error) {
	decode, err := decoderFor(format)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := decode(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &BuildFile{}, nil
	}

	if _, ok := raw["tasks"]; ok {
		return decodeListForm(data, decode)
	}
	if _, ok := raw["includes"]; ok {
		return decodeListForm(data, decode)
	}

	var mapping map[string][]string
	if err := decode(data, &mapping); err != nil {
		return nil, err
	}
	bf := &BuildFile{}
	for _, name := range Graph(mapping).Tasks() {
		bf.Tasks = append(bf.Tasks, TaskDef{Name: name, DependsOn: mapping[name]})
	}
	return bf, nil
}

func decodeListForm(data []byte, decode func([]byte, any) error) (*BuildFile, error) {
	var bf BuildFile
	if err := decode(data, &bf); err != nil {
		return nil, err
	}
	return &bf, nil
}

func decoderFor(format string) (func([]byte, any) error, error) {
	switch format {
	case FormatYAML:
		return yaml.Unmarshal, nil
	case FormatJSON:
		return json.Unmarshal, nil
	case FormatTOML:
		return toml.Unmarshal, nil
	default:
		return nil, fmt.Errorf("unsupported build file format %q", format)
	}
}

// Graph converts the build file's own tasks into a Graph. Task names are
// validated; a name declared twice is an error.
func (bf *BuildFile) Graph() (Graph, error) {
	g := make(Graph, len(bf.Tasks))
	v := validation.New()
	for i, t := range bf.Tasks {
		field := fmt.Sprintf("tasks[%d].name", i)
		v.TaskName(field, t.Name)
		if g.Has(t.Name) {
			v.AddError(field, fmt.Sprintf("duplicate task %q", t.Name))
		}
		g[t.Name] = append([]string(nil), t.DependsOn...)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadBuildFile reads the build file at path, resolving includes, and
// returns its graph. Included files are resolved relative to the file that
// includes them; a file's own tasks override tasks of the same name from
// its includes. Include cycles are an error.
func LoadBuildFile(path string) (Graph, error) {
	stack := make(map[string]bool)    // current include chain
	resolved := make(map[string]bool) // files already merged
	g, err := loadBuildFile(path, stack, resolved)
	if err != nil {
		return nil, errors.InvalidBuildFile(path, err)
	}
	return g, nil
}

func loadBuildFile(path string, stack, resolved map[string]bool) (Graph, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if stack[abs] {
		return nil, fmt.Errorf("circular include of %s", path)
	}
	stack[abs] = true
	defer delete(stack, abs)

	format := FormatOf(path)
	if format == "" {
		return nil, fmt.Errorf("unrecognized build file extension %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	bf, err := ParseBuildFile(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	g := make(Graph)
	for _, inc := range bf.Includes {
		incPath := inc
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(filepath.Dir(path), inc)
		}
		incAbs, err := filepath.Abs(incPath)
		if err != nil {
			return nil, err
		}
		if resolved[incAbs] {
			continue
		}
		sub, err := loadBuildFile(incPath, stack, resolved)
		if err != nil {
			return nil, fmt.Errorf("including %s: %w", inc, err)
		}
		for name, deps := range sub {
			if !g.Has(name) {
				g[name] = deps
			}
		}
	}

	own, err := bf.Graph()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for name, deps := range own {
		g[name] = deps
	}

	resolved[abs] = true
	return g, nil
}

// LoadBuildFileOrEmpty is LoadBuildFile for callers that run whatever is
// loadable: a missing or malformed build file is logged and yields an empty
// graph.
func LoadBuildFileOrEmpty(path string, log *logger.Logger) Graph {
	g, err := LoadBuildFile(path)
	if err != nil {
		log.Error("unable to load build file", logger.Fields(
			"path", path,
			logger.FieldError, err.Error(),
		))
		return Graph{}
	}
	return g
}
