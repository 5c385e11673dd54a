package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FileSuffix is appended to a project name to form its manifest file name.
	FileSuffix = ".zzz"

	// BuildName is the project name of the nested manifest a GitSource
	// checkout must carry at its root.
	BuildName = "build"
)

// Extensions are tried in order when resolving a project name to a file.
var Extensions = []string{".yml", ".yaml"}

var (
	// ErrNotFound is returned when no manifest file exists for a name.
	ErrNotFound = errors.New("manifest not found")
	// ErrInvalid is returned when a manifest exists but cannot be parsed.
	ErrInvalid = errors.New("invalid manifest")
	// ErrNoFiles is returned by Discover when a directory holds no manifests.
	ErrNoFiles = errors.New("no .zzz.yaml files found")
)

// Method is the strategy used to materialize a tool on disk.
type Method string

const (
	// MethodLinkArchive downloads a single artifact from a URL.
	MethodLinkArchive Method = "LINKZIP"
	// MethodGitSource clones a repository, builds it and copies the artifact.
	MethodGitSource Method = "GIT"
)

// Valid reports whether m is a known install method.
func (m Method) Valid() bool {
	return m == MethodLinkArchive || m == MethodGitSource
}

// UnmarshalYAML rejects unknown methods so a typo surfaces as an invalid manifest.
func (m *Method) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	method := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !method.Valid() {
		return fmt.Errorf("line %d: unknown install method %q (expected LINKZIP or GIT)", value.Line, s)
	}
	*m = method
	return nil
}

// ParseMethod converts a user supplied method name. Both the manifest
// spelling (LINKZIP, GIT) and the lowercase CLI spelling are accepted.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linkzip", "link", "zip":
		return MethodLinkArchive, nil
	case "git":
		return MethodGitSource, nil
	}
	return "", fmt.Errorf("unknown install method %q (expected linkzip or git)", s)
}

// Tool describes one installable package.
type Tool struct {
	Name   string `yaml:"NAME" json:"NAME"`
	Link   string `yaml:"LINK" json:"LINK"`
	Method Method `yaml:"METHOD" json:"METHOD" jsonschema:"enum=LINKZIP,enum=GIT"`
}

// Less orders tools by name, then link, then method.
func (t Tool) Less(o Tool) bool {
	if t.Name != o.Name {
		return t.Name < o.Name
	}
	if t.Link != o.Link {
		return t.Link < o.Link
	}
	return t.Method < o.Method
}

func (t Tool) String() string {
	return fmt.Sprintf("%s (%s %s)", t.Name, t.Method, t.Link)
}

// CheckName reports whether name can be used as a file name inside an
// install namespace. It must be a single local path element.
func CheckName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("tool name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("tool name %q is not a file name", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("tool name %q contains a path separator", name)
	case !filepath.IsLocal(name):
		return fmt.Errorf("tool name %q is not a local file name", name)
	}
	return nil
}

// SortTools sorts in place using Tool.Less.
func SortTools(tools []Tool) {
	sort.Slice(tools, func(i, j int) bool { return tools[i].Less(tools[j]) })
}

// Identity is the part of a project that determines its install namespace.
type Identity struct {
	Name        string
	Description string
	Package     string
	Version     string
}

// Project is the PROJECT section of a manifest.
type Project struct {
	Name        string `yaml:"NAME" json:"NAME"`
	Package     string `yaml:"PACKAGE" json:"PACKAGE"`
	Description string `yaml:"DESCRIPTION" json:"DESCRIPTION"`
	Version     string `yaml:"VERSION" json:"VERSION"`
	IsLoaded    bool   `yaml:"IS_LOADED" json:"IS_LOADED"`
}

// On is the ON section of a manifest.
type On struct {
	Run []string `yaml:"RUN" json:"RUN"`
}

// Dependencies is the DEPENDANCIES section of a manifest.
type Dependencies struct {
	Tools []Tool `yaml:"TOOLS" json:"TOOLS"`
}

// Manifest is a project's declarative configuration file.
type Manifest struct {
	Project      Project      `yaml:"PROJECT" json:"PROJECT"`
	On           On           `yaml:"ON" json:"ON"`
	Dependencies Dependencies `yaml:"DEPENDANCIES" json:"DEPENDANCIES"`
}

// Identity returns the fields that scope this project's install namespace.
func (m *Manifest) Identity() Identity {
	return Identity{
		Name:        m.Project.Name,
		Description: m.Project.Description,
		Package:     m.Project.Package,
		Version:     m.Project.Version,
	}
}

// Tools returns the declared dependencies.
func (m *Manifest) Tools() []Tool {
	return m.Dependencies.Tools
}

// FindTool returns the declared tool with the given name.
func (m *Manifest) FindTool(name string) (Tool, bool) {
	for _, t := range m.Dependencies.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// AddTool appends a tool, replacing an existing declaration with the same name.
// It reports whether an existing entry was replaced.
func (m *Manifest) AddTool(tool Tool) bool {
	for i, t := range m.Dependencies.Tools {
		if t.Name == tool.Name {
			m.Dependencies.Tools[i] = tool
			return true
		}
	}
	m.Dependencies.Tools = append(m.Dependencies.Tools, tool)
	return false
}

// RemoveTool removes the tool with the given name. Returns true if found.
func (m *Manifest) RemoveTool(name string) bool {
	for i, t := range m.Dependencies.Tools {
		if t.Name == name {
			m.Dependencies.Tools = append(m.Dependencies.Tools[:i], m.Dependencies.Tools[i+1:]...)
			return true
		}
	}
	return false
}

// Parse decodes manifest YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &m, nil
}

// Load reads the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Save writes the manifest to path, replacing the file atomically.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return WriteFileAtomic(path, data, 0644)
}

// Find resolves a project name (with or without directory) to its manifest
// file, trying each of Extensions in order.
func Find(name string) (string, error) {
	if isManifestFile(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return name, nil
	}

	var tried []string
	for _, ext := range Extensions {
		path := name + FileSuffix + ext
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		tried = append(tried, path)
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, strings.Join(tried, ", "))
}

// Discover lists manifest files in dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isManifestFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}
	sort.Strings(paths)
	return paths, nil
}

// ProjectName strips the directory and the manifest suffix from path.
func ProjectName(path string) string {
	base := filepath.Base(path)
	for _, ext := range Extensions {
		if strings.HasSuffix(base, FileSuffix+ext) {
			return strings.TrimSuffix(base, FileSuffix+ext)
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isManifestFile(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(name, FileSuffix+ext) {
			return true
		}
	}
	return false
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a truncated file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
