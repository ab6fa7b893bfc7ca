// Package config loads and verifies anvil build configuration files.
//
// A configuration is a flat document with seven required fields. JSON and
// YAML documents are decoded with yaml.v3, TOML documents with go-toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the configuration file looked up first.
const FileName = "anvil.json"

// candidates lists the file names Find tries, in order.
var candidates = []string{FileName, "anvil.yaml", "anvil.yml", "anvil.toml"}

// ErrNotFound is returned when no configuration file exists.
var ErrNotFound = errors.New("configuration file not found")

// Kind is the expected shape of a field value.
type Kind int

const (
	KindString Kind = iota
	KindList
)

func (k Kind) String() string {
	if k == KindList {
		return "list"
	}
	return "string"
}

// Field is a required configuration field.
type Field struct {
	Name string
	Kind Kind
}

// Fields lists every required field in the order missing fields are reported.
var Fields = []Field{
	{Name: "ART", Kind: KindString},
	{Name: "EXE", Kind: KindString},
	{Name: "CC", Kind: KindString},
	{Name: "CCFLAGS", Kind: KindList},
	{Name: "LDFLAGS", Kind: KindList},
	{Name: "LDLIBS", Kind: KindList},
	{Name: "DIR", Kind: KindList},
}

func lookupField(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Config is a verified build configuration.
type Config struct {
	Art     string   `json:"ART"`     // artifact directory
	Exe     string   `json:"EXE"`     // output binary name
	CC      string   `json:"CC"`      // C compiler used by cgo
	CCFlags []string `json:"CCFLAGS"` // exported as CGO_CFLAGS
	LDFlags []string `json:"LDFLAGS"` // passed to -ldflags
	LDLibs  []string `json:"LDLIBS"`  // exported as CGO_LDFLAGS
	Dirs    []string `json:"DIR"`     // package directories to build
}

// Warning is a non-fatal verification finding.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	return w.Message
}

// Find returns the first configuration file present in dir.
func Find(dir string) (string, error) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("cannot find configuration file %q: %w", filepath.Join(dir, FileName), ErrNotFound)
}

// Load reads and decodes the configuration file at path.
func Load(path string) (*Raw, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cannot find configuration file %q: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(data, filepath.Ext(path))
}

// Decode parses data according to the file extension ext.
func Decode(data []byte, ext string) (*Raw, error) {
	switch strings.ToLower(ext) {
	case ".toml":
		raw, err := decodeTOML(data)
		if err != nil {
			return nil, fmt.Errorf("decoding toml: %w", err)
		}
		return raw, nil
	case ".json", ".yaml", ".yml", "":
		// yaml.v3 accepts JSON documents as well.
		raw, err := decodeYAML(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", strings.TrimPrefix(ext, "."), err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported configuration format %q", ext)
	}
}

// Verify checks that every required field is present with the right kind.
// Missing fields are reported in Fields order, the first one wins. The
// remaining fields are then checked in document order: unknown fields are
// reported as warnings and ignored, the first type error stops verification.
func Verify(raw *Raw) (*Config, []Warning, error) {
	for _, f := range Fields {
		if _, ok := raw.Get(f.Name); !ok {
			return nil, nil, fmt.Errorf("configuration field %q does not exist", f.Name)
		}
	}

	var warnings []Warning
	var cfg Config
	for _, name := range raw.Keys() {
		field, known := lookupField(name)
		if !known {
			warnings = append(warnings, Warning{
				Field:   name,
				Message: fmt.Sprintf("Ignoring unknown configuration field %q", name),
			})
			continue
		}
		value, _ := raw.Get(name)
		if err := assign(&cfg, name, field.Kind, value); err != nil {
			return nil, warnings, err
		}
	}
	return &cfg, warnings, nil
}

// toStrings accepts a list whose elements are all strings.
func toStrings(value any) ([]string, bool) {
	items, ok := value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func typeName(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, uint64, float64:
		return "number"
	case []any:
		for _, item := range v {
			if _, ok := item.(string); !ok {
				return "list of " + typeName(item)
			}
		}
		return "list"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", value)
	}
}
