package rrdcreate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// schemaFile is the shape accepted by LoadSchemaFile, letting a caller check
// a create schema into version control with comments explaining each DS/RRA
// choice. Both JSONC (via hujson, the teacher's own ".tk.json" config
// format) and YAML are accepted; the field tags double as both libraries'
// struct tags since the teacher's config types do the same.
type schemaFile struct {
	Step  uint64   `json:"step" yaml:"step"`
	Start int64    `json:"start,omitempty" yaml:"start,omitempty"`
	DS    []string `json:"ds" yaml:"ds"`
	RRA   []string `json:"rra" yaml:"rra"`
}

// LoadSchemaFile reads a schema file and returns the equivalent Options,
// ready to pass to Create. The format is chosen by extension: ".yaml"/".yml"
// is parsed as YAML, everything else as JSONC.
func LoadSchemaFile(path string) (Options, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied schema path
	if err != nil {
		return Options{}, fmt.Errorf("rrdcreate: read schema %s: %w", path, err)
	}

	var sf schemaFile

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &sf); err != nil {
			return Options{}, fmt.Errorf("rrdcreate: invalid yaml schema in %s: %w", path, err)
		}
	default:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return Options{}, fmt.Errorf("rrdcreate: invalid JSONC in %s: %w", path, err)
		}

		if err := json.Unmarshal(standardized, &sf); err != nil {
			return Options{}, fmt.Errorf("rrdcreate: invalid schema in %s: %w", path, err)
		}
	}

	specs := make([]string, 0, len(sf.DS)+len(sf.RRA))
	specs = append(specs, sf.DS...)
	specs = append(specs, sf.RRA...)

	return Options{Step: sf.Step, Start: sf.Start, Specs: specs}, nil
}
