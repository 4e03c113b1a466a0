package rrdcreate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSchemaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.hujson")

	contents := `{
  // step in seconds
  "step": 300,
  "start": 1700000000,
  "ds": [
    "DS:temp:GAUGE:600:U:U",
  ],
  "rra": [
    "RRA:AVERAGE:0.5:1:100",
  ],
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	opts, err := LoadSchemaFile(path)
	require.NoError(t, err)
	require.Equal(t, uint64(300), opts.Step)
	require.Equal(t, int64(1700000000), opts.Start)
	require.Equal(t, []string{"DS:temp:GAUGE:600:U:U", "RRA:AVERAGE:0.5:1:100"}, opts.Specs)
}

func TestLoadSchemaFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")

	contents := `step: 60
start: 1700000000
ds:
  - "DS:temp:GAUGE:600:U:U"
rra:
  - "RRA:AVERAGE:0.5:1:100"
  - "RRA:MAX:0.5:12:50"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	opts, err := LoadSchemaFile(path)
	require.NoError(t, err)
	require.Equal(t, uint64(60), opts.Step)
	require.Equal(t, int64(1700000000), opts.Start)
	require.Equal(t, []string{
		"DS:temp:GAUGE:600:U:U",
		"RRA:AVERAGE:0.5:1:100",
		"RRA:MAX:0.5:12:50",
	}, opts.Specs)
}
