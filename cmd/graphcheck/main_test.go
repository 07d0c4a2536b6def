package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func generate(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	code, out, errOut := execute(t, append([]string{"generate", "--dir", dir}, args...)...)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "wrote")
	return dir
}

func TestCheckCleanStore(t *testing.T) {
	dir := generate(t, "--nodes", "500")

	code, out, errOut := execute(t, "check", "--dir", dir)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "checked 500 nodes")
	assert.Contains(t, out, "no inconsistencies found")
}

func TestCheckCorruptStore(t *testing.T) {
	dir := generate(t, "--nodes", "500", "--corrupt", "8", "--range-size", "100")

	code, out, _ := execute(t, "check", "--dir", dir, "--workers", "3")
	assert.Equal(t, exitFindings, code)
	assert.Contains(t, out, "node_missing_label")
	assert.Contains(t, out, "label_chain_cycle")
	assert.Contains(t, out, "8 inconsistencies found")
}

func TestCheckJSON(t *testing.T) {
	dir := generate(t, "--nodes", "300", "--corrupt", "4", "--compression", "lz4")

	for _, c := range []string{"json", "go-json"} {
		t.Run(c, func(t *testing.T) {
			code, out, _ := execute(t, "check", "--dir", dir, "--format", "json", "--codec", c, "--cache-size", "1MiB")
			assert.Equal(t, exitFindings, code)

			var decoded struct {
				Findings []json.RawMessage `json:"findings"`
				Summary  struct {
					Total int `json:"total"`
				} `json:"summary"`
				Nodes int64 `json:"nodes"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &decoded))
			assert.Len(t, decoded.Findings, 4)
			assert.Equal(t, 4, decoded.Summary.Total)
			assert.Equal(t, int64(300), decoded.Nodes)
		})
	}
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no store", []string{"check"}, "no store given"},
		{"missing store", []string{"check", "--dir", t.TempDir()}, "store not found"},
		{"bad format", []string{"check", "--dir", ".", "--format", "xml"}, "unknown format"},
		{"bad codec", []string{"check", "--dir", ".", "--codec", "gob"}, "unknown codec"},
		{"bad io limit", []string{"check", "--dir", ".", "--io-limit", "fast"}, "invalid io limit"},
		{"bad log level", []string{"check", "--dir", ".", "--log-level", "loud"}, "invalid log level"},
		{"bad compression", []string{"generate", "--dir", t.TempDir(), "--compression", "gzip"}, "gzip"},
		{"bad builder", []string{"generate", "--dir", t.TempDir(), "--nodes", "2", "--corrupt", "3"}, "invalid options"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := execute(t, tt.args...)
			assert.Equal(t, exitError, code)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestCheckEnvironment(t *testing.T) {
	dir := generate(t, "--nodes", "200", "--corrupt", "2")
	t.Setenv("GRAPHCHECK_DIR", dir)
	t.Setenv("GRAPHCHECK_FORMAT", "json")

	code, out, _ := execute(t, "check")
	assert.Equal(t, exitFindings, code)
	assert.Contains(t, out, `"findings":[`)
}

func TestCheckConfigFile(t *testing.T) {
	dir := generate(t, "--nodes", "200")
	cfg := filepath.Join(t.TempDir(), "graphcheck.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("dir: "+dir+"\nworkers: 2\nio_limit: 16MiB\n"), 0o644))

	code, out, errOut := execute(t, "check", "--config", cfg)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "checked 200 nodes")

	code, _, errOut = execute(t, "check", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "read config")
}
