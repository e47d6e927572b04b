package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func builtinRegistry(t *testing.T, now func() time.Time) *Registry {
	t.Helper()
	tools, err := Builtins(DefaultBuiltins, now)
	require.NoError(t, err)
	reg, err := NewRegistry(tools...)
	require.NoError(t, err)
	return reg
}

func TestCurrentTime(t *testing.T) {
	now := func() time.Time { return time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC) }
	out, err := builtinRegistry(t, now).Call(context.Background(), CurrentTime, nil)
	require.NoError(t, err)
	require.Equal(t, "Tuesday, March 05, 2024 at 02:07 PM", out)
}

func TestFilesystem(t *testing.T) {
	reg := builtinRegistry(t, nil)

	t.Run("lists entries", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "it's.md"), nil, 0o600))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "a"), 0o700))

		args, err := json.Marshal(map[string]string{"path": dir})
		require.NoError(t, err)
		out, err := reg.Call(context.Background(), Filesystem, args)
		require.NoError(t, err)
		require.Equal(t, `['a', 'b.txt', "it's.md"]`, out)
	})

	t.Run("empty dir", func(t *testing.T) {
		out, err := reg.Call(context.Background(), Filesystem, []byte(`{"path":"`+t.TempDir()+`"}`))
		require.NoError(t, err)
		require.Equal(t, "[]", out)
	})

	t.Run("missing dir is reported in the result", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope")
		out, err := reg.Call(context.Background(), Filesystem, []byte(`{"path":"`+missing+`"}`))
		require.NoError(t, err)
		require.Contains(t, out, "Error accessing path '"+missing+"': ")
	})

	t.Run("bad arguments", func(t *testing.T) {
		_, err := reg.Call(context.Background(), Filesystem, []byte(`{"path": ["a", "b"]}`))
		require.ErrorContains(t, err, "invalid arguments")
	})
}

func TestSchema(t *testing.T) {
	reg := builtinRegistry(t, nil)

	fs, ok := reg.Lookup(Filesystem)
	require.True(t, ok)
	require.Equal(t, "object", fs.Schema["type"])
	require.Equal(t, []any{"path"}, fs.Schema["required"])
	props, ok := fs.Schema["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, props, "path")
	require.NotContains(t, fs.Schema, "$schema")

	clock, ok := reg.Lookup(CurrentTime)
	require.True(t, ok)
	require.Equal(t, map[string]any{}, clock.Schema["properties"])
}

func TestRegistry(t *testing.T) {
	t.Run("duplicate names", func(t *testing.T) {
		tool := Tool{Name: "x"}
		_, err := NewRegistry(tool, tool)
		require.ErrorContains(t, err, `duplicate tool "x"`)
	})

	t.Run("unknown tool names the available ones", func(t *testing.T) {
		_, err := builtinRegistry(t, nil).Call(context.Background(), "nope", nil)
		require.EqualError(t, err, `unknown tool "nope": available tools are get_current_time and get_filesystem`)
	})

	t.Run("panics become errors", func(t *testing.T) {
		reg, err := NewRegistry(Tool{Name: "bad", Run: func(context.Context, json.RawMessage) (string, error) {
			panic("oops")
		}})
		require.NoError(t, err)
		_, err = reg.Call(context.Background(), "bad", nil)
		require.EqualError(t, err, "bad: panic: oops")
	})

	t.Run("nil registry", func(t *testing.T) {
		var reg *Registry
		require.Zero(t, reg.Len())
		_, ok := reg.Lookup("x")
		require.False(t, ok)
	})

	t.Run("unknown builtin", func(t *testing.T) {
		_, err := Builtins([]string{"navigate_webpage"}, nil)
		require.ErrorContains(t, err, "navigate_webpage")
	})
}

func TestDecodeArgs(t *testing.T) {
	type input struct {
		Path string `json:"path"`
	}

	t.Run("valid", func(t *testing.T) {
		var in input
		require.NoError(t, DecodeArgs([]byte(`{"path":"/tmp"}`), &in))
		require.Equal(t, "/tmp", in.Path)
	})

	t.Run("empty", func(t *testing.T) {
		in := input{Path: "unchanged"}
		require.NoError(t, DecodeArgs([]byte("  "), &in))
		require.Equal(t, "unchanged", in.Path)
	})

	t.Run("repairs trailing comma and single quotes", func(t *testing.T) {
		var in input
		require.NoError(t, DecodeArgs([]byte(`{'path': '/tmp',}`), &in))
		require.Equal(t, "/tmp", in.Path)
	})

	t.Run("type mismatch is not repaired", func(t *testing.T) {
		var in input
		require.Error(t, DecodeArgs([]byte(`{"path": 42}`), &in))
	})

	t.Run("through a tool", func(t *testing.T) {
		reg := builtinRegistry(t, nil)
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0o600))
		out, err := reg.Call(context.Background(), Filesystem, json.RawMessage(`{"path": "`+dir+`"`))
		require.NoError(t, err)
		require.Equal(t, "['a.txt']", out)
	})
}
