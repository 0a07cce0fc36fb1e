package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, Execute(context.Background(), args, &out))
	return out.String()
}

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MOLINK_DATA_DIR", dir)
	t.Setenv("MOLINK_LOG_MODE", "prod")
	return dir
}

func TestNewListRm(t *testing.T) {
	setup(t)

	id := strings.TrimSpace(run(t, "new", "Groceries"))
	require.NotEmpty(t, id)

	out := run(t, "list")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Groceries")

	assert.Contains(t, run(t, "rm", id), "Deleted "+id)
	assert.Equal(t, "No pages\n", run(t, "list"))
}

func TestImportExport(t *testing.T) {
	dir := setup(t)
	src := filepath.Join(dir, "todo.md")
	md := "# Chores\n\n- [ ] dishes\n- [x] laundry\n"
	require.NoError(t, os.WriteFile(src, []byte(md), 0644))

	id := strings.TrimSpace(run(t, "import", "--link", src))
	assert.Equal(t, md, run(t, "export", id))

	dst := filepath.Join(dir, "out.md")
	run(t, "export", id, "-o", dst)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, md, string(data))

	list := run(t, "list", "--json")
	assert.Contains(t, list, `"title": "Chores"`)
	assert.Contains(t, list, src)
}

func TestErrors(t *testing.T) {
	setup(t)
	var out bytes.Buffer
	assert.Error(t, Execute(context.Background(), []string{"export", "missing"}, &out))
	assert.Error(t, Execute(context.Background(), []string{"import", "/nonexistent/file.md"}, &out))
	assert.Error(t, Execute(context.Background(), []string{"rm"}, &out))
}

func TestBadConfig(t *testing.T) {
	setup(t)
	t.Setenv("MOLINK_DB_DRIVER", "oracle")
	var out bytes.Buffer
	assert.Error(t, Execute(context.Background(), []string{"list"}, &out))
}
