package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCUE(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "customer.cue", `
entity: Customer: {
	id: "customerID"
	properties: {
		customerID: {type: "attribute", attr: "string"}
		orders:     {type: "toMany", target: "Order"}
	}
}
`)
	writeCUE(t, dir, "order.cue", `
entity: Order: {
	id: "orderID"
	properties: orderID: {type: "attribute", attr: "string"}
}
`)

	sch, err := LoadDir(dir)
	require.NoError(t, err)

	// Declarations from both files unified into one schema
	assert.Equal(t, []string{"Customer", "Order"}, sch.Kinds())
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorContains(t, err, "not found")
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.ErrorContains(t, err, "no CUE files")
}

func TestLoadDirNotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.cue")
	require.NoError(t, os.WriteFile(path, []byte("entity: {}"), 0o644))

	_, err := LoadDir(path)
	assert.ErrorContains(t, err, "not a directory")
}

func TestFindCUEFilesSorted(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "zeta.cue", "x: 1")
	writeCUE(t, dir, "alpha.cue", "x: 1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "alpha.cue", filepath.Base(files[0]))
	assert.Equal(t, "zeta.cue", filepath.Base(files[1]))
}
