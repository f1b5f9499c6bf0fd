package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/config"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/service"
)

func runCLI(t *testing.T, args ...string) error {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lending.yml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: memory\nlog:\n  level: error\n"), 0o600))

	rootCmd.SetArgs(append([]string{"--config", path, "--no-color"}, args...))
	t.Cleanup(func() { flagConfig = "" })
	return rootCmd.Execute()
}

func TestParseBookID(t *testing.T) {
	id, err := parseBookID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, in := range []string{"", "abc", "0", "-3"} {
		_, err := parseBookID(in)
		assert.Error(t, err, in)
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printYAML(&buf, map[string]any{"http": map[string]string{"addr": ":8080"}}))
	assert.Equal(t, "http:\n  addr: :8080\n", buf.String())
}

func TestBookAddCommand(t *testing.T) {
	err := runCLI(t, "book", "add", "--title", "Dune", "--author", "Frank Herbert", "--isbn", "9780441172719", "--copies", "2")
	require.NoError(t, err)
}

func TestBookAddRejectsInvalidISBN(t *testing.T) {
	err := runCLI(t, "book", "add", "--title", "Dune", "--author", "Frank Herbert", "--isbn", "123", "--copies", "2")
	assert.ErrorIs(t, err, service.ErrInvalidISBN)
}

func TestBorrowUnknownBook(t *testing.T) {
	err := runCLI(t, "borrow", "123456", "7")
	assert.ErrorIs(t, err, service.ErrBookNotFound)
}

func TestBorrowRejectsBadBookID(t *testing.T) {
	err := runCLI(t, "borrow", "123456", "seven")
	assert.EqualError(t, err, `invalid book id "seven"`)
}

func TestOpenEngine_RejectsMalformedMySQLDSN(t *testing.T) {
	c := &config.Config{
		Storage: config.StorageConfig{Driver: "mysql", DSN: "root:root@tcp(localhost:3306)"},
		Log:     config.LogConfig{Level: "error", Format: "text"},
	}

	_, err := openEngine(context.Background(), c)

	assert.ErrorContains(t, err, "parse mysql dsn")
}
