package filestore

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/linefs/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "files"))
	require.NoError(t, err)
	return s
}

func TestNewCreatesBasePath(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "nested", "files")
	s, err := New(base)
	require.NoError(t, err)

	info, err := os.Stat(s.BasePath())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, s.Ready())
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "a.txt", true},
		{"dots inside", "a.b.c", true},
		{"unicode", "résumé.md", true},
		{"empty", "", false},
		{"parent", "..", false},
		{"parent prefix", "../etc/passwd", false},
		{"embedded parent", "a..b", false},
		{"slash", "dir/a.txt", false},
		{"absolute", "/etc/passwd", false},
		{"backslash", `..\x`, false},
		{"nul", "a\x00b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateName(tt.input)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, errors.ErrInvalidName, errors.CodeOf(err))
		})
	}
}

func TestInvalidNameRejectedEverywhere(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	outside := filepath.Join(filepath.Dir(s.BasePath()), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0644))

	for _, name := range []string{"../secret.txt", "a/b", `..\secret.txt`} {
		_, err := s.ListDirectory(ctx, name)
		assert.Equal(t, errors.ErrInvalidName, errors.CodeOf(err), "list %q", name)

		_, err = s.ReadFile(ctx, name)
		assert.Equal(t, errors.ErrInvalidName, errors.CodeOf(err), "read %q", name)

		_, err = s.WriteFile(ctx, name, []byte("x"))
		assert.Equal(t, errors.ErrInvalidName, errors.CodeOf(err), "write %q", name)

		err = s.DeleteFile(ctx, name)
		assert.Equal(t, errors.ErrInvalidName, errors.CodeOf(err), "delete %q", name)

		_, err = s.SearchFiles(ctx, name)
		assert.Equal(t, errors.ErrInvalidName, errors.CodeOf(err), "search %q", name)

		_, err = s.GetFileInfo(ctx, name)
		assert.Equal(t, errors.ErrInvalidName, errors.CodeOf(err), "info %q", name)
	}

	content, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(content))
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	entry, err := s.WriteFile(ctx, "hello.txt", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", entry.Name)
	assert.Equal(t, int64(11), entry.Size)
	assert.Equal(t, TypeFile, entry.Type)
	assert.True(t, entry.IsFile)

	file, err := s.ReadFile(ctx, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), file.Content)

	// Idempotent overwrite.
	_, err = s.WriteFile(ctx, "hello.txt", []byte("second"))
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "hello.txt", []byte("second"))
	require.NoError(t, err)
	file, err = s.ReadFile(ctx, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(file.Content))
}

func TestReadFileErrors(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, os.Mkdir(filepath.Join(s.BasePath(), "sub"), 0755))

	_, err := s.ReadFile(ctx, "missing.txt")
	assert.Equal(t, errors.ErrNotFound, errors.CodeOf(err))

	_, err = s.ReadFile(ctx, "sub")
	assert.Equal(t, errors.ErrIsDirectory, errors.CodeOf(err))
	assert.Equal(t, "Cannot read directory", errors.MessageOf(err))
}

func TestDeleteFile(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.WriteFile(ctx, "gone.txt", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteFile(ctx, "gone.txt"))
	err = s.DeleteFile(ctx, "gone.txt")
	assert.Equal(t, errors.ErrNotFound, errors.CodeOf(err))

	require.NoError(t, os.Mkdir(filepath.Join(s.BasePath(), "keep"), 0755))
	err = s.DeleteFile(ctx, "keep")
	assert.Equal(t, errors.ErrIsDirectory, errors.CodeOf(err))
	_, statErr := os.Stat(filepath.Join(s.BasePath(), "keep"))
	assert.NoError(t, statErr)
}

func TestListDirectory(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.WriteFile(ctx, "b.txt", []byte("bb"))
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "a.txt", []byte("a"))
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(s.BasePath(), "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(s.BasePath(), "docs", "inner.md"), []byte("#"), 0644))

	entries, err := s.ListDirectory(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, "b.txt", entries[1].Name)
	assert.Equal(t, "docs", entries[2].Name)
	assert.Equal(t, TypeDirectory, entries[2].Type)
	assert.True(t, entries[2].IsDirectory)

	inner, err := s.ListDirectory(ctx, "docs")
	require.NoError(t, err)
	require.Len(t, inner, 1)
	assert.Equal(t, "inner.md", inner[0].Name)

	_, err = s.ListDirectory(ctx, "nope")
	assert.Equal(t, errors.ErrNotFound, errors.CodeOf(err))
	assert.Equal(t, "Directory does not exist", errors.MessageOf(err))

	_, err = s.ListDirectory(ctx, "a.txt")
	assert.Equal(t, errors.ErrNotDirectory, errors.CodeOf(err))
}

func TestSearchFiles(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.WriteFile(ctx, "Report.TXT", []byte("r"))
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "notes.md", []byte("n"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(s.BasePath(), "archive", "old"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(s.BasePath(), "archive", "old", "report-2020.txt"), []byte("o"), 0644))

	results, err := s.SearchFiles(ctx, "report")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Report.TXT", results[0].Path)
	assert.Equal(t, "archive/old/report-2020.txt", results[1].Path)

	results, err = s.SearchFiles(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = s.SearchFiles(ctx, "")
	assert.Equal(t, errors.ErrInvalidArgument, errors.CodeOf(err))
}

func TestSearchSkipsUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	locked := filepath.Join(s.BasePath(), "locked")
	require.NoError(t, os.Mkdir(locked, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(locked, "match.txt"), []byte("x"), 0644))
	_, err := s.WriteFile(ctx, "match-top.txt", []byte("y"))
	require.NoError(t, err)
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	results, err := s.SearchFiles(ctx, "match")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "match-top.txt", results[0].Name)
}

func TestGetFileInfo(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.WriteFile(ctx, "info.bin", []byte{0, 1, 2})
	require.NoError(t, err)

	entry, err := s.GetFileInfo(ctx, "info.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(3), entry.Size)
	assert.False(t, entry.Created.IsZero())
	assert.False(t, entry.Modified.IsZero())

	_, err = s.GetFileInfo(ctx, "missing")
	assert.Equal(t, errors.ErrNotFound, errors.CodeOf(err))
}

func TestSearchHonorsCancellation(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.WriteFile(context.Background(), "x.txt", []byte("x"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.SearchFiles(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
