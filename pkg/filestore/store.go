// Package filestore implements the sandboxed file operations exposed by the
// line protocol.
//
// Every operation is confined to a single base directory. Names are validated
// before any filesystem access and resolved paths are checked for containment
// a second time after joining.
package filestore

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/marmos91/linefs/internal/logger"
	"github.com/marmos91/linefs/pkg/errors"
)

// Entry type names used in FileEntry.Type.
const (
	TypeFile      = "file"
	TypeDirectory = "directory"
)

// FileEntry describes a file or directory inside the store.
type FileEntry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path,omitempty"`
	Type        string    `json:"type"`
	Size        int64     `json:"size"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	IsDirectory bool      `json:"isDirectory"`
	IsFile      bool      `json:"isFile"`
}

// File is the result of ReadFile.
type File struct {
	Content []byte
	Entry   FileEntry
}

// Store is a filesystem sandbox rooted at one base directory.
//
// Store holds no locks; concurrent operations on the same name race at the
// filesystem level, last write wins.
type Store struct {
	basePath string
}

// New creates a Store rooted at basePath, creating the directory if needed.
func New(basePath string) (*Store, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, errors.NewIOError(basePath, "resolve base path", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, errors.NewIOError(basePath, "create base path", err)
	}
	return &Store{basePath: filepath.Clean(abs)}, nil
}

// BasePath returns the absolute base directory.
func (s *Store) BasePath() string {
	return s.basePath
}

// Ready reports whether the base directory is still accessible.
func (s *Store) Ready() error {
	info, err := os.Stat(s.basePath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.NewNotDirectoryError(s.basePath)
	}
	return nil
}

// ValidateName rejects names that could escape the base directory.
//
// A valid name is a single non-empty path component without "..", "/", "\"
// or NUL.
func ValidateName(name string) error {
	if name == "" {
		return errors.NewInvalidNameError(name)
	}
	if strings.Contains(name, "..") ||
		strings.ContainsAny(name, "/\\\x00") {
		return errors.NewInvalidNameError(name)
	}
	return nil
}

// resolve validates name and returns its absolute path inside the store.
// An empty name resolves to the base directory when allowBase is set.
func (s *Store) resolve(name string, allowBase bool) (string, error) {
	if name == "" && allowBase {
		return s.basePath, nil
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}

	full := filepath.Join(s.basePath, name)
	rel, err := filepath.Rel(s.basePath, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.NewInvalidNameError(name)
	}
	return full, nil
}

// ListDirectory returns the entries of dir, or of the base directory when dir
// is empty.
func (s *Store) ListDirectory(ctx context.Context, dir string) ([]FileEntry, error) {
	full, err := s.resolve(dir, true)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, mapStatError(dir, "directory", "list directory", err)
	}
	if !info.IsDir() {
		return nil, errors.NewNotDirectoryError(dir)
	}

	dirents, err := os.ReadDir(full)
	if err != nil {
		return nil, errors.NewIOError(dir, "list directory", err)
	}

	entries := make([]FileEntry, 0, len(dirents))
	for _, d := range dirents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := s.stat(filepath.Join(full, d.Name()), d.Name())
		if err != nil {
			// Entry vanished between ReadDir and Lstat.
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.NewIOError(d.Name(), "list directory", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReadFile returns the content and metadata of name.
func (s *Store) ReadFile(ctx context.Context, name string) (*File, error) {
	full, err := s.resolve(name, false)
	if err != nil {
		return nil, err
	}

	entry, err := s.stat(full, name)
	if err != nil {
		return nil, mapStatError(name, "file", "read file", err)
	}
	if entry.IsDirectory {
		return nil, errors.NewIsDirectoryError(name, "read")
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, mapStatError(name, "file", "read file", err)
	}
	return &File{Content: content, Entry: entry}, nil
}

// WriteFile creates or replaces name with content.
//
// The write is not atomic: a concurrent reader may observe a partial file.
func (s *Store) WriteFile(ctx context.Context, name string, content []byte) (*FileEntry, error) {
	full, err := s.resolve(name, false)
	if err != nil {
		return nil, err
	}

	if info, err := os.Stat(full); err == nil && info.IsDir() {
		return nil, errors.NewIsDirectoryError(name, "write")
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return nil, errors.NewIOError(name, "write file", err)
	}
	if err := os.WriteFile(full, content, 0644); err != nil {
		return nil, errors.NewIOError(name, "write file", err)
	}

	entry, err := s.stat(full, name)
	if err != nil {
		return nil, errors.NewIOError(name, "write file", err)
	}
	return &entry, nil
}

// DeleteFile removes name. Directories are never removed.
func (s *Store) DeleteFile(ctx context.Context, name string) error {
	full, err := s.resolve(name, false)
	if err != nil {
		return err
	}

	info, err := os.Lstat(full)
	if err != nil {
		return mapStatError(name, "file", "delete file", err)
	}
	if info.IsDir() {
		return errors.NewIsDirectoryError(name, "delete")
	}

	if err := os.Remove(full); err != nil {
		return mapStatError(name, "file", "delete file", err)
	}
	return nil
}

// SearchFiles walks the store and returns every entry whose name contains
// keyword, compared case-insensitively. Unreadable subdirectories are skipped.
func (s *Store) SearchFiles(ctx context.Context, keyword string) ([]FileEntry, error) {
	if keyword == "" {
		return nil, errors.NewInvalidArgumentError("Keyword required")
	}
	if err := ValidateName(keyword); err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)
	results := make([]FileEntry, 0)
	if err := s.search(ctx, s.basePath, needle, &results); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

func (s *Store) search(ctx context.Context, dir, needle string, results *[]FileEntry) error {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		if dir == s.basePath {
			return errors.NewIOError("", "search files", err)
		}
		logger.Warn("Skipping unreadable directory during search",
			logger.KeyPath, s.relative(dir), logger.KeyError, err)
		return nil
	}

	for _, d := range dirents {
		if err := ctx.Err(); err != nil {
			return err
		}

		full := filepath.Join(dir, d.Name())
		if strings.Contains(strings.ToLower(d.Name()), needle) {
			entry, err := s.stat(full, d.Name())
			if err == nil {
				entry.Path = s.relative(full)
				*results = append(*results, entry)
			}
		}

		if d.IsDir() {
			if err := s.search(ctx, full, needle, results); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetFileInfo returns the metadata of name.
func (s *Store) GetFileInfo(ctx context.Context, name string) (*FileEntry, error) {
	full, err := s.resolve(name, false)
	if err != nil {
		return nil, err
	}

	entry, err := s.stat(full, name)
	if err != nil {
		return nil, mapStatError(name, "file", "get file info", err)
	}
	return &entry, nil
}

func (s *Store) stat(full, name string) (FileEntry, error) {
	info, err := os.Lstat(full)
	if err != nil {
		return FileEntry{}, err
	}

	entry := FileEntry{
		Name:        name,
		Type:        TypeFile,
		Size:        info.Size(),
		Created:     creationTime(full, info),
		Modified:    info.ModTime(),
		IsDirectory: info.IsDir(),
		IsFile:      info.Mode().IsRegular(),
	}
	if info.IsDir() {
		entry.Type = TypeDirectory
	}
	return entry, nil
}

func (s *Store) relative(full string) string {
	rel, err := filepath.Rel(s.basePath, full)
	if err != nil {
		return filepath.Base(full)
	}
	return filepath.ToSlash(rel)
}

func mapStatError(name, kind, op string, err error) error {
	if stderrors.Is(err, fs.ErrNotExist) {
		return errors.NewNotFoundError(name, kind)
	}
	return errors.NewIOError(name, op, err)
}
