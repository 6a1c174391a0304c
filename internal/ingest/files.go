// Package ingest turns report files dropped into the issues directory into
// messages, and pulls new report files from S3.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zulandar/signalbox/internal/store"
)

// ErrBadFilename marks a filename rejected by CleanName. It is always
// wrapped together with store.ErrInvalid.
var ErrBadFilename = errors.New("invalid filename")

// File types recognised by extension.
const (
	TypeCSV     = "csv"
	TypeSARIF   = "sarif"
	TypeJSON    = "json"
	TypeUnknown = "unknown"
)

// FileInfo describes one file in the issues directory.
type FileInfo struct {
	Filename string    `json:"filename"`
	Path     string    `json:"file_path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	FileType string    `json:"file_type"`
}

// Dir is the issues directory. Every name passed to its methods is checked
// with CleanName and must resolve inside the directory.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at path. The directory need not exist yet.
func NewDir(path string) (*Dir, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: resolve %s: %w", path, err)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute directory path.
func (d *Dir) Root() string { return d.root }

// CleanName reduces name to its base component and rejects names that could
// escape the directory or address hidden files.
func CleanName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", badName("filename must be a non-empty string")
	}
	if strings.ContainsRune(trimmed, 0) {
		return "", badName("filename contains null bytes")
	}
	clean := filepath.Base(strings.ReplaceAll(trimmed, "\\", "/"))
	switch {
	case clean == "." || clean == ".." || clean == "/":
		return "", badName("invalid filename")
	case strings.HasPrefix(clean, "."):
		return "", badName("hidden files are not allowed")
	}
	return clean, nil
}

func badName(reason string) error {
	return fmt.Errorf("ingest: %w: %w: %s", store.ErrInvalid, ErrBadFilename, reason)
}

// Path returns the absolute path of name inside the directory.
func (d *Dir) Path(name string) (string, error) {
	clean, err := CleanName(name)
	if err != nil {
		return "", err
	}
	p := filepath.Join(d.root, clean)
	rel, err := filepath.Rel(d.root, p)
	if err != nil || rel != clean {
		return "", badName(fmt.Sprintf("path traversal detected: %s", name))
	}
	return p, nil
}

// FileType classifies a filename by extension.
func FileType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return TypeCSV
	case ".sarif":
		return TypeSARIF
	case ".json":
		return TypeJSON
	default:
		return TypeUnknown
	}
}

// List returns the visible regular files in the directory, newest first.
// A missing directory lists as empty.
func (d *Dir) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.root)
	if errors.Is(err, os.ErrNotExist) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ingest: list %s: %w", d.root, err)
	}

	files := []FileInfo{}
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		files = append(files, FileInfo{
			Filename: e.Name(),
			Path:     filepath.Join(d.root, e.Name()),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
			FileType: FileType(e.Name()),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].Modified.Equal(files[j].Modified) {
			return files[i].Modified.After(files[j].Modified)
		}
		return files[i].Filename < files[j].Filename
	})
	return files, nil
}

// Latest returns the most recently modified file, or store.ErrNotFound when
// the directory is empty.
func (d *Dir) Latest() (*FileInfo, error) {
	files, err := d.List()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("ingest: %w: no files in %s", store.ErrNotFound, d.root)
	}
	return &files[0], nil
}

// Delete removes name from the directory.
func (d *Dir) Delete(name string) error {
	p, err := d.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("ingest: file %w: %s", store.ErrNotFound, name)
		}
		return fmt.Errorf("ingest: delete %s: %w", name, err)
	}
	return nil
}
