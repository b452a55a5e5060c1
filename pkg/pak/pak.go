// Package pak provides read access to zip asset packs.
package pak

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Faultbox/objscene/pkg/encoding"
)

// ErrNotFound is returned by Read for paths missing from the pack.
var ErrNotFound = errors.New("file not found in pack")

// Archive represents an opened asset pack.
type Archive struct {
	reader   *zip.ReadCloser
	fileList map[string]*Entry
}

// Entry represents a file entry in the pack.
type Entry struct {
	Name             string // normalized path
	CompressedSize   uint64
	UncompressedSize uint64
	Method           uint16
	file             *zip.File
}

// Open opens a pack whose entry names are UTF-8.
func Open(path string) (*Archive, error) {
	return OpenEncoded(path, "")
}

// OpenEncoded opens a pack, decoding entry names that are not flagged as
// UTF-8 with the named text encoding.
func OpenEncoded(path, nameEncoding string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening pack: %w", err)
	}

	archive := &Archive{
		reader:   rc,
		fileList: make(map[string]*Entry, len(rc.File)),
	}
	if err := archive.readFileTable(nameEncoding); err != nil {
		rc.Close()
		return nil, fmt.Errorf("reading file table: %w", err)
	}
	return archive, nil
}

// Close closes the pack.
func (a *Archive) Close() error {
	if a.reader != nil {
		return a.reader.Close()
	}
	return nil
}

func (a *Archive) readFileTable(nameEncoding string) error {
	for _, f := range a.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := f.Name
		if f.NonUTF8 && !encoding.IsUTF8(nameEncoding) {
			decoded, err := encoding.Transcode([]byte(name), nameEncoding)
			if err != nil {
				return err
			}
			name = string(decoded)
		}
		entry := &Entry{
			Name:             encoding.NormalizeArchivePath(name),
			CompressedSize:   f.CompressedSize64,
			UncompressedSize: f.UncompressedSize64,
			Method:           f.Method,
			file:             f,
		}
		a.fileList[entry.Name] = entry
	}
	return nil
}

// List returns all file paths in the pack, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.fileList))
	for path := range a.fileList {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Contains checks if a file exists. Lookup is case-insensitive.
func (a *Archive) Contains(path string) bool {
	_, ok := a.fileList[encoding.NormalizeArchivePath(path)]
	return ok
}

// Stat returns the entry for path.
func (a *Archive) Stat(path string) (*Entry, bool) {
	e, ok := a.fileList[encoding.NormalizeArchivePath(path)]
	return e, ok
}

// Read reads a file from the pack. It is safe for concurrent use.
func (a *Archive) Read(path string) ([]byte, error) {
	entry, ok := a.fileList[encoding.NormalizeArchivePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	rc, err := entry.file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// IsPack reports whether path names a file with a pack extension.
func IsPack(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".zip") || strings.HasSuffix(lower, ".pak")
}
