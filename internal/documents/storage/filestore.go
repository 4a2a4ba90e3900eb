package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// FileStore persists archived document files on behalf of the archive
// service. Paths handed back are relative to the store root so database
// rows stay valid if the media directory moves.
type FileStore interface {
	// Save writes the reader's content under documents/<type>/<id>/ and
	// returns the stored filename (collision-suffixed if needed), the
	// relative path, and the byte count written.
	Save(documentType, documentID, filename string, r io.Reader) (string, string, int64, error)
	Open(relPath string) (io.ReadCloser, error)
	Delete(relPath string) error
	Exists(relPath string) bool
}

// DiskStore is a FileStore rooted at a media directory on local disk.
type DiskStore struct {
	root string
}

// NewDiskStore creates a disk-backed file store rooted at mediaRoot
func NewDiskStore(mediaRoot string) (*DiskStore, error) {
	abs, err := filepath.Abs(mediaRoot)
	if err != nil {
		return nil, fmt.Errorf("filestore: resolve media root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create media root: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename strips path components and collapses characters
// outside [a-zA-Z0-9._-] into single underscores.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return name
}

func (s *DiskStore) dirFor(documentType, documentID string) string {
	return filepath.Join(s.root, "documents", SanitizeFilename(documentType), SanitizeFilename(documentID))
}

func (s *DiskStore) Save(documentType, documentID, filename string, r io.Reader) (string, string, int64, error) {
	dir := s.dirFor(documentType, documentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", 0, fmt.Errorf("filestore: create directory: %w", err)
	}

	name := SanitizeFilename(filename)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	// Walk base.ext, base_1.ext, base_2.ext ... until a free slot
	candidate := name
	for n := 1; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			break
		}
		candidate = fmt.Sprintf("%s_%d%s", base, n, ext)
	}

	target := filepath.Join(dir, candidate)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", "", 0, fmt.Errorf("filestore: create file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", "", 0, fmt.Errorf("filestore: write file: %w", err)
	}

	rel, err := filepath.Rel(s.root, target)
	if err != nil {
		return "", "", 0, fmt.Errorf("filestore: relativize path: %w", err)
	}
	return candidate, filepath.ToSlash(rel), size, nil
}

// resolve rejects relative paths that escape the store root
func (s *DiskStore) resolve(relPath string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(relPath))
	if !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("filestore: path escapes media root")
	}
	return full, nil
}

func (s *DiskStore) Open(relPath string) (io.ReadCloser, error) {
	full, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (s *DiskStore) Delete(relPath string) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestore: delete file: %w", err)
	}
	return nil
}

func (s *DiskStore) Exists(relPath string) bool {
	full, err := s.resolve(relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// AbsPath returns the absolute filesystem path for a stored file. Used
// when files must be handed to collaborators that read from disk, such
// as the mailer's attachment loader.
func (s *DiskStore) AbsPath(relPath string) (string, error) {
	return s.resolve(relPath)
}
