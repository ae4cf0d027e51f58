package document

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/erazemk/oprema/internal/model"
)

// FileStorage keeps documents under a root directory, laid out as
// <org>/<form type>/<user>/<form>.html.
type FileStorage struct {
	root string
}

var _ Storage = (*FileStorage)(nil)

// NewFileStorage creates the root directory if needed.
func NewFileStorage(root string) (*FileStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving documents directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("creating documents directory: %w", err)
	}
	return &FileStorage{root: abs}, nil
}

// Store writes the document and returns its file:// URI. Writes go through a
// temporary file so a crash never leaves a truncated document behind. An
// existing document for the same form is never replaced.
func (s *FileStorage) Store(ctx context.Context, data []byte, key Key) (string, error) {
	parts := []string{key.OrganizationID, string(key.FormType), key.UserID, key.FormID}
	for _, p := range parts {
		if !safeSegment(p) {
			return "", model.Invalid("document", "invalid path segment %q", p)
		}
	}

	dir := filepath.Join(s.root, parts[0], parts[1], parts[2])
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating document directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".doc-*")
	if err != nil {
		return "", fmt.Errorf("creating document: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing document: %w", err)
	}

	path := filepath.Join(dir, parts[3]+".html")
	if err := os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", &model.ConflictError{Reason: fmt.Sprintf("document for form %s already exists", key.FormID)}
		}
		return "", fmt.Errorf("storing document: %w", err)
	}

	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(), nil
}

// Delete removes a document previously returned by Store. Deleting a missing
// document is not an error.
func (s *FileStorage) Delete(ctx context.Context, uri string) error {
	path, err := s.pathFor(uri)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// Open returns the contents of a stored document.
func (s *FileStorage) Open(uri string) ([]byte, error) {
	path, err := s.pathFor(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &model.NotFoundError{Kind: "document", ID: uri}
	}
	return data, err
}

func (s *FileStorage) pathFor(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return "", fmt.Errorf("not a document uri: %q", uri)
	}
	path := filepath.FromSlash(u.Path)
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("document %q outside storage root", uri)
	}
	return path, nil
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
