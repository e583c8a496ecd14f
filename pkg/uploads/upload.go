// Package uploads records metadata for files attached to a quote request.
// File contents are never stored or parsed.
package uploads

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/accreditkit/quoteform/pkg/intake"
)

// Common errors.
var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrNoFiles         = errors.New("no files uploaded")
)

const mib = 1024 * 1024

// Config configures upload acceptance.
type Config struct {
	// Accept is a list of allowed file extensions, lower case with the dot.
	Accept []string

	// MaxFileSize is the maximum file size in bytes. Zero means unlimited.
	MaxFileSize int64
}

// DefaultConfig accepts spreadsheet files up to 10MB.
func DefaultConfig() Config {
	return Config{
		Accept:      []string{".csv", ".xlsx", ".xls"},
		MaxFileSize: 10 * mib,
	}
}

// Entry is the metadata of one accepted file.
type Entry struct {
	// ID is a synthetic identifier, unrelated to the file contents.
	ID string `json:"id"`

	// Name is the sanitized original file name.
	Name string `json:"name"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`
}

// SizeLabel formats the size in mebibytes with one decimal, e.g. "2.5MB".
func (e Entry) SizeLabel() string {
	return SizeLabel(e.Size)
}

// Descriptor converts the entry into the stored form.
func (e Entry) Descriptor() intake.FileDescriptor {
	return intake.FileDescriptor{ID: e.ID, Name: e.Name, Size: e.SizeLabel()}
}

// SizeLabel formats n bytes in mebibytes with one decimal.
func SizeLabel(n int64) string {
	return fmt.Sprintf("%.1fMB", float64(n)/mib)
}

// NewEntry checks name and size against cfg and assigns a fresh ID.
func NewEntry(cfg Config, name string, size int64) (Entry, error) {
	name = sanitizeFilename(name)
	if !cfg.allowed(name) {
		return Entry{}, fmt.Errorf("%w: %s", ErrInvalidFileType, name)
	}
	if cfg.MaxFileSize > 0 && size > cfg.MaxFileSize {
		return Entry{}, fmt.Errorf("%w: %s", ErrFileTooLarge, name)
	}
	return Entry{
		ID:   uuid.NewString(),
		Name: name,
		Size: size,
	}, nil
}

func (cfg Config) allowed(name string) bool {
	if len(cfg.Accept) == 0 {
		return true
	}
	return slices.Contains(cfg.Accept, strings.ToLower(filepath.Ext(name)))
}

// AcceptAttr returns the value for an HTML accept attribute.
func (cfg Config) AcceptAttr() string {
	return strings.Join(cfg.Accept, ",")
}

// Result is one per-file outcome of a multipart upload.
type Result struct {
	Entry
	Error string `json:"error,omitempty"`
}

// Handler handles multipart upload requests. Only the part headers are
// inspected; the parsed form is discarded before responding.
type Handler struct {
	config   Config
	onAccept func(r *http.Request, entries []Entry) error
}

// NewHandler creates a new upload handler.
func NewHandler(config Config) *Handler {
	return &Handler{config: config}
}

// OnAccept sets the callback that receives the accepted entries.
// A returned error fails the request.
func (h *Handler) OnAccept(fn func(r *http.Request, entries []Entry) error) *Handler {
	h.onAccept = fn
	return h
}

// ServeHTTP handles upload requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 10); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		http.Error(w, ErrNoFiles.Error(), http.StatusBadRequest)
		return
	}

	var (
		results  []Result
		accepted []Entry
	)
	for _, fh := range files {
		entry, err := NewEntry(h.config, fh.Filename, fh.Size)
		if err != nil {
			results = append(results, Result{Entry: Entry{Name: sanitizeFilename(fh.Filename), Size: fh.Size}, Error: err.Error()})
			continue
		}
		accepted = append(accepted, entry)
		results = append(results, Result{Entry: entry})
	}

	if h.onAccept != nil && len(accepted) > 0 {
		if err := h.onAccept(r, accepted); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)

	filename = strings.Map(func(r rune) rune {
		if r == '\x00' {
			return '_'
		}
		return r
	}, filename)

	if len(filename) > 255 {
		ext := filepath.Ext(filename)
		filename = filename[:255-len(ext)] + ext
	}

	return filename
}
