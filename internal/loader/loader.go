package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupportedType is returned for file extensions the loader cannot read
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrEmptyDocument is returned when a file yields no extractable text
	ErrEmptyDocument = errors.New("no text extracted from document")
	// ErrFileTooLarge is returned when a file exceeds MaxFileSize
	ErrFileTooLarge = errors.New("file too large")
)

// MaxFileSize caps how much a single ingest will read (32 MiB)
const MaxFileSize = 32 << 20

// supported maps the file extensions the loader understands to their reader
var supported = map[string]func(path string) (string, error){
	".txt":  loadText,
	".text": loadText,
	".md":   loadText,
	".pdf":  loadPDF,
}

// IsSupported reports whether the loader can extract text from the file
func IsSupported(path string) bool {
	_, ok := supported[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SupportedExtensions returns the extensions Load accepts
func SupportedExtensions() []string {
	return []string{".md", ".pdf", ".text", ".txt"}
}

// Load extracts the plain text of the file at path
func Load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	read, ok := supported[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if err := checkSize(info.Size()); err != nil {
		return "", fmt.Errorf("%w: %s is %d bytes", err, path, info.Size())
	}

	text, err := read(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}
	return text, nil
}

func checkSize(size int64) error {
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

func loadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func loadPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer: %w", err)
	}
	return buf.String(), nil
}

// TitleFromPath derives a document title from its file name
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
