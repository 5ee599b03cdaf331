package upload

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// File describes a stored upload.
type File struct {
	Name    string
	Hash    string
	Ext     string
	Mime    string
	Size    int64
	URL     string
	Width   int
	Height  int
	Formats []string
}

// Local stores uploads on disk and exposes them under a public prefix.
type Local struct {
	dir    string
	prefix string
	cfg    Config
	newID  func() string
}

// NewLocal prepares dir for uploads. Files are served by the caller under
// publicPrefix (for example "/uploads").
func NewLocal(dir, publicPrefix string, cfg Config) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: create %s: %w", dir, err)
	}
	return &Local{
		dir:    dir,
		prefix: "/" + strings.Trim(publicPrefix, "/"),
		cfg:    cfg,
		newID:  func() string { return strings.ToLower(ulid.Make().String()) },
	}, nil
}

// Dir returns the storage directory.
func (l *Local) Dir() string { return l.dir }

// Save writes r under a fresh hash and reports the formats the media
// pipeline would derive for it. Nothing is resized.
func (l *Local) Save(name string, r io.Reader) (File, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return File{}, errors.New("upload: file name is required")
	}
	ext := strings.ToLower(filepath.Ext(base))
	hash := l.newID()
	stored := hash + ext

	br := bufio.NewReader(r)
	head, _ := br.Peek(512)
	mime := http.DetectContentType(head)

	dst, err := os.OpenFile(filepath.Join(l.dir, stored), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return File{}, fmt.Errorf("upload: create file: %w", err)
	}
	size, err := io.Copy(dst, br)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(l.dir, stored))
		return File{}, fmt.Errorf("upload: write file: %w", err)
	}

	file := File{
		Name: base,
		Hash: hash,
		Ext:  ext,
		Mime: mime,
		Size: size,
		URL:  path.Join(l.prefix, stored),
	}
	if strings.HasPrefix(mime, "image/") {
		if w, h, ok := dimensions(filepath.Join(l.dir, stored)); ok {
			file.Width, file.Height = w, h
			file.Formats = l.cfg.VariantsFor(w)
		}
	}
	return file, nil
}

func dimensions(p string) (int, int, bool) {
	f, err := os.Open(p)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
