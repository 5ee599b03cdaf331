package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// pageCache holds raw page markup. In dev mode pages are read from disk on
// every request so edits show up without a restart.
type pageCache struct {
	dir string
	dev bool

	mu  sync.RWMutex
	raw map[string]string
}

func newPageCache(dir string, dev bool) *pageCache {
	return &pageCache{dir: dir, dev: dev, raw: map[string]string{}}
}

// load returns the markup of page name (e.g. "about.html"). Missing pages
// yield an error matching fs.ErrNotExist.
func (c *pageCache) load(name string) (string, error) {
	if !validPageName(name) {
		return "", fmt.Errorf("page %q: %w", name, fs.ErrNotExist)
	}
	if !c.dev {
		c.mu.RLock()
		markup, ok := c.raw[name]
		c.mu.RUnlock()
		if ok {
			return markup, nil
		}
	}
	b, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		return "", err
	}
	markup := string(b)
	if !c.dev {
		c.mu.Lock()
		c.raw[name] = markup
		c.mu.Unlock()
	}
	return markup, nil
}

// pageFile maps a URL segment to a page file: "" is the home page and a
// missing extension means ".html".
func pageFile(segment string) string {
	segment = strings.Trim(segment, "/")
	if segment == "" {
		return "index.html"
	}
	if !strings.HasSuffix(segment, ".html") {
		segment += ".html"
	}
	return segment
}

// pagePath is the canonical URL of a page file.
func pagePath(name string) string {
	if name == "index.html" {
		return "/"
	}
	return "/" + name
}

func validPageName(name string) bool {
	base := strings.TrimSuffix(name, ".html")
	if base == "" || base == name {
		return false
	}
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
