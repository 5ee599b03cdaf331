package nav

import (
	"path"
	"strings"
)

// Item represents a top-level navigation item.
type Item struct {
	Path     string // e.g. "/about.html"
	LabelKey string // i18n key, e.g. "nav.about"
}

// RenderedItem is a view model for the page menu.
type RenderedItem struct {
	Href     string
	LabelKey string
	Active   bool
}

// Main is the primary navigation definition, in menu order.
var Main = []Item{
	{Path: "/", LabelKey: "nav.home"},
	{Path: "/contrataciones.html", LabelKey: "nav.contrataciones"},
	{Path: "/about.html", LabelKey: "nav.about"},
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	current := canonical(currentPath)
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Active:   canonical(it.Path) == current,
		})
	}
	return items
}

// Lookup returns the menu item whose href resolves to the same page as href.
// In-page anchors and absolute URLs never match.
func Lookup(href string) (Item, bool) {
	if href == "" || strings.HasPrefix(href, "#") || strings.Contains(href, ":") {
		return Item{}, false
	}
	want := canonical(href)
	for _, it := range Main {
		if canonical(it.Path) == want {
			return it, true
		}
	}
	return Item{}, false
}

// canonical folds "/about", "/about.html" and "/about/" into one key, and
// "/" and "/index.html" into the root. Fragments and queries are ignored.
func canonical(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	clean := path.Clean("/" + strings.TrimPrefix(p, "/"))
	clean = strings.TrimSuffix(clean, ".html")
	if clean == "/index" {
		return "/"
	}
	return strings.ToLower(clean)
}
