package render

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// el builds an element node. attrs are key/value pairs.
func el(tag atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: tag, Data: tag.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// with appends children and returns the parent.
func with(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		if c != nil {
			parent.AppendChild(c)
		}
	}
	return parent
}

// replace clears region and appends nodes. The clear-then-write order keeps
// repeated renders idempotent.
func replace(region *goquery.Selection, nodes ...*html.Node) {
	region.Empty()
	if len(nodes) > 0 {
		region.AppendNodes(nodes...)
	}
}

// replaceHTML clears region and inserts markup.
func replaceHTML(region *goquery.Selection, markup string) {
	region.Empty()
	region.SetHtml(markup)
}
