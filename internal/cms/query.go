package cms

import (
	"net/url"
	"strings"
)

// SortDir is the direction of a sort modifier.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Endpoint paths consumed by the page routines.
var (
	EndpointBandInfo       = Path("/band-info").Populate("*").String()
	EndpointServices       = Path("/services").String()
	EndpointSocialMedia    = Path("/social-medias").String()
	EndpointGalleryItems   = Path("/gallery-items").Populate("*").String()
	EndpointContactInfo    = Path("/contact-info").String()
	EndpointTimelineEvents = Path("/timeline-events").Sort("order", Asc).String()
	EndpointBandMembers    = Path("/band-members").Populate("photo").Sort("order", Asc).String()
	EndpointSiteSetting    = Path("/site-setting").Populate("heroImage").String()
	EndpointContacts       = "/contacts"
)

// Query builds an endpoint path with populate/sort modifiers. Values keep the
// API's literal syntax (populate=*, sort=order:asc) rather than being
// percent-encoded.
type Query struct {
	path   string
	params []string
}

// Path starts a query for the given resource path.
func Path(p string) Query {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return Query{path: p}
}

// Populate expands relations: "*" or a comma separated field list.
func (q Query) Populate(fields ...string) Query {
	if len(fields) == 0 {
		return q
	}
	return q.with("populate", strings.Join(fields, ","))
}

// Sort orders a collection by field.
func (q Query) Sort(field string, dir SortDir) Query {
	if dir == "" {
		dir = Asc
	}
	return q.with("sort", field+":"+string(dir))
}

// Param appends an arbitrary key/value modifier.
func (q Query) Param(key, value string) Query {
	return q.with(key, value)
}

func (q Query) with(key, value string) Query {
	params := make([]string, len(q.params), len(q.params)+1)
	copy(params, q.params)
	q.params = append(params, escape(key)+"="+escape(value))
	return q
}

// String renders path plus query string.
func (q Query) String() string {
	if len(q.params) == 0 {
		return q.path
	}
	return q.path + "?" + strings.Join(q.params, "&")
}

var literalReplacer = strings.NewReplacer("%2A", "*", "%3A", ":", "%2C", ",", "%5B", "[", "%5D", "]")

func escape(s string) string {
	return literalReplacer.Replace(url.QueryEscape(s))
}
