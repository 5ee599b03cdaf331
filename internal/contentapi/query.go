package contentapi

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

type sortKey struct {
	field string
	desc  bool
}

// listQuery holds the modifiers accepted by read endpoints.
type listQuery struct {
	populateAll bool
	populate    map[string]bool
	sort        []sortKey
	page        int
	pageSize    int
}

func parseListQuery(values url.Values) (listQuery, error) {
	q := listQuery{page: 1, pageSize: defaultPageSize, populate: map[string]bool{}}

	for _, raw := range values["populate"] {
		for _, field := range strings.Split(raw, ",") {
			field = strings.TrimSpace(field)
			switch field {
			case "":
			case "*":
				q.populateAll = true
			default:
				q.populate[field] = true
			}
		}
	}

	for _, raw := range values["sort"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			field, dir, _ := strings.Cut(part, ":")
			key := sortKey{field: strings.TrimSpace(field)}
			switch strings.ToLower(strings.TrimSpace(dir)) {
			case "", "asc":
			case "desc":
				key.desc = true
			default:
				return listQuery{}, fmt.Errorf("invalid sort direction %q", dir)
			}
			if key.field == "" {
				return listQuery{}, fmt.Errorf("invalid sort %q", part)
			}
			q.sort = append(q.sort, key)
		}
	}

	if raw := strings.TrimSpace(values.Get("pagination[page]")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return listQuery{}, fmt.Errorf("invalid page %q", raw)
		}
		q.page = page
	}
	if raw := strings.TrimSpace(values.Get("pagination[pageSize]")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return listQuery{}, fmt.Errorf("invalid page size %q", raw)
		}
		if size > maxPageSize {
			size = maxPageSize
		}
		q.pageSize = size
	}
	return q, nil
}

func (q listQuery) populates(field string) bool {
	return q.populateAll || q.populate[field]
}

// sortEntries orders entries by the requested keys. Entries missing a key
// sort after those that have it; ties keep insertion order.
func sortEntries(entries []Entry, keys []sortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		for _, key := range keys {
			a, b := entryValue(entries[i], key.field), entryValue(entries[j], key.field)
			// missing values trail in either direction
			switch {
			case a == nil && b == nil:
				continue
			case a == nil:
				return false
			case b == nil:
				return true
			}
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if key.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func entryValue(e Entry, field string) any {
	switch field {
	case "id":
		return float64(e.ID)
	case "createdAt":
		return e.CreatedAt.Format(time.RFC3339Nano)
	case "updatedAt":
		return e.UpdatedAt.Format(time.RFC3339Nano)
	}
	return e.Attributes[field]
}

// compareValues orders numbers numerically and everything else by its
// string form. Both values must be non-nil.
func compareValues(a, b any) int {
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

type pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

func paginate(entries []Entry, page, size int) ([]Entry, pagination) {
	total := len(entries)
	meta := pagination{Page: page, PageSize: size, Total: total}
	if total > 0 {
		meta.PageCount = (total + size - 1) / size
	}
	start := (page - 1) * size
	if start >= total {
		return []Entry{}, meta
	}
	end := start + size
	if end > total {
		end = total
	}
	return entries[start:end], meta
}
