// Package page builds pagination links and prev/current/next navigation for
// list endpoints driven by skip/limit query parameters.
package page

import "fmt"

// Navigation points at the neighbouring pages of the current one. Prev and
// Next are omitted at the edges.
type Navigation struct {
	Prev    string `json:"prev,omitempty"`
	Current string `json:"current"`
	Next    string `json:"next,omitempty"`
}

// Meta is the pagination envelope attached to list responses.
type Meta struct {
	Links       []string   `json:"links"`
	Navigation  Navigation `json:"navigation"`
	TotalPages  int        `json:"total_pages"`
	CurrentPage int        `json:"current_page"`
}

func queryString(skip, limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf("?skip=%d&limit=%d", skip, limit)
}

func buildURL(base string, skip, limit int) string {
	return base + queryString(skip, limit)
}

// Build computes the link list and navigation for a collection of total
// items viewed at the given skip/limit. A non-positive limit means the whole
// collection fits on one page. A skip that does not fall on a page boundary
// yields navigation with only the current URL.
func Build(base string, total, skip, limit int) Meta {
	var links []string
	if limit <= 0 {
		links = []string{buildURL(base, 0, 0)}
	} else {
		pages := (total + limit - 1) / limit
		for n := 0; n < pages; n++ {
			links = append(links, buildURL(base, n*limit, limit))
		}
	}

	current := buildURL(base, skip, limit)
	meta := Meta{Links: links, TotalPages: len(links)}

	idx := -1
	for i, link := range links {
		if link == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		meta.Navigation = Navigation{Current: current}
		return meta
	}

	meta.CurrentPage = idx
	nav := Navigation{Current: current}
	if idx > 0 {
		nav.Prev = links[idx-1]
	}
	if idx+1 < len(links) {
		nav.Next = links[idx+1]
	}
	meta.Navigation = nav
	return meta
}
