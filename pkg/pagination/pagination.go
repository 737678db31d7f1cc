package pagination

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultCount = 10
	MaxCount     = 500
)

// Params holds the FHIR paging parameters of a search request. A Count of
// zero requests summary mode: the total only, no entries and no links.
type Params struct {
	Count int
	Page  int
}

// FromContext extracts _count and page from the request query.
func FromContext(c echo.Context) Params {
	return FromQuery(c.QueryParams())
}

func FromQuery(q url.Values) Params {
	p := Params{Count: DefaultCount, Page: 1}

	if raw := q.Get("_count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			p.Count = n
		}
	}
	if p.Count > MaxCount {
		p.Count = MaxCount
	}

	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Page = n
	}
	return p
}

func (p Params) Summary() bool {
	return p.Count == 0
}

// Offset is the number of rows to skip for the current page.
func (p Params) Offset() int {
	if p.Summary() {
		return 0
	}
	return (p.Page - 1) * p.Count
}

// LastPage is the highest page holding results, or 0 when there are none.
func (p Params) LastPage(total int) int {
	if p.Summary() || total <= 0 {
		return 0
	}
	return (total + p.Count - 1) / p.Count
}

// Link is a navigation relation pointing at another page of the same search.
type Link struct {
	Relation string
	Page     int
}

// Links returns the first/previous/next/last relations that point at a
// non-empty page other than the current one.
func (p Params) Links(total int) []Link {
	last := p.LastPage(total)
	if last == 0 {
		return nil
	}
	inRange := func(n int) bool { return n >= 1 && n <= last && n != p.Page }

	var links []Link
	if inRange(1) {
		links = append(links, Link{Relation: "first", Page: 1})
	}
	if inRange(p.Page - 1) {
		links = append(links, Link{Relation: "previous", Page: p.Page - 1})
	}
	if inRange(p.Page + 1) {
		links = append(links, Link{Relation: "next", Page: p.Page + 1})
	}
	if inRange(last) {
		links = append(links, Link{Relation: "last", Page: last})
	}
	return links
}
