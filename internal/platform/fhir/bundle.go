package fhir

import (
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/casemon/casemon/pkg/pagination"
)

type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Meta         *Meta         `json:"meta,omitempty"`
	Type         string        `json:"type"`
	Total        *int          `json:"total"`
	Link         []BundleLink  `json:"link,omitempty"`
	Entry        []BundleEntry `json:"entry"`
}

type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type BundleEntry struct {
	FullURL  string   `json:"fullUrl"`
	Resource Resource `json:"resource"`
}

func (b *Bundle) GetResourceType() string { return b.ResourceType }
func (b *Bundle) GetID() string           { return b.ID }

// ResourceURL is the canonical location of r under root, which must end
// with a slash.
func ResourceURL(root string, r Resource) string {
	return root + "fhir/r4/" + r.GetResourceType() + "/" + r.GetID()
}

// SearchBundleParams describes the search a Bundle answers.
type SearchBundleParams struct {
	Root         string
	ResourceType string
	Query        url.Values
	Page         pagination.Params
	Total        int
}

// NewSearchBundle builds a searchset Bundle. In summary mode the entries
// are dropped and no links are emitted; total is always set.
func NewSearchBundle(resources []Resource, params SearchBundleParams) *Bundle {
	total := params.Total
	b := newBundle(&total)
	if params.Page.Summary() {
		return b
	}
	b.Entry = entries(params.Root, resources)

	base := params.Root + "fhir/r4/" + params.ResourceType
	for _, l := range params.Page.Links(total) {
		b.Link = append(b.Link, BundleLink{Relation: l.Relation, URL: pageURL(base, params.Query, l.Page)})
	}
	return b
}

// NewEverythingBundle wraps a patient and all resources that belong to it.
func NewEverythingBundle(root string, resources []Resource) *Bundle {
	total := len(resources)
	b := newBundle(&total)
	b.Entry = entries(root, resources)
	return b
}

func newBundle(total *int) *Bundle {
	now := time.Now().UTC()
	return &Bundle{
		ResourceType: "Bundle",
		ID:           uuid.NewString(),
		Meta:         &Meta{LastUpdated: &now},
		Type:         "searchset",
		Total:        total,
		Entry:        []BundleEntry{},
	}
}

func entries(root string, resources []Resource) []BundleEntry {
	out := make([]BundleEntry, 0, len(resources))
	for _, r := range resources {
		out = append(out, BundleEntry{FullURL: ResourceURL(root, r), Resource: r})
	}
	return out
}

// pageURL keeps every query parameter of the original search and points
// page at n.
func pageURL(base string, query url.Values, n int) string {
	q := url.Values{}
	for k, vs := range query {
		q[k] = append([]string(nil), vs...)
	}
	q.Set("page", strconv.Itoa(n))
	return base + "?" + q.Encode()
}
