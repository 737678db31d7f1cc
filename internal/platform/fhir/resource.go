package fhir

import (
	"regexp"
	"time"
)

// Resource is implemented by every FHIR resource struct this server emits.
type Resource interface {
	GetResourceType() string
	GetID() string
}

type Meta struct {
	VersionID   string     `json:"versionId,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// FirstCode returns the code of the first coding, or "".
func (cc *CodeableConcept) FirstCode() string {
	if cc == nil || len(cc.Coding) == 0 {
		return ""
	}
	return cc.Coding[0].Code
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

type Identifier struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

type Address struct {
	Use        string   `json:"use,omitempty"`
	Line       []string `json:"line,omitempty"`
	City       string   `json:"city,omitempty"`
	District   string   `json:"district,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Country    string   `json:"country,omitempty"`
}

type ContactPoint struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
	Rank   *int   `json:"rank,omitempty"`
}

type Annotation struct {
	Text string `json:"text"`
}

type Extension struct {
	URL          string  `json:"url"`
	ValueString  *string `json:"valueString,omitempty"`
	ValueCode    *string `json:"valueCode,omitempty"`
	ValueDate    *string `json:"valueDate,omitempty"`
	ValueBoolean *bool   `json:"valueBoolean,omitempty"`
	ValueInteger *int    `json:"valueInteger,omitempty"`
}

// ExtensionBase prefixes the StructureDefinition URLs of this server's
// extensions.
const ExtensionBase = "https://casemon.org/fhir/StructureDefinition/"

// ExtensionPath is the FHIRPath of an extension value on resourceType.
func ExtensionPath(resourceType, url, valueField string) string {
	return resourceType + ".extension('" + url + "')." + valueField
}

// StringExtension builds an extension carrying valueString; empty values
// yield nil so callers can append unconditionally.
func StringExtension(url, v string) *Extension {
	if v == "" {
		return nil
	}
	return &Extension{URL: url, ValueString: &v}
}

func CodeExtension(url, v string) *Extension {
	if v == "" {
		return nil
	}
	return &Extension{URL: url, ValueCode: &v}
}

func DateExtension(url string, d *time.Time) *Extension {
	if d == nil {
		return nil
	}
	s := FormatDate(*d)
	return &Extension{URL: url, ValueDate: &s}
}

func BooleanExtension(url string, v bool) *Extension {
	return &Extension{URL: url, ValueBoolean: &v}
}

func IntegerExtension(url string, v int) *Extension {
	return &Extension{URL: url, ValueInteger: &v}
}

// Extensions drops nil entries.
func Extensions(exts ...*Extension) []Extension {
	var out []Extension
	for _, e := range exts {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}

// FindExtension returns the index and value of the first extension with url.
func FindExtension(exts []Extension, url string) (int, *Extension) {
	for i := range exts {
		if exts[i].URL == url {
			return i, &exts[i]
		}
	}
	return -1, nil
}

const dateLayout = "2006-01-02"

var (
	dateRe     = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?$`)
	dateTimeRe = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2}(T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:\d{2}))?)?)?$`)
	idRe       = regexp.MustCompile(`^[A-Za-z0-9\-.]{1,64}$`)
)

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseDate parses the day portion of a FHIR date or dateTime. Partial
// dates ("2020", "2020-05") do not identify a day and are rejected.
func ParseDate(s string) (time.Time, bool) {
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func ptr[T any](v T) *T { return &v }

func Bool(v bool) *bool { return ptr(v) }
