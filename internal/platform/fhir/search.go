package fhir

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Param returns the trimmed value of a search parameter; blank values are
// treated as absent.
func Param(q url.Values, name string) (string, bool) {
	v := strings.TrimSpace(q.Get(name))
	return v, v != ""
}

// ParseID reads a numeric resource id. ok is false for anything else.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseBool accepts the FHIR token values true and false.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

var patientRefRe = regexp.MustCompile(`^Patient/(\d+)$`)

// PatientReferenceID extracts the id from a "Patient/<id>" reference.
func PatientReferenceID(ref string) (int64, bool) {
	m := patientRefRe.FindStringSubmatch(ref)
	if m == nil {
		return 0, false
	}
	return ParseID(m[1])
}

// FormatReference builds a relative literal reference.
func FormatReference(resourceType string, id int64) string {
	return resourceType + "/" + strconv.FormatInt(id, 10)
}

// DependentFilter is the parsed search for resources owned by a patient
// (subject or patient, and _id). A supplied value that cannot match any
// record sets Impossible.
type DependentFilter struct {
	ID         *int64
	PatientID  *int64
	Impossible bool
}

func ParseDependentFilter(q url.Values) DependentFilter {
	var f DependentFilter
	for _, name := range []string{"subject", "patient"} {
		v, ok := Param(q, name)
		if !ok {
			continue
		}
		id, ok := PatientReferenceID(v)
		if !ok || (f.PatientID != nil && *f.PatientID != id) {
			f.Impossible = true
			continue
		}
		f.PatientID = &id
	}
	if v, ok := Param(q, "_id"); ok {
		id, ok := ParseID(v)
		if !ok {
			f.Impossible = true
		} else {
			f.ID = &id
		}
	}
	return f
}

// LikePattern wraps s for a substring ILIKE match, escaping wildcards.
func LikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
