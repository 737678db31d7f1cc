package fhir

import (
	"mime"
	"strings"
)

const (
	MediaTypeFHIRJSON  = "application/fhir+json"
	MediaTypeJSONPatch = "application/json-patch+json"

	// FHIRContentType is sent on every FHIR response body.
	FHIRContentType = "application/fhir+json; charset=utf-8"
)

// normalizeFormat lowercases and restores a "+" that query decoding turned
// into a space ("application/fhir json").
func normalizeFormat(raw string) string {
	f := strings.TrimSpace(strings.ToLower(raw))
	return strings.ReplaceAll(f, "fhir json", "fhir+json")
}

func isJSONFormat(format string) bool {
	switch normalizeFormat(format) {
	case "json", "application/json", MediaTypeFHIRJSON:
		return true
	}
	return false
}

// AcceptsFHIRJSON reports whether a request asked for FHIR JSON, either
// through the Accept header or an equivalent _format query value.
func AcceptsFHIRJSON(accept, format string) bool {
	if format != "" && isJSONFormat(format) {
		return true
	}
	for _, part := range strings.Split(accept, ",") {
		if MediaType(part) == MediaTypeFHIRJSON {
			return true
		}
	}
	return false
}

// MediaType strips parameters such as charset from a content type.
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	return mt
}
