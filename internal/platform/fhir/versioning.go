package fhir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// SetVersionHeaders sets ETag and Last-Modified on a versioned response.
func SetVersionHeaders(c echo.Context, meta *Meta) {
	if meta == nil {
		return
	}
	h := c.Response().Header()
	if v, err := strconv.Atoi(meta.VersionID); err == nil {
		h.Set("ETag", FormatETag(v))
	}
	if meta.LastUpdated != nil {
		h.Set("Last-Modified", meta.LastUpdated.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT"))
	}
}

// ExpectedVersion returns the version a client claims to be updating:
// the If-Match header when present, otherwise meta.versionId of the
// submitted resource. nil means an unconditional update.
func ExpectedVersion(ifMatch string, meta *Meta) (*int, error) {
	if strings.TrimSpace(ifMatch) != "" {
		v, err := ParseETag(ifMatch)
		if err != nil {
			return nil, &ParseError{Messages: []string{"If-Match: " + err.Error()}}
		}
		return &v, nil
	}
	if meta == nil || meta.VersionID == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(meta.VersionID)
	if err != nil {
		return nil, &ParseError{Messages: []string{"meta.versionId must be numeric"}}
	}
	return &v, nil
}

// ParseETag extracts the version number from an ETag value like W/"3" or "3".
func ParseETag(etag string) (int, error) {
	etag = strings.TrimSpace(etag)
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, `"`)

	v, err := strconv.Atoi(etag)
	if err != nil {
		return 0, fmt.Errorf("ETag must contain a numeric version: %s", etag)
	}
	return v, nil
}

// FormatETag creates a weak ETag from a version ID.
func FormatETag(versionID int) string {
	return fmt.Sprintf(`W/"%d"`, versionID)
}
