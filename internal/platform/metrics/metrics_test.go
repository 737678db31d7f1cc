package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/fhir/r4/:type", "200"))
	RecordHTTPRequest("GET", "/fhir/r4/:type", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/fhir/r4/:type", "200"))
	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestRecordWrite(t *testing.T) {
	RecordWrite("Patient", "create", "created")
	if got := testutil.ToFloat64(FHIRWritesTotal.WithLabelValues("Patient", "create", "created")); got < 1 {
		t.Errorf("expected at least one recorded write, got %v", got)
	}
}
