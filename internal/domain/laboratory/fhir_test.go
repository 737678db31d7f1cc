package laboratory

import (
	"testing"
	"time"
)

func TestToFHIR(t *testing.T) {
	collected := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)
	reported := time.Date(2021, 2, 3, 15, 4, 5, 0, time.UTC)
	labType, result := "PCR", "positive"
	obs := ToFHIR(&Laboratory{
		ID: 12, PatientID: 4, LabType: &labType, Result: &result,
		SpecimenCollection: &collected, Report: &reported,
	})

	if obs.ResourceType != "Observation" || obs.ID != "12" {
		t.Fatalf("unexpected identity %s/%s", obs.ResourceType, obs.ID)
	}
	if obs.Subject == nil || obs.Subject.Reference != "Patient/4" {
		t.Errorf("unexpected subject %+v", obs.Subject)
	}
	if got := obs.Code.FirstCode(); got != "94500-6" {
		t.Errorf("expected PCR LOINC code, got %q", got)
	}
	if obs.EffectiveDateTime != "2021-02-01" {
		t.Errorf("unexpected effectiveDateTime %q", obs.EffectiveDateTime)
	}
	if obs.ValueCodeableConcept == nil || obs.ValueCodeableConcept.FirstCode() != "10828004" {
		t.Errorf("unexpected value %+v", obs.ValueCodeableConcept)
	}
	if obs.Issued == "" {
		t.Error("expected issued to be set")
	}
}

func TestToFHIR_UnknownTypeAndEmptyResult(t *testing.T) {
	labType := "Culture"
	obs := ToFHIR(&Laboratory{ID: 1, PatientID: 2, LabType: &labType})
	if obs.Code.FirstCode() != genericLab || obs.Code.Text != "Culture" {
		t.Errorf("unexpected code %+v", obs.Code)
	}
	if obs.ValueCodeableConcept != nil {
		t.Errorf("expected no value, got %+v", obs.ValueCodeableConcept)
	}
	if obs.EffectiveDateTime != "" || obs.Issued != "" {
		t.Error("expected no dates")
	}
}
