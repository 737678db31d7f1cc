package laboratory

import (
	"github.com/casemon/casemon/internal/platform/fhir"
)

func ToFHIR(l *Laboratory) *fhir.Observation {
	updated := l.UpdatedAt
	d := fhir.ObservationData{
		Status: "final",
		Category: []fhir.CodeableConcept{{
			Coding: []fhir.Coding{{System: CategorySystem, Code: "laboratory", Display: "Laboratory"}},
		}},
		Subject: &fhir.Reference{Reference: fhir.FormatReference("Patient", l.PatientID)},
	}

	labType := deref(l.LabType)
	code, ok := LabTypes[labType]
	if !ok {
		code = genericLab
	}
	d.Code = fhir.CodeableConcept{Coding: []fhir.Coding{{System: LOINCSystem, Code: code}}, Text: labType}

	if l.SpecimenCollection != nil {
		d.EffectiveDateTime = fhir.FormatDate(*l.SpecimenCollection)
	}
	if l.Report != nil {
		d.Issued = fhir.FormatInstant(*l.Report)
	}
	if r := deref(l.Result); r != "" {
		cc := &fhir.CodeableConcept{Text: r}
		if c, ok := Results[r]; ok {
			cc.Coding = []fhir.Coding{{System: SNOMEDSystem, Code: c}}
		}
		d.ValueCodeableConcept = cc
	}
	return fhir.NewObservation(l.ID, &fhir.Meta{LastUpdated: &updated}, d)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
