package assessment

import (
	"github.com/casemon/casemon/internal/platform/fhir"
)

func ToFHIR(a *Assessment) *fhir.QuestionnaireResponse {
	updated := a.UpdatedAt
	d := fhir.QuestionnaireResponseData{
		Status:   "completed",
		Subject:  &fhir.Reference{Reference: fhir.FormatReference("Patient", a.PatientID)},
		Authored: fhir.FormatInstant(a.CreatedAt),
	}
	if a.WhoReported != nil && *a.WhoReported != "" {
		d.Author = &fhir.Reference{Display: *a.WhoReported}
	}
	for _, s := range a.Symptoms {
		item := fhir.QuestionnaireResponseItem{LinkID: s.Name, Text: s.Label}
		if ans, ok := answer(s); ok {
			item.Answer = []fhir.QuestionnaireResponseAnswer{ans}
		}
		d.Item = append(d.Item, item)
	}
	return fhir.NewQuestionnaireResponse(a.ID, &fhir.Meta{LastUpdated: &updated}, d)
}

// answer converts a symptom value. Unanswered symptoms have no answer.
func answer(s Symptom) (fhir.QuestionnaireResponseAnswer, bool) {
	switch s.Type {
	case SymptomBool:
		if s.BoolValue != nil {
			return fhir.QuestionnaireResponseAnswer{ValueBoolean: s.BoolValue}, true
		}
	case SymptomInteger:
		if s.IntValue != nil {
			return fhir.QuestionnaireResponseAnswer{ValueInteger: s.IntValue}, true
		}
	case SymptomFloat:
		if s.FloatValue != nil {
			return fhir.QuestionnaireResponseAnswer{ValueDecimal: s.FloatValue}, true
		}
	}
	return fhir.QuestionnaireResponseAnswer{}, false
}
