package assessment

import "time"

const (
	SymptomBool    = "BoolSymptom"
	SymptomInteger = "IntegerSymptom"
	SymptomFloat   = "FloatSymptom"
)

// Symptom is one answered question of a daily report.
type Symptom struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	Type       string   `json:"type"`
	BoolValue  *bool    `json:"bool_value,omitempty"`
	IntValue   *int     `json:"int_value,omitempty"`
	FloatValue *float64 `json:"float_value,omitempty"`
}

// Assessment is a monitoree's symptom report, exposed over FHIR as
// QuestionnaireResponse.
type Assessment struct {
	ID          int64     `db:"id" json:"id"`
	PatientID   int64     `db:"patient_id" json:"patient_id"`
	Symptomatic bool      `db:"symptomatic" json:"symptomatic"`
	WhoReported *string   `db:"who_reported" json:"who_reported"`
	Symptoms    []Symptom `db:"symptoms" json:"symptoms"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"-"`
}

func (a *Assessment) Identifier() int64 { return a.ID }
