package laboratory

import "time"

// Laboratory is a lab result recorded against a monitoree.
type Laboratory struct {
	ID                 int64      `db:"id" json:"id"`
	PatientID          int64      `db:"patient_id" json:"patient_id"`
	LabType            *string    `db:"lab_type" json:"lab_type"`
	SpecimenCollection *time.Time `db:"specimen_collection" json:"specimen_collection"`
	Report             *time.Time `db:"report" json:"report"`
	Result             *string    `db:"result" json:"result"`
	CreatedAt          time.Time  `db:"created_at" json:"-"`
	UpdatedAt          time.Time  `db:"updated_at" json:"-"`
}

func (l *Laboratory) Identifier() int64 { return l.ID }

const (
	LOINCSystem  = "http://loinc.org"
	SNOMEDSystem = "http://snomed.info/sct"
	// CategorySystem codes Observation.category.
	CategorySystem = "http://terminology.hl7.org/CodeSystem/observation-category"
)

// LabTypes maps the recorded lab type to its LOINC code.
var LabTypes = map[string]string{
	"PCR":            "94500-6",
	"Antigen":        "94558-4",
	"Total Antibody": "94762-2",
	"IgG Antibody":   "94563-4",
	"IgM Antibody":   "94564-2",
	"IgA Antibody":   "94562-6",
}

// genericLab is used for lab types with no specific code.
const genericLab = "94759-8"

// Results maps the recorded result to its SNOMED CT code.
var Results = map[string]string{
	"positive":      "10828004",
	"negative":      "260385009",
	"indeterminate": "82334004",
	"other":         "74964007",
}
