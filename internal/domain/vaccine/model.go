package vaccine

import "time"

// Vaccine is one administered dose, exposed over FHIR as Immunization.
type Vaccine struct {
	ID                 int64      `db:"id" json:"id"`
	PatientID          int64      `db:"patient_id" json:"patient_id" validate:"required"`
	GroupName          *string    `db:"group_name" json:"group_name" validate:"required,oneof=COVID-19"`
	ProductName        *string    `db:"product_name" json:"product_name" validate:"required,max=200"`
	AdministrationDate *time.Time `db:"administration_date" json:"administration_date" validate:"required,notfuture"`
	DoseNumber         *string    `db:"dose_number" json:"dose_number" validate:"omitempty,oneof=1 2 3 4 5 Unknown"`
	Notes              *string    `db:"notes" json:"notes" validate:"omitempty,max=2000"`
	CreatedAt          time.Time  `db:"created_at" json:"-"`
	UpdatedAt          time.Time  `db:"updated_at" json:"-"`
}

func (v *Vaccine) Identifier() int64 { return v.ID }

var Labels = map[string]string{
	"patient_id":          "Patient ID",
	"group_name":          "Vaccine Group",
	"product_name":        "Vaccine Product",
	"administration_date": "Administration Date",
	"dose_number":         "Dose Number",
	"notes":               "Notes",
}

// Product is a vaccine product known by its CVX code.
type Product struct {
	CVX   string
	Name  string
	Group string
}

const (
	CVXSystem    = "http://hl7.org/fhir/sid/cvx"
	SNOMEDSystem = "http://snomed.info/sct"
)

// Products lists the vaccines that may be recorded.
var Products = []Product{
	{CVX: "207", Name: "Moderna COVID-19 Vaccine (Non-Bivalent)", Group: "COVID-19"},
	{CVX: "208", Name: "Pfizer-BioNTech COVID-19 Vaccine (Non-Bivalent)", Group: "COVID-19"},
	{CVX: "210", Name: "AstraZeneca COVID-19 Vaccine", Group: "COVID-19"},
	{CVX: "211", Name: "Novavax COVID-19 Vaccine", Group: "COVID-19"},
	{CVX: "212", Name: "Janssen (J&J) COVID-19 Vaccine", Group: "COVID-19"},
	{CVX: "213", Name: "Unspecified COVID-19 Vaccine", Group: "COVID-19"},
	{CVX: "229", Name: "Moderna COVID-19 Vaccine (Bivalent)", Group: "COVID-19"},
	{CVX: "300", Name: "Pfizer-BioNTech COVID-19 Vaccine (Bivalent)", Group: "COVID-19"},
}

// Diseases maps target-disease SNOMED codes to vaccine groups.
var Diseases = map[string]string{"840539006": "COVID-19"}

func productByCVX(code string) (Product, bool) {
	for _, p := range Products {
		if p.CVX == code {
			return p, true
		}
	}
	return Product{}, false
}

func productByName(name string) (Product, bool) {
	for _, p := range Products {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}

func diseaseCode(group string) string {
	for code, g := range Diseases {
		if g == group {
			return code
		}
	}
	return ""
}
