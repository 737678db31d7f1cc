package fhir

import "strconv"

type PatientCommunication struct {
	Language  CodeableConcept `json:"language"`
	Preferred *bool           `json:"preferred,omitempty"`
}

// PatientData holds the elements of a Patient below the resource header.
type PatientData struct {
	Extension     []Extension            `json:"extension,omitempty"`
	Identifier    []Identifier           `json:"identifier,omitempty"`
	Active        *bool                  `json:"active,omitempty"`
	Name          []HumanName            `json:"name,omitempty"`
	Telecom       []ContactPoint         `json:"telecom,omitempty"`
	Gender        string                 `json:"gender,omitempty"`
	BirthDate     string                 `json:"birthDate,omitempty"`
	Address       []Address              `json:"address,omitempty"`
	Communication []PatientCommunication `json:"communication,omitempty"`
}

type Patient struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id,omitempty"`
	Meta         *Meta  `json:"meta,omitempty"`
	PatientData
}

func NewPatient(id int64, meta *Meta, d PatientData) *Patient {
	return &Patient{ResourceType: "Patient", ID: formatID(id), Meta: meta, PatientData: d}
}

func (p *Patient) GetResourceType() string { return p.ResourceType }
func (p *Patient) GetID() string           { return p.ID }

func (p *Patient) validate() Issues {
	is := Issues{}
	checkResourceType(is, p.ResourceType, "Patient")
	checkID(is, p.ID)
	checkCode(is, "gender", p.Gender, "male", "female", "other", "unknown")
	checkDate(is, "birthDate", p.BirthDate)
	is.merge(validateExtensions(p.Extension))
	is.merge(validateNames(p.Name))
	is.merge(validateTelecom(p.Telecom))
	for i, a := range p.Address {
		child := Issues{}
		checkCode(child, "use", a.Use, "home", "work", "temp", "old", "billing")
		is.Nest(indexed("address", i), child)
	}
	for i, c := range p.Communication {
		if len(c.Language.Coding) == 0 && c.Language.Text == "" {
			child := Issues{}
			child.Add("language", "is required")
			is.Nest(indexed("communication", i), child)
		}
	}
	return is
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
