package fhir

type RelatedPersonData struct {
	Extension []Extension    `json:"extension,omitempty"`
	Patient   *Reference     `json:"patient,omitempty"`
	Name      []HumanName    `json:"name,omitempty"`
	Telecom   []ContactPoint `json:"telecom,omitempty"`
}

type RelatedPerson struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id,omitempty"`
	Meta         *Meta  `json:"meta,omitempty"`
	RelatedPersonData
}

func NewRelatedPerson(id int64, meta *Meta, d RelatedPersonData) *RelatedPerson {
	return &RelatedPerson{ResourceType: "RelatedPerson", ID: formatID(id), Meta: meta, RelatedPersonData: d}
}

func (rp *RelatedPerson) GetResourceType() string { return rp.ResourceType }
func (rp *RelatedPerson) GetID() string           { return rp.ID }

func (rp *RelatedPerson) validate() Issues {
	is := Issues{}
	checkResourceType(is, rp.ResourceType, "RelatedPerson")
	checkID(is, rp.ID)
	validateReference(is, "patient", rp.Patient, true)
	is.merge(validateExtensions(rp.Extension))
	is.merge(validateNames(rp.Name))
	is.merge(validateTelecom(rp.Telecom))
	return is
}
