package fhir

type ImmunizationProtocolApplied struct {
	TargetDisease         []CodeableConcept `json:"targetDisease,omitempty"`
	DoseNumberPositiveInt *int              `json:"doseNumberPositiveInt,omitempty"`
	DoseNumberString      string            `json:"doseNumberString,omitempty"`
}

type ImmunizationData struct {
	Status             string                        `json:"status"`
	VaccineCode        *CodeableConcept              `json:"vaccineCode,omitempty"`
	Patient            *Reference                    `json:"patient,omitempty"`
	OccurrenceDateTime string                        `json:"occurrenceDateTime,omitempty"`
	Note               []Annotation                  `json:"note,omitempty"`
	ProtocolApplied    []ImmunizationProtocolApplied `json:"protocolApplied,omitempty"`
}

type Immunization struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id,omitempty"`
	Meta         *Meta  `json:"meta,omitempty"`
	ImmunizationData
}

func NewImmunization(id int64, meta *Meta, d ImmunizationData) *Immunization {
	return &Immunization{ResourceType: "Immunization", ID: formatID(id), Meta: meta, ImmunizationData: d}
}

func (im *Immunization) GetResourceType() string { return im.ResourceType }
func (im *Immunization) GetID() string           { return im.ID }

func (im *Immunization) validate() Issues {
	is := Issues{}
	checkResourceType(is, im.ResourceType, "Immunization")
	checkID(is, im.ID)
	if im.Status == "" {
		is.Add("status", "is required")
	}
	checkCode(is, "status", im.Status, "completed", "entered-in-error", "not-done")
	if im.VaccineCode == nil || (len(im.VaccineCode.Coding) == 0 && im.VaccineCode.Text == "") {
		is.Add("vaccineCode", "is required")
	}
	validateReference(is, "patient", im.Patient, true)
	if im.OccurrenceDateTime == "" {
		is.Add("occurrence[x]", "is required")
	}
	checkDateTime(is, "occurrenceDateTime", im.OccurrenceDateTime)
	for i, pa := range im.ProtocolApplied {
		if pa.DoseNumberPositiveInt != nil && pa.DoseNumberString != "" {
			child := Issues{}
			child.Add("doseNumber[x]", "only one of doseNumberPositiveInt or doseNumberString may be present")
			is.Nest(indexed("protocolApplied", i), child)
		}
	}
	return is
}
