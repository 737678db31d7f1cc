package fhir

type ObservationData struct {
	Status               string            `json:"status"`
	Category             []CodeableConcept `json:"category,omitempty"`
	Code                 CodeableConcept   `json:"code"`
	Subject              *Reference        `json:"subject,omitempty"`
	EffectiveDateTime    string            `json:"effectiveDateTime,omitempty"`
	Issued               string            `json:"issued,omitempty"`
	ValueCodeableConcept *CodeableConcept  `json:"valueCodeableConcept,omitempty"`
}

type Observation struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id,omitempty"`
	Meta         *Meta  `json:"meta,omitempty"`
	ObservationData
}

func NewObservation(id int64, meta *Meta, d ObservationData) *Observation {
	return &Observation{ResourceType: "Observation", ID: formatID(id), Meta: meta, ObservationData: d}
}

func (o *Observation) GetResourceType() string { return o.ResourceType }
func (o *Observation) GetID() string           { return o.ID }
