package vaccine

import (
	"strconv"

	"github.com/casemon/casemon/internal/platform/fhir"
)

func ToFHIR(v *Vaccine) *fhir.Immunization {
	updated := v.UpdatedAt
	d := fhir.ImmunizationData{
		Status:  "completed",
		Patient: &fhir.Reference{Reference: fhir.FormatReference("Patient", v.PatientID)},
	}
	code := fhir.CodeableConcept{Text: deref(v.ProductName)}
	if p, ok := productByName(deref(v.ProductName)); ok {
		code.Coding = []fhir.Coding{{System: CVXSystem, Code: p.CVX, Display: p.Name}}
	}
	d.VaccineCode = &code
	if v.AdministrationDate != nil {
		d.OccurrenceDateTime = fhir.FormatDate(*v.AdministrationDate)
	}
	if n := deref(v.Notes); n != "" {
		d.Note = []fhir.Annotation{{Text: n}}
	}

	var pa fhir.ImmunizationProtocolApplied
	if c := diseaseCode(deref(v.GroupName)); c != "" {
		pa.TargetDisease = []fhir.CodeableConcept{{Coding: []fhir.Coding{{System: SNOMEDSystem, Code: c}}}}
	}
	if dose := deref(v.DoseNumber); dose != "" {
		if n, err := strconv.Atoi(dose); err == nil && n > 0 {
			pa.DoseNumberPositiveInt = &n
		} else {
			pa.DoseNumberString = dose
		}
	}
	if len(pa.TargetDisease) > 0 || pa.DoseNumberPositiveInt != nil || pa.DoseNumberString != "" {
		d.ProtocolApplied = []fhir.ImmunizationProtocolApplied{pa}
	}
	return fhir.NewImmunization(v.ID, &fhir.Meta{LastUpdated: &updated}, d)
}

// Translate maps a submitted Immunization. Unknown product and disease
// codes are kept verbatim so validation reports them.
func Translate(r *fhir.Immunization) fhir.FieldMap {
	m := fhir.FieldMap{}

	ref := ""
	if r.Patient != nil {
		ref = r.Patient.Reference
	}
	pf := &fhir.Field{Path: "Immunization.patient.reference", Raw: ref}
	if id, ok := fhir.PatientReferenceID(ref); ok {
		pf.Value = id
	}
	m["patient_id"] = pf

	cvx := r.VaccineCode.FirstCode()
	product := cvx
	if p, ok := productByCVX(cvx); ok {
		product = p.Name
	}
	m.SetString("product_name", product, "Immunization.vaccineCode.coding[0].code")

	var pa fhir.ImmunizationProtocolApplied
	if len(r.ProtocolApplied) > 0 {
		pa = r.ProtocolApplied[0]
	}
	var disease string
	if len(pa.TargetDisease) > 0 {
		disease = pa.TargetDisease[0].FirstCode()
	}
	group := disease
	if g, ok := Diseases[disease]; ok {
		group = g
	}
	m.SetString("group_name", group, "Immunization.protocolApplied[0].targetDisease[0].coding[0].code")

	switch {
	case pa.DoseNumberPositiveInt != nil:
		m.SetString("dose_number", strconv.Itoa(*pa.DoseNumberPositiveInt), "Immunization.protocolApplied[0].doseNumberPositiveInt")
	default:
		m.SetString("dose_number", pa.DoseNumberString, "Immunization.protocolApplied[0].doseNumberString")
	}

	m.SetDate("administration_date", r.OccurrenceDateTime, "Immunization.occurrenceDateTime")

	var note string
	if len(r.Note) > 0 {
		note = r.Note[0].Text
	}
	m.SetString("notes", note, "Immunization.note[0].text")
	return m
}

func apply(v *Vaccine, m fhir.FieldMap) {
	if id := m.Int64("patient_id"); id != nil {
		v.PatientID = *id
	} else if _, ok := m["patient_id"]; ok {
		v.PatientID = 0
	}
	for attr, dst := range map[string]**string{
		"group_name":   &v.GroupName,
		"product_name": &v.ProductName,
		"dose_number":  &v.DoseNumber,
		"notes":        &v.Notes,
	} {
		if _, ok := m[attr]; ok {
			*dst = optional(m.String(attr))
		}
	}
	if _, ok := m["administration_date"]; ok {
		v.AdministrationDate = m.Date("administration_date")
	}
}

func display(v *Vaccine) map[string]string {
	date := ""
	if v.AdministrationDate != nil {
		date = fhir.FormatDate(*v.AdministrationDate)
	}
	return map[string]string{
		"patient_id":          strconv.FormatInt(v.PatientID, 10),
		"group_name":          deref(v.GroupName),
		"product_name":        deref(v.ProductName),
		"administration_date": date,
		"dose_number":         deref(v.DoseNumber),
		"notes":               deref(v.Notes),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
