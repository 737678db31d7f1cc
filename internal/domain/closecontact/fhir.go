package closecontact

import (
	"strconv"

	"github.com/casemon/casemon/internal/platform/fhir"
	"github.com/casemon/casemon/internal/platform/validation"
)

var (
	ExtContactAttempts = fhir.ExtensionBase + "contact-attempts"
	ExtNotes           = fhir.ExtensionBase + "notes"
)

func ToFHIR(c *CloseContact) *fhir.RelatedPerson {
	updated := c.UpdatedAt
	d := fhir.RelatedPersonData{
		Patient: &fhir.Reference{Reference: fhir.FormatReference("Patient", c.PatientID)},
	}
	name := fhir.HumanName{Family: deref(c.LastName)}
	if v := deref(c.FirstName); v != "" {
		name.Given = []string{v}
	}
	if name.Family != "" || len(name.Given) > 0 {
		d.Name = []fhir.HumanName{name}
	}
	if v := deref(c.PrimaryTelephone); v != "" {
		d.Telecom = append(d.Telecom, fhir.ContactPoint{System: "phone", Value: v})
	}
	if v := deref(c.Email); v != "" {
		d.Telecom = append(d.Telecom, fhir.ContactPoint{System: "email", Value: v})
	}
	d.Extension = fhir.Extensions(
		fhir.IntegerExtension(ExtContactAttempts, c.ContactAttempts),
		fhir.StringExtension(ExtNotes, deref(c.Notes)),
	)
	return fhir.NewRelatedPerson(c.ID, &fhir.Meta{LastUpdated: &updated}, d)
}

// Translate maps a submitted RelatedPerson. patient_id keeps the submitted
// reference as raw text when it does not name a Patient by id.
func Translate(r *fhir.RelatedPerson) fhir.FieldMap {
	m := fhir.FieldMap{}

	ref := ""
	if r.Patient != nil {
		ref = r.Patient.Reference
	}
	pf := &fhir.Field{Path: "RelatedPerson.patient.reference", Raw: ref}
	if id, ok := fhir.PatientReferenceID(ref); ok {
		pf.Value = id
	}
	m["patient_id"] = pf

	var name fhir.HumanName
	if len(r.Name) > 0 {
		name = r.Name[0]
	}
	given := ""
	if len(name.Given) > 0 {
		given = name.Given[0]
	}
	m.SetString("first_name", given, "RelatedPerson.name[0].given[0]")
	m.SetString("last_name", name.Family, "RelatedPerson.name[0].family")

	var phone, email string
	for _, cp := range r.Telecom {
		if cp.System == "phone" && phone == "" {
			phone = cp.Value
		}
		if cp.System == "email" && email == "" {
			email = cp.Value
		}
	}
	m.SetString("primary_telephone", validation.PhoneE164(phone), "RelatedPerson.telecom.where(system='phone')[0].value")
	m.SetString("email", email, "RelatedPerson.telecom.where(system='email')[0].value")

	attempts := int64(0)
	if _, ext := fhir.FindExtension(r.Extension, ExtContactAttempts); ext != nil && ext.ValueInteger != nil {
		attempts = int64(*ext.ValueInteger)
	}
	m.Set("contact_attempts", attempts, fhir.ExtensionPath("RelatedPerson", ExtContactAttempts, "valueInteger"))

	notes := ""
	if _, ext := fhir.FindExtension(r.Extension, ExtNotes); ext != nil && ext.ValueString != nil {
		notes = *ext.ValueString
	}
	m.SetString("notes", notes, fhir.ExtensionPath("RelatedPerson", ExtNotes, "valueString"))
	return m
}

func apply(c *CloseContact, m fhir.FieldMap) {
	if id := m.Int64("patient_id"); id != nil {
		c.PatientID = *id
	} else if _, ok := m["patient_id"]; ok {
		c.PatientID = 0
	}
	for attr, dst := range map[string]**string{
		"first_name":        &c.FirstName,
		"last_name":         &c.LastName,
		"primary_telephone": &c.PrimaryTelephone,
		"email":             &c.Email,
		"notes":             &c.Notes,
	} {
		if _, ok := m[attr]; ok {
			*dst = optional(m.String(attr))
		}
	}
	if n := m.Int64("contact_attempts"); n != nil {
		c.ContactAttempts = int(*n)
	}
}

func display(c *CloseContact) map[string]string {
	return map[string]string{
		"patient_id":        strconv.FormatInt(c.PatientID, 10),
		"first_name":        deref(c.FirstName),
		"last_name":         deref(c.LastName),
		"primary_telephone": deref(c.PrimaryTelephone),
		"email":             deref(c.Email),
		"contact_attempts":  strconv.Itoa(c.ContactAttempts),
		"notes":             deref(c.Notes),
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
