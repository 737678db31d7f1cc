package monitoree

import (
	"fmt"
	"strconv"
	"time"

	"github.com/casemon/casemon/internal/platform/fhir"
	"github.com/casemon/casemon/internal/platform/validation"
)

// Extension URLs carried on Patient.
var (
	ExtPreferredContactMethod = fhir.ExtensionBase + "preferred-contact-method"
	ExtIsolation              = fhir.ExtensionBase + "isolation"
	ExtLastDateOfExposure     = fhir.ExtensionBase + "last-date-of-exposure"
	ExtSymptomOnset           = fhir.ExtensionBase + "symptom-onset"
	ExtJurisdictionPath       = fhir.ExtensionBase + "full-assigned-jurisdiction-path"
)

const (
	StateLocalIDSystem = "https://casemon.org/fhir/identifier/state-local-id"
	languageSystem     = "urn:ietf:bcp:47"
)

var genderToSex = map[string]string{"male": "Male", "female": "Female", "unknown": "Unknown"}

var sexToGender = map[string]string{"Male": "male", "Female": "female", "Unknown": "unknown"}

// ToFHIR serializes a monitoree. meta.versionId carries the lock version.
func ToFHIR(p *Patient) *fhir.Patient {
	updated := p.UpdatedAt
	meta := &fhir.Meta{VersionID: strconv.Itoa(p.LockVersion + 1), LastUpdated: &updated}

	var d fhir.PatientData
	d.Active = fhir.Bool(p.Monitoring)

	name := fhir.HumanName{Family: deref(p.LastName)}
	if v := deref(p.FirstName); v != "" {
		name.Given = append(name.Given, v)
	}
	if v := deref(p.MiddleName); v != "" {
		name.Given = append(name.Given, v)
	}
	if name.Family != "" || len(name.Given) > 0 {
		d.Name = []fhir.HumanName{name}
	}

	if p.DateOfBirth != nil {
		d.BirthDate = fhir.FormatDate(*p.DateOfBirth)
	}
	if p.Sex != nil {
		d.Gender = sexToGender[*p.Sex]
	}

	for i, phone := range []*string{p.PrimaryTelephone, p.SecondaryTelephone} {
		if v := deref(phone); v != "" {
			rank := i + 1
			d.Telecom = append(d.Telecom, fhir.ContactPoint{System: "phone", Value: v, Rank: &rank})
		}
	}
	if v := deref(p.Email); v != "" {
		d.Telecom = append(d.Telecom, fhir.ContactPoint{System: "email", Value: v})
	}

	addr := fhir.Address{
		City:       deref(p.AddressCity),
		State:      deref(p.AddressState),
		PostalCode: deref(p.AddressZip),
		District:   deref(p.AddressCounty),
	}
	if v := deref(p.AddressLine1); v != "" {
		addr.Line = append(addr.Line, v)
	}
	if v := deref(p.AddressLine2); v != "" {
		addr.Line = append(addr.Line, v)
	}
	if len(addr.Line) > 0 || addr.City != "" || addr.State != "" || addr.PostalCode != "" || addr.District != "" {
		d.Address = []fhir.Address{addr}
	}

	if v := deref(p.PrimaryLanguage); v != "" {
		d.Communication = []fhir.PatientCommunication{{
			Language: fhir.CodeableConcept{Coding: []fhir.Coding{{System: languageSystem, Code: v}}},
		}}
	}
	if v := deref(p.UserDefinedIDStatelocal); v != "" {
		d.Identifier = []fhir.Identifier{{System: StateLocalIDSystem, Value: v}}
	}

	d.Extension = fhir.Extensions(
		fhir.StringExtension(ExtPreferredContactMethod, deref(p.PreferredContactMethod)),
		fhir.BooleanExtension(ExtIsolation, p.Isolation),
		fhir.DateExtension(ExtLastDateOfExposure, p.LastDateOfExposure),
		fhir.DateExtension(ExtSymptomOnset, p.SymptomOnset),
		fhir.StringExtension(ExtJurisdictionPath, p.JurisdictionPath),
	)
	return fhir.NewPatient(p.ID, meta, d)
}

// Translate maps a submitted Patient to monitoree attributes. Attributes
// the resource does not carry are still set (to nil) so a full replace
// clears them; monitoring and jurisdiction_id are only set when supplied.
// The jurisdiction_id value is the submitted jurisdiction path.
func Translate(r *fhir.Patient) fhir.FieldMap {
	m := fhir.FieldMap{}

	var name fhir.HumanName
	if len(r.Name) > 0 {
		name = r.Name[0]
	}
	m.SetString("first_name", at(name.Given, 0), "Patient.name[0].given[0]")
	m.SetString("middle_name", at(name.Given, 1), "Patient.name[0].given[1]")
	m.SetString("last_name", name.Family, "Patient.name[0].family")
	m.SetDate("date_of_birth", r.BirthDate, "Patient.birthDate")
	sex := r.Gender
	if s, ok := genderToSex[r.Gender]; ok {
		sex = s
	}
	m.SetString("sex", sex, "Patient.gender")

	phones := placePhones(r.Telecom)
	for i, attr := range []string{"primary_telephone", "secondary_telephone"} {
		path := fmt.Sprintf("Patient.telecom.where(system='phone')[%d].value", i)
		var value string
		if idx := phones[i]; idx >= 0 {
			path = fmt.Sprintf("Patient.telecom[%d].value", idx)
			value = r.Telecom[idx].Value
		}
		m.SetString(attr, validation.PhoneE164(value), path)
	}
	var email string
	for _, cp := range r.Telecom {
		if cp.System == "email" {
			email = cp.Value
			break
		}
	}
	m.SetString("email", email, "Patient.telecom.where(system='email')[0].value")

	var addr fhir.Address
	if len(r.Address) > 0 {
		addr = r.Address[0]
	}
	m.SetString("address_line_1", at(addr.Line, 0), "Patient.address[0].line[0]")
	m.SetString("address_line_2", at(addr.Line, 1), "Patient.address[0].line[1]")
	m.SetString("address_city", addr.City, "Patient.address[0].city")
	m.SetString("address_state", addr.State, "Patient.address[0].state")
	m.SetString("address_zip", addr.PostalCode, "Patient.address[0].postalCode")
	m.SetString("address_county", addr.District, "Patient.address[0].district")

	var lang string
	if len(r.Communication) > 0 {
		lang = r.Communication[0].Language.FirstCode()
	}
	m.SetString("primary_language", lang, "Patient.communication[0].language.coding[0].code")

	var stateLocal string
	for _, id := range r.Identifier {
		if id.System == StateLocalIDSystem {
			stateLocal = id.Value
			break
		}
	}
	m.SetString("user_defined_id_statelocal", stateLocal,
		"Patient.identifier.where(system='"+StateLocalIDSystem+"')[0].value")

	if r.Active != nil {
		m.Set("monitoring", *r.Active, "Patient.active")
	}

	_, pcm := fhir.FindExtension(r.Extension, ExtPreferredContactMethod)
	m.SetString("preferred_contact_method", extString(pcm), fhir.ExtensionPath("Patient", ExtPreferredContactMethod, "valueString"))

	isolation := false
	if _, ext := fhir.FindExtension(r.Extension, ExtIsolation); ext != nil && ext.ValueBoolean != nil {
		isolation = *ext.ValueBoolean
	}
	m.Set("isolation", isolation, fhir.ExtensionPath("Patient", ExtIsolation, "valueBoolean"))

	_, lde := fhir.FindExtension(r.Extension, ExtLastDateOfExposure)
	m.SetDate("last_date_of_exposure", extDate(lde), fhir.ExtensionPath("Patient", ExtLastDateOfExposure, "valueDate"))
	_, onset := fhir.FindExtension(r.Extension, ExtSymptomOnset)
	m.SetDate("symptom_onset", extDate(onset), fhir.ExtensionPath("Patient", ExtSymptomOnset, "valueDate"))

	if _, jp := fhir.FindExtension(r.Extension, ExtJurisdictionPath); jp != nil && extString(jp) != "" {
		m.Set("jurisdiction_id", extString(jp), fhir.ExtensionPath("Patient", ExtJurisdictionPath, "valueString"))
	}
	return m
}

// apply copies translated attributes onto p. jurisdiction_id is resolved
// separately by the service.
func apply(p *Patient, m fhir.FieldMap) {
	strs := map[string]**string{
		"first_name":                 &p.FirstName,
		"middle_name":                &p.MiddleName,
		"last_name":                  &p.LastName,
		"sex":                        &p.Sex,
		"primary_telephone":          &p.PrimaryTelephone,
		"secondary_telephone":        &p.SecondaryTelephone,
		"email":                      &p.Email,
		"preferred_contact_method":   &p.PreferredContactMethod,
		"address_line_1":             &p.AddressLine1,
		"address_line_2":             &p.AddressLine2,
		"address_city":               &p.AddressCity,
		"address_state":              &p.AddressState,
		"address_zip":                &p.AddressZip,
		"address_county":             &p.AddressCounty,
		"primary_language":           &p.PrimaryLanguage,
		"user_defined_id_statelocal": &p.UserDefinedIDStatelocal,
	}
	for attr, dst := range strs {
		if _, ok := m[attr]; ok {
			*dst = optional(m.String(attr))
		}
	}
	dates := map[string]**time.Time{
		"date_of_birth":         &p.DateOfBirth,
		"last_date_of_exposure": &p.LastDateOfExposure,
		"symptom_onset":         &p.SymptomOnset,
	}
	for attr, dst := range dates {
		if _, ok := m[attr]; ok {
			*dst = m.Date(attr)
		}
	}
	if b := m.Bool("monitoring"); b != nil {
		p.Monitoring = *b
	}
	if b := m.Bool("isolation"); b != nil {
		p.Isolation = *b
	}
}

// display renders the attributes compared for record-edit histories.
// Jurisdiction moves are recorded as transfers instead.
func display(p *Patient) map[string]string {
	date := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return fhir.FormatDate(*t)
	}
	return map[string]string{
		"first_name":                 deref(p.FirstName),
		"middle_name":                deref(p.MiddleName),
		"last_name":                  deref(p.LastName),
		"date_of_birth":              date(p.DateOfBirth),
		"sex":                        deref(p.Sex),
		"primary_telephone":          deref(p.PrimaryTelephone),
		"secondary_telephone":        deref(p.SecondaryTelephone),
		"email":                      deref(p.Email),
		"preferred_contact_method":   deref(p.PreferredContactMethod),
		"address_line_1":             deref(p.AddressLine1),
		"address_line_2":             deref(p.AddressLine2),
		"address_city":               deref(p.AddressCity),
		"address_state":              deref(p.AddressState),
		"address_zip":                deref(p.AddressZip),
		"address_county":             deref(p.AddressCounty),
		"primary_language":           deref(p.PrimaryLanguage),
		"user_defined_id_statelocal": deref(p.UserDefinedIDStatelocal),
		"monitoring":                 strconv.FormatBool(p.Monitoring),
		"isolation":                  strconv.FormatBool(p.Isolation),
		"last_date_of_exposure":      date(p.LastDateOfExposure),
		"symptom_onset":              date(p.SymptomOnset),
	}
}

func extString(e *fhir.Extension) string {
	if e == nil {
		return ""
	}
	if e.ValueString != nil {
		return *e.ValueString
	}
	if e.ValueCode != nil {
		return *e.ValueCode
	}
	return ""
}

func extDate(e *fhir.Extension) string {
	if e == nil || e.ValueDate == nil {
		return ""
	}
	return *e.ValueDate
}

// placePhones returns the telecom indexes of the primary and secondary
// phone, or -1. Rank 1 and 2 claim their slot; other phones fill the
// remaining slots in array order.
func placePhones(telecom []fhir.ContactPoint) [2]int {
	slots := [2]int{-1, -1}
	for i, cp := range telecom {
		if cp.System != "phone" || cp.Rank == nil {
			continue
		}
		if r := *cp.Rank; (r == 1 || r == 2) && slots[r-1] < 0 {
			slots[r-1] = i
		}
	}
	for i, cp := range telecom {
		if cp.System != "phone" || slots[0] == i || slots[1] == i {
			continue
		}
		for s := range slots {
			if slots[s] < 0 {
				slots[s] = i
				break
			}
		}
	}
	return slots
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
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
