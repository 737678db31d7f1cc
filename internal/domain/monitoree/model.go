package monitoree

import "time"

// Contact methods a monitoree may prefer.
const (
	ContactEmail     = "E-mailed Web Link"
	ContactSMSLink   = "SMS Texted Weblink"
	ContactTelephone = "Telephone call"
	ContactSMSText   = "SMS Text-message"
	ContactOptOut    = "Opt-out"
	ContactUnknown   = "Unknown"
)

// Patient is a monitoree: a person under public-health monitoring. Json
// names are the attribute names used in translation and validation.
type Patient struct {
	ID                      int64      `db:"id" json:"id"`
	FirstName               *string    `db:"first_name" json:"first_name" validate:"required,max=200"`
	MiddleName              *string    `db:"middle_name" json:"middle_name" validate:"omitempty,max=200"`
	LastName                *string    `db:"last_name" json:"last_name" validate:"required,max=200"`
	DateOfBirth             *time.Time `db:"date_of_birth" json:"date_of_birth" validate:"required,notfuture"`
	Sex                     *string    `db:"sex" json:"sex" validate:"omitempty,oneof=Male Female Unknown"`
	PrimaryTelephone        *string    `db:"primary_telephone" json:"primary_telephone" validate:"omitempty,e164"`
	SecondaryTelephone      *string    `db:"secondary_telephone" json:"secondary_telephone" validate:"omitempty,e164"`
	Email                   *string    `db:"email" json:"email" validate:"omitempty,email,max=200"`
	PreferredContactMethod  *string    `db:"preferred_contact_method" json:"preferred_contact_method" validate:"omitempty,oneof='E-mailed Web Link' 'SMS Texted Weblink' 'Telephone call' 'SMS Text-message' 'Opt-out' 'Unknown'"`
	AddressLine1            *string    `db:"address_line_1" json:"address_line_1" validate:"omitempty,max=200"`
	AddressLine2            *string    `db:"address_line_2" json:"address_line_2" validate:"omitempty,max=200"`
	AddressCity             *string    `db:"address_city" json:"address_city" validate:"omitempty,max=200"`
	AddressState            *string    `db:"address_state" json:"address_state" validate:"omitempty,max=64"`
	AddressZip              *string    `db:"address_zip" json:"address_zip" validate:"omitempty,max=10"`
	AddressCounty           *string    `db:"address_county" json:"address_county" validate:"omitempty,max=200"`
	PrimaryLanguage         *string    `db:"primary_language" json:"primary_language" validate:"omitempty,max=64"`
	UserDefinedIDStatelocal *string    `db:"user_defined_id_statelocal" json:"user_defined_id_statelocal" validate:"omitempty,max=200"`
	Monitoring              bool       `db:"monitoring" json:"monitoring"`
	Isolation               bool       `db:"isolation" json:"isolation"`
	LastDateOfExposure      *time.Time `db:"last_date_of_exposure" json:"last_date_of_exposure" validate:"omitempty,notfuture"`
	SymptomOnset            *time.Time `db:"symptom_onset" json:"symptom_onset" validate:"omitempty,notfuture"`
	JurisdictionID          int64      `db:"jurisdiction_id" json:"jurisdiction_id" validate:"required"`
	JurisdictionPath        string     `db:"-" json:"-"`
	CreatorID               *int64     `db:"creator_id" json:"-"`
	ResponderID             *int64     `db:"responder_id" json:"-"`
	Purged                  bool       `db:"purged" json:"-"`
	LockVersion             int        `db:"lock_version" json:"-"`
	CreatedAt               time.Time  `db:"created_at" json:"-"`
	UpdatedAt               time.Time  `db:"updated_at" json:"-"`
}

func (p *Patient) Identifier() int64 { return p.ID }

// Labels names each attribute in validation reports and audit comments.
var Labels = map[string]string{
	"first_name":                 "First Name",
	"middle_name":                "Middle Name",
	"last_name":                  "Last Name",
	"date_of_birth":              "Date of Birth",
	"sex":                        "Sex",
	"primary_telephone":          "Primary Telephone",
	"secondary_telephone":        "Secondary Telephone",
	"email":                      "Email",
	"preferred_contact_method":   "Preferred Contact Method",
	"address_line_1":             "Address 1",
	"address_line_2":             "Address 2",
	"address_city":               "Town/City",
	"address_state":              "State",
	"address_zip":                "Zip",
	"address_county":             "County",
	"primary_language":           "Primary Language",
	"user_defined_id_statelocal": "State/Local ID",
	"monitoring":                 "Monitoring",
	"isolation":                  "Isolation",
	"last_date_of_exposure":      "Last Date of Exposure",
	"symptom_onset":              "Symptom Onset",
	"jurisdiction_id":            "Jurisdiction",
}
