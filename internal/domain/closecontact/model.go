package closecontact

import "time"

// CloseContact is a person exposed to a monitoree, exposed over FHIR as
// RelatedPerson.
type CloseContact struct {
	ID               int64     `db:"id" json:"id"`
	PatientID        int64     `db:"patient_id" json:"patient_id" validate:"required"`
	FirstName        *string   `db:"first_name" json:"first_name" validate:"omitempty,max=200"`
	LastName         *string   `db:"last_name" json:"last_name" validate:"omitempty,max=200"`
	PrimaryTelephone *string   `db:"primary_telephone" json:"primary_telephone" validate:"omitempty,e164"`
	Email            *string   `db:"email" json:"email" validate:"omitempty,email,max=200"`
	ContactAttempts  int       `db:"contact_attempts" json:"contact_attempts" validate:"gte=0"`
	Notes            *string   `db:"notes" json:"notes" validate:"omitempty,max=2000"`
	EnrolledID       *int64    `db:"enrolled_id" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"-"`
	UpdatedAt        time.Time `db:"updated_at" json:"-"`
}

func (c *CloseContact) Identifier() int64 { return c.ID }

var Labels = map[string]string{
	"patient_id":        "Patient ID",
	"first_name":        "First Name",
	"last_name":         "Last Name",
	"primary_telephone": "Primary Telephone",
	"email":             "Email",
	"contact_attempts":  "Contact Attempts",
	"notes":             "Notes",
}
