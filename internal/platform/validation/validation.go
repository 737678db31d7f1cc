// Package validation checks domain records with validator/v10 and reports
// failures keyed by the record's json attribute names.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"

	"github.com/casemon/casemon/internal/platform/fhir"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("e164", validateE164)
	_ = v.RegisterValidation("notfuture", validateNotFuture)
	return v
}

func validateE164(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num) && phonenumbers.Format(num, phonenumbers.E164) == s
}

func validateNotFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !t.After(time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour))
}

// Struct validates s and returns its failures, or nil.
func Struct(s interface{}) fhir.FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fhir.FieldErrors{"base": {err.Error()}}
	}
	out := fhir.FieldErrors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return "is not an acceptable value, acceptable values are: '" +
			strings.Join(oneOfValues(fe.Param()), "', '") + "'"
	case "email":
		return "is not a valid Email Address"
	case "e164":
		return "is not a valid phone number"
	case "notfuture":
		return "cannot be in the future"
	}
	return "is invalid"
}

var oneOfRe = regexp.MustCompile(`'[^']*'|\S+`)

func oneOfValues(param string) []string {
	vals := oneOfRe.FindAllString(param, -1)
	for i, v := range vals {
		vals[i] = strings.Trim(v, "'")
	}
	return vals
}

// PhoneE164 normalizes a US-default phone number to E.164. Numbers that do
// not parse are returned unchanged so validation can report them.
func PhoneE164(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	num, err := phonenumbers.Parse(s, "US")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return s
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// DateFields reports attributes whose submitted text could not be read as
// a calendar date.
func DateFields(fields fhir.FieldMap, attrs ...string) fhir.FieldErrors {
	out := fhir.FieldErrors{}
	for _, a := range attrs {
		if f, ok := fields[a]; ok && f.Value == nil && f.Raw != "" {
			out.Add(a, "is not a valid date")
		}
	}
	return out
}
