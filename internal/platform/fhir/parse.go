package fhir

import (
	"strings"

	json "github.com/goccy/go-json"
)

// ParseError reports a body that is not JSON, not the expected resource,
// or that fails structural validation.
type ParseError struct {
	Messages []string
}

func (e *ParseError) Error() string {
	return "invalid FHIR resource: " + strings.Join(e.Messages, "; ")
}

type structural interface {
	Resource
	validate() Issues
}

func decode(body []byte, into structural) error {
	if err := json.Unmarshal(body, into); err != nil {
		return &ParseError{Messages: []string{err.Error()}}
	}
	if is := into.validate(); len(is) > 0 {
		return &ParseError{Messages: is.Flatten()}
	}
	return nil
}

func ParsePatient(body []byte) (*Patient, error) {
	p := &Patient{}
	if err := decode(body, p); err != nil {
		return nil, err
	}
	return p, nil
}

func ParseRelatedPerson(body []byte) (*RelatedPerson, error) {
	rp := &RelatedPerson{}
	if err := decode(body, rp); err != nil {
		return nil, err
	}
	return rp, nil
}

func ParseImmunization(body []byte) (*Immunization, error) {
	im := &Immunization{}
	if err := decode(body, im); err != nil {
		return nil, err
	}
	return im, nil
}
