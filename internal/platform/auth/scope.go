package auth

import (
	"fmt"
	"strings"
)

type Realm string

const (
	RealmUser   Realm = "user"
	RealmSystem Realm = "system"
)

type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
	ActionAll   Action = "*"
)

// Resource types that can appear in a scope.
const (
	Patient               = "Patient"
	RelatedPerson         = "RelatedPerson"
	Immunization          = "Immunization"
	Observation           = "Observation"
	QuestionnaireResponse = "QuestionnaireResponse"
)

// ResourceTypes lists every scoped resource type in vocabulary order.
var ResourceTypes = []string{Patient, RelatedPerson, Immunization, Observation, QuestionnaireResponse}

var realms = []Realm{RealmUser, RealmSystem}

// Scope is one (realm, resource type, action) grant such as
// "system/Patient.read".
type Scope struct {
	Realm        Realm
	ResourceType string
	Action       Action
}

func (s Scope) String() string {
	return fmt.Sprintf("%s/%s.%s", s.Realm, s.ResourceType, s.Action)
}

// ParseScope parses a resource scope. Scopes for unknown realms, resource
// types or actions are rejected.
func ParseScope(raw string) (Scope, error) {
	realm, rest, ok := strings.Cut(raw, "/")
	if !ok {
		return Scope{}, fmt.Errorf("not a resource scope: %q", raw)
	}
	idx := strings.LastIndex(rest, ".")
	if idx < 0 {
		return Scope{}, fmt.Errorf("scope %q has no action", raw)
	}
	s := Scope{Realm: Realm(realm), ResourceType: rest[:idx], Action: Action(rest[idx+1:])}

	switch s.Realm {
	case RealmUser, RealmSystem:
	default:
		return Scope{}, fmt.Errorf("scope %q has unknown realm", raw)
	}
	switch s.Action {
	case ActionRead, ActionWrite, ActionAll:
	default:
		return Scope{}, fmt.Errorf("scope %q has unknown action", raw)
	}
	if !knownType(s.ResourceType) {
		return Scope{}, fmt.Errorf("scope %q has unknown resource type", raw)
	}
	return s, nil
}

func knownType(t string) bool {
	for _, rt := range ResourceTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// ParseScopes splits a space separated OAuth scope string, keeping only
// resource scopes.
func ParseScopes(raw string) []Scope {
	var out []Scope
	for _, f := range strings.Fields(raw) {
		if s, err := ParseScope(f); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// HasScope reports whether any granted scope satisfies required. A
// wildcard action grants both read and write for its realm and type.
func HasScope(granted []Scope, required Scope) bool {
	for _, g := range granted {
		if g.Realm != required.Realm || g.ResourceType != required.ResourceType {
			continue
		}
		if g.Action == required.Action || g.Action == ActionAll {
			return true
		}
	}
	return false
}

// Permits reports whether granted allows action on resourceType in either
// realm.
func Permits(granted []Scope, resourceType string, action Action) bool {
	for _, r := range realms {
		if HasScope(granted, Scope{Realm: r, ResourceType: resourceType, Action: action}) {
			return true
		}
	}
	return false
}

// Vocabulary is the full list of scopes the server understands.
func Vocabulary() []string {
	var out []string
	for _, r := range realms {
		for _, t := range ResourceTypes {
			for _, a := range []Action{ActionRead, ActionWrite, ActionAll} {
				out = append(out, Scope{Realm: r, ResourceType: t, Action: a}.String())
			}
		}
	}
	return out
}
