package auth

import "testing"

func TestParseScope(t *testing.T) {
	tests := []struct {
		raw     string
		want    Scope
		wantErr bool
	}{
		{"system/Patient.read", Scope{RealmSystem, Patient, ActionRead}, false},
		{"user/Immunization.write", Scope{RealmUser, Immunization, ActionWrite}, false},
		{"user/RelatedPerson.*", Scope{RealmUser, RelatedPerson, ActionAll}, false},
		{"patient/Patient.read", Scope{}, true},
		{"system/Encounter.read", Scope{}, true},
		{"system/Patient.delete", Scope{}, true},
		{"system/Patient", Scope{}, true},
		{"openid", Scope{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseScope(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScope(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseScope(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
			if !tt.wantErr && got.String() != tt.raw {
				t.Errorf("String() = %q, want %q", got.String(), tt.raw)
			}
		})
	}
}

func TestParseScopes_SkipsUnknown(t *testing.T) {
	got := ParseScopes("openid system/Patient.read  launch user/Observation.*")
	if len(got) != 2 {
		t.Fatalf("expected 2 scopes, got %v", got)
	}
}

func TestHasScope(t *testing.T) {
	granted := ParseScopes("system/Patient.read user/Immunization.* system/RelatedPerson.write")
	tests := []struct {
		required Scope
		want     bool
	}{
		{Scope{RealmSystem, Patient, ActionRead}, true},
		{Scope{RealmSystem, Patient, ActionWrite}, false},
		{Scope{RealmUser, Patient, ActionRead}, false},
		{Scope{RealmUser, Immunization, ActionRead}, true},
		{Scope{RealmUser, Immunization, ActionWrite}, true},
		{Scope{RealmSystem, Immunization, ActionRead}, false},
		{Scope{RealmSystem, RelatedPerson, ActionWrite}, true},
		{Scope{RealmSystem, RelatedPerson, ActionRead}, false},
	}
	for _, tt := range tests {
		if got := HasScope(granted, tt.required); got != tt.want {
			t.Errorf("HasScope(%s) = %v, want %v", tt.required, got, tt.want)
		}
	}
}

// Every (realm, type, action) combination missing from the grant must be
// refused.
func TestPermits_Exhaustive(t *testing.T) {
	for _, granted := range Vocabulary() {
		scopes := ParseScopes(granted)
		g := scopes[0]
		for _, rt := range ResourceTypes {
			for _, action := range []Action{ActionRead, ActionWrite} {
				want := rt == g.ResourceType && (g.Action == action || g.Action == ActionAll)
				if got := Permits(scopes, rt, action); got != want {
					t.Errorf("grant %s: Permits(%s, %s) = %v, want %v", granted, rt, action, got, want)
				}
			}
		}
	}
}

func TestVocabulary(t *testing.T) {
	v := Vocabulary()
	if len(v) != 2*len(ResourceTypes)*3 {
		t.Errorf("unexpected vocabulary size %d", len(v))
	}
	for _, s := range v {
		if _, err := ParseScope(s); err != nil {
			t.Errorf("vocabulary entry %q does not parse: %v", s, err)
		}
	}
}
