package fhir

import (
	"strings"
	"testing"
)

func TestApplyJSONPatch_Operations(t *testing.T) {
	doc, _ := DecodeObject([]byte(`{"resourceType":"Patient","name":[{"family":"Smith","given":["Jo"]}],"active":true}`))

	ops, err := ParseJSONPatch([]byte(`[
		{"op":"replace","path":"/name/0/family","value":"Jones"},
		{"op":"add","path":"/name/0/given/-","value":"Ann"},
		{"op":"add","path":"/name/0/given/0","value":"Dr"},
		{"op":"remove","path":"/active"},
		{"op":"add","path":"/birthDate","value":"1990-01-01"},
		{"op":"copy","from":"/birthDate","path":"/deceasedDateTime"},
		{"op":"move","from":"/deceasedDateTime","path":"/extension"},
		{"op":"test","path":"/name/0/family","value":"Jones"}
	]`))
	if err != nil {
		t.Fatalf("ParseJSONPatch: %v", err)
	}
	out, err := ApplyJSONPatch(doc, ops)
	if err != nil {
		t.Fatalf("ApplyJSONPatch: %v", err)
	}

	name := out["name"].([]interface{})[0].(map[string]interface{})
	if name["family"] != "Jones" {
		t.Errorf("expected family Jones, got %v", name["family"])
	}
	given := name["given"].([]interface{})
	if len(given) != 3 || given[0] != "Dr" || given[1] != "Jo" || given[2] != "Ann" {
		t.Errorf("unexpected given %v", given)
	}
	if _, ok := out["active"]; ok {
		t.Error("expected active to be removed")
	}
	if out["extension"] != "1990-01-01" {
		t.Errorf("expected moved value, got %v", out["extension"])
	}
	if _, ok := out["deceasedDateTime"]; ok {
		t.Error("expected move source to be removed")
	}

	// the input must not be modified
	if doc["active"] != true {
		t.Error("original document was mutated")
	}
}

func TestApplyJSONPatch_Errors(t *testing.T) {
	doc, _ := DecodeObject([]byte(`{"resourceType":"Patient","name":[{"family":"Smith"}]}`))
	tests := []struct {
		name  string
		patch string
		want  string
	}{
		{"replace missing", `[{"op":"replace","path":"/gender","value":"male"}]`, "does not exist"},
		{"index out of bounds", `[{"op":"replace","path":"/name/3/family","value":"X"}]`, "out of bounds"},
		{"failed test", `[{"op":"test","path":"/name/0/family","value":"Jones"}]`, "test failed"},
		{"root", `[{"op":"replace","path":"","value":{}}]`, "root"},
		{"bad pointer", `[{"op":"add","path":"name","value":1}]`, "invalid JSON pointer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := ParseJSONPatch([]byte(tt.patch))
			if err != nil {
				t.Fatalf("ParseJSONPatch: %v", err)
			}
			_, err = ApplyJSONPatch(doc, ops)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseJSONPatch_Invalid(t *testing.T) {
	for _, doc := range []string{
		`{"op":"add"}`,
		`[{"path":"/a"}]`,
		`[{"op":"frobnicate","path":"/a"}]`,
		`[{"op":"move","path":"/a"}]`,
	} {
		if _, err := ParseJSONPatch([]byte(doc)); err == nil {
			t.Errorf("expected error for %s", doc)
		}
	}
}

func TestPatchResource_RoundTripsThroughParse(t *testing.T) {
	current := NewPatient(9, nil, PatientData{
		Name:   []HumanName{{Family: "Smith", Given: []string{"Jo"}}},
		Active: Bool(true),
	})
	body, raw, err := PatchResource(current, []byte(`[{"op":"replace","path":"/name/0/family","value":"Jones"}]`))
	if err != nil {
		t.Fatalf("PatchResource: %v", err)
	}
	p, err := ParsePatient(body)
	if err != nil {
		t.Fatalf("ParsePatient: %v", err)
	}
	if p.Name[0].Family != "Jones" || p.ID != "9" {
		t.Errorf("unexpected patched patient %+v", p)
	}
	if TryEvaluate(raw, "Patient.name[0].family").Value != "Jones" {
		t.Error("expected raw tree to reflect the patch")
	}
}
