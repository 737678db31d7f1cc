package fhir

import "time"

type CapabilityStatement struct {
	ResourceType   string                    `json:"resourceType"`
	Status         string                    `json:"status"`
	Date           string                    `json:"date"`
	Kind           string                    `json:"kind"`
	Software       CapabilitySoftware        `json:"software"`
	Implementation CapabilityImplementation  `json:"implementation"`
	FHIRVersion    string                    `json:"fhirVersion"`
	Format         []string                  `json:"format"`
	Rest           []CapabilityStatementRest `json:"rest"`
}

type CapabilitySoftware struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type CapabilityImplementation struct {
	Description string `json:"description"`
	URL         string `json:"url"`
}

type CapabilityStatementRest struct {
	Mode     string               `json:"mode"`
	Security *CapabilitySecurity  `json:"security,omitempty"`
	Resource []CapabilityResource `json:"resource"`
}

type CapabilitySecurity struct {
	Extension []CapabilityOAuthExtension `json:"extension,omitempty"`
	Service   []CodeableConcept          `json:"service,omitempty"`
}

type CapabilityOAuthExtension struct {
	URL       string               `json:"url"`
	Extension []CapabilityOAuthURI `json:"extension"`
}

type CapabilityOAuthURI struct {
	URL      string `json:"url"`
	ValueURI string `json:"valueUri"`
}

type CapabilityResource struct {
	Type        string                  `json:"type"`
	Interaction []CapabilityInteraction `json:"interaction"`
	SearchParam []CapabilitySearchParam `json:"searchParam,omitempty"`
	Operation   []CapabilityOperation   `json:"operation,omitempty"`
}

type CapabilityInteraction struct {
	Code string `json:"code"`
}

type CapabilitySearchParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type CapabilityOperation struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

func (cs *CapabilityStatement) GetResourceType() string { return cs.ResourceType }
func (cs *CapabilityStatement) GetID() string           { return "" }

// ResourceDescription declares what the server supports for one type.
type ResourceDescription struct {
	Type         string
	Interactions []string
	SearchParams []CapabilitySearchParam
	Operations   []CapabilityOperation
}

// OAuthEndpoints are advertised in the security section of the statement.
type OAuthEndpoints struct {
	Authorize  string
	Token      string
	Revoke     string
	Introspect string
}

// NewCapabilityStatement describes a server rooted at root that supports
// resources.
func NewCapabilityStatement(root, version string, oauth OAuthEndpoints, resources []ResourceDescription) *CapabilityStatement {
	rs := make([]CapabilityResource, 0, len(resources))
	for _, d := range resources {
		r := CapabilityResource{Type: d.Type, SearchParam: d.SearchParams, Operation: d.Operations}
		for _, code := range d.Interactions {
			r.Interaction = append(r.Interaction, CapabilityInteraction{Code: code})
		}
		rs = append(rs, r)
	}

	return &CapabilityStatement{
		ResourceType: "CapabilityStatement",
		Status:       "active",
		Date:         time.Now().UTC().Format("2006-01-02"),
		Kind:         "instance",
		Software:     CapabilitySoftware{Name: "casemon", Version: version},
		Implementation: CapabilityImplementation{
			Description: "Case monitoring FHIR R4 API",
			URL:         root + "fhir/r4",
		},
		FHIRVersion: "4.0.1",
		Format:      []string{"json"},
		Rest: []CapabilityStatementRest{{
			Mode: "server",
			Security: &CapabilitySecurity{
				Extension: []CapabilityOAuthExtension{{
					URL: "http://fhir-registry.smarthealthit.org/StructureDefinition/oauth-uris",
					Extension: []CapabilityOAuthURI{
						{URL: "authorize", ValueURI: oauth.Authorize},
						{URL: "token", ValueURI: oauth.Token},
						{URL: "revoke", ValueURI: oauth.Revoke},
						{URL: "introspect", ValueURI: oauth.Introspect},
					},
				}},
				Service: []CodeableConcept{{
					Coding: []Coding{{
						System: "http://terminology.hl7.org/CodeSystem/restful-security-service",
						Code:   "SMART-on-FHIR",
					}},
				}},
			},
			Resource: rs,
		}},
	}
}
