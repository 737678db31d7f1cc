package interop

import (
	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/fhir"
)

const everythingDefinition = "http://hl7.org/fhir/OperationDefinition/Patient-everything"

func capabilityStatement(cfg Config, resources []*resource) *fhir.CapabilityStatement {
	descs := make([]fhir.ResourceDescription, 0, len(resources))
	for _, r := range resources {
		d := fhir.ResourceDescription{
			Type:         r.name,
			Interactions: r.interactions(),
			SearchParams: r.searchParams,
		}
		if r.name == auth.Patient {
			d.Operations = []fhir.CapabilityOperation{{Name: "everything", Definition: everythingDefinition}}
		}
		descs = append(descs, d)
	}
	return fhir.NewCapabilityStatement(cfg.Root, cfg.Version, cfg.OAuth, descs)
}
