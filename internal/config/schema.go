package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	pkgconfig "github.com/liquidityfi/position-scanner/pkg/config"
)

// Schema returns the JSON Schema document describing pkgconfig.Config,
// for operators authoring new config files. No CLI subcommand prints it.
func Schema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}
	return reflector.Reflect(&pkgconfig.Config{})
}

// SchemaJSON renders Schema() as indented JSON.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
