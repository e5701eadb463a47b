package common

import (
	"time"

	"github.com/invopop/jsonschema"
)

// Duration wraps time.Duration so it marshals as a human-readable string
// ("300ms", "1m") in JSON, YAML, and TOML config files instead of an
// integer count of nanoseconds.
type Duration struct {
	time.Duration
}

// NewDuration wraps d.
func NewDuration(d time.Duration) Duration {
	return Duration{Duration: d}
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// JSONSchema renders Duration as a string schema for config documentation
// generated via invopop/jsonschema.
func (d Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Title:       "Duration",
		Description: "Duration expressed in units (e.g. 300ms, 1m, 2h30m)",
		Examples:    []interface{}{"300ms", "1m", "2h30m"},
	}
}
