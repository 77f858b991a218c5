package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ormasoftchile/geoprocessor/pkg/registry"
)

const schemaID = "https://github.com/ormasoftchile/geoprocessor/schemas/config.json"

// ValidationError is one config problem. Phase is "semantic" for schema
// violations and "domain" for the checks that follow.
type ValidationError struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Phase, e.Message)
}

// Schema returns the JSON Schema of the project file.
func Schema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	s := r.Reflect(&Config{})
	s.ID = schemaID
	s.Title = "gp project configuration"
	s.Description = "Schema for gp.yaml and gp.toml project files"

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal config schema: %w", err)
	}
	return out, nil
}

// Validate checks cfg against the schema, then the domain rules. Domain
// rules are skipped when the schema check fails.
func Validate(cfg *Config) []error {
	if errs := validateSemantic(cfg); len(errs) > 0 {
		return errs
	}
	return validateDomain(cfg)
}

func semanticErr(format string, args ...any) []error {
	return []error{&ValidationError{Phase: "semantic", Message: fmt.Sprintf(format, args...)}}
}

func validateSemantic(cfg *Config) []error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return semanticErr("marshal for schema validation: %v", err)
	}
	schemaJSON, err := Schema()
	if err != nil {
		return semanticErr("generate schema: %v", err)
	}
	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return semanticErr("unmarshal schema: %v", err)
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource(schemaID, schemaDoc); err != nil {
		return semanticErr("add schema resource: %v", err)
	}
	sch, err := c.Compile(schemaID)
	if err != nil {
		return semanticErr("compile schema: %v", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return semanticErr("unmarshal config: %v", err)
	}
	if err := sch.Validate(doc); err != nil {
		return semanticErr("%v", err)
	}
	return nil
}

func validateDomain(cfg *Config) []error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, &ValidationError{Phase: "domain", Message: fmt.Sprintf(format, args...)})
	}
	if _, err := registry.ParsePolicy(cfg.CollisionPolicy, registry.Replace); err != nil {
		add("collision_policy: %v", err)
	}
	if cfg.Log.Level != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			add("log.level: %v", err)
		}
	}
	if cfg.Test.Pattern != "" {
		if _, err := path.Match(cfg.Test.Pattern, ""); err != nil {
			add("test.pattern %q: %v", cfg.Test.Pattern, err)
		}
	}
	for _, name := range cfg.PropertyNames() {
		if name == "" {
			add("properties: empty property name")
		}
	}
	return errs
}
