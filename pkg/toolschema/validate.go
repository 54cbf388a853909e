package toolschema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator validates a tool call's decoded arguments against the tool's
// declared JSON-Schema, caching the compiled schema per tool name so a
// hot-looping agent doesn't recompile on every call.
type Validator struct {
	mu     sync.Mutex
	cached map[string]*jsonschema.Schema
}

// NewValidator returns an empty, ready-to-use Validator.
func NewValidator() *Validator {
	return &Validator{cached: map[string]*jsonschema.Schema{}}
}

// Validate checks args against toolName's schema, compiling and caching it
// on first use. A nil or empty schema accepts any arguments.
func (v *Validator) Validate(toolName string, schema map[string]any, args map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	compiled, err := v.compile(toolName, schema)
	if err != nil {
		return fmt.Errorf("toolschema: compile %s: %w", toolName, err)
	}

	reconcileCamelCase(schema, args)

	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("toolschema: encode arguments for %s: %w", toolName, err)
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("toolschema: decode arguments for %s: %w", toolName, err)
	}

	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("toolschema: %s arguments invalid: %w", toolName, err)
	}
	return nil
}

// reconcileCamelCase moves an argument found under a required property's
// camelCase spelling to its declared snake_case key, in place, so a model
// that answers in camelCase still validates against a snake_case schema.
func reconcileCamelCase(schema map[string]any, args map[string]any) {
	required, _ := schema["required"].([]any)
	for _, r := range required {
		key, ok := r.(string)
		if !ok {
			continue
		}
		if _, present := args[key]; present {
			continue
		}
		camel := snakeToCamel(key)
		if camel == key {
			continue
		}
		if v, ok := args[camel]; ok {
			args[key] = v
			delete(args, camel)
		}
	}
}

func snakeToCamel(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, "")
}

func (v *Validator) compile(toolName string, schema map[string]any) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if cached, ok := v.cached[toolName]; ok {
		return cached, nil
	}

	resourceID := toolName + ".schema.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceID, schema); err != nil {
		return nil, err
	}
	compiled, err := c.Compile(resourceID)
	if err != nil {
		return nil, err
	}
	v.cached[toolName] = compiled
	return compiled, nil
}
