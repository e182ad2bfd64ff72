package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	accessSchemaName  = "portal.widget_access.json"
	layoutSchemaName  = "portal.layout.json"
	presetsSchemaName = "portal.presets.json"
)

func widgetInstanceSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"id", "visible"},
		"properties": map[string]any{
			"id":      map[string]any{"type": "string", "minLength": 1},
			"order":   map[string]any{"type": "integer"},
			"size":    map[string]any{"type": "string"},
			"visible": map[string]any{"type": "boolean"},
		},
	}
}

var recordSchemas = map[string]map[string]any{
	accessSchemaName: {
		"type": "object",
		"additionalProperties": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "boolean"},
		},
	},
	layoutSchemaName: {
		"type":     "object",
		"required": []string{"widgets"},
		"properties": map[string]any{
			"widgets":      map[string]any{"type": "array", "items": widgetInstanceSchema()},
			"activePreset": map[string]any{"type": []string{"string", "null"}},
			"lastUpdated":  map[string]any{"type": "string"},
		},
	},
	presetsSchemaName: {
		"type": "array",
		"items": map[string]any{
			"type":     "object",
			"required": []string{"id", "name", "widgets"},
			"properties": map[string]any{
				"id":      map[string]any{"type": "string", "minLength": 1},
				"name":    map[string]any{"type": "string"},
				"widgets": map[string]any{"type": "array", "items": widgetInstanceSchema()},
			},
		},
	},
}

// RecordValidator checks persisted JSON records against their schemas before
// they are decoded. Schemas compile lazily and are cached.
type RecordValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewRecordValidator builds a validator backed by jsonschema v5.
func NewRecordValidator() *RecordValidator {
	return &RecordValidator{compiled: make(map[string]*jsonschema.Schema)}
}

// DecodeAccess validates and decodes a tenant override record. Unknown role
// keys are dropped.
func (v *RecordValidator) DecodeAccess(raw string) (AccessOverrides, error) {
	var decoded map[string]map[string]bool
	if err := v.decode(accessSchemaName, raw, &decoded); err != nil {
		return nil, err
	}
	overrides := make(AccessOverrides, len(decoded))
	for key, widgets := range decoded {
		role := Role(key)
		if !role.Valid() {
			continue
		}
		overrides[role] = widgets
	}
	return overrides, nil
}

// DecodeLayout validates and decodes a persisted layout record.
func (v *RecordValidator) DecodeLayout(raw string) (layoutRecord, error) {
	var rec layoutRecord
	err := v.decode(layoutSchemaName, raw, &rec)
	return rec, err
}

// DecodePresets validates and decodes a persisted custom preset list.
func (v *RecordValidator) DecodePresets(raw string) ([]Preset, error) {
	var presets []Preset
	err := v.decode(presetsSchemaName, raw, &presets)
	return presets, err
}

func (v *RecordValidator) decode(name, raw string, out any) error {
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, name, err)
	}
	schema, err := v.schema(name)
	if err != nil {
		return err
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, name, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, name, err)
	}
	return nil
}

func (v *RecordValidator) schema(name string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[name]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	def, ok := recordSchemas[name]
	if !ok {
		return nil, fmt.Errorf("portal: no schema registered for %s", name)
	}
	data, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("portal: marshal schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("portal: load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("portal: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}
