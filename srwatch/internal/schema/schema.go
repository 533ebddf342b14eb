// Package schema validates serialized enriched records against the JSON
// schema of the replay wire format.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hazyhaar/srkit/srwatch/segment"
)

//go:embed enriched_record.schema.json
var enrichedRecordSchema []byte

const schemaURL = "enriched_record.schema.json"

// ErrInvalidRecord wraps every validation failure.
var ErrInvalidRecord = errors.New("schema: invalid record")

// Validator checks enriched records. It is safe for concurrent use.
type Validator struct {
	schema *jsonschema.Schema
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(enrichedRecordSchema)); err != nil {
		return nil, fmt.Errorf("schema: add resource: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("schema: compile: %w", err)
	}
	return &Validator{schema: s}, nil
}

// Validate checks one serialized enriched record.
func (v *Validator) Validate(data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := v.schema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// ValidateRecord serializes rec and validates the result.
func (v *Validator) ValidateRecord(rec segment.EnrichedRecord) error {
	data, err := rec.ToJSON()
	if err != nil {
		return fmt.Errorf("schema: marshal: %w", err)
	}
	return v.Validate(data)
}

// Raw returns the embedded schema document.
func Raw() []byte {
	return bytes.Clone(enrichedRecordSchema)
}
