package srwatch

import (
	"io"

	"github.com/hazyhaar/srkit/srwatch/internal/ingest"
	"github.com/hazyhaar/srkit/srwatch/internal/schema"
)

// DecodeEvents reads a JSON-lines capture file.
func DecodeEvents(r io.Reader) ([]Event, error) {
	return ingest.DecodeEvents(r)
}

// Validator checks serialized enriched records against the wire schema.
type Validator = schema.Validator

// NewValidator compiles the embedded wire schema.
func NewValidator() (*Validator, error) {
	return schema.New()
}
