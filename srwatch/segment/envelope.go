package segment

import (
	"encoding/json"
	"fmt"
)

// EnrichedRecord is the unit handed to a record sink: every record produced
// by one processing call, addressed to a single application/session/view.
type EnrichedRecord struct {
	ApplicationID string
	SessionID     string
	ViewID        string
	Records       []Record
}

type enrichedRecordJSON struct {
	ApplicationID string            `json:"application_id"`
	SessionID     string            `json:"session_id"`
	ViewID        string            `json:"view_id"`
	Records       []json.RawMessage `json:"records"`
}

// ToJSON serializes the envelope with its records in list order.
func (e EnrichedRecord) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func (e EnrichedRecord) MarshalJSON() ([]byte, error) {
	out := enrichedRecordJSON{
		ApplicationID: e.ApplicationID,
		SessionID:     e.SessionID,
		ViewID:        e.ViewID,
		Records:       make([]json.RawMessage, 0, len(e.Records)),
	}
	for i, r := range e.Records {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("segment: marshal record %d: %w", i, err)
		}
		out.Records = append(out.Records, b)
	}
	return json.Marshal(out)
}

func (e *EnrichedRecord) UnmarshalJSON(data []byte) error {
	var in enrichedRecordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	recs := make([]Record, 0, len(in.Records))
	for _, raw := range in.Records {
		r, err := DecodeRecord(raw)
		if err != nil {
			return err
		}
		recs = append(recs, r)
	}
	*e = EnrichedRecord{
		ApplicationID: in.ApplicationID,
		SessionID:     in.SessionID,
		ViewID:        in.ViewID,
		Records:       recs,
	}
	return nil
}

// RecordTypes lists the type of each record, in order.
func (e EnrichedRecord) RecordTypes() []RecordType {
	out := make([]RecordType, len(e.Records))
	for i, r := range e.Records {
		out[i] = r.Type()
	}
	return out
}

// EnrichedResource is a binary resource (image bytes) and the metadata the
// resource endpoint needs to attach it to an application.
type EnrichedResource struct {
	Resource      []byte
	ApplicationID string
	Filename      string
}

type resourceMetadata struct {
	ApplicationID string `json:"application_id"`
	Filename      string `json:"filename"`
}

// AsBinaryMetadata returns the UTF-8 JSON metadata sent alongside the raw bytes.
func (r EnrichedResource) AsBinaryMetadata() []byte {
	// two string fields cannot fail to marshal
	b, _ := json.Marshal(resourceMetadata{ApplicationID: r.ApplicationID, Filename: r.Filename})
	return b
}

// ParseResourceMetadata decodes the output of AsBinaryMetadata.
func ParseResourceMetadata(data []byte) (applicationID, filename string, err error) {
	var m resourceMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return "", "", fmt.Errorf("segment: resource metadata: %w", err)
	}
	return m.ApplicationID, m.Filename, nil
}
