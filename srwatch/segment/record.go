package segment

import (
	"encoding/json"
	"fmt"
)

// RecordType is the numeric record tag understood by the replay viewer.
type RecordType int

const (
	RecordTypeMeta                RecordType = 4
	RecordTypeFocus               RecordType = 6
	RecordTypeViewEnd             RecordType = 7
	RecordTypeFullSnapshot        RecordType = 10
	RecordTypeIncrementalSnapshot RecordType = 11
)

func (t RecordType) String() string {
	switch t {
	case RecordTypeMeta:
		return "meta"
	case RecordTypeFocus:
		return "focus"
	case RecordTypeViewEnd:
		return "view_end"
	case RecordTypeFullSnapshot:
		return "full_snapshot"
	case RecordTypeIncrementalSnapshot:
		return "incremental_snapshot"
	default:
		return fmt.Sprintf("record_type(%d)", int(t))
	}
}

// Record is one entry of the replay event log.
type Record interface {
	Type() RecordType
	Time() int64
}

type MetaData struct {
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
	Href   string `json:"href,omitempty"`
}

// MetaRecord announces the viewport of a new view.
type MetaRecord struct {
	Timestamp int64    `json:"timestamp"`
	Data      MetaData `json:"data"`
}

type FocusData struct {
	HasFocus bool `json:"has_focus"`
}

type FocusRecord struct {
	Timestamp int64     `json:"timestamp"`
	Data      FocusData `json:"data"`
}

// ViewEndRecord closes a view on the viewer side.
type ViewEndRecord struct {
	Timestamp int64 `json:"timestamp"`
}

type FullSnapshotData struct {
	Wireframes []Wireframe `json:"wireframes"`
}

// FullSnapshotRecord holds a complete snapshot, enough to paint the screen
// from scratch.
type FullSnapshotRecord struct {
	Timestamp int64            `json:"timestamp"`
	Data      FullSnapshotData `json:"data"`
}

// IncrementalSnapshotRecord holds a delta since the previous record of the view.
type IncrementalSnapshotRecord struct {
	Timestamp int64
	Data      IncrementalData
}

func (r MetaRecord) Type() RecordType                { return RecordTypeMeta }
func (r FocusRecord) Type() RecordType               { return RecordTypeFocus }
func (r ViewEndRecord) Type() RecordType             { return RecordTypeViewEnd }
func (r FullSnapshotRecord) Type() RecordType        { return RecordTypeFullSnapshot }
func (r IncrementalSnapshotRecord) Type() RecordType { return RecordTypeIncrementalSnapshot }

func (r MetaRecord) Time() int64                { return r.Timestamp }
func (r FocusRecord) Time() int64               { return r.Timestamp }
func (r ViewEndRecord) Time() int64             { return r.Timestamp }
func (r FullSnapshotRecord) Time() int64        { return r.Timestamp }
func (r IncrementalSnapshotRecord) Time() int64 { return r.Timestamp }

func (r MetaRecord) MarshalJSON() ([]byte, error) {
	type plain MetaRecord
	return json.Marshal(struct {
		Type RecordType `json:"type"`
		plain
	}{RecordTypeMeta, plain(r)})
}

func (r FocusRecord) MarshalJSON() ([]byte, error) {
	type plain FocusRecord
	return json.Marshal(struct {
		Type RecordType `json:"type"`
		plain
	}{RecordTypeFocus, plain(r)})
}

func (r ViewEndRecord) MarshalJSON() ([]byte, error) {
	type plain ViewEndRecord
	return json.Marshal(struct {
		Type RecordType `json:"type"`
		plain
	}{RecordTypeViewEnd, plain(r)})
}

func (r FullSnapshotRecord) MarshalJSON() ([]byte, error) {
	type plain FullSnapshotRecord
	if r.Data.Wireframes == nil {
		r.Data.Wireframes = []Wireframe{}
	}
	return json.Marshal(struct {
		Type RecordType `json:"type"`
		plain
	}{RecordTypeFullSnapshot, plain(r)})
}

func (r IncrementalSnapshotRecord) MarshalJSON() ([]byte, error) {
	if r.Data == nil {
		return nil, fmt.Errorf("segment: incremental record without data")
	}
	return json.Marshal(struct {
		Type      RecordType      `json:"type"`
		Timestamp int64           `json:"timestamp"`
		Data      IncrementalData `json:"data"`
	}{RecordTypeIncrementalSnapshot, r.Timestamp, r.Data})
}

func (r *IncrementalSnapshotRecord) UnmarshalJSON(data []byte) error {
	var in struct {
		Timestamp int64           `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d, err := DecodeIncrementalData(in.Data)
	if err != nil {
		return err
	}
	r.Timestamp = in.Timestamp
	r.Data = d
	return nil
}

// DecodeRecord decodes one record, dispatching on its "type" field.
func DecodeRecord(data []byte) (Record, error) {
	var head struct {
		Type RecordType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("segment: decode record: %w", err)
	}
	var (
		rec Record
		err error
	)
	switch head.Type {
	case RecordTypeMeta:
		var r MetaRecord
		err = json.Unmarshal(data, &r)
		rec = r
	case RecordTypeFocus:
		var r FocusRecord
		err = json.Unmarshal(data, &r)
		rec = r
	case RecordTypeViewEnd:
		var r ViewEndRecord
		err = json.Unmarshal(data, &r)
		rec = r
	case RecordTypeFullSnapshot:
		var r FullSnapshotRecord
		err = json.Unmarshal(data, &r)
		rec = r
	case RecordTypeIncrementalSnapshot:
		var r IncrementalSnapshotRecord
		err = json.Unmarshal(data, &r)
		rec = r
	default:
		return nil, fmt.Errorf("segment: unknown record type %d", int(head.Type))
	}
	if err != nil {
		return nil, fmt.Errorf("segment: decode %s record: %w", head.Type, err)
	}
	return rec, nil
}
