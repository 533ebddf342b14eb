package segment

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestWireframeKindDefaultsToShape(t *testing.T) {
	w := Wireframe{ID: 1, Width: 10, Height: 10}
	if w.Kind() != KindShape {
		t.Errorf("Kind: got %q, want %q", w.Kind(), KindShape)
	}
	if !w.Equal(Wireframe{ID: 1, Width: 10, Height: 10, Payload: ShapePayload{}}) {
		t.Error("nil payload should equal ShapePayload")
	}
}

func TestWireframeEqualComparesPayload(t *testing.T) {
	a := Wireframe{ID: 1, Payload: TextPayload{Text: "hello"}}
	b := Wireframe{ID: 1, Payload: &TextPayload{Text: "hello"}}
	if !a.Equal(b) {
		t.Error("value and pointer payloads with same content should be equal")
	}
	b.Payload = TextPayload{Text: "world"}
	if a.Equal(b) {
		t.Error("different text should not be equal")
	}
}

func TestWireframeJSONText(t *testing.T) {
	w := Wireframe{
		ID: 7, X: 1, Y: 2, Width: 30, Height: 40,
		ShapeStyle: &ShapeStyle{BackgroundColor: "#000000FF", Opacity: Ptr(1.0)},
		Payload: TextPayload{
			Text:      "hi",
			TextStyle: TextStyle{Family: "sans-serif", Size: 12, Color: "#FFFFFFFF"},
		},
	}
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "text" {
		t.Errorf("type: got %v, want text", m["type"])
	}
	if m["text"] != "hi" {
		t.Errorf("text: got %v, want hi", m["text"])
	}
	if _, ok := m["clip"]; ok {
		t.Error("clip should be omitted when nil")
	}

	var got Wireframe
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Equal(w) {
		t.Errorf("decoded wireframe: got %+v, want %+v", got, w)
	}
}

func TestPlaceholderDropsStyle(t *testing.T) {
	w := Wireframe{
		ID: 3, Width: 5, Height: 5,
		ShapeStyle: &ShapeStyle{BackgroundColor: "#FF0000FF"},
		Border:     &Border{Color: "#000000FF", Width: 1},
		Payload:    PlaceholderPayload{Label: "Video"},
	}
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if strings.Contains(s, "shapeStyle") || strings.Contains(s, "border") {
		t.Errorf("placeholder should not carry style: %s", s)
	}
	if !strings.Contains(s, `"label":"Video"`) {
		t.Errorf("missing label: %s", s)
	}
}

func TestWireframeUnknownType(t *testing.T) {
	var w Wireframe
	err := json.Unmarshal([]byte(`{"id":1,"type":"canvas"}`), &w)
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestMutationDataJSON(t *testing.T) {
	d := MutationData{
		Adds: []Add{
			{Wireframe: Wireframe{ID: 2, Width: 1, Height: 1}},
			{PreviousID: Ptr[int64](2), Wireframe: Wireframe{ID: 3, Width: 1, Height: 1}},
		},
		Updates: []Update{{ID: 1, Kind: KindText, Text: Ptr("new")}},
	}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var m struct {
		Source  int               `json:"source"`
		Adds    []json.RawMessage `json:"adds"`
		Removes []json.RawMessage `json:"removes"`
		Updates []map[string]any  `json:"updates"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m.Source != int(SourceMutation) {
		t.Errorf("source: got %d, want %d", m.Source, SourceMutation)
	}
	if m.Removes == nil {
		t.Error("removes should serialize as an empty array")
	}
	if strings.Contains(string(m.Adds[0]), "previousId") {
		t.Errorf("head insert should omit previousId: %s", m.Adds[0])
	}
	if !strings.Contains(string(m.Adds[1]), `"previousId":2`) {
		t.Errorf("anchored insert missing previousId: %s", m.Adds[1])
	}
	if len(m.Updates[0]) != 3 {
		t.Errorf("update keys: got %v, want id/type/text only", m.Updates[0])
	}
}

func TestEnrichedRecordJSON(t *testing.T) {
	e := EnrichedRecord{
		ApplicationID: "app",
		SessionID:     "sess",
		ViewID:        "view",
		Records: []Record{
			MetaRecord{Timestamp: 100, Data: MetaData{Width: 1080, Height: 1920}},
			FocusRecord{Timestamp: 100, Data: FocusData{HasFocus: true}},
			FullSnapshotRecord{Timestamp: 100, Data: FullSnapshotData{Wireframes: []Wireframe{{ID: 1, Width: 2, Height: 2}}}},
			IncrementalSnapshotRecord{Timestamp: 101, Data: ViewportResizeData{Width: 1920, Height: 1080}},
			IncrementalSnapshotRecord{Timestamp: 102, Data: PointerInteractionData{PointerEventType: "down", PointerType: "touch", X: 1, Y: 2}},
			IncrementalSnapshotRecord{Timestamp: 103, Data: MutationData{Removes: []Remove{{ID: 1}}}},
			ViewEndRecord{Timestamp: 104},
		},
	}
	data, err := e.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, key := range []string{`"application_id":"app"`, `"session_id":"sess"`, `"view_id":"view"`, `"has_focus":true`} {
		if !strings.Contains(s, key) {
			t.Errorf("missing %s in %s", key, s)
		}
	}

	var got EnrichedRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	want := []RecordType{
		RecordTypeMeta, RecordTypeFocus, RecordTypeFullSnapshot,
		RecordTypeIncrementalSnapshot, RecordTypeIncrementalSnapshot, RecordTypeIncrementalSnapshot,
		RecordTypeViewEnd,
	}
	types := got.RecordTypes()
	if len(types) != len(want) {
		t.Fatalf("records: got %d, want %d", len(types), len(want))
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("record[%d]: got %s, want %s", i, types[i], want[i])
		}
	}
	inc, ok := got.Records[5].(IncrementalSnapshotRecord)
	if !ok {
		t.Fatalf("record[5]: got %T", got.Records[5])
	}
	md, ok := inc.Data.(MutationData)
	if !ok || len(md.Removes) != 1 || md.Removes[0].ID != 1 {
		t.Errorf("record[5] data: got %+v", inc.Data)
	}
}

func TestDecodeRecordUnknownType(t *testing.T) {
	if _, err := DecodeRecord([]byte(`{"type":99,"timestamp":1}`)); err == nil {
		t.Fatal("expected error for unknown record type")
	}
	if _, err := DecodeIncrementalData([]byte(`{"width":1}`)); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestResourceMetadata(t *testing.T) {
	r := EnrichedResource{Resource: []byte{1, 2, 3}, ApplicationID: "app", Filename: "abc"}
	got := string(r.AsBinaryMetadata())
	want := `{"application_id":"app","filename":"abc"}`
	if got != want {
		t.Errorf("metadata: got %s, want %s", got, want)
	}
	app, name, err := ParseResourceMetadata(r.AsBinaryMetadata())
	if err != nil {
		t.Fatal(err)
	}
	if app != "app" || name != "abc" {
		t.Errorf("parsed: got %q/%q", app, name)
	}
}
