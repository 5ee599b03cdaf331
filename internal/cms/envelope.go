package cms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject reports a record whose attributes are not a JSON object.
var ErrNotObject = errors.New("cms: record attributes are not an object")

// Envelope is the API response wrapper: { "data": ..., "meta": ... }.
type Envelope struct {
	Data json.RawMessage `json:"data"`
	Meta map[string]any  `json:"meta,omitempty"`
}

// HasData reports whether the envelope carries a non-null data member. An
// empty list still counts as data; rendering it clears the region.
func (e Envelope) HasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// List decodes data as a collection. A single object is returned as a
// one-element list.
func (e Envelope) List() ([]Record, error) {
	if !e.HasData() {
		return nil, nil
	}
	trimmed := bytes.TrimSpace(e.Data)
	if trimmed[0] != '[' {
		rec, _, err := e.Single()
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	}
	var records []Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("cms: decode collection: %w", err)
	}
	return records, nil
}

// Single decodes data as one record. The boolean is false when data is null.
func (e Envelope) Single() (Record, bool, error) {
	if !e.HasData() {
		return Record{}, false, nil
	}
	var rec Record
	if err := json.Unmarshal(e.Data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("cms: decode record: %w", err)
	}
	return rec, true, nil
}

// Record is one content entry. Attributes keeps the raw field bag until a
// schema decoder validates it.
type Record struct {
	ID         int64           `json:"id"`
	DocumentID string          `json:"documentId,omitempty"`
	Attributes json.RawMessage `json:"attributes"`
}

// UnmarshalJSON accepts both the nested {id, attributes:{...}} shape and the
// flat shape where fields sit next to id.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return ErrNotObject
	}
	var out Record
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &out.ID); err != nil {
			return fmt.Errorf("cms: decode record id: %w", err)
		}
	}
	if raw, ok := fields["documentId"]; ok {
		_ = json.Unmarshal(raw, &out.DocumentID)
	}
	if raw, ok := fields["attributes"]; ok {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return ErrNotObject
		}
		out.Attributes = append(json.RawMessage(nil), trimmed...)
		*r = out
		return nil
	}
	delete(fields, "id")
	delete(fields, "documentId")
	flat, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("cms: re-encode flat record: %w", err)
	}
	out.Attributes = flat
	*r = out
	return nil
}

// MarshalJSON always emits the nested shape.
func (r Record) MarshalJSON() ([]byte, error) {
	attrs := r.Attributes
	if len(attrs) == 0 {
		attrs = json.RawMessage("{}")
	}
	return json.Marshal(struct {
		ID         int64           `json:"id"`
		DocumentID string          `json:"documentId,omitempty"`
		Attributes json.RawMessage `json:"attributes"`
	}{ID: r.ID, DocumentID: r.DocumentID, Attributes: attrs})
}

// Decode unmarshals the attribute bag into v.
func (r Record) Decode(v any) error {
	if len(r.Attributes) == 0 {
		return ErrNotObject
	}
	if err := json.Unmarshal(r.Attributes, v); err != nil {
		return fmt.Errorf("cms: decode attributes of record %d: %w", r.ID, err)
	}
	return nil
}
