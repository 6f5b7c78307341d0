package fixture

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one object of a fixture document.
type Record = map[string]any

// Document is an ordered sequence of records.
type Document []Record

// Len returns the number of records.
func (d Document) Len() int { return len(d) }

// parseDocument decodes blob as a JSON array of objects. Numbers are kept as
// json.Number so they re-encode exactly as written.
func parseDocument(blob []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after top-level array")
	}
	if doc == nil {
		return nil, fmt.Errorf("expected a JSON array of objects")
	}
	for i, rec := range doc {
		if rec == nil {
			return nil, fmt.Errorf("record %d is not an object", i)
		}
	}
	return doc, nil
}

// encode serializes doc without HTML escaping and without a trailing newline.
// encoding/json sorts object keys, so the output is deterministic.
func encode(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (d Document) clone() Document {
	out := make(Document, len(d))
	for i, rec := range d {
		out[i] = cloneValue(rec).(map[string]any)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}
