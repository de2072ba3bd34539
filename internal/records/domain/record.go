package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Record is one marketplace entity as served by the backend API.
type Record map[string]any

// ID returns the record identifier, or "" when the record carries none.
func (r Record) ID() string {
	for _, key := range []string{"id", "_id"} {
		switch v := r[key].(type) {
		case nil:
			continue
		case string:
			return v
		case json.Number:
			return v.String()
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}

// DecodeRecord decodes a JSON object keeping numbers as json.Number.
func DecodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var record Record
	if err := dec.Decode(&record); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNilRecord
	}
	return record, nil
}

// Source lists the records of a resource.
type Source interface {
	List(ctx context.Context, resource Resource) ([]Record, error)
}

// Sink replaces the stored records of a resource.
type Sink interface {
	Replace(ctx context.Context, resource Resource, records []Record) error
}
