package memory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/esmemory/internal/domain"
	"github.com/kailas-cloud/esmemory/internal/domain/record"
)

// Document field names.
const (
	FieldID        = "id"
	FieldEmbedding = "embedding"
	FieldTags      = "tags"
	FieldTagName   = "tags.name"
	FieldTagValue  = "tags.value"
	FieldPayload   = "payload"
)

// Document is the engine-side form of a record.
// Embedding is sent as null when absent so an upsert clears a stale vector.
type Document struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"embedding"`
	Tags      []Tag     `json:"tags"`
	Payload   string    `json:"payload"`
}

// FromRecord validates a record and converts it to its engine document.
func FromRecord(r *record.Record) (Document, error) {
	if err := r.Validate(); err != nil {
		return Document{}, err
	}

	id := EncodeID(r.ID)
	if len(id) > MaxDocumentIDLength {
		return Document{}, fmt.Errorf("record ID of %d bytes exceeds the engine limit once encoded: %w",
			len(r.ID), domain.ErrInvalidRecord)
	}

	var payload string
	if r.Payload != nil {
		raw, err := json.Marshal(r.Payload)
		if err != nil {
			return Document{}, fmt.Errorf("record %q payload: %w: %w", r.ID, domain.ErrInvalidRecord, err)
		}
		payload = string(raw)
	}

	return Document{
		ID:        id,
		Embedding: r.Vector,
		Tags:      ToEngineTags(r.Tags),
		Payload:   payload,
	}, nil
}

// ToRecord converts the document back. The vector is dropped unless withEmbedding is set.
func (d *Document) ToRecord(withEmbedding bool) (record.Record, error) {
	id, err := DecodeID(d.ID)
	if err != nil {
		return record.Record{}, err
	}

	rec := record.Record{ID: id, Tags: FromEngineTags(d.Tags)}
	if withEmbedding {
		rec.Vector = d.Embedding
	}
	if d.Payload != "" {
		// numbers stay json.Number so integers beyond 2^53 keep every digit
		dec := json.NewDecoder(strings.NewReader(d.Payload))
		dec.UseNumber()
		if err := dec.Decode(&rec.Payload); err != nil {
			return record.Record{}, fmt.Errorf("record %q payload: %w: %w", id, domain.ErrInvalidRecord, err)
		}
	}
	return rec, nil
}

// decodeDocument parses a hit source.
func decodeDocument(src []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(src, &d); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	return d, nil
}
