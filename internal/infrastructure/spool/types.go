package spool

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is one normalized case document awaiting upsert into the document
// store. Doc holds the untyped case document exactly as the controller would
// receive it.
type Record struct {
	ID         string          `json:"id"`
	SourceID   string          `json:"sourceId"`
	Doc        json.RawMessage `json:"doc"`
	Retries    int             `json:"retries"`
	ReceivedAt time.Time       `json:"receivedAt"`

	bucketKey []byte
}

func (r *Record) normalize() {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.ReceivedAt.IsZero() {
		r.ReceivedAt = time.Now()
	}
}
