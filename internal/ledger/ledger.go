// Package ledger is the append-only contribution log. Every mutation of a
// moderatable record writes exactly one row here, inside the transaction of
// the mutation itself.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/compress"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/store"
	"github.com/google/uuid"
)

// Record is the input of Ledger.Record. Previous and New are snapshots of
// the affected state; either may be nil. Values that are already encoded
// JSON ([]byte, json.RawMessage) are stored as they are.
type Record struct {
	Action     model.Action
	EntityType model.EntityType
	EntityID   string
	Previous   any
	New        any
	Metadata   any
	UserID     string
}

// Entry is a decoded ledger row.
type Entry struct {
	ID            string           `json:"id"`
	Seq           int64            `json:"seq"`
	Action        model.Action     `json:"action"`
	EntityType    model.EntityType `json:"entityType"`
	EntityID      string           `json:"entityId"`
	PreviousValue json.RawMessage  `json:"previousValue,omitempty"`
	NewValue      json.RawMessage  `json:"newValue,omitempty"`
	Metadata      json.RawMessage  `json:"metadata,omitempty"`
	UserID        string           `json:"userId"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type Ledger struct {
	codec compress.Compress
	now   func() time.Time
}

// NewLedger creates a ledger that encodes snapshots with codec.
func NewLedger(codec compress.Compress) *Ledger {
	if codec == nil {
		codec = compress.NewNop()
	}

	return &Ledger{
		codec: codec,
		now:   time.Now,
	}
}

// WithClock replaces the clock used to stamp rows.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Record appends one row through st and returns it. st is expected to be the
// transaction of the mutation being recorded.
func (l *Ledger) Record(ctx context.Context, st store.ContributionStore, rec Record) (*model.Contribution, error) {
	if err := rec.validate(); err != nil {
		return nil, err
	}

	previous, err := l.encode(rec.Previous)
	if err != nil {
		return nil, fmt.Errorf("encode previous value: %w", err)
	}

	next, err := l.encode(rec.New)
	if err != nil {
		return nil, fmt.Errorf("encode new value: %w", err)
	}

	var metadata string
	if rec.Metadata != nil {
		data, err := marshal(rec.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		metadata = string(data)
	}

	contribution := &model.Contribution{
		ID:            uuid.New().String(),
		Action:        rec.Action,
		EntityType:    rec.EntityType,
		EntityID:      rec.EntityID,
		PreviousValue: previous,
		NewValue:      next,
		Compression:   l.codec.Name(),
		Metadata:      metadata,
		UserID:        rec.UserID,
		CreatedAt:     l.now().UTC(),
	}

	if err = st.CreateContribution(ctx, contribution); err != nil {
		return nil, fmt.Errorf("append contribution: %w", err)
	}

	return contribution, nil
}

// History returns the rows of one entity in the order they were written.
func (l *Ledger) History(ctx context.Context, st store.ContributionStore, entityType model.EntityType, entityID string) ([]*Entry, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("%w: unknown entity type %q", apperr.ErrValidation, entityType)
	}

	rows, err := st.ListContributions(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := Decode(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Get returns one decoded row.
func (l *Ledger) Get(ctx context.Context, st store.ContributionStore, id string) (*Entry, error) {
	row, err := st.GetContribution(ctx, id)
	if err != nil {
		return nil, err
	}

	return Decode(row)
}

// Decode expands a stored row with the codec it was written with.
func Decode(row *model.Contribution) (*Entry, error) {
	codec, err := compress.New(row.Compression)
	if err != nil {
		return nil, fmt.Errorf("contribution %s: %w", row.ID, err)
	}

	entry := &Entry{
		ID:         row.ID,
		Seq:        row.Seq,
		Action:     row.Action,
		EntityType: row.EntityType,
		EntityID:   row.EntityID,
		UserID:     row.UserID,
		CreatedAt:  row.CreatedAt,
	}

	if len(row.PreviousValue) > 0 {
		if entry.PreviousValue, err = codec.Decode(row.PreviousValue); err != nil {
			return nil, fmt.Errorf("contribution %s: decode previous value: %w", row.ID, err)
		}
	}

	if len(row.NewValue) > 0 {
		if entry.NewValue, err = codec.Decode(row.NewValue); err != nil {
			return nil, fmt.Errorf("contribution %s: decode new value: %w", row.ID, err)
		}
	}

	if row.Metadata != "" {
		entry.Metadata = json.RawMessage(row.Metadata)
	}

	return entry, nil
}

func (l *Ledger) encode(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	data, err := marshal(v)
	if err != nil {
		return nil, err
	}

	return l.codec.Encode(data)
}

func marshal(v any) ([]byte, error) {
	switch raw := v.(type) {
	case json.RawMessage:
		return raw, nil
	case []byte:
		return raw, nil
	}

	return json.Marshal(v)
}

func (r Record) validate() error {
	if !r.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", apperr.ErrValidation, r.Action)
	}
	if !r.EntityType.Valid() {
		return fmt.Errorf("%w: unknown entity type %q", apperr.ErrValidation, r.EntityType)
	}
	if strings.TrimSpace(r.EntityID) == "" {
		return fmt.Errorf("%w: entity id is required", apperr.ErrValidation)
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: user id is required", apperr.ErrValidation)
	}
	if r.Previous == nil && r.New == nil {
		return fmt.Errorf("%w: %s of %s %s has no snapshot", apperr.ErrValidation, r.Action, r.EntityType, r.EntityID)
	}
	if r.Action == model.ActionCreate && r.New == nil {
		return fmt.Errorf("%w: create requires a new value", apperr.ErrValidation)
	}

	return nil
}
