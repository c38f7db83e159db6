package store

import (
	"context"
	"fmt"

	"github.com/amishk599/expawatch/internal/model"
)

// NopStore is used by the check command. It keeps nothing and reports every
// record as Inserted, so each poll shows what would be notified.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) InsertIfAbsent(_ context.Context, _ model.Record) (model.InsertResult, error) {
	return model.Inserted, nil
}

func (s *NopStore) Get(_ context.Context, kind model.Kind, id string) (model.StoredRecord, error) {
	return model.StoredRecord{}, fmt.Errorf("%s %s: %w", kind, id, model.ErrRecordNotFound)
}

func (s *NopStore) List(_ context.Context, _ model.Kind, _ int) ([]model.StoredRecord, error) {
	return nil, nil
}

func (s *NopStore) Close() error { return nil }
