// Package store persists player and stat documents. The document store is
// a key-value map with merge-write semantics: Set never performs a
// destructive full-document overwrite, so a partial update for one season
// cannot clobber another season written concurrently.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jstittsworth/courtside/pkg/database"
)

// Collections used by the core.
const (
	CollectionPlayers     = "players"
	CollectionPlayerStats = "player_stats"
)

// DocumentStore is the durable key-value document store. Field paths in
// Query use dot notation for nested objects ("provider_ids.sportsdb").
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (map[string]interface{}, error)
	Set(ctx context.Context, collection, id string, partial map[string]interface{}, merge bool) error
	Query(ctx context.Context, collection, fieldPath, equals string) (map[string]map[string]interface{}, error)
	List(ctx context.Context, collection string) (map[string]map[string]interface{}, error)
	Delete(ctx context.Context, collection, id string) error
}

// Document is one row of the generic documents table.
type Document struct {
	Collection string         `gorm:"primaryKey;size:64" json:"collection"`
	DocID      string         `gorm:"primaryKey;size:128;column:doc_id" json:"doc_id"`
	Data       datatypes.JSON `json:"data"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// GormStore implements DocumentStore on Postgres JSONB.
type GormStore struct {
	db *database.DB
}

func NewGormStore(db *database.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	var doc Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&doc).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(doc.Data, &data); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return data, nil
}

func (s *GormStore) Set(ctx context.Context, collection, id string, partial map[string]interface{}, merge bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc Document
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND doc_id = ?", collection, id).
			First(&doc).Error

		data := partial
		switch {
		case err == nil && merge:
			var existing map[string]interface{}
			if uerr := json.Unmarshal(doc.Data, &existing); uerr != nil {
				return fmt.Errorf("decode existing %s/%s: %w", collection, id, uerr)
			}
			data = DeepMerge(existing, partial)
		case err != nil && !isNotFound(err):
			return fmt.Errorf("lock %s/%s: %w", collection, id, err)
		}

		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", collection, id, err)
		}

		row := Document{
			Collection: collection,
			DocID:      id,
			Data:       datatypes.JSON(raw),
			UpdatedAt:  time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			UpdateAll: true,
		}).Create(&row).Error
	})
}

func (s *GormStore) Query(ctx context.Context, collection, fieldPath, equals string) (map[string]map[string]interface{}, error) {
	path := "{" + strings.Join(strings.Split(fieldPath, "."), ",") + "}"

	var docs []Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND data #>> ? = ?", collection, path, equals).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("query %s where %s = %s: %w", collection, fieldPath, equals, err)
	}

	results := make(map[string]map[string]interface{}, len(docs))
	for _, doc := range docs {
		var data map[string]interface{}
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, doc.DocID, err)
		}
		results[doc.DocID] = data
	}
	return results, nil
}

func (s *GormStore) List(ctx context.Context, collection string) (map[string]map[string]interface{}, error) {
	var docs []Document
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	results := make(map[string]map[string]interface{}, len(docs))
	for _, doc := range docs {
		var data map[string]interface{}
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, doc.DocID, err)
		}
		results[doc.DocID] = data
	}
	return results, nil
}

func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	return s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&Document{}).Error
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// DeepMerge merges partial into existing, recursing into nested objects.
// Scalars and arrays in partial replace existing values; keys absent from
// partial are preserved.
func DeepMerge(existing, partial map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(existing)+len(partial))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range partial {
		pm, pok := v.(map[string]interface{})
		em, eok := out[k].(map[string]interface{})
		if pok && eok {
			out[k] = DeepMerge(em, pm)
			continue
		}
		out[k] = v
	}
	return out
}
