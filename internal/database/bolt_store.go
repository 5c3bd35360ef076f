package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// BoltStore est un DocumentStore embarqué : un bucket par collection,
// valeurs JSON. Chaque Commit s'exécute dans une seule transaction.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore ouvre (ou crée) la base BoltDB au chemin donné
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("ouverture BoltDB %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Get(_ context.Context, collection, id string) (*Document, error) {
	var doc *Document
	err := s.db.View(func(tx *bolt.Tx) error {
		data, err := boltRead(tx, collection, id)
		if err != nil {
			return err
		}
		doc = &Document{ID: id, Collection: collection, Data: data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *BoltStore) Query(_ context.Context, collection string, opts ...QueryOption) ([]Document, error) {
	var docs []Document
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var data map[string]interface{}
			if err := json.Unmarshal(v, &data); err != nil {
				return fmt.Errorf("document %s/%s illisible: %w", collection, k, err)
			}
			docs = append(docs, Document{ID: string(k), Collection: collection, Data: data})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return applyQuery(docs, opts)
}

func (s *BoltStore) Create(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.NewString()
	if err := s.Commit(ctx, []Write{CreateOp(collection, id, data)}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *BoltStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	return s.Commit(ctx, []Write{SetOp(collection, id, data)})
}

func (s *BoltStore) Update(ctx context.Context, collection, id string, data map[string]interface{}) error {
	return s.Commit(ctx, []Write{UpdateOp(collection, id, data)})
}

// Delete ne retourne pas d'erreur si le document n'existe pas
func (s *BoltStore) Delete(ctx context.Context, collection, id string) error {
	return s.Commit(ctx, []Write{DeleteOp(collection, id)})
}

func (s *BoltStore) Commit(ctx context.Context, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, w := range writes {
			if err := boltApply(tx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

func boltRead(tx *bolt.Tx, collection, id string) (map[string]interface{}, error) {
	b := tx.Bucket([]byte(collection))
	if b == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	v := b.Get([]byte(id))
	if v == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(v, &data); err != nil {
		return nil, fmt.Errorf("document %s/%s illisible: %w", collection, id, err)
	}
	return data, nil
}

func boltApply(tx *bolt.Tx, w Write) error {
	b, err := tx.CreateBucketIfNotExists([]byte(w.Collection))
	if err != nil {
		return err
	}
	id := w.ID
	if id == "" {
		if w.Kind != WriteCreate {
			return fmt.Errorf("identifiant manquant pour %s", w.Collection)
		}
		id = uuid.NewString()
	}

	var existing map[string]interface{}
	if raw := b.Get([]byte(id)); raw != nil {
		if err := json.Unmarshal(raw, &existing); err != nil {
			return fmt.Errorf("document %s/%s illisible: %w", w.Collection, id, err)
		}
	}

	if w.Precondition != nil {
		if existing == nil {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, w.Collection, id)
		}
		if err := checkPrecondition(existing, w.Precondition); err != nil {
			return err
		}
	}

	var next map[string]interface{}
	switch w.Kind {
	case WriteCreate:
		if existing != nil {
			return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, w.Collection, id)
		}
		next = w.Data
	case WriteSet:
		next = w.Data
	case WriteUpdate:
		if existing == nil {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, w.Collection, id)
		}
		next = mergeData(existing, w.Data)
	case WriteDelete:
		return b.Delete([]byte(id))
	default:
		return fmt.Errorf("type d'écriture inconnu: %d", w.Kind)
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("sérialisation %s/%s: %w", w.Collection, id, err)
	}
	return b.Put([]byte(id), raw)
}
