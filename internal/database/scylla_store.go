package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// --- Configuration ScyllaDB ---
type ScyllaConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	SSLEnabled  bool
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

// ScyllaStore stocke les documents en JSON dans la table documents.
// Les préconditions passent par une LWT (compare-and-set sur data), le
// reste d'un Commit par un batch logged.
type ScyllaStore struct {
	config  ScyllaConfig
	session *gocql.Session
	mu      sync.Mutex
}

// NewScyllaStore ouvre la session et crée la table si besoin
func NewScyllaStore(config ScyllaConfig) (*ScyllaStore, error) {
	s := &ScyllaStore{config: config}
	session, err := s.getSession()
	if err != nil {
		return nil, err
	}
	if err := session.Query(cqlCreateDocuments).Exec(); err != nil {
		log.Printf("⚠️ Création table documents impossible (droits ?): %v", err)
	}
	return s, nil
}

// createScyllaCluster crée une configuration de cluster pour le keyspace
func createScyllaCluster(config ScyllaConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Consistency = config.Consistency
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.Timeout = config.Timeout
	cluster.NumConns = config.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second

	if config.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	if config.SSLEnabled && config.CACertPath != "" {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 config.CACertPath,
			EnableHostVerification: true,
		}
	}

	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// getSession retourne la session courante, recréée si elle a été fermée
func (s *ScyllaStore) getSession() (*gocql.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil && !s.session.Closed() {
		return s.session, nil
	}

	session, err := createScyllaCluster(s.config).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", s.config.Keyspace, err)
	}
	s.session = session
	log.Printf("✅ Session ScyllaDB ouverte pour keyspace '%s'", s.config.Keyspace)
	return session, nil
}

func (s *ScyllaStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Close()
		log.Printf("🔌 Session ScyllaDB fermée pour keyspace '%s'", s.config.Keyspace)
	}
	return nil
}

// readRaw retourne le JSON brut du document, ErrNotFound s'il n'existe pas
func (s *ScyllaStore) readRaw(ctx context.Context, session *gocql.Session, collection, id string) (string, error) {
	var raw string
	err := session.Query(cqlGetDocument, collection, id).WithContext(ctx).Scan(&raw)
	if errors.Is(err, gocql.ErrNotFound) {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if err != nil {
		return "", fmt.Errorf("lecture %s/%s: %w", collection, id, err)
	}
	return raw, nil
}

func (s *ScyllaStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	session, err := s.getSession()
	if err != nil {
		return nil, err
	}
	raw, err := s.readRaw(ctx, session, collection, id)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("document %s/%s illisible: %w", collection, id, err)
	}
	return &Document{ID: id, Collection: collection, Data: data}, nil
}

func (s *ScyllaStore) Query(ctx context.Context, collection string, opts ...QueryOption) ([]Document, error) {
	session, err := s.getSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(cqlListCollection, collection).WithContext(ctx).Iter()
	var docs []Document
	var id, raw string
	for iter.Scan(&id, &raw) {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			iter.Close()
			return nil, fmt.Errorf("document %s/%s illisible: %w", collection, id, err)
		}
		docs = append(docs, Document{ID: id, Collection: collection, Data: data})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture collection %s: %w", collection, err)
	}
	return applyQuery(docs, opts)
}

func (s *ScyllaStore) Create(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	session, err := s.getSession()
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := time.Now()
	applied, err := session.Query(cqlInsertIfMissing, collection, id, string(raw), now, now).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return "", fmt.Errorf("création %s: %w", collection, err)
	}
	if !applied {
		return "", fmt.Errorf("%w: %s/%s", ErrAlreadyExists, collection, id)
	}
	return id, nil
}

func (s *ScyllaStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	return s.Commit(ctx, []Write{SetOp(collection, id, data)})
}

func (s *ScyllaStore) Update(ctx context.Context, collection, id string, data map[string]interface{}) error {
	return s.Commit(ctx, []Write{UpdateOp(collection, id, data)})
}

func (s *ScyllaStore) Delete(ctx context.Context, collection, id string) error {
	return s.Commit(ctx, []Write{DeleteOp(collection, id)})
}

// Commit applique d'abord les écritures conditionnelles (LWT, une par une),
// puis le reste dans un batch logged.
func (s *ScyllaStore) Commit(ctx context.Context, writes []Write) error {
	session, err := s.getSession()
	if err != nil {
		return err
	}
	now := time.Now()

	var rest []Write
	for _, w := range writes {
		if w.Precondition == nil {
			rest = append(rest, w)
			continue
		}
		if err := s.compareAndSet(ctx, session, w, now); err != nil {
			return err
		}
	}
	if len(rest) == 0 {
		return nil
	}

	batch := session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, w := range rest {
		id := w.ID
		if id == "" {
			id = uuid.NewString()
		}
		switch w.Kind {
		case WriteDelete:
			batch.Query(cqlDeleteDocument, w.Collection, id)
		case WriteCreate, WriteSet:
			if w.Kind == WriteCreate {
				if _, err := s.readRaw(ctx, session, w.Collection, id); err == nil {
					return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, w.Collection, id)
				} else if !errors.Is(err, ErrNotFound) {
					return err
				}
			}
			raw, err := json.Marshal(w.Data)
			if err != nil {
				return err
			}
			batch.Query(cqlUpsertDocument, w.Collection, id, string(raw), now, now)
		case WriteUpdate:
			current, err := s.readRaw(ctx, session, w.Collection, id)
			if err != nil {
				return err
			}
			var existing map[string]interface{}
			if err := json.Unmarshal([]byte(current), &existing); err != nil {
				return fmt.Errorf("document %s/%s illisible: %w", w.Collection, id, err)
			}
			raw, err := json.Marshal(mergeData(existing, w.Data))
			if err != nil {
				return err
			}
			batch.Query(cqlUpdateData, string(raw), now, w.Collection, id)
		}
	}

	if err := session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("batch documents: %w", err)
	}
	return nil
}

func (s *ScyllaStore) compareAndSet(ctx context.Context, session *gocql.Session, w Write, now time.Time) error {
	current, err := s.readRaw(ctx, session, w.Collection, w.ID)
	if err != nil {
		return err
	}
	var existing map[string]interface{}
	if err := json.Unmarshal([]byte(current), &existing); err != nil {
		return fmt.Errorf("document %s/%s illisible: %w", w.Collection, w.ID, err)
	}
	if err := checkPrecondition(existing, w.Precondition); err != nil {
		return err
	}

	var next map[string]interface{}
	switch w.Kind {
	case WriteUpdate:
		next = mergeData(existing, w.Data)
	case WriteSet:
		next = w.Data
	default:
		return fmt.Errorf("précondition non supportée pour ce type d'écriture sur %s", w.Collection)
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return err
	}

	applied, err := session.Query(cqlCompareAndSet, string(raw), now, w.Collection, w.ID, current).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("LWT %s/%s: %w", w.Collection, w.ID, err)
	}
	if !applied {
		return fmt.Errorf("%w: %s/%s modifié entre-temps", ErrPreconditionFailed, w.Collection, w.ID)
	}
	return nil
}
