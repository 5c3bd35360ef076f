package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrNotFound           = errors.New("document introuvable")
	ErrAlreadyExists      = errors.New("document déjà existant")
	ErrPreconditionFailed = errors.New("précondition non satisfaite")
)

// Document est un enregistrement schemaless d'une collection
type Document struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"collection"`
	Data       map[string]interface{} `json:"data"`
}

// DocumentStore est l'accès aux collections de documents.
// Toutes les valeurs sont sérialisées en JSON : à la relecture les nombres
// sont des float64 et les dates des chaînes RFC3339.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, collection string, opts ...QueryOption) ([]Document, error)
	Create(ctx context.Context, collection string, data map[string]interface{}) (string, error)
	Set(ctx context.Context, collection, id string, data map[string]interface{}) error
	Update(ctx context.Context, collection, id string, data map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
	// Commit applique un lot d'écritures. Si une précondition échoue, rien
	// n'est écrit et ErrPreconditionFailed est retournée.
	Commit(ctx context.Context, writes []Write) error
	Close() error
}

type WriteKind int

const (
	WriteCreate WriteKind = iota
	WriteSet
	WriteUpdate
	WriteDelete
)

// Precondition exige que le champ Field du document vaille Value. Avec
// AllowMissing, un champ absent, nul ou vide est aussi accepté.
type Precondition struct {
	Field        string
	Value        interface{}
	AllowMissing bool
}

type Write struct {
	Kind         WriteKind
	Collection   string
	ID           string
	Data         map[string]interface{}
	Precondition *Precondition
}

func CreateOp(collection, id string, data map[string]interface{}) Write {
	return Write{Kind: WriteCreate, Collection: collection, ID: id, Data: data}
}

func SetOp(collection, id string, data map[string]interface{}) Write {
	return Write{Kind: WriteSet, Collection: collection, ID: id, Data: data}
}

func UpdateOp(collection, id string, data map[string]interface{}) Write {
	return Write{Kind: WriteUpdate, Collection: collection, ID: id, Data: data}
}

func DeleteOp(collection, id string) Write {
	return Write{Kind: WriteDelete, Collection: collection, ID: id}
}

// If ajoute une précondition sur l'état courant du document
func (w Write) If(field string, value interface{}) Write {
	w.Precondition = &Precondition{Field: field, Value: value}
	return w
}

// IfAbsentOr accepte un champ absent (document historique) ou égal à value
func (w Write) IfAbsentOr(field string, value interface{}) Write {
	w.Precondition = &Precondition{Field: field, Value: value, AllowMissing: true}
	return w
}

// --- Requêtes ---

type filter struct {
	field string
	op    string
	value interface{}
}

type queryOptions struct {
	filters []filter
	orderBy string
	desc    bool
	limit   int
}

type QueryOption func(*queryOptions)

// Where filtre sur un champ. Opérateurs : ==, !=, <, <=, >, >=, in
func Where(field, op string, value interface{}) QueryOption {
	return func(o *queryOptions) {
		o.filters = append(o.filters, filter{field: field, op: op, value: toGeneric(value)})
	}
}

func OrderBy(field string, desc bool) QueryOption {
	return func(o *queryOptions) {
		o.orderBy = field
		o.desc = desc
	}
}

func Limit(n int) QueryOption {
	return func(o *queryOptions) { o.limit = n }
}

// applyQuery filtre, trie et limite des documents déjà chargés
func applyQuery(docs []Document, opts []QueryOption) ([]Document, error) {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}

	result := make([]Document, 0, len(docs))
	for _, doc := range docs {
		ok, err := matches(doc.Data, o.filters)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, doc)
		}
	}

	if o.orderBy != "" {
		sort.SliceStable(result, func(i, j int) bool {
			c := compareValues(result[i].Data[o.orderBy], result[j].Data[o.orderBy])
			if o.desc {
				return c > 0
			}
			return c < 0
		})
	}

	if o.limit > 0 && len(result) > o.limit {
		result = result[:o.limit]
	}
	return result, nil
}

func matches(data map[string]interface{}, filters []filter) (bool, error) {
	for _, f := range filters {
		v := data[f.field]
		switch f.op {
		case "==":
			if !valuesEqual(v, f.value) {
				return false, nil
			}
		case "!=":
			if valuesEqual(v, f.value) {
				return false, nil
			}
		case "<":
			if v == nil || compareValues(v, f.value) >= 0 {
				return false, nil
			}
		case "<=":
			if v == nil || compareValues(v, f.value) > 0 {
				return false, nil
			}
		case ">":
			if v == nil || compareValues(v, f.value) <= 0 {
				return false, nil
			}
		case ">=":
			if v == nil || compareValues(v, f.value) < 0 {
				return false, nil
			}
		case "in":
			list, ok := f.value.([]interface{})
			if !ok {
				return false, fmt.Errorf("opérateur in: liste attendue pour %s", f.field)
			}
			found := false
			for _, candidate := range list {
				if valuesEqual(v, candidate) {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, fmt.Errorf("opérateur inconnu: %s", f.op)
		}
	}
	return true, nil
}

// toGeneric ramène une valeur Go typée à sa forme JSON générique
func toGeneric(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func valuesEqual(a, b interface{}) bool {
	ra, errA := json.Marshal(toGeneric(a))
	rb, errB := json.Marshal(toGeneric(b))
	if errA != nil || errB != nil {
		return false
	}
	return string(ra) == string(rb)
}

// compareValues ordonne nombres, dates RFC3339 et chaînes ; nil passe en premier
func compareValues(a, b interface{}) int {
	a, b = toGeneric(a), toGeneric(b)
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}

	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		ta, errA := time.Parse(time.RFC3339Nano, sa)
		tb, errB := time.Parse(time.RFC3339Nano, sb)
		if errA == nil && errB == nil {
			return ta.Compare(tb)
		}
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	}

	return 0
}

// mergeData applique des champs partiels sur un document existant
func mergeData(existing, partial map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(existing)+len(partial))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range partial {
		merged[k] = v
	}
	return merged
}

func checkPrecondition(data map[string]interface{}, p *Precondition) error {
	if p == nil {
		return nil
	}
	current := data[p.Field]
	if p.AllowMissing && (current == nil || current == "") {
		return nil
	}
	if !valuesEqual(current, p.Value) {
		return fmt.Errorf("%w: %s", ErrPreconditionFailed, p.Field)
	}
	return nil
}
