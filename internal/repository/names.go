package repository

import (
	"context"
	"strings"

	"kaari_back_end/internal/cache"
	"kaari_back_end/internal/database"
)

// NameResolver retrouve les noms d'affichage des utilisateurs et annonces,
// avec un cache Redis optionnel.
type NameResolver struct {
	store database.DocumentStore
	cache *cache.Client
}

func NewNameResolver(store database.DocumentStore, c *cache.Client) *NameResolver {
	return &NameResolver{store: store, cache: c}
}

// UserName retourne le nom de l'utilisateur, "Unknown User" en cas d'échec
func (n *NameResolver) UserName(ctx context.Context, id string) string {
	name, ok := n.lookup(ctx, "user", CollectionUsers, id, userDisplayName)
	if !ok {
		return UnknownUser
	}
	return name
}

// PropertyTitle retourne le titre de l'annonce, "Unknown Property" en cas d'échec
func (n *NameResolver) PropertyTitle(ctx context.Context, id string) (string, bool) {
	title, ok := n.lookup(ctx, "property", CollectionProperties, id, propertyDisplayTitle)
	if !ok {
		return UnknownProperty, false
	}
	return title, true
}

func (n *NameResolver) lookup(ctx context.Context, kind, collection, id string, extract func(map[string]interface{}) string) (string, bool) {
	if id == "" {
		return "", false
	}
	if name, ok := n.cache.GetName(ctx, kind, id); ok {
		return name, true
	}
	doc, err := n.store.Get(ctx, collection, id)
	if err != nil {
		return "", false
	}
	name := extract(doc.Data)
	if name == "" {
		return "", false
	}
	n.cache.SetName(ctx, kind, id, name)
	return name, true
}

func userDisplayName(data map[string]interface{}) string {
	if s := stringField(data, "name"); s != "" {
		return s
	}
	if s := stringField(data, "displayName"); s != "" {
		return s
	}
	full := strings.TrimSpace(stringField(data, "firstName") + " " + stringField(data, "lastName"))
	if full != "" {
		return full
	}
	return stringField(data, "email")
}

func propertyDisplayTitle(data map[string]interface{}) string {
	if s := stringField(data, "title"); s != "" {
		return s
	}
	return stringField(data, "name")
}
