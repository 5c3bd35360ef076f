package cache

import (
	"context"
	"time"
)

const NameCacheTTL = 10 * time.Minute

// GetName récupère un nom d'affichage (utilisateur, annonce) mis en cache
func (c *Client) GetName(ctx context.Context, kind, id string) (string, bool) {
	return c.GetString(ctx, "name:"+kind+":"+id)
}

// SetName met en cache un nom d'affichage
func (c *Client) SetName(ctx context.Context, kind, id, name string) {
	c.SetString(ctx, "name:"+kind+":"+id, name, NameCacheTTL)
}

// InvalidateName invalide le cache d'un nom (profil ou annonce renommés)
func (c *Client) InvalidateName(ctx context.Context, kind, id string) {
	c.Delete(ctx, "name:"+kind+":"+id)
}
