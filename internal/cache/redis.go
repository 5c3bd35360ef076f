package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client enveloppe Redis. Un Client sans connexion (nil ou rdb nil) est
// valide : lectures en miss, écritures ignorées.
type Client struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// --- Cache générique ---

// GetString retourne la valeur et true si la clé est présente
func (c *Client) GetString(ctx context.Context, key string) (string, bool) {
	if !c.Enabled() {
		return "", false
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ Erreur lecture cache %s: %v", key, err)
		}
		return "", false
	}
	return val, true
}

func (c *Client) SetString(ctx context.Context, key, value string, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("⚠️ Erreur écriture cache %s: %v", key, err)
	}
}

func (c *Client) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	c.rdb.Del(ctx, keys...)
}

// --- Blacklist JWT (révocation avant expiration) ---

// BlacklistToken ajoute un token JWT à la blacklist
func (c *Client) BlacklistToken(ctx context.Context, tokenID string, duration time.Duration) error {
	if !c.Enabled() {
		return errors.New("Redis non configuré")
	}
	key := fmt.Sprintf("blacklist:%s", tokenID)
	return c.rdb.Set(ctx, key, "revoked", duration).Err()
}

// IsTokenBlacklisted vérifie si un token est blacklisté
func (c *Client) IsTokenBlacklisted(ctx context.Context, tokenID string) bool {
	if !c.Enabled() || tokenID == "" {
		return false
	}
	key := fmt.Sprintf("blacklist:%s", tokenID)
	exists, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		log.Printf("⚠️ Erreur vérification blacklist: %v", err)
		return false
	}
	return exists > 0
}

// --- Rate Limiting ---

// IncrementRateLimit incrémente le compteur de la fenêtre et retourne sa valeur
func (c *Client) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	pipe := c.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// GetRateLimit récupère le compteur de rate limit
func (c *Client) GetRateLimit(ctx context.Context, key string) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	val, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// TTL retourne la durée restante d'une clé (0 si absente)
func (c *Client) TTL(ctx context.Context, key string) time.Duration {
	if !c.Enabled() {
		return 0
	}
	ttl, err := c.rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}
