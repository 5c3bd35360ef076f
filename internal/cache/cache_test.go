package cache

import (
	"context"
	"testing"
	"time"
)

func TestDisabledClientIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*Client{nil, New(nil)} {
		if c.Enabled() {
			t.Fatal("client without redis should be disabled")
		}
		c.SetName(ctx, "user", "u1", "Salma")
		c.InvalidateName(ctx, "user", "u1")
		if _, ok := c.GetName(ctx, "user", "u1"); ok {
			t.Error("disabled client should always miss")
		}
		if c.IsTokenBlacklisted(ctx, "jti") {
			t.Error("disabled client should not blacklist")
		}
		if err := c.BlacklistToken(ctx, "jti", time.Minute); err == nil {
			t.Error("expected error when blacklisting without redis")
		}
		n, err := c.IncrementRateLimit(ctx, "k", time.Minute)
		if n != 0 || err != nil {
			t.Errorf("IncrementRateLimit = %d, %v", n, err)
		}
	}
}
