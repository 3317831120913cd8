package payment

import (
	"sync"
	"time"
)

const defaultTokenSkew = 30 * time.Second

type Token struct {
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenCache holds one provider access token until shortly before it
// expires. It is safe for concurrent use.
type TokenCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	skew  time.Duration
	now   func() time.Time
	token *Token
}

func NewTokenCache(ttl time.Duration, now func() time.Time) *TokenCache {
	if now == nil {
		now = time.Now
	}
	skew := defaultTokenSkew
	if ttl > 0 && skew >= ttl {
		skew = ttl / 10
	}
	return &TokenCache{ttl: ttl, skew: skew, now: now}
}

// Get returns the cached token while it is still fresh.
func (c *TokenCache) Get() (Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil || !c.now().Before(c.token.ExpiresAt.Add(-c.skew)) {
		return Token{}, false
	}
	return *c.token, true
}

// Refreshable returns the refresh token of the last stored token, fresh or not.
func (c *TokenCache) Refreshable() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil || c.token.RefreshToken == "" {
		return "", false
	}
	return c.token.RefreshToken, true
}

// Put stores a token. expiresIn <= 0 falls back to the cache TTL; the
// cache TTL also caps whatever the provider reports.
func (c *TokenCache) Put(idToken, refreshToken string, expiresIn time.Duration) Token {
	if expiresIn <= 0 || (c.ttl > 0 && expiresIn > c.ttl) {
		expiresIn = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = &Token{
		IDToken:      idToken,
		RefreshToken: refreshToken,
		ExpiresAt:    c.now().Add(expiresIn),
	}
	return *c.token
}

// Invalidate forces the next Get to miss while keeping the refresh token.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	if c.token != nil {
		c.token.ExpiresAt = time.Time{}
	}
	c.mu.Unlock()
}
