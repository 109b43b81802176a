package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SettingsSource is the slice of SettingRepository the cache needs.
type SettingsSource interface {
	GetAllByPrefix(prefix string) (map[string]string, error)
}

type cachedCreds struct {
	values    map[string]string
	expiresAt time.Time
}

// ProviderConfigCache resolves payment-provider credentials: static config
// defaults overlaid with system_settings rows ("payment.<provider>.<field>"),
// cached for a short TTL. The clock is injected and invalidation explicit,
// so rotation takes effect promptly and the cache is testable. Safe for
// concurrent use.
type ProviderConfigCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	settings SettingsSource
	defaults map[string]map[string]string
	entries  map[string]cachedCreds
}

func NewProviderConfigCache(settings SettingsSource, defaults map[string]map[string]string, ttl time.Duration, now func() time.Time) *ProviderConfigCache {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ProviderConfigCache{
		ttl:      ttl,
		now:      now,
		settings: settings,
		defaults: defaults,
		entries:  map[string]cachedCreds{},
	}
}

// Credentials implements payment.Credentials.
func (c *ProviderConfigCache) Credentials(_ context.Context, provider string) (map[string]string, error) {
	c.mu.RLock()
	entry, ok := c.entries[provider]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		return entry.values, nil
	}

	values := map[string]string{}
	for k, v := range c.defaults[provider] {
		values[k] = v
	}
	if c.settings != nil {
		overrides, err := c.settings.GetAllByPrefix("payment." + provider + ".")
		if err != nil {
			// Serve defaults rather than failing a live callback on a
			// settings read error.
			logrus.WithError(err).WithField("provider", provider).Warn("provider settings read failed, using defaults")
		} else {
			for k, v := range overrides {
				values[k] = v
			}
		}
	}

	c.mu.Lock()
	c.entries[provider] = cachedCreds{values: values, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return values, nil
}

// Invalidate drops one provider's cached credentials.
func (c *ProviderConfigCache) Invalidate(provider string) {
	c.mu.Lock()
	delete(c.entries, provider)
	c.mu.Unlock()
}

// InvalidateAll drops every cached entry.
func (c *ProviderConfigCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = map[string]cachedCreds{}
	c.mu.Unlock()
}
