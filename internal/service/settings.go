// Package service provides business logic implementations.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hostingbot/internal/model"
	"hostingbot/internal/repository"
)

// BotTokenKey is the settings key whose change triggers a bot restart.
const BotTokenKey = "BOT_TOKEN"

// PaymentAccountsKey holds the transfer destinations shown to customers
// after checkout, as a JSON array of PaymentAccount.
const PaymentAccountsKey = "PAYMENT_ACCOUNTS"

// PaymentAccount is one destination a customer can pay to. The list lives
// in the settings table so the admin panel can edit it without a redeploy.
type PaymentAccount struct {
	Method model.PaymentMethod `json:"method"`
	Label  string              `json:"label"`
	Number string              `json:"number"`
}

// settingStore is the persistence surface the settings cache needs.
type settingStore interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	List(ctx context.Context) ([]*model.Setting, error)
	Upsert(ctx context.Context, s *model.Setting) error
	InsertMissing(ctx context.Context, s *model.Setting) error
	Delete(ctx context.Context, key string) error
}

// SettingsService serves runtime configuration from the settings table
// through an in-process cache. Reads hit the database at most once per TTL
// per key; every write goes through this service and refreshes the cached
// entry, so in-process readers never see a stale value after a write.
type SettingsService struct {
	repo settingStore
	ttl  time.Duration

	mu      sync.RWMutex
	cache   map[string]cachedSetting
	onToken func(newToken string)
}

type cachedSetting struct {
	setting  *model.Setting
	cachedAt time.Time
}

// NewSettingsService creates a new SettingsService instance.
func NewSettingsService(repo settingStore, ttl time.Duration) *SettingsService {
	return &SettingsService{
		repo:  repo,
		ttl:   ttl,
		cache: make(map[string]cachedSetting),
	}
}

// OnBotTokenChange registers a callback fired asynchronously whenever the
// BOT_TOKEN setting is written with a new value.
func (s *SettingsService) OnBotTokenChange(fn func(newToken string)) {
	s.mu.Lock()
	s.onToken = fn
	s.mu.Unlock()
}

// Get returns one setting, from cache when fresh.
func (s *SettingsService) Get(ctx context.Context, key string) (*model.Setting, error) {
	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && time.Since(entry.cachedAt) < s.ttl {
		return entry.setting, nil
	}

	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = cachedSetting{setting: setting, cachedAt: time.Now()}
	s.mu.Unlock()
	return setting, nil
}

// GetString returns a setting value, or fallback when the key is missing.
func (s *SettingsService) GetString(ctx context.Context, key, fallback string) string {
	setting, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrSettingNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("setting lookup failed, using fallback")
		}
		return fallback
	}
	return setting.Value
}

// GetInt returns a numeric setting value, or fallback when missing or not
// parseable.
func (s *SettingsService) GetInt(ctx context.Context, key string, fallback int64) int64 {
	setting, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	n, err := strconv.ParseInt(setting.Value, 10, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", setting.Value).Msg("setting is not a number, using fallback")
		return fallback
	}
	return n
}

// GetBool returns a boolean setting value, or fallback when missing or not
// parseable.
func (s *SettingsService) GetBool(ctx context.Context, key string, fallback bool) bool {
	setting, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	b, err := strconv.ParseBool(setting.Value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", setting.Value).Msg("setting is not a boolean, using fallback")
		return fallback
	}
	return b
}

// GetJSON unmarshals a JSON setting value into dest.
func (s *SettingsService) GetJSON(ctx context.Context, key string, dest any) error {
	setting, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(setting.Value), dest); err != nil {
		return fmt.Errorf("setting %s is not valid JSON: %w", key, err)
	}
	return nil
}

// PaymentAccounts returns the configured destinations for a payment method.
// A missing or malformed setting yields an empty list, so callers fall back
// to pointing the customer at the admin.
func (s *SettingsService) PaymentAccounts(ctx context.Context, method model.PaymentMethod) []PaymentAccount {
	var all []PaymentAccount
	if err := s.GetJSON(ctx, PaymentAccountsKey, &all); err != nil {
		if !errors.Is(err, repository.ErrSettingNotFound) {
			log.Warn().Err(err).Msg("payment accounts setting is unreadable")
		}
		return nil
	}
	var out []PaymentAccount
	for _, acc := range all {
		if acc.Method == method {
			out = append(out, acc)
		}
	}
	return out
}

// List returns all settings, bypassing the cache. Used by the admin panel.
func (s *SettingsService) List(ctx context.Context) ([]*model.Setting, error) {
	return s.repo.List(ctx)
}

// Set writes a setting and refreshes the cache entry in the same call, so
// the next read sees the new value without waiting out the TTL. A write
// that changes BOT_TOKEN fires the restart callback.
func (s *SettingsService) Set(ctx context.Context, setting *model.Setting) error {
	var previous string
	if old, err := s.repo.Get(ctx, setting.Key); err == nil {
		previous = old.Value
	}

	if err := s.repo.Upsert(ctx, setting); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[setting.Key] = cachedSetting{setting: setting, cachedAt: time.Now()}
	onToken := s.onToken
	s.mu.Unlock()

	if setting.Key == BotTokenKey && setting.Value != previous && onToken != nil {
		log.Info().Msg("bot token changed, scheduling bot restart")
		go onToken(setting.Value)
	}
	return nil
}

// Delete removes a setting and evicts it from the cache.
func (s *SettingsService) Delete(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	return nil
}

// Invalidate drops every cached entry. The next read of each key goes back
// to the database.
func (s *SettingsService) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]cachedSetting)
	s.mu.Unlock()
}

// InitDefaults seeds the settings table with the keys the application
// expects. Existing rows are left alone, so operator edits survive
// restarts.
func (s *SettingsService) InitDefaults(ctx context.Context, botToken string, adminID int64, adminUsername string) error {
	defaults := []*model.Setting{
		{Key: BotTokenKey, Value: botToken, Type: model.SettingPassword, Category: "bot", Description: "Token bot Telegram"},
		{Key: "ADMIN_ID", Value: strconv.FormatInt(adminID, 10), Type: model.SettingNumber, Category: "bot", Description: "Telegram ID admin utama"},
		{Key: "ADMIN_USERNAME", Value: adminUsername, Type: model.SettingText, Category: "bot", Description: "Username admin untuk kontak"},
		{Key: "PAYMENT_API_KEY", Value: "", Type: model.SettingPassword, Category: "payment", Description: "API key penyedia pembayaran"},
		{Key: PaymentAccountsKey, Value: "[]", Type: model.SettingJSON, Category: "payment", Description: "Daftar rekening tujuan pembayaran (JSON)"},
		{Key: "SITE_NAME", Value: "Hosting Store", Type: model.SettingText, Category: "general", Description: "Nama toko", IsPublic: true},
		{Key: "SITE_DESCRIPTION", Value: "Layanan VPS, Web Hosting dan Game Hosting", Type: model.SettingText, Category: "general", Description: "Deskripsi toko", IsPublic: true},
		{Key: "MAINTENANCE_MODE", Value: "false", Type: model.SettingBoolean, Category: "general", Description: "Tolak pesanan baru saat maintenance"},
	}

	for _, def := range defaults {
		if err := s.repo.InsertMissing(ctx, def); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", def.Key, err)
		}
	}
	return nil
}
