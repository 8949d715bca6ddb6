package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostingbot/internal/model"
	"hostingbot/internal/repository"
)

// fakeSettingStore is an in-memory settingStore that counts reads, so tests
// can observe whether the cache was hit.
type fakeSettingStore struct {
	mu       sync.Mutex
	settings map[string]*model.Setting
	reads    int
}

func newFakeSettingStore() *fakeSettingStore {
	return &fakeSettingStore{settings: make(map[string]*model.Setting)}
}

func (f *fakeSettingStore) Get(_ context.Context, key string) (*model.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	s, ok := f.settings[key]
	if !ok {
		return nil, repository.ErrSettingNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSettingStore) List(_ context.Context) ([]*model.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Setting
	for _, s := range f.settings {
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeSettingStore) Upsert(_ context.Context, s *model.Setting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *s
	f.settings[s.Key] = &copied
	return nil
}

func (f *fakeSettingStore) InsertMissing(_ context.Context, s *model.Setting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.settings[s.Key]; ok {
		return nil
	}
	copied := *s
	f.settings[s.Key] = &copied
	return nil
}

func (f *fakeSettingStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.settings[key]; !ok {
		return repository.ErrSettingNotFound
	}
	delete(f.settings, key)
	return nil
}

func (f *fakeSettingStore) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func TestSettingsService_CachesReads(t *testing.T) {
	store := newFakeSettingStore()
	store.settings["SITE_NAME"] = &model.Setting{Key: "SITE_NAME", Value: "HostingKu", Type: model.SettingText}

	svc := NewSettingsService(store, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		got, err := svc.Get(ctx, "SITE_NAME")
		require.NoError(t, err)
		assert.Equal(t, "HostingKu", got.Value)
	}

	// Only the first read should reach the store
	assert.Equal(t, 1, store.readCount())
}

func TestSettingsService_TTLExpiry(t *testing.T) {
	store := newFakeSettingStore()
	store.settings["SITE_NAME"] = &model.Setting{Key: "SITE_NAME", Value: "HostingKu", Type: model.SettingText}

	svc := NewSettingsService(store, 10*time.Millisecond)
	ctx := context.Background()

	_, err := svc.Get(ctx, "SITE_NAME")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = svc.Get(ctx, "SITE_NAME")
	require.NoError(t, err)

	assert.Equal(t, 2, store.readCount())
}

func TestSettingsService_SetRefreshesCache(t *testing.T) {
	store := newFakeSettingStore()
	svc := NewSettingsService(store, time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, &model.Setting{Key: "SITE_NAME", Value: "HostingKu", Type: model.SettingText}))

	got, err := svc.Get(ctx, "SITE_NAME")
	require.NoError(t, err)
	assert.Equal(t, "HostingKu", got.Value)

	// A write must be visible immediately despite the long TTL
	require.NoError(t, svc.Set(ctx, &model.Setting{Key: "SITE_NAME", Value: "HostingKita", Type: model.SettingText}))

	got, err = svc.Get(ctx, "SITE_NAME")
	require.NoError(t, err)
	assert.Equal(t, "HostingKita", got.Value)
}

func TestSettingsService_TypedGetters(t *testing.T) {
	store := newFakeSettingStore()
	store.settings["MAX_ORDERS"] = &model.Setting{Key: "MAX_ORDERS", Value: "10", Type: model.SettingNumber}
	store.settings["MAINTENANCE_MODE"] = &model.Setting{Key: "MAINTENANCE_MODE", Value: "true", Type: model.SettingBoolean}
	store.settings["BROKEN"] = &model.Setting{Key: "BROKEN", Value: "not-a-number", Type: model.SettingNumber}

	svc := NewSettingsService(store, time.Minute)
	ctx := context.Background()

	assert.Equal(t, int64(10), svc.GetInt(ctx, "MAX_ORDERS", 5))
	assert.Equal(t, int64(5), svc.GetInt(ctx, "MISSING", 5))
	assert.Equal(t, int64(7), svc.GetInt(ctx, "BROKEN", 7))
	assert.True(t, svc.GetBool(ctx, "MAINTENANCE_MODE", false))
	assert.False(t, svc.GetBool(ctx, "MISSING", false))
	assert.Equal(t, "fallback", svc.GetString(ctx, "MISSING", "fallback"))
}

func TestSettingsService_InvalidateDropsCache(t *testing.T) {
	store := newFakeSettingStore()
	store.settings["SITE_NAME"] = &model.Setting{Key: "SITE_NAME", Value: "HostingKu", Type: model.SettingText}

	svc := NewSettingsService(store, time.Hour)
	ctx := context.Background()

	_, err := svc.Get(ctx, "SITE_NAME")
	require.NoError(t, err)
	svc.Invalidate()
	_, err = svc.Get(ctx, "SITE_NAME")
	require.NoError(t, err)

	// The read after Invalidate must go back to the store despite the TTL
	assert.Equal(t, 2, store.readCount())
}

func TestSettingsService_PaymentAccounts(t *testing.T) {
	store := newFakeSettingStore()
	store.settings[PaymentAccountsKey] = &model.Setting{
		Key:  PaymentAccountsKey,
		Type: model.SettingJSON,
		Value: `[
			{"method":"bank_transfer","label":"BCA a.n. Budi","number":"1234567890"},
			{"method":"e-wallet","label":"DANA","number":"081234567890"},
			{"method":"bank_transfer","label":"Mandiri a.n. Budi","number":"9876543210"}
		]`,
	}

	svc := NewSettingsService(store, time.Minute)
	ctx := context.Background()

	banks := svc.PaymentAccounts(ctx, model.PayBankTransfer)
	require.Len(t, banks, 2)
	assert.Equal(t, "BCA a.n. Budi", banks[0].Label)
	assert.Equal(t, "9876543210", banks[1].Number)

	wallets := svc.PaymentAccounts(ctx, model.PayEWallet)
	require.Len(t, wallets, 1)
	assert.Equal(t, "DANA", wallets[0].Label)

	// Missing key yields an empty list, not an error
	assert.Empty(t, NewSettingsService(newFakeSettingStore(), time.Minute).PaymentAccounts(ctx, model.PayBankTransfer))
}

func TestSettingsService_GetJSONRejectsGarbage(t *testing.T) {
	store := newFakeSettingStore()
	store.settings["BROKEN_JSON"] = &model.Setting{Key: "BROKEN_JSON", Value: "{not json", Type: model.SettingJSON}

	svc := NewSettingsService(store, time.Minute)

	var dest map[string]string
	err := svc.GetJSON(context.Background(), "BROKEN_JSON", &dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestSettingsService_BotTokenChangeFiresHook(t *testing.T) {
	store := newFakeSettingStore()
	svc := NewSettingsService(store, time.Minute)
	ctx := context.Background()

	tokens := make(chan string, 1)
	svc.OnBotTokenChange(func(newToken string) { tokens <- newToken })

	require.NoError(t, svc.Set(ctx, &model.Setting{Key: BotTokenKey, Value: "111:AAA", Type: model.SettingPassword}))

	select {
	case tok := <-tokens:
		assert.Equal(t, "111:AAA", tok)
	case <-time.After(time.Second):
		t.Fatal("restart hook was not called")
	}

	// Writing the same value again must not fire the hook
	require.NoError(t, svc.Set(ctx, &model.Setting{Key: BotTokenKey, Value: "111:AAA", Type: model.SettingPassword}))
	select {
	case <-tokens:
		t.Fatal("restart hook fired on unchanged token")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSettingsService_InitDefaults(t *testing.T) {
	store := newFakeSettingStore()
	store.settings["SITE_NAME"] = &model.Setting{Key: "SITE_NAME", Value: "Custom", Type: model.SettingText}

	svc := NewSettingsService(store, time.Minute)
	ctx := context.Background()

	require.NoError(t, svc.InitDefaults(ctx, "111:AAA", 12345, "adminbudi"))

	// Seeded keys exist
	tok, err := svc.Get(ctx, BotTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "111:AAA", tok.Value)
	assert.Equal(t, int64(12345), svc.GetInt(ctx, "ADMIN_ID", 0))

	// Existing rows are untouched
	name, err := svc.Get(ctx, "SITE_NAME")
	require.NoError(t, err)
	assert.Equal(t, "Custom", name.Value)
}

func TestSettingsService_DeleteEvicts(t *testing.T) {
	store := newFakeSettingStore()
	svc := NewSettingsService(store, time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, &model.Setting{Key: "TEMP", Value: "x", Type: model.SettingText}))
	require.NoError(t, svc.Delete(ctx, "TEMP"))

	_, err := svc.Get(ctx, "TEMP")
	assert.ErrorIs(t, err, repository.ErrSettingNotFound)
}
