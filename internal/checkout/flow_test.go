package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostingbot/internal/model"
)

func vpsPackage() *model.Package {
	return &model.Package{
		ID:          3,
		Kind:        model.KindVPS,
		Name:        "VPS Starter",
		Pricing:     model.Pricing{Monthly: 50000, Yearly: 500000},
		IsAvailable: true,
		Vps:         &model.VpsSpec{CPUCores: 2, RAMGB: 4, StorageGB: 80},
	}
}

func webPackage() *model.Package {
	return &model.Package{
		ID:          1,
		Kind:        model.KindWebHosting,
		Name:        "Hosting Personal",
		Pricing:     model.Pricing{Monthly: 25000},
		IsAvailable: true,
		Web:         &model.WebHostingSpec{StorageGB: 5},
	}
}

// seedSession plants a checkout session directly, skipping Begin so the
// step logic can be tested without a live catalog.
func seedSession(store *Store, pkg *model.Package) *Session {
	session := &Session{
		TelegramID: 12345,
		UserID:     1,
		Package:    pkg,
		Step:       StepCycle,
		StartedAt:  time.Now(),
	}
	store.Put(session)
	return session
}

func TestFlow_VpsHappyPath(t *testing.T) {
	store := NewStore()
	flow := NewFlow(store, nil, nil)
	seedSession(store, vpsPackage())

	session, err := flow.ChooseCycle(12345, "monthly")
	require.NoError(t, err)
	assert.Equal(t, StepServiceName, session.Step)
	assert.Equal(t, int64(50000), session.Amount)
	assert.True(t, session.AwaitsText())

	session, err = flow.SetServiceName(12345, "  vps-toko-online  ")
	require.NoError(t, err)
	assert.Equal(t, "vps-toko-online", session.ServiceName)
	assert.Equal(t, StepPayment, session.Step)
	assert.False(t, session.AwaitsText())

	session, err = flow.ChoosePayment(12345, "bank_transfer")
	require.NoError(t, err)
	assert.Equal(t, model.PayBankTransfer, session.Method)
	assert.Equal(t, StepConfirm, session.Step)
}

func TestFlow_WebHostingAsksForDomain(t *testing.T) {
	store := NewStore()
	flow := NewFlow(store, nil, nil)
	seedSession(store, webPackage())

	session, err := flow.ChooseCycle(12345, "monthly")
	require.NoError(t, err)
	assert.Equal(t, StepDomain, session.Step)
	assert.True(t, session.AwaitsText())

	// Rejected inputs keep the session on the domain step
	_, err = flow.SetDomain(12345, "not a domain")
	assert.ErrorIs(t, err, ErrInvalidDomain)
	_, err = flow.SetDomain(12345, "under_score.com")
	assert.ErrorIs(t, err, ErrInvalidDomain)

	session, err = flow.SetDomain(12345, "  TokoSaya.co.id  ")
	require.NoError(t, err)
	assert.Equal(t, "tokosaya.co.id", session.DomainName)
	assert.Equal(t, "tokosaya.co.id", session.ServiceName)
	assert.Equal(t, StepPayment, session.Step)
}

func TestFlow_DiscountAppliedAtCycleChoice(t *testing.T) {
	store := NewStore()
	flow := NewFlow(store, nil, nil)

	pkg := vpsPackage()
	pkg.Discount = &model.Discount{Percentage: 20, ValidUntil: time.Now().Add(time.Hour)}
	seedSession(store, pkg)

	session, err := flow.ChooseCycle(12345, "monthly")
	require.NoError(t, err)
	assert.Equal(t, int64(40000), session.Amount)
}

func TestFlow_UnofferedCycleRejected(t *testing.T) {
	store := NewStore()
	flow := NewFlow(store, nil, nil)
	seedSession(store, vpsPackage()) // no quarterly price

	_, err := flow.ChooseCycle(12345, "quarterly")
	assert.ErrorIs(t, err, ErrInvalidCycle)

	_, err = flow.ChooseCycle(12345, "weekly")
	assert.ErrorIs(t, err, ErrInvalidCycle)

	// The session is still on the cycle step
	session, err := flow.ChooseCycle(12345, "yearly")
	require.NoError(t, err)
	assert.Equal(t, int64(500000), session.Amount)
}

func TestFlow_StepOrderEnforced(t *testing.T) {
	store := NewStore()
	flow := NewFlow(store, nil, nil)
	seedSession(store, vpsPackage())

	_, err := flow.SetServiceName(12345, "vps-budi")
	assert.ErrorIs(t, err, ErrWrongStep)
	_, err = flow.ChoosePayment(12345, "balance")
	assert.ErrorIs(t, err, ErrWrongStep)

	_, err = flow.ChooseCycle(12345, "monthly")
	require.NoError(t, err)
	_, err = flow.SetDomain(12345, "example.com")
	assert.ErrorIs(t, err, ErrWrongStep) // VPS asks for a name, not a domain
}

func TestFlow_ServiceNameValidation(t *testing.T) {
	store := NewStore()
	flow := NewFlow(store, nil, nil)
	seedSession(store, vpsPackage())

	_, err := flow.ChooseCycle(12345, "monthly")
	require.NoError(t, err)

	_, err = flow.SetServiceName(12345, "   ")
	assert.ErrorIs(t, err, ErrInvalidName)

	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	_, err = flow.SetServiceName(12345, string(long))
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestFlow_CancelMidFlow(t *testing.T) {
	store := NewStore()
	flow := NewFlow(store, nil, nil)
	seedSession(store, vpsPackage())

	_, err := flow.ChooseCycle(12345, "monthly")
	require.NoError(t, err)

	assert.True(t, flow.Cancel(12345))
	assert.Nil(t, flow.Session(12345))
	assert.False(t, flow.Cancel(12345))

	_, err = flow.SetServiceName(12345, "vps-budi")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFlow_NoSession(t *testing.T) {
	flow := NewFlow(NewStore(), nil, nil)

	_, err := flow.ChooseCycle(12345, "monthly")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Nil(t, flow.Session(12345))
}

func TestStore_ReplacesSessionPerUser(t *testing.T) {
	store := NewStore()
	seedSession(store, vpsPackage())
	seedSession(store, webPackage())

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, model.KindWebHosting, store.Get(12345).Package.Kind)
}
