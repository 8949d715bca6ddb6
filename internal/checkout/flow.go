package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hostingbot/internal/model"
	"hostingbot/internal/service"
)

// Flow errors.
var (
	ErrNoSession     = errors.New("no active checkout")
	ErrWrongStep     = errors.New("unexpected checkout step")
	ErrInvalidCycle  = errors.New("billing cycle not offered")
	ErrInvalidName   = errors.New("invalid service name")
	ErrInvalidDomain = errors.New("invalid domain name")
	ErrInvalidMethod = errors.New("unknown payment method")
)

const maxServiceNameLen = 64

// Flow drives the checkout conversation. Each step method validates the
// input, mutates the session and returns it for rendering.
type Flow struct {
	store   *Store
	catalog *service.CatalogService
	orders  *service.OrderService
}

// NewFlow creates a new checkout flow.
func NewFlow(store *Store, catalog *service.CatalogService, orders *service.OrderService) *Flow {
	return &Flow{store: store, catalog: catalog, orders: orders}
}

// Begin starts a checkout for one package, replacing any checkout the user
// already had open.
func (f *Flow) Begin(ctx context.Context, user *model.User, ref model.PackageRef) (*Session, error) {
	pkg, err := f.catalog.GetAvailable(ctx, ref)
	if err != nil {
		return nil, err
	}

	session := &Session{
		TelegramID: user.TelegramID,
		UserID:     user.ID,
		Package:    pkg,
		Step:       StepCycle,
		StartedAt:  time.Now(),
	}
	f.store.Put(session)
	return session, nil
}

// Session returns the user's live checkout, or nil.
func (f *Flow) Session(telegramID int64) *Session {
	return f.store.Get(telegramID)
}

// Cancel abandons the checkout. Reports whether one existed.
func (f *Flow) Cancel(telegramID int64) bool {
	if f.store.Get(telegramID) == nil {
		return false
	}
	f.store.Delete(telegramID)
	return true
}

// ChooseCycle records the billing cycle and prices the order as of now.
// Web hosting continues to the domain step, everything else to the service
// name step.
func (f *Flow) ChooseCycle(telegramID int64, cycleStr string) (*Session, error) {
	session := f.store.Get(telegramID)
	if session == nil {
		return nil, ErrNoSession
	}
	if session.Step != StepCycle {
		return nil, ErrWrongStep
	}

	cycle, ok := model.ParseBillingCycle(cycleStr)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCycle, cycleStr)
	}

	amount, err := model.CheckoutAmount(session.Package.Pricing, session.Package.Discount, cycle, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCycle, cycle)
	}

	session.Cycle = cycle
	session.Amount = amount
	if session.Package.Kind == model.KindWebHosting {
		session.Step = StepDomain
	} else {
		session.Step = StepServiceName
	}
	f.store.Put(session)
	return session, nil
}

// SetServiceName records the free-form label for a VPS or game server.
func (f *Flow) SetServiceName(telegramID int64, input string) (*Session, error) {
	session := f.store.Get(telegramID)
	if session == nil {
		return nil, ErrNoSession
	}
	if session.Step != StepServiceName {
		return nil, ErrWrongStep
	}

	name := strings.TrimSpace(input)
	if name == "" || len(name) > maxServiceNameLen {
		return nil, ErrInvalidName
	}

	session.ServiceName = name
	session.Step = StepPayment
	f.store.Put(session)
	return session, nil
}

// SetDomain records and validates the domain for a web hosting order. The
// domain doubles as the service name.
func (f *Flow) SetDomain(telegramID int64, input string) (*Session, error) {
	session := f.store.Get(telegramID)
	if session == nil {
		return nil, ErrNoSession
	}
	if session.Step != StepDomain {
		return nil, ErrWrongStep
	}

	domain := strings.ToLower(strings.TrimSpace(input))
	if !model.ValidDomain(domain) {
		return nil, ErrInvalidDomain
	}

	session.DomainName = domain
	session.ServiceName = domain
	session.Step = StepPayment
	f.store.Put(session)
	return session, nil
}

// AwaitsText reports whether the session is waiting for a typed reply, so
// the bot's text dispatcher knows to route free text here.
func (s *Session) AwaitsText() bool {
	return s != nil && (s.Step == StepServiceName || s.Step == StepDomain)
}

// ChoosePayment records the payment method and moves to confirmation.
func (f *Flow) ChoosePayment(telegramID int64, methodStr string) (*Session, error) {
	session := f.store.Get(telegramID)
	if session == nil {
		return nil, ErrNoSession
	}
	if session.Step != StepPayment {
		return nil, ErrWrongStep
	}

	method, ok := model.ParsePaymentMethod(methodStr)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, methodStr)
	}

	session.Method = method
	session.Step = StepConfirm
	f.store.Put(session)
	return session, nil
}

// Result is the outcome of a confirmed checkout.
type Result struct {
	Order *model.Order
	// Paid is true when the order was settled from balance in the same
	// confirmation. Other methods leave the order pending payment.
	Paid bool
}

// Confirm places the order. The package is re-read so availability and
// pricing are checked against the current catalog, not the snapshot shown
// during the conversation. Balance payments settle immediately; the
// session ends either way once the order exists.
func (f *Flow) Confirm(ctx context.Context, user *model.User) (*Result, error) {
	session := f.store.Get(user.TelegramID)
	if session == nil {
		return nil, ErrNoSession
	}
	if session.Step != StepConfirm {
		return nil, ErrWrongStep
	}

	pkg, err := f.catalog.GetAvailable(ctx, session.Package.Ref())
	if err != nil {
		f.store.Delete(user.TelegramID)
		return nil, err
	}

	order, err := f.orders.CreateOrder(ctx, user, pkg, session.Cycle, session.ServiceName, session.DomainName, session.Method)
	if err != nil {
		return nil, err
	}
	f.store.Delete(user.TelegramID)

	if session.Method != model.PayBalance {
		return &Result{Order: order}, nil
	}

	paid, err := f.orders.PayWithBalance(ctx, user.ID, order.ID)
	if err != nil {
		// The order exists but stayed pending; surface the payment error
		// together with the order so the customer can pay another way.
		return &Result{Order: order}, err
	}
	return &Result{Order: paid, Paid: true}, nil
}
