package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hostingbot/internal/model"
	"hostingbot/internal/pkg/lock"
	"hostingbot/internal/repository"
)

// Order service errors.
var (
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrNotOrderOwner     = errors.New("order belongs to another user")
	ErrOrderNotPending   = errors.New("order is no longer pending")
	ErrMaintenanceMode   = errors.New("store is in maintenance mode")
)

// OrderService owns the order lifecycle. Every status change funnels
// through transition, so the legality check and the completion date stamp
// cannot be bypassed from any call path.
type OrderService struct {
	orderRepo *repository.OrderRepository
	userRepo  *repository.UserRepository
	pkgRepo   *repository.PackageRepository
	txRepo    *repository.TransactionRepository
	settings  *SettingsService
	userLock  *lock.UserLock
}

// NewOrderService creates a new OrderService instance.
func NewOrderService(
	orderRepo *repository.OrderRepository,
	userRepo *repository.UserRepository,
	pkgRepo *repository.PackageRepository,
	txRepo *repository.TransactionRepository,
	settings *SettingsService,
	userLock *lock.UserLock,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		pkgRepo:   pkgRepo,
		txRepo:    txRepo,
		settings:  settings,
		userLock:  userLock,
	}
}

// newReference builds a short human-quotable order reference.
func newReference() string {
	id := uuid.New()
	return "ORD-" + strings.ToUpper(id.String()[:8])
}

// CreateOrder places a pending order for a package. The amount is computed
// here from the package pricing and its discount as of now, and the
// customer gets 24 hours to pay.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	user *model.User,
	pkg *model.Package,
	cycle model.BillingCycle,
	serviceName, domainName string,
	method model.PaymentMethod,
) (*model.Order, error) {
	if s.settings.GetBool(ctx, "MAINTENANCE_MODE", false) {
		return nil, ErrMaintenanceMode
	}

	now := time.Now()
	amount, err := model.CheckoutAmount(pkg.Pricing, pkg.Discount, cycle, now)
	if err != nil {
		return nil, err
	}

	due := now.Add(model.DueIn)
	order := &model.Order{
		Reference:       newReference(),
		UserID:          user.ID,
		Package:         pkg.Ref(),
		ServiceName:     serviceName,
		DomainName:      domainName,
		BillingCycle:    cycle,
		Amount:          amount,
		Status:          model.StatusPending,
		PaymentMethod:   method,
		DueDate:         &due,
		RenewalReminder: true,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	if err := s.pkgRepo.IncrementOrderCount(ctx, pkg.Ref()); err != nil {
		// The order already exists; losing one popularity tick is fine.
		log.Warn().Err(err).Str("reference", order.Reference).Msg("failed to bump package order count")
	}

	log.Info().
		Str("reference", order.Reference).
		Int64("user_id", user.ID).
		Str("package", pkg.Name).
		Int64("amount", amount).
		Msg("order created")
	return order, nil
}

// PayWithBalance settles a pending order from the user's account balance.
// The per-user lock serializes concurrent checkouts from the same user and
// the deduction itself is conditional at the SQL level, so the balance can
// never go negative. If any step after the deduction fails, the money is
// put back.
func (s *OrderService) PayWithBalance(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	if order.Status != model.StatusPending {
		return nil, ErrOrderNotPending
	}

	remaining, err := s.userRepo.DeductIfSufficient(ctx, userID, order.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	details := &model.PaymentDetails{
		TransactionID: "BAL-" + order.Reference,
		PaidAmount:    order.Amount,
		PaidAt:        &now,
	}
	if err := s.orderRepo.SetPaymentDetails(ctx, orderID, details, model.StatusProcessing); err != nil {
		// The deduction went through but the order did not advance.
		s.refundDeduction(ctx, userID, order)
		return nil, fmt.Errorf("failed to settle order: %w", err)
	}

	desc := "Pembayaran pesanan " + order.Reference
	if err := s.txRepo.Create(ctx, &model.Transaction{
		UserID:      userID,
		Amount:      -order.Amount,
		Type:        model.TxTypeOrderPayment,
		Description: &desc,
	}); err != nil {
		log.Warn().Err(err).Str("reference", order.Reference).Msg("failed to record payment transaction")
	}

	log.Info().
		Str("reference", order.Reference).
		Int64("remaining_balance", remaining).
		Msg("order paid from balance")
	return s.orderRepo.GetByID(ctx, orderID)
}

// refundDeduction puts a deducted amount back on the balance and records
// the reversal in the ledger. Called while the user lock is held.
func (s *OrderService) refundDeduction(ctx context.Context, userID int64, order *model.Order) {
	if _, err := s.userRepo.UpdateBalance(ctx, userID, order.Amount); err != nil {
		log.Error().Err(err).
			Int64("user_id", userID).
			Int64("amount", order.Amount).
			Msg("refund after failed settlement also failed")
		return
	}
	desc := "Pengembalian dana pesanan " + order.Reference
	if err := s.txRepo.Create(ctx, &model.Transaction{
		UserID:      userID,
		Amount:      order.Amount,
		Type:        model.TxTypeRefund,
		Description: &desc,
	}); err != nil {
		log.Warn().Err(err).Str("reference", order.Reference).Msg("failed to record refund transaction")
	}
}

// AttachPaymentProof stores a transfer proof photo and moves the order to
// processing for staff review.
func (s *OrderService) AttachPaymentProof(ctx context.Context, userID, orderID int64, fileID string) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	if order.Status != model.StatusPending {
		return nil, ErrOrderNotPending
	}

	details := order.PaymentDetails
	if details == nil {
		details = &model.PaymentDetails{}
	}
	details.ProofFileID = fileID
	if err := s.orderRepo.SetPaymentDetails(ctx, orderID, details, model.StatusProcessing); err != nil {
		return nil, err
	}
	if err := s.orderRepo.AppendNote(ctx, orderID, "Bukti pembayaran diterima"); err != nil {
		log.Warn().Err(err).Int64("order_id", orderID).Msg("failed to append payment note")
	}
	return s.orderRepo.GetByID(ctx, orderID)
}

// Cancel lets the customer withdraw an order that has not been paid yet.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	if order.Status != model.StatusPending {
		return nil, ErrOrderNotPending
	}
	return s.transition(ctx, order, model.StatusCancelled, "Dibatalkan oleh pelanggan")
}

// UpdateStatus moves an order to a new status on behalf of staff.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, to model.OrderStatus, note string) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, to, note)
}

// AttachServerDetails stores the provisioning credentials. When the order
// is still being processed, handing over the server also completes it.
func (s *OrderService) AttachServerDetails(ctx context.Context, orderID int64, details *model.ServerDetails) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.SetServerDetails(ctx, orderID, details); err != nil {
		return nil, err
	}
	if order.Status == model.StatusProcessing {
		return s.transition(ctx, order, model.StatusCompleted, "Server diserahkan ke pelanggan")
	}
	return s.orderRepo.GetByID(ctx, orderID)
}

// transition is the single place an order changes status. Completion stamps
// the service window derived from the billing cycle; everything else is a
// bare status write. Both paths record the note.
func (s *OrderService) transition(ctx context.Context, order *model.Order, to model.OrderStatus, note string) (*model.Order, error) {
	if !model.CanTransition(order.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, to)
	}

	if to == model.StatusCompleted {
		start, end := model.ActivationPeriod(order.BillingCycle, time.Now())
		if err := s.orderRepo.SetActivation(ctx, order.ID, start, end); err != nil {
			return nil, err
		}
	} else {
		if err := s.orderRepo.UpdateStatus(ctx, order.ID, to); err != nil {
			return nil, err
		}
	}

	if note != "" {
		if err := s.orderRepo.AppendNote(ctx, order.ID, note); err != nil {
			log.Warn().Err(err).Int64("order_id", order.ID).Msg("failed to append status note")
		}
	}

	log.Info().
		Str("reference", order.Reference).
		Str("from", string(order.Status)).
		Str("to", string(to)).
		Msg("order status changed")
	return s.orderRepo.GetByID(ctx, order.ID)
}

// GetByID retrieves one order.
func (s *OrderService) GetByID(ctx context.Context, orderID int64) (*model.Order, error) {
	return s.orderRepo.GetByID(ctx, orderID)
}

// ListByUser lists a customer's recent orders.
func (s *OrderService) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID, limit)
}

// ListFiltered lists orders for the admin panel.
func (s *OrderService) ListFiltered(ctx context.Context, status, kind string, limit, offset int) ([]*model.Order, int, error) {
	return s.orderRepo.ListFiltered(ctx, status, kind, limit, offset)
}

// Delete removes an order record entirely. Admin only.
func (s *OrderService) Delete(ctx context.Context, orderID int64) error {
	return s.orderRepo.Delete(ctx, orderID)
}

// Stats returns the dashboard totals.
func (s *OrderService) Stats(ctx context.Context) (*repository.GlobalStats, error) {
	return s.orderRepo.Stats(ctx, time.Now())
}

// Recent lists the newest orders for the dashboard.
func (s *OrderService) Recent(ctx context.Context, limit int) ([]*model.Order, error) {
	return s.orderRepo.Recent(ctx, limit)
}
