package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"hostingbot/internal/model"
	"hostingbot/internal/repository"
)

// Account service errors.
var (
	ErrUserHasActiveOrders = errors.New("user has active orders")
	ErrPasswordTooShort    = errors.New("password must be at least 6 characters")
	ErrInvalidTopupAmount  = errors.New("topup amount must be positive")
	ErrInvalidCredentials  = errors.New("invalid username or password")
)

// MinTopupAmount is the smallest accepted top-up in rupiah.
const MinTopupAmount = 10000

// AccountService handles customer accounts, balances and top-ups.
type AccountService struct {
	userRepo  *repository.UserRepository
	orderRepo *repository.OrderRepository
	txRepo    *repository.TransactionRepository
	topupRepo *repository.TopupRepository
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	userRepo *repository.UserRepository,
	orderRepo *repository.OrderRepository,
	txRepo *repository.TransactionRepository,
	topupRepo *repository.TopupRepository,
) *AccountService {
	return &AccountService{
		userRepo:  userRepo,
		orderRepo: orderRepo,
		txRepo:    txRepo,
		topupRepo: topupRepo,
	}
}

// EnsureUser ensures an account exists for the Telegram identity, creating
// one on first contact and keeping the profile fields current after that.
func (s *AccountService) EnsureUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, bool, error) {
	user, created, err := s.userRepo.GetOrCreate(ctx, telegramID, username, firstName, lastName)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user: %w", err)
	}

	if !created && (user.Username != username || user.FirstName != firstName || user.LastName != lastName) {
		if err := s.userRepo.UpdateProfile(ctx, user.ID, username, firstName, lastName); err != nil {
			log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to refresh profile")
		} else {
			user.Username, user.FirstName, user.LastName = username, firstName, lastName
		}
	}
	if err := s.userRepo.TouchActivity(ctx, user.ID); err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to touch activity")
	}

	return user, created, nil
}

// GetByTelegramID retrieves a user by their Telegram ID.
func (s *AccountService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

// GetByID retrieves a user by primary key.
func (s *AccountService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateContact stores the customer's email and phone.
func (s *AccountService) UpdateContact(ctx context.Context, userID int64, contact model.Contact) error {
	return s.userRepo.UpdateContact(ctx, userID, contact)
}

// Transactions lists a user's recent balance movements.
func (s *AccountService) Transactions(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	return s.txRepo.ListByUser(ctx, userID, limit)
}

// TopupHistory returns the user's top-up requests, newest first.
func (s *AccountService) TopupHistory(ctx context.Context, userID int64, limit int) ([]*model.TopupRequest, error) {
	return s.topupRepo.ListByUser(ctx, userID, limit)
}

// RequestTopup files a balance top-up with the attached transfer proof.
// Staff settle it later through ResolveTopup.
func (s *AccountService) RequestTopup(ctx context.Context, userID, amount int64, proofFileID string) (*model.TopupRequest, error) {
	if amount < MinTopupAmount {
		return nil, fmt.Errorf("%w: minimal %s", ErrInvalidTopupAmount, model.FormatRupiah(MinTopupAmount))
	}

	req := &model.TopupRequest{UserID: userID, Amount: amount, ProofFileID: proofFileID}
	if err := s.topupRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", userID).Int64("amount", amount).Msg("topup requested")
	return req, nil
}

// PendingTopups lists unresolved top-up requests for staff.
func (s *AccountService) PendingTopups(ctx context.Context) ([]*model.TopupRequest, error) {
	return s.topupRepo.ListPending(ctx)
}

// ResolveTopup approves or rejects a top-up. Approval credits the balance
// and records a ledger entry; rejection only closes the request.
func (s *AccountService) ResolveTopup(ctx context.Context, topupID int64, approve bool) (*model.TopupRequest, error) {
	req, err := s.topupRepo.GetByID(ctx, topupID)
	if err != nil {
		return nil, err
	}

	status := model.TopupRejected
	if approve {
		status = model.TopupApproved
	}
	if err := s.topupRepo.Resolve(ctx, topupID, status); err != nil {
		return nil, err
	}

	if approve {
		if _, err := s.userRepo.UpdateBalance(ctx, req.UserID, req.Amount); err != nil {
			return nil, fmt.Errorf("failed to credit balance: %w", err)
		}
		desc := "Top-up disetujui #" + strconv.FormatInt(req.ID, 10)
		if err := s.txRepo.Create(ctx, &model.Transaction{
			UserID:      req.UserID,
			Amount:      req.Amount,
			Type:        model.TxTypeTopup,
			Description: &desc,
		}); err != nil {
			log.Warn().Err(err).Int64("topup_id", req.ID).Msg("failed to record topup transaction")
		}
	}

	log.Info().
		Int64("topup_id", req.ID).
		Int64("user_id", req.UserID).
		Bool("approved", approve).
		Msg("topup resolved")
	req.Status = status
	return req, nil
}

// AdjustBalance applies a manual balance change from the admin panel and
// records it in the ledger.
func (s *AccountService) AdjustBalance(ctx context.Context, userID, amount int64, reason string) (*model.User, error) {
	user, err := s.userRepo.UpdateBalance(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	if err := s.txRepo.Create(ctx, &model.Transaction{
		UserID:      userID,
		Amount:      amount,
		Type:        model.TxTypeAdminAdjust,
		Description: &reason,
	}); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("failed to record balance adjustment")
	}
	return user, nil
}

// SetPassword stores a bcrypt hash for the admin panel login.
func (s *AccountService) SetPassword(ctx context.Context, userID int64, password string) error {
	if len(password) < 6 {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.SetPasswordHash(ctx, userID, string(hash))
}

// Authenticate checks panel credentials. Only admin accounts with a stored
// password hash can log in.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsAdmin || user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SetAdmin toggles the admin flag.
func (s *AccountService) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	return s.userRepo.SetAdmin(ctx, userID, isAdmin)
}

// Search lists users for the admin panel.
func (s *AccountService) Search(ctx context.Context, query string, limit, offset int) ([]*model.User, int, error) {
	return s.userRepo.Search(ctx, query, limit, offset)
}

// OrderStats returns a user's order history summary.
func (s *AccountService) OrderStats(ctx context.Context, userID int64) (*repository.UserStats, error) {
	return s.orderRepo.StatsByUser(ctx, userID)
}

// Counts returns the user totals for the dashboard.
func (s *AccountService) Counts(ctx context.Context) (total, admins int, err error) {
	return s.userRepo.Count(ctx)
}

// RecentUsers lists the newest registrations for the dashboard.
func (s *AccountService) RecentUsers(ctx context.Context, limit int) ([]*model.User, error) {
	return s.userRepo.Recent(ctx, limit)
}

// Delete removes a user unless they still have active orders.
func (s *AccountService) Delete(ctx context.Context, userID int64) error {
	active, err := s.orderRepo.CountActiveByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check user orders: %w", err)
	}
	if active > 0 {
		return fmt.Errorf("%w: %d active", ErrUserHasActiveOrders, active)
	}
	return s.userRepo.Delete(ctx, userID)
}
