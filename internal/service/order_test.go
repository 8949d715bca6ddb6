package service

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"hostingbot/internal/model"
	"hostingbot/internal/pkg/db"
	"hostingbot/internal/pkg/lock"
	"hostingbot/internal/repository"
)

func dockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	return cmd.Run() == nil
}

// setupOrderService spins up a PostgreSQL container and wires a full
// OrderService over it. Skips when Docker is not available.
func setupOrderService(t *testing.T) (*OrderService, *repository.UserRepository, *repository.OrderRepository, *repository.TransactionRepository, func()) {
	if !dockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, (&db.Pool{Pool: pool}).Migrate(ctx))

	userRepo := repository.NewUserRepository(pool)
	pkgRepo := repository.NewPackageRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	txRepo := repository.NewTransactionRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	settings := NewSettingsService(settingRepo, time.Minute)
	svc := NewOrderService(orderRepo, userRepo, pkgRepo, txRepo, settings, lock.NewUserLock())

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return svc, userRepo, orderRepo, txRepo, cleanup
}

func seedPendingOrder(t *testing.T, orderRepo *repository.OrderRepository, userID, amount int64) *model.Order {
	t.Helper()
	order := &model.Order{
		Reference:     "ORD-TEST" + time.Now().Format("150405"),
		UserID:        userID,
		Package:       model.PackageRef{Kind: model.KindVPS, ID: 1},
		ServiceName:   "server-uji",
		BillingCycle:  model.CycleMonthly,
		Amount:        amount,
		Status:        model.StatusPending,
		PaymentMethod: model.PayBalance,
	}
	require.NoError(t, orderRepo.Create(context.Background(), order))
	return order
}

func TestPayWithBalance_Settles(t *testing.T) {
	svc, userRepo, orderRepo, _, cleanup := setupOrderService(t)
	defer cleanup()
	ctx := context.Background()

	user, err := userRepo.Create(ctx, 700100, "budi", "Budi", "")
	require.NoError(t, err)
	_, err = userRepo.UpdateBalance(ctx, user.ID, 100000)
	require.NoError(t, err)

	order := seedPendingOrder(t, orderRepo, user.ID, 50000)

	paid, err := svc.PayWithBalance(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, paid.Status)
	require.NotNil(t, paid.PaymentDetails)
	assert.Equal(t, int64(50000), paid.PaymentDetails.PaidAmount)

	after, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), after.Balance)
}

func TestPayWithBalance_InsufficientLeavesOrderUntouched(t *testing.T) {
	svc, userRepo, orderRepo, _, cleanup := setupOrderService(t)
	defer cleanup()
	ctx := context.Background()

	user, err := userRepo.Create(ctx, 700200, "siti", "Siti", "")
	require.NoError(t, err)
	_, err = userRepo.UpdateBalance(ctx, user.ID, 30000)
	require.NoError(t, err)

	order := seedPendingOrder(t, orderRepo, user.ID, 50000)

	_, err = svc.PayWithBalance(ctx, user.ID, order.ID)
	assert.ErrorIs(t, err, repository.ErrInsufficientBalance)

	after, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), after.Balance)

	unchanged, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, unchanged.Status)
}

func TestRefundDeduction_RestoresBalanceAndRecordsLedger(t *testing.T) {
	svc, userRepo, orderRepo, txRepo, cleanup := setupOrderService(t)
	defer cleanup()
	ctx := context.Background()

	user, err := userRepo.Create(ctx, 700300, "andi", "Andi", "")
	require.NoError(t, err)
	_, err = userRepo.UpdateBalance(ctx, user.ID, 80000)
	require.NoError(t, err)

	order := seedPendingOrder(t, orderRepo, user.ID, 50000)

	remaining, err := userRepo.DeductIfSufficient(ctx, user.ID, order.Amount)
	require.NoError(t, err)
	require.Equal(t, int64(30000), remaining)

	svc.refundDeduction(ctx, user.ID, order)

	after, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(80000), after.Balance)

	txs, err := txRepo.ListByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, model.TxTypeRefund, txs[0].Type)
	assert.Equal(t, order.Amount, txs[0].Amount)
	require.NotNil(t, txs[0].Description)
	assert.Contains(t, *txs[0].Description, order.Reference)
}
