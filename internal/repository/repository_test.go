// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"fmt"
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
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
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

	err = runTestMigrations(ctx, pool)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// runTestMigrations applies the database schema
func runTestMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			telegram_id BIGINT NOT NULL UNIQUE,
			username VARCHAR(255) NOT NULL DEFAULT '',
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			last_name VARCHAR(255) NOT NULL DEFAULT '',
			contact JSONB NOT NULL DEFAULT '{}',
			balance BIGINT NOT NULL DEFAULT 0,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			password_hash TEXT,
			last_activity TIMESTAMPTZ,
			registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS vps_packages (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			specifications JSONB NOT NULL DEFAULT '{}',
			features TEXT[] NOT NULL DEFAULT '{}',
			pricing JSONB NOT NULL DEFAULT '{}',
			discount JSONB,
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			sort_order INT NOT NULL DEFAULT 0,
			order_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS web_hosting_packages (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			specifications JSONB NOT NULL DEFAULT '{}',
			features TEXT[] NOT NULL DEFAULT '{}',
			pricing JSONB NOT NULL DEFAULT '{}',
			discount JSONB,
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			sort_order INT NOT NULL DEFAULT 0,
			order_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS game_hosting_packages (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			specifications JSONB NOT NULL DEFAULT '{}',
			features TEXT[] NOT NULL DEFAULT '{}',
			pricing JSONB NOT NULL DEFAULT '{}',
			discount JSONB,
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			sort_order INT NOT NULL DEFAULT 0,
			order_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			reference VARCHAR(32) NOT NULL UNIQUE,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			package_kind VARCHAR(32) NOT NULL,
			package_id BIGINT NOT NULL,
			service_name VARCHAR(255) NOT NULL DEFAULT '',
			domain_name VARCHAR(255) NOT NULL DEFAULT '',
			billing_cycle VARCHAR(16) NOT NULL,
			amount BIGINT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			payment_method VARCHAR(32) NOT NULL,
			payment_details JSONB,
			server_details JSONB,
			due_date TIMESTAMPTZ,
			start_date TIMESTAMPTZ,
			end_date TIMESTAMPTZ,
			renewal_reminder BOOLEAN NOT NULL DEFAULT TRUE,
			reminder_sent_at TIMESTAMPTZ,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key VARCHAR(255) PRIMARY KEY,
			value TEXT NOT NULL DEFAULT '',
			type VARCHAR(16) NOT NULL DEFAULT 'text',
			category VARCHAR(64) NOT NULL DEFAULT 'general',
			description TEXT NOT NULL DEFAULT '',
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS balance_transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS topup_requests (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			proof_file_id TEXT NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at TIMESTAMPTZ
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// UserRepository Tests
// ============================================================================

func TestUserRepository_Create(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, err := repo.Create(ctx, 12345, "budi", "Budi", "Santoso")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.TelegramID)
	assert.Equal(t, "budi", user.Username)
	assert.Equal(t, int64(0), user.Balance)
	assert.False(t, user.IsAdmin)
	assert.False(t, user.RegisteredAt.IsZero())
	assert.True(t, user.ID > 0)
}

func TestUserRepository_GetByTelegramID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, 12345, "budi", "Budi", "")
	require.NoError(t, err)

	user, err := repo.GetByTelegramID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = repo.GetByTelegramID(ctx, 99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GetOrCreate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, created, err := repo.GetOrCreate(ctx, 12345, "budi", "Budi", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(12345), user.TelegramID)

	user, created, err = repo.GetOrCreate(ctx, 12345, "budi", "Budi", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(12345), user.TelegramID)
}

func TestUserRepository_UpdateContact(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, err := repo.Create(ctx, 12345, "budi", "Budi", "")
	require.NoError(t, err)

	err = repo.UpdateContact(ctx, user.ID, model.Contact{Email: "budi@example.com", Phone: "08123456789"})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "budi@example.com", got.Contact.Email)
	assert.Equal(t, "08123456789", got.Contact.Phone)
}

func TestUserRepository_DeductIfSufficient(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, err := repo.Create(ctx, 12345, "budi", "Budi", "")
	require.NoError(t, err)

	_, err = repo.UpdateBalance(ctx, user.ID, 100000)
	require.NoError(t, err)

	// Covered deduction succeeds and returns the remainder
	remaining, err := repo.DeductIfSufficient(ctx, user.ID, 60000)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), remaining)

	// Short balance is rejected and the row stays untouched
	_, err = repo.DeductIfSufficient(ctx, user.ID, 50000)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), got.Balance)

	// Exact balance drains to zero
	remaining, err = repo.DeductIfSufficient(ctx, user.ID, 40000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)

	// Missing user
	_, err = repo.DeductIfSufficient(ctx, 99999, 100)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_Search(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, _ = repo.Create(ctx, 1, "budi", "Budi", "Santoso")
	_, _ = repo.Create(ctx, 2, "siti", "Siti", "Aminah")
	_, _ = repo.Create(ctx, 3, "agus", "Agus", "Budiman")

	users, total, err := repo.Search(ctx, "budi", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total) // username budi + last name Budiman
	assert.Len(t, users, 2)

	users, total, err = repo.Search(ctx, "2", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(2), users[0].TelegramID)

	_, total, err = repo.Search(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestUserRepository_SetPasswordHashAndAdmin(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, err := repo.Create(ctx, 12345, "budi", "Budi", "")
	require.NoError(t, err)
	assert.Nil(t, user.PasswordHash)

	require.NoError(t, repo.SetAdmin(ctx, user.ID, true))
	require.NoError(t, repo.SetPasswordHash(ctx, user.ID, "$2a$10$hash"))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, "$2a$10$hash", *got.PasswordHash)
}

// ============================================================================
// PackageRepository Tests
// ============================================================================

func testVpsPackage(name string, monthly int64) *model.Package {
	return &model.Package{
		Kind:        model.KindVPS,
		Name:        name,
		Description: "Paket VPS untuk development",
		Features:    []string{"Full root access", "IPv4 dedicated"},
		Pricing:     model.Pricing{Monthly: monthly, Quarterly: monthly * 3, Yearly: monthly * 10},
		IsAvailable: true,
		Vps: &model.VpsSpec{
			CPUCores:  2,
			RAMGB:     4,
			StorageGB: 80,
			OS: []model.OSOption{
				{Name: "Ubuntu", Version: "22.04"},
				{Name: "Debian", Version: "12"},
			},
		},
	}
}

func TestPackageRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPackageRepository(pool)
	ctx := context.Background()

	pkg := testVpsPackage("VPS Starter", 50000)
	require.NoError(t, repo.Create(ctx, pkg))
	assert.True(t, pkg.ID > 0)

	got, err := repo.Get(ctx, pkg.Ref())
	require.NoError(t, err)
	assert.Equal(t, "VPS Starter", got.Name)
	assert.Equal(t, model.KindVPS, got.Kind)
	require.NotNil(t, got.Vps)
	assert.Equal(t, 2, got.Vps.CPUCores)
	assert.Equal(t, int64(50000), got.Pricing.Monthly)
	assert.Nil(t, got.Discount)
	assert.Nil(t, got.Web)
	assert.Nil(t, got.Game)

	_, err = repo.Get(ctx, model.PackageRef{Kind: model.KindVPS, ID: 999})
	assert.ErrorIs(t, err, ErrPackageNotFound)

	_, err = repo.Get(ctx, model.PackageRef{Kind: "dedicated", ID: 1})
	assert.ErrorIs(t, err, model.ErrUnknownKind)
}

func TestPackageRepository_KindsAreSeparateTables(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPackageRepository(pool)
	ctx := context.Background()

	web := &model.Package{
		Kind:        model.KindWebHosting,
		Name:        "Hosting Personal",
		Pricing:     model.Pricing{Monthly: 25000},
		IsAvailable: true,
		Web:         &model.WebHostingSpec{StorageGB: 5, DomainsIncluded: 1, Databases: 5, EmailAccounts: 10},
	}
	game := &model.Package{
		Kind:        model.KindGameHosting,
		Name:        "Minecraft Basic",
		Pricing:     model.Pricing{Monthly: 75000},
		IsAvailable: true,
		Game:        &model.GameHostingSpec{Game: "Minecraft", Slots: 20, RAMGB: 4},
	}
	require.NoError(t, repo.Create(ctx, web))
	require.NoError(t, repo.Create(ctx, game))

	// Same numeric id can exist in both tables; the kind disambiguates
	gotWeb, err := repo.Get(ctx, web.Ref())
	require.NoError(t, err)
	require.NotNil(t, gotWeb.Web)
	assert.Equal(t, 5, gotWeb.Web.StorageGB)

	gotGame, err := repo.Get(ctx, game.Ref())
	require.NoError(t, err)
	require.NotNil(t, gotGame.Game)
	assert.Equal(t, "Minecraft", gotGame.Game.Game)
}

func TestPackageRepository_ListAvailable(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPackageRepository(pool)
	ctx := context.Background()

	first := testVpsPackage("VPS B", 100000)
	first.SortOrder = 2
	second := testVpsPackage("VPS A", 50000)
	second.SortOrder = 1
	hidden := testVpsPackage("VPS Hidden", 75000)
	hidden.IsAvailable = false

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, hidden))

	pkgs, err := repo.ListAvailable(ctx, model.KindVPS)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "VPS A", pkgs[0].Name) // sort_order ascending
	assert.Equal(t, "VPS B", pkgs[1].Name)

	all, err := repo.ListAll(ctx, model.KindVPS)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPackageRepository_UpdateAndDiscount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPackageRepository(pool)
	ctx := context.Background()

	pkg := testVpsPackage("VPS Starter", 50000)
	require.NoError(t, repo.Create(ctx, pkg))

	pkg.Pricing.Monthly = 60000
	pkg.Discount = &model.Discount{Percentage: 20, ValidUntil: time.Now().Add(48 * time.Hour)}
	require.NoError(t, repo.Update(ctx, pkg))

	got, err := repo.Get(ctx, pkg.Ref())
	require.NoError(t, err)
	assert.Equal(t, int64(60000), got.Pricing.Monthly)
	require.NotNil(t, got.Discount)
	assert.Equal(t, float64(20), got.Discount.Percentage)
}

func TestPackageRepository_IncrementOrderCount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPackageRepository(pool)
	ctx := context.Background()

	pkg := testVpsPackage("VPS Starter", 50000)
	require.NoError(t, repo.Create(ctx, pkg))

	require.NoError(t, repo.IncrementOrderCount(ctx, pkg.Ref()))
	require.NoError(t, repo.IncrementOrderCount(ctx, pkg.Ref()))

	got, err := repo.Get(ctx, pkg.Ref())
	require.NoError(t, err)
	assert.Equal(t, 2, got.OrderCount)
}

// ============================================================================
// OrderRepository Tests
// ============================================================================

func createTestUser(t *testing.T, pool *pgxpool.Pool, telegramID int64) *model.User {
	t.Helper()
	user, err := NewUserRepository(pool).Create(context.Background(), telegramID, "budi", "Budi", "")
	require.NoError(t, err)
	return user
}

func testOrder(userID int64, ref string) *model.Order {
	due := time.Now().Add(model.DueIn)
	return &model.Order{
		Reference:       ref,
		UserID:          userID,
		Package:         model.PackageRef{Kind: model.KindVPS, ID: 1},
		ServiceName:     "vps-budi",
		BillingCycle:    model.CycleMonthly,
		Amount:          50000,
		Status:          model.StatusPending,
		PaymentMethod:   model.PayBankTransfer,
		DueDate:         &due,
		RenewalReminder: true,
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool)
	ctx := context.Background()
	user := createTestUser(t, pool, 12345)

	order := testOrder(user.ID, "ORD-0001")
	require.NoError(t, repo.Create(ctx, order))
	assert.True(t, order.ID > 0)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-0001", got.Reference)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, model.KindVPS, got.Package.Kind)
	require.NotNil(t, got.DueDate)
	assert.Nil(t, got.StartDate)
	assert.Nil(t, got.PaymentDetails)

	_, err = repo.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderRepository_ListFiltered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool)
	ctx := context.Background()
	user := createTestUser(t, pool, 12345)

	first := testOrder(user.ID, "ORD-0001")
	require.NoError(t, repo.Create(ctx, first))
	second := testOrder(user.ID, "ORD-0002")
	second.Package.Kind = model.KindWebHosting
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.UpdateStatus(ctx, second.ID, model.StatusProcessing))

	orders, total, err := repo.ListFiltered(ctx, "", "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, orders, 2)

	orders, total, err = repo.ListFiltered(ctx, "processing", "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "ORD-0002", orders[0].Reference)

	orders, total, err = repo.ListFiltered(ctx, "", "vps", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "ORD-0001", orders[0].Reference)

	_, total, err = repo.ListFiltered(ctx, "completed", "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestOrderRepository_SetActivation(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool)
	ctx := context.Background()
	user := createTestUser(t, pool, 12345)

	order := testOrder(user.ID, "ORD-0001")
	require.NoError(t, repo.Create(ctx, order))

	start := time.Now()
	end := start.AddDate(0, 1, 0)
	require.NoError(t, repo.SetActivation(ctx, order.ID, start, end))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.StartDate)
	require.NotNil(t, got.EndDate)
	assert.WithinDuration(t, end, *got.EndDate, time.Second)
}

func TestOrderRepository_AppendNote(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool)
	ctx := context.Background()
	user := createTestUser(t, pool, 12345)

	order := testOrder(user.ID, "ORD-0001")
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.AppendNote(ctx, order.ID, "pembayaran dikonfirmasi"))
	require.NoError(t, repo.AppendNote(ctx, order.ID, "server disiapkan"))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pembayaran dikonfirmasi\nserver disiapkan", got.Notes)
}

func TestOrderRepository_PaymentAndServerDetails(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool)
	ctx := context.Background()
	user := createTestUser(t, pool, 12345)

	order := testOrder(user.ID, "ORD-0001")
	require.NoError(t, repo.Create(ctx, order))

	paidAt := time.Now()
	details := &model.PaymentDetails{TransactionID: "TX-1", PaidAmount: 50000, PaidAt: &paidAt}
	require.NoError(t, repo.SetPaymentDetails(ctx, order.ID, details, model.StatusProcessing))

	require.NoError(t, repo.SetServerDetails(ctx, order.ID, &model.ServerDetails{
		Hostname:  "vps1.example.net",
		IPAddress: "203.0.113.10",
		Username:  "root",
	}))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, got.Status)
	require.NotNil(t, got.PaymentDetails)
	assert.Equal(t, "TX-1", got.PaymentDetails.TransactionID)
	require.NotNil(t, got.ServerDetails)
	assert.Equal(t, "203.0.113.10", got.ServerDetails.IPAddress)
}

func TestOrderRepository_CountActive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool)
	ctx := context.Background()
	user := createTestUser(t, pool, 12345)

	pending := testOrder(user.ID, "ORD-0001")
	require.NoError(t, repo.Create(ctx, pending))

	running := testOrder(user.ID, "ORD-0002")
	require.NoError(t, repo.Create(ctx, running))
	require.NoError(t, repo.SetActivation(ctx, running.ID, time.Now(), time.Now().AddDate(0, 1, 0)))

	lapsed := testOrder(user.ID, "ORD-0003")
	require.NoError(t, repo.Create(ctx, lapsed))
	require.NoError(t, repo.SetActivation(ctx, lapsed.ID, time.Now().AddDate(0, -2, 0), time.Now().AddDate(0, -1, 0)))

	cancelled := testOrder(user.ID, "ORD-0004")
	require.NoError(t, repo.Create(ctx, cancelled))
	require.NoError(t, repo.UpdateStatus(ctx, cancelled.ID, model.StatusCancelled))

	// pending + still running count; lapsed and cancelled do not
	count, err := repo.CountActiveByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountActiveByPackage(ctx, model.PackageRef{Kind: model.KindVPS, ID: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountActiveByPackage(ctx, model.PackageRef{Kind: model.KindWebHosting, ID: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestOrderRepository_Stats(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool)
	ctx := context.Background()
	user := createTestUser(t, pool, 12345)

	pending := testOrder(user.ID, "ORD-0001")
	require.NoError(t, repo.Create(ctx, pending))

	done := testOrder(user.ID, "ORD-0002")
	done.Amount = 120000
	require.NoError(t, repo.Create(ctx, done))
	require.NoError(t, repo.SetActivation(ctx, done.ID, time.Now(), time.Now().AddDate(0, 1, 0)))

	stats, err := repo.Stats(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 1, stats.PendingOrders)
	assert.Equal(t, 1, stats.CompletedOrders)
	assert.Equal(t, int64(120000), stats.Revenue)
	assert.Equal(t, 2, stats.OrdersThisMonth)
	assert.Equal(t, int64(120000), stats.RevenueThisMonth)

	userStats, err := repo.StatsByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, userStats.TotalOrders)
	assert.Equal(t, int64(120000), userStats.TotalSpent)
	assert.Equal(t, 1, userStats.ActiveOrders)
}

func TestOrderRepository_DueForReminder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool)
	ctx := context.Background()
	user := createTestUser(t, pool, 12345)

	soon := testOrder(user.ID, "ORD-0001")
	require.NoError(t, repo.Create(ctx, soon))
	require.NoError(t, repo.SetActivation(ctx, soon.ID, time.Now().AddDate(0, -1, 0), time.Now().Add(48*time.Hour)))

	far := testOrder(user.ID, "ORD-0002")
	require.NoError(t, repo.Create(ctx, far))
	require.NoError(t, repo.SetActivation(ctx, far.ID, time.Now(), time.Now().AddDate(0, 1, 0)))

	candidates, err := repo.DueForReminder(ctx, 72*time.Hour)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "ORD-0001", candidates[0].Order.Reference)
	assert.Equal(t, int64(12345), candidates[0].TelegramID)

	// Marked orders drop out of the next sweep
	require.NoError(t, repo.MarkReminded(ctx, soon.ID))
	candidates, err = repo.DueForReminder(ctx, 72*time.Hour)
	require.NoError(t, err)
	assert.Len(t, candidates, 0)
}

// ============================================================================
// SettingRepository Tests
// ============================================================================

func TestSettingRepository_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSettingRepository(pool)
	ctx := context.Background()

	s := &model.Setting{
		Key:      "SITE_NAME",
		Value:    "HostingKu",
		Type:     model.SettingText,
		Category: "general",
		IsPublic: true,
	}
	require.NoError(t, repo.Upsert(ctx, s))

	got, err := repo.Get(ctx, "SITE_NAME")
	require.NoError(t, err)
	assert.Equal(t, "HostingKu", got.Value)

	s.Value = "HostingKita"
	require.NoError(t, repo.Upsert(ctx, s))

	got, err = repo.Get(ctx, "SITE_NAME")
	require.NoError(t, err)
	assert.Equal(t, "HostingKita", got.Value)

	_, err = repo.Get(ctx, "MISSING")
	assert.ErrorIs(t, err, ErrSettingNotFound)
}

func TestSettingRepository_InsertMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSettingRepository(pool)
	ctx := context.Background()

	s := &model.Setting{Key: "SITE_NAME", Value: "HostingKu", Type: model.SettingText, Category: "general"}
	require.NoError(t, repo.Upsert(ctx, s))

	// Seeding must not clobber the operator's value
	seed := &model.Setting{Key: "SITE_NAME", Value: "Default", Type: model.SettingText, Category: "general"}
	require.NoError(t, repo.InsertMissing(ctx, seed))

	got, err := repo.Get(ctx, "SITE_NAME")
	require.NoError(t, err)
	assert.Equal(t, "HostingKu", got.Value)
}

func TestSettingRepository_ListAndDelete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSettingRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.Setting{Key: "B_KEY", Type: model.SettingText, Category: "general"}))
	require.NoError(t, repo.Upsert(ctx, &model.Setting{Key: "A_KEY", Type: model.SettingText, Category: "bot"}))

	settings, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "A_KEY", settings[0].Key) // category "bot" sorts first

	require.NoError(t, repo.Delete(ctx, "A_KEY"))
	assert.ErrorIs(t, repo.Delete(ctx, "A_KEY"), ErrSettingNotFound)
}

// ============================================================================
// TransactionRepository Tests
// ============================================================================

func TestTransactionRepository_CreateAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewTransactionRepository(pool)
	ctx := context.Background()
	user := createTestUser(t, pool, 12345)

	desc := "top-up disetujui"
	tx := &model.Transaction{UserID: user.ID, Amount: 100000, Type: model.TxTypeTopup, Description: &desc}
	require.NoError(t, repo.Create(ctx, tx))
	assert.True(t, tx.ID > 0)

	require.NoError(t, repo.Create(ctx, &model.Transaction{UserID: user.ID, Amount: -50000, Type: model.TxTypeOrderPayment}))

	txs, err := repo.ListByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(-50000), txs[0].Amount) // newest first
	assert.Equal(t, model.TxTypeOrderPayment, txs[0].Type)
}

// ============================================================================
// TopupRepository Tests
// ============================================================================

func TestTopupRepository_CreateAndResolve(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewTopupRepository(pool)
	ctx := context.Background()
	user := createTestUser(t, pool, 12345)

	req := &model.TopupRequest{UserID: user.ID, Amount: 100000, ProofFileID: "file-abc"}
	require.NoError(t, repo.Create(ctx, req))
	assert.Equal(t, model.TopupPending, req.Status)

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.Resolve(ctx, req.ID, model.TopupApproved))

	got, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TopupApproved, got.Status)
	assert.NotNil(t, got.ResolvedAt)

	// Second resolution is refused
	err = repo.Resolve(ctx, req.ID, model.TopupRejected)
	assert.ErrorIs(t, err, ErrTopupResolved)

	err = repo.Resolve(ctx, 99999, model.TopupApproved)
	assert.ErrorIs(t, err, ErrTopupNotFound)

	pending, err = repo.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 0)
}

func TestTopupRepository_ListByUser(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewTopupRepository(pool)
	ctx := context.Background()
	user := createTestUser(t, pool, 12345)
	other := createTestUser(t, pool, 67890)

	for i, amount := range []int64{50000, 75000, 100000} {
		req := &model.TopupRequest{UserID: user.ID, Amount: amount, ProofFileID: fmt.Sprintf("file-%d", i)}
		require.NoError(t, repo.Create(ctx, req))
	}
	require.NoError(t, repo.Create(ctx, &model.TopupRequest{UserID: other.ID, Amount: 25000, ProofFileID: "file-x"}))

	got, err := repo.ListByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, req := range got {
		assert.Equal(t, user.ID, req.UserID)
	}

	// Limit caps the result set
	got, err = repo.ListByUser(ctx, user.ID, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
