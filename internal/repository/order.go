package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hostingbot/internal/model"
)

// ErrOrderNotFound is returned when an order lookup misses.
var ErrOrderNotFound = errors.New("order not found")

const orderColumns = `id, reference, user_id, package_kind, package_id,
	service_name, domain_name, billing_cycle, amount, status, payment_method,
	payment_details, server_details, due_date, start_date, end_date,
	renewal_reminder, notes, created_at, updated_at`

// OrderRepository handles order persistence.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository instance.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.Reference,
		&o.UserID,
		&o.Package.Kind,
		&o.Package.ID,
		&o.ServiceName,
		&o.DomainName,
		&o.BillingCycle,
		&o.Amount,
		&o.Status,
		&o.PaymentMethod,
		&o.PaymentDetails,
		&o.ServerDetails,
		&o.DueDate,
		&o.StartDate,
		&o.EndDate,
		&o.RenewalReminder,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Create inserts a new order and fills in the generated id and timestamps.
func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	query := `
		INSERT INTO orders (reference, user_id, package_kind, package_id,
			service_name, domain_name, billing_cycle, amount, status,
			payment_method, payment_details, server_details, due_date,
			renewal_reminder, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		o.Reference, o.UserID, o.Package.Kind, o.Package.ID,
		o.ServiceName, o.DomainName, o.BillingCycle, o.Amount, o.Status,
		o.PaymentMethod, o.PaymentDetails, o.ServerDetails, o.DueDate,
		o.RenewalReminder, o.Notes,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves one order.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

// ListByUser lists a user's most recent orders.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	return r.list(ctx, query, userID, limit)
}

// ListFiltered lists orders for the admin panel, optionally filtered by
// status and package kind, newest first, with the matching total.
func (r *OrderRepository) ListFiltered(ctx context.Context, status, kind string, limit, offset int) ([]*model.Order, int, error) {
	const countQuery = `
		SELECT COUNT(*) FROM orders
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR package_kind = $2)
	`
	listQuery := `
		SELECT ` + orderColumns + ` FROM orders
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR package_kind = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, status, kind).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	orders, err := r.list(ctx, listQuery, status, kind, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Recent lists the newest orders for the dashboard.
func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1`
	return r.list(ctx, query, limit)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]*model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus writes a new status. Transition legality is the service
// layer's job; this is a plain write.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	const query = `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// SetActivation stamps the service window together with the completed
// status, in one statement so the two cannot diverge.
func (r *OrderRepository) SetActivation(ctx context.Context, id int64, start, end time.Time) error {
	const query = `
		UPDATE orders
		SET status = $2, start_date = $3, end_date = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, model.StatusCompleted, start, end)
	if err != nil {
		return fmt.Errorf("failed to set activation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// AppendNote appends one line to the order's free-text note log.
func (r *OrderRepository) AppendNote(ctx context.Context, id int64, note string) error {
	const query = `
		UPDATE orders
		SET notes = CASE WHEN notes = '' THEN $2 ELSE notes || E'\n' || $2 END,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, note)
	if err != nil {
		return fmt.Errorf("failed to append note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// SetPaymentDetails stores the payment blob together with a status change
// (pending settlement bookkeeping is a single write).
func (r *OrderRepository) SetPaymentDetails(ctx context.Context, id int64, details *model.PaymentDetails, status model.OrderStatus) error {
	const query = `
		UPDATE orders SET payment_details = $2, status = $3, updated_at = NOW() WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, details, status)
	if err != nil {
		return fmt.Errorf("failed to set payment details: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// SetServerDetails stores the provisioning blob.
func (r *OrderRepository) SetServerDetails(ctx context.Context, id int64, details *model.ServerDetails) error {
	const query = `UPDATE orders SET server_details = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, details)
	if err != nil {
		return fmt.Errorf("failed to set server details: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// activeWhere matches orders that block deletion of their user or package:
// awaiting payment, being provisioned, or completed and still running.
const activeWhere = `(status IN ('pending', 'processing')
	OR (status = 'completed' AND end_date IS NOT NULL AND end_date >= NOW()))`

// CountActiveByUser counts a user's orders in an active state.
func (r *OrderRepository) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE user_id = $1 AND ` + activeWhere

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active orders: %w", err)
	}
	return count, nil
}

// CountActiveByPackage counts active orders referencing a package.
func (r *OrderRepository) CountActiveByPackage(ctx context.Context, ref model.PackageRef) (int, error) {
	query := `SELECT COUNT(*) FROM orders
		WHERE package_kind = $1 AND package_id = $2 AND ` + activeWhere

	var count int
	if err := r.pool.QueryRow(ctx, query, ref.Kind, ref.ID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active orders: %w", err)
	}
	return count, nil
}

// UserStats summarizes a user's order history for the admin panel.
type UserStats struct {
	TotalOrders  int
	TotalSpent   int64
	ActiveOrders int
}

// StatsByUser computes order statistics for one user.
func (r *OrderRepository) StatsByUser(ctx context.Context, userID int64) (*UserStats, error) {
	const query = `
		SELECT COUNT(*),
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0),
			COUNT(*) FILTER (WHERE status = 'completed' AND end_date >= NOW())
		FROM orders WHERE user_id = $1
	`

	var s UserStats
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&s.TotalOrders, &s.TotalSpent, &s.ActiveOrders); err != nil {
		return nil, fmt.Errorf("failed to compute user stats: %w", err)
	}
	return &s, nil
}

// GlobalStats summarizes the order book for the dashboard.
type GlobalStats struct {
	TotalOrders      int
	PendingOrders    int
	CompletedOrders  int
	Revenue          int64
	OrdersThisMonth  int
	RevenueThisMonth int64
}

// Stats computes dashboard totals; month boundaries use the given instant.
func (r *OrderRepository) Stats(ctx context.Context, now time.Time) (*GlobalStats, error) {
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	const query = `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed' AND created_at >= $1), 0)
		FROM orders
	`

	var s GlobalStats
	err := r.pool.QueryRow(ctx, query, startOfMonth).Scan(
		&s.TotalOrders, &s.PendingOrders, &s.CompletedOrders,
		&s.Revenue, &s.OrdersThisMonth, &s.RevenueThisMonth,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute order stats: %w", err)
	}
	return &s, nil
}

// ReminderCandidate is one completed order whose service window ends soon.
type ReminderCandidate struct {
	Order      *model.Order
	TelegramID int64
}

// DueForReminder lists completed orders with the reminder flag set whose
// end date falls within the window and that have not been reminded yet.
func (r *OrderRepository) DueForReminder(ctx context.Context, window time.Duration) ([]*ReminderCandidate, error) {
	query := `
		SELECT ` + qualify(orderColumns, "o") + `, u.telegram_id
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.status = 'completed'
		  AND o.renewal_reminder
		  AND o.reminder_sent_at IS NULL
		  AND o.end_date IS NOT NULL
		  AND o.end_date BETWEEN NOW() AND NOW() + $1
		ORDER BY o.end_date
	`

	rows, err := r.pool.Query(ctx, query, window)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*ReminderCandidate
	for rows.Next() {
		var o model.Order
		var telegramID int64
		err := rows.Scan(
			&o.ID, &o.Reference, &o.UserID, &o.Package.Kind, &o.Package.ID,
			&o.ServiceName, &o.DomainName, &o.BillingCycle, &o.Amount, &o.Status,
			&o.PaymentMethod, &o.PaymentDetails, &o.ServerDetails, &o.DueDate,
			&o.StartDate, &o.EndDate, &o.RenewalReminder, &o.Notes,
			&o.CreatedAt, &o.UpdatedAt, &telegramID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder candidate: %w", err)
		}
		candidates = append(candidates, &ReminderCandidate{Order: &o, TelegramID: telegramID})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder candidates: %w", err)
	}
	return candidates, nil
}

// MarkReminded records that the renewal reminder went out.
func (r *OrderRepository) MarkReminded(ctx context.Context, id int64) error {
	const query = `UPDATE orders SET reminder_sent_at = NOW(), updated_at = NOW() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark order reminded: %w", err)
	}
	return nil
}

// Delete removes an order.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM orders WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// qualify prefixes every column in a comma-separated list with an alias.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
