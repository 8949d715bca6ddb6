package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// migrations is the full schema, applied in order. Statements are
// idempotent so both binaries can run them at startup.
var migrations = []struct {
	name string
	stmt string
}{
	{
		name: "users table",
		stmt: `CREATE TABLE IF NOT EXISTS users (
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
		);
		CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);`,
	},
	{
		name: "vps_packages table",
		stmt: `CREATE TABLE IF NOT EXISTS vps_packages (
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
		);`,
	},
	{
		name: "web_hosting_packages table",
		stmt: `CREATE TABLE IF NOT EXISTS web_hosting_packages (
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
		);`,
	},
	{
		name: "game_hosting_packages table",
		stmt: `CREATE TABLE IF NOT EXISTS game_hosting_packages (
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
		);`,
	},
	{
		name: "orders table",
		stmt: `CREATE TABLE IF NOT EXISTS orders (
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
		);
		CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
		CREATE INDEX IF NOT EXISTS idx_orders_end_date ON orders(end_date) WHERE end_date IS NOT NULL;`,
	},
	{
		name: "settings table",
		stmt: `CREATE TABLE IF NOT EXISTS settings (
			key VARCHAR(255) PRIMARY KEY,
			value TEXT NOT NULL DEFAULT '',
			type VARCHAR(16) NOT NULL DEFAULT 'text',
			category VARCHAR(64) NOT NULL DEFAULT 'general',
			description TEXT NOT NULL DEFAULT '',
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
	},
	{
		name: "balance_transactions table",
		stmt: `CREATE TABLE IF NOT EXISTS balance_transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_balance_transactions_user ON balance_transactions(user_id, created_at DESC);`,
	},
	{
		name: "topup_requests table",
		stmt: `CREATE TABLE IF NOT EXISTS topup_requests (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			proof_file_id TEXT NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_topup_requests_status ON topup_requests(status, created_at);`,
	},
}

// Migrate applies the schema to the connected database.
func (p *Pool) Migrate(ctx context.Context) error {
	log.Info().Msg("Running database migrations...")

	for _, m := range migrations {
		if _, err := p.Exec(ctx, m.stmt); err != nil {
			return fmt.Errorf("migration %q failed: %w", m.name, err)
		}
		log.Debug().Str("migration", m.name).Msg("migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
