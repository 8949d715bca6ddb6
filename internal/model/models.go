// Package model defines the data models for the hosting storefront.
package model

import "time"

// Contact holds a user's contact details, stored as JSONB.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// User represents a customer (or admin) account.
// Balance is stored in whole rupiah.
type User struct {
	ID           int64      `db:"id"`
	TelegramID   int64      `db:"telegram_id"`
	Username     string     `db:"username"`
	FirstName    string     `db:"first_name"`
	LastName     string     `db:"last_name"`
	Contact      Contact    `db:"contact"`
	Balance      int64      `db:"balance"`
	IsAdmin      bool       `db:"is_admin"`
	PasswordHash *string    `db:"password_hash"`
	LastActivity *time.Time `db:"last_activity"`
	RegisteredAt time.Time  `db:"registered_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// DisplayName returns the best available human-readable name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return "Pengguna"
	}
	return name
}

// SettingType tags how a setting value is coerced on read.
type SettingType string

const (
	SettingText     SettingType = "text"
	SettingNumber   SettingType = "number"
	SettingBoolean  SettingType = "boolean"
	SettingJSON     SettingType = "json"
	SettingPassword SettingType = "password"
)

// Setting is one key-value configuration entry.
type Setting struct {
	Key         string      `db:"key"`
	Value       string      `db:"value"`
	Type        SettingType `db:"type"`
	Category    string      `db:"category"`
	Description string      `db:"description"`
	IsPublic    bool        `db:"is_public"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

// Transaction records one balance change on a user account.
type Transaction struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Amount      int64     `db:"amount"`
	Type        string    `db:"type"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Transaction types for categorizing balance changes.
const (
	TxTypeTopup        = "topup"         // Approved balance top-up
	TxTypeOrderPayment = "order_payment" // Order settled from balance
	TxTypeRefund       = "refund"        // Refund after a failed settle
	TxTypeAdminAdjust  = "admin_adjust"  // Manual balance edit by an admin
)

// TopupStatus is the lifecycle of a balance top-up request.
type TopupStatus string

const (
	TopupPending  TopupStatus = "pending"
	TopupApproved TopupStatus = "approved"
	TopupRejected TopupStatus = "rejected"
)

// TopupRequest is a user's request to add balance, settled manually by staff
// after checking the attached transfer proof.
type TopupRequest struct {
	ID          int64       `db:"id"`
	UserID      int64       `db:"user_id"`
	Amount      int64       `db:"amount"`
	ProofFileID string      `db:"proof_file_id"`
	Status      TopupStatus `db:"status"`
	CreatedAt   time.Time   `db:"created_at"`
	ResolvedAt  *time.Time  `db:"resolved_at"`
}
