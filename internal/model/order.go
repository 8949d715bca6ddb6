package model

import (
	"regexp"
	"time"
)

// BillingCycle is the subscription period for an order.
type BillingCycle string

const (
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleYearly    BillingCycle = "yearly"
)

// ParseBillingCycle validates a cycle string from callback data.
func ParseBillingCycle(s string) (BillingCycle, bool) {
	switch BillingCycle(s) {
	case CycleMonthly, CycleQuarterly, CycleYearly:
		return BillingCycle(s), true
	}
	return "", false
}

// Label returns the Indonesian display label for the cycle.
func (c BillingCycle) Label() string {
	switch c {
	case CycleMonthly:
		return "Bulanan"
	case CycleQuarterly:
		return "3 Bulan"
	case CycleYearly:
		return "Tahunan"
	}
	return string(c)
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
	StatusFailed     OrderStatus = "failed"
	StatusExpired    OrderStatus = "expired"
)

// ParseOrderStatus validates a status string from an admin request.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case StatusPending, StatusProcessing, StatusCompleted,
		StatusCancelled, StatusFailed, StatusExpired:
		return OrderStatus(s), true
	}
	return "", false
}

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// CanTransition is the single authoritative status transition table.
// pending may advance to processing or fall to any alternate terminal
// state; processing may complete or fall to cancelled/failed.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case StatusPending:
		switch to {
		case StatusProcessing, StatusCancelled, StatusFailed, StatusExpired:
			return true
		}
	case StatusProcessing:
		switch to {
		case StatusCompleted, StatusCancelled, StatusFailed:
			return true
		}
	}
	return false
}

// Label returns the Indonesian display label for the status.
func (s OrderStatus) Label() string {
	switch s {
	case StatusPending:
		return "Menunggu Pembayaran"
	case StatusProcessing:
		return "Sedang Diproses"
	case StatusCompleted:
		return "Aktif"
	case StatusCancelled:
		return "Dibatalkan"
	case StatusFailed:
		return "Gagal"
	case StatusExpired:
		return "Kadaluarsa"
	}
	return string(s)
}

// Emoji returns the status marker used in chat messages.
func (s OrderStatus) Emoji() string {
	switch s {
	case StatusPending:
		return "⌛"
	case StatusProcessing:
		return "⚙️"
	case StatusCompleted:
		return "✅"
	case StatusCancelled:
		return "❌"
	case StatusFailed:
		return "❗"
	case StatusExpired:
		return "⏰"
	}
	return "❓"
}

// PaymentMethod is how the customer chose to pay.
type PaymentMethod string

const (
	PayBankTransfer PaymentMethod = "bank_transfer"
	PayEWallet      PaymentMethod = "e-wallet"
	PayCreditCard   PaymentMethod = "credit_card"
	PayBalance      PaymentMethod = "balance"
)

// ParsePaymentMethod validates a method string from callback data.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PayBankTransfer, PayEWallet, PayCreditCard, PayBalance:
		return PaymentMethod(s), true
	}
	return "", false
}

// Label returns the Indonesian display label for the method.
func (m PaymentMethod) Label() string {
	switch m {
	case PayBankTransfer:
		return "Transfer Bank"
	case PayEWallet:
		return "E-Wallet (OVO/GoPay/DANA)"
	case PayCreditCard:
		return "Kartu Kredit/Debit"
	case PayBalance:
		return "Saldo Akun"
	}
	return string(m)
}

// PaymentDetails is the JSONB blob attached once a payment is made or
// proof is submitted.
type PaymentDetails struct {
	TransactionID string     `json:"transaction_id,omitempty"`
	PaidAmount    int64      `json:"paid_amount,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	ProofFileID   string     `json:"proof_file_id,omitempty"`
}

// ControlPanelAccess is part of ServerDetails for panel-backed services.
type ControlPanelAccess struct {
	URL      string `json:"url,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// ServerDetails is the JSONB blob attached by staff when provisioning.
type ServerDetails struct {
	Hostname     string              `json:"hostname,omitempty"`
	IPAddress    string              `json:"ip_address,omitempty"`
	Username     string              `json:"username,omitempty"`
	Password     string              `json:"password,omitempty"`
	ControlPanel *ControlPanelAccess `json:"control_panel,omitempty"`
}

// Order ties a user to one package purchase.
type Order struct {
	ID              int64
	Reference       string
	UserID          int64
	Package         PackageRef
	ServiceName     string
	DomainName      string
	BillingCycle    BillingCycle
	Amount          int64
	Status          OrderStatus
	PaymentMethod   PaymentMethod
	PaymentDetails  *PaymentDetails
	ServerDetails   *ServerDetails
	DueDate         *time.Time
	StartDate       *time.Time
	EndDate         *time.Time
	RenewalReminder bool
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Label returns the service name shown to the customer.
func (o *Order) Label() string {
	if o.ServiceName != "" {
		return o.ServiceName
	}
	if o.DomainName != "" {
		return o.DomainName
	}
	return "Tanpa nama"
}

// DueIn is how long the customer has to pay a fresh order.
const DueIn = 24 * time.Hour

// ActivationPeriod computes the service window stamped when an order
// transitions into completed: one month, three months or one year from now
// depending on the billing cycle.
func ActivationPeriod(cycle BillingCycle, now time.Time) (start, end time.Time) {
	start = now
	switch cycle {
	case CycleQuarterly:
		end = now.AddDate(0, 3, 0)
	case CycleYearly:
		end = now.AddDate(1, 0, 0)
	default:
		end = now.AddDate(0, 1, 0)
	}
	return start, end
}

var domainRe = regexp.MustCompile(`^([a-z0-9]([-a-z0-9]*[a-z0-9])?\.)+[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ValidDomain reports whether s looks like a usable domain name. Input is
// expected to be lowercased by the caller.
func ValidDomain(s string) bool {
	return domainRe.MatchString(s)
}
