package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// PackageKind identifies which catalog table a package lives in.
type PackageKind string

const (
	KindVPS         PackageKind = "vps"
	KindWebHosting  PackageKind = "webhosting"
	KindGameHosting PackageKind = "gamehosting"
)

// ErrUnknownKind is returned when a package kind string is not recognized.
var ErrUnknownKind = errors.New("unknown package kind")

// ParsePackageKind validates a kind string coming from callback data or an
// admin request path.
func ParsePackageKind(s string) (PackageKind, error) {
	switch PackageKind(s) {
	case KindVPS, KindWebHosting, KindGameHosting:
		return PackageKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Label returns the Indonesian display label for the kind.
func (k PackageKind) Label() string {
	switch k {
	case KindVPS:
		return "VPS/RDP"
	case KindWebHosting:
		return "Web Hosting"
	case KindGameHosting:
		return "Game Hosting"
	}
	return string(k)
}

// PackageRef is a tagged reference to one package in one of the three
// catalog tables. Orders store it instead of a cross-table foreign key.
type PackageRef struct {
	Kind PackageKind `json:"kind"`
	ID   int64       `json:"id"`
}

// OSOption is one installable operating system for a VPS package.
type OSOption struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// VpsSpec describes the resources of a VPS package.
type VpsSpec struct {
	CPUCores           int        `json:"cpu_cores"`
	CPUNote            string     `json:"cpu_note,omitempty"`
	RAMGB              int        `json:"ram_gb"`
	StorageGB          int        `json:"storage_gb"`
	StorageType        string     `json:"storage_type,omitempty"`
	BandwidthGB        int        `json:"bandwidth_gb"`
	UnlimitedBandwidth bool       `json:"unlimited_bandwidth,omitempty"`
	OS                 []OSOption `json:"os,omitempty"`
	Locations          []string   `json:"locations,omitempty"`
}

// WebHostingSpec describes the resources of a shared hosting package.
type WebHostingSpec struct {
	StorageGB          int    `json:"storage_gb"`
	BandwidthGB        int    `json:"bandwidth_gb"`
	UnlimitedBandwidth bool   `json:"unlimited_bandwidth,omitempty"`
	DomainsIncluded    int    `json:"domains_included"`
	AddonDomainPrice   int64  `json:"addon_domain_price,omitempty"`
	Databases          int    `json:"databases"`
	EmailAccounts      int    `json:"email_accounts"`
	ControlPanel       string `json:"control_panel,omitempty"`
}

// GameHostingSpec describes the resources of a game server package.
type GameHostingSpec struct {
	Game      string   `json:"game"`
	Slots     int      `json:"slots"`
	CPUCores  int      `json:"cpu_cores"`
	RAMGB     int      `json:"ram_gb"`
	StorageGB int      `json:"storage_gb"`
	Locations []string `json:"locations,omitempty"`
	AntiDDoS  bool     `json:"anti_ddos,omitempty"`
}

// Pricing holds the per-cycle prices in whole rupiah. A zero value means
// the cycle is not offered for that package.
type Pricing struct {
	Monthly   int64 `json:"monthly"`
	Quarterly int64 `json:"quarterly"`
	Yearly    int64 `json:"yearly"`
	Setup     int64 `json:"setup"`
}

// For returns the base price for a billing cycle, 0 if the cycle is not
// offered.
func (p Pricing) For(cycle BillingCycle) int64 {
	switch cycle {
	case CycleMonthly:
		return p.Monthly
	case CycleQuarterly:
		return p.Quarterly
	case CycleYearly:
		return p.Yearly
	}
	return 0
}

// Discount is a time-bounded percentage reduction on all cycles.
type Discount struct {
	Percentage float64   `json:"percentage"`
	ValidUntil time.Time `json:"valid_until"`
}

// ActiveAt reports whether the discount still applies at the given instant.
// The boundary is exclusive: at exactly ValidUntil the discount has expired.
func (d *Discount) ActiveAt(now time.Time) bool {
	return d != nil && d.Percentage > 0 && now.Before(d.ValidUntil)
}

// CheckoutAmount computes the amount due for one billing cycle, applying the
// package discount only while it is active. Rounded to whole rupiah.
func CheckoutAmount(pricing Pricing, discount *Discount, cycle BillingCycle, now time.Time) (int64, error) {
	base := pricing.For(cycle)
	if base <= 0 {
		return 0, fmt.Errorf("billing cycle %s is not offered", cycle)
	}
	if !discount.ActiveAt(now) {
		return base, nil
	}
	reduced := float64(base) * (1 - discount.Percentage/100)
	return int64(math.Round(reduced)), nil
}

// Package is one purchasable plan from any of the three catalog tables.
// Exactly one of Vps, Web, Game is non-nil, matching Kind.
type Package struct {
	ID          int64
	Kind        PackageKind
	Name        string
	Description string
	Features    []string
	Pricing     Pricing
	Discount    *Discount
	IsAvailable bool
	SortOrder   int
	OrderCount  int
	Vps         *VpsSpec
	Web         *WebHostingSpec
	Game        *GameHostingSpec
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Ref returns the tagged reference for this package.
func (p *Package) Ref() PackageRef {
	return PackageRef{Kind: p.Kind, ID: p.ID}
}
