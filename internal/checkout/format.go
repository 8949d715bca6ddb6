package checkout

import (
	"fmt"
	"strings"
	"time"

	"hostingbot/internal/model"
	"hostingbot/internal/service"
)

// PackageCaption renders the full package detail message shown before the
// customer starts a checkout.
func PackageCaption(pkg *model.Package, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *%s*\n", pkg.Name)
	if pkg.Description != "" {
		fmt.Fprintf(&b, "_%s_\n", pkg.Description)
	}
	b.WriteString("\n")

	writeSpecs(&b, pkg)

	if len(pkg.Features) > 0 {
		b.WriteString("\n✨ *Fitur:*\n")
		for _, f := range pkg.Features {
			fmt.Fprintf(&b, "• %s\n", f)
		}
	}

	b.WriteString("\n💰 *Harga:*\n")
	writePrice(&b, "Bulanan", pkg.Pricing.Monthly, pkg.Discount, now)
	writePrice(&b, "3 Bulan", pkg.Pricing.Quarterly, pkg.Discount, now)
	writePrice(&b, "Tahunan", pkg.Pricing.Yearly, pkg.Discount, now)
	if pkg.Pricing.Setup > 0 {
		fmt.Fprintf(&b, "• Biaya setup: %s\n", model.FormatRupiah(pkg.Pricing.Setup))
	}

	if pkg.Discount.ActiveAt(now) {
		fmt.Fprintf(&b, "\n🔥 Diskon %.0f%% berlaku sampai %s\n",
			pkg.Discount.Percentage, pkg.Discount.ValidUntil.Format("02-01-2006"))
	}
	return b.String()
}

func writeSpecs(b *strings.Builder, pkg *model.Package) {
	switch {
	case pkg.Vps != nil:
		s := pkg.Vps
		fmt.Fprintf(b, "🖥 CPU: %d core", s.CPUCores)
		if s.CPUNote != "" {
			fmt.Fprintf(b, " (%s)", s.CPUNote)
		}
		b.WriteString("\n")
		fmt.Fprintf(b, "💾 RAM: %d GB\n", s.RAMGB)
		storage := fmt.Sprintf("%d GB", s.StorageGB)
		if s.StorageType != "" {
			storage += " " + s.StorageType
		}
		fmt.Fprintf(b, "📀 Storage: %s\n", storage)
		fmt.Fprintf(b, "🌐 Bandwidth: %s\n", bandwidth(s.BandwidthGB, s.UnlimitedBandwidth))
		if len(s.OS) > 0 {
			var names []string
			for _, os := range s.OS {
				names = append(names, os.Name+" "+os.Version)
			}
			fmt.Fprintf(b, "💿 OS: %s\n", strings.Join(names, ", "))
		}
		if len(s.Locations) > 0 {
			fmt.Fprintf(b, "📍 Lokasi: %s\n", strings.Join(s.Locations, ", "))
		}
	case pkg.Web != nil:
		s := pkg.Web
		fmt.Fprintf(b, "📀 Storage: %d GB\n", s.StorageGB)
		fmt.Fprintf(b, "🌐 Bandwidth: %s\n", bandwidth(s.BandwidthGB, s.UnlimitedBandwidth))
		fmt.Fprintf(b, "🔗 Domain: %d\n", s.DomainsIncluded)
		fmt.Fprintf(b, "🗄 Database: %d\n", s.Databases)
		fmt.Fprintf(b, "📧 Email: %d akun\n", s.EmailAccounts)
		if s.ControlPanel != "" {
			fmt.Fprintf(b, "⚙️ Panel: %s\n", s.ControlPanel)
		}
	case pkg.Game != nil:
		s := pkg.Game
		fmt.Fprintf(b, "🎮 Game: %s\n", s.Game)
		fmt.Fprintf(b, "👥 Slot: %d pemain\n", s.Slots)
		fmt.Fprintf(b, "🖥 CPU: %d core\n", s.CPUCores)
		fmt.Fprintf(b, "💾 RAM: %d GB\n", s.RAMGB)
		fmt.Fprintf(b, "📀 Storage: %d GB\n", s.StorageGB)
		if s.AntiDDoS {
			b.WriteString("🛡 Anti-DDoS\n")
		}
		if len(s.Locations) > 0 {
			fmt.Fprintf(b, "📍 Lokasi: %s\n", strings.Join(s.Locations, ", "))
		}
	}
}

func bandwidth(gb int, unlimited bool) string {
	if unlimited {
		return "Unlimited"
	}
	return fmt.Sprintf("%d GB", gb)
}

func writePrice(b *strings.Builder, label string, base int64, discount *model.Discount, now time.Time) {
	if base <= 0 {
		return
	}
	if discount.ActiveAt(now) {
		reduced, _ := model.CheckoutAmount(model.Pricing{Monthly: base}, discount, model.CycleMonthly, now)
		fmt.Fprintf(b, "• %s: ~%s~ *%s*\n", label, model.FormatRupiah(base), model.FormatRupiah(reduced))
		return
	}
	fmt.Fprintf(b, "• %s: %s\n", label, model.FormatRupiah(base))
}

// CyclePrompt asks for the billing cycle.
func CyclePrompt(session *Session) string {
	return fmt.Sprintf("📦 *%s*\n\nPilih periode berlangganan:", session.Package.Name)
}

// NamePrompt asks for a service label.
func NamePrompt(session *Session) string {
	return fmt.Sprintf(
		"📦 *%s* — %s (%s)\n\nKetik nama untuk layanan ini (contoh: `vps-toko-online`):",
		session.Package.Name, session.Cycle.Label(), model.FormatRupiah(session.Amount),
	)
}

// DomainPrompt asks for the hosting domain.
func DomainPrompt(session *Session) string {
	return fmt.Sprintf(
		"📦 *%s* — %s (%s)\n\nKetik nama domain untuk hosting ini (contoh: `tokosaya.co.id`):",
		session.Package.Name, session.Cycle.Label(), model.FormatRupiah(session.Amount),
	)
}

// PaymentPrompt asks for the payment method.
func PaymentPrompt(session *Session) string {
	return fmt.Sprintf(
		"✅ Layanan: *%s*\n💰 Total: *%s*\n\nPilih metode pembayaran:",
		session.ServiceName, model.FormatRupiah(session.Amount),
	)
}

// Summary renders the final confirmation message.
func Summary(session *Session) string {
	var b strings.Builder
	b.WriteString("🧾 *Ringkasan Pesanan*\n\n")
	fmt.Fprintf(&b, "Paket: %s (%s)\n", session.Package.Name, session.Package.Kind.Label())
	fmt.Fprintf(&b, "Periode: %s\n", session.Cycle.Label())
	fmt.Fprintf(&b, "Layanan: %s\n", session.ServiceName)
	if session.DomainName != "" && session.DomainName != session.ServiceName {
		fmt.Fprintf(&b, "Domain: %s\n", session.DomainName)
	}
	fmt.Fprintf(&b, "Pembayaran: %s\n", session.Method.Label())
	fmt.Fprintf(&b, "\n💰 Total: *%s*\n\nLanjutkan?", model.FormatRupiah(session.Amount))
	return b.String()
}

// OrderCreated renders the post-checkout message. Unpaid orders get the
// payment instructions for the chosen method: the configured destination
// accounts when the operator has set them, otherwise a pointer to
// adminUsername.
func OrderCreated(result *Result, adminUsername string, accounts []service.PaymentAccount) string {
	o := result.Order
	var b strings.Builder

	if result.Paid {
		fmt.Fprintf(&b, "🎉 *Pesanan %s dibayar dari saldo!*\n\n", o.Reference)
		b.WriteString("Pesanan Anda sedang diproses. Anda akan menerima detail server setelah aktivasi selesai.")
		return b.String()
	}

	fmt.Fprintf(&b, "✅ *Pesanan %s dibuat!*\n\n", o.Reference)
	fmt.Fprintf(&b, "Total: *%s*\n", model.FormatRupiah(o.Amount))
	if o.DueDate != nil {
		fmt.Fprintf(&b, "Batas pembayaran: %s\n", o.DueDate.Format("02-01-2006 15:04"))
	}
	b.WriteString("\n")

	switch o.PaymentMethod {
	case model.PayBankTransfer:
		b.WriteString("🏦 *Transfer Bank*\n")
		writePaymentTargets(&b, accounts, adminUsername)
		b.WriteString("Setelah transfer, kirim foto bukti dengan perintah:\n")
		fmt.Fprintf(&b, "`/confirm_payment %s` diikuti foto bukti.", o.Reference)
	case model.PayEWallet:
		b.WriteString("📱 *E-Wallet*\n")
		writePaymentTargets(&b, accounts, adminUsername)
		b.WriteString("Setelah membayar, kirim bukti dengan perintah:\n")
		fmt.Fprintf(&b, "`/confirm_payment %s` diikuti foto bukti.", o.Reference)
	case model.PayCreditCard:
		b.WriteString("💳 *Kartu Kredit/Debit*\n")
		fmt.Fprintf(&b, "Hubungi admin @%s untuk tautan pembayaran kartu.", adminUsername)
	}
	return b.String()
}

// writePaymentTargets lists the destination accounts, or falls back to the
// admin contact when none are configured.
func writePaymentTargets(b *strings.Builder, accounts []service.PaymentAccount, adminUsername string) {
	if len(accounts) == 0 {
		fmt.Fprintf(b, "Hubungi admin @%s untuk detail rekening tujuan.\n", adminUsername)
		return
	}
	for _, acc := range accounts {
		fmt.Fprintf(b, "• %s: `%s`\n", acc.Label, acc.Number)
	}
}

// OrderLine renders one order in the customer's order list.
func OrderLine(o *model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* — %s\n", o.Status.Emoji(), o.Reference, o.Label())
	fmt.Fprintf(&b, "   %s · %s · %s\n", o.Package.Kind.Label(), o.BillingCycle.Label(), model.FormatRupiah(o.Amount))
	fmt.Fprintf(&b, "   Status: %s", o.Status.Label())
	if o.Status == model.StatusPending && o.DueDate != nil {
		fmt.Fprintf(&b, " (bayar sebelum %s)", o.DueDate.Format("02-01 15:04"))
	}
	if o.Status == model.StatusCompleted && o.EndDate != nil {
		fmt.Fprintf(&b, " s/d %s", o.EndDate.Format("02-01-2006"))
	}
	return b.String()
}
