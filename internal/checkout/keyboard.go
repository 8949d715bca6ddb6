package checkout

import (
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"

	"hostingbot/internal/model"
)

// Callback uniques used by the checkout conversation. The bot's callback
// dispatcher routes on these prefixes.
const (
	CbBuy     = "buy"      // buy|<kind>|<id>
	CbCycle   = "ckcycle"  // ckcycle|<cycle>
	CbPay     = "ckpay"    // ckpay|<method>
	CbConfirm = "ckok"     // ckok
	CbCancel  = "ckcancel" // ckcancel
)

// BuyButton returns the button that opens a checkout for a package.
func BuyButton(markup *tele.ReplyMarkup, pkg *model.Package) tele.Btn {
	return markup.Data("🛒 Pesan Sekarang", CbBuy, string(pkg.Kind), strconv.FormatInt(pkg.ID, 10))
}

// CycleKeyboard offers the billing cycles a package actually prices. The
// button labels carry the amount due, discount applied.
func CycleKeyboard(pkg *model.Package, now time.Time) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row

	for _, cycle := range []model.BillingCycle{model.CycleMonthly, model.CycleQuarterly, model.CycleYearly} {
		amount, err := model.CheckoutAmount(pkg.Pricing, pkg.Discount, cycle, now)
		if err != nil {
			continue
		}
		label := cycle.Label() + " — " + model.FormatRupiah(amount)
		rows = append(rows, markup.Row(markup.Data(label, CbCycle, string(cycle))))
	}
	rows = append(rows, markup.Row(markup.Data("❌ Batal", CbCancel)))
	markup.Inline(rows...)
	return markup
}

// PaymentKeyboard offers the payment methods. Balance payment shows the
// customer's current balance so they can tell whether it covers the order.
func PaymentKeyboard(balance int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("🏦 Transfer Bank", CbPay, string(model.PayBankTransfer))),
		markup.Row(markup.Data("📱 E-Wallet (OVO/GoPay/DANA)", CbPay, string(model.PayEWallet))),
		markup.Row(markup.Data("💳 Kartu Kredit/Debit", CbPay, string(model.PayCreditCard))),
		markup.Row(markup.Data("💰 Saldo ("+model.FormatRupiah(balance)+")", CbPay, string(model.PayBalance))),
		markup.Row(markup.Data("❌ Batal", CbCancel)),
	)
	return markup
}

// ConfirmKeyboard is the final yes/no step.
func ConfirmKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.Data("✅ Konfirmasi", CbConfirm),
			markup.Data("❌ Batal", CbCancel),
		),
	)
	return markup
}
