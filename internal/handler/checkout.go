package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"

	"hostingbot/internal/checkout"
	"hostingbot/internal/model"
	"hostingbot/internal/repository"
	"hostingbot/internal/service"
)

// CheckoutHandler drives the purchase conversation over Telegram.
type CheckoutHandler struct {
	flow     *checkout.Flow
	account  *service.AccountService
	settings *service.SettingsService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(flow *checkout.Flow, account *service.AccountService, settings *service.SettingsService) *CheckoutHandler {
	return &CheckoutHandler{flow: flow, account: account, settings: settings}
}

// Flow exposes the underlying flow for the bot's text dispatcher.
func (h *CheckoutHandler) Flow() *checkout.Flow {
	return h.flow
}

// HandleBuyCallback starts a checkout from a package detail message.
func (h *CheckoutHandler) HandleBuyCallback(c tele.Context, args []string) error {
	sender := c.Sender()
	if sender == nil || len(args) != 2 {
		return c.Respond(&tele.CallbackResponse{Text: "Data tidak valid"})
	}
	kind, err := model.ParsePackageKind(args[0])
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Jenis paket tidak dikenal"})
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Data tidak valid"})
	}

	ctx := context.Background()
	user, _, err := h.account.EnsureUser(ctx, sender.ID, sender.Username, sender.FirstName, sender.LastName)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Gagal memuat akun"})
	}

	session, err := h.flow.Begin(ctx, user, model.PackageRef{Kind: kind, ID: id})
	if err != nil {
		if errors.Is(err, service.ErrPackageUnavailable) || errors.Is(err, repository.ErrPackageNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: "Paket tidak tersedia lagi"})
		}
		return c.Respond(&tele.CallbackResponse{Text: "Terjadi kesalahan, coba lagi"})
	}

	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(
		checkout.CyclePrompt(session),
		checkout.CycleKeyboard(session.Package, time.Now()),
		tele.ModeMarkdown,
	)
}

// HandleCycleCallback records the chosen billing cycle.
func (h *CheckoutHandler) HandleCycleCallback(c tele.Context, args []string) error {
	sender := c.Sender()
	if sender == nil || len(args) != 1 {
		return c.Respond(&tele.CallbackResponse{Text: "Data tidak valid"})
	}

	session, err := h.flow.ChooseCycle(sender.ID, args[0])
	if err != nil {
		return h.respondFlowError(c, err)
	}

	if err := c.Respond(); err != nil {
		return err
	}
	if session.Step == checkout.StepDomain {
		return c.Send(checkout.DomainPrompt(session), tele.ModeMarkdown)
	}
	return c.Send(checkout.NamePrompt(session), tele.ModeMarkdown)
}

// HandleText consumes the typed service name or domain when the checkout
// is waiting for one. The bot's dispatcher calls this only after checking
// Flow().Session(id).AwaitsText().
func (h *CheckoutHandler) HandleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	session := h.flow.Session(sender.ID)
	if session == nil {
		return nil
	}

	var err error
	if session.Step == checkout.StepDomain {
		session, err = h.flow.SetDomain(sender.ID, c.Text())
		if errors.Is(err, checkout.ErrInvalidDomain) {
			return c.Send("❌ Nama domain tidak valid. Gunakan huruf kecil, angka dan tanda minus, contoh: `tokosaya.co.id`", tele.ModeMarkdown)
		}
	} else {
		session, err = h.flow.SetServiceName(sender.ID, c.Text())
		if errors.Is(err, checkout.ErrInvalidName) {
			return c.Send("❌ Nama layanan tidak boleh kosong dan maksimal 64 karakter.")
		}
	}
	if err != nil {
		return c.Send("❌ Terjadi kesalahan, coba lagi.")
	}

	ctx := context.Background()
	user, err := h.account.GetByTelegramID(ctx, sender.ID)
	if err != nil {
		return c.Send("❌ Gagal memuat akun.")
	}
	return c.Send(checkout.PaymentPrompt(session), checkout.PaymentKeyboard(user.Balance), tele.ModeMarkdown)
}

// HandlePayCallback records the payment method and shows the summary.
func (h *CheckoutHandler) HandlePayCallback(c tele.Context, args []string) error {
	sender := c.Sender()
	if sender == nil || len(args) != 1 {
		return c.Respond(&tele.CallbackResponse{Text: "Data tidak valid"})
	}

	session, err := h.flow.ChoosePayment(sender.ID, args[0])
	if err != nil {
		return h.respondFlowError(c, err)
	}

	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(checkout.Summary(session), checkout.ConfirmKeyboard(), tele.ModeMarkdown)
}

// HandleConfirmCallback places the order.
func (h *CheckoutHandler) HandleConfirmCallback(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ctx := context.Background()
	user, err := h.account.GetByTelegramID(ctx, sender.ID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Gagal memuat akun"})
	}

	result, err := h.flow.Confirm(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientBalance):
			_ = c.Respond()
			msg := "❌ Saldo tidak mencukupi."
			if result != nil {
				msg += "\n\nPesanan *" + result.Order.Reference + "* tetap dibuat dan menunggu pembayaran. " +
					"Top up saldo lewat /account atau pilih metode lain dengan menghubungi admin."
			}
			return c.Send(msg, tele.ModeMarkdown)
		case errors.Is(err, service.ErrMaintenanceMode):
			return c.Respond(&tele.CallbackResponse{Text: "Toko sedang maintenance, coba lagi nanti"})
		case errors.Is(err, service.ErrPackageUnavailable), errors.Is(err, repository.ErrPackageNotFound):
			return c.Respond(&tele.CallbackResponse{Text: "Paket sudah tidak tersedia"})
		case errors.Is(err, checkout.ErrNoSession), errors.Is(err, checkout.ErrWrongStep):
			return h.respondFlowError(c, err)
		}
		return c.Respond(&tele.CallbackResponse{Text: "Gagal membuat pesanan, coba lagi"})
	}

	if err := c.Respond(); err != nil {
		return err
	}
	adminUsername := h.settings.GetString(ctx, "ADMIN_USERNAME", "admin")
	accounts := h.settings.PaymentAccounts(ctx, result.Order.PaymentMethod)
	return c.Send(checkout.OrderCreated(result, adminUsername, accounts), tele.ModeMarkdown)
}

// HandleCancelCallback abandons the checkout.
func (h *CheckoutHandler) HandleCancelCallback(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	if !h.flow.Cancel(sender.ID) {
		return c.Respond(&tele.CallbackResponse{Text: "Tidak ada checkout yang berjalan"})
	}
	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send("✅ Checkout dibatalkan. Ketik /vps, /webhosting atau /gamehosting untuk mulai lagi.")
}

func (h *CheckoutHandler) respondFlowError(c tele.Context, err error) error {
	switch {
	case errors.Is(err, checkout.ErrNoSession):
		return c.Respond(&tele.CallbackResponse{Text: "Checkout sudah berakhir, mulai lagi dari daftar paket"})
	case errors.Is(err, checkout.ErrWrongStep):
		return c.Respond(&tele.CallbackResponse{Text: "Langkah tidak sesuai, ikuti urutan checkout"})
	case errors.Is(err, checkout.ErrInvalidCycle):
		return c.Respond(&tele.CallbackResponse{Text: "Periode tidak tersedia untuk paket ini"})
	case errors.Is(err, checkout.ErrInvalidMethod):
		return c.Respond(&tele.CallbackResponse{Text: "Metode pembayaran tidak dikenal"})
	}
	return c.Respond(&tele.CallbackResponse{Text: "Terjadi kesalahan, coba lagi"})
}
