package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"hostingbot/internal/checkout"
	"hostingbot/internal/model"
	"hostingbot/internal/repository"
	"hostingbot/internal/service"
)

// Callback uniques for the order list.
const (
	CbOrderCancel = "ocancel" // ocancel|<id>
	CbOrderProof  = "oproof"  // oproof|<id>
)

const orderListLimit = 10

// OrderHandler serves the customer's order list and payment confirmation.
type OrderHandler struct {
	orders  *service.OrderService
	account *service.AccountService
	awaiter *Awaiter
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *service.OrderService, account *service.AccountService, awaiter *Awaiter) *OrderHandler {
	return &OrderHandler{orders: orders, account: account, awaiter: awaiter}
}

// HandleOrders handles /order and the orders menu button.
func (h *OrderHandler) HandleOrders(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ctx := context.Background()
	user, err := h.account.GetByTelegramID(ctx, sender.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Send("Anda belum terdaftar. Ketik /start dulu ya.")
		}
		return c.Send("❌ Gagal memuat pesanan, coba lagi nanti.")
	}

	orders, err := h.orders.ListByUser(ctx, user.ID, orderListLimit)
	if err != nil {
		return c.Send("❌ Gagal memuat pesanan, coba lagi nanti.")
	}
	if len(orders) == 0 {
		return c.Send("📋 Belum ada pesanan. Lihat paket dengan /vps, /webhosting atau /gamehosting.")
	}

	var b strings.Builder
	b.WriteString("📋 *Pesanan Saya*\n\n")
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, o := range orders {
		b.WriteString(checkout.OrderLine(o))
		b.WriteString("\n\n")
		if o.Status == model.StatusPending {
			rows = append(rows, markup.Row(
				markup.Data("📤 Kirim Bukti "+o.Reference, CbOrderProof, strconv.FormatInt(o.ID, 10)),
				markup.Data("❌ Batal "+o.Reference, CbOrderCancel, strconv.FormatInt(o.ID, 10)),
			))
		}
	}
	markup.Inline(rows...)

	return c.Send(b.String(), markup, tele.ModeMarkdown)
}

// HandleCancelCallback cancels a pending order from the order list.
func (h *OrderHandler) HandleCancelCallback(c tele.Context, args []string) error {
	sender := c.Sender()
	if sender == nil || len(args) != 1 {
		return c.Respond(&tele.CallbackResponse{Text: "Data tidak valid"})
	}
	orderID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Data tidak valid"})
	}

	ctx := context.Background()
	user, err := h.account.GetByTelegramID(ctx, sender.ID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Gagal memuat akun"})
	}

	order, err := h.orders.Cancel(ctx, user.ID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotPending):
			return c.Respond(&tele.CallbackResponse{Text: "Pesanan sudah diproses, tidak bisa dibatalkan"})
		case errors.Is(err, service.ErrNotOrderOwner), errors.Is(err, repository.ErrOrderNotFound):
			return c.Respond(&tele.CallbackResponse{Text: "Pesanan tidak ditemukan"})
		}
		return c.Respond(&tele.CallbackResponse{Text: "Gagal membatalkan pesanan"})
	}

	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send("✅ Pesanan *" + order.Reference + "* dibatalkan.", tele.ModeMarkdown)
}

// HandleProofCallback asks for a transfer proof photo for one order.
func (h *OrderHandler) HandleProofCallback(c tele.Context, args []string) error {
	sender := c.Sender()
	if sender == nil || len(args) != 1 {
		return c.Respond(&tele.CallbackResponse{Text: "Data tidak valid"})
	}
	orderID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Data tidak valid"})
	}

	h.awaiter.set(sender.ID, await{kind: awaitPaymentProof, orderID: orderID})
	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send("📤 Kirim foto bukti pembayaran untuk pesanan ini.")
}

// HandleConfirmPayment handles /confirm_payment <reference>.
func (h *OrderHandler) HandleConfirmPayment(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := strings.Fields(c.Message().Payload)
	if len(args) != 1 {
		return c.Send("Format: `/confirm_payment ORD-XXXXXXXX`", tele.ModeMarkdown)
	}
	reference := strings.ToUpper(args[0])

	ctx := context.Background()
	user, err := h.account.GetByTelegramID(ctx, sender.ID)
	if err != nil {
		return c.Send("Anda belum terdaftar. Ketik /start dulu ya.")
	}

	orders, err := h.orders.ListByUser(ctx, user.ID, 50)
	if err != nil {
		return c.Send("❌ Gagal memuat pesanan, coba lagi nanti.")
	}
	for _, o := range orders {
		if o.Reference == reference {
			if o.Status != model.StatusPending {
				return c.Send("Pesanan *" + reference + "* tidak menunggu pembayaran.", tele.ModeMarkdown)
			}
			h.awaiter.set(sender.ID, await{kind: awaitPaymentProof, orderID: o.ID})
			return c.Send("📤 Kirim foto bukti pembayaran untuk pesanan *"+reference+"*.", tele.ModeMarkdown)
		}
	}
	return c.Send("Pesanan *" + reference + "* tidak ditemukan.", tele.ModeMarkdown)
}

// HandleProofPhoto consumes the awaited payment proof photo. The bot's
// photo dispatcher calls this when the awaiter expects a payment proof.
func (h *OrderHandler) HandleProofPhoto(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	w, ok := h.awaiter.get(sender.ID)
	if !ok || w.kind != awaitPaymentProof {
		return nil
	}

	photo := c.Message().Photo
	if photo == nil {
		return c.Send("Kirim bukti pembayaran sebagai foto ya.")
	}

	ctx := context.Background()
	user, err := h.account.GetByTelegramID(ctx, sender.ID)
	if err != nil {
		return c.Send("❌ Gagal memuat akun.")
	}

	order, err := h.orders.AttachPaymentProof(ctx, user.ID, w.orderID, photo.FileID)
	if err != nil {
		h.awaiter.Clear(sender.ID)
		if errors.Is(err, service.ErrOrderNotPending) {
			return c.Send("Pesanan ini sudah tidak menunggu pembayaran.")
		}
		return c.Send("❌ Gagal menyimpan bukti pembayaran, coba lagi.")
	}

	h.awaiter.Clear(sender.ID)
	return c.Send(
		"✅ Bukti pembayaran untuk *"+order.Reference+"* diterima!\n\n"+
			"Tim kami akan memverifikasi pembayaran dan memproses pesanan Anda. "+
			"Anda akan menerima notifikasi setelah layanan aktif.",
		tele.ModeMarkdown,
	)
}
