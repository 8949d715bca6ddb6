package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"hostingbot/internal/model"
	"hostingbot/internal/service"
)

// Callback uniques for the account screen.
const (
	CbTopup    = "topup"
	CbSetEmail = "setemail"
	CbSetPhone = "setphone"
)

// Main menu reply-keyboard labels. The text dispatcher matches these.
const (
	MenuVps     = "💻 VPS/RDP"
	MenuWeb     = "🌐 Web Hosting"
	MenuGame    = "🎮 Game Hosting"
	MenuOrders  = "📋 Pesanan Saya"
	MenuAccount = "👤 Akun Saya"
	MenuHelp    = "❓ Bantuan"
)

// MainMenu is the persistent reply keyboard shown after /start.
func MainMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	markup.Reply(
		markup.Row(markup.Text(MenuVps), markup.Text(MenuWeb)),
		markup.Row(markup.Text(MenuGame), markup.Text(MenuOrders)),
		markup.Row(markup.Text(MenuAccount), markup.Text(MenuHelp)),
	)
	return markup
}

// AccountHandler handles registration, the account screen and top-ups.
type AccountHandler struct {
	account  *service.AccountService
	settings *service.SettingsService
	awaiter  *Awaiter
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(account *service.AccountService, settings *service.SettingsService, awaiter *Awaiter) *AccountHandler {
	return &AccountHandler{account: account, settings: settings, awaiter: awaiter}
}

// HandleStart handles /start.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ctx := context.Background()
	user, created, err := h.account.EnsureUser(ctx, sender.ID, sender.Username, sender.FirstName, sender.LastName)
	if err != nil {
		return c.Send("❌ Gagal membuat akun, coba lagi nanti.")
	}

	siteName := h.settings.GetString(ctx, "SITE_NAME", "Hosting Store")
	if created {
		return c.Send(fmt.Sprintf(
			"🎉 Selamat datang di *%s*, %s!\n\n"+
				"Kami menyediakan:\n"+
				"💻 VPS/RDP — server virtual untuk segala kebutuhan\n"+
				"🌐 Web Hosting — hosting website cepat dan stabil\n"+
				"🎮 Game Hosting — server game siap main\n\n"+
				"Pilih menu di bawah untuk mulai. 👇",
			siteName, user.DisplayName(),
		), MainMenu(), tele.ModeMarkdown)
	}
	return c.Send(fmt.Sprintf(
		"👋 Selamat datang kembali di *%s*, %s!\n\nSaldo Anda: %s",
		siteName, user.DisplayName(), model.FormatRupiah(user.Balance),
	), MainMenu(), tele.ModeMarkdown)
}

// HandleHelp handles /help and the help menu button.
func (h *AccountHandler) HandleHelp(c tele.Context) error {
	ctx := context.Background()
	adminUsername := h.settings.GetString(ctx, "ADMIN_USERNAME", "admin")
	return c.Send(
		"❓ *Bantuan*\n\n"+
			"Perintah yang tersedia:\n"+
			"/vps — daftar paket VPS/RDP\n"+
			"/webhosting — daftar paket web hosting\n"+
			"/gamehosting — daftar paket game hosting\n"+
			"/order — pesanan Anda\n"+
			"/account — akun, saldo dan top-up\n"+
			"/confirm\\_payment — kirim bukti pembayaran\n"+
			"/getmyid — tampilkan Telegram ID Anda\n\n"+
			"💳 *Pembayaran*\n"+
			"Transfer bank dan e-wallet dikonfirmasi manual dengan bukti transfer. "+
			"Detail rekening dikirim saat checkout.\n\n"+
			"Butuh bantuan lain? Hubungi admin @"+adminUsername,
		tele.ModeMarkdown,
	)
}

// HandleGetMyID handles /getmyid.
func (h *AccountHandler) HandleGetMyID(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return c.Send(fmt.Sprintf("🆔 Telegram ID Anda: `%d`", sender.ID), tele.ModeMarkdown)
}

// HandleAccount handles /account and the account menu button.
func (h *AccountHandler) HandleAccount(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ctx := context.Background()
	user, _, err := h.account.EnsureUser(ctx, sender.ID, sender.Username, sender.FirstName, sender.LastName)
	if err != nil {
		return c.Send("❌ Gagal memuat akun, coba lagi nanti.")
	}

	stats, err := h.account.OrderStats(ctx, user.ID)
	if err != nil {
		return c.Send("❌ Gagal memuat akun, coba lagi nanti.")
	}

	var b strings.Builder
	b.WriteString("👤 *Akun Saya*\n\n")
	fmt.Fprintf(&b, "Nama: %s\n", user.DisplayName())
	fmt.Fprintf(&b, "Telegram ID: `%d`\n", user.TelegramID)
	email := user.Contact.Email
	if email == "" {
		email = "—"
	}
	phone := user.Contact.Phone
	if phone == "" {
		phone = "—"
	}
	fmt.Fprintf(&b, "Email: %s\n", email)
	fmt.Fprintf(&b, "No. HP: %s\n", phone)
	fmt.Fprintf(&b, "Terdaftar: %s\n\n", user.RegisteredAt.Format("02-01-2006"))
	fmt.Fprintf(&b, "💰 Saldo: *%s*\n", model.FormatRupiah(user.Balance))
	fmt.Fprintf(&b, "📦 Total pesanan: %d (aktif: %d)\n", stats.TotalOrders, stats.ActiveOrders)
	fmt.Fprintf(&b, "💸 Total belanja: %s\n", model.FormatRupiah(stats.TotalSpent))

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("💳 Top Up Saldo", CbTopup)),
		markup.Row(
			markup.Data("📧 Ubah Email", CbSetEmail),
			markup.Data("📱 Ubah No. HP", CbSetPhone),
		),
	)
	return c.Send(b.String(), markup, tele.ModeMarkdown)
}

// HandleTopupCallback starts the top-up conversation.
func (h *AccountHandler) HandleTopupCallback(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	h.awaiter.set(sender.ID, await{kind: awaitTopupAmount})
	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf(
		"💳 *Top Up Saldo*\n\nKetik jumlah top-up dalam rupiah (minimal %s), contoh: `100000`",
		model.FormatRupiah(service.MinTopupAmount),
	), tele.ModeMarkdown)
}

// HandleSetEmailCallback asks for a new email address.
func (h *AccountHandler) HandleSetEmailCallback(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	h.awaiter.set(sender.ID, await{kind: awaitEmail})
	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send("📧 Ketik alamat email baru Anda:")
}

// HandleSetPhoneCallback asks for a new phone number.
func (h *AccountHandler) HandleSetPhoneCallback(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	h.awaiter.set(sender.ID, await{kind: awaitPhone})
	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send("📱 Ketik nomor HP baru Anda (contoh: 08123456789):")
}

// HandleText consumes awaited typed input: a top-up amount, an email or a
// phone number.
func (h *AccountHandler) HandleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	w, ok := h.awaiter.get(sender.ID)
	if !ok {
		return nil
	}

	ctx := context.Background()
	text := strings.TrimSpace(c.Text())

	switch w.kind {
	case awaitTopupAmount:
		amount, err := strconv.ParseInt(strings.ReplaceAll(text, ".", ""), 10, 64)
		if err != nil || amount < service.MinTopupAmount {
			return c.Send(fmt.Sprintf("❌ Jumlah tidak valid. Minimal %s, ketik angka saja.", model.FormatRupiah(service.MinTopupAmount)))
		}
		h.awaiter.set(sender.ID, await{kind: awaitTopupProof, amount: amount})
		adminUsername := h.settings.GetString(ctx, "ADMIN_USERNAME", "admin")
		return c.Send(fmt.Sprintf(
			"Transfer *%s* ke rekening yang tercantum di /help.\n\n"+
				"Setelah transfer, kirim foto bukti transfer di sini. "+
				"Ada kendala? Hubungi admin @%s",
			model.FormatRupiah(amount), adminUsername,
		), tele.ModeMarkdown)

	case awaitEmail:
		if !strings.Contains(text, "@") || len(text) > 254 {
			return c.Send("❌ Alamat email tidak valid, coba lagi.")
		}
		if err := h.updateContact(ctx, sender.ID, func(contact *model.Contact) { contact.Email = text }); err != nil {
			return c.Send("❌ Gagal menyimpan email, coba lagi.")
		}
		h.awaiter.Clear(sender.ID)
		return c.Send("✅ Email diperbarui: " + text)

	case awaitPhone:
		digits := strings.TrimPrefix(text, "+")
		if len(digits) < 9 || len(digits) > 15 || strings.Trim(digits, "0123456789") != "" {
			return c.Send("❌ Nomor HP tidak valid, coba lagi.")
		}
		if err := h.updateContact(ctx, sender.ID, func(contact *model.Contact) { contact.Phone = text }); err != nil {
			return c.Send("❌ Gagal menyimpan nomor HP, coba lagi.")
		}
		h.awaiter.Clear(sender.ID)
		return c.Send("✅ Nomor HP diperbarui: " + text)
	}
	return nil
}

func (h *AccountHandler) updateContact(ctx context.Context, telegramID int64, change func(*model.Contact)) error {
	user, err := h.account.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	contact := user.Contact
	change(&contact)
	return h.account.UpdateContact(ctx, user.ID, contact)
}

// HandleTopupPhoto consumes the awaited transfer proof and files the
// top-up request.
func (h *AccountHandler) HandleTopupPhoto(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	w, ok := h.awaiter.get(sender.ID)
	if !ok || w.kind != awaitTopupProof {
		return nil
	}

	photo := c.Message().Photo
	if photo == nil {
		return c.Send("Kirim bukti transfer sebagai foto ya.")
	}

	ctx := context.Background()
	user, err := h.account.GetByTelegramID(ctx, sender.ID)
	if err != nil {
		return c.Send("❌ Gagal memuat akun.")
	}

	req, err := h.account.RequestTopup(ctx, user.ID, w.amount, photo.FileID)
	if err != nil {
		h.awaiter.Clear(sender.ID)
		if errors.Is(err, service.ErrInvalidTopupAmount) {
			return c.Send("❌ " + err.Error())
		}
		return c.Send("❌ Gagal mengajukan top-up, coba lagi.")
	}

	h.awaiter.Clear(sender.ID)
	return c.Send(fmt.Sprintf(
		"✅ Permintaan top-up *%s* (#%d) diterima!\n\n"+
			"Saldo akan masuk setelah transfer diverifikasi oleh tim kami.",
		model.FormatRupiah(req.Amount), req.ID,
	), tele.ModeMarkdown)
}
