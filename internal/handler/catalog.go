package handler

import (
	"context"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"

	"hostingbot/internal/checkout"
	"hostingbot/internal/model"
	"hostingbot/internal/service"
)

// Callback unique for opening a package detail.
const CbPackage = "pkg" // pkg|<kind>|<id>

// CatalogHandler shows the three package catalogs.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// HandleVps handles /vps and the VPS menu button.
func (h *CatalogHandler) HandleVps(c tele.Context) error {
	return h.list(c, model.KindVPS)
}

// HandleWebHosting handles /webhosting and the hosting menu button.
func (h *CatalogHandler) HandleWebHosting(c tele.Context) error {
	return h.list(c, model.KindWebHosting)
}

// HandleGameHosting handles /gamehosting and the game hosting menu button.
func (h *CatalogHandler) HandleGameHosting(c tele.Context) error {
	return h.list(c, model.KindGameHosting)
}

func (h *CatalogHandler) list(c tele.Context, kind model.PackageKind) error {
	ctx := context.Background()

	pkgs, err := h.catalog.ListAvailable(ctx, kind)
	if err != nil {
		return c.Send("❌ Gagal memuat daftar paket, coba lagi nanti.")
	}
	if len(pkgs) == 0 {
		return c.Send("😔 Belum ada paket " + kind.Label() + " yang tersedia saat ini.")
	}

	now := time.Now()
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, pkg := range pkgs {
		price, err := model.CheckoutAmount(pkg.Pricing, pkg.Discount, model.CycleMonthly, now)
		label := pkg.Name
		if err == nil {
			label += " — " + model.FormatRupiah(price) + "/bln"
		}
		if pkg.Discount.ActiveAt(now) {
			label = "🔥 " + label
		}
		rows = append(rows, markup.Row(
			markup.Data(label, CbPackage, string(kind), strconv.FormatInt(pkg.ID, 10)),
		))
	}
	markup.Inline(rows...)

	return c.Send("📦 *Paket "+kind.Label()+"*\n\nPilih paket untuk melihat detail:", markup, tele.ModeMarkdown)
}

// HandlePackageCallback shows one package's full detail with a buy button.
func (h *CatalogHandler) HandlePackageCallback(c tele.Context, args []string) error {
	if len(args) != 2 {
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
	pkg, err := h.catalog.GetAvailable(ctx, model.PackageRef{Kind: kind, ID: id})
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Paket tidak tersedia"})
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(checkout.BuyButton(markup, pkg)))

	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(checkout.PackageCaption(pkg, time.Now()), markup, tele.ModeMarkdown)
}
