package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hostingbot/internal/model"
	"hostingbot/internal/repository"
	"hostingbot/internal/service"
)

var packageKinds = []model.PackageKind{
	model.KindVPS, model.KindWebHosting, model.KindGameHosting,
}

func (s *Server) handlePackages(c *gin.Context) {
	kind := model.KindVPS
	if q := c.Query("kind"); q != "" {
		if parsed, err := model.ParsePackageKind(q); err == nil {
			kind = parsed
		}
	}

	packages, err := s.catalog.ListAll(c.Request.Context(), kind)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "packages.tmpl", gin.H{
		"Title":    "Paket",
		"Kind":     kind,
		"Kinds":    packageKinds,
		"Packages": packages,
		"Message":  c.Query("msg"),
		"Error":    c.Query("err"),
	})
}

// handlePackageForm renders the create form (no route params) or the edit
// form for an existing package.
func (s *Server) handlePackageForm(c *gin.Context) {
	data := gin.H{
		"Title": "Paket Baru",
		"Kinds": packageKinds,
		"Error": c.Query("err"),
	}

	if kindStr := c.Param("kind"); kindStr != "" {
		ref, err := parsePackageRef(c)
		if err != nil {
			c.Redirect(http.StatusFound, "/packages")
			return
		}
		pkg, err := s.catalog.Get(c.Request.Context(), ref)
		if err != nil {
			if errors.Is(err, repository.ErrPackageNotFound) {
				c.Redirect(http.StatusFound, "/packages")
				return
			}
			s.renderError(c, err)
			return
		}
		data["Title"] = "Edit " + pkg.Name
		data["Package"] = pkg
		data["SpecJSON"] = specJSON(pkg)
		data["FeatureLines"] = strings.Join(pkg.Features, "\n")
	}

	c.HTML(http.StatusOK, "package_form.tmpl", data)
}

func (s *Server) handlePackageCreate(c *gin.Context) {
	pkg, err := packageFromForm(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/packages/new?err="+formErr(err))
		return
	}

	if err := s.catalog.Create(c.Request.Context(), pkg); err != nil {
		s.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/packages?kind=%s&msg=Paket+dibuat", pkg.Kind))
}

func (s *Server) handlePackageUpdate(c *gin.Context) {
	ref, err := parsePackageRef(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/packages")
		return
	}

	pkg, err := packageFromForm(c)
	if err != nil {
		c.Redirect(http.StatusFound, fmt.Sprintf("/packages/%s/%d?err=%s", ref.Kind, ref.ID, formErr(err)))
		return
	}
	if pkg.Kind != ref.Kind {
		c.Redirect(http.StatusFound, fmt.Sprintf("/packages/%s/%d?err=Jenis+paket+tidak+bisa+diubah", ref.Kind, ref.ID))
		return
	}
	pkg.ID = ref.ID

	if err := s.catalog.Update(c.Request.Context(), pkg); err != nil {
		if errors.Is(err, repository.ErrPackageNotFound) {
			c.Redirect(http.StatusFound, "/packages")
			return
		}
		s.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/packages?kind=%s&msg=Paket+diperbarui", pkg.Kind))
}

func (s *Server) handlePackageDelete(c *gin.Context) {
	ref, err := parsePackageRef(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/packages")
		return
	}

	if err := s.catalog.Delete(c.Request.Context(), ref); err != nil {
		if errors.Is(err, service.ErrPackageInUse) {
			c.Redirect(http.StatusFound, fmt.Sprintf("/packages?kind=%s&err=Paket+masih+dipakai+pesanan+aktif", ref.Kind))
			return
		}
		s.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/packages?kind=%s&msg=Paket+dihapus", ref.Kind))
}

func parsePackageRef(c *gin.Context) (model.PackageRef, error) {
	kind, err := model.ParsePackageKind(c.Param("kind"))
	if err != nil {
		return model.PackageRef{}, err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return model.PackageRef{}, err
	}
	return model.PackageRef{Kind: kind, ID: id}, nil
}

// packageFromForm builds a package from the admin form. The kind-specific
// specification is submitted as one JSON blob and validated by decoding it
// into the matching spec type.
func packageFromForm(c *gin.Context) (*model.Package, error) {
	kind, err := model.ParsePackageKind(c.PostForm("kind"))
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		return nil, errors.New("nama paket wajib diisi")
	}

	pkg := &model.Package{
		Kind:        kind,
		Name:        name,
		Description: strings.TrimSpace(c.PostForm("description")),
		IsAvailable: c.PostForm("is_available") == "true",
	}

	for _, line := range strings.Split(c.PostForm("features"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			pkg.Features = append(pkg.Features, line)
		}
	}

	pkg.SortOrder, _ = strconv.Atoi(c.PostForm("sort_order"))

	pkg.Pricing.Monthly, err = parsePrice(c.PostForm("price_monthly"))
	if err != nil {
		return nil, err
	}
	pkg.Pricing.Quarterly, err = parsePrice(c.PostForm("price_quarterly"))
	if err != nil {
		return nil, err
	}
	pkg.Pricing.Yearly, err = parsePrice(c.PostForm("price_yearly"))
	if err != nil {
		return nil, err
	}
	pkg.Pricing.Setup, err = parsePrice(c.PostForm("price_setup"))
	if err != nil {
		return nil, err
	}
	if pkg.Pricing.Monthly <= 0 && pkg.Pricing.Quarterly <= 0 && pkg.Pricing.Yearly <= 0 {
		return nil, errors.New("minimal satu siklus penagihan harus punya harga")
	}

	if pctStr := strings.TrimSpace(c.PostForm("discount_percentage")); pctStr != "" {
		pct, err := strconv.ParseFloat(pctStr, 64)
		if err != nil || pct <= 0 || pct > 100 {
			return nil, errors.New("persentase diskon tidak valid")
		}
		until, err := time.Parse("2006-01-02", c.PostForm("discount_valid_until"))
		if err != nil {
			return nil, errors.New("tanggal akhir diskon tidak valid")
		}
		pkg.Discount = &model.Discount{Percentage: pct, ValidUntil: until}
	}

	specRaw := strings.TrimSpace(c.PostForm("specifications"))
	if specRaw == "" {
		specRaw = "{}"
	}
	dec := json.NewDecoder(strings.NewReader(specRaw))
	dec.DisallowUnknownFields()
	switch kind {
	case model.KindVPS:
		pkg.Vps = &model.VpsSpec{}
		err = dec.Decode(pkg.Vps)
	case model.KindWebHosting:
		pkg.Web = &model.WebHostingSpec{}
		err = dec.Decode(pkg.Web)
	case model.KindGameHosting:
		pkg.Game = &model.GameHostingSpec{}
		err = dec.Decode(pkg.Game)
	}
	if err != nil {
		return nil, fmt.Errorf("spesifikasi tidak valid: %w", err)
	}

	return pkg, nil
}

func parsePrice(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ".", ""))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, errors.New("harga tidak valid")
	}
	return v, nil
}

func specJSON(pkg *model.Package) string {
	var spec any
	switch pkg.Kind {
	case model.KindVPS:
		spec = pkg.Vps
	case model.KindWebHosting:
		spec = pkg.Web
	case model.KindGameHosting:
		spec = pkg.Game
	}
	out, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

func formErr(err error) string {
	return strings.ReplaceAll(err.Error(), " ", "+")
}
