package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hostingbot/internal/model"
	"hostingbot/internal/repository"
	"hostingbot/internal/service"
)

// maskedValue replaces password-type settings in API responses.
const maskedValue = "••••••••"

type settingPayload struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

func apiOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "data": data})
}

func apiFail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func maskSetting(s *model.Setting) *model.Setting {
	if s.Type != model.SettingPassword {
		return s
	}
	masked := *s
	if masked.Value != "" {
		masked.Value = maskedValue
	}
	return &masked
}

func (s *Server) handleSettingsPage(c *gin.Context) {
	settings, err := s.settings.List(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}

	masked := make([]*model.Setting, len(settings))
	categories := make(map[string][]*model.Setting)
	for i, st := range settings {
		masked[i] = maskSetting(st)
		categories[masked[i].Category] = append(categories[masked[i].Category], masked[i])
	}

	c.HTML(http.StatusOK, "settings.tmpl", gin.H{
		"Title":      "Pengaturan",
		"Settings":   masked,
		"Categories": categories,
	})
}

func (s *Server) handleSettingsList(c *gin.Context) {
	settings, err := s.settings.List(c.Request.Context())
	if err != nil {
		apiFail(c, http.StatusInternalServerError, "gagal memuat pengaturan")
		return
	}

	masked := make([]*model.Setting, len(settings))
	for i, st := range settings {
		masked[i] = maskSetting(st)
	}
	apiOK(c, "", masked)
}

func validSettingType(t string) bool {
	switch model.SettingType(t) {
	case model.SettingText, model.SettingNumber, model.SettingBoolean,
		model.SettingJSON, model.SettingPassword:
		return true
	}
	return false
}

func (s *Server) handleSettingCreate(c *gin.Context) {
	var payload settingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		apiFail(c, http.StatusBadRequest, "body tidak valid")
		return
	}
	if payload.Key == "" {
		apiFail(c, http.StatusBadRequest, "key wajib diisi")
		return
	}
	if payload.Type == "" {
		payload.Type = string(model.SettingText)
	}
	if !validSettingType(payload.Type) {
		apiFail(c, http.StatusBadRequest, "tipe pengaturan tidak dikenal")
		return
	}

	setting := &model.Setting{
		Key:         payload.Key,
		Value:       payload.Value,
		Type:        model.SettingType(payload.Type),
		Category:    payload.Category,
		Description: payload.Description,
		IsPublic:    payload.IsPublic,
	}
	if err := s.settings.Set(c.Request.Context(), setting); err != nil {
		apiFail(c, http.StatusInternalServerError, "gagal menyimpan pengaturan")
		return
	}

	apiOK(c, "Pengaturan disimpan", maskSetting(setting))
}

func (s *Server) handleSettingUpdate(c *gin.Context) {
	key := c.Param("key")

	current, err := s.settings.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, repository.ErrSettingNotFound) {
			apiFail(c, http.StatusNotFound, "pengaturan tidak ditemukan")
			return
		}
		apiFail(c, http.StatusInternalServerError, "gagal memuat pengaturan")
		return
	}

	var payload settingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		apiFail(c, http.StatusBadRequest, "body tidak valid")
		return
	}

	// Only the value changes through this endpoint; the masked placeholder
	// means the client did not touch a password field.
	if current.Type == model.SettingPassword && payload.Value == maskedValue {
		apiOK(c, "Tidak ada perubahan", maskSetting(current))
		return
	}

	updated := *current
	updated.Value = payload.Value
	if err := s.settings.Set(c.Request.Context(), &updated); err != nil {
		apiFail(c, http.StatusInternalServerError, "gagal menyimpan pengaturan")
		return
	}

	message := "Pengaturan disimpan"
	if key == service.BotTokenKey {
		message = "Token disimpan, bot dimulai ulang dengan token baru"
	}
	apiOK(c, message, maskSetting(&updated))
}

func (s *Server) handleSettingDelete(c *gin.Context) {
	key := c.Param("key")
	if err := s.settings.Delete(c.Request.Context(), key); err != nil {
		if errors.Is(err, repository.ErrSettingNotFound) {
			apiFail(c, http.StatusNotFound, "pengaturan tidak ditemukan")
			return
		}
		apiFail(c, http.StatusInternalServerError, "gagal menghapus pengaturan")
		return
	}
	apiOK(c, "Pengaturan dihapus", nil)
}
