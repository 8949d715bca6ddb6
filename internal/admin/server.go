// Package admin serves the web panel used by staff to manage orders,
// users, the package catalog and runtime settings.
package admin

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"hostingbot/internal/config"
	"hostingbot/internal/model"
	"hostingbot/internal/pkg/db"
	"hostingbot/internal/service"
)

// Server is the admin panel HTTP server.
type Server struct {
	settings *service.SettingsService
	catalog  *service.CatalogService
	orders   *service.OrderService
	accounts *service.AccountService
	db       *db.Pool

	jwtSecret    []byte
	sessionTTL   time.Duration
	cookieSecure bool

	httpServer *http.Server
}

// Dependencies bundles everything the panel needs.
type Dependencies struct {
	Config          config.PanelConfig
	SettingsService *service.SettingsService
	CatalogService  *service.CatalogService
	OrderService    *service.OrderService
	AccountService  *service.AccountService
	DB              *db.Pool
	TemplateGlob    string
}

// NewServer builds the panel server and its routes.
func NewServer(deps Dependencies) (*Server, error) {
	if deps.Config.JWTSecret == "" {
		return nil, errors.New("panel jwt secret is required")
	}

	sessionTTL := deps.Config.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}

	s := &Server{
		settings:     deps.SettingsService,
		catalog:      deps.CatalogService,
		orders:       deps.OrderService,
		accounts:     deps.AccountService,
		db:           deps.DB,
		jwtSecret:    []byte(deps.Config.JWTSecret),
		sessionTTL:   sessionTTL,
		cookieSecure: deps.Config.CookieSecure,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(ginLogger(), gin.Recovery())

	engine.SetFuncMap(template.FuncMap{
		"rupiah": model.FormatRupiah,
		"date": func(v any) string {
			return formatTime(v, "02 Jan 2006")
		},
		"datetime": func(v any) string {
			return formatTime(v, "02 Jan 2006 15:04")
		},
		"kindLabel": func(k model.PackageKind) string {
			return k.Label()
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	})

	glob := deps.TemplateGlob
	if glob == "" {
		glob = "web/templates/*.tmpl"
	}
	engine.LoadHTMLGlob(glob)

	s.routes(engine)

	s.httpServer = &http.Server{
		Addr:              deps.Config.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(engine *gin.Engine) {
	engine.GET("/healthz", s.handleHealth)
	engine.GET("/login", s.requireGuest(), s.handleLoginPage)
	engine.POST("/login", s.requireGuest(), s.handleLogin)
	engine.GET("/logout", s.handleLogout)

	authed := engine.Group("/", s.requireAuth())
	{
		authed.GET("/", s.handleDashboard)

		authed.GET("/orders", s.handleOrders)
		authed.GET("/orders/:id", s.handleOrderDetail)
		authed.POST("/orders/:id/status", s.handleOrderStatus)
		authed.POST("/orders/:id/server", s.handleOrderServer)
		authed.POST("/orders/:id/delete", s.handleOrderDelete)

		authed.GET("/users", s.handleUsers)
		authed.GET("/users/:id", s.handleUserDetail)
		authed.POST("/users/:id/balance", s.handleUserBalance)
		authed.POST("/users/:id/password", s.handleUserPassword)
		authed.POST("/users/:id/admin", s.handleUserAdmin)
		authed.POST("/users/:id/delete", s.handleUserDelete)

		authed.GET("/topups", s.handleTopups)
		authed.POST("/topups/:id/resolve", s.handleTopupResolve)

		authed.GET("/packages", s.handlePackages)
		authed.GET("/packages/new", s.handlePackageForm)
		authed.POST("/packages", s.handlePackageCreate)
		authed.GET("/packages/:kind/:id", s.handlePackageForm)
		authed.POST("/packages/:kind/:id", s.handlePackageUpdate)
		authed.POST("/packages/:kind/:id/delete", s.handlePackageDelete)

		authed.GET("/settings", s.handleSettingsPage)
		authed.GET("/settings/api", s.handleSettingsList)
		authed.POST("/settings/api", s.handleSettingCreate)
		authed.PUT("/settings/api/:key", s.handleSettingUpdate)
		authed.DELETE("/settings/api/:key", s.handleSettingDelete)
	}
}

// handleHealth reports liveness for load balancers and uptime monitors. It
// sits outside the auth group.
func (s *Server) handleHealth(c *gin.Context) {
	if s.db != nil {
		if err := s.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Start begins serving and blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	log.Info().Str("listen", s.httpServer.Addr).Msg("admin panel listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// formatTime renders both time.Time values and the optional pointer fields
// on orders and users.
func formatTime(v any, layout string) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(layout)
	case *time.Time:
		if t == nil {
			return "-"
		}
		return t.Format(layout)
	}
	return "-"
}

// ginLogger adapts request logging to the application logger.
func ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("panel request")
	}
}
