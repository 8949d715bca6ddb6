package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	orderStats, err := s.orders.Stats(ctx)
	if err != nil {
		s.renderError(c, err)
		return
	}

	totalUsers, adminUsers, err := s.accounts.Counts(ctx)
	if err != nil {
		s.renderError(c, err)
		return
	}

	packageCounts, err := s.catalog.Counts(ctx)
	if err != nil {
		s.renderError(c, err)
		return
	}

	recentOrders, err := s.orders.Recent(ctx, 10)
	if err != nil {
		s.renderError(c, err)
		return
	}

	recentUsers, err := s.accounts.RecentUsers(ctx, 5)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "dashboard.tmpl", gin.H{
		"Title":         "Dashboard",
		"Admin":         c.GetString("admin_username"),
		"OrderStats":    orderStats,
		"TotalUsers":    totalUsers,
		"AdminUsers":    adminUsers,
		"PackageCounts": packageCounts,
		"RecentOrders":  recentOrders,
		"RecentUsers":   recentUsers,
	})
}

// renderError logs and shows a plain failure page. Controllers use it for
// unexpected storage errors; expected conditions get their own messages.
func (s *Server) renderError(c *gin.Context, err error) {
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("panel handler failed")
	c.HTML(http.StatusInternalServerError, "error.tmpl", gin.H{
		"Title": "Kesalahan",
		"Error": "Terjadi kesalahan internal",
	})
}
