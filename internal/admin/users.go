package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hostingbot/internal/repository"
	"hostingbot/internal/service"
)

func (s *Server) handleUsers(c *gin.Context) {
	query := c.Query("q")
	page, offset := parsePage(c)

	users, total, err := s.accounts.Search(c.Request.Context(), query, pageSize, offset)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "users.tmpl", gin.H{
		"Title":      "Pengguna",
		"Users":      users,
		"Total":      total,
		"Page":       page,
		"TotalPages": (total + pageSize - 1) / pageSize,
		"Query":      query,
		"Message":    c.Query("msg"),
		"Error":      c.Query("err"),
	})
}

func (s *Server) handleUserDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/users")
		return
	}

	ctx := c.Request.Context()
	user, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.Redirect(http.StatusFound, "/users")
			return
		}
		s.renderError(c, err)
		return
	}

	stats, err := s.accounts.OrderStats(ctx, id)
	if err != nil {
		s.renderError(c, err)
		return
	}

	orders, err := s.orders.ListByUser(ctx, id, 20)
	if err != nil {
		s.renderError(c, err)
		return
	}

	transactions, err := s.accounts.Transactions(ctx, id, 20)
	if err != nil {
		s.renderError(c, err)
		return
	}

	topups, err := s.accounts.TopupHistory(ctx, id, 10)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "user_detail.tmpl", gin.H{
		"Title":        user.DisplayName(),
		"User":         user,
		"Stats":        stats,
		"Orders":       orders,
		"Transactions": transactions,
		"Topups":       topups,
		"Message":      c.Query("msg"),
		"Error":        c.Query("err"),
	})
}

func (s *Server) handleUserBalance(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/users")
		return
	}

	amount, err := strconv.ParseInt(c.PostForm("amount"), 10, 64)
	if err != nil || amount == 0 {
		c.Redirect(http.StatusFound, fmt.Sprintf("/users/%d?err=Jumlah+tidak+valid", id))
		return
	}

	reason := c.PostForm("reason")
	if reason == "" {
		reason = "Penyesuaian oleh " + c.GetString("admin_username")
	}

	if _, err := s.accounts.AdjustBalance(c.Request.Context(), id, amount, reason); err != nil {
		s.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/users/%d?msg=Saldo+diperbarui", id))
}

func (s *Server) handleUserPassword(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/users")
		return
	}

	if err := s.accounts.SetPassword(c.Request.Context(), id, c.PostForm("password")); err != nil {
		if errors.Is(err, service.ErrPasswordTooShort) {
			c.Redirect(http.StatusFound, fmt.Sprintf("/users/%d?err=Password+minimal+6+karakter", id))
			return
		}
		s.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/users/%d?msg=Password+disimpan", id))
}

func (s *Server) handleUserAdmin(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/users")
		return
	}

	isAdmin := c.PostForm("is_admin") == "true"
	if err := s.accounts.SetAdmin(c.Request.Context(), id, isAdmin); err != nil {
		s.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/users/%d?msg=Hak+admin+diperbarui", id))
}

func (s *Server) handleUserDelete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/users")
		return
	}

	if err := s.accounts.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrUserHasActiveOrders) {
			c.Redirect(http.StatusFound, fmt.Sprintf("/users/%d?err=Pengguna+masih+punya+layanan+aktif", id))
			return
		}
		s.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/users?msg=Pengguna+dihapus")
}

func (s *Server) handleTopups(c *gin.Context) {
	topups, err := s.accounts.PendingTopups(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "topups.tmpl", gin.H{
		"Title":   "Permintaan Top-up",
		"Topups":  topups,
		"Message": c.Query("msg"),
		"Error":   c.Query("err"),
	})
}

func (s *Server) handleTopupResolve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/topups")
		return
	}

	approve := c.PostForm("action") == "approve"
	if _, err := s.accounts.ResolveTopup(c.Request.Context(), id, approve); err != nil {
		switch {
		case errors.Is(err, repository.ErrTopupResolved):
			c.Redirect(http.StatusFound, "/topups?err=Permintaan+sudah+diproses")
		case errors.Is(err, repository.ErrTopupNotFound):
			c.Redirect(http.StatusFound, "/topups?err=Permintaan+tidak+ditemukan")
		default:
			s.renderError(c, err)
		}
		return
	}

	if approve {
		c.Redirect(http.StatusFound, "/topups?msg=Top-up+disetujui")
	} else {
		c.Redirect(http.StatusFound, "/topups?msg=Top-up+ditolak")
	}
}
