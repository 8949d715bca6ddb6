package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hostingbot/internal/model"
	"hostingbot/internal/repository"
	"hostingbot/internal/service"
)

const pageSize = 20

func parsePage(c *gin.Context) (page, offset int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * pageSize
}

func (s *Server) handleOrders(c *gin.Context) {
	status := c.Query("status")
	if status != "" {
		if _, ok := model.ParseOrderStatus(status); !ok {
			status = ""
		}
	}
	kind := c.Query("kind")
	if kind != "" {
		if _, err := model.ParsePackageKind(kind); err != nil {
			kind = ""
		}
	}

	page, offset := parsePage(c)
	orders, total, err := s.orders.ListFiltered(c.Request.Context(), status, kind, pageSize, offset)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "orders.tmpl", gin.H{
		"Title":      "Pesanan",
		"Orders":     orders,
		"Total":      total,
		"Page":       page,
		"TotalPages": (total + pageSize - 1) / pageSize,
		"Status":     status,
		"Kind":       kind,
		"Message":    c.Query("msg"),
	})
}

func (s *Server) handleOrderDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/orders")
		return
	}

	ctx := c.Request.Context()
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			c.Redirect(http.StatusFound, "/orders")
			return
		}
		s.renderError(c, err)
		return
	}

	user, err := s.accounts.GetByID(ctx, order.UserID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		s.renderError(c, err)
		return
	}

	// The package may have been deleted after the order was placed.
	pkg, err := s.catalog.Get(ctx, order.Package)
	if err != nil && !errors.Is(err, repository.ErrPackageNotFound) {
		s.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "order_detail.tmpl", gin.H{
		"Title":        "Pesanan " + order.Reference,
		"Order":        order,
		"User":         user,
		"Package":      pkg,
		"NextStatuses": nextStatuses(order.Status),
		"Message":      c.Query("msg"),
		"Error":        c.Query("err"),
	})
}

// nextStatuses lists the statuses the detail form may move an order to,
// per the transition table.
func nextStatuses(from model.OrderStatus) []model.OrderStatus {
	var out []model.OrderStatus
	for _, st := range []model.OrderStatus{
		model.StatusProcessing, model.StatusCompleted, model.StatusCancelled,
		model.StatusFailed, model.StatusExpired,
	} {
		if model.CanTransition(from, st) {
			out = append(out, st)
		}
	}
	return out
}

func (s *Server) handleOrderStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/orders")
		return
	}

	status, ok := model.ParseOrderStatus(c.PostForm("status"))
	if !ok {
		c.Redirect(http.StatusFound, fmt.Sprintf("/orders/%d?err=Status+tidak+dikenal", id))
		return
	}

	note := c.PostForm("note")
	if note == "" {
		note = fmt.Sprintf("Status diubah ke %s oleh %s", status, c.GetString("admin_username"))
	}

	if _, err := s.orders.UpdateStatus(c.Request.Context(), id, status, note); err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			c.Redirect(http.StatusFound, fmt.Sprintf("/orders/%d?err=Transisi+status+tidak+valid", id))
			return
		}
		s.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/orders/%d?msg=Status+diperbarui", id))
}

func (s *Server) handleOrderServer(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/orders")
		return
	}

	details := &model.ServerDetails{
		Hostname:  c.PostForm("hostname"),
		IPAddress: c.PostForm("ip_address"),
		Username:  c.PostForm("username"),
		Password:  c.PostForm("password"),
	}
	if url := c.PostForm("panel_url"); url != "" {
		details.ControlPanel = &model.ControlPanelAccess{
			URL:      url,
			Username: c.PostForm("panel_username"),
			Password: c.PostForm("panel_password"),
		}
	}

	if _, err := s.orders.AttachServerDetails(c.Request.Context(), id, details); err != nil {
		s.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/orders/%d?msg=Detail+server+disimpan", id))
}

func (s *Server) handleOrderDelete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/orders")
		return
	}

	if err := s.orders.Delete(c.Request.Context(), id); err != nil {
		s.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/orders?msg=Pesanan+dihapus")
}
