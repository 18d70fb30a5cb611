package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"procura/internal/domain/notification"
	"procura/internal/infrastructure/http/v1/dto"
)

// NotificationsHandler exposes the notification delivery log.
type NotificationsHandler struct {
	*BaseHandler
	service *notification.Service
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(base *BaseHandler, service *notification.Service) *NotificationsHandler {
	return &NotificationsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /notifications
func (h *NotificationsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := notification.ListFilter{
		Status:    notification.Status(c.Query("status")),
		Channel:   notification.Channel(c.Query("channel")),
		EventType: c.Query("eventType"),
		Limit:     h.ParseIntQuery(c, "limit", 50),
		Offset:    h.ParseIntQuery(c, "offset", 0),
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}

	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	items, total, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}
