package booking

import (
	"strconv"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/realtime"
	"github.com/Dutta2005/TrustCircle/internal/service"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler 处理订单相关的HTTP请求
type BookingHandler struct {
	bookingService service.BookingServiceInterface
	hub            *realtime.Hub
}

func NewBookingHandler(bookingService service.BookingServiceInterface, hub *realtime.Hub) *BookingHandler {
	return &BookingHandler{bookingService, hub}
}

// CreateBooking 创建订单
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req struct {
		ServiceID     string    `json:"service_id" binding:"required"`
		ScheduledDate time.Time `json:"scheduled_date" binding:"required,future_date"`
		DurationHours int       `json:"duration_hours" binding:"required,min=1"`
		Notes         string    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Logger.Warn("创建订单失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), c.GetString("user_id"), req.ServiceID, req.ScheduledDate, req.DurationHours, req.Notes)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	// 通知服务提供者有新订单
	if h.hub != nil {
		h.hub.SendToUser(booking.ProviderID.Hex(), "booking_request", gin.H{"booking": booking})
	}

	errors.HandleCreated(c, gin.H{"booking": booking}, "订单创建成功")
}

// GetBooking 订单详情，仅限订单双方
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBookingByID(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"booking": booking}, "")
}

// ListBookings 我的订单列表，role=provider 时查看接到的订单
func (h *BookingHandler) ListBookings(c *gin.Context) {
	page, limit := pagination(c)

	bookings, total, err := h.bookingService.ListBookings(c.Request.Context(), c.GetString("user_id"), c.Query("role"), c.Query("status"), page, limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"bookings":   bookings,
		"pagination": paging(page, limit, total),
	}, "")
}

// UpdateStatus 推进订单状态
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
		Reason string `json:"reason"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	booking, err := h.bookingService.UpdateBookingStatus(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req.Status, req.Reason, req.Notes)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	// 把状态变更推送给订单对方
	if h.hub != nil {
		counterpart := booking.CustomerID.Hex()
		if c.GetString("user_id") == counterpart {
			counterpart = booking.ProviderID.Hex()
		}
		payload := gin.H{"booking_id": booking.ID.Hex(), "status": booking.Status}
		h.hub.SendToUser(counterpart, "booking_status_update", payload)
		h.hub.BroadcastToRoom(util.BookingRoom(booking.ID.Hex()), "booking_status_update", payload)
	}

	errors.HandleSuccess(c, gin.H{"booking": booking}, "订单状态已更新")
}

// CancellationFee 取消费用预览
func (h *BookingHandler) CancellationFee(c *gin.Context) {
	fee, refund, err := h.bookingService.PreviewCancellationFee(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"cancellation_fee": fee,
		"refund_amount":    refund,
	}, "")
}

// SendMessage 在订单内发送消息
func (h *BookingHandler) SendMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "消息内容不能为空", err))
		return
	}

	message, err := h.bookingService.SendMessage(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req.Content)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastToRoom(util.BookingRoom(c.Param("id")), "booking_message", gin.H{
			"booking_id": c.Param("id"),
			"message":    message,
		})
	}

	errors.HandleCreated(c, gin.H{"message": message}, "消息发送成功")
}

// MarkMessagesRead 将对方发来的消息标记为已读
func (h *BookingHandler) MarkMessagesRead(c *gin.Context) {
	count, err := h.bookingService.MarkMessagesRead(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"marked_read": count}, "")
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func paging(page, limit, total int) gin.H {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return gin.H{
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": totalPages,
	}
}
