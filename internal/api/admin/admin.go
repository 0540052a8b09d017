package admin

import (
	"strconv"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/service"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler 管理端接口，全部路由都挂在管理员中间件之后
type AdminHandler struct {
	adminService service.AdminServiceInterface
	userService  service.UserServiceInterface
	onlineCount  func() int
}

// NewAdminHandler 的 onlineCount 用于统计当前在线的实时连接数
func NewAdminHandler(adminService service.AdminServiceInterface, userService service.UserServiceInterface, onlineCount func() int) *AdminHandler {
	return &AdminHandler{adminService, userService, onlineCount}
}

// ListUsers 用户列表
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := pagination(c)

	users, total, err := h.userService.GetUsers(c.Request.Context(), page, limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"users":      users,
		"pagination": paging(page, limit, total),
	}, "")
}

// SuspendUser 封禁用户
func (h *AdminHandler) SuspendUser(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "必须填写封禁原因", err))
		return
	}

	if err := h.adminService.SuspendUser(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		errors.HandleError(c, err)
		return
	}

	util.Logger.Info("用户已被封禁",
		zap.String("user_id", c.Param("id")),
		zap.String("admin_id", c.GetString("user_id")))
	errors.HandleSuccess(c, nil, "用户已封禁")
}

// ReactivateUser 解除封禁
func (h *AdminHandler) ReactivateUser(c *gin.Context) {
	if err := h.adminService.ReactivateUser(c.Request.Context(), c.Param("id")); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "用户已恢复")
}

// FlaggedReviews 待处理的被举报评价
func (h *AdminHandler) FlaggedReviews(c *gin.Context) {
	page, limit := pagination(c)

	reviews, total, err := h.adminService.GetFlaggedReviews(c.Request.Context(), page, limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"reviews":    reviews,
		"pagination": paging(page, limit, total),
	}, "")
}

// ModerateReview 审核被举报的评价，decision 为 approved 或 rejected
func (h *AdminHandler) ModerateReview(c *gin.Context) {
	var req struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	if err := h.adminService.ModerateReview(c.Request.Context(), c.Param("id"), req.Decision); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "审核完成")
}

// FlaggedPosts 待处理的被举报帖子
func (h *AdminHandler) FlaggedPosts(c *gin.Context) {
	page, limit := pagination(c)

	posts, total, err := h.adminService.GetFlaggedPosts(c.Request.Context(), page, limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"posts":      posts,
		"pagination": paging(page, limit, total),
	}, "")
}

// ModeratePost 审核被举报的帖子，decision 为 restore 或 remove
func (h *AdminHandler) ModeratePost(c *gin.Context) {
	var req struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	if err := h.adminService.ModeratePost(c.Request.Context(), c.Param("id"), req.Decision); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "审核完成")
}

// Stats 平台运行统计
func (h *AdminHandler) Stats(c *gin.Context) {
	online := 0
	if h.onlineCount != nil {
		online = h.onlineCount()
	}

	stats, err := h.adminService.GetSystemStats(c.Request.Context(), online)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"stats": stats}, "")
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
