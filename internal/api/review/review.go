package review

import (
	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/service"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReviewHandler 处理评价相关的HTTP请求
type ReviewHandler struct {
	reviewService service.ReviewServiceInterface
}

func NewReviewHandler(reviewService service.ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{reviewService}
}

// CreateReview 对已完成订单发表评价
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req struct {
		BookingID  string            `json:"booking_id" binding:"required"`
		Rating     int               `json:"rating" binding:"required,min=1,max=5"`
		Comment    string            `json:"comment"`
		Dimensions *model.Dimensions `json:"dimensions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Logger.Warn("发表评价失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), c.GetString("user_id"), req.BookingID, req.Rating, req.Comment, req.Dimensions)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleCreated(c, gin.H{"review": review}, "评价发表成功")
}

// GetReview 评价详情
func (h *ReviewHandler) GetReview(c *gin.Context) {
	review, err := h.reviewService.GetReviewByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"review": review}, "")
}

// UpdateReview 发表后24小时内可修改
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	var req struct {
		Rating     int               `json:"rating" binding:"required,min=1,max=5"`
		Comment    string            `json:"comment"`
		Dimensions *model.Dimensions `json:"dimensions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req.Rating, req.Comment, req.Dimensions)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"review": review}, "评价已更新")
}

// DeleteReview 删除评价，本人或管理员
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	isAdmin := false
	if value, exists := c.Get("current_user"); exists {
		if user, ok := value.(*model.User); ok {
			isAdmin = user.IsAdmin()
		}
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), c.Param("id"), c.GetString("user_id"), isAdmin); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "评价已删除")
}

// VoteHelpful 有用/无用投票
func (h *ReviewHandler) VoteHelpful(c *gin.Context) {
	var req struct {
		Helpful *bool `json:"helpful" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	review, err := h.reviewService.VoteHelpful(c.Request.Context(), c.Param("id"), c.GetString("user_id"), *req.Helpful)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"review": review}, "投票成功")
}

// FlagReview 举报评价
func (h *ReviewHandler) FlagReview(c *gin.Context) {
	if err := h.reviewService.FlagReview(c.Request.Context(), c.Param("id"), c.GetString("user_id")); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "举报已受理")
}

// RespondToReview 被评价方回复评价
func (h *ReviewHandler) RespondToReview(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "回复内容不能为空", err))
		return
	}

	review, err := h.reviewService.RespondToReview(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req.Content)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"review": review}, "回复成功")
}
