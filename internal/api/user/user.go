package user

import (
	"strconv"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/service"
	"github.com/gin-gonic/gin"
)

// UserHandler 公开的用户查询接口
type UserHandler struct {
	userService    service.UserServiceInterface
	listingService service.ListingServiceInterface
	reviewService  service.ReviewServiceInterface
}

func NewUserHandler(userService service.UserServiceInterface, listingService service.ListingServiceInterface, reviewService service.ReviewServiceInterface) *UserHandler {
	return &UserHandler{userService, listingService, reviewService}
}

// GetUser 查看某个用户的公开资料
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	if !user.IsActive {
		errors.HandleError(c, errors.New(errors.ErrUserNotFound, "用户不存在"))
		return
	}

	errors.HandleSuccess(c, gin.H{
		"user": gin.H{
			"id":           user.ID,
			"name":         user.Name,
			"bio":          user.Bio,
			"avatar_url":   user.AvatarURL,
			"reputation":   user.Reputation,
			"verification": user.Verification,
			"created_at":   user.CreatedAt,
		},
	}, "")
}

// SearchUsers 按昵称或简介搜索用户
func (h *UserHandler) SearchUsers(c *gin.Context) {
	keyword := c.Query("q")
	if keyword == "" {
		errors.HandleError(c, errors.New(errors.ErrValidation, "缺少搜索关键词"))
		return
	}
	page, limit := pagination(c)

	users, total, err := h.userService.SearchUsers(c.Request.Context(), keyword, page, limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"users":      users,
		"pagination": paging(page, limit, total),
	}, "")
}

// GetUserServices 某用户发布的服务
func (h *UserHandler) GetUserServices(c *gin.Context) {
	page, limit := pagination(c)

	services, total, err := h.listingService.GetServicesByProvider(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"services":   services,
		"pagination": paging(page, limit, total),
	}, "")
}

// GetUserReviews 某用户收到的评价
func (h *UserHandler) GetUserReviews(c *gin.Context) {
	page, limit := pagination(c)

	reviews, total, err := h.reviewService.GetReviewsByUser(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"reviews":    reviews,
		"pagination": paging(page, limit, total),
	}, "")
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
