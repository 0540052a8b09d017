package community

import (
	"strconv"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/realtime"
	"github.com/Dutta2005/TrustCircle/internal/repository/interfaces"
	"github.com/Dutta2005/TrustCircle/internal/service"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CommunityHandler 处理社区动态相关的HTTP请求
type CommunityHandler struct {
	communityService service.CommunityServiceInterface
	hub              *realtime.Hub
}

func NewCommunityHandler(communityService service.CommunityServiceInterface, hub *realtime.Hub) *CommunityHandler {
	return &CommunityHandler{communityService, hub}
}

// CreatePost 发布帖子
func (h *CommunityHandler) CreatePost(c *gin.Context) {
	var req struct {
		Type      string           `json:"type" binding:"required"`
		Category  string           `json:"category" binding:"required"`
		Title     string           `json:"title" binding:"required"`
		Content   string           `json:"content" binding:"required"`
		Images    []string         `json:"images"`
		Address   model.Address    `json:"address"`
		Lng       float64          `json:"lng"`
		Lat       float64          `json:"lat"`
		Event     *model.EventInfo `json:"event"`
		ExpiresAt *time.Time       `json:"expires_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Logger.Warn("发帖失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	authorID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
		return
	}

	post := &model.Post{
		AuthorID:  authorID,
		Type:      req.Type,
		Category:  req.Category,
		Title:     req.Title,
		Content:   req.Content,
		Images:    req.Images,
		Address:   req.Address,
		Location:  model.NewGeoPoint(req.Lng, req.Lat),
		Event:     req.Event,
		ExpiresAt: req.ExpiresAt,
	}

	if err := h.communityService.CreatePost(c.Request.Context(), post); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleCreated(c, gin.H{"post": post}, "发布成功")
}

// GetPost 帖子详情
func (h *CommunityHandler) GetPost(c *gin.Context) {
	post, err := h.communityService.GetPostByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"post": post}, "")
}

// UpdatePost 修改帖子，仅限作者
func (h *CommunityHandler) UpdatePost(c *gin.Context) {
	var req struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Images  []string `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	post, err := h.communityService.UpdatePost(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req.Title, req.Content, req.Images)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"post": post}, "帖子已更新")
}

// DeletePost 删除帖子，作者或管理员
func (h *CommunityHandler) DeletePost(c *gin.Context) {
	isAdmin := false
	if value, exists := c.Get("current_user"); exists {
		if user, ok := value.(*model.User); ok {
			isAdmin = user.IsAdmin()
		}
	}

	if err := h.communityService.DeletePost(c.Request.Context(), c.Param("id"), c.GetString("user_id"), isAdmin); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "帖子已删除")
}

// ListPosts 社区动态流，支持类型/类别/城市筛选
func (h *CommunityHandler) ListPosts(c *gin.Context) {
	page, limit := pagination(c)

	filters := interfaces.PostFilters{
		Type:     c.Query("type"),
		Category: c.Query("category"),
		City:     c.Query("city"),
	}
	if authorID, err := primitive.ObjectIDFromHex(c.Query("author_id")); err == nil {
		filters.Author = authorID
	}

	posts, total, err := h.communityService.ListPosts(c.Request.Context(), filters, page, limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"posts":      posts,
		"pagination": paging(page, limit, total),
	}, "")
}

// NearbyPosts 附近的帖子，radius 为英里
func (h *CommunityHandler) NearbyPosts(c *gin.Context) {
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	if errLng != nil || errLat != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "缺少或无效的经纬度"))
		return
	}

	radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "5"), 64)
	if err != nil || radius <= 0 {
		radius = 5
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	posts, err := h.communityService.FindNearby(c.Request.Context(), lng, lat, radius, c.Query("type"), limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"posts": posts}, "")
}

// UpcomingEvents 即将开始的活动
func (h *CommunityHandler) UpcomingEvents(c *gin.Context) {
	page, limit := pagination(c)

	posts, total, err := h.communityService.GetUpcomingEvents(c.Request.Context(), page, limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"events":     posts,
		"pagination": paging(page, limit, total),
	}, "")
}

// TrendingPosts 按互动热度排序的热门帖子
func (h *CommunityHandler) TrendingPosts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 50 {
		limit = 10
	}

	posts, err := h.communityService.GetTrendingPosts(c.Request.Context(), limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"posts": posts}, "")
}

// LikePost 点赞/取消点赞
func (h *CommunityHandler) LikePost(c *gin.Context) {
	var req struct {
		Like *bool `json:"like" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	post, changed, err := h.communityService.LikePost(c.Request.Context(), c.Param("id"), c.GetString("user_id"), *req.Like)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	// 点赞变化推送给作者和社区动态流
	if h.hub != nil && changed {
		payload := gin.H{
			"post_id":    c.Param("id"),
			"user_id":    c.GetString("user_id"),
			"like":       *req.Like,
			"like_count": len(post.Likes),
		}
		h.hub.SendToUser(post.AuthorID.Hex(), "community_post_like", payload)
		h.hub.BroadcastToRoom(realtime.CommunityFeedRoom, "community_post_like", payload)
	}

	errors.HandleSuccess(c, gin.H{
		"like_count": len(post.Likes),
		"changed":    changed,
	}, "")
}

// BookmarkPost 收藏/取消收藏
func (h *CommunityHandler) BookmarkPost(c *gin.Context) {
	var req struct {
		Bookmark *bool `json:"bookmark" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	post, changed, err := h.communityService.BookmarkPost(c.Request.Context(), c.Param("id"), c.GetString("user_id"), *req.Bookmark)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"bookmark_count": len(post.Bookmarks),
		"changed":        changed,
	}, "")
}

// AttendEvent 报名/取消报名活动
func (h *CommunityHandler) AttendEvent(c *gin.Context) {
	var req struct {
		Attend *bool `json:"attend" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	post, err := h.communityService.AttendEvent(c.Request.Context(), c.Param("id"), c.GetString("user_id"), *req.Attend)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	msg := "已取消报名"
	if *req.Attend {
		msg = "报名成功"
	}
	errors.HandleSuccess(c, gin.H{"attendee_count": len(post.Attendees)}, msg)
}

// CheckInAttendee 活动签到，仅限活动发起者操作
func (h *CommunityHandler) CheckInAttendee(c *gin.Context) {
	var req struct {
		AttendeeID string `json:"attendee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	if err := h.communityService.CheckInAttendee(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req.AttendeeID); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "签到成功")
}

// AddComment 发表评论，parent_id 为回复目标评论
func (h *CommunityHandler) AddComment(c *gin.Context) {
	var req struct {
		Content  string  `json:"content" binding:"required"`
		ParentID *string `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "评论内容不能为空", err))
		return
	}

	comment, err := h.communityService.AddComment(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req.ParentID, req.Content)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	// 评论推送给作者和社区动态流
	if h.hub != nil {
		payload := gin.H{"post_id": c.Param("id"), "comment": comment}
		if post, err := h.communityService.GetPostByID(c.Request.Context(), c.Param("id")); err == nil {
			h.hub.SendToUser(post.AuthorID.Hex(), "community_post_comment", payload)
		}
		h.hub.BroadcastToRoom(realtime.CommunityFeedRoom, "community_post_comment", payload)
	}

	errors.HandleCreated(c, gin.H{"comment": comment}, "评论成功")
}

// FlagPost 举报帖子
func (h *CommunityHandler) FlagPost(c *gin.Context) {
	if err := h.communityService.FlagPost(c.Request.Context(), c.Param("id"), c.GetString("user_id")); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "举报已受理")
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
