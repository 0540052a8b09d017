package listing

import (
	"fmt"
	"strconv"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/repository/interfaces"
	"github.com/Dutta2005/TrustCircle/internal/service"
	"github.com/Dutta2005/TrustCircle/internal/storage"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ListingHandler 处理服务发布与搜索相关的HTTP请求
type ListingHandler struct {
	listingService service.ListingServiceInterface
	reviewService  service.ReviewServiceInterface
	storage        storage.Storage
}

func NewListingHandler(listingService service.ListingServiceInterface, reviewService service.ReviewServiceInterface, storage storage.Storage) *ListingHandler {
	return &ListingHandler{listingService, reviewService, storage}
}

type serviceRequest struct {
	Title        string             `json:"title" binding:"required"`
	Description  string             `json:"description" binding:"required"`
	Category     string             `json:"category" binding:"required"`
	Pricing      model.Pricing      `json:"pricing" binding:"required"`
	Address      model.Address      `json:"address"`
	Lng          float64            `json:"lng"`
	Lat          float64            `json:"lat"`
	Availability model.Availability `json:"availability"`
}

// CreateService 发布新服务
func (h *ListingHandler) CreateService(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Logger.Warn("发布服务失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	providerID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
		return
	}

	svc := &model.Service{
		ProviderID:   providerID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Pricing:      req.Pricing,
		Address:      req.Address,
		Location:     model.NewGeoPoint(req.Lng, req.Lat),
		Availability: req.Availability,
	}

	if err := h.listingService.CreateService(c.Request.Context(), svc); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleCreated(c, gin.H{"service": svc}, "服务发布成功")
}

// GetService 服务详情
func (h *ListingHandler) GetService(c *gin.Context) {
	svc, err := h.listingService.GetServiceByID(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"service": svc}, "")
}

// UpdateService 更新服务
func (h *ListingHandler) UpdateService(c *gin.Context) {
	var req struct {
		Title        string             `json:"title"`
		Description  string             `json:"description"`
		Category     string             `json:"category"`
		Pricing      model.Pricing      `json:"pricing"`
		Availability model.Availability `json:"availability"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	svc, err := h.listingService.UpdateService(c.Request.Context(), c.Param("id"), c.GetString("user_id"), &model.Service{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Pricing:      req.Pricing,
		Availability: req.Availability,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"service": svc}, "服务更新成功")
}

// PauseService 暂停/恢复接单
func (h *ListingHandler) PauseService(c *gin.Context) {
	var req struct {
		Paused *bool `json:"paused" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	svc, err := h.listingService.PauseService(c.Request.Context(), c.Param("id"), c.GetString("user_id"), *req.Paused)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	msg := "已恢复接单"
	if svc.IsPaused {
		msg = "已暂停接单"
	}
	errors.HandleSuccess(c, gin.H{"service": svc}, msg)
}

// DeleteService 下架服务
func (h *ListingHandler) DeleteService(c *gin.Context) {
	if err := h.listingService.DeleteService(c.Request.Context(), c.Param("id"), c.GetString("user_id")); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "服务已下架")
}

// SearchServices 按关键词、类别和价格区间搜索服务
func (h *ListingHandler) SearchServices(c *gin.Context) {
	page, limit := pagination(c)

	minPrice, _ := strconv.ParseFloat(c.DefaultQuery("min_price", "0"), 64)
	maxPrice, _ := strconv.ParseFloat(c.DefaultQuery("max_price", "0"), 64)
	filters := interfaces.ServiceFilters{
		Keyword:  c.Query("q"),
		Category: c.Query("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	}

	services, total, err := h.listingService.SearchServices(c.Request.Context(), filters, page, limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"services":   services,
		"pagination": paging(page, limit, total),
	}, "")
}

// NearbyServices 附近的服务，radius 为英里
func (h *ListingHandler) NearbyServices(c *gin.Context) {
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

	services, err := h.listingService.FindNearby(c.Request.Context(), lng, lat, radius, c.Query("category"), limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"services": services}, "")
}

// GetServiceReviews 某服务的评价列表
func (h *ListingHandler) GetServiceReviews(c *gin.Context) {
	page, limit := pagination(c)

	reviews, total, err := h.reviewService.GetReviewsByService(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"reviews":    reviews,
		"pagination": paging(page, limit, total),
	}, "")
}

// UploadImage 上传服务图片
func (h *ListingHandler) UploadImage(c *gin.Context) {
	serviceID := c.Param("id")
	actorID := c.GetString("user_id")

	file, err := c.FormFile("image")
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "缺少图片文件", err))
		return
	}

	filename := util.GenerateUniqueFilename(file.Filename)
	path := fmt.Sprintf("services/%s/%s", serviceID, filename)

	url, err := h.storage.UploadFile(file, path)
	if err != nil {
		util.Logger.Error("上传服务图片失败", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "上传图片失败", err))
		return
	}

	svc, err := h.listingService.GetServiceByID(c.Request.Context(), serviceID, false)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	if svc.ProviderID.Hex() != actorID {
		errors.HandleError(c, errors.New(errors.ErrForbidden, "只有发布者本人可以操作"))
		return
	}

	svc.Images = append(svc.Images, model.ServiceImage{URL: url})
	updated, err := h.listingService.UpdateService(c.Request.Context(), serviceID, actorID, &model.Service{Images: svc.Images})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"service": updated}, "图片上传成功")
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
