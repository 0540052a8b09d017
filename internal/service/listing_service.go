package service

import (
	"context"
	"fmt"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/repository/interfaces"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ListingService 处理与服务发布相关的业务逻辑
type ListingService struct {
	serviceRepo interfaces.ServiceRepository
	bookingRepo interfaces.BookingRepository
	userRepo    interfaces.UserRepository
}

// NewListingService 创建一个新的 ListingService 实例
func NewListingService(serviceRepo interfaces.ServiceRepository, bookingRepo interfaces.BookingRepository, userRepo interfaces.UserRepository) *ListingService {
	return &ListingService{serviceRepo, bookingRepo, userRepo}
}

// CreateService 发布新服务
func (s *ListingService) CreateService(ctx context.Context, service *model.Service) error {
	util.Logger.Info("开始发布服务", zap.String("title", service.Title))

	if !model.IsValidCategory(service.Category) {
		return errors.New(errors.ErrValidation, "无效的服务类别")
	}
	if !model.IsValidPricingType(service.Pricing.Type) {
		return errors.New(errors.ErrValidation, "无效的计价方式")
	}
	if service.Pricing.Type != model.PricingNegotiable && service.Pricing.Amount <= 0 {
		return errors.New(errors.ErrValidation, "价格必须大于0")
	}

	service.EnsurePrimaryImage()

	if err := s.serviceRepo.Create(ctx, service); err != nil {
		util.Logger.Error("发布服务失败", zap.Error(err))
		return err
	}

	util.Logger.Info("服务发布成功", zap.String("service_id", service.ID.Hex()))
	return nil
}

// GetServiceByID 获取服务详情并记一次浏览
func (s *ListingService) GetServiceByID(ctx context.Context, id string, countView bool) (*model.Service, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New(errors.ErrBadRequest, "无效的服务ID")
	}

	service, err := s.serviceRepo.FindByID(ctx, objectID)
	if err != nil {
		return nil, fmt.Errorf("查询服务失败: %w", err)
	}
	if service == nil {
		return nil, errors.New(errors.ErrServiceNotFound, "服务不存在")
	}

	if countView {
		if err := s.serviceRepo.IncrementViewCount(ctx, objectID); err != nil {
			util.Logger.Warn("浏览计数失败", zap.Error(err), zap.String("service_id", id))
		}
		service.ViewCount++
	}

	if provider, err := s.userRepo.FindByID(ctx, service.ProviderID); err == nil {
		service.Provider = provider
	}
	return service, nil
}

// UpdateService 更新服务信息，只有发布者本人可以修改
func (s *ListingService) UpdateService(ctx context.Context, id, actorID string, updated *model.Service) (*model.Service, error) {
	service, err := s.mustOwn(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	if updated.Category != "" && !model.IsValidCategory(updated.Category) {
		return nil, errors.New(errors.ErrValidation, "无效的服务类别")
	}

	if updated.Title != "" {
		service.Title = updated.Title
	}
	if updated.Description != "" {
		service.Description = updated.Description
	}
	if updated.Category != "" {
		service.Category = updated.Category
	}
	if updated.Pricing.Type != "" {
		if !model.IsValidPricingType(updated.Pricing.Type) {
			return nil, errors.New(errors.ErrValidation, "无效的计价方式")
		}
		service.Pricing = updated.Pricing
	}
	if len(updated.Availability.WeeklySchedule) > 0 || len(updated.Availability.Exceptions) > 0 || updated.Availability.MinAdvanceHours > 0 {
		service.Availability = updated.Availability
	}
	if len(updated.Images) > 0 {
		service.Images = updated.Images
		service.EnsurePrimaryImage()
	}

	if err := s.serviceRepo.Update(ctx, service); err != nil {
		util.Logger.Error("更新服务失败", zap.Error(err), zap.String("service_id", id))
		return nil, err
	}
	return service, nil
}

// PauseService 暂停或恢复接单
func (s *ListingService) PauseService(ctx context.Context, id, actorID string, paused bool) (*model.Service, error) {
	service, err := s.mustOwn(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	service.IsPaused = paused
	if err := s.serviceRepo.Update(ctx, service); err != nil {
		return nil, err
	}

	util.Logger.Info("服务接单状态变更",
		zap.String("service_id", id),
		zap.Bool("paused", paused))
	return service, nil
}

// DeleteService 下架服务；存在未完结订单时拒绝
func (s *ListingService) DeleteService(ctx context.Context, id, actorID string) error {
	service, err := s.mustOwn(ctx, id, actorID)
	if err != nil {
		return err
	}

	active, err := s.bookingRepo.CountActiveByService(ctx, service.ID)
	if err != nil {
		return fmt.Errorf("查询未完结订单失败: %w", err)
	}
	if active > 0 {
		return errors.New(errors.ErrValidation, "存在未完结的订单，暂时无法下架")
	}

	service.IsActive = false
	if err := s.serviceRepo.Update(ctx, service); err != nil {
		return err
	}

	util.Logger.Info("服务已下架", zap.String("service_id", id))
	return nil
}

// SearchServices 按条件分页搜索服务
func (s *ListingService) SearchServices(ctx context.Context, filters interfaces.ServiceFilters, page, pageSize int) ([]*model.Service, int, error) {
	filters.OnlyLive = true
	return s.serviceRepo.List(ctx, filters, page, pageSize)
}

// FindNearby 查询附近的服务，radiusMiles 为英里半径
func (s *ListingService) FindNearby(ctx context.Context, lng, lat, radiusMiles float64, category string, limit int) ([]*model.Service, error) {
	if category != "" && !model.IsValidCategory(category) {
		return nil, errors.New(errors.ErrValidation, "无效的服务类别")
	}
	return s.serviceRepo.FindNearby(ctx, lng, lat, util.MilesToMeters(radiusMiles), category, limit)
}

// GetServicesByProvider 某用户发布的服务
func (s *ListingService) GetServicesByProvider(ctx context.Context, providerID string, page, pageSize int) ([]*model.Service, int, error) {
	objectID, err := primitive.ObjectIDFromHex(providerID)
	if err != nil {
		return nil, 0, errors.New(errors.ErrBadRequest, "无效的用户ID")
	}
	return s.serviceRepo.FindByProvider(ctx, objectID, page, pageSize)
}

func (s *ListingService) mustOwn(ctx context.Context, id, actorID string) (*model.Service, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New(errors.ErrBadRequest, "无效的服务ID")
	}

	service, err := s.serviceRepo.FindByID(ctx, objectID)
	if err != nil {
		return nil, fmt.Errorf("查询服务失败: %w", err)
	}
	if service == nil || !service.IsActive {
		return nil, errors.New(errors.ErrServiceNotFound, "服务不存在")
	}
	if service.ProviderID.Hex() != actorID {
		return nil, errors.New(errors.ErrForbidden, "只有发布者本人可以操作")
	}
	return service, nil
}

type ListingServiceInterface interface {
	CreateService(ctx context.Context, service *model.Service) error
	GetServiceByID(ctx context.Context, id string, countView bool) (*model.Service, error)
	UpdateService(ctx context.Context, id, actorID string, updated *model.Service) (*model.Service, error)
	PauseService(ctx context.Context, id, actorID string, paused bool) (*model.Service, error)
	DeleteService(ctx context.Context, id, actorID string) error
	SearchServices(ctx context.Context, filters interfaces.ServiceFilters, page, pageSize int) ([]*model.Service, int, error)
	FindNearby(ctx context.Context, lng, lat, radiusMiles float64, category string, limit int) ([]*model.Service, error)
	GetServicesByProvider(ctx context.Context, providerID string, page, pageSize int) ([]*model.Service, int, error)
}

var _ ListingServiceInterface = (*ListingService)(nil)
