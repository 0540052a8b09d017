package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/repository/interfaces"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// 订单状态机：每个状态允许迁入的下一批状态
var bookingTransitions = map[string][]string{
	model.BookingPending:    {model.BookingConfirmed, model.BookingCancelled},
	model.BookingConfirmed:  {model.BookingInProgress, model.BookingCancelled, model.BookingNoShow},
	model.BookingInProgress: {model.BookingCompleted, model.BookingCancelled},
}

// 只有服务提供者可以发起的状态变更
var providerOnlyTransitions = map[string]bool{
	model.BookingConfirmed:  true,
	model.BookingInProgress: true,
	model.BookingCompleted:  true,
	model.BookingNoShow:     true,
}

// BookingService 处理与订单相关的业务逻辑
type BookingService struct {
	bookingRepo  interfaces.BookingRepository
	serviceRepo  interfaces.ServiceRepository
	userRepo     interfaces.UserRepository
	emailService *EmailService
}

// NewBookingService 创建一个新的 BookingService 实例
func NewBookingService(bookingRepo interfaces.BookingRepository, serviceRepo interfaces.ServiceRepository, userRepo interfaces.UserRepository, emailService *EmailService) *BookingService {
	return &BookingService{bookingRepo, serviceRepo, userRepo, emailService}
}

// CreateBooking 下单：校验服务可约后生成 pending 订单并计算费用
func (s *BookingService) CreateBooking(ctx context.Context, customerID string, serviceID string, scheduledDate time.Time, durationHours int, notes string) (*model.Booking, error) {
	customerOID, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return nil, errors.New(errors.ErrBadRequest, "无效的用户ID")
	}
	serviceOID, err := primitive.ObjectIDFromHex(serviceID)
	if err != nil {
		return nil, errors.New(errors.ErrBadRequest, "无效的服务ID")
	}

	svc, err := s.serviceRepo.FindByID(ctx, serviceOID)
	if err != nil {
		return nil, fmt.Errorf("查询服务失败: %w", err)
	}
	if svc == nil || !svc.IsActive {
		return nil, errors.New(errors.ErrServiceNotFound, "服务不存在")
	}
	if svc.ProviderID == customerOID {
		return nil, errors.New(errors.ErrValidation, "不能预约自己发布的服务")
	}
	if !scheduledDate.After(time.Now()) {
		return nil, errors.New(errors.ErrValidation, "预约时间必须在未来")
	}
	if !svc.IsAvailable(scheduledDate, durationHours) {
		return nil, errors.New(errors.ErrServiceUnavailable, "所选时间不可预约")
	}

	booking := &model.Booking{
		CustomerID:    customerOID,
		ProviderID:    svc.ProviderID,
		ServiceID:     serviceOID,
		ScheduledDate: scheduledDate,
		DurationHours: durationHours,
		Notes:         notes,
		Status:        model.BookingPending,
	}
	booking.CalculatePricing(svc.Pricing.Amount)
	booking.SeedHistory(customerOID)

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		util.Logger.Error("创建订单失败", zap.Error(err))
		return nil, err
	}

	if err := s.serviceRepo.IncrementBookingCount(ctx, serviceOID); err != nil {
		util.Logger.Warn("订单计数失败", zap.Error(err), zap.String("service_id", serviceID))
	}

	s.notifyStatus(ctx, booking, svc.Title)
	util.Logger.Info("订单创建成功", zap.String("booking_id", booking.ID.Hex()))
	return booking, nil
}

// GetBookingByID 获取订单详情，只有订单双方可见
func (s *BookingService) GetBookingByID(ctx context.Context, id, actorID string) (*model.Booking, error) {
	booking, _, err := s.mustParticipate(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	if svc, err := s.serviceRepo.FindByID(ctx, booking.ServiceID); err == nil {
		booking.Service = svc
	}
	if customer, err := s.userRepo.FindByID(ctx, booking.CustomerID); err == nil {
		booking.Customer = customer
	}
	if provider, err := s.userRepo.FindByID(ctx, booking.ProviderID); err == nil {
		booking.Provider = provider
	}
	return booking, nil
}

// ListBookings 按角色列出订单
func (s *BookingService) ListBookings(ctx context.Context, userID, role, status string, page, pageSize int) ([]*model.Booking, int, error) {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, 0, errors.New(errors.ErrBadRequest, "无效的用户ID")
	}

	if role == "provider" {
		return s.bookingRepo.FindByProvider(ctx, userOID, status, page, pageSize)
	}
	return s.bookingRepo.FindByCustomer(ctx, userOID, status, page, pageSize)
}

// UpdateBookingStatus 订单状态迁移，非法迁移和越权操作在此拦截
func (s *BookingService) UpdateBookingStatus(ctx context.Context, id, actorID, newStatus, reason, notes string) (*model.Booking, error) {
	booking, actorOID, err := s.mustParticipate(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(booking.Status, newStatus) {
		return nil, errors.New(errors.ErrInvalidTransition,
			fmt.Sprintf("订单无法从 %s 变更为 %s", booking.Status, newStatus))
	}

	isProvider := booking.ProviderID == actorOID
	if providerOnlyTransitions[newStatus] && !isProvider {
		return nil, errors.New(errors.ErrForbidden, "该操作只有服务提供者可以执行")
	}
	if newStatus == model.BookingCancelled && reason == "" {
		return nil, errors.New(errors.ErrValidation, "取消订单必须填写原因")
	}

	prevStatus := booking.Status
	booking.UpdateStatus(newStatus, actorOID, reason, notes)

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		util.Logger.Error("更新订单状态失败", zap.Error(err), zap.String("booking_id", id))
		return nil, err
	}

	// 终态时把履约结果并入双方信誉
	switch newStatus {
	case model.BookingCompleted:
		s.recordOutcome(ctx, booking, true)
	case model.BookingCancelled, model.BookingNoShow:
		s.recordOutcome(ctx, booking, false)
	}

	if svc, err := s.serviceRepo.FindByID(ctx, booking.ServiceID); err == nil && svc != nil {
		s.notifyStatus(ctx, booking, svc.Title)
	}

	util.Logger.Info("订单状态变更",
		zap.String("booking_id", id),
		zap.String("from", prevStatus),
		zap.String("to", newStatus))
	return booking, nil
}

// PreviewCancellationFee 查询当前时点取消需要承担的费用
func (s *BookingService) PreviewCancellationFee(ctx context.Context, id, actorID string) (fee, refund float64, err error) {
	booking, _, err := s.mustParticipate(ctx, id, actorID)
	if err != nil {
		return 0, 0, err
	}
	if booking.IsTerminal() {
		return 0, 0, errors.New(errors.ErrInvalidTransition, "订单已完结")
	}
	fee = booking.CalculateCancellationFee()
	return fee, booking.Pricing.TotalAmount - fee, nil
}

// SendMessage 在订单内发送消息
func (s *BookingService) SendMessage(ctx context.Context, id, actorID, content string) (*model.BookingMessage, error) {
	booking, actorOID, err := s.mustParticipate(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, errors.New(errors.ErrValidation, "消息内容不能为空")
	}

	msg := booking.AddMessage(actorOID, content)
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkMessagesRead 把对方发来的消息标记为已读，返回标记条数
func (s *BookingService) MarkMessagesRead(ctx context.Context, id, actorID string) (int, error) {
	booking, actorOID, err := s.mustParticipate(ctx, id, actorID)
	if err != nil {
		return 0, err
	}

	n := booking.MarkMessagesRead(actorOID)
	if n > 0 {
		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (s *BookingService) mustParticipate(ctx context.Context, id, actorID string) (*model.Booking, primitive.ObjectID, error) {
	bookingOID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, primitive.NilObjectID, errors.New(errors.ErrBadRequest, "无效的订单ID")
	}
	actorOID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, primitive.NilObjectID, errors.New(errors.ErrBadRequest, "无效的用户ID")
	}

	booking, err := s.bookingRepo.FindByID(ctx, bookingOID)
	if err != nil {
		return nil, primitive.NilObjectID, fmt.Errorf("查询订单失败: %w", err)
	}
	if booking == nil {
		return nil, primitive.NilObjectID, errors.New(errors.ErrBookingNotFound, "订单不存在")
	}
	if !booking.IsParticipant(actorOID) {
		return nil, primitive.NilObjectID, errors.New(errors.ErrForbidden, "无权访问该订单")
	}
	return booking, actorOID, nil
}

func (s *BookingService) recordOutcome(ctx context.Context, booking *model.Booking, completed bool) {
	for _, uid := range []primitive.ObjectID{booking.CustomerID, booking.ProviderID} {
		user, err := s.userRepo.FindByID(ctx, uid)
		if err != nil || user == nil {
			util.Logger.Warn("刷新用户履约记录失败", zap.Error(err), zap.String("user_id", uid.Hex()))
			continue
		}
		user.RecordBookingOutcome(completed)
		if err := s.userRepo.Update(ctx, user); err != nil {
			util.Logger.Error("保存用户履约记录失败", zap.Error(err), zap.String("user_id", uid.Hex()))
		}
	}
}

func (s *BookingService) notifyStatus(ctx context.Context, booking *model.Booking, serviceTitle string) {
	if s.emailService == nil {
		return
	}
	customer, err := s.userRepo.FindByID(ctx, booking.CustomerID)
	if err != nil || customer == nil || !customer.Preferences.EmailNotifications {
		return
	}
	s.emailService.SendBookingNotification(customer.Email, customer.Name, serviceTitle, booking.Status)
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, customerID, serviceID string, scheduledDate time.Time, durationHours int, notes string) (*model.Booking, error)
	GetBookingByID(ctx context.Context, id, actorID string) (*model.Booking, error)
	ListBookings(ctx context.Context, userID, role, status string, page, pageSize int) ([]*model.Booking, int, error)
	UpdateBookingStatus(ctx context.Context, id, actorID, newStatus, reason, notes string) (*model.Booking, error)
	PreviewCancellationFee(ctx context.Context, id, actorID string) (fee, refund float64, err error)
	SendMessage(ctx context.Context, id, actorID, content string) (*model.BookingMessage, error)
	MarkMessagesRead(ctx context.Context, id, actorID string) (int, error)
}

var _ BookingServiceInterface = (*BookingService)(nil)
