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

// ReviewService 处理与评价相关的业务逻辑
type ReviewService struct {
	reviewRepo  interfaces.ReviewRepository
	bookingRepo interfaces.BookingRepository
	serviceRepo interfaces.ServiceRepository
	userRepo    interfaces.UserRepository
}

// NewReviewService 创建一个新的 ReviewService 实例
func NewReviewService(reviewRepo interfaces.ReviewRepository, bookingRepo interfaces.BookingRepository, serviceRepo interfaces.ServiceRepository, userRepo interfaces.UserRepository) *ReviewService {
	return &ReviewService{reviewRepo, bookingRepo, serviceRepo, userRepo}
}

// CreateReview 发表评价：订单必须已完成，且同一方向只能评一次
func (s *ReviewService) CreateReview(ctx context.Context, reviewerID, bookingID string, rating int, comment string, dimensions *model.Dimensions) (*model.Review, error) {
	reviewerOID, err := primitive.ObjectIDFromHex(reviewerID)
	if err != nil {
		return nil, errors.New(errors.ErrBadRequest, "无效的用户ID")
	}
	bookingOID, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return nil, errors.New(errors.ErrBadRequest, "无效的订单ID")
	}
	if rating < 1 || rating > 5 {
		return nil, errors.New(errors.ErrValidation, "评分必须在1到5之间")
	}

	booking, err := s.bookingRepo.FindByID(ctx, bookingOID)
	if err != nil {
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}
	if booking == nil {
		return nil, errors.New(errors.ErrBookingNotFound, "订单不存在")
	}
	if booking.Status != model.BookingCompleted {
		return nil, errors.New(errors.ErrValidation, "只能评价已完成的订单")
	}
	if !booking.IsParticipant(reviewerOID) {
		return nil, errors.New(errors.ErrForbidden, "只有订单参与者可以评价")
	}

	// 评价方向由评价者在订单中的角色决定
	reviewType := model.ReviewCustomerToProvider
	revieweeOID := booking.ProviderID
	if reviewerOID == booking.ProviderID {
		reviewType = model.ReviewProviderToCustomer
		revieweeOID = booking.CustomerID
	}

	existing, err := s.reviewRepo.FindByBookingAndType(ctx, bookingOID, reviewType)
	if err != nil {
		return nil, fmt.Errorf("查询评价失败: %w", err)
	}
	if existing != nil {
		return nil, errors.New(errors.ErrDuplicateReview, "该订单已评价过")
	}

	review := &model.Review{
		BookingID:        bookingOID,
		ServiceID:        booking.ServiceID,
		ReviewerID:       reviewerOID,
		RevieweeID:       revieweeOID,
		ReviewType:       reviewType,
		Rating:           rating,
		Comment:          comment,
		Dimensions:       dimensions,
		ModerationStatus: model.ModerationPending,
	}
	review.ComputeSentiment()

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		util.Logger.Error("创建评价失败", zap.Error(err))
		return nil, err
	}

	s.applyToReputation(ctx, review)
	return review, nil
}

// GetReviewByID 获取评价详情
func (s *ReviewService) GetReviewByID(ctx context.Context, id string) (*model.Review, error) {
	review, err := s.findReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if reviewer, err := s.userRepo.FindByID(ctx, review.ReviewerID); err == nil {
		review.Reviewer = reviewer
	}
	return review, nil
}

// UpdateReview 编辑评价：仅限本人，创建后24小时内，编辑后重新进入审核
func (s *ReviewService) UpdateReview(ctx context.Context, id, actorID string, rating int, comment string, dimensions *model.Dimensions) (*model.Review, error) {
	review, err := s.findReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.ReviewerID.Hex() != actorID {
		return nil, errors.New(errors.ErrForbidden, "只能编辑自己的评价")
	}
	if !review.CanEdit(time.Now()) {
		return nil, errors.New(errors.ErrValidation, "评价创建超过24小时后不可编辑")
	}
	if rating < 1 || rating > 5 {
		return nil, errors.New(errors.ErrValidation, "评分必须在1到5之间")
	}

	review.Rating = rating
	review.Comment = comment
	if dimensions != nil {
		review.Dimensions = dimensions
	}
	review.ModerationStatus = model.ModerationPending
	review.ComputeSentiment()

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview 删除评价（软删除），仅限本人或管理员
func (s *ReviewService) DeleteReview(ctx context.Context, id, actorID string, isAdmin bool) error {
	review, err := s.findReview(ctx, id)
	if err != nil {
		return err
	}
	if review.ReviewerID.Hex() != actorID && !isAdmin {
		return errors.New(errors.ErrForbidden, "只能删除自己的评价")
	}

	review.IsDeleted = true
	return s.reviewRepo.Update(ctx, review)
}

// VoteHelpful 投票评价是否有用，同一用户重复投票时覆盖
func (s *ReviewService) VoteHelpful(ctx context.Context, id, voterID string, helpful bool) (*model.Review, error) {
	review, err := s.findReview(ctx, id)
	if err != nil {
		return nil, err
	}
	voterOID, err := primitive.ObjectIDFromHex(voterID)
	if err != nil {
		return nil, errors.New(errors.ErrBadRequest, "无效的用户ID")
	}
	if review.ReviewerID == voterOID {
		return nil, errors.New(errors.ErrValidation, "不能给自己的评价投票")
	}

	review.Vote(voterOID, helpful)
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// FlagReview 举报评价，累计3次自动进入待处理队列
func (s *ReviewService) FlagReview(ctx context.Context, id, actorID string) error {
	review, err := s.findReview(ctx, id)
	if err != nil {
		return err
	}
	if review.ReviewerID.Hex() == actorID {
		return errors.New(errors.ErrValidation, "不能举报自己的评价")
	}

	review.Flag()
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return err
	}

	util.Logger.Info("评价被举报",
		zap.String("review_id", id),
		zap.Int("flag_count", review.FlagCount))
	return nil
}

// RespondToReview 被评价方回应评价，只能回应一次
func (s *ReviewService) RespondToReview(ctx context.Context, id, actorID, content string) (*model.Review, error) {
	review, err := s.findReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.RevieweeID.Hex() != actorID {
		return nil, errors.New(errors.ErrForbidden, "只有被评价方可以回应")
	}
	if review.Response != nil {
		return nil, errors.New(errors.ErrResourceExists, "已回应过该评价")
	}
	if content == "" {
		return nil, errors.New(errors.ErrValidation, "回应内容不能为空")
	}

	review.Response = &model.ReviewResponse{
		Content:     content,
		RespondedAt: time.Now(),
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// GetReviewsByService 某服务收到的评价
func (s *ReviewService) GetReviewsByService(ctx context.Context, serviceID string, page, pageSize int) ([]*model.Review, int, error) {
	oid, err := primitive.ObjectIDFromHex(serviceID)
	if err != nil {
		return nil, 0, errors.New(errors.ErrBadRequest, "无效的服务ID")
	}
	return s.reviewRepo.FindByService(ctx, oid, page, pageSize)
}

// GetReviewsByUser 某用户收到的评价
func (s *ReviewService) GetReviewsByUser(ctx context.Context, userID string, page, pageSize int) ([]*model.Review, int, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, 0, errors.New(errors.ErrBadRequest, "无效的用户ID")
	}
	return s.reviewRepo.FindByReviewee(ctx, oid, page, pageSize)
}

func (s *ReviewService) findReview(ctx context.Context, id string) (*model.Review, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New(errors.ErrBadRequest, "无效的评价ID")
	}
	review, err := s.reviewRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("查询评价失败: %w", err)
	}
	if review == nil {
		return nil, errors.New(errors.ErrReviewNotFound, "评价不存在")
	}
	return review, nil
}

// applyToReputation 把新评价并入被评价方的信誉和服务的评分聚合
func (s *ReviewService) applyToReputation(ctx context.Context, review *model.Review) {
	reviewee, err := s.userRepo.FindByID(ctx, review.RevieweeID)
	if err != nil || reviewee == nil {
		util.Logger.Warn("刷新被评价方信誉失败", zap.Error(err), zap.String("user_id", review.RevieweeID.Hex()))
	} else {
		reviewee.ApplyReview(float64(review.Rating))
		if err := s.userRepo.Update(ctx, reviewee); err != nil {
			util.Logger.Error("保存被评价方信誉失败", zap.Error(err), zap.String("user_id", reviewee.ID.Hex()))
		}
	}

	if review.ReviewType != model.ReviewCustomerToProvider {
		return
	}
	svc, err := s.serviceRepo.FindByID(ctx, review.ServiceID)
	if err != nil || svc == nil {
		util.Logger.Warn("刷新服务评分聚合失败", zap.Error(err), zap.String("service_id", review.ServiceID.Hex()))
		return
	}
	svc.ApplyReview(review.Rating)
	if err := s.serviceRepo.Update(ctx, svc); err != nil {
		util.Logger.Error("保存服务评分聚合失败", zap.Error(err), zap.String("service_id", svc.ID.Hex()))
	}
}

type ReviewServiceInterface interface {
	CreateReview(ctx context.Context, reviewerID, bookingID string, rating int, comment string, dimensions *model.Dimensions) (*model.Review, error)
	GetReviewByID(ctx context.Context, id string) (*model.Review, error)
	UpdateReview(ctx context.Context, id, actorID string, rating int, comment string, dimensions *model.Dimensions) (*model.Review, error)
	DeleteReview(ctx context.Context, id, actorID string, isAdmin bool) error
	VoteHelpful(ctx context.Context, id, voterID string, helpful bool) (*model.Review, error)
	FlagReview(ctx context.Context, id, actorID string) error
	RespondToReview(ctx context.Context, id, actorID, content string) (*model.Review, error)
	GetReviewsByService(ctx context.Context, serviceID string, page, pageSize int) ([]*model.Review, int, error)
	GetReviewsByUser(ctx context.Context, userID string, page, pageSize int) ([]*model.Review, int, error)
}

var _ ReviewServiceInterface = (*ReviewService)(nil)
