package service

import (
	"context"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/repository/interfaces"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AdminService 管理端业务逻辑：用户封禁、内容审核和平台统计
type AdminService struct {
	userRepo      interfaces.UserRepository
	serviceRepo   interfaces.ServiceRepository
	bookingRepo   interfaces.BookingRepository
	reviewRepo    interfaces.ReviewRepository
	communityRepo interfaces.CommunityRepository
}

// NewAdminService 创建一个新的 AdminService 实例
func NewAdminService(userRepo interfaces.UserRepository, serviceRepo interfaces.ServiceRepository, bookingRepo interfaces.BookingRepository, reviewRepo interfaces.ReviewRepository, communityRepo interfaces.CommunityRepository) *AdminService {
	return &AdminService{userRepo, serviceRepo, bookingRepo, reviewRepo, communityRepo}
}

// SuspendUser 封禁用户
func (s *AdminService) SuspendUser(ctx context.Context, userID, reason string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return errors.New(errors.ErrForbidden, "不能封禁管理员")
	}

	user.Suspended = true
	user.SuspendedFor = reason
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	util.Logger.Info("用户已封禁",
		zap.String("user_id", userID),
		zap.String("reason", reason))
	return nil
}

// ReactivateUser 解除封禁
func (s *AdminService) ReactivateUser(ctx context.Context, userID string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	user.Suspended = false
	user.SuspendedFor = ""
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	util.Logger.Info("用户已解封", zap.String("user_id", userID))
	return nil
}

// GetFlaggedReviews 待审核的被举报评价
func (s *AdminService) GetFlaggedReviews(ctx context.Context, page, pageSize int) ([]*model.Review, int, error) {
	return s.reviewRepo.FindFlagged(ctx, page, pageSize)
}

// ModerateReview 审核评价：approved 恢复展示，rejected 隐藏
func (s *AdminService) ModerateReview(ctx context.Context, reviewID, decision string) error {
	if decision != model.ModerationApproved && decision != model.ModerationRejected {
		return errors.New(errors.ErrValidation, "审核结论必须是 approved 或 rejected")
	}

	oid, err := primitive.ObjectIDFromHex(reviewID)
	if err != nil {
		return errors.New(errors.ErrBadRequest, "无效的评价ID")
	}
	review, err := s.reviewRepo.FindByID(ctx, oid)
	if err != nil {
		return err
	}
	if review == nil {
		return errors.New(errors.ErrReviewNotFound, "评价不存在")
	}

	review.ModerationStatus = decision
	if decision == model.ModerationApproved {
		review.FlagCount = 0
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return err
	}

	util.Logger.Info("评价审核完成",
		zap.String("review_id", reviewID),
		zap.String("decision", decision))
	return nil
}

// GetFlaggedPosts 待审核的被举报动态
func (s *AdminService) GetFlaggedPosts(ctx context.Context, page, pageSize int) ([]*model.Post, int, error) {
	return s.communityRepo.FindFlagged(ctx, page, pageSize)
}

// ModeratePost 审核动态：restore 恢复展示，remove 下架
func (s *AdminService) ModeratePost(ctx context.Context, postID, decision string) error {
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return errors.New(errors.ErrBadRequest, "无效的动态ID")
	}
	post, err := s.communityRepo.FindByID(ctx, oid)
	if err != nil {
		return err
	}
	if post == nil {
		return errors.New(errors.ErrPostNotFound, "动态不存在")
	}

	switch decision {
	case "restore":
		post.Status = model.PostStatusActive
		post.FlagCount = 0
	case "remove":
		post.Status = model.PostStatusRemoved
	default:
		return errors.New(errors.ErrValidation, "审核结论必须是 restore 或 remove")
	}

	if err := s.communityRepo.Update(ctx, post); err != nil {
		return err
	}

	util.Logger.Info("动态审核完成",
		zap.String("post_id", postID),
		zap.String("decision", decision))
	return nil
}

// GetSystemStats 汇总平台统计数据，onlineConnections 由调用方传入
func (s *AdminService) GetSystemStats(ctx context.Context, onlineConnections int) (*model.SystemStats, error) {
	stats := &model.SystemStats{OnlineConnections: onlineConnections}
	var err error

	if stats.TotalUsers, err = s.userRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalServices, err = s.serviceRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.ActiveServices, err = s.serviceRepo.CountActive(ctx); err != nil {
		return nil, err
	}
	if stats.TotalBookings, err = s.bookingRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.PendingBookings, err = s.bookingRepo.CountByStatus(ctx, model.BookingPending); err != nil {
		return nil, err
	}
	if stats.TotalReviews, err = s.reviewRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.FlaggedReviews, err = s.reviewRepo.CountFlagged(ctx); err != nil {
		return nil, err
	}
	if stats.TotalPosts, err = s.communityRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.FlaggedPosts, err = s.communityRepo.CountFlagged(ctx); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *AdminService) findUser(ctx context.Context, userID string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errors.New(errors.ErrBadRequest, "无效的用户ID")
	}
	user, err := s.userRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return user, nil
}

type AdminServiceInterface interface {
	SuspendUser(ctx context.Context, userID, reason string) error
	ReactivateUser(ctx context.Context, userID string) error
	GetFlaggedReviews(ctx context.Context, page, pageSize int) ([]*model.Review, int, error)
	ModerateReview(ctx context.Context, reviewID, decision string) error
	GetFlaggedPosts(ctx context.Context, page, pageSize int) ([]*model.Post, int, error)
	ModeratePost(ctx context.Context, postID, decision string) error
	GetSystemStats(ctx context.Context, onlineConnections int) (*model.SystemStats, error)
}

var _ AdminServiceInterface = (*AdminService)(nil)
