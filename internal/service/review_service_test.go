package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newReviewService(reviewRepo *MockReviewRepository, bookingRepo *MockBookingRepository, serviceRepo *MockServiceRepository, userRepo *MockUserRepository) *ReviewService {
	return NewReviewService(reviewRepo, bookingRepo, serviceRepo, userRepo)
}

// TestCreateReview 客户评价已完成的订单
func TestCreateReview(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	mockBookings := new(MockBookingRepository)
	mockServices := new(MockServiceRepository)
	mockUsers := new(MockUserRepository)
	service := newReviewService(mockReviews, mockBookings, mockServices, mockUsers)
	ctx := context.Background()

	booking, customerID, providerID := newBookingFixture(model.BookingCompleted)
	provider := &model.User{ID: providerID, IsActive: true}
	svc := &model.Service{ID: booking.ServiceID, ProviderID: providerID, IsActive: true}

	mockBookings.On("FindByID", ctx, booking.ID).Return(booking, nil)
	mockReviews.On("FindByBookingAndType", ctx, booking.ID, model.ReviewCustomerToProvider).Return(nil, nil)
	mockReviews.On("Create", ctx, mock.AnythingOfType("*model.Review")).Return(nil)
	mockUsers.On("FindByID", ctx, providerID).Return(provider, nil)
	mockUsers.On("Update", ctx, mock.AnythingOfType("*model.User")).Return(nil)
	mockServices.On("FindByID", ctx, booking.ServiceID).Return(svc, nil)
	mockServices.On("Update", ctx, mock.AnythingOfType("*model.Service")).Return(nil)

	review, err := service.CreateReview(ctx, customerID.Hex(), booking.ID.Hex(), 5, "服务很专业，excellent work", nil)
	assert.NoError(t, err)
	assert.Equal(t, model.ReviewCustomerToProvider, review.ReviewType)
	assert.Equal(t, providerID, review.RevieweeID)
	assert.Equal(t, model.ModerationPending, review.ModerationStatus)
	assert.Greater(t, review.Sentiment.Score, 0.0)

	// 被评价方信誉和服务聚合同步刷新
	assert.Equal(t, 1, provider.Reputation.TotalReviews)
	assert.Equal(t, 5.0, provider.Reputation.AverageRating)
	assert.Equal(t, 1, svc.ReviewAggregate.Count)
	mockReviews.AssertExpectations(t)
}

// TestCreateReviewDuplicate 同一订单同一方向只能评一次
func TestCreateReviewDuplicate(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	mockBookings := new(MockBookingRepository)
	mockServices := new(MockServiceRepository)
	mockUsers := new(MockUserRepository)
	service := newReviewService(mockReviews, mockBookings, mockServices, mockUsers)
	ctx := context.Background()

	booking, customerID, _ := newBookingFixture(model.BookingCompleted)
	mockBookings.On("FindByID", ctx, booking.ID).Return(booking, nil)
	mockReviews.On("FindByBookingAndType", ctx, booking.ID, model.ReviewCustomerToProvider).Return(&model.Review{}, nil)

	_, err := service.CreateReview(ctx, customerID.Hex(), booking.ID.Hex(), 4, "不错", nil)
	assert.Error(t, err)
}

// TestCreateReviewNotCompleted 未完成的订单不能评价
func TestCreateReviewNotCompleted(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	mockBookings := new(MockBookingRepository)
	mockServices := new(MockServiceRepository)
	mockUsers := new(MockUserRepository)
	service := newReviewService(mockReviews, mockBookings, mockServices, mockUsers)
	ctx := context.Background()

	booking, customerID, _ := newBookingFixture(model.BookingConfirmed)
	mockBookings.On("FindByID", ctx, booking.ID).Return(booking, nil)

	_, err := service.CreateReview(ctx, customerID.Hex(), booking.ID.Hex(), 4, "", nil)
	assert.Error(t, err)
}

// TestCreateReviewByProvider 提供者评价客户时方向反转
func TestCreateReviewByProvider(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	mockBookings := new(MockBookingRepository)
	mockServices := new(MockServiceRepository)
	mockUsers := new(MockUserRepository)
	service := newReviewService(mockReviews, mockBookings, mockServices, mockUsers)
	ctx := context.Background()

	booking, customerID, providerID := newBookingFixture(model.BookingCompleted)
	customer := &model.User{ID: customerID, IsActive: true}

	mockBookings.On("FindByID", ctx, booking.ID).Return(booking, nil)
	mockReviews.On("FindByBookingAndType", ctx, booking.ID, model.ReviewProviderToCustomer).Return(nil, nil)
	mockReviews.On("Create", ctx, mock.AnythingOfType("*model.Review")).Return(nil)
	mockUsers.On("FindByID", ctx, customerID).Return(customer, nil)
	mockUsers.On("Update", ctx, mock.AnythingOfType("*model.User")).Return(nil)

	review, err := service.CreateReview(ctx, providerID.Hex(), booking.ID.Hex(), 4, "好客户", nil)
	assert.NoError(t, err)
	assert.Equal(t, model.ReviewProviderToCustomer, review.ReviewType)
	assert.Equal(t, customerID, review.RevieweeID)
	// 客户方向的评价不影响服务评分聚合
	mockServices.AssertNotCalled(t, "FindByID", ctx, booking.ServiceID)
}

// TestUpdateReviewResetsModeration 编辑评价后重新进入审核
func TestUpdateReviewResetsModeration(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	mockBookings := new(MockBookingRepository)
	mockServices := new(MockServiceRepository)
	mockUsers := new(MockUserRepository)
	service := newReviewService(mockReviews, mockBookings, mockServices, mockUsers)
	ctx := context.Background()

	reviewerID := primitive.NewObjectID()
	review := &model.Review{
		ID:               primitive.NewObjectID(),
		ReviewerID:       reviewerID,
		Rating:           3,
		ModerationStatus: model.ModerationApproved,
	}
	mockReviews.On("FindByID", ctx, review.ID).Return(review, nil)
	mockReviews.On("Update", ctx, mock.AnythingOfType("*model.Review")).Return(nil)

	// 创建时间为零值，视为超过24小时编辑窗口
	_, err := service.UpdateReview(ctx, review.ID.Hex(), reviewerID.Hex(), 4, "改评", nil)
	assert.Error(t, err)

	// 窗口内编辑成功，且审核状态回到 pending
	review.CreatedAt = time.Now()
	got, err := service.UpdateReview(ctx, review.ID.Hex(), reviewerID.Hex(), 4, "改评", nil)
	assert.NoError(t, err)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, model.ModerationPending, got.ModerationStatus)
}

// TestVoteHelpful 投票覆盖与自投拦截
func TestVoteHelpful(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	mockBookings := new(MockBookingRepository)
	mockServices := new(MockServiceRepository)
	mockUsers := new(MockUserRepository)
	service := newReviewService(mockReviews, mockBookings, mockServices, mockUsers)
	ctx := context.Background()

	reviewerID := primitive.NewObjectID()
	voterID := primitive.NewObjectID()
	review := &model.Review{ID: primitive.NewObjectID(), ReviewerID: reviewerID}

	mockReviews.On("FindByID", ctx, review.ID).Return(review, nil)
	mockReviews.On("Update", ctx, mock.AnythingOfType("*model.Review")).Return(nil)

	// 不能给自己投票
	_, err := service.VoteHelpful(ctx, review.ID.Hex(), reviewerID.Hex(), true)
	assert.Error(t, err)

	// 正常投票
	got, err := service.VoteHelpful(ctx, review.ID.Hex(), voterID.Hex(), true)
	assert.NoError(t, err)
	assert.Len(t, got.HelpfulVotes, 1)

	// 重复投票覆盖而不是追加
	got, err = service.VoteHelpful(ctx, review.ID.Hex(), voterID.Hex(), false)
	assert.NoError(t, err)
	assert.Len(t, got.HelpfulVotes, 1)
	assert.False(t, got.HelpfulVotes[0].Helpful)
}

// TestFlagReviewThreshold 累计3次举报进入待处理
func TestFlagReviewThreshold(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	mockBookings := new(MockBookingRepository)
	mockServices := new(MockServiceRepository)
	mockUsers := new(MockUserRepository)
	service := newReviewService(mockReviews, mockBookings, mockServices, mockUsers)
	ctx := context.Background()

	review := &model.Review{
		ID:               primitive.NewObjectID(),
		ReviewerID:       primitive.NewObjectID(),
		ModerationStatus: model.ModerationApproved,
	}
	mockReviews.On("FindByID", ctx, review.ID).Return(review, nil)
	mockReviews.On("Update", ctx, mock.AnythingOfType("*model.Review")).Return(nil)

	for i := 0; i < 3; i++ {
		err := service.FlagReview(ctx, review.ID.Hex(), primitive.NewObjectID().Hex())
		assert.NoError(t, err)
	}
	assert.Equal(t, 3, review.FlagCount)
	assert.Equal(t, model.ModerationFlagged, review.ModerationStatus)
}

// TestRespondToReview 被评价方只能回应一次
func TestRespondToReview(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	mockBookings := new(MockBookingRepository)
	mockServices := new(MockServiceRepository)
	mockUsers := new(MockUserRepository)
	service := newReviewService(mockReviews, mockBookings, mockServices, mockUsers)
	ctx := context.Background()

	revieweeID := primitive.NewObjectID()
	review := &model.Review{
		ID:         primitive.NewObjectID(),
		ReviewerID: primitive.NewObjectID(),
		RevieweeID: revieweeID,
	}
	mockReviews.On("FindByID", ctx, review.ID).Return(review, nil)
	mockReviews.On("Update", ctx, mock.AnythingOfType("*model.Review")).Return(nil)

	// 只有被评价方可以回应
	_, err := service.RespondToReview(ctx, review.ID.Hex(), primitive.NewObjectID().Hex(), "谢谢")
	assert.Error(t, err)

	got, err := service.RespondToReview(ctx, review.ID.Hex(), revieweeID.Hex(), "感谢评价")
	assert.NoError(t, err)
	assert.NotNil(t, got.Response)

	// 已回应过再次回应被拒绝
	_, err = service.RespondToReview(ctx, review.ID.Hex(), revieweeID.Hex(), "再次感谢")
	assert.Error(t, err)
}
