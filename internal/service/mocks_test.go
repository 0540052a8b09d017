package service

import (
	"context"

	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/repository/interfaces"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserRepository 是 UserRepository 接口的模拟实现
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) Search(ctx context.Context, keyword string, page, pageSize int) ([]*model.User, int, error) {
	args := m.Called(ctx, keyword, page, pageSize)
	return args.Get(0).([]*model.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) FindAll(ctx context.Context, page, pageSize int) ([]*model.User, int, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]*model.User), args.Int(1), args.Error(2)
}

// MockServiceRepository 是 ServiceRepository 接口的模拟实现
type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) Create(ctx context.Context, service *model.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *MockServiceRepository) Update(ctx context.Context, service *model.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) List(ctx context.Context, filters interfaces.ServiceFilters, page, pageSize int) ([]*model.Service, int, error) {
	args := m.Called(ctx, filters, page, pageSize)
	return args.Get(0).([]*model.Service), args.Int(1), args.Error(2)
}

func (m *MockServiceRepository) FindNearby(ctx context.Context, lng, lat, radiusMeters float64, category string, limit int) ([]*model.Service, error) {
	args := m.Called(ctx, lng, lat, radiusMeters, category, limit)
	return args.Get(0).([]*model.Service), args.Error(1)
}

func (m *MockServiceRepository) FindByProvider(ctx context.Context, providerID primitive.ObjectID, page, pageSize int) ([]*model.Service, int, error) {
	args := m.Called(ctx, providerID, page, pageSize)
	return args.Get(0).([]*model.Service), args.Int(1), args.Error(2)
}

func (m *MockServiceRepository) IncrementViewCount(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockServiceRepository) IncrementBookingCount(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockServiceRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockServiceRepository) CountActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockBookingRepository 是 BookingRepository 接口的模拟实现
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) FindByCustomer(ctx context.Context, customerID primitive.ObjectID, status string, page, pageSize int) ([]*model.Booking, int, error) {
	args := m.Called(ctx, customerID, status, page, pageSize)
	return args.Get(0).([]*model.Booking), args.Int(1), args.Error(2)
}

func (m *MockBookingRepository) FindByProvider(ctx context.Context, providerID primitive.ObjectID, status string, page, pageSize int) ([]*model.Booking, int, error) {
	args := m.Called(ctx, providerID, status, page, pageSize)
	return args.Get(0).([]*model.Booking), args.Int(1), args.Error(2)
}

func (m *MockBookingRepository) CountActiveByService(ctx context.Context, serviceID primitive.ObjectID) (int, error) {
	args := m.Called(ctx, serviceID)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

// MockReviewRepository 是 ReviewRepository 接口的模拟实现
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *model.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *model.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) FindByBookingAndType(ctx context.Context, bookingID primitive.ObjectID, reviewType string) (*model.Review, error) {
	args := m.Called(ctx, bookingID, reviewType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) FindByService(ctx context.Context, serviceID primitive.ObjectID, page, pageSize int) ([]*model.Review, int, error) {
	args := m.Called(ctx, serviceID, page, pageSize)
	return args.Get(0).([]*model.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) FindByReviewee(ctx context.Context, revieweeID primitive.ObjectID, page, pageSize int) ([]*model.Review, int, error) {
	args := m.Called(ctx, revieweeID, page, pageSize)
	return args.Get(0).([]*model.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) FindFlagged(ctx context.Context, page, pageSize int) ([]*model.Review, int, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]*model.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewRepository) CountFlagged(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockCommunityRepository 是 CommunityRepository 接口的模拟实现
type MockCommunityRepository struct {
	mock.Mock
}

func (m *MockCommunityRepository) Create(ctx context.Context, post *model.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockCommunityRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockCommunityRepository) Update(ctx context.Context, post *model.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockCommunityRepository) List(ctx context.Context, filters interfaces.PostFilters, page, pageSize int) ([]*model.Post, int, error) {
	args := m.Called(ctx, filters, page, pageSize)
	return args.Get(0).([]*model.Post), args.Int(1), args.Error(2)
}

func (m *MockCommunityRepository) FindNearby(ctx context.Context, lng, lat, radiusMeters float64, postType string, limit int) ([]*model.Post, error) {
	args := m.Called(ctx, lng, lat, radiusMeters, postType, limit)
	return args.Get(0).([]*model.Post), args.Error(1)
}

func (m *MockCommunityRepository) FindUpcomingEvents(ctx context.Context, page, pageSize int) ([]*model.Post, int, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]*model.Post), args.Int(1), args.Error(2)
}

func (m *MockCommunityRepository) FindFlagged(ctx context.Context, page, pageSize int) ([]*model.Post, int, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]*model.Post), args.Int(1), args.Error(2)
}

func (m *MockCommunityRepository) ArchiveExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCommunityRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCommunityRepository) CountFlagged(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
