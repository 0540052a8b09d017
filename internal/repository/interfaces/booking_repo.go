package interfaces

import (
	"context"

	"github.com/Dutta2005/TrustCircle/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingRepository 接口定义了订单仓库应该实现的方法
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	FindByCustomer(ctx context.Context, customerID primitive.ObjectID, status string, page, pageSize int) ([]*model.Booking, int, error)
	FindByProvider(ctx context.Context, providerID primitive.ObjectID, status string, page, pageSize int) ([]*model.Booking, int, error)
	CountActiveByService(ctx context.Context, serviceID primitive.ObjectID) (int, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}
