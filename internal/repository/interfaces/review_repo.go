package interfaces

import (
	"context"

	"github.com/Dutta2005/TrustCircle/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewRepository 接口定义了评价仓库应该实现的方法
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	FindByBookingAndType(ctx context.Context, bookingID primitive.ObjectID, reviewType string) (*model.Review, error)
	FindByService(ctx context.Context, serviceID primitive.ObjectID, page, pageSize int) ([]*model.Review, int, error)
	FindByReviewee(ctx context.Context, revieweeID primitive.ObjectID, page, pageSize int) ([]*model.Review, int, error)
	FindFlagged(ctx context.Context, page, pageSize int) ([]*model.Review, int, error)
	Count(ctx context.Context) (int, error)
	CountFlagged(ctx context.Context) (int, error)
}
