package interfaces

import (
	"context"

	"github.com/Dutta2005/TrustCircle/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository 接口定义了用户仓库应该实现的方法
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, keyword string, page, pageSize int) ([]*model.User, int, error)
	FindAll(ctx context.Context, page, pageSize int) ([]*model.User, int, error)
}
