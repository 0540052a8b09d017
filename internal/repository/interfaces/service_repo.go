package interfaces

import (
	"context"

	"github.com/Dutta2005/TrustCircle/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceFilters 服务列表查询条件
type ServiceFilters struct {
	Keyword   string
	Category  string
	MinPrice  float64
	MaxPrice  float64
	Provider  primitive.ObjectID
	OnlyLive  bool // 只返回激活且未暂停的服务
	SortByNew bool
}

// ServiceRepository 接口定义了服务仓库应该实现的方法
type ServiceRepository interface {
	Create(ctx context.Context, service *model.Service) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Service, error)
	Update(ctx context.Context, service *model.Service) error
	List(ctx context.Context, filters ServiceFilters, page, pageSize int) ([]*model.Service, int, error)
	FindNearby(ctx context.Context, lng, lat, radiusMeters float64, category string, limit int) ([]*model.Service, error)
	FindByProvider(ctx context.Context, providerID primitive.ObjectID, page, pageSize int) ([]*model.Service, int, error)
	IncrementViewCount(ctx context.Context, id primitive.ObjectID) error
	IncrementBookingCount(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int, error)
	CountActive(ctx context.Context) (int, error)
}
