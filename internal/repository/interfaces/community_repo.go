package interfaces

import (
	"context"

	"github.com/Dutta2005/TrustCircle/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostFilters 帖子列表查询条件
type PostFilters struct {
	Type     string
	Category string
	Author   primitive.ObjectID
	City     string
}

// CommunityRepository 接口定义了社区仓库应该实现的方法
type CommunityRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	List(ctx context.Context, filters PostFilters, page, pageSize int) ([]*model.Post, int, error)
	FindNearby(ctx context.Context, lng, lat, radiusMeters float64, postType string, limit int) ([]*model.Post, error)
	FindUpcomingEvents(ctx context.Context, page, pageSize int) ([]*model.Post, int, error)
	FindFlagged(ctx context.Context, page, pageSize int) ([]*model.Post, int, error)
	ArchiveExpired(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
	CountFlagged(ctx context.Context) (int, error)
}
