package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/repository/interfaces"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// communityRepository 实现了 CommunityRepository 接口
type communityRepository struct {
	coll *mongo.Collection
}

// NewCommunityRepository 创建一个新的 communityRepository 实例
func NewCommunityRepository(db *mongo.Database) *communityRepository {
	return &communityRepository{db.Collection(CollectionPosts)}
}

// Create 发布一条社区动态
func (r *communityRepository) Create(ctx context.Context, post *model.Post) error {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Status == "" {
		post.Status = model.PostStatusActive
	}

	result, err := r.coll.InsertOne(ctx, post)
	if err != nil {
		util.Logger.Error("创建动态失败", zap.Error(err))
		return err
	}
	post.ID = result.InsertedID.(primitive.ObjectID)
	util.Logger.Info("动态创建成功", zap.String("post_id", post.ID.Hex()))
	return nil
}

// FindByID 通过ID查找动态
func (r *communityRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	var post model.Post
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("查找动态失败: %w", err)
	}
	return &post, nil
}

// Update 整份文档写回
func (r *communityRepository) Update(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": post.ID}, post)
	if err != nil {
		util.Logger.Error("更新动态失败", zap.Error(err), zap.String("post_id", post.ID.Hex()))
		return err
	}
	return nil
}

// List 按条件分页查询动态，置顶优先，其余按时间倒序
func (r *communityRepository) List(ctx context.Context, filters interfaces.PostFilters, page, pageSize int) ([]*model.Post, int, error) {
	filter := bson.M{"status": model.PostStatusActive}
	if filters.Type != "" {
		filter["type"] = filters.Type
	}
	if filters.Category != "" {
		filter["category"] = filters.Category
	}
	if !filters.Author.IsZero() {
		filter["author_id"] = filters.Author
	}
	if filters.City != "" {
		filter["address.city"] = filters.City
	}

	sort := bson.D{{Key: "is_pinned", Value: -1}, {Key: "created_at", Value: -1}}
	return r.findPage(ctx, filter, sort, page, pageSize)
}

// FindNearby 查询附近的动态，radiusMeters 为半径（米）
func (r *communityRepository) FindNearby(ctx context.Context, lng, lat, radiusMeters float64, postType string, limit int) ([]*model.Post, error) {
	filter := bson.M{
		"status": model.PostStatusActive,
		"location": bson.M{
			"$nearSphere": bson.M{
				"$geometry":    model.NewGeoPoint(lng, lat),
				"$maxDistance": radiusMeters,
			},
		},
	}
	if postType != "" {
		filter["type"] = postType
	}

	cursor, err := r.coll.Find(ctx, filter, pageOptions(1, limit))
	if err != nil {
		return nil, fmt.Errorf("查询附近动态失败: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []*model.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("解析动态数据失败: %w", err)
	}
	return posts, nil
}

// FindUpcomingEvents 查询尚未开始的活动，按开始时间升序
func (r *communityRepository) FindUpcomingEvents(ctx context.Context, page, pageSize int) ([]*model.Post, int, error) {
	filter := bson.M{
		"type":             model.PostTypeEvent,
		"status":           model.PostStatusActive,
		"event.start_date": bson.M{"$gte": time.Now()},
	}
	sort := bson.D{{Key: "event.start_date", Value: 1}}
	return r.findPage(ctx, filter, sort, page, pageSize)
}

// FindFlagged 待处理的被举报动态
func (r *communityRepository) FindFlagged(ctx context.Context, page, pageSize int) ([]*model.Post, int, error) {
	sort := bson.D{{Key: "updated_at", Value: -1}}
	return r.findPage(ctx, bson.M{"status": model.PostStatusFlagged}, sort, page, pageSize)
}

// ArchiveExpired 批量归档已过期的动态，由后台定时任务调用
func (r *communityRepository) ArchiveExpired(ctx context.Context) (int, error) {
	result, err := r.coll.UpdateMany(ctx,
		bson.M{
			"status":     model.PostStatusActive,
			"expires_at": bson.M{"$ne": nil, "$lt": time.Now()},
		},
		bson.M{"$set": bson.M{"status": model.PostStatusArchived, "updated_at": time.Now()}},
	)
	if err != nil {
		util.Logger.Error("归档过期动态失败", zap.Error(err))
		return 0, err
	}
	return int(result.ModifiedCount), nil
}

// Count 返回动态总数
func (r *communityRepository) Count(ctx context.Context) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"status": bson.M{"$ne": model.PostStatusRemoved}})
	return int(count), err
}

// CountFlagged 被举报动态数
func (r *communityRepository) CountFlagged(ctx context.Context) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"status": model.PostStatusFlagged})
	return int(count), err
}

func (r *communityRepository) findPage(ctx context.Context, filter bson.M, sort bson.D, page, pageSize int) ([]*model.Post, int, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("统计动态失败: %w", err)
	}

	cursor, err := r.coll.Find(ctx, filter, pageOptions(page, pageSize).SetSort(sort))
	if err != nil {
		return nil, 0, fmt.Errorf("查询动态失败: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []*model.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("解析动态数据失败: %w", err)
	}
	return posts, int(total), nil
}
