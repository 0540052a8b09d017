package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// reviewRepository 实现了 ReviewRepository 接口
type reviewRepository struct {
	coll *mongo.Collection
}

// NewReviewRepository 创建一个新的 reviewRepository 实例
func NewReviewRepository(db *mongo.Database) *reviewRepository {
	return &reviewRepository{db.Collection(CollectionReviews)}
}

// Create 创建一条评价；(booking_id, review_type) 的唯一索引拦截重复评价
func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now

	result, err := r.coll.InsertOne(ctx, review)
	if err != nil {
		util.Logger.Error("创建评价失败", zap.Error(err))
		return err
	}
	review.ID = result.InsertedID.(primitive.ObjectID)
	util.Logger.Info("评价创建成功", zap.String("review_id", review.ID.Hex()))
	return nil
}

// FindByID 通过ID查找评价
func (r *reviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Review, error) {
	var review model.Review
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&review)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("查找评价失败: %w", err)
	}
	return &review, nil
}

// Update 整份文档写回
func (r *reviewRepository) Update(ctx context.Context, review *model.Review) error {
	review.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": review.ID}, review)
	if err != nil {
		util.Logger.Error("更新评价失败", zap.Error(err), zap.String("review_id", review.ID.Hex()))
		return err
	}
	return nil
}

// FindByBookingAndType 按订单和评价方向查找
func (r *reviewRepository) FindByBookingAndType(ctx context.Context, bookingID primitive.ObjectID, reviewType string) (*model.Review, error) {
	var review model.Review
	err := r.coll.FindOne(ctx, bson.M{"booking_id": bookingID, "review_type": reviewType}).Decode(&review)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("查找评价失败: %w", err)
	}
	return &review, nil
}

// FindByService 某服务下的有效评价
func (r *reviewRepository) FindByService(ctx context.Context, serviceID primitive.ObjectID, page, pageSize int) ([]*model.Review, int, error) {
	return r.findPage(ctx, bson.M{
		"service_id":        serviceID,
		"review_type":       model.ReviewCustomerToProvider,
		"is_deleted":        false,
		"moderation_status": bson.M{"$ne": model.ModerationRejected},
	}, page, pageSize)
}

// FindByReviewee 某用户收到的有效评价
func (r *reviewRepository) FindByReviewee(ctx context.Context, revieweeID primitive.ObjectID, page, pageSize int) ([]*model.Review, int, error) {
	return r.findPage(ctx, bson.M{
		"reviewee_id":       revieweeID,
		"is_deleted":        false,
		"moderation_status": bson.M{"$ne": model.ModerationRejected},
	}, page, pageSize)
}

// FindFlagged 待处理的被举报评价
func (r *reviewRepository) FindFlagged(ctx context.Context, page, pageSize int) ([]*model.Review, int, error) {
	return r.findPage(ctx, bson.M{"moderation_status": model.ModerationFlagged}, page, pageSize)
}

// Count 返回评价总数
func (r *reviewRepository) Count(ctx context.Context) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"is_deleted": false})
	return int(count), err
}

// CountFlagged 被举报评价数
func (r *reviewRepository) CountFlagged(ctx context.Context) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"moderation_status": model.ModerationFlagged})
	return int(count), err
}

func (r *reviewRepository) findPage(ctx context.Context, filter bson.M, page, pageSize int) ([]*model.Review, int, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("统计评价失败: %w", err)
	}

	opts := pageOptions(page, pageSize).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("查询评价失败: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []*model.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, fmt.Errorf("解析评价数据失败: %w", err)
	}
	return reviews, int(total), nil
}
