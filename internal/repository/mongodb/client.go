package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/util"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// 集合名称
const (
	CollectionUsers    = "users"
	CollectionServices = "services"
	CollectionBookings = "bookings"
	CollectionReviews  = "reviews"
	CollectionPosts    = "posts"
)

// Connect 连接 MongoDB 并返回数据库句柄
func Connect(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	return client.Database(dbName), nil
}

// EnsureIndexes 声明各集合的索引：点查、范围、地理索引
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
		CollectionServices: {
			{Keys: bson.D{{Key: "provider_id", Value: 1}}},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "is_active", Value: 1}}},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}}},
		},
		CollectionBookings: {
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "service_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		CollectionReviews: {
			{
				// 每个订单每个方向只允许一条评价
				Keys:    bson.D{{Key: "booking_id", Value: 1}, {Key: "review_type", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "service_id", Value: 1}}},
			{Keys: bson.D{{Key: "reviewee_id", Value: 1}}},
		},
		CollectionPosts: {
			{Keys: bson.D{{Key: "author_id", Value: 1}}},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("创建 %s 索引失败: %w", coll, err)
		}
	}

	util.Logger.Info("数据库索引初始化完成", zap.Int("collections", len(indexes)))
	return nil
}

// pageOptions 偏移分页的查询选项
func pageOptions(page, pageSize int) *options.FindOptions {
	if page < 1 {
		page = 1
	}
	return options.Find().
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))
}
