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
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// serviceRepository 实现了 ServiceRepository 接口
type serviceRepository struct {
	coll *mongo.Collection
}

// NewServiceRepository 创建一个新的 serviceRepository 实例
func NewServiceRepository(db *mongo.Database) *serviceRepository {
	return &serviceRepository{db.Collection(CollectionServices)}
}

// Create 创建一个新服务
func (r *serviceRepository) Create(ctx context.Context, service *model.Service) error {
	now := time.Now()
	service.CreatedAt = now
	service.UpdatedAt = now
	service.IsActive = true
	service.EnsurePrimaryImage()

	result, err := r.coll.InsertOne(ctx, service)
	if err != nil {
		util.Logger.Error("创建服务失败", zap.Error(err))
		return err
	}
	service.ID = result.InsertedID.(primitive.ObjectID)
	util.Logger.Info("服务创建成功", zap.String("service_id", service.ID.Hex()))
	return nil
}

// FindByID 通过ID查找服务
func (r *serviceRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Service, error) {
	var service model.Service
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&service)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("查找服务失败: %w", err)
	}
	return &service, nil
}

// Update 整份文档写回
func (r *serviceRepository) Update(ctx context.Context, service *model.Service) error {
	service.UpdatedAt = time.Now()
	service.EnsurePrimaryImage()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": service.ID}, service)
	if err != nil {
		util.Logger.Error("更新服务失败", zap.Error(err), zap.String("service_id", service.ID.Hex()))
		return err
	}
	return nil
}

// List 按条件分页查询服务列表
func (r *serviceRepository) List(ctx context.Context, filters interfaces.ServiceFilters, page, pageSize int) ([]*model.Service, int, error) {
	filter := bson.M{}
	if filters.OnlyLive {
		filter["is_active"] = true
		filter["is_paused"] = false
	}
	if filters.Category != "" {
		filter["category"] = filters.Category
	}
	if !filters.Provider.IsZero() {
		filter["provider_id"] = filters.Provider
	}
	if filters.Keyword != "" {
		filter["$text"] = bson.M{"$search": filters.Keyword}
	}
	if filters.MinPrice > 0 || filters.MaxPrice > 0 {
		price := bson.M{}
		if filters.MinPrice > 0 {
			price["$gte"] = filters.MinPrice
		}
		if filters.MaxPrice > 0 {
			price["$lte"] = filters.MaxPrice
		}
		filter["pricing.amount"] = price
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("统计服务失败: %w", err)
	}

	opts := pageOptions(page, pageSize)
	if filters.SortByNew {
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("查询服务失败: %w", err)
	}
	defer cursor.Close(ctx)

	var services []*model.Service
	if err := cursor.All(ctx, &services); err != nil {
		return nil, 0, fmt.Errorf("解析服务数据失败: %w", err)
	}
	return services, int(total), nil
}

// FindNearby 地理邻近查询，半径单位为米
func (r *serviceRepository) FindNearby(ctx context.Context, lng, lat, radiusMeters float64, category string, limit int) ([]*model.Service, error) {
	filter := bson.M{
		"is_active": true,
		"is_paused": false,
		"location": bson.M{
			"$nearSphere": bson.M{
				"$geometry":    model.NewGeoPoint(lng, lat),
				"$maxDistance": radiusMeters,
			},
		},
	}
	if category != "" {
		filter["category"] = category
	}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("邻近查询失败: %w", err)
	}
	defer cursor.Close(ctx)

	var services []*model.Service
	if err := cursor.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("解析服务数据失败: %w", err)
	}
	return services, nil
}

// FindByProvider 返回某提供者的服务列表
func (r *serviceRepository) FindByProvider(ctx context.Context, providerID primitive.ObjectID, page, pageSize int) ([]*model.Service, int, error) {
	return r.List(ctx, interfaces.ServiceFilters{Provider: providerID}, page, pageSize)
}

// IncrementViewCount 浏览计数自增，尽力而为
func (r *serviceRepository) IncrementViewCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"view_count": 1}})
	return err
}

// IncrementBookingCount 预约计数自增
func (r *serviceRepository) IncrementBookingCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"booking_count": 1}})
	return err
}

// Count 返回服务总数
func (r *serviceRepository) Count(ctx context.Context) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(count), err
}

// CountActive 返回激活中的服务数
func (r *serviceRepository) CountActive(ctx context.Context) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"is_active": true})
	return int(count), err
}
