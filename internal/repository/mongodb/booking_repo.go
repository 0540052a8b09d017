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

// bookingRepository 实现了 BookingRepository 接口
type bookingRepository struct {
	coll *mongo.Collection
}

// NewBookingRepository 创建一个新的 bookingRepository 实例
func NewBookingRepository(db *mongo.Database) *bookingRepository {
	return &bookingRepository{db.Collection(CollectionBookings)}
}

// Create 创建一个新订单
func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.coll.InsertOne(ctx, booking)
	if err != nil {
		util.Logger.Error("创建订单失败", zap.Error(err))
		return err
	}
	booking.ID = result.InsertedID.(primitive.ObjectID)
	util.Logger.Info("订单创建成功", zap.String("booking_id", booking.ID.Hex()))
	return nil
}

// FindByID 通过ID查找订单
func (r *bookingRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Booking, error) {
	var booking model.Booking
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("查找订单失败: %w", err)
	}
	return &booking, nil
}

// Update 整份文档写回
func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	booking.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": booking.ID}, booking)
	if err != nil {
		util.Logger.Error("更新订单失败", zap.Error(err), zap.String("booking_id", booking.ID.Hex()))
		return err
	}
	return nil
}

// FindByCustomer 按客户分页查询订单
func (r *bookingRepository) FindByCustomer(ctx context.Context, customerID primitive.ObjectID, status string, page, pageSize int) ([]*model.Booking, int, error) {
	filter := bson.M{"customer_id": customerID}
	if status != "" {
		filter["status"] = status
	}
	return r.findPage(ctx, filter, page, pageSize)
}

// FindByProvider 按提供者分页查询订单
func (r *bookingRepository) FindByProvider(ctx context.Context, providerID primitive.ObjectID, status string, page, pageSize int) ([]*model.Booking, int, error) {
	filter := bson.M{"provider_id": providerID}
	if status != "" {
		filter["status"] = status
	}
	return r.findPage(ctx, filter, page, pageSize)
}

// CountActiveByService 统计某服务上未结束的订单数
func (r *bookingRepository) CountActiveByService(ctx context.Context, serviceID primitive.ObjectID) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{
		"service_id": serviceID,
		"status": bson.M{"$in": bson.A{
			model.BookingPending, model.BookingConfirmed, model.BookingInProgress,
		}},
	})
	return int(count), err
}

// Count 返回订单总数
func (r *bookingRepository) Count(ctx context.Context) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(count), err
}

// CountByStatus 按状态统计订单数
func (r *bookingRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"status": status})
	return int(count), err
}

func (r *bookingRepository) findPage(ctx context.Context, filter bson.M, page, pageSize int) ([]*model.Booking, int, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("统计订单失败: %w", err)
	}

	opts := pageOptions(page, pageSize).SetSort(bson.D{{Key: "scheduled_date", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("查询订单失败: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, fmt.Errorf("解析订单数据失败: %w", err)
	}
	return bookings, int(total), nil
}
