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

// userRepository 实现了 UserRepository 接口
type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository 创建一个新的 userRepository 实例
func NewUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{db.Collection(CollectionUsers)}
}

// Create 创建一个新用户
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = "user" // 设置默认角色
	}
	user.IsActive = true

	result, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		util.Logger.Error("创建用户失败", zap.Error(err), zap.String("email", user.Email))
		return err
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	util.Logger.Info("用户创建成功", zap.String("user_id", user.ID.Hex()))
	return nil
}

// FindByID 通过ID查找用户
func (r *userRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var user model.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("查找用户失败: %w", err)
	}
	return &user, nil
}

// FindByEmail 通过邮箱查找用户
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("查找用户失败: %w", err)
	}
	return &user, nil
}

// Update 整份文档写回
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		util.Logger.Error("更新用户失败", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		return err
	}
	return nil
}

// Count 返回用户总数
func (r *userRepository) Count(ctx context.Context) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(count), err
}

// Search 按姓名或简介关键词搜索活跃用户
func (r *userRepository) Search(ctx context.Context, keyword string, page, pageSize int) ([]*model.User, int, error) {
	filter := bson.M{"is_active": true}
	if keyword != "" {
		pattern := primitive.Regex{Pattern: keyword, Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"bio": pattern},
		}
	}
	return r.findPage(ctx, filter, page, pageSize)
}

// FindAll 返回分页的用户列表
func (r *userRepository) FindAll(ctx context.Context, page, pageSize int) ([]*model.User, int, error) {
	return r.findPage(ctx, bson.M{}, page, pageSize)
}

func (r *userRepository) findPage(ctx context.Context, filter bson.M, page, pageSize int) ([]*model.User, int, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("统计用户失败: %w", err)
	}

	cursor, err := r.coll.Find(ctx, filter, pageOptions(page, pageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("查询用户失败: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("解析用户数据失败: %w", err)
	}
	return users, int(total), nil
}
