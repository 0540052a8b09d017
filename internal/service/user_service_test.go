package service

import (
	"context"
	"testing"

	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// TestRegister 测试用户注册功能
func TestRegister(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)
	ctx := context.Background()

	user := &model.User{
		Name:  "testuser",
		Email: "test@example.com",
	}

	// 测试成功注册
	mockRepo.On("FindByEmail", ctx, "test@example.com").Return(nil, nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*model.User")).Return(nil)

	err := service.Register(ctx, user, "password123")
	assert.NoError(t, err)
	assert.NotEqual(t, "password123", user.PasswordHash)
	mockRepo.AssertExpectations(t)

	// 测试邮箱已被注册
	mockRepo.On("FindByEmail", ctx, "taken@example.com").Return(&model.User{}, nil)
	user.Email = "taken@example.com"
	err = service.Register(ctx, user, "password123")
	assert.Error(t, err)
}

// TestLogin 测试用户登录功能
func TestLogin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &model.User{
		ID:           primitive.NewObjectID(),
		Email:        "test@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}

	mockRepo.On("FindByEmail", ctx, "test@example.com").Return(user, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*model.User")).Return(nil)

	// 测试成功登录
	got, err := service.Login(ctx, "test@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotNil(t, got.LastLoginAt)

	// 测试密码错误
	_, err = service.Login(ctx, "test@example.com", "wrongpassword")
	assert.Error(t, err)

	// 测试用户不存在
	mockRepo.On("FindByEmail", ctx, "nobody@example.com").Return(nil, nil)
	_, err = service.Login(ctx, "nobody@example.com", "password123")
	assert.Error(t, err)
}

// TestLoginSuspended 被封禁用户不能登录
func TestLoginSuspended(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &model.User{
		ID:           primitive.NewObjectID(),
		Email:        "banned@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
		Suspended:    true,
		SuspendedFor: "spam",
	}
	mockRepo.On("FindByEmail", ctx, "banned@example.com").Return(user, nil)

	_, err := service.Login(ctx, "banned@example.com", "password123")
	assert.Error(t, err)
}

// TestUpdateProfile 测试更新用户资料功能
func TestUpdateProfile(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)
	ctx := context.Background()

	id := primitive.NewObjectID()
	existing := &model.User{ID: id, Name: "olduser", IsActive: true}

	mockRepo.On("FindByID", ctx, id).Return(existing, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*model.User")).Return(nil)

	updated := &model.User{ID: id, Name: "updateduser", Bio: "Updated bio"}
	err := service.UpdateUser(ctx, updated)
	assert.NoError(t, err)
	assert.Equal(t, "updateduser", updated.Name)
	mockRepo.AssertExpectations(t)

	// 测试用户不存在
	missing := primitive.NewObjectID()
	mockRepo.On("FindByID", ctx, missing).Return(nil, nil)
	err = service.UpdateUser(ctx, &model.User{ID: missing})
	assert.Error(t, err)
}

// TestDeleteAccount 注销账户后邮箱墓碑化且账号停用
func TestDeleteAccount(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)
	ctx := context.Background()

	id := primitive.NewObjectID()
	user := &model.User{ID: id, Email: "gone@example.com", IsActive: true}

	mockRepo.On("FindByID", ctx, id).Return(user, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*model.User")).Return(nil)

	err := service.DeleteAccount(ctx, id.Hex())
	assert.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.Contains(t, user.Email, "deleted_")
	assert.Contains(t, user.Email, "gone@example.com")
}

// TestTokenBlacklist 注销后令牌进入黑名单
func TestTokenBlacklist(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)

	assert.False(t, service.IsTokenBlacklisted("some-token"))

	err := service.Logout(primitive.NewObjectID().Hex(), "some-token")
	assert.NoError(t, err)
	assert.True(t, service.IsTokenBlacklisted("some-token"))
	assert.False(t, service.IsTokenBlacklisted("other-token"))
}

// TestUpdatePassword 修改密码需要校验当前密码
func TestUpdatePassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("oldpass123"), bcrypt.DefaultCost)
	id := primitive.NewObjectID()
	user := &model.User{ID: id, PasswordHash: string(hash), IsActive: true}

	mockRepo.On("FindByID", ctx, id).Return(user, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*model.User")).Return(nil)

	// 当前密码错误
	err := service.UpdatePassword(ctx, id.Hex(), "wrongpass", "newpass123")
	assert.Error(t, err)

	// 修改成功
	err = service.UpdatePassword(ctx, id.Hex(), "oldpass123", "newpass123")
	assert.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpass123")))
}
