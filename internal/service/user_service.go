package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/repository/interfaces"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService 处理与用户相关的业务逻辑
type UserService struct {
	userRepo       interfaces.UserRepository
	emailService   *EmailService
	tokenBlacklist map[string]time.Time
	blacklistMutex sync.RWMutex
}

// NewUserService 创建一个新的 UserService 实例
func NewUserService(userRepo interfaces.UserRepository) *UserService {
	return &UserService{
		userRepo:       userRepo,
		emailService:   NewEmailService(userRepo),
		tokenBlacklist: make(map[string]time.Time),
	}
}

// IsEmailTaken 检查邮箱是否已被注册
func (s *UserService) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// Register 注册新用户
func (s *UserService) Register(ctx context.Context, user *model.User, password string) error {
	// 检查邮箱是否已被注册
	taken, err := s.IsEmailTaken(ctx, user.Email)
	if err != nil {
		return err
	}
	if taken {
		return errors.New(errors.ErrUserExists, "email already registered")
	}

	// 生成密码哈希
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedPassword)

	// 创建用户
	err = s.userRepo.Create(ctx, user)
	if err != nil {
		return err
	}

	// 发送验证邮件
	err = s.emailService.SendVerificationEmail(user.Email, user.Name)
	if err != nil {
		util.Logger.Error("发送验证邮件失败", zap.Error(err))
	}

	return nil
}

// Login 用户登录，成功时刷新最后登录时间
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, errors.New(errors.ErrInvalidCredentials, "邮箱或密码不正确")
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		util.Logger.Warn("用户登录失败，密码不正确", zap.String("email", email))
		return nil, errors.New(errors.ErrInvalidCredentials, "邮箱或密码不正确")
	}

	if user.Suspended {
		return nil, errors.New(errors.ErrAccountSuspended, "账号已被封禁: "+user.SuspendedFor)
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		util.Logger.Error("刷新登录时间失败", zap.Error(err), zap.String("user_id", user.ID.Hex()))
	}

	util.Logger.Info("用户登录成功", zap.String("user_id", user.ID.Hex()))
	return user, nil
}

// GetUserByID 通过ID获取用户信息
func (s *UserService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New(errors.ErrBadRequest, "无效的用户ID")
	}

	user, err := s.userRepo.FindByID(ctx, objectID)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return user, nil
}

// UpdateUser 更新用户资料，只覆盖允许修改的字段
func (s *UserService) UpdateUser(ctx context.Context, user *model.User) error {
	existingUser, err := s.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}
	if existingUser == nil {
		return errors.New(errors.ErrUserNotFound, "用户不存在")
	}

	existingUser.Name = user.Name
	existingUser.Phone = user.Phone
	existingUser.Bio = user.Bio
	existingUser.Address = user.Address
	existingUser.Location = user.Location
	existingUser.Preferences = user.Preferences

	if err := s.userRepo.Update(ctx, existingUser); err != nil {
		return fmt.Errorf("更新用户失败: %w", err)
	}
	*user = *existingUser
	return nil
}

// UpdatePassword 修改密码，需要先校验当前密码
func (s *UserService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return errors.New(errors.ErrInvalidCredentials, "当前密码不正确")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedPassword)
	return s.userRepo.Update(ctx, user)
}

// VerifyEmail 校验邮箱验证令牌并打标
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	email, err := s.emailService.VerifyEmailToken(token)
	if err != nil {
		util.Logger.Error("验证邮箱令牌失败", zap.Error(err))
		return errors.Wrap(errors.ErrInvalidToken, "无效或过期的验证令牌", err)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		util.Logger.Error("查找用户失败", zap.Error(err), zap.String("email", email))
		return err
	}
	if user == nil {
		return errors.New(errors.ErrUserNotFound, "用户不存在")
	}

	if user.Verification.EmailVerified {
		return errors.New(errors.ErrResourceExists, "邮箱已验证过")
	}

	user.Verification.EmailVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		util.Logger.Error("更新用户验证状态失败", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		return err
	}

	util.Logger.Info("邮箱验证成功", zap.String("user_id", user.ID.Hex()))
	return nil
}

// RequestPasswordReset 发送密码重置邮件
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return s.emailService.SendPasswordResetEmail(email)
}

// ResetPassword 通过重置令牌设置新密码
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.emailService.VerifyPasswordResetToken(token)
	if err != nil {
		util.Logger.Error("验证密码重置令牌失败", zap.Error(err))
		return errors.Wrap(errors.ErrInvalidToken, "无效或过期的重置令牌", err)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		util.Logger.Error("查找用户失败", zap.Error(err), zap.String("email", email))
		return err
	}
	if user == nil {
		return errors.New(errors.ErrUserNotFound, "用户不存在")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		util.Logger.Error("生成密码哈希失败", zap.Error(err))
		return err
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(ctx, user); err != nil {
		util.Logger.Error("更新用户密码失败", zap.Error(err), zap.String("user_id", user.ID.Hex()))
		return err
	}

	util.Logger.Info("密码重置成功", zap.String("user_id", user.ID.Hex()))
	return nil
}

// Logout 把当前令牌加入黑名单，黑名单保留24小时
func (s *UserService) Logout(userID, token string) error {
	s.blacklistMutex.Lock()
	s.tokenBlacklist[token] = time.Now().Add(24 * time.Hour)
	s.blacklistMutex.Unlock()
	util.Logger.Info("用户注销，令牌已加入黑名单", zap.String("user_id", userID))
	return nil
}

func (s *UserService) IsTokenBlacklisted(token string) bool {
	s.blacklistMutex.RLock()
	expiry, exists := s.tokenBlacklist[token]
	s.blacklistMutex.RUnlock()
	if !exists {
		return false
	}
	if time.Now().After(expiry) {
		s.blacklistMutex.Lock()
		delete(s.tokenBlacklist, token)
		s.blacklistMutex.Unlock()
		return false
	}
	return true
}

// UpdateAvatar 更新用户头像
func (s *UserService) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	user.AvatarURL = avatarURL
	return s.userRepo.Update(ctx, user)
}

// DeleteAccount 注销账户：邮箱墓碑化并停用，文档保留以维持历史订单和评价
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	user.Tombstone()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("注销账户失败: %w", err)
	}

	util.Logger.Info("账户已注销", zap.String("user_id", userID))
	return nil
}

// SearchUsers 按昵称或简介搜索用户
func (s *UserService) SearchUsers(ctx context.Context, keyword string, page, pageSize int) ([]*model.User, int, error) {
	return s.userRepo.Search(ctx, keyword, page, pageSize)
}

// GetUsers 获取用户列表（管理端）
func (s *UserService) GetUsers(ctx context.Context, page, pageSize int) ([]*model.User, int, error) {
	return s.userRepo.FindAll(ctx, page, pageSize)
}

type UserServiceInterface interface {
	Register(ctx context.Context, user *model.User, password string) error
	Login(ctx context.Context, email, password string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Logout(userID, token string) error
	IsTokenBlacklisted(token string) bool
	UpdateAvatar(ctx context.Context, userID, avatarURL string) error
	DeleteAccount(ctx context.Context, userID string) error
	SearchUsers(ctx context.Context, keyword string, page, pageSize int) ([]*model.User, int, error)
	GetUsers(ctx context.Context, page, pageSize int) ([]*model.User, int, error)
}

// 确保 UserService 实现了 UserServiceInterface
var _ UserServiceInterface = (*UserService)(nil)
