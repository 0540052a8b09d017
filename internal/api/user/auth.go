package user

import (
	"strings"
	"unicode"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/service"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 处理与认证相关的HTTP请求
type AuthHandler struct {
	userService service.UserServiceInterface
}

// NewAuthHandler 创建一个新的 AuthHandler 实例
func NewAuthHandler(userService service.UserServiceInterface) *AuthHandler {
	return &AuthHandler{userService}
}

// Register 处理用户注册请求
func (h *AuthHandler) Register(c *gin.Context) {
	var registerData struct {
		Name     string  `json:"name" binding:"required"`
		Email    string  `json:"email" binding:"required,email"`
		Password string  `json:"password" binding:"required"`
		Phone    string  `json:"phone"`
		Lng      float64 `json:"lng"`
		Lat      float64 `json:"lat"`
	}

	if err := c.ShouldBindJSON(&registerData); err != nil {
		util.Logger.Warn("注册失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	if !isPasswordStrong(registerData.Password) {
		errors.HandleError(c, errors.New(errors.ErrWeakPassword, "密码强度不足"))
		return
	}

	user := &model.User{
		Name:     registerData.Name,
		Email:    strings.ToLower(registerData.Email),
		Phone:    registerData.Phone,
		Location: model.NewGeoPoint(registerData.Lng, registerData.Lat),
	}

	if err := h.userService.Register(c.Request.Context(), user, registerData.Password); err != nil {
		util.Logger.Warn("注册失败", zap.String("email", user.Email), zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	token, err := util.GenerateToken(user.ID.Hex())
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "生成令牌失败", err))
		return
	}

	errors.HandleCreated(c, gin.H{
		"token": token,
		"user":  user,
	}, "注册成功")
}

// Login 处理用户登录请求
func (h *AuthHandler) Login(c *gin.Context) {
	var loginData struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	user, err := h.userService.Login(c.Request.Context(), strings.ToLower(loginData.Email), loginData.Password)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	token, err := util.GenerateToken(user.ID.Hex())
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "生成令牌失败", err))
		return
	}

	errors.HandleSuccess(c, gin.H{
		"token": token,
		"user":  user,
	}, "登录成功")
}

// RequestPasswordReset 处理密码重置请求
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var requestData struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&requestData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的邮箱格式", err))
		return
	}

	if err := h.userService.RequestPasswordReset(c.Request.Context(), requestData.Email); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "密码重置邮件已发送")
}

// ResetPassword 处理密码重置
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var resetData struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&resetData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	if !isPasswordStrong(resetData.NewPassword) {
		errors.HandleError(c, errors.New(errors.ErrWeakPassword, "新密码强度不足"))
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), resetData.Token, resetData.NewPassword); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "密码重置成功")
}

// UpdatePassword 登录状态下修改密码
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var passwordData struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&passwordData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	if !isPasswordStrong(passwordData.NewPassword) {
		errors.HandleError(c, errors.New(errors.ErrWeakPassword, "新密码强度不足"))
		return
	}

	userID := c.GetString("user_id")
	if err := h.userService.UpdatePassword(c.Request.Context(), userID, passwordData.CurrentPassword, passwordData.NewPassword); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "密码修改成功")
}

// Logout 处理用户登出
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetString("user_id")
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	if err := h.userService.Logout(userID, token); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "登出失败", err))
		return
	}
	errors.HandleSuccess(c, nil, "已成功登出")
}

// VerifyEmail 处理邮箱验证
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		errors.HandleError(c, errors.New(errors.ErrValidation, "缺少验证令牌"))
		return
	}

	if err := h.userService.VerifyEmail(c.Request.Context(), token); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "邮箱验证成功")
}

// RefreshToken 处理令牌刷新
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if tokenString == "" {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "缺少令牌"))
		return
	}

	newToken, err := util.RefreshToken(tokenString)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrUnauthorized, "刷新令牌失败", err))
		return
	}

	errors.HandleSuccess(c, gin.H{"token": newToken}, "令牌刷新成功")
}

// DeleteAccount 注销当前账户
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID := c.GetString("user_id")
	if err := h.userService.DeleteAccount(c.Request.Context(), userID); err != nil {
		errors.HandleError(c, err)
		return
	}

	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	_ = h.userService.Logout(userID, token)

	errors.HandleSuccess(c, nil, "账户已注销")
}

func isPasswordStrong(password string) bool {
	var (
		hasUpper  = false
		hasLower  = false
		hasNumber = false
	)
	if len(password) < 8 {
		return false
	}
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	return hasUpper && hasLower && hasNumber
}
