package user

import (
	"fmt"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/service"
	"github.com/Dutta2005/TrustCircle/internal/storage"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	userService service.UserServiceInterface
	storage     storage.Storage
}

func NewProfileHandler(userService service.UserServiceInterface, storage storage.Storage) *ProfileHandler {
	return &ProfileHandler{userService, storage}
}

// GetProfile 当前登录用户的资料
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID := c.GetString("user_id")
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		util.Logger.Error("获取用户资料失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"user": user,
	}, "")
}

// UpdateProfile 更新当前登录用户的资料
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	currentUser, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		util.Logger.Error("获取用户信息失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	var updateData struct {
		Name        string             `json:"name"`
		Phone       string             `json:"phone"`
		Bio         string             `json:"bio"`
		Address     *model.Address     `json:"address"`
		Lng         *float64           `json:"lng"`
		Lat         *float64           `json:"lat"`
		Preferences *model.Preferences `json:"preferences"`
	}

	if err := c.ShouldBindJSON(&updateData); err != nil {
		util.Logger.Warn("更新用户资料失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	// 只更新允许用户修改的字段
	if updateData.Name != "" {
		currentUser.Name = updateData.Name
	}
	if updateData.Phone != "" {
		currentUser.Phone = updateData.Phone
	}
	if updateData.Bio != "" {
		currentUser.Bio = updateData.Bio
	}
	if updateData.Address != nil {
		currentUser.Address = *updateData.Address
	}
	if updateData.Lng != nil && updateData.Lat != nil {
		currentUser.Location = model.NewGeoPoint(*updateData.Lng, *updateData.Lat)
	}
	if updateData.Preferences != nil {
		currentUser.Preferences = *updateData.Preferences
	}

	if err := h.userService.UpdateUser(c.Request.Context(), currentUser); err != nil {
		util.Logger.Error("更新用户资料失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"user": currentUser,
	}, "资料更新成功")
}

// UploadAvatar 上传头像
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID := c.GetString("user_id")

	file, err := c.FormFile("avatar")
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "缺少头像文件", err))
		return
	}

	filename := util.GenerateUniqueFilename(file.Filename)
	path := fmt.Sprintf("avatars/%s/%s", userID, filename)

	url, err := h.storage.UploadFile(file, path)
	if err != nil {
		util.Logger.Error("上传头像失败", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "上传头像失败", err))
		return
	}

	if err := h.userService.UpdateAvatar(c.Request.Context(), userID, url); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"avatar_url": url}, "头像更新成功")
}
