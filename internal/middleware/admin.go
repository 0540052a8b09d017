package middleware

import (
	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminMiddleware 确保只有管理员可以访问某些路由，必须挂在 AuthMiddleware 之后
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		util.Logger.Info("进入管理员中间件",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))

		value, exists := c.Get("current_user")
		if !exists {
			util.Logger.Warn("上下文中缺少用户信息")
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
			c.Abort()
			return
		}

		user, ok := value.(*model.User)
		if !ok || !user.IsAdmin() {
			util.Logger.Warn("非管理员访问",
				zap.String("user_id", c.GetString("user_id")))
			errors.HandleError(c, errors.New(errors.ErrForbidden, "需要管理员权限"))
			c.Abort()
			return
		}

		c.Next()
	}
}
