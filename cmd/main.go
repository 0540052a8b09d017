package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dutta2005/TrustCircle/config"
	"github.com/Dutta2005/TrustCircle/internal/api/admin"
	"github.com/Dutta2005/TrustCircle/internal/api/booking"
	"github.com/Dutta2005/TrustCircle/internal/api/community"
	"github.com/Dutta2005/TrustCircle/internal/api/listing"
	"github.com/Dutta2005/TrustCircle/internal/api/review"
	"github.com/Dutta2005/TrustCircle/internal/api/user"
	"github.com/Dutta2005/TrustCircle/internal/middleware"
	"github.com/Dutta2005/TrustCircle/internal/realtime"
	"github.com/Dutta2005/TrustCircle/internal/repository/mongodb"
	"github.com/Dutta2005/TrustCircle/internal/service"
	"github.com/Dutta2005/TrustCircle/internal/storage"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 连接数据库
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := mongodb.Connect(ctx, config.AppConfig.MongoURI, config.AppConfig.MongoDBName)
	cancel()
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Client().Disconnect(ctx); err != nil {
			util.Logger.Error("断开数据库连接失败", zap.Error(err))
		}
	}()
	util.Logger.Info("数据库连接成功")

	// 创建索引
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	err = mongodb.EnsureIndexes(ctx, db)
	cancel()
	if err != nil {
		util.Logger.Fatal("创建数据库索引失败", zap.Error(err))
	}

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("future_date", util.ValidateFutureDate)
	}

	// 确保上传文件夹存在
	if config.AppConfig.StorageBackend != "s3" {
		ensureUploadsFolder()
	}

	// 初始化文件存储
	fileStorage, err := storage.New(&config.AppConfig)
	if err != nil {
		util.Logger.Fatal("初始化文件存储失败", zap.Error(err))
	}

	// 初始化存储库
	userRepo := mongodb.NewUserRepository(db)
	serviceRepo := mongodb.NewServiceRepository(db)
	bookingRepo := mongodb.NewBookingRepository(db)
	reviewRepo := mongodb.NewReviewRepository(db)
	communityRepo := mongodb.NewCommunityRepository(db)

	// 初始化服务
	emailService := service.NewEmailService(userRepo)
	userService := service.NewUserService(userRepo)
	listingService := service.NewListingService(serviceRepo, bookingRepo, userRepo)
	bookingService := service.NewBookingService(bookingRepo, serviceRepo, userRepo, emailService)
	reviewService := service.NewReviewService(reviewRepo, bookingRepo, serviceRepo, userRepo)
	communityService := service.NewCommunityService(communityRepo, userRepo)
	adminService := service.NewAdminService(userRepo, serviceRepo, bookingRepo, reviewRepo, communityRepo)

	// 初始化实时层
	hub := realtime.NewHub()
	go hub.Run()
	eventRouter := realtime.NewEventRouter(hub, userService, bookingService, listingService, communityService)

	// 初始化处理器
	authHandler := user.NewAuthHandler(userService)
	profileHandler := user.NewProfileHandler(userService, fileStorage)
	userHandler := user.NewUserHandler(userService, listingService, reviewService)
	listingHandler := listing.NewListingHandler(listingService, reviewService, fileStorage)
	bookingHandler := booking.NewBookingHandler(bookingService, hub)
	reviewHandler := review.NewReviewHandler(reviewService)
	communityHandler := community.NewCommunityHandler(communityService, hub)
	adminHandler := admin.NewAdminHandler(adminService, userService, hub.ConnectionCount)

	// 启动定时任务归档过期帖子
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := communityService.ArchiveExpiredPosts(ctx); err != nil {
				util.Logger.Error("归档过期帖子失败", zap.Error(err))
			}
			cancel()
		}
	}()

	// 初始化错误监控和限流
	errorMonitor := middleware.NewErrorMonitor()
	rateLimiter := middleware.NewRateLimiter(config.AppConfig.RateLimitPerSec, config.AppConfig.RateLimitBurst)
	rateLimiter.StartCleanup(time.Hour)

	// 设置 Gin 路由
	r := gin.Default()

	// 添加中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))
	r.Use(rateLimiter.Handler())

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = config.AppConfig.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// 配置静态文件服务
	if config.AppConfig.StorageBackend != "s3" {
		r.Static("/uploads", config.AppConfig.LocalStoragePath)
	}

	// WebSocket 入口
	r.GET("/ws", eventRouter.ServeWS)

	auth := middleware.AuthMiddleware(userService)

	// 定义 API 路由
	api := r.Group("/api")
	{
		// 认证相关路由
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/request-password-reset", authHandler.RequestPasswordReset)
		api.POST("/auth/reset-password", authHandler.ResetPassword)
		api.GET("/auth/verify-email", authHandler.VerifyEmail)
		api.POST("/auth/logout", auth, authHandler.Logout)
		api.POST("/auth/refresh-token", auth, authHandler.RefreshToken)
		api.PUT("/auth/password", auth, authHandler.UpdatePassword)

		// 个人资料
		api.GET("/profile", auth, profileHandler.GetProfile)
		api.PUT("/profile", auth, profileHandler.UpdateProfile)
		api.POST("/profile/avatar", auth, profileHandler.UploadAvatar)
		api.DELETE("/account", auth, authHandler.DeleteAccount)

		// 用户公开信息
		api.GET("/users/search", userHandler.SearchUsers)
		api.GET("/users/:id", userHandler.GetUser)
		api.GET("/users/:id/services", userHandler.GetUserServices)
		api.GET("/users/:id/reviews", userHandler.GetUserReviews)

		// 服务相关路由
		api.POST("/services", auth, listingHandler.CreateService)
		api.GET("/services/search", listingHandler.SearchServices)
		api.GET("/services/nearby", listingHandler.NearbyServices)
		api.GET("/services/:id", listingHandler.GetService)
		api.PUT("/services/:id", auth, listingHandler.UpdateService)
		api.PATCH("/services/:id/pause", auth, listingHandler.PauseService)
		api.DELETE("/services/:id", auth, listingHandler.DeleteService)
		api.GET("/services/:id/reviews", listingHandler.GetServiceReviews)
		api.POST("/services/:id/images", auth, listingHandler.UploadImage)

		// 订单相关路由
		api.POST("/bookings", auth, bookingHandler.CreateBooking)
		api.GET("/bookings", auth, bookingHandler.ListBookings)
		api.GET("/bookings/:id", auth, bookingHandler.GetBooking)
		api.PATCH("/bookings/:id/status", auth, bookingHandler.UpdateStatus)
		api.GET("/bookings/:id/cancellation-fee", auth, bookingHandler.CancellationFee)
		api.POST("/bookings/:id/messages", auth, bookingHandler.SendMessage)
		api.PATCH("/bookings/:id/messages/read", auth, bookingHandler.MarkMessagesRead)

		// 评价相关路由
		api.POST("/reviews", auth, reviewHandler.CreateReview)
		api.GET("/reviews/:id", reviewHandler.GetReview)
		api.PUT("/reviews/:id", auth, reviewHandler.UpdateReview)
		api.DELETE("/reviews/:id", auth, reviewHandler.DeleteReview)
		api.POST("/reviews/:id/vote", auth, reviewHandler.VoteHelpful)
		api.POST("/reviews/:id/flag", auth, reviewHandler.FlagReview)
		api.POST("/reviews/:id/response", auth, reviewHandler.RespondToReview)

		// 社区相关路由
		api.POST("/posts", auth, communityHandler.CreatePost)
		api.GET("/posts", communityHandler.ListPosts)
		api.GET("/posts/nearby", communityHandler.NearbyPosts)
		api.GET("/posts/events", communityHandler.UpcomingEvents)
		api.GET("/posts/trending", communityHandler.TrendingPosts)
		api.GET("/posts/:id", communityHandler.GetPost)
		api.PUT("/posts/:id", auth, communityHandler.UpdatePost)
		api.DELETE("/posts/:id", auth, communityHandler.DeletePost)
		api.POST("/posts/:id/like", auth, communityHandler.LikePost)
		api.POST("/posts/:id/bookmark", auth, communityHandler.BookmarkPost)
		api.POST("/posts/:id/attend", auth, communityHandler.AttendEvent)
		api.POST("/posts/:id/checkin", auth, communityHandler.CheckInAttendee)
		api.POST("/posts/:id/comments", auth, communityHandler.AddComment)
		api.POST("/posts/:id/flag", auth, communityHandler.FlagPost)

		// 管理员路由组
		adminRoutes := api.Group("/admin")
		adminRoutes.Use(auth, middleware.AdminMiddleware())
		{
			adminRoutes.GET("/users", adminHandler.ListUsers)
			adminRoutes.POST("/users/:id/suspend", adminHandler.SuspendUser)
			adminRoutes.POST("/users/:id/reactivate", adminHandler.ReactivateUser)
			adminRoutes.GET("/reviews/flagged", adminHandler.FlaggedReviews)
			adminRoutes.POST("/reviews/:id/moderate", adminHandler.ModerateReview)
			adminRoutes.GET("/posts/flagged", adminHandler.FlaggedPosts)
			adminRoutes.POST("/posts/:id/moderate", adminHandler.ModeratePost)
			adminRoutes.GET("/stats", adminHandler.Stats)
		}
	}

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.Port,
		Handler: r,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("服务器正在启动", zap.String("port", config.AppConfig.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.Logger.Fatal("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}

// 确保上传文件夹存在
func ensureUploadsFolder() {
	uploadsPath := config.AppConfig.LocalStoragePath
	if err := os.MkdirAll(uploadsPath, 0755); err != nil {
		util.Logger.Fatal("创建上传文件夹失败", zap.Error(err), zap.String("path", uploadsPath))
	}
}
