package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config 结构体用于存储应用程序的配置信息
type Config struct {
	Port             string
	MongoURI         string
	MongoDBName      string
	JWTSecret        string
	JWTExpireHours   int // 令牌有效期（小时），默认7天
	LogLevel         string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	FrontendURL      string
	BackendURL       string
	RateLimitPerSec  int // 每个客户端每秒允许的请求数
	RateLimitBurst   int
	CORSOrigins      []string
	StorageBackend   string // local 或 s3
	S3Region         string
	S3Bucket         string
	LocalStoragePath string
	Debug            bool // 是否开启调试模式
}

// AppConfig 是全局配置变量
var AppConfig Config

// Init 函数用于初始化配置
func Init() {
	// 加载 .env 文件
	err := godotenv.Load()
	if err != nil {
		log.Printf("警告：无法加载 .env 文件: %v", err)
	}

	// 从环境变量中读取配置
	AppConfig = Config{
		Port:             getEnv("PORT", "8080"),
		MongoURI:         getEnv("MONGO_URI", ""),
		MongoDBName:      getEnv("MONGO_DB_NAME", "trustcircle"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTExpireHours:   getEnvAsInt("JWT_EXPIRE_HOURS", 24*7),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		SMTPHost:         getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         getEnvAsInt("SMTP_PORT", 465),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:5173"),
		BackendURL:       getEnv("BACKEND_URL", "http://localhost:8080"),
		RateLimitPerSec:  getEnvAsInt("RATE_LIMIT_PER_SEC", 20),
		RateLimitBurst:   getEnvAsInt("RATE_LIMIT_BURST", 40),
		CORSOrigins:      getEnvAsSlice("CORS_ORIGINS", []string{"http://localhost:5173"}),
		StorageBackend:   getEnv("STORAGE_BACKEND", "local"),
		S3Region:         getEnv("S3_REGION", "us-west-2"),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./uploads"),
		Debug:            getEnvAsBool("DEBUG", true),
	}

	validateConfig()

	if AppConfig.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("应用程序运行在调试模式")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("应用程序运行在生产模式")
	}

	log.Printf("配置加载完成。数据库：%s", AppConfig.MongoDBName)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string) []string {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	parts := strings.Split(valStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func validateConfig() {
	if AppConfig.MongoURI == "" {
		log.Fatal("错误：MONGO_URI 未设置")
	}
	if AppConfig.JWTSecret == "" {
		log.Fatal("错误：JWT密钥未设置")
	}
	if AppConfig.StorageBackend == "s3" && AppConfig.S3Bucket == "" {
		log.Fatal("错误：S3存储配置不完整")
	}
}
