package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrorBody 错误信息体
type ErrorBody struct {
	Message    string       `json:"message"`
	Type       string       `json:"type"`
	StatusCode int          `json:"statusCode"`
	Errors     []FieldError `json:"errors,omitempty"`
}

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// SuccessResponse 定义成功响应结构
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// 错误码与HTTP状态码映射
var errorStatusMap = map[ErrorCode]int{
	// 系统错误 (1000-1999)
	ErrInternal: http.StatusInternalServerError,
	ErrDatabase: http.StatusInternalServerError,
	ErrTimeout:  http.StatusRequestTimeout,

	// 认证错误 (2000-2999)
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrTokenExpired:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,

	// 请求错误 (3000-3999)
	ErrBadRequest:       http.StatusBadRequest,
	ErrValidation:       http.StatusBadRequest,
	ErrResourceNotFound: http.StatusNotFound,
	ErrResourceExists:   http.StatusConflict,
	ErrRateLimit:        http.StatusTooManyRequests,
	ErrCORS:             http.StatusForbidden,

	// 业务错误 (4000-4999)
	ErrUserNotFound:       http.StatusNotFound,
	ErrUserExists:         http.StatusConflict,
	ErrWeakPassword:       http.StatusBadRequest,
	ErrServiceNotFound:    http.StatusNotFound,
	ErrBookingNotFound:    http.StatusNotFound,
	ErrReviewNotFound:     http.StatusNotFound,
	ErrPostNotFound:       http.StatusNotFound,
	ErrDuplicateReview:    http.StatusConflict,
	ErrInvalidTransition:  http.StatusBadRequest,
	ErrServiceUnavailable: http.StatusBadRequest,
	ErrAccountSuspended:   http.StatusForbidden,
}

// 错误码与对外错误类型映射
var errorTypeMap = map[ErrorCode]string{
	ErrInternal: "ServerError",
	ErrDatabase: "DatabaseError",
	ErrTimeout:  "ServerError",

	ErrUnauthorized:       "AuthenticationError",
	ErrInvalidToken:       "AuthenticationError",
	ErrTokenExpired:       "AuthenticationError",
	ErrInvalidCredentials: "AuthenticationError",
	ErrForbidden:          "AuthorizationError",

	ErrBadRequest:       "ValidationError",
	ErrValidation:       "ValidationError",
	ErrResourceNotFound: "NotFoundError",
	ErrResourceExists:   "DuplicateError",
	ErrRateLimit:        "RateLimitError",
	ErrCORS:             "CORSError",

	ErrUserNotFound:       "NotFoundError",
	ErrUserExists:         "DuplicateError",
	ErrWeakPassword:       "ValidationError",
	ErrServiceNotFound:    "NotFoundError",
	ErrBookingNotFound:    "NotFoundError",
	ErrReviewNotFound:     "NotFoundError",
	ErrPostNotFound:       "NotFoundError",
	ErrDuplicateReview:    "DuplicateError",
	ErrInvalidTransition:  "ValidationError",
	ErrServiceUnavailable: "ValidationError",
	ErrAccountSuspended:   "AuthorizationError",
}

// HandleError 统一处理错误响应
func HandleError(c *gin.Context, err error) {
	// 记入 gin 的错误链，供错误监控中间件统计
	_ = c.Error(err)

	if appErr, ok := err.(*AppError); ok {
		status := errorStatusMap[appErr.Code]
		if status == 0 {
			status = http.StatusInternalServerError
		}
		errType := errorTypeMap[appErr.Code]
		if errType == "" {
			errType = "ServerError"
		}

		c.JSON(status, ErrorResponse{
			Success: false,
			Error: ErrorBody{
				Message:    appErr.Message,
				Type:       errType,
				StatusCode: status,
				Errors:     appErr.Fields,
			},
		})
		return
	}

	// 已知的数据库错误形态归一化
	if mongo.IsDuplicateKeyError(err) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Success: false,
			Error: ErrorBody{
				Message:    "资源已存在",
				Type:       "DuplicateError",
				StatusCode: http.StatusConflict,
			},
		})
		return
	}
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Success: false,
			Error: ErrorBody{
				Message:    "资源不存在",
				Type:       "NotFoundError",
				StatusCode: http.StatusNotFound,
			},
		})
		return
	}

	// 未知错误统一回 500，生产模式不透出细节
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Message:    "Internal Server Error",
			Type:       "ServerError",
			StatusCode: http.StatusInternalServerError,
		},
	})
}

// HandleSuccess 统一处理成功响应
func HandleSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// HandleCreated 创建成功响应
func HandleCreated(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}
