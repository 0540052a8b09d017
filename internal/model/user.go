package model

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User 结构体表示用户模型
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password_hash"` // 密码哈希不应在JSON中暴露
	Phone        string             `json:"phone" bson:"phone"`
	Bio          string             `json:"bio" bson:"bio"`
	AvatarURL    string             `json:"avatar_url" bson:"avatar_url"`
	DateOfBirth  *time.Time         `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	Role         string             `json:"role" bson:"role"`
	Address      Address            `json:"address" bson:"address"`
	Location     GeoPoint           `json:"location" bson:"location"`
	Reputation   Reputation         `json:"reputation" bson:"reputation"`
	Preferences  Preferences        `json:"preferences" bson:"preferences"`
	Verification Verification       `json:"verification" bson:"verification"`
	IsActive     bool               `json:"is_active" bson:"is_active"`
	Suspended    bool               `json:"suspended" bson:"suspended"`
	SuspendedFor string             `json:"suspended_for,omitempty" bson:"suspended_for,omitempty"`
	AIProfile    AIProfile          `json:"ai_profile" bson:"ai_profile"`
	LastLoginAt  *time.Time         `json:"last_login_at,omitempty" bson:"last_login_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// Reputation 用户信誉数据
type Reputation struct {
	TrustScore        int     `json:"trust_score" bson:"trust_score"` // 0-100
	TotalReviews      int     `json:"total_reviews" bson:"total_reviews"`
	AverageRating     float64 `json:"average_rating" bson:"average_rating"`
	CompletedBookings int     `json:"completed_bookings" bson:"completed_bookings"`
	CancelledBookings int     `json:"cancelled_bookings" bson:"cancelled_bookings"`
}

// Preferences 用户偏好设置
type Preferences struct {
	Categories         []string `json:"categories" bson:"categories"`
	MinPrice           float64  `json:"min_price" bson:"min_price"`
	MaxPrice           float64  `json:"max_price" bson:"max_price"`
	SearchRadiusMiles  float64  `json:"search_radius_miles" bson:"search_radius_miles"`
	EmailNotifications bool     `json:"email_notifications" bson:"email_notifications"`
	PushNotifications  bool     `json:"push_notifications" bson:"push_notifications"`
}

// Verification 验证状态标记
type Verification struct {
	EmailVerified bool `json:"email_verified" bson:"email_verified"`
	PhoneVerified bool `json:"phone_verified" bson:"phone_verified"`
	IDVerified    bool `json:"id_verified" bson:"id_verified"`
}

// AIProfile 占位的画像数据块，目前只做线性计算
type AIProfile struct {
	BehaviorScore    float64   `json:"behavior_score" bson:"behavior_score"`
	RiskScore        float64   `json:"risk_score" bson:"risk_score"`
	PreferenceVector []float64 `json:"preference_vector" bson:"preference_vector"`
}

// CalculateTrustScore 根据评价和履约记录计算信任分（0-100）
func (u *User) CalculateTrustScore() int {
	r := u.Reputation
	if r.TotalReviews == 0 {
		return 0
	}

	denom := r.CompletedBookings + r.CancelledBookings
	if denom < 1 {
		denom = 1
	}
	completionRate := float64(r.CompletedBookings) / float64(denom)

	ratingScore := (r.AverageRating / 5.0) * 100 * completionRate
	volumeBonus := math.Min(float64(r.TotalReviews)/50.0, 1.0) * 10

	score := int(math.Round(ratingScore + volumeBonus))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ApplyReview 把一条新评价并入信誉聚合并刷新信任分
func (u *User) ApplyReview(rating float64) {
	r := &u.Reputation
	total := r.AverageRating*float64(r.TotalReviews) + rating
	r.TotalReviews++
	r.AverageRating = total / float64(r.TotalReviews)
	r.TrustScore = u.CalculateTrustScore()
}

// RecordBookingOutcome 记录订单完成或取消，并刷新信任分
func (u *User) RecordBookingOutcome(completed bool) {
	if completed {
		u.Reputation.CompletedBookings++
	} else {
		u.Reputation.CancelledBookings++
	}
	u.Reputation.TrustScore = u.CalculateTrustScore()
}

// Tombstone 软删除：重写邮箱并停用账户，文档本身不删除
func (u *User) Tombstone() {
	u.Email = fmt.Sprintf("deleted_%s_%s", u.ID.Hex(), u.Email)
	u.IsActive = false
}

// IsAdmin 判断是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
