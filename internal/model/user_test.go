package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestCalculateTrustScore 测试信任分计算
func TestCalculateTrustScore(t *testing.T) {
	// 没有评价时为 0
	u := &User{}
	assert.Equal(t, 0, u.CalculateTrustScore())

	// 10条评价、均分5、完成10单、0取消：满分
	u.Reputation = Reputation{
		TotalReviews:      10,
		AverageRating:     5,
		CompletedBookings: 10,
		CancelledBookings: 0,
	}
	assert.Equal(t, 100, u.CalculateTrustScore())

	// 有取消记录时按完成率折算
	u.Reputation = Reputation{
		TotalReviews:      10,
		AverageRating:     4,
		CompletedBookings: 8,
		CancelledBookings: 2,
	}
	// (4/5)*100*0.8 + min(10/50,1)*10 = 64 + 2 = 66
	assert.Equal(t, 66, u.CalculateTrustScore())

	// 完成和取消都是0时分母取1，不会除零
	u.Reputation = Reputation{TotalReviews: 5, AverageRating: 5}
	assert.NotPanics(t, func() { u.CalculateTrustScore() })
}

// TestApplyReview 测试评价并入信誉聚合
func TestApplyReview(t *testing.T) {
	u := &User{Reputation: Reputation{CompletedBookings: 1}}
	u.ApplyReview(4)
	assert.Equal(t, 1, u.Reputation.TotalReviews)
	assert.Equal(t, 4.0, u.Reputation.AverageRating)

	u.ApplyReview(2)
	assert.Equal(t, 2, u.Reputation.TotalReviews)
	assert.Equal(t, 3.0, u.Reputation.AverageRating)
}

// TestTombstone 软删除后邮箱被重写且账户停用
func TestTombstone(t *testing.T) {
	u := &User{
		ID:       primitive.NewObjectID(),
		Email:    "a@x.com",
		IsActive: true,
	}
	u.Tombstone()

	assert.False(t, u.IsActive)
	assert.NotEqual(t, "a@x.com", u.Email)
	assert.True(t, strings.HasPrefix(u.Email, "deleted_"))
	assert.Contains(t, u.Email, "a@x.com")
}
