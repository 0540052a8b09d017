package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestAddLikeIdempotent 重复点赞幂等，取消不存在的点赞是无操作
func TestAddLikeIdempotent(t *testing.T) {
	p := &Post{}
	userID := primitive.NewObjectID()

	assert.True(t, p.AddLike(userID))
	assert.False(t, p.AddLike(userID))
	assert.Len(t, p.Likes, 1)

	assert.True(t, p.RemoveLike(userID))
	assert.False(t, p.RemoveLike(userID))
	assert.Empty(t, p.Likes)
}

// TestAddAttendeeCapacity 活动满员后不能再报名
func TestAddAttendeeCapacity(t *testing.T) {
	p := &Post{
		Type:  PostTypeEvent,
		Event: &EventInfo{Capacity: 2},
	}

	assert.True(t, p.AddAttendee(primitive.NewObjectID()))
	assert.True(t, p.AddAttendee(primitive.NewObjectID()))
	assert.False(t, p.AddAttendee(primitive.NewObjectID()))
	assert.Len(t, p.Attendees, 2)
}

// TestCheckInAttendee 只有已报名的用户可以签到
func TestCheckInAttendee(t *testing.T) {
	p := &Post{}
	userID := primitive.NewObjectID()
	p.AddAttendee(userID)

	assert.True(t, p.CheckInAttendee(userID))
	assert.True(t, p.Attendees[0].CheckedIn)
	assert.False(t, p.CheckInAttendee(primitive.NewObjectID()))
}

// TestFlagPost 累计3次举报自动转入 flagged 状态
func TestFlagPost(t *testing.T) {
	p := &Post{Status: PostStatusActive}
	p.FlagPost()
	p.FlagPost()
	assert.Equal(t, PostStatusActive, p.Status)
	p.FlagPost()
	assert.Equal(t, PostStatusFlagged, p.Status)
}

// TestRefresh 持久化前检查清理过期标记并归档过期帖子
func TestRefresh(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	p := &Post{
		Status:      PostStatusActive,
		IsPinned:    true,
		PinnedUntil: &past,
		IsFeatured:  true,
		FeaturedTil: &future,
		ExpiresAt:   &past,
	}
	p.Refresh(now)

	assert.False(t, p.IsPinned)
	assert.True(t, p.IsFeatured) // 未过期的标记保留
	assert.Equal(t, PostStatusArchived, p.Status)
}
