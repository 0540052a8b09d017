package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestComputeSentiment 测试关键词和长度启发式
func TestComputeSentiment(t *testing.T) {
	r := &Review{Comment: "Great service, very professional and punctual. Would recommend to anyone in the neighborhood."}
	r.ComputeSentiment()
	assert.Greater(t, r.Sentiment.Score, 0.0)
	assert.Equal(t, 0.8, r.Sentiment.Authenticity)

	r = &Review{Comment: "bad"}
	r.ComputeSentiment()
	assert.Less(t, r.Sentiment.Score, 0.0)
	assert.Equal(t, 0.5, r.Sentiment.Authenticity)
}

// TestCalculateTrustImpact 测试信任影响信号的各个折算因子
func TestCalculateTrustImpact(t *testing.T) {
	r := &Review{
		Rating:           5,
		ModerationStatus: ModerationApproved,
		Sentiment:        Sentiment{Authenticity: 1.0},
	}
	// 无投票时比例为1：5 * 1.0 * 1.0 = 5
	assert.Equal(t, 5.0, r.CalculateTrustImpact())

	// 被举报减半
	r.ModerationStatus = ModerationFlagged
	assert.Equal(t, 2.5, r.CalculateTrustImpact())

	// 有用比例下限钳制在0.5
	r.ModerationStatus = ModerationApproved
	voter := primitive.NewObjectID()
	r.Vote(voter, false)
	assert.Equal(t, 2.5, r.CalculateTrustImpact())

	// 结果上限钳制在5
	r.HelpfulVotes = nil
	r.Sentiment.Authenticity = 2.0 // 构造越界输入
	assert.Equal(t, 5.0, r.CalculateTrustImpact())
}

// TestVoteUpsert 同一投票人重复投票只保留一条
func TestVoteUpsert(t *testing.T) {
	r := &Review{}
	voter := primitive.NewObjectID()

	r.Vote(voter, true)
	r.Vote(voter, false)
	assert.Len(t, r.HelpfulVotes, 1)
	assert.False(t, r.HelpfulVotes[0].Helpful)
}

// TestReviewFlag 累计3次举报自动转入 flagged
func TestReviewFlag(t *testing.T) {
	r := &Review{ModerationStatus: ModerationApproved}
	r.Flag()
	r.Flag()
	assert.Equal(t, ModerationApproved, r.ModerationStatus)
	r.Flag()
	assert.Equal(t, ModerationFlagged, r.ModerationStatus)
}

// TestCanEdit 编辑窗口为创建后24小时
func TestCanEdit(t *testing.T) {
	r := &Review{CreatedAt: time.Now().Add(-23 * time.Hour)}
	assert.True(t, r.CanEdit(time.Now()))

	r.CreatedAt = time.Now().Add(-25 * time.Hour)
	assert.False(t, r.CanEdit(time.Now()))
}
