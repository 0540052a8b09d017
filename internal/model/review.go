package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 评价方向
const (
	ReviewCustomerToProvider = "customer_to_provider"
	ReviewProviderToCustomer = "provider_to_customer"
)

// 审核状态
const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"
	ModerationFlagged  = "flagged"
)

// ReviewEditWindow 评价创建后允许编辑的时间窗口
const ReviewEditWindow = 24 * time.Hour

// Review 评价模型，(booking_id, review_type) 全局唯一
type Review struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BookingID        primitive.ObjectID `json:"booking_id" bson:"booking_id"`
	ServiceID        primitive.ObjectID `json:"service_id" bson:"service_id"`
	ReviewerID       primitive.ObjectID `json:"reviewer_id" bson:"reviewer_id"`
	RevieweeID       primitive.ObjectID `json:"reviewee_id" bson:"reviewee_id"`
	ReviewType       string             `json:"review_type" bson:"review_type"`
	Rating           int                `json:"rating" bson:"rating"` // 1-5
	Comment          string             `json:"comment" bson:"comment"`
	Dimensions       *Dimensions        `json:"dimensions,omitempty" bson:"dimensions,omitempty"`
	HelpfulVotes     []HelpfulVote      `json:"helpful_votes" bson:"helpful_votes"`
	ModerationStatus string             `json:"moderation_status" bson:"moderation_status"`
	FlagCount        int                `json:"flag_count" bson:"flag_count"`
	Response         *ReviewResponse    `json:"response,omitempty" bson:"response,omitempty"`
	Sentiment        Sentiment          `json:"sentiment" bson:"sentiment"`
	IsDeleted        bool               `json:"is_deleted" bson:"is_deleted"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
	Reviewer         *User              `json:"reviewer,omitempty" bson:"-"`
}

// Dimensions 可选的分维度评分（1-5）
type Dimensions struct {
	Communication   int `json:"communication,omitempty" bson:"communication,omitempty"`
	Punctuality     int `json:"punctuality,omitempty" bson:"punctuality,omitempty"`
	Quality         int `json:"quality,omitempty" bson:"quality,omitempty"`
	Professionalism int `json:"professionalism,omitempty" bson:"professionalism,omitempty"`
	Value           int `json:"value,omitempty" bson:"value,omitempty"`
}

// HelpfulVote 有用投票，每个投票人一票，可更新
type HelpfulVote struct {
	VoterID primitive.ObjectID `json:"voter_id" bson:"voter_id"`
	Helpful bool               `json:"helpful" bson:"helpful"`
	VotedAt time.Time          `json:"voted_at" bson:"voted_at"`
}

// ReviewResponse 被评价方（服务提供者）的公开回复
type ReviewResponse struct {
	Content     string    `json:"content" bson:"content"`
	RespondedAt time.Time `json:"responded_at" bson:"responded_at"`
}

// Sentiment 创建时一次性计算的情感/可信度占位数据
type Sentiment struct {
	Score        float64 `json:"score" bson:"score"`               // -1 到 1
	Authenticity float64 `json:"authenticity" bson:"authenticity"` // 0 到 1
}

var positiveKeywords = []string{
	"great", "excellent", "amazing", "professional", "friendly",
	"punctual", "recommend", "perfect", "helpful", "wonderful",
}

var negativeKeywords = []string{
	"bad", "terrible", "late", "rude", "awful",
	"unprofessional", "disappointing", "never", "waste", "poor",
}

// ComputeSentiment 根据关键词匹配和长度启发式计算情感块，仅在创建时调用一次
func (r *Review) ComputeSentiment() {
	text := strings.ToLower(r.Comment)

	score := 0.0
	for _, kw := range positiveKeywords {
		if strings.Contains(text, kw) {
			score += 0.2
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(text, kw) {
			score -= 0.2
		}
	}
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}

	// 长度启发式：评论越充实，可信度越高
	authenticity := 0.5
	switch {
	case len(r.Comment) >= 200:
		authenticity = 1.0
	case len(r.Comment) >= 80:
		authenticity = 0.8
	case len(r.Comment) >= 20:
		authenticity = 0.6
	}

	r.Sentiment = Sentiment{Score: score, Authenticity: authenticity}
}

// Vote 记录或更新一条有用投票
func (r *Review) Vote(voterID primitive.ObjectID, helpful bool) {
	for i := range r.HelpfulVotes {
		if r.HelpfulVotes[i].VoterID == voterID {
			r.HelpfulVotes[i].Helpful = helpful
			r.HelpfulVotes[i].VotedAt = time.Now()
			return
		}
	}
	r.HelpfulVotes = append(r.HelpfulVotes, HelpfulVote{
		VoterID: voterID,
		Helpful: helpful,
		VotedAt: time.Now(),
	})
}

// HelpfulRatio 有用票比例；无投票时为 1
func (r *Review) HelpfulRatio() float64 {
	if len(r.HelpfulVotes) == 0 {
		return 1.0
	}
	helpful := 0
	for _, v := range r.HelpfulVotes {
		if v.Helpful {
			helpful++
		}
	}
	return float64(helpful) / float64(len(r.HelpfulVotes))
}

// CalculateTrustImpact 计算该评价对信任分的影响信号，结果在 [0,5]。
// 只作为输入信号使用，从不自动持久化。
func (r *Review) CalculateTrustImpact() float64 {
	impact := float64(r.Rating) * r.Sentiment.Authenticity
	if r.ModerationStatus == ModerationFlagged {
		impact /= 2
	}

	ratio := r.HelpfulRatio()
	if ratio < 0.5 {
		ratio = 0.5
	}
	if ratio > 1.0 {
		ratio = 1.0
	}
	impact *= ratio

	if impact < 0 {
		impact = 0
	}
	if impact > 5 {
		impact = 5
	}
	return impact
}

// Flag 累加举报数，满3次自动转入 flagged 状态
func (r *Review) Flag() {
	r.FlagCount++
	if r.FlagCount >= 3 {
		r.ModerationStatus = ModerationFlagged
	}
}

// CanEdit 评价仅在创建后的时间窗口内允许作者编辑
func (r *Review) CanEdit(now time.Time) bool {
	return now.Sub(r.CreatedAt) <= ReviewEditWindow
}
