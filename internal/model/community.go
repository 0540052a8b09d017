package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 帖子类型（封闭枚举）
const (
	PostTypePost           = "post"
	PostTypeEvent          = "event"
	PostTypeRecommendation = "recommendation"
	PostTypeAlert          = "alert"
	PostTypeQuestion       = "question"
	PostTypeAnnouncement   = "announcement"
)

// IsValidPostType 校验帖子类型
func IsValidPostType(t string) bool {
	switch t {
	case PostTypePost, PostTypeEvent, PostTypeRecommendation,
		PostTypeAlert, PostTypeQuestion, PostTypeAnnouncement:
		return true
	}
	return false
}

// 帖子类目（封闭枚举）
const (
	PostCategoryGeneral        = "general"
	PostCategorySafety         = "safety"
	PostCategoryEvents         = "events"
	PostCategoryServices       = "services"
	PostCategoryLostFound      = "lost_found"
	PostCategoryRecommendation = "recommendations"
)

// IsValidPostCategory 校验帖子类目
func IsValidPostCategory(c string) bool {
	switch c {
	case PostCategoryGeneral, PostCategorySafety, PostCategoryEvents,
		PostCategoryServices, PostCategoryLostFound, PostCategoryRecommendation:
		return true
	}
	return false
}

// 帖子状态
const (
	PostStatusActive   = "active"
	PostStatusRemoved  = "removed"
	PostStatusArchived = "archived"
	PostStatusFlagged  = "flagged"
)

// Post 社区帖子模型
type Post struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AuthorID    primitive.ObjectID `json:"author_id" bson:"author_id"`
	Type        string             `json:"type" bson:"type"`
	Category    string             `json:"category" bson:"category"`
	Title       string             `json:"title" bson:"title"`
	Content     string             `json:"content" bson:"content"`
	Images      []string           `json:"images" bson:"images"`
	Address     Address            `json:"address" bson:"address"`
	Location    GeoPoint           `json:"location" bson:"location"`
	Event       *EventInfo         `json:"event,omitempty" bson:"event,omitempty"`
	Comments    []PostComment      `json:"comments" bson:"comments"`
	Likes       []Engagement       `json:"likes" bson:"likes"`
	Bookmarks   []Engagement       `json:"bookmarks" bson:"bookmarks"`
	Attendees   []Attendee         `json:"attendees" bson:"attendees"`
	FlagCount   int                `json:"flag_count" bson:"flag_count"`
	Status      string             `json:"status" bson:"status"`
	IsPinned    bool               `json:"is_pinned" bson:"is_pinned"`
	PinnedUntil *time.Time         `json:"pinned_until,omitempty" bson:"pinned_until,omitempty"`
	IsFeatured  bool               `json:"is_featured" bson:"is_featured"`
	FeaturedTil *time.Time         `json:"featured_until,omitempty" bson:"featured_until,omitempty"`
	ExpiresAt   *time.Time         `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
	Author      *User              `json:"author,omitempty" bson:"-"`
}

// EventInfo 活动帖的附加信息
type EventInfo struct {
	StartDate            time.Time  `json:"start_date" bson:"start_date"`
	EndDate              *time.Time `json:"end_date,omitempty" bson:"end_date,omitempty"`
	Venue                string     `json:"venue" bson:"venue"`
	Capacity             int        `json:"capacity" bson:"capacity"` // 0 表示不限
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty" bson:"registration_deadline,omitempty"`
	Fee                  float64    `json:"fee" bson:"fee"`
}

// Engagement 点赞/收藏条目，每用户至多一条
type Engagement struct {
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Attendee 活动参与者
type Attendee struct {
	UserID       primitive.ObjectID `json:"user_id" bson:"user_id"`
	CheckedIn    bool               `json:"checked_in" bson:"checked_in"`
	RegisteredAt time.Time          `json:"registered_at" bson:"registered_at"`
}

// PostComment 帖子内嵌评论，parent_id 支持一层回复
type PostComment struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID  `json:"user_id" bson:"user_id"`
	ParentID  *primitive.ObjectID `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Content   string              `json:"content" bson:"content"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
}

// AddLike 点赞（重复点赞幂等：查找后不存在才插入）
func (p *Post) AddLike(userID primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return false
		}
	}
	p.Likes = append(p.Likes, Engagement{UserID: userID, CreatedAt: time.Now()})
	return true
}

// RemoveLike 取消点赞；本就没有时是无操作
func (p *Post) RemoveLike(userID primitive.ObjectID) bool {
	for i, l := range p.Likes {
		if l.UserID == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return true
		}
	}
	return false
}

// AddBookmark 收藏，幂等
func (p *Post) AddBookmark(userID primitive.ObjectID) bool {
	for _, b := range p.Bookmarks {
		if b.UserID == userID {
			return false
		}
	}
	p.Bookmarks = append(p.Bookmarks, Engagement{UserID: userID, CreatedAt: time.Now()})
	return true
}

// RemoveBookmark 取消收藏
func (p *Post) RemoveBookmark(userID primitive.ObjectID) bool {
	for i, b := range p.Bookmarks {
		if b.UserID == userID {
			p.Bookmarks = append(p.Bookmarks[:i], p.Bookmarks[i+1:]...)
			return true
		}
	}
	return false
}

// AddAttendee 报名参加活动；满员或重复报名返回 false
func (p *Post) AddAttendee(userID primitive.ObjectID) bool {
	for _, a := range p.Attendees {
		if a.UserID == userID {
			return false
		}
	}
	if p.Event != nil && p.Event.Capacity > 0 && len(p.Attendees) >= p.Event.Capacity {
		return false
	}
	p.Attendees = append(p.Attendees, Attendee{UserID: userID, RegisteredAt: time.Now()})
	return true
}

// RemoveAttendee 取消报名
func (p *Post) RemoveAttendee(userID primitive.ObjectID) bool {
	for i, a := range p.Attendees {
		if a.UserID == userID {
			p.Attendees = append(p.Attendees[:i], p.Attendees[i+1:]...)
			return true
		}
	}
	return false
}

// CheckInAttendee 签到
func (p *Post) CheckInAttendee(userID primitive.ObjectID) bool {
	for i := range p.Attendees {
		if p.Attendees[i].UserID == userID {
			p.Attendees[i].CheckedIn = true
			return true
		}
	}
	return false
}

// AddComment 追加一条评论
func (p *Post) AddComment(userID primitive.ObjectID, parentID *primitive.ObjectID, content string) PostComment {
	comment := PostComment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	p.Comments = append(p.Comments, comment)
	return comment
}

// FlagPost 举报，累计3次自动转入 flagged 状态
func (p *Post) FlagPost() {
	p.FlagCount++
	if p.FlagCount >= 3 {
		p.Status = PostStatusFlagged
	}
}

// Refresh 持久化前检查：清理过期的置顶/推荐标记，过期帖子自动归档
func (p *Post) Refresh(now time.Time) {
	if p.IsPinned && p.PinnedUntil != nil && now.After(*p.PinnedUntil) {
		p.IsPinned = false
		p.PinnedUntil = nil
	}
	if p.IsFeatured && p.FeaturedTil != nil && now.After(*p.FeaturedTil) {
		p.IsFeatured = false
		p.FeaturedTil = nil
	}
	if p.Status == PostStatusActive && p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		p.Status = PostStatusArchived
	}
}

// EngagementScore 热度分：点赞、评论、参与人数的加权和
func (p *Post) EngagementScore() int {
	return len(p.Likes)*2 + len(p.Comments)*3 + len(p.Attendees)*5
}
