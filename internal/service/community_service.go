package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/repository/interfaces"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CommunityService 处理社区动态相关的业务逻辑
type CommunityService struct {
	communityRepo interfaces.CommunityRepository
	userRepo      interfaces.UserRepository
}

// NewCommunityService 创建一个新的 CommunityService 实例
func NewCommunityService(communityRepo interfaces.CommunityRepository, userRepo interfaces.UserRepository) *CommunityService {
	return &CommunityService{communityRepo, userRepo}
}

// CreatePost 发布动态；活动类动态必须带活动信息
func (s *CommunityService) CreatePost(ctx context.Context, post *model.Post) error {
	if !model.IsValidPostType(post.Type) {
		return errors.New(errors.ErrValidation, "无效的动态类型")
	}
	if post.Category != "" && !model.IsValidPostCategory(post.Category) {
		return errors.New(errors.ErrValidation, "无效的动态分类")
	}
	if post.Type == model.PostTypeEvent {
		if post.Event == nil {
			return errors.New(errors.ErrValidation, "活动动态必须包含活动信息")
		}
		if !post.Event.StartDate.After(time.Now()) {
			return errors.New(errors.ErrValidation, "活动开始时间必须在未来")
		}
	}

	if err := s.communityRepo.Create(ctx, post); err != nil {
		util.Logger.Error("发布动态失败", zap.Error(err))
		return err
	}

	util.Logger.Info("动态发布成功", zap.String("post_id", post.ID.Hex()))
	return nil
}

// GetPostByID 获取动态详情
func (s *CommunityService) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if author, err := s.userRepo.FindByID(ctx, post.AuthorID); err == nil {
		post.Author = author
	}
	return post, nil
}

// UpdatePost 编辑动态，仅限作者本人
func (s *CommunityService) UpdatePost(ctx context.Context, id, actorID string, title, content string, images []string) (*model.Post, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID.Hex() != actorID {
		return nil, errors.New(errors.ErrForbidden, "只能编辑自己的动态")
	}

	if title != "" {
		post.Title = title
	}
	if content != "" {
		post.Content = content
	}
	if images != nil {
		post.Images = images
	}

	if err := s.communityRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost 删除动态，作者本人或管理员
func (s *CommunityService) DeletePost(ctx context.Context, id, actorID string, isAdmin bool) error {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID.Hex() != actorID && !isAdmin {
		return errors.New(errors.ErrForbidden, "只能删除自己的动态")
	}

	post.Status = model.PostStatusRemoved
	return s.communityRepo.Update(ctx, post)
}

// ListPosts 动态流，置顶优先
func (s *CommunityService) ListPosts(ctx context.Context, filters interfaces.PostFilters, page, pageSize int) ([]*model.Post, int, error) {
	posts, total, err := s.communityRepo.List(ctx, filters, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	s.refreshAll(ctx, posts)
	return posts, total, nil
}

// FindNearby 查询附近的动态，radiusMiles 为英里半径
func (s *CommunityService) FindNearby(ctx context.Context, lng, lat, radiusMiles float64, postType string, limit int) ([]*model.Post, error) {
	if postType != "" && !model.IsValidPostType(postType) {
		return nil, errors.New(errors.ErrValidation, "无效的动态类型")
	}
	return s.communityRepo.FindNearby(ctx, lng, lat, util.MilesToMeters(radiusMiles), postType, limit)
}

// GetUpcomingEvents 即将开始的活动
func (s *CommunityService) GetUpcomingEvents(ctx context.Context, page, pageSize int) ([]*model.Post, int, error) {
	return s.communityRepo.FindUpcomingEvents(ctx, page, pageSize)
}

// GetTrendingPosts 按互动热度排序的动态
func (s *CommunityService) GetTrendingPosts(ctx context.Context, limit int) ([]*model.Post, error) {
	// 取最近的一批动态在内存中按热度排序
	posts, _, err := s.communityRepo.List(ctx, interfaces.PostFilters{}, 1, limit*5)
	if err != nil {
		return nil, err
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].EngagementScore() > posts[j].EngagementScore()
	})
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// LikePost 点赞/取消点赞，重复操作幂等
func (s *CommunityService) LikePost(ctx context.Context, id, actorID string, like bool) (*model.Post, bool, error) {
	post, actorOID, err := s.findPostWithActor(ctx, id, actorID)
	if err != nil {
		return nil, false, err
	}

	var changed bool
	if like {
		changed = post.AddLike(actorOID)
	} else {
		changed = post.RemoveLike(actorOID)
	}
	if changed {
		if err := s.communityRepo.Update(ctx, post); err != nil {
			return nil, false, err
		}
	}
	return post, changed, nil
}

// BookmarkPost 收藏/取消收藏，重复操作幂等
func (s *CommunityService) BookmarkPost(ctx context.Context, id, actorID string, bookmark bool) (*model.Post, bool, error) {
	post, actorOID, err := s.findPostWithActor(ctx, id, actorID)
	if err != nil {
		return nil, false, err
	}

	var changed bool
	if bookmark {
		changed = post.AddBookmark(actorOID)
	} else {
		changed = post.RemoveBookmark(actorOID)
	}
	if changed {
		if err := s.communityRepo.Update(ctx, post); err != nil {
			return nil, false, err
		}
	}
	return post, changed, nil
}

// AttendEvent 报名/取消报名活动，容量满时拒绝
func (s *CommunityService) AttendEvent(ctx context.Context, id, actorID string, attend bool) (*model.Post, error) {
	post, actorOID, err := s.findPostWithActor(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if post.Type != model.PostTypeEvent {
		return nil, errors.New(errors.ErrValidation, "只有活动可以报名")
	}
	if post.Event != nil && post.Event.RegistrationDeadline != nil && time.Now().After(*post.Event.RegistrationDeadline) {
		return nil, errors.New(errors.ErrValidation, "报名已截止")
	}

	if attend {
		// 已报名时幂等返回
		for _, a := range post.Attendees {
			if a.UserID == actorOID {
				return post, nil
			}
		}
		if !post.AddAttendee(actorOID) {
			return nil, errors.New(errors.ErrValidation, "活动名额已满")
		}
	} else {
		if !post.RemoveAttendee(actorOID) {
			return post, nil
		}
	}

	if err := s.communityRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CheckInAttendee 活动签到，仅限活动作者操作
func (s *CommunityService) CheckInAttendee(ctx context.Context, id, actorID, attendeeID string) error {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID.Hex() != actorID {
		return errors.New(errors.ErrForbidden, "只有活动发起者可以签到")
	}
	attendeeOID, err := primitive.ObjectIDFromHex(attendeeID)
	if err != nil {
		return errors.New(errors.ErrBadRequest, "无效的用户ID")
	}
	if !post.CheckInAttendee(attendeeOID) {
		return errors.New(errors.ErrValidation, "该用户未报名此活动")
	}
	return s.communityRepo.Update(ctx, post)
}

// AddComment 发表评论，parentID 指定时作为楼中楼回复
func (s *CommunityService) AddComment(ctx context.Context, id, actorID string, parentID *string, content string) (*model.PostComment, error) {
	post, actorOID, err := s.findPostWithActor(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, errors.New(errors.ErrValidation, "评论内容不能为空")
	}

	var parentOID *primitive.ObjectID
	if parentID != nil && *parentID != "" {
		oid, err := primitive.ObjectIDFromHex(*parentID)
		if err != nil {
			return nil, errors.New(errors.ErrBadRequest, "无效的评论ID")
		}
		found := false
		for _, c := range post.Comments {
			if c.ID == oid {
				found = true
				break
			}
		}
		if !found {
			return nil, errors.New(errors.ErrValidation, "被回复的评论不存在")
		}
		parentOID = &oid
	}

	comment := post.AddComment(actorOID, parentOID, content)
	if err := s.communityRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return &comment, nil
}

// FlagPost 举报动态，累计3次自动进入待处理队列
func (s *CommunityService) FlagPost(ctx context.Context, id, actorID string) error {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID.Hex() == actorID {
		return errors.New(errors.ErrValidation, "不能举报自己的动态")
	}

	post.FlagPost()
	if err := s.communityRepo.Update(ctx, post); err != nil {
		return err
	}

	util.Logger.Info("动态被举报",
		zap.String("post_id", id),
		zap.Int("flag_count", post.FlagCount))
	return nil
}

// ArchiveExpiredPosts 归档过期动态，由后台定时任务调用
func (s *CommunityService) ArchiveExpiredPosts(ctx context.Context) (int, error) {
	n, err := s.communityRepo.ArchiveExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		util.Logger.Info("过期动态已归档", zap.Int("count", n))
	}
	return n, nil
}

func (s *CommunityService) findPost(ctx context.Context, id string) (*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New(errors.ErrBadRequest, "无效的动态ID")
	}
	post, err := s.communityRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("查询动态失败: %w", err)
	}
	if post == nil || post.Status == model.PostStatusRemoved {
		return nil, errors.New(errors.ErrPostNotFound, "动态不存在")
	}
	post.Refresh(time.Now())
	return post, nil
}

func (s *CommunityService) findPostWithActor(ctx context.Context, id, actorID string) (*model.Post, primitive.ObjectID, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, primitive.NilObjectID, err
	}
	actorOID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, primitive.NilObjectID, errors.New(errors.ErrBadRequest, "无效的用户ID")
	}
	return post, actorOID, nil
}

func (s *CommunityService) refreshAll(ctx context.Context, posts []*model.Post) {
	now := time.Now()
	for _, p := range posts {
		p.Refresh(now)
	}
}

type CommunityServiceInterface interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id string) (*model.Post, error)
	UpdatePost(ctx context.Context, id, actorID string, title, content string, images []string) (*model.Post, error)
	DeletePost(ctx context.Context, id, actorID string, isAdmin bool) error
	ListPosts(ctx context.Context, filters interfaces.PostFilters, page, pageSize int) ([]*model.Post, int, error)
	FindNearby(ctx context.Context, lng, lat, radiusMiles float64, postType string, limit int) ([]*model.Post, error)
	GetUpcomingEvents(ctx context.Context, page, pageSize int) ([]*model.Post, int, error)
	GetTrendingPosts(ctx context.Context, limit int) ([]*model.Post, error)
	LikePost(ctx context.Context, id, actorID string, like bool) (*model.Post, bool, error)
	BookmarkPost(ctx context.Context, id, actorID string, bookmark bool) (*model.Post, bool, error)
	AttendEvent(ctx context.Context, id, actorID string, attend bool) (*model.Post, error)
	CheckInAttendee(ctx context.Context, id, actorID, attendeeID string) error
	AddComment(ctx context.Context, id, actorID string, parentID *string, content string) (*model.PostComment, error)
	FlagPost(ctx context.Context, id, actorID string) error
	ArchiveExpiredPosts(ctx context.Context) (int, error)
}

var _ CommunityServiceInterface = (*CommunityService)(nil)
