package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/model"
	"github.com/Dutta2005/TrustCircle/internal/repository/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestCreatePostValidation 动态类型与活动信息校验
func TestCreatePostValidation(t *testing.T) {
	mockPosts := new(MockCommunityRepository)
	mockUsers := new(MockUserRepository)
	service := NewCommunityService(mockPosts, mockUsers)
	ctx := context.Background()

	// 无效类型
	err := service.CreatePost(ctx, &model.Post{Type: "bogus"})
	assert.Error(t, err)

	// 活动动态缺少活动信息
	err = service.CreatePost(ctx, &model.Post{Type: model.PostTypeEvent, Title: "社区聚会"})
	assert.Error(t, err)

	// 活动开始时间在过去
	err = service.CreatePost(ctx, &model.Post{
		Type:  model.PostTypeEvent,
		Event: &model.EventInfo{StartDate: time.Now().Add(-time.Hour)},
	})
	assert.Error(t, err)

	// 正常发布
	mockPosts.On("Create", ctx, mock.AnythingOfType("*model.Post")).Return(nil)
	err = service.CreatePost(ctx, &model.Post{
		Type:  model.PostTypeEvent,
		Title: "社区聚会",
		Event: &model.EventInfo{StartDate: time.Now().Add(48 * time.Hour)},
	})
	assert.NoError(t, err)
}

// TestLikePostIdempotent 点赞幂等
func TestLikePostIdempotent(t *testing.T) {
	mockPosts := new(MockCommunityRepository)
	mockUsers := new(MockUserRepository)
	service := NewCommunityService(mockPosts, mockUsers)
	ctx := context.Background()

	post := &model.Post{
		ID:       primitive.NewObjectID(),
		AuthorID: primitive.NewObjectID(),
		Type:     model.PostTypePost,
		Status:   model.PostStatusActive,
	}
	userID := primitive.NewObjectID()

	mockPosts.On("FindByID", ctx, post.ID).Return(post, nil)
	mockPosts.On("Update", ctx, mock.AnythingOfType("*model.Post")).Return(nil)

	// 首次点赞生效
	_, changed, err := service.LikePost(ctx, post.ID.Hex(), userID.Hex(), true)
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, post.Likes, 1)

	// 重复点赞不生效也不报错
	_, changed, err = service.LikePost(ctx, post.ID.Hex(), userID.Hex(), true)
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, post.Likes, 1)

	// 取消点赞
	_, changed, err = service.LikePost(ctx, post.ID.Hex(), userID.Hex(), false)
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, post.Likes)
}

// TestAttendEventCapacity 活动报名的容量限制
func TestAttendEventCapacity(t *testing.T) {
	mockPosts := new(MockCommunityRepository)
	mockUsers := new(MockUserRepository)
	service := NewCommunityService(mockPosts, mockUsers)
	ctx := context.Background()

	post := &model.Post{
		ID:       primitive.NewObjectID(),
		AuthorID: primitive.NewObjectID(),
		Type:     model.PostTypeEvent,
		Status:   model.PostStatusActive,
		Event:    &model.EventInfo{StartDate: time.Now().Add(48 * time.Hour), Capacity: 1},
	}

	mockPosts.On("FindByID", ctx, post.ID).Return(post, nil)
	mockPosts.On("Update", ctx, mock.AnythingOfType("*model.Post")).Return(nil)

	first := primitive.NewObjectID()
	_, err := service.AttendEvent(ctx, post.ID.Hex(), first.Hex(), true)
	assert.NoError(t, err)

	// 容量已满
	_, err = service.AttendEvent(ctx, post.ID.Hex(), primitive.NewObjectID().Hex(), true)
	assert.Error(t, err)

	// 已报名用户重复报名幂等
	_, err = service.AttendEvent(ctx, post.ID.Hex(), first.Hex(), true)
	assert.NoError(t, err)
	assert.Len(t, post.Attendees, 1)
}

// TestAddCommentThreading 楼中楼回复必须指向存在的评论
func TestAddCommentThreading(t *testing.T) {
	mockPosts := new(MockCommunityRepository)
	mockUsers := new(MockUserRepository)
	service := NewCommunityService(mockPosts, mockUsers)
	ctx := context.Background()

	post := &model.Post{
		ID:       primitive.NewObjectID(),
		AuthorID: primitive.NewObjectID(),
		Type:     model.PostTypePost,
		Status:   model.PostStatusActive,
	}
	userID := primitive.NewObjectID()

	mockPosts.On("FindByID", ctx, post.ID).Return(post, nil)
	mockPosts.On("Update", ctx, mock.AnythingOfType("*model.Post")).Return(nil)

	comment, err := service.AddComment(ctx, post.ID.Hex(), userID.Hex(), nil, "顶楼")
	assert.NoError(t, err)
	assert.Nil(t, comment.ParentID)

	// 回复存在的评论
	parentHex := comment.ID.Hex()
	reply, err := service.AddComment(ctx, post.ID.Hex(), userID.Hex(), &parentHex, "回复顶楼")
	assert.NoError(t, err)
	assert.Equal(t, comment.ID, *reply.ParentID)

	// 回复不存在的评论被拒绝
	bogus := primitive.NewObjectID().Hex()
	_, err = service.AddComment(ctx, post.ID.Hex(), userID.Hex(), &bogus, "无效回复")
	assert.Error(t, err)
}

// TestFlagPostThreshold 累计3次举报进入待处理
func TestFlagPostThreshold(t *testing.T) {
	mockPosts := new(MockCommunityRepository)
	mockUsers := new(MockUserRepository)
	service := NewCommunityService(mockPosts, mockUsers)
	ctx := context.Background()

	post := &model.Post{
		ID:       primitive.NewObjectID(),
		AuthorID: primitive.NewObjectID(),
		Type:     model.PostTypePost,
		Status:   model.PostStatusActive,
	}
	mockPosts.On("FindByID", ctx, post.ID).Return(post, nil)
	mockPosts.On("Update", ctx, mock.AnythingOfType("*model.Post")).Return(nil)

	// 作者不能举报自己
	err := service.FlagPost(ctx, post.ID.Hex(), post.AuthorID.Hex())
	assert.Error(t, err)

	for i := 0; i < 3; i++ {
		err := service.FlagPost(ctx, post.ID.Hex(), primitive.NewObjectID().Hex())
		assert.NoError(t, err)
	}
	assert.Equal(t, model.PostStatusFlagged, post.Status)
}

// TestGetTrendingPosts 按互动热度排序
func TestGetTrendingPosts(t *testing.T) {
	mockPosts := new(MockCommunityRepository)
	mockUsers := new(MockUserRepository)
	service := NewCommunityService(mockPosts, mockUsers)
	ctx := context.Background()

	quiet := &model.Post{ID: primitive.NewObjectID(), Status: model.PostStatusActive}
	hot := &model.Post{
		ID:     primitive.NewObjectID(),
		Status: model.PostStatusActive,
		Likes: []model.Engagement{
			{UserID: primitive.NewObjectID(), CreatedAt: time.Now()},
			{UserID: primitive.NewObjectID(), CreatedAt: time.Now()},
		},
	}
	mockPosts.On("List", ctx, interfaces.PostFilters{}, 1, 10).Return([]*model.Post{quiet, hot}, 2, nil)

	posts, err := service.GetTrendingPosts(ctx, 2)
	assert.NoError(t, err)
	assert.Equal(t, hot.ID, posts[0].ID)
}

// TestDeletePostPermission 只有作者或管理员可以删除
func TestDeletePostPermission(t *testing.T) {
	mockPosts := new(MockCommunityRepository)
	mockUsers := new(MockUserRepository)
	service := NewCommunityService(mockPosts, mockUsers)
	ctx := context.Background()

	post := &model.Post{
		ID:       primitive.NewObjectID(),
		AuthorID: primitive.NewObjectID(),
		Type:     model.PostTypePost,
		Status:   model.PostStatusActive,
	}
	mockPosts.On("FindByID", ctx, post.ID).Return(post, nil)
	mockPosts.On("Update", ctx, mock.AnythingOfType("*model.Post")).Return(nil)

	// 其他用户不能删除
	err := service.DeletePost(ctx, post.ID.Hex(), primitive.NewObjectID().Hex(), false)
	assert.Error(t, err)

	// 管理员可以删除
	err = service.DeletePost(ctx, post.ID.Hex(), primitive.NewObjectID().Hex(), true)
	assert.NoError(t, err)
	assert.Equal(t, model.PostStatusRemoved, post.Status)
}
