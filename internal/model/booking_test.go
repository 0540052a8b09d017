package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestCalculatePricing 测试费用明细计算
func TestCalculatePricing(t *testing.T) {
	b := &Booking{}
	b.CalculatePricing(100)

	assert.Equal(t, 100.0, b.Pricing.ServicePrice)
	assert.Equal(t, 10.0, b.Pricing.PlatformFee)
	assert.Equal(t, 8.0, b.Pricing.Taxes)
	assert.Equal(t, 118.0, b.Pricing.TotalAmount)

	// 基础价格变更后重算，总额保持三项之和
	b.CalculatePricing(50)
	assert.Equal(t, b.Pricing.ServicePrice+b.Pricing.PlatformFee+b.Pricing.Taxes, b.Pricing.TotalAmount)
}

// TestCalculateCancellationFee 测试取消费用分档
func TestCalculateCancellationFee(t *testing.T) {
	now := time.Now()
	b := &Booking{}
	b.CalculatePricing(100) // 总额 118

	// 提前30小时：免费
	b.ScheduledDate = now.Add(30 * time.Hour)
	assert.Equal(t, 0.0, b.cancellationFeeAt(now))

	// 提前10小时：25%
	b.ScheduledDate = now.Add(10 * time.Hour)
	assert.InDelta(t, 118.0*0.25, b.cancellationFeeAt(now), 0.001)

	// 提前1小时：50%
	b.ScheduledDate = now.Add(1 * time.Hour)
	assert.InDelta(t, 118.0*0.50, b.cancellationFeeAt(now), 0.001)
}

// TestUpdateStatusHistory 测试状态变更的历史追加语义
func TestUpdateStatusHistory(t *testing.T) {
	actor := primitive.NewObjectID()
	b := &Booking{Status: BookingPending}
	b.SeedHistory(actor)
	assert.Len(t, b.StatusHistory, 1)
	assert.Equal(t, "created", b.StatusHistory[0].Status)

	b.UpdateStatus(BookingConfirmed, actor, "", "")
	assert.Equal(t, BookingConfirmed, b.Status)
	// 历史里追加的是变更前的状态
	assert.Equal(t, BookingPending, b.StatusHistory[1].Status)
}

// TestUpdateStatusCompletedOnce 完成时间只记录一次
func TestUpdateStatusCompletedOnce(t *testing.T) {
	actor := primitive.NewObjectID()
	b := &Booking{Status: BookingInProgress}

	b.UpdateStatus(BookingCompleted, actor, "", "")
	assert.NotNil(t, b.CompletedAt)
	first := *b.CompletedAt

	b.UpdateStatus(BookingCompleted, actor, "", "")
	assert.Equal(t, first, *b.CompletedAt)
}

// TestUpdateStatusCancellation 取消时记录取消子记录和退款
func TestUpdateStatusCancellation(t *testing.T) {
	actor := primitive.NewObjectID()
	b := &Booking{Status: BookingConfirmed}
	b.CalculatePricing(100)
	b.ScheduledDate = time.Now().Add(20 * time.Hour) // 25% 档

	b.UpdateStatus(BookingCancelled, actor, "时间冲突", "")
	assert.NotNil(t, b.Cancellation)
	assert.Equal(t, actor, b.Cancellation.CancelledBy)
	assert.InDelta(t, 118.0*0.25, b.Cancellation.Fee, 0.001)
	assert.InDelta(t, 118.0*0.75, b.Cancellation.RefundAmount, 0.001)
}

// TestMarkMessagesRead 只标记对方发出的未读消息
func TestMarkMessagesRead(t *testing.T) {
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	b := &Booking{}
	b.AddMessage(other, "你好")
	b.AddMessage(me, "收到")
	b.AddMessage(other, "明天见")

	count := b.MarkMessagesRead(me)
	assert.Equal(t, 2, count)
	assert.True(t, b.Messages[0].IsRead)
	assert.False(t, b.Messages[1].IsRead)
	assert.True(t, b.Messages[2].IsRead)
}
