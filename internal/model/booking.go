package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 订单状态
const (
	BookingPending    = "pending"
	BookingConfirmed  = "confirmed"
	BookingInProgress = "in_progress"
	BookingCompleted  = "completed"
	BookingCancelled  = "cancelled"
	BookingNoShow     = "no_show"
)

// 平台费率与税率（按服务价格计算）
const (
	PlatformFeeRate = 0.10
	TaxRate         = 0.08
)

// Booking 订单模型：客户、提供者、服务三方关系
type Booking struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CustomerID    primitive.ObjectID `json:"customer_id" bson:"customer_id"`
	ProviderID    primitive.ObjectID `json:"provider_id" bson:"provider_id"`
	ServiceID     primitive.ObjectID `json:"service_id" bson:"service_id"`
	ScheduledDate time.Time          `json:"scheduled_date" bson:"scheduled_date"`
	DurationHours int                `json:"duration_hours" bson:"duration_hours"`
	Notes         string             `json:"notes,omitempty" bson:"notes,omitempty"`
	Status        string             `json:"status" bson:"status"`
	StatusHistory []StatusChange     `json:"status_history" bson:"status_history"`
	Pricing       BookingPricing     `json:"pricing" bson:"pricing"`
	Messages      []BookingMessage   `json:"messages" bson:"messages"`
	Cancellation  *Cancellation      `json:"cancellation,omitempty" bson:"cancellation,omitempty"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
	Customer      *User              `json:"customer,omitempty" bson:"-"`
	Provider      *User              `json:"provider,omitempty" bson:"-"`
	Service       *Service           `json:"service,omitempty" bson:"-"`
}

// StatusChange 状态历史条目（只追加）
type StatusChange struct {
	Status    string             `json:"status" bson:"status"`
	ChangedBy primitive.ObjectID `json:"changed_by" bson:"changed_by"`
	Reason    string             `json:"reason,omitempty" bson:"reason,omitempty"`
	Notes     string             `json:"notes,omitempty" bson:"notes,omitempty"`
	ChangedAt time.Time          `json:"changed_at" bson:"changed_at"`
}

// BookingPricing 订单费用明细
type BookingPricing struct {
	ServicePrice float64 `json:"service_price" bson:"service_price"`
	PlatformFee  float64 `json:"platform_fee" bson:"platform_fee"`
	Taxes        float64 `json:"taxes" bson:"taxes"`
	TotalAmount  float64 `json:"total_amount" bson:"total_amount"`
}

// BookingMessage 订单内嵌消息
type BookingMessage struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SenderID primitive.ObjectID `json:"sender_id" bson:"sender_id"`
	Content  string             `json:"content" bson:"content"`
	IsRead   bool               `json:"is_read" bson:"is_read"`
	SentAt   time.Time          `json:"sent_at" bson:"sent_at"`
}

// Cancellation 取消记录
type Cancellation struct {
	CancelledBy  primitive.ObjectID `json:"cancelled_by" bson:"cancelled_by"`
	Reason       string             `json:"reason" bson:"reason"`
	Fee          float64            `json:"fee" bson:"fee"`
	RefundAmount float64            `json:"refund_amount" bson:"refund_amount"`
	CancelledAt  time.Time          `json:"cancelled_at" bson:"cancelled_at"`
}

// SeedHistory 创建订单时写入初始历史条目
func (b *Booking) SeedHistory(actor primitive.ObjectID) {
	b.StatusHistory = []StatusChange{{
		Status:    "created",
		ChangedBy: actor,
		ChangedAt: time.Now(),
	}}
}

// UpdateStatus 执行状态变更：先把变更前的状态追加进历史，再应用新状态。
// 变更合法性由调用方（服务层）对照转移表校验，这里不做校验。
func (b *Booking) UpdateStatus(newStatus string, actor primitive.ObjectID, reason, notes string) {
	now := time.Now()
	b.StatusHistory = append(b.StatusHistory, StatusChange{
		Status:    b.Status,
		ChangedBy: actor,
		Reason:    reason,
		Notes:     notes,
		ChangedAt: now,
	})
	b.Status = newStatus

	switch newStatus {
	case BookingCompleted:
		if b.CompletedAt == nil {
			b.CompletedAt = &now
		}
	case BookingCancelled:
		if b.Cancellation == nil {
			fee := b.CalculateCancellationFee()
			b.Cancellation = &Cancellation{
				CancelledBy:  actor,
				Reason:       reason,
				Fee:          fee,
				RefundAmount: b.Pricing.TotalAmount - fee,
				CancelledAt:  now,
			}
		}
	}
	b.UpdatedAt = now
}

// CalculatePricing 根据服务基础价格重算费用明细
func (b *Booking) CalculatePricing(servicePrice float64) {
	b.Pricing.ServicePrice = servicePrice
	b.Pricing.PlatformFee = servicePrice * PlatformFeeRate
	b.Pricing.Taxes = servicePrice * TaxRate
	b.Pricing.TotalAmount = b.Pricing.ServicePrice + b.Pricing.PlatformFee + b.Pricing.Taxes
}

// CalculateCancellationFee 按距预约时间的剩余时长计算取消费用：
// 提前24小时以上免费，2-24小时收25%，不足2小时收50%
func (b *Booking) CalculateCancellationFee() float64 {
	return b.cancellationFeeAt(time.Now())
}

func (b *Booking) cancellationFeeAt(now time.Time) float64 {
	until := b.ScheduledDate.Sub(now)
	switch {
	case until >= 24*time.Hour:
		return 0
	case until >= 2*time.Hour:
		return b.Pricing.TotalAmount * 0.25
	default:
		return b.Pricing.TotalAmount * 0.50
	}
}

// IsParticipant 判断用户是否订单参与方（客户或提供者）
func (b *Booking) IsParticipant(userID primitive.ObjectID) bool {
	return b.CustomerID == userID || b.ProviderID == userID
}

// IsTerminal 判断订单是否处于终态
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingCompleted, BookingCancelled, BookingNoShow:
		return true
	}
	return false
}

// AddMessage 追加一条订单消息
func (b *Booking) AddMessage(senderID primitive.ObjectID, content string) BookingMessage {
	msg := BookingMessage{
		ID:       primitive.NewObjectID(),
		SenderID: senderID,
		Content:  content,
		SentAt:   time.Now(),
	}
	b.Messages = append(b.Messages, msg)
	return msg
}

// MarkMessagesRead 把对方发来的消息标记为已读
func (b *Booking) MarkMessagesRead(readerID primitive.ObjectID) int {
	count := 0
	for i := range b.Messages {
		if b.Messages[i].SenderID != readerID && !b.Messages[i].IsRead {
			b.Messages[i].IsRead = true
			count++
		}
	}
	return count
}
