package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 服务类目（封闭枚举）
const (
	CategoryHomeRepair  = "home_repair"
	CategoryCleaning    = "cleaning"
	CategoryTutoring    = "tutoring"
	CategoryPetCare     = "pet_care"
	CategoryGardening   = "gardening"
	CategoryMoving      = "moving"
	CategoryTechSupport = "tech_support"
	CategoryBeauty      = "beauty"
	CategoryFitness     = "fitness"
	CategoryOther       = "other"
)

// ServiceCategories 所有合法的服务类目
var ServiceCategories = []string{
	CategoryHomeRepair, CategoryCleaning, CategoryTutoring, CategoryPetCare,
	CategoryGardening, CategoryMoving, CategoryTechSupport, CategoryBeauty,
	CategoryFitness, CategoryOther,
}

// IsValidCategory 校验服务类目
func IsValidCategory(category string) bool {
	for _, c := range ServiceCategories {
		if c == category {
			return true
		}
	}
	return false
}

// 定价类型
const (
	PricingFixed      = "fixed"
	PricingHourly     = "hourly"
	PricingPerProject = "per_project"
	PricingNegotiable = "negotiable"
)

// IsValidPricingType 校验定价类型
func IsValidPricingType(t string) bool {
	switch t {
	case PricingFixed, PricingHourly, PricingPerProject, PricingNegotiable:
		return true
	}
	return false
}

// Service 服务列表模型，归属于唯一的服务提供者
type Service struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProviderID      primitive.ObjectID `json:"provider_id" bson:"provider_id"`
	Title           string             `json:"title" bson:"title"`
	Description     string             `json:"description" bson:"description"`
	Category        string             `json:"category" bson:"category"`
	Pricing         Pricing            `json:"pricing" bson:"pricing"`
	Address         Address            `json:"address" bson:"address"`
	Location        GeoPoint           `json:"location" bson:"location"`
	Availability    Availability       `json:"availability" bson:"availability"`
	Images          []ServiceImage     `json:"images" bson:"images"`
	ReviewAggregate ReviewAggregate    `json:"review_aggregate" bson:"review_aggregate"`
	IsActive        bool               `json:"is_active" bson:"is_active"`
	IsPaused        bool               `json:"is_paused" bson:"is_paused"`
	ViewCount       int                `json:"view_count" bson:"view_count"`
	BookingCount    int                `json:"booking_count" bson:"booking_count"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
	Provider        *User              `json:"provider,omitempty" bson:"-"`
}

// Pricing 定价信息；非 negotiable 时金额必填
type Pricing struct {
	Type   string  `json:"type" bson:"type"`
	Amount float64 `json:"amount" bson:"amount"`
}

// ServiceImage 服务图片，最多一张主图
type ServiceImage struct {
	URL       string `json:"url" bson:"url"`
	IsPrimary bool   `json:"is_primary" bson:"is_primary"`
}

// Availability 可预约时段：每周排期 + 指定日期例外 + 最少提前时长
type Availability struct {
	WeeklySchedule  []DaySchedule   `json:"weekly_schedule" bson:"weekly_schedule"`
	Exceptions      []DateException `json:"exceptions" bson:"exceptions"`
	MinAdvanceHours int             `json:"min_advance_hours" bson:"min_advance_hours"`
}

// DaySchedule 某个星期几的开放时段
type DaySchedule struct {
	DayOfWeek int    `json:"day_of_week" bson:"day_of_week"` // 0=周日
	StartTime string `json:"start_time" bson:"start_time"`   // "09:00"
	EndTime   string `json:"end_time" bson:"end_time"`
	Available bool   `json:"available" bson:"available"`
}

// DateException 指定日期的例外，覆盖每周排期
type DateException struct {
	Date      time.Time `json:"date" bson:"date"`
	Available bool      `json:"available" bson:"available"`
	Reason    string    `json:"reason,omitempty" bson:"reason,omitempty"`
}

// ReviewAggregate 评价聚合数据
type ReviewAggregate struct {
	Count     int         `json:"count" bson:"count"`
	Average   float64     `json:"average" bson:"average"`
	Breakdown map[int]int `json:"breakdown" bson:"breakdown"` // 星级 1-5 -> 数量
}

// IsAvailable 判断给定时间是否可预约。
// TODO: duration 参数尚未参与判断，需要对照已存在的订单做时段重叠检查
func (s *Service) IsAvailable(date time.Time, duration int) bool {
	if !s.IsActive || s.IsPaused {
		return false
	}

	if s.Availability.MinAdvanceHours > 0 {
		minStart := time.Now().Add(time.Duration(s.Availability.MinAdvanceHours) * time.Hour)
		if date.Before(minStart) {
			return false
		}
	}

	// 指定日期的例外优先于每周排期
	for _, ex := range s.Availability.Exceptions {
		if sameDay(ex.Date, date) {
			return ex.Available
		}
	}

	for _, day := range s.Availability.WeeklySchedule {
		if day.DayOfWeek == int(date.Weekday()) {
			return day.Available
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// EnsurePrimaryImage 保证有且仅有一张主图；没有标记时默认第一张
func (s *Service) EnsurePrimaryImage() {
	if len(s.Images) == 0 {
		return
	}
	primaryIdx := -1
	for i := range s.Images {
		if s.Images[i].IsPrimary {
			if primaryIdx == -1 {
				primaryIdx = i
			} else {
				s.Images[i].IsPrimary = false
			}
		}
	}
	if primaryIdx == -1 {
		s.Images[0].IsPrimary = true
	}
}

// ApplyReview 把一条新评价并入服务的聚合数据
func (s *Service) ApplyReview(rating int) {
	agg := &s.ReviewAggregate
	if agg.Breakdown == nil {
		agg.Breakdown = make(map[int]int)
	}
	total := agg.Average*float64(agg.Count) + float64(rating)
	agg.Count++
	agg.Average = total / float64(agg.Count)
	agg.Breakdown[rating]++
}
