package model

// SystemStats 平台统计数据
type SystemStats struct {
	TotalUsers        int `json:"total_users"`
	TotalServices     int `json:"total_services"`
	TotalBookings     int `json:"total_bookings"`
	TotalReviews      int `json:"total_reviews"`
	TotalPosts        int `json:"total_posts"`
	ActiveServices    int `json:"active_services"`
	PendingBookings   int `json:"pending_bookings"`
	FlaggedReviews    int `json:"flagged_reviews"`
	FlaggedPosts      int `json:"flagged_posts"`
	OnlineConnections int `json:"online_connections"`
}
