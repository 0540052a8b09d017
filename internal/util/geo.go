package util

import (
	"fmt"
	"math"
	"strings"
)

// MetersPerMile 英里转米
const MetersPerMile = 1609.34

// MilesToMeters 把英里半径换算成底层邻近查询用的米
func MilesToMeters(miles float64) float64 {
	return miles * MetersPerMile
}

// GeoCellRoom 按一位小数截断经纬度得到约11公里的网格房间名
func GeoCellRoom(lat, lng float64) string {
	return fmt.Sprintf("geo:%.1f:%.1f", truncate1(lat), truncate1(lng))
}

func truncate1(v float64) float64 {
	return math.Trunc(v*10) / 10
}

// CityRoom 把城市+州转换成小写 slug 房间名
func CityRoom(city, state string) string {
	return "city:" + Slugify(city) + "-" + Slugify(state)
}

// Slugify 小写化并把空白替换为连字符
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}

// UserRoom 个人房间名
func UserRoom(userID string) string {
	return "user:" + userID
}

// BookingRoom 订单房间名
func BookingRoom(bookingID string) string {
	return "booking:" + bookingID
}
