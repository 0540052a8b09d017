package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGeoCellRoom 网格房间名按一位小数截断
func TestGeoCellRoom(t *testing.T) {
	assert.Equal(t, "geo:37.7:-122.4", GeoCellRoom(37.7749, -122.4194))
	// 同一网格内的两个点落在同一个房间
	assert.Equal(t, GeoCellRoom(37.71, -122.41), GeoCellRoom(37.79, -122.49))
}

// TestCityRoom 城市房间名小写 slug 化
func TestCityRoom(t *testing.T) {
	assert.Equal(t, "city:san-francisco-ca", CityRoom("San Francisco", "CA"))
	assert.Equal(t, "city:new-york-ny", CityRoom("  New   York ", "NY"))
}

// TestMilesToMeters 英里转米
func TestMilesToMeters(t *testing.T) {
	assert.InDelta(t, 16093.4, MilesToMeters(10), 0.1)
}
