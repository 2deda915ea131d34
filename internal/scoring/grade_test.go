package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrade_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		grade string
	}{
		{100, "A+"}, {95, "A+"}, {94, "A"}, {90, "A"}, {89, "A-"}, {85, "A-"},
		{84, "B+"}, {80, "B+"}, {79, "B"}, {75, "B"}, {74, "B-"}, {70, "B-"},
		{69, "C+"}, {65, "C+"}, {64, "C"}, {60, "C"}, {59, "C-"}, {55, "C-"},
		{54, "D+"}, {50, "D+"}, {49, "D"}, {45, "D"}, {44, "D-"}, {40, "D-"},
		{39, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.grade, Grade(tt.score), "score %d", tt.score)
	}
}

func TestCategory_Boundaries(t *testing.T) {
	tests := []struct {
		score    int
		category string
	}{
		{100, "Excellent"}, {80, "Excellent"}, {79, "Good"}, {65, "Good"},
		{64, "Fair"}, {50, "Fair"}, {49, "Poor"}, {35, "Poor"},
		{34, "Very Poor"}, {0, "Very Poor"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.category, Category(tt.score), "score %d", tt.score)
	}
}

func TestGrades_ThirteenBuckets(t *testing.T) {
	g := Grades()
	assert.Len(t, g, 13)
	assert.Equal(t, "A+", g[0])
	assert.Equal(t, "F", g[12])
}
