package service

import (
	"math"
	"testing"

	"coinflip/models"

	"github.com/stretchr/testify/assert"
)

func TestFlip(t *testing.T) {
	tests := []struct {
		name      string
		userSeed  uint64
		houseSeed uint64
		guess     bool
		expected  Outcome
	}{
		{
			name:      "even sum is heads",
			userSeed:  5,
			houseSeed: 5,
			guess:     models.Heads,
			expected:  Outcome{Combined: 10, Result: models.Heads, UserWon: true},
		},
		{
			name:      "odd sum is tails",
			userSeed:  5,
			houseSeed: 6,
			guess:     models.Heads,
			expected:  Outcome{Combined: 11, Result: models.Tails, UserWon: false},
		},
		{
			name:      "tails guess wins on odd sum",
			userSeed:  2,
			houseSeed: 1,
			guess:     models.Tails,
			expected:  Outcome{Combined: 3, Result: models.Tails, UserWon: true},
		},
		{
			name:      "sum wraps around",
			userSeed:  math.MaxUint64,
			houseSeed: 1,
			guess:     models.Heads,
			expected:  Outcome{Combined: 0, Result: models.Heads, UserWon: true},
		},
		{
			name:      "both seeds at max",
			userSeed:  math.MaxUint64,
			houseSeed: math.MaxUint64,
			guess:     models.Tails,
			expected:  Outcome{Combined: math.MaxUint64 - 1, Result: models.Heads, UserWon: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Flip(tt.userSeed, tt.houseSeed, tt.guess))
		})
	}
}
