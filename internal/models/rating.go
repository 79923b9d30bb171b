package models

import (
	"math"
	"strconv"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Average is a mean rating, always rendered with one decimal place.
type Average float64

// NewAverage rounds v half away from zero to one decimal place.
func NewAverage(v float64) Average {
	return Average(math.Round(v*10) / 10)
}

// MeanOf returns the rounded arithmetic mean of values, 0 when empty.
func MeanOf(values []int) Average {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return NewAverage(float64(sum) / float64(len(values)))
}

func (a Average) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(a), 'f', 1, 64)), nil
}

func (a Average) String() string {
	return strconv.FormatFloat(float64(a), 'f', 1, 64)
}

type RatingRequest struct {
	StoreID int `json:"store_id" validate:"required,gt=0"`
	Rating  int `json:"rating" validate:"required,min=1,max=5"`
}

type RaterEntry struct {
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Rating    int    `json:"rating"`
}

type OwnerDashboard struct {
	StoreName     string       `json:"storeName"`
	AverageRating Average      `json:"averageRating"`
	Ratings       []RaterEntry `json:"ratings"`
}
