package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WaterIntake is one logged drink.
type WaterIntake struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	AmountML int                `bson:"amountMl" json:"amountMl"`
	Date     string             `bson:"date" json:"date"`
	LoggedAt time.Time          `bson:"loggedAt" json:"loggedAt"`
}

type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

func (i Intensity) Valid() bool {
	switch i {
	case IntensityLow, IntensityModerate, IntensityHigh:
		return true
	}
	return false
}

// Activity is a logged workout or other exercise.
type Activity struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	ActivityType    string             `bson:"activityType" json:"activityType"` // e.g. "running", "cycling"
	DurationMinutes int                `bson:"durationMinutes" json:"durationMinutes"`
	CaloriesBurned  float64            `bson:"caloriesBurned" json:"caloriesBurned"`
	Intensity       Intensity          `bson:"intensity,omitempty" json:"intensity,omitempty"`
	Date            string             `bson:"date" json:"date"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Defaults applied when a user has not stored goals yet.
const (
	DefaultDailyCalories = 2000
	DefaultWaterML       = 2000
)

// UserGoals holds a user's daily targets. One document per user.
type UserGoals struct {
	UserID         primitive.ObjectID `bson:"_id" json:"userId"`
	DailyCalories  int                `bson:"dailyCalories" json:"dailyCalories"`
	ProteinG       int                `bson:"proteinG,omitempty" json:"proteinG,omitempty"`
	CarbsG         int                `bson:"carbsG,omitempty" json:"carbsG,omitempty"`
	FatG           int                `bson:"fatG,omitempty" json:"fatG,omitempty"`
	WaterML        int                `bson:"waterMl" json:"waterMl"`
	TargetWeightKg *float64           `bson:"targetWeightKg,omitempty" json:"targetWeightKg,omitempty"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DefaultGoals returns the goals used for a user who never set any.
func DefaultGoals(userID primitive.ObjectID) UserGoals {
	return UserGoals{
		UserID:        userID,
		DailyCalories: DefaultDailyCalories,
		WaterML:       DefaultWaterML,
	}
}

// WidgetSnapshot is what the home-screen widget displays.
type WidgetSnapshot struct {
	Calories float64 `json:"calories"`
	Target   int     `json:"target"`
	Date     string  `json:"date"`
}
