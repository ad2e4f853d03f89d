package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

func (t MealType) Valid() bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// Meal groups the food entries a user logged for one eating occasion.
type Meal struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	MealType  MealType           `bson:"mealType" json:"mealType"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Date      string             `bson:"date" json:"date"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// MealEntry is a single logged food with its nutrition snapshot.
type MealEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	MealID    primitive.ObjectID `bson:"mealId" json:"mealId"`
	FoodName  string             `bson:"foodName" json:"foodName"`
	Quantity  float64            `bson:"quantity" json:"quantity"`
	Unit      string             `bson:"unit,omitempty" json:"unit,omitempty"`
	Calories  float64            `bson:"calories" json:"calories"`
	Protein   float64            `bson:"protein" json:"protein"`
	Carbs     float64            `bson:"carbs" json:"carbs"`
	Fat       float64            `bson:"fat" json:"fat"`
	Fiber     float64            `bson:"fiber" json:"fiber"`
	Date      string             `bson:"date" json:"date"`
	LoggedAt  time.Time          `bson:"loggedAt" json:"loggedAt"`
	PhotoKey  string             `bson:"photoKey,omitempty" json:"-"` // S3 object key, internal use
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasPhoto reports whether a photo upload was requested for the entry.
func (e *MealEntry) HasPhoto() bool {
	return e.PhotoKey != ""
}
