package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/repository"
)

// mongoMealRepository implements repository.MealRepository over two
// collections: meals and meal_entries.
type mongoMealRepository struct {
	meals   *mongo.Collection
	entries *mongo.Collection
}

// NewMongoMealRepository creates a new Meal repository backed by MongoDB.
func NewMongoMealRepository(db *mongo.Database) repository.MealRepository {
	return &mongoMealRepository{
		meals:   db.Collection(mealCollectionName),
		entries: db.Collection(mealEntryCollectionName),
	}
}

// CreateMeal inserts a new meal.
func (r *mongoMealRepository) CreateMeal(ctx context.Context, m *domain.Meal) (primitive.ObjectID, error) {
	if m.UserID == primitive.NilObjectID || m.Date == "" {
		return primitive.NilObjectID, errors.New("meal requires userId and date")
	}
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()

	result, err := r.meals.InsertOne(ctx, m)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

// GetMeal retrieves a meal by ID.
func (r *mongoMealRepository) GetMeal(ctx context.Context, id primitive.ObjectID) (*domain.Meal, error) {
	var m domain.Meal
	err := r.meals.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMeals retrieves a user's meals for one date in creation order.
func (r *mongoMealRepository) ListMeals(ctx context.Context, userID primitive.ObjectID, date string) ([]domain.Meal, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.meals.Find(ctx, bson.M{"userId": userID, "date": date}, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.Meal](ctx, cursor)
}

// DeleteMeal removes a meal owned by userID and then its entries. The two
// deletes are independent; a failure between them leaves orphan entries
// which still belong to the user and still count toward daily totals.
func (r *mongoMealRepository) DeleteMeal(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.meals.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	_, err = r.entries.DeleteMany(ctx, bson.M{"mealId": id, "userId": userID})
	return err
}

// MealPhotoKeys lists the photo keys stored on a meal's entries.
func (r *mongoMealRepository) MealPhotoKeys(ctx context.Context, mealID, userID primitive.ObjectID) ([]string, error) {
	filter := bson.M{
		"mealId":   mealID,
		"userId":   userID,
		"photoKey": bson.M{"$exists": true, "$ne": ""},
	}
	cursor, err := r.entries.Find(ctx, filter, options.Find().SetProjection(bson.M{"photoKey": 1}))
	if err != nil {
		return nil, err
	}
	rows, err := decodeAll[domain.MealEntry](ctx, cursor)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.PhotoKey)
	}
	return keys, nil
}

// CreateEntry inserts a new meal entry.
func (r *mongoMealRepository) CreateEntry(ctx context.Context, e *domain.MealEntry) (primitive.ObjectID, error) {
	if e.UserID == primitive.NilObjectID || e.MealID == primitive.NilObjectID || e.FoodName == "" {
		return primitive.NilObjectID, errors.New("meal entry requires userId, mealId and foodName")
	}
	e.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	e.LoggedAt = now
	e.UpdatedAt = now

	result, err := r.entries.InsertOne(ctx, e)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

// GetEntry retrieves a meal entry by ID.
func (r *mongoMealRepository) GetEntry(ctx context.Context, id primitive.ObjectID) (*domain.MealEntry, error) {
	var e domain.MealEntry
	err := r.entries.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListEntries retrieves a user's entries with from <= date <= to. Dates are
// YYYY-MM-DD so lexical order is calendar order.
func (r *mongoMealRepository) ListEntries(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.MealEntry, error) {
	filter := bson.M{
		"userId": userID,
		"date":   bson.M{"$gte": from, "$lte": to},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "loggedAt", Value: 1}})

	cursor, err := r.entries.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.MealEntry](ctx, cursor)
}

// UpdateEntry rewrites the nutrition fields of an entry owned by e.UserID.
func (r *mongoMealRepository) UpdateEntry(ctx context.Context, e *domain.MealEntry) error {
	if e.ID == primitive.NilObjectID {
		return errors.New("meal entry ID is required for update")
	}
	e.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": e.ID, "userId": e.UserID}
	update := bson.M{
		"$set": bson.M{
			"foodName":  e.FoodName,
			"quantity":  e.Quantity,
			"unit":      e.Unit,
			"calories":  e.Calories,
			"protein":   e.Protein,
			"carbs":     e.Carbs,
			"fat":       e.Fat,
			"fiber":     e.Fiber,
			"updatedAt": e.UpdatedAt,
		},
	}

	result, err := r.entries.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetEntryPhoto records the object key of an entry's photo.
func (r *mongoMealRepository) SetEntryPhoto(ctx context.Context, id, userID primitive.ObjectID, photoKey string) error {
	update := bson.M{"$set": bson.M{"photoKey": photoKey, "updatedAt": time.Now().UTC()}}
	result, err := r.entries.UpdateOne(ctx, bson.M{"_id": id, "userId": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteEntry removes an entry owned by userID.
func (r *mongoMealRepository) DeleteEntry(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.entries.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func mealIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}}},
	}
}

func mealEntryIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "mealId", Value: 1}}},
	}
}
