package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutritrack/app/internal/domain"
)

type nutritionFixture struct {
	meals       *memMeals
	connections *memConnections
	storage     *fakeStorage
	svc         NutritionService
	pro         domain.Profile
	client      domain.Profile
}

func newNutritionFixture() *nutritionFixture {
	profiles := newMemProfiles()
	f := &nutritionFixture{meals: &memMeals{}, connections: &memConnections{}, storage: &fakeStorage{}}
	f.pro = profiles.add("Dee Dietitian", "dee@example.com", domain.RoleDietitian)
	f.client = profiles.add("Chris Client", "chris@example.com", domain.RoleUser)
	f.svc = NewNutritionService(f.meals, f.connections, f.storage, fixedClock, zerolog.Nop())
	return f
}

func (f *nutritionFixture) connect(status domain.ConnectionStatus) {
	c := &domain.ClientConnection{ClientID: f.client.ID, ProfessionalID: f.pro.ID, Status: status, ConnectionType: domain.ConnectionNutritionOnly}
	_, _ = f.connections.Create(context.Background(), c)
}

func TestClientNutrition_RequiresActiveConnection(t *testing.T) {
	f := newNutritionFixture()
	f.meals.seedEntry(f.client.ID, "2025-03-14", 500, 20)
	ctx := context.Background()

	_, err := f.svc.ClientNutrition(ctx, sessionOf(f.pro), f.client.ID)
	assert.ErrorIs(t, err, ErrNoAccess)

	for _, status := range []domain.ConnectionStatus{domain.ConnectionPending, domain.ConnectionPaused, domain.ConnectionInactive, domain.ConnectionTerminated} {
		t.Run(string(status), func(t *testing.T) {
			f.connections.rows = nil
			f.connect(status)
			days, err := f.svc.ClientNutrition(ctx, sessionOf(f.pro), f.client.ID)
			assert.ErrorIs(t, err, ErrNoAccess)
			assert.Nil(t, days)
		})
	}
}

func TestClientNutrition_GroupsThirtyDays(t *testing.T) {
	f := newNutritionFixture()
	f.connect(domain.ConnectionActive)

	f.meals.seedEntry(f.client.ID, "2025-03-15", 300, 10)
	f.meals.seedEntry(f.client.ID, "2025-03-15", 450, 25)
	f.meals.seedEntry(f.client.ID, "2025-03-01", 800, 30)
	f.meals.seedEntry(f.client.ID, "2025-02-14", 600, 15) // first day of the window
	f.meals.seedEntry(f.client.ID, "2025-02-13", 999, 99) // outside
	f.meals.seedEntry(f.pro.ID, "2025-03-15", 123, 1)     // someone else

	days, err := f.svc.ClientNutrition(context.Background(), sessionOf(f.pro), f.client.ID)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, "2025-02-14", days[0].Date)
	assert.Equal(t, "2025-03-01", days[1].Date)
	assert.Equal(t, "2025-03-15", days[2].Date)
	assert.Equal(t, 750.0, days[2].TotalCalories)
	assert.Equal(t, 35.0, days[2].TotalProtein)
	assert.Equal(t, 2, days[2].EntryCount)
}

func TestClientNutrition_ClientCaller(t *testing.T) {
	f := newNutritionFixture()
	f.connect(domain.ConnectionActive)
	_, err := f.svc.ClientNutrition(context.Background(), sessionOf(f.client), f.pro.ID)
	assert.ErrorIs(t, err, ErrNoAccess)
}

func TestMealsAndEntries(t *testing.T) {
	f := newNutritionFixture()
	ctx := context.Background()
	me := sessionOf(f.client)

	meal, err := f.svc.CreateMeal(ctx, me, domain.MealLunch, "Office lunch", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-15", meal.Date)

	_, err = f.svc.CreateMeal(ctx, me, "brunch", "", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.CreateMeal(ctx, me, domain.MealSnack, "", "15/03/2025")
	assert.ErrorIs(t, err, ErrValidation)

	entry, err := f.svc.AddEntry(ctx, me, meal.ID, EntryInput{FoodName: " Rice ", Quantity: 150, Unit: "g", Calories: 195, Carbs: 42})
	require.NoError(t, err)
	assert.Equal(t, "Rice", entry.FoodName)
	assert.Equal(t, meal.Date, entry.Date)

	_, err = f.svc.AddEntry(ctx, me, meal.ID, EntryInput{FoodName: "Bad", Calories: -1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.AddEntry(ctx, sessionOf(f.pro), meal.ID, EntryInput{FoodName: "Intruder"})
	assert.ErrorIs(t, err, ErrMealNotFound)

	_, err = f.svc.AddEntry(ctx, me, meal.ID, EntryInput{FoodName: "Chicken", Calories: 250, Protein: 40, Fat: 8})
	require.NoError(t, err)

	summary, err := f.svc.DailySummary(ctx, me, "")
	require.NoError(t, err)
	assert.Equal(t, 445.0, summary.TotalCalories)
	assert.Equal(t, 2, summary.EntryCount)

	updated, err := f.svc.UpdateEntry(ctx, me, entry.ID, EntryInput{FoodName: "Brown rice", Quantity: 150, Calories: 170})
	require.NoError(t, err)
	assert.Equal(t, "Brown rice", updated.FoodName)

	_, err = f.svc.UpdateEntry(ctx, sessionOf(f.pro), entry.ID, EntryInput{FoodName: "x"})
	assert.ErrorIs(t, err, ErrEntryNotFound)

	entries, err := f.svc.ListEntries(ctx, me, "2025-03-15")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, f.svc.DeleteEntry(ctx, me, entry.ID))
	assert.ErrorIs(t, f.svc.DeleteEntry(ctx, me, entry.ID), ErrEntryNotFound)

	meals, err := f.svc.ListMeals(ctx, me, "")
	require.NoError(t, err)
	assert.Len(t, meals, 1)

	require.NoError(t, f.svc.DeleteMeal(ctx, me, meal.ID))
	entries, err = f.svc.ListEntries(ctx, me, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEntryPhotos(t *testing.T) {
	f := newNutritionFixture()
	ctx := context.Background()
	me := sessionOf(f.client)

	meal, err := f.svc.CreateMeal(ctx, me, domain.MealDinner, "", "")
	require.NoError(t, err)
	entry, err := f.svc.AddEntry(ctx, me, meal.ID, EntryInput{FoodName: "Salmon", Calories: 400})
	require.NoError(t, err)

	_, err = f.svc.EntryPhotoURL(ctx, me, entry.ID)
	assert.ErrorIs(t, err, ErrPhotoNotFound)

	_, err = f.svc.RequestEntryPhotoUpload(ctx, me, entry.ID, "application/pdf")
	assert.ErrorIs(t, err, ErrValidation)

	up, err := f.svc.RequestEntryPhotoUpload(ctx, me, entry.ID, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.ObjectKey, "meal-photos/"+f.client.ID.Hex()+"/"+entry.ID.Hex()+"/"))
	assert.Contains(t, up.UploadURL, up.ObjectKey)
	assert.Equal(t, fixedNow.Add(15*time.Minute), up.ExpiresAt)

	url, err := f.svc.EntryPhotoURL(ctx, me, entry.ID)
	require.NoError(t, err)
	assert.Contains(t, url, up.ObjectKey)

	second, err := f.svc.RequestEntryPhotoUpload(ctx, me, entry.ID, "image/png")
	require.NoError(t, err)
	assert.Equal(t, []string{up.ObjectKey}, f.storage.deleted)

	require.NoError(t, f.svc.DeleteEntry(ctx, me, entry.ID))
	assert.Equal(t, []string{up.ObjectKey, second.ObjectKey}, f.storage.deleted)
}

func TestDeleteMeal_RemovesEntryPhotos(t *testing.T) {
	f := newNutritionFixture()
	ctx := context.Background()
	me := sessionOf(f.client)

	meal, err := f.svc.CreateMeal(ctx, me, domain.MealLunch, "", "")
	require.NoError(t, err)
	withPhoto, err := f.svc.AddEntry(ctx, me, meal.ID, EntryInput{FoodName: "Rice bowl", Calories: 550})
	require.NoError(t, err)
	_, err = f.svc.AddEntry(ctx, me, meal.ID, EntryInput{FoodName: "Tea"})
	require.NoError(t, err)

	other, err := f.svc.CreateMeal(ctx, me, domain.MealDinner, "", "")
	require.NoError(t, err)
	kept, err := f.svc.AddEntry(ctx, me, other.ID, EntryInput{FoodName: "Soup", Calories: 200})
	require.NoError(t, err)

	up, err := f.svc.RequestEntryPhotoUpload(ctx, me, withPhoto.ID, "image/jpeg")
	require.NoError(t, err)
	keptUp, err := f.svc.RequestEntryPhotoUpload(ctx, me, kept.ID, "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteMeal(ctx, me, meal.ID))
	assert.Equal(t, []string{up.ObjectKey}, f.storage.deleted)
	assert.NotContains(t, f.storage.deleted, keptUp.ObjectKey)

	_, err = f.meals.GetEntry(ctx, withPhoto.ID)
	assert.Error(t, err)
}

func TestEntryPhotos_StorageFailure(t *testing.T) {
	f := newNutritionFixture()
	ctx := context.Background()
	me := sessionOf(f.client)
	meal, err := f.svc.CreateMeal(ctx, me, domain.MealBreakfast, "", "")
	require.NoError(t, err)
	entry, err := f.svc.AddEntry(ctx, me, meal.ID, EntryInput{FoodName: "Oats"})
	require.NoError(t, err)

	f.storage.err = errors.New("s3 down")
	_, err = f.svc.RequestEntryPhotoUpload(ctx, me, entry.ID, "image/webp")
	assert.ErrorIs(t, err, ErrUploadURLError)

	stored, err := f.meals.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPhoto())
}
