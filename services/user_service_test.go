package services

import (
	"context"
	"testing"

	"glowfit/nutrition"
	"glowfit/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	store := &memS3{}
	svc := NewUserService(db, utils.NewStorage(store, "glowfit", "us-east-1", "https://cdn.glowfit.app"), 1<<20)
	svc.Now = fixedClock(testNow)
	ctx := context.Background()
	u := createUser(t, db, "pat@example.com")

	_, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{Birthday: ptr("2030-01-01")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.UpdateProfile(ctx, u.ID, ProfileInput{Sex: ptr("robot")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.UpdateProfile(ctx, u.ID, ProfileInput{HeightCm: ptr(20.0)})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{
		FirstName:      ptr(" Pat "),
		Birthday:       ptr("1996-03-12"),
		Sex:            ptr("Female"),
		HeightCm:       ptr(170.0),
		WeightKg:       ptr(70.0),
		ProfilePicture: photo(t, skinTone),
	})
	require.NoError(t, err)
	assert.Equal(t, "Pat", p.FirstName)
	assert.Equal(t, "female", p.Sex)
	assert.Equal(t, 29, p.Age, "birthday is tomorrow")
	require.NotNil(t, p.BMI)
	assert.Equal(t, 24.2, p.BMI.Value)
	assert.Equal(t, 1, store.count())

	p, err = svc.UpdateProfile(ctx, u.ID, ProfileInput{ProfilePicture: photo(t, skinTone)})
	require.NoError(t, err)
	assert.Equal(t, 1, store.count(), "old picture replaced")

	got, err := svc.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ProfilePicture, got.ProfilePicture)
	_, err = svc.GetProfile(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNutritionSettings(t *testing.T) {
	db := newTestDB(t)
	svc := NewNutritionSettingsService(db)
	svc.Now = fixedClock(testNow)
	ctx := context.Background()
	u := createUser(t, db, "fit@example.com")
	u.Sex, u.HeightCm, u.WeightKg = "male", 180, 80
	u.Birthday = testNow.AddDate(-30, 0, -1)

	v, err := svc.Get(ctx, u)
	require.NoError(t, err)
	assert.False(t, v.Saved)
	assert.Equal(t, "maintain", v.Goal)
	assert.Equal(t, 2400, v.WaterGoalMl)
	assert.Equal(t, v.Computed.CalorieTarget, v.CalorieTarget)

	_, err = svc.Update(ctx, u, SettingsInput{Goal: "bulk"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Update(ctx, u, SettingsInput{CalorieTarget: ptr(-5.0)})
	assert.ErrorIs(t, err, ErrValidation)

	v, err = svc.Update(ctx, u, SettingsInput{Goal: nutrition.GoalLose, ActivityLevel: "active", ProteinG: ptr(160.0)})
	require.NoError(t, err)
	assert.True(t, v.Saved)
	assert.Equal(t, nutrition.GoalLose, v.Goal)
	assert.Equal(t, 160.0, v.ProteinG)
	assert.Less(t, v.CalorieTarget, v.Computed.TDEE)

	row, saved, err := svc.Load(ctx, u)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, 160.0, row.ProteinG)
}
