package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"glowfit/models"
	"glowfit/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSES struct{ bodies []string }

func (c *captureSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	c.bodies = append(c.bodies, aws.ToString(in.Message.Body.Text.Data))
	return &ses.SendEmailOutput{}, nil
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, nil, "secret", []string{"Boss@GlowFit.app"})
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: " Jane@Example.com ", Password: "hunter22!", FirstName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "hunter22!", u.Password)

	_, err = svc.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.Register(ctx, RegisterInput{Email: "short@example.com", Password: "abc"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrValidation)

	boss, err := svc.Register(ctx, RegisterInput{Email: "boss@glowfit.app", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, boss.Role)

	token, got, err := svc.Login(ctx, "JANE@example.com", "hunter22!")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	claims, err := utils.ParseJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID())
	assert.Equal(t, "jane@example.com", claims.Email)

	_, _, err = svc.Login(ctx, "jane@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = svc.Login(ctx, "ghost@example.com", "hunter22!")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, db.Model(u).Update("disabled", true).Error)
	_, _, err = svc.Login(ctx, "jane@example.com", "hunter22!")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPasswordReset(t *testing.T) {
	db := newTestDB(t)
	fake := &captureSES{}
	svc := NewAuthService(db, utils.NewMailer(fake, "noreply@glowfit.app"), "secret", nil)
	now := testNow
	svc.Now = func() time.Time { return now }
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "sam@example.com", Password: "old-password"})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, "nobody@example.com"))
	assert.Empty(t, fake.bodies)

	require.NoError(t, svc.ForgotPassword(ctx, "sam@example.com"))
	require.Len(t, fake.bodies, 1)
	code := regexp.MustCompile(`\d{6}`).FindString(fake.bodies[0])
	require.NotEmpty(t, code)

	err = svc.ResetPassword(ctx, "sam@example.com", "000000x", "new-password")
	assert.ErrorIs(t, err, ErrValidation)

	now = now.Add(16 * time.Minute)
	err = svc.ResetPassword(ctx, "sam@example.com", code, "new-password")
	assert.ErrorIs(t, err, ErrValidation, "expired code")

	now = testNow.Add(5 * time.Minute)
	require.NoError(t, svc.ResetPassword(ctx, "sam@example.com", code, "new-password"))
	_, _, err = svc.Login(ctx, "sam@example.com", "new-password")
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, "sam@example.com", code, "newer-password")
	assert.ErrorIs(t, err, ErrValidation, "codes are single use")
}

func TestPasswordResetCodeBurnedAfterRepeatedMisses(t *testing.T) {
	db := newTestDB(t)
	fake := &captureSES{}
	svc := NewAuthService(db, utils.NewMailer(fake, "noreply@glowfit.app"), "secret", nil)
	svc.Now = fixedClock(testNow)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "kai@example.com", Password: "old-password"})
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(ctx, "kai@example.com"))
	code := regexp.MustCompile(`\d{6}`).FindString(fake.bodies[0])
	require.NotEmpty(t, code)
	wrong := "999999"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < maxResetAttempts-1; i++ {
		err := svc.ResetPassword(ctx, "kai@example.com", wrong, "new-password")
		require.ErrorIs(t, err, ErrValidation)
	}
	var row models.User
	require.NoError(t, db.First(&row, u.ID).Error)
	assert.Equal(t, maxResetAttempts-1, row.ResetAttempts)
	assert.NotEmpty(t, row.ResetToken)

	err = svc.ResetPassword(ctx, "kai@example.com", wrong, "new-password")
	require.ErrorIs(t, err, ErrValidation)
	require.NoError(t, db.First(&row, u.ID).Error)
	assert.Empty(t, row.ResetToken)
	assert.Zero(t, row.ResetAttempts)

	err = svc.ResetPassword(ctx, "kai@example.com", code, "new-password")
	assert.ErrorIs(t, err, ErrValidation, "the right code no longer works once burned")

	// a fresh code starts a new allowance
	require.NoError(t, svc.ForgotPassword(ctx, "kai@example.com"))
	fresh := regexp.MustCompile(`\d{6}`).FindString(fake.bodies[1])
	require.NoError(t, svc.ResetPassword(ctx, "kai@example.com", fresh, "new-password"))
}

func TestResolveClerkUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, nil, "secret", nil)
	ctx := context.Background()

	local, err := svc.Register(ctx, RegisterInput{Email: "mia@example.com", Password: "password1"})
	require.NoError(t, err)

	linked, err := svc.ResolveClerkUser(ctx, &utils.ClerkClaims{
		Email:            "MIA@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user_abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, local.ID, linked.ID)

	again, err := svc.ResolveClerkUser(ctx, &utils.ClerkClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user_abc"}})
	require.NoError(t, err)
	assert.Equal(t, local.ID, again.ID)

	fresh, err := svc.ResolveClerkUser(ctx, &utils.ClerkClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user_xyz"}})
	require.NoError(t, err)
	assert.NotEqual(t, local.ID, fresh.ID)
	assert.Equal(t, "user_xyz@users.clerk", fresh.Email)
	require.NotNil(t, fresh.ClerkID)
	assert.Equal(t, "user_xyz", *fresh.ClerkID)
}
