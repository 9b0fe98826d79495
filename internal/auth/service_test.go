package auth

import (
	"testing"

	"arena-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, password string) *domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	teamID := uuid.New()
	u := &domain.User{
		Fullname:     "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         "lead",
		TeamID:       &teamID,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestLoginUser_Success(t *testing.T) {
	db := setupAuthTest(t)
	seeded := seedUser(t, db, "lead@example.com", "secret123")

	u, err := LoginUser(db, LoginInput{Email: "lead@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, seeded.UserID, u.UserID)
	assert.Equal(t, seeded.Email, u.Email)
}

func TestLoginUser_MissingFields(t *testing.T) {
	db := setupAuthTest(t)

	_, err := LoginUser(db, LoginInput{Email: "", Password: "x"})
	assert.ErrorIs(t, err, ErrEmailPasswordRequired)

	_, err = LoginUser(db, LoginInput{Email: "a@b.c", Password: ""})
	assert.ErrorIs(t, err, ErrEmailPasswordRequired)
}

func TestLoginUser_UnknownEmail(t *testing.T) {
	db := setupAuthTest(t)

	_, err := LoginUser(db, LoginInput{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestLoginUser_WrongPassword(t *testing.T) {
	db := setupAuthTest(t)
	seedUser(t, db, "lead@example.com", "secret123")

	_, err := LoginUser(db, LoginInput{Email: "lead@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrIncorrectPassword)
}

func TestVerifyUser_WithTeam(t *testing.T) {
	teamID := uuid.New().String()
	shape, err := VerifyUser(map[string]interface{}{
		"user_id":  uuid.New().String(),
		"fullname": "Test User",
		"email":    "lead@example.com",
		"role":     "lead",
		"team_id":  teamID,
	})
	require.NoError(t, err)
	assert.Equal(t, "lead", shape.Role)
	require.NotNil(t, shape.TeamID)
	assert.Equal(t, teamID, *shape.TeamID)
}

func TestVerifyUser_NoTeam(t *testing.T) {
	shape, err := VerifyUser(map[string]interface{}{
		"user_id": uuid.New().String(),
		"role":    "operator",
	})
	require.NoError(t, err)
	assert.Nil(t, shape.TeamID)
}

func TestVerifyUser_Invalid(t *testing.T) {
	_, err := VerifyUser(nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = VerifyUser("not-a-map")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = VerifyUser(map[string]interface{}{"role": "lead"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
