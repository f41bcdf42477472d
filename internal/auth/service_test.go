package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"holyremedies.mx/storefront/pkg/models"
)

type fakeAdmins map[string]*models.Admin

func (f fakeAdmins) FindAdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	if a, ok := f[email]; ok {
		return a, nil
	}
	return nil, models.ErrAdminNotFound
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	admins := fakeAdmins{
		"admin@example.com": {ID: bson.NewObjectID(), Email: "admin@example.com", PasswordHash: string(hash)},
	}
	return NewService(admins, "test-secret", time.Hour)
}

func TestService_Login(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		token, err := svc.Login(ctx, " Admin@Example.com ", "s3cret")
		require.NoError(t, err)
		assert.NotEmpty(t, token.AccessToken)

		claims, err := svc.ParseToken(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "admin@example.com", claims.Email)
		assert.Equal(t, RoleAdmin, claims.Role)
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := svc.Login(ctx, "admin@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown_email", func(t *testing.T) {
		_, err := svc.Login(ctx, "ghost@example.com", "s3cret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("repository_error", func(t *testing.T) {
		cause := errors.New("boom")
		broken := NewService(brokenAdmins{cause}, "test-secret", time.Hour)
		_, err := broken.Login(ctx, "admin@example.com", "s3cret")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("not_configured", func(t *testing.T) {
		_, err := NewService(nil, "", 0).Login(ctx, "admin@example.com", "s3cret")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

type brokenAdmins struct{ err error }

func (b brokenAdmins) FindAdminByEmail(context.Context, string) (*models.Admin, error) {
	return nil, b.err
}

func TestService_ParseToken(t *testing.T) {
	svc := newTestService(t)

	t.Run("expired", func(t *testing.T) {
		token, err := svc.Login(context.Background(), "admin@example.com", "s3cret")
		require.NoError(t, err)

		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()

		_, err = svc.ParseToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other_secret", func(t *testing.T) {
		other := NewService(nil, "another-secret", time.Hour)
		token, err := other.issue(&models.Admin{ID: bson.NewObjectID(), Email: "x@example.com"})
		require.NoError(t, err)

		_, err = svc.ParseToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong_role", func(t *testing.T) {
		claims := Claims{
			Role: "customer",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = svc.ParseToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ParseToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))
}
