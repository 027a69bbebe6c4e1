package security

import (
	"testing"
	"time"

	"hotel-pms-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(secret, "identity-service", "pms-api")
	p := &domain.Principal{UserID: 12, Email: "desk@example.com", Roles: []domain.Role{domain.RoleFrontDesk}, BusinessUnitIDs: []int32{3}}

	token, err := m.GenerateAccessToken(p, time.Hour)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	got := claims.Principal()
	assert.Equal(t, int32(12), got.UserID)
	assert.Equal(t, []domain.Role{domain.RoleFrontDesk}, got.Roles)
	assert.True(t, got.CanAccess(3))
	assert.False(t, got.CanAccess(4))
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager(secret, "identity-service", "pms-api")
	p := &domain.Principal{UserID: 1, Roles: []domain.Role{domain.RoleManager}}

	t.Run("expired", func(t *testing.T) {
		token, err := m.GenerateAccessToken(p, -time.Minute)
		require.NoError(t, err)
		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("other secret", func(t *testing.T) {
		token, err := NewTokenManager("ffffffffffffffffffffffffffffffff", "identity-service", "pms-api").GenerateAccessToken(p, time.Hour)
		require.NoError(t, err)
		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other audience", func(t *testing.T) {
		token, err := NewTokenManager(secret, "identity-service", "billing").GenerateAccessToken(p, time.Hour)
		require.NoError(t, err)
		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh token", func(t *testing.T) {
		claims := StaffClaims{UserID: 1, Type: "refresh", RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "identity-service", Audience: jwt.ClaimStrings{"pms-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestStaffClaims_PrincipalDropsUnknownRoles(t *testing.T) {
	c := &StaffClaims{UserID: 5, Roles: []string{"HOUSEKEEPING", "JANITOR"}}
	assert.Equal(t, []domain.Role{domain.RoleHousekeeping}, c.Principal().Roles)
}
