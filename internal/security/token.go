package security

import (
	"errors"
	"strconv"
	"time"

	"hotel-pms-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const TokenTypeAccess TokenType = "access"

// StaffClaims are issued by the identity service for hotel staff.
type StaffClaims struct {
	UserID          int32     `json:"user_id"`
	Email           string    `json:"email,omitempty"`
	Type            TokenType `json:"type"`
	Roles           []string  `json:"roles,omitempty"`
	BusinessUnitIDs []int32   `json:"business_unit_ids,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the claims, ignoring roles this service does not know.
func (c *StaffClaims) Principal() *domain.Principal {
	p := &domain.Principal{
		UserID:          c.UserID,
		Email:           c.Email,
		BusinessUnitIDs: c.BusinessUnitIDs,
	}
	for _, r := range c.Roles {
		switch role := domain.Role(r); role {
		case domain.RoleAdmin, domain.RoleManager, domain.RoleFrontDesk, domain.RoleHousekeeping:
			p.Roles = append(p.Roles, role)
		}
	}
	return p
}

type TokenManager interface {
	// GenerateAccessToken mints a staff token; used by tooling and tests,
	// production tokens come from the identity service.
	GenerateAccessToken(p *domain.Principal, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (*StaffClaims, error)
}

type tokenManager struct {
	secret   []byte
	issuer   string
	audience string
}

func NewTokenManager(secret, issuer, audience string) TokenManager {
	return &tokenManager{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

func (m *tokenManager) GenerateAccessToken(p *domain.Principal, ttl time.Duration) (string, error) {
	roles := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = string(r)
	}
	now := time.Now()
	claims := StaffClaims{
		UserID:          p.UserID,
		Email:           p.Email,
		Type:            TokenTypeAccess,
		Roles:           roles,
		BusinessUnitIDs: p.BusinessUnitIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(p.UserID)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			ID:        uuid.NewString(),
		},
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*StaffClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}
	token, err := jwt.ParseWithClaims(tokenString, &StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*StaffClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.UserID == 0 && claims.Subject != "" {
		uid, _ := strconv.Atoi(claims.Subject)
		claims.UserID = int32(uid)
	}
	return claims, nil
}
