package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
	TokenTypeShare  TokenType = "share"
)

type Claims struct {
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// IssuedToken — подписанный токен и момент его истечения.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

type TokenManager struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	shareTTL  time.Duration
	now       func() time.Time
}

// NewTokenManager инициализирует менеджер JWT токенов.
func NewTokenManager(secret string, issuer string, accessTTL, shareTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
		shareTTL:  shareTTL,
		now:       time.Now,
	}
}

// NewAccessToken выдает access-токен пользователя.
func (m *TokenManager) NewAccessToken(userID uuid.UUID) (IssuedToken, error) {
	return m.newToken(userID, TokenTypeAccess, m.accessTTL)
}

// NewShareToken выдает токен публичного просмотра плана; subject — идентификатор плана.
func (m *TokenManager) NewShareToken(planID uuid.UUID) (IssuedToken, error) {
	return m.newToken(planID, TokenTypeShare, m.shareTTL)
}

// ParseAccessToken валидирует access-токен и возвращает claims.
func (m *TokenManager) ParseAccessToken(tokenString string) (*Claims, error) {
	return m.parseToken(tokenString, TokenTypeAccess)
}

// ParseShareToken валидирует токен публичной ссылки и возвращает идентификатор плана.
func (m *TokenManager) ParseShareToken(tokenString string) (uuid.UUID, error) {
	claims, err := m.parseToken(tokenString, TokenTypeShare)
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(claims.Subject)
}

func (m *TokenManager) newToken(subject uuid.UUID, tokenType TokenType, ttl time.Duration) (IssuedToken, error) {
	now := m.now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return IssuedToken{}, err
	}

	return IssuedToken{Token: signed, ExpiresAt: expiresAt}, nil
}

func (m *TokenManager) parseToken(tokenString string, tokenType TokenType) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithIssuer(m.issuer))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("token is invalid")
	}

	if claims.TokenType != tokenType {
		return nil, errors.New("token type mismatch")
	}

	return claims, nil
}
