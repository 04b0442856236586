package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hearthshare/vault-service/internal/domain"
)

var ErrInvalidToken = errors.New("auth: invalid token")

// Claims bind a WebSocket connection to one member of one vault.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string      `json:"user_id"`
	UserName string      `json:"user_name"`
	Role     domain.Role `json:"role"`
	VaultID  string      `json:"vault_id"`
}

// Manager issues and validates vault tokens, HS256-signed with a
// shared key from config.
type Manager struct {
	key    []byte
	issuer string
}

func NewManager(signingKey, issuer string) *Manager {
	return &Manager{key: []byte(signingKey), issuer: issuer}
}

// Issue creates a token for a vault member.
func (m *Manager) Issue(user domain.User, vaultID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:   user.ID,
		UserName: user.Name,
		Role:     user.Role,
		VaultID:  vaultID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// Validate parses and verifies a token, returning its claims.
func (m *Manager) Validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || claims.VaultID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
