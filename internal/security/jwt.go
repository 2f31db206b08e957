package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification is uniformly symmetric (HS256). Access and refresh
// tokens are signed with separate secrets so one can never pass as the
// other; id tokens share the access secret but carry token_use=id.

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

type JWTManager struct {
	issuer        string
	audience      string
	accessSecret  []byte
	refreshSecret []byte
}

func NewJWTManager(issuer, audience, accessSecret, refreshSecret string) *JWTManager {
	return &JWTManager{
		issuer:        issuer,
		audience:      audience,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

func (m *JWTManager) SignAccessToken(userID, email string, ttl time.Duration) (string, error) {
	return m.sign(m.accessSecret, Claims{
		RegisteredClaims: m.registered(userID, ttl),
		TokenUse:         "access",
		Email:            email,
	})
}

func (m *JWTManager) SignIDToken(userID, email, name string, ttl time.Duration) (string, error) {
	return m.sign(m.accessSecret, Claims{
		RegisteredClaims: m.registered(userID, ttl),
		TokenUse:         "id",
		Email:            email,
		Name:             name,
	})
}

// SignRefreshToken embeds jti so the matching session row can be found
// without storing the raw token.
func (m *JWTManager) SignRefreshToken(userID, jti string, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: m.registered(userID, ttl),
		TokenUse:         "refresh",
	}
	claims.ID = jti
	return m.sign(m.refreshSecret, claims)
}

func (m *JWTManager) ParseAccessToken(raw string) (*Claims, error) {
	return m.parse(raw, m.accessSecret, "access")
}

func (m *JWTManager) ParseRefreshToken(raw string) (*Claims, error) {
	return m.parse(raw, m.refreshSecret, "refresh")
}

func (m *JWTManager) registered(userID string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now().UTC()
	return jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Audience:  jwt.ClaimStrings{m.audience},
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (m *JWTManager) sign(secret []byte, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *JWTManager) parse(raw string, secret []byte, wantUse string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenUse != wantUse {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
