package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwtSecret signs every token. The fallback keeps local development and
// tests working; main overrides it with the configured secret via
// SetJWTSecret.
var jwtSecret = []byte("dentalbook_dev_secret")

// SetJWTSecret installs the signing secret from configuration. An empty
// value keeps the development fallback.
func SetJWTSecret(secret string) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
}

// Claims is the principal carried by every token: who the caller is, what
// role they act in, and (for dentists) which dentist profile they own.
type Claims struct {
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	DentistID string `json:"dentistId,omitempty"`
	jwt.RegisteredClaims
}

// GenerateJWT creates a signed token for the given principal.
func GenerateJWT(userID, role, dentistID string, expire time.Duration) (string, error) {
	if expire <= 0 {
		expire = 24 * time.Hour
	}
	claims := &Claims{
		UserID:    userID,
		Role:      role,
		DentistID: dentistID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expire)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateJWT parses and verifies a token string.
func ValidateJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
