package util

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var jwtSecret []byte

// SetJWTSecret overrides the signing secret (startup and tests).
func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// GetJWTSecretByte returns the signing secret, falling back to the JWTSECRET
// environment variable on first use.
func GetJWTSecretByte() []byte {
	if len(jwtSecret) == 0 {
		jwtSecret = []byte(os.Getenv("JWTSECRET"))
	}
	return jwtSecret
}

// CreateSessionJWT issues a signed token mirroring the session identity, so
// the frontend can read the logged-in user without an extra round trip.
func CreateSessionJWT(discordID, username, role string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      discordID,
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(GetJWTSecretByte())
}

// ParseSessionJWT validates a session JWT and returns its claims.
func ParseSessionJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return GetJWTSecretByte(), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}
