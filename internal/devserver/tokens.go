package devserver

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token scopes. Session tokens authorize the REST API, chat tokens the
// messaging socket.
const (
	ScopeSession = "session"
	ScopeChat    = "chat"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims carries the standard claims plus the user id and scope.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Scope  string `json:"scope"`
}

func GenerateToken(userID, scope string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID: userID,
		Scope:  scope,
	})
	return token.SignedString(secretKey)
}

// UserIDFromToken validates tokenString and returns its user id. The token
// must carry the given scope.
func UserIDFromToken(tokenString, scope string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	if !token.Valid || claims.Scope != scope || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
