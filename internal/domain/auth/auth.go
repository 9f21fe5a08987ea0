package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload issued on login. Permission is one of the two
// account roles; verification trusts it without a store lookup.
type Claims struct {
	EmployeeID string `json:"eid"`
	Name       string `json:"name"`
	Permission string `json:"permission"`
	jwt.RegisteredClaims
}

// UserContext is the authenticated caller as seen by handlers.
type UserContext struct {
	EmployeeID string
	Name       string
	Permission string
}

// Tokens issues and verifies the HS256 bearer tokens the API runs on.
type Tokens struct {
	Secret string
	TTL    time.Duration
}

// Issue signs a token for user, valid for the configured TTL.
func (t Tokens) Issue(user UserContext) (string, error) {
	now := time.Now()
	claims := Claims{
		EmployeeID: user.EmployeeID,
		Name:       user.Name,
		Permission: user.Permission,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.Secret))
}

// Verify checks the signature, algorithm and expiry of raw and returns the
// caller it names.
func (t Tokens) Verify(raw string) (UserContext, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(t.Secret), nil
	})
	if err != nil {
		return UserContext{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return UserContext{}, errors.New("invalid token")
	}
	return UserContext{
		EmployeeID: claims.EmployeeID,
		Name:       claims.Name,
		Permission: claims.Permission,
	}, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
