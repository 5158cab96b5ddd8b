// internal/utils/jwt.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// JWTClaims are issued by the storefront identity provider.
type JWTClaims struct {
	CustomerID string `json:"customer_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Customer returns the customer id, falling back to the subject.
func (c *JWTClaims) Customer() string {
	if c.CustomerID != "" {
		return c.CustomerID
	}
	return c.Subject
}

var (
	jwtSecret = []byte("your-secret-key-change-in-production")
	jwtIssuer = ""
)

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// SetJWTIssuer makes ValidateJWT require the given iss claim. Empty disables the check.
func SetJWTIssuer(issuer string) {
	jwtIssuer = issuer
}

func GenerateJWT(subject, customerID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		CustomerID: customerID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateJWT(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if jwtIssuer != "" && !claims.VerifyIssuer(jwtIssuer, true) {
		return nil, errors.New("unexpected token issuer")
	}
	return claims, nil
}
