package utils

import (
	"time"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the caller identity and organization scope.
type Claims struct {
	UserID uint        `json:"userId"`
	OrgID  uint        `json:"orgId"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

func GenerateJWT(userID, orgID uint, role models.Role, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		OrgID:  orgID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(secret)
}
