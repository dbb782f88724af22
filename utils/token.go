package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/mmdatafocus/fintech_backend/config"
)

type JwtCustomClaim struct {
	UserId string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

type IssuedToken struct {
	Token     string    `json:"token"`
	TokenId   string    `json:"-"`
	ExpiresAt time.Time `json:"expiration"`
}

func JwtGenerate(settings config.AuthSettings, userId string, email string, role string) (*IssuedToken, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(settings.Expiration)
	tokenId := uuid.NewString()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		UserId: userId,
		Email:  email,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			Id:        tokenId,
			Subject:   userId,
			Issuer:    settings.Issuer,
			Audience:  settings.Audience,
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  now.Unix(),
		},
	})

	token, err := t.SignedString(settings.Secret)
	if err != nil {
		return nil, err
	}

	return &IssuedToken{Token: token, TokenId: tokenId, ExpiresAt: expiresAt}, nil
}

// JwtValidate checks signature, expiry, issuer and audience.
func JwtValidate(settings config.AuthSettings, token string) (*JwtCustomClaim, error) {
	claims := &JwtCustomClaim{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return settings.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrorUnauthorized
	}
	if !claims.VerifyIssuer(settings.Issuer, true) {
		return nil, errors.New("token issuer mismatch")
	}
	if !claims.VerifyAudience(settings.Audience, true) {
		return nil, errors.New("token audience mismatch")
	}
	if claims.UserId == "" {
		return nil, errors.New("token has no user id")
	}
	return claims, nil
}
