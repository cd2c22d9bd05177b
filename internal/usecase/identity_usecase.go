package usecase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IdentityUsecase provisions anonymous player identities. An identity
// is an opaque stable id; the signed token only binds a connection to
// it and is never required — provisioning failure degrades to a
// client-generated id rather than blocking anyone.
type IdentityUsecase interface {
	// Issue mints a fresh anonymous identity and a token for it. On
	// signing failure the id is still returned alongside
	// ErrIdentityUnavailable so the caller can proceed unsigned.
	Issue() (playerID, token string, err error)

	// Verify parses a token back into its player id.
	Verify(token string) (string, error)
}

type identityUsecase struct {
	jwtSecret []byte
}

func NewIdentityUsecase(jwtSecret []byte) IdentityUsecase {
	return &identityUsecase{jwtSecret: jwtSecret}
}

func (uc *identityUsecase) Issue() (string, string, error) {
	playerID := uuid.NewString()

	if len(uc.jwtSecret) == 0 {
		return playerID, "", fmt.Errorf("%w: no signing secret configured", ErrIdentityUnavailable)
	}

	claims := &jwt.RegisteredClaims{
		Subject:  playerID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(uc.jwtSecret)
	if err != nil {
		return playerID, "", fmt.Errorf("%w: sign token: %w", ErrIdentityUnavailable, err)
	}

	return playerID, token, nil
}

func (uc *identityUsecase) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		return uc.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token claims")
	}

	return claims.Subject, nil
}
