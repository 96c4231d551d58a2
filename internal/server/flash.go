package server

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	flashCookie = "newsverify_flash"
	flashTTL    = time.Minute
	flashIssuer = "newsverify"
)

// Flash is a one-shot message shown on the next page
type Flash struct {
	Category string // error, info
	Message  string
}

type flashClaims struct {
	jwt.RegisteredClaims
	Category string `json:"cat"`
	Message  string `json:"msg"`
}

// FlashCodec stores flash messages in an HS256-signed cookie
type FlashCodec struct {
	key []byte
	now func() time.Time
}

// NewFlashCodec signs cookies with secret. An empty secret gets a random
// per-process key, so messages do not survive a restart.
func NewFlashCodec(secret string) (*FlashCodec, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate flash key: %w", err)
		}
	}
	return &FlashCodec{key: key, now: time.Now}, nil
}

// Set attaches a flash message to the response
func (c *FlashCodec) Set(w http.ResponseWriter, f Flash) error {
	now := c.now()
	claims := flashClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    flashIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(flashTTL)),
		},
		Category: f.Category,
		Message:  f.Message,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return fmt.Errorf("sign flash: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(flashTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop reads and clears the flash message. Missing, expired or tampered
// cookies yield nil.
func (c *FlashCodec) Pop(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	var claims flashClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims, func(t *jwt.Token) (any, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(flashIssuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil
	}
	return &Flash{Category: claims.Category, Message: claims.Message}
}
