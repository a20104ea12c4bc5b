package user

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	salt     = []byte("pmnts.core.user.token_gen")
	tsCodec  = base32.StdEncoding.WithPadding(base32.NoPadding)
	tokenDay = 24 * time.Hour
	epoch    = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// TokenGenerator makes & verifies password reset tokens of the form `<base32 day>-<signature>`.
// A token is invalidated as soon as the password or the last login of its User changes.
type TokenGenerator struct {
	secretKey []byte
	timeout   time.Duration
	nowFunc   func() time.Time // mockable
}

func NewTokenGenerator(secretKey string, timeout time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secretKey: []byte(secretKey),
		timeout:   timeout,
		nowFunc:   time.Now,
	}
}

// EncodeUID base64 encodes given User ID
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

// DecodeUID base64 decodes given UID
func DecodeUID(uid string) (string, error) {
	idBytes, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", err
	}
	return string(idBytes), nil
}

// MakeToken generates a password reset token for a given User.
func (gen *TokenGenerator) MakeToken(usr User) (string, error) {
	return gen.tokenFor(usr, gen.today())
}

// VerifyToken checks that a password reset token for a given User is valid.
func (gen *TokenGenerator) VerifyToken(usr User, token string) error {
	day, err := tokenDayOf(token)
	if err != nil {
		return err
	}

	expected, err := gen.tokenFor(usr, day)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 0 {
		return errInvalidToken
	}

	if gen.today()-day > int(gen.timeout/tokenDay) {
		return errTokenExpired
	}
	return nil
}

func (gen *TokenGenerator) today() int {
	return int(math.Ceil(gen.nowFunc().Sub(epoch).Hours() / 24))
}

func (gen *TokenGenerator) tokenFor(usr User, day int) (string, error) {
	dayStr := strconv.Itoa(day)
	key := sha256.Sum256(append(append([]byte{}, salt...), gen.secretKey...))
	mac := hmac.New(sha256.New, key[:])

	// the signed value changes with the password hash and the last login
	parts := [][]byte{[]byte(usr.ID), usr.PasswordHash}
	if !usr.LastLogin.IsZero() {
		parts = append(parts, []byte(usr.LastLogin.UTC().String()))
	}
	parts = append(parts, []byte(dayStr))
	for _, p := range parts {
		if _, err := mac.Write(p); err != nil {
			return "", err
		}
	}
	return tsCodec.EncodeToString([]byte(dayStr)) + "-" + base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// tokenDayOf extracts the day a token was made on.
func tokenDayOf(token string) (int, error) {
	tsB32, _, found := strings.Cut(token, "-")
	if !found {
		return 0, errInvalidToken
	}
	data, err := tsCodec.DecodeString(tsB32)
	if err != nil {
		return 0, errInvalidToken
	}
	day, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, errInvalidToken
	}
	return day, nil
}
