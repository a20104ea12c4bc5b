package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/session"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

const (
	contextClaimsKey   = "userToken"
	contextIdentityKey = "identity"

	// tokenQueryParam carries the token of the WebSocket stream, browsers cannot set its headers.
	tokenQueryParam = "access_token"
	audience        = "PMNTS Portal"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         user.Role `json:"role,omitempty"`
}

// Tokens signs and verifies the session tokens.
type Tokens struct {
	key        []byte
	issuer     string
	ttl        time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time // mockable
}

func NewTokens(conf *core.Config) *Tokens {
	return &Tokens{
		key:        []byte(conf.SecretKey),
		issuer:     conf.AppName,
		ttl:        conf.Server.JWTExpirationDelta,
		refreshTTL: conf.Server.JWTRefreshExpirationDelta,
		nowFunc:    time.Now,
	}
}

// Claims returns the claims of a new token of usr. origIat is the issue time of the first token of the session.
func (tk *Tokens) Claims(usr user.User, origIat ...int64) *Claims {
	now := tk.nowFunc()
	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tk.issuer,
			Subject:   usr.ID,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(tk.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// Sign generates a signed JWT token string representing the Claims.
func (tk *Tokens) Sign(claims *Claims) (string, error) {
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tk.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Issue returns a new signed token of usr.
func (tk *Tokens) Issue(usr user.User, origIat ...int64) (string, *Claims, error) {
	claims := tk.Claims(usr, origIat...)
	token, err := tk.Sign(claims)
	return token, claims, err
}

func (tk *Tokens) Parse(token string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return tk.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tk.issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(tk.nowFunc),
	)
	if err != nil {
		return nil, errInvalidToken.WithInternal(err)
	}
	return claims, nil
}

// RefreshExpired reports whether the session of claims can no longer be refreshed.
func (tk *Tokens) RefreshExpired(claims Claims) bool {
	return tk.nowFunc().After(time.Unix(claims.OrigIssuedAt, 0).Add(tk.refreshTTL))
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get(echo.HeaderAuthorization); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get(tokenQueryParam)
}

// authMiddleware verifies the session token and loads the Identity of its user.
func authMiddleware(tokens *Tokens, sessions *session.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			raw := bearerToken(ctx.Request())
			if raw == "" {
				return errMissingToken
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				return err
			}

			reqCtx := ctx.Request().Context()
			revoked, err := sessions.IsRevoked(reqCtx, claims.ID)
			if err != nil {
				return errors.Wrap(err, "checking token")
			}
			if revoked {
				return errTokenRevoked
			}
			id, err := sessions.Current(reqCtx, claims.Subject)
			if err != nil {
				if core.IsNotFound(err) {
					return errInvalidToken
				}
				return errors.Wrap(err, "loading session")
			}

			ctx.Set(contextClaimsKey, *claims)
			ctx.Set(contextIdentityKey, id)
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(Claims); ok {
		return claims, nil
	}
	return Claims{}, errUnauthorized
}

func getContextIdentity(ctx echo.Context) (session.Identity, error) {
	if id, ok := ctx.Get(contextIdentityKey).(session.Identity); ok {
		return id, nil
	}
	return session.Identity{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return user.User{}, err
	}
	return id.User, nil
}
