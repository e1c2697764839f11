package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	contextKeyManager = "manager_claims"
	bearerPrefix      = "Bearer "
)

var errMissingSession = errors.New("missing session")

// managerClaims identifies an authenticated manager session.
type managerClaims struct {
	jwt.RegisteredClaims
}

type sessionManager struct {
	signingKey []byte
	issuer     string
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

func newSessionManager(cfg Config, now func() time.Time) *sessionManager {
	return &sessionManager{
		signingKey: []byte(cfg.SessionSigningKey),
		issuer:     cfg.SessionIssuer,
		cookieName: cfg.SessionCookieName,
		ttl:        cfg.SessionTTL,
		secure:     cfg.SecureCookie,
		now:        now,
	}
}

func (manager *sessionManager) issue(loginID string) (string, time.Time, error) {
	issuedAt := manager.now()
	expiresAt := issuedAt.Add(manager.ttl)
	claims := managerClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    manager.issuer,
		Subject:   loginID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(manager.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expiresAt, nil
}

func (manager *sessionManager) parse(token string) (*managerClaims, error) {
	claims := &managerClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return manager.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(manager.issuer),
		jwt.WithTimeFunc(manager.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (manager *sessionManager) setCookie(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(manager.cookieName, token, int(manager.ttl.Seconds()), "/", "", manager.secure, true)
}

func (manager *sessionManager) clearCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(manager.cookieName, "", -1, "/", "", manager.secure, true)
}

func (manager *sessionManager) tokenFrom(ctx *gin.Context) (string, error) {
	if header := ctx.GetHeader("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)), nil
	}
	cookie, err := ctx.Cookie(manager.cookieName)
	if err != nil || cookie == "" {
		return "", errMissingSession
	}
	return cookie, nil
}

// middleware rejects requests without a valid manager session.
func (manager *sessionManager) middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := manager.tokenFrom(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(codeUnauthorized, messageUnauthorized))
			return
		}
		claims, err := manager.parse(token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(codeUnauthorized, messageUnauthorized))
			return
		}
		ctx.Set(contextKeyManager, claims)
		ctx.Next()
	}
}

func getManagerClaims(ctx *gin.Context) *managerClaims {
	claimsValue, ok := ctx.Get(contextKeyManager)
	if !ok {
		return nil
	}
	claims, _ := claimsValue.(*managerClaims)
	return claims
}
