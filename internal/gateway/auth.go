package gateway

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jacl-coder/PixelStorm-PvP/config"
	"github.com/jacl-coder/PixelStorm-PvP/pkg/clock"
)

var (
	// ErrMissingToken 请求没有携带令牌
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken 令牌无效或已过期
	ErrInvalidToken = errors.New("invalid token")
)

const tokenIssuer = "pixelstorm-pvp"

type contextKey struct{}

var playerIDKey = contextKey{}

// TokenAuth HS256 令牌签发与校验，令牌的 subject 为玩家ID
type TokenAuth struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewTokenAuth 创建令牌认证。secret 为空时使用随机密钥，进程重启后旧令牌失效
func NewTokenAuth(cfg config.AuthConfig, clk clock.Clock) (*TokenAuth, error) {
	if clk == nil {
		clk = clock.Real()
	}
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenAuth{secret: secret, ttl: ttl, clock: clk}, nil
}

// IssueToken 为玩家签发令牌
func (a *TokenAuth) IssueToken(playerID string) (string, error) {
	now := a.clock.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   playerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken 校验令牌并返回玩家ID
func (a *TokenAuth) ParseToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Middleware 要求 Authorization: Bearer <token>，并把玩家ID放入请求上下文
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		playerID, err := a.ParseToken(bearerToken(r))
		if err != nil {
			sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), playerIDKey, playerID)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// PlayerIDFromContext 认证中间件写入的玩家ID
func PlayerIDFromContext(ctx context.Context) (string, bool) {
	playerID, ok := ctx.Value(playerIDKey).(string)
	return playerID, ok && playerID != ""
}
