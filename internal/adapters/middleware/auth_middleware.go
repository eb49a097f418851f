package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Roles issued by the identity service
const (
	RoleAdmin  = "ADMIN"
	RoleParent = "PARENT"
)

// cacheEntry stores cached JWT claims keyed by JTI (JWT ID)
type cacheEntry struct {
	claims jwt.MapClaims
	exp    int64
}

// AuthMiddleware handles JWT validation and RBAC enforcement
// Validates RS256 tokens signed by the identity service
// Verified claims are cached by JTI until they expire
type AuthMiddleware struct {
	publicKey *rsa.PublicKey
	logger    *zap.Logger
	cache     sync.Map
	now       func() time.Time
	// Background janitor for cache cleanup
	janitorStop chan bool
}

const CacheCleanupInterval = 10 * time.Minute

// NewAuthMiddleware creates a new JWT authentication middleware
func NewAuthMiddleware(publicKey *rsa.PublicKey, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &AuthMiddleware{
		publicKey:   publicKey,
		logger:      logger,
		now:         time.Now,
		janitorStop: make(chan bool),
	}

	go m.startJanitor(CacheCleanupInterval)

	return m
}

// Context keys for storing user information
type contextKey string

const (
	UserIDKey    contextKey = "userID"
	RoleKey      contextKey = "role"
	TokenKey     contextKey = "token"
	UserEmailKey contextKey = "userEmail"
)

// GetClaimsFromCacheOrParse extracts claims from cache or parses token
// Returns claims, the cache key (JTI) and error
func (m *AuthMiddleware) GetClaimsFromCacheOrParse(tokenString string) (jwt.MapClaims, string, error) {
	// Peek at the JTI without verifying the signature yet
	parser := new(jwt.Parser)
	unverifiedToken, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, "", err
	}

	claims, ok := unverifiedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, "", errors.New("invalid token claims")
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		role, _ := claims["role"].(string)
		userID, _ := claims["sub"].(string)
		jti = fmt.Sprintf("%s-%s-%s", tokenString[:min(20, len(tokenString))], role, userID[:min(8, len(userID))])
		m.logger.Debug("Token missing JTI, using fallback cache key", zap.String("role", role), zap.String("user_id", userID))
	}

	var exp int64
	switch v := claims["exp"].(type) {
	case float64:
		exp = int64(v)
	case int64:
		exp = v
	default:
		return nil, "", errors.New("missing expiration claim")
	}

	now := m.now().Unix()
	if now > exp {
		return nil, "", errors.New("token expired")
	}

	if entry, ok := m.cache.Load(jti); ok {
		cached := entry.(cacheEntry)
		if now < cached.exp {
			return cached.claims, jti, nil
		}
		m.cache.Delete(jti)
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.publicKey, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		return nil, "", err
	}

	if !token.Valid {
		return nil, "", jwt.ErrSignatureInvalid
	}

	verifiedClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, "", errors.New("invalid token claims")
	}

	m.cache.Store(jti, cacheEntry{claims: verifiedClaims, exp: exp})

	return verifiedClaims, jti, nil
}

// Authenticate validates a token and returns its subject and role
func (m *AuthMiddleware) Authenticate(tokenString string) (userID string, role string, err error) {
	claims, _, err := m.GetClaimsFromCacheOrParse(tokenString)
	if err != nil {
		return "", "", err
	}

	userIDClaim, ok := claims["sub"].(string)
	if !ok || userIDClaim == "" {
		return "", "", errors.New("missing or invalid user ID claim")
	}

	roleClaim, ok := claims["role"].(string)
	if !ok || roleClaim == "" {
		return "", "", errors.New("missing or invalid role claim")
	}

	return userIDClaim, roleClaim, nil
}

// bearerToken extracts the token from an Authorization header
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireAuth is middleware that validates JWT token from Authorization header
// Adds userID and role to request context
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.logger.Debug("Missing Authorization header", zap.String("path", r.URL.Path))
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			m.logger.Debug("Invalid Authorization header format", zap.String("path", r.URL.Path))
			http.Error(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}

		claims, jti, err := m.GetClaimsFromCacheOrParse(tokenString)
		if err != nil {
			m.logger.Info("Token validation failed", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		userID, ok := claims["sub"].(string)
		if !ok || userID == "" {
			http.Error(w, "invalid token: missing user ID", http.StatusUnauthorized)
			return
		}

		userRole, ok := claims["role"].(string)
		if !ok || userRole == "" {
			http.Error(w, "invalid token: missing role", http.StatusUnauthorized)
			return
		}

		m.logger.Debug("Token validated",
			zap.String("user_id", userID),
			zap.String("role", userRole),
			zap.String("jti", jti),
			zap.Duration("duration", time.Since(start)),
		)

		email, _ := claims["email"].(string)

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, RoleKey, userRole)
		ctx = context.WithValue(ctx, TokenKey, tokenString)
		ctx = context.WithValue(ctx, UserEmailKey, email)

		next(w, r.WithContext(ctx))
	}
}

// RequireAnyRole enforces role-based access control with multiple allowed roles
func (m *AuthMiddleware) RequireAnyRole(allowedRoles []string, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		role, ok := GetRole(r.Context())
		if !ok {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				next(w, r)
				return
			}
		}

		m.logger.Info("Role not allowed",
			zap.Strings("allowed", allowedRoles),
			zap.String("role", role),
			zap.String("path", r.URL.Path),
		)
		http.Error(w, "forbidden", http.StatusForbidden)
	})
}

// startJanitor periodically cleans up expired cache entries
func (m *AuthMiddleware) startJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.purgeExpired()
		case <-m.janitorStop:
			return
		}
	}
}

func (m *AuthMiddleware) purgeExpired() int {
	now := m.now().Unix()
	deleted := 0
	m.cache.Range(func(key, value interface{}) bool {
		if entry, ok := value.(cacheEntry); ok && now >= entry.exp {
			m.cache.Delete(key)
			deleted++
		}
		return true
	})
	if deleted > 0 {
		m.logger.Debug("Purged expired token cache entries", zap.Int("count", deleted))
	}
	return deleted
}

// Stop stops the background janitor
func (m *AuthMiddleware) Stop() {
	close(m.janitorStop)
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetRole extracts role from request context
func GetRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// GetToken extracts token string from request context
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// IsAdmin checks if the user in context is an ADMIN
func IsAdmin(ctx context.Context) bool {
	role, ok := GetRole(ctx)
	return ok && role == RoleAdmin
}

// GetUserEmail extracts user email from request context
func GetUserEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}
