package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"roomstay/internal/config"
	"roomstay/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	clientKeyUnknown      = "unknown"

	permReadAvailability = "read:availability"
	permReadBookings     = "read:bookings"
	permWriteBookings    = "write:bookings"
	permVendor           = "vendor"
	permVerification     = "verification"
)

var (
	errPermissionDenied = errors.New("permission denied")
	errInvalidToken     = errors.New("invalid token")
	errTokenExpired     = errors.New("token expired")
)

// APIKeyAuth authenticates client applications by API key and applies a
// per-key rate limit.
type APIKeyAuth struct {
	cfg     config.APIConfig
	clients map[string]config.APIClientKey
	limiter *rateLimiter
}

func NewAPIKeyAuth(cfg config.APIConfig) *APIKeyAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &APIKeyAuth{cfg: cfg, clients: m, limiter: newRateLimiter(cfg.RateLimit)}
}

// Require returns middleware admitting clients holding perm. An empty
// permission list on a key allows everything.
func (a *APIKeyAuth) Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.cfg.Auth.Enabled {
				if err := a.checkAuth(r, perm); err != nil {
					statusCode := http.StatusUnauthorized
					if errors.Is(err, errPermissionDenied) {
						statusCode = http.StatusForbidden
					}
					writeError(w, statusCode, "api_key_rejected", err.Error())
					return
				}
			}

			if !a.limiter.allow(a.clientKey(r)) {
				writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (a *APIKeyAuth) headerNames() (apiKeyHeader, extraHeader string) {
	apiKeyHeader = strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if apiKeyHeader == "" {
		apiKeyHeader = apiKeyHeaderDefault
	}
	extraHeader = strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderExtra))
	if extraHeader == "" {
		extraHeader = apiExtraHeaderDefault
	}
	return apiKeyHeader, extraHeader
}

func (a *APIKeyAuth) checkAuth(r *http.Request, perm string) error {
	apiKeyHeader, extraHeader := a.headerNames()

	apiKey := strings.TrimSpace(r.Header.Get(apiKeyHeader))
	extra := strings.TrimSpace(r.Header.Get(extraHeader))
	if apiKey == "" || extra == "" {
		return fmt.Errorf("missing api key headers")
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return fmt.Errorf("invalid api key")
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return fmt.Errorf("invalid extra header")
	}

	return checkPermissions(client, perm)
}

func checkPermissions(client config.APIClientKey, required string) error {
	if required == "" || len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func (a *APIKeyAuth) clientKey(r *http.Request) string {
	apiKeyHeader, _ := a.headerNames()
	if apiKey := strings.TrimSpace(r.Header.Get(apiKeyHeader)); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

// ActorClaims are the claims of a user directory token.
type ActorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 actor tokens.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(cfg config.JWTConfig) *TokenVerifier {
	return &TokenVerifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

func (v *TokenVerifier) Parse(tokenString string) (models.Actor, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Actor{}, errTokenExpired
		}
		return models.Actor{}, errInvalidToken
	}

	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return models.Actor{}, errInvalidToken
	}

	role := models.Role(claims.Role)
	switch role {
	case models.RoleCustomer, models.RoleVendor, models.RoleAdmin:
	case "":
		role = models.RoleCustomer
	default:
		return models.Actor{}, errInvalidToken
	}
	return models.Actor{UserID: claims.Subject, Role: role}, nil
}

type contextKey string

const actorKey contextKey = "actor"

// RequireActor resolves the bearer token into a models.Actor on the request context.
func (v *TokenVerifier) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "missing authorization header")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid authorization header format")
			return
		}

		actor, err := v.Parse(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(actorKey).(models.Actor)
	return actor
}
