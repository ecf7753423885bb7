package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
	"github.com/unrolled/secure"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/admins"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/observability"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Actors  *ActorLoader
	Metrics *observability.Metrics
}

// ActorLoader resolves bearer tokens to acting admins. Token issuing and
// rotation live in the external auth layer; this side only reads the
// token-to-id mapping it maintains in Redis.
type ActorLoader struct {
	redis  *redis.Client
	admins admins.Repository
	prefix string
	logger *slog.Logger
}

// NewActorLoader constructs an ActorLoader.
func NewActorLoader(client *redis.Client, repo admins.Repository, prefix string, logger *slog.Logger) *ActorLoader {
	return &ActorLoader{redis: client, admins: repo, prefix: prefix, logger: logger}
}

// Middleware loads the acting admin into the request context when a valid
// bearer token is presented. Requests without a token pass through with no
// actor; route groups decide whether one is required.
func (l *ActorLoader) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := l.resolve(r.Context(), token)
		if err != nil {
			l.logger.Warn("actor resolution failed", slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}
		if actor != nil {
			r = r.WithContext(shared.ContextWithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

func (l *ActorLoader) resolve(ctx context.Context, token string) (*shared.Actor, error) {
	raw, err := l.redis.Get(ctx, l.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	admin, err := l.admins.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	// Suspended accounts keep their sessions but lose all access.
	if !admin.Active() {
		return nil, nil
	}
	return &shared.Actor{
		ID:     admin.ID,
		Name:   admin.Name,
		Role:   string(admin.Role),
		Status: string(admin.Status),
	}, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// MiddlewareStack installs the shared middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(120, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
	if cfg.Actors != nil {
		middlewares = append(middlewares, cfg.Actors.Middleware)
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			return cfg.Metrics.Middleware(next)
		})
	}
	return middlewares
}
