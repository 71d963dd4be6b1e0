package session

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/QBSync/internal/pkg/cache"
	"github.com/ManuelReschke/QBSync/internal/pkg/env"
)

// Session keys shared by the token store and the fetch controllers.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTokenExpiry  = "token_expiry"
	KeyRunID        = "run_id"
)

var sessionStore *session.Store

// NewSessionStore creates the session store. Sessions live in Redis unless
// SESSION_STORAGE=memory, which keeps them in process (single instance only).
func NewSessionStore() *session.Store {
	cfg := session.Config{
		CookieHTTPOnly: true,
		CookieSecure:   env.GetEnvBool("SESSION_COOKIE_SECURE", false),
		Expiration:     time.Duration(env.GetEnvInt("SESSION_EXPIRATION_HOURS", 1)) * time.Hour,
		KeyLookup:      "cookie:session_id",
	}

	if env.GetEnv("SESSION_STORAGE", "redis") != "memory" {
		cfg.Storage = newRedisStorage()
	}

	sessionStore = session.New(cfg)
	return sessionStore
}

func newRedisStorage() *redis.Storage {
	// Get Redis client configuration from existing cache setup
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	// Separate database for sessions; run state uses the cache database
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: env.GetEnvInt("SESSION_DB", 1),
		Reset:    false,
	})
}

func GetSessionStore() *session.Store {
	return sessionStore
}
