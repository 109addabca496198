package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/PixelProof/internal/pkg/cache"
	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
)

// CookieName carries the browser session id. Gallery state is keyed on it.
const CookieName = "session_id"

var sessionStore *session.Store

// sessionDB keeps sessions apart from the cache keys in DB 0.
const sessionDB = 1

// NewSessionStore creates the Redis backed store on the cache server.
func NewSessionStore() *session.Store {
	opts := cache.GetClient().Options()
	host, port := "localhost", 6379
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: opts.Password,
		Database: sessionDB,
	})

	sessionStore = session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   !env.IsDev(),
		Expiration:     env.GetEnvDuration("GALLERY_SESSION_TTL", 2*time.Hour),
		KeyLookup:      "cookie:" + CookieName,
	})

	return sessionStore
}

// SetSessionStore replaces the store, e.g. with an in-memory one in tests.
func SetSessionStore(store *session.Store) {
	sessionStore = store
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// ID returns the id of the visitor's session and issues the cookie when the
// session is new.
func ID(c *fiber.Ctx) (string, error) {
	if sessionStore == nil {
		return "", fmt.Errorf("session store not initialized")
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	// Save releases the session, read the id first
	id := sess.ID()
	if sess.Fresh() {
		if err := sess.Save(); err != nil {
			return "", fmt.Errorf("failed to save session: %w", err)
		}
	}
	return id, nil
}
