// Package api exposes the read-only poster HTTP API: a stateless projection
// of the persistence gateway plus a Telegram photo proxy.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"

	"partybot/internal/models"
)

// Gateway is the storage slice the API reads from.
type Gateway interface {
	Ping(ctx context.Context) error
	ListActivePosters(ctx context.Context) ([]models.Poster, error)
	LatestPoster(ctx context.Context) (*models.Poster, error)
	GetPoster(ctx context.Context, id int64) (*models.Poster, error)
	UserStatistics(ctx context.Context) (models.UserStats, error)
	PosterStatistics(ctx context.Context) (models.PosterStats, error)
}

// Options configures the API application.
type Options struct {
	Gateway Gateway
	// Photos proxies Telegram-hosted images; optional.
	Photos *PhotoProxy
	// StaticDir serves stored poster photos under /posters/; optional.
	StaticDir string
	// RequestTimeout bounds gateway calls per request.
	RequestTimeout time.Duration
}

type server struct {
	gw      Gateway
	photos  *PhotoProxy
	timeout time.Duration
}

// NewApp assembles the fiber application with routes and middleware.
func NewApp(opts Options) *fiber.App {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &server{gw: opts.Gateway, photos: opts.Photos, timeout: timeout}

	app := fiber.New(fiber.Config{
		AppName:               "poster-api",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	app.Use(fiberlogger.New())

	app.Get("/", s.index)
	app.Get("/health", s.health)
	// Stored photo files live under the same /posters prefix as the JSON
	// routes; the static handler falls through on miss, so it must be
	// registered first.
	if opts.StaticDir != "" {
		app.Static("/posters", opts.StaticDir)
	}
	app.Get("/posters", s.listPosters)
	app.Get("/posters/latest", s.latestPoster)
	app.Get("/posters/:id", s.getPoster)
	app.Get("/stats", s.stats)
	if s.photos != nil {
		app.Get("/photo/:file_id", s.photo)
	}
	return app
}

func (s *server) ctx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), s.timeout)
}
