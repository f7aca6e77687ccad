package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"partybot/internal/models"
	"partybot/internal/storage"
)

type posterView struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	Caption   string `json:"caption"`
	TicketURL string `json:"ticket_url,omitempty"`
	PhotoURL  string `json:"photo_url"`
	CreatedAt string `json:"created_at,omitempty"`
}

func toPosterView(p models.Poster) posterView {
	v := posterView{
		ID:       p.ID,
		Title:    p.Title(),
		Subtitle: p.Subtitle(),
		Caption:  p.Caption,
		PhotoURL: "/photo/" + p.FileID,
	}
	if p.PhotoPath != nil && *p.PhotoPath != "" {
		v.PhotoURL = *p.PhotoPath
	}
	if p.TicketURL != nil {
		v.TicketURL = *p.TicketURL
	}
	if p.CreatedAt != nil {
		v.CreatedAt = p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return v
}

func (s *server) index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "poster-api",
		"endpoints": []string{
			"/health",
			"/posters",
			"/posters/latest",
			"/posters/:id",
			"/stats",
			"/photo/:file_id",
		},
	})
}

func (s *server) health(c *fiber.Ctx) error {
	ctx, cancel := s.ctx(c)
	defer cancel()
	if err := s.gw.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "down",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *server) listPosters(c *fiber.Ctx) error {
	ctx, cancel := s.ctx(c)
	defer cancel()
	posters, err := s.gw.ListActivePosters(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load posters",
		})
	}
	views := make([]posterView, 0, len(posters))
	for _, p := range posters {
		views = append(views, toPosterView(p))
	}
	return c.JSON(fiber.Map{"posters": views, "count": len(views)})
}

func (s *server) latestPoster(c *fiber.Ctx) error {
	ctx, cancel := s.ctx(c)
	defer cancel()
	p, err := s.gw.LatestPoster(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no posters",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load poster",
		})
	}
	return c.JSON(toPosterView(*p))
}

func (s *server) getPoster(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid poster id",
		})
	}
	ctx, cancel := s.ctx(c)
	defer cancel()
	p, err := s.gw.GetPoster(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "poster not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load poster",
		})
	}
	return c.JSON(toPosterView(*p))
}

func (s *server) stats(c *fiber.Ctx) error {
	ctx, cancel := s.ctx(c)
	defer cancel()
	users, err := s.gw.UserStatistics(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load statistics",
		})
	}
	posters, err := s.gw.PosterStatistics(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load statistics",
		})
	}
	return c.JSON(fiber.Map{"users": users, "posters": posters})
}

func (s *server) photo(c *fiber.Ctx) error {
	ctx, cancel := s.ctx(c)
	defer cancel()
	img, err := s.photos.Fetch(ctx, c.Params("file_id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "photo not available",
		})
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	c.Set(fiber.HeaderContentType, img.ContentType)
	return c.Send(img.Data)
}
