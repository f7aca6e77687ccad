// Package carousel selects which poster a user sees and handles poster
// deletion. It renders nothing itself; handlers turn the returned view into
// Telegram messages.
package carousel

import (
	"context"
	"fmt"

	"log/slog"

	"partybot/core/logger"
	"partybot/internal/models"
	"partybot/internal/session"
)

// Gateway is the storage slice needed for deletion.
type Gateway interface {
	GetPoster(ctx context.Context, id int64) (*models.Poster, error)
	DeletePoster(ctx context.Context, id int64) error
}

// Media removes stored photos; removal is best-effort.
type Media interface {
	IsLocal(ref string) bool
	Remove(webPath string) error
}

// View describes exactly one rendered carousel position.
type View struct {
	Empty   bool
	Poster  models.Poster
	Index   int
	Total   int
	HasPrev bool
	HasNext bool
}

// Footer returns the "N of M" position line, empty for single posters.
func (v View) Footer() string {
	if v.Empty || v.Total <= 1 {
		return ""
	}
	return fmt.Sprintf("%d / %d", v.Index+1, v.Total)
}

// Service presents the active-poster cache.
type Service struct {
	gw       Gateway
	media    Media
	sessions *session.Store
}

// New builds the carousel service.
func New(gw Gateway, m Media, sessions *session.Store) *Service {
	return &Service{gw: gw, media: m, sessions: sessions}
}

// Current returns the user's poster with the position clamped to the cache,
// which may have shrunk since the last render.
func (s *Service) Current(userID int64) View {
	idx, ok := s.sessions.CarouselIndex(userID)
	if !ok {
		return View{Empty: true}
	}
	return s.viewAt(userID, idx)
}

// Move shifts the user's position by delta and returns the new view.
func (s *Service) Move(userID int64, delta int) View {
	idx, ok := s.sessions.ShiftCarousel(userID, delta)
	if !ok {
		return View{Empty: true}
	}
	return s.viewAt(userID, idx)
}

func (s *Service) viewAt(userID int64, idx int) View {
	posters := s.sessions.Posters()
	n := len(posters)
	if n == 0 {
		return View{Empty: true}
	}
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return View{
		Poster:  posters[idx],
		Index:   idx,
		Total:   n,
		HasPrev: idx > 0,
		HasNext: idx < n-1,
	}
}

// Delete removes the poster everywhere: the stored photo (best-effort), the
// database row, and the cache. Positions fix themselves at the next render.
// The remaining poster count is returned for the confirmation message.
func (s *Service) Delete(ctx context.Context, posterID int64) (int, error) {
	p, err := s.gw.GetPoster(ctx, posterID)
	if err != nil {
		return s.sessions.PosterCount(), fmt.Errorf("carousel: load poster %d: %w", posterID, err)
	}

	if p.PhotoPath != nil && s.media.IsLocal(*p.PhotoPath) {
		if err := s.media.Remove(*p.PhotoPath); err != nil {
			logger.SVCPosters.Warn("poster.photo_remove_failed",
				slog.String("event", "delete"),
				slog.Int64("poster_id", posterID),
				slog.String("err", err.Error()),
			)
		}
	}

	if err := s.gw.DeletePoster(ctx, posterID); err != nil {
		return s.sessions.PosterCount(), fmt.Errorf("carousel: delete poster %d: %w", posterID, err)
	}

	s.sessions.RemovePoster(posterID)
	remaining := s.sessions.PosterCount()
	logger.SVCPosters.Info("poster.deleted",
		slog.String("event", "delete"),
		slog.Int64("poster_id", posterID),
		slog.Int("posters", remaining),
	)
	return remaining, nil
}
