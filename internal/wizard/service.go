// Package wizard drives the admin poster draft: photo, caption, ticket link,
// preview, then confirm or cancel. One draft per admin; starting over
// discards the previous one.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"log/slog"

	"github.com/go-playground/validator/v10"

	"partybot/core/logger"
	"partybot/internal/models"
	"partybot/internal/session"
)

// MaxCaptionLen matches the Telegram photo caption limit.
const MaxCaptionLen = 1024

// Validation failures surfaced to the admin at confirmation time.
var (
	ErrNoDraft        = errors.New("wizard: no draft in progress")
	ErrNoPhoto        = errors.New("wizard: draft has no photo")
	ErrCaptionTooLong = errors.New("wizard: caption exceeds 1024 characters")
	ErrBadTicketURL   = errors.New("wizard: ticket link is not a valid http(s) url")
)

// Gateway persists confirmed drafts.
type Gateway interface {
	CreatePoster(ctx context.Context, fileID string, photoPath *string, caption string, ticketURL *string) (models.Poster, error)
}

// Media stores the downloaded poster photo durably.
type Media interface {
	Save(ctx context.Context, r io.Reader, ext string) (string, error)
}

type draftInput struct {
	FileID    string `validate:"required"`
	Caption   string `validate:"max=1024"`
	TicketURL string `validate:"omitempty,http_url"`
}

// Service owns the draft lifecycle.
type Service struct {
	gw       Gateway
	media    Media
	sessions *session.Store
	validate *validator.Validate
}

// New builds the wizard service.
func New(gw Gateway, m Media, sessions *session.Store) *Service {
	return &Service{
		gw:       gw,
		media:    m,
		sessions: sessions,
		validate: validator.New(),
	}
}

// Begin starts a fresh draft at the photo step.
func (s *Service) Begin(adminID int64) {
	s.sessions.BeginDraft(adminID)
	logger.SVCPosters.Info("draft.begin",
		slog.String("event", "draft_begin"),
		slog.Int64("user_id", adminID),
	)
}

// Step returns the draft's current step.
func (s *Service) Step(adminID int64) (session.DraftStep, bool) {
	d, ok := s.sessions.Draft(adminID)
	if !ok {
		return 0, false
	}
	return d.Step, true
}

// Draft returns a copy of the admin's draft.
func (s *Service) Draft(adminID int64) (session.Draft, bool) {
	return s.sessions.Draft(adminID)
}

// AttachPhoto downloads the photo once, stores it durably, and advances to
// the caption step. A download failure keeps the draft at the photo step so
// the admin can resend.
func (s *Service) AttachPhoto(ctx context.Context, adminID int64, fileID string, open func() (io.ReadCloser, error)) error {
	if _, ok := s.sessions.Draft(adminID); !ok {
		return ErrNoDraft
	}

	rc, err := open()
	if err != nil {
		return fmt.Errorf("wizard: download photo: %w", err)
	}
	defer rc.Close()

	webPath, err := s.media.Save(ctx, rc, "jpg")
	if err != nil {
		return fmt.Errorf("wizard: store photo: %w", err)
	}

	s.sessions.UpdateDraft(adminID, func(d *session.Draft) {
		d.FileID = fileID
		d.PhotoPath = webPath
		d.Step = session.DraftCaption
	})
	logger.SVCPosters.Info("draft.photo",
		slog.String("event", "draft_photo"),
		slog.Int64("user_id", adminID),
		slog.String("path", webPath),
	)
	return nil
}

// SetCaption accepts any text and advances to the link step. Length is
// checked at confirmation, not here.
func (s *Service) SetCaption(adminID int64, text string) error {
	ok := s.sessions.UpdateDraft(adminID, func(d *session.Draft) {
		d.Caption = text
		d.Step = session.DraftLink
	})
	if !ok {
		return ErrNoDraft
	}
	return nil
}

// SetLink records the ticket link and advances to preview. Empty or
// whitespace input means "no ticket link". The returned draft feeds the
// preview render.
func (s *Service) SetLink(adminID int64, text string) (session.Draft, error) {
	ok := s.sessions.UpdateDraft(adminID, func(d *session.Draft) {
		d.TicketURL = strings.TrimSpace(text)
		d.Step = session.DraftPreview
	})
	if !ok {
		return session.Draft{}, ErrNoDraft
	}
	d, _ := s.sessions.Draft(adminID)
	return d, nil
}

// Confirm re-validates the draft and publishes it: persist, append to the
// poster cache, reset every carousel position to the new poster, clear the
// draft. Validation failures keep the draft in preview; persistence
// failures are surfaced for a manual retry.
func (s *Service) Confirm(ctx context.Context, adminID int64) (models.Poster, error) {
	d, ok := s.sessions.Draft(adminID)
	if !ok {
		return models.Poster{}, ErrNoDraft
	}
	if err := s.check(d); err != nil {
		return models.Poster{}, err
	}

	var photoPath, ticketURL *string
	if d.PhotoPath != "" {
		photoPath = &d.PhotoPath
	}
	if d.TicketURL != "" {
		ticketURL = &d.TicketURL
	}

	p, err := s.gw.CreatePoster(ctx, d.FileID, photoPath, d.Caption, ticketURL)
	if err != nil {
		logger.SVCPosters.Error("draft.persist_failed",
			slog.String("event", "draft_confirm"),
			slog.Int64("user_id", adminID),
			slog.String("err", err.Error()),
		)
		return models.Poster{}, fmt.Errorf("wizard: persist poster: %w", err)
	}

	s.sessions.AppendPoster(p)
	s.sessions.ClearDraft(adminID)
	logger.SVCPosters.Info("draft.confirmed",
		slog.String("event", "draft_confirm"),
		slog.Int64("user_id", adminID),
		slog.Int64("poster_id", p.ID),
	)
	return p, nil
}

// ValidTicketURL reports whether a link would pass draft validation. The
// post-publish ticket link edit shares this check so both paths accept the
// same inputs.
func (s *Service) ValidTicketURL(link string) bool {
	return s.validate.Var(link, "required,http_url") == nil
}

// Cancel discards the draft without side effects.
func (s *Service) Cancel(adminID int64) {
	s.sessions.ClearDraft(adminID)
	logger.SVCPosters.Info("draft.cancelled",
		slog.String("event", "draft_cancel"),
		slog.Int64("user_id", adminID),
	)
}

func (s *Service) check(d session.Draft) error {
	in := draftInput{
		FileID:    d.FileID,
		Caption:   d.Caption,
		TicketURL: d.TicketURL,
	}
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "FileID":
			return ErrNoPhoto
		case "Caption":
			return ErrCaptionTooLong
		case "TicketURL":
			return ErrBadTicketURL
		}
	}
	return fmt.Errorf("wizard: validate draft: %w", err)
}
