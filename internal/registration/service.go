// Package registration drives the multi-step profile dialogue:
// name, then gender, then age. Completion is derived from the stored
// profile, so the flow resumes at the first missing field after a restart
// and a finished user is simply welcomed back.
package registration

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"log/slog"

	"partybot/core/logger"
	tghelpers "partybot/core/telegram/helpers"
	"partybot/internal/models"
	"partybot/internal/session"
	"partybot/internal/storage"
)

// Age bounds accepted by the dialogue.
const (
	MinAge = 14
	MaxAge = 100
)

// Gateway is the storage slice the dialogue needs.
type Gateway interface {
	GetUser(ctx context.Context, tgID int64) (*models.User, error)
	UpsertUser(ctx context.Context, tgID int64, patch storage.UserPatch) error
}

// Prompt tells the handler what to ask next.
type Prompt int

const (
	// PromptNone means the dialogue produced no further question.
	PromptNone Prompt = iota
	// PromptName asks for the user's name.
	PromptName
	// PromptGender shows the gender buttons.
	PromptGender
	// PromptAge asks for the user's age.
	PromptAge
	// PromptBadAge re-asks after an invalid age.
	PromptBadAge
	// PromptDone confirms a completed registration.
	PromptDone
	// PromptWelcomeBack greets an already registered user.
	PromptWelcomeBack
)

// Result is the outcome of one dialogue step.
type Result struct {
	Prompt  Prompt
	Profile *models.User
}

// Service owns the registration flow. Persistence failures are logged and
// the in-memory step still advances, so a storage hiccup never traps the
// user mid-dialogue.
type Service struct {
	gw       Gateway
	sessions *session.Store
}

// New builds the registration service.
func New(gw Gateway, sessions *session.Store) *Service {
	return &Service{gw: gw, sessions: sessions}
}

// Begin handles /start: records the user, then resumes at the first missing
// profile field or welcomes a completed profile back.
func (s *Service) Begin(ctx context.Context, userID int64, username string) Result {
	s.sessions.AddKnownUser(userID)
	s.upsert(ctx, userID, storage.UserPatch{Username: optional(username)})

	u, err := tghelpers.CurrentUser[*models.User](ctx, s.gw, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.SVCUsers.Warn("registration.load_failed",
			slog.String("event", "load"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}

	if u.Registered() {
		s.sessions.ClearRegStep(userID)
		return Result{Prompt: PromptWelcomeBack, Profile: u}
	}

	step, prompt := resumePoint(u)
	s.sessions.SetRegStep(userID, step)
	logger.SVCUsers.Info("registration.begin",
		slog.String("event", "begin"),
		slog.Int64("user_id", userID),
		slog.String("reg_step", step.String()),
	)
	return Result{Prompt: prompt, Profile: u}
}

// SubmitName stores the trimmed name and advances to gender.
func (s *Service) SubmitName(ctx context.Context, userID int64, text string) Result {
	name := strings.TrimSpace(text)
	if name == "" {
		return Result{Prompt: PromptName}
	}
	s.upsert(ctx, userID, storage.UserPatch{Name: &name})
	s.sessions.SetRegStep(userID, session.RegGender)
	return Result{Prompt: PromptGender}
}

// SubmitGender stores the chosen gender and advances to age. An unexpected
// value re-shows the buttons.
func (s *Service) SubmitGender(ctx context.Context, userID int64, gender string) Result {
	if !models.ValidGender(gender) {
		return Result{Prompt: PromptGender}
	}
	s.upsert(ctx, userID, storage.UserPatch{Gender: &gender})
	s.sessions.SetRegStep(userID, session.RegAge)
	return Result{Prompt: PromptAge}
}

// SubmitAge validates the age, completes the profile and clears the step
// marker. Invalid input re-prompts without advancing.
func (s *Service) SubmitAge(ctx context.Context, userID int64, text string) Result {
	age, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || age < MinAge || age > MaxAge {
		return Result{Prompt: PromptBadAge}
	}
	s.upsert(ctx, userID, storage.UserPatch{Age: &age})
	s.sessions.ClearRegStep(userID)

	u, gerr := tghelpers.CurrentUser[*models.User](ctx, s.gw, userID)
	if gerr != nil {
		u = nil
	}
	logger.SVCUsers.Info("registration.done",
		slog.String("event", "done"),
		slog.Int64("user_id", userID),
	)
	return Result{Prompt: PromptDone, Profile: u}
}

// Registered reports whether the stored profile is complete. Storage errors
// read as "not registered" so gated surfaces redirect instead of failing.
func (s *Service) Registered(ctx context.Context, userID int64) bool {
	u, err := tghelpers.CurrentUser[*models.User](ctx, s.gw, userID)
	if err != nil {
		return false
	}
	return u.Registered()
}

func (s *Service) upsert(ctx context.Context, userID int64, patch storage.UserPatch) {
	if err := s.gw.UpsertUser(ctx, userID, patch); err != nil {
		logger.SVCUsers.Warn("registration.persist_failed",
			slog.String("event", "persist"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

func resumePoint(u *models.User) (session.RegStep, Prompt) {
	switch {
	case u == nil || u.Name == nil || *u.Name == "":
		return session.RegName, PromptName
	case u.Gender == nil || *u.Gender == "":
		return session.RegGender, PromptGender
	default:
		return session.RegAge, PromptAge
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
