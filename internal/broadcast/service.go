// Package broadcast delivers the weekly poster to every known user, runs the
// companion re-engagement job, and backs the manual admin broadcasts.
package broadcast

import (
	"context"
	"errors"
	"time"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"partybot/core/logger"
	"partybot/internal/models"
	"partybot/internal/session"
)

// DefaultMissThreshold is the number of consecutive missed weeks after which
// a re-engagement message goes out.
const DefaultMissThreshold = 3

// Sender delivers messages to individual users.
type Sender interface {
	SendPoster(userID int64, p models.Poster) error
	SendText(userID int64, text string) error
	SendPhoto(userID int64, fileID, caption string) error
}

// Gateway is the storage slice backing the re-engagement window check.
type Gateway interface {
	HasAttendanceSince(ctx context.Context, userID int64, since, until time.Time) (bool, error)
}

// Report tallies one broadcast run. Blocked counts users who blocked the
// bot; they are not failures.
type Report struct {
	Sent    int
	Blocked int
	Failed  int
}

// Service runs broadcasts over a snapshot of the known-user set.
type Service struct {
	sessions  *session.Store
	gw        Gateway
	send      Sender
	reengage  string
	threshold int
}

// Options configures the broadcast service.
type Options struct {
	ReengageText  string
	MissThreshold int
}

// New builds the broadcast service.
func New(sessions *session.Store, gw Gateway, send Sender, opts Options) *Service {
	threshold := opts.MissThreshold
	if threshold <= 0 {
		threshold = DefaultMissThreshold
	}
	return &Service{
		sessions:  sessions,
		gw:        gw,
		send:      send,
		reengage:  opts.ReengageText,
		threshold: threshold,
	}
}

// BroadcastLatest sends the newest active poster to every known user. The
// poster and the recipient list are snapshotted before the first send, so
// posters published mid-run wait for the next broadcast.
func (s *Service) BroadcastLatest(ctx context.Context) (Report, bool) {
	poster, ok := s.sessions.LatestPoster()
	if !ok {
		logger.SVCBroadcast.Info("broadcast.empty",
			slog.String("event", "broadcast"),
			slog.String("status", "skip"),
		)
		return Report{}, false
	}
	users := s.sessions.KnownUsers()

	var rep Report
	for _, id := range users {
		if ctx.Err() != nil {
			break
		}
		s.tally(&rep, id, s.send.SendPoster(id, poster))
	}
	logger.SVCBroadcast.Info("broadcast.done",
		slog.String("event", "broadcast"),
		slog.Int64("poster_id", poster.ID),
		slog.Int("sent", rep.Sent),
		slog.Int("blocked", rep.Blocked),
		slog.Int("failed", rep.Failed),
	)
	return rep, true
}

// BroadcastText sends free-form text to every known user.
func (s *Service) BroadcastText(ctx context.Context, text string) Report {
	var rep Report
	for _, id := range s.sessions.KnownUsers() {
		if ctx.Err() != nil {
			break
		}
		s.tally(&rep, id, s.send.SendText(id, text))
	}
	logger.SVCBroadcast.Info("broadcast.text_done",
		slog.String("event", "broadcast_text"),
		slog.Int("sent", rep.Sent),
		slog.Int("blocked", rep.Blocked),
		slog.Int("failed", rep.Failed),
	)
	return rep
}

// BroadcastPhoto sends a photo with caption to every known user.
func (s *Service) BroadcastPhoto(ctx context.Context, fileID, caption string) Report {
	var rep Report
	for _, id := range s.sessions.KnownUsers() {
		if ctx.Err() != nil {
			break
		}
		s.tally(&rep, id, s.send.SendPhoto(id, fileID, caption))
	}
	logger.SVCBroadcast.Info("broadcast.photo_done",
		slog.String("event", "broadcast_photo"),
		slog.Int("sent", rep.Sent),
		slog.Int("blocked", rep.Blocked),
		slog.Int("failed", rep.Failed),
	)
	return rep
}

// Reengage checks every known user's attendance for the preceding ISO week.
// A miss bumps the consecutive-miss counter; reaching the threshold sends a
// one-time nudge. Attendance resets the counter.
func (s *Service) Reengage(ctx context.Context, now time.Time) Report {
	since, until := PrevWeek(now)

	var rep Report
	for _, id := range s.sessions.KnownUsers() {
		if ctx.Err() != nil {
			break
		}
		attended, err := s.gw.HasAttendanceSince(ctx, id, since, until)
		if err != nil {
			logger.SVCBroadcast.Warn("reengage.check_failed",
				slog.String("event", "reengage"),
				slog.Int64("user_id", id),
				slog.String("err", err.Error()),
			)
			continue
		}
		if attended {
			s.sessions.ResetMissed(id)
			continue
		}
		missed := s.sessions.IncrementMissed(id)
		if missed != s.threshold {
			continue
		}
		logger.SVCBroadcast.Info("reengage.nudge",
			slog.String("event", "reengage"),
			slog.Int64("user_id", id),
			slog.Int("missed_in_row", missed),
		)
		s.tally(&rep, id, s.send.SendText(id, s.reengage))
	}
	return rep
}

func (s *Service) tally(rep *Report, userID int64, err error) {
	switch {
	case err == nil:
		rep.Sent++
	case errors.Is(err, tele.ErrBlockedByUser):
		rep.Blocked++
	default:
		rep.Failed++
		logger.SVCBroadcast.Warn("broadcast.send_failed",
			slog.String("event", "send"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

// PrevWeek returns the [monday, next monday) window of the ISO week
// immediately before the one containing now.
func PrevWeek(now time.Time) (time.Time, time.Time) {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -daysSinceMonday)
	return monday.AddDate(0, 0, -7), monday
}
