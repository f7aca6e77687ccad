package middleware

import (
	"partybot/core/logger"
	tghelpers "partybot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Gate returns a middleware that invokes next only when pred reports true
// for the sender. Updates that fail the predicate are silently dropped,
// which covers stale inline buttons pressed after a flow was cancelled.
func Gate(name string, pred func(userID int64) bool) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			userID := c.Sender().ID
			ctx := tghelpers.BuildContext(c)
			if pred == nil || pred(userID) {
				logger.TG.LogAttrs(ctx, slog.LevelDebug, "gate.pass",
					slog.Int64("user_id", userID),
					slog.String("gate", name),
					slog.String("rid", logger.RIDFrom(ctx)),
				)
				return next(c)
			}
			logger.TG.LogAttrs(ctx, slog.LevelDebug, "gate.skip",
				slog.Int64("user_id", userID),
				slog.String("gate", name),
				slog.String("rid", logger.RIDFrom(ctx)),
			)
			return nil
		}
	}
}
