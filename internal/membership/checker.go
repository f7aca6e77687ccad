// Package membership answers "is this user subscribed" questions against the
// configured channels and chat via the Telegram getChatMember API.
package membership

import (
	"strconv"
	"strings"
	"sync"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"partybot/core/logger"
)

// ChatAPI is the slice of the bot API the checker needs.
type ChatAPI interface {
	ChatByUsername(name string) (*tele.Chat, error)
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// Targets names the community surfaces a user is expected to join.
type Targets struct {
	Channel  string
	Channel2 string
	Chat     string
}

// Status reports per-target membership for one user. Unconfigured targets
// read as joined so they never block anyone.
type Status struct {
	Channel  bool
	Channel2 bool
	Chat     bool
}

// All reports whether every target is joined.
func (s Status) All() bool {
	return s.Channel && s.Channel2 && s.Chat
}

// Checker resolves channel references once and caches the chats.
// Any API failure fails open to "not a member" with a warning; membership is
// advisory, never a crash source.
type Checker struct {
	api     ChatAPI
	targets Targets

	mu    sync.Mutex
	chats map[string]*tele.Chat
}

// NewChecker builds a checker over the bot API.
func NewChecker(api ChatAPI, targets Targets) *Checker {
	return &Checker{
		api:     api,
		targets: targets,
		chats:   make(map[string]*tele.Chat),
	}
}

// Targets returns the configured membership targets.
func (c *Checker) Targets() Targets {
	return c.targets
}

// IsMember reports whether the user belongs to the referenced channel or
// chat. member, administrator and creator count; anything else, including
// lookup errors, does not.
func (c *Checker) IsMember(ref string, userID int64) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || c.api == nil {
		return false
	}
	chat, err := c.resolve(ref)
	if err != nil {
		logger.SVCMembers.Warn("member.resolve_failed",
			slog.String("event", "resolve"),
			slog.String("channel", ref),
			slog.String("err", err.Error()),
		)
		return false
	}
	member, err := c.api.ChatMemberOf(chat, tele.ChatID(userID))
	if err != nil {
		logger.SVCMembers.Warn("member.check_failed",
			slog.String("event", "check"),
			slog.String("channel", ref),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return false
	}
	switch member.Role {
	case tele.Creator, tele.Administrator, tele.Member:
		return true
	}
	return false
}

// Check aggregates membership over every configured target.
func (c *Checker) Check(userID int64) Status {
	return Status{
		Channel:  c.targets.Channel == "" || c.IsMember(c.targets.Channel, userID),
		Channel2: c.targets.Channel2 == "" || c.IsMember(c.targets.Channel2, userID),
		Chat:     c.targets.Chat == "" || c.IsMember(c.targets.Chat, userID),
	}
}

func (c *Checker) resolve(ref string) (*tele.Chat, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return &tele.Chat{ID: id}, nil
	}
	c.mu.Lock()
	if chat, ok := c.chats[ref]; ok {
		c.mu.Unlock()
		return chat, nil
	}
	c.mu.Unlock()

	name := ref
	if !strings.HasPrefix(name, "@") {
		name = "@" + name
	}
	chat, err := c.api.ChatByUsername(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.chats[ref] = chat
	c.mu.Unlock()
	return chat, nil
}
