package session

import (
	"sync"

	"partybot/internal/models"
)

// Store is the process-wide session state container.
type Store struct {
	mu      sync.RWMutex
	users   map[int64]*userState
	posters []models.Poster // oldest -> newest
	admins  map[int64]struct{}
	known   map[int64]struct{}
}

// NewStore creates an empty store seeded with the configured admin ids.
func NewStore(seedAdmins []int64) *Store {
	s := &Store{
		users:  make(map[int64]*userState),
		admins: make(map[int64]struct{}, len(seedAdmins)),
		known:  make(map[int64]struct{}),
	}
	for _, id := range seedAdmins {
		if id != 0 {
			s.admins[id] = struct{}{}
		}
	}
	return s
}

func (s *Store) user(id int64) *userState {
	u, ok := s.users[id]
	if !ok {
		u = &userState{}
		s.users[id] = u
	}
	return u
}

// RegStep returns the user's current registration step.
func (s *Store) RegStep(id int64) RegStep {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return u.regStep
	}
	return RegNone
}

// SetRegStep moves the user to the given registration step.
func (s *Store) SetRegStep(id int64, step RegStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(id).regStep = step
}

// ClearRegStep drops any registration step marker.
func (s *Store) ClearRegStep(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.regStep = RegNone
	}
}

// BeginDraft starts a fresh poster draft for the admin, silently discarding
// any abandoned one.
func (s *Store) BeginDraft(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(id).draft = &Draft{Step: DraftPhoto}
}

// Draft returns a copy of the admin's draft, if any.
func (s *Store) Draft(id int64) (Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok && u.draft != nil {
		return *u.draft, true
	}
	return Draft{}, false
}

// UpdateDraft mutates the draft in place under the store lock. It reports
// false when no draft exists.
func (s *Store) UpdateDraft(id int64, fn func(*Draft)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.draft == nil {
		return false
	}
	fn(u.draft)
	return true
}

// ClearDraft discards the admin's draft.
func (s *Store) ClearDraft(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.draft = nil
	}
}

// Pending returns the awaited free-form input for the user.
func (s *Store) Pending(id int64) Pending {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return u.pending
	}
	return Pending{}
}

// SetPending records which free-form input the bot expects next.
func (s *Store) SetPending(id int64, p Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(id).pending = p
}

// ClearPending drops the awaited-input marker.
func (s *Store) ClearPending(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.pending = Pending{}
	}
}

// InFlow reports whether the user is mid-dialogue (registration, draft or
// pending input) and plain text should be routed to the flow manager.
func (s *Store) InFlow(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return false
	}
	return u.regStep != RegNone || u.draft != nil || u.pending.Kind != PendingNone
}

// SetPosters replaces the poster cache. Input may be in any order sorted by
// recency; the cache is kept oldest to newest so the newest poster is last.
func (s *Store) SetPosters(newestFirst []models.Poster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posters = make([]models.Poster, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		s.posters = append(s.posters, newestFirst[i])
	}
}

// Posters returns a snapshot of the cache, oldest to newest.
func (s *Store) Posters() []models.Poster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Poster, len(s.posters))
	copy(out, s.posters)
	return out
}

// PosterCount returns the number of cached posters.
func (s *Store) PosterCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posters)
}

// LatestPoster returns the newest cached poster.
func (s *Store) LatestPoster() (models.Poster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.posters) == 0 {
		return models.Poster{}, false
	}
	return s.posters[len(s.posters)-1], true
}

// AppendPoster adds a freshly published poster and resets every user's
// carousel position to it. Both happen under one lock so no reader observes
// the new poster with a stale position.
func (s *Store) AppendPoster(p models.Poster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posters = append(s.posters, p)
	for _, u := range s.users {
		u.hasCarousel = false
	}
}

// RemovePoster drops the poster from the cache. Positions are not touched
// here; they are clamped on the next render.
func (s *Store) RemovePoster(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posters {
		if p.ID == id {
			s.posters = append(s.posters[:i], s.posters[i+1:]...)
			return true
		}
	}
	return false
}

// UpdatePoster replaces the cached copy of the poster in place.
func (s *Store) UpdatePoster(p models.Poster) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posters {
		if s.posters[i].ID == p.ID {
			s.posters[i] = p
			return true
		}
	}
	return false
}

// CarouselIndex returns the user's poster position clamped to the current
// cache; users without a position land on the newest poster. The second
// return is false when the cache is empty.
func (s *Store) CarouselIndex(id int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.posters)
	if n == 0 {
		return 0, false
	}
	u := s.user(id)
	if !u.hasCarousel {
		u.carouselIdx = n - 1
		u.hasCarousel = true
	}
	u.carouselIdx = clamp(u.carouselIdx, 0, n-1)
	return u.carouselIdx, true
}

// ShiftCarousel moves the user's position by delta, clamped to the cache.
func (s *Store) ShiftCarousel(id int64, delta int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.posters)
	if n == 0 {
		return 0, false
	}
	u := s.user(id)
	if !u.hasCarousel {
		u.carouselIdx = n - 1
		u.hasCarousel = true
	}
	u.carouselIdx = clamp(u.carouselIdx+delta, 0, n-1)
	return u.carouselIdx, true
}

// IsAdmin reports whether the user is currently an administrator.
func (s *Store) IsAdmin(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[id]
	return ok
}

// AddAdmin promotes the user at runtime.
func (s *Store) AddAdmin(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[id] = struct{}{}
}

// AddKnownUser records a user that has talked to the bot.
func (s *Store) AddKnownUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[id] = struct{}{}
}

// SetKnownUsers replaces the known-user set, used at startup.
func (s *Store) SetKnownUsers(ids []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s.known[id] = struct{}{}
	}
}

// KnownUsers returns a snapshot of every known user id.
func (s *Store) KnownUsers() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.known))
	for id := range s.known {
		out = append(out, id)
	}
	return out
}

// KnownUserCount returns the size of the known-user set.
func (s *Store) KnownUserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.known)
}

// IncrementMissed bumps the user's consecutive-miss counter and returns the
// new value.
func (s *Store) IncrementMissed(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(id)
	u.missedInRow++
	return u.missedInRow
}

// ResetMissed clears the consecutive-miss counter, typically after an
// attendance mark.
func (s *Store) ResetMissed(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.missedInRow = 0
	}
}

// MissedInRow returns the current consecutive-miss counter.
func (s *Store) MissedInRow(id int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return u.missedInRow
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
