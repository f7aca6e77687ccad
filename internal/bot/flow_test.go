package bot

import (
	"context"
	"os"
	"sync"
	"testing"

	tele "gopkg.in/telebot.v4"

	"partybot/core/logger"
	"partybot/internal/models"
	"partybot/internal/registration"
	"partybot/internal/session"
	"partybot/internal/storage"
	"partybot/internal/wizard"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

// fakeCtx implements the slice of tele.Context the handlers touch; anything
// else panics through the embedded nil interface.
type fakeCtx struct {
	tele.Context
	user   *tele.User
	text   string
	data   map[string]any
	sent   []any
	toasts []*tele.CallbackResponse
}

func newFakeCtx(userID int64, text string) *fakeCtx {
	return &fakeCtx{
		user: &tele.User{ID: userID},
		text: text,
		data: map[string]any{},
	}
}

func (f *fakeCtx) Sender() *tele.User  { return f.user }
func (f *fakeCtx) Chat() *tele.Chat    { return &tele.Chat{ID: f.user.ID} }
func (f *fakeCtx) Text() string        { return f.text }
func (f *fakeCtx) Update() tele.Update { return tele.Update{} }
func (f *fakeCtx) Get(key string) any  { return f.data[key] }
func (f *fakeCtx) Set(key string, v any) {
	f.data[key] = v
}

func (f *fakeCtx) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func (f *fakeCtx) Respond(resp ...*tele.CallbackResponse) error {
	f.toasts = append(f.toasts, resp...)
	return nil
}

type fakeUserGateway struct {
	mu         sync.Mutex
	users      map[int64]*models.User
	nameWrites int
}

func (g *fakeUserGateway) GetUser(_ context.Context, tgID int64) (*models.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.users[tgID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (g *fakeUserGateway) UpsertUser(_ context.Context, tgID int64, patch storage.UserPatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.users[tgID]
	if !ok {
		u = &models.User{TelegramID: tgID}
		g.users[tgID] = u
	}
	if patch.Name != nil {
		u.Name = patch.Name
		g.nameWrites++
	}
	if patch.Gender != nil {
		u.Gender = patch.Gender
	}
	if patch.Age != nil {
		u.Age = patch.Age
	}
	if patch.Username != nil {
		u.Username = patch.Username
	}
	return nil
}

func newTestApp(admins ...int64) (*App, *fakeUserGateway) {
	gw := &fakeUserGateway{users: map[int64]*models.User{}}
	sessions := session.NewStore(admins)
	a := &App{
		cfg:      &Config{},
		sessions: sessions,
	}
	a.reg = registration.New(gw, sessions)
	a.wiz = wizard.New(nil, nil, sessions)
	return a, gw
}

// Two messages arriving back to back must be processed one at a time, so the
// second answer lands on the step the first one advanced to instead of both
// being taken as the same answer.
func TestQuickMessagesDoNotSkipSteps(t *testing.T) {
	a, gw := newTestApp()
	const uid int64 = 11

	a.sessions.SetRegStep(uid, session.RegName)

	var wg sync.WaitGroup
	for _, text := range []string{"Ann", "30"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			if err := a.handleFlowText(newFakeCtx(uid, text)); err != nil {
				t.Errorf("handleFlowText(%q): %v", text, err)
			}
		}(text)
	}
	wg.Wait()

	if gw.nameWrites != 1 {
		t.Fatalf("name persisted %d times, want 1", gw.nameWrites)
	}
	if step := a.sessions.RegStep(uid); step != session.RegGender {
		t.Fatalf("reg step = %v, want %v", step, session.RegGender)
	}
}

func TestGenderPressOutsideStepIgnored(t *testing.T) {
	a, gw := newTestApp()
	const uid int64 = 12

	c := newFakeCtx(uid, "")
	if err := a.onGender(c); err != nil {
		t.Fatalf("onGender: %v", err)
	}
	gw.mu.Lock()
	stored := len(gw.users)
	gw.mu.Unlock()
	if stored != 0 || len(c.sent) != 0 {
		t.Fatalf("stale gender press was handled: users=%d sent=%v", stored, c.sent)
	}
}
