package membership

import (
	"errors"
	"os"
	"testing"

	tele "gopkg.in/telebot.v4"

	"partybot/core/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

type fakeChatAPI struct {
	chats       map[string]*tele.Chat // by @username
	roles       map[int64]tele.MemberStatus
	resolveErr  error
	memberErr   error
	resolves    int
	memberCalls int
}

func (f *fakeChatAPI) ChatByUsername(name string) (*tele.Chat, error) {
	f.resolves++
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	chat, ok := f.chats[name]
	if !ok {
		return nil, errors.New("chat not found")
	}
	return chat, nil
}

func (f *fakeChatAPI) ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error) {
	f.memberCalls++
	if f.memberErr != nil {
		return nil, f.memberErr
	}
	id, err := recipientID(user)
	if err != nil {
		return nil, err
	}
	role, ok := f.roles[id]
	if !ok {
		role = tele.Left
	}
	return &tele.ChatMember{Role: role}, nil
}

func recipientID(r tele.Recipient) (int64, error) {
	id, ok := r.(tele.ChatID)
	if !ok {
		return 0, errors.New("unexpected recipient type")
	}
	return int64(id), nil
}

func newAPI() *fakeChatAPI {
	return &fakeChatAPI{
		chats: map[string]*tele.Chat{"@party": {ID: -100123}},
		roles: make(map[int64]tele.MemberStatus),
	}
}

func TestIsMemberRoles(t *testing.T) {
	cases := []struct {
		role tele.MemberStatus
		want bool
	}{
		{tele.Member, true},
		{tele.Administrator, true},
		{tele.Creator, true},
		{tele.Left, false},
		{tele.Kicked, false},
		{tele.Restricted, false},
	}
	for _, tc := range cases {
		api := newAPI()
		api.roles[1] = tc.role
		c := NewChecker(api, Targets{Channel: "party"})
		if got := c.IsMember("party", 1); got != tc.want {
			t.Errorf("role %v: IsMember = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestIsMemberAcceptsAtPrefixAndBare(t *testing.T) {
	api := newAPI()
	api.roles[1] = tele.Member
	c := NewChecker(api, Targets{})

	if !c.IsMember("party", 1) {
		t.Fatal("bare username rejected")
	}
	if !c.IsMember("@party", 1) {
		t.Fatal("@-prefixed username rejected")
	}
}

func TestResolveCachesChat(t *testing.T) {
	api := newAPI()
	api.roles[1] = tele.Member
	c := NewChecker(api, Targets{})

	c.IsMember("party", 1)
	c.IsMember("party", 1)
	c.IsMember("party", 1)
	if api.resolves != 1 {
		t.Fatalf("ChatByUsername called %d times, want 1", api.resolves)
	}
}

func TestNumericRefSkipsResolution(t *testing.T) {
	api := newAPI()
	api.roles[1] = tele.Member
	c := NewChecker(api, Targets{})

	if !c.IsMember("-100123", 1) {
		t.Fatal("numeric ref rejected")
	}
	if api.resolves != 0 {
		t.Fatalf("ChatByUsername called %d times for numeric ref", api.resolves)
	}
}

func TestIsMemberFailsOpenToFalse(t *testing.T) {
	api := newAPI()
	api.resolveErr = errors.New("telegram down")
	c := NewChecker(api, Targets{})
	if c.IsMember("party", 1) {
		t.Fatal("resolve failure reported as member")
	}

	api = newAPI()
	api.memberErr = errors.New("telegram down")
	c = NewChecker(api, Targets{})
	if c.IsMember("party", 1) {
		t.Fatal("lookup failure reported as member")
	}
}

func TestIsMemberEmptyRef(t *testing.T) {
	c := NewChecker(newAPI(), Targets{})
	if c.IsMember("", 1) || c.IsMember("   ", 1) {
		t.Fatal("blank ref reported as member")
	}
}

func TestCheckUnconfiguredTargetsReadAsJoined(t *testing.T) {
	api := newAPI()
	api.roles[1] = tele.Member
	c := NewChecker(api, Targets{Channel: "party"})

	st := c.Check(1)
	if !st.Channel || !st.Channel2 || !st.Chat {
		t.Fatalf("status = %+v, want all joined", st)
	}
	if !st.All() {
		t.Fatal("All() = false with every target joined")
	}
}

func TestCheckMissingMembership(t *testing.T) {
	api := newAPI()
	api.chats["@afterparty"] = &tele.Chat{ID: -100456}
	c := NewChecker(api, Targets{Channel: "party", Chat: "afterparty"})

	st := c.Check(1) // user joined nothing
	if st.Channel || st.Chat {
		t.Fatalf("status = %+v, want configured targets false", st)
	}
	if !st.Channel2 {
		t.Fatal("unconfigured target should read as joined")
	}
	if st.All() {
		t.Fatal("All() = true with missing memberships")
	}
}
