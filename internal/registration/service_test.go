package registration

import (
	"context"
	"errors"
	"os"
	"testing"

	"partybot/core/logger"
	"partybot/internal/models"
	"partybot/internal/session"
	"partybot/internal/storage"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

// fakeGateway keeps user rows in memory and applies patches the way the
// database does: nil patch fields leave the stored value untouched.
type fakeGateway struct {
	users     map[int64]*models.User
	upsertErr error
	getErr    error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{users: make(map[int64]*models.User)}
}

func (f *fakeGateway) GetUser(_ context.Context, tgID int64) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[tgID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeGateway) UpsertUser(_ context.Context, tgID int64, patch storage.UserPatch) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	u, ok := f.users[tgID]
	if !ok {
		u = &models.User{TelegramID: tgID}
		f.users[tgID] = u
	}
	if patch.Name != nil {
		v := *patch.Name
		u.Name = &v
	}
	if patch.Gender != nil {
		v := *patch.Gender
		u.Gender = &v
	}
	if patch.Age != nil {
		v := *patch.Age
		u.Age = &v
	}
	if patch.Username != nil {
		v := *patch.Username
		u.Username = &v
	}
	return nil
}

func newService(gw Gateway) (*Service, *session.Store) {
	sessions := session.NewStore(nil)
	return New(gw, sessions), sessions
}

func TestBeginNewUser(t *testing.T) {
	gw := newFakeGateway()
	svc, sessions := newService(gw)

	res := svc.Begin(context.Background(), 1, "ann")
	if res.Prompt != PromptName {
		t.Fatalf("Prompt = %v, want PromptName", res.Prompt)
	}
	if got := sessions.RegStep(1); got != session.RegName {
		t.Fatalf("RegStep = %v, want RegName", got)
	}
	if sessions.KnownUserCount() != 1 {
		t.Fatal("user not recorded as known")
	}
	u := gw.users[1]
	if u == nil || u.Username == nil || *u.Username != "ann" {
		t.Fatalf("username not persisted: %+v", u)
	}
}

func TestFullFlow(t *testing.T) {
	gw := newFakeGateway()
	svc, sessions := newService(gw)
	ctx := context.Background()

	svc.Begin(ctx, 1, "ann")

	if res := svc.SubmitName(ctx, 1, "  Ann  "); res.Prompt != PromptGender {
		t.Fatalf("SubmitName prompt = %v, want PromptGender", res.Prompt)
	}
	if got := *gw.users[1].Name; got != "Ann" {
		t.Fatalf("stored name = %q, want trimmed", got)
	}

	if res := svc.SubmitGender(ctx, 1, models.GenderFemale); res.Prompt != PromptAge {
		t.Fatalf("SubmitGender prompt = %v, want PromptAge", res.Prompt)
	}

	res := svc.SubmitAge(ctx, 1, "23")
	if res.Prompt != PromptDone {
		t.Fatalf("SubmitAge prompt = %v, want PromptDone", res.Prompt)
	}
	if res.Profile == nil || !res.Profile.Registered() {
		t.Fatalf("profile not complete: %+v", res.Profile)
	}
	if got := sessions.RegStep(1); got != session.RegNone {
		t.Fatalf("RegStep after completion = %v, want RegNone", got)
	}
}

func TestBeginResumesAtFirstMissingField(t *testing.T) {
	name := "Ann"
	gender := models.GenderFemale

	cases := []struct {
		desc string
		user *models.User
		step session.RegStep
		want Prompt
	}{
		{"name missing", &models.User{TelegramID: 1}, session.RegName, PromptName},
		{"gender missing", &models.User{TelegramID: 1, Name: &name}, session.RegGender, PromptGender},
		{"age missing", &models.User{TelegramID: 1, Name: &name, Gender: &gender}, session.RegAge, PromptAge},
	}
	for _, tc := range cases {
		gw := newFakeGateway()
		gw.users[1] = tc.user
		svc, sessions := newService(gw)

		res := svc.Begin(context.Background(), 1, "")
		if res.Prompt != tc.want {
			t.Errorf("%s: Prompt = %v, want %v", tc.desc, res.Prompt, tc.want)
		}
		if got := sessions.RegStep(1); got != tc.step {
			t.Errorf("%s: RegStep = %v, want %v", tc.desc, got, tc.step)
		}
	}
}

func TestBeginWelcomesBackCompletedProfile(t *testing.T) {
	gw := newFakeGateway()
	name, gender, age := "Ann", models.GenderFemale, 23
	gw.users[1] = &models.User{TelegramID: 1, Name: &name, Gender: &gender, Age: &age}
	svc, sessions := newService(gw)
	sessions.SetRegStep(1, session.RegAge) // stale marker from a crash

	res := svc.Begin(context.Background(), 1, "ann")
	if res.Prompt != PromptWelcomeBack {
		t.Fatalf("Prompt = %v, want PromptWelcomeBack", res.Prompt)
	}
	if got := sessions.RegStep(1); got != session.RegNone {
		t.Fatalf("stale RegStep survived: %v", got)
	}
}

func TestSubmitAgeBounds(t *testing.T) {
	cases := []struct {
		input string
		want  Prompt
	}{
		{"13", PromptBadAge},
		{"14", PromptDone},
		{"100", PromptDone},
		{"101", PromptBadAge},
		{"abc", PromptBadAge},
		{"", PromptBadAge},
		{" 18 ", PromptDone},
	}
	for _, tc := range cases {
		gw := newFakeGateway()
		svc, sessions := newService(gw)
		sessions.SetRegStep(1, session.RegAge)

		res := svc.SubmitAge(context.Background(), 1, tc.input)
		if res.Prompt != tc.want {
			t.Errorf("SubmitAge(%q) = %v, want %v", tc.input, res.Prompt, tc.want)
		}
		if tc.want == PromptBadAge && sessions.RegStep(1) != session.RegAge {
			t.Errorf("SubmitAge(%q): step advanced on invalid input", tc.input)
		}
	}
}

func TestSubmitNameEmptyReprompts(t *testing.T) {
	gw := newFakeGateway()
	svc, sessions := newService(gw)
	sessions.SetRegStep(1, session.RegName)

	if res := svc.SubmitName(context.Background(), 1, "   "); res.Prompt != PromptName {
		t.Fatalf("Prompt = %v, want PromptName", res.Prompt)
	}
	if sessions.RegStep(1) != session.RegName {
		t.Fatal("step advanced on blank name")
	}
}

func TestSubmitGenderRejectsUnknownValue(t *testing.T) {
	gw := newFakeGateway()
	svc, sessions := newService(gw)
	sessions.SetRegStep(1, session.RegGender)

	if res := svc.SubmitGender(context.Background(), 1, "robot"); res.Prompt != PromptGender {
		t.Fatalf("Prompt = %v, want PromptGender", res.Prompt)
	}
	if sessions.RegStep(1) != session.RegGender {
		t.Fatal("step advanced on unknown gender")
	}
}

func TestPersistFailureStillAdvances(t *testing.T) {
	gw := newFakeGateway()
	gw.upsertErr = errors.New("db down")
	svc, sessions := newService(gw)
	sessions.SetRegStep(1, session.RegName)

	if res := svc.SubmitName(context.Background(), 1, "Ann"); res.Prompt != PromptGender {
		t.Fatalf("Prompt = %v, want PromptGender despite persist failure", res.Prompt)
	}
	if got := sessions.RegStep(1); got != session.RegGender {
		t.Fatalf("RegStep = %v, want RegGender", got)
	}
}

func TestRegisteredReadsAsFalseOnStorageError(t *testing.T) {
	gw := newFakeGateway()
	gw.getErr = errors.New("db down")
	svc, _ := newService(gw)

	if svc.Registered(context.Background(), 1) {
		t.Fatal("storage error should read as not registered")
	}
}
