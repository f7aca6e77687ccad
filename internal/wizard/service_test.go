package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"partybot/core/logger"
	"partybot/internal/models"
	"partybot/internal/session"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

type fakeGateway struct {
	nextID  int64
	created []models.Poster
	err     error
}

func (f *fakeGateway) CreatePoster(_ context.Context, fileID string, photoPath *string, caption string, ticketURL *string) (models.Poster, error) {
	if f.err != nil {
		return models.Poster{}, f.err
	}
	f.nextID++
	p := models.Poster{
		ID:        f.nextID,
		FileID:    fileID,
		PhotoPath: photoPath,
		Caption:   caption,
		TicketURL: ticketURL,
		IsActive:  true,
	}
	f.created = append(f.created, p)
	return p, nil
}

type fakeMedia struct {
	saved int
	err   error
}

func (f *fakeMedia) Save(_ context.Context, r io.Reader, ext string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.saved++
	return fmt.Sprintf("/posters/poster_%d.%s", f.saved, ext), nil
}

func photoOpener(data string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(data)), nil
	}
}

func newService() (*Service, *fakeGateway, *fakeMedia, *session.Store) {
	gw := &fakeGateway{}
	fm := &fakeMedia{}
	sessions := session.NewStore(nil)
	return New(gw, fm, sessions), gw, fm, sessions
}

const admin = int64(7)

func TestHappyPath(t *testing.T) {
	svc, gw, fm, sessions := newService()
	ctx := context.Background()

	svc.Begin(admin)
	if step, ok := svc.Step(admin); !ok || step != session.DraftPhoto {
		t.Fatalf("Step = %v, %v; want DraftPhoto", step, ok)
	}

	if err := svc.AttachPhoto(ctx, admin, "file-abc", photoOpener("jpegbytes")); err != nil {
		t.Fatalf("AttachPhoto: %v", err)
	}
	if fm.saved != 1 {
		t.Fatalf("media saved %d times, want 1", fm.saved)
	}
	if err := svc.SetCaption(admin, "Neon Night\nFriday 23:00"); err != nil {
		t.Fatalf("SetCaption: %v", err)
	}
	d, err := svc.SetLink(admin, " https://tickets.example.com/42 ")
	if err != nil {
		t.Fatalf("SetLink: %v", err)
	}
	if d.Step != session.DraftPreview || d.TicketURL != "https://tickets.example.com/42" {
		t.Fatalf("preview draft = %+v", d)
	}

	p, err := svc.Confirm(ctx, admin)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if p.FileID != "file-abc" || p.Caption != "Neon Night\nFriday 23:00" {
		t.Fatalf("published poster = %+v", p)
	}
	if p.TicketURL == nil || *p.TicketURL != "https://tickets.example.com/42" {
		t.Fatalf("ticket url not persisted: %+v", p)
	}
	if len(gw.created) != 1 {
		t.Fatalf("CreatePoster called %d times", len(gw.created))
	}
	if _, ok := svc.Draft(admin); ok {
		t.Fatal("draft survived Confirm")
	}
	latest, ok := sessions.LatestPoster()
	if !ok || latest.ID != p.ID {
		t.Fatalf("poster cache not updated: %+v, %v", latest, ok)
	}
}

func TestConfirmResetsCarouselToNewPoster(t *testing.T) {
	svc, _, _, sessions := newService()
	ctx := context.Background()

	sessions.SetPosters([]models.Poster{{ID: 2}, {ID: 1}})
	const viewer = int64(100)
	if idx, _ := sessions.ShiftCarousel(viewer, -1); idx != 0 {
		t.Fatalf("setup: idx = %d, want 0", idx)
	}

	svc.Begin(admin)
	if err := svc.AttachPhoto(ctx, admin, "f", photoOpener("x")); err != nil {
		t.Fatalf("AttachPhoto: %v", err)
	}
	if err := svc.SetCaption(admin, "new"); err != nil {
		t.Fatalf("SetCaption: %v", err)
	}
	if _, err := svc.SetLink(admin, ""); err != nil {
		t.Fatalf("SetLink: %v", err)
	}
	if _, err := svc.Confirm(ctx, admin); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	idx, ok := sessions.CarouselIndex(viewer)
	if !ok || idx != 2 {
		t.Fatalf("viewer position = %d, %v; want 2 (new poster)", idx, ok)
	}
}

func TestEmptyLinkMeansNoTicket(t *testing.T) {
	svc, gw, _, _ := newService()
	ctx := context.Background()

	svc.Begin(admin)
	if err := svc.AttachPhoto(ctx, admin, "f", photoOpener("x")); err != nil {
		t.Fatalf("AttachPhoto: %v", err)
	}
	if err := svc.SetCaption(admin, "party"); err != nil {
		t.Fatalf("SetCaption: %v", err)
	}
	if _, err := svc.SetLink(admin, "   "); err != nil {
		t.Fatalf("SetLink: %v", err)
	}
	p, err := svc.Confirm(ctx, admin)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if p.TicketURL != nil {
		t.Fatalf("TicketURL = %q, want nil", *p.TicketURL)
	}
	if gw.created[0].TicketURL != nil {
		t.Fatal("gateway received a ticket url for an empty link")
	}
}

func TestConfirmValidation(t *testing.T) {
	cases := []struct {
		desc  string
		setup func(svc *Service, ctx context.Context) error
		want  error
	}{
		{
			desc:  "no draft",
			setup: func(*Service, context.Context) error { return nil },
			want:  ErrNoDraft,
		},
		{
			desc: "no photo",
			setup: func(svc *Service, _ context.Context) error {
				svc.Begin(admin)
				return svc.SetCaption(admin, "party")
			},
			want: ErrNoPhoto,
		},
		{
			desc: "caption too long",
			setup: func(svc *Service, ctx context.Context) error {
				svc.Begin(admin)
				if err := svc.AttachPhoto(ctx, admin, "f", photoOpener("x")); err != nil {
					return err
				}
				return svc.SetCaption(admin, strings.Repeat("a", 1025))
			},
			want: ErrCaptionTooLong,
		},
		{
			desc: "bad ticket link",
			setup: func(svc *Service, ctx context.Context) error {
				svc.Begin(admin)
				if err := svc.AttachPhoto(ctx, admin, "f", photoOpener("x")); err != nil {
					return err
				}
				if err := svc.SetCaption(admin, "party"); err != nil {
					return err
				}
				_, err := svc.SetLink(admin, "not a url")
				return err
			},
			want: ErrBadTicketURL,
		},
	}
	for _, tc := range cases {
		svc, gw, _, _ := newService()
		ctx := context.Background()
		if err := tc.setup(svc, ctx); err != nil {
			t.Fatalf("%s: setup: %v", tc.desc, err)
		}
		if _, err := svc.Confirm(ctx, admin); !errors.Is(err, tc.want) {
			t.Errorf("%s: Confirm err = %v, want %v", tc.desc, err, tc.want)
		}
		if len(gw.created) != 0 {
			t.Errorf("%s: poster persisted despite validation failure", tc.desc)
		}
	}
}

func TestValidationFailureKeepsDraft(t *testing.T) {
	svc, _, _, _ := newService()
	ctx := context.Background()

	svc.Begin(admin)
	if err := svc.AttachPhoto(ctx, admin, "f", photoOpener("x")); err != nil {
		t.Fatalf("AttachPhoto: %v", err)
	}
	if err := svc.SetCaption(admin, strings.Repeat("a", 2000)); err != nil {
		t.Fatalf("SetCaption: %v", err)
	}
	if _, err := svc.SetLink(admin, ""); err != nil {
		t.Fatalf("SetLink: %v", err)
	}
	if _, err := svc.Confirm(ctx, admin); !errors.Is(err, ErrCaptionTooLong) {
		t.Fatalf("Confirm err = %v, want ErrCaptionTooLong", err)
	}

	d, ok := svc.Draft(admin)
	if !ok || d.Step != session.DraftPreview {
		t.Fatalf("draft after failed confirm = %+v, %v; want preview", d, ok)
	}
}

func TestPersistFailureKeepsDraftForRetry(t *testing.T) {
	svc, gw, _, sessions := newService()
	gw.err = errors.New("db down")
	ctx := context.Background()

	svc.Begin(admin)
	if err := svc.AttachPhoto(ctx, admin, "f", photoOpener("x")); err != nil {
		t.Fatalf("AttachPhoto: %v", err)
	}
	if err := svc.SetCaption(admin, "party"); err != nil {
		t.Fatalf("SetCaption: %v", err)
	}
	if _, err := svc.SetLink(admin, ""); err != nil {
		t.Fatalf("SetLink: %v", err)
	}

	if _, err := svc.Confirm(ctx, admin); err == nil {
		t.Fatal("expected persist error")
	}
	if _, ok := svc.Draft(admin); !ok {
		t.Fatal("draft dropped on persist failure")
	}
	if sessions.PosterCount() != 0 {
		t.Fatal("poster cached despite persist failure")
	}
}

func TestAttachPhotoDownloadFailureKeepsStep(t *testing.T) {
	svc, _, _, _ := newService()
	svc.Begin(admin)

	err := svc.AttachPhoto(context.Background(), admin, "f", func() (io.ReadCloser, error) {
		return nil, errors.New("telegram timeout")
	})
	if err == nil {
		t.Fatal("expected download error")
	}
	if step, ok := svc.Step(admin); !ok || step != session.DraftPhoto {
		t.Fatalf("Step = %v, %v; want DraftPhoto retained", step, ok)
	}
}

func TestBeginDiscardsPreviousDraft(t *testing.T) {
	svc, _, _, _ := newService()
	ctx := context.Background()

	svc.Begin(admin)
	if err := svc.AttachPhoto(ctx, admin, "old-file", photoOpener("x")); err != nil {
		t.Fatalf("AttachPhoto: %v", err)
	}

	svc.Begin(admin)
	d, ok := svc.Draft(admin)
	if !ok || d.FileID != "" || d.Step != session.DraftPhoto {
		t.Fatalf("second Begin kept old draft: %+v, %v", d, ok)
	}
}

func TestValidTicketURL(t *testing.T) {
	svc, _, _, _ := newService()

	cases := []struct {
		link string
		want bool
	}{
		{"https://example.com/tickets", true},
		{"http://example.com", true},
		{"http://", false},
		{"https://", false},
		{"example.com/tickets", false},
		{"ftp://example.com", false},
		{"see you there", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := svc.ValidTicketURL(tc.link); got != tc.want {
			t.Errorf("ValidTicketURL(%q) = %v, want %v", tc.link, got, tc.want)
		}
	}
}

func TestCancel(t *testing.T) {
	svc, _, _, _ := newService()
	svc.Begin(admin)
	svc.Cancel(admin)
	if _, ok := svc.Draft(admin); ok {
		t.Fatal("draft survived Cancel")
	}
	svc.Cancel(admin) // no draft, no panic
}
