package carousel

import (
	"context"
	"errors"
	"os"
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
	posters   map[int64]models.Poster
	deleteErr error
	deleted   []int64
}

func (f *fakeGateway) GetPoster(_ context.Context, id int64) (*models.Poster, error) {
	p, ok := f.posters[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := p
	return &cp, nil
}

func (f *fakeGateway) DeletePoster(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	delete(f.posters, id)
	return nil
}

type fakeMedia struct {
	removed   []string
	removeErr error
}

func (f *fakeMedia) IsLocal(ref string) bool { return len(ref) > 0 && ref[0] == '/' }

func (f *fakeMedia) Remove(webPath string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, webPath)
	return nil
}

func newService(cached ...models.Poster) (*Service, *fakeGateway, *fakeMedia, *session.Store) {
	gw := &fakeGateway{posters: make(map[int64]models.Poster)}
	for _, p := range cached {
		gw.posters[p.ID] = p
	}
	fm := &fakeMedia{}
	sessions := session.NewStore(nil)
	// storage order is newest first
	newestFirst := make([]models.Poster, 0, len(cached))
	for i := len(cached) - 1; i >= 0; i-- {
		newestFirst = append(newestFirst, cached[i])
	}
	sessions.SetPosters(newestFirst)
	return New(gw, fm, sessions), gw, fm, sessions
}

const viewer = int64(100)

func TestCurrentEmpty(t *testing.T) {
	svc, _, _, _ := newService()
	v := svc.Current(viewer)
	if !v.Empty {
		t.Fatalf("view = %+v, want empty", v)
	}
	if v.Footer() != "" {
		t.Fatalf("Footer() = %q, want empty", v.Footer())
	}
}

func TestCurrentStartsAtNewest(t *testing.T) {
	svc, _, _, _ := newService(
		models.Poster{ID: 1, Caption: "old"},
		models.Poster{ID: 2, Caption: "mid"},
		models.Poster{ID: 3, Caption: "new"},
	)

	v := svc.Current(viewer)
	if v.Empty || v.Poster.ID != 3 {
		t.Fatalf("view = %+v, want newest poster", v)
	}
	if !v.HasPrev || v.HasNext {
		t.Fatalf("nav flags = prev %v next %v, want prev only", v.HasPrev, v.HasNext)
	}
	if v.Footer() != "3 / 3" {
		t.Fatalf("Footer() = %q, want 3 / 3", v.Footer())
	}
}

func TestMoveAndNavFlags(t *testing.T) {
	svc, _, _, _ := newService(
		models.Poster{ID: 1},
		models.Poster{ID: 2},
		models.Poster{ID: 3},
	)

	v := svc.Move(viewer, -1)
	if v.Poster.ID != 2 || !v.HasPrev || !v.HasNext {
		t.Fatalf("middle view = %+v", v)
	}
	v = svc.Move(viewer, -1)
	if v.Poster.ID != 1 || v.HasPrev || !v.HasNext {
		t.Fatalf("oldest view = %+v", v)
	}
	v = svc.Move(viewer, -1) // clamped at oldest
	if v.Poster.ID != 1 {
		t.Fatalf("view past oldest = %+v", v)
	}
	v = svc.Move(viewer, +10) // clamped at newest
	if v.Poster.ID != 3 || v.HasNext {
		t.Fatalf("view past newest = %+v", v)
	}
}

func TestSinglePosterHasNoFooter(t *testing.T) {
	svc, _, _, _ := newService(models.Poster{ID: 1})
	v := svc.Current(viewer)
	if v.Footer() != "" {
		t.Fatalf("Footer() = %q, want empty for single poster", v.Footer())
	}
	if v.HasPrev || v.HasNext {
		t.Fatalf("nav flags = %+v, want none", v)
	}
}

func TestDeleteRemovesEverywhere(t *testing.T) {
	path := "/posters/poster_1.jpg"
	svc, gw, fm, sessions := newService(
		models.Poster{ID: 1, PhotoPath: &path},
		models.Poster{ID: 2},
	)

	remaining, err := svc.Delete(context.Background(), 1)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("remaining = %d, want 1", remaining)
	}
	if len(gw.deleted) != 1 || gw.deleted[0] != 1 {
		t.Fatalf("gateway deletions = %v", gw.deleted)
	}
	if len(fm.removed) != 1 || fm.removed[0] != path {
		t.Fatalf("media removals = %v", fm.removed)
	}
	if sessions.PosterCount() != 1 {
		t.Fatalf("cache size = %d, want 1", sessions.PosterCount())
	}
}

func TestDeletePhotoRemovalIsBestEffort(t *testing.T) {
	path := "/posters/poster_1.jpg"
	svc, _, fm, sessions := newService(models.Poster{ID: 1, PhotoPath: &path})
	fm.removeErr = errors.New("disk gone")

	if _, err := svc.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if sessions.PosterCount() != 0 {
		t.Fatal("poster not removed despite photo cleanup failure")
	}
}

func TestDeleteDatabaseFailureKeepsCache(t *testing.T) {
	svc, gw, _, sessions := newService(models.Poster{ID: 1})
	gw.deleteErr = errors.New("db down")

	if _, err := svc.Delete(context.Background(), 1); err == nil {
		t.Fatal("expected delete error")
	}
	if sessions.PosterCount() != 1 {
		t.Fatal("cache dropped the poster even though the row survived")
	}
}

func TestDeleteNeighborPromotedOnNextRender(t *testing.T) {
	svc, _, _, _ := newService(
		models.Poster{ID: 1},
		models.Poster{ID: 2},
		models.Poster{ID: 3},
	)

	if v := svc.Current(viewer); v.Poster.ID != 3 {
		t.Fatalf("setup view = %+v", v)
	}
	if _, err := svc.Delete(context.Background(), 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	v := svc.Current(viewer)
	if v.Empty || v.Poster.ID != 2 {
		t.Fatalf("view after delete = %+v, want neighbor", v)
	}
}
