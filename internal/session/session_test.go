package session

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/blobbi/island/internal/effects"
	"github.com/blobbi/island/internal/errs"
	"github.com/blobbi/island/internal/event"
	"github.com/blobbi/island/internal/identity"
	"github.com/blobbi/island/internal/model"
	"github.com/blobbi/island/internal/provider"
	"github.com/blobbi/island/internal/status"
)

type fakeIdentity struct {
	pub      string
	loggedIn bool
}

var _ identity.Provider = (*fakeIdentity)(nil)

func (f *fakeIdentity) PubKey() (string, bool) { return f.pub, f.loggedIn }

func (f *fakeIdentity) Sign(ev *event.Event) error {
	ev.PubKey = f.pub
	id, err := ev.ComputeID()
	if err != nil {
		return err
	}
	ev.ID = id
	ev.Sig = "fake"
	return nil
}

type fakeProvider struct {
	queryOut   map[int][]event.Event
	queryErr   error
	published  []event.Event
	publishErr error
}

var _ provider.Provider = (*fakeProvider)(nil)

func (f *fakeProvider) QueryLatest(_ context.Context, kind int, _ string) ([]event.Event, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return append([]event.Event(nil), f.queryOut[kind]...), nil
}

func (f *fakeProvider) Publish(_ context.Context, ev event.Event) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, ev)
	return nil
}

func testBase() status.Base {
	return status.Base{
		Owner: &model.OwnerProfile{
			ID:    "profile",
			Coins: 25,
			Inventory: []model.InventoryEntry{
				{ItemID: "food_apple", Quantity: 2},
			},
		},
		Pets: []*model.PetState{{
			ID: "p1", Stage: model.StageBaby,
			Hunger: 80, Happiness: 50, Health: 50, Hygiene: 50, Energy: 50,
		}},
	}
}

func newTestService(prov *fakeProvider) (*ServiceImpl, *status.Store) {
	st := status.NewStore()
	st.SetBase(testBase())
	svc := New(&fakeIdentity{pub: "abc", loggedIn: true}, prov, st, effects.DefaultTuning(), zap.NewNop())
	return svc, st
}

func TestFeed_EndToEnd(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{}
	svc, st := newTestService(prov)
	ctx := context.Background()

	// "apple" resolves to the prefixed catalog entry and consumes its stock.
	if err := svc.Feed(ctx, "p1", "apple", 2); err != nil {
		t.Fatalf("Feed: %v", err)
	}

	m := svc.Status()
	pet := m.Pet("p1")
	if pet.Hunger != 100 {
		t.Fatalf("hunger clamped: want 100, got %d", pet.Hunger)
	}
	if pet.Energy != 60 {
		t.Fatalf("energy: want 60, got %d", pet.Energy)
	}
	if pet.Experience != 10 {
		t.Fatalf("experience 5/item: want 10, got %d", pet.Experience)
	}
	if pet.CareStreak != 1 {
		t.Fatalf("care streak on first meal: want 1, got %d", pet.CareStreak)
	}
	if len(m.Owner.Inventory) != 0 {
		t.Fatalf("inventory should be empty, got %+v", m.Owner.Inventory)
	}
	if len(prov.published) != 2 {
		t.Fatalf("want pet+profile publishes, got %d", len(prov.published))
	}
	if prov.published[0].Kind != event.KindPetState || prov.published[1].Kind != event.KindOwnerProfile {
		t.Fatalf("unexpected publish kinds: %d, %d", prov.published[0].Kind, prov.published[1].Kind)
	}
	if st.PendingCount() != 1 {
		t.Fatalf("confirmed entry should await base refresh, got %d entries", st.PendingCount())
	}
}

func TestFeed_PublishFailureRollsBack(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{publishErr: errors.New("relay down")}
	svc, st := newTestService(prov)
	ctx := context.Background()

	before := svc.Status()
	err := svc.Feed(ctx, "p1", "apple", 2)
	if !errors.Is(err, errs.ErrPublishFailed) {
		t.Fatalf("want ErrPublishFailed, got %v", err)
	}
	after := svc.Status()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("rollback not byte-for-byte:\n%+v\nvs\n%+v", before, after)
	}
	if st.PendingCount() != 0 {
		t.Fatalf("entry should be dropped on rollback")
	}
}

func TestFeed_UnknownItem(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{}
	svc, st := newTestService(prov)

	err := svc.Feed(context.Background(), "p1", "nonexistent_item", 1)
	if !errors.Is(err, errs.ErrUnknownItem) {
		t.Fatalf("want ErrUnknownItem, got %v", err)
	}
	if st.PendingCount() != 0 || len(prov.published) != 0 {
		t.Fatalf("unknown item must produce zero entries and zero publishes")
	}
}

func TestFeed_WrongCategory(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{}
	svc, _ := newTestService(prov)

	// A toy is not food even though it resolves in the catalog.
	if err := svc.Feed(context.Background(), "p1", "toy_ball", 1); !errors.Is(err, errs.ErrUnknownItem) {
		t.Fatalf("want ErrUnknownItem for category mismatch, got %v", err)
	}
}

func TestFeed_InsufficientInventory(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{}
	svc, st := newTestService(prov)

	before := svc.Status()
	err := svc.Feed(context.Background(), "p1", "apple", 3)

	var invErr *errs.InsufficientInventoryError
	if !errors.As(err, &invErr) {
		t.Fatalf("want InsufficientInventoryError, got %v", err)
	}
	if invErr.Want != 3 || invErr.Have != 2 || invErr.Shortfall() != 1 {
		t.Fatalf("shortfall mismatch: %+v", invErr)
	}
	if !reflect.DeepEqual(before, svc.Status()) || st.PendingCount() != 0 {
		t.Fatalf("validation failure must not mutate state")
	}
}

func TestFeed_PetNotFound(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(&fakeProvider{})

	err := svc.Feed(context.Background(), "ghost", "apple", 1)
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "pet" {
		t.Fatalf("want pet NotFoundError, got %v", err)
	}
}

func TestFeed_CareStreakWindow(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{}
	svc, st := newTestService(prov)
	ctx := context.Background()

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	base := testBase()
	base.Pets[0].LastMeal = t0.Add(-21 * time.Hour)
	st.SetBase(base)

	svc.WithClock(func() time.Time { return t0 })
	if err := svc.Feed(ctx, "p1", "apple", 1); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	st1 := svc.Status()
	if got := st1.Pet("p1").CareStreak; got != 1 {
		t.Fatalf("streak after 21h gap: want 1, got %d", got)
	}

	// Five minutes later the window has not elapsed again.
	svc.WithClock(func() time.Time { return t0.Add(5 * time.Minute) })
	if err := svc.Feed(ctx, "p1", "apple", 1); err != nil {
		t.Fatalf("second Feed: %v", err)
	}
	st2 := svc.Status()
	if got := st2.Pet("p1").CareStreak; got != 1 {
		t.Fatalf("streak must not double-increment, got %d", got)
	}
}

func TestPlay_XPRate(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{}
	svc, st := newTestService(prov)

	base := testBase()
	base.Owner.Inventory = []model.InventoryEntry{{ItemID: "toy_ball", Quantity: 2}}
	st.SetBase(base)

	if err := svc.Play(context.Background(), "p1", "ball", 2); err != nil {
		t.Fatalf("Play: %v", err)
	}
	merged := svc.Status()
	pet := merged.Pet("p1")
	if pet.Experience != 6 {
		t.Fatalf("play grants 3/item: want 6, got %d", pet.Experience)
	}
	if pet.Happiness != 90 {
		t.Fatalf("happiness: want 90, got %d", pet.Happiness)
	}
	if pet.Energy != 30 {
		t.Fatalf("energy: want 30, got %d", pet.Energy)
	}
}

func TestPurchase(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{}
	svc, _ := newTestService(prov)
	ctx := context.Background()

	if err := svc.Purchase(ctx, "food_fish", 2); err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	m := svc.Status()
	if m.Owner.Coins != 1 {
		t.Fatalf("coins after 2x12: want 1, got %d", m.Owner.Coins)
	}
	if q := m.Owner.Quantity("food_fish"); q != 2 {
		t.Fatalf("inventory: want 2, got %d", q)
	}
	if len(prov.published) != 1 || prov.published[0].Kind != event.KindOwnerProfile {
		t.Fatalf("purchase publishes the profile only, got %+v", prov.published)
	}

	var funds *errs.InsufficientFundsError
	err := svc.Purchase(ctx, "food_fish", 1)
	if !errors.As(err, &funds) {
		t.Fatalf("want InsufficientFundsError, got %v", err)
	}
	if funds.Cost != 12 || funds.Balance != 1 {
		t.Fatalf("funds detail mismatch: %+v", funds)
	}
}

func TestSetCompanion(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{}
	svc, _ := newTestService(prov)
	ctx := context.Background()

	if err := svc.SetCompanion(ctx, "ghost"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := svc.SetCompanion(ctx, "p1"); err != nil {
		t.Fatalf("SetCompanion: %v", err)
	}
	m := svc.Status()
	if m.Owner.CurrentCompanion != "p1" || m.CurrentPet == nil {
		t.Fatalf("companion not applied: %+v", m.Owner)
	}
}

func TestActions_NotLoggedIn(t *testing.T) {
	t.Parallel()
	st := status.NewStore()
	st.SetBase(testBase())
	prov := &fakeProvider{}
	svc := New(&fakeIdentity{loggedIn: false}, prov, st, effects.DefaultTuning(), nil)
	ctx := context.Background()

	if err := svc.Feed(ctx, "p1", "apple", 1); !errors.Is(err, errs.ErrNotLoggedIn) {
		t.Fatalf("feed: want ErrNotLoggedIn, got %v", err)
	}
	if err := svc.Purchase(ctx, "apple", 1); !errors.Is(err, errs.ErrNotLoggedIn) {
		t.Fatalf("purchase: want ErrNotLoggedIn, got %v", err)
	}
	if err := svc.Refresh(ctx); !errors.Is(err, errs.ErrNotLoggedIn) {
		t.Fatalf("refresh: want ErrNotLoggedIn, got %v", err)
	}
	if st.PendingCount() != 0 || len(prov.published) != 0 {
		t.Fatalf("logged-out actions must not touch state")
	}
}

func TestRefresh_FiltersEggsAndMalformed(t *testing.T) {
	t.Parallel()

	mkPet := func(id string, stage model.Stage) event.Event {
		ev := event.Event{Kind: event.KindPetState, Tags: [][]string{
			{"d", id}, {"stage", string(stage)},
			{"hunger", "50"}, {"happiness", "50"}, {"health", "50"},
			{"hygiene", "50"}, {"energy", "50"},
		}}
		return ev
	}
	malformed := event.Event{Kind: event.KindPetState, Tags: [][]string{
		{"d", "bad"}, {"stage", "baby"}, {"hunger", "NaN"},
	}}
	profile := event.Event{Kind: event.KindOwnerProfile, Tags: [][]string{
		{"d", "profile"}, {"coins", "42"},
	}}

	prov := &fakeProvider{queryOut: map[int][]event.Event{
		event.KindOwnerProfile: {profile},
		event.KindPetState:     {mkPet("a", model.StageAdult), mkPet("e", model.StageEgg), malformed},
	}}
	st := status.NewStore()
	svc := New(&fakeIdentity{pub: "abc", loggedIn: true}, prov, st, effects.DefaultTuning(), nil)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	m := svc.Status()
	if m.Owner == nil || m.Owner.Coins != 42 {
		t.Fatalf("owner not installed: %+v", m.Owner)
	}
	if len(m.AllPets) != 1 || m.AllPets[0].ID != "a" {
		t.Fatalf("eggs and malformed records must be excluded, got %+v", m.AllPets)
	}
}

func TestRefresh_FetchFailureKeepsState(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{}
	svc, st := newTestService(prov)
	ctx := context.Background()

	if err := svc.Feed(ctx, "p1", "apple", 1); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	before := svc.Status()

	prov.queryErr = errors.New("timeout")
	if err := svc.Refresh(ctx); err == nil {
		t.Fatalf("want refresh error")
	}
	if !reflect.DeepEqual(before, svc.Status()) {
		t.Fatalf("failed refresh must leave state stale but intact")
	}
	if st.PendingCount() != 1 {
		t.Fatalf("pending entries must survive a failed refresh")
	}
}

func TestDuplicateActionsAreIndependent(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{}
	svc, st := newTestService(prov)
	ctx := context.Background()

	if err := svc.Feed(ctx, "p1", "apple", 1); err != nil {
		t.Fatalf("first feed: %v", err)
	}
	if err := svc.Feed(ctx, "p1", "apple", 1); err != nil {
		t.Fatalf("second feed: %v", err)
	}
	// Two legitimate feeds in quick succession both count; no deduplication.
	if st.PendingCount() != 2 {
		t.Fatalf("want 2 independent entries, got %d", st.PendingCount())
	}
	if len(svc.Status().Owner.Inventory) != 0 {
		t.Fatalf("both feeds should consume stock")
	}
}
