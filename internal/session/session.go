// Package session contains the action orchestrator: one operation per player
// action, validating against the merged status, applying optimistic updates
// and reconciling them with publish outcomes.
package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/blobbi/island/internal/codec"
	"github.com/blobbi/island/internal/effects"
	"github.com/blobbi/island/internal/errs"
	"github.com/blobbi/island/internal/event"
	"github.com/blobbi/island/internal/identity"
	"github.com/blobbi/island/internal/model"
	"github.com/blobbi/island/internal/provider"
	"github.com/blobbi/island/internal/status"
)

// Service defines the player-facing operations over the optimistic status
// layer. Validation failures are returned before any optimistic mutation;
// publish failures roll the mutation back automatically.
type Service interface {
	// Refresh fetches fresh base data for the logged-in identity. On any
	// fetch failure state stays stale and pending entries remain valid.
	Refresh(ctx context.Context) error
	// Status returns the merged status (base plus pending entries).
	Status() model.MergedStatus
	// Feed consumes qty food items and applies their effects to the pet.
	Feed(ctx context.Context, petID, itemID string, qty int) error
	// Play consumes qty toy uses and applies their effects to the pet.
	Play(ctx context.Context, petID, itemID string, qty int) error
	// Groom consumes qty care items and applies their effects to the pet.
	Groom(ctx context.Context, petID, itemID string, qty int) error
	// Purchase buys qty items from the catalog for coins.
	Purchase(ctx context.Context, itemID string, qty int) error
	// SetCompanion makes petID the owner's current companion.
	SetCompanion(ctx context.Context, petID string) error
	// CreateProfile publishes an initial owner profile with starting coins.
	CreateProfile(ctx context.Context, name string) error
	// AdoptPet publishes a newborn pet and registers it on the profile.
	AdoptPet(ctx context.Context, name string) (string, error)
}

type ServiceImpl struct {
	id     identity.Provider
	prov   provider.Provider
	store  *status.Store
	tuning effects.Tuning
	log    *zap.Logger
	now    func() time.Time
}

// New constructs the session service. A nil logger is replaced with a no-op
// logger; the clock defaults to time.Now.
func New(id identity.Provider, prov provider.Provider, store *status.Store, tuning effects.Tuning, log *zap.Logger) *ServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &ServiceImpl{
		id:     id,
		prov:   prov,
		store:  store,
		tuning: tuning,
		log:    log,
		now:    time.Now,
	}
}

// WithClock overrides the clock (tests).
func (s *ServiceImpl) WithClock(now func() time.Time) *ServiceImpl {
	s.now = now
	return s
}

// Status returns the merged status snapshot.
func (s *ServiceImpl) Status() model.MergedStatus {
	return s.store.Merged()
}

// Refresh queries the provider for the latest profile and pet documents,
// drops malformed records, filters eggs out of the roster and installs the
// result as the new base. Confirmed pending entries are retired by the
// store; in-flight ones survive.
func (s *ServiceImpl) Refresh(ctx context.Context) error {
	pub, ok := s.id.PubKey()
	if !ok {
		return errs.ErrNotLoggedIn
	}

	qctx, cancel := context.WithTimeout(ctx, s.tuning.QueryTimeout)
	defer cancel()

	profEvs, err := s.prov.QueryLatest(qctx, event.KindOwnerProfile, pub)
	if err != nil {
		return fmt.Errorf("query profile: %w", err)
	}
	petEvs, err := s.prov.QueryLatest(qctx, event.KindPetState, pub)
	if err != nil {
		return fmt.Errorf("query pets: %w", err)
	}

	var base status.Base
	for i := range profEvs {
		if !codec.ValidProfileEvent(&profEvs[i]) {
			s.log.Warn("dropping malformed profile event", zap.String("id", profEvs[i].ID))
			continue
		}
		base.Owner = codec.DecodeProfile(&profEvs[i])
		break
	}
	for i := range petEvs {
		if !codec.ValidPetEvent(&petEvs[i]) {
			s.log.Warn("dropping malformed pet event", zap.String("id", petEvs[i].ID))
			continue
		}
		pet := codec.DecodePet(&petEvs[i])
		if pet.Stage == model.StageEgg {
			// Eggs are not part of the playable roster.
			continue
		}
		base.Pets = append(base.Pets, pet)
	}

	s.store.SetBase(base)
	s.log.Debug("base refreshed",
		zap.Bool("owner", base.Owner != nil),
		zap.Int("pets", len(base.Pets)),
	)
	return nil
}

// careSpec binds an action category to its experience rate and the timestamp
// field the care streak is tracked against.
type careSpec struct {
	category  effects.Category
	xpPerItem int
	timestamp model.TimestampField
}

// Feed consumes food items. Experience accrues per item; the care streak
// grows when the previous meal is older than the streak window.
func (s *ServiceImpl) Feed(ctx context.Context, petID, itemID string, qty int) error {
	return s.care(ctx, petID, itemID, qty, careSpec{
		category:  effects.CategoryFood,
		xpPerItem: s.tuning.FeedXPPerItem,
		timestamp: model.TSLastMeal,
	})
}

// Play consumes toy uses.
func (s *ServiceImpl) Play(ctx context.Context, petID, itemID string, qty int) error {
	return s.care(ctx, petID, itemID, qty, careSpec{
		category:  effects.CategoryToy,
		xpPerItem: s.tuning.PlayXPPerItem,
		timestamp: model.TSLastInteraction,
	})
}

// Groom consumes care items (soap, medicine).
func (s *ServiceImpl) Groom(ctx context.Context, petID, itemID string, qty int) error {
	return s.care(ctx, petID, itemID, qty, careSpec{
		category:  effects.CategoryCare,
		xpPerItem: s.tuning.PlayXPPerItem,
		timestamp: model.TSLastClean,
	})
}

// care is the shared action shape: validate, compute effect, enqueue
// optimistic entry, publish full replacement records, reconcile.
func (s *ServiceImpl) care(ctx context.Context, petID, itemID string, qty int, spec careSpec) error {
	if qty <= 0 {
		return fmt.Errorf("validation: non-positive quantity %d", qty)
	}
	if _, ok := s.id.PubKey(); !ok {
		return errs.ErrNotLoggedIn
	}

	merged := s.store.Merged()
	if merged.Owner == nil {
		return &errs.NotFoundError{Entity: "profile"}
	}
	pet := merged.Pet(petID)
	if pet == nil {
		return &errs.NotFoundError{Entity: "pet", ID: petID}
	}

	canonical, eff, err := effects.Resolve(itemID)
	if err != nil {
		return err
	}
	if eff.Category != spec.category {
		return &errs.UnknownItemError{ItemID: itemID}
	}

	key, have := inventoryKey(merged.Owner, canonical, itemID)
	if have < qty {
		return &errs.InsufficientInventoryError{ItemID: key, Want: qty, Have: have}
	}

	now := s.now()
	patch := model.Patch{
		Stats:           scaleDelta(eff.Delta, qty),
		ExperienceDelta: spec.xpPerItem * qty,
		CareStreakDelta: streakDelta(pet.Timestamp(spec.timestamp), now, s.tuning.StreakWindow),
		Timestamps:      map[model.TimestampField]time.Time{spec.timestamp: now},
		InventoryDelta:  map[string]int{key: -qty},
	}

	entryID := s.store.Enqueue(petID, patch, now)

	// Publish full replacement documents built from the state after the
	// enqueue; the pre-validation snapshot may already be outdated.
	after := s.store.Merged()
	petEv := codec.EncodePet(after.Pet(petID), now)
	ownerEv := codec.EncodeProfile(after.Owner, now)
	if err := s.publish(ctx, &petEv, &ownerEv); err != nil {
		s.store.Drop(entryID)
		s.log.Warn("care action rolled back",
			zap.String("pet", petID),
			zap.String("item", key),
			zap.Error(err),
		)
		return &errs.PublishFailedError{Cause: err}
	}

	s.store.Confirm(entryID)
	s.log.Info("care action applied",
		zap.String("category", string(spec.category)),
		zap.String("pet", petID),
		zap.String("item", key),
		zap.Int("qty", qty),
	)
	return nil
}

// Purchase buys catalog items for coins and adds them to the inventory.
func (s *ServiceImpl) Purchase(ctx context.Context, itemID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("validation: non-positive quantity %d", qty)
	}
	if _, ok := s.id.PubKey(); !ok {
		return errs.ErrNotLoggedIn
	}

	merged := s.store.Merged()
	if merged.Owner == nil {
		return &errs.NotFoundError{Entity: "profile"}
	}

	canonical, eff, err := effects.Resolve(itemID)
	if err != nil {
		return err
	}
	cost := eff.Price * qty
	if merged.Owner.Coins < cost {
		return &errs.InsufficientFundsError{Cost: cost, Balance: merged.Owner.Coins}
	}

	now := s.now()
	patch := model.Patch{
		CoinsDelta:     -cost,
		InventoryDelta: map[string]int{canonical: qty},
	}
	entryID := s.store.Enqueue(merged.Owner.ID, patch, now)

	after := s.store.Merged()
	ownerEv := codec.EncodeProfile(after.Owner, now)
	if err := s.publish(ctx, &ownerEv); err != nil {
		s.store.Drop(entryID)
		return &errs.PublishFailedError{Cause: err}
	}

	s.store.Confirm(entryID)
	s.log.Info("purchase applied",
		zap.String("item", canonical),
		zap.Int("qty", qty),
		zap.Int("cost", cost),
	)
	return nil
}

// SetCompanion selects the owner's current companion pet.
func (s *ServiceImpl) SetCompanion(ctx context.Context, petID string) error {
	if _, ok := s.id.PubKey(); !ok {
		return errs.ErrNotLoggedIn
	}

	merged := s.store.Merged()
	if merged.Owner == nil {
		return &errs.NotFoundError{Entity: "profile"}
	}
	if merged.Pet(petID) == nil {
		return &errs.NotFoundError{Entity: "pet", ID: petID}
	}

	now := s.now()
	patch := model.Patch{Companion: &petID}
	entryID := s.store.Enqueue(merged.Owner.ID, patch, now)

	after := s.store.Merged()
	ownerEv := codec.EncodeProfile(after.Owner, now)
	if err := s.publish(ctx, &ownerEv); err != nil {
		s.store.Drop(entryID)
		return &errs.PublishFailedError{Cause: err}
	}

	s.store.Confirm(entryID)
	s.log.Info("companion set", zap.String("pet", petID))
	return nil
}

// publish signs and publishes replacement records under the publish deadline.
func (s *ServiceImpl) publish(ctx context.Context, evs ...*event.Event) error {
	pctx, cancel := context.WithTimeout(ctx, s.tuning.PublishTimeout)
	defer cancel()

	for _, ev := range evs {
		if err := s.id.Sign(ev); err != nil {
			return fmt.Errorf("sign kind %d: %w", ev.Kind, err)
		}
		if err := s.prov.Publish(pctx, *ev); err != nil {
			return fmt.Errorf("publish kind %d: %w", ev.Kind, err)
		}
	}
	return nil
}

// inventoryKey picks the inventory entry an action should consume from. The
// inventory and the catalog may disagree on category prefixing, so the
// canonical ID is preferred but the caller's form is honored when only it
// holds stock.
func inventoryKey(owner *model.OwnerProfile, canonical, raw string) (string, int) {
	if q := owner.Quantity(canonical); q > 0 {
		return canonical, q
	}
	if raw != canonical {
		if q := owner.Quantity(raw); q > 0 {
			return raw, q
		}
	}
	return canonical, 0
}

func scaleDelta(delta map[model.Stat]int, qty int) map[model.Stat]int {
	out := make(map[model.Stat]int, len(delta))
	for stat, d := range delta {
		out[stat] = d * qty
	}
	return out
}

// streakDelta reports whether this action extends the care streak: it does
// when the previous action of the same category is older than the window.
func streakDelta(prev, now time.Time, window time.Duration) int {
	if prev.IsZero() || now.Sub(prev) > window {
		return 1
	}
	return 0
}
