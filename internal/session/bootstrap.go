package session

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/blobbi/island/internal/codec"
	"github.com/blobbi/island/internal/errs"
	"github.com/blobbi/island/internal/model"
)

// DefaultProfileID is the replaceable-document identifier for the single
// owner profile per identity.
const DefaultProfileID = "profile"

// CreateProfile publishes the initial owner profile. Profiles are created
// implicitly on first publish; calling this when one already exists is a
// validation error, not an overwrite.
func (s *ServiceImpl) CreateProfile(ctx context.Context, name string) error {
	if _, ok := s.id.PubKey(); !ok {
		return errs.ErrNotLoggedIn
	}
	if s.store.Merged().Owner != nil {
		return fmt.Errorf("validation: profile already exists")
	}

	owner := &model.OwnerProfile{
		ID:    DefaultProfileID,
		Name:  name,
		Coins: s.tuning.StartingCoins,
	}
	ev := codec.EncodeProfile(owner, s.now())
	if err := s.publish(ctx, &ev); err != nil {
		return &errs.PublishFailedError{Cause: err}
	}
	s.log.Info("profile created", zap.String("name", name))
	return s.Refresh(ctx)
}

// AdoptPet publishes a newborn pet document, adds it to the owned set and
// makes it the companion if none is set. Returns the new pet ID. Creation is
// not an optimistic action: the pet appears after the base refresh.
func (s *ServiceImpl) AdoptPet(ctx context.Context, name string) (string, error) {
	if _, ok := s.id.PubKey(); !ok {
		return "", errs.ErrNotLoggedIn
	}
	merged := s.store.Merged()
	if merged.Owner == nil {
		return "", &errs.NotFoundError{Entity: "profile"}
	}

	petID := uuid.Must(uuid.NewV4()).String()
	v := s.tuning.NewbornStatValue
	pet := &model.PetState{
		ID:         petID,
		Stage:      model.StageBaby,
		Generation: 1,
		Hunger:     v,
		Happiness:  v,
		Health:     v,
		Hygiene:    v,
		Energy:     v,
		Title:      name,
	}

	owner := merged.Owner.Clone()
	owner.OwnedPets = append(owner.OwnedPets, petID)
	if owner.CurrentCompanion == "" {
		owner.CurrentCompanion = petID
	}

	now := s.now()
	petEv := codec.EncodePet(pet, now)
	ownerEv := codec.EncodeProfile(owner, now)
	if err := s.publish(ctx, &petEv, &ownerEv); err != nil {
		return "", &errs.PublishFailedError{Cause: err}
	}
	s.log.Info("pet adopted", zap.String("pet", petID))
	return petID, s.Refresh(ctx)
}
