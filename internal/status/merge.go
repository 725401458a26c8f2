// Package status implements the optimistic status layer: a pure reducer that
// overlays pending updates on the last server-confirmed base, and an explicit
// store owning the pending queue.
package status

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/blobbi/island/internal/model"
)

// EntryState tracks a pending update through its lifetime.
type EntryState string

const (
	StatePending   EntryState = "pending"
	StateConfirmed EntryState = "confirmed"
	StateRejected  EntryState = "rejected"
)

// PendingUpdate is one locally-predicted change awaiting supersession by a
// base refresh. Owner-field parts of the patch always apply to the owner;
// pet-field parts apply to the pet named by TargetID.
type PendingUpdate struct {
	ID        uuid.UUID
	TargetID  string
	Patch     model.Patch
	CreatedAt time.Time
	State     EntryState
}

// Base is the last known server-confirmed state for an identity.
type Base struct {
	Owner *model.OwnerProfile
	Pets  []*model.PetState
}

const statMax = 100

func clampStat(v int) int {
	if v < 0 {
		return 0
	}
	if v > statMax {
		return statMax
	}
	return v
}

func floor0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// Merge applies pending entries to base in creation order and returns the
// derived status. It is a pure function: no clock, no I/O, inputs untouched.
//
// Stats are clamped to [0,100] after each entry, so consecutive feeds cannot
// bank overflow past the cap. Coins and experience are floored at 0 only.
func Merge(base Base, pending []PendingUpdate) model.MergedStatus {
	owner := base.Owner.Clone()
	pets := make([]*model.PetState, 0, len(base.Pets))
	for _, p := range base.Pets {
		pets = append(pets, p.Clone())
	}

	out := model.MergedStatus{Owner: owner, AllPets: pets}
	for i := range pending {
		applyEntry(&out, &pending[i])
	}

	if out.Owner != nil && out.Owner.CurrentCompanion != "" {
		out.CurrentPet = out.Pet(out.Owner.CurrentCompanion)
	}
	return out
}

func applyEntry(m *model.MergedStatus, e *PendingUpdate) {
	if pet := m.Pet(e.TargetID); pet != nil {
		applyPetPatch(pet, &e.Patch)
	}
	if m.Owner != nil {
		applyOwnerPatch(m.Owner, &e.Patch)
	}
}

func applyPetPatch(pet *model.PetState, p *model.Patch) {
	for stat, delta := range p.Stats {
		pet.SetStat(stat, clampStat(pet.Stat(stat)+delta))
	}
	pet.Experience = floor0(pet.Experience + p.ExperienceDelta)
	pet.CareStreak = floor0(pet.CareStreak + p.CareStreakDelta)
	for f, t := range p.Timestamps {
		pet.SetTimestamp(f, t)
	}
}

func applyOwnerPatch(owner *model.OwnerProfile, p *model.Patch) {
	owner.Coins = floor0(owner.Coins + p.CoinsDelta)
	for itemID, delta := range p.InventoryDelta {
		adjustInventory(owner, itemID, delta)
	}
	if p.Companion != nil {
		owner.CurrentCompanion = *p.Companion
	}
	for _, id := range p.AddPets {
		if !contains(owner.OwnedPets, id) {
			owner.OwnedPets = append(owner.OwnedPets, id)
		}
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// adjustInventory applies a signed quantity delta, removing entries that
// reach zero (zero quantities are never kept).
func adjustInventory(owner *model.OwnerProfile, itemID string, delta int) {
	for i := range owner.Inventory {
		if owner.Inventory[i].ItemID != itemID {
			continue
		}
		q := floor0(owner.Inventory[i].Quantity + delta)
		if q == 0 {
			owner.Inventory = append(owner.Inventory[:i], owner.Inventory[i+1:]...)
		} else {
			owner.Inventory[i].Quantity = q
		}
		return
	}
	if delta > 0 {
		owner.Inventory = append(owner.Inventory, model.InventoryEntry{ItemID: itemID, Quantity: delta})
	}
}
