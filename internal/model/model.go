// Package model defines domain entities used by the status reducer, session and codec.
package model

import "time"

// Stage is a pet's life-cycle stage. Eggs are excluded from the playable roster.
type Stage string

const (
	StageEgg   Stage = "egg"
	StageBaby  Stage = "baby"
	StageAdult Stage = "adult"
)

// Valid reports whether the stage is one of the known values.
func (s Stage) Valid() bool {
	switch s {
	case StageEgg, StageBaby, StageAdult:
		return true
	}
	return false
}

// Stat names the five core pet stats, each clamped to [0,100].
type Stat string

const (
	StatHunger    Stat = "hunger"
	StatHappiness Stat = "happiness"
	StatHealth    Stat = "health"
	StatHygiene   Stat = "hygiene"
	StatEnergy    Stat = "energy"
)

// Stats lists all core stats in canonical order.
var Stats = []Stat{StatHunger, StatHappiness, StatHealth, StatHygiene, StatEnergy}

// TimestampField names a care-action timestamp on a pet.
type TimestampField string

const (
	TSLastMeal        TimestampField = "last_meal"
	TSLastClean       TimestampField = "last_clean"
	TSLastWarm        TimestampField = "last_warm"
	TSLastTalk        TimestampField = "last_talk"
	TSLastCheck       TimestampField = "last_check"
	TSLastSing        TimestampField = "last_sing"
	TSLastMedicine    TimestampField = "last_medicine"
	TSLastInteraction TimestampField = "last_interaction"
)

// TimestampFields lists all care timestamps in canonical order.
var TimestampFields = []TimestampField{
	TSLastMeal, TSLastClean, TSLastWarm, TSLastTalk,
	TSLastCheck, TSLastSing, TSLastMedicine, TSLastInteraction,
}

// InventoryEntry is one owned item stack. Zero-quantity entries are never kept.
type InventoryEntry struct {
	ItemID   string
	Quantity int
}

// OwnerProfile is the player-owned profile document (latest-by-identifier wins).
type OwnerProfile struct {
	ID               string // replaceable-document identifier, "profile" by default
	PubKey           string // author identity
	Name             string
	Coins            int
	Inventory        []InventoryEntry
	CurrentCompanion string // weak reference to a pet ID, may be empty
	OwnedPets        []string
	Achievements     []string
}

// Quantity returns the tracked quantity for itemID (0 if absent).
func (p *OwnerProfile) Quantity(itemID string) int {
	for _, e := range p.Inventory {
		if e.ItemID == itemID {
			return e.Quantity
		}
	}
	return 0
}

// Clone returns a deep copy.
func (p *OwnerProfile) Clone() *OwnerProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Inventory = append([]InventoryEntry(nil), p.Inventory...)
	cp.OwnedPets = append([]string(nil), p.OwnedPets...)
	cp.Achievements = append([]string(nil), p.Achievements...)
	return &cp
}

// PetState is a single Blobbi's state document.
type PetState struct {
	ID         string
	PubKey     string
	Stage      Stage
	Generation int

	// Core stats, each clamped to [0,100].
	Hunger    int
	Happiness int
	Health    int
	Hygiene   int
	Energy    int

	Experience int // unbounded, floor 0
	CareStreak int // consecutive care days

	// Cosmetic attributes (optional).
	BaseColor      string
	SecondaryColor string
	EyeColor       string
	Pattern        string
	SpecialMark    string
	AdultType      string

	// Behavioral/descriptive attributes (optional).
	Personality  string
	Trait        string
	Mood         string
	FavoriteFood string
	VoiceType    string
	Size         string
	Title        string
	Skill        string

	// Care timestamps; zero time means "never".
	LastMeal        time.Time
	LastClean       time.Time
	LastWarm        time.Time
	LastTalk        time.Time
	LastCheck       time.Time
	LastSing        time.Time
	LastMedicine    time.Time
	LastInteraction time.Time
}

// Stat returns the named core stat.
func (p *PetState) Stat(s Stat) int {
	switch s {
	case StatHunger:
		return p.Hunger
	case StatHappiness:
		return p.Happiness
	case StatHealth:
		return p.Health
	case StatHygiene:
		return p.Hygiene
	case StatEnergy:
		return p.Energy
	}
	return 0
}

// SetStat sets the named core stat (no clamping; the reducer clamps).
func (p *PetState) SetStat(s Stat, v int) {
	switch s {
	case StatHunger:
		p.Hunger = v
	case StatHappiness:
		p.Happiness = v
	case StatHealth:
		p.Health = v
	case StatHygiene:
		p.Hygiene = v
	case StatEnergy:
		p.Energy = v
	}
}

// Timestamp returns the named care timestamp.
func (p *PetState) Timestamp(f TimestampField) time.Time {
	switch f {
	case TSLastMeal:
		return p.LastMeal
	case TSLastClean:
		return p.LastClean
	case TSLastWarm:
		return p.LastWarm
	case TSLastTalk:
		return p.LastTalk
	case TSLastCheck:
		return p.LastCheck
	case TSLastSing:
		return p.LastSing
	case TSLastMedicine:
		return p.LastMedicine
	case TSLastInteraction:
		return p.LastInteraction
	}
	return time.Time{}
}

// SetTimestamp sets the named care timestamp.
func (p *PetState) SetTimestamp(f TimestampField, t time.Time) {
	switch f {
	case TSLastMeal:
		p.LastMeal = t
	case TSLastClean:
		p.LastClean = t
	case TSLastWarm:
		p.LastWarm = t
	case TSLastTalk:
		p.LastTalk = t
	case TSLastCheck:
		p.LastCheck = t
	case TSLastSing:
		p.LastSing = t
	case TSLastMedicine:
		p.LastMedicine = t
	case TSLastInteraction:
		p.LastInteraction = t
	}
}

// Clone returns a copy (PetState has no reference fields beyond strings).
func (p *PetState) Clone() *PetState {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// Patch is a field-level delta applied by the status reducer. Nil maps and
// pointers mean "no change". Stat and coin deltas are cumulative; Companion
// and Timestamps are absolute replacements.
type Patch struct {
	// Pet fields.
	Stats           map[Stat]int
	ExperienceDelta int
	CareStreakDelta int
	Timestamps      map[TimestampField]time.Time

	// Owner fields.
	CoinsDelta     int
	InventoryDelta map[string]int // itemID -> signed quantity delta
	Companion      *string
	AddPets        []string // pet IDs appended to OwnedPets (deduplicated)
}

// MergedStatus is the derived view: base status with all pending optimistic
// entries applied in creation order. It is recomputed, never stored.
type MergedStatus struct {
	Owner      *OwnerProfile
	CurrentPet *PetState
	AllPets    []*PetState
}

// Pet returns the pet with the given ID from AllPets, or nil.
func (m *MergedStatus) Pet(id string) *PetState {
	for _, p := range m.AllPets {
		if p.ID == id {
			return p
		}
	}
	return nil
}
