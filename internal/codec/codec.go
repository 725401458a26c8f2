// Package codec converts domain entities to and from event tag tuples. It is
// the serialization boundary: pure functions, independent of the transport.
//
// Decoding never panics and never returns partially-populated records: a
// malformed required field rejects the whole event (nil result), a malformed
// or absent optional field defaults to the zero value.
package codec

import (
	"strconv"
	"time"

	"github.com/blobbi/island/internal/event"
	"github.com/blobbi/island/internal/model"
)

const clampMax = 100

func clampStat(v int) int {
	if v < 0 {
		return 0
	}
	if v > clampMax {
		return clampMax
	}
	return v
}

func floor0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// optInt parses an optional numeric tag: absent or malformed values become 0.
func optInt(ev *event.Event, name string) int {
	s, ok := ev.TagValue(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// reqInt parses a required numeric tag; ok is false when absent or malformed.
func reqInt(ev *event.Event, name string) (int, bool) {
	s, found := ev.TagValue(name)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func optString(ev *event.Event, name string) string {
	s, _ := ev.TagValue(name)
	return s
}

// optTime parses an optional unix-seconds tag; zero time when absent/malformed.
func optTime(ev *event.Event, name string) time.Time {
	s, ok := ev.TagValue(name)
	if !ok {
		return time.Time{}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}

func appendTag(tags [][]string, name, value string) [][]string {
	if value == "" {
		return tags
	}
	return append(tags, []string{name, value})
}

func appendIntTag(tags [][]string, name string, v int) [][]string {
	return append(tags, []string{name, strconv.Itoa(v)})
}

func appendTimeTag(tags [][]string, name string, t time.Time) [][]string {
	if t.IsZero() {
		return tags
	}
	return append(tags, []string{name, strconv.FormatInt(t.Unix(), 10)})
}

// --- Owner Profile ---

// ValidProfileEvent reports whether ev would decode to a profile, without
// constructing one. Suitable for batch filtering.
func ValidProfileEvent(ev *event.Event) bool {
	if ev == nil || ev.Kind != event.KindOwnerProfile {
		return false
	}
	if _, ok := ev.Identifier(); !ok {
		return false
	}
	// Coins is semantically required; present-but-malformed rejects.
	if s, ok := ev.TagValue("coins"); ok {
		if _, err := strconv.Atoi(s); err != nil {
			return false
		}
	}
	return true
}

// DecodeProfile parses an owner profile event. Returns nil for invalid input.
func DecodeProfile(ev *event.Event) *model.OwnerProfile {
	if !ValidProfileEvent(ev) {
		return nil
	}
	id, _ := ev.Identifier()
	p := &model.OwnerProfile{
		ID:               id,
		PubKey:           ev.PubKey,
		Name:             optString(ev, "name"),
		Coins:            floor0(optInt(ev, "coins")),
		CurrentCompanion: optString(ev, "companion"),
	}
	for _, t := range ev.TagsNamed("item") {
		if len(t) < 3 {
			continue
		}
		qty, err := strconv.Atoi(t[2])
		if err != nil || qty <= 0 {
			// Zero or malformed quantities are never kept.
			continue
		}
		p.Inventory = append(p.Inventory, model.InventoryEntry{ItemID: t[1], Quantity: qty})
	}
	for _, t := range ev.TagsNamed("pet") {
		if len(t) >= 2 && t[1] != "" {
			p.OwnedPets = append(p.OwnedPets, t[1])
		}
	}
	for _, t := range ev.TagsNamed("achievement") {
		if len(t) >= 2 && t[1] != "" {
			p.Achievements = append(p.Achievements, t[1])
		}
	}
	return p
}

// EncodeProfile builds an unsigned full-replacement event for the profile.
func EncodeProfile(p *model.OwnerProfile, createdAt time.Time) event.Event {
	tags := [][]string{{"d", p.ID}}
	tags = appendTag(tags, "name", p.Name)
	tags = appendIntTag(tags, "coins", floor0(p.Coins))
	for _, e := range p.Inventory {
		if e.Quantity <= 0 {
			continue
		}
		tags = append(tags, []string{"item", e.ItemID, strconv.Itoa(e.Quantity)})
	}
	tags = appendTag(tags, "companion", p.CurrentCompanion)
	for _, id := range p.OwnedPets {
		tags = appendTag(tags, "pet", id)
	}
	for _, a := range p.Achievements {
		tags = appendTag(tags, "achievement", a)
	}
	return event.Event{
		Kind:      event.KindOwnerProfile,
		CreatedAt: createdAt.Unix(),
		Tags:      tags,
	}
}

// --- Pet State ---

var petStatTags = map[model.Stat]string{
	model.StatHunger:    "hunger",
	model.StatHappiness: "happiness",
	model.StatHealth:    "health",
	model.StatHygiene:   "hygiene",
	model.StatEnergy:    "energy",
}

var petCosmeticTags = []struct {
	tag string
	get func(*model.PetState) *string
}{
	{"base_color", func(p *model.PetState) *string { return &p.BaseColor }},
	{"secondary_color", func(p *model.PetState) *string { return &p.SecondaryColor }},
	{"eye_color", func(p *model.PetState) *string { return &p.EyeColor }},
	{"pattern", func(p *model.PetState) *string { return &p.Pattern }},
	{"special_mark", func(p *model.PetState) *string { return &p.SpecialMark }},
	{"adult_type", func(p *model.PetState) *string { return &p.AdultType }},
	{"personality", func(p *model.PetState) *string { return &p.Personality }},
	{"trait", func(p *model.PetState) *string { return &p.Trait }},
	{"mood", func(p *model.PetState) *string { return &p.Mood }},
	{"favorite_food", func(p *model.PetState) *string { return &p.FavoriteFood }},
	{"voice_type", func(p *model.PetState) *string { return &p.VoiceType }},
	{"size", func(p *model.PetState) *string { return &p.Size }},
	{"title", func(p *model.PetState) *string { return &p.Title }},
	{"skill", func(p *model.PetState) *string { return &p.Skill }},
}

// ValidPetEvent reports whether ev would decode to a pet state. Required
// fields: d tag, known stage, and all five core stats as parseable integers.
func ValidPetEvent(ev *event.Event) bool {
	if ev == nil || ev.Kind != event.KindPetState {
		return false
	}
	if id, ok := ev.Identifier(); !ok || id == "" {
		return false
	}
	if !model.Stage(optString(ev, "stage")).Valid() {
		return false
	}
	for _, tag := range petStatTags {
		if _, ok := reqInt(ev, tag); !ok {
			return false
		}
	}
	return true
}

// DecodePet parses a pet state event. Returns nil for invalid input.
func DecodePet(ev *event.Event) *model.PetState {
	if !ValidPetEvent(ev) {
		return nil
	}
	id, _ := ev.Identifier()
	p := &model.PetState{
		ID:         id,
		PubKey:     ev.PubKey,
		Stage:      model.Stage(optString(ev, "stage")),
		Generation: floor0(optInt(ev, "generation")),
		Experience: floor0(optInt(ev, "experience")),
		CareStreak: floor0(optInt(ev, "care_streak")),
	}
	for stat, tag := range petStatTags {
		v, _ := reqInt(ev, tag)
		p.SetStat(stat, clampStat(v))
	}
	for _, c := range petCosmeticTags {
		*c.get(p) = optString(ev, c.tag)
	}
	for _, f := range model.TimestampFields {
		p.SetTimestamp(f, optTime(ev, string(f)))
	}
	return p
}

// EncodePet builds an unsigned full-replacement event for the pet state.
func EncodePet(p *model.PetState, createdAt time.Time) event.Event {
	tags := [][]string{{"d", p.ID}}
	tags = appendTag(tags, "stage", string(p.Stage))
	tags = appendIntTag(tags, "generation", floor0(p.Generation))
	for _, stat := range model.Stats {
		tags = appendIntTag(tags, petStatTags[stat], clampStat(p.Stat(stat)))
	}
	tags = appendIntTag(tags, "experience", floor0(p.Experience))
	tags = appendIntTag(tags, "care_streak", floor0(p.CareStreak))
	for _, c := range petCosmeticTags {
		tags = appendTag(tags, c.tag, *c.get(p))
	}
	for _, f := range model.TimestampFields {
		tags = appendTimeTag(tags, string(f), p.Timestamp(f))
	}
	return event.Event{
		Kind:      event.KindPetState,
		CreatedAt: createdAt.Unix(),
		Tags:      tags,
	}
}
