package codec

import (
	"reflect"
	"testing"
	"time"

	"github.com/blobbi/island/internal/event"
	"github.com/blobbi/island/internal/model"
)

func validPetTags(id string) [][]string {
	return [][]string{
		{"d", id}, {"stage", "baby"},
		{"hunger", "80"}, {"happiness", "70"}, {"health", "60"},
		{"hygiene", "50"}, {"energy", "40"},
	}
}

func TestDecodePet_RoundTrip(t *testing.T) {
	t.Parallel()
	now := time.Unix(1750000000, 0).UTC()
	in := &model.PetState{
		ID: "p1", Stage: model.StageAdult, Generation: 2,
		Hunger: 80, Happiness: 70, Health: 60, Hygiene: 50, Energy: 40,
		Experience: 123, CareStreak: 4,
		BaseColor: "teal", Title: "Captain",
		LastMeal: now.Add(-time.Hour),
	}

	ev := EncodePet(in, now)
	if ev.Kind != event.KindPetState || ev.CreatedAt != now.Unix() {
		t.Fatalf("envelope: %+v", ev)
	}
	out := DecodePet(&ev)
	if out == nil {
		t.Fatal("round trip decode failed")
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n%+v\nvs\n%+v", in, out)
	}
}

func TestDecodePet_RequiredFields(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		mutate func(tags [][]string) [][]string
	}{
		{"missing d", func(tags [][]string) [][]string { return tags[1:] }},
		{"unknown stage", func(tags [][]string) [][]string {
			tags[1] = []string{"stage", "tadpole"}
			return tags
		}},
		{"malformed stat", func(tags [][]string) [][]string {
			tags[2] = []string{"hunger", "many"}
			return tags
		}},
		{"missing stat", func(tags [][]string) [][]string {
			return append(tags[:2], tags[3:]...)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := event.Event{Kind: event.KindPetState, Tags: tc.mutate(validPetTags("p1"))}
			if ValidPetEvent(&ev) {
				t.Fatal("event should be invalid")
			}
			if DecodePet(&ev) != nil {
				t.Fatal("decode should reject, not partially populate")
			}
		})
	}
}

func TestDecodePet_OptionalFieldsDefault(t *testing.T) {
	t.Parallel()
	tags := append(validPetTags("p1"),
		[]string{"experience", "oops"},
		[]string{"last_meal", "not-a-unix-time"},
	)
	ev := event.Event{Kind: event.KindPetState, Tags: tags}

	p := DecodePet(&ev)
	if p == nil {
		t.Fatal("optional damage must not reject the event")
	}
	if p.Experience != 0 {
		t.Fatalf("malformed optional int: want 0, got %d", p.Experience)
	}
	if !p.LastMeal.IsZero() {
		t.Fatalf("malformed timestamp: want zero, got %v", p.LastMeal)
	}
}

func TestDecodePet_ClampsOutOfRangeStats(t *testing.T) {
	t.Parallel()
	tags := validPetTags("p1")
	tags[2] = []string{"hunger", "250"}
	tags[6] = []string{"energy", "-30"}
	ev := event.Event{Kind: event.KindPetState, Tags: tags}

	p := DecodePet(&ev)
	if p.Hunger != 100 || p.Energy != 0 {
		t.Fatalf("stats not clamped on ingest: hunger=%d energy=%d", p.Hunger, p.Energy)
	}
}

func TestDecodeProfile_RoundTrip(t *testing.T) {
	t.Parallel()
	now := time.Unix(1750000000, 0).UTC()
	in := &model.OwnerProfile{
		ID: "profile", Name: "Ada", Coins: 25,
		Inventory: []model.InventoryEntry{
			{ItemID: "food_apple", Quantity: 2},
			{ItemID: "toy_ball", Quantity: 1},
		},
		CurrentCompanion: "p1",
		OwnedPets:        []string{"p1", "p2"},
		Achievements:     []string{"first_meal"},
	}

	ev := EncodeProfile(in, now)
	out := DecodeProfile(&ev)
	if out == nil {
		t.Fatal("round trip decode failed")
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n%+v\nvs\n%+v", in, out)
	}
}

func TestDecodeProfile_InventoryHygiene(t *testing.T) {
	t.Parallel()
	ev := event.Event{Kind: event.KindOwnerProfile, Tags: [][]string{
		{"d", "profile"},
		{"item", "food_apple", "2"},
		{"item", "toy_ball", "0"},
		{"item", "care_soap", "-3"},
		{"item", "food_fish", "lots"},
		{"item", "truncated"},
	}}

	p := DecodeProfile(&ev)
	if p == nil {
		t.Fatal("decode failed")
	}
	want := []model.InventoryEntry{{ItemID: "food_apple", Quantity: 2}}
	if !reflect.DeepEqual(p.Inventory, want) {
		t.Fatalf("only positive well-formed entries survive, got %+v", p.Inventory)
	}
}

func TestDecodeProfile_CoinsRules(t *testing.T) {
	t.Parallel()

	// Absent coins defaults to zero.
	ev := event.Event{Kind: event.KindOwnerProfile, Tags: [][]string{{"d", "profile"}}}
	if p := DecodeProfile(&ev); p == nil || p.Coins != 0 {
		t.Fatalf("absent coins: want 0, got %+v", p)
	}

	// Present but malformed coins rejects the whole event.
	ev = event.Event{Kind: event.KindOwnerProfile, Tags: [][]string{
		{"d", "profile"}, {"coins", "1e3"},
	}}
	if ValidProfileEvent(&ev) || DecodeProfile(&ev) != nil {
		t.Fatal("malformed coins must reject the event")
	}

	// Negative coins floors to zero.
	ev = event.Event{Kind: event.KindOwnerProfile, Tags: [][]string{
		{"d", "profile"}, {"coins", "-10"},
	}}
	if p := DecodeProfile(&ev); p == nil || p.Coins != 0 {
		t.Fatalf("negative coins: want 0, got %+v", p)
	}
}

func TestEncodeProfile_SkipsEmptyAndZero(t *testing.T) {
	t.Parallel()
	p := &model.OwnerProfile{
		ID:        "profile",
		Inventory: []model.InventoryEntry{{ItemID: "food_apple", Quantity: 0}},
	}
	ev := EncodeProfile(p, time.Unix(1, 0))

	if _, ok := ev.TagValue("name"); ok {
		t.Fatal("empty name must not be encoded")
	}
	if len(ev.TagsNamed("item")) != 0 {
		t.Fatal("zero-quantity entries must not be encoded")
	}
	// Coins is always present, even at zero.
	if v, ok := ev.TagValue("coins"); !ok || v != "0" {
		t.Fatalf("coins tag: got %q, %v", v, ok)
	}
}

func TestValid_WrongKind(t *testing.T) {
	t.Parallel()
	pet := event.Event{Kind: event.KindOwnerProfile, Tags: validPetTags("p1")}
	if ValidPetEvent(&pet) {
		t.Fatal("profile kind must not validate as pet")
	}
	prof := event.Event{Kind: event.KindPetState, Tags: [][]string{{"d", "profile"}}}
	if ValidProfileEvent(&prof) {
		t.Fatal("pet kind must not validate as profile")
	}
	if ValidPetEvent(nil) || ValidProfileEvent(nil) {
		t.Fatal("nil events must not validate")
	}
}
