// Package effects holds the static item tables: stat deltas applied by care
// actions and coin prices for the shop catalog. Lookup only, no logic.
package effects

import (
	"strings"

	"github.com/blobbi/island/internal/errs"
	"github.com/blobbi/island/internal/model"
)

// Category is an item namespace. Canonical item IDs are category-prefixed
// ("food_apple"); inventories and catalogs may disagree on prefixing, so
// Resolve accepts both forms.
type Category string

const (
	CategoryFood Category = "food"
	CategoryToy  Category = "toy"
	CategoryCare Category = "care"
)

var categories = []Category{CategoryFood, CategoryToy, CategoryCare}

// Effect is one catalog entry: the stat deltas a single item applies and its
// shop price in coins.
type Effect struct {
	Category Category
	Delta    map[model.Stat]int
	Price    int
}

// Hand-tuned balance values; structure matters here, exact numbers do not.
var table = map[string]Effect{
	"food_apple": {
		Category: CategoryFood,
		Delta:    map[model.Stat]int{model.StatHunger: 15, model.StatEnergy: 5},
		Price:    5,
	},
	"food_fish": {
		Category: CategoryFood,
		Delta:    map[model.Stat]int{model.StatHunger: 25, model.StatHealth: 5},
		Price:    12,
	},
	"food_cookie": {
		Category: CategoryFood,
		Delta:    map[model.Stat]int{model.StatHunger: 10, model.StatHappiness: 10, model.StatHygiene: -5},
		Price:    8,
	},
	"food_sushi": {
		Category: CategoryFood,
		Delta:    map[model.Stat]int{model.StatHunger: 30, model.StatHappiness: 5, model.StatEnergy: 10},
		Price:    20,
	},
	"toy_ball": {
		Category: CategoryToy,
		Delta:    map[model.Stat]int{model.StatHappiness: 20, model.StatEnergy: -10},
		Price:    10,
	},
	"toy_frisbee": {
		Category: CategoryToy,
		Delta:    map[model.Stat]int{model.StatHappiness: 25, model.StatEnergy: -15, model.StatHunger: -5},
		Price:    15,
	},
	"toy_plushie": {
		Category: CategoryToy,
		Delta:    map[model.Stat]int{model.StatHappiness: 10, model.StatEnergy: 5},
		Price:    18,
	},
	"care_soap": {
		Category: CategoryCare,
		Delta:    map[model.Stat]int{model.StatHygiene: 30, model.StatHappiness: -5},
		Price:    6,
	},
	"care_medicine": {
		Category: CategoryCare,
		Delta:    map[model.Stat]int{model.StatHealth: 40, model.StatHappiness: -10},
		Price:    25,
	},
}

// Resolve maps an item identifier to its canonical ID and effect entry.
// Resolution order: exact match, then category prefix added, then prefix
// stripped. Unknown items are an error, never a silent no-op.
func Resolve(itemID string) (string, Effect, error) {
	if eff, ok := table[itemID]; ok {
		return itemID, eff, nil
	}
	for _, c := range categories {
		prefixed := string(c) + "_" + itemID
		if eff, ok := table[prefixed]; ok {
			return prefixed, eff, nil
		}
	}
	for _, c := range categories {
		prefix := string(c) + "_"
		if bare, found := strings.CutPrefix(itemID, prefix); found {
			if eff, ok := table[bare]; ok {
				return bare, eff, nil
			}
		}
	}
	return "", Effect{}, &errs.UnknownItemError{ItemID: itemID}
}

// Items returns all canonical item IDs (for catalog listings).
func Items() []string {
	out := make([]string, 0, len(table))
	for id := range table {
		out = append(out, id)
	}
	return out
}
