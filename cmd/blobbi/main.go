// Command blobbi is a CLI client for the Blobbi Island virtual-pet service.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/blobbi/island/internal/effects"
	"github.com/blobbi/island/internal/identity"
	"github.com/blobbi/island/internal/model"
	"github.com/blobbi/island/internal/provider/relay"
	"github.com/blobbi/island/internal/session"
	"github.com/blobbi/island/internal/status"
)

// ---- config/key store ----

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "blobbi")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "blobbi")
}

func keyPath() string { return filepath.Join(cfgDir(), "key.bin") }

func saveSeed(seed []byte) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	return os.WriteFile(keyPath(), seed, 0o600)
}

func loadSeed() ([]byte, error) {
	return os.ReadFile(keyPath())
}

// keySalt binds the derived key to the username so different users on the
// same passphrase get different identities.
func keySalt(username string) []byte {
	sum := sha256.Sum256([]byte("blobbi-island:" + username))
	return sum[:]
}

func loadKeychain() (*identity.Keychain, error) {
	seed, err := loadSeed()
	if err != nil {
		return nil, fmt.Errorf("no key; login first")
	}
	return identity.FromSeed(seed), nil
}

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `blobbi CLI
Usage:
  blobbi -relay URL <cmd> [args]

Commands:
  version
  login      -u <username> -p <passphrase>   (derives and saves signing key)
  logout
  whoami
  init       -name <display name>            (creates owner profile)
  adopt      [-name <pet name>]
  status                                     (owner + current pet)
  pets                                       (playable roster)
  shop                                       (catalog)
  feed       -pet <id> -item <item> [-n <qty>]
  play       -pet <id> -item <item> [-n <qty>]
  groom      -pet <id> -item <item> [-n <qty>]
  buy        -item <item> [-n <qty>]
  companion  -pet <id>
`)
	os.Exit(2)
}

// newService builds a session service over the relay for the stored identity,
// with base state already refreshed.
func newService(ctx context.Context, relayURL string) (*session.ServiceImpl, error) {
	kc, err := loadKeychain()
	if err != nil {
		return nil, err
	}
	tuning := effects.DefaultTuning()
	prov := relay.NewClient(relayURL, tuning.QueryTimeout)
	svc := session.New(kc, prov, status.NewStore(), tuning, zap.NewNop())
	if err := svc.Refresh(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// petRow is the compact roster listing.
type petRow struct {
	ID         string `json:"id"`
	Stage      string `json:"stage"`
	Hunger     int    `json:"hunger"`
	Happiness  int    `json:"happiness"`
	Health     int    `json:"health"`
	Hygiene    int    `json:"hygiene"`
	Energy     int    `json:"energy"`
	Experience int    `json:"experience"`
	CareStreak int    `json:"care_streak"`
}

func toRow(p *model.PetState) petRow {
	return petRow{
		ID: p.ID, Stage: string(p.Stage),
		Hunger: p.Hunger, Happiness: p.Happiness, Health: p.Health,
		Hygiene: p.Hygiene, Energy: p.Energy,
		Experience: p.Experience, CareStreak: p.CareStreak,
	}
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the configured relay.
func main() {
	relayURL := flag.String("relay", "http://localhost:8080", "relay base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("blobbi %s (%s)\n", version, buildDate)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "passphrase")
		_ = fs.Parse(flag.Args()[1:])
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}
		kc := identity.FromPassphrase([]byte(*p), keySalt(*u))
		if err := saveSeed(kc.Seed()); err != nil {
			fail(err)
		}
		pub, _ := kc.PubKey()
		fmt.Println(pub)

	case "logout":
		if err := os.Remove(keyPath()); err != nil && !os.IsNotExist(err) {
			fail(err)
		}
		fmt.Println("ok")

	case "whoami":
		kc, err := loadKeychain()
		if err != nil {
			fail(err)
		}
		pub, _ := kc.PubKey()
		fmt.Println(pub)

	case "init":
		fs := flag.NewFlagSet("init", flag.ExitOnError)
		name := fs.String("name", "", "display name")
		_ = fs.Parse(flag.Args()[1:])
		svc, err := newService(ctx, *relayURL)
		if err != nil {
			fail(err)
		}
		if err := svc.CreateProfile(ctx, *name); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "adopt":
		fs := flag.NewFlagSet("adopt", flag.ExitOnError)
		name := fs.String("name", "", "pet name")
		_ = fs.Parse(flag.Args()[1:])
		svc, err := newService(ctx, *relayURL)
		if err != nil {
			fail(err)
		}
		petID, err := svc.AdoptPet(ctx, *name)
		if err != nil {
			fail(err)
		}
		fmt.Println(petID)

	case "status":
		svc, err := newService(ctx, *relayURL)
		if err != nil {
			fail(err)
		}
		st := svc.Status()
		out := map[string]any{}
		if st.Owner != nil {
			out["owner"] = map[string]any{
				"name":      st.Owner.Name,
				"coins":     st.Owner.Coins,
				"inventory": st.Owner.Inventory,
				"companion": st.Owner.CurrentCompanion,
			}
		}
		if st.CurrentPet != nil {
			out["current_pet"] = toRow(st.CurrentPet)
		}
		printJSON(out)

	case "pets":
		svc, err := newService(ctx, *relayURL)
		if err != nil {
			fail(err)
		}
		rows := []petRow{}
		for _, p := range svc.Status().AllPets {
			rows = append(rows, toRow(p))
		}
		printJSON(rows)

	case "shop":
		printJSON(effects.Items())

	case "feed", "play", "groom":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		pet := fs.String("pet", "", "pet id")
		item := fs.String("item", "", "item id")
		n := fs.Int("n", 1, "quantity")
		_ = fs.Parse(flag.Args()[1:])
		if *pet == "" || *item == "" {
			fmt.Fprintln(os.Stderr, "need -pet and -item")
			os.Exit(1)
		}
		svc, err := newService(ctx, *relayURL)
		if err != nil {
			fail(err)
		}
		switch cmd {
		case "feed":
			err = svc.Feed(ctx, *pet, *item, *n)
		case "play":
			err = svc.Play(ctx, *pet, *item, *n)
		case "groom":
			err = svc.Groom(ctx, *pet, *item, *n)
		}
		if err != nil {
			fail(err)
		}
		st := svc.Status()
		if p := st.Pet(*pet); p != nil {
			printJSON(toRow(p))
		}

	case "buy":
		fs := flag.NewFlagSet("buy", flag.ExitOnError)
		item := fs.String("item", "", "item id")
		n := fs.Int("n", 1, "quantity")
		_ = fs.Parse(flag.Args()[1:])
		if *item == "" {
			fmt.Fprintln(os.Stderr, "need -item")
			os.Exit(1)
		}
		svc, err := newService(ctx, *relayURL)
		if err != nil {
			fail(err)
		}
		if err := svc.Purchase(ctx, *item, *n); err != nil {
			fail(err)
		}
		if o := svc.Status().Owner; o != nil {
			printJSON(map[string]any{"coins": o.Coins, "inventory": o.Inventory})
		}

	case "companion":
		fs := flag.NewFlagSet("companion", flag.ExitOnError)
		pet := fs.String("pet", "", "pet id")
		_ = fs.Parse(flag.Args()[1:])
		if *pet == "" {
			fmt.Fprintln(os.Stderr, "need -pet")
			os.Exit(1)
		}
		svc, err := newService(ctx, *relayURL)
		if err != nil {
			fail(err)
		}
		if err := svc.SetCompanion(ctx, *pet); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}
