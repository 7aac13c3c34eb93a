// Package rewards maps promotions to one-time rewards and hands them out
// through the host.
package rewards

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/ranks/internal/domain/tiers"
)

// Item is an inventory grant.
type Item struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

func (i Item) String() string { return fmt.Sprintf("%s x%d", i.Name, i.Amount) }

// Effect is a status effect grant. A zero Duration is permanent.
type Effect struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Duration  time.Duration `json:"duration"`
	Amplifier int           `json:"amplifier"`
}

// Permanent reports whether the effect never expires.
func (e Effect) Permanent() bool { return e.Duration <= 0 }

func (e Effect) String() string {
	if e.Permanent() {
		return e.Name + " (permanent)"
	}
	return fmt.Sprintf("%s (%s)", e.Name, e.Duration)
}

// Reward is everything granted for reaching one label.
type Reward struct {
	Items   []Item
	Effects []Effect
}

// Empty reports whether the reward grants nothing.
func (r Reward) Empty() bool { return len(r.Items) == 0 && len(r.Effects) == 0 }

// Describe lists the reward parts, e.g. "Diamond Sword x1, Strength (10m0s)".
func (r Reward) Describe() string {
	parts := make([]string, 0, len(r.Items)+len(r.Effects))
	for _, it := range r.Items {
		parts = append(parts, it.String())
	}
	for _, ef := range r.Effects {
		parts = append(parts, ef.String())
	}
	return strings.Join(parts, ", ")
}

type key struct {
	stat  tiers.Stat
	label string
}

// Catalog is the fixed (stat, label) -> reward table.
type Catalog struct {
	entries map[key]Reward
}

// DefaultCatalog returns the shipped reward table. Tier-zero labels grant
// nothing.
func DefaultCatalog() *Catalog {
	c := &Catalog{entries: make(map[key]Reward)}
	c.set(tiers.MobKills, "Slayer", Reward{
		Items: []Item{{ID: "minecraft:iron_sword", Name: "Iron Sword", Amount: 1}},
	})
	c.set(tiers.MobKills, "Beastmaster", Reward{
		Items:   []Item{{ID: "minecraft:diamond_sword", Name: "Diamond Sword", Amount: 1}},
		Effects: []Effect{{ID: "minecraft:strength", Name: "Strength", Duration: 10 * time.Minute}},
	})
	c.set(tiers.PlayerKills, "Warrior", Reward{
		Items: []Item{{ID: "minecraft:shield", Name: "Shield", Amount: 1}},
	})
	c.set(tiers.PlayerKills, "Champion", Reward{
		Items:   []Item{{ID: "minecraft:totem_of_undying", Name: "Totem of Undying", Amount: 1}},
		Effects: []Effect{{ID: "minecraft:resistance", Name: "Resistance"}},
	})
	c.set(tiers.OresMined, "Excavator", Reward{
		Items: []Item{{ID: "minecraft:iron_pickaxe", Name: "Iron Pickaxe", Amount: 1}},
	})
	c.set(tiers.OresMined, "Prospector", Reward{
		Items:   []Item{{ID: "minecraft:diamond_pickaxe", Name: "Diamond Pickaxe", Amount: 1}},
		Effects: []Effect{{ID: "minecraft:haste", Name: "Haste"}},
	})
	return c
}

func (c *Catalog) set(s tiers.Stat, label string, r Reward) {
	c.entries[key{s, label}] = r
}

// Lookup returns the reward for (s, label) and whether one is mapped.
func (c *Catalog) Lookup(s tiers.Stat, label string) (Reward, bool) {
	r, ok := c.entries[key{s, label}]
	return r, ok
}
