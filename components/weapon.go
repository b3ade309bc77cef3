package components

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
)

// WeaponClass groups weapons for indexing.
type WeaponClass uint8

const (
	WeaponCannon WeaponClass = iota
	WeaponMissile
	WeaponBeam
)

func (c WeaponClass) String() string {
	switch c {
	case WeaponCannon:
		return "cannon"
	case WeaponMissile:
		return "missile"
	case WeaponBeam:
		return "beam"
	}
	return fmt.Sprintf("weapon(%d)", c)
}

// ParseWeaponClass maps a class name to its value.
func ParseWeaponClass(s string) (WeaponClass, error) {
	switch s {
	case "cannon", "":
		return WeaponCannon, nil
	case "missile":
		return WeaponMissile, nil
	case "beam":
		return WeaponBeam, nil
	}
	return 0, fmt.Errorf("unknown weapon class %q", s)
}

// Weapon is a weapon entity mounted on a craft.
type Weapon struct {
	Craft           ecs.Entity
	Class           WeaponClass
	Cooldown        float64
	LastActivated   float64
	Fired           bool // has fired at least once
	ProjectileSpeed float64
}

// CanActivate reports whether the cooldown has elapsed at time now.
func (w *Weapon) CanActivate(now float64) bool {
	return !w.Fired || now-w.LastActivated >= w.Cooldown
}

// Activate records a shot at time now.
func (w *Weapon) Activate(now float64) {
	w.LastActivated = now
	w.Fired = true
}
