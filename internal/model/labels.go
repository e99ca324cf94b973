// Package model defines the core domain models used throughout the application.
package model

import "fmt"

// Orientation describes how a diamond sits on the tray.
type Orientation string

// Orientation values. The set is closed and binary: a rejected orientation
// prediction can always be defaulted to the other value.
const (
	OrientationTable  Orientation = "table"
	OrientationTilted Orientation = "tilted"
)

// Flipped returns the other orientation value.
func (o Orientation) Flipped() Orientation {
	if o == OrientationTable {
		return OrientationTilted
	}
	return OrientationTable
}

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	return o == OrientationTable || o == OrientationTilted
}

// ParseOrientation converts user or wire input into an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	o := Orientation(s)
	if !o.Valid() {
		return "", fmt.Errorf("invalid orientation %q (expected table or tilted)", s)
	}
	return o, nil
}

// DiamondType is the detected cut category of a stone.
type DiamondType string

// Diamond type values. Unlike orientation this set has three members, so a
// rejected type prediction always needs an explicit correction from the operator.
const (
	TypeRound   DiamondType = "round"
	TypeEmerald DiamondType = "emerald"
	TypeOther   DiamondType = "other"
)

// Valid reports whether t is a known diamond type.
func (t DiamondType) Valid() bool {
	return t == TypeRound || t == TypeEmerald || t == TypeOther
}

// ParseDiamondType converts user or wire input into a DiamondType.
func ParseDiamondType(s string) (DiamondType, error) {
	t := DiamondType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid diamond type %q (expected round, emerald or other)", s)
	}
	return t, nil
}
