package strimg

import (
	"errors"
	"fmt"
)

// Sentinel errors for strimg.
var (
	// ErrInvalidStyle is returned when a style cannot be parsed or fails
	// validation (unknown key, bad color, non-positive size, ...).
	ErrInvalidStyle = errors.New("strimg: invalid style")

	// ErrMissingEntry is returned when a fragment still has no cache entry
	// after Resolve populated the misses. It signals an internal invariant
	// violation and should not occur in correct operation.
	ErrMissingEntry = errors.New("strimg: no cache entry for fragment")

	// ErrUnknownFamily is returned when no loaded font matches the
	// requested family.
	ErrUnknownFamily = errors.New("strimg: no font loaded for family")

	// ErrCodec is returned when dictionary data cannot be decoded.
	ErrCodec = errors.New("strimg: bad dictionary data")
)

// DimensionError is returned by Compose when entries within a grid row do
// not share the same pixel height.
type DimensionError struct {
	Row, Col  int
	Got, Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("strimg: entry at row %d col %d is %dpx tall, row height is %dpx",
		e.Row, e.Col, e.Got, e.Want)
}

// SlotError is returned by Compose when a grid slot references no cache
// entry.
type SlotError struct {
	Row, Col int
	Slot     int
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("strimg: slot %d at row %d col %d is out of range", e.Slot, e.Row, e.Col)
}
