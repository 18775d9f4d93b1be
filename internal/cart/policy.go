package cart

import (
	"fmt"
	"strings"
)

// MergePolicy decides what happens to guest lines when a user signs in.
type MergePolicy int

const (
	// MergeGuestCart pushes every guest line to the server cart.
	MergeGuestCart MergePolicy = iota
	// ReplaceWithServer discards guest lines and reports them as discarded.
	ReplaceWithServer
	// KeepGuestCart refuses to sign in the cart while guest lines exist.
	KeepGuestCart
)

func (p MergePolicy) String() string {
	switch p {
	case ReplaceWithServer:
		return "replace"
	case KeepGuestCart:
		return "keep"
	}
	return "merge"
}

func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "merge":
		return MergeGuestCart, nil
	case "replace":
		return ReplaceWithServer, nil
	case "keep":
		return KeepGuestCart, nil
	}
	return MergeGuestCart, fmt.Errorf("unknown cart merge policy %q", s)
}
