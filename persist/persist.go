// Package persist stores canvas boards outside the process.
//
// A board is a named set of blocks plus their z-order. Backends implement
// [Backend]; a [Syncer] subscribes to a canvas store and pushes every
// mutation to a backend as it happens.
//
// Available backends:
//   - diskv: one JSON file per block under a base directory (default ~/.canopy)
//   - redis: a hash of blocks and a list for z-order per board
//   - mongo: one document per block plus an order document per board
//   - memory: in-process, for tests and throwaway sessions
package persist

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/phanxgames/canopy"
)

// Sentinel errors.
var (
	// ErrNotFound is returned by Load for a board that has never been saved.
	ErrNotFound = errors.New("persist: board not found")

	// ErrInvalidBoard is returned for board names that cannot be used as
	// storage keys.
	ErrInvalidBoard = errors.New("persist: invalid board name")
)

// DefaultBoard is the board used when none is named.
const DefaultBoard = "default"

// Backend is the persistence contract. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Load returns the board's blocks in z-order, bottom first.
	Load(ctx context.Context, board string) ([]canopy.Block, error)
	// Put inserts or replaces one block.
	Put(ctx context.Context, board string, b canopy.Block) error
	// Delete removes blocks by id. Unknown ids are ignored.
	Delete(ctx context.Context, board string, ids ...canopy.BlockID) error
	// SaveOrder records the board's z-order.
	SaveOrder(ctx context.Context, board string, order []canopy.BlockID) error
	// Boards lists every stored board name, sorted.
	Boards(ctx context.Context) ([]string, error)
	// Close releases connections held by the backend.
	Close() error
}

var boardName = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// ValidateBoard checks that name is usable as a board key.
func ValidateBoard(name string) error {
	if !boardName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidBoard, name)
	}
	return nil
}

// arrange orders blocks by the saved z-order. Blocks missing from order
// follow, oldest first, so nothing stored is ever dropped.
func arrange(blocks map[canopy.BlockID]canopy.Block, order []canopy.BlockID) []canopy.Block {
	out := make([]canopy.Block, 0, len(blocks))
	placed := make(map[canopy.BlockID]bool, len(blocks))
	for _, id := range order {
		b, ok := blocks[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		out = append(out, b)
	}
	var rest []canopy.Block
	for id, b := range blocks {
		if !placed[id] {
			rest = append(rest, b)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].CreatedAt.Equal(rest[j].CreatedAt) {
			return rest[i].ID < rest[j].ID
		}
		return rest[i].CreatedAt.Before(rest[j].CreatedAt)
	})
	return append(out, rest...)
}
