package enhance

import (
	"context"
	"errors"

	"github.com/samsaffron/notion-llm/internal/notion"
)

// Outcome classifies a block lookup during the ancestor walk.
type Outcome int

const (
	Found Outcome = iota
	NotFound
	TransientError
)

// BlockSource is the client surface the guard needs for live checks.
type BlockSource interface {
	RetrieveBlock(ctx context.Context, blockID string) (*notion.Block, error)
}

// Guard decides whether a block is synced content or sits anywhere under a
// synced block. Synced blocks mirror shared content across pages, so a
// write through one copy corrupts every other.
type Guard struct {
	source BlockSource
	cached map[string]*notion.Block
}

// NewGuard builds a guard over a page snapshot. The snapshot answers
// ancestry cheaply; the live check before each write goes to the API.
func NewGuard(source BlockSource, snapshot []notion.Block) *Guard {
	cached := make(map[string]*notion.Block, len(snapshot))
	for i := range snapshot {
		if id := snapshot[i].ID; id != "" {
			cached[id] = &snapshot[i]
		}
	}
	return &Guard{source: source, cached: cached}
}

// lookup wraps a block retrieval in the walk's three-way outcome so callers
// branch on the shape of the failure instead of matching error strings.
func (g *Guard) lookup(ctx context.Context, blockID string) (*notion.Block, Outcome, error) {
	block, err := g.source.RetrieveBlock(ctx, blockID)
	switch {
	case err == nil:
		return block, Found, nil
	case errors.Is(err, notion.ErrNotFound):
		return nil, NotFound, err
	default:
		return nil, TransientError, err
	}
}

// CachedProtected climbs the parent chain through the snapshot alone. An
// ancestor missing from the snapshot ends the climb unprotected; the live
// check before the write has the final say.
func (g *Guard) CachedProtected(block *notion.Block) bool {
	if block == nil {
		return false
	}
	if block.Type == notion.TypeSyncedBlock {
		return true
	}
	parent := block.Parent
	for parent != nil && parent.Type == "block_id" && parent.BlockID != "" {
		ancestor := g.cached[parent.BlockID]
		if ancestor == nil {
			return false
		}
		if ancestor.Type == notion.TypeSyncedBlock {
			return true
		}
		parent = ancestor.Parent
	}
	return false
}

// LiveProtected re-checks the chain against the API immediately before a
// write, so a block moved under a synced container after the snapshot was
// taken still cannot be written. NotFound ends the climb unprotected. A
// transient failure returns the error; callers must skip the write rather
// than assume the chain is clean.
func (g *Guard) LiveProtected(ctx context.Context, block *notion.Block) (bool, error) {
	if block == nil {
		return false, nil
	}
	if block.Type == notion.TypeSyncedBlock {
		return true, nil
	}
	parent := block.Parent
	for parent != nil && parent.Type == "block_id" && parent.BlockID != "" {
		ancestor, outcome, err := g.lookup(ctx, parent.BlockID)
		switch outcome {
		case NotFound:
			return false, nil
		case TransientError:
			return false, err
		}
		if ancestor.Type == notion.TypeSyncedBlock {
			return true, nil
		}
		parent = ancestor.Parent
	}
	return false, nil
}
