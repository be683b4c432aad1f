package notion

import (
	"context"
	"log"
	"os"
)

// Debug enables request tracing to stderr.
var Debug = os.Getenv("NOTION_DEBUG") == "1"

func debugf(format string, args ...any) {
	if Debug {
		log.Printf("[notion] "+format, args...)
	}
}

const (
	defaultMaxDepth = 8
	// probeDepthLimit caps how deep the has_children inconsistency probe
	// reaches; below that the extra requests aren't worth it.
	probeDepthLimit = 3
)

// FetchOptions controls recursive block fetching.
type FetchOptions struct {
	// MaxDepth limits recursion. Zero means the default of 8.
	MaxDepth int
	// ProbeContainers re-checks container blocks that report
	// has_children=false, which the API sometimes gets wrong.
	ProbeContainers bool
}

// containerType covers blocks that can nest children even when the API
// reports otherwise.
func containerType(t BlockType) bool {
	switch t {
	case TypeParagraph, TypeHeading1, TypeHeading2, TypeHeading3,
		TypeBulletedListItem, TypeNumberedListItem, TypeToggle:
		return true
	}
	return false
}

// FetchDescendants lists every block under root in document order, each
// child followed by its own descendants. Synced blocks and child pages are
// listed but not descended into. A failure on the root listing is fatal;
// failures deeper down skip that subtree and keep going.
func (c *Client) FetchDescendants(ctx context.Context, rootID string, opts FetchOptions) ([]Block, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	var out []Block
	if err := c.fetchLevel(ctx, rootID, 0, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) fetchLevel(ctx context.Context, blockID string, depth int, opts FetchOptions, out *[]Block) error {
	if depth >= opts.MaxDepth {
		return nil
	}
	children, err := c.ListAllChildren(ctx, blockID)
	if err != nil {
		return err
	}
	for _, child := range children {
		*out = append(*out, child)

		descend := child.HasChildren &&
			child.Type != TypeSyncedBlock &&
			child.Type != TypeChildPage &&
			child.Type != TypeChildDatabase
		probe := opts.ProbeContainers && !child.HasChildren &&
			containerType(child.Type) && depth < probeDepthLimit

		if !descend && !probe {
			continue
		}
		if err := c.fetchLevel(ctx, child.ID, depth+1, opts, out); err != nil {
			if ctx.Err() != nil {
				return err
			}
			debugf("skipping children of %s (%s): %v", child.ID, child.Type, err)
		}
	}
	return nil
}
