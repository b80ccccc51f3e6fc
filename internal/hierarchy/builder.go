package hierarchy

import (
	"context"
	"fmt"
	"log"

	"wpmigrate/internal/entities"
	"wpmigrate/internal/utils"
)

// DefaultStatus is assigned to roots and to children whose parent status
// cannot be determined.
const DefaultStatus = "published"

// Node is an existing category node at the destination.
type Node struct {
	ID     int64
	Code   string
	Left   int
	Right  int
	Status string
}

// NewNode describes a node to be inserted. Bounds are computed by the
// builder; the writer only applies them.
type NewNode struct {
	ContainerID int64
	SourceID    int64
	Code        string
	Name        string
	Description string
	Left        int
	Right       int
	Status      string
}

// CategoryWriter is what the builder needs from a destination store.
// Implementations are used from a single goroutine per run.
type CategoryWriter interface {
	// FindByCode returns the node with the given code inside the
	// container, or (nil, nil) when absent.
	FindByCode(ctx context.Context, containerID int64, code string) (*Node, error)
	// MaxRight returns the highest right bound in the container, 0 when
	// the container holds no nodes yet.
	MaxRight(ctx context.Context, containerID int64) (int, error)
	// OpenGap shifts every left/right bound >= at by +2, making room for
	// one node.
	OpenGap(ctx context.Context, containerID int64, at int) error
	Insert(ctx context.Context, n NewNode) (int64, error)
	// NodeStatus returns the effective status of a node, which the store
	// may derive rather than read verbatim.
	NodeStatus(ctx context.Context, id int64) (string, error)
}

// Result reports what one materialization did.
type Result struct {
	// IDMap maps source term ids to destination node ids, covering both
	// created and reused nodes.
	IDMap   map[int64]int64
	Created int
	Reused  int
	Failed  int
}

// Builder materializes category trees. One run's bounds bookkeeping lives
// in Materialize locals, so a Builder can be reused across runs.
type Builder struct {
	writer CategoryWriter
}

func NewBuilder(w CategoryWriter) *Builder {
	return &Builder{writer: w}
}

// placement tracks a node this run has created or adopted, with live
// bounds that follow each opened gap.
type placement struct {
	id     int64
	left   int
	right  int
	status string
}

// Materialize orders the categories and writes them into the container.
// A code collision with a pre-existing node is identity: the node is
// reused. A collision with a code this run already claimed gets a numeric
// suffix. A single node failure is logged and skipped; its children fall
// back to root placement.
func (b *Builder) Materialize(ctx context.Context, cats []entities.Category, containerID int64) (*Result, error) {
	res := &Result{IDMap: make(map[int64]int64, len(cats))}
	if len(cats) == 0 {
		return res, nil
	}

	maxRight, err := b.writer.MaxRight(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read container %d bounds: %w", containerID, err)
	}

	placedBySlug := make(map[string]*placement, len(cats))
	claimedCodes := make(map[string]bool, len(cats))

	for _, cat := range Order(cats) {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		code := cat.Slug
		if claimedCodes[code] {
			code = utils.GenerateUniqueCode(code, func(c string) bool {
				if claimedCodes[c] {
					return true
				}
				n, err := b.writer.FindByCode(ctx, containerID, c)
				return err == nil && n != nil
			})
		} else {
			existing, err := b.writer.FindByCode(ctx, containerID, code)
			if err != nil {
				b.fail(res, cat, err)
				continue
			}
			if existing != nil {
				res.IDMap[cat.SourceID] = existing.ID
				res.Reused++
				claimedCodes[code] = true
				if _, dup := placedBySlug[cat.Slug]; !dup {
					placedBySlug[cat.Slug] = &placement{
						id:     existing.ID,
						left:   existing.Left,
						right:  existing.Right,
						status: existing.Status,
					}
				}
				continue
			}
		}

		var parent *placement
		if cat.ParentSlug != "" {
			parent = placedBySlug[cat.ParentSlug]
		}

		var left, right int
		status := DefaultStatus
		if parent == nil {
			left, right = maxRight+1, maxRight+2
		} else {
			at := parent.right
			if err := b.writer.OpenGap(ctx, containerID, at); err != nil {
				b.fail(res, cat, err)
				continue
			}
			// The gap shifted stored bounds; mirror it in ours.
			for _, p := range placedBySlug {
				if p.left >= at {
					p.left += 2
				}
				if p.right >= at {
					p.right += 2
				}
			}
			maxRight += 2
			left, right = at, at+1
			status = b.inheritedStatus(ctx, parent)
		}

		id, err := b.writer.Insert(ctx, NewNode{
			ContainerID: containerID,
			SourceID:    cat.SourceID,
			Code:        code,
			Name:        cat.Name,
			Description: cat.Description,
			Left:        left,
			Right:       right,
			Status:      status,
		})
		if err != nil {
			b.fail(res, cat, err)
			continue
		}
		if parent == nil {
			maxRight += 2
		}

		res.IDMap[cat.SourceID] = id
		res.Created++
		claimedCodes[code] = true
		if _, dup := placedBySlug[cat.Slug]; !dup {
			placedBySlug[cat.Slug] = &placement{id: id, left: left, right: right, status: status}
		}
	}
	return res, nil
}

func (b *Builder) fail(res *Result, cat entities.Category, err error) {
	res.Failed++
	log.Printf("hierarchy: failed to place category %q (source id %d): %v", cat.Slug, cat.SourceID, err)
}

func (b *Builder) inheritedStatus(ctx context.Context, parent *placement) string {
	s, err := b.writer.NodeStatus(ctx, parent.id)
	if err != nil || s == "" {
		if parent.status != "" {
			return parent.status
		}
		return DefaultStatus
	}
	return s
}
