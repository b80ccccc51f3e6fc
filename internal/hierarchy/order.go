// Package hierarchy turns the flat category list of an export into a
// nested-interval tree at the destination: parents are placed before
// children, bounds are computed locally and applied through a small
// writer interface the destination stores implement.
package hierarchy

import (
	"log"

	"wpmigrate/internal/entities"
)

// Order sorts categories so every node appears after its parent. Nodes
// whose parent is not part of the set count as roots. The scan is bounded
// at twice the node count; anything still unplaced then is part of an
// unresolved parent chain (a cycle) and is appended as a root instead of
// being dropped.
func Order(cats []entities.Category) []entities.Category {
	inSet := make(map[string]bool, len(cats))
	for _, c := range cats {
		inSet[c.Slug] = true
	}

	ordered := make([]entities.Category, 0, len(cats))
	placed := make(map[string]bool, len(cats))
	remaining := append([]entities.Category(nil), cats...)

	for pass := 0; pass < 2*len(cats) && len(remaining) > 0; pass++ {
		next := remaining[:0:0]
		progressed := false
		for _, c := range remaining {
			if c.ParentSlug == "" || !inSet[c.ParentSlug] || placed[c.ParentSlug] {
				ordered = append(ordered, c)
				placed[c.Slug] = true
				progressed = true
				continue
			}
			next = append(next, c)
		}
		remaining = next
		if !progressed {
			break
		}
	}

	for _, c := range remaining {
		log.Printf("hierarchy: unresolved parent chain for category %q (parent %q), placing at root", c.Slug, c.ParentSlug)
		c.ParentSlug = ""
		ordered = append(ordered, c)
	}
	return ordered
}
