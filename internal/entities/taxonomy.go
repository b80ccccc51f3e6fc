package entities

type TaxonomyKind string

const (
	// TaxonomyHierarchical terms form a parent/child tree (categories).
	TaxonomyHierarchical TaxonomyKind = "hierarchical"
	// TaxonomyFlat terms have no parent relationship (tags).
	TaxonomyFlat TaxonomyKind = "flat"
)

// Category is a taxonomy node from the export. The source format uses the
// same term shape for both kinds; which collection a term appears in decides
// whether it is hierarchical.
type Category struct {
	SourceID    int64
	Slug        string
	Name        string
	Description string
	ParentSlug  string // slug of the parent term, "" for roots
	Kind        TaxonomyKind
}

// Tag is a flat taxonomy label attached directly to entries.
type Tag struct {
	SourceID    int64
	Slug        string
	Name        string
	Description string
}
