package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpmigrate/internal/entities"
)

type fakeNode struct {
	id        int64
	container int64
	code      string
	name      string
	left      int
	right     int
	status    string
}

// memWriter is an in-memory CategoryWriter with the same bounds semantics
// the SQL stores implement.
type memWriter struct {
	nodes       []*fakeNode
	nextID      int64
	failInserts map[string]bool
	maxRightErr error
}

func newMemWriter() *memWriter {
	return &memWriter{failInserts: map[string]bool{}}
}

func (w *memWriter) seed(container int64, code string, left, right int, status string) *fakeNode {
	w.nextID++
	n := &fakeNode{id: w.nextID, container: container, code: code, left: left, right: right, status: status}
	w.nodes = append(w.nodes, n)
	return n
}

func (w *memWriter) FindByCode(_ context.Context, container int64, code string) (*Node, error) {
	for _, n := range w.nodes {
		if n.container == container && n.code == code {
			return &Node{ID: n.id, Code: n.code, Left: n.left, Right: n.right, Status: n.status}, nil
		}
	}
	return nil, nil
}

func (w *memWriter) MaxRight(_ context.Context, container int64) (int, error) {
	if w.maxRightErr != nil {
		return 0, w.maxRightErr
	}
	max := 0
	for _, n := range w.nodes {
		if n.container == container && n.right > max {
			max = n.right
		}
	}
	return max, nil
}

func (w *memWriter) OpenGap(_ context.Context, container int64, at int) error {
	for _, n := range w.nodes {
		if n.container != container {
			continue
		}
		if n.left >= at {
			n.left += 2
		}
		if n.right >= at {
			n.right += 2
		}
	}
	return nil
}

func (w *memWriter) Insert(_ context.Context, nn NewNode) (int64, error) {
	if w.failInserts[nn.Code] {
		return 0, errors.New("synthetic insert failure")
	}
	w.nextID++
	w.nodes = append(w.nodes, &fakeNode{
		id:        w.nextID,
		container: nn.ContainerID,
		code:      nn.Code,
		name:      nn.Name,
		left:      nn.Left,
		right:     nn.Right,
		status:    nn.Status,
	})
	return w.nextID, nil
}

func (w *memWriter) NodeStatus(_ context.Context, id int64) (string, error) {
	for _, n := range w.nodes {
		if n.id == id {
			return n.status, nil
		}
	}
	return "", fmt.Errorf("no node %d", id)
}

func (w *memWriter) byCode(code string) *fakeNode {
	for _, n := range w.nodes {
		if n.code == code {
			return n
		}
	}
	return nil
}

// assertNestedIntervals checks the structural invariant: every pair of
// nodes in a container is either disjoint or strictly nested.
func assertNestedIntervals(t *testing.T, nodes []*fakeNode) {
	t.Helper()
	for i, a := range nodes {
		require.Less(t, a.left, a.right, "node %q has inverted bounds", a.code)
		for j, b := range nodes {
			if i == j || a.container != b.container {
				continue
			}
			disjoint := a.right < b.left || b.right < a.left
			aInB := b.left < a.left && a.right < b.right
			bInA := a.left < b.left && b.right < a.right
			assert.True(t, disjoint || aInB || bInA,
				"nodes %q(%d,%d) and %q(%d,%d) overlap",
				a.code, a.left, a.right, b.code, b.left, b.right)
		}
	}
}

func cat(id int64, slug, parent string) entities.Category {
	return entities.Category{
		SourceID:   id,
		Slug:       slug,
		Name:       slug,
		ParentSlug: parent,
		Kind:       entities.TaxonomyHierarchical,
	}
}

func TestOrderPlacesParentsFirst(t *testing.T) {
	out := Order([]entities.Category{
		cat(3, "grandchild", "child"),
		cat(1, "root", ""),
		cat(2, "child", "root"),
	})
	require.Len(t, out, 3)

	pos := map[string]int{}
	for i, c := range out {
		pos[c.Slug] = i
	}
	assert.Less(t, pos["root"], pos["child"])
	assert.Less(t, pos["child"], pos["grandchild"])
}

func TestOrderTreatsUnknownParentAsRoot(t *testing.T) {
	out := Order([]entities.Category{cat(1, "stray", "never-exported")})
	require.Len(t, out, 1)
	assert.Equal(t, "never-exported", out[0].ParentSlug, "parent reference is kept, resolution happens later")
}

func TestOrderAppendsCyclesAsRoots(t *testing.T) {
	out := Order([]entities.Category{
		cat(1, "a", "b"),
		cat(2, "b", "a"),
		cat(3, "solo", ""),
	})
	require.Len(t, out, 3)
	assert.Equal(t, "solo", out[0].Slug)
	assert.Empty(t, out[1].ParentSlug, "cycle members lose their parent reference")
	assert.Empty(t, out[2].ParentSlug)
}

func TestMaterializeFirstNodeGetsUnitBounds(t *testing.T) {
	w := newMemWriter()
	res, err := NewBuilder(w).Materialize(context.Background(), []entities.Category{cat(1, "only", "")}, 7)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	n := w.byCode("only")
	require.NotNil(t, n)
	assert.Equal(t, 1, n.left)
	assert.Equal(t, 2, n.right)
	assert.Equal(t, DefaultStatus, n.status)
	assert.Equal(t, n.id, res.IDMap[1])
}

func TestMaterializeBuildsNestedTree(t *testing.T) {
	w := newMemWriter()
	cats := []entities.Category{
		cat(1, "guides", ""),
		cat(2, "city", "guides"),
		cat(3, "food", "city"),
		cat(4, "tips", ""),
		cat(5, "budget", "guides"),
	}

	res, err := NewBuilder(w).Materialize(context.Background(), cats, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Created)
	assert.Zero(t, res.Failed)
	require.Len(t, res.IDMap, 5)

	bounds := func(code string) (int, int) {
		n := w.byCode(code)
		require.NotNil(t, n, code)
		return n.left, n.right
	}
	gl, gr := bounds("guides")
	cl, cr := bounds("city")
	fl, fr := bounds("food")
	bl, br := bounds("budget")
	tl, tr := bounds("tips")

	assert.Equal(t, [2]int{1, 8}, [2]int{gl, gr})
	assert.Equal(t, [2]int{2, 5}, [2]int{cl, cr})
	assert.Equal(t, [2]int{3, 4}, [2]int{fl, fr})
	assert.Equal(t, [2]int{6, 7}, [2]int{bl, br})
	assert.Equal(t, [2]int{9, 10}, [2]int{tl, tr})

	assertNestedIntervals(t, w.nodes)
}

func TestMaterializeReusesExistingCode(t *testing.T) {
	w := newMemWriter()
	seeded := w.seed(7, "guides", 1, 2, "hidden")

	res, err := NewBuilder(w).Materialize(context.Background(), []entities.Category{
		cat(1, "guides", ""),
		cat(2, "city", "guides"),
	}, 7)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Reused)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, seeded.id, res.IDMap[1])
	require.Len(t, w.nodes, 2, "no duplicate node for the reused code")

	child := w.byCode("city")
	require.NotNil(t, child)
	assert.Equal(t, "hidden", child.status, "children inherit the parent status")
	assert.Greater(t, child.left, seeded.left)
	assert.Less(t, child.right, seeded.right)
	assertNestedIntervals(t, w.nodes)
}

func TestMaterializeSuffixesRepeatedCodes(t *testing.T) {
	w := newMemWriter()
	cats := []entities.Category{
		{SourceID: 1, Slug: "uber", Name: "Uber", Kind: entities.TaxonomyHierarchical},
		{SourceID: 2, Slug: "uber", Name: "Über", Kind: entities.TaxonomyHierarchical},
	}

	res, err := NewBuilder(w).Materialize(context.Background(), cats, 7)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Created)
	assert.NotNil(t, w.byCode("uber"))
	assert.NotNil(t, w.byCode("uber_1"))
	assert.NotEqual(t, res.IDMap[1], res.IDMap[2])
}

func TestMaterializeNodeFailureFallsBackToRoot(t *testing.T) {
	w := newMemWriter()
	w.failInserts["broken"] = true

	res, err := NewBuilder(w).Materialize(context.Background(), []entities.Category{
		cat(1, "broken", ""),
		cat(2, "child", "broken"),
	}, 7)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Created)
	_, mapped := res.IDMap[1]
	assert.False(t, mapped, "failed node must not appear in the id map")

	child := w.byCode("child")
	require.NotNil(t, child)
	assert.Equal(t, 1, child.left)
	assert.Equal(t, 2, child.right)
	assertNestedIntervals(t, w.nodes)
}

func TestMaterializeEmptyInput(t *testing.T) {
	w := newMemWriter()
	w.maxRightErr = errors.New("unreachable")

	res, err := NewBuilder(w).Materialize(context.Background(), nil, 7)
	require.NoError(t, err, "empty input must not touch the store")
	assert.Empty(t, res.IDMap)
}

func TestMaterializeAbortsWhenContainerUnreadable(t *testing.T) {
	w := newMemWriter()
	w.maxRightErr = errors.New("connection refused")

	_, err := NewBuilder(w).Materialize(context.Background(), []entities.Category{cat(1, "x", "")}, 7)
	require.Error(t, err)
}
