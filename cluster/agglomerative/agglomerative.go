// Package agglomerative implements bottom-up hierarchical clustering.
//
// Every point starts as its own cluster. Each step scans all live cluster pairs, merges
// the closest one into a new node and repeats until a single root remains, giving a binary
// merge tree of 2n-1 nodes stored in an arena: ids 0..n-1 are the leaves (the point
// indices) and ids n..2n-2 are internal nodes in creation order.
//
// Pairwise distances are cached by node-id pair. Leaf pairs are computed up front, which
// makes construction O(n²) in memory and O(n³) in time; it suits a few thousand points.
package agglomerative

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/hupe1980/clusterkit/cluster"
	"github.com/hupe1980/clusterkit/index"
	"github.com/hupe1980/clusterkit/resource"
	"github.com/hupe1980/clusterkit/vector"
)

// Compile-time check to ensure Hierarchy satisfies cluster.Result.
var _ cluster.Result = (*Hierarchy)(nil)

// cacheEntryBytes approximates the cost of one distance cache entry including map overhead.
const cacheEntryBytes = 48

// Options contains configuration options for hierarchical clustering.
type Options struct {
	// Logger receives progress. Nil disables logging.
	Logger *slog.Logger

	// Resource, when set, must admit the estimated size of the distance cache
	// before the precompute starts.
	Resource *resource.Controller
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{}

// Node is one entry of the merge tree arena.
// Leaves have Left == Right == -1 and ID equal to their point index.
type Node struct {
	ID     int
	Left   int
	Right  int
	Size   int     // number of leaves below the node
	Height float64 // linkage distance at which the node was formed, 0 for leaves
}

// IsLeaf reports whether the node is a single point.
func (n Node) IsLeaf() bool { return n.Left < 0 }

// Merge records one agglomeration step.
type Merge struct {
	Left     int
	Right    int
	ID       int
	Distance float64
	Size     int
}

// Hierarchy is the result of agglomerative clustering.
type Hierarchy struct {
	points  index.PointSet
	linkage Linkage
	nodes   []Node
}

// New clusters the points of ps with the given linkage.
func New(ps index.PointSet, linkage Linkage, optFns ...func(o *Options)) (*Hierarchy, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if !linkage.Valid() {
		return nil, &cluster.ErrInvalidParameter{Name: "linkage", Value: linkage}
	}
	if ps == nil || ps.Len() == 0 {
		return nil, index.ErrEmptyInput
	}

	n := ps.Len()
	pairs := int64(n) * int64(n-1) / 2
	reserved := 2 * pairs * cacheEntryBytes
	if err := opts.Resource.TryAcquireMemory(reserved); err != nil {
		return nil, fmt.Errorf("distance cache for %d points: %w", n, err)
	}
	defer opts.Resource.ReleaseMemory(reserved)

	b, err := newBuilder(ps, linkage)
	if err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.Info("building hierarchy", "n", n, "linkage", linkage.String(), "pairs", pairs)
	}

	b.precompute()
	b.run(opts.Logger)

	if opts.Logger != nil {
		opts.Logger.Info("hierarchy built", "nodes", len(b.nodes), "cached_distances", len(b.distances))
	}

	return &Hierarchy{
		points:  ps,
		linkage: linkage,
		nodes:   b.nodes,
	}, nil
}

// NewWithContext is New with the distance cache reservation waiting on ctx
// instead of failing when the memory limit is temporarily exhausted.
func NewWithContext(ctx context.Context, ps index.PointSet, linkage Linkage, optFns ...func(o *Options)) (*Hierarchy, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if !linkage.Valid() {
		return nil, &cluster.ErrInvalidParameter{Name: "linkage", Value: linkage}
	}
	if ps == nil || ps.Len() == 0 {
		return nil, index.ErrEmptyInput
	}

	n := int64(ps.Len())
	reserved := n * (n - 1) * cacheEntryBytes
	if err := opts.Resource.AcquireMemory(ctx, reserved); err != nil {
		return nil, fmt.Errorf("distance cache for %d points: %w", n, err)
	}
	defer opts.Resource.ReleaseMemory(reserved)

	return New(ps, linkage, func(o *Options) {
		*o = opts
		o.Resource = nil
	})
}

// ClusterCount returns n: every point is reported as its own cluster at the finest cut.
func (h *Hierarchy) ClusterCount() int { return h.points.Len() }

// PointsInCluster returns the single point of leaf cluster i.
// Coarser groupings are available through Cut.
func (h *Hierarchy) PointsInCluster(i int) ([]vector.Vector, error) {
	if err := cluster.CheckCluster(i, h.points.Len()); err != nil {
		return nil, err
	}
	p, err := h.points.Point(i)
	if err != nil {
		return nil, err
	}
	return []vector.Vector{p}, nil
}

// Linkage returns the linkage the hierarchy was built with.
func (h *Hierarchy) Linkage() Linkage { return h.linkage }

// Root returns the root of the merge tree.
func (h *Hierarchy) Root() Node { return h.nodes[len(h.nodes)-1] }

// Node returns the arena entry with the given id.
func (h *Hierarchy) Node(id int) (Node, error) {
	if id < 0 || id >= len(h.nodes) {
		return Node{}, &index.ErrIndexOutOfRange{Index: id, Len: len(h.nodes)}
	}
	return h.nodes[id], nil
}

// Nodes returns a copy of the arena, leaves first, then internal nodes in creation order.
func (h *Hierarchy) Nodes() []Node { return slices.Clone(h.nodes) }

// Merges returns the n-1 agglomeration steps in the order they happened.
func (h *Hierarchy) Merges() []Merge {
	n := h.points.Len()
	merges := make([]Merge, 0, n-1)
	for _, node := range h.nodes[n:] {
		merges = append(merges, Merge{
			Left:     node.Left,
			Right:    node.Right,
			ID:       node.ID,
			Distance: node.Height,
			Size:     node.Size,
		})
	}
	return merges
}

// Leaves returns the point indices below node id, in ascending order.
func (h *Hierarchy) Leaves(id int) ([]int, error) {
	if _, err := h.Node(id); err != nil {
		return nil, err
	}
	leaves := collectLeaves(h.nodes, id, nil)
	slices.Sort(leaves)
	return leaves, nil
}

// Cut undoes the last c-1 merges and returns the remaining c subtrees as a flat
// partition. Clusters are numbered by their smallest point index.
func (h *Hierarchy) Cut(c int) (*cluster.Partition, error) {
	n := h.points.Len()
	if c < 1 || c > n {
		return nil, &cluster.ErrInvalidParameter{Name: "c", Value: c}
	}

	// Merges are undone newest first; each undone node is always still a subtree root.
	roots := []int{h.Root().ID}
	for k := 0; k < c-1; k++ {
		undo := len(h.nodes) - 1 - k
		i := slices.Index(roots, undo)
		node := h.nodes[undo]
		roots = slices.Delete(roots, i, i+1)
		roots = append(roots, node.Left, node.Right)
	}

	groups := make([][]int, len(roots))
	for i, r := range roots {
		groups[i] = collectLeaves(h.nodes, r, nil)
		slices.Sort(groups[i])
	}
	slices.SortFunc(groups, func(a, b []int) int { return a[0] - b[0] })

	labels := make([]int, n)
	for label, g := range groups {
		for _, p := range g {
			labels[p] = label
		}
	}

	return cluster.NewPartition(h.points, labels, c)
}

func collectLeaves(nodes []Node, id int, out []int) []int {
	stack := []int{id}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := nodes[top]
		if node.IsLeaf() {
			out = append(out, node.ID)
			continue
		}
		stack = append(stack, node.Right, node.Left)
	}
	return out
}

// builder holds the state that only lives during construction.
type builder struct {
	points    []vector.Vector
	linkage   Linkage
	nodes     []Node
	distances map[uint64]float64
	sums      []vector.Vector // per-node coordinate sums, centroid linkage only
}

func newBuilder(ps index.PointSet, linkage Linkage) (*builder, error) {
	n := ps.Len()
	points := make([]vector.Vector, n)
	for i := range n {
		p, err := ps.Point(i)
		if err != nil {
			return nil, err
		}
		points[i] = p
	}

	b := &builder{
		points:    points,
		linkage:   linkage,
		nodes:     make([]Node, n, 2*n-1),
		distances: make(map[uint64]float64, n*(n-1)/2),
	}
	for i := range n {
		b.nodes[i] = Node{ID: i, Left: -1, Right: -1, Size: 1}
	}
	if linkage == LinkageCentroid {
		b.sums = make([]vector.Vector, n, 2*n-1)
		for i, p := range points {
			b.sums[i] = vector.New(p...)
		}
	}
	return b, nil
}

// pairKey packs an unordered node-id pair, smaller id in the high 32 bits.
func pairKey(a, b int) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(uint32(b))
}

func (b *builder) precompute() {
	n := len(b.points)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			b.distances[pairKey(i, j)] = math.Sqrt(vector.SquaredDistance(b.points[i], b.points[j]))
		}
	}
}

func (b *builder) run(logger *slog.Logger) {
	n := len(b.points)
	live := make([]int, n)
	for i := range live {
		live[i] = i
	}

	for len(live) > 1 {
		best := math.Inf(1)
		bi, bj := 0, 1
		for i := 0; i < len(live)-1; i++ {
			for j := i + 1; j < len(live); j++ {
				if d := b.distance(live[i], live[j]); d < best {
					best = d
					bi, bj = i, j
				}
			}
		}

		left, right := live[bi], live[bj]
		height := b.distance(left, right)

		// bj > bi, so removing bj first keeps bi in place.
		live = slices.Delete(live, bj, bj+1)
		live = slices.Delete(live, bi, bi+1)

		id := len(b.nodes)
		b.nodes = append(b.nodes, Node{
			ID:     id,
			Left:   left,
			Right:  right,
			Size:   b.nodes[left].Size + b.nodes[right].Size,
			Height: height,
		})
		if b.sums != nil {
			sum, _ := vector.Add(b.sums[left], b.sums[right])
			b.sums = append(b.sums, sum)
		}
		live = append(live, id)

		if logger != nil {
			logger.Debug("merged", "left", left, "right", right, "id", id, "distance", height, "live", len(live))
		}
	}
}

// distance returns the linkage distance of two nodes, filling the cache on first use.
func (b *builder) distance(x, y int) float64 {
	key := pairKey(x, y)
	if d, ok := b.distances[key]; ok {
		return d
	}

	var d float64
	switch b.linkage {
	case LinkageMin, LinkageMax:
		// Leaf pairs are always cached, so the newer node is internal.
		if x < y {
			x, y = y, x
		}
		node := b.nodes[x]
		l, r := b.distance(node.Left, y), b.distance(node.Right, y)
		if b.linkage == LinkageMin {
			d = math.Min(l, r)
		} else {
			d = math.Max(l, r)
		}
	case LinkageMean:
		d = b.meanDistance(x, y)
	case LinkageCentroid:
		d = b.centroidDistance(x, y)
	}

	b.distances[key] = d
	return d
}

func (b *builder) meanDistance(x, y int) float64 {
	xs := collectLeaves(b.nodes, x, nil)
	ys := collectLeaves(b.nodes, y, nil)

	sum := 0.0
	for _, i := range xs {
		for _, j := range ys {
			sum += b.distances[pairKey(i, j)]
		}
	}
	return sum / float64(len(xs)+len(ys))
}

func (b *builder) centroidDistance(x, y int) float64 {
	cx := vector.Scale(b.sums[x], 1/float64(b.nodes[x].Size))
	cy := vector.Scale(b.sums[y], 1/float64(b.nodes[y].Size))
	return math.Sqrt(vector.SquaredDistance(cx, cy))
}
