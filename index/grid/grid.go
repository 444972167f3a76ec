// Package grid provides a spatially indexed point set.
//
// Points are quantized onto a q^k grid over canonical space, physically sorted by grid
// coordinate and summarized by a 1-D occupancy prefix index: index[offset] is the
// position in the sorted array of the first point whose cell offset is >= offset.
// A cell's points therefore occupy the contiguous slice [index[o], index[o+1]).
//
// Range search enumerates only the cells overlapping the query box, so its cost follows
// the box's grid volume and the occupancy of those cells rather than n.
package grid

import (
	"log/slog"
	"math"
	"slices"

	"github.com/hupe1980/clusterkit/index"
	"github.com/hupe1980/clusterkit/index/flat"
	"github.com/hupe1980/clusterkit/vector"
)

// Compile-time check to ensure Index satisfies index.PointSet.
var _ index.PointSet = (*Index)(nil)

// Options contains configuration options for the grid index.
type Options struct {
	// Slack is the multiplicative resize applied to the data extent.
	Slack float64

	// MaxCells caps q^k. When the natural resolution exceeds it, q is lowered
	// until the grid fits (q never drops below 1).
	MaxCells int

	// Logger receives construction statistics. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options for the grid index.
var DefaultOptions = Options{
	Slack:    index.DefaultSlack,
	MaxCells: 1 << 24,
}

// Index is a point set reordered by grid cell with an occupancy prefix index.
// The embedded flat.Set holds the reordered points, so its exhaustive RangeSearch
// remains available as an oracle through Naive.
type Index struct {
	*flat.Set

	q     int   // grid resolution per dimension
	cells []int // occupancy prefix index, len q^k
}

// New builds a grid index over a copy of points.
func New(points []vector.Vector, optFns ...func(o *Options)) (*Index, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	set, err := flat.New(points, func(o *flat.Options) {
		o.Slack = opts.Slack
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	n, k := set.Len(), set.Dim()

	// Expected occupancy per cell stays roughly constant as n grows.
	q := int(math.Ceil(math.Pow(float64(n), 1.0/float64(k+1))))
	q = fitResolution(q, k, opts.MaxCells)

	idx := &Index{Set: set, q: q}

	grids := make([][]int, n)
	for i := range n {
		grid := idx.mapToGrid(set.At(i))
		// A point on the upper bound (Slack == 1) belongs to the last cell.
		for j, c := range grid {
			grid[j] = min(max(c, 0), q-1)
		}
		grids[i] = grid
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return compareGrid(grids[a], grids[b])
	})

	reordered := make([]vector.Vector, n)
	offsets := make([]int, n)
	for i, o := range order {
		reordered[i] = set.At(o)
		offsets[i] = idx.CellOffset(grids[o])
	}
	idx.Set = flat.NewUnchecked(reordered, set.Bounds())

	cellCount := pow(q, k)
	idx.cells = make([]int, cellCount)

	occupied := 0
	last := -1
	for i, offset := range offsets {
		if offset != last {
			occupied++
			// Back fill any cells that were empty.
			for last < offset {
				last++
				idx.cells[last] = i
			}
		}
	}
	// Back fill from the end of the last occupied cell.
	for last < cellCount-1 {
		last++
		idx.cells[last] = n
	}

	if opts.Logger != nil {
		opts.Logger.Info("grid index built",
			"q", q,
			"cells", cellCount,
			"occupied_cells", occupied,
			"occupancy", n/occupied,
		)
	}

	return idx, nil
}

// fitResolution lowers q until q^k fits maxCells.
func fitResolution(q, k, maxCells int) int {
	if maxCells <= 0 {
		return q
	}
	for q > 1 && overflows(q, k, maxCells) {
		q--
	}
	return q
}

func overflows(q, k, limit int) bool {
	total := 1
	for range k {
		total *= q
		if total > limit {
			return true
		}
	}
	return false
}

func pow(q, k int) int {
	total := 1
	for range k {
		total *= q
	}
	return total
}

func compareGrid(a, b []int) int {
	for i := range a {
		if d := a[i] - b[i]; d != 0 {
			return d
		}
	}
	return 0
}

// Q returns the grid resolution per dimension.
func (g *Index) Q() int { return g.q }

// Cells returns a copy of the occupancy prefix index.
func (g *Index) Cells() []int { return slices.Clone(g.cells) }

// OccupiedCells returns the number of non-empty cells.
func (g *Index) OccupiedCells() int {
	occupied := 0
	for o := range g.cells {
		start, end := g.cellRange(o)
		if end > start {
			occupied++
		}
	}
	return occupied
}

// MapToGrid returns the grid coordinate of a point. Coordinates outside the bounds map
// below 0 or at/above q; they are clamped to [-1, q] so extreme queries stay finite.
func (g *Index) MapToGrid(coordinate vector.Vector) ([]int, error) {
	if len(coordinate) != g.Dim() {
		return nil, &vector.ErrDimensionMismatch{Expected: g.Dim(), Actual: len(coordinate)}
	}
	return g.mapToGrid(coordinate), nil
}

// mapToGrid is MapToGrid without the dimension check.
func (g *Index) mapToGrid(coordinate vector.Vector) []int {
	bounds := g.Bounds()
	out := make([]int, len(bounds))
	for i, b := range bounds {
		c := math.Floor(b.MapToCanonical(coordinate[i]) * float64(g.q))
		switch {
		case math.IsNaN(c) || c < -1:
			c = -1
		case c > float64(g.q):
			c = float64(g.q)
		}
		out[i] = int(c)
	}
	return out
}

// MapFromGrid returns the data coordinate of a grid cell's lower corner.
func (g *Index) MapFromGrid(grid []int) (vector.Vector, error) {
	bounds := g.Bounds()
	if len(grid) != len(bounds) {
		return nil, &vector.ErrDimensionMismatch{Expected: len(bounds), Actual: len(grid)}
	}
	out := make(vector.Vector, len(bounds))
	for i, b := range bounds {
		out[i] = b.MapFromCanonical(float64(grid[i]) / float64(g.q))
	}
	return out, nil
}

// CellOffset returns the linear offset of a grid coordinate, or -1 when the coordinate
// has the wrong dimension or any component lies outside [0, q).
func (g *Index) CellOffset(grid []int) int {
	if len(grid) != g.Dim() {
		return -1
	}
	offset := 0
	for _, c := range grid {
		if c < 0 || c >= g.q {
			return -1
		}
		offset = offset*g.q + c
	}
	return offset
}

func (g *Index) cellRange(offset int) (start, end int) {
	start = g.cells[offset]
	if next := offset + 1; next < len(g.cells) {
		return start, g.cells[next]
	}
	return start, g.Len()
}

// RangeSearch returns the indices (into the reordered points) of every point whose
// squared distance to locus is strictly less than radius².
func (g *Index) RangeSearch(locus vector.Vector, radius float64) ([]int, error) {
	if err := g.CheckLocus(locus); err != nil {
		return nil, err
	}

	// The predicate only sees radius², so a negative radius searches |radius|.
	radius = math.Abs(radius)

	k := g.Dim()
	lo := make(vector.Vector, k)
	hi := make(vector.Vector, k)
	for i := range k {
		lo[i] = locus[i] - radius
		hi[i] = locus[i] + radius
	}

	s := &search{
		g:        g,
		locus:    locus,
		radiusSq: radius * radius,
		grid:     make([]int, k),
		minGrid:  g.mapToGrid(lo),
		maxGrid:  g.mapToGrid(hi),
	}
	s.walk(0)
	return s.result, nil
}

// Naive runs the exhaustive scan over the same reordered points.
func (g *Index) Naive(locus vector.Vector, radius float64) ([]int, error) {
	return g.Set.RangeSearch(locus, radius)
}

type search struct {
	g        *Index
	locus    vector.Vector
	radiusSq float64
	grid     []int
	minGrid  []int
	maxGrid  []int
	result   []int
}

// walk fixes one grid dimension per level; at depth k the cell is complete.
func (s *search) walk(dim int) {
	if dim < len(s.grid) {
		for c := s.minGrid[dim]; c <= s.maxGrid[dim]; c++ {
			s.grid[dim] = c
			s.walk(dim + 1)
		}
		return
	}

	offset := s.g.CellOffset(s.grid)
	if offset < 0 {
		return
	}
	start, end := s.g.cellRange(offset)
	for i := start; i < end; i++ {
		if vector.SquaredDistance(s.g.At(i), s.locus) < s.radiusSq {
			s.result = append(s.result, i)
		}
	}
}
