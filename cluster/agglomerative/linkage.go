package agglomerative

import (
	"fmt"
	"strings"
)

// Linkage selects how the distance between two clusters is derived.
type Linkage int

const (
	// LinkageMin is single linkage: the closest pair of members.
	LinkageMin Linkage = iota

	// LinkageMax is complete linkage: the farthest pair of members.
	LinkageMax

	// LinkageMean sums every member-pair distance and divides by |A|+|B|.
	// Two leaves are compared by their raw point distance, not d/2, since leaf
	// pairs are taken from the precomputed cache.
	LinkageMean

	// LinkageCentroid is the distance between the member centroids.
	LinkageCentroid
)

// String returns the linkage name.
func (l Linkage) String() string {
	switch l {
	case LinkageMin:
		return "min"
	case LinkageMax:
		return "max"
	case LinkageMean:
		return "mean"
	case LinkageCentroid:
		return "centroid"
	default:
		return fmt.Sprintf("Linkage(%d)", int(l))
	}
}

// Valid reports whether l is one of the four defined linkages.
func (l Linkage) Valid() bool {
	return l >= LinkageMin && l <= LinkageCentroid
}

// ParseLinkage parses a linkage name as produced by String.
// "single" and "complete" are accepted as aliases of min and max.
func ParseLinkage(s string) (Linkage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min", "single":
		return LinkageMin, nil
	case "max", "complete":
		return LinkageMax, nil
	case "mean", "average":
		return LinkageMean, nil
	case "centroid":
		return LinkageCentroid, nil
	default:
		return 0, fmt.Errorf("unknown linkage %q", s)
	}
}
