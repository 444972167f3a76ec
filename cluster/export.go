package cluster

import "fmt"

// Document is the serializable form of a Result: cluster, then point, then coordinate.
type Document [][][]float64

// Export flattens r into a Document, one entry per cluster in index order.
func Export(r Result) (Document, error) {
	doc := make(Document, r.ClusterCount())
	for c := range doc {
		points, err := r.PointsInCluster(c)
		if err != nil {
			return nil, fmt.Errorf("export cluster %d: %w", c, err)
		}
		cluster := make([][]float64, len(points))
		for j, p := range points {
			cluster[j] = p.Values()
		}
		doc[c] = cluster
	}
	return doc, nil
}

// ClusterCount returns the number of clusters.
func (d Document) ClusterCount() int { return len(d) }

// PointCount returns the total number of points across clusters.
func (d Document) PointCount() int {
	n := 0
	for _, c := range d {
		n += len(c)
	}
	return n
}
