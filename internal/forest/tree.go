package forest

import "sort"

const leaf = -1

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

type tree struct {
	nodes []node
}

func (t *tree) predict(row []float64) float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.feature == leaf {
			return n.value
		}
		if row[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// builder grows one CART regression tree by greedy variance reduction.
type builder struct {
	x     [][]float64
	y     []float64
	cfg   Config
	nodes []node
}

func (b *builder) build(idx []int, depth int) int {
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	id := len(b.nodes)
	b.nodes = append(b.nodes, node{feature: leaf, value: sum / float64(len(idx))})

	if len(idx) < b.cfg.MinSamplesSplit || (b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) {
		return id
	}

	feature, threshold, ok := b.bestSplit(idx, sum)
	if !ok {
		return id
	}

	// Partition in place: rows with x <= threshold first.
	lo, hi := 0, len(idx)-1
	for lo <= hi {
		if b.x[idx[lo]][feature] <= threshold {
			lo++
		} else {
			idx[lo], idx[hi] = idx[hi], idx[lo]
			hi--
		}
	}

	left := b.build(idx[:lo], depth+1)
	right := b.build(idx[lo:], depth+1)
	b.nodes[id].feature = feature
	b.nodes[id].threshold = threshold
	b.nodes[id].left = left
	b.nodes[id].right = right
	return id
}

type bucket struct {
	value float64
	sum   float64
	count int
}

// bestSplit scans every feature for the threshold maximising the reduction
// in squared error. Thresholds sit halfway between adjacent distinct values.
func (b *builder) bestSplit(idx []int, total float64) (int, float64, bool) {
	n := float64(len(idx))
	base := total * total / n
	bestGain := 1e-12
	bestFeature, bestThreshold := leaf, 0.0

	width := len(b.x[idx[0]])
	for f := 0; f < width; f++ {
		pos := make(map[float64]int)
		var buckets []bucket
		for _, i := range idx {
			v := b.x[i][f]
			k, ok := pos[v]
			if !ok {
				k = len(buckets)
				pos[v] = k
				buckets = append(buckets, bucket{value: v})
			}
			buckets[k].sum += b.y[i]
			buckets[k].count++
		}
		if len(buckets) < 2 {
			continue
		}
		sort.Slice(buckets, func(i, j int) bool { return buckets[i].value < buckets[j].value })

		var sumL float64
		var nL int
		for k := 0; k < len(buckets)-1; k++ {
			sumL += buckets[k].sum
			nL += buckets[k].count
			nR := len(idx) - nL
			if nL < b.cfg.MinSamplesLeaf || nR < b.cfg.MinSamplesLeaf {
				continue
			}
			sumR := total - sumL
			gain := sumL*sumL/float64(nL) + sumR*sumR/float64(nR) - base
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (buckets[k].value + buckets[k+1].value) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature != leaf
}
