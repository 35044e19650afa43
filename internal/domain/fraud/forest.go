package fraud

import (
	"math"
	"math/rand"
	"sort"
)

// Isolation forest over small fixed-dimension feature vectors. Anomalous
// points isolate in fewer random splits, yielding shorter average path
// lengths and higher scores. Scoring is read-only; fitting builds a new
// forest from a sample population.

const subsampleCap = 256

// isoNode is one node of an isolation tree. Leaves carry the number of
// samples they absorbed.
type isoNode struct {
	splitDim int
	splitVal float64
	left     *isoNode
	right    *isoNode
	size     int
	leaf     bool
}

// isolationForest is a fitted ensemble plus the decision threshold derived
// from the training population's score distribution.
type isolationForest struct {
	trees      []*isoNode
	sampleSize int
	dim        int
	threshold  float64
}

// fitForest builds an ensemble from the population and sets the outlier
// threshold so that roughly a contamination fraction of the training
// population scores at or above it.
func fitForest(population [][]float64, numTrees int, contamination float64, rng *rand.Rand) *isolationForest {
	n := len(population)
	sampleSize := n
	if sampleSize > subsampleCap {
		sampleSize = subsampleCap
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sampleSize))))
	if maxDepth < 1 {
		maxDepth = 1
	}

	f := &isolationForest{
		trees:      make([]*isoNode, numTrees),
		sampleSize: sampleSize,
		dim:        len(population[0]),
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sample := make([][]float64, sampleSize)
	for t := 0; t < numTrees; t++ {
		rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for i := 0; i < sampleSize; i++ {
			sample[i] = population[idx[i]]
		}
		f.trees[t] = buildTree(sample, 0, maxDepth, rng)
	}

	// Threshold at the (1 - contamination) quantile of training scores.
	scores := make([]float64, n)
	for i, x := range population {
		scores[i] = f.anomaly(x)
	}
	sort.Float64s(scores)
	cut := int(math.Ceil(float64(n)*(1-contamination))) - 1
	if cut < 0 {
		cut = 0
	}
	if cut >= n {
		cut = n - 1
	}
	f.threshold = scores[cut]

	return f
}

// buildTree grows one isolation tree by recursive random splits.
func buildTree(samples [][]float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if depth >= maxDepth || len(samples) <= 1 {
		return &isoNode{leaf: true, size: len(samples)}
	}

	dim, lo, hi, ok := splittableDim(samples, rng)
	if !ok {
		// All points identical; no split can separate them.
		return &isoNode{leaf: true, size: len(samples)}
	}

	split := lo + rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, s := range samples {
		if s[dim] < split {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	return &isoNode{
		splitDim: dim,
		splitVal: split,
		left:     buildTree(left, depth+1, maxDepth, rng),
		right:    buildTree(right, depth+1, maxDepth, rng),
		size:     len(samples),
	}
}

// splittableDim picks a random dimension with spread, starting from a random
// offset so every splittable dimension is reachable.
func splittableDim(samples [][]float64, rng *rand.Rand) (dim int, lo, hi float64, ok bool) {
	dims := len(samples[0])
	start := rng.Intn(dims)
	for i := 0; i < dims; i++ {
		d := (start + i) % dims
		mn, mx := samples[0][d], samples[0][d]
		for _, s := range samples[1:] {
			if s[d] < mn {
				mn = s[d]
			}
			if s[d] > mx {
				mx = s[d]
			}
		}
		if mx > mn {
			return d, mn, mx, true
		}
	}
	return 0, 0, 0, false
}

// anomaly returns the isolation score for x in (0, 1]. Scores near 1 mean
// the point isolates unusually fast relative to the training population.
func (f *isolationForest) anomaly(x []float64) float64 {
	total := 0.0
	for _, t := range f.trees {
		total += pathLength(t, x, 0)
	}
	avg := total / float64(len(f.trees))
	return math.Pow(2, -avg/avgPathLength(f.sampleSize))
}

// predict maps x to the raw {-1,+1} encoding: +1 outlier, -1 inlier.
func (f *isolationForest) predict(x []float64) int {
	if f.anomaly(x) >= f.threshold {
		return 1
	}
	return -1
}

// pathLength walks x down one tree, adding the expected remaining depth at
// the terminating leaf.
func pathLength(node *isoNode, x []float64, depth int) float64 {
	if node.leaf {
		return float64(depth) + avgPathLength(node.size)
	}
	if x[node.splitDim] < node.splitVal {
		return pathLength(node.left, x, depth+1)
	}
	return pathLength(node.right, x, depth+1)
}

// eulerMascheroni for the harmonic-number approximation.
const eulerMascheroni = 0.5772156649

// avgPathLength is c(n), the average path length of an unsuccessful BST
// search over n points.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + eulerMascheroni
	return 2*h - 2*float64(n-1)/float64(n)
}
