package chapter

import (
	"math"
	"math/rand/v2"
)

// KMeans parameters.
const (
	DefaultSeed     uint64 = 42
	DefaultInits           = 10
	DefaultMaxIters        = 300
)

// Clustering is the best labelling found across all initializations.
type Clustering struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
}

// KMeans clusters points into k groups with k-means++ seeding and Lloyd
// iterations, keeping the run with the lowest inertia. The same seed always
// yields the same labels. k is clamped to len(points). Shorter points are
// zero-padded to the longest one. Non-finite input never compares lower, so
// the first run is kept rather than an empty result.
func KMeans(points [][]float32, k int, seed uint64, inits, maxIters int) Clustering {
	if len(points) == 0 || k <= 0 {
		return Clustering{}
	}
	k = min(k, len(points))
	inits = max(inits, 1)
	maxIters = max(maxIters, 1)

	dim := 0
	for _, p := range points {
		dim = max(dim, len(p))
	}
	data := make([][]float64, len(points))
	for i, p := range points {
		data[i] = make([]float64, dim)
		for j, v := range p {
			data[i][j] = float64(v)
		}
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	var best Clustering
	for range inits {
		run := lloyd(data, seedCentroids(data, k, rng), maxIters)
		if best.Labels == nil || run.Inertia < best.Inertia {
			best = run
		}
	}
	return best
}

// seedCentroids picks k initial centroids with the k-means++ rule.
func seedCentroids(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(data[rng.IntN(len(data))]))

	dist := make([]float64, len(data))
	for len(centroids) < k {
		var total float64
		for i, p := range data {
			dist[i] = math.Inf(1)
			for _, c := range centroids {
				dist[i] = min(dist[i], sqDist(p, c))
			}
			total += dist[i]
		}

		next := rng.IntN(len(data))
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				target -= d
				if target <= 0 && d > 0 {
					next = i
					break
				}
			}
		}
		centroids = append(centroids, clone(data[next]))
	}
	return centroids
}

func lloyd(data [][]float64, centroids [][]float64, maxIters int) Clustering {
	labels := make([]int, len(data))
	for i := range labels {
		labels[i] = -1
	}
	dim := len(data[0])

	for range maxIters {
		changed := false
		for i, p := range data {
			nearest := nearestCentroid(p, centroids)
			if nearest != labels[i] {
				labels[i] = nearest
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, len(centroids))
		counts := make([]int, len(centroids))
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, p := range data {
			counts[labels[i]]++
			for j, v := range p {
				sums[labels[i]][j] += v
			}
		}
		for c := range centroids {
			// An empty cluster keeps its previous centroid.
			if counts[c] == 0 {
				continue
			}
			for j := range sums[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	var inertia float64
	for i, p := range data {
		inertia += sqDist(p, centroids[labels[i]])
	}
	return Clustering{Labels: labels, Centroids: centroids, Inertia: inertia}
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range min(len(a), len(b)) {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
