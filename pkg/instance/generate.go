package instance

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/cablenet/pkg/errors"
)

// DefaultMinDistance is the default minimum spacing between turbines.
const DefaultMinDistance = 400

const (
	kmeansRestarts = 10
	kmeansMaxIter  = 300
)

// GenerateOptions configures [Generate].
type GenerateOptions struct {
	Turbines int
	Seed     int64

	// MinDistance is the minimum spacing between turbines. Zero uses
	// DefaultMinDistance.
	MinDistance float64

	// Substations is the number of substations. Zero uses one per ten
	// turbines with a minimum of two.
	Substations int
}

// Generate places turbines uniformly at random in a square of side
// √n·1000, rejecting positions closer than MinDistance to an existing
// turbine, and puts substations at the k-means centroids of the turbines.
//
// Placement gives up after 5000·n attempts, so dense requests may yield
// fewer turbines than asked for; NTurbines still records the request.
func Generate(opts GenerateOptions) (*Instance, error) {
	n := opts.Turbines
	if n < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "turbine count must be positive, got %d", n)
	}
	if opts.MinDistance == 0 {
		opts.MinDistance = DefaultMinDistance
	}
	k := opts.Substations
	if k == 0 {
		k = max(2, n/10)
	}

	side := math.Trunc(math.Sqrt(float64(n)) * 1000)
	rng := rand.New(rand.NewPCG(uint64(opts.Seed+int64(n)), 0))
	turbines := place(rng, n, side, opts.MinDistance)

	k = min(k, len(turbines))
	centers, labels := kmeans(turbines, k, rand.New(rand.NewPCG(1, 0)))

	in := New(fmt.Sprintf("instance_%d_s%d", n, opts.Seed), centers, turbines)
	in.NTurbines = n
	in.Seed = opts.Seed
	in.Labels = labels
	return in, nil
}

func place(rng *rand.Rand, n int, side, minDist float64) []r2.Vec {
	out := make([]r2.Vec, 0, n)
	for tries := 0; len(out) < n && tries < n*5000; tries++ {
		p := r2.Vec{X: rng.Float64() * side, Y: rng.Float64() * side}
		ok := true
		for _, q := range out {
			if r2.Norm(r2.Sub(p, q)) < minDist {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, p)
		}
	}
	return out
}

// kmeans runs Lloyd's algorithm from several k-means++ seedings and keeps
// the clustering with the smallest inertia.
func kmeans(pts []r2.Vec, k int, rng *rand.Rand) ([]r2.Vec, []int) {
	var (
		bestCenters []r2.Vec
		bestLabels  []int
		bestInertia = math.Inf(1)
	)
	for run := 0; run < kmeansRestarts; run++ {
		centers := seedCenters(pts, k, rng)
		labels := make([]int, len(pts))
		for iter := 0; iter < kmeansMaxIter; iter++ {
			changed := assign(pts, centers, labels)
			update(pts, centers, labels)
			if !changed && iter > 0 {
				break
			}
		}
		inertia := 0.0
		for i, p := range pts {
			inertia += sqDist(p, centers[labels[i]])
		}
		if inertia < bestInertia {
			bestInertia = inertia
			bestCenters = append([]r2.Vec(nil), centers...)
			bestLabels = append([]int(nil), labels...)
		}
	}
	return bestCenters, bestLabels
}

func seedCenters(pts []r2.Vec, k int, rng *rand.Rand) []r2.Vec {
	centers := []r2.Vec{pts[rng.IntN(len(pts))]}
	d := make([]float64, len(pts))
	for len(centers) < k {
		total := 0.0
		for i, p := range pts {
			d[i] = math.Inf(1)
			for _, c := range centers {
				d[i] = math.Min(d[i], sqDist(p, c))
			}
			total += d[i]
		}
		if total == 0 {
			centers = append(centers, pts[rng.IntN(len(pts))])
			continue
		}
		r := rng.Float64() * total
		next := len(pts) - 1
		for i := range pts {
			r -= d[i]
			if r <= 0 {
				next = i
				break
			}
		}
		centers = append(centers, pts[next])
	}
	return centers
}

func assign(pts, centers []r2.Vec, labels []int) bool {
	changed := false
	for i, p := range pts {
		best, bestD := 0, math.Inf(1)
		for j, c := range centers {
			if d := sqDist(p, c); d < bestD {
				best, bestD = j, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

func update(pts, centers []r2.Vec, labels []int) {
	sum := make([]r2.Vec, len(centers))
	count := make([]int, len(centers))
	for i, p := range pts {
		sum[labels[i]] = r2.Add(sum[labels[i]], p)
		count[labels[i]]++
	}
	for j := range centers {
		if count[j] > 0 {
			centers[j] = r2.Scale(1/float64(count[j]), sum[j])
		}
	}
}

func sqDist(p, q r2.Vec) float64 {
	d := r2.Sub(p, q)
	return d.X*d.X + d.Y*d.Y
}
