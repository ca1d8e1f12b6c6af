package ppm

import (
	"math"
	"sort"

	apperrors "github.com/perf-analysis/ppmc/pkg/errors"
)

// DictKey indexes a dictionary bucket. DictKeyInvalid is returned when a
// lookup falls outside the dictionary's domain.
type DictKey int

// DictKeyInvalid marks a failed key lookup.
const DictKeyInvalid DictKey = -1

// IsValid reports whether k is a usable dictionary key.
func (k DictKey) IsValid() bool {
	return k != DictKeyInvalid
}

// MaxDictKeyBits is the number of bits a dictionary key must fit in when
// packed into a bucketed-segment letter (§3, §6).
const MaxDictKeyBits = 15

// Dict is a mean-split quantization dictionary: parallel Supremum/Mean
// arrays built by the recursive bucket builder (4.A). Supremum is strictly
// increasing; KeyFromValue performs a lower-bound binary search over it.
type Dict struct {
	Supremum []float64
	Mean     []float64
}

// Size returns the number of buckets in the dictionary.
func (d *Dict) Size() int {
	if d == nil {
		return 0
	}
	return len(d.Supremum)
}

// KeyFromValue returns the smallest bucket i with Supremum[i] >= v, or
// DictKeyInvalid if v exceeds the dictionary's domain.
func (d *Dict) KeyFromValue(v float64) DictKey {
	n := d.Size()
	if n == 0 {
		return DictKeyInvalid
	}
	i := sort.Search(n, func(i int) bool { return d.Supremum[i] >= v })
	if i == n {
		return DictKeyInvalid
	}
	return DictKey(i)
}

// ValueFromKey returns the representative mean value for key with ok true,
// or (0, false) if key is out of range.
func (d *Dict) ValueFromKey(key DictKey) (float64, bool) {
	if key < 0 || int(key) >= d.Size() {
		return 0, false
	}
	return d.Mean[key], true
}

// bucket is one leaf of the recursive mean-split partition, carrying its
// mean/supremum/size before being flattened in-order into a Dict.
type bucket struct {
	left, right *bucket
	mean        float64
	supremum    float64
	size        int
}

func (b *bucket) flatten(out *Dict) {
	if b == nil {
		return
	}
	if b.left == nil && b.right == nil {
		out.Mean = append(out.Mean, b.mean)
		out.Supremum = append(out.Supremum, b.supremum)
		return
	}
	b.left.flatten(out)
	b.right.flatten(out)
}

// BuildDict builds a bucket dictionary from a sorted ascending list of
// non-negative weights using the recursive mean-split quantizer (4.A).
//
// k is the badness threshold (stddev/mean); a bucket stops splitting once its
// badness drops at or below k, or once it holds a single element. maxSize
// bounds the resulting dictionary size (MaxDictKeyBits-wide keys in
// practice); exceeding it returns a DictTooBig error (CodeDictTooBig).
func BuildDict(sorted []float64, k float64, maxSize int) (*Dict, error) {
	if len(sorted) == 0 {
		return &Dict{}, nil
	}
	root, err := buildBucket(sorted, k)
	if err != nil {
		return nil, err
	}
	d := &Dict{
		Supremum: make([]float64, 0, root.size),
		Mean:     make([]float64, 0, root.size),
	}
	root.flatten(d)
	if len(d.Supremum) > maxSize {
		return nil, DictTooBig(len(d.Supremum), maxSize)
	}
	return d, nil
}

func buildBucket(v []float64, k float64) (*bucket, error) {
	n := len(v)
	if n == 1 {
		return &bucket{mean: v[0], supremum: v[0], size: 1}, nil
	}

	mu := mean(v)
	sigma := stddev(v, mu)

	if mu == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "undefined badness: mean of bucket is zero")
	}

	if sigma/mu <= k {
		return &bucket{mean: mu, supremum: v[n-1], size: 1}, nil
	}

	// Split at the first index u such that v[u] > mu.
	u := sort.Search(n, func(i int) bool { return v[i] > mu })
	if u == 0 || u == n {
		// mu does not strictly separate the list (all equal, or floating
		// point badness never settles); fall back to a single bucket to
		// guarantee termination.
		return &bucket{mean: mu, supremum: v[n-1], size: 1}, nil
	}

	left, err := buildBucket(v[:u], k)
	if err != nil {
		return nil, err
	}
	right, err := buildBucket(v[u:], k)
	if err != nil {
		return nil, err
	}
	return &bucket{left: left, right: right, size: left.size + right.size}, nil
}

func mean(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func stddev(v []float64, mu float64) float64 {
	if len(v) <= 1 {
		return 0
	}
	var acc float64
	for _, x := range v {
		d := x - mu
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(v)))
}
