package grading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/23skdu/miniviva/internal/logger"
	"github.com/23skdu/miniviva/internal/metrics"
)

// DefaultTimeout bounds a single comparator call.
const DefaultTimeout = 20 * time.Second

// ErrNotANumber is reported when a comparator returns NaN.
var ErrNotANumber = errors.New("comparator returned NaN")

// Comparator measures how similar two texts are. The scalar may be in any
// range; the caller clamps it into [0,1].
type Comparator interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// named is implemented by comparators that report a backend name for
// metrics and logs.
type named interface {
	Name() string
}

// readier is implemented by comparators that hold a connection or a loaded
// model and can report whether it is usable.
type readier interface {
	Ready() error
}

// SemanticScorer wraps a Comparator with a similarity cache, a per-call
// timeout and error collapsing. It is safe for concurrent use.
type SemanticScorer struct {
	comparator Comparator
	cache      SimilarityCache
	timeout    time.Duration
	backend    string
	group      singleflight.Group
}

// NewSemanticScorer builds a scorer around c. A nil c yields a scorer that
// never finds a similarity.
func NewSemanticScorer(c Comparator, cache SimilarityCache, timeout time.Duration) *SemanticScorer {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	backend := "none"
	if n, ok := c.(named); ok {
		backend = n.Name()
	} else if c != nil {
		backend = fmt.Sprintf("%T", c)
	}
	return &SemanticScorer{
		comparator: c,
		cache:      cache,
		timeout:    timeout,
		backend:    backend,
	}
}

// Backend reports the comparator name.
func (s *SemanticScorer) Backend() string { return s.backend }

// Ready reports whether the comparator can serve calls. A scorer without a
// comparator, or with a stateless one, is always ready.
func (s *SemanticScorer) Ready() error {
	if r, ok := s.comparator.(readier); ok {
		return r.Ready()
	}
	return nil
}

// CacheLen reports the number of cached similarities.
func (s *SemanticScorer) CacheLen() int { return s.cache.Len() }

// Similarity returns the cached or freshly computed similarity of student
// and reference in [0,1]. ok is false when the comparator is missing or
// fails; failures are logged and never cached.
func (s *SemanticScorer) Similarity(ctx context.Context, student, reference string) (float64, bool) {
	if s.comparator == nil {
		return 0, false
	}

	key := Key{Student: student, Reference: reference}
	if sim, ok := s.cache.Get(key); ok {
		metrics.RecordCacheHit()
		return sim, true
	}
	metrics.RecordCacheMiss()

	v, err, _ := s.group.Do(flightKey(key), func() (interface{}, error) {
		if sim, ok := s.cache.Get(key); ok {
			return sim, nil
		}
		// The call is shared by every waiter on this key, so one caller's
		// cancellation must not fail the others. The scorer timeout still
		// bounds it.
		sim, err := s.compare(context.WithoutCancel(ctx), student, reference)
		if err != nil {
			return 0.0, err
		}
		s.cache.Put(key, sim)
		metrics.SetCacheEntries(s.cache.Len())
		return sim, nil
	})
	if err != nil {
		logger.Log.Warn("semantic comparison failed",
			"backend", s.backend,
			"error", err.Error(),
		)
		return 0, false
	}
	return v.(float64), true
}

func (s *SemanticScorer) compare(ctx context.Context, a, b string) (sim float64, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("comparator panic: %v", r)
		}
		metrics.RecordComparatorCall(s.backend, time.Since(start), err)
	}()

	raw, err := s.comparator.Similarity(ctx, a, b)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(raw) {
		return 0, ErrNotANumber
	}
	return clamp01(raw), nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// flightKey is unambiguous for any pair of strings.
func flightKey(k Key) string {
	return strconv.Itoa(len(k.Student)) + ":" + k.Student + k.Reference
}
