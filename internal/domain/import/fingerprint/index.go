package fingerprint

import (
	"sync"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
)

// DefaultThreshold is the minimum Similarity for a near-duplicate
const DefaultThreshold = 85

// MatchKind classifies a lookup result
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExact
	MatchNear
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchNear:
		return "near"
	default:
		return "none"
	}
}

// Match is the outcome of an index lookup. Hash identifies the indexed
// record that was hit.
type Match struct {
	Kind  MatchKind `json:"kind"`
	Hash  string    `json:"hash,omitempty"`
	Score int       `json:"score,omitempty"`
}

type dateAmount struct {
	date   string
	amount int64
}

type entry struct {
	strict string
	hash   string
}

// Index remembers fingerprints of previously imported transactions. Exact
// hits share a hash; near hits share date and amount and have descriptions
// whose NormalizeStrict forms score at least the threshold. Safe for
// concurrent use.
type Index struct {
	mu        sync.RWMutex
	threshold int
	byHash    map[string]struct{}
	byKey     map[dateAmount][]entry
}

// NewIndex creates an empty index; threshold <= 0 means DefaultThreshold
func NewIndex(threshold int) *Index {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Index{
		threshold: threshold,
		byHash:    make(map[string]struct{}),
		byKey:     make(map[dateAmount][]entry),
	}
}

// Len returns the number of distinct fingerprints held
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byHash)
}

// Add indexes tx and returns its hash
func (ix *Index) Add(tx statement.ParsedTransaction) string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.add(tx)
}

// Lookup reports whether tx was seen before without indexing it
func (ix *Index) Lookup(tx statement.ParsedTransaction) Match {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.lookup(tx, hashOf(tx))
}

// Observe looks tx up and then indexes it, atomically
func (ix *Index) Observe(tx statement.ParsedTransaction) Match {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	m := ix.lookup(tx, hashOf(tx))
	ix.add(tx)
	return m
}

func (ix *Index) add(tx statement.ParsedTransaction) string {
	h := hashOf(tx)
	if _, ok := ix.byHash[h]; ok {
		return h
	}
	ix.byHash[h] = struct{}{}

	k := dateAmount{date: normalizer.NormalizeDate(tx.Date), amount: tx.Amount}
	ix.byKey[k] = append(ix.byKey[k], entry{strict: normalizer.NormalizeStrict(tx.Description), hash: h})
	return h
}

func (ix *Index) lookup(tx statement.ParsedTransaction, h string) Match {
	if _, ok := ix.byHash[h]; ok {
		return Match{Kind: MatchExact, Hash: h, Score: 100}
	}

	candidates := ix.byKey[dateAmount{date: normalizer.NormalizeDate(tx.Date), amount: tx.Amount}]
	if len(candidates) == 0 {
		return Match{Kind: MatchNone}
	}

	strict := normalizer.NormalizeStrict(tx.Description)
	best := Match{Kind: MatchNone}
	for _, c := range candidates {
		score := Similarity(strict, c.strict)
		if score >= ix.threshold && score > best.Score {
			best = Match{Kind: MatchNear, Hash: c.hash, Score: score}
		}
	}
	return best
}

// hashOf prefers a hash already stamped on the record
func hashOf(tx statement.ParsedTransaction) string {
	if tx.Hash != "" {
		return tx.Hash
	}
	return Of(tx)
}
