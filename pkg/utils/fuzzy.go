package utils

import (
	"sort"
	"strings"
)

// Score thresholds used by the reconciliation pass. Lowering them
// noticeably increases false positives.
const (
	InstructorThreshold = 85.0
	MeetingThreshold    = 75.0
)

// Scorer compares two strings and returns a similarity between 0 and 100.
type Scorer func(a, b string) float64

// ChoiceMap holds normalized keys and the record each one points to.
// Insertion order is kept so that ties resolve deterministically to the
// first inserted key. Re-inserting a key replaces its value in place.
type ChoiceMap[T any] struct {
	keys   []string
	values map[string]T
}

// NewChoiceMap creates an empty choice map
func NewChoiceMap[T any]() *ChoiceMap[T] {
	return &ChoiceMap[T]{values: make(map[string]T)}
}

// Set stores value under key. Empty keys are ignored.
func (c *ChoiceMap[T]) Set(key string, value T) {
	if key == "" {
		return
	}
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the value stored under key
func (c *ChoiceMap[T]) Get(key string) (T, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Len returns the number of keys
func (c *ChoiceMap[T]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the keys in insertion order
func (c *ChoiceMap[T]) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// FuzzyFind normalizes raw and returns the record whose key scores highest
// against it, provided the score is at least threshold. An empty query or
// an empty choice map returns no match without calling the scorer.
func FuzzyFind[T any](raw string, choices *ChoiceMap[T], scorer Scorer, threshold float64) (T, bool) {
	var zero T
	if raw == "" || choices.Len() == 0 {
		return zero, false
	}

	query := Normalize(raw)
	if query == "" {
		return zero, false
	}
	if scorer == nil {
		scorer = TokenSetRatio
	}

	bestKey := ""
	bestScore := -1.0
	for _, key := range choices.keys {
		score := scorer(query, key)
		if score < threshold || score <= bestScore {
			continue
		}
		bestKey, bestScore = key, score
		if score >= 100 {
			break
		}
	}

	if bestScore < 0 {
		return zero, false
	}
	return choices.values[bestKey], true
}

// TokenSetRatio scores two strings as unordered word sets. When one set
// contains the other and they share at least one word the score is 100.
// Otherwise the sorted intersection is extended with each side's remaining
// words and the best indel ratio among the intersection and the two
// extended strings wins. Disjoint sets compare their sorted words directly.
func TokenSetRatio(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for w := range setA {
		if _, ok := setB[w]; ok {
			common = append(common, w)
		} else {
			onlyA = append(onlyA, w)
		}
	}
	for w := range setB {
		if _, ok := setA[w]; !ok {
			onlyB = append(onlyB, w)
		}
	}

	if len(common) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	diffA := strings.Join(onlyA, " ")
	diffB := strings.Join(onlyB, " ")
	if len(common) == 0 {
		return IndelRatio(diffA, diffB)
	}

	sect := strings.Join(common, " ")
	withA := sect + " " + diffA
	withB := sect + " " + diffB
	best := IndelRatio(withA, withB)
	if r := IndelRatio(sect, withA); r > best {
		best = r
	}
	if r := IndelRatio(sect, withB); r > best {
		best = r
	}
	return best
}

// IndelRatio is the normalized insertion/deletion similarity of a and b,
// scaled to 0..100. Two empty strings score 100.
func IndelRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	distance := total - 2*lcsLength(ra, rb)
	return 100 * (1 - float64(distance)/float64(total))
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
