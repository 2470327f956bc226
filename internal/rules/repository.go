package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Repository is the process-wide rule store, keyed scheme then category.
// Reads return snapshots so concurrent ingestion never mutates a result a
// caller is iterating.
type Repository struct {
	mu      sync.RWMutex
	schemes map[string]map[string][]Rule
}

func NewRepository() *Repository {
	return &Repository{
		schemes: make(map[string]map[string][]Rule),
	}
}

// Add appends a rule into its (scheme, category) bucket, creating the bucket
// on demand. It never de-duplicates; callers wanting idempotent re-ingestion
// check Has first.
func (r *Repository) Add(rule Rule) {
	scheme := strings.ToUpper(rule.Scheme)
	category := rule.Category
	if category == "" {
		category = "General"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	buckets, ok := r.schemes[scheme]
	if !ok {
		buckets = make(map[string][]Rule)
		r.schemes[scheme] = buckets
	}
	buckets[category] = append(buckets[category], rule)
}

// Has reports whether a rule with the given id exists for the scheme.
func (r *Repository) Has(scheme, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, bucket := range r.schemes[strings.ToUpper(scheme)] {
		for _, rule := range bucket {
			if rule.ID == id {
				return true
			}
		}
	}
	return false
}

// Get returns a categorized snapshot of a scheme's rules, or nil when the
// scheme has none.
func (r *Repository) Get(scheme string) map[string][]Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	buckets, ok := r.schemes[strings.ToUpper(scheme)]
	if !ok {
		return nil
	}

	out := make(map[string][]Rule, len(buckets))
	for category, rules := range buckets {
		out[category] = append([]Rule(nil), rules...)
	}
	return out
}

// All returns every stored rule flattened, ordered by scheme, category, then
// insertion order.
func (r *Repository) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Rule
	for _, scheme := range sortedKeys(r.schemes) {
		buckets := r.schemes[scheme]
		for _, category := range sortedKeys(buckets) {
			out = append(out, buckets[category]...)
		}
	}
	return out
}

// Count returns the total number of stored rules across all schemes.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, buckets := range r.schemes {
		for _, rules := range buckets {
			n += len(rules)
		}
	}
	return n
}

// Schemes lists schemes that currently have rules, sorted.
func (r *Repository) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.schemes)
}

// DeleteScheme drops all rules of a scheme.
func (r *Repository) DeleteScheme(scheme string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.schemes, strings.ToUpper(scheme))
}

// RenderText builds a textual rulebook from the stored rules. Categories are
// ordered alphabetically and rules keep insertion order, so the same stored
// state always renders the same prompt text.
func (r *Repository) RenderText(scheme string) string {
	scheme = strings.ToUpper(scheme)

	r.mu.RLock()
	defer r.mu.RUnlock()

	buckets, ok := r.schemes[scheme]
	if !ok || len(buckets) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Compliance Rules (from rule library)\n", scheme)

	for _, category := range sortedKeys(buckets) {
		fmt.Fprintf(&b, "\n%s:\n", category)
		for _, rule := range buckets[category] {
			fmt.Fprintf(&b, "\n- [%s] %s (%s)\n  %s\n", rule.ID, rule.Title, rule.Severity, rule.Description)
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
