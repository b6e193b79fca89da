package memory

import (
	"context"
	"strings"
	"sync"
)

// InMemory is a Store backed by a plain slice, used in tests and as a
// fallback when no Redis address is configured.
type InMemory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewInMemory constructs an empty InMemory store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Store(_ context.Context, content string, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Content: content, Metadata: metadata})
	return nil
}

// Search returns up to topK entries whose content contains query's words
// and whose metadata matches every key in filterMetadata. This is a naive
// substring-overlap ranking, not a vector search — good enough for the
// "have we seen this kind of failure before" recall self-reflection needs.
func (m *InMemory) Search(_ context.Context, query string, topK int, filterMetadata map[string]string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	words := strings.Fields(strings.ToLower(query))
	type scored struct {
		entry Entry
		score int
	}
	var candidates []scored
	for _, e := range m.entries {
		if !matchesMetadata(e.Metadata, filterMetadata) {
			continue
		}
		score := overlapScore(strings.ToLower(e.Content), words)
		if score > 0 {
			candidates = append(candidates, scored{entry: e, score: score})
		}
	}

	// Stable selection of the topK highest-scoring entries, ties broken by
	// original (insertion) order.
	result := make([]Entry, 0, topK)
	for len(result) < topK && len(candidates) > 0 {
		bestIdx := 0
		for i, c := range candidates {
			if c.score > candidates[bestIdx].score {
				bestIdx = i
			}
		}
		result = append(result, candidates[bestIdx].entry)
		candidates = append(candidates[:bestIdx], candidates[bestIdx+1:]...)
	}
	return result, nil
}

func overlapScore(content string, words []string) int {
	score := 0
	for _, w := range words {
		if w != "" && strings.Contains(content, w) {
			score++
		}
	}
	return score
}

func matchesMetadata(entry, filter map[string]string) bool {
	for k, v := range filter {
		if entry[k] != v {
			return false
		}
	}
	return true
}

func (m *InMemory) Delete(_ context.Context, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.Content != content {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *InMemory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

var _ Store = (*InMemory)(nil)
