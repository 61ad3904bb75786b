// Package payload builds the deterministic response bodies served by the
// benchmark targets: fixed-size JSON item lists and a small SQLite-backed
// user table.
package payload

import (
	"encoding/json"
	"fmt"
	mrand "math/rand"
)

// Item is one entry of a generic JSON list response.
type Item struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	InStock     bool     `json:"in_stock"`
	Tags        []string `json:"tags"`
}

// Sizes of the two list endpoints, in encoded bytes.
const (
	Size1K  = 1024
	Size10K = 10 * 1024
)

const defaultSeed = 42

var (
	categories = []string{
		"electronics", "books", "garden", "toys", "kitchen", "sports",
	}
	words = []string{
		"alpha", "bravo", "delta", "echo", "foxtrot", "kilo",
		"lima", "oscar", "sierra", "tango", "victor", "zulu",
	}
)

// JSON1K and JSON10K are the item lists behind /json-1k and /json-10k.
var (
	JSON1K  = mustGenerate(defaultSeed, Size1K)
	JSON10K = mustGenerate(defaultSeed, Size10K)
)

// Generator produces deterministic item lists from a seed.
type Generator struct {
	rng *mrand.Rand
}

// NewGenerator creates a Generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: mrand.New(mrand.NewSource(seed))}
}

// Generate returns the shortest non-empty item list whose JSON encoding is
// at least targetBytes long.
func (g *Generator) Generate(targetBytes int) ([]Item, error) {
	if targetBytes <= 0 {
		return nil, fmt.Errorf("target size must be positive, got %d", targetBytes)
	}

	var (
		items []Item
		size  = 2 // enclosing brackets
	)

	for size < targetBytes || len(items) == 0 {
		item := g.item(len(items) + 1)

		encoded, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode item %d: %w", item.ID, err)
		}

		if len(items) > 0 {
			size++ // separating comma
		}

		size += len(encoded)
		items = append(items, item)
	}

	return items, nil
}

// Generate is shorthand for NewGenerator(seed).Generate(targetBytes).
func Generate(seed int64, targetBytes int) ([]Item, error) {
	return NewGenerator(seed).Generate(targetBytes)
}

func mustGenerate(seed int64, targetBytes int) []Item {
	items, err := Generate(seed, targetBytes)
	if err != nil {
		panic(err)
	}

	return items
}

func (g *Generator) item(id int) Item {
	name := g.word() + "-" + g.word()

	return Item{
		ID:          id,
		Name:        name,
		Description: fmt.Sprintf("%s %s %s item", g.word(), g.word(), name),
		Price:       float64(100+g.rng.Intn(99900)) / 100,
		Category:    categories[g.rng.Intn(len(categories))],
		InStock:     g.rng.Intn(4) != 0,
		Tags:        g.tags(),
	}
}

func (g *Generator) word() string {
	return words[g.rng.Intn(len(words))]
}

func (g *Generator) tags() []string {
	n := 1 + g.rng.Intn(3)
	tags := make([]string, n)

	for i := range tags {
		tags[i] = g.word()
	}

	return tags
}
