package seed

import (
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/jaswdr/faker"
)

// Generator derives reproducible pseudo-random substreams from hierarchical
// seed paths. With a fixed root seed, identical paths always produce
// identical streams, which makes whole datasets reproducible.
type Generator struct {
	root string
}

// DefaultRoot is used when no root seed is configured.
const DefaultRoot = "seedgraph"

// New creates a generator rooted at the given seed string.
func New(root string) *Generator {
	if root == "" {
		root = DefaultRoot
	}
	return &Generator{root: root}
}

// Root returns the root seed string.
func (g *Generator) Root() string {
	return g.root
}

// Derive returns the substream for the given path elements under the root.
func (g *Generator) Derive(parts ...string) *Stream {
	return newStream(strings.Join(append([]string{g.root}, parts...), "/"))
}

// Stream is one pseudo-random value stream keyed by a seed path. Two streams
// with the same path draw identical sequences.
type Stream struct {
	path string
	rng  *rand.Rand
	fake faker.Faker
}

func newStream(path string) *Stream {
	h := fnv.New64a()
	h.Write([]byte(path))
	source := int64(h.Sum64())
	return &Stream{
		path: path,
		rng:  rand.New(rand.NewSource(source)),
		fake: faker.NewWithSeed(rand.NewSource(source)),
	}
}

// Path returns the full seed path of this stream.
func (s *Stream) Path() string {
	return s.path
}

// Child derives a substream by appending path elements to this stream's path.
func (s *Stream) Child(parts ...string) *Stream {
	return newStream(s.path + "/" + strings.Join(parts, "/"))
}

// Choose picks an index in [0, n) deterministically.
func (s *Stream) Choose(n int) int {
	return s.rng.Intn(n)
}

// CountIn draws a count from the closed range [min, max]. Callers draw it
// once per request node, not once per row.
func (s *Stream) CountIn(min, max int) int {
	if min >= max {
		return min
	}
	return min + s.rng.Intn(max-min+1)
}
