package engine

import (
	"sync"

	"github.com/jhalonen/kaiku"
)

// sampleCache shares decoded samples between playbacks by path. A miss
// decodes outside the lock; when two goroutines race the same path, the
// first insert wins and the loser's copy is dropped. Failed loads leave no
// entry behind, so the next call retries.
type sampleCache struct {
	mu      sync.Mutex
	load    func(string) (*kaiku.Sample, error)
	samples map[string]*kaiku.Sample
}

func newSampleCache(load func(string) (*kaiku.Sample, error)) *sampleCache {
	return &sampleCache{load: load, samples: make(map[string]*kaiku.Sample)}
}

func (c *sampleCache) get(path string) (*kaiku.Sample, error) {
	c.mu.Lock()
	s, ok := c.samples[path]
	c.mu.Unlock()
	if ok {
		return s, nil
	}
	s, err := c.load(path)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if winner, ok := c.samples[path]; ok {
		s = winner
	} else {
		c.samples[path] = s
	}
	c.mu.Unlock()
	return s, nil
}

func (c *sampleCache) remove(path string) {
	c.mu.Lock()
	delete(c.samples, path)
	c.mu.Unlock()
}

func (c *sampleCache) clear() {
	c.mu.Lock()
	clear(c.samples)
	c.mu.Unlock()
}
