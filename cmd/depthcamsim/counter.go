package main

import (
	"sync"

	"go.viam.com/depthcamera/config"
	camutils "go.viam.com/depthcamera/utils"
)

// counter tallies messages per topic across subscriber goroutines.
type counter struct {
	mu     sync.Mutex
	counts map[string]int
	wg     sync.WaitGroup
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

// track registers a subscriber on topic and returns the func it calls when drained.
func (c *counter) track(topic string) func() {
	c.mu.Lock()
	if _, ok := c.counts[topic]; !ok {
		c.counts[topic] = 0
	}
	c.mu.Unlock()
	c.wg.Add(1)
	return c.wg.Done
}

func (c *counter) add(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[topic]++
}

func (c *counter) wait() {
	c.wg.Wait()
}

func (c *counter) snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

func resolve(cfg *config.AttrConfig, name string) string {
	return camutils.ResolveTopic(cfg.CameraName, name)
}
