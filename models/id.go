package models

import "sync"

// A sequential id generator.
type SequentialIDGenerator struct {
	mutex     sync.Mutex
	currentID uint32
}

// New returns a sequental id, starting at 1.
func (g *SequentialIDGenerator) New() uint32 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.currentID++
	return g.currentID
}

// Last returns the last generated id, or 0 when none was generated.
func (g *SequentialIDGenerator) Last() uint32 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return g.currentID
}
