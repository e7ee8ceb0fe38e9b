// Package usage accumulates how many times each model and command is
// referenced while one request is compiled.
//
// A Counts value is created per compilation branch and threaded by pointer
// through every compiling call. It is not safe for concurrent mutation:
// parallel branches each own a Counts and are combined with Merge at the
// join point.
package usage

import (
	"slices"

	"github.com/roach88/fieldir/internal/metadata"
)

// Counts maps model and command names to occurrence counts. Counts only grow.
type Counts struct {
	Models   map[metadata.ModelName]int   `json:"models_used"`
	Commands map[metadata.CommandName]int `json:"commands_used"`
}

// New returns an empty accumulator.
func New() *Counts {
	return &Counts{
		Models:   make(map[metadata.ModelName]int),
		Commands: make(map[metadata.CommandName]int),
	}
}

// CountModel records one reference to a model.
func (c *Counts) CountModel(name metadata.ModelName) {
	if c.Models == nil {
		c.Models = make(map[metadata.ModelName]int)
	}
	c.Models[name]++
}

// CountCommand records one reference to a command.
func (c *Counts) CountCommand(name metadata.CommandName) {
	if c.Commands == nil {
		c.Commands = make(map[metadata.CommandName]int)
	}
	c.Commands[name]++
}

// Model returns the count for a model, zero if never referenced.
func (c *Counts) Model(name metadata.ModelName) int {
	return c.Models[name]
}

// Command returns the count for a command, zero if never referenced.
func (c *Counts) Command(name metadata.CommandName) int {
	return c.Commands[name]
}

// Merge adds other's counts into c. other is not modified.
func (c *Counts) Merge(other *Counts) {
	if other == nil {
		return
	}
	for name, n := range other.Models {
		if c.Models == nil {
			c.Models = make(map[metadata.ModelName]int)
		}
		c.Models[name] += n
	}
	for name, n := range other.Commands {
		if c.Commands == nil {
			c.Commands = make(map[metadata.CommandName]int)
		}
		c.Commands[name] += n
	}
}

// Clone returns an independent copy.
func (c *Counts) Clone() *Counts {
	out := New()
	out.Merge(c)
	return out
}

// ModelNames returns the referenced models sorted by name.
func (c *Counts) ModelNames() []metadata.ModelName {
	names := make([]metadata.ModelName, 0, len(c.Models))
	for name := range c.Models {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
