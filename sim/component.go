package sim

import (
	"log"
	"regexp"
	"sync"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A Component is an element that is being simulated.
type Component interface {
	Named
	Handler
	Hookable
}

// ComponentBase provides some functions that other components can use.
type ComponentBase struct {
	HookableBase
	sync.Mutex
	name string
}

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_\[\]]*(\.[A-Za-z][A-Za-z0-9_\[\]]*)*$`)

// NameMustBeValid panics if the name does not follow the dotted naming
// convention, e.g., "Board.SDRAMCtrl".
func NameMustBeValid(name string) {
	if !namePattern.MatchString(name) {
		log.Panicf("invalid component name %q", name)
	}
}

// NewComponentBase creates a new ComponentBase.
func NewComponentBase(name string) *ComponentBase {
	NameMustBeValid(name)

	c := new(ComponentBase)
	c.name = name

	return c
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}
