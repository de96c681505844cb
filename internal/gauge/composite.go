package gauge

import "fmt"

// Composite is an ordered set of components forming one complete gauge.
// Components tick in insertion order, so sources must be added before the
// renderers that read them.
type Composite struct {
	name       string
	components []Tickable
}

// NewComposite creates an empty gauge with the given name.
func NewComposite(name string) *Composite {
	return &Composite{name: name}
}

// Name returns the gauge name.
func (g *Composite) Name() string {
	return g.name
}

// Add registers a component and initializes it immediately.
// The component stays registered even if Init fails.
func (g *Composite) Add(c Tickable) error {
	g.components = append(g.components, c)
	if err := c.Init(); err != nil {
		return fmt.Errorf("init component %d of %q: %w", len(g.components)-1, g.name, err)
	}
	return nil
}

// Len returns the number of registered components.
func (g *Composite) Len() int {
	return len(g.components)
}

// Init satisfies Tickable. Components are initialized by Add.
func (g *Composite) Init() error {
	return nil
}

// Tick ticks every component in insertion order.
func (g *Composite) Tick() {
	for _, c := range g.components {
		c.Tick()
	}
}
