package sim

// Named is an object that has a name.
type Named interface {
	Name() string
}

// A Component is a named element of the simulation that handles events and
// accepts hooks.
type Component interface {
	Named
	Handler
	Hookable
}

// ComponentBase provides the name and hook support of components.
type ComponentBase struct {
	HookableBase
	name string
}

// NewComponentBase creates a ComponentBase. The name must follow the naming
// convention checked by NameMustBeValid.
func NewComponentBase(name string) *ComponentBase {
	NameMustBeValid(name)

	return &ComponentBase{name: name}
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}
