package tracing

import "github.com/sarchlab/tmu/sim"

// NamedHookable is something that has a name and can be hooked.
type NamedHookable interface {
	sim.Named
	sim.Hookable
	InvokeHook(sim.HookCtx)
}

// Hook positions of task events.
var (
	HookPosTaskStart = &sim.HookPos{Name: "HookPosTaskStart"}
	HookPosTaskStep  = &sim.HookPos{Name: "HookPosTaskStep"}
	HookPosTaskEnd   = &sim.HookPos{Name: "HookPosTaskEnd"}
)

// StartTask notifies the hooks of the domain that a task starts. The task
// is located at the domain.
func StartTask(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	detail interface{},
) {
	StartTaskWithSpecificLocation(
		id, parentID, domain, kind, what, domain.Name(), detail)
}

// StartTaskWithSpecificLocation notifies the hooks of the domain that a
// task starts at the given location, which can be a part of the domain.
func StartTaskWithSpecificLocation(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	location string,
	detail interface{},
) {
	if domain.NumHooks() == 0 {
		return
	}

	requiredFieldsMustBeSet(id, kind, what, location)

	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Pos:    HookPosTaskStart,
		Item: Task{
			ID:       id,
			ParentID: parentID,
			Kind:     kind,
			What:     what,
			Location: location,
			Detail:   detail,
		},
	})
}

func requiredFieldsMustBeSet(id, kind, what, location string) {
	switch {
	case id == "":
		panic("id must not be empty")
	case kind == "":
		panic("kind must not be empty")
	case what == "":
		panic("what must not be empty")
	case location == "":
		panic("location must not be empty")
	}
}

// AddTaskStep marks that a task reached a milestone.
func AddTaskStep(id string, domain NamedHookable, what string) {
	if domain.NumHooks() == 0 {
		return
	}

	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Pos:    HookPosTaskStep,
		Item: Task{
			ID:    id,
			Steps: []TaskStep{{What: what}},
		},
	})
}

// EndTask notifies the hooks of the domain that a task ends.
func EndTask(id string, domain NamedHookable) {
	if domain.NumHooks() == 0 {
		return
	}

	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Pos:    HookPosTaskEnd,
		Item:   Task{ID: id},
	})
}
