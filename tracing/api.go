// Package tracing records the life of tasks, such as memory requests, as they
// flow through hookable components.
package tracing

import (
	"log"

	"github.com/sarchlab/sdramsim/sim"
)

// NamedHookable is a component that tasks can be traced on.
type NamedHookable interface {
	sim.Named
	sim.Hookable
	InvokeHook(sim.HookCtx)
}

// Hook positions at which tracers receive tasks.
var (
	HookPosTaskStart = &sim.HookPos{Name: "HookPosTaskStart"}
	HookPosTaskStep  = &sim.HookPos{Name: "HookPosTaskStep"}
	HookPosTaskEnd   = &sim.HookPos{Name: "HookPosTaskEnd"}
)

// StartTask tells the tracers of a domain that a task starts there. The
// task is located at the domain.
func StartTask(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	detail interface{},
) {
	if domain == nil {
		log.Panic("domain must not be nil")
	}

	StartTaskWithSpecificLocation(
		id, parentID, domain, kind, what, domain.Name(), detail)
}

// StartTaskWithSpecificLocation is StartTask for tasks that are located
// somewhere other than the domain, for example a bank inside a controller.
func StartTaskWithSpecificLocation(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	location string,
	detail interface{},
) {
	if domain == nil {
		log.Panic("domain must not be nil")
	}

	if domain.NumHooks() == 0 {
		return
	}

	task := Task{
		ID:       id,
		ParentID: parentID,
		Kind:     kind,
		What:     what,
		Where:    location,
		Detail:   detail,
	}
	task.mustBeStartable()

	invoke(domain, HookPosTaskStart, task)
}

func (t Task) mustBeStartable() {
	switch {
	case t.ID == "":
		log.Panic("task id must not be empty")
	case t.Kind == "":
		log.Panicf("task %s has no kind", t.ID)
	case t.What == "":
		log.Panicf("task %s has no what", t.ID)
	case t.Where == "":
		log.Panicf("task %s has no location", t.ID)
	}
}

// AddTaskStep records that a task reached a step, such as a controller
// state.
func AddTaskStep(id string, domain NamedHookable, what string) {
	if domain.NumHooks() == 0 {
		return
	}

	invoke(domain, HookPosTaskStep, Task{
		ID:    id,
		Steps: []TaskStep{{What: what}},
	})
}

// EndTask tells the tracers of a domain that a task is finished.
func EndTask(id string, domain NamedHookable) {
	if domain.NumHooks() == 0 {
		return
	}

	invoke(domain, HookPosTaskEnd, Task{ID: id})
}

func invoke(domain NamedHookable, pos *sim.HookPos, task Task) {
	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Pos:    pos,
		Item:   task,
	})
}
