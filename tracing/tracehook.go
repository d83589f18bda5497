package tracing

import (
	"log"
	"reflect"

	"github.com/sarchlab/sdramsim/sim"
)

// CollectTrace attaches a tracer to a domain. A tracer can only be attached
// to a domain once.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	for _, h := range domain.Hooks() {
		if th, ok := h.(*traceHook); ok && th.t == tracer {
			log.Panicf("domain %s already has tracer %s",
				domain.Name(), reflect.TypeOf(tracer))
		}
	}

	domain.AcceptHook(&traceHook{t: tracer})
}

// traceHook forwards the task hook positions to a tracer.
type traceHook struct {
	t Tracer
}

func (h *traceHook) Func(ctx sim.HookCtx) {
	task, ok := ctx.Item.(Task)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosTaskStart:
		h.t.StartTask(task)
	case HookPosTaskStep:
		h.t.StepTask(task)
	case HookPosTaskEnd:
		h.t.EndTask(task)
	}
}
