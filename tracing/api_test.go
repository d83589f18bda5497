package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/sdramsim/sim"
)

var _ = Describe("Api", func() {
	var (
		mockCtrl *gomock.Controller
		domain   *MockNamedHookable
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		domain = NewMockNamedHookable(mockCtrl)
		domain.EXPECT().NumHooks().Return(1).AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should panic if ID is not given", func() {
		domain.EXPECT().Name().Return("domain").AnyTimes()
		Expect(func() {
			StartTask("", "123", domain, "kind", "what", nil)
		}).Should(Panic())
	})

	It("should be panic if domain is nil.", func() {
		Expect(func() {
			StartTask("id", "123", nil, "kind", "what", nil)
		}).Should(Panic())
	})

	It("should be panic if the location is empty.", func() {
		domain.EXPECT().Name().Return("").AnyTimes()
		Expect(func() {
			StartTask("id", "123", domain, "kind", "what", nil)
		}).Should(Panic())
	})

	It("should be panic if kind is empty.", func() {
		domain.EXPECT().Name().Return("domain").AnyTimes()
		Expect(func() {
			StartTask("id", "123", domain, "", "what", nil)
		}).Should(Panic())
	})

	It("should be panic if what is empty.", func() {
		domain.EXPECT().Name().Return("domain").AnyTimes()
		Expect(func() {
			StartTask("id", "123", domain, "kind", "", nil)
		}).Should(Panic())
	})

	It("should not invoke hooks if there is no hook", func() {
		noHooks := NewMockNamedHookable(mockCtrl)
		noHooks.EXPECT().Name().Return("domain").AnyTimes()
		noHooks.EXPECT().NumHooks().Return(0).AnyTimes()

		StartTask("id", "", noHooks, "req_in", "read", nil)
		AddTaskStep("id", noHooks, "set-ras")
		EndTask("id", noHooks)
	})

	It("should send the task through the hooks", func() {
		domain.EXPECT().Name().Return("Ctrl").AnyTimes()

		var ctxs []sim.HookCtx
		domain.EXPECT().
			InvokeHook(gomock.Any()).
			Do(func(ctx sim.HookCtx) { ctxs = append(ctxs, ctx) }).
			Times(3)

		StartTask("id", "parent", domain, "req_in", "read", 42)
		AddTaskStep("id", domain, "set-ras")
		EndTask("id", domain)

		Expect(ctxs[0].Pos).To(Equal(HookPosTaskStart))
		Expect(ctxs[0].Item).To(Equal(Task{
			ID:       "id",
			ParentID: "parent",
			Kind:     "req_in",
			What:     "read",
			Where:    "Ctrl",
			Detail:   42,
		}))
		Expect(ctxs[1].Pos).To(Equal(HookPosTaskStep))
		Expect(ctxs[1].Item.(Task).Steps[0].What).To(Equal("set-ras"))
		Expect(ctxs[2].Pos).To(Equal(HookPosTaskEnd))
	})
})

var _ = Describe("CollectTrace", func() {
	var (
		mockCtrl *gomock.Controller
		domain   *MockNamedHookable
		tracer   *MockTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		domain = NewMockNamedHookable(mockCtrl)
		tracer = NewMockTracer(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should dispatch hook positions to the tracer", func() {
		var hook sim.Hook
		domain.EXPECT().Hooks().Return(nil)
		domain.EXPECT().AcceptHook(gomock.Any()).
			Do(func(h sim.Hook) { hook = h })

		CollectTrace(domain, tracer)

		task := Task{ID: "1"}
		tracer.EXPECT().StartTask(task)
		tracer.EXPECT().StepTask(task)
		tracer.EXPECT().EndTask(task)

		hook.Func(sim.HookCtx{Pos: HookPosTaskStart, Item: task})
		hook.Func(sim.HookCtx{Pos: HookPosTaskStep, Item: task})
		hook.Func(sim.HookCtx{Pos: HookPosTaskEnd, Item: task})
		hook.Func(sim.HookCtx{Pos: sim.HookPosBeforeEvent, Item: 1})
	})

	It("should panic when attaching the same tracer twice", func() {
		existing := &traceHook{t: tracer}
		domain.EXPECT().Name().Return("Ctrl").AnyTimes()
		domain.EXPECT().Hooks().Return([]sim.Hook{existing})

		Expect(func() { CollectTrace(domain, tracer) }).To(Panic())
	})
})
