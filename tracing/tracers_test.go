package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/sdramsim/sim"
)

func step(id, what string) Task {
	return Task{ID: id, Steps: []TaskStep{{What: what}}}
}

var _ = Describe("AverageTimeTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		tracer     *AverageTimeTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		tracer = NewAverageTimeTracer(timeTeller, KindFilter("req_in"))
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should average the task time", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		tracer.StartTask(Task{ID: "a", Kind: "req_in"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2))
		tracer.StartTask(Task{ID: "b", Kind: "req_in"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(3))
		tracer.EndTask(Task{ID: "a"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(6))
		tracer.EndTask(Task{ID: "b"})

		Expect(tracer.TotalCount()).To(Equal(uint64(2)))
		Expect(tracer.AverageTime()).To(Equal(sim.VTimeInSec(3)))
		Expect(tracer.MaxTime()).To(Equal(sim.VTimeInSec(4)))
	})

	It("should ignore filtered tasks", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1)).Times(2)
		tracer.StartTask(Task{ID: "a", Kind: "other"})
		tracer.EndTask(Task{ID: "a"})

		Expect(tracer.TotalCount()).To(BeZero())
	})
})

var _ = Describe("StepCountTracer", func() {
	It("should count steps and tasks", func() {
		tracer := NewStepCountTracer(nil)

		tracer.StartTask(Task{ID: "a"})
		tracer.StartTask(Task{ID: "b"})
		tracer.StepTask(step("a", "set-ras"))
		tracer.StepTask(step("a", "set-ras"))
		tracer.StepTask(step("b", "set-ras"))
		tracer.StepTask(step("b", "read"))
		tracer.StepTask(step("c", "write"))
		tracer.EndTask(Task{ID: "a"})
		tracer.EndTask(Task{ID: "b"})

		Expect(tracer.GetStepNames()).To(Equal([]string{"set-ras", "read"}))
		Expect(tracer.GetStepCount("set-ras")).To(Equal(uint64(3)))
		Expect(tracer.GetTaskCount("set-ras")).To(Equal(uint64(2)))
		Expect(tracer.GetTaskCount("read")).To(Equal(uint64(1)))
		Expect(tracer.GetStepCount("write")).To(BeZero())
	})
})

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		backend    *MockTraceWriter
		tracer     *DBTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		backend = NewMockTraceWriter(mockCtrl)
		tracer = NewDBTracer(timeTeller, backend)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write finished tasks with their steps", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		tracer.StartTask(Task{ID: "a", Kind: "req_in", What: "read"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2))
		tracer.StepTask(step("a", "set-ras"))

		backend.EXPECT().Write(Task{
			ID:        "a",
			Kind:      "req_in",
			What:      "read",
			StartTime: 1,
			EndTime:   3,
			Steps:     []TaskStep{{Time: 2, What: "set-ras"}},
		})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(3))
		tracer.EndTask(Task{ID: "a"})

		Expect(tracer.NumInflightTasks()).To(BeZero())
	})

	It("should skip tasks that end before the time range", func() {
		tracer.SetTimeRange(10, 0)

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		tracer.StartTask(Task{ID: "a", Kind: "req_in", What: "read"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2))
		tracer.EndTask(Task{ID: "a"})
	})

	It("should skip tasks that start after the time range", func() {
		tracer.SetTimeRange(0, 10)

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(11))
		tracer.StartTask(Task{ID: "a", Kind: "req_in", What: "read"})

		Expect(tracer.NumInflightTasks()).To(BeZero())
	})

	It("should write unfinished tasks on termination", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		tracer.StartTask(Task{ID: "a", Kind: "req_in", What: "write"})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(5))
		backend.EXPECT().Write(Task{
			ID:        "a",
			Kind:      "req_in",
			What:      "write",
			StartTime: 1,
			EndTime:   5,
		})
		backend.EXPECT().Flush()

		tracer.Terminate()
	})
})
