package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("EventQueueImpl", func() {
	var (
		mockCtrl *gomock.Controller
		queue    *EventQueueImpl
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		queue = NewEventQueue()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	newEvent := func(t VTimeInSec) *MockEvent {
		event := NewMockEvent(mockCtrl)
		event.EXPECT().Time().Return(t).AnyTimes()

		return event
	}

	It("should pop in order", func() {
		numEvents := 100
		for i := 0; i < numEvents; i++ {
			queue.Push(newEvent(VTimeInSec(rand.Float64() / 1e8)))
		}

		Expect(queue.Len()).To(Equal(numEvents))

		now := VTimeInSec(-1)
		for i := 0; i < numEvents; i++ {
			event := queue.Pop()
			Expect(event.Time() >= now).To(BeTrue())
			now = event.Time()
		}
	})

	It("should keep the push order of same-time events", func() {
		events := make([]Event, 0, 10)
		for i := 0; i < 10; i++ {
			e := newEvent(2)
			events = append(events, e)
			queue.Push(e)
		}
		queue.Push(newEvent(1))

		Expect(queue.Peek().Time()).To(Equal(VTimeInSec(1)))
		queue.Pop()

		for i := 0; i < 10; i++ {
			Expect(queue.Pop()).To(BeIdenticalTo(events[i]))
		}
	})
})
