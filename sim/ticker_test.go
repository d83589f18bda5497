package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("TickingComponent", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
		ticker   *MockTicker
		tc       *TickingComponent
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		ticker = NewMockTicker(mockCtrl)
		tc = NewTickingComponent("TC", engine, 1, ticker)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should schedule the next tick when asked to tick later", func() {
		engine.EXPECT().CurrentTime().Return(VTimeInSec(10))
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e Event) {
				Expect(e.Time()).To(Equal(VTimeInSec(11)))
				Expect(e.IsSecondary()).To(BeFalse())
			})

		tc.TickLater()
	})

	It("should tick when the ticker makes progress", func() {
		engine.EXPECT().CurrentTime().Return(VTimeInSec(10))
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e Event) {
				Expect(e.Time()).To(Equal(VTimeInSec(11)))
			})
		ticker.EXPECT().Tick().Return(true)

		Expect(tc.Handle(MakeTickEvent(tc, 10))).To(Succeed())
	})

	It("should not schedule twice for the same cycle", func() {
		engine.EXPECT().CurrentTime().Return(VTimeInSec(10)).Times(2)
		engine.EXPECT().Schedule(gomock.Any()).Times(1)
		ticker.EXPECT().Tick().Return(true).Times(2)

		_ = tc.Handle(MakeTickEvent(tc, 10))
		_ = tc.Handle(MakeTickEvent(tc, 10))
	})

	It("should stop ticking if no progress is made", func() {
		ticker.EXPECT().Tick().Return(false)

		_ = tc.Handle(MakeTickEvent(tc, 10))
	})

	It("should schedule secondary ticks", func() {
		stc := NewSecondaryTickingComponent("STC", engine, 1, ticker)
		engine.EXPECT().CurrentTime().Return(VTimeInSec(3))
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e Event) {
				Expect(e.IsSecondary()).To(BeTrue())
			})

		stc.TickLater()
	})

	It("should panic on an invalid name", func() {
		Expect(func() {
			NewTickingComponent("1bad name", engine, 1, ticker)
		}).To(Panic())
	})
})
