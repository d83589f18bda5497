package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ComponentBase", func() {
	It("should set and get name", func() {
		component := NewComponentBase("Board.SDRAMCtrl")

		Expect(component.Name()).To(Equal("Board.SDRAMCtrl"))
	})

	It("should accept indexed names", func() {
		Expect(func() { NameMustBeValid("Board.Bank[3]") }).NotTo(Panic())
	})

	It("should reject malformed names", func() {
		Expect(func() { NewComponentBase("") }).To(Panic())
		Expect(func() { NewComponentBase("1Ctrl") }).To(Panic())
		Expect(func() { NewComponentBase("Board..Ctrl") }).To(Panic())
		Expect(func() { NewComponentBase("Board.Ctrl.") }).To(Panic())
	})
})
