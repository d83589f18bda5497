package sdram

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sdramsim/sim"
)

var _ = Describe("Config", func() {
	It("should accept the default configuration", func() {
		c := DefaultConfig()

		Expect(c.Validate()).To(Succeed())
		Expect(c.RefreshInterval()).To(Equal(uint64(73)))
		Expect(c.DividerRatio()).To(Equal(4))
		Expect(c.InputFreq()).To(Equal(25 * sim.MHz))
		Expect(c.MinOperationEdges()).To(Equal(uint64(10)))
	})

	It("should accept the burst refresh configuration", func() {
		c := BurstRefreshConfig()

		Expect(c.Validate()).To(Succeed())
		Expect(c.RefreshInterval()).To(Equal(uint64(189393)))
		Expect(c.MinOperationEdges()).To(Equal(uint64(8)))
	})

	It("should reject a zero refresh interval", func() {
		c := DefaultConfig()
		c.RefreshFreq = 10 * sim.MHz

		Expect(c.Validate()).To(MatchError(ErrZeroRefreshInterval))
	})

	It("should reject a missing divider", func() {
		c := DefaultConfig()
		c.DivideBy4 = false

		Expect(c.Validate()).To(MatchError(ErrDividerSelection))
	})

	It("should reject more than one divider", func() {
		c := DefaultConfig()
		c.DivideBy2 = true

		Expect(c.DividerRatio()).To(BeZero())
		Expect(c.Validate()).To(MatchError(ErrDividerSelection))
	})

	It("should reject an interval wider than the counter", func() {
		c := DefaultConfig()
		c.RefreshCounterWidth = 6

		Expect(c.Validate()).To(MatchError(ErrIntervalOverflow))
	})

	It("should reject an interval shorter than an operation", func() {
		c := DefaultConfig()
		c.RefreshFreq = 625 * sim.KHz

		Expect(c.RefreshInterval()).To(Equal(uint64(10)))
		Expect(c.Validate()).To(MatchError(ErrIntervalTooShort))
	})

	It("should reject a column wider than the address pins allow", func() {
		c := DefaultConfig()
		c.Geometry.ColBits = 11

		Expect(c.Validate()).To(MatchError(ErrInvalidField))
	})

	It("should reject an auto-refresh delay wider than its counter", func() {
		c := DefaultConfig()
		c.AutoRefreshDelay = 8

		Expect(c.Validate()).To(MatchError(ErrInvalidField))
	})

	It("should parse on top of the defaults", func() {
		c, err := ParseConfig([]byte("refresh_freq: 66666\npower_up_refresh_count: 4\n"))

		Expect(err).NotTo(HaveOccurred())
		Expect(c.RefreshFreq).To(Equal(66666 * sim.Hz))
		Expect(c.PowerUpRefreshCount).To(Equal(4))
		Expect(c.DividerRatio()).To(Equal(4))
		Expect(c.SystemFreq).To(Equal(6250 * sim.KHz))
	})

	It("should replace the default divider", func() {
		c, err := ParseConfig([]byte("divide_by_8: true\n"))

		Expect(err).NotTo(HaveOccurred())
		Expect(c.DividerRatio()).To(Equal(8))
		Expect(c.Validate()).To(Succeed())
	})

	It("should reject unknown fields", func() {
		_, err := ParseConfig([]byte("refresh_rate: 10\n"))

		Expect(err).To(HaveOccurred())
	})

	It("should save and load", func() {
		path := filepath.Join(GinkgoT().TempDir(), "sdram.yaml")
		c := BurstRefreshConfig()
		c.DivideBy4 = false
		c.DivideBy2 = true

		Expect(c.Save(path)).To(Succeed())
		loaded, err := LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(c))
	})

	It("should fail to load a missing file", func() {
		_, err := LoadConfig(filepath.Join(os.TempDir(), "no-such-sdram.yaml"))

		Expect(err).To(HaveOccurred())
	})
})
