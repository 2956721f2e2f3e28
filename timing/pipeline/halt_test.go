package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/e20arch/e20sim/timing/pipeline"
)

var _ = Describe("HaltDetector", func() {
	var detector *pipeline.HaltDetector

	BeforeEach(func() {
		detector = pipeline.NewHaltDetector(3)
	})

	Describe("SelfJump", func() {
		It("should recognize a branch to its own address", func() {
			Expect(detector.SelfJump(5, 5)).To(BeTrue())
		})

		It("should not fire for other targets", func() {
			Expect(detector.SelfJump(6, 5)).To(BeFalse())
		})
	})

	Describe("Observe", func() {
		It("should fire after the window of unchanged PCs", func() {
			Expect(detector.Observe(10, false)).To(BeFalse())
			Expect(detector.Observe(10, false)).To(BeFalse())
			Expect(detector.Observe(10, false)).To(BeTrue())
		})

		It("should restart the window when the PC changes", func() {
			detector.Observe(10, false)
			detector.Observe(10, false)
			detector.Observe(11, false)
			Expect(detector.Observe(11, false)).To(BeFalse())
			Expect(detector.Observe(11, false)).To(BeTrue())
		})

		It("should not count stalled cycles", func() {
			detector.Observe(10, false)
			Expect(detector.Observe(10, true)).To(BeFalse())
			Expect(detector.Observe(10, true)).To(BeFalse())
			Expect(detector.Observe(10, false)).To(BeFalse())
			Expect(detector.Observe(10, false)).To(BeTrue())
		})

		It("should not fire while the PC advances", func() {
			for pc := uint16(0); pc < 100; pc++ {
				Expect(detector.Observe(pc, false)).To(BeFalse())
			}
		})
	})

	Describe("Reset", func() {
		It("should clear accumulated state", func() {
			detector.Observe(10, false)
			detector.Observe(10, false)

			detector.Reset()

			Expect(detector.Observe(10, false)).To(BeFalse())
			Expect(detector.Observe(10, false)).To(BeFalse())
			Expect(detector.Observe(10, false)).To(BeTrue())
		})
	})

	Describe("NewHaltDetector", func() {
		It("should fall back to the default window for non-positive values", func() {
			d := pipeline.NewHaltDetector(0)

			for i := 0; i < pipeline.DefaultHaltWindow-1; i++ {
				Expect(d.Observe(10, false)).To(BeFalse())
			}
			Expect(d.Observe(10, false)).To(BeTrue())
		})
	})
})
