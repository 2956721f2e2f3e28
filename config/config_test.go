package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/e20arch/e20sim/config"
)

func writeConfig(content string) string {
	path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	return path
}

var _ = Describe("Default", func() {
	It("should disable caches and use the standard halt window", func() {
		cfg := config.Default()

		Expect(cfg.HaltWindow).To(Equal(5))
		Expect(cfg.MaxCycles).To(Equal(uint64(0)))
		Expect(cfg.ICache.Enabled).To(BeFalse())
		Expect(cfg.DCache.Enabled).To(BeFalse())
	})
})

var _ = Describe("Load", func() {
	It("should load settings from a YAML file", func() {
		path := writeConfig(`
maxCycles: 100000
haltWindow: 8
trace: true
dcache:
  enabled: true
  sizeWords: 64
  associativity: 2
  blockWords: 4
  hitLatency: 0
  missLatency: 3
`)

		cfg, err := config.Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.MaxCycles).To(Equal(uint64(100000)))
		Expect(cfg.HaltWindow).To(Equal(8))
		Expect(cfg.Trace).To(BeTrue())
		Expect(cfg.DCache.Enabled).To(BeTrue())
		Expect(cfg.DCache.SizeWords).To(Equal(64))
		Expect(cfg.DCache.MissLatency).To(Equal(3))
	})

	It("should keep defaults for fields absent from the file", func() {
		cfg, err := config.Load(writeConfig("maxCycles: 42\n"))

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.MaxCycles).To(Equal(uint64(42)))
		Expect(cfg.HaltWindow).To(Equal(5))
		Expect(cfg.ICache.SizeWords).To(Equal(256))
	})

	It("should reject a non-positive halt window", func() {
		_, err := config.Load(writeConfig("haltWindow: 0\n"))

		Expect(err).To(MatchError(ContainSubstring("halt window")))
	})

	It("should reject a cache size that is not a power of two", func() {
		_, err := config.Load(writeConfig(`
icache:
  enabled: true
  sizeWords: 100
  associativity: 2
  blockWords: 4
`))

		Expect(err).To(MatchError(ContainSubstring("power of two")))
	})

	It("should reject a cache too small for one set", func() {
		_, err := config.Load(writeConfig(`
dcache:
  enabled: true
  sizeWords: 4
  associativity: 2
  blockWords: 4
`))

		Expect(err).To(MatchError(ContainSubstring("too small")))
	})

	It("should report unreadable files", func() {
		_, err := config.Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))

		Expect(err).To(MatchError(ContainSubstring("failed to read config file")))
	})

	It("should report malformed YAML", func() {
		_, err := config.Load(writeConfig("maxCycles: [not a number\n"))

		Expect(err).To(MatchError(ContainSubstring("failed to parse config")))
	})
})
