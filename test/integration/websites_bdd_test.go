//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/neuguard/internal/app"
	"github.com/eliteGoblin/focusd/neuguard/internal/config"
	"github.com/eliteGoblin/focusd/neuguard/internal/usecase"
)

var _ = Describe("Website blocking", func() {
	const original = "127.0.0.1 localhost\n::1 localhost\n"

	var (
		tmpDir    string
		hostsPath string
		engine    *app.Engine
	)

	hosts := func() string {
		data, err := os.ReadFile(hostsPath)
		Expect(err).NotTo(HaveOccurred())
		return string(data)
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "neuguard-integration-*")
		Expect(err).NotTo(HaveOccurred())

		hostsPath = filepath.Join(tmpDir, "hosts")
		Expect(os.WriteFile(hostsPath, []byte(original), 0644)).To(Succeed())

		cfg := config.Default()
		cfg.HostsPath = hostsPath
		cfg.DataDir = filepath.Join(tmpDir, "data")
		engine = app.NewFromConfig(cfg, zap.NewNop())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("ApplyWebsiteBlocks", func() {
		It("writes one loopback line per domain inside the managed region", func() {
			domains, err := engine.ResolveDomains([]string{"example.com"}, []string{"gaming"})
			Expect(err).NotTo(HaveOccurred())
			Expect(engine.ApplyWebsiteBlocks(domains)).To(Succeed())

			content := hosts()
			Expect(content).To(HavePrefix(original))
			Expect(content).To(ContainSubstring(usecase.BlockStartMarker))
			Expect(content).To(ContainSubstring("127.0.0.1 example.com\n"))
			Expect(content).To(ContainSubstring("127.0.0.1 store.steampowered.com\n"))
			Expect(strings.Count(content, usecase.BlockStartMarker)).To(Equal(1))
		})

		It("is idempotent", func() {
			Expect(engine.ApplyWebsiteBlocks([]string{"example.com"})).To(Succeed())
			first := hosts()
			Expect(engine.ApplyWebsiteBlocks([]string{"example.com"})).To(Succeed())
			Expect(hosts()).To(Equal(first))
		})

		It("replaces the previous region", func() {
			Expect(engine.ApplyWebsiteBlocks([]string{"a.com", "b.com"})).To(Succeed())
			Expect(engine.ApplyWebsiteBlocks([]string{"c.com"})).To(Succeed())

			domains, err := engine.ListBlockedDomains()
			Expect(err).NotTo(HaveOccurred())
			Expect(domains).To(Equal([]string{"c.com"}))
		})
	})

	Describe("RemoveWebsiteBlocks", func() {
		It("restores the original content", func() {
			Expect(engine.ApplyWebsiteBlocks([]string{"example.com"})).To(Succeed())
			Expect(engine.RemoveWebsiteBlocks()).To(Succeed())
			Expect(hosts()).To(Equal(original))
		})
	})

	Describe("ResolveDomains", func() {
		It("rejects unknown categories", func() {
			_, err := engine.ResolveDomains(nil, []string{"does-not-exist"})
			Expect(err).To(HaveOccurred())
		})
	})
})
