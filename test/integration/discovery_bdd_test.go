//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/neuguard/internal/infra"
	"github.com/eliteGoblin/focusd/neuguard/internal/policy"
	"github.com/eliteGoblin/focusd/neuguard/internal/usecase"
	"github.com/eliteGoblin/focusd/neuguard/test/fixtures"
)

var _ = Describe("Installed application discovery", func() {
	var (
		tmpDir    string
		programs  *fixtures.FakeInstallTree
		steam     *fixtures.FakeSteamInstall
		extraLib  string
		discovery *usecase.InstalledDiscovery
	)

	paths := func() []string {
		records, err := discovery.ListInstalled(context.Background())
		Expect(err).NotTo(HaveOccurred())
		out := make([]string, 0, len(records))
		for _, r := range records {
			Expect(r.PID).To(BeNil())
			out = append(out, r.Path)
		}
		sort.Strings(out)
		return out
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "neuguard-integration-*")
		Expect(err).NotTo(HaveOccurred())

		programs = fixtures.NewFakeInstallTree(filepath.Join(tmpDir, "programs"), "")
		extraLib = filepath.Join(tmpDir, "games")
		steam = fixtures.NewFakeSteamInstall(filepath.Join(tmpDir, "steam"), extraLib)
		Expect(steam.Create()).To(Succeed())

		fsm := infra.NewFileSystemManagerWithHome(tmpDir)
		platform := policy.Platform{GOOS: "linux", ProgramRoots: []string{programs.Root}}
		discovery = usecase.NewInstalledDiscovery(
			fsm,
			nil,
			policy.NewSteamLibrariesWithInstallDir(fsm, steam.InstallDir),
			platform,
			zap.NewNop(),
		)
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Context("when scanning program folders", func() {
		It("finds executables up to two levels below the root", func() {
			top, err := programs.AddApp("tool")
			Expect(err).NotTo(HaveOccurred())
			nested, err := programs.AddApp("Editor/bin/editor")
			Expect(err).NotTo(HaveOccurred())
			_, err = programs.AddApp("Deep/a/b/c/too-deep")
			Expect(err).NotTo(HaveOccurred())

			Expect(paths()).To(Equal(sortedOf(top, nested)))
		})

		It("skips maintenance binaries and plain files", func() {
			app, err := programs.AddApp("Game/game")
			Expect(err).NotTo(HaveOccurred())
			_, err = programs.AddApp("Game/uninstall")
			Expect(err).NotTo(HaveOccurred())
			_, err = programs.AddFile("Game/readme.txt")
			Expect(err).NotTo(HaveOccurred())

			Expect(paths()).To(Equal([]string{app}))
		})
	})

	Context("when Steam libraries are present", func() {
		It("finds games in the default install and every listed library", func() {
			first, err := steam.AddGame(steam.InstallDir, "Portal", "portal")
			Expect(err).NotTo(HaveOccurred())
			second, err := steam.AddGame(extraLib, "Dota", "dota")
			Expect(err).NotTo(HaveOccurred())
			_, err = steam.AddGame(extraLib, "Dota/bin/linux64", "engine")
			Expect(err).NotTo(HaveOccurred())

			Expect(paths()).To(Equal(sortedOf(first, second)))
		})
	})

	Context("when nothing is installed", func() {
		It("returns an empty catalog", func() {
			Expect(paths()).To(BeEmpty())
		})
	})
})

func sortedOf(paths ...string) []string {
	sort.Strings(paths)
	return paths
}
