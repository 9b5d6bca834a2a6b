// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FakeInstallTree creates a program folder populated with fake applications.
type FakeInstallTree struct {
	Root string
	Ext  string // ".exe" for Windows-style trees, empty for mode-bit executables
}

// NewFakeInstallTree creates a new fake install tree generator under root.
func NewFakeInstallTree(root, ext string) *FakeInstallTree {
	return &FakeInstallTree{Root: root, Ext: ext}
}

// AddApp creates an executable at rel (slash-separated, without extension)
// and returns its absolute path.
func (f *FakeInstallTree) AddApp(rel string) (string, error) {
	path := filepath.Join(f.Root, filepath.FromSlash(rel)+f.Ext)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		return "", err
	}
	return path, nil
}

// AddFile creates a non-executable file at rel.
func (f *FakeInstallTree) AddFile(rel string) (string, error) {
	path := filepath.Join(f.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// FakeSteamInstall creates a Steam client folder with extra libraries
// listed in libraryfolders.vdf.
type FakeSteamInstall struct {
	InstallDir string
	Libraries  []string
}

// NewFakeSteamInstall creates a new fake Steam install generator.
func NewFakeSteamInstall(installDir string, libraries ...string) *FakeSteamInstall {
	return &FakeSteamInstall{InstallDir: installDir, Libraries: libraries}
}

// Create writes the games folders and the library manifest.
func (f *FakeSteamInstall) Create() error {
	for _, dir := range append([]string{f.InstallDir}, f.Libraries...) {
		if err := os.MkdirAll(GamesDir(dir), 0755); err != nil {
			return err
		}
	}

	var b strings.Builder
	b.WriteString("\"libraryfolders\"\n{\n")
	for i, lib := range append([]string{f.InstallDir}, f.Libraries...) {
		fmt.Fprintf(&b, "\t\"%d\"\n\t{\n\t\t\"path\"\t\t\"%s\"\n\t}\n", i, strings.ReplaceAll(lib, `\`, `\\`))
	}
	b.WriteString("}\n")

	manifest := filepath.Join(f.InstallDir, "steamapps", "libraryfolders.vdf")
	return os.WriteFile(manifest, []byte(b.String()), 0644)
}

// AddGame creates an executable directly inside a game folder of library.
func (f *FakeSteamInstall) AddGame(library, game, exe string) (string, error) {
	path := filepath.Join(GamesDir(library), game, exe)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		return "", err
	}
	return path, nil
}

// GamesDir is where Steam keeps installed games inside a library.
func GamesDir(library string) string {
	return filepath.Join(library, "steamapps", "common")
}
