package policy

import (
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// osFS is a minimal domain.FileSystemManager over the real filesystem.
type osFS struct{}

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFS) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (osFS) ReadDir(path string) ([]fs.DirEntry, error) { return os.ReadDir(path) }
func (osFS) ReadFile(path string) ([]byte, error)       { return os.ReadFile(path) }
func (osFS) ExpandHome(path string) string              { return path }

const sampleLibraryFolders = `"libraryfolders"
{
	"0"
	{
		"path"		"C:\\Program Files (x86)\\Steam"
		"label"		""
	}
	"1"
	{
		"path"		"D:\\SteamLibrary"
		"totalsize"		"0"
	}
}
`

func TestParseLibraryFolders(t *testing.T) {
	got := ParseLibraryFolders(sampleLibraryFolders)
	want := []string{`C:\Program Files (x86)\Steam`, `D:\SteamLibrary`}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseLibraryFolders() = %v, want %v", got, want)
	}
}

func TestParseLibraryFolders_IgnoresOtherKeys(t *testing.T) {
	got := ParseLibraryFolders("\"label\"\t\"x\"\n\"pathx\"\n\"path\"\t\"\"\n")
	if len(got) != 0 {
		t.Errorf("expected no paths, got %v", got)
	}
}

func TestSteamLibraries_Roots(t *testing.T) {
	tmp := t.TempDir()
	install := filepath.Join(tmp, "Steam")
	extra := filepath.Join(tmp, "Library2")
	missing := filepath.Join(tmp, "Gone")

	for _, dir := range []string{
		filepath.Join(install, "steamapps", "common"),
		filepath.Join(extra, "steamapps", "common"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	manifest := "\"libraryfolders\"\n{\n" +
		"\t\"0\"\n\t{\n\t\t\"path\"\t\t\"" + install + "\"\n\t}\n" +
		"\t\"1\"\n\t{\n\t\t\"path\"\t\t\"" + extra + "\"\n\t}\n" +
		"\t\"2\"\n\t{\n\t\t\"path\"\t\t\"" + missing + "\"\n\t}\n}\n"
	if err := os.WriteFile(filepath.Join(install, "steamapps", "libraryfolders.vdf"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	roots := NewSteamLibrariesWithInstallDir(osFS{}, install).Roots()
	want := []string{
		filepath.Join(install, "steamapps", "common"),
		filepath.Join(extra, "steamapps", "common"),
	}
	if !reflect.DeepEqual(roots, want) {
		t.Errorf("Roots() = %v, want %v", roots, want)
	}
}

func TestSteamLibraries_NoInstall(t *testing.T) {
	roots := NewSteamLibrariesWithInstallDir(osFS{}, filepath.Join(t.TempDir(), "nope")).Roots()
	if len(roots) != 0 {
		t.Errorf("expected no roots, got %v", roots)
	}
}

func TestDefaultSteamInstallDir(t *testing.T) {
	if got := DefaultSteamInstallDir("linux", "/home/me"); got != "/home/me/.local/share/Steam" {
		t.Errorf("unexpected linux dir %q", got)
	}
	if got := DefaultSteamInstallDir("darwin", "/Users/me"); got != "/Users/me/Library/Application Support/Steam" {
		t.Errorf("unexpected darwin dir %q", got)
	}
}
