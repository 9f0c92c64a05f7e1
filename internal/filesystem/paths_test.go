package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "localappdata",
			input: "%localappdata%/Roblox/rbx-storage.db",
			want:  filepath.Join(home, "AppData", "Local", "Roblox", "rbx-storage.db"),
		},
		{
			name:  "tilde",
			input: "~/.var/app/org.vinegarhq.Sober/cache/sober",
			want:  filepath.Join(home, ".var", "app", "org.vinegarhq.Sober", "cache", "sober"),
		},
		{
			name:  "bare tilde",
			input: "~",
			want:  home,
		},
		{
			name:  "absolute path untouched",
			input: "/var/cache/roblox",
			want:  filepath.FromSlash("/var/cache/roblox"),
		},
		{
			name:  "tilde in the middle untouched",
			input: "/data/a~b",
			want:  filepath.FromSlash("/data/a~b"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePath(tt.input); got != tt.want {
				t.Errorf("ResolvePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolvePathTemp(t *testing.T) {
	got := ResolvePath("%Temp%/Roblox")
	if runtime.GOOS == "windows" {
		return
	}
	want := filepath.Join(os.TempDir(), "Roblox")
	if got != want {
		t.Errorf("ResolvePath(%%Temp%%/Roblox) = %q, want %q", got, want)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rbx-storage.db")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := ValidateFile(file); err != nil {
		t.Errorf("ValidateFile(file) error = %v", err)
	}
	if err := ValidateFile(dir); err == nil {
		t.Error("ValidateFile(dir) should fail")
	}
	if err := ValidateFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("ValidateFile(missing) should fail")
	}

	if err := ValidateDir(dir); err != nil {
		t.Errorf("ValidateDir(dir) error = %v", err)
	}
	if err := ValidateDir(file); err == nil {
		t.Error("ValidateDir(file) should fail")
	}
}

func TestFirstExisting(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "second.db")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, ok := FirstExisting([]string{"", filepath.Join(dir, "first.db"), file}, ValidateFile)
	if !ok {
		t.Fatal("FirstExisting() found nothing")
	}
	if got != file {
		t.Errorf("FirstExisting() = %q, want %q", got, file)
	}

	if _, ok := FirstExisting([]string{filepath.Join(dir, "nope")}, ValidateFile); ok {
		t.Error("FirstExisting() should report no match")
	}
}

func TestIsRootPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"", true},
		{".", true},
		{"/", true},
		{"./", true},
		{"/tmp/RoExtract", false},
		{"rbx-storage", false},
	}

	for _, tt := range tests {
		if got := IsRootPath(tt.path); got != tt.want {
			t.Errorf("IsRootPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRemoveAllSafe(t *testing.T) {
	if err := RemoveAllSafe("/"); !errors.Is(err, ErrUnsafePath) {
		t.Errorf("RemoveAllSafe(/) error = %v, want ErrUnsafePath", err)
	}
	if err := RemoveAllSafe(""); !errors.Is(err, ErrUnsafePath) {
		t.Errorf("RemoveAllSafe(\"\") error = %v, want ErrUnsafePath", err)
	}

	dir := filepath.Join(t.TempDir(), "rbx-storage")
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := RemoveAllSafe(dir); err != nil {
		t.Fatalf("RemoveAllSafe() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("directory still exists after RemoveAllSafe")
	}
}

func TestRemoveContents(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	n, err := RemoveContents(dir)
	if err != nil {
		t.Fatalf("RemoveContents() error = %v", err)
	}
	if n != 4 {
		t.Errorf("RemoveContents() removed %d, want 4", n)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d entries left after RemoveContents", len(entries))
	}
	if err := ValidateDir(dir); err != nil {
		t.Errorf("directory itself should remain: %v", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target")

	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := WriteFileAtomic(path, []byte("new content"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "new content" {
		t.Errorf("content = %q, want %q", got, "new content")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "target")
	if err := WriteFileAtomic(path, []byte("x"), 0o644); err == nil {
		t.Error("WriteFileAtomic() into a missing directory should fail")
	}
}
