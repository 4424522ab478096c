package grf

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

var testFiles = map[string][]byte{
	"data/test.txt":                  []byte("Hello, GRF!"),
	"data/model/prop.rsm":            append([]byte("GRSM"), make([]byte, 64)...),
	"data/texture/Wall.bmp":          []byte("BM fake bitmap data"),
	"data/subfolder/nested/file.txt": []byte("Nested file content"),
	"data/texture/유저인터페이스/a.tga":     []byte("tga"),
}

func writeTestGRF(t *testing.T, files map[string][]byte) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, files); err != nil {
		t.Fatalf("Write: %v", err)
	}
	p := filepath.Join(t.TempDir(), "test.grf")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func openTestGRF(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(writeTestGRF(t, testFiles))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpenAndList(t *testing.T) {
	a := openTestGRF(t)
	if a.Len() != len(testFiles) {
		t.Errorf("Len() = %d, want %d", a.Len(), len(testFiles))
	}
	list := a.List()
	if len(list) != len(testFiles) {
		t.Fatalf("List() has %d entries", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1] >= list[i] {
			t.Errorf("List() not sorted at %d: %q >= %q", i, list[i-1], list[i])
		}
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	a := openTestGRF(t)
	for _, name := range []string{"data/test.txt", "DATA/TEST.TXT", "data/texture/wall.bmp", "data/texture/유저인터페이스/a.tga"} {
		if _, err := a.ReadFile(name); err != nil {
			t.Errorf("ReadFile(%q): %v", name, err)
		}
	}
	if _, err := a.ReadFile("data/texture"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile(directory) error = %v, want fs.ErrNotExist", err)
	}
}

func TestInvalidPaths(t *testing.T) {
	a := openTestGRF(t)
	for _, name := range []string{"data\\test.txt", "/data/test.txt", "data/test.txt/", "./data/test.txt", "data/../data/test.txt", ""} {
		if _, err := a.ReadFile(name); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("ReadFile(%q) error = %v, want fs.ErrInvalid", name, err)
		}
		if _, err := a.Open(name); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("Open(%q) error = %v, want fs.ErrInvalid", name, err)
		}
	}
	for _, name := range []string{"/data", "data\\texture", "data/"} {
		if _, err := a.ReadDir(name); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("ReadDir(%q) error = %v, want fs.ErrInvalid", name, err)
		}
	}
}

func TestReadFile(t *testing.T) {
	a := openTestGRF(t)
	for name, want := range testFiles {
		got, err := a.ReadFile(name)
		if err != nil {
			t.Errorf("ReadFile(%q): %v", name, err)
			continue
		}
		if !bytes.Equal(got, want) {
			t.Errorf("ReadFile(%q) = %q, want %q", name, got, want)
		}
	}

	if _, err := a.ReadFile("data/nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file error = %v, want fs.ErrNotExist", err)
	}
}

func TestFS(t *testing.T) {
	a := openTestGRF(t)
	err := fstest.TestFS(a,
		"data/test.txt",
		"data/model/prop.rsm",
		"data/texture/wall.bmp",
		"data/subfolder/nested/file.txt",
	)
	if err != nil {
		t.Fatal(err)
	}
}

func TestOpenFile(t *testing.T) {
	a := openTestGRF(t)
	f, err := a.Open("data/texture/Wall.bmp")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if info.Name() != "wall.bmp" || info.IsDir() || info.Size() != int64(len(testFiles["data/texture/Wall.bmp"])) {
		t.Errorf("Stat() = %s dir=%v size=%d", info.Name(), info.IsDir(), info.Size())
	}
	data, err := io.ReadAll(f)
	if err != nil || !bytes.HasPrefix(data, []byte("BM")) {
		t.Errorf("ReadAll = %q, %v", data, err)
	}

	if _, err := a.Open("../escape"); !errors.Is(err, fs.ErrInvalid) {
		t.Errorf("invalid path error = %v", err)
	}
}

func TestReadDir(t *testing.T) {
	a := openTestGRF(t)
	entries, err := fs.ReadDir(a, "data")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := []string{"model", "subfolder", "test.txt", "texture"}
	if len(names) != len(want) {
		t.Fatalf("ReadDir(data) = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, names[i], want[i])
		}
	}
	if !entries[0].IsDir() || entries[2].IsDir() {
		t.Error("directory flags are wrong")
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Open(filepath.Join(dir, "missing.grf")); err == nil {
		t.Error("opening a missing file succeeded")
	}

	bad := filepath.Join(dir, "bad.grf")
	os.WriteFile(bad, make([]byte, 64), 0o644)
	if _, err := Open(bad); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("bad magic error = %v", err)
	}

	data, _ := os.ReadFile(writeTestGRF(t, testFiles))
	data[42] = 0x03 // version 0x203
	v := filepath.Join(dir, "v.grf")
	os.WriteFile(v, data, 0o644)
	if _, err := Open(v); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("version error = %v", err)
	}

	data, _ = os.ReadFile(writeTestGRF(t, testFiles))
	trunc := filepath.Join(dir, "trunc.grf")
	os.WriteFile(trunc, data[:len(data)-10], 0o644)
	if _, err := Open(trunc); !errors.Is(err, ErrCorruptTable) {
		t.Errorf("truncated table error = %v", err)
	}
}

func TestEmptyArchive(t *testing.T) {
	a, err := Open(writeTestGRF(t, nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()
	if a.Len() != 0 {
		t.Errorf("Len() = %d", a.Len())
	}
	if entries, err := a.ReadDir("."); err != nil || len(entries) != 0 {
		t.Errorf("ReadDir(.) = %v, %v", entries, err)
	}
}
