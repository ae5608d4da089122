// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin

package cascfs

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hydra1983/casckit/lib/casc"
	"github.com/hydra1983/casckit/lib/casc/casctest"
)

// fuseAvailable checks whether /dev/fuse is accessible. Tests that
// need a real FUSE mount call this and skip if the device is absent.
func fuseAvailable(t *testing.T) {
	t.Helper()
	_, err := os.Stat("/dev/fuse")
	if err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testMount opens a fake storage holding the fixture files, mounts
// its full listing, and returns the mountpoint.
func testMount(t *testing.T, files ...casctest.File) string {
	t.Helper()
	fuseAvailable(t)

	eng := casctest.New(files...)
	st, err := casc.Open(eng, "/data/storage", casc.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("closing storage: %v", err)
		}
	})

	listing, err := st.Enumerate(casc.EnumerateOptions{Limit: casc.NoLimit})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}

	mountpoint := filepath.Join(t.TempDir(), "mount")
	server, err := Mount(mountpoint, st, listing, Options{Logger: testLogger()})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() {
		if err := server.Unmount(); err != nil {
			t.Errorf("Unmount: %v", err)
		}
	})

	return mountpoint
}

func TestMountValidation(t *testing.T) {
	eng := casctest.New(casctest.File{Name: "a.txt", Data: []byte("a")})
	st, err := casc.Open(eng, "/data/storage", casc.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	if _, err := Mount("", st, &casc.Listing{}, Options{}); err == nil {
		t.Error("Mount with empty mountpoint should fail")
	}
	if _, err := Mount(t.TempDir(), nil, &casc.Listing{}, Options{}); err == nil {
		t.Error("Mount with nil storage should fail")
	}
	if _, err := Mount(t.TempDir(), st, nil, Options{}); err == nil {
		t.Error("Mount with nil listing should fail")
	}
}

func TestMountTreeLayout(t *testing.T) {
	mountpoint := testMount(t,
		casctest.File{Name: `interface\icons\spell.blp`, Data: []byte("icon")},
		casctest.File{Name: `interface\glue\menu.blp`, Data: []byte("menu")},
		casctest.File{Name: "sound/music/intro.mp3", Data: []byte("music")},
		casctest.File{Name: "toc.txt", Data: []byte("toc")},
	)

	entries, err := os.ReadDir(mountpoint)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := make(map[string]bool)
	for _, entry := range entries {
		names[entry.Name()] = true
	}
	for _, want := range []string{"interface", "sound", "toc.txt"} {
		if !names[want] {
			t.Errorf("missing root entry %q", want)
		}
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 root entries, got %d: %v", len(entries), names)
	}

	sub, err := os.ReadDir(filepath.Join(mountpoint, "interface"))
	if err != nil {
		t.Fatalf("ReadDir interface: %v", err)
	}
	if len(sub) != 2 {
		t.Errorf("expected 2 entries under interface, got %d", len(sub))
	}
}

func TestMountReadFile(t *testing.T) {
	content := []byte("hello from the storage mount")
	mountpoint := testMount(t,
		casctest.File{Name: `interface\greeting.txt`, Data: content},
	)

	got, err := os.ReadFile(filepath.Join(mountpoint, "interface", "greeting.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("got %q, want %q", string(got), string(content))
	}
}

func TestMountReadLargeFile(t *testing.T) {
	// Bigger than a single FUSE read request.
	content := make([]byte, 512*1024)
	for i := range content {
		content[i] = byte(i % 251)
	}
	mountpoint := testMount(t,
		casctest.File{Name: "data/blob.bin", Data: content},
	)

	got, err := os.ReadFile(filepath.Join(mountpoint, "data", "blob.bin"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("large file content mismatch through FUSE")
	}
}

func TestMountStatAndPartialRead(t *testing.T) {
	content := []byte("0123456789abcdef")
	mountpoint := testMount(t,
		casctest.File{Name: "partial.bin", Data: content},
	)

	path := filepath.Join(mountpoint, "partial.bin")

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != int64(len(content)) {
		t.Errorf("size = %d, want %d", info.Size(), len(content))
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()

	buf := make([]byte, 4)
	if _, err := file.ReadAt(buf, 5); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "5678" {
		t.Errorf("partial read: got %q, want %q", string(buf), "5678")
	}
}

func TestMountIndependentHandles(t *testing.T) {
	content := []byte("abcdefghijklmnop")
	mountpoint := testMount(t,
		casctest.File{Name: "shared.bin", Data: content},
	)

	path := filepath.Join(mountpoint, "shared.bin")

	first, err := os.Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	defer first.Close()

	second, err := os.Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()

	// Interleave reads: each descriptor keeps its own position.
	buf := make([]byte, 4)
	if _, err := io.ReadFull(first, buf); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if string(buf) != "abcd" {
		t.Errorf("first handle read %q, want %q", string(buf), "abcd")
	}
	if _, err := io.ReadFull(second, buf); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if string(buf) != "abcd" {
		t.Errorf("second handle read %q, want %q", string(buf), "abcd")
	}
	if _, err := io.ReadFull(first, buf); err != nil {
		t.Fatalf("first read continued: %v", err)
	}
	if string(buf) != "efgh" {
		t.Errorf("first handle continued read %q, want %q", string(buf), "efgh")
	}
}

func TestMountNotFound(t *testing.T) {
	mountpoint := testMount(t,
		casctest.File{Name: "present.txt", Data: []byte("x")},
	)

	_, err := os.ReadFile(filepath.Join(mountpoint, "absent.txt"))
	if err == nil {
		t.Fatal("expected error reading nonexistent file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("expected ENOENT, got: %v", err)
	}
}

func TestMountReadOnly(t *testing.T) {
	mountpoint := testMount(t,
		casctest.File{Name: "dir/keep.txt", Data: []byte("x")},
	)

	if err := os.WriteFile(filepath.Join(mountpoint, "dir", "new.txt"), []byte("y"), 0o644); err == nil {
		t.Error("expected error creating a file on a read-only mount")
	}
	if err := os.Remove(filepath.Join(mountpoint, "dir", "keep.txt")); err == nil {
		t.Error("expected error removing a file on a read-only mount")
	}
}
