package meta

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFileOfSize(t *testing.T, path string, size int, fill byte) {
	t.Helper()
	data := bytes.Repeat([]byte{fill}, size)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFingerprintTooSmall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.ts")
	writeFileOfSize(t, path, fingerprintChunkSize-1, 0xAA)

	_, err := Fingerprint(path)
	if !errors.Is(err, ErrTooSmall) {
		t.Errorf("expected ErrTooSmall, got %v", err)
	}
}

func TestFingerprintStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.ts")
	writeFileOfSize(t, path, 2*fingerprintChunkSize+123, 0xAB)

	first, err := Fingerprint(path)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	second, err := Fingerprint(path)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if first != second {
		t.Errorf("fingerprint not stable: %s != %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(first))
	}
}

func TestFingerprintMinimumSizeFile(t *testing.T) {
	// Exactly one chunk: all three windows collapse onto the same bytes
	path := filepath.Join(t.TempDir(), "min.ts")
	writeFileOfSize(t, path, fingerprintChunkSize, 0x01)

	if _, err := Fingerprint(path); err != nil {
		t.Errorf("fingerprint of minimum-size file failed: %v", err)
	}
}

func TestFingerprintDetectsChange(t *testing.T) {
	tmpDir := t.TempDir()
	size := 3 * fingerprintChunkSize

	path := filepath.Join(tmpDir, "rec.ts")
	writeFileOfSize(t, path, size, 0x55)
	before, err := Fingerprint(path)
	if err != nil {
		t.Fatal(err)
	}

	// Flip one byte in the middle window
	f, err := os.OpenFile(path, os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteAt([]byte{0x56}, int64(size/2)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	after, err := Fingerprint(path)
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Error("expected fingerprint to change after content change")
	}
}

func TestFingerprintDetectsSizeChange(t *testing.T) {
	tmpDir := t.TempDir()

	a := filepath.Join(tmpDir, "a.ts")
	b := filepath.Join(tmpDir, "b.ts")
	writeFileOfSize(t, a, 2*fingerprintChunkSize, 0x00)
	writeFileOfSize(t, b, 2*fingerprintChunkSize+1, 0x00)

	hashA, err := Fingerprint(a)
	if err != nil {
		t.Fatal(err)
	}
	hashB, err := Fingerprint(b)
	if err != nil {
		t.Fatal(err)
	}
	if hashA == hashB {
		t.Error("expected different fingerprints for different sizes")
	}
}
