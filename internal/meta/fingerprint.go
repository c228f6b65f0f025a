package meta

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
)

// fingerprintChunkSize is how much content is hashed at each sample point.
// Recordings are multi-gigabyte transport streams; hashing three fixed
// windows instead of the whole file keeps change detection fast while still
// catching truncation, re-encode and overwrite.
const fingerprintChunkSize = 1 << 20 // 1 MiB

// ErrTooSmall indicates a file below the minimum size for fingerprinting.
// Such files are not valid recordings yet (likely still being written) and
// never reach metadata extraction.
var ErrTooSmall = errors.New("file too small to fingerprint")

// Fingerprint computes a fast partial-content hash of a recording file.
// The hash covers the file size and 1 MiB windows at the start, middle and
// end of the file. Files smaller than one window fail with ErrTooSmall.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	size := info.Size()
	if size < fingerprintChunkSize {
		return "", ErrTooSmall
	}

	h := sha256.New()
	fmt.Fprintf(h, "%d:", size)

	// All three offsets leave a full window before EOF since size >= one chunk
	offsets := []int64{
		0,
		size/2 - fingerprintChunkSize/2,
		size - fingerprintChunkSize,
	}

	buf := make([]byte, fingerprintChunkSize)
	for _, offset := range offsets {
		if _, err := f.ReadAt(buf, offset); err != nil {
			return "", fmt.Errorf("failed to read chunk at %d: %w", offset, err)
		}
		h.Write(buf)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
