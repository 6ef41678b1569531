// Package fingerprint computes content fingerprints over ordered file sets.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Size is the digest length in bytes.
const Size = sha256.Size

// Fingerprint is a SHA-256 digest.
type Fingerprint [Size]byte

// Sentinel errors.
var (
	ErrUnreadable = errors.New("fingerprint: input unreadable")
	ErrLogic      = errors.New("fingerprint: logic identifier unusable")
	ErrMalformed  = errors.New("fingerprint: malformed hex digest")
)

// String renders the fingerprint as lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// IsZero reports whether f is the zero value.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// With folds extra strings into f, e.g. a logic version or a unit name.
// Each part is length-prefixed so ("ab","c") and ("a","bc") differ.
func (f Fingerprint) With(parts ...string) Fingerprint {
	h := sha256.New()
	h.Write(f[:])
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s", len(p), p)
	}
	var out Fingerprint
	copy(out[:], h.Sum(nil))
	return out
}

// Parse decodes a hex fingerprint.
func Parse(s string) (Fingerprint, error) {
	var out Fingerprint
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(b) != Size {
		return out, fmt.Errorf("%w: %d bytes", ErrMalformed, len(b))
	}
	copy(out[:], b)
	return out, nil
}

// Files fingerprints paths in the given order. Each existing file is digested
// on its own; the digests are concatenated and digested again. Missing files
// contribute nothing. An existing file that cannot be read is an error.
// Callers sort the paths when order should not matter.
func Files(paths []string) (Fingerprint, error) {
	outer := sha256.New()
	for _, p := range paths {
		d, ok, err := file(p)
		if err != nil {
			return Fingerprint{}, err
		}
		if !ok {
			continue
		}
		outer.Write(d[:])
	}
	var out Fingerprint
	copy(out[:], outer.Sum(nil))
	return out, nil
}

// Logic fingerprints the file behind identifier, typically the running
// executable. The path is made absolute and symlinks are resolved. A missing
// or unreadable identifier is an error.
func Logic(identifier string) (Fingerprint, error) {
	if identifier == "" {
		return Fingerprint{}, fmt.Errorf("%w: empty identifier", ErrLogic)
	}
	abs, err := filepath.Abs(identifier)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %w", ErrLogic, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %w", ErrLogic, err)
	}
	d, ok, err := file(resolved)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %w", ErrLogic, err)
	}
	if !ok {
		return Fingerprint{}, fmt.Errorf("%w: %s does not exist", ErrLogic, resolved)
	}
	return d, nil
}

// Executable fingerprints the running binary.
func Executable() (Fingerprint, error) {
	exe, err := os.Executable()
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %w", ErrLogic, err)
	}
	return Logic(exe)
}

func file(path string) (Fingerprint, bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Fingerprint{}, false, nil
	}
	if err != nil {
		return Fingerprint{}, false, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Fingerprint{}, false, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}
	var out Fingerprint
	copy(out[:], h.Sum(nil))
	return out, true, nil
}
