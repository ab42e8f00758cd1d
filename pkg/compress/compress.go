// Package compress shells out to the native ffeditc helper to compress
// and decompress shape files in place. The compression algorithm itself
// stays external; this package only drives the helper and skips files
// already in the requested state.
package compress

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/railsim/shapeio/pkg/shapefile"
)

// ErrHelperNotFound reports a missing or non-executable helper binary.
var ErrHelperNotFound = errors.New("compression helper not found")

func lookupHelper(helperPath string) (string, error) {
	resolved, err := exec.LookPath(helperPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrHelperNotFound, helperPath)
	}
	return resolved, nil
}

// probe reports the compression state of path. Content with neither
// signature is treated as compressed, matching the classic tooling.
func probe(path string) (bool, error) {
	compressed, err := shapefile.IsCompressed(path)
	if errors.Is(err, shapefile.ErrUnknownSignature) {
		return true, nil
	}
	return compressed, err
}

func run(ctx context.Context, helper string, args ...string) error {
	cmd := exec.CommandContext(ctx, helper, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s %v: %w: %s", helper, args, err, out)
	}
	return nil
}

// Compress compresses the file at path in place. A file that already
// carries the compressed signature is left untouched.
func Compress(ctx context.Context, path, helperPath string) error {
	compressed, err := probe(path)
	if err != nil {
		return err
	}
	if compressed {
		return nil
	}
	helper, err := lookupHelper(helperPath)
	if err != nil {
		return err
	}
	return run(ctx, helper, path, "/o:"+path)
}

// Decompress decompresses the file at path in place. A plain-text file
// is left untouched.
func Decompress(ctx context.Context, path, helperPath string) error {
	compressed, err := probe(path)
	if err != nil {
		return err
	}
	if !compressed {
		return nil
	}
	helper, err := lookupHelper(helperPath)
	if err != nil {
		return err
	}
	return run(ctx, helper, path, "/u", "/o:"+path)
}
