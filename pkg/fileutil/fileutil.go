// Package fileutil provides directory scanning and text find/replace
// helpers for batch operations over shape file trees.
package fileutil

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/railsim/shapeio/pkg/textenc"
)

// FindDirectoryFiles walks dir and returns the files whose base name
// matches any include glob and none of the exclude globs. Empty include
// patterns match everything.
func FindDirectoryFiles(dir string, includeGlobs, excludeGlobs []string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if len(includeGlobs) > 0 && !matchAny(includeGlobs, name) {
			return nil
		}
		if matchAny(excludeGlobs, name) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matchAny(globs []string, name string) bool {
	for _, g := range globs {
		if ok, err := filepath.Match(g, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Replace substitutes every occurrence of old with new in the text file
// at path, preserving the file's detected encoding.
func Replace(path, old, new string) error {
	return replaceFile(path, regexp.MustCompile(regexp.QuoteMeta(old)), new)
}

// ReplaceIgnoreCase is Replace with case-insensitive matching of old.
func ReplaceIgnoreCase(path, old, new string) error {
	return replaceFile(path, regexp.MustCompile("(?i)"+regexp.QuoteMeta(old)), new)
}

func replaceFile(path string, pat *regexp.Regexp, new string) error {
	text, enc, err := textenc.ReadFile(path)
	if err != nil {
		return err
	}
	replaced := pat.ReplaceAllLiteralString(text, new)
	if replaced == text {
		return nil
	}
	return textenc.WriteFile(path, replaced, enc)
}

// Copy duplicates the file at src to dst, creating parent directories
// as needed.
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ForEachFile applies fn to every path with bounded concurrency. The
// first error cancels the remaining work.
func ForEachFile(ctx context.Context, paths []string, fn func(context.Context, string) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, path)
		})
	}
	return g.Wait()
}
