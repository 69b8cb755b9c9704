package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/harrison/searchex/internal/models"
)

// Options controls directory enumeration.
type Options struct {
	// IncludeHidden disables the default filtering of dot files and
	// dot directories. The root itself is never treated as hidden.
	IncludeHidden bool
}

// Result holds the outcome of an enumeration pass. Files lists every
// regular file that survived filtering, in lexical walk order; Errors
// records per-entry failures that did not abort the walk.
type Result struct {
	Files  []string
	Errors []models.Problem
}

// Enumerate resolves root and returns the regular files beneath it.
// A root that is itself a regular file yields exactly that file, with
// no hidden filtering applied. Directory walks collect per-entry
// errors instead of failing; only an inaccessible root is fatal.
//
// Hidden filtering prunes whole subtrees: a skipped directory is never
// descended into. Symlinks below the root are not followed, so cyclic
// link structures cannot loop the walk.
func Enumerate(root string, opts Options) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("access root: %w", err)
	}

	if info.Mode().IsRegular() {
		return &Result{Files: []string{root}}, nil
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is neither a file nor a directory", root)
	}

	// Resolving the root up front lets a symlinked root be walked and
	// keeps every reported path under one canonical prefix.
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	res := &Result{}
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			res.Errors = append(res.Errors, models.Problem{Path: path, Message: err.Error()})
			return nil
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if !opts.IncludeHidden && IsHidden(path, d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !opts.IncludeHidden && IsHidden(path, d.Name()) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		res.Files = append(res.Files, path)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}
	return res, nil
}
