package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// OpKind classifies one file operation of a generation plan.
type OpKind int

const (
	OpCreate OpKind = iota
	OpPatch
	OpSkip
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpPatch:
		return "patch"
	default:
		return "skip"
	}
}

// FileOp is one planned action against the target tree.
type FileOp struct {
	Kind    OpKind
	Path    string // relative to the target directory, slash-separated
	Region  string // set for patches and region-related skips
	Content []byte // full post-merge content for Create and Patch
	Reason  string // set for skips
}

// Fragment is generated content keyed to a region of an existing file.
type Fragment struct {
	Path    string
	Region  string
	Content string
}

// Plan compares templates and fragments against the existing target tree and
// produces Create/Patch/Skip operations. All reads happen here, before any
// write: Apply never looks at the tree again, so a run's view of the
// filesystem is a single snapshot.
//
// Whole files only ever Create; an existing file of the same path produces no
// operation, it is never overwritten. Fragments only ever Patch between
// markers; a missing target or missing markers downgrades to a Skip. A
// fragment whose region already holds identical content produces no operation
// at all.
func Plan(dir string, files map[string][]byte, fragments []Fragment) ([]FileOp, error) {
	var ops []FileOp

	// Fragments merge against the accumulated result: a file created in this
	// plan still gets its regions filled, and patching one region never
	// discards another region's patch.
	contents := map[string][]byte{}

	rels := make([]string, 0, len(files))
	for rel := range files {
		rels = append(rels, filepath.ToSlash(rel))
	}
	sort.Strings(rels)

	for _, rel := range rels {
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if _, err := os.Stat(target); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", rel, err)
		}
		ops = append(ops, FileOp{Kind: OpCreate, Path: rel, Content: files[rel]})
		contents[rel] = files[rel]
	}

	for _, f := range fragments {
		rel := filepath.ToSlash(f.Path)
		existing, ok := contents[rel]
		if !ok {
			var err error
			existing, err = os.ReadFile(filepath.Join(dir, filepath.FromSlash(f.Path)))
			if errors.Is(err, os.ErrNotExist) {
				ops = append(ops, FileOp{Kind: OpSkip, Path: rel, Region: f.Region, Reason: "merge target missing"})
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", rel, err)
			}
			contents[rel] = existing
		}
		merged, changed, err := Merge(existing, f.Region, f.Content)
		if err != nil {
			var nr *ErrNoRegion
			if errors.As(err, &nr) {
				ops = append(ops, FileOp{Kind: OpSkip, Path: rel, Region: f.Region, Reason: nr.Error()})
				continue
			}
			return nil, err
		}
		if !changed {
			continue
		}
		contents[rel] = merged
		ops = append(ops, FileOp{Kind: OpPatch, Path: rel, Region: f.Region, Content: merged})
	}

	return ops, nil
}

// Apply writes Create and Patch operations. Each file's outcome is
// independent: a failed write is recorded against that file and the rest
// proceed. Writes go through a temp file and rename so an interrupted run
// never leaves a half-written file.
func Apply(dir string, ops []FileOp) []error {
	var errs []error
	for _, op := range ops {
		if op.Kind == OpSkip {
			continue
		}
		target := filepath.Join(dir, filepath.FromSlash(op.Path))
		if err := WriteAtomic(target, op.Content); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", op.Path, err))
		}
	}
	return errs
}

// WriteAtomic writes a file through a temp sibling and a rename.
func WriteAtomic(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := path + ".tmp-" + time.Now().Format("20060102150405")
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
