// Package scaffold orchestrates the generation pipeline for the two
// operations of the tool: materializing a new project and regenerating an
// existing one. The pipeline is synchronous end to end; the tool assumes
// exclusive access to the target directory for the duration of a run.
package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/forgekit/apiforge/internal/config"
	"github.com/forgekit/apiforge/internal/ir"
	"github.com/forgekit/apiforge/internal/openapi"
	"github.com/forgekit/apiforge/internal/render"
)

// DefaultConfigName is the configuration file a project directory carries.
const DefaultConfigName = "apiforge.toml"

// DefaultDocName is where generate writes the OpenAPI document.
const DefaultDocName = "openapi.json"

// NewOptions controls project scaffolding.
type NewOptions struct {
	Dir     string // target directory; defaults to ./<name>
	Force   bool   // allow a non-empty target directory
	Git     bool   // initialize a git repository after writing
	Verbose bool
	Out     io.Writer // progress output, defaults to os.Stdout
}

// New materializes the complete template set into a new directory. The whole
// template set is rendered in memory first, so a failure in any stage aborts
// before a single byte reaches disk.
func New(ctx context.Context, name string, opts NewOptions) error {
	if name == "" {
		return errors.New("new: project name is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	dir := opts.Dir
	if dir == "" {
		dir = name
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("new: resolve target directory: %w", err)
	}

	files, err := render.ProjectFiles(render.ProjectData{
		Name:   name,
		Secret: uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("new: %w", err)
	}

	if st, err := os.Stat(abs); err == nil && st.IsDir() && !opts.Force {
		entries, rerr := os.ReadDir(abs)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("new: target directory %q is not empty (use --force to write anyway)", abs)
		}
	}

	for rel, content := range files {
		if err := render.WriteAtomic(filepath.Join(abs, filepath.FromSlash(rel)), content); err != nil {
			return fmt.Errorf("new: %s: %w", rel, err)
		}
	}
	fmt.Fprintf(out, "Created project %s in %s (%d files)\n", name, abs, len(files))

	if opts.Git {
		if err := gitInit(ctx, abs); err != nil {
			if opts.Verbose {
				fmt.Fprintf(out, "git init skipped: %v\n", err)
			}
		} else if opts.Verbose {
			fmt.Fprintf(out, "Initialized git repository in %s\n", abs)
		}
	}
	return nil
}

// gitInit is best-effort: a machine without git still gets a usable project.
func gitInit(ctx context.Context, dir string) error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git not found: %w", err)
	}
	cmd := exec.CommandContext(ctx, "git", "init", "--quiet")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %v: %s", err, out)
	}
	return nil
}

// GenerateOptions controls regeneration of an existing project.
type GenerateOptions struct {
	Dir        string // project directory, defaults to "."
	ConfigPath string // defaults to <dir>/apiforge.toml
	DocPath    string // defaults to <dir>/openapi.json
	Stdout     bool   // print the document instead of writing DocPath
	DryRun     bool
	Verbose    bool
	Out        io.Writer
}

// Summary reports the outcome of one generate run.
type Summary struct {
	Created int
	Patched int
	Skipped int
	Ops     []render.FileOp
}

// Generate re-runs the pipeline against an existing project: parse, validate,
// map, render, merge, write. Parse and validation failures abort before any
// write. Each project file's outcome is independent: one file's Skip or IO
// failure does not abort its siblings. The OpenAPI document is always fully
// regenerated, never merged.
func Generate(ctx context.Context, opts GenerateOptions) (*Summary, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = filepath.Join(dir, DefaultConfigName)
	} else if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(dir, cfgPath)
	}

	cfg, err := config.ParseFile(cfgPath)
	if err != nil {
		return nil, err
	}
	api, err := ir.Normalize(cfg)
	if err != nil {
		return nil, err
	}

	doc := openapi.Build(api)
	data, err := doc.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := openapi.SelfCheck(ctx, data); err != nil {
		return nil, err
	}

	// Re-render the template set so a project file the developer deleted is
	// created again; files still present are left untouched.
	files, err := render.ProjectFiles(render.ProjectData{Name: cfg.Name, Secret: cfg.Secret})
	if err != nil {
		return nil, err
	}
	ops, err := render.Plan(dir, files, render.Fragments(api))
	if err != nil {
		return nil, err
	}

	summary := &Summary{Ops: ops}
	for _, op := range ops {
		switch op.Kind {
		case render.OpCreate:
			summary.Created++
		case render.OpPatch:
			summary.Patched++
		case render.OpSkip:
			summary.Skipped++
			fmt.Fprintf(out, "skip %s: %s\n", op.Path, op.Reason)
		}
	}

	if opts.DryRun {
		fmt.Fprintf(out, "Dry run: %d create, %d patch, %d skip\n",
			summary.Created, summary.Patched, summary.Skipped)
		return summary, nil
	}

	var errs []error
	if opts.Stdout {
		if _, err := out.Write(data); err != nil {
			errs = append(errs, err)
		}
	} else {
		docPath := opts.DocPath
		if docPath == "" {
			docPath = filepath.Join(dir, DefaultDocName)
		} else if !filepath.IsAbs(docPath) {
			docPath = filepath.Join(dir, docPath)
		}
		if err := render.WriteAtomic(docPath, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", docPath, err))
		} else if opts.Verbose {
			fmt.Fprintf(out, "wrote %s\n", docPath)
		}
	}

	errs = append(errs, render.Apply(dir, ops)...)

	fmt.Fprintf(out, "Done: %d create, %d patch, %d skip\n",
		summary.Created, summary.Patched, summary.Skipped)

	if len(errs) > 0 {
		return summary, errors.Join(errs...)
	}
	return summary, nil
}
