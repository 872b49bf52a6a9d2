package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/itsmostafa/icdtree/internal/table"
)

// OutputOptions says where and how to write a Result.
type OutputOptions struct {
	// Path "" or "-" writes to Stdout.
	Path string

	// Format "" is inferred from Path, falling back to CSV.
	Format table.Format

	table.WriteOptions

	Stdout io.Writer
}

// ResolveFormat returns the effective output format.
func (o OutputOptions) ResolveFormat() table.Format {
	if o.Format != "" {
		return o.Format
	}
	if o.Path == "" || o.Path == "-" {
		return table.FormatCSV
	}
	return table.FormatForPath(o.Path)
}

// OutputMode is the permission given to a newly created output file.
const OutputMode os.FileMode = 0o644

// Emit encodes res. File output goes to a temporary sibling that is
// renamed into place once complete. An existing file keeps its mode.
func Emit(res *Result, opts OutputOptions) error {
	format := opts.ResolveFormat()

	encode := func(w io.Writer) error {
		if format == table.FormatTree {
			return table.WriteTree(w, res.Tree)
		}
		return table.Write(w, &res.Table.Table, format, opts.WriteOptions)
	}

	if opts.Path == "" || opts.Path == "-" {
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		return encode(w)
	}

	dir := filepath.Dir(opts.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(opts.Path)+".*")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer os.Remove(tmp.Name())

	mode := OutputMode
	if fi, err := os.Stat(opts.Path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", opts.Path, err)
	}

	if err := encode(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", opts.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", opts.Path, err)
	}
	if err := os.Rename(tmp.Name(), opts.Path); err != nil {
		return fmt.Errorf("writing %s: %w", opts.Path, err)
	}
	return nil
}
