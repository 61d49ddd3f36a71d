package assertgen

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Options controls WriteFile.
type Options struct {
	Path    string // output file, DefaultPath if empty
	Package string // Odin package, DefaultPackage if empty

	// Atomic writes to a temporary file in the same directory and renames
	// it over Path, so a failed run never leaves a truncated file behind.
	// Otherwise Path is truncated and written in place.
	Atomic bool

	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Path == "" {
		o.Path = DefaultPath
	}
	if o.Package == "" {
		o.Package = DefaultPackage
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// WriteFile generates the assertion file described by opts.
func WriteFile(opts Options, records []Record) error {
	opts = opts.withDefaults()

	var err error
	if opts.Atomic {
		err = writeAtomic(opts, records)
	} else {
		err = writeInPlace(opts, records)
	}
	if err != nil {
		return err
	}

	opts.Logger.Info("wrote size assertions",
		zap.String("path", opts.Path),
		zap.String("package", opts.Package),
		zap.Int("count", len(records)),
		zap.Bool("atomic", opts.Atomic),
	)
	return nil
}

func writeInPlace(opts Options, records []Record) error {
	f, err := os.Create(opts.Path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", opts.Path, err)
	}
	if err := Generate(f, opts.Package, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", opts.Path, err)
	}
	return nil
}

func writeAtomic(opts Options, records []Record) error {
	dir := filepath.Dir(opts.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(opts.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := Generate(tmp, opts.Package, records); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing %s: %w", tmpPath, err))
	}
	if err := tmp.Chmod(0644); err != nil {
		return fail(fmt.Errorf("chmod %s: %w", tmpPath, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, opts.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming into %s: %w", opts.Path, err)
	}
	return nil
}
