// m3dlayout inspects the M3D mirror layouts and maintains the Odin size
// assertions generated from them.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Faultbox/m3dabi/internal/assertgen"
	"github.com/Faultbox/m3dabi/internal/config"
	"github.com/Faultbox/m3dabi/internal/logger"
	"github.com/Faultbox/m3dabi/pkg/m3d"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	out := newReport(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))

	command, rest := args[0], args[1:]
	var code int
	switch command {
	case "generate", "gen":
		code = cmdGenerate(cfg)
	case "verify", "check":
		code = cmdVerify(cfg, out, rest)
	case "layout":
		code = cmdLayout(cfg, out, rest)
	case "list", "ls":
		code = cmdList(cfg, out)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		code = 1
	}

	logger.Sync()
	os.Exit(code)
}

func printUsage() {
	fmt.Println(`m3dlayout - M3D layout inspection and Odin size assertions

Usage:
  m3dlayout [flags] <command> [args]

Flags:
  -config <file>   Config file (default: ./m3dlayout.yaml)
  -o <file>        Assertion file path
  -arch <goarch>   Measure for another GOARCH (e.g. 386, arm)
  -debug           Debug logging

Commands:
  generate             Write the assertion file
  verify [file]        Compare an assertion file with current layouts
  layout [type...]     Show field offsets and padding
  list                 Show the type catalogue with sizes

Examples:
  m3dlayout generate
  m3dlayout -arch 386 -o assertions_386.odin generate
  m3dlayout verify bindings/m3d/assertions.odin
  m3dlayout layout m3d_t b_t
  m3dlayout -arch 386 layout tx_t`)
}

func crossArch(cfg *config.Config) bool {
	return cfg.Target.Arch != "" && cfg.Target.Arch != runtime.GOARCH
}

func staticConfig(cfg *config.Config) assertgen.StaticConfig {
	return assertgen.StaticConfig{Arch: cfg.Target.Arch, Dir: cfg.Target.ModuleDir}
}

// measure returns the catalogue records for the configured target.
func measure(cfg *config.Config) ([]assertgen.Record, error) {
	entries := m3d.Catalogue()
	if !crossArch(cfg) {
		return assertgen.Measure(entries), nil
	}

	logger.Debug("measuring statically", zap.String("arch", cfg.Target.Arch))
	return assertgen.StaticSizes(context.Background(), staticConfig(cfg), entries)
}

// layouts returns field layouts of entries for the configured target.
func layouts(cfg *config.Config, entries []m3d.Entry) ([]assertgen.TypeLayout, error) {
	if crossArch(cfg) {
		logger.Debug("laying out statically", zap.String("arch", cfg.Target.Arch))
		return assertgen.StaticLayouts(context.Background(), staticConfig(cfg), entries)
	}

	ls := make([]assertgen.TypeLayout, len(entries))
	for i, e := range entries {
		ls[i] = assertgen.Layout(e)
	}
	return ls, nil
}

func cmdGenerate(cfg *config.Config) int {
	records, err := measure(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	err = assertgen.WriteFile(assertgen.Options{
		Path:    cfg.Output.Path,
		Package: cfg.Output.Package,
		Atomic:  cfg.Output.Atomic,
		Logger:  logger.L().Named("assertgen"),
	}, records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func cmdVerify(cfg *config.Config, out *report, args []string) int {
	path := cfg.Output.Path
	if len(args) > 0 {
		path = args[0]
	}

	records, err := measure(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer f.Close()

	drifts, err := assertgen.Verify(f, cfg.Output.Package, records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
		return 1
	}

	if len(drifts) == 0 {
		out.ok(fmt.Sprintf("%s: %d assertions match", path, len(records)))
		return 0
	}

	logger.Warn("layout drift", zap.String("path", path), zap.Int("count", len(drifts)))
	out.drifts(path, drifts)
	return 1
}

func cmdLayout(cfg *config.Config, out *report, args []string) int {
	var entries []m3d.Entry
	if len(args) == 0 {
		entries = m3d.Catalogue()
	}
	for _, name := range args {
		e, ok := m3d.Lookup(name)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown type: %s\n", name)
			return 1
		}
		entries = append(entries, e)
	}

	ls, err := layouts(cfg, entries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	for _, l := range ls {
		out.layout(l)
	}
	return 0
}

func cmdList(cfg *config.Config, out *report) int {
	records, err := measure(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	arch := cfg.Target.Arch
	if arch == "" {
		arch = runtime.GOARCH
	}
	out.catalogue(arch, records)
	return 0
}
