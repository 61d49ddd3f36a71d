//go:build assertions

// m3dassert writes assertions.odin: one compile-time size assertion per M3D
// type the Odin binding declares. It only exists in builds with the
// assertions tag:
//
//	go run -tags assertions ./cmd/m3dassert
//
// It takes no flags, arguments or environment.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/m3dabi/internal/assertgen"
	"github.com/Faultbox/m3dabi/internal/logger"
	"github.com/Faultbox/m3dabi/pkg/m3d"
)

func main() {
	if err := logger.Init("info", ""); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger.L().Named("assertgen")); err != nil {
		logger.Error("generating assertions failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// run writes the assertion file for the full catalogue into the working
// directory.
func run(log *zap.Logger) error {
	return assertgen.WriteFile(assertgen.Options{
		Path:    assertgen.DefaultPath,
		Package: assertgen.DefaultPackage,
		Atomic:  true,
		Logger:  log,
	}, assertgen.Measure(m3d.Catalogue()))
}
