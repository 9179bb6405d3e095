package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/acterglobal/uniffi-dart-sub000/bindgen"
	"github.com/acterglobal/uniffi-dart-sub000/probe"
)

func main() {
	var (
		ifacePath   = flag.String("interface", "", "Path to the interface description (YAML)")
		configPath  = flag.String("config", "", "Path to the generator configuration (optional)")
		outDir      = flag.String("out", ".", "Directory receiving <cdylib_name>.dart")
		libraryPath = flag.String("library", "", "WebAssembly build of the native library to verify against (optional)")
		verbose     = flag.Bool("v", false, "Log every generation step")
		interactive = flag.Bool("i", false, "Browse the generated sections in a TUI instead of writing")
	)
	flag.Parse()

	if *ifacePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: uniffi-dart -interface <api.yaml> [-config uniffi.yaml] [-out dir] [-library lib.wasm] [-v]")
		fmt.Fprintln(os.Stderr, "       uniffi-dart -interface <api.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*ifacePath, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	bindgen.SetLogger(logger)
	probe.SetLogger(logger)

	path, err := bindgen.GenerateBindings(context.Background(), bindgen.Options{
		InterfacePath: *ifacePath,
		ConfigPath:    *configPath,
		OutDir:        *outDir,
		LibraryPath:   *libraryPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(path)
}

// newLogger returns a development logger when verbose, otherwise a
// production logger that only reports warnings and errors.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
