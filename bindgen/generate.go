package bindgen

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/acterglobal/uniffi-dart-sub000/config"
	"github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
	"github.com/acterglobal/uniffi-dart-sub000/probe"
)

// Options configures one generator run.
type Options struct {
	// InterfacePath is the interface description to bind. Required.
	InterfacePath string
	// ConfigPath is the optional generator configuration.
	ConfigPath string
	// OutDir receives <cdylib_name>.dart; defaults to the working directory.
	OutDir string
	// LibraryPath is an optional WebAssembly build of the native library.
	// When set the library is verified before anything is written.
	LibraryPath string
}

// GenerateBindings loads the interface and configuration, optionally
// verifies the compiled library, and writes the bindings file. It returns
// the path written.
func GenerateBindings(ctx context.Context, opts Options) (string, error) {
	if opts.InterfacePath == "" {
		return "", errors.InvalidInput(errors.PhaseLoad, "interface path is required")
	}
	iface, err := model.Load(opts.InterfacePath)
	if err != nil {
		return "", err
	}
	cfg, err := config.Load(opts.ConfigPath, iface.Namespace.Name)
	if err != nil {
		return "", err
	}

	if opts.LibraryPath != "" {
		if err := verifyLibrary(ctx, opts.LibraryPath, iface, contractVersion(iface, cfg)); err != nil {
			return "", err
		}
	}

	text, err := Generate(iface, cfg)
	if err != nil {
		return "", err
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", errors.IO(errors.PhaseWrite, "create "+outDir, err)
	}
	path := filepath.Join(outDir, cfg.CdylibName+".dart")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", errors.IO(errors.PhaseWrite, "write "+path, err)
	}

	Logger().Info("bindings written",
		zap.String("path", path),
		zap.Int("bytes", len(text)))
	return path, nil
}

func verifyLibrary(ctx context.Context, path string, iface *model.Interface, version uint32) error {
	lib, err := probe.Open(ctx, path)
	if err != nil {
		return err
	}
	defer lib.Close(ctx)
	return lib.Verify(ctx, iface, version)
}
