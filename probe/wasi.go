package probe

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

const wasiModule = "wasi_snapshot_preview1"

// importsWASI reports whether the compiled module needs WASI preview1.
// Rust's wasm32-wasip1 target links it for std even when unused.
func importsWASI(compiled wazero.CompiledModule) bool {
	for _, def := range compiled.ImportedFunctions() {
		if mod, _, ok := def.Import(); ok && mod == wasiModule {
			return true
		}
	}
	return false
}

// instantiateWASI provides preview1 with the runtime's defaults: no
// arguments, no environment, no preopened directories.
func instantiateWASI(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	if mod := r.Module(wasiModule); mod != nil {
		return mod, nil
	}
	builder := r.NewHostModuleBuilder(wasiModule)
	wasi_snapshot_preview1.NewFunctionExporter().ExportFunctions(builder)
	return builder.Instantiate(ctx)
}
