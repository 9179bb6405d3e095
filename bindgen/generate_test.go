package bindgen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/acterglobal/uniffi-dart-sub000/config"
	"github.com/acterglobal/uniffi-dart-sub000/errors"
)

func mustConfig(t *testing.T, data []byte, namespace string) *config.Config {
	t.Helper()
	cfg, err := config.Parse(data, namespace)
	if err != nil {
		t.Fatalf("config.Parse failed: %v", err)
	}
	return cfg
}

func TestGenerateBindings_WritesFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "uniffi.yaml")
	if err := os.WriteFile(cfgPath, []byte("bindings:\n  dart:\n    cdylib_name: arith\n  kotlin:\n    package_name: org.example\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out", "lib")

	path, err := GenerateBindings(context.Background(), Options{
		InterfacePath: filepath.Join("testdata", "arithmetic.yaml"),
		ConfigPath:    cfgPath,
		OutDir:        out,
	})
	if err != nil {
		t.Fatalf("GenerateBindings failed: %v", err)
	}
	if path != filepath.Join(out, "arith.dart") {
		t.Errorf("unexpected path %s", path)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	iface := loadFixture(t, "arithmetic.yaml")
	cfgData, _ := os.ReadFile(cfgPath)
	cfg := mustConfig(t, cfgData, iface.Namespace.Name)
	if string(written) != generate(t, iface, cfg) {
		t.Error("written file differs from Generate output")
	}
}

func TestGenerateBindings_Errors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	badWasm := filepath.Join(dir, "lib.wasm")
	if err := os.WriteFile(badWasm, []byte("not wasm"), 0o644); err != nil {
		t.Fatal(err)
	}
	fixture := filepath.Join("testdata", "arithmetic.yaml")

	tests := []struct {
		name  string
		opts  Options
		phase errors.Phase
		kind  errors.Kind
	}{
		{
			name:  "missing interface path",
			opts:  Options{},
			phase: errors.PhaseLoad,
			kind:  errors.KindInvalidInput,
		},
		{
			name:  "unreadable interface",
			opts:  Options{InterfacePath: filepath.Join(dir, "absent.yaml")},
			phase: errors.PhaseLoad,
			kind:  errors.KindIO,
		},
		{
			name:  "output directory is a file",
			opts:  Options{InterfacePath: fixture, OutDir: blocker},
			phase: errors.PhaseWrite,
			kind:  errors.KindIO,
		},
		{
			name:  "library is not wasm",
			opts:  Options{InterfacePath: fixture, OutDir: filepath.Join(dir, "never"), LibraryPath: badWasm},
			phase: errors.PhaseVerify,
			kind:  errors.KindMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateBindings(context.Background(), tt.opts)
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("expected *errors.Error, got %T: %v", err, err)
			}
			if e.Phase != tt.phase || e.Kind != tt.kind {
				t.Errorf("got %s/%s, want %s/%s", e.Phase, e.Kind, tt.phase, tt.kind)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "never")); !os.IsNotExist(err) {
		t.Error("output directory created although verification failed")
	}
}
