package model

import (
	"strings"
	"testing"
)

func ffiByName(fns []*FfiFunction) map[string][]*FfiFunction {
	out := make(map[string][]*FfiFunction)
	for _, fn := range fns {
		out[fn.Name] = append(out[fn.Name], fn)
	}
	return out
}

func TestFfiFunctions_Arithmetic(t *testing.T) {
	iface := mustLoad(t, "testdata/arithmetic.yaml")
	fns := ffiByName(iface.FfiFunctions())

	tests := []struct {
		symbol    string
		signature string
	}{
		{"ffi_arithmetic_rustbuffer_alloc", "(i32, status*) -> RustBuffer"},
		{"ffi_arithmetic_rustbuffer_from_bytes", "(ForeignBytes, status*) -> RustBuffer"},
		{"ffi_arithmetic_rustbuffer_free", "(RustBuffer, status*) -> void"},
		{"ffi_arithmetic_rustbuffer_reserve", "(RustBuffer, i32, status*) -> RustBuffer"},
		{"uniffi_arithmetic_fn_func_add", "(u32, u32, status*) -> u32"},
		{"uniffi_arithmetic_fn_func_sub", "(u64, u64, status*) -> u64"},
		{"uniffi_arithmetic_fn_func_equal", "(u64, u64, status*) -> i8"},
		{"uniffi_arithmetic_checksum_func_add", "() -> u16"},
		{"ffi_arithmetic_uniffi_contract_version", "() -> u32"},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			got, ok := fns[tt.symbol]
			if !ok {
				t.Fatalf("symbol %s not lowered", tt.symbol)
			}
			if len(got) != 1 {
				t.Fatalf("symbol %s lowered %d times", tt.symbol, len(got))
			}
			if sig := got[0].SignatureString(); sig != tt.signature {
				t.Errorf("signature = %s, want %s", sig, tt.signature)
			}
		})
	}
}

func TestFfiFunctions_Coverall(t *testing.T) {
	iface := mustLoad(t, "testdata/coverall.yaml")
	fns := ffiByName(iface.FfiFunctions())

	tests := []struct {
		symbol    string
		signature string
	}{
		{"uniffi_uniffi_coverall_fn_clone_counter", "(pointer, status*) -> pointer"},
		{"uniffi_uniffi_coverall_fn_free_counter", "(pointer, status*) -> void"},
		{"uniffi_uniffi_coverall_fn_constructor_counter_new", "(u32, status*) -> pointer"},
		{"uniffi_uniffi_coverall_fn_constructor_counter_with_name", "(RustBuffer, status*) -> pointer"},
		{"uniffi_uniffi_coverall_fn_method_counter_increment", "(pointer, status*) -> u32"},
		{"uniffi_uniffi_coverall_fn_method_counter_peer", "(pointer, pointer, status*) -> RustBuffer"},
		{"uniffi_uniffi_coverall_fn_method_counter_wait_for", "(pointer, u16) -> u64"},
		{"uniffi_uniffi_coverall_fn_func_say_after", "(u16, RustBuffer) -> u64"},
		{"uniffi_uniffi_coverall_fn_func_register", "(u64, status*) -> void"},
		{"uniffi_uniffi_coverall_fn_func_get_ids", "(RustBuffer, i64, status*) -> RustBuffer"},
		{"uniffi_uniffi_coverall_fn_init_callback_vtable_foreigngetters", "(*UniffiVTableCallbackInterfaceForeignGetters) -> void"},
		{"ffi_uniffi_coverall_rust_future_poll_rust_buffer", "(u64, continuation, u64) -> void"},
		{"ffi_uniffi_coverall_rust_future_complete_rust_buffer", "(u64, status*) -> RustBuffer"},
		{"ffi_uniffi_coverall_rust_future_complete_u32", "(u64, status*) -> u32"},
		{"ffi_uniffi_coverall_rust_future_complete_void", "(u64, status*) -> void"},
		{"ffi_uniffi_coverall_rust_future_free_void", "(u64) -> void"},
		{"uniffi_uniffi_coverall_checksum_func_divide", "() -> u16"},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			got, ok := fns[tt.symbol]
			if !ok {
				t.Fatalf("symbol %s not lowered", tt.symbol)
			}
			if sig := got[0].SignatureString(); sig != tt.signature {
				t.Errorf("signature = %s, want %s", sig, tt.signature)
			}
		})
	}

	// say_after and Numbers.poll_next both complete with a RustBuffer
	if n := len(fns["ffi_uniffi_coverall_rust_future_poll_rust_buffer"]); n < 2 {
		t.Errorf("shared future scaffolding listed %d times, want the repeat kept for the consumer to drop", n)
	}
}

func TestFfiTypeOf(t *testing.T) {
	iface := mustLoad(t, "testdata/coverall.yaml")

	tests := []struct {
		expr string
		want FfiKind
	}{
		{"bool", FfiInt8},
		{"i16", FfiInt16},
		{"f64", FfiFloat64},
		{"string", FfiRustBuffer},
		{"bytes", FfiRustBuffer},
		{"duration", FfiRustBuffer},
		{"option<u8>", FfiRustBuffer},
		{"Simple", FfiRustBuffer},
		{"Mood", FfiRustBuffer},
		{"Counter", FfiHandle},
		{"ForeignGetters", FfiUInt64},
		{"Url", FfiRustBuffer},
		{"Handle", FfiInt64},
		{"Guid", FfiRustBuffer},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			typ, err := ParseType(tt.expr, iface.Lookup)
			if err != nil {
				t.Fatal(err)
			}
			if got := iface.FfiTypeOf(typ).Kind; got != tt.want {
				t.Errorf("FfiTypeOf(%s) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestChecksums(t *testing.T) {
	iface := mustLoad(t, "testdata/coverall.yaml")
	sums := iface.Checksums()

	if len(sums) != 1 {
		t.Fatalf("got %d checksums, want only the recorded one: %v", len(sums), sums)
	}
	if sums[0].Symbol != "uniffi_uniffi_coverall_checksum_func_divide" || sums[0].Expected != 4242 {
		t.Errorf("unexpected checksum %+v", sums[0])
	}

	checks := 0
	for _, fn := range iface.FfiFunctions() {
		if strings.Contains(fn.Name, "_checksum_") {
			checks++
			if fn.Name != sums[0].Symbol {
				t.Errorf("unrecorded callable is checked through %s", fn.Name)
			}
		}
	}
	if checks != 1 {
		t.Errorf("got %d checksum functions, want 1", checks)
	}
}
