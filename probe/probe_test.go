package probe

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
	"github.com/acterglobal/uniffi-dart-sub000/wire"
)

const calcDescription = `
namespace: calc
enums:
  - name: CalcError
    error: true
    variants:
      - name: Negative
      - name: TooBig
functions:
  - name: add
    args:
      - name: a
        type: u32
      - name: b
        type: u32
    returns: u32
    checksum: 4242
  - name: echo
    args:
      - name: s
        type: string
    returns: string
  - name: check
    args:
      - name: v
        type: u32
    throws: CalcError
`

const i32 = 0x7f

// Function types available to test modules.
const (
	typeVoid     = 0 // () -> ()
	typeConst    = 1 // () -> i32
	typeBinary   = 2 // (i32, i32, i32) -> i32
	typeAllocate = 3 // (i32) -> i32
	typePair     = 4 // (i32, i32) -> ()
	typeTriple   = 5 // (i32, i32, i32) -> ()
)

// Guest memory cells the test module keeps its state in.
const (
	cellAllocCursor = 16
	cellDeallocs    = 32
	cellBufferFrees = 36
)

type wasmFunc struct {
	name string
	typ  byte
	body []byte // instructions, without the trailing end
}

func uleb(n int) []byte {
	var out []byte
	v := uint32(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func i32Const(v int64) []byte {
	return append([]byte{0x41}, sleb(v)...)
}

func localGet(i byte) []byte { return []byte{0x20, i} }

func load32(offset int) []byte { return append([]byte{0x28, 0x02}, uleb(offset)...) }

func store32(offset int) []byte { return append([]byte{0x36, 0x02}, uleb(offset)...) }

func code(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// counter increments the i32 cell at addr.
func counter(addr int64) []byte {
	return code(i32Const(addr), i32Const(addr), load32(0), i32Const(1), []byte{0x6a}, store32(0))
}

// roundUp8 leaves (local 0 + 7) & -8 on the stack.
var roundUp8 = code(localGet(0), i32Const(7), []byte{0x6a}, i32Const(-8), []byte{0x71})

// bumpAlloc hands out 8-aligned blocks from 1024 upwards and never reuses
// them.
var bumpAlloc = code(
	i32Const(cellAllocCursor),
	i32Const(cellAllocCursor), load32(0), roundUp8, []byte{0x6a},
	store32(0),
	i32Const(1024), i32Const(cellAllocCursor), load32(0), []byte{0x6a},
	roundUp8, []byte{0x6b},
)

// copyBuffer copies the three i32 words at local src to local dst.
func copyBuffer(dst, src byte) []byte {
	var out []byte
	for _, off := range []int{0, 4, 8} {
		out = append(out, code(localGet(dst), localGet(src), load32(off), store32(off))...)
	}
	return out
}

// failWith stores code into the status at local status and points its
// error buffer at a 4 byte message held in word, written to addr.
func failWith(status byte, statusCode, addr, word int64) []byte {
	return code(
		localGet(status), i32Const(statusCode), []byte{0x3a, 0x00, 0x00},
		localGet(status), i32Const(4), store32(4),
		localGet(status), i32Const(4), store32(8),
		localGet(status), i32Const(addr), store32(12),
		i32Const(addr), i32Const(word), store32(0),
	)
}

func vec(items [][]byte) []byte {
	out := uleb(len(items))
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func name(s string) []byte {
	return append(uleb(len(s)), s...)
}

func section(out []byte, id byte, payload []byte) []byte {
	out = append(out, id)
	out = append(out, uleb(len(payload))...)
	return append(out, payload...)
}

// buildModule assembles a core module with one page of exported memory
// and the given exported functions.
func buildModule(funcs []wasmFunc) []byte {
	types := [][]byte{
		{0x60, 0x00, 0x00},
		{0x60, 0x00, 0x01, i32},
		{0x60, 0x03, i32, i32, i32, 0x01, i32},
		{0x60, 0x01, i32, 0x01, i32},
		{0x60, 0x02, i32, i32, 0x00},
		{0x60, 0x03, i32, i32, i32, 0x00},
	}
	var decls, exports, codes [][]byte
	for i, f := range funcs {
		decls = append(decls, []byte{f.typ})
		exports = append(exports, append(append(name(f.name), 0x00), uleb(i)...))
		body := append([]byte{0x00}, f.body...)
		body = append(body, 0x0b)
		codes = append(codes, append(uleb(len(body)), body...))
	}
	exports = append(exports, append(name("memory"), 0x02, 0x00))

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = section(out, 1, vec(types))
	out = section(out, 3, vec(decls))
	out = section(out, 5, vec([][]byte{{0x00, 0x01}}))
	out = section(out, 7, vec(exports))
	out = section(out, 10, vec(codes))
	return out
}

// calcModule exports everything the calc interface binds. Overrides
// replace function bodies by name; a nil body drops the export.
func calcModule(overrides map[string][]byte) []byte {
	funcs := []wasmFunc{
		{name: "ffi_calc_rustbuffer_alloc", typ: typeVoid},
		// RustBuffer{cap: len, len: len, data: data} from ForeignBytes{len, data}
		{name: "ffi_calc_rustbuffer_from_bytes", typ: typeTriple, body: code(
			localGet(0), localGet(1), load32(0), store32(0),
			localGet(0), localGet(1), load32(0), store32(4),
			localGet(0), localGet(1), load32(4), store32(8),
		)},
		{name: "ffi_calc_rustbuffer_free", typ: typePair, body: counter(cellBufferFrees)},
		{name: "ffi_calc_rustbuffer_reserve", typ: typeVoid},
		{name: "ffi_calc_uniffi_contract_version", typ: typeConst, body: i32Const(26)},
		{name: "uniffi_calc_checksum_func_add", typ: typeConst, body: i32Const(4242)},
		// local.get 0, local.get 1, i32.add
		{name: "uniffi_calc_fn_func_add", typ: typeBinary, body: []byte{0x20, 0x00, 0x20, 0x01, 0x6a}},
		{name: "uniffi_calc_fn_func_echo", typ: typeTriple, body: copyBuffer(0, 1)},
		// CalcError.Negative: discriminator 1, big-endian
		{name: "uniffi_calc_fn_func_check", typ: typePair, body: failWith(1, 1, 64, 0x01000000)},
		// local.get 2, i32.const 1, i32.store8, i32.const 0
		{name: "fail", typ: typeBinary, body: append(append([]byte{0x20, 0x02}, i32Const(1)...), 0x3a, 0x00, 0x00, 0x41, 0x00)},
		// "boom" as an unexpected error message
		{name: "panic", typ: typeBinary, body: code(failWith(2, 2, 80, 0x6d6f6f62), i32Const(0))},
		{name: "alloc", typ: typeAllocate, body: bumpAlloc},
		{name: "dealloc", typ: typePair, body: counter(cellDeallocs)},
	}
	var kept []wasmFunc
	for _, f := range funcs {
		if body, ok := overrides[f.name]; ok {
			if body == nil {
				continue
			}
			f.body = body
		}
		kept = append(kept, f)
	}
	return buildModule(kept)
}

func loadCalc(t *testing.T, overrides map[string][]byte) (*Library, *model.Interface) {
	t.Helper()
	ctx := context.Background()

	iface, err := model.Parse([]byte(calcDescription))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	lib, err := Load(ctx, calcModule(overrides))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	t.Cleanup(func() { lib.Close(ctx) })
	return lib, iface
}

func kindOf(err error) errors.Kind {
	if e, ok := err.(*errors.Error); ok {
		return e.Kind
	}
	return ""
}

func TestVerify_Matches(t *testing.T) {
	lib, iface := loadCalc(t, nil)
	if err := lib.Verify(context.Background(), iface, iface.ContractVersion); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestVerify_ContractVersionMismatch(t *testing.T) {
	lib, iface := loadCalc(t, map[string][]byte{
		"ffi_calc_uniffi_contract_version": i32Const(25),
	})
	err := lib.Verify(context.Background(), iface, iface.ContractVersion)
	if kindOf(err) != errors.KindContractVersionMismatch {
		t.Fatalf("expected contract version mismatch, got %v", err)
	}
	if e := err.(*errors.Error); e.Phase != errors.PhaseVerify || e.Value != uint32(25) {
		t.Errorf("unexpected error %+v", e)
	}
}

func TestVerify_CollectsIssues(t *testing.T) {
	lib, iface := loadCalc(t, map[string][]byte{
		"uniffi_calc_checksum_func_add": i32Const(1),
		"ffi_calc_rustbuffer_reserve":   nil,
	})
	err := lib.Verify(context.Background(), iface, iface.ContractVersion)
	v, ok := err.(*errors.ValidationError)
	if !ok {
		t.Fatalf("expected *errors.ValidationError, got %T: %v", err, err)
	}
	if len(v.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %v", len(v.Issues), v)
	}
	if kindOf(v.Issues[0]) != errors.KindChecksumMismatch {
		t.Errorf("issue 0: expected checksum mismatch, got %v", v.Issues[0])
	}
	if kindOf(v.Issues[1]) != errors.KindNotFound {
		t.Errorf("issue 1: expected not found, got %v", v.Issues[1])
	}
}

func TestVerify_SkipsUnrecordedChecksums(t *testing.T) {
	ctx := context.Background()
	iface, err := model.Parse([]byte(`
namespace: calc
functions:
  - name: add
    args:
      - name: a
        type: u32
      - name: b
        type: u32
    returns: u32
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	lib, err := Load(ctx, calcModule(map[string][]byte{
		"uniffi_calc_checksum_func_add": i32Const(30097),
	}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer lib.Close(ctx)

	if err := lib.Verify(ctx, iface, iface.ContractVersion); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestLibrary_ContractAndChecksum(t *testing.T) {
	lib, iface := loadCalc(t, nil)
	ctx := context.Background()

	version, err := lib.ContractVersion(ctx, iface)
	if err != nil {
		t.Fatalf("ContractVersion failed: %v", err)
	}
	if version != 26 {
		t.Errorf("expected contract version 26, got %d", version)
	}

	sum, err := lib.Checksum(ctx, "uniffi_calc_checksum_func_add")
	if err != nil {
		t.Fatalf("Checksum failed: %v", err)
	}
	if sum != 4242 {
		t.Errorf("expected checksum 4242, got %d", sum)
	}
	if sum != iface.Checksums()[0].Expected {
		t.Errorf("checksum %d does not match model %d", sum, iface.Checksums()[0].Expected)
	}
}

func TestLibrary_CallWithStatus(t *testing.T) {
	lib, _ := loadCalc(t, nil)
	ctx := context.Background()

	results, err := lib.CallWithStatus(ctx, "uniffi_calc_fn_func_add", 2, 3)
	if err != nil {
		t.Fatalf("CallWithStatus failed: %v", err)
	}
	if len(results) != 1 || results[0] != 5 {
		t.Errorf("expected [5], got %v", results)
	}

	_, err = lib.CallWithStatus(ctx, "fail", 0, 0)
	if kindOf(err) != errors.KindCallFailed {
		t.Errorf("expected call_failed, got %v", err)
	}

	_, err = lib.Call(ctx, "missing")
	if kindOf(err) != errors.KindNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
}

func cell(t *testing.T, lib *Library, addr uint32) uint32 {
	t.Helper()
	v, ok := lib.instance.Memory().ReadUint32Le(addr)
	if !ok {
		t.Fatalf("cell %d out of range", addr)
	}
	return v
}

func TestLibrary_CallWithStatusReleasesMemory(t *testing.T) {
	lib, _ := loadCalc(t, nil)
	ctx := context.Background()

	if _, err := lib.CallWithStatus(ctx, "uniffi_calc_fn_func_add", 1, 1); err != nil {
		t.Fatalf("CallWithStatus failed: %v", err)
	}
	if got := cell(t, lib, cellDeallocs); got != 1 {
		t.Errorf("status freed %d times, want 1", got)
	}

	_, err := lib.CallWithStatus(ctx, "panic", 0, 0)
	if kindOf(err) != errors.KindCallFailed {
		t.Fatalf("expected call_failed, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q should carry the library's message", err)
	}
	if got := cell(t, lib, cellBufferFrees); got != 1 {
		t.Errorf("error buffer freed %d times, want 1", got)
	}
	// the failed call's status and the status of the rustbuffer_free call
	if got := cell(t, lib, cellDeallocs); got != 3 {
		t.Errorf("deallocs = %d, want 3", got)
	}
}

func TestLibrary_Invoke(t *testing.T) {
	lib, iface := loadCalc(t, nil)
	ctx := context.Background()

	sum, err := lib.Invoke(ctx, iface, "add", uint32(2), uint32(40))
	if err != nil {
		t.Fatalf("Invoke(add) failed: %v", err)
	}
	if sum != uint32(42) {
		t.Errorf("add = %#v, want uint32(42)", sum)
	}

	echoed, err := lib.Invoke(ctx, iface, "echo", "héllo")
	if err != nil {
		t.Fatalf("Invoke(echo) failed: %v", err)
	}
	if echoed != "héllo" {
		t.Errorf("echo = %#v", echoed)
	}
	if got := cell(t, lib, cellBufferFrees); got != 1 {
		t.Errorf("result buffer freed %d times, want 1", got)
	}
	// add: 1 status; echo: 3 statuses, the data copy, the bytes header and
	// both RustBuffer headers
	if got := cell(t, lib, cellDeallocs); got != 8 {
		t.Errorf("deallocs = %d, want 8", got)
	}
}

func TestLibrary_InvokeErrors(t *testing.T) {
	lib, iface := loadCalc(t, nil)
	ctx := context.Background()

	_, err := lib.Invoke(ctx, iface, "check", uint32(0))
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindCallFailed {
		t.Fatalf("expected call_failed, got %v", err)
	}
	ce, ok := e.Cause.(*CallError)
	if !ok {
		t.Fatalf("expected *CallError cause, got %T: %v", e.Cause, e.Cause)
	}
	if !reflect.DeepEqual(ce.Value, wire.EnumValue{Variant: "Negative"}) {
		t.Errorf("lifted error = %#v", ce.Value)
	}
	if got := cell(t, lib, cellBufferFrees); got != 1 {
		t.Errorf("error buffer freed %d times, want 1", got)
	}

	tests := []struct {
		name string
		fn   string
		args []any
		kind errors.Kind
	}{
		{"unknown function", "missing", nil, errors.KindNotFound},
		{"wrong arity", "add", []any{uint32(1)}, errors.KindInvalidInput},
		{"argument out of range", "add", []any{-1, uint32(1)}, errors.KindTypeMismatch},
		{"wrong argument type", "echo", []any{42}, errors.KindTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lib.Invoke(ctx, iface, tt.fn, tt.args...)
			if kindOf(err) != tt.kind {
				t.Errorf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestLibrary_Exports(t *testing.T) {
	lib, _ := loadCalc(t, nil)

	exports := lib.Exports()
	for i := 1; i < len(exports); i++ {
		if exports[i-1] > exports[i] {
			t.Fatalf("exports not sorted: %v", exports)
		}
	}
	if !lib.Has("uniffi_calc_fn_func_add") {
		t.Error("expected add to be exported")
	}
	if lib.Has("memory") {
		t.Error("memory is not a function export")
	}
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(context.Background(), []byte("not wasm"))
	if err == nil {
		t.Fatal("expected error")
	}
	if kindOf(err) != errors.KindMalformed {
		t.Errorf("expected malformed, got %v", err)
	}
}
