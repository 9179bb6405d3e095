package probe

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// Allocator exports tried in order when a call needs guest memory, and the
// matching deallocators.
const (
	cabiRealloc = "cabi_realloc"
	simpleAlloc = "alloc"
	mallocAlloc = "malloc"

	sizedFree = "dealloc" // (ptr, size)
	plainFree = "free"    // (ptr)
)

// Guest layouts on wasm32. A RustBuffer is an i32 capacity, an i32 length
// and a data pointer; a RustCallStatus is an i8 code padded to 4 followed
// by the error RustBuffer.
const (
	bufferSize       = 12
	foreignBytesSize = 8
	statusSize       = 16
	errorBufOffset   = 4
)

// Call status codes written by the library.
const (
	callSuccess         = 0
	callError           = 1
	callUnexpectedError = 2
)

// Library is an instantiated WebAssembly build of a native library.
// Calls are serialised; a Library is safe for concurrent use.
type Library struct {
	runtime  wazero.Runtime
	instance api.Module

	mu         sync.Mutex
	allocFn    api.Function
	simple     bool // allocFn takes only a size
	freeFn     api.Function
	freeSized  bool   // freeFn takes the size after the pointer
	bufferFree string // ffi_*_rustbuffer_free, when exported
	stackBuf   []uint64
}

// Open reads and instantiates the module at path.
func Open(ctx context.Context, path string) (*Library, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseVerify, "read "+path, err)
	}
	return Load(ctx, wasm)
}

// Load instantiates a module from its binary encoding. WASI preview1 is
// provided when the module imports it.
func Load(ctx context.Context, wasm []byte) (*Library, error) {
	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig())

	compiled, err := runtime.CompileModule(ctx, wasm)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, errors.Wrap(errors.PhaseVerify, errors.KindMalformed, err, "compile module")
	}

	if importsWASI(compiled) {
		if _, err := instantiateWASI(ctx, runtime); err != nil {
			_ = runtime.Close(ctx)
			return nil, errors.Wrap(errors.PhaseVerify, errors.KindUnsupported, err, "instantiate WASI")
		}
	}

	instance, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, errors.Wrap(errors.PhaseVerify, errors.KindMalformed, err, "instantiate module")
	}

	lib := &Library{
		runtime:  runtime,
		instance: instance,
		stackBuf: make([]uint64, 4),
	}
	defs := instance.ExportedFunctionDefinitions()
	for _, name := range []string{cabiRealloc, simpleAlloc, mallocAlloc} {
		if def := defs[name]; def != nil {
			lib.allocFn = instance.ExportedFunction(name)
			lib.simple = len(def.ParamTypes()) < 4
			break
		}
	}
	for _, name := range []string{sizedFree, plainFree} {
		if def := defs[name]; def != nil {
			lib.freeFn = instance.ExportedFunction(name)
			lib.freeSized = len(def.ParamTypes()) > 1
			break
		}
	}
	for name := range defs {
		if strings.HasPrefix(name, "ffi_") && strings.HasSuffix(name, "_rustbuffer_free") {
			lib.bufferFree = name
			break
		}
	}

	Logger().Debug("library instantiated",
		zap.Int("exports", len(defs)),
		zap.Bool("allocator", lib.allocFn != nil))
	return lib, nil
}

// Close releases the runtime and everything instantiated in it.
func (l *Library) Close(ctx context.Context) error {
	return l.runtime.Close(ctx)
}

// Exports lists the exported function names, sorted.
func (l *Library) Exports() []string {
	defs := l.instance.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether symbol is an exported function.
func (l *Library) Has(symbol string) bool {
	return l.instance.ExportedFunction(symbol) != nil
}

// Call invokes symbol with raw ABI arguments.
func (l *Library) Call(ctx context.Context, symbol string, args ...uint64) ([]uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.call(ctx, symbol, args...)
}

func (l *Library) call(ctx context.Context, symbol string, args ...uint64) ([]uint64, error) {
	fn := l.instance.ExportedFunction(symbol)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseVerify, "symbol", symbol)
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.CallFailed(symbol, err)
	}
	return results, nil
}

// CallWithStatus invokes a callable that takes a trailing status pointer.
// The status is allocated in guest memory and released after the call. A
// non-success code is an error; its error buffer is read and then freed
// through the library's rustbuffer_free.
func (l *Library) CallWithStatus(ctx context.Context, symbol string, args ...uint64) ([]uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	results, code, errBuf, err := l.callWithStatus(ctx, symbol, args...)
	if err != nil {
		return nil, err
	}
	if code != callSuccess {
		return nil, errors.CallFailed(symbol, statusError(code, errBuf))
	}
	return results, nil
}

// callWithStatus runs symbol with a fresh status appended and returns the
// status code with a copy of the error buffer contents.
func (l *Library) callWithStatus(ctx context.Context, symbol string, args ...uint64) ([]uint64, int8, []byte, error) {
	status, err := l.alloc(ctx, statusSize, 4)
	if err != nil {
		return nil, 0, nil, errors.CallFailed(symbol, err)
	}
	defer l.free(ctx, status, statusSize)

	mem := l.instance.Memory()
	if !mem.Write(status, make([]byte, statusSize)) {
		return nil, 0, nil, errors.CallFailed(symbol, fmt.Errorf("status at %d is out of range", status))
	}

	results, err := l.call(ctx, symbol, append(args, uint64(status))...)
	if err != nil {
		return nil, 0, nil, err
	}
	code, ok := mem.ReadByte(status)
	if !ok {
		return nil, 0, nil, errors.CallFailed(symbol, fmt.Errorf("status at %d is out of range", status))
	}
	if code == callSuccess {
		return results, 0, nil, nil
	}

	errBuf, err := l.readBuffer(status + errorBufOffset)
	if err != nil {
		return nil, 0, nil, errors.CallFailed(symbol, err)
	}
	l.freeBuffer(ctx, status+errorBufOffset)
	return results, int8(code), errBuf, nil
}

// statusError describes a failed call. Unexpected errors carry a UTF-8
// message; declared errors are left to the caller to lift.
func statusError(code int8, errBuf []byte) error {
	if code == callUnexpectedError && len(errBuf) > 0 {
		return fmt.Errorf("call status %d: %s", code, errBuf)
	}
	return fmt.Errorf("call status %d", code)
}

// readBuffer copies the contents of the RustBuffer stored at ptr.
func (l *Library) readBuffer(ptr uint32) ([]byte, error) {
	mem := l.instance.Memory()
	header, ok := mem.Read(ptr, bufferSize)
	if !ok {
		return nil, fmt.Errorf("buffer at %d is out of range", ptr)
	}
	n := binary.LittleEndian.Uint32(header[4:8])
	data := binary.LittleEndian.Uint32(header[8:12])
	if n == 0 {
		return nil, nil
	}
	contents, ok := mem.Read(data, n)
	if !ok {
		return nil, fmt.Errorf("buffer data at %d+%d is out of range", data, n)
	}
	return bytes.Clone(contents), nil
}

// freeBuffer hands the RustBuffer stored at ptr back to the library. An
// empty buffer owns nothing and is skipped.
func (l *Library) freeBuffer(ctx context.Context, ptr uint32) {
	header, ok := l.instance.Memory().Read(ptr, bufferSize)
	if !ok || l.bufferFree == "" {
		return
	}
	if binary.LittleEndian.Uint32(header[0:4]) == 0 && binary.LittleEndian.Uint32(header[8:12]) == 0 {
		return
	}
	if _, code, _, err := l.callWithStatus(ctx, l.bufferFree, uint64(ptr)); err != nil || code != callSuccess {
		Logger().Warn("rustbuffer_free failed", zap.Uint32("buffer", ptr), zap.Int8("code", code), zap.Error(err))
	}
}

func (l *Library) alloc(ctx context.Context, size, align uint32) (uint32, error) {
	if l.allocFn == nil {
		return 0, fmt.Errorf("no allocator available")
	}
	if l.instance.Memory() == nil {
		return 0, fmt.Errorf("module exports no memory")
	}
	if l.simple {
		l.stackBuf[0] = uint64(size)
		if err := l.allocFn.CallWithStack(ctx, l.stackBuf[:1]); err != nil {
			return 0, err
		}
		return uint32(l.stackBuf[0]), nil
	}
	l.stackBuf[0] = 0
	l.stackBuf[1] = 0
	l.stackBuf[2] = uint64(align)
	l.stackBuf[3] = uint64(size)
	if err := l.allocFn.CallWithStack(ctx, l.stackBuf[:4]); err != nil {
		return 0, err
	}
	return uint32(l.stackBuf[0]), nil
}

// free releases memory taken with alloc. Modules exporting only
// cabi_realloc have no deallocator; their scratch memory is kept.
func (l *Library) free(ctx context.Context, ptr, size uint32) {
	if l.freeFn == nil {
		return
	}
	l.stackBuf[0] = uint64(ptr)
	n := 1
	if l.freeSized {
		l.stackBuf[1] = uint64(size)
		n = 2
	}
	if err := l.freeFn.CallWithStack(ctx, l.stackBuf[:n]); err != nil {
		Logger().Warn("guest free failed", zap.Uint32("ptr", ptr), zap.Error(err))
	}
}

// ContractVersion reads the library's contract version.
func (l *Library) ContractVersion(ctx context.Context, iface *model.Interface) (uint32, error) {
	results, err := l.Call(ctx, iface.ContractVersionSymbol())
	if err != nil {
		return 0, err
	}
	if len(results) != 1 {
		return 0, errors.CallFailed(iface.ContractVersionSymbol(), fmt.Errorf("%d results", len(results)))
	}
	return uint32(results[0]), nil
}

// Checksum reads one checksum function's value.
func (l *Library) Checksum(ctx context.Context, symbol string) (uint16, error) {
	results, err := l.Call(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if len(results) != 1 {
		return 0, errors.CallFailed(symbol, fmt.Errorf("%d results", len(results)))
	}
	return uint16(results[0]), nil
}

// Verify checks the library against iface: the contract version must equal
// expectedVersion, every recorded checksum must match, and every FFI symbol
// the bindings bind must be exported. A version mismatch stops the check;
// the other failures are collected into one ValidationError.
func (l *Library) Verify(ctx context.Context, iface *model.Interface, expectedVersion uint32) error {
	actual, err := l.ContractVersion(ctx, iface)
	if err != nil {
		return err
	}
	if actual != expectedVersion {
		return errors.ContractVersionMismatch(expectedVersion, actual)
	}

	issues := &errors.ValidationError{Phase: errors.PhaseVerify}
	for _, cs := range iface.Checksums() {
		if !l.Has(cs.Symbol) {
			continue // reported with the other missing symbols
		}
		got, err := l.Checksum(ctx, cs.Symbol)
		if err != nil {
			issues.Add(err)
			continue
		}
		if got != cs.Expected {
			issues.Add(errors.ChecksumMismatch(cs.Symbol, cs.Expected, got))
		}
	}

	seen := make(map[string]bool)
	for _, fn := range iface.FfiFunctions() {
		if seen[fn.Name] {
			continue
		}
		seen[fn.Name] = true
		if !l.Has(fn.Name) {
			issues.Add(errors.NotFound(errors.PhaseVerify, "symbol", fn.Name))
		}
	}

	Logger().Debug("library verified",
		zap.String("namespace", iface.Namespace.Name),
		zap.Int("symbols", len(seen)),
		zap.Int("issues", len(issues.Issues)))
	return issues.Err()
}
