package probe

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
	"github.com/acterglobal/uniffi-dart-sub000/wire"
)

// CallError is the declared error a fallible callable returned, lifted
// into its wire value.
type CallError struct {
	Value any
}

func (e *CallError) Error() string {
	return fmt.Sprintf("callable returned %v", e.Value)
}

// Invoke calls the synchronous top-level function name with Go values and
// returns its lifted result (nil for void). Values follow the wire package
// conventions. Buffer arguments are built with the library's
// rustbuffer_from_bytes and passed by pointer; a buffer result comes back
// through a leading return pointer and is freed once lifted. A declared
// error is returned as a call_failed error wrapping *CallError.
func (l *Library) Invoke(ctx context.Context, iface *model.Interface, name string, args ...any) (any, error) {
	var fn *model.Function
	for _, f := range iface.Functions {
		if f.Name == name {
			fn = f
			break
		}
	}
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseVerify, "function", name)
	}
	if fn.Async {
		return nil, errors.Unsupported(errors.PhaseVerify, "invoking async function "+name)
	}
	if len(args) != len(fn.Args) {
		return nil, errors.InvalidInput(errors.PhaseVerify,
			name+" takes "+strconv.Itoa(len(fn.Args))+" arguments, got "+strconv.Itoa(len(args)))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	codec := wire.NewCodec(iface)
	ffi := iface.FunctionFfi(fn)
	var scratch []allocation
	defer func() {
		for _, a := range scratch {
			l.free(ctx, a.ptr, a.size)
		}
	}()

	var raw []uint64
	var ret uint32
	returnsBuffer := ffi.Return != nil && ffi.Return.Kind == model.FfiRustBuffer
	if returnsBuffer {
		ptr, err := l.alloc(ctx, bufferSize, 4)
		if err != nil {
			return nil, errors.CallFailed(ffi.Name, err)
		}
		scratch = append(scratch, allocation{ptr, bufferSize})
		ret = ptr
		raw = append(raw, uint64(ptr))
	}

	for i, a := range fn.Args {
		if ffi.Args[i].Type.Kind != model.FfiRustBuffer {
			v, err := codec.LowerScalar(a.Type, args[i])
			if err != nil {
				return nil, err
			}
			raw = append(raw, v)
			continue
		}
		data, err := codec.Lower(a.Type, args[i])
		if err != nil {
			return nil, err
		}
		ptr, err := l.bufferFromBytes(ctx, iface, data, &scratch)
		if err != nil {
			return nil, err
		}
		raw = append(raw, uint64(ptr))
	}

	results, code, errBuf, err := l.callWithStatus(ctx, ffi.Name, raw...)
	if err != nil {
		return nil, err
	}
	switch {
	case code == callError && fn.Throws != nil:
		value, err := codec.Lift(fn.Throws, errBuf)
		if err != nil {
			return nil, errors.CallFailed(ffi.Name, err)
		}
		return nil, errors.CallFailed(ffi.Name, &CallError{Value: value})
	case code != callSuccess:
		return nil, errors.CallFailed(ffi.Name, statusError(code, errBuf))
	}

	Logger().Debug("invoked", zap.String("symbol", ffi.Name), zap.Int("args", len(raw)))
	switch {
	case fn.Return == nil:
		return nil, nil
	case returnsBuffer:
		data, err := l.readBuffer(ret)
		if err != nil {
			return nil, errors.CallFailed(ffi.Name, err)
		}
		l.freeBuffer(ctx, ret)
		return codec.Lift(fn.Return, data)
	case len(results) != 1:
		return nil, errors.CallFailed(ffi.Name, fmt.Errorf("%d results", len(results)))
	}
	return codec.LiftScalar(fn.Return, results[0])
}

type allocation struct {
	ptr, size uint32
}

// bufferFromBytes copies data into guest memory and has the library wrap
// it in a RustBuffer, returning the address of that buffer. The copy and
// the ForeignBytes header are freed at once; the RustBuffer header is
// appended to scratch since the callee only consumes its contents.
func (l *Library) bufferFromBytes(ctx context.Context, iface *model.Interface, data []byte, scratch *[]allocation) (uint32, error) {
	symbol := iface.RustBufferFromBytesSymbol()
	mem := l.instance.Memory()

	var dataPtr uint32
	if len(data) > 0 {
		ptr, err := l.alloc(ctx, uint32(len(data)), 1)
		if err != nil {
			return 0, errors.CallFailed(symbol, err)
		}
		defer l.free(ctx, ptr, uint32(len(data)))
		if !mem.Write(ptr, data) {
			return 0, errors.CallFailed(symbol, fmt.Errorf("data at %d is out of range", ptr))
		}
		dataPtr = ptr
	}

	fb, err := l.alloc(ctx, foreignBytesSize, 4)
	if err != nil {
		return 0, errors.CallFailed(symbol, err)
	}
	defer l.free(ctx, fb, foreignBytesSize)
	header := make([]byte, foreignBytesSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(data)))
	binary.LittleEndian.PutUint32(header[4:8], dataPtr)
	if !mem.Write(fb, header) {
		return 0, errors.CallFailed(symbol, fmt.Errorf("bytes header at %d is out of range", fb))
	}

	buf, err := l.alloc(ctx, bufferSize, 4)
	if err != nil {
		return 0, errors.CallFailed(symbol, err)
	}
	*scratch = append(*scratch, allocation{buf, bufferSize})

	_, code, errBuf, err := l.callWithStatus(ctx, symbol, uint64(buf), uint64(fb))
	if err != nil {
		return 0, err
	}
	if code != callSuccess {
		return 0, errors.CallFailed(symbol, statusError(code, errBuf))
	}
	return buf, nil
}
