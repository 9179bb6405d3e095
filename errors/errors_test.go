package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:     PhaseResolve,
				Kind:      KindMissingDefinition,
				Path:      []string{"record Person", "field address"},
				Construct: "record Person",
				TypeExpr:  "Address",
				Detail:    "no definition",
			},
			contains: []string{"[resolve]", "missing_definition", "record Person / field address", "type Address", "no definition"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseLoad,
				Kind:  KindMalformed,
			},
			contains: []string{"[load]", "malformed"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseWrite,
				Kind:   KindIO,
				Detail: "write bindings",
				Cause:  errors.New("disk full"),
			},
			contains: []string{"[write]", "io", "write bindings", "caused by", "disk full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindIO,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseResolve,
		Kind:  KindUnknownType,
		Path:  []string{"function add"},
	}

	if !err.Is(&Error{Phase: PhaseResolve, Kind: KindUnknownType}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseLoad, Kind: KindUnknownType}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseResolve, Kind: KindMalformed}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseResolve, Kind: KindUnknownType}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseResolve, KindMissingDefinition).
		Path("record Person", "field address").
		Construct("record Person").
		TypeExpr("Address").
		Value(3).
		Cause(cause).
		Detail("expected %s, got %s", "record", "nothing").
		Build()

	if err.Phase != PhaseResolve {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseResolve)
	}
	if err.Kind != KindMissingDefinition {
		t.Errorf("Kind = %v, want %v", err.Kind, KindMissingDefinition)
	}
	if len(err.Path) != 2 || err.Path[1] != "field address" {
		t.Errorf("Path = %v", err.Path)
	}
	if err.Construct != "record Person" {
		t.Errorf("Construct = %q", err.Construct)
	}
	if err.TypeExpr != "Address" {
		t.Errorf("TypeExpr = %q", err.TypeExpr)
	}
	if err.Value != 3 {
		t.Errorf("Value = %v, want 3", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected record, got nothing" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("UnknownType", func(t *testing.T) {
		err := UnknownType([]string{"function f"}, "Widget")
		if err.Phase != PhaseResolve || err.Kind != KindUnknownType {
			t.Errorf("got %s/%s", err.Phase, err.Kind)
		}
		if !strings.Contains(err.Error(), "Widget") {
			t.Errorf("message %q should name the type", err.Error())
		}
	})

	t.Run("ChecksumMismatch", func(t *testing.T) {
		err := ChecksumMismatch("uniffi_math_checksum_func_add", 41, 7)
		if err.Kind != KindChecksumMismatch {
			t.Errorf("Kind = %v", err.Kind)
		}
		msg := err.Error()
		for _, s := range []string{"uniffi_math_checksum_func_add", "41", "7"} {
			if !strings.Contains(msg, s) {
				t.Errorf("message %q missing %q", msg, s)
			}
		}
	})

	t.Run("ContractVersionMismatch", func(t *testing.T) {
		err := ContractVersionMismatch(26, 24)
		if !errors.Is(err, &Error{Phase: PhaseVerify, Kind: KindContractVersionMismatch}) {
			t.Error("should match verify/contract_version_mismatch")
		}
		if err.Value != uint32(24) {
			t.Errorf("Value = %v, want 24", err.Value)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		err := Duplicate([]string{"records"}, "Person")
		if err.Phase != PhaseLoad || err.Construct != "Person" {
			t.Errorf("unexpected %+v", err)
		}
	})

	t.Run("IO", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := IO(PhaseWrite, "write out.dart", cause)
		if !errors.Is(err, cause) {
			t.Error("IO error should unwrap to its cause")
		}
	})
}

func TestValidationError(t *testing.T) {
	var v ValidationError
	v.Phase = PhaseLoad
	if v.Err() != nil {
		t.Fatal("empty validation should be nil")
	}

	v.Add(nil)
	v.Add(Duplicate(nil, "A"))
	v.Add(MissingDefinition([]string{"record B"}, "C"))

	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "2 problems") {
		t.Errorf("message %q should count problems", err.Error())
	}
	if !errors.Is(err, &Error{Phase: PhaseResolve, Kind: KindMissingDefinition}) {
		t.Error("errors.Is should see through to the individual issues")
	}

	var single ValidationError
	single.Add(Duplicate(nil, "A"))
	if single.Error() != single.Issues[0].Error() {
		t.Error("single issue should render as the issue itself")
	}
}
