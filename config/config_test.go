package config

import (
	"errors"
	"testing"

	gerrors "github.com/acterglobal/uniffi-dart-sub000/errors"
)

func TestDefault(t *testing.T) {
	c := Default("arithmetic")
	if c.PackageName != "arithmetic" {
		t.Errorf("PackageName = %q", c.PackageName)
	}
	if c.CdylibName != "uniffi_arithmetic" {
		t.Errorf("CdylibName = %q", c.CdylibName)
	}
	if c.ExternalPackages == nil {
		t.Error("ExternalPackages should be non-nil")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantPackage string
		wantCdylib  string
		wantOmit    bool
		wantExt     map[string]string
	}{
		{
			name:        "no file",
			path:        "",
			wantPackage: "demo",
			wantCdylib:  "uniffi_demo",
		},
		{
			name:        "flat",
			path:        "testdata/flat.yaml",
			wantPackage: "arithmetic_bindings",
			wantCdylib:  "arithmetical",
			wantExt:     map[string]string{"uniffi-ext-types": "ext_types"},
		},
		{
			name:        "nested",
			path:        "testdata/nested.yaml",
			wantPackage: "demo",
			wantCdylib:  "coverall",
			wantOmit:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(tt.path, "demo")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if c.PackageName != tt.wantPackage {
				t.Errorf("PackageName = %q, want %q", c.PackageName, tt.wantPackage)
			}
			if c.CdylibName != tt.wantCdylib {
				t.Errorf("CdylibName = %q, want %q", c.CdylibName, tt.wantCdylib)
			}
			if c.OmitDocs != tt.wantOmit {
				t.Errorf("OmitDocs = %v, want %v", c.OmitDocs, tt.wantOmit)
			}
			for crate, pkg := range tt.wantExt {
				if got, ok := c.ExternalPackage(crate); !ok || got != pkg {
					t.Errorf("ExternalPackage(%q) = %q, %v", crate, got, ok)
				}
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind gerrors.Kind
	}{
		{"unknown key", "package_nam: x\n", gerrors.KindMalformed},
		{"unknown nested key", "bindings:\n  dart:\n    cdylib: x\n", gerrors.KindMalformed},
		{"not a mapping", "- a\n- b\n", gerrors.KindMalformed},
		{"path in cdylib", "cdylib_name: lib/foo\n", gerrors.KindInvalidInput},
		{"empty external package", "external_packages:\n  crate: \"\"\n", gerrors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "demo")
			if !errors.Is(err, &gerrors.Error{Phase: gerrors.PhaseConfig, Kind: tt.kind}) {
				t.Errorf("error = %v, want config/%s", err, tt.kind)
			}
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	c, err := Parse([]byte("\n"), "demo")
	if err != nil {
		t.Fatal(err)
	}
	if c.CdylibName != "uniffi_demo" {
		t.Errorf("CdylibName = %q", c.CdylibName)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml", "demo")
	if !errors.Is(err, &gerrors.Error{Phase: gerrors.PhaseConfig, Kind: gerrors.KindIO}) {
		t.Errorf("error = %v, want config/io", err)
	}
}
