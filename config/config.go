// Package config loads generator configuration.
//
// A configuration file is YAML, either flat:
//
//	package_name: arithmetic
//	cdylib_name: arithmetical
//	external_packages:
//	  uniffi-ext-types: ext_types
//
// or nested the way project manifests group per-language settings:
//
//	bindings:
//	  dart:
//	    package_name: arithmetic
//
// Unset values are derived from the interface namespace.
package config

import (
	"bytes"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/acterglobal/uniffi-dart-sub000/errors"
)

// Config controls naming in the generated bindings.
type Config struct {
	// PackageName is the library declaration of the emitted file.
	PackageName string `yaml:"package_name"`
	// CdylibName names the output file and the native library to load.
	CdylibName string `yaml:"cdylib_name"`
	// ExternalPackages maps a crate name to the package importing its types.
	ExternalPackages map[string]string `yaml:"external_packages"`
	// ContractVersion overrides the contract version checked at load time.
	ContractVersion *uint32 `yaml:"contract_version"`
	// OmitDocs drops doc comments from the output.
	OmitDocs bool `yaml:"omit_docs"`
}

// Default returns the configuration derived from a namespace alone.
func Default(namespace string) *Config {
	c := &Config{}
	c.applyDefaults(namespace)
	return c
}

func (c *Config) applyDefaults(namespace string) {
	if c.PackageName == "" {
		c.PackageName = namespace
	}
	if c.CdylibName == "" {
		c.CdylibName = "uniffi_" + namespace
	}
	if c.ExternalPackages == nil {
		c.ExternalPackages = map[string]string{}
	}
}

// Load reads a configuration file. An empty path yields the defaults.
func Load(path, namespace string) (*Config, error) {
	if path == "" {
		return Default(namespace), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseConfig, "read "+path, err)
	}
	return Parse(data, namespace)
}

// Parse decodes configuration from YAML. Both the flat and the
// bindings.dart shapes are accepted; unknown keys are rejected.
func Parse(data []byte, namespace string) (*Config, error) {
	var top map[string]yaml.Node
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindMalformed, err, "decode configuration")
	}

	cfg := &Config{}
	if bindings, ok := top["bindings"]; ok {
		// other languages and manifest sections are not ours to validate
		var langs map[string]yaml.Node
		if err := bindings.Decode(&langs); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindMalformed, err, "decode bindings section")
		}
		if dart, ok := langs["dart"]; ok {
			section, err := yaml.Marshal(&dart)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseConfig, errors.KindMalformed, err, "re-encode bindings.dart")
			}
			if err := decodeStrict(section, cfg); err != nil {
				return nil, err
			}
		}
	} else if len(top) > 0 {
		if err := decodeStrict(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults(namespace)
	return cfg, nil
}

func decodeStrict(data []byte, out any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil && err != io.EOF {
		return errors.Wrap(errors.PhaseConfig, errors.KindMalformed, err, "decode configuration")
	}
	return nil
}

func (c *Config) validate() error {
	v := errors.ValidationError{Phase: errors.PhaseConfig}
	for crate, pkg := range c.ExternalPackages {
		if crate == "" || pkg == "" {
			v.Add(errors.InvalidInput(errors.PhaseConfig, "external_packages entries need a crate and a package"))
		}
	}
	if c.CdylibName != "" && containsPathSeparator(c.CdylibName) {
		v.Add(errors.InvalidInput(errors.PhaseConfig, "cdylib_name must be a bare name"))
	}
	return v.Err()
}

func containsPathSeparator(s string) bool {
	for _, r := range s {
		if r == '/' || r == '\\' {
			return true
		}
	}
	return false
}

// ExternalPackage returns the package providing a crate's types.
func (c *Config) ExternalPackage(crate string) (string, bool) {
	pkg, ok := c.ExternalPackages[crate]
	return pkg, ok
}
