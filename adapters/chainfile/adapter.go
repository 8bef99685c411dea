// Package chainfile loads and saves processing chain descriptions.
// Three formats share one data model: JSON is the canonical wire form, YAML
// mirrors it field for field, and HCL offers a block syntax for hand-written
// descriptions. Every load path applies the same validation, so a chain
// either loads completely or not at all.
package chainfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chainflux/core/chain"
	"chainflux/internal/errors"
)

// Format identifies a chain description file format.
type Format int

const (
	// FormatJSON is the canonical wire form.
	FormatJSON Format = iota

	// FormatYAML mirrors the JSON form.
	FormatYAML

	// FormatHCL is the block syntax. Read-only.
	FormatHCL
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatHCL:
		return "hcl"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat resolves a format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "hcl":
		return FormatHCL, nil
	default:
		return 0, errors.Newf(errors.TypeInput, "unknown chain format: %s", name)
	}
}

// DetectFormat picks the format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return 0, errors.Newf(errors.TypeInput, "cannot detect chain format from %q", filepath.Base(path))
	}
}

// Parse decodes a chain description in the given format.
func Parse(data []byte, format Format) (*chain.ProcessingChain, error) {
	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatYAML:
		return parseYAML(data)
	case FormatHCL:
		return parseHCL(data, "chain.hcl")
	default:
		return nil, errors.NotSupported(fmt.Sprintf("parse format %s", format))
	}
}

// Encode renders a chain in the given format. HCL descriptions are written
// by hand, not round-tripped, so encoding one is unsupported.
func Encode(c *chain.ProcessingChain, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return encodeJSON(c)
	case FormatYAML:
		return encodeYAML(c)
	case FormatHCL:
		return nil, errors.NotSupported("encoding a chain as HCL")
	default:
		return nil, errors.NotSupported(fmt.Sprintf("encode format %s", format))
	}
}

// Load reads a chain description from a file, detecting the format from the
// extension.
func Load(path string) (*chain.ProcessingChain, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("chain file", path)
		}
		return nil, errors.Wrapf(errors.TypeInput, err, "reading %s", path)
	}

	if format == FormatHCL {
		return parseHCL(data, path)
	}
	c, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeOf(err), err, "loading %s", path)
	}
	return c, nil
}

// Save writes a chain description to a file, detecting the format from the
// extension.
func Save(path string, c *chain.ProcessingChain) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}

	data, err := Encode(c, format)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
