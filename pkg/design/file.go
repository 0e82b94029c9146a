package design

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/gdstools/pkg/errors"
)

// Format is the serialization of a design file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ValidFormats lists accepted design file formats.
var ValidFormats = map[Format]bool{
	FormatTOML: true,
	FormatYAML: true,
}

// File is a parsed design file.
//
// Numeric fields typed any accept a number or an expression string; see
// [Eval] for the expression syntax.
type File struct {
	Name       string          `toml:"name" yaml:"name" json:"name"`
	Unit       float64         `toml:"unit" yaml:"unit" json:"unit,omitempty"`
	Precision  float64         `toml:"precision" yaml:"precision" json:"precision,omitempty"`
	Vars       map[string]any  `toml:"vars" yaml:"vars" json:"vars,omitempty"`
	Structures []StructureSpec `toml:"structure" yaml:"structure" json:"structure"`
	Ops        []OpSpec        `toml:"op" yaml:"op" json:"op,omitempty"`
	Cells      []CellSpec      `toml:"cell" yaml:"cell" json:"cell,omitempty"`
}

// StructureSpec declares one structure built by a shape factory.
type StructureSpec struct {
	ID       string         `toml:"id" yaml:"id" json:"id"`
	Kind     string         `toml:"kind" yaml:"kind" json:"kind"`
	Layer    int16          `toml:"layer" yaml:"layer" json:"layer"`
	Datatype int16          `toml:"datatype" yaml:"datatype" json:"datatype"`
	Params   map[string]any `toml:"params" yaml:"params" json:"params,omitempty"`
}

// OpSpec is one step of the build. Which fields apply depends on Kind.
type OpSpec struct {
	Kind string `toml:"kind" yaml:"kind" json:"kind"`

	// connect
	Anchor string `toml:"anchor" yaml:"anchor" json:"anchor,omitempty"` // id.label that stays put
	Attach string `toml:"attach" yaml:"attach" json:"attach,omitempty"` // id.label that is moved
	Offset []any  `toml:"offset" yaml:"offset" json:"offset,omitempty"`
	Align  *bool  `toml:"align" yaml:"align" json:"align,omitempty"`

	// translate, rotate, mirror, disconnect
	Target string `toml:"target" yaml:"target" json:"target,omitempty"`
	Delta  []any  `toml:"delta" yaml:"delta" json:"delta,omitempty"`
	Angle  any    `toml:"angle" yaml:"angle" json:"angle,omitempty"` // degrees
	About  string `toml:"about" yaml:"about" json:"about,omitempty"` // id.label pivot
	Pivot  []any  `toml:"pivot" yaml:"pivot" json:"pivot,omitempty"`
	P1     []any  `toml:"p1" yaml:"p1" json:"p1,omitempty"`
	P2     []any  `toml:"p2" yaml:"p2" json:"p2,omitempty"`
	Label  string `toml:"label" yaml:"label" json:"label,omitempty"`

	// heal
	Radius     any `toml:"radius" yaml:"radius" json:"radius,omitempty"`
	Resolution int `toml:"resolution" yaml:"resolution" json:"resolution,omitempty"`

	// copy, cluster, lattice, flatten
	ID             string         `toml:"id" yaml:"id" json:"id,omitempty"`
	Source         string         `toml:"source" yaml:"source" json:"source,omitempty"`
	Members        []string       `toml:"members" yaml:"members" json:"members,omitempty"`
	Endpoints      map[string]any `toml:"endpoints" yaml:"endpoints" json:"endpoints,omitempty"`
	Sizes          map[string]any `toml:"sizes" yaml:"sizes" json:"sizes,omitempty"`
	AllowConflicts bool           `toml:"allow_conflicts" yaml:"allow_conflicts" json:"allow_conflicts,omitempty"`
	Cols           int            `toml:"cols" yaml:"cols" json:"cols,omitempty"`
	Rows           int            `toml:"rows" yaml:"rows" json:"rows,omitempty"`
	Spacing        []any          `toml:"spacing" yaml:"spacing" json:"spacing,omitempty"`
	Layer          int16          `toml:"layer" yaml:"layer" json:"layer,omitempty"`
	Datatype       int16          `toml:"datatype" yaml:"datatype" json:"datatype,omitempty"`
}

// CellSpec groups structures into a GDSII cell.
type CellSpec struct {
	Name       string   `toml:"name" yaml:"name" json:"name"`
	Structures []string `toml:"structures" yaml:"structures" json:"structures"`
}

// DetectFormat infers the format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer design format from %q (use .toml, .yaml or .yml)", filepath.Base(path))
}

// Load reads and parses a design file. An empty format is inferred from the
// extension. A design without a name is named after the file.
func Load(path string, format Format) (*File, error) {
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "design file %s", path)
		}
		return nil, err
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	if f.Name == "" {
		f.Name = NameFromPath(path)
	}
	return f, nil
}

// Parse decodes a design. Unknown keys are rejected so typos do not go
// unnoticed.
func Parse(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDesign, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidDesign, "unknown key %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDesign, err, "decode yaml")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported design format %q", format)
	}
	return &f, nil
}

// Validate checks identifiers and references that can be verified without
// building: structure ids are valid and unique, kinds exist, and cells name
// declared or op-created structures.
func (f *File) Validate() error {
	ids := make(map[string]bool)
	for i, s := range f.Structures {
		if err := errors.ValidateName(s.ID); err != nil {
			return fmt.Errorf("structure #%d: %w", i, err)
		}
		if ids[s.ID] {
			return errors.New(errors.ErrCodeInvalidDesign, "duplicate structure id %q", s.ID)
		}
		ids[s.ID] = true
		if _, ok := factories[s.Kind]; !ok {
			return errors.New(errors.ErrCodeUnknownShape, "structure %q: unknown kind %q (valid: %s)", s.ID, s.Kind, strings.Join(Kinds(), ", "))
		}
	}
	for i, op := range f.Ops {
		if _, ok := opHandlers[op.Kind]; !ok {
			return &errors.OperationError{Index: i, Kind: op.Kind,
				Err: errors.New(errors.ErrCodeUnknownOperation, "unknown operation (valid: %s)", strings.Join(OpKinds(), ", "))}
		}
		if op.ID != "" {
			if err := errors.ValidateName(op.ID); err != nil {
				return &errors.OperationError{Index: i, Kind: op.Kind, Err: err}
			}
			if ids[op.ID] {
				return &errors.OperationError{Index: i, Kind: op.Kind,
					Err: errors.New(errors.ErrCodeInvalidDesign, "id %q already in use", op.ID)}
			}
			ids[op.ID] = true
		}
	}
	cells := make(map[string]bool)
	for _, c := range f.Cells {
		if err := errors.ValidateName(c.Name); err != nil {
			return fmt.Errorf("cell: %w", err)
		}
		if cells[c.Name] {
			return errors.New(errors.ErrCodeInvalidDesign, "duplicate cell %q", c.Name)
		}
		cells[c.Name] = true
	}
	if f.Unit < 0 || f.Precision < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "unit and precision must be positive")
	}
	return nil
}

// NameFromPath derives a library name from a design file name.
func NameFromPath(path string) string {
	return sanitizeName(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

// sanitizeName maps a file name to a valid library name.
func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "design"
	}
	name := b.String()
	if len(name) > errors.MaxNameLength {
		name = name[:errors.MaxNameLength]
	}
	return name
}
