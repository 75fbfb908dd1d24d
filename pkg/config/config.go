// Package config loads Linkboard settings: the node-type catalog, the
// editor defaults and the HTTP host settings.
//
// A configuration file is optional. [Load] reads TOML, YAML or JSON,
// chosen by file extension, overlays it on [Default], and validates the
// result. A file that declares node_types replaces the built-in catalog
// entirely; link_fields likewise replaces the built-in link schema.
//
//	[editor]
//	node_type = "Task"
//	coalesce_window = "300ms"
//
//	[[node_types]]
//	name = "Task"
//	radius = 24
//	  [[node_types.fields]]
//	  name = "label"
//	  kind = "string"
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/linkboard/pkg/canvas"
	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/graph"
	"github.com/matzehuels/linkboard/pkg/schema"
	"github.com/matzehuels/linkboard/pkg/session"
)

// Config is the complete configuration.
type Config struct {
	Editor     Editor         `toml:"editor" yaml:"editor" json:"editor"`
	Server     Server         `toml:"server" yaml:"server" json:"server"`
	NodeTypes  []NodeTypeSpec `toml:"node_types" yaml:"node_types" json:"node_types" validate:"dive"`
	LinkFields []FieldSpec    `toml:"link_fields" yaml:"link_fields" json:"link_fields" validate:"dive"`

	// Source is the file the configuration was read from, empty for
	// built-in defaults.
	Source string `toml:"-" yaml:"-" json:"-"`
}

// Editor holds the interactive editing settings.
type Editor struct {
	// NodeType is created by the node tool. Empty selects the first
	// declared type.
	NodeType       string   `toml:"node_type" yaml:"node_type" json:"node_type"`
	CoalesceWindow Duration `toml:"coalesce_window" yaml:"coalesce_window" json:"coalesce_window"`
	ViewportWidth  float64  `toml:"viewport_width" yaml:"viewport_width" json:"viewport_width" validate:"gt=0"`
	ViewportHeight float64  `toml:"viewport_height" yaml:"viewport_height" json:"viewport_height" validate:"gt=0"`
	DecodeMode     string   `toml:"decode_mode" yaml:"decode_mode" json:"decode_mode" validate:"omitempty,oneof=lenient strict"`
}

// Server holds the HTTP host settings.
type Server struct {
	Addr            string   `toml:"addr" yaml:"addr" json:"addr" validate:"required"`
	SessionTTL      Duration `toml:"session_ttl" yaml:"session_ttl" json:"session_ttl"`
	CleanupInterval Duration `toml:"cleanup_interval" yaml:"cleanup_interval" json:"cleanup_interval"`
	// StateDir keeps snapshots of evicted sessions. Empty disables
	// persistence.
	StateDir string `toml:"state_dir" yaml:"state_dir" json:"state_dir"`
}

// Duration is a time.Duration written as a Go duration string ("300ms").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cat := graph.DefaultCatalog()
	var types []NodeTypeSpec
	for _, t := range cat.Types() {
		types = append(types, NodeTypeSpec{Name: t.Name, Radius: t.Radius, Fields: FieldsFromSchema(t.Schema)})
	}
	return &Config{
		Editor: Editor{
			CoalesceWindow: Duration{session.DefaultCoalesceWindow},
			ViewportWidth:  canvas.DefaultViewportWidth,
			ViewportHeight: canvas.DefaultViewportHeight,
			DecodeMode:     schema.Lenient.String(),
		},
		Server: Server{
			Addr:            ":8080",
			SessionTTL:      Duration{session.DefaultTTL},
			CleanupInterval: Duration{time.Minute},
		},
		NodeTypes:  types,
		LinkFields: FieldsFromSchema(cat.LinkSchema),
	}
}

var validate = validator.New()

// Validate checks field constraints and that the catalog can be built.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, formatValidationError(err), "invalid configuration")
	}
	cat, err := c.Catalog()
	if err != nil {
		return err
	}
	if c.Editor.NodeType != "" {
		if _, ok := cat.Type(c.Editor.NodeType); !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "editor.node_type %q is not a declared node type", c.Editor.NodeType)
		}
	}
	if _, err := schema.ParseMode(c.Editor.DecodeMode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "editor.decode_mode")
	}
	return nil
}

// formatValidationError joins validator field errors into one message.
func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "Config.")
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "gt", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", field, e.Tag(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// Catalog builds the node-type catalog.
func (c *Config) Catalog() (*graph.Catalog, error) {
	if len(c.NodeTypes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "at least one node type is required")
	}
	types := make([]graph.NodeType, 0, len(c.NodeTypes))
	for _, spec := range c.NodeTypes {
		s, err := StructSchema(spec.Fields)
		if err != nil {
			return nil, fmt.Errorf("node type %q: %w", spec.Name, err)
		}
		types = append(types, graph.NodeType{Name: spec.Name, Radius: spec.Radius, Schema: s})
	}
	var linkSchema *schema.Schema
	if len(c.LinkFields) > 0 {
		s, err := StructSchema(c.LinkFields)
		if err != nil {
			return nil, fmt.Errorf("link fields: %w", err)
		}
		linkSchema = s
	}
	return graph.NewCatalog(linkSchema, types...)
}

// Session returns the session settings derived from the editor section.
func (c *Config) Session(logger *log.Logger) (session.Config, error) {
	cat, err := c.Catalog()
	if err != nil {
		return session.Config{}, err
	}
	mode, err := schema.ParseMode(c.Editor.DecodeMode)
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{
		Catalog:        cat,
		NodeType:       c.Editor.NodeType,
		CoalesceWindow: c.Editor.CoalesceWindow.Duration,
		Viewport: canvas.Viewport{
			Width:  c.Editor.ViewportWidth,
			Height: c.Editor.ViewportHeight,
		},
		DecodeMode: mode,
		TTL:        c.Server.SessionTTL.Duration,
		Logger:     logger,
	}, nil
}
