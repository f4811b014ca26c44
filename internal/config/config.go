// Package config holds CLI-derived run configuration, defaulted via
// creasty/defaults and validated via go-playground/validator (SPEC_FULL.md
// §1.1 ambient stack).
package config

import (
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Config is the fully resolved set of knobs the CLI front end passes into
// the pipeline (SPEC_FULL.md §6.1).
type Config struct {
	File      string `validate:"required"`
	OutputDir string `default:"." validate:"required"`
	Verbose   bool
}

var validate = validator.New()

// New applies defaults and validates file/outputDir, returning a ready
// Config.
func New(file, outputDir string, verbose bool) (*Config, error) {
	c := &Config{File: file, OutputDir: outputDir, Verbose: verbose}
	if err := defaults.Set(c); err != nil {
		return nil, err
	}
	if err := validate.Struct(c); err != nil {
		return nil, err
	}
	return c, nil
}
