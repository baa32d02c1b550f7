// Package config reads the settings for the nmrxlate program from a
// YAML file. Everything has a default, so no file is needed.
//
// The file is looked for in this order:
//  1. $NMRXLATE_CONFIG
//  2. ./nmrxlate.yaml
//  3. ~/.config/nmrxlate/config.yaml
package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/andrew-torda/nmr_xlate/dict"
	"github.com/andrew-torda/nmr_xlate/gotoh"
	"github.com/andrew-torda/nmr_xlate/seqalign"
	"github.com/andrew-torda/nmr_xlate/xlate"
)

const (
	// EnvConfigPath names a config file explicitly
	EnvConfigPath = "NMRXLATE_CONFIG"
	// ConfigFileName is looked for in the working directory
	ConfigFileName = "nmrxlate.yaml"
	// ConfigDirName is the directory under ~/.config
	ConfigDirName = "nmrxlate"
)

// CCDConfig says where residue definitions come from. Store is an
// sqlite file made by "nmrxlate ccdload", Components a components.cif
// read into memory. Store wins if both are given.
type CCDConfig struct {
	Store      string `yaml:"store"`
	Components string `yaml:"components"`
}

// AlignConfig has the gap penalties for sequence alignment.
type AlignConfig struct {
	GapOpen  float32 `yaml:"gap_open"`
	GapWiden float32 `yaml:"gap_widen"`
}

// Config is the whole file.
type Config struct {
	Dict      dict.Paths          `yaml:"dict"`
	CCD       CCDConfig           `yaml:"ccd"`
	Log       string              `yaml:"log"` // "", stdout, stderr or a file name
	Align     AlignConfig         `yaml:"align"`
	MaxExpand int                 `yaml:"max_expand"`
	Aliases   map[string][]string `yaml:"aliases"`
}

// Load finds the config file, or gives defaults if there is none.
// The path is empty if no file was read.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath reads one file.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, path, nil
}

// DefaultConfig is what you get with no file.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Align.GapOpen == 0 && c.Align.GapWiden == 0 {
		c.Align.GapOpen = seqalign.DefaultPnlty.Open
		c.Align.GapWiden = seqalign.DefaultPnlty.Wdn
	}
	if c.MaxExpand <= 0 {
		c.MaxExpand = xlate.DefaultMaxExpand
	}
	if c.Aliases == nil {
		c.Aliases = map[string][]string{"HIS": {"HSD", "HSE", "HSP", "HID", "HIE", "HIP"}}
	}
}

// Pnlty gives the gap penalties the way the aligner wants them.
func (c *Config) Pnlty() gotoh.Pnlty {
	return gotoh.Pnlty{Open: c.Align.GapOpen, Wdn: c.Align.GapWiden}
}

// FindConfigPath gives the first config file that exists, or "".
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" && fileExists(path) {
		return path
	}
	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}
	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Logger makes the logger the Log setting asks for. A file is appended
// to. The returned closer must be called when done.
func (c *Config) Logger() (*log.Logger, io.Closer, error) {
	const flags = log.Ltime | log.Lshortfile
	switch c.Log {
	case "":
		return log.New(io.Discard, "", 0), nopCloser{}, nil
	case "stdout":
		return log.New(os.Stdout, "", flags), nopCloser{}, nil
	case "stderr":
		return log.New(os.Stderr, "", flags), nopCloser{}, nil
	}
	f, err := os.OpenFile(c.Log, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("log file: %w", err)
	}
	return log.New(f, "", flags), f, nil
}
