package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/matzehuels/familytree/pkg/pipeline"
)

// Config is the optional TOML configuration file. Values apply only where
// the matching command-line flag was not given.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// LayoutConfig holds solver spacing.
type LayoutConfig struct {
	NodeDistance float64 `toml:"node_distance"`
	SpouseGap    float64 `toml:"spouse_gap"`
	VerticalGap  float64 `toml:"vertical_gap"`
}

// RenderConfig holds surface and export defaults.
type RenderConfig struct {
	View      string   `toml:"view"`
	Formats   []string `toml:"formats"`
	Width     float64  `toml:"width"`
	Height    float64  `toml:"height"`
	Scale     float64  `toml:"scale"`
	Avatars   bool     `toml:"avatars"`
	AvatarDir string   `toml:"avatar_dir"`
	Remote    bool     `toml:"remote"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Disabled bool   `toml:"disabled"`
	Dir      string `toml:"dir"`
	Redis    string `toml:"redis"` // host:port; overrides Dir
}

// ServerConfig holds defaults for the serve command.
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	Trees       string   `toml:"trees"`
	CORSOrigins []string `toml:"cors_origins"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", Trees: "."},
	}
}

// loadConfig reads path, or the default location when path is empty. A
// missing default file is not an error; a missing explicit file is.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("parse config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// apply copies configured values into opts for every flag that was not set
// on the command line.
func (cfg Config) apply(flags *pflag.FlagSet, opts *pipeline.Options) {
	unset := func(name string) bool {
		f := flags.Lookup(name)
		return f == nil || !f.Changed
	}
	setFloat := func(name string, dst *float64, v float64) {
		if v != 0 && unset(name) {
			*dst = v
		}
	}
	setFloat("node-distance", &opts.NodeDistance, cfg.Layout.NodeDistance)
	setFloat("spouse-gap", &opts.SpouseGap, cfg.Layout.SpouseGap)
	setFloat("vertical-gap", &opts.VerticalGap, cfg.Layout.VerticalGap)
	setFloat("width", &opts.Width, cfg.Render.Width)
	setFloat("height", &opts.Height, cfg.Render.Height)
	setFloat("scale", &opts.Scale, cfg.Render.Scale)

	if cfg.Render.View != "" && unset("type") {
		opts.View = cfg.Render.View
	}
	if len(cfg.Render.Formats) > 0 && unset("format") {
		opts.Formats = cfg.Render.Formats
	}
	if cfg.Render.Avatars && unset("avatars") {
		opts.Avatars = true
	}
	if cfg.Render.AvatarDir != "" && unset("avatar-dir") {
		opts.AvatarDir = cfg.Render.AvatarDir
	}
	if cfg.Render.Remote && unset("remote") {
		opts.Remote = true
	}
}
