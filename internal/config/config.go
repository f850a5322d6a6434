package config

import (
	"errors"
	"path/filepath"
	"sort"

	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Region             string        `toml:"region"`
	Profile            string        `toml:"profile"`
	Toolsets           []string      `toml:"toolsets"`
	ReadOnly           bool          `toml:"read_only"`
	DisableDestructive bool          `toml:"disable_destructive"`
	LogLevel           string        `toml:"log_level"`
	Safety             SafetyConfig  `toml:"safety"`
	Clusters           []Cluster     `toml:"clusters"`
	Query              QueryConfig   `toml:"query"`
	Timeouts           TimeoutConfig `toml:"timeouts"`
	Cache              CacheConfig   `toml:"cache"`
}

// Cluster names an Aurora DSQL cluster the server may connect to.
type Cluster struct {
	Name     string `toml:"name"`
	Endpoint string `toml:"endpoint"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Region   string `toml:"region"`
}

type SafetyConfig struct {
	AllowDestructiveTools []string `toml:"allow_destructive_tools"`
	// RejectInjectionRisk makes any injection finding a hard rejection
	// instead of a diagnostic. Defaults on.
	RejectInjectionRisk *bool `toml:"reject_injection_risk"`
}

type QueryConfig struct {
	MaxRows            int `toml:"max_rows"`
	MaxStatementLength int `toml:"max_statement_length"`
	MaxCellLength      int `toml:"max_cell_length"`
}

type TimeoutConfig struct {
	DefaultSeconds int            `toml:"default_seconds"`
	MaxSeconds     int            `toml:"max_seconds"`
	PerTool        map[string]int `toml:"per_tool"`
}

type CacheConfig struct {
	SchemaTTLSeconds  int `toml:"schema_ttl_seconds"`
	AWSListTTLSeconds int `toml:"aws_list_ttl_seconds"`
}

type Overrides struct {
	Region             *string
	Profile            *string
	Toolsets           *[]string
	ReadOnly           *bool
	DisableDestructive *bool
	LogLevel           *string
}

func DefaultConfig() Config {
	return Config{
		Toolsets: []string{"dsql", "dynamodb"},
		LogLevel: "info",
		Query: QueryConfig{
			MaxRows:            500,
			MaxStatementLength: 100_000,
			MaxCellLength:      4096,
		},
		Timeouts: TimeoutConfig{
			DefaultSeconds: 30,
			MaxSeconds:     120,
		},
		Cache: CacheConfig{
			SchemaTTLSeconds:  60,
			AWSListTTLSeconds: 30,
		},
	}
}

// RejectOnInjectionRisk reports whether injection findings reject a query.
func (c Config) RejectOnInjectionRisk() bool {
	if c.Safety.RejectInjectionRisk == nil {
		return true
	}
	return *c.Safety.RejectInjectionRisk
}

// ClusterByName finds a configured cluster, or the sole configured cluster
// when name is empty.
func (c Config) ClusterByName(name string) (Cluster, bool) {
	if name == "" && len(c.Clusters) == 1 {
		return c.Clusters[0], true
	}
	for _, cluster := range c.Clusters {
		if cluster.Name == name {
			return cluster, true
		}
	}
	return Cluster{}, false
}

func Load(path string, dir string, overrides Overrides) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			return cfg, err
		}
		merge(&cfg, fileCfg)
	}

	if dir != "" {
		files, err := dropInFiles(dir)
		if err != nil {
			return cfg, err
		}
		for _, file := range files {
			fileCfg, err := readFile(file)
			if err != nil {
				return cfg, err
			}
			merge(&cfg, fileCfg)
		}
	}

	applyOverrides(&cfg, overrides)
	return cfg, nil
}

func readFile(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err != nil {
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func dropInFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func merge(dst *Config, src Config) {
	if src.Region != "" {
		dst.Region = src.Region
	}
	if src.Profile != "" {
		dst.Profile = src.Profile
	}
	if len(src.Toolsets) > 0 {
		dst.Toolsets = append([]string{}, src.Toolsets...)
	}
	if src.ReadOnly {
		dst.ReadOnly = src.ReadOnly
	}
	if src.DisableDestructive {
		dst.DisableDestructive = src.DisableDestructive
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if len(src.Safety.AllowDestructiveTools) > 0 {
		dst.Safety.AllowDestructiveTools = append([]string{}, src.Safety.AllowDestructiveTools...)
	}
	if src.Safety.RejectInjectionRisk != nil {
		dst.Safety.RejectInjectionRisk = src.Safety.RejectInjectionRisk
	}
	if len(src.Clusters) > 0 {
		dst.Clusters = append([]Cluster{}, src.Clusters...)
	}
	if src.Query.MaxRows > 0 {
		dst.Query.MaxRows = src.Query.MaxRows
	}
	if src.Query.MaxStatementLength > 0 {
		dst.Query.MaxStatementLength = src.Query.MaxStatementLength
	}
	if src.Query.MaxCellLength > 0 {
		dst.Query.MaxCellLength = src.Query.MaxCellLength
	}
	if src.Timeouts.DefaultSeconds > 0 {
		dst.Timeouts.DefaultSeconds = src.Timeouts.DefaultSeconds
	}
	if src.Timeouts.MaxSeconds > 0 {
		dst.Timeouts.MaxSeconds = src.Timeouts.MaxSeconds
	}
	if len(src.Timeouts.PerTool) > 0 {
		if dst.Timeouts.PerTool == nil {
			dst.Timeouts.PerTool = map[string]int{}
		}
		for tool, seconds := range src.Timeouts.PerTool {
			dst.Timeouts.PerTool[tool] = seconds
		}
	}
	if src.Cache.SchemaTTLSeconds > 0 {
		dst.Cache.SchemaTTLSeconds = src.Cache.SchemaTTLSeconds
	}
	if src.Cache.AWSListTTLSeconds > 0 {
		dst.Cache.AWSListTTLSeconds = src.Cache.AWSListTTLSeconds
	}
}

func applyOverrides(cfg *Config, overrides Overrides) {
	if overrides.Region != nil {
		cfg.Region = *overrides.Region
	}
	if overrides.Profile != nil {
		cfg.Profile = *overrides.Profile
	}
	if overrides.Toolsets != nil {
		cfg.Toolsets = append([]string{}, (*overrides.Toolsets)...)
	}
	if overrides.ReadOnly != nil {
		cfg.ReadOnly = *overrides.ReadOnly
	}
	if overrides.DisableDestructive != nil {
		cfg.DisableDestructive = *overrides.DisableDestructive
	}
	if overrides.LogLevel != nil {
		cfg.LogLevel = *overrides.LogLevel
	}
}
