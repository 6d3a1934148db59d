package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store StoreConfig `yaml:"store" mapstructure:"store"`
	Paths PathConfig  `yaml:"paths" mapstructure:"paths"`
	Match MatchConfig `yaml:"match" mapstructure:"match"`
	Log   LogConfig   `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PathConfig points at the staged source extracts and the output directory.
// The staged files are produced by the upstream download jobs; this tool
// never fetches from the federal endpoints itself.
type PathConfig struct {
	SDWISWaterSystems  string `yaml:"sdwis_water_systems" mapstructure:"sdwis_water_systems"`
	SDWISGeoAreas      string `yaml:"sdwis_geo_areas" mapstructure:"sdwis_geo_areas"`
	SDWISServiceAreas  string `yaml:"sdwis_service_areas" mapstructure:"sdwis_service_areas"`
	ECHOFacilities     string `yaml:"echo_facilities" mapstructure:"echo_facilities"`
	FRSFacilities      string `yaml:"frs_facilities" mapstructure:"frs_facilities"`
	UCMRCentroids      string `yaml:"ucmr_centroids" mapstructure:"ucmr_centroids"`
	TIGERPlaces        string `yaml:"tiger_places" mapstructure:"tiger_places"`
	MHPParks           string `yaml:"mhp_parks" mapstructure:"mhp_parks"`
	LabeledBoundaries  string `yaml:"labeled_boundaries" mapstructure:"labeled_boundaries"`
	Contributed        string `yaml:"contributed_boundaries" mapstructure:"contributed_boundaries"`
	TierThreeModeled   string `yaml:"tier3_modeled" mapstructure:"tier3_modeled"`
	StateBoundaries    string `yaml:"state_boundaries" mapstructure:"state_boundaries"`
	Lexicon            string `yaml:"lexicon" mapstructure:"lexicon"`
	OutputDir          string `yaml:"output_dir" mapstructure:"output_dir"`
}

// MatchConfig tunes matching, scoring, and resolution.
type MatchConfig struct {
	ProximityBufferMeters   float64  `yaml:"proximity_buffer_meters" mapstructure:"proximity_buffer_meters"`
	ImpostorThresholdMeters float64  `yaml:"impostor_threshold_meters" mapstructure:"impostor_threshold_meters"`
	ResolverPolicy          []string `yaml:"resolver_policy" mapstructure:"resolver_policy"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("boundary")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BOUNDARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "boundary.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("match.proximity_buffer_meters", 1000.0)
	v.SetDefault("match.impostor_threshold_meters", 50000.0)
	v.SetDefault("match.resolver_policy", []string{"name_match", "rule_rank", "pop_diff"})
	v.SetDefault("paths.output_dir", "output")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
