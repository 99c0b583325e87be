package game

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// TerrainConfig controls heightfield generation and the height-query policy.
type TerrainConfig struct {
	Size      float64 `json:"size" mapstructure:"size"`
	Segments  int     `json:"segments" mapstructure:"segments"`
	Seed      int64   `json:"seed" mapstructure:"seed"`
	QueryMode string  `json:"queryMode" mapstructure:"queryMode"` // "nearest" or "bilinear"
}

// PhysicsConfig holds the integration coefficients.
type PhysicsConfig struct {
	Gravity       float64 `json:"gravity" mapstructure:"gravity"`
	FallDamping   float64 `json:"fallDamping" mapstructure:"fallDamping"`
	HullClearance float64 `json:"hullClearance" mapstructure:"hullClearance"`
	SpawnHeight   float64 `json:"spawnHeight" mapstructure:"spawnHeight"`
	TiltBlend     float64 `json:"tiltBlend" mapstructure:"tiltBlend"`
}

// VehicleConfig holds per-vehicle tuning shared by players and AI.
type VehicleConfig struct {
	Radius       float64 `json:"radius" mapstructure:"radius"`
	MaxHealth    int     `json:"maxHealth" mapstructure:"maxHealth"`
	MaxFuel      float64 `json:"maxFuel" mapstructure:"maxFuel"`
	MinPower     float64 `json:"minPower" mapstructure:"minPower"`
	MaxPower     float64 `json:"maxPower" mapstructure:"maxPower"`
	MinSpeed     float64 `json:"minSpeed" mapstructure:"minSpeed"`
	MaxSpeed     float64 `json:"maxSpeed" mapstructure:"maxSpeed"`
	ElevationMin float64 `json:"elevationMin" mapstructure:"elevationMin"`
	ElevationMax float64 `json:"elevationMax" mapstructure:"elevationMax"`
}

// FuelConfig keeps the turn-economy coefficients configurable. Setting both to
// zero makes movement free and the fuel gauge cosmetic.
type FuelConfig struct {
	MovePerUnit     float64 `json:"movePerUnit" mapstructure:"movePerUnit"`
	RotatePerRadian float64 `json:"rotatePerRadian" mapstructure:"rotatePerRadian"`
}

// ProjectileConfig holds shell flight and impact tuning.
type ProjectileConfig struct {
	MaxLifetime float64 `json:"maxLifetime" mapstructure:"maxLifetime"` // seconds
	BlastRadius float64 `json:"blastRadius" mapstructure:"blastRadius"`
	BlastDepth  float64 `json:"blastDepth" mapstructure:"blastDepth"`
	BlastDamage int     `json:"blastDamage" mapstructure:"blastDamage"`
	Ceiling     float64 `json:"ceiling" mapstructure:"ceiling"`
}

// Config is the complete match tuning set.
type Config struct {
	Terrain    TerrainConfig    `json:"terrain" mapstructure:"terrain"`
	Physics    PhysicsConfig    `json:"physics" mapstructure:"physics"`
	Vehicle    VehicleConfig    `json:"vehicle" mapstructure:"vehicle"`
	Fuel       FuelConfig       `json:"fuel" mapstructure:"fuel"`
	Projectile ProjectileConfig `json:"projectile" mapstructure:"projectile"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("terrain.size", 256.0)
	v.SetDefault("terrain.segments", 128)
	v.SetDefault("terrain.seed", 1337)
	v.SetDefault("terrain.queryMode", "nearest")

	v.SetDefault("physics.gravity", 9.8)
	v.SetDefault("physics.fallDamping", 0.55)
	v.SetDefault("physics.hullClearance", 0.45)
	v.SetDefault("physics.spawnHeight", 12.0)
	v.SetDefault("physics.tiltBlend", 0.15)

	v.SetDefault("vehicle.radius", 1.1)
	v.SetDefault("vehicle.maxHealth", 100)
	v.SetDefault("vehicle.maxFuel", 100.0)
	v.SetDefault("vehicle.minPower", 5.0)
	v.SetDefault("vehicle.maxPower", 100.0)
	v.SetDefault("vehicle.minSpeed", 15.0)
	v.SetDefault("vehicle.maxSpeed", 100.0)
	v.SetDefault("vehicle.elevationMin", -0.10)
	v.SetDefault("vehicle.elevationMax", 1.20)

	v.SetDefault("fuel.movePerUnit", 1.0)
	v.SetDefault("fuel.rotatePerRadian", 0.0)

	v.SetDefault("projectile.maxLifetime", 30.0)
	v.SetDefault("projectile.blastRadius", 5.0)
	v.SetDefault("projectile.blastDepth", 2.0)
	v.SetDefault("projectile.blastDamage", 35)
	v.SetDefault("projectile.ceiling", 400.0)
}

// LoadConfig reads armor-duel.cfg.json from configDir on top of the built-in
// defaults. A missing file is not an error; the defaults are a playable match.
func LoadConfig(configDir string) *Config {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("armor-duel.cfg")
	v.SetConfigType("json")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		log.Debug("No tuning config found, using defaults", "dir", configDir, "error", err)
	} else {
		log.Info("Loaded tuning config", "file", v.ConfigFileUsed())
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		log.Warn("Invalid tuning config, falling back to defaults", "error", err)
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns the built-in tuning without touching the filesystem.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		// Defaults are static; this only fires if a default key is mistyped.
		log.Fatal("Built-in defaults failed to unmarshal", "error", err)
	}
	return cfg
}
