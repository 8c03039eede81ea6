// Package config loads gbmc settings from defaults, an optional config.yaml and the environment,
// in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/bcdannyboy/gbmc/analysis"
	"github.com/bcdannyboy/gbmc/logger"
	"github.com/bcdannyboy/gbmc/models"
	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/cpu"
	"gopkg.in/yaml.v2"
)

const DefaultPath = "config.yaml"

type SimulationConfig struct {
	InitialPrice float64 `yaml:"initial_price"`
	// Drift defaults to the risk-free rate when unset.
	Drift        *float64 `yaml:"drift"`
	Volatility   float64  `yaml:"volatility"`
	HorizonYears float64  `yaml:"horizon_years"`
	Steps        int      `yaml:"steps"`
	Paths        int      `yaml:"paths"`
	RiskFreeRate float64  `yaml:"risk_free_rate"`
	Seed         *uint64  `yaml:"seed"`
}

type ContractConfig struct {
	Strike        float64 `yaml:"strike"`
	MaturityYears float64 `yaml:"maturity_years"`
}

type ConvergenceConfig struct {
	PathCounts []int  `yaml:"path_counts"`
	SeedPolicy string `yaml:"seed_policy"`
}

type SensitivityConfig struct {
	VolMin       float64 `yaml:"vol_min"`
	VolMax       float64 `yaml:"vol_max"`
	VolPoints    int     `yaml:"vol_points"`
	StrikeMin    float64 `yaml:"strike_min"`
	StrikeMax    float64 `yaml:"strike_max"`
	StrikePoints int     `yaml:"strike_points"`
	Paths        int     `yaml:"paths"`
	SeedPolicy   string  `yaml:"seed_policy"`
	SeedsPerCell int     `yaml:"seeds_per_cell"`
	Method       string  `yaml:"method"`
	BestEffort   bool    `yaml:"best_effort"`
}

type TradierConfig struct {
	Token    string `yaml:"token"`
	BaseURL  string `yaml:"base_url"`
	Ticker   string `yaml:"ticker"`
	Period   string `yaml:"period"`
	Interval string `yaml:"interval"`
}

type SlackConfig struct {
	AppToken string `yaml:"app_token"`
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// MaxPaths caps path_count on every request.
	MaxPaths int `yaml:"max_paths"`
	MaxSteps int `yaml:"max_steps"`
	// MaxPoints caps paths·(steps+1) for one simulation.
	MaxPoints       int `yaml:"max_points"`
	MaxSeedsPerCell int `yaml:"max_seeds_per_cell"`
	// SnapshotPaths caps the number of trajectories returned by /v1/paths.
	SnapshotPaths int `yaml:"snapshot_paths"`
}

type Config struct {
	Simulation  SimulationConfig  `yaml:"simulation"`
	Contract    ContractConfig    `yaml:"contract"`
	Convergence ConvergenceConfig `yaml:"convergence"`
	Sensitivity SensitivityConfig `yaml:"sensitivity"`
	Workers     int               `yaml:"workers"`
	OutputDir   string            `yaml:"output_dir"`
	Logging     logger.Config     `yaml:"logging"`
	Tradier     TradierConfig     `yaml:"tradier"`
	Slack       SlackConfig       `yaml:"slack"`
	Server      ServerConfig      `yaml:"server"`
}

func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			InitialPrice: 100,
			Volatility:   0.2,
			HorizonYears: 1,
			Steps:        252,
			Paths:        10000,
			RiskFreeRate: 0.05,
		},
		Contract: ContractConfig{
			Strike:        100,
			MaturityYears: 1,
		},
		Convergence: ConvergenceConfig{
			PathCounts: []int{1000, 5000, 10000, 50000, 100000},
			SeedPolicy: string(analysis.SeedShared),
		},
		Sensitivity: SensitivityConfig{
			VolMin:       0.1,
			VolMax:       0.5,
			VolPoints:    20,
			StrikeMin:    90,
			StrikeMax:    110,
			StrikePoints: 20,
			Paths:        5000,
			SeedPolicy:   string(analysis.SeedShared),
			SeedsPerCell: 1,
			Method:       string(models.MethodMonteCarlo),
		},
		Workers:   DefaultWorkers(),
		OutputDir: "output",
		Logging:   logger.DefaultConfig(),
		Tradier: TradierConfig{
			BaseURL:  "https://api.tradier.com",
			Ticker:   "TSLA",
			Period:   "1y",
			Interval: "daily",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxPaths:        1000000,
			MaxSteps:        2520,
			MaxPoints:       50000000,
			MaxSeedsPerCell: 16,
			SnapshotPaths:   100,
		},
	}
}

// Load reads .env, then the YAML file at path (GBMC_CONFIG or config.yaml when path is empty),
// then environment overrides. Missing files are skipped; malformed ones are errors.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = getEnv("GBMC_CONFIG", DefaultPath)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	s := &c.Simulation
	s.InitialPrice = getEnvFloat("GBMC_S0", s.InitialPrice)
	s.Volatility = getEnvFloat("GBMC_VOLATILITY", s.Volatility)
	s.HorizonYears = getEnvFloat("GBMC_HORIZON", s.HorizonYears)
	s.Steps = getEnvInt("GBMC_STEPS", s.Steps)
	s.Paths = getEnvInt("GBMC_PATHS", s.Paths)
	s.RiskFreeRate = getEnvFloat("GBMC_RISK_FREE_RATE", s.RiskFreeRate)
	if v, ok := os.LookupEnv("GBMC_DRIFT"); ok && v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GBMC_DRIFT: %w", err)
		}
		s.Drift = &d
	}
	if v, ok := os.LookupEnv("GBMC_SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("GBMC_SEED: %w", err)
		}
		s.Seed = &seed
	}

	c.Contract.Strike = getEnvFloat("GBMC_STRIKE", c.Contract.Strike)
	c.Contract.MaturityYears = getEnvFloat("GBMC_MATURITY", c.Contract.MaturityYears)

	c.Convergence.PathCounts = getEnvIntSlice("GBMC_PATH_COUNTS", c.Convergence.PathCounts)
	c.Convergence.SeedPolicy = getEnv("GBMC_SEED_POLICY", c.Convergence.SeedPolicy)
	c.Sensitivity.SeedPolicy = getEnv("GBMC_SEED_POLICY", c.Sensitivity.SeedPolicy)
	c.Sensitivity.Method = getEnv("GBMC_METHOD", c.Sensitivity.Method)
	c.Sensitivity.SeedsPerCell = getEnvInt("GBMC_SEEDS_PER_CELL", c.Sensitivity.SeedsPerCell)
	c.Sensitivity.BestEffort = getEnvBool("GBMC_BEST_EFFORT", c.Sensitivity.BestEffort)

	c.Workers = getEnvInt("GBMC_WORKERS", c.Workers)
	c.OutputDir = getEnv("GBMC_OUTPUT_DIR", c.OutputDir)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
	c.Logging.Output = getEnv("LOG_OUTPUT", c.Logging.Output)
	c.Logging.FilePath = getEnv("LOG_FILE", c.Logging.FilePath)

	c.Tradier.Token = getEnv("TRADIER_KEY", c.Tradier.Token)
	c.Tradier.BaseURL = getEnv("TRADIER_BASE_URL", c.Tradier.BaseURL)

	c.Slack.AppToken = getEnv("SLACK_APP_TOKEN", c.Slack.AppToken)
	c.Slack.BotToken = getEnv("SLACK_BOT_TOKEN", c.Slack.BotToken)
	c.Slack.Debug = getEnvBool("SLACK_DEBUG", c.Slack.Debug)

	c.Server.Addr = getEnv("GBMC_ADDR", c.Server.Addr)
	c.Server.MaxPaths = getEnvInt("GBMC_MAX_PATHS", c.Server.MaxPaths)
	c.Server.MaxSteps = getEnvInt("GBMC_MAX_STEPS", c.Server.MaxSteps)
	return nil
}

// SimulationParameters builds validated parameters from the simulation section.
func (c *Config) SimulationParameters() (models.SimulationParameters, error) {
	s := c.Simulation
	drift := s.RiskFreeRate
	if s.Drift != nil {
		drift = *s.Drift
	}
	p := models.NewSimulationParameters(s.InitialPrice, drift, s.Volatility, s.HorizonYears, s.Steps, s.Paths, s.RiskFreeRate)
	if s.Seed != nil {
		p = p.WithSeed(*s.Seed)
	}
	if err := p.Validate(); err != nil {
		return models.SimulationParameters{}, err
	}
	return p, nil
}

func (c *Config) OptionContract() (models.OptionContract, error) {
	k := models.NewCallContract(c.Contract.Strike, c.Contract.MaturityYears)
	if err := k.Validate(); err != nil {
		return models.OptionContract{}, err
	}
	return k, nil
}

// ConvergenceAnalyzer builds an analyzer from the convergence section and worker count.
func (c *Config) ConvergenceAnalyzer() (*analysis.ConvergenceAnalyzer, error) {
	policy, err := analysis.ParseSeedPolicy(c.Convergence.SeedPolicy)
	if err != nil {
		return nil, err
	}
	a := analysis.NewConvergenceAnalyzer()
	a.SeedPolicy = policy
	a.Workers = c.Workers
	return a, nil
}

func (c *Config) SensitivityAnalyzer() (*analysis.SensitivityAnalyzer, error) {
	policy, err := analysis.ParseSeedPolicy(c.Sensitivity.SeedPolicy)
	if err != nil {
		return nil, err
	}
	method, err := models.ParseMethod(c.Sensitivity.Method)
	if err != nil {
		return nil, err
	}
	a := analysis.NewSensitivityAnalyzer()
	a.Method = method
	a.SeedPolicy = policy
	a.SeedsPerCell = c.Sensitivity.SeedsPerCell
	a.Workers = c.Workers
	a.BestEffort = c.Sensitivity.BestEffort
	return a, nil
}

// Axes returns the volatility and strike axes of the sensitivity section.
func (c *Config) Axes() ([]float64, []float64, error) {
	s := c.Sensitivity
	vols, err := analysis.Axis(s.VolMin, s.VolMax, s.VolPoints)
	if err != nil {
		return nil, nil, fmt.Errorf("volatility axis: %w", err)
	}
	strikes, err := analysis.Axis(s.StrikeMin, s.StrikeMax, s.StrikePoints)
	if err != nil {
		return nil, nil, fmt.Errorf("strike axis: %w", err)
	}
	return vols, strikes, nil
}

// DefaultWorkers is the number of logical CPUs, falling back to GOMAXPROCS.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvIntSlice(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, field := range strings.Split(value, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return defaultValue
		}
		out = append(out, i)
	}
	return out
}
