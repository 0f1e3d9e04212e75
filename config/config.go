package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Tally policies for clan war attribution
const (
	WarTallyNetValue    = "net_value"
	WarTallyAttackCount = "attack_count"
)

// Tie-break policies for clan war attribution
const (
	WarTieBreakDraw     = "draw"
	WarTieBreakDeclarer = "declarer"
	WarTieBreakDefender = "defender"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Cache and messaging
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	NATSServers   string // NATS server addresses (comma-separated), empty disables notifications

	// Metrics
	MetricsAddr string

	// Onboarding
	StartingBalance    int64
	FirstGuardStrength int64

	// Cooldowns
	AttackCooldown     time.Duration
	TrainingCooldown   time.Duration
	ContractCooldown   time.Duration
	WarDeclareCooldown time.Duration

	// Combat
	WinChanceFloor   float64
	WinChanceCeiling float64
	WinChanceSlope   float64
	StealBasisPoints int64 // share of defender balance stolen on a win, 10000 = 100%
	CapturedGuards   int   // weakest capturable guards taken on a win

	// Transfer ledger
	TransferMaxRetries int

	// Clan wars
	WarDuration      time.Duration
	WarSweepInterval time.Duration
	WarTallyPolicy   string
	WarTieBreak      string
	WarGuardValue    int64 // value of one captured guard in net_value tallies
	WarEarlyDefeat   bool

	// Economy
	TrainingCost          int64
	TrainingPowerIncrease int64
	ContractBaseIncome    int64
	ContractStrengthBps   int64

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := defaults()

	config.DatabaseURL = os.Getenv("DATABASE_URL")
	config.DatabaseName = os.Getenv("DATABASE_NAME")
	config.RedisAddr = getEnvWithDefault("REDIS_ADDR", "redis:6379")
	config.RedisPassword = os.Getenv("REDIS_PASSWORD")
	config.NATSServers = os.Getenv("NATS_SERVERS")
	config.MetricsAddr = getEnvWithDefault("METRICS_ADDR", ":9102")
	config.WarTallyPolicy = getEnvWithDefault("WAR_TALLY_POLICY", config.WarTallyPolicy)
	config.WarTieBreak = getEnvWithDefault("WAR_TIE_BREAK", config.WarTieBreak)
	config.Environment = os.Getenv("ENVIRONMENT")

	var errs []string
	parseInt64 := func(key string, dst *int64) {
		if v := os.Getenv(key); v != "" {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = parsed
		}
	}
	parseInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = parsed
		}
	}
	parseFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = parsed
		}
	}
	parseDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = parsed
		}
	}

	parseInt("REDIS_DB", &config.RedisDB)
	parseDuration("CACHE_TTL", &config.CacheTTL)
	parseInt64("STARTING_BALANCE", &config.StartingBalance)
	parseInt64("FIRST_GUARD_STRENGTH", &config.FirstGuardStrength)
	parseDuration("ATTACK_COOLDOWN", &config.AttackCooldown)
	parseDuration("TRAINING_COOLDOWN", &config.TrainingCooldown)
	parseDuration("CONTRACT_COOLDOWN", &config.ContractCooldown)
	parseDuration("WAR_DECLARE_COOLDOWN", &config.WarDeclareCooldown)
	parseFloat("WIN_CHANCE_FLOOR", &config.WinChanceFloor)
	parseFloat("WIN_CHANCE_CEILING", &config.WinChanceCeiling)
	parseFloat("WIN_CHANCE_SLOPE", &config.WinChanceSlope)
	parseInt64("STEAL_BASIS_POINTS", &config.StealBasisPoints)
	parseInt("CAPTURED_GUARDS", &config.CapturedGuards)
	parseInt("TRANSFER_MAX_RETRIES", &config.TransferMaxRetries)
	parseDuration("WAR_DURATION", &config.WarDuration)
	parseDuration("WAR_SWEEP_INTERVAL", &config.WarSweepInterval)
	parseInt64("WAR_GUARD_VALUE", &config.WarGuardValue)
	parseInt64("TRAINING_COST", &config.TrainingCost)
	parseInt64("TRAINING_POWER_INCREASE", &config.TrainingPowerIncrease)
	parseInt64("CONTRACT_BASE_INCOME", &config.ContractBaseIncome)
	parseInt64("CONTRACT_STRENGTH_BPS", &config.ContractStrengthBps)
	if v := os.Getenv("WAR_EARLY_DEFEAT"); v != "" {
		config.WarEarlyDefeat = v == "true"
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the combat and war settings for internal consistency
func (c *Config) Validate() error {
	if c.WinChanceFloor < 0 || c.WinChanceCeiling > 1 || c.WinChanceFloor > c.WinChanceCeiling {
		return fmt.Errorf("win chance bounds must satisfy 0 <= floor <= ceiling <= 1, got [%v, %v]", c.WinChanceFloor, c.WinChanceCeiling)
	}
	if c.WinChanceSlope <= 0 {
		return fmt.Errorf("WIN_CHANCE_SLOPE must be positive")
	}
	if c.StealBasisPoints < 0 || c.StealBasisPoints > 10000 {
		return fmt.Errorf("STEAL_BASIS_POINTS must be between 0 and 10000")
	}
	if c.CapturedGuards < 0 {
		return fmt.Errorf("CAPTURED_GUARDS cannot be negative")
	}
	if c.WarDuration <= 0 {
		return fmt.Errorf("WAR_DURATION must be positive")
	}
	switch c.WarTallyPolicy {
	case WarTallyNetValue, WarTallyAttackCount:
	default:
		return fmt.Errorf("unknown WAR_TALLY_POLICY %q", c.WarTallyPolicy)
	}
	switch c.WarTieBreak {
	case WarTieBreakDraw, WarTieBreakDeclarer, WarTieBreakDefender:
	default:
		return fmt.Errorf("unknown WAR_TIE_BREAK %q", c.WarTieBreak)
	}
	return nil
}

// GetDatabaseURL returns the database URL with the optional database name applied
func (c *Config) GetDatabaseURL() string {
	return constructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

func defaults() *Config {
	return &Config{
		CacheTTL:              30 * time.Second,
		StartingBalance:       1000,
		FirstGuardStrength:    10,
		AttackCooldown:        15 * time.Minute,
		TrainingCooldown:      15 * time.Minute,
		ContractCooldown:      15 * time.Minute,
		WarDeclareCooldown:    24 * time.Hour,
		WinChanceFloor:        0.05,
		WinChanceCeiling:      0.95,
		WinChanceSlope:        2.0,
		StealBasisPoints:      1000, // 10%
		CapturedGuards:        1,
		TransferMaxRetries:    5,
		WarDuration:           6 * time.Hour,
		WarSweepInterval:      2 * time.Minute,
		WarTallyPolicy:        WarTallyNetValue,
		WarTieBreak:           WarTieBreakDraw,
		WarGuardValue:         100,
		WarEarlyDefeat:        true,
		TrainingCost:          500,
		TrainingPowerIncrease: 25,
		ContractBaseIncome:    100,
		ContractStrengthBps:   10000,
	}
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// constructDatabaseURL appends the database name to the base URL, keeping query parameters
func constructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	if strings.Contains(baseURL, "?") {
		parts := strings.SplitN(baseURL, "?", 2)
		return fmt.Sprintf("%s/%s?%s", strings.TrimRight(parts[0], "/"), databaseName, parts[1])
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(baseURL, "/"), databaseName)
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a config with the production defaults suitable for unit tests
func NewTestConfig() *Config {
	cfg := defaults()
	cfg.Environment = "test"
	return cfg
}
