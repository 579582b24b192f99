package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"

	envparse "github.com/caarlos0/env/v11"
	"github.com/calvinwijaya/blackjack-table/internal/game"
	"github.com/joho/godotenv"
)

// Config is the server configuration. Rules are the defaults for new tables.
type Config struct {
	Port        string
	DBDriver    string
	DBDSN       string
	FrontendURL string
	LogLevel    string
	Rules       game.Rules
}

// settings are the environment variables, decoded over the built-in defaults.
type settings struct {
	Port        string  `env:"PORT"`
	DBDriver    string  `env:"DB_DRIVER"`
	DBDSN       string  `env:"DB_DSN"`
	FrontendURL string  `env:"FRONTEND_URL"`
	LogLevel    string  `env:"LOG_LEVEL"`
	Decks       int     `env:"DECKS"`
	Penetration float64 `env:"PENETRATION"`
	HitSoft17   bool    `env:"HIT_SOFT_17"`
	MinBet      int     `env:"MIN_BET"`
	MaxBet      int     `env:"MAX_BET"`
}

// Load reads an optional .env file, then parses args. Every flag defaults to
// its environment variable.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	defaults := game.DefaultRules()
	env := settings{
		Port:        "8080",
		DBDriver:    "sqlite3",
		DBDSN:       "./data/blackjack.db",
		FrontendURL: "http://localhost:5173",
		LogLevel:    "info",
		Decks:       defaults.DeckCount,
		Penetration: defaults.Penetration,
		HitSoft17:   defaults.DealerHitsSoft17,
		MinBet:      defaults.MinBet,
		MaxBet:      defaults.MaxBet,
	}
	if err := envparse.Parse(&env); err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}

	var cfg Config
	fset := flag.NewFlagSet("server", flag.ContinueOnError)
	fset.StringVar(&cfg.Port, "port", env.Port, "Server port")
	fset.StringVar(&cfg.DBDriver, "db-driver", env.DBDriver, "Database driver: postgres, sqlite3, or none")
	fset.StringVar(&cfg.DBDSN, "db", env.DBDSN, "Database DSN or path")
	fset.StringVar(&cfg.FrontendURL, "frontend", env.FrontendURL, "Frontend URL for CORS")
	fset.StringVar(&cfg.LogLevel, "log-level", env.LogLevel, "Log level")

	rules := defaults
	fset.IntVar(&rules.DeckCount, "decks", env.Decks, "Decks per shoe")
	fset.Float64Var(&rules.Penetration, "penetration", env.Penetration, "Fraction of the shoe dealt before a reshuffle")
	fset.BoolVar(&rules.DealerHitsSoft17, "hit-soft-17", env.HitSoft17, "Dealer hits soft 17")
	fset.IntVar(&rules.MinBet, "min-bet", env.MinBet, "Table minimum")
	fset.IntVar(&rules.MaxBet, "max-bet", env.MaxBet, "Table maximum")

	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	switch cfg.DBDriver {
	case "none":
		cfg.DBDriver = ""
	case "", "postgres", "sqlite3":
	default:
		return Config{}, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
	if err := rules.Validate(); err != nil {
		return Config{}, fmt.Errorf("table rules: %w", err)
	}
	cfg.Rules = rules
	return cfg, nil
}
