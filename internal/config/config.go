package config

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DryRun bool `yaml:"dry_run"`

	Betfair struct {
		AppKey       string `yaml:"app_key"`
		SessionToken string `yaml:"session_token"`
		RestURL      string `yaml:"rest_url"`
		AccountURL   string `yaml:"account_url"`
		IdentityURL  string `yaml:"identity_url"`
	} `yaml:"betfair"`

	Betting struct {
		Stake            float64 `yaml:"stake"`
		PerRaceStopLoss  float64 `yaml:"per_race_stop_loss"`
		MinRunners       int     `yaml:"min_runners"`
		MaxRunners       int     `yaml:"max_runners"`
		HoursAhead       int     `yaml:"hours_ahead"`
		CheckIntervalSec int     `yaml:"check_interval_sec"`
	} `yaml:"betting"`

	Redis struct {
		Addr      string `yaml:"addr"`
		DB        int    `yaml:"db"`
		Username  string `yaml:"username"`
		Password  string `yaml:"password"`
		BetStream string `yaml:"bet_stream"`
		ActiveKey string `yaml:"active_key"`
		MetaNS    string `yaml:"meta_ns"`
	} `yaml:"redis"`

	Dash struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"dash"`

	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Betfair.RestURL == "" {
		c.Betfair.RestURL = "https://api.betfair.com/exchange/betting/rest/v1.0"
	}
	if c.Betfair.AccountURL == "" {
		c.Betfair.AccountURL = "https://api.betfair.com/exchange/account/rest/v1.0"
	}
	if c.Betfair.IdentityURL == "" {
		c.Betfair.IdentityURL = "https://identitysso.betfair.com/api"
	}
	if c.Betting.Stake == 0 {
		c.Betting.Stake = 2.0
	}
	if c.Betting.PerRaceStopLoss == 0 {
		c.Betting.PerRaceStopLoss = 20.0
	}
	if c.Betting.MinRunners == 0 {
		c.Betting.MinRunners = 8
	}
	if c.Betting.MaxRunners == 0 {
		c.Betting.MaxRunners = 14
	}
	if c.Betting.HoursAhead == 0 {
		c.Betting.HoursAhead = 2
	}
	if c.Betting.CheckIntervalSec == 0 {
		c.Betting.CheckIntervalSec = 60
	}
	if c.Redis.BetStream == "" {
		c.Redis.BetStream = "bet:stream"
	}
	if c.Redis.ActiveKey == "" {
		c.Redis.ActiveKey = "race:active"
	}
	if c.Redis.MetaNS == "" {
		c.Redis.MetaNS = "race:meta:"
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save writes the config back to disk. The dashboard's config endpoint
// uses this so edits survive a restart.
func (c *Config) Save(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func (c *Config) Validate() error {
	if c.Betting.Stake <= 0 {
		return fmt.Errorf("betting.stake must be positive, got %v", c.Betting.Stake)
	}
	if c.Betting.PerRaceStopLoss <= 0 {
		return fmt.Errorf("betting.per_race_stop_loss must be positive, got %v", c.Betting.PerRaceStopLoss)
	}
	if c.Betting.MinRunners > c.Betting.MaxRunners {
		return fmt.Errorf("betting.min_runners %d exceeds max_runners %d",
			c.Betting.MinRunners, c.Betting.MaxRunners)
	}
	return nil
}

func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Betting.CheckIntervalSec) * time.Second
}

// Store hands out the live configuration to concurrent readers. Writers
// never mutate a published Config; they validate a copy and swap the
// pointer, so a reader's snapshot stays internally consistent for as
// long as it holds it.
type Store struct {
	p atomic.Pointer[Config]
}

func NewStore(c *Config) *Store {
	s := &Store{}
	s.p.Store(c)
	return s
}

// Snapshot returns the current configuration. Callers must treat it as
// read-only.
func (s *Store) Snapshot() *Config { return s.p.Load() }

// Replace publishes a new configuration.
func (s *Store) Replace(c *Config) { s.p.Store(c) }
