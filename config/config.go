package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-ozzo/ozzo-validation/v3"
	"go.uber.org/zap"
)

type SQLiteConfig struct {
	Path string `json:"path"`
}

func (c *SQLiteConfig) ConnectionString() string {
	return fmt.Sprintf("file:%s?_fk=1&_busy_timeout=5000", c.Path)
}

// ReadOnlyConnectionString opens the database in read-only mode, used for
// the game database so no graded statement can ever mutate it.
func (c *SQLiteConfig) ReadOnlyConnectionString() string {
	return fmt.Sprintf("file:%s?mode=ro&_fk=1&_busy_timeout=5000", c.Path)
}

func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(
		c,
		validation.Field(&c.Path, validation.Required),
	)
}

const (
	minFetchPeriod = 100
	minWorkerCount = 1
)

type GradingJudgeConfig struct {
	GameDBConfig SQLiteConfig `json:"game_db"`

	FetchPeriod int `json:"fetch_period"`
	WorkerCount int `json:"worker_count"`
}

func (c *GradingJudgeConfig) Validate() error {
	if err := c.GameDBConfig.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(
		c,
		validation.Field(&c.FetchPeriod, validation.Required, validation.Min(minFetchPeriod)),
		validation.Field(&c.WorkerCount, validation.Required, validation.Min(minWorkerCount)),
	)
}

type JudgesConfig struct {
	LoggerConfig zap.Config `json:"logger"`

	MainDBConfig SQLiteConfig `json:"main_db"`

	GradingJudgeConfig GradingJudgeConfig `json:"grading_judge"`
}

func (c *JudgesConfig) Validate() error {
	if err := c.MainDBConfig.Validate(); err != nil {
		return err
	}
	return c.GradingJudgeConfig.Validate()
}

func (c *JudgesConfig) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return err
		}
		return c.Validate()
	default:
		return fmt.Errorf("unknown configuration file extension: %s", ext)
	}
}

const defaultConfigFile = "config.json"

func (c *JudgesConfig) LoadDefault() error {
	return c.LoadFromFile(defaultConfigFile)
}
