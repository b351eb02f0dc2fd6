package storage

import (
	"github.com/NethermindEth/statedb/blob"
	"github.com/NethermindEth/statedb/validator"
)

type Engine string

const (
	EnginePebble  Engine = "pebble"
	EngineLevelDB Engine = "leveldb"
	// EngineMemory keeps the tables in memory. Blob files are still written under Path.
	EngineMemory Engine = "memory"
)

type Config struct {
	Path         string      `mapstructure:"db-path" validate:"required"`
	Engine       Engine      `mapstructure:"engine" validate:"oneof=pebble leveldb memory"`
	CacheSizeMB  uint        `mapstructure:"db-cache-size"`
	MaxOpenFiles int         `mapstructure:"db-max-handles" validate:"gte=0"`
	Blob         blob.Config `mapstructure:"blob"`
}

func DefaultConfig() Config {
	return Config{
		Engine:       EnginePebble,
		CacheSizeMB:  1024,
		MaxOpenFiles: 1024,
		Blob:         blob.DefaultConfig(),
	}
}

func (c *Config) Validate() error {
	return validator.Validator().Struct(c)
}
