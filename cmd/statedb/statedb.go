package main

import (
	"fmt"
	"strings"

	"github.com/NethermindEth/statedb/storage"
	"github.com/NethermindEth/statedb/utils"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version string

const (
	configF      = "config"
	dbPathF      = "db-path"
	engineF      = "engine"
	cacheSizeF   = "db-cache-size"
	maxHandlesF  = "db-max-handles"
	logLevelF    = "log-level"
	blobMaxSizeF = "blob-max-size"

	envPrefix = "STATEDB"

	configFlagUsage   = "The YAML configuration file."
	dbPathUsage       = "Location of the database and blob files."
	engineUsage       = "Key-value engine. Options: pebble, leveldb, memory."
	cacheSizeUsage    = "Determines the amount of memory (in megabytes) allocated for caching data in the database."
	maxHandlesUsage   = "Maximum number of files the database can keep open. 0 uses the engine default."
	logLevelFlagUsage = "Options: trace, debug, info, warn, error."
	blobMaxSizeUsage  = "Size (in bytes) a blob file may grow to."
)

// Config is everything the commands read from flags, the config file and the environment.
type Config struct {
	Storage  storage.Config `mapstructure:",squash"`
	LogLevel utils.LogLevel `mapstructure:"log-level"`
}

type app struct {
	config Config
	log    *utils.ZapLogger
}

func NewCmd() *cobra.Command {
	var cfgFile string
	a := new(app)

	defaults := storage.DefaultConfig()
	defaultLogLevel := utils.NewLogLevel(utils.INFO)

	cmd := &cobra.Command{
		Use:           "statedb",
		Short:         "Versioned Starknet state storage.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd, cfgFile)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, configF, "", configFlagUsage)
	flags.String(dbPathF, defaults.Path, dbPathUsage)
	flags.String(engineF, string(defaults.Engine), engineUsage)
	flags.Uint(cacheSizeF, defaults.CacheSizeMB, cacheSizeUsage)
	flags.Int(maxHandlesF, defaults.MaxOpenFiles, maxHandlesUsage)
	flags.Var(defaultLogLevel, logLevelF, logLevelFlagUsage)
	flags.Uint64(blobMaxSizeF, defaults.Blob.MaxSize, blobMaxSizeUsage)

	cmd.AddCommand(
		a.markersCmd(),
		a.appendCmd(),
		a.revertCmd(),
		a.stateDiffCmd(),
		a.storageCmd(),
		a.nonceCmd(),
		a.classHashCmd(),
		a.replayCmd(),
		a.verifyCmd(),
		versionCmd(),
	)
	return cmd
}

// load merges the flags, the config file and STATEDB_* variables into a.config. Flags
// set on the command line win over the environment, which wins over the file.
func (a *app) load(cmd *cobra.Command, cfgFile string) error {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	flags := cmd.Flags()
	for _, name := range []string{dbPathF, engineF, cacheSizeF, maxHandlesF, logLevelF} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return err
		}
	}
	if err := v.BindPFlag("blob.max-size", flags.Lookup(blobMaxSizeF)); err != nil {
		return err
	}

	a.config = Config{Storage: storage.DefaultConfig()}
	if err := v.Unmarshal(&a.config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	var err error
	a.log, err = utils.NewZapLogger(&a.config.LogLevel, true)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}

func (a *app) openStorage(opts ...storage.Option) (*storage.Storage, error) {
	s, err := storage.Open(&a.config.Storage, a.log, opts...)
	if err != nil {
		return nil, fmt.Errorf("open storage at %q: %w", a.config.Storage.Path, err)
	}
	return s, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the binary and storage layout versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			version := Version
			if version == "" {
				version = "dev"
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "statedb %s (storage version %s)\n", version, storage.CurrentVersion)
			return err
		},
	}
}
