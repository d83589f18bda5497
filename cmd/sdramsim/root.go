package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Option names shared by the commands.
const (
	LogLevelOptionName = "log-level"
	EnvFileOptionName  = "env-file"
)

// Environment variables read by the commands.
const (
	ConfigEnvName = "SDRAMSIM_CONFIG"
	SeedEnvName   = "SDRAMSIM_SEED"
)

type logLevel int

const (
	levelError logLevel = iota
	levelInfo
	levelDebug
	levelTrace
)

var logLevelNames = []string{"error", "info", "debug", "trace"}

func parseLogLevel(s string) (logLevel, error) {
	for i, name := range logLevelNames {
		if strings.EqualFold(s, name) {
			return logLevel(i), nil
		}
	}

	return levelError, fmt.Errorf("unknown log level %q, use one of %s",
		s, strings.Join(logLevelNames, ", "))
}

type globalOptions struct {
	logLevelName string
	envFile      string

	level  logLevel
	logger *log.Logger
}

func (o *globalOptions) infof(format string, args ...any) {
	if o.level >= levelInfo {
		o.logger.Printf(format, args...)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "sdramsim",
		Short: "Simulate an SDRAM controller and its refresh timing.",
		Long: "sdramsim simulates an SDRAM controller with its clock divider, " +
			"refresh timer and command sequencer, drives it with a bus test " +
			"program and checks the data read back.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd)
		},
	}

	cmd.SetOut(out)
	cmd.PersistentFlags().StringVar(&opts.logLevelName, LogLevelOptionName,
		"info", fmt.Sprintf("Log level. One of %s.",
			strings.Join(logLevelNames, ", ")))
	cmd.PersistentFlags().StringVar(&opts.envFile, EnvFileOptionName, "",
		"File to read environment defaults from. Defaults to .env.")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))

	return cmd
}

func (o *globalOptions) init(cmd *cobra.Command) error {
	level, err := parseLogLevel(o.logLevelName)
	if err != nil {
		return err
	}

	o.level = level
	o.logger = log.New(cmd.ErrOrStderr(), "", log.LstdFlags)

	if o.envFile != "" {
		return godotenv.Load(o.envFile)
	}

	err = godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}
