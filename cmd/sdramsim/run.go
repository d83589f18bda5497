package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/sdramsim/busagent"
	"github.com/sarchlab/sdramsim/sdram"
)

type runOptions struct {
	configPath  string
	test        string
	seed        int64
	maxAddress  uint32
	iterations  int
	burstLength int
	delay       uint64
	maxEdges    uint64
	tracePath   string
	recordPath  string
	monitor     bool
	port        int
	openBrowser bool
}

func newRunCommand(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a bus test program against the controller.",
		Long: "`run` builds a controller, a memory device and a bus agent, " +
			"runs the selected test program and prints a summary. It fails " +
			"if a read does not match or the device sees a protocol " +
			"violation.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.applyEnv(cmd); err != nil {
				return err
			}

			return runSimulation(cmd, global, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "",
		"Controller configuration file. Defaults to $"+ConfigEnvName+".")
	f.StringVar(&opts.test, "test", busagent.ProgramFull,
		"Test program. One of "+strings.Join(busagent.ProgramNames, ", ")+".")
	f.Int64Var(&opts.seed, "seed", 1,
		"Seed of the test data. Defaults to $"+SeedEnvName+".")
	f.Uint32Var(&opts.maxAddress, "max-address", 0,
		"Highest word address the test uses. 0 uses the whole device.")
	f.IntVar(&opts.iterations, "iterations", 100,
		"Number of repetitions of the read-write and burst programs.")
	f.IntVar(&opts.burstLength, "burst-length", 16,
		"Number of words in a burst.")
	f.Uint64Var(&opts.delay, "delay", 0,
		"Bus cycles between a burst write and its read. "+
			"0 waits four refresh intervals.")
	f.Uint64Var(&opts.maxEdges, "max-edges", 0,
		"Stop the controller after this many active edges. 0 is unlimited.")
	f.StringVar(&opts.tracePath, "trace", "",
		"Write request traces to this CSV file (without extension).")
	f.StringVar(&opts.recordPath, "record", "",
		"Record pins and traces to this SQLite file (without extension).")
	f.BoolVar(&opts.monitor, "monitor", false,
		"Serve the monitoring web page during the simulation.")
	f.IntVar(&opts.port, "port", 0,
		"Port of the monitoring server. 0 picks a free port.")
	f.BoolVar(&opts.openBrowser, "open-browser", false,
		"Open the monitoring page in a browser.")

	return cmd
}

func (o *runOptions) applyEnv(cmd *cobra.Command) error {
	if !cmd.Flags().Changed("config") {
		o.configPath = os.Getenv(ConfigEnvName)
	}

	if !cmd.Flags().Changed("seed") {
		if v, ok := os.LookupEnv(SeedEnvName); ok {
			seed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", SeedEnvName, err)
			}

			o.seed = seed
		}
	}

	return nil
}

func (o *runOptions) loadConfig() (sdram.Config, error) {
	c := sdram.DefaultConfig()
	if o.configPath != "" {
		var err error

		c, err = sdram.LoadConfig(o.configPath)
		if err != nil {
			return c, err
		}
	}

	if err := c.Validate(); err != nil {
		return c, err
	}

	return c, nil
}

func (o *runOptions) programOptions(c sdram.Config) (busagent.ProgramOptions, error) {
	words := c.Geometry.NumWords()

	maxAddress := o.maxAddress
	if maxAddress == 0 {
		maxAddress = uint32(words - 1)
	}

	if uint64(maxAddress) >= words {
		return busagent.ProgramOptions{}, fmt.Errorf(
			"max address 0x%x is beyond the %d words of the device",
			maxAddress, words)
	}

	delay := o.delay
	if delay == 0 {
		delay = 4 * c.RefreshInterval() * uint64(c.DividerRatio())
	}

	return busagent.ProgramOptions{
		MaxAddress:  maxAddress,
		Iterations:  o.iterations,
		BurstLength: o.burstLength,
		Delay:       delay,
		Seed:        o.seed,
	}, nil
}

func runSimulation(
	cmd *cobra.Command,
	global *globalOptions,
	opts *runOptions,
) error {
	config, err := opts.loadConfig()
	if err != nil {
		return err
	}

	programOpts, err := opts.programOptions(config)
	if err != nil {
		return err
	}

	program, err := busagent.NewProgram(opts.test, programOpts)
	if err != nil {
		return err
	}

	global.infof("Running %s over addresses 0 to 0x%x with seed %d",
		program.Name(), programOpts.MaxAddress, programOpts.Seed)

	s := buildSimulation(simulationOptions{
		config:     config,
		program:    program,
		maxEdges:   opts.maxEdges,
		tracePath:  opts.tracePath,
		recordPath: opts.recordPath,
		monitor:    opts.monitor,
		port:       opts.port,
		logger:     global.logger,
		level:      global.level,
	})

	if s.monitor != nil {
		s.monitor.StartServer()

		if opts.openBrowser {
			if err := s.monitor.OpenBrowser(); err != nil {
				global.infof("Cannot open browser: %v", err)
			}
		}
	}

	if err := s.run(); err != nil {
		return err
	}

	sum := s.summarize()
	sum.print(cmd.OutOrStdout())

	if s.csv != nil {
		global.infof("Trace written to %s", s.csv.Path())
	}

	return sum.err()
}
