package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/sarchlab/sdramsim/sdram"
)

func newConfigCommand(opts *globalOptions) *cobra.Command {
	var (
		burst bool
		out   string
		check string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or check a controller configuration.",
		Long: "`config` prints the default configuration, or writes it with " +
			"--out. `config --check f.yaml` validates a configuration file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if check != "" {
				return checkConfig(cmd, check)
			}

			c := sdram.DefaultConfig()
			if burst {
				c = sdram.BurstRefreshConfig()
			}

			if out != "" {
				if err := c.Save(out); err != nil {
					return err
				}

				opts.infof("Configuration written to %s", out)

				return nil
			}

			data, err := yaml.Marshal(c)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}

	cmd.Flags().BoolVar(&burst, "burst", false,
		"Use the burst refresh cadence instead of the distributed one.")
	cmd.Flags().StringVar(&out, "out", "", "File to write the configuration to.")
	cmd.Flags().StringVar(&check, "check", "", "Configuration file to validate.")

	return cmd
}

func checkConfig(cmd *cobra.Command, path string) error {
	c, err := sdram.LoadConfig(path)
	if err != nil {
		return err
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s is valid\n", path)
	fmt.Fprintf(w, "  input clock:        %.0f Hz\n", float64(c.InputFreq()))
	fmt.Fprintf(w, "  divider:            %d\n", c.DividerRatio())
	fmt.Fprintf(w, "  refresh interval:   %d edges\n", c.RefreshInterval())
	fmt.Fprintf(w, "  minimum operation:  %d edges\n", c.MinOperationEdges())
	fmt.Fprintf(w, "  words:              %d\n", c.Geometry.NumWords())

	return nil
}
