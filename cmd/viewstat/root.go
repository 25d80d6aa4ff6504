package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.3.0"

	// wrap is the number of characters to wrap the help text at
	wrap = 50
)

var (
	runConfig *Config

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "viewstat",
		Short: "exercise and inspect shared-ownership array views",
		Long: fmt.Sprintf(`viewstat (v%s)

Allocates a view with the configured options, shares it across goroutines
through copies and subviews, and reports reference counts, live allocations
and memory space statistics.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of viewstat",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("viewstat v%s\n", Version)
		},
	}

	runCmd = &cobra.Command{
		Use:     "run",
		Short:   "Run one allocation scenario",
		Long:    `Run one allocation scenario. Every flag can also be set through an environment variable of the form VIEWSTAT_<flag> (e.g. VIEWSTAT_CHUNK_SIZE=128).`,
		PreRunE: processConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runConfig.Format == "text" {
				fmt.Fprint(cmd.OutOrStdout(), runConfig.String())
			}
			return runScenario(runConfig, cmd.OutOrStdout())
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(versionCmd)

	key := "shape"
	runCmd.Flags().String(key, "3,3", wrapString("Comma-separated extents of the view, e.g. 3,3"))

	key = "label"
	runCmd.Flags().String(key, "buf", wrapString("Label of the allocation"))

	key = "space"
	runCmd.Flags().String(key, "host", wrapString("Memory space to allocate from (host, arena)"))

	key = "chunk-size"
	runCmd.Flags().Int(key, 64, wrapString("Chunk size of the arena space in KB"))

	key = "space-limit"
	runCmd.Flags().Int(key, 0, wrapString("Upper bound on the arena space in KB (0 = unlimited)"))

	key = "exec"
	runCmd.Flags().String(key, "serial", wrapString("Execution space used to initialise the view (serial, threads)"))

	key = "threads"
	runCmd.Flags().Int(key, 0, wrapString("Goroutines used by the threads execution space (0 = GOMAXPROCS)"))

	key = "copies"
	runCmd.Flags().Int(key, 4, wrapString("Number of copies handed to concurrent readers"))

	key = "subviews"
	runCmd.Flags().Bool(key, true, wrapString("Whether each reader works on a row subview of its copy"))

	key = "padding"
	runCmd.Flags().Bool(key, false, wrapString("Allow the layout to pad rows to a cache line multiple"))

	key = "no-init"
	runCmd.Flags().Bool(key, false, wrapString("Skip zero-filling the allocation"))

	key = "log-level"
	runCmd.Flags().String(key, "warn", wrapString("Level at which logs will be output (debug, info, warn, error)"))

	key = "prometheus"
	runCmd.Flags().Bool(key, false, wrapString("Print allocation metrics in Prometheus text format"))

	key = "format"
	runCmd.Flags().String(key, "text", wrapString("Report format (text, yaml)"))
}

// processConfig binds the flags to viper and builds the run configuration.
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	c, err := configFromViper()
	if err != nil {
		return err
	}
	runConfig = c
	return nil
}

// initConfig loads env files and enables environment lookups.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("viewstat")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command. It is called once by main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// wrapString wraps text at wrap characters for flag help output.
func wrapString(text string) string {
	var lines []string
	var line strings.Builder
	width := 0

	for _, word := range strings.Fields(text) {
		if width > 0 && width+1+len(word) > wrap {
			lines = append(lines, line.String())
			line.Reset()
			width = 0
		}
		if width > 0 {
			line.WriteString(" ")
			width++
		}
		line.WriteString(word)
		width += len(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
