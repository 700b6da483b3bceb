package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var flags struct {
	envFile     string
	logLevel    string
	deviceID    string
	dataPath    string
	metricsAddr string
}

var rootCmd = &cobra.Command{
	Use:           `pilot`,
	Short:         "remote control for apps on the local network",
	Long:          `pilot finds apps on the local network, connects to one of them and plays or pauses the actions it exposes`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", ".env", "file with PILOT_* variables, skipped if missing")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level, overrides PILOT_LOG_LEVEL")
	pf.StringVar(&flags.deviceID, "device-id", "", "device id, overrides the stored one")
	pf.StringVar(&flags.dataPath, "data", "", "database path, overrides PILOT_DATA_PATH")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve /metrics on this address")

	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(deviceCmd)
}
