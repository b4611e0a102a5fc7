package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kerbaras/tilegrab/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "tilegrab",
	Short: "Bulk downloader for XYZ map tiles",
	Long:  "Download every tile of a zoom range from a slippy map server into a directory or bucket",
	// Per-tile failures are reported, not returned, so usage is only
	// useful for flag errors.
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(listCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers the config file, TILEGRAB_* variables and explicitly
// set flags over the defaults, in that order.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return config.Config{}, err
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	if changed("min-zoom") {
		cfg.MinZoom, _ = flags.GetInt("min-zoom")
	}
	if changed("max-zoom") {
		cfg.MaxZoom, _ = flags.GetInt("max-zoom")
	}
	if changed("batch-size") {
		cfg.BatchSize, _ = flags.GetInt("batch-size")
	}
	if changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}

	strs := []struct {
		flag string
		dst  *string
	}{
		{"output", &cfg.Output},
		{"url", &cfg.URL},
		{"ext", &cfg.Extension},
		{"failure-log", &cfg.FailureLog},
		{"manifest", &cfg.Manifest},
		{"user-agent", &cfg.UserAgent},
	}
	for _, s := range strs {
		if changed(s.flag) {
			*s.dst, _ = flags.GetString(s.flag)
		}
	}

	return cfg, nil
}

func addZoomFlags(cmd *cobra.Command) {
	cmd.Flags().Int("min-zoom", 0, "First zoom level to download")
	cmd.Flags().Int("max-zoom", 18, "Last zoom level to download")
}
