package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kerbaras/tilegrab/pkg/app"
	"github.com/kerbaras/tilegrab/pkg/app/styles"
	"github.com/kerbaras/tilegrab/pkg/data"
	"github.com/kerbaras/tilegrab/pkg/services"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a zoom range of tiles",
	Long: "Clear the output and the failure log, then download every tile from min-zoom to max-zoom.\n" +
		"Tiles that fail are listed in the failure log; the run carries on without them.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		controller, err := services.NewTileController(ctx, cfg)
		if err != nil {
			return err
		}
		defer controller.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, styles.TitleStyle.Render(fmt.Sprintf("Downloading %d tiles (zoom %d-%d) from %s",
			cfg.Zooms().Count(), cfg.MinZoom, cfg.MaxZoom, cfg.URL)))

		a := app.NewApp(controller.Downloader(), controller.Zooms())

		var report data.RunReport
		plain, _ := cmd.Flags().GetBool("plain")
		if plain || !isTerminal(out) {
			report, err = a.RunPlain(ctx, out)
		} else {
			report, err = a.Run(ctx)
		}
		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}

		fmt.Fprintln(out, styles.SummaryStyle.Render(app.FormatSummary(report)))
		if report.Failed > 0 {
			fmt.Fprintf(out, "Failed tiles are listed in %s\n", cfg.FailureLog)
		}
		return nil
	},
}

func init() {
	addZoomFlags(downloadCmd)
	downloadCmd.Flags().StringP("output", "o", "tiles", "Output directory or bucket URL (file://, mem://, s3://)")
	downloadCmd.Flags().StringP("url", "u", "https://tile.openstreetmap.org/{z}/{x}/{y}.png", "Tile URL template with {z}, {x} and {y}")
	downloadCmd.Flags().String("ext", "png", "Extension of stored tile files")
	downloadCmd.Flags().IntP("batch-size", "b", 4, "Tiles fetched concurrently per batch")
	downloadCmd.Flags().String("failure-log", "error.log", "Failure log file or redis:// URL")
	downloadCmd.Flags().String("manifest", "", "DuckDB manifest of written tiles (disabled when empty)")
	downloadCmd.Flags().String("user-agent", "tilegrab/1.0", "User-Agent header sent to the tile server")
	downloadCmd.Flags().Duration("timeout", 30*time.Second, "Per-request timeout (0 disables)")
	downloadCmd.Flags().Bool("plain", false, "Print one line per tile instead of the interactive view")
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
