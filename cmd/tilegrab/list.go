package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kerbaras/tilegrab/pkg/data"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Summarize the tiles recorded in the manifest",
	Long:  "Display the tiles written by the last run, per zoom level, from the DuckDB manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Manifest == "" {
			return errors.New("no manifest configured, use --manifest or TILEGRAB_MANIFEST")
		}

		repo, err := data.NewDuckDBRepository(cfg.Manifest)
		if err != nil {
			return err
		}
		defer repo.Close()

		total, err := repo.CountTiles()
		if err != nil {
			return err
		}
		summaries, err := repo.ZoomSummaries()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if total == 0 {
			fmt.Fprintln(out, "🗺  No tiles recorded. Run 'tilegrab download --manifest "+cfg.Manifest+"' first.")
			return nil
		}

		columns := []table.Column{
			{Title: "Zoom", Width: 6},
			{Title: "Tiles", Width: 12},
			{Title: "Expected", Width: 12},
			{Title: "Size", Width: 12},
		}

		rows := []table.Row{}
		for _, s := range summaries {
			rows = append(rows, table.Row{
				fmt.Sprintf("%d", s.Zoom),
				fmt.Sprintf("%d", s.Tiles),
				fmt.Sprintf("%d", data.LevelCount(s.Zoom)),
				humanize.IBytes(uint64(s.Bytes)),
			})
		}

		t := table.New(
			table.WithColumns(columns),
			table.WithRows(rows),
			table.WithFocused(false),
			table.WithHeight(len(rows)),
		)

		st := table.DefaultStyles()
		st.Header = st.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
		st.Selected = st.Selected.
			Foreground(lipgloss.NoColor{}).
			Bold(false)
		t.SetStyles(st)

		fmt.Fprintf(out, "\n🗺  Manifest (%d tiles)\n\n", total)
		fmt.Fprintln(out, t.View())
		return nil
	},
}

func init() {
	listCmd.Flags().String("manifest", "", "DuckDB manifest written by download")
}
