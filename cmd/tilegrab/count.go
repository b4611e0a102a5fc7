package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kerbaras/tilegrab/pkg/app/styles"
	"github.com/kerbaras/tilegrab/pkg/data"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Show how many tiles a zoom range holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		var rows [][]string
		var cumulative uint64
		for z := cfg.MinZoom; z <= cfg.MaxZoom; z++ {
			n := data.LevelCount(z)
			cumulative += n
			rows = append(rows, []string{
				strconv.Itoa(z),
				strconv.FormatUint(n, 10),
				strconv.FormatUint(cumulative, 10),
			})
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
			Headers("Zoom", "Tiles", "Cumulative").
			Rows(rows...)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, t.Render())
		fmt.Fprintf(out, "%s %d tiles\n", styles.TitleStyle.UnsetMarginBottom().Render("Total:"), cfg.Zooms().Count())
		return nil
	},
}

func init() {
	addZoomFlags(countCmd)
}
