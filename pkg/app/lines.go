package app

import (
	"fmt"

	"github.com/kerbaras/tilegrab/pkg/app/styles"
	"github.com/kerbaras/tilegrab/pkg/data"
	"github.com/kerbaras/tilegrab/pkg/services"
	"github.com/kerbaras/tilegrab/pkg/utils"
)

const lineTime = "2006-01-02 15:04:05"

// FormatLine renders a settled progress event; other events yield "".
func FormatLine(p services.DownloadProgress) string {
	at := p.Time.Format(lineTime)
	switch p.Status {
	case services.StatusCleared:
		return styles.StatusCompleted.Render("✔") + " " + at + " clear successful"
	case services.StatusComplete:
		return styles.StatusCompleted.Render("✔") + fmt.Sprintf(" %s successful: %s", at, p.Tile) +
			styles.MutedStyle.Render(fmt.Sprintf(" %d/%d", p.Index, p.Total))
	case services.StatusError:
		line := styles.StatusError.Render("✖") + fmt.Sprintf(" %s failed: %s.", at, p.Tile)
		if p.Error != nil {
			line += styles.MutedStyle.Render(" " + p.Error.Error())
		}
		return line
	}
	return ""
}

// FormatSummary renders the closing line of a run.
func FormatSummary(r data.RunReport) string {
	summary := fmt.Sprintf("Download completed in %s: %d succeeded, %d failed",
		utils.FormatElapsed(r.Elapsed), r.Succeeded, r.Failed)
	if r.Cancelled {
		summary += fmt.Sprintf(" (stopped after %d of %d tiles)", r.Dispatched(), r.Total)
	}

	mark := styles.StatusCompleted.Render("✔")
	if r.Failed > 0 || r.Cancelled {
		mark = styles.StatusWarning.Render("!")
	}
	return mark + " " + summary
}
