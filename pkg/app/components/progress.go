package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kerbaras/tilegrab/pkg/app/styles"
	"github.com/kerbaras/tilegrab/pkg/data"
	"github.com/kerbaras/tilegrab/pkg/services"
)

// maxActiveShown caps the in-flight tiles listed under the bar.
const maxActiveShown = 8

type ProgressTracker struct {
	active    map[data.Tile]services.DownloadProgress
	total     uint64
	succeeded uint64
	failed    uint64
	lastError error
	width     int
}

func NewProgressTracker(width int) *ProgressTracker {
	return &ProgressTracker{
		active: make(map[data.Tile]services.DownloadProgress),
		width:  width,
	}
}

func (p *ProgressTracker) SetWidth(width int) {
	p.width = width
}

func (p *ProgressTracker) Update(progress services.DownloadProgress) {
	if progress.Total > 0 {
		p.total = progress.Total
	}

	switch progress.Status {
	case services.StatusDownloading:
		p.active[progress.Tile] = progress
	case services.StatusComplete:
		delete(p.active, progress.Tile)
		p.succeeded++
	case services.StatusError:
		delete(p.active, progress.Tile)
		p.failed++
		p.lastError = progress.Error
	}
}

// Clear forgets the counts of a previous run.
func (p *ProgressTracker) Clear() {
	p.active = make(map[data.Tile]services.DownloadProgress)
	p.succeeded, p.failed = 0, 0
	p.lastError = nil
}

func (p *ProgressTracker) HasActive() bool {
	return len(p.active) > 0
}

// Done is the number of tiles that have settled.
func (p *ProgressTracker) Done() uint64 {
	return p.succeeded + p.failed
}

func (p *ProgressTracker) View() string {
	if p.total == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Downloading tiles"))
	b.WriteString("\n")

	done := p.Done()
	percentage := float64(done) / float64(p.total) * 100
	b.WriteString(renderProgressBar(int(done), int(p.total), p.width-4))
	b.WriteString("\n")
	b.WriteString(styles.TextStyle.Render(fmt.Sprintf("%d/%d tiles - %.1f%%", done, p.total, percentage)))
	b.WriteString("  ")
	b.WriteString(styles.StatusCompleted.Render(fmt.Sprintf("✔ %d", p.succeeded)))
	b.WriteString(" ")
	b.WriteString(styles.StatusError.Render(fmt.Sprintf("✖ %d", p.failed)))
	b.WriteString("\n")

	if p.HasActive() {
		b.WriteString("\n")
		for i, progress := range p.sortedActive() {
			if i == maxActiveShown {
				b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("  … %d more", len(p.active)-maxActiveShown)))
				b.WriteString("\n")
				break
			}
			line := fmt.Sprintf("  %s %d/%d", progress.Tile, progress.Index, progress.Total)
			b.WriteString(styles.StatusStyle(progress.Status).Render(line))
			b.WriteString("\n")
		}
	}

	if p.lastError != nil {
		b.WriteString(styles.StatusError.Render(fmt.Sprintf("Last error: %s", p.lastError)))
		b.WriteString("\n")
	}

	return b.String()
}

func (p *ProgressTracker) sortedActive() []services.DownloadProgress {
	out := make([]services.DownloadProgress, 0, len(p.active))
	for _, progress := range p.active {
		out = append(out, progress)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func renderProgressBar(current, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}

	return styles.ProgressBarStyle.Render(strings.Repeat("█", filled)) +
		styles.ProgressEmptyStyle.Render(strings.Repeat("░", width-filled))
}
