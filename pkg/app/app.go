package app

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kerbaras/tilegrab/pkg/app/components"
	"github.com/kerbaras/tilegrab/pkg/app/styles"
	"github.com/kerbaras/tilegrab/pkg/data"
	"github.com/kerbaras/tilegrab/pkg/services"
)

type App struct {
	downloader *services.Downloader
	zooms      data.ZoomRange
}

func NewApp(downloader *services.Downloader, zooms data.ZoomRange) *App {
	return &App{downloader: downloader, zooms: zooms}
}

type progressMsg services.DownloadProgress

type doneMsg struct {
	report data.RunReport
	err    error
}

// Run downloads with a spinner UI. Ctrl+C stops after the current batch.
func (a *App) Run(ctx context.Context) (data.RunReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(cancel))

	runDone := make(chan doneMsg, 1)
	go func() {
		report, err := a.downloader.Run(ctx, a.zooms)
		a.downloader.Close()
		runDone <- doneMsg{report: report, err: err}
	}()

	// Forward progress until the channel is closed, then report completion,
	// so the final message always follows every tile event.
	go func() {
		for progress := range a.downloader.GetProgressChannel() {
			p.Send(progressMsg(progress))
		}
		p.Send(<-runDone)
	}()

	final, err := p.Run()
	if err != nil {
		return data.RunReport{}, err
	}
	m := final.(*model)
	return m.report, m.err
}

// RunPlain downloads printing one line per settled tile to w.
func (a *App) RunPlain(ctx context.Context, w io.Writer) (data.RunReport, error) {
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for progress := range a.downloader.GetProgressChannel() {
			if line := FormatLine(progress); line != "" {
				fmt.Fprintln(w, line)
			}
		}
	}()

	report, err := a.downloader.Run(ctx, a.zooms)
	a.downloader.Close()
	<-printed
	return report, err
}

type model struct {
	spinner    spinner.Model
	tracker    *components.ProgressTracker
	cancel     context.CancelFunc
	status     string
	cancelling bool
	done       bool
	report     data.RunReport
	err        error
}

func newModel(cancel context.CancelFunc) *model {
	return &model{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.SpinnerStyle)),
		tracker: components.NewProgressTracker(60),
		cancel:  cancel,
		status:  "clear...",
	}
}

func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.tracker.SetWidth(min(msg.Width, 100))

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.cancelling {
				m.cancelling = true
				m.cancel()
			}
		}
		return m, nil

	case progressMsg:
		progress := services.DownloadProgress(msg)
		if progress.Status == services.StatusClearing {
			m.tracker.Clear()
		}
		m.tracker.Update(progress)
		if progress.Status == services.StatusDownloading {
			m.status = fmt.Sprintf("Download... %d/%d", progress.Index, progress.Total)
		}
		if line := FormatLine(progress); line != "" {
			return m, tea.Println(line)
		}
		return m, nil

	case doneMsg:
		m.done = true
		m.report = msg.report
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) View() string {
	if m.done {
		return ""
	}

	status := m.status
	if m.cancelling {
		status = "stopping after the current batch..."
	}

	view := m.spinner.View() + " " + styles.TextStyle.Render(status) + "\n"
	if tracker := m.tracker.View(); tracker != "" {
		view += "\n" + tracker
	}
	return view + styles.HelpStyle.Render("q/ctrl+c: stop after the current batch") + "\n"
}
