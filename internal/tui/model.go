// Package tui is the terminal shell around the pipeline: one refresh action
// with a progress indicator and a toggle for the underlying table.
package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
	"github.com/ewilliams-labs/chartwatch/internal/core/services"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	gainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const titleColWidth = 28

type loadedMsg struct {
	songs   []domain.Song
	derived []domain.Derived
	err     error
}

type progressMsg struct {
	done  int
	total int
	title string
	err   error
}

type doneMsg struct {
	summary services.RefreshSummary
}

// Model is the bubbletea model for the shell.
type Model struct {
	library   *services.Library
	refresher *services.Refresher
	pipeline  services.PipelineConfig
	chartName string

	derived   []domain.Derived
	songs     []domain.Song
	err       error
	status    string
	showTable bool

	refreshing bool
	done       int
	total      int
	events     chan tea.Msg

	bar progress.Model
	tbl table.Model
}

// New constructs the shell model.
func New(library *services.Library, refresher *services.Refresher, pipeline services.PipelineConfig, chartName string) Model {
	return Model{
		library:   library,
		refresher: refresher,
		pipeline:  pipeline,
		chartName: chartName,
		bar:       progress.New(progress.WithDefaultGradient()),
		tbl:       buildTable(nil),
	}
}

// Init loads the table on startup.
func (m Model) Init() tea.Cmd {
	return m.load
}

func (m Model) load() tea.Msg {
	songs, err := m.library.Songs(context.Background())
	if err != nil {
		return loadedMsg{err: err}
	}
	derived, err := services.Derive(songs, m.pipeline)
	return loadedMsg{songs: songs, derived: derived, err: err}
}

func (m Model) startRefresh() (Model, tea.Cmd) {
	if m.refreshing {
		return m, nil
	}
	m.refreshing = true
	m.done, m.total = 0, 0
	m.status = "Fetching latest YouTube data..."
	m.events = make(chan tea.Msg, 1)

	songs := m.songs
	refresher := m.refresher
	events := m.events
	go func() {
		summary := refresher.Run(context.Background(), songs, func(done, total int, song domain.Song, err error) {
			events <- progressMsg{done: done, total: total, title: song.Title, err: err}
		})
		events <- doneMsg{summary: summary}
		close(events)
	}()

	return m, m.nextEvent
}

func (m Model) nextEvent() tea.Msg {
	return <-m.events
}

// Update handles shell input and refresh progress.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m.startRefresh()
		case "t":
			m.showTable = !m.showTable
			return m, nil
		}
		if m.showTable {
			var cmd tea.Cmd
			m.tbl, cmd = m.tbl.Update(msg)
			return m, cmd
		}
		return m, nil

	case loadedMsg:
		m.songs = msg.songs
		m.derived = msg.derived
		m.err = msg.err
		m.tbl = buildTable(msg.songs)
		return m, nil

	case progressMsg:
		m.done = msg.done
		m.total = msg.total
		if msg.err != nil {
			m.status = fmt.Sprintf("Skipped %s", msg.title)
		} else {
			m.status = fmt.Sprintf("Updated %s", msg.title)
		}
		return m, m.nextEvent

	case doneMsg:
		m.refreshing = false
		m.status = fmt.Sprintf("Refresh finished: %d updated, %d skipped of %d",
			msg.summary.Updated, msg.summary.Skipped, msg.summary.Total)
		return m, m.load
	}

	return m, nil
}

// View renders the comparison summary, the optional raw table, and the
// refresh progress.
func (m Model) View() string {
	out := titleStyle.Render(m.chartName) + "\n\n"

	if m.err != nil {
		out += errStyle.Render(fmt.Sprintf("error: %v", m.err)) + "\n"
	} else {
		out += m.comparisonView()
	}

	if m.refreshing && m.total > 0 {
		out += "\n" + m.bar.ViewAs(float64(m.done)/float64(m.total)) + "\n"
	}
	if m.status != "" {
		out += statusStyle.Render(m.status) + "\n"
	}

	if m.showTable {
		out += "\n" + m.tbl.View() + "\n"
	}

	out += helpStyle.Render("\nr refresh · t toggle raw data · q quit\n")
	return out
}

func (m Model) comparisonView() string {
	if len(m.derived) == 0 {
		return statusStyle.Render("no eligible records\n")
	}

	var out string
	for _, d := range m.derived {
		diff := fmt.Sprintf("Δ%+.0f%%", d.ProportionDifference)
		if d.ProportionDifference >= 0 {
			diff = gainStyle.Render(diff)
		} else {
			diff = lossStyle.Render(diff)
		}
		// runewidth keeps CJK titles aligned in one column.
		out += fmt.Sprintf("%s views %3.0f%%  votes %3.0f%%  %s  (%s views/day)\n",
			runewidth.FillRight(runewidth.Truncate(d.Title, titleColWidth, "…"), titleColWidth),
			d.NormalizedViews, d.NormalizedVotes, diff,
			humanize.CommafWithDigits(d.ViewsPerDay, 0))
	}
	return out
}

func buildTable(songs []domain.Song) table.Model {
	columns := []table.Column{
		{Title: "Title", Width: titleColWidth},
		{Title: "view per day", Width: 14},
		{Title: "Total", Width: 10},
		{Title: "Year", Width: 6},
		{Title: "youtube_id", Width: 14},
	}

	rows := make([]table.Row, len(songs))
	for i, s := range songs {
		views, votes := "", ""
		if s.HasViews {
			views = humanize.CommafWithDigits(s.ViewsPerDay, 0)
		}
		if s.HasVotes {
			votes = humanize.CommafWithDigits(s.VoteTotal, 0)
		}
		rows[i] = table.Row{s.Title, views, votes, strconv.Itoa(s.Year), s.VideoID}
	}

	return table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(12),
		table.WithFocused(true),
	)
}
