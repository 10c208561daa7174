package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/internal/scanner"
	"github.com/urfave/cli/v3"
)

// Watch states.
const (
	StateIntervalSelect = iota
	StateWatching
)

// ScanFunc scans the watched pairs at one candle interval.
type ScanFunc func(ctx context.Context, interval string) (scanner.Result, error)

// ScanResultMsg carries a finished scan.
type ScanResultMsg struct {
	Generation int
	Result     scanner.Result
	At         time.Time
}

// ScanErrorMsg reports a scan that failed as a whole.
type ScanErrorMsg struct {
	Generation int
	Err        error
}

type refreshMsg struct {
	Generation int
}

// WatchModel is the Bubble Tea model of the watch command.
type WatchModel struct {
	ctx          context.Context
	scan         ScanFunc
	refresh      time.Duration
	state        int
	intervalList list.Model
	signalTable  table.Model
	interval     string
	result       scanner.Result
	lastScan     time.Time
	scanning     bool
	generation   int
	err          error
	width        int
	height       int
}

// NewWatchModel starts on the interval list unless interval is given.
func NewWatchModel(ctx context.Context, scan ScanFunc, interval string, refresh time.Duration) WatchModel {
	m := WatchModel{
		ctx:          ctx,
		scan:         scan,
		refresh:      refresh,
		state:        StateIntervalSelect,
		intervalList: NewIntervalList(),
		signalTable:  NewSignalTable(),
		interval:     interval,
		result:       scanner.Result{},
		lastScan:     time.Time{},
		scanning:     false,
		generation:   0,
		err:          nil,
		width:        0,
		height:       0,
	}

	if interval != "" {
		m.state = StateWatching
	}

	return m
}

// Init implements tea.Model.
func (m WatchModel) Init() tea.Cmd {
	if m.state == StateWatching {
		return func() tea.Msg { return refreshMsg{Generation: m.generation} }
	}

	return nil
}

// Update implements tea.Model.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.state == StateWatching {
				m.generation++
				m.state = StateIntervalSelect
				m.result = scanner.Result{}
				m.err = nil
				m.scanning = false

				return m, nil
			}
		case "r":
			if m.state == StateWatching && !m.scanning {
				return m.startScan()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.intervalList.SetSize(msg.Width, msg.Height-4)
		m.signalTable.SetWidth(msg.Width)
		m.signalTable.SetHeight(max(msg.Height-8, 3))

		return m, nil

	case refreshMsg:
		if msg.Generation != m.generation || m.state != StateWatching {
			return m, nil
		}

		return m.startScan()

	case ScanResultMsg:
		if msg.Generation != m.generation {
			return m, nil
		}

		m.scanning = false
		m.err = nil
		m.result = msg.Result
		m.lastScan = msg.At
		m.signalTable = UpdateSignalRows(m.signalTable, msg.Result)

		return m, m.scheduleRefresh()

	case ScanErrorMsg:
		if msg.Generation != m.generation {
			return m, nil
		}

		m.scanning = false
		m.err = msg.Err

		return m, m.scheduleRefresh()
	}

	switch m.state {
	case StateIntervalSelect:
		return m.updateIntervalSelect(msg)
	case StateWatching:
		var cmd tea.Cmd
		m.signalTable, cmd = m.signalTable.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m WatchModel) updateIntervalSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if item, ok := m.intervalList.SelectedItem().(listItem); ok {
			m.interval = item.name
			m.state = StateWatching

			return m.startScan()
		}
	}

	var cmd tea.Cmd
	m.intervalList, cmd = m.intervalList.Update(msg)

	return m, cmd
}

// startScan bumps the generation so results and refreshes of older scans are dropped.
func (m WatchModel) startScan() (tea.Model, tea.Cmd) {
	m.generation++
	m.scanning = true

	ctx, scan, interval, generation := m.ctx, m.scan, m.interval, m.generation

	return m, func() tea.Msg {
		result, err := scan(ctx, interval)
		if err != nil {
			return ScanErrorMsg{Generation: generation, Err: err}
		}

		return ScanResultMsg{Generation: generation, Result: result, At: time.Now()}
	}
}

func (m WatchModel) scheduleRefresh() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}

	generation := m.generation

	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return refreshMsg{Generation: generation}
	})
}

// View implements tea.Model.
func (m WatchModel) View() string {
	var s strings.Builder

	switch m.state {
	case StateIntervalSelect:
		s.WriteString(TitleStyle.Render("Bollinger Heikin-Ashi Watch"))
		s.WriteString("\n\n")
		s.WriteString(m.intervalList.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Press Enter to select, q to quit"))

	case StateWatching:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("Signals (%s)", m.interval)))
		s.WriteString("\n\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n\n")
		}

		switch {
		case m.lastScan.IsZero():
			s.WriteString("Scanning...\n")
		case len(m.signalTable.Rows()) == 0:
			s.WriteString(fmt.Sprintf("No signals among %d pairs\n", m.result.Scanned))
		default:
			s.WriteString(m.signalTable.View())
			s.WriteString("\n")
		}

		status := "idle"
		if m.scanning {
			status = "scanning"
		}

		last := "never"
		if !m.lastScan.IsZero() {
			last = m.lastScan.Format("15:04:05")
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render(fmt.Sprintf("q: quit | r: rescan | Esc: interval | last scan: %s | %s", last, status)))
	}

	return s.String()
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Interactive view that rescans the pairs periodically",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "symbols",
				Aliases: []string{"s"},
				Usage:   "Symbols to watch instead of the pairs file",
			},
			&cli.StringFlag{
				Name:  "interval",
				Usage: "Candle interval. Leave empty to pick one interactively",
			},
			&cli.DurationFlag{
				Name:  "refresh",
				Usage: "Time between scans",
				Value: 5 * time.Minute,
			},
		},
		Action: watchAction,
	}
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	symbols, err := a.resolveSymbols(cmd.StringSlice("symbols"))
	if err != nil {
		return err
	}

	fetcher, err := a.newFetcher()
	if err != nil {
		return err
	}

	detector, err := a.newDetector()
	if err != nil {
		return err
	}

	scan := func(ctx context.Context, interval string) (scanner.Result, error) {
		config := a.cfg.ScannerConfig()
		config.Interval = interval

		// Zap output would tear the alternate screen. Failures show up as table rows.
		s, err := scanner.NewScanner(fetcher, detector, config, logger.NewNopLogger())
		if err != nil {
			return scanner.Result{}, err
		}

		return s.Scan(ctx, symbols)
	}

	model := NewWatchModel(ctx, scan, cmd.String("interval"), cmd.Duration("refresh"))

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()

	return err
}
