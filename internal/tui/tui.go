// Package tui provides a Bubble Tea terminal shell for fuo.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/fuo/internal/app"
	"github.com/handiism/fuo/internal/collection"
	"github.com/handiism/fuo/internal/download"
	"github.com/handiism/fuo/internal/library"
	"github.com/handiism/fuo/internal/lyric"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/player"
	"github.com/handiism/fuo/internal/playlist"
	"github.com/handiism/fuo/internal/uri"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500")).
			Bold(true)
)

// maxLogs is how many status lines are kept.
const maxLogs = 6

// State is what the keyboard currently drives.
type State int

const (
	// StateBrowse moves through the focused list.
	StateBrowse State = iota
	// StateInput edits the search query.
	StateInput
	// StateSearching waits for search results.
	StateSearching
)

// Pane is the list shown below the player.
type Pane int

const (
	PaneResults Pane = iota
	PanePlaylist
	PaneRecent
)

var paneNames = [...]string{"Search results", "Playlist", "Recently played"}

// LogEntry represents a status message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	app *app.App

	state     State
	pane      Pane
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	logs      []LogEntry
	results   []model.BriefSong
	cursor    int

	// Playback, refreshed by TickMsg and playlist events.
	current  *model.BriefSong
	stage    playlist.Stage
	sentence lyric.Line
	position time.Duration
	duration time.Duration
	playing  player.State

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

// NewModel creates a new TUI model over a started app.
func NewModel(a *app.App) Model {
	ti := textinput.New()
	ti.Placeholder = "song, artist or fuo:// uri"
	ti.CharLimit = 200
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		app:       a,
		state:     StateBrowse,
		pane:      PanePlaylist,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tickProgress())
}

// Message types
type (
	// SearchDoneMsg carries the songs found by a search.
	SearchDoneMsg struct {
		Query string
		Songs []model.BriefSong
		Err   error
	}

	// SongChangedMsg is sent when the playlist moves to another song.
	SongChangedMsg struct {
		Song *model.BriefSong
	}

	// StageMsg is sent for every step of the play pipeline.
	StageMsg struct {
		Stage playlist.Stage
	}

	// SentenceMsg carries the lyric line being sung.
	SentenceMsg struct {
		Line lyric.Line
	}

	// LogMsg adds a status line.
	LogMsg LogEntry

	// TickMsg is for periodic position updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
		if m.state == StateInput {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case SearchDoneMsg:
		m.state = StateBrowse
		if msg.Err != nil {
			m.log(errorEntry(msg.Err.Error()))
			break
		}
		m.results = msg.Songs
		m.pane = PaneResults
		m.cursor = 0
		m.log(LogEntry{Message: fmt.Sprintf("%d song(s) for %q", len(msg.Songs), msg.Query), Level: download.LevelInfo})

	case SongChangedMsg:
		m.current = msg.Song
		m.sentence = lyric.Line{}

	case StageMsg:
		m.stage = msg.Stage

	case SentenceMsg:
		m.sentence = msg.Line

	case LogMsg:
		m.log(LogEntry(msg))

	case TickMsg:
		p := m.app.Player
		m.playing = p.State()
		m.duration = p.Duration()
		if pos := p.Position(); pos.Valid {
			m.position = pos.At
		} else {
			m.position = 0
		}
		cmds = append(cmds, m.progress.SetPercent(m.percent()), m.tickProgress())

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = StateBrowse
		m.textInput.Blur()
		return m, nil
	case "enter":
		q := strings.TrimSpace(m.textInput.Value())
		if q == "" {
			return m, nil
		}
		m.state = StateSearching
		m.textInput.Blur()
		return m, tea.Batch(m.search(q), m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := m.app
	switch msg.String() {
	case "q", "esc":
		m.cancel()
		return m, tea.Quit

	case "/":
		m.state = StateInput
		m.textInput.SetValue("")
		return m, m.textInput.Focus()

	case "tab":
		m.pane = (m.pane + 1) % Pane(len(paneNames))
		m.cursor = 0

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.items())-1 {
			m.cursor++
		}

	case "enter":
		if s, ok := m.selected(); ok {
			a.Playlist.Add(s)
			return m, m.play(s)
		}

	case "a":
		if s, ok := m.selected(); ok && a.Playlist.Add(s) {
			m.log(LogEntry{Message: "added " + s.Title, Level: download.LevelSuccess})
		}

	case "x":
		if s, ok := m.selected(); ok && m.pane == PanePlaylist {
			a.Playlist.Remove(s)
			m.cursor = max(min(m.cursor, len(m.items())-1), 0)
		}

	case "s":
		if s, ok := m.selected(); ok {
			return m, m.save(s)
		}

	case "d":
		if s, ok := m.selected(); ok {
			return m, m.download(s)
		}

	case " ":
		a.Player.Toggle()

	case "n":
		return m, m.step(a.Playlist.Next)

	case "p":
		return m, m.step(func(ctx context.Context) error { return a.Playlist.Previous(ctx) })

	case "m":
		next := (a.Playlist.PlaybackMode() + 1) % 4
		a.Playlist.SetPlaybackMode(next)
		m.log(LogEntry{Message: "playback mode: " + next.String(), Level: download.LevelInfo})

	case "w":
		a.Playlist.SetWatchMode(!a.Playlist.WatchMode())

	case "f":
		mode := "normal"
		if a.ToggleFM() {
			mode = "fm"
		}
		m.log(LogEntry{Message: "mode: " + mode, Level: download.LevelInfo})

	case "left":
		return m, m.seek(-10 * time.Second)

	case "right":
		return m, m.seek(10 * time.Second)
	}
	return m, nil
}

func (m *Model) log(e LogEntry) {
	m.logs = append(m.logs, e)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// errorEntry builds an error status line.
func errorEntry(msg string) LogEntry {
	return LogEntry{Message: msg, Level: download.LevelError}
}

func (m Model) items() []model.BriefSong {
	switch m.pane {
	case PanePlaylist:
		return m.app.Playlist.Songs()
	case PaneRecent:
		return m.app.Recent.List()
	}
	return m.results
}

func (m Model) selected() (model.BriefSong, bool) {
	items := m.items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return model.BriefSong{}, false
	}
	return items[m.cursor], true
}

func (m Model) percent() float64 {
	if m.duration <= 0 {
		return 0
	}
	return min(float64(m.position)/float64(m.duration), 1)
}

// tickProgress returns a command to tick position updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// search runs a song search, or resolves the query when it is a URI.
func (m Model) search(q string) tea.Cmd {
	a := m.app
	ctx := m.ctx
	return func() tea.Msg {
		if strings.HasPrefix(q, uri.Scheme) {
			md, err := a.Resolver.Resolve(q)
			if err != nil {
				return SearchDoneMsg{Query: q, Err: err}
			}
			s, ok := md.(model.BriefSong)
			if !ok {
				return SearchDoneMsg{Query: q, Err: fmt.Errorf("%s is not a song", q)}
			}
			return SearchDoneMsg{Query: q, Songs: []model.BriefSong{s}}
		}
		var songs []model.BriefSong
		var errs []string
		for _, res := range a.Library.SearchAll(ctx, q, library.SearchOptions{Types: []model.SearchType{model.SearchSong}}) {
			if res.ErrMsg != "" {
				errs = append(errs, res.Source+": "+res.ErrMsg)
			}
			songs = append(songs, res.Songs...)
		}
		if len(songs) == 0 && len(errs) > 0 {
			return SearchDoneMsg{Query: q, Err: errors.New(strings.Join(errs, "; "))}
		}
		return SearchDoneMsg{Query: q, Songs: songs}
	}
}

func (m Model) play(s model.BriefSong) tea.Cmd {
	return m.step(func(ctx context.Context) error { return m.app.Playlist.PlayModel(ctx, s) })
}

// step runs a playlist action and reports its failure.
func (m Model) step(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		err := fn(ctx)
		if err == nil || errors.Is(err, playlist.ErrCancelled) {
			return nil
		}
		return LogMsg(errorEntry(err.Error()))
	}
}

func (m Model) seek(d time.Duration) tea.Cmd {
	p := m.app.Player
	return func() tea.Msg {
		pos := p.Position()
		if !pos.Valid {
			return nil
		}
		if err := p.Seek(pos.At + d); err != nil {
			return LogMsg(errorEntry(err.Error()))
		}
		return nil
	}
}

func (m Model) save(s model.BriefSong) tea.Cmd {
	mgr := m.app.Collections
	return func() tea.Msg {
		added, err := mgr.Add(collection.LibraryFile, s)
		switch {
		case err != nil:
			return LogMsg(errorEntry(err.Error()))
		case !added:
			return LogMsg{Message: s.Title + " is already in the library", Level: download.LevelWarning}
		}
		return LogMsg{Message: "saved " + s.Title + " to the library", Level: download.LevelSuccess}
	}
}

func (m Model) download(s model.BriefSong) tea.Cmd {
	a := m.app
	ctx := m.ctx
	return func() tea.Msg {
		results, err := a.Download(ctx, []model.BriefSong{s})
		if err != nil {
			return LogMsg(errorEntry(err.Error()))
		}
		for _, r := range results {
			if r.Err != nil {
				return LogMsg(errorEntry(r.Err.Error()))
			}
		}
		return nil
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("♫ fuo"))
	b.WriteString("\n")

	b.WriteString(m.viewPlayer())
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(subtitleStyle.Render("Search:"))
		b.WriteString("\n")
		b.WriteString(m.textInput.View())
		b.WriteString("\n\n")
	case StateSearching:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Searching..."))
		b.WriteString("\n\n")
	}

	b.WriteString(m.viewList())
	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewPlayer() string {
	var b strings.Builder

	pl := m.app.Playlist
	if m.current == nil {
		b.WriteString(dimStyle.Render("Nothing playing"))
	} else {
		b.WriteString(successStyle.Render(m.current.Title))
		if m.current.ArtistsName != "" {
			b.WriteString(infoStyle.Render(" - " + m.current.ArtistsName))
		}
	}
	b.WriteString("\n")
	if m.stage != playlist.StageIdle {
		b.WriteString(m.spinner.View() + " " + dimStyle.Render(m.stage.String()))
	} else {
		b.WriteString(dimStyle.Render(m.playing.String()))
	}
	b.WriteString("\n")

	b.WriteString(m.progress.ViewAs(m.percent()))
	b.WriteString(" ")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s / %s",
		uri.FormatDuration(m.position.Milliseconds()), uri.FormatDuration(m.duration.Milliseconds()))))
	b.WriteString("\n")

	if m.sentence.Origin != "" {
		b.WriteString(warningStyle.Render(m.sentence.Origin))
		if m.sentence.Trans != "" {
			b.WriteString("\n" + dimStyle.Render(m.sentence.Trans))
		}
	}

	mode := pl.PlaybackMode().String() + " | " + pl.Mode().String()
	if pl.WatchMode() {
		mode += " | watch"
	}
	return boxStyle.Render(b.String()) + "\n" + dimStyle.Render(mode)
}

func (m Model) viewList() string {
	var b strings.Builder

	items := m.items()
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%s (%d)", paneNames[m.pane], len(items))))
	b.WriteString("\n")

	rows := 10
	if m.height > 0 {
		rows = max(m.height-22, 3)
	}
	start := max(m.cursor-rows+1, 0)
	for i := start; i < len(items) && i < start+rows; i++ {
		s := items[i]
		line := fmt.Sprintf("%s - %s", s.Title, s.ArtistsName)
		if s.AlbumName != "" {
			line += " - " + s.AlbumName
		}
		line = fmt.Sprintf("%-10s %s", "["+s.Source+"]", line)
		switch {
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("› " + line))
		case m.current != nil && s.Key() == m.current.Key():
			b.WriteString(successStyle.Render("♪ " + line))
		default:
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: search • esc: back"
	case StateSearching:
		return "ctrl+c: quit"
	}
	return "/: search • tab: pane • enter: play • a: add • x: remove • s: save • d: download • " +
		"space: pause • n/p: next/prev • ←/→: seek • m: mode • f: fm • w: watch • q: quit"
}

// Run starts the TUI over a started app. Playlist, lyric and download
// events are forwarded to the program while it runs.
func Run(a *app.App) error {
	p := tea.NewProgram(NewModel(a), tea.WithAltScreen())

	disconnect := connect(a, p.Send)
	defer disconnect()

	_, err := p.Run()
	return err
}

// connect forwards the app's signals to send and returns a function
// undoing it.
func connect(a *app.App, send func(tea.Msg)) func() {
	songTok := a.Playlist.SongChanged.Connect(func(s *model.BriefSong) { send(SongChangedMsg{Song: s}) })
	stageTok := a.Playlist.StageChanged.Connect(func(s playlist.Stage) { send(StageMsg{Stage: s}) })
	badTok := a.Playlist.SongMarkedBad.Connect(func(s model.BriefSong) {
		send(LogMsg{Message: "skipped " + s.Title, Level: download.LevelWarning})
	})
	lyricTok := a.Lyric.SentenceChanged.Connect(func(ln lyric.Line) { send(SentenceMsg{Line: ln}) })
	dlTok := a.DownloadProgress.Connect(func(ev download.ProgressEvent) {
		if ev.Level != download.LevelVerbose {
			send(LogMsg{Message: ev.Message, Level: ev.Level})
		}
	})
	return func() {
		a.Playlist.SongChanged.Disconnect(songTok)
		a.Playlist.StageChanged.Disconnect(stageTok)
		a.Playlist.SongMarkedBad.Disconnect(badTok)
		a.Lyric.SentenceChanged.Disconnect(lyricTok)
		a.DownloadProgress.Disconnect(dlTok)
	}
}
