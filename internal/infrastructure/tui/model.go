// Package tui is the interactive chat front end built on bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/Wccurate/NLP-Frontend/internal/adapters/render"
	"github.com/Wccurate/NLP-Frontend/internal/domain/entities"
	"github.com/Wccurate/NLP-Frontend/internal/domain/ports"
	"github.com/Wccurate/NLP-Frontend/internal/domain/usecases"
)

const (
	inputHeight  = 3
	headerHeight = 2
)

// Notifier wakes the program when the conversation changes. Notify never
// blocks; bursts of changes collapse into one wake-up and the model reads a
// fresh snapshot.
type Notifier struct {
	ch   chan struct{}
	done chan struct{}
	once sync.Once
}

// NewNotifier creates a Notifier. Pass its Notify method to
// usecases.OnChange.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1), done: make(chan struct{})}
}

// Close releases a pending wait. Run calls it when the program exits.
func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.once.Do(func() { close(n.done) })
}

// Notify implements the conversation change callback.
func (n *Notifier) Notify(usecases.State) {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

func (n *Notifier) wait() tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-n.ch:
			return changedMsg{}
		case <-n.done:
			return nil
		}
	}
}

type (
	changedMsg    struct{}
	startedMsg    struct{}
	submitDoneMsg struct{ err error }
	attachedMsg   struct {
		file *entities.Attachment
		path string
		err  error
	}
)

// Options wires the model's collaborators.
type Options struct {
	Conversation *usecases.Conversation
	Loader       ports.AttachmentLoader
	Renderer     *render.Renderer
	Notifier     *Notifier
	Logger       *zap.Logger
}

// Model is the bubbletea model for one chat session.
type Model struct {
	ctx      context.Context
	conv     *usecases.Conversation
	loader   ports.AttachmentLoader
	renderer *render.Renderer
	notifier *Notifier
	logger   *zap.Logger

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	state   usecases.State
	pending bool   // Enter pressed, submit not yet returned
	notice  string // feedback for slash commands
	width   int
	height  int // terminal height, 0 until the first resize
}

// NewModel builds the chat model. ctx bounds every backend call it makes.
func NewModel(ctx context.Context, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a question, or /attach <path>"
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(render.Accent)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := Model{
		ctx:      ctx,
		conv:     opts.Conversation,
		loader:   opts.Loader,
		renderer: opts.Renderer,
		notifier: opts.Notifier,
		logger:   logger,
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		width:    80,
	}
	m.refresh()
	return m
}

// Init starts the spinner, the startup checks and the change listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.startCmd(),
		m.notifier.wait(),
	)
}

func (m Model) startCmd() tea.Cmd {
	conv, ctx := m.conv, m.ctx
	return func() tea.Msg {
		conv.Start(ctx)
		return startedMsg{}
	}
}

func (m Model) submitCmd() tea.Cmd {
	conv, ctx := m.conv, m.ctx
	return func() tea.Msg {
		return submitDoneMsg{err: conv.Submit(ctx)}
	}
}

func (m Model) attachCmd(path string) tea.Cmd {
	loader, ctx := m.loader, m.ctx
	return func() tea.Msg {
		file, err := loader.Load(ctx, path)
		return attachedMsg{file: file, path: path, err: err}
	}
}

// Update handles one message, then resizes the viewport to the space left
// by everything else on screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.layout()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case changedMsg:
		m.refresh()
		return m, m.notifier.wait()

	case startedMsg:
		m.logger.Debug("startup finished",
			zap.Stringer("health", m.state.Health),
			zap.Int("messages", len(m.state.Messages)))
		m.refresh()
		return m, nil

	case submitDoneMsg:
		m.pending = false
		if msg.err == nil {
			m.input.Reset()
		}
		m.refresh()
		return m, nil

	case attachedMsg:
		if msg.err != nil {
			m.logger.Warn("attach failed", zap.String("path", msg.path), zap.Error(msg.err))
			m.notice = fmt.Sprintf("Could not attach %s: %v", msg.path, msg.err)
			return m, nil
		}
		if err := m.conv.Attach(msg.file); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = ""
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyEnter:
		if m.busy() {
			return m, nil
		}
		text := m.input.Value()
		if strings.HasPrefix(strings.TrimSpace(text), "/") {
			return m.handleCommand(strings.TrimSpace(text))
		}
		if err := m.conv.SetDraft(text); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = ""
		m.pending = true
		m.refresh()
		return m, m.submitCmd()
	}

	if m.busy() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleCommand runs a slash command typed into the input line.
func (m Model) handleCommand(line string) (Model, tea.Cmd) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	m.input.Reset()
	m.notice = ""

	switch name {
	case "/attach":
		if arg == "" {
			m.notice = "Usage: /attach <path>"
			return m, nil
		}
		if m.loader == nil {
			m.notice = "Attachments are not available"
			return m, nil
		}
		return m, m.attachCmd(arg)

	case "/detach":
		if err := m.conv.Detach(); err != nil {
			m.notice = err.Error()
		}

	case "/dismiss":
		kind, ok := bannerKinds[arg]
		if !ok {
			m.notice = "Usage: /dismiss offline|history|send"
			return m, nil
		}
		m.conv.Dismiss(kind)

	default:
		m.notice = fmt.Sprintf("Unknown command %s", name)
	}

	m.refresh()
	return m, nil
}

var bannerKinds = map[string]usecases.BannerKind{
	"offline": usecases.BannerOffline,
	"history": usecases.BannerHistory,
	"send":    usecases.BannerSend,
}

func (m Model) busy() bool {
	return m.pending || m.state.Sending
}

// refresh pulls a fresh snapshot and re-renders the log.
func (m *Model) refresh() {
	m.state = m.conv.Snapshot()
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderer.Log(m.state))
	if atBottom || m.state.Sending {
		m.viewport.GotoBottom()
	}
	if m.busy() {
		m.input.Blur()
	} else {
		m.input.Focus()
	}
}

// layout gives the viewport whatever height the header, banners,
// attachment line, notice and input leave free.
func (m *Model) layout() {
	if m.height == 0 {
		return
	}
	chrome := headerHeight + inputHeight
	if banners := m.renderer.Banners(m.state.Banners); banners != "" {
		chrome += lipgloss.Height(banners)
	}
	if m.state.Attachment != nil {
		chrome++
	}
	if m.notice != "" {
		chrome++
	}
	m.viewport.Height = max(m.height-chrome, 3)
}

// View renders the whole screen.
func (m Model) View() string {
	sections := []string{m.header()}
	if banners := m.renderer.Banners(m.state.Banners); banners != "" {
		sections = append(sections, banners)
	}
	sections = append(sections, m.viewport.View())

	if m.state.Attachment != nil {
		sections = append(sections, render.DefaultStyles().FileBadge.Render(
			fmt.Sprintf("%s %s (%d bytes)", render.TextFileBadge, m.state.Attachment.Name, len(m.state.Attachment.Data))))
	}
	if m.notice != "" {
		sections = append(sections, render.DefaultStyles().Muted.Render(m.notice))
	}

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(render.Accent).
		Padding(0, 1)
	sections = append(sections, inputStyle.Render(m.input.View()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) header() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(render.Primary).Render("ragchat")

	var status string
	switch {
	case m.busy():
		status = m.spinner.View() + " Sending…"
	case m.state.LoadingHistory:
		status = m.spinner.View() + " " + render.TextLoading
	case m.state.Health == usecases.HealthOffline:
		status = lipgloss.NewStyle().Foreground(render.Destructive).Render("Offline")
	case m.state.Health == usecases.HealthOK:
		status = lipgloss.NewStyle().Foreground(render.Accent).Render("Ready")
	}
	help := render.DefaultStyles().Muted.Render("Enter: send | /attach <path> | /detach | Ctrl+C: quit")
	return title + "  " + status + "\n" + help
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, m Model) error {
	defer m.notifier.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
