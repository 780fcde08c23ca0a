package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/ninetynine/internal/game"
)

const (
	logPane   = 0
	inputPane = 1

	sidebarMinWidth = 28
)

// Runner is the part of game.Runner the UI drives.
type Runner interface {
	Subscribe(o game.Observer)
	Play(seatID, cardID string, opts game.PlayOptions) (game.PlayResult, error)
	Restart() error
	Stop()
}

// Model is the Bubble Tea model for a local game: one human seat playing
// against bots through a game.Runner.
type Model struct {
	runner Runner
	seatID string
	logger *log.Logger
	queue  *updateQueue

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// State
	view        game.PlayerView
	gameLog     []string
	status      string
	statusStyle lipgloss.Style
	quitting    bool
	focusedPane int

	// Dimensions
	width       int
	height      int
	initialized bool
}

// New creates a model for seatID and subscribes it to runner.
func New(runner Runner, seatID string, logger *log.Logger) *Model {
	// Will be properly sized when WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 40
	ti.PromptStyle = lipgloss.NewStyle().Foreground(focusColor).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		runner:      runner,
		seatID:      seatID,
		logger:      logger.WithPrefix("tui"),
		queue:       newUpdateQueue(),
		logViewport: vp,
		actionInput: ti,
		focusedPane: inputPane,
		statusStyle: InfoStyle,
	}
	runner.Subscribe(m.queue)
	m.apply(m.queue.drain())
	return m
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.queue.wait())
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case updatesMsg:
		m.apply(msg)
		return m, m.queue.wait()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, m.quit()
		case "tab":
			if m.focusedPane == logPane {
				m.focusedPane = inputPane
				m.actionInput.Focus()
			} else {
				m.focusedPane = logPane
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == inputPane {
				input := strings.TrimSpace(m.actionInput.Value())
				m.actionInput.SetValue("")
				if cmd := m.submit(input); cmd != nil {
					return m, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == logPane {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == logPane {
				m.logViewport.ScrollDown(1)
			}
		case "pgup":
			if m.focusedPane == logPane {
				m.logViewport.HalfPageUp()
			}
		case "pgdown":
			if m.focusedPane == logPane {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == logPane {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == logPane {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == inputPane {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// apply folds runner updates into the model.
func (m *Model) apply(updates []game.Update) {
	for _, update := range updates {
		m.view = update.View(m.seatID)
		for _, event := range update.Events {
			m.AddLogEntry(game.FormatEvent(event))
		}
	}
}

// submit handles one line of input. It returns a command only when the
// program should quit.
func (m *Model) submit(input string) tea.Cmd {
	cmd, err := ParseCommand(input, m.view.Hand)
	if errors.Is(err, errEmpty) {
		return nil
	}
	if err != nil {
		m.setStatus(err.Error(), ErrorStyle)
		return nil
	}

	switch cmd.Kind {
	case CommandQuit:
		return m.quit()
	case CommandHelp:
		m.setStatus(helpText, InfoStyle)
	case CommandRestart:
		if m.view.Status != game.StatusEnded {
			m.setStatus("The game is still going.", WarningStyle)
			return nil
		}
		if err := m.runner.Restart(); err != nil {
			m.setStatus(err.Error(), ErrorStyle)
			return nil
		}
		m.setStatus("", InfoStyle)
	case CommandPlay:
		if _, err := m.runner.Play(m.seatID, cmd.Card.ID, cmd.Options); err != nil {
			m.setStatus(rejectionText(err), ErrorStyle)
			return nil
		}
		m.setStatus("", InfoStyle)
	}
	// Plays notify synchronously, so pick up the result now.
	m.apply(m.queue.drain())
	return nil
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.runner.Stop()
	return tea.Sequence(tea.ClearScreen, tea.Quit)
}

func (m *Model) setStatus(text string, style lipgloss.Style) {
	m.status = text
	m.statusStyle = style
}

func rejectionText(err error) string {
	var rejected *game.RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return capitalize(rejected.Message) + "."
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderFor(inputPane)).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), sidebarMinWidth)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderFor(logPane)).
		Width(logWidth).
		Height(paneHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logBox, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) borderFor(pane int) lipgloss.Color {
	if m.focusedPane == pane {
		return focusColor
	}
	return borderColor
}

// renderSidebarPane shows the total and the seats around the table.
func (m *Model) renderSidebarPane() string {
	var content strings.Builder

	content.WriteString(HeaderStyle.Render(" Ninety-Nine "))
	content.WriteString("\n\n")
	content.WriteString(totalStyle(m.view.Total).Render(fmt.Sprintf("Total: %d", m.view.Total)))
	content.WriteString("\n")
	direction := "→ clockwise"
	if m.view.Direction < 0 {
		direction = "← counter-clockwise"
	}
	content.WriteString(InfoStyle.Render(fmt.Sprintf("%s · deck %d", direction, m.view.DrawCount)))
	content.WriteString("\n")
	if m.view.LastCard != nil {
		content.WriteString(InfoStyle.Render("Last: "))
		content.WriteString(cardStyle(*m.view.LastCard).Render(m.view.LastCard.Label))
		content.WriteString("\n")
	}
	content.WriteString("\n")

	current := m.view.CurrentSeatID()
	for _, seat := range m.view.Seats {
		marker := "  "
		if seat.ID == current && m.view.Status == game.StatusPlaying {
			marker = "▶ "
		}
		line := fmt.Sprintf("%s%s (%d)", marker, seat.Name, seat.CardCount)
		if seat.ID == m.seatID {
			line += " · you"
		}
		if seat.BotState == game.BotThinking {
			line += " · thinking"
		}

		style := PlayerInfoStyle
		if !seat.Alive {
			style = InfoStyle.Strikethrough(true)
		}
		content.WriteString(style.Render(line))
		content.WriteString("\n")
	}

	if m.view.Winner != nil {
		content.WriteString("\n")
		content.WriteString(SuccessStyle.Render(fmt.Sprintf("%s wins!", m.view.Winner.Name)))
		content.WriteString("\n")
	}

	return content.String()
}

// renderActionPane renders the hand, the prompt and any status line.
func (m *Model) renderActionPane() string {
	var content strings.Builder

	content.WriteString(m.renderHand())
	content.WriteString("\n")

	switch {
	case m.view.Status == game.StatusEnded:
		m.actionInput.Placeholder = "restart or quit"
	case m.isMyTurn():
		m.actionInput.Placeholder = "card number, e.g. 3 or 2 + or 1 75"
	default:
		m.actionInput.Placeholder = "waiting for the others..."
	}
	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	if m.status != "" {
		content.WriteString(m.statusStyle.Render(m.status))
		content.WriteString("\n")
	}

	if m.focusedPane == logPane {
		content.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render("Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	}
	return content.String()
}

func (m *Model) renderHand() string {
	if len(m.view.Hand) == 0 {
		if m.view.Status == game.StatusPlaying {
			return HandInfoStyle.Render("You are out. Watching the rest of the game...")
		}
		return HandInfoStyle.Render("Waiting for the deal...")
	}

	label := "Your hand:"
	if m.isMyTurn() {
		label = "Your turn:"
	}
	cards := make([]string, len(m.view.Hand))
	for i, card := range m.view.Hand {
		cards[i] = fmt.Sprintf("%s %s", ActionsStyle.Render(fmt.Sprintf("[%s]", usage(i+1, card))), cardStyle(card).Render(card.Label))
	}
	return HandInfoStyle.Render(label) + " " + strings.Join(cards, "  ")
}

func (m *Model) isMyTurn() bool {
	return m.view.Status == game.StatusPlaying && m.view.CurrentSeatID() == m.seatID
}

// AddLogEntry adds an entry to the game log and scrolls to it.
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns a copy of the game log.
func (m *Model) Log() []string {
	return append([]string(nil), m.gameLog...)
}

// Status returns the current status line.
func (m *Model) Status() string {
	return m.status
}

// PlayerView returns the state as the human seat sees it.
func (m *Model) PlayerView() game.PlayerView {
	return m.view
}
