package main

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/khlee2637/storyforge/pkg/engine"
	"github.com/khlee2637/storyforge/pkg/story"
)

const (
	NarratorName    = "Narrator"
	PlaceHolderText = "What do you do?"
)

// entry is one line of the play transcript.
type entry struct {
	role string // "narrator", "player", "error", "system"
	text string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config        *ConsoleConfig
	client        *http.Client
	storyViewport viewport.Model
	statsViewport viewport.Model
	textarea      textarea.Model
	ready         bool
	width         int
	height        int
	err           error
	loading       bool

	// Story selection state
	showStoryModal bool
	stories        []story.Summary
	selectedStory  int
	loadingStories bool

	// Quit confirmation state
	showQuitModal bool

	// Play state
	storyID        uuid.UUID
	storyTitle     string
	current        *engine.PlayResponse
	selectedChoice int
	transcript     []entry

	// Progress bar state
	progressTick int
}

type storiesLoadedMsg struct {
	stories []story.Summary
	err     error
}

type playStartedMsg struct {
	resp *engine.PlayResponse
	err  error
}

type playAdvancedMsg struct {
	resp *engine.PlayResponse
	err  error
}

type progressTickMsg struct{}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	statsPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	endingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	choiceSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true

	statsVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		client:         client,
		textarea:       ta,
		storyViewport:  storyVp,
		statsViewport:  statsVp,
		ready:          false,
		showStoryModal: true,
		loadingStories: true,
		selectedStory:  0,
	}
}

// inputMode reports whether the current node wants free text.
func (m *ConsoleUI) inputMode() bool {
	return m.current != nil && !m.current.IsGameOver &&
		(m.current.NextNodeData.InputPrompt != "" || m.current.AwaitingResolution)
}

// writeStoryContent rebuilds the transcript view for the current width.
func (m *ConsoleUI) writeStoryContent() {
	storyWidth := m.storyViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render(strings.ToUpper(m.storyTitle)) + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(storyWidth-6, 1))) + "\n\n")

	for _, e := range m.transcript {
		switch e.role {
		case "narrator":
			prefix := narratorStyle.Render(NarratorName + ": ")
			content.WriteString(prefix + wordwrap.String(e.text, max(storyWidth-len(NarratorName)-2, 10)) + "\n\n")
		case "player":
			content.WriteString(playerStyle.Render("You: ") + wordwrap.String(e.text, max(storyWidth-6, 10)) + "\n\n")
		case "error":
			content.WriteString(errorStyle.Render("Error: "+e.text) + "\n\n")
		case "ending":
			content.WriteString(endingStyle.Render(wordwrap.String(e.text, max(storyWidth-2, 10))) + "\n\n")
		case "system":
			content.WriteString(promptStyle.Render(wordwrap.String(e.text, max(storyWidth-2, 10))) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	} else if m.current != nil && !m.current.IsGameOver && !m.inputMode() && len(m.current.Choices) > 0 {
		content.WriteString(m.renderChoices())
	}

	m.storyViewport.SetContent(content.String())
	m.storyViewport.GotoBottom()
}

// renderChoices lists the current node's outgoing branches.
func (m *ConsoleUI) renderChoices() string {
	var b strings.Builder
	if len(m.current.Choices) == 1 {
		label := m.current.Choices[0].Label
		if label == "" {
			label = "Continue"
		}
		b.WriteString(choiceSelectedStyle.Render("▶ "+label) + "\n")
		b.WriteString("\n" + promptStyle.Render("Press Enter to continue"))
		return b.String()
	}

	for i, c := range m.current.Choices {
		label := c.Label
		if label == "" {
			label = c.EdgeID
		}
		if i == m.selectedChoice {
			b.WriteString(choiceSelectedStyle.Render(fmt.Sprintf("▶ %s", label)) + "\n")
		} else {
			b.WriteString(choiceStyle.Render(fmt.Sprintf("  %s", label)) + "\n")
		}
	}
	b.WriteString("\n" + promptStyle.Render("Use ↑/↓ to choose, Enter to commit"))
	return b.String()
}

func (m *ConsoleUI) writeStats() {
	var content strings.Builder
	content.WriteString(titleStyle.Render("YOUR STATS") + "\n\n")

	if m.current == nil || len(m.current.UpdatedStats) == 0 {
		content.WriteString("No stats tracked.\n")
	} else {
		names := make([]string, 0, len(m.current.UpdatedStats))
		for name := range m.current.UpdatedStats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			content.WriteString(fmt.Sprintf("• %s: %d\n", name, m.current.UpdatedStats[name]))
		}
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Commit\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /copy: Copy scene\n")

	m.statsViewport.SetContent(content.String())
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showStoryModal {
		return m.loadStories()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showStoryModal {
		return m.updateStoryModal(msg)
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		svCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.storyViewport, vpCmd = m.storyViewport.Update(msg)
		m.statsViewport, svCmd = m.statsViewport.Update(msg)
		return m, tea.Batch(vpCmd, svCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writeStoryContent()
		m.writeStats()
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil

		case tea.KeyUp, tea.KeyDown:
			if !m.inputMode() && m.current != nil && len(m.current.Choices) > 1 {
				if msg.Type == tea.KeyUp && m.selectedChoice > 0 {
					m.selectedChoice--
				}
				if msg.Type == tea.KeyDown && m.selectedChoice < len(m.current.Choices)-1 {
					m.selectedChoice++
				}
				m.writeStoryContent()
				return m, nil
			}

		case tea.KeyEnter:
			if m.loading || m.current == nil {
				return m, nil
			}

			if m.current.IsGameOver {
				// Back to the library for another story.
				m.showStoryModal = true
				m.loadingStories = true
				m.current = nil
				m.transcript = nil
				return m, m.loadStories()
			}

			if m.inputMode() {
				input := strings.TrimSpace(m.textarea.Value())
				if input == "" {
					return m, nil
				}
				if strings.HasPrefix(input, "/") {
					return m.handleCommand(input)
				}

				m.textarea.Reset()
				m.loading = true
				m.progressTick = 0
				m.transcript = append(m.transcript, entry{role: "player", text: input})
				m.writeStoryContent()
				return m, tea.Batch(m.proceed(engine.PlayRequest{
					CurrentNodeID: m.current.NextNodeID,
					UserInput:     input,
					CurrentStats:  m.current.UpdatedStats,
				}), progressTick())
			}

			if len(m.current.Choices) > 0 {
				choice := m.current.Choices[m.selectedChoice]
				played := choice.Label
				if played == "" {
					played = "Continue"
				}

				m.loading = true
				m.progressTick = 0
				if len(m.current.Choices) > 1 {
					m.transcript = append(m.transcript, entry{role: "player", text: played})
				}
				m.writeStoryContent()
				return m, tea.Batch(m.proceed(engine.PlayRequest{
					CurrentNodeID: m.current.NextNodeID,
					ChosenEdgeID:  choice.EdgeID,
					CurrentStats:  m.current.UpdatedStats,
				}), progressTick())
			}
		}

	case playAdvancedMsg:
		m.loading = false
		m.selectedChoice = 0
		if msg.err != nil {
			m.err = msg.err
			m.transcript = append(m.transcript, entry{role: "error", text: msg.err.Error()})
		} else {
			m.applyResponse(msg.resp)
		}
		m.writeStoryContent()
		m.writeStats()
		if m.inputMode() {
			m.textarea.Focus()
			return m, textarea.Blink
		}
		m.textarea.Blur()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeStoryContent()
			return m, progressTick()
		}
	}

	if m.inputMode() {
		m.textarea, tiCmd = m.textarea.Update(msg)
	}
	m.storyViewport, vpCmd = m.storyViewport.Update(msg)
	m.statsViewport, svCmd = m.statsViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, svCmd)
}

// applyResponse folds a play response into the transcript and play state.
func (m *ConsoleUI) applyResponse(resp *engine.PlayResponse) {
	m.current = resp

	switch {
	case resp.AwaitingResolution:
		m.transcript = append(m.transcript, entry{
			role: "system",
			text: "The narrator could not tell what you meant. Try describing your action differently.",
		})
	case resp.IsGameOver && resp.IsError:
		m.transcript = append(m.transcript, entry{role: "error", text: resp.FinalMessage})
		m.transcript = append(m.transcript, entry{role: "system", text: "Press Enter to return to the library."})
	case resp.IsGameOver:
		if resp.NextNodeData.TextContent != "" && resp.NextNodeData.TextContent != resp.FinalMessage {
			m.transcript = append(m.transcript, entry{role: "narrator", text: resp.NextNodeData.TextContent})
		}
		m.transcript = append(m.transcript, entry{role: "ending", text: resp.FinalMessage})
		m.transcript = append(m.transcript, entry{role: "system", text: "THE END - Press Enter to return to the library."})
	default:
		if resp.NextNodeData.TextContent != "" {
			m.transcript = append(m.transcript, entry{role: "narrator", text: resp.NextNodeData.TextContent})
		}
		if resp.NextNodeData.InputPrompt != "" {
			m.transcript = append(m.transcript, entry{role: "system", text: resp.NextNodeData.InputPrompt})
		}
	}
}

func (m *ConsoleUI) resize() {
	storyWidth := int(float64(m.width)*0.75) - 4
	statsWidth := m.width - storyWidth - 6

	m.storyViewport.Width = storyWidth - 2
	m.storyViewport.Height = m.height - 7
	m.statsViewport.Width = statsWidth - 2
	m.statsViewport.Height = m.height - 4
	m.textarea.SetWidth(storyWidth - 4)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		m.transcript = append(m.transcript, entry{role: "system", text: strings.TrimSpace(`
Commands:
/help - Show this help
/copy - Copy the last scene to the clipboard
Ctrl+C - Quit

How to play: pick choices with the arrow keys, or type what
you do when the story asks for it.`)})
		m.writeStoryContent()

	case "/copy":
		if text, ok := m.lastNarration(); ok {
			if err := clipboard.WriteAll(text); err != nil {
				m.transcript = append(m.transcript, entry{role: "error", text: "Could not copy to clipboard: " + err.Error()})
			} else {
				m.transcript = append(m.transcript, entry{role: "system", text: "Scene copied to clipboard."})
			}
		} else {
			m.transcript = append(m.transcript, entry{role: "system", text: "Nothing to copy yet."})
		}
		m.writeStoryContent()
	}

	m.textarea.Reset()
	return m, nil
}

// lastNarration returns the most recent narrator or ending text.
func (m *ConsoleUI) lastNarration() (string, bool) {
	for i := len(m.transcript) - 1; i >= 0; i-- {
		if m.transcript[i].role == "narrator" || m.transcript[i].role == "ending" {
			return m.transcript[i].text, true
		}
	}
	return "", false
}

func (m ConsoleUI) loadStories() tea.Cmd {
	return func() tea.Msg {
		summaries, err := listStories(m.client, m.config.APIBaseURL)
		return storiesLoadedMsg{summaries, err}
	}
}

func (m ConsoleUI) startStory(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		resp, err := startPlay(m.client, m.config.APIBaseURL, id)
		return playStartedMsg{resp, err}
	}
}

func (m ConsoleUI) proceed(req engine.PlayRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := proceedPlay(m.client, m.config.APIBaseURL, m.storyID, req)
		return playAdvancedMsg{resp, err}
	}
}

func (m ConsoleUI) updateStoryModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case storiesLoadedMsg:
		m.loadingStories = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.stories = msg.stories
			m.selectedStory = 0
			m.err = nil
		}

	case playStartedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.showStoryModal = false
			m.transcript = nil
			m.selectedChoice = 0
			m.resize()
			m.applyResponse(msg.resp)
			m.writeStoryContent()
			m.writeStats()
			m.ready = true
			if m.inputMode() {
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.loadingStories {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.selectedStory > 0 {
				m.selectedStory--
			}
		case tea.KeyDown:
			if m.selectedStory < len(m.stories)-1 {
				m.selectedStory++
			}
		case tea.KeyEnter:
			if len(m.stories) > 0 {
				picked := m.stories[m.selectedStory]
				m.storyID = picked.ID
				m.storyTitle = picked.Title
				m.loading = true
				return m, m.startStory(picked.ID)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.inputMode() {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the story?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderStoryModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingStories {
		content.WriteString(modalTitleStyle.Render("Loading Stories..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching the library..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load stories: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Opening Story..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting the scene..."))
	} else if len(m.stories) == 0 {
		content.WriteString(modalTitleStyle.Render("The Library Is Empty"))
		content.WriteString("\n\n")
		content.WriteString("No stories have been published yet.")
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else {
		content.WriteString(modalTitleStyle.Render("Pick a Story"))
		content.WriteString("\n\n")

		for i, s := range m.stories {
			label := s.Title
			if s.Description != "" {
				label = fmt.Sprintf("%s - %s", s.Title, s.Description)
			}
			if i == m.selectedStory {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", label)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", label)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showStoryModal {
		return m.renderStoryModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	storyWidth := int(float64(m.width)*0.75) - 4
	statsWidth := m.width - storyWidth - 6

	var inputArea string
	if m.inputMode() {
		inputArea = m.textarea.View()
	} else {
		inputArea = promptStyle.Render("(choose with ↑/↓ and Enter)")
	}

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.storyViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(storyWidth-4, 1))),
			inputArea,
		),
	)

	statsPanel := statsPanelStyle.Width(statsWidth).Height(m.height - 2).Render(
		m.statsViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, statsPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.storyViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
