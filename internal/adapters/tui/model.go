package tui

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"skardu_hotels/internal/domain"
)

// Searcher is the TUI-facing subset of the search service.
type Searcher interface {
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.SearchHit, error)
	Answer(ctx context.Context, q domain.SearchQuery) (domain.Answer, error)
}

const requestTimeout = 60 * time.Second

type resultsMsg struct {
	query  string
	hits   []domain.SearchHit
	answer string
	err    error
}

// Model is the Bubble Tea model for the hotel search UI.
type Model struct {
	service   Searcher
	topK      int
	input     textinput.Model
	viewport  viewport.Model
	hits      []domain.SearchHit
	answer    string
	summary   string
	status    string
	cursor    int
	ready     bool
	busy      bool
	lastQuery string
}

// New creates a model. summary is shown under the header, e.g. which
// artifact and embedder are loaded.
func New(service Searcher, summary string, topK int) Model {
	if topK <= 0 {
		topK = 5
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Search hotels, Enter to search, Ctrl+A to ask"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, topK: topK, input: ti, viewport: vp, summary: summary, status: "Loaded. Type to search."}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) query(text string, ask bool) tea.Cmd {
	svc, q := m.service, domain.SearchQuery{Text: text, K: m.topK}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if ask {
			ans, err := svc.Answer(ctx, q)
			return resultsMsg{query: text, hits: ans.Hits, answer: ans.Text, err: err}
		}
		hits, err := svc.Search(ctx, q)
		return resultsMsg{query: text, hits: hits, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+summary, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil

	case resultsMsg:
		m.busy = false
		switch {
		case errors.Is(msg.err, domain.ErrNoAnswerer):
			m.status = "Answers are not configured; set OPENAI_API_KEY. Showing nothing."
			m.hits, m.answer = nil, ""
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
			m.hits, m.answer = nil, ""
		default:
			m.status = fmt.Sprintf("%d hotels for %q", len(msg.hits), msg.query)
			m.hits, m.answer = msg.hits, msg.answer
			m.cursor = 0
			m.lastQuery = msg.query
		}
		m.viewport.SetContent(m.renderCurrent())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter", "ctrl+a":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Searching..."
			return m, m.query(q, msg.String() == "ctrl+a")
		case "down":
			if len(m.hits) > 0 {
				m.cursor = (m.cursor + 1) % len(m.hits)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if len(m.hits) > 0 {
				m.cursor = (m.cursor - 1 + len(m.hits)) % len(m.hits)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Hotel Search")
	summary := dimStyle.Render(m.summary)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if len(m.hits) == 0 {
		return "No results yet."
	}
	var b strings.Builder
	if m.answer != "" {
		b.WriteString(answerStyle.Render(m.answer))
		b.WriteString("\n\n")
	}
	hit := m.hits[m.cursor]
	fmt.Fprintf(&b, "Result %d/%d  score=%.3f\n\n", m.cursor+1, len(m.hits), hit.Score)
	b.WriteString(RenderHotel(hit.Hotel, m.lastQuery))
	return b.String()
}

// RenderHotel formats one hotel card, highlighting the description sentence
// that best matches query.
func RenderHotel(h domain.Hotel, query string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(h.Name))
	stars := min(max(h.StarRating, 0), 5)
	b.WriteString("  " + starStyle.Render(strings.Repeat("★", stars)+strings.Repeat("☆", 5-stars)))
	b.WriteString("\n")

	loc := h.ContactInfo.City
	if h.ContactInfo.Region != "" {
		loc += ", " + h.ContactInfo.Region
	}
	if h.ContactInfo.Address != "" {
		loc = h.ContactInfo.Address + " · " + loc
	}
	b.WriteString(dimStyle.Render(loc) + "\n")

	if p := h.PriceRange; p.MinPrice > 0 {
		per := ""
		if p.PricePerNight {
			per = " / night"
		}
		fmt.Fprintf(&b, "%s %.0f–%.0f%s\n", p.Currency, p.MinPrice, p.MaxPrice, per)
	}
	if len(h.Amenities) > 0 {
		names := make([]string, 0, len(h.Amenities))
		for _, a := range h.Amenities {
			if a.IsAvailable {
				names = append(names, a.Name)
			}
		}
		if len(names) > 0 {
			b.WriteString("Amenities: " + strings.Join(names, ", ") + "\n")
		}
	}
	if h.Description != "" {
		b.WriteString("\n" + highlightBestSentence(h.Description, query))
	}
	return b.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	starStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	answerStyle    = lipgloss.NewStyle().Italic(true)
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe         = regexp.MustCompile(`[\p{L}\p{N}]+`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func highlightBestSentence(text, query string) string {
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := tokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	best, bestScore := 0, 0
	for i, s := range sentences {
		if score := overlap(qTokens, s); score > bestScore {
			best, bestScore = i, score
		}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
		if i == best && bestScore > 0 {
			sentences[i] = highlightStyle.Render(sentences[i])
		}
	}
	return strings.Join(sentences, " ")
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func overlap(q map[string]struct{}, sentence string) int {
	n := 0
	for t := range tokenSet(sentence) {
		if _, ok := q[t]; ok {
			n++
		}
	}
	return n
}
