// Package render turns conversation state into terminal text.
// Assistant replies are markdown and go through glamour; everything else is
// laid out with lipgloss.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Wccurate/NLP-Frontend/internal/domain/entities"
	"github.com/Wccurate/NLP-Frontend/internal/domain/usecases"
)

const (
	TextNoVisible      = "No visible text"
	TextFileBadge      = "File"
	TextEmptyLog       = "No messages yet."
	TextEmptyLogHint   = "Ask a question or attach a document to begin."
	TextLoading        = "Loading conversation…"
	TextMissingValue   = "—"
	TextToolCallsLabel = "Tools used:"

	maxSnippetRunes = 80
)

var intentLabels = map[string]string{
	"normal_chat":     "Normal Chat",
	"mock_interview":  "Mock Interview",
	"evaluate_resume": "Evaluate Resume",
	"recommend_job":   "Recommend Job",
}

// IntentLabel returns the display label for an intent. Unknown intents are
// shown as-is; an empty intent yields "".
func IntentLabel(intent string) string {
	if label, ok := intentLabels[intent]; ok {
		return label
	}
	return intent
}

// Options configures a Renderer.
type Options struct {
	// WordWrap is the markdown wrap width; 0 disables wrapping.
	WordWrap int
	// Style is a glamour standard style name ("dark", "light", "notty") or
	// "auto" to detect from the terminal. "plain" skips markdown rendering.
	Style string
}

// Renderer formats messages, banners and the message log.
type Renderer struct {
	md     *glamour.TermRenderer
	styles Styles
}

// New creates a Renderer.
func New(opts Options) (*Renderer, error) {
	r := &Renderer{styles: DefaultStyles()}
	if opts.Style == "plain" {
		return r, nil
	}

	styleOpt := glamour.WithAutoStyle()
	if opts.Style != "" && opts.Style != "auto" {
		styleOpt = glamour.WithStandardStyle(opts.Style)
	}
	md, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(opts.WordWrap),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	r.md = md
	return r, nil
}

// Message renders one message bubble: header line, body, then optional
// sources and tool calls.
func (r *Renderer) Message(m entities.UiMessage) string {
	var parts []string
	parts = append(parts, r.header(m))
	parts = append(parts, r.body(m))

	if len(m.Sources) > 0 {
		parts = append(parts, r.Sources(m.Sources))
	}
	if len(m.ToolCalls) > 0 {
		parts = append(parts, r.ToolCalls(m.ToolCalls))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.IsUser() {
		return r.styles.UserBubble.Render(content)
	}
	return r.styles.AssistantBox.Render(content)
}

func (r *Renderer) header(m entities.UiMessage) string {
	label := r.styles.AssistantLabel.Render("Assistant")
	if m.IsUser() {
		label = r.styles.UserLabel.Render("User")
	}

	items := []string{label}
	if intent := IntentLabel(m.Intent); intent != "" {
		items = append(items, r.styles.IntentBadge.Render(intent))
	}
	if m.HasFile {
		items = append(items, r.styles.FileBadge.Render(TextFileBadge))
	}
	if m.Timestamp != "" {
		items = append(items, r.styles.Muted.Render(m.Timestamp))
	}
	return strings.Join(items, " ")
}

func (r *Renderer) body(m entities.UiMessage) string {
	if strings.TrimSpace(m.DisplayText) == "" {
		return r.styles.Placeholder.Render(TextNoVisible)
	}
	if m.IsUser() || r.md == nil {
		return r.styles.Body.Render(m.DisplayText)
	}
	out, err := r.md.Render(m.DisplayText)
	if err != nil {
		return r.styles.Body.Render(m.DisplayText)
	}
	return strings.Trim(out, "\n")
}

// Sources renders the evidence table. Score, BM25 Raw and Dense Dist. columns
// appear only when at least one row carries that value.
func (r *Renderer) Sources(items []entities.SourceItem) string {
	if len(items) == 0 {
		return ""
	}

	var hasScore, hasRaw, hasDist bool
	for _, it := range items {
		hasScore = hasScore || it.Score != nil
		hasRaw = hasRaw || it.BM25RawScore != nil
		hasDist = hasDist || it.DenseDistance != nil
	}

	headers := []string{"Source ID", "Snippet / Text"}
	if hasScore {
		headers = append(headers, "Score")
	}
	headers = append(headers, "Hybrid", "Dense", "BM25")
	if hasRaw {
		headers = append(headers, "BM25 Raw")
	}
	if hasDist {
		headers = append(headers, "Dense Dist.")
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		row := []string{it.Source, snippet(it.Text)}
		if hasScore {
			row = append(row, formatOptional(it.Score))
		}
		row = append(row, formatScore(it.HybridScore), formatScore(it.DenseScore), formatScore(it.BM25Score))
		if hasRaw {
			row = append(row, formatOptional(it.BM25RawScore))
		}
		if hasDist {
			row = append(row, formatOptional(it.DenseDistance))
		}
		rows = append(rows, row)
	}

	return r.table(headers, rows)
}

func (r *Renderer) table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	// Padding(0, 1) on both sides.
	for i := range widths {
		widths[i] += 2
	}

	sep := r.styles.Muted.Render("|")
	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(r.styles.TableHeader.Width(widths[i]).Render(h))
	}
	sb.WriteString("\n")

	total := len(headers) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(r.styles.Muted.Render(strings.Repeat("-", total)))

	for _, row := range rows {
		sb.WriteString("\n")
		for i, cell := range row {
			if i > 0 {
				sb.WriteString(sep)
			}
			sb.WriteString(r.styles.TableCell.Width(widths[i]).Render(cell))
		}
	}
	return sb.String()
}

// ToolCalls renders the tools-used line.
func (r *Renderer) ToolCalls(calls []string) string {
	if len(calls) == 0 {
		return ""
	}
	return r.styles.Muted.Render(TextToolCallsLabel + " " + strings.Join(calls, ", "))
}

// Banners renders every visible banner, each with its dismiss hint.
func (r *Renderer) Banners(b usecases.Banners) string {
	var out []string
	if b.Offline != "" {
		out = append(out, r.styles.WarningBanner.Render(b.Offline+"  "+r.styles.Muted.Render("Dismiss: /dismiss offline")))
	}
	if b.HistoryError != "" {
		out = append(out, r.styles.ErrorBanner.Render(b.HistoryError+"  "+r.styles.Muted.Render("Dismiss: /dismiss history")))
	}
	if b.SendError != "" {
		out = append(out, r.styles.ErrorBanner.Render(b.SendError+"  "+r.styles.Muted.Render("Dismiss: /dismiss send")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

// Log renders the message list, or the loading/empty hint when there is
// nothing to show.
func (r *Renderer) Log(s usecases.State) string {
	if len(s.Messages) == 0 {
		if s.LoadingHistory {
			return r.styles.Muted.Render(TextLoading)
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			r.styles.Body.Render(TextEmptyLog),
			r.styles.Muted.Render(TextEmptyLogHint),
		)
	}

	rendered := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		rendered = append(rendered, r.Message(m))
	}
	return strings.Join(rendered, "\n\n")
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func formatOptional(v *float64) string {
	if v == nil {
		return TextMissingValue
	}
	return formatScore(*v)
}

// snippet flattens whitespace so a chunk fits on one table row.
func snippet(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	runes := []rune(s)
	if len(runes) <= maxSnippetRunes {
		return s
	}
	return string(runes[:maxSnippetRunes-1]) + "…"
}
