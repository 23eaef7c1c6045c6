// Package export renders a session history into a study sheet: markdown for
// the CLI, HTML for the browser.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"tutorloop/internal/tutor"
)

// RenderMarkdown formats the history as a markdown study sheet: the
// conversation in order, mode switches inline, and the flashcard deck at the
// end.
func RenderMarkdown(h *tutor.SessionHistory) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Study sheet for %s\n\n", h.UserID)
	fmt.Fprintf(&b, "Session started %s, last active %s.\n\n",
		h.StartedAt.Format(time.RFC1123), h.LastActiveAt.Format(time.RFC1123))

	if len(h.Interactions) > 0 {
		b.WriteString("## Conversation\n\n")
	}

	modeIdx := 0
	for _, in := range h.Interactions {
		// Interleave mode switches that happened before this interaction.
		for modeIdx < len(h.ModeChanges) && !h.ModeChanges[modeIdx].At.After(in.CreatedAt) {
			m := h.ModeChanges[modeIdx]
			fmt.Fprintf(&b, "_Switched from %s to %s mode._\n\n", m.From, m.To)
			modeIdx++
		}
		fmt.Fprintf(&b, "**You** (%s confusion):\n\n> %s\n\n", in.ConfusionLevel, quote(in.Message))
		fmt.Fprintf(&b, "**Tutor:**\n\n%s\n\n", in.Response)
	}
	for ; modeIdx < len(h.ModeChanges); modeIdx++ {
		m := h.ModeChanges[modeIdx]
		fmt.Fprintf(&b, "_Switched from %s to %s mode._\n\n", m.From, m.To)
	}

	if len(h.Flashcards) > 0 {
		b.WriteString("## Flashcards\n\n")
		for i, c := range h.Flashcards {
			fmt.Fprintf(&b, "### Card %d\n\n", i+1)
			fmt.Fprintf(&b, "- **Front:** %s\n", c.Front)
			fmt.Fprintf(&b, "- **Back:** %s\n", c.Back)
			fmt.Fprintf(&b, "- **Context:** %s\n", c.Context)
			fmt.Fprintf(&b, "- Reviewed %d times\n\n", c.ReviewCount)
		}
	}

	return b.String()
}

// RenderHTML renders the markdown study sheet to standalone HTML.
func RenderHTML(h *tutor.SessionHistory) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(RenderMarkdown(h)), &body); err != nil {
		return nil, fmt.Errorf("rendering study sheet: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, pageShell, h.UserID, body.String())
	return page.Bytes(), nil
}

func quote(s string) string {
	return strings.ReplaceAll(s, "\n", "\n> ")
}

const pageShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Study sheet for %s</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; }
blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; color: #555; }
</style>
</head>
<body>
%s
</body>
</html>
`
