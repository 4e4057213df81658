package support

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// ticketNotification is the HTML body of the staff notification.
func ticketNotification(t *Ticket) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var paragraphs strings.Builder
		for line := range strings.SplitSeq(t.Message, "\n") {
			paragraphs.WriteString("<p>")
			paragraphs.WriteString(templ.EscapeString(line))
			paragraphs.WriteString("</p>")
		}
		_, err := fmt.Fprintf(w,
			`<h2>New support request</h2><p><strong>From:</strong> %s</p><p><strong>Ticket:</strong> %s</p><p><strong>Received:</strong> %s</p><hr>%s`,
			templ.EscapeString(t.Email),
			templ.EscapeString(t.ID.String()),
			templ.EscapeString(t.CreatedAt.UTC().Format("2006-01-02 15:04 MST")),
			paragraphs.String(),
		)
		return err
	})
}
