package dashboard

import (
	"fmt"
	"io"

	"github.com/dnldd/datavis/chart"
	"github.com/dnldd/datavis/shared"
)

// WritePayload writes a text rendering of the provided payload.
func WritePayload(w io.Writer, p *Payload, width int) error {
	_, err := fmt.Fprintf(w, "Live Cryptocurrency Dashboard (%s, %s)\n\n", p.ID,
		p.CreatedOn.Format(shared.DateLayout))
	if err != nil {
		return err
	}

	if p.Details != nil {
		for _, line := range chart.DetailLines(*p.Details) {
			_, err = fmt.Fprintln(w, line)
			if err != nil {
				return err
			}
		}
		_, err = fmt.Fprintln(w)
		if err != nil {
			return err
		}
	}

	for idx := range p.Figures {
		err = chart.WriteFigure(w, &p.Figures[idx], width)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w)
		if err != nil {
			return err
		}
	}

	if len(p.News) > 0 {
		_, err = fmt.Fprintln(w, "Latest Crypto News")
		if err != nil {
			return err
		}
		for _, article := range p.News {
			_, err = fmt.Fprintf(w, "  - %s (%s) %s\n", article.Title, article.Source, article.URL)
			if err != nil {
				return err
			}
		}
	}

	for _, note := range p.Notes {
		_, err = fmt.Fprintf(w, "note: %s\n", note)
		if err != nil {
			return err
		}
	}

	return nil
}
