package recovery

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// Render writes the dialog as plain text.
func (m Model) Render(w io.Writer, now time.Time) error {
	d := m.Dialog(now)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", d.Title, d.Description)
	for _, a := range d.Actions {
		fmt.Fprintf(&b, "  [%s] %s", a.Key, a.Label)
	}
	b.WriteString("  [esc] Dismiss\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// Prompt shows the dialog on w and reads answers from r until one decides
// or dismisses it. End of input dismisses. An empty answer asks again; no
// action is taken by default.
func Prompt(m *Model, r io.Reader, w io.Writer, now time.Time) (Result, error) {
	if !m.IsVisible() {
		return ResultNone, nil
	}
	if err := m.Render(w, now); err != nil {
		return ResultNone, err
	}

	sc := bufio.NewScanner(r)
	for {
		if _, err := io.WriteString(w, "> "); err != nil {
			return ResultNone, err
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return ResultNone, fmt.Errorf("reading answer: %w", err)
			}
			return m.Dismiss(), nil
		}
		if res := m.HandleKey(normalize(sc.Text())); res != ResultNone {
			return res, nil
		}
		if _, err := io.WriteString(w, "Choose r (restore), f (start fresh) or esc (dismiss).\n"); err != nil {
			return ResultNone, err
		}
	}
}

func normalize(answer string) string {
	switch a := strings.ToLower(strings.TrimSpace(answer)); a {
	case "restore":
		return "r"
	case "fresh", "start fresh", "start-fresh", "s":
		return "f"
	case "q", "dismiss", "\x1b":
		return "esc"
	default:
		return a
	}
}
