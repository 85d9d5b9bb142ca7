// Package recovery offers a restore-or-discard decision when a live draft
// is found as a form opens. The Model holds the decision state; Render and
// Prompt give it a terminal surface.
package recovery

import (
	"time"

	"github.com/mesh-intelligence/formdraft/pkg/types"
)

// Result indicates the outcome of a prompt interaction.
type Result int

const (
	ResultNone       Result = iota // No decision yet
	ResultRestore                  // Apply the stored draft
	ResultStartFresh               // Discard the stored draft
	ResultDismiss                  // Closed without deciding
)

func (r Result) String() string {
	switch r {
	case ResultRestore:
		return "restore"
	case ResultStartFresh:
		return "start-fresh"
	case ResultDismiss:
		return "dismiss"
	default:
		return "none"
	}
}

// Dialog element ids and role.
const (
	Role          = "alertdialog"
	TitleID       = "draft-recovery-title"
	DescriptionID = "draft-recovery-description"
	Title         = "Restore previous draft?"
)

// Action is one button of the dialog.
type Action struct {
	Label  string
	Key    string // keyboard shortcut
	Result Result
}

// Actions lists the dialog buttons in display order. Escape dismisses.
var Actions = []Action{
	{Label: "Restore", Key: "r", Result: ResultRestore},
	{Label: "Start Fresh", Key: "f", Result: ResultStartFresh},
}

// Dialog is the accessible description of the prompt.
type Dialog struct {
	Role            string
	Modal           bool
	LabelledBy      string
	DescribedBy     string
	Title           string
	Description     string
	Actions         []Action
	DismissOnEscape bool
}

// ShouldShow reports whether the prompt applies: a live draft exists and
// the user has not decided yet.
func ShouldShow(hasSavedData, decided bool) bool {
	return hasSavedData && !decided
}

// Model is the prompt state. The zero value is hidden and undecided.
type Model struct {
	info    types.SavedDataInfo
	visible bool
	decided bool
	result  Result
}

// Show displays the prompt for the given draft. It does nothing when info
// has no data or a decision was already made.
func (m *Model) Show(info types.SavedDataInfo) {
	if !ShouldShow(info.HasData, m.decided) {
		return
	}
	m.info = info
	m.visible = true
}

// Hide closes the prompt without recording anything.
func (m *Model) Hide() {
	m.visible = false
}

// IsVisible returns whether the prompt is displayed.
func (m Model) IsVisible() bool {
	return m.visible
}

// Decided reports whether the user chose Restore or Start Fresh.
func (m Model) Decided() bool {
	return m.decided
}

// Result returns the last outcome.
func (m Model) Result() Result {
	return m.result
}

// Info returns the draft the prompt was shown for.
func (m Model) Info() types.SavedDataInfo {
	return m.info
}

// Restore records the decision to apply the stored draft.
func (m *Model) Restore() Result {
	return m.decide(ResultRestore)
}

// StartFresh records the decision to discard the stored draft.
func (m *Model) StartFresh() Result {
	return m.decide(ResultStartFresh)
}

// Dismiss closes the prompt and defers the choice; the draft is untouched
// and the prompt may be shown again.
func (m *Model) Dismiss() Result {
	if !m.visible {
		return ResultNone
	}
	m.visible = false
	m.result = ResultDismiss
	return ResultDismiss
}

func (m *Model) decide(r Result) Result {
	if !m.visible {
		return ResultNone
	}
	m.visible = false
	m.decided = true
	m.result = r
	return r
}

// HandleKey maps a key name to an action. Unknown keys and a hidden
// prompt yield ResultNone.
func (m *Model) HandleKey(key string) Result {
	if !m.visible {
		return ResultNone
	}
	switch key {
	case "esc", "escape":
		return m.Dismiss()
	}
	for _, a := range Actions {
		if key == a.Key {
			return m.decide(a.Result)
		}
	}
	return ResultNone
}

// Dialog describes the prompt as of now.
func (m Model) Dialog(now time.Time) Dialog {
	return Dialog{
		Role:            Role,
		Modal:           true,
		LabelledBy:      TitleID,
		DescribedBy:     DescriptionID,
		Title:           Title,
		Description:     "You have a saved draft from " + RelativeTime(m.info.Timestamp, now) + ". Would you like to restore it?",
		Actions:         Actions,
		DismissOnEscape: true,
	}
}

// Draft is the part of the persistence engine Resolve needs.
type Draft interface {
	State() types.PersistenceState
	ClearData() error
}

// Resolve applies a decision to a loaded draft and returns the data the
// form should show. Restore keeps the merged data the engine loaded;
// Start Fresh clears the stored draft and returns the initial data. Other
// results leave the draft alone and return nil.
func Resolve(r Result, d Draft) (map[string]any, error) {
	switch r {
	case ResultRestore:
		return d.State().Data, nil
	case ResultStartFresh:
		if err := d.ClearData(); err != nil {
			return nil, err
		}
		return d.State().Data, nil
	default:
		return nil, nil
	}
}
