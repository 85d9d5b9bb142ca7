package recovery

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/formdraft/pkg/types"
)

var (
	testNow  = time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	liveInfo = types.SavedDataInfo{
		HasData:   true,
		Timestamp: testNow.Add(-5 * time.Minute).UnixMilli(),
		Version:   types.RecordVersion,
	}
)

func TestShouldShow(t *testing.T) {
	assert.True(t, ShouldShow(true, false))
	assert.False(t, ShouldShow(true, true))
	assert.False(t, ShouldShow(false, false))
	assert.False(t, ShouldShow(false, true))
}

func TestModel_StartsHidden(t *testing.T) {
	var m Model
	require.False(t, m.IsVisible(), "expected prompt to start hidden")
	require.False(t, m.Decided())
	require.Equal(t, ResultNone, m.Restore(), "hidden prompt must not decide")
}

func TestModel_ShowWithoutDraft(t *testing.T) {
	var m Model
	m.Show(types.SavedDataInfo{})
	require.False(t, m.IsVisible())
}

func TestModel_Restore(t *testing.T) {
	var m Model
	m.Show(liveInfo)
	require.True(t, m.IsVisible())

	require.Equal(t, ResultRestore, m.Restore())
	require.False(t, m.IsVisible())
	require.True(t, m.Decided())
	require.Equal(t, ResultRestore, m.Result())

	m.Show(liveInfo)
	require.False(t, m.IsVisible(), "a decided prompt is not shown again")
}

func TestModel_StartFresh(t *testing.T) {
	var m Model
	m.Show(liveInfo)
	require.Equal(t, ResultStartFresh, m.StartFresh())
	require.True(t, m.Decided())
}

func TestModel_DismissDefers(t *testing.T) {
	var m Model
	m.Show(liveInfo)

	require.Equal(t, ResultDismiss, m.Dismiss())
	require.False(t, m.IsVisible())
	require.False(t, m.Decided(), "dismissing must not imply a decision")

	m.Show(liveInfo)
	require.True(t, m.IsVisible(), "a dismissed prompt can be shown again")
}

func TestModel_HandleKey(t *testing.T) {
	tests := []struct {
		key  string
		want Result
	}{
		{"r", ResultRestore},
		{"f", ResultStartFresh},
		{"esc", ResultDismiss},
		{"escape", ResultDismiss},
		{"x", ResultNone},
		{"", ResultNone},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			var m Model
			m.Show(liveInfo)
			require.Equal(t, tt.want, m.HandleKey(tt.key))
			require.Equal(t, tt.want == ResultNone, m.IsVisible())
		})
	}
}

func TestModel_Dialog(t *testing.T) {
	var m Model
	m.Show(liveInfo)
	d := m.Dialog(testNow)

	assert.Equal(t, "alertdialog", d.Role)
	assert.True(t, d.Modal)
	assert.Equal(t, TitleID, d.LabelledBy)
	assert.Equal(t, DescriptionID, d.DescribedBy)
	assert.True(t, d.DismissOnEscape)
	assert.Contains(t, d.Description, "5 minutes ago")
	require.Len(t, d.Actions, 2)
	assert.Equal(t, "Restore", d.Actions[0].Label)
	assert.Equal(t, "Start Fresh", d.Actions[1].Label)
}

func TestRender(t *testing.T) {
	var m Model
	m.Show(liveInfo)

	var buf bytes.Buffer
	require.NoError(t, m.Render(&buf, testNow))
	out := buf.String()
	assert.Contains(t, out, Title)
	assert.Contains(t, out, "5 minutes ago")
	assert.Contains(t, out, "[r] Restore")
	assert.Contains(t, out, "[f] Start Fresh")
	assert.Contains(t, out, "[esc] Dismiss")
}

func TestPrompt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Result
		decided bool
	}{
		{"restore word", "restore\n", ResultRestore, true},
		{"fresh key", "f\n", ResultStartFresh, true},
		{"reprompts on empty and unknown", "\nmaybe\nR\n", ResultRestore, true},
		{"quit dismisses", "q\n", ResultDismiss, false},
		{"eof dismisses", "", ResultDismiss, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Model
			m.Show(liveInfo)

			var out bytes.Buffer
			got, err := Prompt(&m, strings.NewReader(tt.input), &out, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.decided, m.Decided())
		})
	}
}

func TestPrompt_Hidden(t *testing.T) {
	var m Model
	var out bytes.Buffer
	got, err := Prompt(&m, strings.NewReader("r\n"), &out, testNow)
	require.NoError(t, err)
	assert.Equal(t, ResultNone, got)
	assert.Empty(t, out.String())
}

type fakeDraft struct {
	state   types.PersistenceState
	initial map[string]any
	cleared bool
	err     error
}

func (f *fakeDraft) State() types.PersistenceState { return f.state }

func (f *fakeDraft) ClearData() error {
	if f.err != nil {
		return f.err
	}
	f.cleared = true
	f.state.Data = f.initial
	f.state.HasSavedData = false
	return nil
}

func TestResolve(t *testing.T) {
	newDraft := func() *fakeDraft {
		return &fakeDraft{
			state:   types.PersistenceState{Data: map[string]any{"title": "Stored"}, HasSavedData: true},
			initial: map[string]any{"title": ""},
		}
	}

	d := newDraft()
	data, err := Resolve(ResultRestore, d)
	require.NoError(t, err)
	assert.Equal(t, "Stored", data["title"])
	assert.False(t, d.cleared)

	d = newDraft()
	data, err = Resolve(ResultStartFresh, d)
	require.NoError(t, err)
	assert.Equal(t, "", data["title"])
	assert.True(t, d.cleared)

	d = newDraft()
	data, err = Resolve(ResultDismiss, d)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.False(t, d.cleared)

	d = newDraft()
	d.err = errors.New("remove failed")
	_, err = Resolve(ResultStartFresh, d)
	assert.EqualError(t, err, "remove failed")
}
