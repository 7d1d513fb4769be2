package editor

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/potluck/engine"
)

func TestView_HeightMatchesViewport(t *testing.T) {
	m := mounted(t, Config{InitialValue: "<div>a</div><div>b</div><div>c</div>"})
	m = m.SetSize(20, 2)
	if got := lipgloss.Height(m.View()); got != 2 {
		t.Fatalf("view height=%d, want 2", got)
	}
}

func TestFollowCursor_ScrollsToCursorLine(t *testing.T) {
	m := mounted(t, Config{InitialValue: "<div>a</div><div>b</div><div>c</div><div>d</div>", Autofocus: true})
	m = m.SetSize(10, 2)
	if m.viewport.YOffset != 0 {
		t.Fatalf("offset=%d, want 0", m.viewport.YOffset)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlEnd})
	if m.viewport.YOffset != 2 {
		t.Fatalf("offset=%d, want 2 after moving to the last block", m.viewport.YOffset)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlHome})
	if m.viewport.YOffset != 0 {
		t.Fatalf("offset=%d, want 0 after moving to the first block", m.viewport.YOffset)
	}
}

func TestScrollPolicy_FollowCursorOnlyIgnoresWheel(t *testing.T) {
	cfg := Config{InitialValue: "<div>a</div><div>b</div><div>c</div><div>d</div>"}
	wheel := tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown}

	m := mounted(t, cfg).SetSize(10, 2)
	m, _ = m.Update(wheel)
	if m.viewport.YOffset == 0 {
		t.Fatalf("wheel should scroll with ScrollAllowManual")
	}

	cfg.ScrollPolicy = ScrollFollowCursorOnly
	m = mounted(t, cfg).SetSize(10, 2)
	m, _ = m.Update(wheel)
	if m.viewport.YOffset != 0 {
		t.Fatalf("offset=%d, want 0 with ScrollFollowCursorOnly", m.viewport.YOffset)
	}
}

func TestFocusBlur_ReportsEvents(t *testing.T) {
	var seen []string
	m := mounted(t, Config{
		OnFocus: func(ev *engine.Event) { seen = append(seen, string(ev.Name)) },
		OnBlur:  func(ev *engine.Event) { seen = append(seen, string(ev.Name)) },
	})
	m = m.Focus()
	if !m.Focused() {
		t.Fatalf("expected focus")
	}
	m = m.Blur()
	if m.Focused() {
		t.Fatalf("expected blur")
	}
	if len(seen) != 2 || seen[0] != "focus" || seen[1] != "blur" {
		t.Fatalf("events=%v, want [focus blur]", seen)
	}
}

func TestNew_DefaultsKeyMap(t *testing.T) {
	m := New(Config{})
	t.Cleanup(m.Close)
	if len(m.cfg.KeyMap.Left.Keys()) == 0 {
		t.Fatalf("expected default key map")
	}
}
