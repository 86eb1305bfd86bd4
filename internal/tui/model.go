// Package tui implements the interactive sandbox editor: a grid of leaf
// rows by months whose edits go to a variance.Sandbox, with live section
// rollups and deltas against the original dataset.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/hierarchy"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/tui/components"
	"github.com/Veraticus/runway/internal/tui/themes"
	"github.com/Veraticus/runway/internal/variance"
)

// Model holds the editor state.
type Model struct {
	ctx         context.Context
	theme       themes.Theme
	lastError   error
	sandbox     *variance.Sandbox
	tree        *hierarchy.Model
	save        SaveFunc
	status      string
	baseID      model.DatasetID
	leaves      []model.Subcategory
	input       textinput.Model
	help        help.Model
	summary     components.SummaryModel
	config      Config
	keymap      KeyMap
	width       int
	height      int
	row         int
	col         int
	offset      int
	editing     bool
	saving      bool
	confirmQuit bool
	quitting    bool
}

// New creates an editor over a sandbox. The sandbox's base tree receives
// saved edits so that later sandboxes start from them.
func New(ctx context.Context, sandbox *variance.Sandbox, opts ...Option) (Model, error) {
	if sandbox == nil {
		return Model{}, common.NewValidationError("sandbox", nil, "is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	tree := sandbox.Calculator().Tree()
	leaves := tree.Leaves()
	if len(leaves) == 0 {
		return Model{}, common.NewValidationError("hierarchy", nil, "has no subcategories to edit")
	}

	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 24

	h := help.New()
	h.Width = cfg.Width

	m := Model{
		ctx:     ctx,
		theme:   cfg.Theme,
		sandbox: sandbox,
		tree:    tree,
		save:    cfg.Save,
		baseID:  sandbox.BaseID(),
		leaves:  leaves,
		input:   input,
		help:    h,
		summary: components.NewSummaryModel(cfg.Theme),
		config:  cfg,
		keymap:  DefaultKeyMap(),
		width:   cfg.Width,
		height:  cfg.Height,
	}
	m.summary.Resize(m.width)
	m.refresh()
	return m, nil
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Sandbox returns the overlay currently being edited.
func (m Model) Sandbox() *variance.Sandbox {
	return m.sandbox
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.summary.Resize(msg.Width)
		m.scroll()
		return m, nil

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.lastError = fmt.Errorf("save failed: %w", msg.err)
			return m, nil
		}
		if err := m.applySaved(msg.records); err != nil {
			m.lastError = err
			return m, nil
		}
		m.lastError = nil
		m.status = fmt.Sprintf("Saved %d changes to %s", len(msg.records), m.baseID)
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKeys(msg)
		}
		return m.handleKeys(msg)
	}

	if m.editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKeys handles keys while navigating the grid.
func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}
	if key.Matches(msg, m.keymap.Quit) {
		if m.sandbox.HasChanges() && !m.confirmQuit {
			m.confirmQuit = true
			m.status = "Unsaved changes. Press q again to discard them"
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	}
	m.confirmQuit = false

	switch {
	case key.Matches(msg, m.keymap.Up):
		m.moveRow(-1)
	case key.Matches(msg, m.keymap.Down):
		m.moveRow(1)
	case key.Matches(msg, m.keymap.Home):
		m.moveRow(-len(m.leaves))
	case key.Matches(msg, m.keymap.End):
		m.moveRow(len(m.leaves))
	case key.Matches(msg, m.keymap.Left):
		m.moveCol(-1)
	case key.Matches(msg, m.keymap.Right):
		m.moveCol(1)
	case key.Matches(msg, m.keymap.Edit):
		cmd := m.startEditing()
		return m, cmd
	case key.Matches(msg, m.keymap.Discard):
		m.discardCell()
	case key.Matches(msg, m.keymap.Reset):
		m.resetAll()
	case key.Matches(msg, m.keymap.Save):
		cmd := m.startSave()
		return m, cmd
	case key.Matches(msg, m.keymap.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// handleEditKeys handles keys while a cell is being edited.
func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Cancel):
		m.stopEditing()
		return m, nil
	case key.Matches(msg, m.keymap.Confirm):
		m.applyInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// current returns the subcategory and month under the cursor.
func (m Model) current() (model.Subcategory, model.Month) {
	return m.leaves[m.row], model.Month(m.col + 1)
}

func (m *Model) moveRow(delta int) {
	m.row = min(max(m.row+delta, 0), len(m.leaves)-1)
	m.scroll()
}

func (m *Model) moveCol(delta int) {
	m.col = min(max(m.col+delta, 0), model.MonthsPerYear-1)
	m.summary.SetMonth(model.Month(m.col + 1))
}

// scroll keeps the cursor row inside the visible window.
func (m *Model) scroll() {
	visible := m.visibleRows()
	if m.row < m.offset {
		m.offset = m.row
	}
	if m.row >= m.offset+visible {
		m.offset = m.row - visible + 1
	}
	m.offset = max(0, min(m.offset, len(m.leaves)-visible))
}

func (m *Model) startEditing() tea.Cmd {
	sub, month := m.current()
	value, err := m.sandbox.Get(sub.ID, month)
	if err != nil {
		m.lastError = err
		return nil
	}
	m.editing = true
	m.lastError = nil
	m.input.SetValue("")
	m.input.Placeholder = value.String()
	return m.input.Focus()
}

func (m *Model) stopEditing() {
	m.editing = false
	m.input.Blur()
	m.input.SetValue("")
}

// applyInput parses the typed value into the sandbox. An empty input keeps
// the cell unchanged.
func (m *Model) applyInput() {
	raw := strings.TrimSpace(strings.ReplaceAll(m.input.Value(), ",", ""))
	if raw == "" {
		m.stopEditing()
		return
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		m.lastError = common.NewValidationError("amount", raw, "is not a number")
		return
	}

	sub, month := m.current()
	if err := m.sandbox.Set(sub.ID, month, value); err != nil {
		m.lastError = err
		return
	}
	m.stopEditing()
	m.lastError = nil
	m.status = fmt.Sprintf("%s %s set to %s", sub.Name, month, value.StringFixed(2))
	m.refresh()
}

func (m *Model) discardCell() {
	sub, month := m.current()
	if err := m.sandbox.Discard(sub.ID, month); err != nil {
		m.lastError = err
		return
	}
	m.status = fmt.Sprintf("%s %s restored", sub.Name, month)
	m.refresh()
}

func (m *Model) resetAll() {
	if !m.sandbox.HasChanges() {
		m.status = "Nothing to reset"
		return
	}
	n := len(m.sandbox.Changes())
	m.sandbox.Reset()
	m.status = fmt.Sprintf("Reset %d changes", n)
	m.refresh()
}

// refresh recomputes the section comparison shown in the summary.
func (m *Model) refresh() {
	report, err := m.sandbox.Report()
	if err != nil {
		m.lastError = err
		return
	}
	m.summary.SetReport(report)
	m.summary.SetMonth(model.Month(m.col + 1))
}

// errNoSave is shown when the editor runs without a save callback.
var errNoSave = errors.New("saving is not available in this session")
