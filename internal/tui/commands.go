package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/variance"
)

// startSave hands the sandbox edits to the save callback.
func (m *Model) startSave() tea.Cmd {
	if m.saving {
		return nil
	}
	if !m.sandbox.HasChanges() {
		m.status = "No changes to save"
		return nil
	}
	if m.save == nil {
		m.lastError = errNoSave
		return nil
	}

	records, err := m.sandbox.ChangeRecords()
	if err != nil {
		m.lastError = err
		return nil
	}
	m.saving = true
	m.status = fmt.Sprintf("Saving %d changes...", len(records))
	return saveCmd(m, records)
}

func saveCmd(m *Model, records []model.AmountRecord) tea.Cmd {
	ctx, save := m.ctx, m.save
	return func() tea.Msg {
		return savedMsg{records: records, err: save(ctx, records)}
	}
}

// applySaved writes persisted edits into the base tree and starts a fresh
// sandbox from it, so the saved values become the new originals. Edits made
// while the save was running carry over.
func (m *Model) applySaved(records []model.AmountRecord) error {
	pending := m.sandbox.Changes()
	for _, rec := range records {
		if err := m.tree.SetMonthlyAmount(rec.SubcategoryID, m.baseID, rec.Month, rec.Amount); err != nil {
			return fmt.Errorf("failed to apply saved amount: %w", err)
		}
	}
	sandbox, err := variance.NewSandbox(m.tree, m.baseID)
	if err != nil {
		return err
	}
	for _, c := range pending {
		if err := sandbox.Set(c.Subcategory, c.Month, c.Value); err != nil {
			return err
		}
	}
	m.sandbox = sandbox
	m.refresh()
	return nil
}
