package tui

import "github.com/Veraticus/runway/internal/model"

// savedMsg reports the outcome of a save.
type savedMsg struct {
	err     error
	records []model.AmountRecord
}
