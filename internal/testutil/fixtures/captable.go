package fixtures

import "github.com/Veraticus/runway/internal/model"

// Cap table holders.
const (
	Alice model.HolderID = "alice"
	Bob   model.HolderID = "bob"
	Pool  model.HolderID = "esop"
	Angel model.HolderID = "angel"
)

// CapTable returns a 1,000,000 share table in which Alice holds half.
func CapTable() []model.CapTableEntry {
	return []model.CapTableEntry{
		{ID: Alice, Name: "Alice Founder", Type: model.HolderFounder, ShareClass: "common", SharesOwned: 500000},
		{ID: Bob, Name: "Bob Founder", Type: model.HolderFounder, ShareClass: "common", SharesOwned: 300000},
		{ID: Pool, Name: "Option Pool", Type: model.HolderEmployee, ShareClass: "common", SharesOwned: 150000},
		{ID: Angel, Name: "Angel Investor", Type: model.HolderInvestor, ShareClass: "preferred", SharesOwned: 50000},
	}
}
