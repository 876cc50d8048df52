package domain

// branches is the fixed branch roster. It is immutable at runtime; inventory
// seeding and transfer validation both key off the slice order, so the order
// matters and must not change.
var branches = []Branch{
	{ID: "branch-nyc", Name: "Manhattan Flagship", Code: "NYC-01", City: "New York"},
	{ID: "branch-bos", Name: "Back Bay", Code: "BOS-02", City: "Boston"},
	{ID: "branch-chi", Name: "River North", Code: "CHI-03", City: "Chicago"},
}

func Branches() []Branch {
	out := make([]Branch, len(branches))
	copy(out, branches)
	return out
}

// BranchByID returns the branch with the given ID, falling back to the first
// branch when the ID is unknown.
func BranchByID(id string) Branch {
	for _, b := range branches {
		if b.ID == id {
			return b
		}
	}
	return branches[0]
}

func IsValidBranchID(id string) bool {
	for _, b := range branches {
		if b.ID == id {
			return true
		}
	}
	return false
}

// BranchIndex returns the position of the branch in the roster, or -1.
func BranchIndex(id string) int {
	for i, b := range branches {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func DefaultBranchID() string {
	return branches[0].ID
}
