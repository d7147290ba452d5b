package types

// Priority is the five-level ordinal priority of a todo. Stored as its string
// form in the todo table; parsed out of text by the mention scanner.
type Priority string

const (
	PriorityVeryLow  Priority = "very_low"
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityVeryHigh Priority = "very_high"
)

// DefaultPriority applies whenever no priority token is present in an
// entity's scanned text, including on updates that drop a previous token.
const DefaultPriority = PriorityMedium

var priorityRank = map[Priority]int{
	PriorityVeryLow:  0,
	PriorityLow:      1,
	PriorityMedium:   2,
	PriorityHigh:     3,
	PriorityVeryHigh: 4,
}

func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Rank returns the ordinal position of the priority, lowest first. Unknown
// values rank as the default.
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return priorityRank[DefaultPriority]
}
