package core

// CategoryTotal is the summed amount for one category.
type CategoryTotal struct {
	Category string
	Total    float64
}

// DailyTotal is the summed amount for one YYYY-MM-DD day.
type DailyTotal struct {
	Day   string
	Total float64
}

// CategoryAmount is one (category, amount) pair of the chat snapshot.
type CategoryAmount struct {
	Category string
	Amount   float64
}

// RecentExpense is an expense prepared for display; Date is NotAvailable
// for rows without a timestamp.
type RecentExpense struct {
	Category string
	Amount   float64
	Note     *string
	Date     string
}

// Stats summarises all recorded expenses.
//
// HighestCategory is the category of the single largest expense, not the
// category with the largest sum.
type Stats struct {
	TotalBalance     float64
	TransactionCount int64
	HighestCategory  string
}
