package model

// DateLayout is the day-first layout used for task creation dates.
const DateLayout = "02.01.2006"

// ReportItem is one row of the persistent task list.
//
// Automatic items mirror a Finding with the same UID and are dropped once
// the finding no longer recurs. Manual items are created by operators and
// survive every run until removed by hand.
type ReportItem struct {
	// UID links the item to the Finding that produced it.
	UID string `json:"uid"`

	// IsManual marks operator-created tasks.
	IsManual bool `json:"is_manual"`

	// Sheet is the sheet name the task refers to.
	Sheet string `json:"sheet"`

	// ErrorColumn is the offending column name.
	ErrorColumn string `json:"error_column"`

	// Description is the operator-facing explanation.
	Description string `json:"description"`

	// Link is a deep link to the offending cell.
	Link string `json:"link"`

	// CreatedDate is when the task first appeared, in DD.MM.YYYY.
	CreatedDate string `json:"created_date"`

	// Admin is the staff member responsible for resolving the task.
	Admin string `json:"admin"`
}
