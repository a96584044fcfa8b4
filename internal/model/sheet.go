package model

// SheetKind selects the rule set applied to a sheet.
type SheetKind string

const (
	// SheetSales is the sales journal ("Продажи").
	SheetSales SheetKind = "sales"

	// SheetTrainings is the staff and training schedule ("Тренировки").
	SheetTrainings SheetKind = "trainings"

	// SheetLeads is the incoming inquiries log ("Обращения").
	SheetLeads SheetKind = "leads"
)

// SheetKinds lists the audited sheets in task-list priority order.
func SheetKinds() []SheetKind {
	return []SheetKind{SheetSales, SheetTrainings, SheetLeads}
}

// String returns the identifier of the sheet kind.
func (k SheetKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known sheet kinds.
func (k SheetKind) Valid() bool {
	switch k {
	case SheetSales, SheetTrainings, SheetLeads:
		return true
	default:
		return false
	}
}

// Unknown is the attribution used when no responsible person can be found.
const Unknown = "Уточнить"
