package validator

import (
	"fmt"

	"github.com/planeta/qualitycheck/internal/cell"
	"github.com/planeta/qualitycheck/internal/model"
)

// Leads sheet columns referenced by the rules.
const (
	colLeadDate    = "Дата обращения"
	colLeadAdmin   = "Админ (создал лида)"
	colClientAdmin = "Админ (создал клиента)"
	colPhone       = "Мобильный"
)

// clientFields are required once a client record has been created. The
// first coreClientFields of them identify the client.
var clientFields = []string{
	"Фамилия взрослого",
	"Имя взрослого",
	"Имя ребенка",
	"Дата рождения ребенка",
	"Пол ребёнка",
	"Тип",
}

const coreClientFields = 4

const phoneFormatDescription = "Телефон должен быть в формате 79XXXXXXXXX (11 цифр)"

// Leads validates the inquiries journal.
//
// The sheet is read from its second row, so data row i lives on sheet row
// i+2.
type Leads struct {
	base
}

// NewLeads creates the leads validator.
func NewLeads(sheet *Sheet, opts ...Option) *Leads {
	return &Leads{base: newBase(sheet, opts)}
}

// Validate checks every row of the sheet.
func (l *Leads) Validate() []model.Finding {
	return Validate(l.sheet, l.cols, l)
}

// ValidateRow checks one inquiry. Lead registration and client creation are
// attributed to different admins.
func (l *Leads) ValidateRow(rowIndex int, row model.Row) []model.Finding {
	rowNum := rowIndex + 2
	linkRow := rowNum - 1

	leadAdmin := adminOrUnknown(l.get(row, colLeadAdmin))
	clientAdminVal := l.get(row, colClientAdmin)
	clientAdmin := adminOrUnknown(clientAdminVal)

	suffix := ""
	if d, ok := cell.ParseDate(l.get(row, colLeadDate), l.now()); ok {
		suffix = " (" + d.Format(model.DateLayout) + ")"
	}

	var findings []model.Finding
	add := func(column string, et model.ErrorType, description, admin string) {
		findings = append(findings, l.finding(rowNum, linkRow, column, et, description, admin))
	}

	for _, col := range l.sheet.Required {
		if l.get(row, col).IsZero() {
			add(col, model.ErrEmpty, fmt.Sprintf("Поле '%s' обязательно для создания лида", col)+suffix, leadAdmin)
		}
	}

	if !clientAdminVal.IsZero() {
		for _, field := range clientFields {
			if l.get(row, field).IsZero() {
				add(field, model.ErrEmpty, fmt.Sprintf("Поле '%s' обязательно при создании клиента", field)+suffix, clientAdmin)
			}
		}
		if !cell.ValidatePhone(l.get(row, colPhone)) {
			add(colPhone, model.ErrInvalidFormat, phoneFormatDescription, clientAdmin)
		}
	}

	coreFilled := true
	for _, field := range clientFields[:coreClientFields] {
		if l.get(row, field).IsZero() {
			coreFilled = false
			break
		}
	}
	if coreFilled && clientAdminVal.IsZero() {
		add(colClientAdmin, model.ErrEmpty, "Админ (создал клиента) обязателен если заполнены данные клиента", model.Unknown)
		if !cell.ValidatePhone(l.get(row, colPhone)) {
			add(colPhone, model.ErrInvalidFormat, phoneFormatDescription, model.Unknown)
		}
	}

	return findings
}
