package validator

import (
	"fmt"
	"strings"

	"github.com/planeta/qualitycheck/internal/cell"
	"github.com/planeta/qualitycheck/internal/model"
)

// Trainings sheet columns referenced by the rules.
const (
	colTrainDate      = "Дата"
	colStart          = "Начало"
	colEnd            = "Конец"
	colEmployee       = "Сотрудник"
	colTrainType      = "Тип"
	colReplacement    = "Замена?"
	colTrainClient    = "Клиент"
	colStatus         = "Статус"
	colCategory       = "Категория"
	colTrainComment   = "Комментарий"
	colVisited        = "Всего посещено"
	colRemaining      = "Остаток занятий"
	adminMarker       = "Администратор"
	noCoach           = "Без тренера"
	skipReasonPrompt  = "Указать причину пропуска"
	categoryOnline    = "Онлайн"
	categoryOnSite    = "В центре"
	formulaRefMissing = "#REF!"
)

// validStatuses is the whitelist of visit statuses.
var validStatuses = map[string]bool{
	"Администратор":          true,
	"Отработано":             true,
	"Отмена по вине центра":  true,
	"Отмена по вине клиента": true,
	"Справка":                true,
	"Пропуск без списания":   true,
	"Пропуск":                true,
	"Лояльный пропуск":       true,
	"Перенос":                true,
	"Смена":                  true,
	"Посетили":               true,
}

// confirmationStatuses are only allowed for today and later.
var confirmationStatuses = map[string]bool{
	"Подтвердили":    true,
	"Не подтвердили": true,
}

// cancellationStatuses need the skip reason written in the comment.
var cancellationStatuses = map[string]bool{
	"Отмена по вине центра": true,
	"Пропуск без списания":  true,
	"Пропуск":               true,
	"Лояльный пропуск":      true,
}

// yesNo are the accepted answers of the replacement column, lowercased.
var yesNo = map[string]bool{
	"да":  true,
	"нет": true,
	"yes": true,
	"no":  true,
}

type dutyCandidate struct {
	employee string
	category string
}

type lastVisit struct {
	rowIndex int
	row      model.Row
}

// Trainings validates the shift and training schedule.
//
// The sheet is read from its first row, so data row i lives on sheet row
// i+1. The admin on duty and each client's latest session are whole-sheet
// lookups; both are indexed once when the validator is created.
type Trainings struct {
	base

	// duty maps a raw date cell to the admin shifts of that day, in sheet order.
	duty map[model.CellValue][]dutyCandidate

	// lastVisits holds each client's bottom-most row, ordered by the
	// client's first appearance.
	lastVisits []lastVisit
}

// NewTrainings creates the trainings validator and builds its indices.
func NewTrainings(sheet *Sheet, opts ...Option) *Trainings {
	t := &Trainings{
		base: newBase(sheet, opts),
		duty: make(map[model.CellValue][]dutyCandidate),
	}
	t.buildIndices()
	return t
}

func (t *Trainings) buildIndices() {
	if len(t.sheet.Rows) < 2 {
		return
	}
	admin := model.Text(adminMarker)
	position := make(map[string]int)

	for i := 1; i < len(t.sheet.Rows); i++ {
		row := t.sheet.Rows[i]

		if t.get(row, colTrainType) == admin && t.get(row, colTrainClient) == admin {
			if employee := t.get(row, colEmployee); !employee.IsZero() {
				date := t.get(row, colTrainDate)
				t.duty[date] = append(t.duty[date], dutyCandidate{
					employee: employee.String(),
					category: t.str(row, colCategory),
				})
			}
		}

		client := strings.TrimSpace(t.str(row, colTrainClient))
		if client == "" || client == adminMarker {
			continue
		}
		if p, ok := position[client]; ok {
			t.lastVisits[p] = lastVisit{rowIndex: i, row: row}
			continue
		}
		position[client] = len(t.lastVisits)
		t.lastVisits = append(t.lastVisits, lastVisit{rowIndex: i, row: row})
	}
}

// adminOnDuty returns the admin who worked on the given date. Online shifts
// win over on-site ones; otherwise the first shift of the day is used.
func (t *Trainings) adminOnDuty(date model.CellValue) string {
	if date.IsZero() {
		return model.Unknown
	}
	candidates := t.duty[date]
	if len(candidates) == 0 {
		return model.Unknown
	}
	for _, marker := range []string{categoryOnline, categoryOnSite} {
		for _, c := range candidates {
			if strings.Contains(c.category, marker) {
				return c.employee
			}
		}
	}
	return candidates[0].employee
}

// Validate checks every row and then the subscription follow-ups on each
// client's latest session.
func (t *Trainings) Validate() []model.Finding {
	findings := Validate(t.sheet, t.cols, t)
	if len(findings) == 1 && findings[0].ErrorType == model.ErrMissingColumn {
		return findings
	}
	return append(findings, t.validateRenewals()...)
}

// validateRenewals requires a comment on the latest session of a client
// whose subscription has just run out.
func (t *Trainings) validateRenewals() []model.Finding {
	var findings []model.Finding
	for _, lv := range t.lastVisits {
		visited, ok := cell.ParseInt(t.get(lv.row, colVisited))
		if !ok {
			continue
		}
		remaining, ok := cell.ParseInt(t.get(lv.row, colRemaining))
		if !ok {
			continue
		}
		if visited <= 1 || remaining != 0 {
			continue
		}
		if strings.TrimSpace(t.str(lv.row, colTrainComment)) != "" {
			continue
		}
		admin := t.adminOnDuty(t.get(lv.row, colTrainDate))
		findings = append(findings, t.finding(lv.rowIndex+1, lv.rowIndex, colTrainComment, model.ErrEmpty,
			"Требуется комментарий об ответе клиента на предложение продлить абонемент", admin))
	}
	return findings
}

// ValidateRow checks one schedule row. Rows dated in the future are
// skipped; rows without a date are still checked.
func (t *Trainings) ValidateRow(rowIndex int, row model.Row) []model.Finding {
	rowNum := rowIndex + 1
	linkRow := rowIndex

	client := t.get(row, colTrainClient)
	status := t.str(row, colStatus)
	dateVal := t.get(row, colTrainDate)
	admin := t.adminOnDuty(dateVal)

	dt, hasDate := cell.ParseDate(dateVal, t.now())
	if hasDate && t.isFuture(dt) {
		return nil
	}

	trainingType := t.str(row, colTrainType)
	start := t.get(row, colStart)
	end := t.get(row, colEnd)
	employee := t.get(row, colEmployee)

	// A blank admin shift is a day off.
	if client.String() == adminMarker && status == adminMarker && trainingType == adminMarker &&
		start.IsZero() && end.IsZero() && employee.IsZero() {
		return nil
	}

	var findings []model.Finding
	add := func(column string, et model.ErrorType, description string) {
		findings = append(findings, t.finding(rowNum, linkRow, column, et, description, admin))
	}

	for _, col := range t.sheet.Required {
		v := t.get(row, col)
		if v.IsEmpty() {
			description := fmt.Sprintf("Поле '%s' должно быть заполнено", col)
			switch col {
			case colStart:
				description = "Отсутствует время начала смены"
			case colEnd:
				description = "Отсутствует время окончания смены"
			case colTrainDate:
				description = "Отсутствует дата"
			case colEmployee:
				if trainingType == adminMarker {
					if start.IsZero() && end.IsZero() {
						continue
					}
					description = "Не назначен администратор"
				} else {
					description = "Не назначен тренер"
				}
			}
			add(col, model.ErrEmpty, description)
			continue
		}

		if col == colTrainDate && !hasDate {
			add(col, model.ErrInvalidFormat, fmt.Sprintf("Значение '%s' не является корректной датой", v.String()))
		}
		if col == colReplacement && !yesNo[cell.Lower(v.String())] {
			add(col, model.ErrInvalidFormat, fmt.Sprintf("Значение '%s' должно быть Да или Нет", v.String()))
		}
	}

	if status != "" {
		switch {
		case confirmationStatuses[status]:
			if hasDate && cell.StartOfDay(dt).Before(t.today()) {
				add(colStatus, model.ErrInvalidValue, fmt.Sprintf("Статус '%s' недопустим для прошедших дат", status))
			}
		case !validStatuses[status]:
			add(colStatus, model.ErrInvalidValue, fmt.Sprintf("Недопустимый статус: '%s'", status))
		}
	}

	clientName := client.String()
	if !client.IsZero() && clientName != adminMarker && status != adminMarker {
		if employee.IsZero() || employee.String() == noCoach {
			add(colEmployee, model.ErrEmpty, "Для клиента сотрудник обязателен и не может быть 'Без тренера'")
		}
	}

	comment := t.get(row, colTrainComment)
	if !comment.IsZero() && strings.Contains(comment.String(), formulaRefMissing) {
		add(colTrainComment, model.ErrFormula, "Ошибка формулы в комментарии (#REF!)")
	}

	if cancellationStatuses[status] {
		c := strings.TrimSpace(comment.String())
		if c == "" || c == skipReasonPrompt {
			add(colTrainComment, model.ErrEmpty, fmt.Sprintf("Для статуса '%s' требуется указать причину пропуска", status))
		}
	}

	return findings
}
