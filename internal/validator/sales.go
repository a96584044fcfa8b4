package validator

import (
	"fmt"
	"math"
	"strings"

	"github.com/planeta/qualitycheck/internal/cell"
	"github.com/planeta/qualitycheck/internal/model"
)

// Sales sheet columns referenced by the rules.
const (
	colSalesDate     = "Дата"
	colSalesClient   = "Клиент"
	colSalesProduct  = "Продукт"
	colSalesType     = "Тип"
	colFullPrice     = "Полная стоимость"
	colDiscount      = "Скидка"
	colFinalPrice    = "Окончательная стоимость"
	colCash          = "Наличные"
	colTransfer      = "Перевод"
	colTerminal      = "Терминал"
	colDebt          = "Вдолг"
	colSalesAdmin    = "Админ"
	colCoach         = "Тренер"
	colSalesComment  = "Комментарий"
	colAdminBonus    = "Бонус админа"
	colCoachBonus    = "Бонус тренера"
	colEvotor        = "Пробили на эвоторе"
	colCRM           = "Внесли в CRM"
	salesTypeGoods   = "Товар"
	clarifyMarker    = "уточнить"
	debtMarker       = "долг"
	priceTolerance   = 1.0
	fullDiscountRate = 0.99
)

// salesSkipRequired are required columns whose emptiness is checked by a
// dedicated rule, or never.
var salesSkipRequired = map[string]bool{
	colDiscount:     true,
	colSalesComment: true,
	colCash:         true,
	colTransfer:     true,
	colTerminal:     true,
	colDebt:         true,
	colAdminBonus:   true,
	colCoachBonus:   true,
}

// coachedTypes need a coach assigned.
var coachedTypes = map[string]bool{
	"Бассейн": true,
	"Ванны":   true,
}

// specialProducts require a specific comment. Checked in order; the first
// match wins.
var specialProducts = []struct {
	markers     []string
	description string
}{
	{[]string{"подарок"}, "Уточнить повод для подарка занятия"},
	{[]string{"возврат абонемента"}, "Уточнить причину возврата абонемента"},
	{[]string{"перерасчёт", "перерасчет"}, "Уточнить причину перерасчёта"},
	{[]string{"сертификат"}, "Уточнить информацию о сертификате"},
}

// Sales validates the sales journal.
//
// The sheet is read from its second row, so data row i lives on sheet row
// i+2.
type Sales struct {
	base
}

// NewSales creates the sales validator.
func NewSales(sheet *Sheet, opts ...Option) *Sales {
	return &Sales{base: newBase(sheet, opts)}
}

// Validate checks every row of the sheet.
func (s *Sales) Validate() []model.Finding {
	return Validate(s.sheet, s.cols, s)
}

// ValidateRow checks one sales row. Rows without a date or dated in the
// future are skipped, as are rows that do not look like a sale.
func (s *Sales) ValidateRow(rowIndex int, row model.Row) []model.Finding {
	rowNum := rowIndex + 2
	linkRow := rowNum - 1
	admin := adminOrUnknown(s.get(row, colSalesAdmin))

	dt, ok := cell.ParseDate(s.get(row, colSalesDate), s.now())
	if !ok || s.isFuture(dt) {
		return nil
	}

	var findings []model.Finding
	add := func(column string, et model.ErrorType, description string) {
		findings = append(findings, s.finding(rowNum, linkRow, column, et, description, admin))
	}

	for _, col := range s.sheet.Required {
		v := s.get(row, col)
		if v.Kind() == model.KindText && cell.ContainsFold(v.Str(), clarifyMarker) {
			add(col, model.ErrClarifyNeeded, "Требуется уточнение: "+v.Str())
		}
	}

	client := s.get(row, colSalesClient)
	product := s.get(row, colSalesProduct)
	isEvotor := cell.IsTruthy(s.get(row, colEvotor))
	isCRM := cell.IsTruthy(s.get(row, colCRM))
	if client.IsZero() && product.IsZero() && !isEvotor && !isCRM {
		return nil
	}

	saleType := s.str(row, colSalesType)
	isGoods := saleType == salesTypeGoods

	for _, col := range s.sheet.Required {
		if salesSkipRequired[col] {
			continue
		}
		if col == colCoach && (isGoods || !coachedTypes[saleType]) {
			continue
		}
		if s.get(row, col).IsEmpty() {
			add(col, model.ErrEmpty, fmt.Sprintf("Поле '%s' должно быть заполнено", col))
		}
	}

	fullPrice := cell.ParseFloat(s.get(row, colFullPrice))
	discount := cell.ParseDiscount(s.get(row, colDiscount))
	finalPrice := cell.ParseFloat(s.get(row, colFinalPrice))

	expected := fullPrice * (1 - discount)
	if math.Abs(expected-finalPrice) > priceTolerance {
		add(colFinalPrice, model.ErrMath, fmt.Sprintf("Ошибка расчета: %s * (1 - %s) = %s, а указано %s",
			cell.FormatMoney(fullPrice), cell.FormatPercent(discount),
			cell.FormatMoney(expected), cell.FormatMoney(finalPrice)))
	}

	paid := cell.ParseFloat(s.get(row, colCash)) +
		cell.ParseFloat(s.get(row, colTransfer)) +
		cell.ParseFloat(s.get(row, colTerminal)) +
		cell.ParseFloat(s.get(row, colDebt))
	if math.Abs(paid-finalPrice) > priceTolerance {
		add(colFinalPrice, model.ErrPayment, fmt.Sprintf("Сумма оплаты (%s) не совпадает с ценой (%s)",
			cell.FormatMoney(paid), cell.FormatMoney(finalPrice)))
	}

	if isGoods {
		if isCRM {
			add(colCRM, model.ErrProcess, "Для товаров 'Внесли в CRM' должно быть FALSE")
		}
	} else {
		if finalPrice > 0 && !isCRM {
			add(colCRM, model.ErrProcess, "Продажа не внесена в CRM")
		}
		isDebtReturn := cell.ContainsFold(saleType, debtMarker) || cell.ContainsFold(product.String(), debtMarker)
		if finalPrice > 0 && !isDebtReturn && !isEvotor {
			add(colEvotor, model.ErrProcess, "Чек не пробит на Эвоторе")
		}
	}

	comment := strings.TrimSpace(s.str(row, colSalesComment))
	productLower := cell.Lower(product.String())
	special := false
	for _, sp := range specialProducts {
		if containsAny(productLower, sp.markers) {
			special = true
			if comment == "" {
				add(colSalesComment, model.ErrEmpty, sp.description)
			}
			break
		}
	}
	if !special && discount >= fullDiscountRate && comment == "" {
		add(colSalesComment, model.ErrEmpty, "При скидке 100% обязателен комментарий")
	}

	return findings
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
