package validator

import (
	"strings"
	"testing"

	"github.com/planeta/qualitycheck/internal/model"
)

var salesColumns = []string{
	"Дата", "Клиент", "Продукт", "Тип", "Категория", "Количество",
	"Полная стоимость", "Скидка", "Окончательная стоимость",
	"Наличные", "Перевод", "Терминал", "Вдолг",
	"Админ", "Тренер", "Комментарий", "Бонус админа", "Бонус тренера",
	"Пробили на эвоторе", "Внесли в CRM",
}

// validSale returns a row that passes every sales rule.
func validSale() map[string]any {
	return map[string]any{
		"Дата":                    "14.03.2024",
		"Клиент":                  "Иванов",
		"Продукт":                 "Абонемент 8 занятий",
		"Тип":                     "Абонемент",
		"Категория":               "Дети",
		"Количество":              1.0,
		"Полная стоимость":        10000.0,
		"Скидка":                  "10%",
		"Окончательная стоимость": 9000.0,
		"Перевод":                 9000.0,
		"Админ":                   "Анна",
		"Пробили на эвоторе":      true,
		"Внесли в CRM":            true,
	}
}

func sale(overrides map[string]any) map[string]any {
	row := validSale()
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func validateSales(rows ...map[string]any) []model.Finding {
	sheet := buildSheet("Продажи", salesColumns, salesColumns, rows...)
	return NewSales(sheet, WithClock(testClock)).Validate()
}

// TestSalesValidRow tests that a clean sale produces no findings.
func TestSalesValidRow(t *testing.T) {
	t.Parallel()

	if got := validateSales(validSale()); len(got) != 0 {
		t.Errorf("expected no findings, got %+v", got)
	}
}

// TestSalesMathError tests the price formula and its rendering.
func TestSalesMathError(t *testing.T) {
	t.Parallel()

	findings := validateSales(sale(map[string]any{
		"Окончательная стоимость": 8888.0,
		"Перевод":                 8888.0,
	}))

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(findings), findings)
	}
	f := findings[0]
	if f.ErrorType != model.ErrMath {
		t.Errorf("ErrorType = %q, expected %q", f.ErrorType, model.ErrMath)
	}
	if f.Column != "Окончательная стоимость" {
		t.Errorf("Column = %q", f.Column)
	}
	expected := "Ошибка расчета: 10 000,00 * (1 - 10,00%) = 9 000,00, а указано 8 888,00"
	if f.Description != expected {
		t.Errorf("Description = %q, expected %q", f.Description, expected)
	}
	if f.RowNumber != 3 {
		t.Errorf("RowNumber = %d, expected 3", f.RowNumber)
	}
	if f.Admin != "Анна" {
		t.Errorf("Admin = %q", f.Admin)
	}
	link := "https://docs.google.com/spreadsheets/d/doc/edit#gid=42&range=I3"
	if f.CellLink != link {
		t.Errorf("CellLink = %q, expected %q", f.CellLink, link)
	}
}

// TestSalesTolerance tests that differences within one unit pass.
func TestSalesTolerance(t *testing.T) {
	t.Parallel()

	got := validateSales(sale(map[string]any{
		"Окончательная стоимость": 9000.9,
		"Перевод":                 9000.0,
	}))
	if len(got) != 0 {
		t.Errorf("expected no findings, got %+v", got)
	}
}

// TestSalesPaymentMismatch tests the payment split rule.
func TestSalesPaymentMismatch(t *testing.T) {
	t.Parallel()

	findings := validateSales(sale(map[string]any{
		"Наличные": "1 000",
		"Перевод":  7000.0,
		"Терминал": "500,50",
	}))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
	f := findings[0]
	if f.ErrorType != model.ErrPayment {
		t.Errorf("ErrorType = %q", f.ErrorType)
	}
	if f.Description != "Сумма оплаты (8 500,50) не совпадает с ценой (9 000,00)" {
		t.Errorf("Description = %q", f.Description)
	}
}

// TestSalesSkippedRows tests rows that are never checked.
func TestSalesSkippedRows(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		row  map[string]any
	}{
		{"future date", sale(map[string]any{"Дата": "16.03.2024", "Окончательная стоимость": 1.0})},
		{"empty date", sale(map[string]any{"Дата": "", "Окончательная стоимость": 1.0})},
		{"unparseable date", sale(map[string]any{"Дата": "когда-то", "Окончательная стоимость": 1.0})},
		{"not a sale", map[string]any{
			"Дата":      "14.03.2024",
			"Категория": "Уточнить",
			"Скидка":    "50%",
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := validateSales(tc.row); len(got) != 0 {
				t.Errorf("expected no findings, got %+v", got)
			}
		})
	}
}

// TestSalesTodayIsChecked tests that today's rows are not treated as future.
func TestSalesTodayIsChecked(t *testing.T) {
	t.Parallel()

	got := validateSales(sale(map[string]any{"Дата": "15.03.2024", "Внесли в CRM": false}))
	if len(got) != 1 || got[0].Description != "Продажа не внесена в CRM" {
		t.Errorf("expected CRM finding, got %+v", got)
	}
}

// TestSalesClarify tests the "уточнить" marker in any required column.
func TestSalesClarify(t *testing.T) {
	t.Parallel()

	findings := validateSales(sale(map[string]any{"Категория": "УТОЧНИТЬ у Анны"}))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
	f := findings[0]
	if f.ErrorType != model.ErrClarifyNeeded || f.Column != "Категория" {
		t.Errorf("unexpected finding %+v", f)
	}
	if f.Description != "Требуется уточнение: УТОЧНИТЬ у Анны" {
		t.Errorf("Description = %q", f.Description)
	}
}

// TestSalesRequiredFields tests emptiness checks and their exemptions.
func TestSalesRequiredFields(t *testing.T) {
	t.Parallel()

	findings := validateSales(sale(map[string]any{
		"Категория":  "",
		"Количество": nil,
		"Админ":      "",
	}))

	for _, col := range []string{"Категория", "Количество", "Админ"} {
		got := findingsFor(findings, col)
		if len(got) != 1 || got[0].ErrorType != model.ErrEmpty {
			t.Errorf("expected one empty finding for %s, got %+v", col, got)
			continue
		}
		if got[0].Description != "Поле '"+col+"' должно быть заполнено" {
			t.Errorf("Description = %q", got[0].Description)
		}
		if got[0].Admin != model.Unknown {
			t.Errorf("Admin = %q, expected %q", got[0].Admin, model.Unknown)
		}
	}
	if len(findings) != 3 {
		t.Errorf("expected 3 findings, got %+v", findings)
	}
}

// TestSalesCoach tests that pool and bath sales need a coach.
func TestSalesCoach(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		saleType string
		coach    string
		expected int
	}{
		{"Бассейн", "", 1},
		{"Ванны", "", 1},
		{"Бассейн", "Петров", 0},
		{"Абонемент", "", 0},
		{"Товар", "", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.saleType+"/"+tc.coach, func(t *testing.T) {
			t.Parallel()
			row := sale(map[string]any{"Тип": tc.saleType, "Тренер": tc.coach})
			if tc.saleType == "Товар" {
				row["Внесли в CRM"] = false
			}
			got := findingsFor(validateSales(row), "Тренер")
			if len(got) != tc.expected {
				t.Errorf("expected %d coach findings, got %+v", tc.expected, got)
			}
		})
	}
}

// TestSalesProcess tests the CRM and receipt discipline.
func TestSalesProcess(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		row      map[string]any
		expected []string
	}{
		{
			name:     "goods entered in CRM",
			row:      sale(map[string]any{"Тип": "Товар"}),
			expected: []string{"Для товаров 'Внесли в CRM' должно быть FALSE"},
		},
		{
			name: "goods not in CRM",
			row:  sale(map[string]any{"Тип": "Товар", "Внесли в CRM": false}),
		},
		{
			name:     "missing CRM and receipt",
			row:      sale(map[string]any{"Внесли в CRM": "FALSE", "Пробили на эвоторе": false}),
			expected: []string{"Продажа не внесена в CRM", "Чек не пробит на Эвоторе"},
		},
		{
			name:     "textual checkbox values",
			row:      sale(map[string]any{"Внесли в CRM": "ИСТИНА", "Пробили на эвоторе": "true"}),
			expected: nil,
		},
		{
			name:     "debt return needs no receipt",
			row:      sale(map[string]any{"Тип": "Возврат ДОЛГА", "Пробили на эвоторе": false}),
			expected: nil,
		},
		{
			name:     "debt in product name",
			row:      sale(map[string]any{"Продукт": "Погашение долга", "Пробили на эвоторе": false}),
			expected: nil,
		},
		{
			name: "free sale",
			row: sale(map[string]any{
				"Полная стоимость":        0.0,
				"Скидка":                  "",
				"Окончательная стоимость": 0.0,
				"Перевод":                 nil,
				"Внесли в CRM":            false,
				"Пробили на эвоторе":      false,
			}),
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			findings := validateSales(tc.row)
			if len(findings) != len(tc.expected) {
				t.Fatalf("expected %d findings, got %+v", len(tc.expected), findings)
			}
			for i, f := range findings {
				if f.ErrorType != model.ErrProcess {
					t.Errorf("ErrorType = %q", f.ErrorType)
				}
				if f.Description != tc.expected[i] {
					t.Errorf("Description = %q, expected %q", f.Description, tc.expected[i])
				}
			}
		})
	}
}

// TestSalesComments tests products and discounts that need a comment.
func TestSalesComments(t *testing.T) {
	t.Parallel()

	free := map[string]any{
		"Полная стоимость":        0.0,
		"Скидка":                  "",
		"Окончательная стоимость": 0.0,
		"Перевод":                 nil,
	}

	testCases := []struct {
		name     string
		product  string
		comment  string
		expected string
	}{
		{"gift", "Подарок: пробное занятие", "", "Уточнить повод для подарка занятия"},
		{"refund", "Возврат абонемента", "", "Уточнить причину возврата абонемента"},
		{"recalculation yo", "Перерасчёт", "", "Уточнить причину перерасчёта"},
		{"recalculation e", "перерасчет за март", "", "Уточнить причину перерасчёта"},
		{"certificate", "Сертификат 5000", "", "Уточнить информацию о сертификате"},
		{"gift with comment", "Подарок", "День рождения", ""},
		{"regular", "Абонемент", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			row := sale(free)
			row["Продукт"] = tc.product
			row["Комментарий"] = tc.comment
			got := findingsFor(validateSales(row), "Комментарий")
			if tc.expected == "" {
				if len(got) != 0 {
					t.Errorf("expected no comment findings, got %+v", got)
				}
				return
			}
			if len(got) != 1 || got[0].Description != tc.expected || got[0].ErrorType != model.ErrEmpty {
				t.Errorf("expected %q, got %+v", tc.expected, got)
			}
		})
	}
}

// TestSalesFullDiscount tests the comment rule for complete discounts.
func TestSalesFullDiscount(t *testing.T) {
	t.Parallel()

	row := sale(map[string]any{
		"Полная стоимость":        5000.0,
		"Скидка":                  "100%",
		"Окончательная стоимость": 0.0,
		"Перевод":                 nil,
	})
	got := findingsFor(validateSales(row), "Комментарий")
	if len(got) != 1 || got[0].Description != "При скидке 100% обязателен комментарий" {
		t.Errorf("unexpected findings %+v", got)
	}

	row["Комментарий"] = "Сотрудник"
	if got := validateSales(row); len(got) != 0 {
		t.Errorf("expected no findings with comment, got %+v", got)
	}

	row["Продукт"] = "Сертификат"
	row["Комментарий"] = ""
	got = findingsFor(validateSales(row), "Комментарий")
	if len(got) != 1 || !strings.Contains(got[0].Description, "сертификат") {
		t.Errorf("special product should take precedence, got %+v", got)
	}
}

// TestSalesRowNumbering tests sheet row numbers across several rows.
func TestSalesRowNumbering(t *testing.T) {
	t.Parallel()

	findings := validateSales(
		validSale(),
		sale(map[string]any{"Админ": ""}),
		validSale(),
		sale(map[string]any{"Админ": ""}),
	)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %+v", findings)
	}
	if findings[0].RowNumber != 4 || findings[1].RowNumber != 6 {
		t.Errorf("row numbers = %d, %d, expected 4, 6", findings[0].RowNumber, findings[1].RowNumber)
	}
	if !strings.HasSuffix(findings[0].CellLink, "range=N4") {
		t.Errorf("CellLink = %q", findings[0].CellLink)
	}
}
