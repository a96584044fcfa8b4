package tasklist

import (
	"fmt"
	"strings"

	"github.com/planeta/qualitycheck/internal/model"
)

// LinkLabel is the text of rendered cell links.
const LinkLabel = "Посмотреть"

// Headers is the header row of the task list.
var Headers = []string{"ID", "Manual task", "Дата", "Лист", "Тип", "Админ", "Описание", "Ссылка"}

// Render returns the header row followed by one row per item, ready to be
// written with formula interpretation enabled. URLs become HYPERLINK
// formulas; other links pass through unchanged.
func Render(items []model.ReportItem) [][]any {
	rows := make([][]any, 0, len(items)+1)

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	rows = append(rows, header)

	for _, item := range items {
		rows = append(rows, []any{
			item.UID,
			item.IsManual,
			item.CreatedDate,
			item.Sheet,
			item.ErrorColumn,
			item.Admin,
			item.Description,
			renderLink(item.Link),
		})
	}
	return rows
}

func renderLink(link string) string {
	if strings.HasPrefix(link, "http") {
		return fmt.Sprintf(`=HYPERLINK("%s"; "%s")`, link, LinkLabel)
	}
	return link
}
