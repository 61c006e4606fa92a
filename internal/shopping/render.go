package shopping

import (
	"bufio"
	"io"
	"strconv"
)

// Fixed report lines. Consumers parse this format, keep it stable.
const (
	Header = "Список ваших покупок: "
	Footer = "- Ваш сервис рецептов Foodgram"

	// Filename is the suggested attachment name for the report.
	Filename = "BuyList.txt"
)

// Render writes the report: header, one "<name> - <amount> <unit>;" line per
// item, footer. Lines are separated by '\n'.
func Render(w io.Writer, items []Item) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Header)
	for _, it := range items {
		bw.WriteByte('\n')
		bw.WriteString(it.Name)
		bw.WriteString(" - ")
		bw.WriteString(strconv.Itoa(it.Amount))
		bw.WriteByte(' ')
		bw.WriteString(it.Unit)
		bw.WriteByte(';')
	}
	bw.WriteByte('\n')
	bw.WriteString(Footer)
	return bw.Flush()
}
