package export

import (
	"bufio"
	"io"
	"strings"
)

var csvHeader = Row{"Section", "Field", "Value"}

// WriteCSV writes the header and rows. Every cell is quoted with inner
// quotes doubled, and rows are separated by a bare "\n" with no trailing
// newline.
func WriteCSV(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	all := append([]Row{csvHeader}, rows...)
	for i, r := range all {
		if i > 0 {
			bw.WriteByte('\n')
		}
		for j, cell := range []string{r.Section, r.Field, r.Value} {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			bw.WriteByte('"')
		}
	}
	return bw.Flush()
}

// SiteTemplate writes the header row of the multi-site upload template.
func SiteTemplate(w io.Writer) error {
	_, err := io.WriteString(w, "Site Name,Street Address,City,State,ZIP Code,Phone,Services\n")
	return err
}
