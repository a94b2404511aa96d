package export

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes the header and one record per row. Records end in "\n";
// cell contents, including embedded line breaks, are written unchanged.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r[:]); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
