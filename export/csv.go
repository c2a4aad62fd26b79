// Package export renders the fuel log as downloadable documents.
package export

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/blogem/diesel-log/models"
)

// Headers are the column labels shared by every export format
var Headers = []string{
	"Date & Time",
	"Vehicle No",
	"Route No",
	"Staff No",
	"Driver Name",
	"Kilometers Driven",
	"Diesel (Litres)",
	"KMPL",
}

// FormatNumber renders a stored number in its shortest form ("100", "3.03")
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// CSVLine renders one record. Date and text fields are quoted, numbers are not.
func CSVLine(log models.FuelLog, loc *time.Location) string {
	fields := []string{
		quote(models.FormatExportDateTime(log.Timestamp, loc)),
		quote(log.VehicleNo),
		quote(log.RouteNo),
		quote(log.StaffNo),
		quote(log.DriverName),
		FormatNumber(log.KilometersDriven),
		FormatNumber(log.DieselLitres),
		FormatNumber(log.KMPL),
	}
	return strings.Join(fields, ",")
}

// WriteCSV writes the header and one line per record, in the order given.
// Lines are separated by "\n" with no trailing newline.
func WriteCSV(w io.Writer, logs []models.FuelLog, loc *time.Location) error {
	header := make([]string, len(Headers))
	for i, h := range Headers {
		header[i] = quote(h)
	}

	if _, err := io.WriteString(w, strings.Join(header, ",")); err != nil {
		return err
	}
	for _, log := range logs {
		if _, err := io.WriteString(w, "\n"+CSVLine(log, loc)); err != nil {
			return err
		}
	}
	return nil
}
