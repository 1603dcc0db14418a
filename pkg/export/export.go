// Package export renders bookings as JSON or CSV for downstream reporting.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/smartev/scheduler/core/model"
)

// WriteJSON writes the bookings to w as a JSON array.
func WriteJSON(w io.Writer, bookings []model.Booking) error {
	enc := json.NewEncoder(w)
	return enc.Encode(bookings)
}

// WriteCSV writes the bookings to w with a header row.
func WriteCSV(w io.Writer, bookings []model.Booking) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "charger_id", "user_id", "start_time", "end_time", "energy_kwh", "total_cost", "status"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, b := range bookings {
		rec := []string{
			b.ID,
			b.ChargerID,
			b.UserID,
			b.Start.Format(time.RFC3339),
			b.End.Format(time.RFC3339),
			strconv.FormatFloat(b.EnergyKWh, 'f', -1, 64),
			strconv.FormatFloat(b.TotalCost, 'f', -1, 64),
			b.Status.String(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
