package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateTimeLocalLayout is the layout of an HTML datetime-local input value
const DateTimeLocalLayout = "2006-01-02T15:04"

// FuelLog represents one diesel dispensing event
type FuelLog struct {
	ID               string    `json:"id" db:"id"`
	Timestamp        time.Time `json:"date_time" db:"date_time"`
	VehicleNo        string    `json:"vehicle_no" db:"vehicle_no"`
	RouteNo          string    `json:"route_no" db:"route_no"`
	StaffNo          string    `json:"staff_no" db:"staff_no"`
	DriverName       string    `json:"driver_name" db:"driver_name"`
	KilometersDriven float64   `json:"kilometers_driven" db:"kilometers_driven"`
	DieselLitres     float64   `json:"diesel_litres" db:"diesel_litres"`
	KMPL             float64   `json:"kmpl" db:"kmpl"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	RecordedBy       string    `json:"recorded_by,omitempty" db:"recorded_by"`
}

// KMPLText returns the stored efficiency with two decimals
func (l *FuelLog) KMPLText() string {
	return FormatFixed2(l.KMPL)
}

// FuelLogForm represents the entry form as typed by the operator.
// All values are raw text; KMPL is derived and read-only.
type FuelLogForm struct {
	DateTime     string `json:"date_time"` // "2025-10-01T14:30" format
	VehicleNo    string `json:"vehicle_no"`
	RouteNo      string `json:"route_no"`
	StaffNo      string `json:"staff_no"`
	DriverName   string `json:"driver_name"`
	Kilometers   string `json:"kilometers_driven"`
	DieselLitres string `json:"diesel_litres"`
	KMPL         string `json:"kmpl"`
}

// NewFuelLogForm returns an empty form stamped with the current local time
func NewFuelLogForm(now time.Time, loc *time.Location) *FuelLogForm {
	return &FuelLogForm{
		DateTime: FormatDateTimeLocal(now, loc),
		KMPL:     ZeroKMPL,
	}
}

// Recompute refreshes the derived efficiency from the current inputs
func (f *FuelLogForm) Recompute() {
	f.KMPL = ComputeKMPL(f.Kilometers, f.DieselLitres)
}

// Validate validates the fuel log form data
func (f *FuelLogForm) Validate(loc *time.Location) ValidationErrors {
	var errs ValidationErrors

	required := []struct {
		field, label, value string
	}{
		{"date_time", "Date & Time", f.DateTime},
		{"vehicle_no", "Vehicle No.", f.VehicleNo},
		{"route_no", "Route No.", f.RouteNo},
		{"staff_no", "Staff No.", f.StaffNo},
		{"driver_name", "Driver Name", f.DriverName},
		{"kilometers_driven", "Kilometers Driven", f.Kilometers},
		{"diesel_litres", "Volume of Diesel (Litres)", f.DieselLitres},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, ValidationError{Field: r.field, Message: r.label + " is required"})
		}
	}
	if errs.HasErrors() {
		return errs
	}

	if _, err := ParseDateTimeLocal(f.DateTime, loc); err != nil {
		errs = append(errs, ValidationError{Field: "date_time", Message: "Date & Time must be in YYYY-MM-DDTHH:MM format"})
	}
	if !isNonNegativeNumber(f.Kilometers) {
		errs = append(errs, ValidationError{Field: "kilometers_driven", Message: "Kilometers Driven must be a non-negative number"})
	}
	if !isNonNegativeNumber(f.DieselLitres) {
		errs = append(errs, ValidationError{Field: "diesel_litres", Message: "Volume of Diesel must be a non-negative number"})
	}

	return errs
}

// isNonNegativeNumber accepts exactly the text ParseNumber reads in full,
// so a validated value is stored as entered.
func isNonNegativeNumber(s string) bool {
	s = strings.TrimSpace(s)
	if numericPrefix.FindString(s) != s {
		return false
	}
	v := ParseNumber(s)
	return v >= 0 && !math.IsInf(v, 0)
}

// ToFuelLog converts a validated form into a new record. ID and CreatedAt
// are left for the store to assign.
func (f *FuelLogForm) ToFuelLog(loc *time.Location) (*FuelLog, error) {
	ts, err := ParseDateTimeLocal(f.DateTime, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date and time %q: %w", f.DateTime, err)
	}

	// Efficiency is captured from the text the operator saw at submission
	kmpl, err := strconv.ParseFloat(ComputeKMPL(f.Kilometers, f.DieselLitres), 64)
	if err != nil {
		return nil, fmt.Errorf("failed to derive KMPL: %w", err)
	}

	return &FuelLog{
		Timestamp:        ts.UTC(),
		VehicleNo:        strings.TrimSpace(f.VehicleNo),
		RouteNo:          strings.TrimSpace(f.RouteNo),
		StaffNo:          strings.TrimSpace(f.StaffNo),
		DriverName:       strings.TrimSpace(f.DriverName),
		KilometersDriven: ParseNumber(f.Kilometers),
		DieselLitres:     ParseNumber(f.DieselLitres),
		KMPL:             kmpl,
	}, nil
}
