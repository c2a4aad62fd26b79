package controllers

import (
	"errors"
	"net/http"

	"github.com/blogem/diesel-log/models"
)

// EntryController handles the entry page and form submission
type EntryController struct {
	page *page
}

// NewEntryController creates a new entry controller
func NewEntryController(p *page) *EntryController {
	return &EntryController{page: p}
}

// Index handles GET / - shows a fresh form and the recent entries
func (c *EntryController) Index(w http.ResponseWriter, r *http.Request) {
	c.page.render(w, r, http.StatusOK, nil, nil, "")
}

// Create handles POST /entries
func (c *EntryController) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.page.render(w, r, http.StatusBadRequest, nil, nil, "Error saving entry: invalid form data")
		return
	}

	form := &models.FuelLogForm{
		DateTime:     r.FormValue("date_time"),
		VehicleNo:    r.FormValue("vehicle_no"),
		RouteNo:      r.FormValue("route_no"),
		StaffNo:      r.FormValue("staff_no"),
		DriverName:   r.FormValue("driver_name"),
		Kilometers:   r.FormValue("kilometers_driven"),
		DieselLitres: r.FormValue("diesel_litres"),
	}

	_, err := c.page.services.Entry.Submit(r.Context(), form)
	if err != nil {
		var verrs models.ValidationErrors
		if errors.As(err, &verrs) {
			c.page.render(w, r, http.StatusBadRequest, form, verrs, "Error saving entry: "+verrs.Error())
			return
		}
		c.page.render(w, r, http.StatusInternalServerError, form, nil, "Error saving entry: "+err.Error())
		return
	}

	// Redirect back to a fresh form
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// KMPL handles GET /kmpl?kilometers=&litres=
func (c *EntryController) KMPL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(models.ComputeKMPL(q.Get("kilometers"), q.Get("litres"))))
}
