package controllers

import (
	"html/template"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blogem/diesel-log/authenticator"
	"github.com/blogem/diesel-log/export"
	"github.com/blogem/diesel-log/metrics"
	"github.com/blogem/diesel-log/models"
	"github.com/blogem/diesel-log/services"
	"github.com/blogem/diesel-log/templates"
)

// Page templates
const (
	layoutTemplate  = "layout.html"
	indexTemplate   = "index.html"
	entriesTemplate = "entries.html"
)

// Options carries page and stream settings shared by the controllers
type Options struct {
	Title             string
	Subtitle          string
	AuthEnabled       bool
	HeartbeatInterval time.Duration
	RetryMillis       int
	Metrics           *metrics.Metrics
	Logger            logrus.FieldLogger
}

// parseTemplates creates a template set from the embedded pages
func parseTemplates(name string, files ...string) (*template.Template, error) {
	return template.New(name).ParseFS(templates.FS, files...)
}

// renderTemplateWithStatus creates a template set and renders it with the provided data and status code
func renderTemplateWithStatus(w http.ResponseWriter, statusCode int, data interface{}) error {
	tmpl, err := parseTemplates(layoutTemplate, layoutTemplate, indexTemplate, entriesTemplate)
	if err != nil {
		http.Error(w, "Failed to parse template: "+err.Error(), http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// Set status code if not OK
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}

	return tmpl.ExecuteTemplate(w, layoutTemplate, data)
}

// entryRow is one formatted line of the recent entries table
type entryRow struct {
	DateTime     string
	VehicleNo    string
	RouteNo      string
	StaffNo      string
	DriverName   string
	Kilometers   string
	DieselLitres string
	KMPL         string
}

func entryRows(logs []models.FuelLog, loc *time.Location) []entryRow {
	rows := make([]entryRow, 0, len(logs))
	for i := range logs {
		log := &logs[i]
		rows = append(rows, entryRow{
			DateTime:     models.FormatTableDateTime(log.Timestamp, loc),
			VehicleNo:    log.VehicleNo,
			RouteNo:      log.RouteNo,
			StaffNo:      log.StaffNo,
			DriverName:   log.DriverName,
			Kilometers:   export.FormatNumber(log.KilometersDriven),
			DieselLitres: export.FormatNumber(log.DieselLitres),
			KMPL:         log.KMPLText(),
		})
	}
	return rows
}

// pageData is the template data of the single application page
type pageData struct {
	Title       string
	Subtitle    string
	CurrentPage string
	AuthEnabled bool
	User        string
	Error       string
	Form        *models.FuelLogForm
	FieldErrors models.ValidationErrors
	Entries     []entryRow
}

// page renders the entry page with the given form and error message
type page struct {
	services *services.Services
	opts     Options
}

func (p *page) render(w http.ResponseWriter, r *http.Request, status int, form *models.FuelLogForm, fieldErrors models.ValidationErrors, errMsg string) {
	if form == nil {
		form = p.services.Entry.NewForm()
	}

	data := pageData{
		Title:       p.opts.Title,
		Subtitle:    p.opts.Subtitle,
		CurrentPage: "entries",
		AuthEnabled: p.opts.AuthEnabled,
		User:        currentUser(r),
		Error:       errMsg,
		Form:        form,
		FieldErrors: fieldErrors,
		Entries:     entryRows(p.services.Feed.Recent(), p.services.Entry.Location()),
	}

	if err := renderTemplateWithStatus(w, status, data); err != nil {
		p.opts.Logger.WithError(err).Error("Failed to render page")
	}
}

// Controllers holds all controller instances
type Controllers struct {
	Auth   *AuthController
	Entry  *EntryController
	Feed   *FeedController
	Export *ExportController
}

// NewControllers creates and initializes all controller instances. provider
// may be nil when sign-in is disabled.
func NewControllers(services *services.Services, provider authenticator.Provider, opts Options) *Controllers {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Title == "" {
		opts.Title = "TNSTC Diesel Log"
	}
	if opts.Subtitle == "" {
		opts.Subtitle = "Fuel Station Management System"
	}
	p := &page{services: services, opts: opts}

	return &Controllers{
		Auth:   NewAuthController(provider, opts.Logger),
		Entry:  NewEntryController(p),
		Feed:   NewFeedController(services, opts),
		Export: NewExportController(p),
	}
}
