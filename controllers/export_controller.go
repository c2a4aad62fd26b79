package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/blogem/diesel-log/services"
)

// ExportController handles downloads of the whole log
type ExportController struct {
	page *page
}

// NewExportController creates a new export controller
func NewExportController(p *page) *ExportController {
	return &ExportController{page: p}
}

// CSV handles GET /export.csv
func (c *ExportController) CSV(w http.ResponseWriter, r *http.Request) {
	c.download(w, r, services.FormatCSV)
}

// XLSX handles GET /export.xlsx
func (c *ExportController) XLSX(w http.ResponseWriter, r *http.Request) {
	c.download(w, r, services.FormatXLSX)
}

func (c *ExportController) download(w http.ResponseWriter, r *http.Request, format string) {
	file, err := c.page.services.Export.Export(r.Context(), format)
	if errors.Is(err, services.ErrNoData) {
		c.page.render(w, r, http.StatusNotFound, nil, nil, "No data to export")
		return
	}
	if err != nil {
		c.page.render(w, r, http.StatusInternalServerError, nil, nil, "Error exporting data: "+err.Error())
		return
	}

	// Set headers for download
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Cache-Control", "no-store")

	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}
