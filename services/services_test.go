package services

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blogem/diesel-log/models"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func validForm() *models.FuelLogForm {
	return &models.FuelLogForm{
		DateTime:     "2024-01-15T09:30",
		VehicleNo:    "TN 68 N 1234",
		RouteNo:      "10A",
		StaffNo:      "10DR051",
		DriverName:   "K. Raju",
		Kilometers:   "100",
		DieselLitres: "33",
	}
}
