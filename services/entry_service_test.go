package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/blogem/diesel-log/metrics"
	"github.com/blogem/diesel-log/models"
	"github.com/blogem/diesel-log/repositories/mocks"
)

// EntryServiceTestSuite is a test suite for EntryService
type EntryServiceTestSuite struct {
	suite.Suite
	service     EntryService
	mockLogRepo *mocks.MockFuelLogRepository
	metrics     *metrics.Metrics
}

// SetupTest sets up the test suite before each test
func (suite *EntryServiceTestSuite) SetupTest() {
	suite.mockLogRepo = mocks.NewMockFuelLogRepository(suite.T())
	suite.metrics = metrics.New(prometheus.NewRegistry())
	suite.service = NewEntryService(suite.mockLogRepo, ist, suite.metrics, quietLogger())
}

// TestSubmit_Success tests that a valid form is stored once with derived KMPL
func (suite *EntryServiceTestSuite) TestSubmit_Success() {
	suite.mockLogRepo.EXPECT().
		Create(mock.Anything, mock.MatchedBy(func(log *models.FuelLog) bool {
			return log.VehicleNo == "TN 68 N 1234" &&
				log.KMPL == 3.03 &&
				log.KilometersDriven == 100 &&
				log.DieselLitres == 33 &&
				log.Timestamp.Equal(time.Date(2024, 1, 15, 4, 0, 0, 0, time.UTC)) &&
				log.ID == ""
		})).
		Run(func(ctx context.Context, log *models.FuelLog) {
			log.ID = "generated-id"
		}).
		Return(nil).
		Once()

	// Act
	log, err := suite.service.Submit(context.Background(), validForm())

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "generated-id", log.ID)
	assert.Equal(suite.T(), "3.03", log.KMPLText())
	assert.Equal(suite.T(), 1.0, testutil.ToFloat64(suite.metrics.EntriesSubmittedTotal.WithLabelValues("saved")))
}

// TestSubmit_ZeroLitres tests that zero litres stores a zero efficiency
func (suite *EntryServiceTestSuite) TestSubmit_ZeroLitres() {
	form := validForm()
	form.DieselLitres = "0"

	suite.mockLogRepo.EXPECT().
		Create(mock.Anything, mock.MatchedBy(func(log *models.FuelLog) bool { return log.KMPL == 0 })).
		Return(nil).
		Once()

	_, err := suite.service.Submit(context.Background(), form)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "0.00", form.KMPL)
}

// TestSubmit_MissingField tests that incomplete forms never reach the store
func (suite *EntryServiceTestSuite) TestSubmit_MissingField() {
	form := validForm()
	form.DriverName = "   "

	// Act
	log, err := suite.service.Submit(context.Background(), form)

	// Assert
	assert.Nil(suite.T(), log)
	var verrs models.ValidationErrors
	assert.True(suite.T(), errors.As(err, &verrs))
	assert.True(suite.T(), verrs.Has("driver_name"))
	suite.mockLogRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	assert.Equal(suite.T(), 1.0, testutil.ToFloat64(suite.metrics.EntriesSubmittedTotal.WithLabelValues("invalid")))
}

// TestSubmit_NegativeKilometers tests numeric validation
func (suite *EntryServiceTestSuite) TestSubmit_NegativeKilometers() {
	form := validForm()
	form.Kilometers = "-5"

	_, err := suite.service.Submit(context.Background(), form)

	var verrs models.ValidationErrors
	assert.True(suite.T(), errors.As(err, &verrs))
	assert.True(suite.T(), verrs.Has("kilometers_driven"))
}

// TestSubmit_StoreFailure tests that store errors are surfaced and preserved
func (suite *EntryServiceTestSuite) TestSubmit_StoreFailure() {
	storeErr := errors.New("database connection failed")
	suite.mockLogRepo.EXPECT().Create(mock.Anything, mock.Anything).Return(storeErr).Once()

	form := validForm()
	log, err := suite.service.Submit(context.Background(), form)

	assert.Nil(suite.T(), log)
	assert.ErrorIs(suite.T(), err, storeErr)
	assert.Contains(suite.T(), err.Error(), "database connection failed")
	// Field values stay as typed so the page can show them again
	assert.Equal(suite.T(), "TN 68 N 1234", form.VehicleNo)
	assert.Equal(suite.T(), 1.0, testutil.ToFloat64(suite.metrics.EntriesSubmittedTotal.WithLabelValues("failed")))
}

// TestNewForm tests the blank form defaults
func (suite *EntryServiceTestSuite) TestNewForm() {
	suite.service.(*entryService).now = func() time.Time {
		return time.Date(2024, 1, 15, 4, 0, 42, 0, time.UTC)
	}

	form := suite.service.NewForm()

	assert.Equal(suite.T(), "2024-01-15T09:30", form.DateTime)
	assert.Equal(suite.T(), "0.00", form.KMPL)
	assert.Empty(suite.T(), form.VehicleNo)
	assert.Equal(suite.T(), ist, suite.service.Location())
}

// TestEntryServiceTestSuite runs the test suite
func TestEntryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EntryServiceTestSuite))
}
