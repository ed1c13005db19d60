package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	counter := HTTPRequestsTotal.WithLabelValues("GET", "/api/coverage", "200")
	before := testutil.ToFloat64(counter)

	RecordHTTPRequest("GET", "/api/coverage", "200", 15*time.Millisecond)
	RecordHTTPRequest("GET", "/api/coverage", "200", 5*time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
	assert.Positive(t, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPActiveRequests)
	TrackActiveRequest(true)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPActiveRequests))
	TrackActiveRequest(false)
	assert.Equal(t, before, testutil.ToFloat64(HTTPActiveRequests))
}

func TestRecordLoginDefaultsToSuccess(t *testing.T) {
	success := LoginsTotal.WithLabelValues(ResultSuccess)
	rejected := LoginsTotal.WithLabelValues("invalid_credentials")
	okBefore, badBefore := testutil.ToFloat64(success), testutil.ToFloat64(rejected)

	RecordLogin("")
	RecordLogin("invalid_credentials")

	assert.Equal(t, okBefore+1, testutil.ToFloat64(success))
	assert.Equal(t, badBefore+1, testutil.ToFloat64(rejected))
}

func TestRecordSaveAndLoad(t *testing.T) {
	failed := RatingSaves.WithLabelValues(ResultFailure)
	before := testutil.ToFloat64(failed)
	RecordSave(errors.New("disk full"))
	RecordSave(nil)
	assert.Equal(t, before+1, testutil.ToFloat64(failed))

	missing := RatingLoads.WithLabelValues("no_saved_ratings")
	before = testutil.ToFloat64(missing)
	RecordLoad("no_saved_ratings")
	assert.Equal(t, before+1, testutil.ToFloat64(missing))
}

func TestRecordRegistration(t *testing.T) {
	conflict := RegistrationsTotal.WithLabelValues("already_registered")
	before := testutil.ToFloat64(conflict)
	RecordRegistration("already_registered")
	assert.Equal(t, before+1, testutil.ToFloat64(conflict))
}
