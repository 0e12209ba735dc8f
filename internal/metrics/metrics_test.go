package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRegistration()
	c.RecordRegistration()
	c.RecordActivation("activated")
	c.RecordActivation("bad_signature")
	c.RecordActivation("activated")
	c.RecordNotification("activation", nil)
	c.RecordNotification("new_comment", errors.New("smtp down"))
	c.RecordListingPublished()
	c.RecordCommentCreated(true)
	c.RecordHTTPStatus(http.StatusNotFound)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.registrations))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.activations.WithLabelValues("activated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.activations.WithLabelValues("bad_signature")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notifications.WithLabelValues("activation", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notifications.WithLabelValues("new_comment", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.listings))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.comments.WithLabelValues("guest")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("404")))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordListingPublished()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "bboard_listings_published_total 1")
}
