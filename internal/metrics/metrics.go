// Package metrics exposes prometheus counters for the account, listing and
// notification lifecycles
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the services report to
type Recorder interface {
	RecordRegistration()
	RecordActivation(result string)
	RecordNotification(kind string, err error)
	RecordListingPublished()
	RecordCommentCreated(guest bool)
	RecordHTTPStatus(statusCode int)
}

type Collector struct {
	registrations prometheus.Counter
	activations   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	listings      prometheus.Counter
	comments      *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bboard_registrations_total",
			Help: "Accounts registered",
		}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bboard_activations_total",
			Help: "Activation attempts by outcome",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bboard_notifications_total",
			Help: "Notification e-mails by kind and outcome",
		}, []string{"kind", "outcome"}),
		listings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bboard_listings_published_total",
			Help: "Listings published",
		}),
		comments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bboard_comments_total",
			Help: "Comments created, split by guest and account authors",
		}, []string{"author"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bboard_http_responses_total",
			Help: "HTTP responses by status code",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.registrations,
		c.activations,
		c.notifications,
		c.listings,
		c.comments,
		c.httpStatus,
	)

	return c
}

func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

func (c *Collector) RecordActivation(result string) {
	c.activations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordNotification(kind string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}

	c.notifications.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) RecordListingPublished() {
	c.listings.Inc()
}

func (c *Collector) RecordCommentCreated(guest bool) {
	author := "account"
	if guest {
		author = "guest"
	}

	c.comments.WithLabelValues(author).Inc()
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything, used when metrics aren't wanted
type Nop struct{}

func (Nop) RecordRegistration()              {}
func (Nop) RecordActivation(string)          {}
func (Nop) RecordNotification(string, error) {}
func (Nop) RecordListingPublished()          {}
func (Nop) RecordCommentCreated(bool)        {}
func (Nop) RecordHTTPStatus(int)             {}
