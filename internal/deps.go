package internal

import (
	"bitwise74/bboard/internal/metrics"
	"bitwise74/bboard/internal/service"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Deps is everything the handlers need
type Deps struct {
	DB       *gorm.DB
	Accounts *service.AccountService
	Listings *service.ListingService
	Comments *service.CommentService
	Rubrics  *service.RubricService
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer

	JWTSecret     []byte
	SessionTTL    time.Duration
	SecureCookies bool
	// When true a failed author notification turns a comment request into an error
	StrictCommentDelivery bool
}
