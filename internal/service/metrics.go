package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// verdictsTotal counts recorded visits by final status and verification
// method, so the pending-reason distribution is observable without log
// scraping.
var verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "checkin_verdicts_total",
	Help: "Recorded visits by status and verification method.",
}, []string{"status", "method"})

// duplicatesTotal counts rejected duplicate submissions, from both the
// pre-insert check and lost insert races.
var duplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "checkin_duplicates_total",
	Help: "Submissions rejected because the station was already visited.",
})
