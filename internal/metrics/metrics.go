package metrics

import "github.com/prometheus/client_golang/prometheus"

// Counters exported at /metrics. The result label is a small fixed set per
// counter (ok/invalid/error, hit/miss/error, ok/failed/error).
var (
	Submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classattend_submissions_total",
		Help: "Attendance submissions by result.",
	}, []string{"result"})

	RecognitionJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classattend_recognition_jobs_total",
		Help: "Recognition jobs processed by the worker, by result.",
	}, []string{"result"})

	LectureLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classattend_lecture_lookups_total",
		Help: "Lecture resolution queries by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(Submissions, RecognitionJobs, LectureLookups)
}
