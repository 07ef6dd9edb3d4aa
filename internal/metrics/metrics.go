package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hopcheck_build_info",
			Help: "Build information of hopcheck",
		},
		[]string{"version", "commit", "date"},
	)

	QuestionsGradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hopcheck_questions_graded_total",
		Help: "Total number of questions graded, by outcome",
	}, []string{"result"})

	GradeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hopcheck_grade_duration_seconds",
		Help:    "Duration of grading one question",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // ≈ 5ms .. ~10s
	})

	ConstraintViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hopcheck_constraint_violations_total",
		Help: "Total number of constraint violations, by rule",
	}, []string{"rule"})

	CorpusFilesLoadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hopcheck_corpus_files_loaded_total",
		Help: "Total number of corpus files loaded during grading, by kind",
	}, []string{"kind"})
)
