package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bytedrop_upload_bytes_total",
		Help: "Bytes durably appended to blobs across all upload attempts",
	})

	uploadsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bytedrop_uploads_completed_total",
		Help: "Files that reached their declared size and were marked uploaded",
	})

	uploadsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bytedrop_upload_attempts_discarded_total",
			Help: "Upload attempts rolled back to their starting offset",
		},
		[]string{"reason"},
	)

	activeUploads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bytedrop_active_uploads",
		Help: "Upload calls currently consuming a request stream",
	})
)

const (
	discardReasonOverflow  = "overflow"
	discardReasonTransport = "transport"
)
