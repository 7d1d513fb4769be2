package server

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	uploads     *prometheus.CounterVec
	uploadBytes prometheus.Counter
	renders     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "potluck",
			Name:      "uploads_total",
			Help:      "Attachment uploads by outcome.",
		}, []string{"outcome"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "potluck",
			Name:      "uploaded_bytes_total",
			Help:      "Bytes of attachment content stored.",
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "potluck",
			Name:      "renders_total",
			Help:      "Sanitized renders by format.",
		}, []string{"format"}),
	}
	for _, c := range []prometheus.Collector{m.uploads, m.uploadBytes, m.renders} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}
