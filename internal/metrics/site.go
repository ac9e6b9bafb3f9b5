package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sectionSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "soumispace",
			Subsystem: "editor",
			Name:      "section_saves_total",
			Help:      "分区保存次数，按结果区分。",
		},
		[]string{"section", "result"},
	)

	uploadsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "soumispace",
			Subsystem: "upload",
			Name:      "rejected_total",
			Help:      "被拒绝的图片上传次数。",
		},
		[]string{"reason"},
	)

	previewClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "soumispace",
			Subsystem: "preview",
			Name:      "clients",
			Help:      "当前连接的预览通道客户端数量。",
		},
		[]string{"role"},
	)
)

// ObserveSectionSave 记录一次分区保存结果，可直接作为 editor.Options.OnSectionSaved。
func ObserveSectionSave(section string, err error) {
	sectionSavesTotal.WithLabelValues(section, resultLabel(err)).Inc()
}

// ObserveUploadRejected 记录一次被拒绝的上传。
func ObserveUploadRejected(reason string) {
	uploadsRejectedTotal.WithLabelValues(reason).Inc()
}

// PreviewClientConnected 在连接建立时调用，返回的函数在断开时调用。
func PreviewClientConnected(role string) func() {
	previewClients.WithLabelValues(role).Inc()
	return func() { previewClients.WithLabelValues(role).Dec() }
}

// Handler 暴露默认注册表。
func Handler() http.Handler {
	return promhttp.Handler()
}
