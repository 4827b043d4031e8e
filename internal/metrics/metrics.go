// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層およびミドルウェアから利用する。
type MetricsCollector interface {
	ProductCreated()
	AttributeCreated(kind string)
	AttributeReused(kind string)
	ImageUploaded()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordTokensPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	productsCreated prometheus.Counter
	attrsCreated    *prometheus.CounterVec
	attrsReused     *prometheus.CounterVec
	imagesUploaded  prometheus.Counter
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
	tokensPurged    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		productsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_products_created_total",
			Help: "作成された商品の合計数",
		}),
		attrsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_attributes_created_total",
			Help: "作成されたタグ・原材料の合計数",
		}, []string{"kind"}),
		attrsReused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_attribute_reuse_total",
			Help: "名前解決で再利用された既存タグ・原材料の合計数",
		}, []string{"kind"}),
		imagesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_images_uploaded_total",
			Help: "アップロードされた商品画像の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		tokensPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_tokens_purged_total",
			Help: "クリーンアップで削除された期限切れトークンの合計数",
		}),
	}

	reg.MustRegister(
		c.productsCreated,
		c.attrsCreated,
		c.attrsReused,
		c.imagesUploaded,
		c.httpStatus,
		c.requestLatency,
		c.tokensPurged,
	)

	return c
}

// ProductCreated は商品作成を記録する。
func (c *Collector) ProductCreated() {
	c.productsCreated.Inc()
}

// AttributeCreated はタグまたは原材料の新規作成を記録する。
// kindは"tag"または"ingredient"。
func (c *Collector) AttributeCreated(kind string) {
	c.attrsCreated.WithLabelValues(kind).Inc()
}

// AttributeReused は名前解決で既存の属性が再利用されたことを記録する。
func (c *Collector) AttributeReused(kind string) {
	c.attrsReused.WithLabelValues(kind).Inc()
}

// ImageUploaded は商品画像のアップロードを記録する。
func (c *Collector) ImageUploaded() {
	c.imagesUploaded.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordTokensPurged は削除された期限切れトークン数を記録する。
func (c *Collector) RecordTokensPurged(count int64) {
	c.tokensPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
