package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/mucollege/dispatchtrack/core/metrics"
	"github.com/mucollege/dispatchtrack/infra/logger"
)

// InfluxSink writes dispatch-tracking events to an InfluxDB instance using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and falls back to a
// NopSink when the health check fails, so a missing metrics backend never
// blocks the tracker.
func NewInfluxSinkWithFallback(cfg Config) coremetrics.Sink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) writePoint(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

func (s *InfluxSink) RecordFetch(ev coremetrics.FetchEvent) error {
	p := write.NewPointWithMeasurement("dispatch_fetch").
		AddTag("failed", strconv.FormatBool(ev.Failed)).
		AddField("records", ev.Records).
		AddField("orphans", ev.Orphans).
		SetTime(time.Now())
	return s.writePoint(p)
}

func (s *InfluxSink) RecordCompletion(ev coremetrics.CompletionEvent) error {
	p := write.NewPointWithMeasurement("dispatch_completion").
		AddTag("college_id", ev.CollegeID).
		AddTag("failed", strconv.FormatBool(ev.Failed)).
		AddField("record_id", ev.RecordID).
		SetTime(time.Now())
	return s.writePoint(p)
}

func (s *InfluxSink) RecordIngest(ev coremetrics.IngestEvent) error {
	p := write.NewPointWithMeasurement("dispatch_ingest").
		AddTag("batch_id", ev.BatchID).
		AddField("created", ev.Created).
		AddField("unresolved", ev.Skipped).
		AddField("failed", ev.Failed).
		SetTime(time.Now())
	return s.writePoint(p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
