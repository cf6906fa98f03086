// The consumer drains the driver-locations topic and keeps the Redis GEO
// index fresh for the matcher's prefilter. Index updates are best effort;
// the driver profile store remains the source of truth.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/LongshotAI/ride-my-wheels-home/internal/logging"
	"github.com/LongshotAI/ride-my-wheels-home/internal/matching"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

var (
	msgsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ridehail",
		Name:      "consumer_pings_consumed_total",
		Help:      "Total driver location pings consumed",
	})
	msgsInvalid = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ridehail",
		Name:      "consumer_pings_invalid_total",
		Help:      "Total undecodable messages received",
	})
	indexUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ridehail",
		Name:      "consumer_index_updates_total",
		Help:      "Total successful geo index updates",
	})
	indexErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ridehail",
		Name:      "consumer_index_errors_total",
		Help:      "Total geo index update failures after retries",
	})
)

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	logger := logging.NewLogger("geo-consumer", os.Getenv("LOG_LEVEL"))

	brokers := splitBrokers(os.Getenv("KAFKA_BROKERS"))
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	topic := envOr("KAFKA_LOCATION_TOPIC", "driver-locations")
	group := envOr("KAFKA_GROUP", "geo-index-consumer")
	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	geoKey := envOr("REDIS_GEO_KEY", "drivers_geo")

	rc := redis.NewClient(&redis.Options{Addr: redisAddr, Password: os.Getenv("REDIS_PASSWORD")})
	index := matching.NewRedisIndexWithClient(rc, geoKey)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := index.Ping(r.Context()); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
		})
		logger.Info("metrics/health listening", "addr", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = index.Close()
	}()

	logger.Info("consumer started", "topic", topic, "brokers", brokers, "group", group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down consumer")
				return
			}
			logger.Warn("kafka read error", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
		msgsConsumed.Inc()

		var ping models.LocationPing
		if err := json.Unmarshal(m.Value, &ping); err != nil {
			msgsInvalid.Inc()
			logger.Warn("invalid location message", "error", err)
			continue
		}
		if ping.DriverID == "" || !(models.Coord{Lat: ping.Lat, Lng: ping.Lng}).Valid() {
			msgsInvalid.Inc()
			logger.Warn("rejecting malformed ping", "driver_id", ping.DriverID)
			continue
		}

		if err := updateIndexWithRetry(ctx, index, ping, 3, 200*time.Millisecond); err != nil {
			indexErrors.Inc()
			logger.Error("geo index update failed", "driver_id", ping.DriverID, "error", err)
			continue
		}
		indexUpdates.Inc()
	}
}

// IndexUpdater is the subset of the geo index the consumer writes, kept small
// for test fakes.
type IndexUpdater interface {
	Update(ctx context.Context, driverID string, lat, lng float64) error
}

// updateIndexWithRetry applies one ping with bounded retry and doubling delay.
func updateIndexWithRetry(ctx context.Context, idx IndexUpdater, ping models.LocationPing, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = idx.Update(ctx, ping.DriverID, ping.Lat, ping.Lng); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitBrokers(v string) []string {
	var out []string
	for _, b := range strings.Split(v, ",") {
		if s := strings.TrimSpace(b); s != "" {
			out = append(out, s)
		}
	}
	return out
}
