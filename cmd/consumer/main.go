// The consumer keeps the shared Redis geo index of active offer origins
// in sync from the route-offers Kafka topic, so API instances can trim
// candidate sets without scanning every offer.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/carpool/internal/ingest"
	"github.com/example/carpool/internal/models"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_offer_events_consumed_total",
		Help: "Total offer events consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_offer_events_invalid_total",
		Help: "Total invalid offer events received",
	})
	redisUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_updates_total",
		Help: "Total successful redis index updates",
	})
	redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_errors_total",
		Help: "Total redis errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, redisUpdates, redisErrors)
}

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	brokers := []string{"localhost:9092"}
	if env := os.Getenv("KAFKA_BROKERS"); env != "" {
		brokers = brokers[:0]
		for _, b := range strings.Split(env, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	}
	topic := envOr("KAFKA_TOPIC", "route-offers")
	group := envOr("KAFKA_GROUP", "carpool-index-consumer")
	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	geoKey := envOr("REDIS_GEO_KEY", "offers_geo")

	rc := redis.NewClient(&redis.Options{Addr: redisAddr})
	updater := &redisUpdater{c: rc, key: geoKey}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		log.Printf("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	log.Printf("consumer listening topic=%s brokers=%v group=%s", topic, brokers, group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("shutting down consumer")
				return
			}
			log.Printf("kafka read error: %v; backing off %s", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		msgsConsumed.Inc()

		var ev ingest.OfferEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.Offer.ID == "" {
			msgsInvalid.Inc()
			log.Printf("invalid offer event: %v", err)
			continue
		}

		if err := applyEventWithRetry(ctx, updater, ev, 3, 200*time.Millisecond); err != nil {
			redisErrors.Inc()
			log.Printf("redis update failed for offer=%s: %v", ev.Offer.ID, err)
			continue
		}
		redisUpdates.Inc()
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// IndexUpdater is the subset of redis operations the consumer needs,
// split out so tests can fake it.
type IndexUpdater interface {
	GeoAdd(ctx context.Context, offerID string, origin models.Coordinate) error
	Remove(ctx context.Context, offerID string) error
}

type redisUpdater struct {
	c   *redis.Client
	key string
}

func (r *redisUpdater) GeoAdd(ctx context.Context, offerID string, origin models.Coordinate) error {
	return r.c.GeoAdd(ctx, r.key, &redis.GeoLocation{Longitude: origin.Lon, Latitude: origin.Lat, Name: offerID}).Err()
}

func (r *redisUpdater) Remove(ctx context.Context, offerID string) error {
	return r.c.ZRem(ctx, r.key, offerID).Err()
}

// applyEventWithRetry indexes created/active offers and evicts everything
// else, retrying redis with exponential backoff.
func applyEventWithRetry(ctx context.Context, u IndexUpdater, ev ingest.OfferEvent, attempts int, delay time.Duration) error {
	index := ev.Type == ingest.EventCreated ||
		(ev.Type == ingest.EventStatus && ev.Offer.Status == models.OfferActive)

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		if index {
			lastErr = u.GeoAdd(ctx, ev.Offer.ID, ev.Offer.Origin)
		} else {
			lastErr = u.Remove(ctx, ev.Offer.ID)
		}
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}
