// Command keyspace-sandbox runs a local keys API server backed by the
// in-memory mock store, for developing against the SDK without a real
// cluster. It supports seeding, artificial latency and failure injection.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kvgrid/keyspace_sdk_go/internal/devseed"
	"github.com/kvgrid/keyspace_sdk_go/pkg/keyspace/mock"
)

type failConfig struct {
	rate float64
	code int
}

func main() {
	addr := flag.String("addr", ":2379", "listen address")
	seed := flag.String("seed", "", "path to JSON or YAML seed for the keyspace")
	latency := flag.Duration("latency", 0, "artificial latency to inject per request")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	store := mock.New()
	if *seed != "" {
		entries, err := devseed.Load(*seed)
		if err != nil {
			log.WithError(err).Fatal("load seed")
		}
		if err := store.Seed(entries); err != nil {
			log.WithError(err).Fatal("apply seed")
		}
		log.WithField("entries", len(entries)).Info("seed applied")
	}

	failCfg, err := parseFailConfig(*fail)
	if err != nil {
		log.WithError(err).Fatal("parse fail flag")
	}

	server := &http.Server{
		Addr:    *addr,
		Handler: withMiddleware(log, *latency, failCfg, store.Handler()),
	}

	log.WithField("addr", *addr).Info("keyspace-sandbox listening")
	fmt.Println()
	fmt.Println("export KEYSPACE_RUNTIME_MODE=http")
	host := *addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	fmt.Printf("export KEYSPACE_API_URL=http://%s\n", host)
	fmt.Println()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server failed")
	}
}

func withMiddleware(log *logrus.Logger, delay time.Duration, failCfg failConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		if failCfg.rate > 0 && rand.Float64() < failCfg.rate {
			status := failCfg.code
			if status == 0 {
				status = http.StatusInternalServerError
			}
			log.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"status": status,
			}).Debug("failure injected")
			http.Error(w, "failure injected", status)
			return
		}
		log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("request")
		next.ServeHTTP(w, r)
	})
}

func parseFailConfig(raw string) (failConfig, error) {
	cfg := failConfig{}
	if raw == "" {
		return cfg, nil
	}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return cfg, fmt.Errorf("invalid fail segment %q", part)
		}
		switch kv[0] {
		case "rate":
			rate, err := strconv.ParseFloat(kv[1], 64)
			if err != nil || rate < 0 || rate > 1 {
				return cfg, fmt.Errorf("invalid fail rate %q", kv[1])
			}
			cfg.rate = rate
		case "code":
			code, err := strconv.Atoi(kv[1])
			if err != nil {
				return cfg, fmt.Errorf("invalid fail code %q", kv[1])
			}
			cfg.code = code
		default:
			return cfg, fmt.Errorf("unknown fail key %q", kv[0])
		}
	}
	return cfg, nil
}
