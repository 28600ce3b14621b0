package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"time"
)

type options struct {
	baseURL     string
	requests    int
	historyLen  int
	count       int
	seed        uint64
	delay       time.Duration
	httpTimeout time.Duration
	verbose     bool
}

type period struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
}

type predictionRequest struct {
	Periods []period `json:"periods"`
	Count   int      `json:"count"`
}

type latencyStats struct {
	Endpoint string  `json:"endpoint"`
	Samples  int     `json:"samples"`
	AvgUS    float64 `json:"avg_us"`
	P50US    float64 `json:"p50_us"`
	P95US    float64 `json:"p95_us"`
	P99US    float64 `json:"p99_us"`
}

type latencySnapshot struct {
	WindowSize int            `json:"window_size"`
	Endpoints  []latencyStats `json:"endpoints"`
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "perfcadence: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "perfcadence: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var cfg options
	var delayMS, timeoutMS int

	fs := flag.NewFlagSet("perfcadence", flag.ContinueOnError)
	fs.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8080", "cadence base URL")
	fs.IntVar(&cfg.requests, "requests", 200, "number of prediction requests to send")
	fs.IntVar(&cfg.historyLen, "history", 12, "periods per synthetic history")
	fs.IntVar(&cfg.count, "count", 6, "forecast windows requested per call")
	fs.Uint64Var(&cfg.seed, "seed", 1, "random seed for synthetic histories")
	fs.IntVar(&delayMS, "delay-ms", 0, "delay between requests in milliseconds")
	fs.IntVar(&timeoutMS, "timeout-ms", 5000, "per-request timeout in milliseconds")
	fs.BoolVar(&cfg.verbose, "verbose", false, "print every response status")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if cfg.requests <= 0 {
		return options{}, fmt.Errorf("requests must be > 0")
	}
	if cfg.historyLen < 0 || cfg.historyLen > 500 {
		return options{}, fmt.Errorf("history must be in [0,500]")
	}
	if delayMS < 0 {
		delayMS = 0
	}
	if timeoutMS < 100 {
		timeoutMS = 100
	}
	cfg.delay = time.Duration(delayMS) * time.Millisecond
	cfg.httpTimeout = time.Duration(timeoutMS) * time.Millisecond
	return cfg, nil
}

func run(cfg options) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client := &http.Client{Timeout: cfg.httpTimeout}
	rng := rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15))
	today := time.Now().UTC()

	failures := 0
	started := time.Now()
	for i := 0; i < cfg.requests; i++ {
		req := predictionRequest{Periods: synthHistory(rng, cfg.historyLen, today), Count: cfg.count}
		status, err := postPrediction(ctx, client, cfg.baseURL, req)
		if err != nil {
			return fmt.Errorf("request %d: %w", i+1, err)
		}
		if status != http.StatusOK {
			failures++
		}
		if cfg.verbose {
			fmt.Printf("perfcadence: request %d/%d status=%d periods=%d\n", i+1, cfg.requests, status, len(req.Periods))
		}
		if cfg.delay > 0 && i < cfg.requests-1 {
			time.Sleep(cfg.delay)
		}
	}
	elapsed := time.Since(started)
	fmt.Printf("perfcadence: %d requests in %s (%.1f req/s), %d non-200\n",
		cfg.requests, elapsed.Round(time.Millisecond), float64(cfg.requests)/elapsed.Seconds(), failures)

	snap, err := fetchLatency(ctx, client, cfg.baseURL)
	if err != nil {
		return fmt.Errorf("fetch latency window: %w", err)
	}
	for _, e := range snap.Endpoints {
		fmt.Printf("perfcadence: %-18s samples=%d avg=%.1fus p50=%.1fus p95=%.1fus p99=%.1fus\n",
			e.Endpoint, e.Samples, e.AvgUS, e.P50US, e.P95US, e.P99US)
	}
	return nil
}

// synthHistory builds n closed periods ending before today, with cycle
// gaps in [24, 34] and lengths in [3, 7]. The newest period is left open
// one time in four.
func synthHistory(rng *rand.Rand, n int, today time.Time) []period {
	if n == 0 {
		return []period{}
	}
	gaps := make([]int, n)
	total := 0
	for i := range gaps {
		gaps[i] = 24 + rng.IntN(11)
		total += gaps[i]
	}
	start := today.AddDate(0, 0, -total)
	out := make([]period, 0, n)
	for i := 0; i < n; i++ {
		length := 3 + rng.IntN(5)
		p := period{StartDate: start.Format("2006-01-02")}
		if i < n-1 || rng.IntN(4) != 0 {
			p.EndDate = start.AddDate(0, 0, length-1).Format("2006-01-02")
		}
		out = append(out, p)
		start = start.AddDate(0, 0, gaps[i])
	}
	return out
}

func postPrediction(ctx context.Context, client *http.Client, baseURL string, body predictionRequest) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/predictions", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
	return res.StatusCode, nil
}

func fetchLatency(ctx context.Context, client *http.Client, baseURL string) (latencySnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/perf/latency", nil)
	if err != nil {
		return latencySnapshot{}, err
	}
	res, err := client.Do(req)
	if err != nil {
		return latencySnapshot{}, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return latencySnapshot{}, err
	}
	if res.StatusCode != http.StatusOK {
		return latencySnapshot{}, fmt.Errorf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	var out latencySnapshot
	if err := json.Unmarshal(body, &out); err != nil {
		return latencySnapshot{}, err
	}
	return out, nil
}
