package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// JudgeMonitor polls the external judge's workers endpoint so /health can
// report judge reachability without issuing a live probe per request.
type JudgeMonitor struct {
	BaseURL    string
	HTTPClient *http.Client

	healthy   atomic.Bool
	lastError atomic.Value // string
}

func NewJudgeMonitor() *JudgeMonitor {
	baseURL := os.Getenv("JUDGE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:2358"
	}
	m := &JudgeMonitor{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	m.lastError.Store("")
	return m
}

// Healthy reports the result of the most recent probe. Defaults to false
// until the first probe completes.
func (m *JudgeMonitor) Healthy() bool {
	return m.healthy.Load()
}

func (m *JudgeMonitor) LastError() string {
	s, _ := m.lastError.Load().(string)
	return s
}

func (m *JudgeMonitor) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", m.BaseURL+"/workers", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach judge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("judge returned status %d: %s", resp.StatusCode, string(body))
	}

	// Judge reports per-queue worker stats; any available worker counts.
	var queues []struct {
		Queue     string `json:"queue"`
		Available int    `json:"available"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&queues); err != nil {
		return fmt.Errorf("failed to decode judge workers response: %w", err)
	}
	for _, q := range queues {
		if q.Available > 0 {
			return nil
		}
	}
	return fmt.Errorf("judge has no available workers")
}

// PollJudge probes the judge on a fixed interval until ctx is cancelled.
func PollJudge(ctx context.Context, monitor *JudgeMonitor, pollInterval time.Duration) {
	log.Println("Starting judge health polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Judge health polling stopped.")
			return
		case <-ticker.C:
			if err := monitor.probe(ctx); err != nil {
				if monitor.healthy.Swap(false) {
					log.Printf("❌ Judge became unhealthy: %v", err)
				}
				monitor.lastError.Store(err.Error())
				continue
			}
			if !monitor.healthy.Swap(true) {
				log.Println("✅ Judge is healthy.")
			}
			monitor.lastError.Store("")
		}
	}
}
