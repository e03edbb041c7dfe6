package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"codequest/utils"
)

// Judge status ids, as reported by the execution service. Exactly one value
// means accepted; ids at or below JudgeStatusProcessing mean the run is still
// queued or executing.
const (
	JudgeStatusInQueue          = 1
	JudgeStatusProcessing       = 2
	JudgeStatusAccepted         = 3
	JudgeStatusWrongAnswer      = 4
	JudgeStatusTimeLimit        = 5
	JudgeStatusCompilationError = 6
	// 7..12 are runtime error subclasses (SIGSEGV, SIGFPE, NZEC, ...).
	JudgeStatusRuntimeErrorLow  = 7
	JudgeStatusRuntimeErrorHigh = 12
	JudgeStatusInternalError    = 13
)

// Verdict is one test case's decoded judge outcome, aligned to the execution
// unit at the same Index. Received=false means the judge answered the batch
// but produced neither a verdict nor a token for this item; the aggregator
// treats that as an internal error for that case only.
type Verdict struct {
	Index         int
	Received      bool
	StatusID      int
	Description   string
	Stdout        string
	Stderr        string
	CompileOutput string
	Message       string
	TimeSec       float64
	MemoryKB      int
}

// Terminal reports whether the judge finished with this case.
func (v Verdict) Terminal() bool {
	return v.Received && v.StatusID > JudgeStatusProcessing
}

// JudgeDispatcher sends execution units to the external judge and collects
// verdicts. Both methods have a hard wall-clock bound; a grading call can
// never hang on the judge indefinitely.
type JudgeDispatcher interface {
	// RunBatch submits all units in one call and polls until every item is
	// terminal or the attempt budget runs out. The returned slice always has
	// len(units) entries in unit order, regardless of the order the judge
	// reports them in.
	RunBatch(ctx context.Context, units []ExecutionUnit, lang Language, cpuLimitSec float64) ([]Verdict, error)

	// RunSingle submits one unit and waits inline for its verdict.
	RunSingle(ctx context.Context, unit ExecutionUnit, lang Language, cpuLimitSec float64) (Verdict, error)
}

// HTTPJudgeClient talks to a judge deployment over HTTP. All free-text fields
// (source, stdin, expected output, stdout, stderr, compile output) are
// base64-encoded on the wire in both directions.
type HTTPJudgeClient struct {
	BaseURL      string
	HTTPClient   *http.Client
	PollAttempts int
	PollInterval time.Duration
}

func NewJudgeClient() *HTTPJudgeClient {
	baseURL := os.Getenv("JUDGE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:2358"
	}
	attempts := 10
	if v, err := strconv.Atoi(os.Getenv("JUDGE_POLL_ATTEMPTS")); err == nil && v > 0 {
		attempts = v
	}
	interval := time.Second
	if v, err := strconv.Atoi(os.Getenv("JUDGE_POLL_INTERVAL_MS")); err == nil && v > 0 {
		interval = time.Duration(v) * time.Millisecond
	}
	return &HTTPJudgeClient{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		HTTPClient:   utils.HTTPClient,
		PollAttempts: attempts,
		PollInterval: interval,
	}
}

// wire shapes

type judgeSubmission struct {
	LanguageID     int     `json:"language_id"`
	SourceCode     string  `json:"source_code"`
	Stdin          string  `json:"stdin,omitempty"`
	ExpectedOutput string  `json:"expected_output,omitempty"`
	CPUTimeLimit   float64 `json:"cpu_time_limit,omitempty"`
}

type judgeStatus struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type judgeResult struct {
	Token         string       `json:"token,omitempty"`
	Status        *judgeStatus `json:"status,omitempty"`
	Stdout        *string      `json:"stdout"`
	Stderr        *string      `json:"stderr"`
	CompileOutput *string      `json:"compile_output"`
	Message       *string      `json:"message"`
	Time          *string      `json:"time"`
	Memory        *int         `json:"memory"`
}

func (c *HTTPJudgeClient) RunSingle(ctx context.Context, unit ExecutionUnit, lang Language, cpuLimitSec float64) (Verdict, error) {
	body, err := json.Marshal(encodeSubmission(unit, lang, cpuLimitSec))
	if err != nil {
		return Verdict{}, fmt.Errorf("marshal judge submission: %w", err)
	}

	endpoint := c.BaseURL + "/submissions?base64_encoded=true&wait=true"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return Verdict{}, err
	}

	var res judgeResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return Verdict{}, fmt.Errorf("malformed judge response: %v: %w", err, ErrJudgeUnavailable)
	}
	return decodeVerdict(unit.Index, res), nil
}

func (c *HTTPJudgeClient) RunBatch(ctx context.Context, units []ExecutionUnit, lang Language, cpuLimitSec float64) ([]Verdict, error) {
	payload := struct {
		Submissions []judgeSubmission `json:"submissions"`
	}{Submissions: make([]judgeSubmission, 0, len(units))}
	for _, u := range units {
		payload.Submissions = append(payload.Submissions, encodeSubmission(u, lang, cpuLimitSec))
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal judge batch: %w", err)
	}

	raw, err := c.post(ctx, c.BaseURL+"/submissions/batch?base64_encoded=true", body)
	if err != nil {
		return nil, err
	}

	var items []judgeResult
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("malformed judge batch response: %v: %w", err, ErrJudgeUnavailable)
	}
	if len(items) != len(units) {
		return nil, fmt.Errorf("judge returned %d items for %d units: %w", len(items), len(units), ErrJudgeUnavailable)
	}

	verdicts := make([]Verdict, len(units))
	tokenIndex := make(map[string]int, len(units))
	pending := make([]string, 0, len(units))

	for i, item := range items {
		verdicts[i].Index = units[i].Index
		if item.Status != nil && item.Status.ID > JudgeStatusProcessing {
			// Judge answered inline, no polling needed for this item.
			verdicts[i] = decodeVerdict(units[i].Index, item)
			continue
		}
		if item.Token == "" {
			// Neither a verdict nor a token; leave the slot unreceived.
			continue
		}
		tokenIndex[item.Token] = i
		pending = append(pending, item.Token)
	}

	for attempt := 0; len(pending) > 0 && attempt < c.PollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("grading cancelled while polling judge: %w", ErrJudgeUnavailable)
			case <-time.After(c.PollInterval):
			}
		}

		results, err := c.fetchBatch(ctx, pending)
		if err != nil {
			return nil, err
		}

		still := pending[:0]
		for _, token := range pending {
			res, ok := results[token]
			if !ok || res.Status == nil || res.Status.ID <= JudgeStatusProcessing {
				still = append(still, token)
				continue
			}
			i := tokenIndex[token]
			verdicts[i] = decodeVerdict(units[i].Index, res)
		}
		pending = still
	}

	if len(pending) > 0 {
		// Fail closed: a submission graded off incomplete verdicts must not
		// reach persistence. The caller may retry the whole grading call.
		log.Printf("⚠️ [JUDGE] poll budget exhausted, %d of %d cases still pending", len(pending), len(units))
		return nil, fmt.Errorf("judge did not finish %d of %d cases within poll budget: %w", len(pending), len(units), ErrJudgeUnavailable)
	}
	return verdicts, nil
}

func (c *HTTPJudgeClient) fetchBatch(ctx context.Context, tokens []string) (map[string]judgeResult, error) {
	q := url.Values{}
	q.Set("tokens", strings.Join(tokens, ","))
	q.Set("base64_encoded", "true")
	q.Set("fields", "token,status,stdout,stderr,compile_output,message,time,memory")
	endpoint := c.BaseURL + "/submissions/batch?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build judge status request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("judge status request failed: %v: %w", err, ErrJudgeUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read judge status response: %v: %w", err, ErrJudgeUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("judge status endpoint returned %d: %w", resp.StatusCode, ErrJudgeUnavailable)
	}

	var body struct {
		Submissions []judgeResult `json:"submissions"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("malformed judge status response: %v: %w", err, ErrJudgeUnavailable)
	}

	results := make(map[string]judgeResult, len(body.Submissions))
	for _, s := range body.Submissions {
		results[s.Token] = s
	}
	return results, nil
}

func (c *HTTPJudgeClient) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("judge request failed: %v: %w", err, ErrJudgeUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read judge response: %v: %w", err, ErrJudgeUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("judge returned %d: %w", resp.StatusCode, ErrJudgeUnavailable)
	}
	return raw, nil
}

func encodeSubmission(unit ExecutionUnit, lang Language, cpuLimitSec float64) judgeSubmission {
	sub := judgeSubmission{
		LanguageID:   lang.JudgeID,
		SourceCode:   base64.StdEncoding.EncodeToString([]byte(unit.SourceCode)),
		CPUTimeLimit: cpuLimitSec,
	}
	if unit.Stdin != "" {
		sub.Stdin = base64.StdEncoding.EncodeToString([]byte(unit.Stdin))
	}
	if unit.ExpectedOutput != "" {
		sub.ExpectedOutput = base64.StdEncoding.EncodeToString([]byte(unit.ExpectedOutput))
	}
	return sub
}

func decodeVerdict(index int, res judgeResult) Verdict {
	v := Verdict{Index: index, Received: true}
	if res.Status != nil {
		v.StatusID = res.Status.ID
		v.Description = res.Status.Description
	}
	v.Stdout = decodeB64(res.Stdout)
	v.Stderr = decodeB64(res.Stderr)
	v.CompileOutput = decodeB64(res.CompileOutput)
	v.Message = decodeB64(res.Message)
	if res.Time != nil {
		if t, err := strconv.ParseFloat(strings.TrimSpace(*res.Time), 64); err == nil {
			v.TimeSec = t
		}
	}
	if res.Memory != nil {
		v.MemoryKB = *res.Memory
	}
	return v
}

// decodeB64 is lenient: the judge occasionally returns plain text in fields
// it documents as base64 (notably "message"), so undecodable input passes
// through unchanged.
func decodeB64(s *string) string {
	if s == nil {
		return ""
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return *s
	}
	return string(decoded)
}
