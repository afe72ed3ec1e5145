// Package ner implements the named-entity-recognition detector as a thin
// HTTP client to an NER sidecar. Model labels are mapped onto PII entity
// types with fixed per-type confidences, and non-PII-relevant categories are
// filtered out before the results reach consolidation.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/platinummonkey/veil/pkg/pii"
)

// labelToType maps sidecar model labels onto PII entity types. Labels absent
// from the map are discarded.
var labelToType = map[string]pii.EntityType{
	"PERSON": pii.TypePersonName,
	"ORG":    pii.TypeOrganization,
	"GPE":    pii.TypeLocation,
	"LOC":    pii.TypeLocation,
	"DATE":   pii.TypeDOB,
}

// typeConfidence holds the fixed confidence assigned per mapped type. NER
// models report no usable per-span confidence, so these mirror the empirical
// precision of each category.
var typeConfidence = map[pii.EntityType]float64{
	pii.TypePersonName:   0.85,
	pii.TypeOrganization: 0.80,
	pii.TypeLocation:     0.82,
	pii.TypeDOB:          0.75,
}

// dateShaped recognizes date-like strings; DATE labels that do not look like
// actual dates ("last Tuesday") are dropped rather than tagged as DOB.
var dateShaped = regexp.MustCompile(`\d{1,4}[-/ ]\d{1,2}[-/ ]\d{1,4}|\d{1,2} (?i:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]* \d{2,4}`)

// Config configures the sidecar client.
type Config struct {
	// BaseURL is the sidecar root, e.g. "http://ner:9000".
	BaseURL string
	// Timeout bounds each detection request.
	Timeout time.Duration
	// OAuth2 enables client-credentials service auth when ClientID is set.
	OAuth2 *clientcredentials.Config
}

// Client calls the NER sidecar and implements pii.Detector. Operational
// failures surface as errors; the orchestrator treats them as an absent
// detector rather than a fatal condition.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a sidecar client. With OAuth2 configured, requests carry
// a client-credentials bearer token refreshed automatically.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.OAuth2 != nil && cfg.OAuth2.ClientID != "" {
		httpClient = cfg.OAuth2.Client(context.Background())
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}
}

// Name implements pii.Detector.
func (c *Client) Name() string { return pii.SourceNER }

type detectRequest struct {
	Text string `json:"text"`
}

type sidecarSpan struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type detectResponse struct {
	Entities []sidecarSpan `json:"entities"`
}

// Detect implements pii.Detector: it posts the text to the sidecar, maps the
// returned labels to PII types and dedupes exact repeats.
func (c *Client) Detect(ctx context.Context, text string) ([]pii.Entity, error) {
	body, err := json.Marshal(detectRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode NER request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/entities", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build NER request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("NER sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NER sidecar returned status %d", resp.StatusCode)
	}

	var payload detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode NER response: %w", err)
	}

	return c.mapSpans(payload.Entities), nil
}

func (c *Client) mapSpans(spans []sidecarSpan) []pii.Entity {
	type key struct {
		t          pii.EntityType
		start, end int
	}
	seen := make(map[key]bool)

	var entities []pii.Entity
	for _, s := range spans {
		entityType, ok := labelToType[s.Label]
		if !ok {
			continue
		}
		// Skip very short fragments; single characters are model noise.
		if len(strings.TrimSpace(s.Text)) < 2 {
			continue
		}
		if entityType == pii.TypeDOB && !dateShaped.MatchString(s.Text) {
			continue
		}

		k := key{t: entityType, start: s.Start, end: s.End}
		if seen[k] {
			continue
		}
		seen[k] = true

		entities = append(entities, pii.Entity{
			Type:       entityType,
			Value:      s.Text,
			Start:      s.Start,
			End:        s.End,
			Confidence: typeConfidence[entityType],
			Source:     pii.SourceNER,
		})
	}
	return entities
}
