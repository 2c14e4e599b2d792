package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Samartha120/Vechile-Damage-Detection/models"
)

const defaultCurrency = "INR"

// goodConditionAdvice is returned when a vehicle was recognized but no
// damage was found and the analysis service gave no advice of its own.
const goodConditionAdvice = "Vehicle appears to be in good condition. Continue with regular maintenance."

// unreadableSummary labels the degraded result substituted for an
// unparseable analysis response.
const unreadableSummary = "Could not analyze the image. Please upload a clearer photo of the vehicle."

// Client submits one image at a time to the external damage-analysis
// endpoint and normalizes its response. It keeps no state and never retries.
type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type analyzeRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

// boundaryResponse is the subshape consumed from the analysis service.
type boundaryResponse struct {
	HasVehicle      bool   `json:"hasVehicle"`
	HasDamage       bool   `json:"hasDamage"`
	OverallSeverity string `json:"overallSeverity"`
	ConfidenceScore int    `json:"confidenceScore"`
	Damages         []struct {
		Type        string `json:"type"`
		Location    string `json:"location"`
		Severity    string `json:"severity"`
		Description string `json:"description"`
	} `json:"damages"`
	AffectedAreas       []string `json:"affectedAreas"`
	EstimatedRepairCost struct {
		Min      int    `json:"min"`
		Max      int    `json:"max"`
		Currency string `json:"currency"`
	} `json:"estimatedRepairCost"`
	Recommendations []string `json:"recommendations"`
	Summary         string   `json:"summary"`
	AnnotatedImage  string   `json:"annotatedImage"`
}

// Analyze issues exactly one request for the given image and returns the
// normalized result. Transport failures and non-2xx responses are errors; a
// 2xx response whose body cannot be parsed degrades to a fixed fallback
// result instead of failing.
func (c *Client) Analyze(ctx context.Context, imageDataURI string) (*models.UnitAnalysisResult, error) {
	body, err := json.Marshal(analyzeRequest{ImageBase64: imageDataURI})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read analysis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBytes, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("analysis service error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("analysis service error (status %d)", resp.StatusCode)
	}

	var raw boundaryResponse
	if err := json.Unmarshal([]byte(stripFences(string(respBytes))), &raw); err != nil {
		return FallbackResult(), nil
	}

	return normalize(raw), nil
}

// stripFences removes markdown code fences such as ```json ... ``` so JSON can be parsed.
var fenceRe = regexp.MustCompile("```[a-zA-Z]*\n|```")

func stripFences(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}

func normalize(raw boundaryResponse) *models.UnitAnalysisResult {
	result := &models.UnitAnalysisResult{
		HasVehicle:      raw.HasVehicle,
		HasDamage:       raw.HasDamage,
		OverallSeverity: models.NormalizeSeverity(raw.OverallSeverity),
		ConfidenceScore: clampScore(raw.ConfidenceScore),
		AffectedAreas:   raw.AffectedAreas,
		EstimatedCost: models.CostRange{
			Min:      raw.EstimatedRepairCost.Min,
			Max:      raw.EstimatedRepairCost.Max,
			Currency: raw.EstimatedRepairCost.Currency,
		},
		Recommendations: raw.Recommendations,
		Summary:         raw.Summary,
		AnnotatedImage:  raw.AnnotatedImage,
	}

	if result.EstimatedCost.Currency == "" {
		result.EstimatedCost.Currency = defaultCurrency
	}

	for _, d := range raw.Damages {
		result.Observations = append(result.Observations, models.DamageObservation{
			Kind:        d.Type,
			Location:    d.Location,
			Severity:    models.NormalizeSeverity(d.Severity),
			Description: d.Description,
		})
	}

	if result.HasVehicle && !result.HasDamage && len(result.Recommendations) == 0 {
		result.Recommendations = []string{goodConditionAdvice}
	}

	return result
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// FallbackResult is the fixed degraded result used when the analysis
// service returned something unreadable.
func FallbackResult() *models.UnitAnalysisResult {
	return &models.UnitAnalysisResult{
		HasVehicle:      false,
		HasDamage:       false,
		OverallSeverity: models.SeverityNone,
		ConfidenceScore: 0,
		EstimatedCost:   models.CostRange{Currency: defaultCurrency},
		Summary:         unreadableSummary,
	}
}
