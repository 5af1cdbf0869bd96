package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appConfig "github.com/dormfix/dormfix-api/config"
	"github.com/dormfix/dormfix-api/models"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Classification is the structured assessment produced for a ticket,
// either by the vision model or by the deterministic fallback.
type Classification struct {
	Category              string   `json:"category"`
	Severity              string   `json:"severity"`
	Summary               string   `json:"summary"`
	FacilitiesDescription string   `json:"facilitiesDescription"`
	FollowUpQuestions     []string `json:"followUpQuestions"`
	SafetyNotes           []string `json:"safetyNotes"`
}

// ClassifierInterface defines the interface for ticket classification
type ClassifierInterface interface {
	Classify(imageURL, building, room, userNote string) (*Classification, error)
}

// GeminiService classifies tickets with the Gemini vision model
type GeminiService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

var classifierInstance ClassifierInterface

// InitClassifier initializes the Gemini classifier service
func InitClassifier() ClassifierInterface {
	cfg := appConfig.GetConfig()
	classifierInstance = &GeminiService{
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
		baseURL: defaultGeminiBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	return classifierInstance
}

// GetClassifier returns the initialized classifier instance
func GetClassifier() ClassifierInterface {
	return classifierInstance
}

// SetClassifier sets the classifier instance (primarily for testing)
func SetClassifier(service ClassifierInterface) {
	classifierInstance = service
}

// NewGeminiService creates a Gemini classifier against a specific endpoint.
// Used by tests to point the service at a stub server.
func NewGeminiService(apiKey, model, baseURL string) *GeminiService {
	return &GeminiService{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// geminiRequest is the generateContent request payload
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// geminiResponse is the subset of the generateContent response we consume
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Classify fetches the image, submits it to the vision model together
// with a fixed instruction, and parses the model's JSON assessment.
func (s *GeminiService) Classify(imageURL, building, room, userNote string) (*Classification, error) {
	imageData, err := s.fetchImage(imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}

	prompt := buildPrompt(building, room, userNote)

	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: prompt},
				{InlineData: &geminiInlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(imageData),
				}},
			},
		}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	resp, err := s.httpClient.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to call Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Gemini API returned status %d: %s", resp.StatusCode, string(body))
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("failed to decode Gemini response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	return parseClassification(geminiResp.Candidates[0].Content.Parts[0].Text)
}

// fetchImage downloads the stored image so it can be inlined into the model request
func (s *GeminiService) fetchImage(imageURL string) ([]byte, error) {
	resp, err := s.httpClient.Get(imageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// buildPrompt constructs the fixed classification instruction with the
// ticket's location and optional user note as context.
func buildPrompt(building, room, userNote string) string {
	noteLine := ""
	if userNote != "" {
		noteLine = fmt.Sprintf("- User note: %s\n", userNote)
	}

	return fmt.Sprintf(`You are an expert facilities maintenance ticket analyzer. Analyze this maintenance issue photo and provide a structured assessment.

Context:
- Location: %s, Room %s
%s
Provide your response in this EXACT JSON format:
{
  "category": "Plumbing|Electrical|HVAC|Pest|Furniture|Safety|Other",
  "severity": "Low|Medium|High",
  "summary": "Brief 1-sentence description of the issue",
  "facilitiesDescription": "Clear, professional description for facilities staff (2-3 sentences)",
  "followUpQuestions": ["Question 1", "Question 2"],
  "safetyNotes": ["Safety warning if applicable, otherwise empty array"]
}

Rules:
- Be conservative with severity (only High if truly urgent)
- Safety notes only for genuine hazards (electrical, structural, water damage)
- Follow-up questions should help clarify the issue for repair
- Facilities description should be professional and actionable

Respond ONLY with valid JSON, no additional text.`, building, room, noteLine)
}

// parseClassification extracts the first balanced JSON object from the
// model's text, tolerating prose around it, and validates required fields.
func parseClassification(text string) (*Classification, error) {
	jsonText, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var classification Classification
	if err := json.Unmarshal([]byte(jsonText), &classification); err != nil {
		return nil, fmt.Errorf("invalid JSON in Gemini response: %w", err)
	}

	if classification.Category == "" || classification.Severity == "" || classification.Summary == "" {
		return nil, fmt.Errorf("incomplete classification from Gemini")
	}

	return &classification, nil
}

// extractJSONObject returns the first balanced {...} substring of text.
// Braces inside JSON string literals are skipped.
func extractJSONObject(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		}
	}

	return "", fmt.Errorf("no JSON object found in Gemini response")
}

// FallbackClassification returns the deterministic classification used when
// the vision model is unavailable or returns an unusable response. It
// performs no I/O so ticket creation is never blocked by it.
func FallbackClassification(building, room, userNote string) *Classification {
	details := userNote
	if details == "" {
		details = "No additional details provided."
	}

	return &Classification{
		Category:              models.CategoryOther,
		Severity:              models.SeverityLow,
		Summary:               "Maintenance issue reported. Manual review needed.",
		FacilitiesDescription: fmt.Sprintf("Maintenance issue reported in %s, Room %s. %s", building, room, details),
		FollowUpQuestions:     []string{"Can you provide more details about the issue?"},
		SafetyNotes:           []string{},
	}
}
