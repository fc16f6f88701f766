package emergency

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"vitalwatch/logger"
	"vitalwatch/models/alert"
	"vitalwatch/models/emergency"

	"google.golang.org/genai"
	"gorm.io/gorm"
)

// Summariser rewrites the emergency description with a Gemini-generated
// incident summary. Best-effort: any failure leaves the template text.
type Summariser struct {
	DB *gorm.DB
}

func NewSummariser(db *gorm.DB) *Summariser {
	return &Summariser{DB: db}
}

// EnrichAsync generates the summary in the background and persists it on
// the emergency row when it arrives.
func (s *Summariser) EnrichAsync(emergencyID uint, displayName string, ev *alert.AlertEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		summary, err := s.summarise(ctx, displayName, ev)
		if err != nil {
			logger.Warning(fmt.Sprintf("Incident summary skipped for emergency %d: %v", emergencyID, err))
			return
		}

		if err := s.DB.Model(&emergency.Emergency{}).
			Where("id = ?", emergencyID).
			Update("description", summary).Error; err != nil {
			logger.Error(fmt.Sprintf("Failed to persist incident summary for emergency %d", emergencyID), err)
		}
	}()
}

func (s *Summariser) summarise(ctx context.Context, displayName string, ev *alert.AlertEvent) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not found in environment variables")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}

	prompt := fmt.Sprintf(`Write a two sentence incident summary for an emergency responder.

Patient: %s
Vital: %s
Observed value: %.1f
Severity: %s

Plain text only, no markdown, no speculation beyond the given values.`,
		displayName, ev.VitalType.DisplayName(), ev.Value, strings.ToUpper(ev.Severity.String()))

	content := &genai.Content{
		Parts: []*genai.Part{
			{Text: prompt},
		},
	}

	result, err := client.Models.GenerateContent(
		ctx,
		"gemini-2.5-flash-lite",
		[]*genai.Content{content},
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.1)),
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate incident summary: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	summary := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	if summary == "" {
		return "", fmt.Errorf("empty summary")
	}

	return summary, nil
}
