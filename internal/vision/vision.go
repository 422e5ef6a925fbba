package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/hazard"
)

var (
	ErrEmptyResponse = errors.New("vision model returned no content")
	ErrUnparsable    = errors.New("failed to parse vision response as JSON")
)

// Image is the payload sent to the vision model.
type Image struct {
	Data     []byte
	MIMEType string
}

// Result is an untrusted analysis as returned by the model.
type Result struct {
	Candidates       []hazard.Candidate
	OverallRiskLevel string
	Summary          string
	// Raw is the JSON object the model produced.
	Raw json.RawMessage
}

type Analyzer interface {
	Analyze(ctx context.Context, img Image) (*Result, error)
	SourceName() string
}

// NewAnalyzer builds the analyzer selected by cfg.Provider.
func NewAnalyzer(cfg internal.AIConfig, logger *slog.Logger) (Analyzer, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg, logger), nil
	case "stub":
		return NewStubClient(), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
