package vision

import (
	"context"
	"crypto/sha256"
	"fmt"
)

// StubClient returns a deterministic analysis derived from the image bytes.
// It is used for local runs without an API key and in tests.
type StubClient struct{}

func NewStubClient() *StubClient { return &StubClient{} }

func (c *StubClient) SourceName() string { return "stub" }

func (c *StubClient) Analyze(ctx context.Context, img Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum := sha256.Sum256(img.Data)
	severity := int(sum[0]%5) + 1
	likelihood := int(sum[1]%5) + 1

	out := fmt.Sprintf(`{
  "hazards": [
    {
      "description": "Worker at height without visible fall arrest",
      "category": "Physical",
      "hazard_type": "Fall from Height",
      "severity": %d,
      "likelihood": %d,
      "corrective_actions": {
        "engineering": "Install guardrails along open edges",
        "administrative": "Enforce permit-to-work for work at height",
        "ppe": "Full body harness with double lanyard",
        "immediate": "Stop work until fall protection is in place"
      },
      "confidence": 0.9
    },
    {
      "description": "Extension lead routed across walkway",
      "category": "Electrical",
      "hazard_type": "Trip and Electrical Exposure",
      "severity": 2,
      "likelihood": 3,
      "confidence": 0.7
    }
  ],
  "summary": "Stub analysis for local development."
}`, severity, likelihood)

	return ParseResponse(out)
}
