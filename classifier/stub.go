package classifier

import (
	"context"
	"crypto/sha256"

	"github.com/biaslens/biaslens"
)

var stubBiases = []string{"left", "right", "neutral"}
var stubExtents = []string{"minimal", "moderate", "strong", "extreme"}

// Stub is a deterministic stand-in for the model endpoint: the same text
// always classifies the same way, so local runs and tests behave like the
// cached production path without network access.
type Stub struct{}

func NewStub() Stub {
	return Stub{}
}

func (Stub) Classify(ctx context.Context, text string) ([]biaslens.ClassificationCategory, error) {
	digest := sha256.Sum256([]byte(text))
	bias := stubBiases[int(digest[0])%len(stubBiases)]
	extent := stubExtents[int(digest[1])%len(stubExtents)]
	return []biaslens.ClassificationCategory{
		{Name: bias, Confidence: 0.5 + float64(digest[2])/512},
		{Name: extent, Confidence: 0.5 + float64(digest[3])/512},
	}, nil
}
