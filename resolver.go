package biaslens

import "fmt"

// ResolveCategories separates the classifier's flat category set into the two
// label families and selects, per family, the highest-confidence label. Names
// in the fixed bias vocabulary go to the bias family; everything else counts
// as extent. Ties keep the first entry seen, so resolution is stable under
// input order.
//
// Fails with the MalformedClassifierOutput code when either family ends up
// empty.
func ResolveCategories(categories []ClassificationCategory) (Bias, Extent, error) {
	var topBias, topExtent *ClassificationCategory
	for i := range categories {
		c := &categories[i]
		if IsValidBias(c.Name) {
			if topBias == nil || c.Confidence > topBias.Confidence {
				topBias = c
			}
			continue
		}
		if topExtent == nil || c.Confidence > topExtent.Confidence {
			topExtent = c
		}
	}
	if topBias == nil || topExtent == nil {
		return "", "", NewError(MalformedClassifierOutput,
			fmt.Errorf("classifier returned %d categories without both a bias and an extent label", len(categories)))
	}
	if !IsValidExtent(topExtent.Name) {
		return "", "", NewError(MalformedClassifierOutput,
			fmt.Errorf("classifier returned unknown extent label %q", topExtent.Name))
	}
	return Bias(topBias.Name), Extent(topExtent.Name), nil
}
