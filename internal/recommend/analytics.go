// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package recommend

const (
	// topConfidenceCount is how many leading results feed the confidence
	// average.
	topConfidenceCount = 5

	// multiSourceBonus scales the confidence reward for cross-source
	// agreement.
	multiSourceBonus = 0.1

	// neutralPersonalization is used when no profile snapshot is available.
	neutralPersonalization = 0.5
)

// computeAnalytics derives the quality metrics for a fused result list.
// profileConfidence is only consulted when hasProfile is true.
func computeAnalytics(recs []Recommendation, profileConfidence float64, hasProfile bool) Analytics {
	confidence := computeConfidence(recs)
	return Analytics{
		Confidence:      confidence,
		Diversity:       computeDiversity(recs),
		Serendipity:     computeSerendipity(recs),
		Personalization: computePersonalization(confidence, profileConfidence, hasProfile),
	}
}

// computeConfidence averages the confidence of the top results and rewards
// cross-source agreement, capped at 1.0. Empty results score 0.
func computeConfidence(recs []Recommendation) float64 {
	if len(recs) == 0 {
		return 0
	}

	n := topConfidenceCount
	if len(recs) < n {
		n = len(recs)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += recs[i].Confidence
	}
	avg := sum / float64(n)

	multi := 0
	for i := range recs {
		if len(recs[i].Sources) > 1 {
			multi++
		}
	}

	confidence := avg + multiSourceBonus*float64(multi)/float64(len(recs))
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// computeDiversity returns unique categories divided by result count.
func computeDiversity(recs []Recommendation) float64 {
	if len(recs) == 0 {
		return 0
	}
	categories := make(map[string]struct{}, len(recs))
	for i := range recs {
		categories[recs[i].Metadata.Category] = struct{}{}
	}
	return float64(len(categories)) / float64(len(recs))
}

// computeSerendipity returns the fraction of results that were injected as
// discovery picks.
func computeSerendipity(recs []Recommendation) float64 {
	if len(recs) == 0 {
		return 0
	}
	injected := 0
	for i := range recs {
		for _, src := range recs[i].Sources {
			if src == SourceSerendipity {
				injected++
				break
			}
		}
	}
	return float64(injected) / float64(len(recs))
}

// computePersonalization blends profile confidence with result confidence,
// falling back to the neutral default when no profile snapshot exists.
func computePersonalization(confidence, profileConfidence float64, hasProfile bool) float64 {
	if !hasProfile {
		return neutralPersonalization
	}
	return (profileConfidence + confidence) / 2
}
