// Package confidence aggregates per-stage confidence signals into a single
// document-level score. It is pure computation: no I/O, no collaborators.
package confidence

import (
	"github.com/sells-group/esg-intel/internal/model"
)

// Component weights for the overall score.
const (
	metricWeight    = 0.4
	frameworkWeight = 0.3
	qualityWeight   = 0.3
)

// Extraction-quality adjustments applied to the base score.
const (
	qualityBase = 0.7

	sparseTextWords  = 100
	richTextWords    = 10000
	richMetricCount  = 20
	poorMetricCount  = 5
	multiFrameworkAt = 1

	sparseTextPenalty   = 0.2
	richTextBonus       = 0.1
	richMetricBonus     = 0.1
	poorMetricPenalty   = 0.1
	multiFrameworkBonus = 0.1
)

// Aggregate combines metric, framework, and extraction signals into
// ConfidenceScores. A document with no metrics or no detected frameworks
// contributes zero for the missing component instead of failing.
func Aggregate(docID string, wordCount int, metrics []model.ExtractedMetric, detections []model.FrameworkDetection) model.ConfidenceScores {
	scores := model.ConfidenceScores{
		DocumentID:  docID,
		ByCategory:  make(map[model.MetricCategory]float64),
		ByFramework: make(map[string]float64),
	}

	scores.MetricAverage = categoryAverages(metrics, scores.ByCategory)
	scores.FrameworkAverage = frameworkAverages(detections, scores.ByFramework)
	scores.ExtractionQuality = extractionQuality(wordCount, len(metrics), len(detections))

	scores.Overall = clamp01(metricWeight*scores.MetricAverage +
		frameworkWeight*scores.FrameworkAverage +
		qualityWeight*scores.ExtractionQuality)
	return scores
}

func categoryAverages(metrics []model.ExtractedMetric, byCategory map[model.MetricCategory]float64) float64 {
	if len(metrics) == 0 {
		return 0
	}

	sums := make(map[model.MetricCategory]float64)
	counts := make(map[model.MetricCategory]int)
	total := 0.0
	for _, m := range metrics {
		sums[m.Category] += m.Confidence
		counts[m.Category]++
		total += m.Confidence
	}
	for cat, sum := range sums {
		byCategory[cat] = sum / float64(counts[cat])
	}
	return total / float64(len(metrics))
}

func frameworkAverages(detections []model.FrameworkDetection, byFramework map[string]float64) float64 {
	if len(detections) == 0 {
		return 0
	}

	total := 0.0
	for _, d := range detections {
		byFramework[d.Framework] = d.Confidence
		total += d.Confidence
	}
	return total / float64(len(detections))
}

// extractionQuality scores how trustworthy the extraction run itself was,
// from word volume and how much structure was recovered.
func extractionQuality(wordCount, metricCount, frameworkCount int) float64 {
	quality := qualityBase

	if wordCount < sparseTextWords {
		quality -= sparseTextPenalty
	} else if wordCount > richTextWords {
		quality += richTextBonus
	}

	if metricCount > richMetricCount {
		quality += richMetricBonus
	} else if metricCount < poorMetricCount {
		quality -= poorMetricPenalty
	}

	if frameworkCount > multiFrameworkAt {
		quality += multiFrameworkBonus
	}

	return clamp01(quality)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
