package service

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minResumeTextLength     = 50
	minJobDescriptionLength = 20
	fallbackSimilarityScore = 50
	maxIndexDistance        = 2.0
	unknownCandidateName    = "Unknown"
	maxNameLength           = 60
)

// Match tiers assigned from the similarity score.
const (
	TierStrongMatch   = "Strong Match"
	TierPotentialFit  = "Potential Fit"
	TierPossibleMatch = "Possible Match"
)

var resumeHeaderWords = []string{"resume", "curriculum", "vitae", "cv", "profile", "professional", "summary"}

// SimilarityScore maps an index distance onto 0..100, where 0 distance scores 100
// and distances of 2 or more score 0.
func SimilarityScore(distance float64) int {
	if math.IsNaN(distance) {
		return 0
	}
	score := 100 * (1 - math.Min(distance, maxIndexDistance)/maxIndexDistance)
	return clampInt(int(math.Round(score)), 0, 100)
}

// MatchTier buckets a similarity score.
func MatchTier(score int) string {
	switch {
	case score >= 80:
		return TierStrongMatch
	case score >= 60:
		return TierPotentialFit
	default:
		return TierPossibleMatch
	}
}

// ExtractCandidateName guesses a display name from the first lines of a resume.
func ExtractCandidateName(text string) string {
	lines := make([]string, 0, 8)
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return unknownCandidateName
	}

	limit := len(lines)
	if limit > 5 {
		limit = 5
	}

	for _, line := range lines[:limit] {
		if containsHeaderWord(line) {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 1 || len(words) > 4 || utf8.RuneCountInString(line) >= maxNameLength {
			continue
		}
		if nameCharacterRatio(line) > 0.7 {
			return line
		}
	}

	return truncateRunes(lines[0], maxNameLength)
}

// ResumeVectorID derives the index key from the display name and a content hash,
// so identical text under the same name overwrites its previous vector.
func ResumeVectorID(candidateName, text string) string {
	return strings.ReplaceAll(candidateName, " ", "_") + "_" + contentHash(text)
}

func contentHash(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:8]
}

func candidateSummary(rank, total, score int, tier string) string {
	return fmt.Sprintf(
		"Ranked #%d out of %d candidates. Semantic similarity score: %.1f%%. This candidate shows %s with the job requirements.",
		rank, total, float64(score), strings.ToLower(tier),
	)
}

// clampTopK keeps k within [1, available]; zero means fallback.
func clampTopK(k, fallback, available int) int {
	if k <= 0 {
		k = fallback
	}
	return clampInt(k, 1, available)
}

func containsHeaderWord(line string) bool {
	lower := strings.ToLower(line)
	for _, word := range resumeHeaderWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func nameCharacterRatio(line string) float64 {
	total := utf8.RuneCountInString(line)
	if total == 0 {
		return 0
	}
	matching := 0
	for _, r := range line {
		if unicode.IsLetter(r) || unicode.IsSpace(r) || r == '.' || r == '-' || r == ',' {
			matching++
		}
	}
	return float64(matching) / float64(total)
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

func clampInt(value, minimum, maximum int) int {
	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}
