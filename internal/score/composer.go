package score

import "github.com/ppiankov/truthscan/internal/model"

// strongFake is the suspicion at which the fake recommendation hardens
const strongFake = 0.9

// Recommend maps a verdict and suspicion score to an advisory sentence.
// Every verdict, including unknown values, yields a non-empty string.
func Recommend(verdict model.Verdict, suspicion float64) string {
	switch verdict {
	case model.VerdictFake:
		if suspicion >= strongFake {
			return "Strong signs of disinformation. Do not share this content and check trusted fact-checking sources."
		}
		return "This content is likely false or misleading. Be cautious and avoid sharing it without verification."
	case model.VerdictProbablyReal:
		return "This content appears reliable. Keep a critical eye and cross-check important claims."
	case model.VerdictNeedsReview:
		return "Mixed signals detected. Verify this content independently with trusted sources before relying on it."
	case model.VerdictNotAnalyzable:
		return "No usable evidence could be gathered. Provide more context or a different source."
	default:
		return "Not enough evidence for a reliable verdict. Provide more context or additional sources."
	}
}
