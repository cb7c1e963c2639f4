// Package scoring turns a layer report into a score, a status and the texts
// shown to the user.
//
// The policy is severity by position: the score band is chosen by the first
// layer that matched, and a higher score means a cleaner URL. A URL nothing
// matched scores 100.
//
// Status always follows the score through StatusFor. Because later layers are
// never added on top of the first match, a structural hit alone lands in
// 80..90 and reads Suspicious; Malicious starts below 40.
//
// A blocklisted URL is pinned to 0, the risky end of this scale, so that the
// reputation verdict is Malicious under the same thresholds as every other scan.
package scoring

import (
	"fmt"

	"aegis/internal/layers"
	"aegis/internal/models"
)

// Band is an inclusive score range.
type Band struct {
	Low, High int
}

// Bands maps a layer position to the score band of a match in that layer.
var Bands = map[int]Band{
	1: {80, 90},
	2: {70, 80},
	3: {60, 70},
	4: {40, 60},
	5: {20, 39},
	6: {0, 19},
}

const (
	CleanScore = 100
	// BlocklistedScore is the lowest trust score. Scores run from risky (0)
	// to clean (100), so a reputation hit takes the bottom rather than the top.
	BlocklistedScore = 0

	maliciousBelow = 40
	safeFrom       = 95
)

const (
	RecommendBlock   = "BLOCK ACCESS IMMEDIATELY"
	RecommendCaution = "PROCEED WITH CAUTION"
	RecommendProceed = "SAFE TO ACCESS"
)

// Input is everything the aggregator needs for one scan.
type Input struct {
	URL            string
	Hit            *layers.Hit
	Blocklisted    bool
	BlocklistEntry string
	LayerCount     int
	Parsed         bool // a host could be extracted
}

// Decision is the aggregated outcome.
type Decision struct {
	Score          int
	Status         models.Status
	Reason         string
	Recommendation string
}

// Decide applies the policy. It is a pure function of its input.
func Decide(in Input) Decision {
	var d Decision
	switch {
	case in.Blocklisted:
		d.Score = BlocklistedScore
		d.Reason = fmt.Sprintf("Reputation: URL is on the blocklist (%s).", in.BlocklistEntry)
	case in.Hit != nil:
		d.Score = Placement(in.Hit.Position, in.Hit.RuleIndex, len(in.URL))
		d.Reason = fmt.Sprintf("Layer %d (%s): %s", in.Hit.Position, in.Hit.Layer, in.Hit.Rule)
		if in.Hit.Detail != "" {
			d.Reason += " (" + in.Hit.Detail + ")"
		}
		d.Reason += "."
	case !in.Parsed:
		d.Score = CleanScore
		d.Reason = "No indicators found, but the URL could not be fully parsed; host-based checks were limited."
	default:
		d.Score = CleanScore
		d.Reason = fmt.Sprintf("URL passed all %d security layers.", in.LayerCount)
	}
	d.Status = StatusFor(d.Score)
	d.Recommendation = Recommendation(d.Status)
	return d
}

// Placement puts a match inside its layer's band. The first extractor of a
// layer scores at the top of the band, later ones step down by three, and the
// URL length nudges the score by up to two points. Unknown positions score 0.
func Placement(position, ruleIndex, urlLength int) int {
	b, ok := Bands[position]
	if !ok {
		return 0
	}
	score := b.High - (ruleIndex*3 + urlLength%3)
	if score < b.Low {
		score = b.Low
	}
	return score
}

// StatusFor maps a score to its status.
func StatusFor(score int) models.Status {
	switch {
	case score < maliciousBelow:
		return models.StatusMalicious
	case score < safeFrom:
		return models.StatusSuspicious
	default:
		return models.StatusSafe
	}
}

// Recommendation is the user-facing advice for a status.
func Recommendation(s models.Status) string {
	switch s {
	case models.StatusMalicious:
		return RecommendBlock
	case models.StatusSuspicious:
		return RecommendCaution
	default:
		return RecommendProceed
	}
}
