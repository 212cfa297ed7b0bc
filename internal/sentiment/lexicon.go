package sentiment

import (
	"context"
	"math"

	"sentcorr/internal/interfaces"
)

// Valences are on a -4..4 scale and tuned for market headlines.
var defaultValences = map[string]float64{
	// positive
	"advance": 1.5, "advances": 1.5, "beat": 2.0, "beats": 2.0, "bullish": 2.5, "boost": 1.8,
	"boosts": 1.8, "breakthrough": 2.5, "climb": 1.5, "climbs": 1.5, "gain": 1.8, "gains": 1.8,
	"good": 1.9, "great": 3.1, "growth": 1.8, "high": 0.8, "higher": 1.2, "jump": 1.8,
	"jumps": 1.8, "outperform": 2.2, "outperforms": 2.2, "positive": 2.3, "profit": 1.9,
	"profits": 1.9, "rally": 2.0, "rallies": 2.0, "record": 1.2, "rebound": 1.6,
	"rebounds": 1.6, "rise": 1.4, "rises": 1.4, "rising": 1.4, "soar": 2.5, "soars": 2.5,
	"strong": 2.3, "stronger": 2.3, "success": 2.7, "surge": 2.2, "surges": 2.2, "top": 0.8,
	"tops": 1.2, "upbeat": 2.1, "upgrade": 2.2, "upgraded": 2.2, "upgrades": 2.2, "win": 2.8,
	"wins": 2.8, "approval": 1.8, "approves": 1.8, "expands": 1.2, "raises": 1.0,
	// negative
	"bankruptcy": -3.2, "bearish": -2.5, "cut": -1.2, "cuts": -1.2, "crash": -3.0,
	"crashes": -3.0, "decline": -1.6, "declines": -1.6, "default": -2.4, "delay": -1.2,
	"delays": -1.2, "downgrade": -2.2, "downgraded": -2.2, "downgrades": -2.2, "drop": -1.6,
	"drops": -1.6, "fall": -1.6, "falls": -1.6, "fraud": -3.3, "investigation": -1.6,
	"lawsuit": -2.0, "layoffs": -2.1, "lose": -1.9, "loses": -1.9, "loss": -2.0,
	"losses": -2.0, "low": -1.1, "lower": -1.2, "miss": -1.8, "misses": -1.8, "negative": -2.3,
	"plunge": -2.6, "plunges": -2.6, "probe": -1.4, "recall": -1.8, "recalls": -1.8,
	"selloff": -2.2, "sink": -2.0, "sinks": -2.0, "slide": -1.5, "slides": -1.5,
	"slump": -2.2, "slumps": -2.2, "tumble": -2.3, "tumbles": -2.3, "warning": -1.8,
	"warns": -1.8, "weak": -1.9, "weaker": -1.9, "worst": -3.1, "bad": -2.5, "fail": -2.4,
	"fails": -2.4,
}

var negations = toSet(
	"not", "no", "never", "none", "nobody", "nothing", "neither", "nor", "without",
	"isn't", "aren't", "wasn't", "weren't", "don't", "doesn't", "didn't", "won't",
	"can't", "cannot", "couldn't", "shouldn't", "lacks",
)

var boosters = map[string]float64{
	"very": 0.293, "sharply": 0.293, "strongly": 0.293, "significantly": 0.293, "hugely": 0.293,
	"massive": 0.293, "record": 0.2, "slightly": -0.293, "marginally": -0.293, "somewhat": -0.293,
}

const (
	negationScalar = -0.74
	normAlpha      = 15.0
	negationWindow = 3
)

// Lexicon is an offline, deterministic scorer driven by a word valence
// table with negation and intensifier handling.
type Lexicon struct {
	valences map[string]float64
}

var _ interfaces.SentimentCapability = (*Lexicon)(nil)

// NewLexicon returns the default finance lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{valences: defaultValences}
}

// NewLexiconWith builds a lexicon from custom valences.
func NewLexiconWith(valences map[string]float64) *Lexicon {
	return &Lexicon{valences: valences}
}

func (l *Lexicon) Name() string { return "lexicon" }

func (l *Lexicon) Score(_ context.Context, text string) (float64, error) {
	return l.Polarity(text), nil
}

// Polarity returns the compound score of text in [-1, 1].
func (l *Lexicon) Polarity(text string) float64 {
	words := Words(text)
	sum := 0.0
	for i, w := range words {
		v, ok := l.valences[w]
		if !ok {
			continue
		}

		if i > 0 {
			if b, ok := boosters[words[i-1]]; ok {
				if v > 0 {
					v += b
				} else {
					v -= b
				}
			}
		}
		for j := i - 1; j >= 0 && j >= i-negationWindow; j-- {
			if negations[words[j]] {
				v *= negationScalar
				break
			}
		}
		sum += v
	}
	return normalize(sum)
}

func normalize(score float64) float64 {
	if score == 0 {
		return 0
	}
	n := score / math.Sqrt(score*score+normAlpha)
	return math.Max(-1, math.Min(1, n))
}
