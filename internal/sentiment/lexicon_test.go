package sentiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentcorr/internal/types"
)

func TestWordsAndTokenize(t *testing.T) {
	assert.Equal(t, []string{"tesla", "stock", "surges", "10"}, Words("Tesla Stock Surges 10%"))
	assert.Equal(t, []string{"apple", "isn't", "done"}, Words("Apple isn't done"))
	assert.Equal(t, []string{"apple", "reports", "strong", "earnings"}, Tokenize("Apple Reports the Strong Earnings!"))
	assert.Empty(t, Tokenize("the and of"))
}

func TestLexiconPolarity(t *testing.T) {
	lex := NewLexicon()

	cases := []struct {
		headline string
		label    types.SentimentLabel
	}{
		{"Tesla Stock Surges 10%", types.LabelPositive},
		{"Apple Reports Strong Earnings", types.LabelPositive},
		{"Microsoft Announces New Product", types.LabelNeutral},
		{"Shares Plunge After Fraud Probe", types.LabelNegative},
		{"Stock does not surge despite hype", types.LabelNegative},
		{"Analysts say results are not bad", types.LabelPositive},
	}
	for _, c := range cases {
		t.Run(c.headline, func(t *testing.T) {
			score, err := lex.Score(context.Background(), c.headline)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, -1.0)
			assert.LessOrEqual(t, score, 1.0)
			assert.Equal(t, c.label, types.LabelFor(score), "score %f", score)
		})
	}
}

func TestLexiconIsDeterministicAndBounded(t *testing.T) {
	lex := NewLexicon()
	text := "great great great strong strong record rally soars surges wins success"

	a := lex.Polarity(text)
	b := lex.Polarity(text)
	assert.Equal(t, a, b)
	assert.LessOrEqual(t, a, 1.0)
	assert.Greater(t, a, 0.9)
}

func TestLexiconBoosterIncreasesMagnitude(t *testing.T) {
	lex := NewLexicon()
	assert.Greater(t, lex.Polarity("shares sharply jump"), lex.Polarity("shares jump"))
	assert.Less(t, lex.Polarity("very weak quarter"), lex.Polarity("weak quarter"))
}

func TestLexiconWithCustomValences(t *testing.T) {
	lex := NewLexiconWith(map[string]float64{"moon": 4})
	assert.Greater(t, lex.Polarity("to the moon"), 0.7)
	assert.Equal(t, 0.0, lex.Polarity("surges"))
}
