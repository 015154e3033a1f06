package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testVocab places the special tokens at their BERT ids.
func testVocab(t *testing.T) *Vocab {
	t.Helper()
	tokens := make([]string, 110)
	for i := range tokens {
		tokens[i] = "[unused" + string(rune('a'+i%26)) + "]"
	}
	tokens[0] = "[PAD]"
	tokens[100] = "[UNK]"
	tokens[101] = "[CLS]"
	tokens[102] = "[SEP]"
	tokens[103] = "hello"
	tokens[104] = "world"
	tokens[105] = "em"
	tokens[106] = "##bed"
	tokens[107] = "##ding"
	tokens[108] = "!"
	tokens[109] = ","
	v, err := ReadVocab(strings.NewReader(strings.Join(tokens, "\n")))
	require.NoError(t, err)
	return v
}

func TestTokenizeWordPiece(t *testing.T) {
	tok := New(testVocab(t))

	assert.Equal(t, []int64{103, 109, 104, 108}, tok.Tokenize("Hello, WORLD!"))
	assert.Equal(t, []int64{105, 106, 107}, tok.Tokenize("embedding"))
	assert.Equal(t, []int64{UnkID}, tok.Tokenize("zzz"))
}

func TestEncodePadsAndMasks(t *testing.T) {
	tok := New(testVocab(t))

	batch := tok.Encode([]string{"hello", "hello world embedding"}, 0)
	require.Equal(t, 2, batch.Len())
	assert.Equal(t, 7, batch.SeqLen())
	assert.Equal(t, []int64{CLSID, 103, SEPID, PadID, PadID, PadID, PadID}, batch.InputIDs[0])
	assert.Equal(t, []int64{1, 1, 1, 0, 0, 0, 0}, batch.AttentionMask[0])
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 1, 1}, batch.AttentionMask[1])
	assert.Equal(t, make([]int64, 7), batch.TokenTypeIDs[1])
}

func TestEncodeTruncates(t *testing.T) {
	tok := New(testVocab(t))

	batch := tok.Encode([]string{strings.Repeat("hello ", 20)}, 5)
	assert.Equal(t, []int64{CLSID, 103, 103, 103, SEPID}, batch.InputIDs[0])
}

func TestReadVocabEmpty(t *testing.T) {
	_, err := ReadVocab(strings.NewReader(""))
	assert.Error(t, err)
}
