// Package tokenizer implements BERT-style uncased WordPiece tokenization
// producing padded id batches for a model forward pass.
package tokenizer

import (
	"strings"
	"unicode"
)

// DefaultMaxLen is the model's maximum sequence length.
const DefaultMaxLen = 512

// maxWordChars matches the reference WordPiece limit; longer words map to [UNK].
const maxWordChars = 100

// Batch is a padded, rectangular encoding of several texts.
type Batch struct {
	InputIDs      [][]int64
	AttentionMask [][]int64
	TokenTypeIDs  [][]int64
}

// Len returns the number of sequences.
func (b Batch) Len() int { return len(b.InputIDs) }

// SeqLen returns the padded sequence length.
func (b Batch) SeqLen() int {
	if len(b.InputIDs) == 0 {
		return 0
	}
	return len(b.InputIDs[0])
}

// Tokenizer encodes text with a vocabulary.
type Tokenizer struct {
	vocab *Vocab
}

// New returns a tokenizer over vocab.
func New(vocab *Vocab) *Tokenizer {
	return &Tokenizer{vocab: vocab}
}

// Vocab returns the underlying vocabulary.
func (t *Tokenizer) Vocab() *Vocab { return t.vocab }

// Tokenize splits text into WordPiece ids without special tokens.
func (t *Tokenizer) Tokenize(text string) []int64 {
	var out []int64
	for _, word := range basicSplit(text) {
		out = append(out, t.wordPiece(word)...)
	}
	return out
}

// Encode tokenizes texts, wraps each with [CLS] ... [SEP], truncates to
// maxLen and pads to the longest sequence in the batch.
func (t *Tokenizer) Encode(texts []string, maxLen int) Batch {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	if maxLen < 2 {
		maxLen = 2
	}
	seqs := make([][]int64, len(texts))
	longest := 0
	for i, text := range texts {
		ids := t.Tokenize(text)
		if len(ids) > maxLen-2 {
			ids = ids[:maxLen-2]
		}
		seq := make([]int64, 0, len(ids)+2)
		seq = append(seq, t.vocab.cls)
		seq = append(seq, ids...)
		seq = append(seq, t.vocab.sep)
		seqs[i] = seq
		if len(seq) > longest {
			longest = len(seq)
		}
	}
	batch := Batch{
		InputIDs:      make([][]int64, len(texts)),
		AttentionMask: make([][]int64, len(texts)),
		TokenTypeIDs:  make([][]int64, len(texts)),
	}
	for i, seq := range seqs {
		ids := make([]int64, longest)
		mask := make([]int64, longest)
		for j := range ids {
			if j < len(seq) {
				ids[j] = seq[j]
				mask[j] = 1
				continue
			}
			ids[j] = t.vocab.pad
		}
		batch.InputIDs[i] = ids
		batch.AttentionMask[i] = mask
		batch.TokenTypeIDs[i] = make([]int64, longest)
	}
	return batch
}

func (t *Tokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxWordChars {
		return []int64{t.vocab.unk}
	}
	var out []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		found := int64(-1)
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab.ids[piece]; ok {
				found = id
				break
			}
			end--
		}
		if found < 0 {
			return []int64{t.vocab.unk}
		}
		out = append(out, found)
		start = end
	}
	return out
}

// basicSplit lowercases, drops control characters and combining marks, and splits on
// whitespace and punctuation (each punctuation rune is its own word).
func basicSplit(text string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			flush()
		case r == 0 || r == unicode.ReplacementChar || unicode.IsControl(r):
		case unicode.Is(unicode.Mn, r):
		case isPunct(r) || isCJK(r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}
