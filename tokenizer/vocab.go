package tokenizer

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Default special token ids of the BERT uncased vocabulary.
const (
	PadID = 0
	UnkID = 100
	CLSID = 101
	SEPID = 102
)

const (
	padToken = "[PAD]"
	unkToken = "[UNK]"
	clsToken = "[CLS]"
	sepToken = "[SEP]"
)

// Vocab maps WordPiece tokens to ids.
type Vocab struct {
	ids map[string]int64

	pad, unk, cls, sep int64
}

// NewVocab builds a vocabulary from tokens in id order.
func NewVocab(tokens []string) *Vocab {
	v := &Vocab{ids: make(map[string]int64, len(tokens)), pad: PadID, unk: UnkID, cls: CLSID, sep: SEPID}
	for i, tok := range tokens {
		if _, ok := v.ids[tok]; !ok {
			v.ids[tok] = int64(i)
		}
	}
	if id, ok := v.ids[padToken]; ok {
		v.pad = id
	}
	if id, ok := v.ids[unkToken]; ok {
		v.unk = id
	}
	if id, ok := v.ids[clsToken]; ok {
		v.cls = id
	}
	if id, ok := v.ids[sepToken]; ok {
		v.sep = id
	}
	return v
}

// ReadVocab parses a one-token-per-line vocabulary.
func ReadVocab(r io.Reader) (*Vocab, error) {
	var tokens []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "tokenizer: read vocab")
	}
	if len(tokens) == 0 {
		return nil, errors.New("tokenizer: empty vocab")
	}
	return NewVocab(tokens), nil
}

// LoadVocab reads a vocab.txt file.
func LoadVocab(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "tokenizer: open vocab")
	}
	defer f.Close()
	return ReadVocab(f)
}

// ID returns the id of tok and whether it is known.
func (v *Vocab) ID(tok string) (int64, bool) {
	id, ok := v.ids[tok]
	return id, ok
}

// Size returns the number of distinct tokens.
func (v *Vocab) Size() int { return len(v.ids) }
