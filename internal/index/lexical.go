package index

import (
	"math"
	"sort"
	"strings"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// LexicalIndex is a BM25 index over the snapshot's chunk texts.
// Built once at startup and read-only afterwards.
type LexicalIndex struct {
	docFreq   map[string]int
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	numDocs   int
}

func NewLexicalIndex(texts []string) *LexicalIndex {
	idx := &LexicalIndex{
		docFreq:   make(map[string]int),
		termFreqs: make([]map[string]int, len(texts)),
		docLens:   make([]int, len(texts)),
		numDocs:   len(texts),
	}

	totalLen := 0
	for i, text := range texts {
		tokens := Tokenize(text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term := range tf {
			idx.docFreq[term]++
		}
		idx.termFreqs[i] = tf
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)
	}

	if len(texts) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(texts))
	}

	return idx
}

// Search returns up to k hits ordered by descending BM25 score.
// Documents with no matching terms are excluded.
func (idx *LexicalIndex) Search(query string, k int) []Hit {
	if k <= 0 || idx.numDocs == 0 {
		return nil
	}

	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	var hits []Hit
	for docID := 0; docID < idx.numDocs; docID++ {
		score := idx.score(queryTokens, docID)
		if score > 0 {
			hits = append(hits, Hit{Index: docID, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func (idx *LexicalIndex) score(queryTokens []string, docID int) float64 {
	tf := idx.termFreqs[docID]
	docLen := float64(idx.docLens[docID])

	var score float64
	for _, term := range queryTokens {
		freq := float64(tf[term])
		if freq == 0 {
			continue
		}

		df := float64(idx.docFreq[term])
		idf := math.Log(1 + (float64(idx.numDocs)-df+0.5)/(df+0.5))

		numerator := freq * (bm25K1 + 1)
		denominator := freq + bm25K1*(1-bm25B+bm25B*docLen/idx.avgDocLen)
		score += idf * numerator / denominator
	}
	return score
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"of": true, "at": true, "by": true, "for": true, "with": true,
	"about": true, "against": true, "between": true, "into": true,
	"through": true, "during": true, "before": true, "after": true,
	"to": true, "from": true, "in": true, "on": true,
}

// Tokenize lower-cases, strips punctuation, and drops stop words and
// single characters. Shared by the lexical index and the pipeline's
// query/context overlap check.
func Tokenize(s string) []string {
	s = strings.ToLower(s)
	s = removePunctuation(s)

	tokens := []string{}
	for _, word := range strings.Fields(s) {
		if !stopWords[word] && len(word) > 1 {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

func removePunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(".,!?;:()[]{}\"'", r) {
			return -1
		}
		return r
	}, s)
}
