package ai

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// localConfig mirrors the ai config section; only the dimension matters
// for the local backend.
type localConfig struct {
	EmbedDim int `json:"embed_dim"`
}

// localProvider is the offline fallback: a feature-hashing bag-of-words
// embedder. Tokens are hashed into a fixed number of buckets with a
// hash-derived sign, then the vector is L2-normalized. It needs no
// fitted vocabulary and no model download, so it is always ready and
// never fails — the liveness anchor under every remote backend.
type localProvider struct {
	dim          int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

func (p *localProvider) Name() string {
	return "local"
}

func (p *localProvider) Dimension() int {
	return p.dim
}

func (p *localProvider) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	_ = ctx
	_ = taskType
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vectors = append(vectors, p.embed(text))
	}
	return vectors, nil
}

func (p *localProvider) embed(text string) []float32 {
	vec := make([]float32, p.dim)
	for _, tok := range p.tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(p.dim))
		if sum&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := 1 / math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) * inv)
		}
	}
	return vec
}

func (p *localProvider) tokenize(text string) []string {
	raw := p.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := p.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func createLocalProvider(args interface{}) (Provider, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	dim := cfg.EmbedDim
	if dim <= 0 {
		dim = 384
	}
	return &localProvider{
		dim:          dim,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}, nil
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "than",
		"so", "such", "into", "about", "between", "through", "during",
		"before", "after", "above", "below", "out", "off", "own", "same",
		"too", "very", "can", "will", "just", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func init() {
	Register("local", createLocalProvider)
}
