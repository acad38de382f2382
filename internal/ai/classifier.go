package ai

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/DoyleJ11/askai-quiz-backend/internal/media"
)

const (
	PolicyKeywordPrefilter  = "keyword-prefilter"
	PolicyModelSelfClassify = "model-self-classify"
)

// Classifier decides whether a question may be sent to the model. A false
// result short-circuits to RefusalText without a model call.
type Classifier interface {
	Name() string
	Allow(question string) bool
}

// ParseClassifier maps a configured policy name to its strategy.
func ParseClassifier(policy string) (Classifier, error) {
	switch strings.TrimSpace(policy) {
	case "", PolicyModelSelfClassify:
		return ModelSelfClassify{}, nil
	case PolicyKeywordPrefilter:
		return NewKeywordPrefilter(), nil
	default:
		return nil, fmt.Errorf("unknown classifier policy %q", policy)
	}
}

// ModelSelfClassify sends everything and trusts the model's in-band refusal.
type ModelSelfClassify struct{}

func (ModelSelfClassify) Name() string { return PolicyModelSelfClassify }
func (ModelSelfClassify) Allow(_ string) bool { return true }

// KeywordPrefilter admits a question only when it mentions a topic word and
// no off-domain marker.
type KeywordPrefilter struct {
	topics    map[string]struct{}
	offDomain map[string]struct{}
}

var topicVocabulary = []string{
	// science
	"science", "scientist", "physics", "chemistry", "biology", "atom", "atoms",
	"molecule", "element", "elements", "cell", "cells", "dna", "gene", "genes",
	"energy", "gravity", "planet", "planets", "star", "stars", "galaxy", "universe",
	"space", "moon", "sun", "solar", "orbit", "light", "speed", "temperature",
	"species", "evolution", "vaccine", "disease", "virus", "bacteria", "human", "body",
	// technology
	"technology", "tech", "computer", "computers", "software", "hardware", "internet",
	"web", "programming", "code", "language", "invented", "invention", "inventor",
	"engine", "electricity", "phone", "satellite", "rocket", "chip", "bitcoin",
	// ai
	"ai", "artificial", "intelligence", "robot", "robots", "machine", "learning",
	"neural", "model", "chatgpt", "gemini", "algorithm", "algorithms", "data",
	// mathematics
	"math", "maths", "mathematics", "number", "numbers", "prime", "equation",
	"theorem", "pi", "geometry", "algebra", "calculus", "sum", "square", "root",
	"triangle", "circle", "percent", "multiply", "divide", "fraction",
	// history
	"history", "historical", "war", "wars", "empire", "king", "queen", "emperor",
	"dynasty", "century", "ancient", "revolution", "independence", "battle",
	"civilization", "pharaoh", "founded", "president", "prime-minister", "year",
	// geography
	"geography", "capital", "country", "countries", "continent", "continents",
	"river", "rivers", "mountain", "mountains", "ocean", "oceans", "sea", "desert",
	"island", "city", "cities", "population", "border", "largest", "longest",
	"highest", "tallest", "deepest", "smallest", "world",
	// current affairs
	"news", "election", "elections", "government", "minister", "economy",
	"summit", "treaty", "olympics", "cup", "nobel", "prize", "award", "latest",
	// general knowledge
	"first", "famous", "author", "wrote", "painted", "discovered", "currency", "flag", "national",
}

var offDomainMarkers = []string{
	"gossip", "rumor", "rumors", "rumour", "rumours", "celebrity", "celebrities",
	"dating", "boyfriend", "girlfriend", "crush", "horoscope", "zodiac", "astrology",
	"lottery", "bet", "betting", "recipe", "diet", "opinion", "favourite", "favorite",
	"joke", "prank", "homework", "password",
}

func NewKeywordPrefilter() *KeywordPrefilter {
	return &KeywordPrefilter{
		topics:    wordSet(topicVocabulary),
		offDomain: wordSet(offDomainMarkers),
	}
}

func (*KeywordPrefilter) Name() string { return PolicyKeywordPrefilter }

func (k *KeywordPrefilter) Allow(question string) bool {
	matched := false
	for _, w := range tokenize(question) {
		if _, bad := k.offDomain[w]; bad {
			return false
		}
		if _, ok := k.topics[w]; ok {
			matched = true
		}
	}
	return matched
}

func tokenize(s string) []string {
	return strings.FieldsFunc(media.NormalizeText(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
