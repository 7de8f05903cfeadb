// Package responder implements the reply policy: answer from the knowledge
// store when a similar prior exchange exists, otherwise generate.
package responder

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"nik-bot/internal/llm"
	"nik-bot/internal/metrics"
	"nik-bot/internal/session"
)

// Source records which path produced a reply, for the audit log.
type Source string

const (
	SourceCached    Source = "cached"
	SourceGenerated Source = "generated"
	SourceError     Source = "error"
)

// Finder locates a stored answer for a semantically similar prior question.
type Finder interface {
	FindMostSimilar(ctx context.Context, query string) (string, bool, error)
}

// Temperatures the fallback samples from. Varying temperature run-to-run is
// deliberate: identical inputs may produce different replies.
var temperatures = []float32{0.7, 0.8, 0.9}

type Responder struct {
	finder       Finder
	client       llm.Client
	sessions     *session.Manager
	systemPrompt string
	maxTokens    int

	mu  sync.Mutex
	rng *rand.Rand
}

func New(finder Finder, client llm.Client, sessions *session.Manager, systemPrompt string, maxTokens int) *Responder {
	if maxTokens <= 0 {
		maxTokens = 150
	}
	return &Responder{
		finder:       finder,
		client:       client,
		sessions:     sessions,
		systemPrompt: systemPrompt,
		maxTokens:    maxTokens,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Respond always returns a non-empty reply: a stored answer on a lookup hit,
// a generated one on a miss, and an error string when generation fails.
// Lookup failures degrade to a miss.
func (r *Responder) Respond(ctx context.Context, userID, userMessage string) (string, Source) {
	answer, ok, err := r.finder.FindMostSimilar(ctx, userMessage)
	if err != nil {
		log.Warn().Err(err).Msg("similarity lookup failed, treating as miss")
	}
	if ok {
		log.Info().Str("user_id", userID).Msg("answering from stored response")
		return answer, SourceCached
	}

	log.Info().Str("user_id", userID).Msg("no similar query found, generating response")
	return r.generate(ctx, userID, userMessage)
}

func (r *Responder) generate(ctx context.Context, userID, userMessage string) (string, Source) {
	var messages []llm.Message
	if r.systemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: r.systemPrompt})
	}
	messages = append(messages, r.sessions.GetOrCreate(userID)...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})

	resp, err := r.client.Generate(ctx, messages, llm.Options{
		MaxTokens:   r.maxTokens,
		Temperature: r.pickTemperature(),
	})
	if err != nil {
		metrics.GenerativeErrors.Inc()
		log.Error().Err(err).Str("user_id", userID).Msg("generation failed")
		return fmt.Sprintf("Error: %v", err), SourceError
	}
	return resp.Content, SourceGenerated
}

func (r *Responder) pickTemperature() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return temperatures[r.rng.Intn(len(temperatures))]
}
