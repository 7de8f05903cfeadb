// Package classify holds the small message classifiers used for channel
// routing: greetings, travel questions, knowledge-worthiness and emotion.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"nik-bot/internal/llm"
)

var greetings = []string{
	"hi", "hey", "hello", "yo", "sup", "what's up", "howdy", "hiya",
	"hey there", "hello there", "how's it going", "how's everything",
	"what's happening", "good day", "greetings", "salutations",
	"hi there", "how are you", "how have you been", "how do you do",
	"what's good", "what's new", "morning", "good morning", "good afternoon",
	"good evening", "evening", "hiya there", "aloha", "hola", "bonjour",
	"hallo", "ciao", "namaste", "salaam", "shalom", "konnichiwa", "annyeong",
}

var greetingSet = func() map[string]bool {
	m := make(map[string]bool, len(greetings))
	for _, g := range greetings {
		m[g] = true
	}
	return m
}()

func IsGreeting(message string) bool {
	return greetingSet[strings.ToLower(strings.TrimSpace(message))]
}

// Greetings returns the canned greeting replies.
func Greetings() []string {
	return greetings
}

// Classifier answers yes/no questions about messages with bounded LLM calls.
// Classification failures always default to "no": a misrouted message is
// cheaper than a crashed handler.
type Classifier struct {
	client llm.Client
}

func New(client llm.Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) IsTravelRelated(ctx context.Context, message string) bool {
	if len(message) < 3 {
		return false
	}
	return c.yesNo(ctx,
		"You are a travel expert. Your job is to identify if a given question is related to travel, such as trips, locations, or travel plans. If it is unrelated, say 'no'. If it is travel-related, say 'yes'.",
		fmt.Sprintf("Is this message about traveling? %s", message))
}

func (c *Classifier) IsBusinessRelated(ctx context.Context, message string) bool {
	if len(message) < 3 {
		return false
	}
	return c.yesNo(ctx,
		"You decide whether a chat message concerns business strategy, marketing or social media growth. Answer only 'yes' or 'no'.",
		fmt.Sprintf("Is this message about business or social media? %s", message))
}

// IsWorthLearning decides whether a business question is valuable enough to
// keep in the knowledge base.
func (c *Classifier) IsWorthLearning(ctx context.Context, message string) bool {
	prompt := fmt.Sprintf(`A user has asked the following business-related question:
%q

Should this question be stored for future retrieval in a knowledge base?
If it's a common, useful, and informative question that would help a business ai bot develop more awareness, say "yes".
If it's too vague, unhelpful, or meaningless, say "no".`, message)
	return c.yesNo(ctx, "You are a business assistant that evaluates if a question is worth storing.", prompt)
}

// DetectEmotion reports a strong emotion (joy, anger, sadness, fear) carried
// by the message, formatted as an alert DM. ok is false when no strong
// emotion is detected or classification fails.
func (c *Classifier) DetectEmotion(ctx context.Context, user, message string) (string, bool) {
	resp, err := c.client.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "Classify the dominant emotion of the user's message. Answer with exactly one word: joy, anger, sadness, fear or none. Answer 'none' unless the emotion is strong and unmistakable."},
		{Role: llm.RoleUser, Content: message},
	}, llm.Options{MaxTokens: 10})
	if err != nil {
		log.Warn().Err(err).Msg("emotion detection failed")
		return "", false
	}
	emotion := strings.ToLower(strings.TrimSpace(resp.Content))
	switch emotion {
	case "joy", "anger", "sadness", "fear":
		return fmt.Sprintf("User %s said %s feeling emotion: %s", user, message, emotion), true
	}
	return "", false
}

func (c *Classifier) yesNo(ctx context.Context, system, prompt string) bool {
	resp, err := c.client.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: prompt},
	}, llm.Options{MaxTokens: 10})
	if err != nil {
		log.Warn().Err(err).Msg("classification failed, defaulting to no")
		return false
	}
	return strings.Contains(strings.ToLower(resp.Content), "yes")
}
