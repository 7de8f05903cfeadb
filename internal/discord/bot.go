// Package discord wires the bot into Discord gateway events.
package discord

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"nik-bot/internal/auth"
	"nik-bot/internal/classify"
	"nik-bot/internal/ingest"
	"nik-bot/internal/knowledge"
	"nik-bot/internal/responder"
	"nik-bot/internal/session"
	"nik-bot/internal/storage"
)

// Options hold the channel routing and reply-shaping knobs.
type Options struct {
	GeneralChannelName string
	BusinessChannelID  string
	HistoryScanLimit   int
	ReplyDelay         time.Duration
	TypoRate           float64
}

type Bot struct {
	dg         *discordgo.Session
	authSvc    *auth.Service
	responder  *responder.Responder
	sessions   *session.Manager
	writer     *knowledge.Writer
	finder     responder.Finder
	classifier *classify.Classifier
	recorder   storage.Recorder
	learner    *ingest.Learner
	opts       Options

	mu  sync.Mutex
	rng *rand.Rand
}

func New(
	botToken string,
	authSvc *auth.Service,
	resp *responder.Responder,
	sessions *session.Manager,
	writer *knowledge.Writer,
	finder responder.Finder,
	classifier *classify.Classifier,
	recorder storage.Recorder,
	learner *ingest.Learner,
	opts Options,
) (*Bot, error) {
	dg, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		dg:         dg,
		authSvc:    authSvc,
		responder:  resp,
		sessions:   sessions,
		writer:     writer,
		finder:     finder,
		classifier: classifier,
		recorder:   recorder,
		learner:    learner,
		opts:       opts,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onMessageCreate)
	return b, nil
}

// Start opens the gateway connection and blocks until ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open discord connection: %w", err)
	}
	log.Info().Msg("bot is running")
	<-ctx.Done()
	return b.dg.Close()
}

func (b *Bot) sendToChannel(channelID, text string) {
	if _, err := b.dg.ChannelMessageSend(channelID, text); err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("failed to send message")
	}
}

func (b *Bot) sendDM(userID, text string) {
	ch, err := b.dg.UserChannelCreate(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to open DM channel")
		return
	}
	b.sendToChannel(ch.ID, text)
}

func (b *Bot) channelName(channelID string) string {
	if ch, err := b.dg.State.Channel(channelID); err == nil {
		return ch.Name
	}
	ch, err := b.dg.Channel(channelID)
	if err != nil {
		log.Warn().Err(err).Str("channel_id", channelID).Msg("failed to resolve channel")
		return ""
	}
	return ch.Name
}

func (b *Bot) pickGreeting() string {
	greetings := classify.Greetings()
	b.mu.Lock()
	defer b.mu.Unlock()
	return greetings[b.rng.Intn(len(greetings))]
}
