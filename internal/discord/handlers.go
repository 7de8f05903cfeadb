package discord

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"nik-bot/internal/auth"
	"nik-bot/internal/classify"
	"nik-bot/internal/humanize"
	"nik-bot/internal/knowledge"
	"nik-bot/internal/llm"
	"nik-bot/internal/storage"
)

const (
	videoLearnPrefix = "learn the content of this video:"

	// Interactions shown by the "recent interactions" admin command.
	recentInteractionCount = 10
)

// onReady replays recent business-channel history so knowledge captured while
// the bot was offline is not lost.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Info().Str("user", r.User.Username).Msg("connected, scanning business channel history")
	if b.opts.BusinessChannelID == "" {
		return
	}
	go b.scanBusinessHistory(context.Background())
}

func (b *Bot) scanBusinessHistory(ctx context.Context) {
	var beforeID string
	scanned := 0
	for scanned < b.opts.HistoryScanLimit {
		batch := b.opts.HistoryScanLimit - scanned
		if batch > 100 {
			batch = 100
		}
		msgs, err := b.dg.ChannelMessages(b.opts.BusinessChannelID, batch, beforeID, "", "")
		if err != nil {
			log.Error().Err(err).Msg("failed to read business channel history")
			return
		}
		if len(msgs) == 0 {
			break
		}
		for _, m := range msgs {
			if m.Author == nil || m.Author.Bot {
				continue
			}
			b.captureBusinessMessage(ctx, m.Author.Username, m.Content, knowledge.SourceImported)
		}
		scanned += len(msgs)
		beforeID = msgs[len(msgs)-1].ID
	}
	log.Info().Int("messages", scanned).Msg("business channel scan finished")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}
	content := strings.TrimSpace(m.Content)
	if content == "" {
		return
	}

	ctx := context.Background()
	username := m.Author.Username
	log.Info().Str("channel_id", m.ChannelID).Str("user", username).Str("message", content).Msg("incoming message")

	if b.channelName(m.ChannelID) == b.opts.GeneralChannelName {
		b.handleGeneral(ctx, m, content)
		return
	}

	if m.ChannelID == b.opts.BusinessChannelID {
		b.captureBusinessMessage(ctx, username, content, knowledge.SourceLiveChat)
	}

	if b.authSvc.IsAdmin(username) {
		if b.handleAdminCommand(m.ChannelID, content) {
			return
		}
		if url, ok := parseVideoCommand(content); ok {
			b.handleVideoLearning(ctx, m.ChannelID, url)
		}
	}
}

// handleGeneral runs the respond flow: greeting short-circuit, travel and
// emotion side channels, then lookup-or-generate.
func (b *Bot) handleGeneral(ctx context.Context, m *discordgo.MessageCreate, content string) {
	userID := m.Author.ID

	isPrivate := strings.HasPrefix(content, "?")
	if isPrivate {
		content = strings.TrimSpace(strings.TrimPrefix(content, "?"))
		if content == "" {
			return
		}
	}

	if classify.IsGreeting(content) {
		b.sendToChannel(m.ChannelID, b.pickGreeting())
		return
	}

	if b.classifier.IsTravelRelated(ctx, content) {
		b.sendDM(userID, "🛪 "+m.Author.Username+" asked about travel plans: "+content)
	}
	if alert, ok := b.classifier.DetectEmotion(ctx, m.Author.Username, content); ok {
		b.sendDM(userID, alert)
	}

	reply, source := b.responder.Respond(ctx, userID, content)
	b.sessions.Append(userID, llm.RoleUser, content)
	b.sessions.Append(userID, llm.RoleAssistant, reply)
	b.recordInteraction(userID, m.Author.Username, content, reply, string(source))

	b.mu.Lock()
	withTypos := humanize.IntroduceTypos(reply, b.opts.TypoRate, b.rng)
	b.mu.Unlock()

	// A short pause before replying reads more like a person typing.
	time.Sleep(b.opts.ReplyDelay)
	if isPrivate {
		b.sendDM(userID, withTypos)
	} else {
		b.sendToChannel(m.ChannelID, m.Author.Mention()+" "+withTypos)
	}
}

// captureBusinessMessage stores business-relevant knowledge: unseen valuable
// user questions, and every admin message as assistant knowledge.
func (b *Bot) captureBusinessMessage(ctx context.Context, username, content, sourceTag string) {
	if !b.classifier.IsBusinessRelated(ctx, content) {
		return
	}

	if b.authSvc.IsAdmin(username) {
		if err := b.writer.SaveEntry(ctx, knowledge.RoleAssistant, content, sourceTag); err != nil {
			log.Warn().Err(err).Msg("failed to store admin message as assistant knowledge")
		}
		return
	}

	if _, seen, err := b.finder.FindMostSimilar(ctx, content); err != nil || seen {
		return
	}
	if !b.classifier.IsWorthLearning(ctx, content) {
		return
	}
	if err := b.writer.SaveEntry(ctx, knowledge.RoleUser, content, sourceTag); err != nil {
		log.Warn().Err(err).Msg("failed to store business question")
		return
	}
	log.Info().Str("user", username).Msg("stored business question as knowledge")
}

func (b *Bot) handleVideoLearning(ctx context.Context, channelID, videoURL string) {
	if b.learner == nil {
		b.sendToChannel(channelID, "❌ Video learning is not configured.")
		return
	}
	b.sendToChannel(channelID, "📥 Learning from video, please wait...")
	go func() {
		title, pairs, err := b.learner.LearnVideo(ctx, videoURL)
		if err != nil {
			log.Error().Err(err).Str("url", videoURL).Msg("failed to learn video content")
			b.sendToChannel(channelID, "❌ Failed to learn video content.")
			return
		}
		log.Info().Str("title", title).Int("pairs", pairs).Msg("video content learned")
		b.sendToChannel(channelID, "✅ Video content learned and stored!")
	}()
}

func (b *Bot) recordInteraction(userID, username, userMessage, response, source string) {
	if b.recorder == nil {
		return
	}
	err := b.recorder.AppendInteraction(storage.Event{
		Timestamp:   time.Now().UTC(),
		UserID:      userID,
		Username:    username,
		UserMessage: userMessage,
		Response:    response,
		Source:      source,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to record interaction")
	}
}

type adminCmd int

const (
	adminCmdNone adminCmd = iota
	adminCmdAdd
	adminCmdRemove
	adminCmdList
	adminCmdRecent
)

// handleAdminCommand executes the plain-text admin management commands.
// Returns false when the message is not a command.
func (b *Bot) handleAdminCommand(channelID, content string) bool {
	cmd, arg := parseAdminCommand(content)
	switch cmd {
	case adminCmdAdd:
		if err := b.authSvc.Upsert(auth.Admin{Username: arg}); err != nil {
			log.Warn().Err(err).Str("username", arg).Msg("failed to add admin")
			b.sendToChannel(channelID, "❌ Failed to add admin.")
			return true
		}
		b.sendToChannel(channelID, "✅ "+arg+" is now an admin.")
	case adminCmdRemove:
		if err := b.authSvc.Remove(arg); err != nil {
			log.Warn().Err(err).Str("username", arg).Msg("failed to remove admin")
			b.sendToChannel(channelID, "❌ Failed to remove admin.")
			return true
		}
		b.sendToChannel(channelID, "✅ "+arg+" is no longer an admin.")
	case adminCmdList:
		admins := b.authSvc.List()
		names := make([]string, 0, len(admins))
		for _, a := range admins {
			names = append(names, a.Username)
		}
		sort.Strings(names)
		b.sendToChannel(channelID, "Admins: "+strings.Join(names, ", "))
	case adminCmdRecent:
		if b.recorder == nil {
			b.sendToChannel(channelID, "Interaction log is not configured.")
			return true
		}
		events, err := b.recorder.LoadInteractions()
		if err != nil {
			log.Warn().Err(err).Msg("failed to load interactions")
			b.sendToChannel(channelID, "❌ Failed to load interactions.")
			return true
		}
		b.sendToChannel(channelID, formatInteractions(events, recentInteractionCount))
	default:
		return false
	}
	return true
}

func parseAdminCommand(content string) (adminCmd, string) {
	trimmed := strings.TrimSpace(content)
	lower := strings.ToLower(trimmed)
	switch {
	case lower == "list admins":
		return adminCmdList, ""
	case lower == "recent interactions":
		return adminCmdRecent, ""
	case strings.HasPrefix(lower, "add admin "):
		if arg := strings.TrimSpace(trimmed[len("add admin "):]); arg != "" {
			return adminCmdAdd, arg
		}
	case strings.HasPrefix(lower, "remove admin "):
		if arg := strings.TrimSpace(trimmed[len("remove admin "):]); arg != "" {
			return adminCmdRemove, arg
		}
	}
	return adminCmdNone, ""
}

// formatInteractions renders the newest n audit-log events, oldest first.
func formatInteractions(events []storage.Event, n int) string {
	if len(events) == 0 {
		return "No interactions recorded yet."
	}
	if len(events) > n {
		events = events[len(events)-n:]
	}
	var sb strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&sb, "[%s] %s: %s -> %s (%s)\n",
			ev.Timestamp.Format(time.RFC3339), ev.Username, ev.UserMessage, ev.Response, ev.Source)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// parseVideoCommand extracts the URL from an admin "learn the content of
// this video: <url>" request.
func parseVideoCommand(content string) (string, bool) {
	lower := strings.ToLower(content)
	idx := strings.Index(lower, videoLearnPrefix)
	if idx < 0 {
		return "", false
	}
	url := strings.TrimSpace(content[idx+len(videoLearnPrefix):])
	if url == "" {
		return "", false
	}
	if !strings.Contains(url, "youtube.com") && !strings.Contains(url, "youtu.be") {
		return "", false
	}
	return url, true
}
