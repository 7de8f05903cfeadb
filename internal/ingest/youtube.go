// Package ingest imports YouTube video transcripts into the knowledge store
// as question/answer exchanges.
package ingest

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"nik-bot/internal/knowledge"
	"nik-bot/internal/llm"
)

// chunkWords bounds how much transcript goes into one Q&A extraction call.
const chunkWords = 750

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

type Learner struct {
	yt      *youtube.Service
	client  llm.Client
	writer  *knowledge.Writer
	fetcher TranscriptFetcher
}

func NewLearner(ctx context.Context, apiKey string, client llm.Client, writer *knowledge.Writer) (*Learner, error) {
	l := &Learner{
		client:  client,
		writer:  writer,
		fetcher: NewTimedTextFetcher(),
	}
	if apiKey != "" {
		svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("failed to init youtube service: %w", err)
		}
		l.yt = svc
	}
	return l, nil
}

// LearnVideo fetches the video's transcript, converts it into Q&A exchanges
// and stores them. Returns the video title and the number of stored pairs.
func (l *Learner) LearnVideo(ctx context.Context, videoURL string) (string, int, error) {
	videoID, err := ExtractVideoID(videoURL)
	if err != nil {
		return "", 0, err
	}

	title := l.videoTitle(ctx, videoID)

	transcript, err := l.fetcher.Fetch(ctx, videoID)
	if err != nil {
		return title, 0, fmt.Errorf("fetch transcript: %w", err)
	}

	chunks := SplitTranscript(transcript, chunkWords)
	stored := 0
	for i, chunk := range chunks {
		log.Info().Int("chunk", i+1).Int("total", len(chunks)).Str("video_id", videoID).Msg("extracting Q&A from transcript chunk")
		pairs, err := l.extractQA(ctx, chunk)
		if err != nil {
			log.Warn().Err(err).Int("chunk", i+1).Msg("Q&A extraction failed, skipping chunk")
			continue
		}
		for _, p := range pairs {
			if err := l.writer.SaveExchange(ctx, p.Question, p.Answer, knowledge.SourceVideoImport); err != nil {
				log.Warn().Err(err).Msg("failed to store Q&A exchange")
				continue
			}
			stored++
		}
	}
	if stored == 0 {
		return title, 0, fmt.Errorf("no Q&A pairs extracted from %d transcript chunks", len(chunks))
	}
	return title, stored, nil
}

func (l *Learner) videoTitle(ctx context.Context, videoID string) string {
	if l.yt == nil {
		return "Video_" + videoID
	}
	resp, err := l.yt.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil || len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("failed to fetch video title")
		return "Video_" + videoID
	}
	return resp.Items[0].Snippet.Title
}

// ExtractVideoID resolves the 11-character video id from the common YouTube
// URL shapes (watch?v=, youtu.be/, shorts/) or a bare id.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid video url %q", raw)
	}

	var id string
	switch {
	case strings.HasSuffix(u.Host, "youtu.be"):
		id = strings.Trim(u.Path, "/")
	case u.Query().Get("v") != "":
		id = u.Query().Get("v")
	case strings.HasPrefix(u.Path, "/shorts/"):
		id = strings.Trim(strings.TrimPrefix(u.Path, "/shorts/"), "/")
	}
	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("no video id in url %q", raw)
	}
	return id, nil
}

// SplitTranscript cuts the transcript into word-bounded chunks.
func SplitTranscript(text string, maxWords int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []string
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
