// Package discord connects a bot session to a Discord gateway.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/pkg/retrylimit"
)

// API is the REST part of *discordgo.Session the transport uses.
type API interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
}

type Options struct {
	Token     string
	Logger    zerolog.Logger
	PostRate  float64
	PostBurst int
}

// Transport implements bot.Poster, bot.Listener and bot.Directory.
type Transport struct {
	api     API
	session *discordgo.Session
	log     zerolog.Logger
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.Config
}

func New(opts Options) (*Transport, error) {
	if opts.Token == "" {
		return nil, errors.New("discord: token is required")
	}
	dg, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	t := NewWithAPI(dg, opts)
	t.session = dg
	return t, nil
}

// NewWithAPI builds a transport around an existing REST client. Listen fails
// on transports built this way.
func NewWithAPI(api API, opts Options) *Transport {
	if opts.PostRate <= 0 {
		opts.PostRate = 1
	}
	if opts.PostBurst <= 0 {
		opts.PostBurst = 3
	}
	log := opts.Logger.With().Str("transport", "discord").Logger()

	retry := retrylimit.DefaultConfig()
	retry.Logger = log
	return &Transport{
		api:     api,
		log:     log,
		limiter: retrylimit.NewAdaptiveLimiter(opts.PostRate, opts.PostRate/8, opts.PostRate*2, opts.PostBurst),
		retry:   retry,
	}
}

// PostMessage implements bot.Poster.
func (t *Transport) PostMessage(ctx context.Context, msg bot.Message) error {
	if msg.Channel == "" {
		return errors.New("discord: message has no channel")
	}
	send := messageSend(msg)
	err := retrylimit.Do(ctx, t.limiter, t.retry, func() error {
		_, err := t.api.ChannelMessageSendComplex(msg.Channel, send, discordgo.WithContext(ctx))
		return classify(err)
	})
	if err != nil {
		return fmt.Errorf("discord: post to %s: %w", msg.Channel, err)
	}
	return nil
}

func messageSend(msg bot.Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{Content: msg.Text}
	if !msg.LinkNames {
		send.AllowedMentions = &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}
	}
	if msg.ThreadTS != "" {
		send.Reference = &discordgo.MessageReference{MessageID: msg.ThreadTS, ChannelID: msg.Channel}
	}
	for _, a := range msg.Attachments {
		send.Embeds = append(send.Embeds, embed(a))
	}
	return send
}

func embed(a bot.Attachment) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       a.Title,
		URL:         a.TitleLink,
		Description: a.Text,
		Color:       parseColor(a.Color),
	}
	if a.Pretext != "" {
		e.Author = &discordgo.MessageEmbedAuthor{Name: a.Pretext}
	}
	if a.ImageURL != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: a.ImageURL}
	}
	if a.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: a.Footer}
	}
	for _, f := range a.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Title, Value: f.Value, Inline: f.Short})
	}
	return e
}

// parseColor reads "#rrggbb" or "rrggbb". Anything else is 0.
func parseColor(s string) int {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0
	}
	v, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

// Listen implements bot.Listener. Gateway callbacks are queued and delivered
// to sink from this goroutine.
func (t *Transport) Listen(ctx context.Context, sink bot.Sink) error {
	if t.session == nil {
		return errors.New("discord: no gateway session")
	}

	ready := make(chan bot.Identity, 1)
	events := make(chan bot.Event, 64)

	removeReady := t.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		select {
		case ready <- bot.Identity{UserID: r.User.ID, Name: r.User.Username}:
		default:
		}
	})
	defer removeReady()

	removeMsg := t.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		var self string
		if s.State != nil && s.State.User != nil {
			self = s.State.User.ID
		}
		ev, ok := toEvent(m, self)
		if !ok {
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	defer removeMsg()

	if err := t.session.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	defer func() {
		if err := t.session.Close(); err != nil {
			t.log.Warn().Err(err).Msg("closing gateway")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case id := <-ready:
			sink.Connected(ctx, id)
		case ev := <-events:
			sink.HandleMessage(ctx, ev)
		}
	}
}

// toEvent converts a gateway message. Messages from bots, including self,
// are skipped.
func toEvent(m *discordgo.MessageCreate, self string) (bot.Event, bool) {
	if m == nil || m.Message == nil || m.Author == nil {
		return bot.Event{}, false
	}
	if m.Author.Bot || m.Author.ID == self {
		return bot.Event{}, false
	}
	ev := bot.Event{
		TeamID:    m.GuildID,
		UserID:    m.Author.ID,
		ChannelID: m.ChannelID,
		Text:      m.Content,
		Timestamp: m.ID,
		Raw:       m.Message,
	}
	if m.MessageReference != nil {
		ev.ThreadTimestamp = m.MessageReference.MessageID
	}
	return ev, true
}

// User implements bot.Directory.
func (t *Transport) User(ctx context.Context, id string) (*bot.User, error) {
	u, err := t.api.User(id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: user %s: %w", id, err)
	}
	return &bot.User{ID: u.ID, Name: u.Username, RealName: u.GlobalName, IsBot: u.Bot}, nil
}

// Team implements bot.Directory. Teams are guilds.
func (t *Transport) Team(ctx context.Context, id string) (*bot.Team, error) {
	if t.session != nil && t.session.State != nil {
		if g, err := t.session.State.Guild(id); err == nil {
			return &bot.Team{ID: g.ID, Name: g.Name, Domain: g.VanityURLCode}, nil
		}
	}
	g, err := t.api.Guild(id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: guild %s: %w", id, err)
	}
	return &bot.Team{ID: g.ID, Name: g.Name, Domain: g.VanityURLCode}, nil
}

// Channel implements bot.Directory.
func (t *Transport) Channel(ctx context.Context, id string) (*bot.Channel, error) {
	if t.session != nil && t.session.State != nil {
		if ch, err := t.session.State.Channel(id); err == nil {
			return &bot.Channel{ID: ch.ID, Name: ch.Name, Kind: channelKind(ch.Type)}, nil
		}
	}
	ch, err := t.api.Channel(id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: channel %s: %w", id, err)
	}
	return &bot.Channel{ID: ch.ID, Name: ch.Name, Kind: channelKind(ch.Type)}, nil
}

func channelKind(t discordgo.ChannelType) bot.ChannelKind {
	switch t {
	case discordgo.ChannelTypeDM:
		return bot.ChannelIM
	case discordgo.ChannelTypeGroupDM, discordgo.ChannelTypeGuildPrivateThread:
		return bot.ChannelGroup
	default:
		return bot.ChannelPublic
	}
}

type restError struct{ err *discordgo.RESTError }

func (r restError) Error() string { return r.err.Error() }
func (r restError) Unwrap() error { return r.err }
func (r restError) StatusCode() int {
	if r.err.Response == nil {
		return 0
	}
	return r.err.Response.StatusCode
}

type rateLimitedError struct {
	restError
	wait time.Duration
}

func (r rateLimitedError) RetryAfter() time.Duration { return r.wait }

// classify exposes REST status codes to retrylimit. discordgo already waits
// out most 429s itself; one that still reaches us is retried, honouring
// Retry-After when Discord sent it.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var re *discordgo.RESTError
	if errors.As(err, &re) {
		if re.Response != nil && re.Response.StatusCode == http.StatusTooManyRequests {
			if secs, perr := strconv.ParseFloat(re.Response.Header.Get("Retry-After"), 64); perr == nil && secs >= 0 {
				return rateLimitedError{restError{re}, time.Duration(secs * float64(time.Second))}
			}
		}
		return restError{re}
	}
	return err
}
