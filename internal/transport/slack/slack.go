// Package slack connects a bot session to Slack over Socket Mode.
package slack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/pkg/retrylimit"
)

// API is the part of *slack.Client the transport uses.
type API interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
	GetTeamInfoContext(ctx context.Context) (*slack.TeamInfo, error)
	GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error)
}

type Options struct {
	BotToken string
	AppToken string
	Logger   zerolog.Logger
	// PostRate and PostBurst throttle outbound messages.
	PostRate  float64
	PostBurst int
}

// Transport implements bot.Poster, bot.Listener and bot.Directory.
type Transport struct {
	api     API
	socket  *socketmode.Client
	log     zerolog.Logger
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.Config
}

func New(opts Options) (*Transport, error) {
	if opts.BotToken == "" || opts.AppToken == "" {
		return nil, errors.New("slack: bot and app tokens are required")
	}
	api := slack.New(opts.BotToken, slack.OptionAppLevelToken(opts.AppToken))
	t := NewWithAPI(api, opts)
	t.socket = socketmode.New(api)
	return t, nil
}

// NewWithAPI builds a transport around an existing client. Listen needs a
// Socket Mode client and fails on transports built this way.
func NewWithAPI(api API, opts Options) *Transport {
	if opts.PostRate <= 0 {
		opts.PostRate = 1
	}
	if opts.PostBurst <= 0 {
		opts.PostBurst = 3
	}
	log := opts.Logger.With().Str("transport", "slack").Logger()

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
		return errors.New("slack: message has no channel")
	}
	opts := messageOptions(msg)
	err := retrylimit.Do(ctx, t.limiter, t.retry, func() error {
		_, _, err := t.api.PostMessageContext(ctx, msg.Channel, opts...)
		return classify(err)
	})
	if err != nil {
		return fmt.Errorf("slack: post to %s: %w", msg.Channel, err)
	}
	return nil
}

func messageOptions(msg bot.Message) []slack.MsgOption {
	params := slack.NewPostMessageParameters()
	params.Username = msg.Username
	params.AsUser = msg.AsUser
	params.Parse = msg.Parse
	params.IconURL = msg.IconURL
	params.ThreadTimestamp = msg.ThreadTS
	params.ReplyBroadcast = msg.ReplyBroadcast
	if msg.LinkNames {
		params.LinkNames = 1
	}
	if msg.UnfurlLinks != nil {
		params.UnfurlLinks = *msg.UnfurlLinks
	}
	if msg.UnfurlMedia != nil {
		params.UnfurlMedia = *msg.UnfurlMedia
	}

	opts := []slack.MsgOption{
		slack.MsgOptionText(msg.Text, false),
		slack.MsgOptionPostMessageParameters(params),
	}
	if len(msg.Attachments) > 0 {
		opts = append(opts, slack.MsgOptionAttachments(attachments(msg.Attachments)...))
	}
	return opts
}

func attachments(in []bot.Attachment) []slack.Attachment {
	out := make([]slack.Attachment, 0, len(in))
	for _, a := range in {
		sa := slack.Attachment{
			Fallback:  a.Fallback,
			Color:     a.Color,
			Pretext:   a.Pretext,
			Title:     a.Title,
			TitleLink: a.TitleLink,
			Text:      a.Text,
			ImageURL:  a.ImageURL,
			Footer:    a.Footer,
		}
		for _, f := range a.Fields {
			sa.Fields = append(sa.Fields, slack.AttachmentField{Title: f.Title, Value: f.Value, Short: f.Short})
		}
		out = append(out, sa)
	}
	return out
}

// Listen implements bot.Listener. It runs the Socket Mode connection and
// forwards message events to sink until ctx is done.
func (t *Transport) Listen(ctx context.Context, sink bot.Sink) error {
	if t.socket == nil {
		return errors.New("slack: no socket mode client")
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- t.socket.RunContext(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-runErr:
			return err
		case evt, ok := <-t.socket.Events:
			if !ok {
				return nil
			}
			t.handle(ctx, evt, sink)
		}
	}
}

func (t *Transport) handle(ctx context.Context, evt socketmode.Event, sink bot.Sink) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		t.log.Info().Msg("connecting to Slack with Socket Mode...")
	case socketmode.EventTypeConnectionError:
		t.log.Warn().Msg("connection failed, retrying later...")
	case socketmode.EventTypeConnected:
		id, err := t.identity(ctx)
		if err != nil {
			t.log.Error().Err(err).Msg("auth test failed")
			return
		}
		sink.Connected(ctx, id)
	case socketmode.EventTypeEventsAPI:
		if evt.Request != nil {
			t.socket.Ack(*evt.Request)
		}
		apiEvt, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			t.log.Debug().Interface("data", evt.Data).Msg("ignored events api payload")
			return
		}
		if ev, ok := toEvent(apiEvt); ok {
			sink.HandleMessage(ctx, ev)
		}
	}
}

func (t *Transport) identity(ctx context.Context) (bot.Identity, error) {
	auth, err := t.api.AuthTestContext(ctx)
	if err != nil {
		return bot.Identity{}, err
	}
	return bot.Identity{UserID: auth.UserID, Name: auth.User, TeamID: auth.TeamID}, nil
}

// toEvent converts a message callback. Bot messages and edits are skipped.
func toEvent(apiEvt slackevents.EventsAPIEvent) (bot.Event, bool) {
	if apiEvt.Type != slackevents.CallbackEvent {
		return bot.Event{}, false
	}
	msg, ok := apiEvt.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok || msg.BotID != "" || msg.SubType != "" {
		return bot.Event{}, false
	}
	return bot.Event{
		TeamID:          apiEvt.TeamID,
		UserID:          msg.User,
		ChannelID:       msg.Channel,
		Text:            msg.Text,
		Timestamp:       msg.TimeStamp,
		ThreadTimestamp: msg.ThreadTimeStamp,
		Raw:             msg,
	}, true
}

// User implements bot.Directory.
func (t *Transport) User(ctx context.Context, id string) (*bot.User, error) {
	u, err := t.api.GetUserInfoContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("slack: user %s: %w", id, err)
	}
	return &bot.User{ID: u.ID, Name: u.Name, RealName: u.RealName, IsBot: u.IsBot}, nil
}

// Team implements bot.Directory. A bot token only sees its own workspace, so
// id is not sent to Slack.
func (t *Transport) Team(ctx context.Context, id string) (*bot.Team, error) {
	info, err := t.api.GetTeamInfoContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("slack: team %s: %w", id, err)
	}
	return &bot.Team{ID: info.ID, Name: info.Name, Domain: info.Domain}, nil
}

// Channel implements bot.Directory.
func (t *Transport) Channel(ctx context.Context, id string) (*bot.Channel, error) {
	ch, err := t.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: id})
	if err != nil {
		return nil, fmt.Errorf("slack: channel %s: %w", id, err)
	}
	return &bot.Channel{ID: ch.ID, Name: ch.Name, Kind: channelKind(ch)}, nil
}

func channelKind(ch *slack.Channel) bot.ChannelKind {
	switch {
	case ch.IsIM:
		return bot.ChannelIM
	case ch.IsMpIM, ch.IsGroup, ch.IsPrivate:
		return bot.ChannelGroup
	default:
		return bot.ChannelPublic
	}
}

type rateLimited struct{ err *slack.RateLimitedError }

func (r rateLimited) Error() string             { return r.err.Error() }
func (r rateLimited) Unwrap() error             { return r.err }
func (r rateLimited) RetryAfter() time.Duration { return r.err.RetryAfter }

type statusError struct{ err slack.StatusCodeError }

func (s statusError) Error() string   { return s.err.Error() }
func (s statusError) Unwrap() error   { return s.err }
func (s statusError) StatusCode() int { return s.err.Code }

// classify exposes Slack's error types to retrylimit.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var rl *slack.RateLimitedError
	if errors.As(err, &rl) {
		return rateLimited{rl}
	}
	var sc slack.StatusCodeError
	if errors.As(err, &sc) {
		return statusError{sc}
	}
	return err
}
