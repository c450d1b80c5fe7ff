// Package console is a line-oriented transport for trying commands locally.
// Every input line is one message from a single user in a single channel.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/keshon/headroom/internal/bot"
)

const (
	TeamID    = "console"
	ChannelID = "console"
	BotUserID = "bot"
)

type Options struct {
	// BotName is shown as the sender of replies.
	BotName string
	// User is the id and name of whoever types the input.
	User string
}

// Transport implements bot.Poster, bot.Listener and bot.Directory.
type Transport struct {
	in   io.Reader
	out  io.Writer
	opts Options
	mu   sync.Mutex
}

func New(in io.Reader, out io.Writer, opts Options) *Transport {
	if opts.BotName == "" {
		opts.BotName = "bot"
	}
	if opts.User == "" {
		opts.User = "you"
	}
	return &Transport{in: in, out: out, opts: opts}
}

// PostMessage implements bot.Poster.
func (t *Transport) PostMessage(ctx context.Context, msg bot.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	name := t.opts.BotName
	if msg.Username != "" {
		name = msg.Username
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", name, msg.Text)
	for _, a := range msg.Attachments {
		if a.Title != "" {
			fmt.Fprintf(&sb, "  | %s\n", a.Title)
		}
		if a.Text != "" {
			fmt.Fprintf(&sb, "  | %s\n", a.Text)
		}
		for _, f := range a.Fields {
			fmt.Fprintf(&sb, "  | %s: %s\n", f.Title, f.Value)
		}
	}
	_, err := io.WriteString(t.out, sb.String())
	return err
}

// Listen implements bot.Listener. It returns nil once the input is exhausted.
func (t *Transport) Listen(ctx context.Context, sink bot.Sink) error {
	sink.Connected(ctx, bot.Identity{UserID: BotUserID, Name: t.opts.BotName, TeamID: TeamID})

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(t.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	n := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			n++
			sink.HandleMessage(ctx, bot.Event{
				TeamID:    TeamID,
				UserID:    t.opts.User,
				ChannelID: ChannelID,
				Text:      line,
				Timestamp: strconv.FormatInt(time.Now().Unix(), 10) + "." + strconv.Itoa(n),
			})
		}
	}
}

// User implements bot.Directory.
func (t *Transport) User(ctx context.Context, id string) (*bot.User, error) {
	if id == BotUserID {
		return &bot.User{ID: id, Name: t.opts.BotName, IsBot: true}, nil
	}
	return &bot.User{ID: id, Name: id}, nil
}

// Team implements bot.Directory.
func (t *Transport) Team(ctx context.Context, id string) (*bot.Team, error) {
	return &bot.Team{ID: id, Name: id}, nil
}

// Channel implements bot.Directory. The console is a direct conversation.
func (t *Transport) Channel(ctx context.Context, id string) (*bot.Channel, error) {
	return &bot.Channel{ID: id, Name: id, Kind: bot.ChannelIM}, nil
}
