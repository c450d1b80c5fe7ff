package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/pkg/cmd"
)

func TestPostMessage(t *testing.T) {
	var out bytes.Buffer
	tr := New(nil, &out, Options{BotName: "headroom"})
	err := tr.PostMessage(context.Background(), bot.Message{
		Text:        "hello",
		Attachments: []bot.Attachment{{Title: "Title", Fields: []bot.AttachmentField{{Title: "k", Value: "v"}}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "headroom: hello\n  | Title\n  | k: v\n"
	if out.String() != want {
		t.Errorf("out = %q, want %q", out.String(), want)
	}
}

type recordingSink struct {
	connected bot.Identity
	events    []bot.Event
}

func (r *recordingSink) Connected(ctx context.Context, id bot.Identity) { r.connected = id }
func (r *recordingSink) HandleMessage(ctx context.Context, ev bot.Event) {
	r.events = append(r.events, ev)
}

func TestListenUntilEOF(t *testing.T) {
	tr := New(strings.NewReader("ping\n\n  echo hi  \n"), &bytes.Buffer{}, Options{User: "ada"})
	sink := &recordingSink{}
	if err := tr.Listen(context.Background(), sink); err != nil {
		t.Fatal(err)
	}
	if sink.connected.TeamID != TeamID {
		t.Errorf("identity = %+v", sink.connected)
	}
	if len(sink.events) != 2 {
		t.Fatalf("events = %+v", sink.events)
	}
	if ev := sink.events[1]; ev.Text != "echo hi" || ev.UserID != "ada" || ev.ChannelID != ChannelID || ev.TeamID != TeamID {
		t.Errorf("event = %+v", ev)
	}
}

func TestSessionOverConsole(t *testing.T) {
	var out bytes.Buffer
	tr := New(strings.NewReader("help\necho hi\nnothing here\n"), &out, Options{BotName: "headroom"})
	echo := bot.MustCommand("echo", "echo :word", "Repeats a word.",
		bot.HandlerFunc(func(ctx context.Context, c *bot.Context) error {
			return c.Reply(ctx, c.Param("word"))
		}))

	s, err := bot.New(bot.Options{Name: "headroom", Logger: zerolog.Nop(), Poster: tr, Listener: tr, Commands: []cmd.Command{echo}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := "headroom: Here's a list of available commands:\n\n" +
		"`help`: Returns instructions about what commands are available.\n" +
		"`echo :word`: Repeats a word.\n" +
		"headroom: hi\n"
	if out.String() != want {
		t.Errorf("out =\n%s\nwant\n%s", out.String(), want)
	}

	ch, err := s.Directory().Channel(context.Background(), ChannelID)
	if err != nil || ch.Kind != bot.ChannelIM {
		t.Errorf("Channel = %+v, %v", ch, err)
	}
}
