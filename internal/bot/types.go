package bot

import "context"

// Event is one inbound chat message.
type Event struct {
	TeamID          string
	UserID          string
	ChannelID       string
	Text            string
	Timestamp       string
	ThreadTimestamp string
	Raw             any
}

// Message is an outbound chat message. Only Channel is defaulted by Context.Say;
// every other field is passed to the transport as is.
type Message struct {
	Text           string
	Channel        string
	Parse          string
	LinkNames      bool
	Attachments    []Attachment
	UnfurlLinks    *bool
	UnfurlMedia    *bool
	Username       string
	AsUser         bool
	IconURL        string
	ThreadTS       string
	ReplyBroadcast bool
}

// Attachment is a structured block of a message.
type Attachment struct {
	Fallback  string
	Color     string
	Pretext   string
	Title     string
	TitleLink string
	Text      string
	ImageURL  string
	Footer    string
	Fields    []AttachmentField
}

type AttachmentField struct {
	Title string
	Value string
	Short bool
}

// Identity describes the connected bot account.
type Identity struct {
	UserID string
	Name   string
	TeamID string
}

// Poster sends outbound messages.
type Poster interface {
	PostMessage(ctx context.Context, msg Message) error
}

// Sink receives realtime events from a Listener.
type Sink interface {
	Connected(ctx context.Context, id Identity)
	HandleMessage(ctx context.Context, ev Event)
}

// Listener maintains the realtime connection. Listen blocks until ctx is done
// or the connection fails, delivering events to sink one at a time.
type Listener interface {
	Listen(ctx context.Context, sink Sink) error
}

type ChannelKind int

const (
	ChannelPublic ChannelKind = iota
	ChannelGroup
	ChannelIM
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelGroup:
		return "group"
	case ChannelIM:
		return "im"
	default:
		return "channel"
	}
}

type User struct {
	ID       string
	Name     string
	RealName string
	IsBot    bool
}

type Team struct {
	ID     string
	Name   string
	Domain string
}

type Channel struct {
	ID   string
	Name string
	Kind ChannelKind
}

// Directory resolves ids from events into users, teams and channels.
type Directory interface {
	User(ctx context.Context, id string) (*User, error)
	Team(ctx context.Context, id string) (*Team, error)
	Channel(ctx context.Context, id string) (*Channel, error)
}
