// Package conversation implements the per-user step machine that turns chat
// events into transaction records.
package conversation

// EventKind distinguishes the inputs the machine consumes.
type EventKind int

const (
	// EventText is a free-text message.
	EventText EventKind = iota
	// EventButton is a press on a previously offered choice.
	EventButton
	// EventCommand is a named entry command.
	EventCommand
)

func (k EventKind) String() string {
	switch k {
	case EventButton:
		return "button"
	case EventCommand:
		return "command"
	default:
		return "text"
	}
}

// Command names an entry trigger.
type Command string

const (
	CommandStart        Command = "start"
	CommandFastSale     Command = "fast_sale"
	CommandFastPurchase Command = "fast_purchase"
	CommandSearch       Command = "search"
	CommandReload       Command = "reload"
	CommandCancel       Command = "cancel"
	CommandHelp         Command = "help"
)

// Event is one inbound interaction tagged with the sender identity.
type Event struct {
	UserID  int64
	Kind    EventKind
	Text    string
	Token   string
	Command Command
}

// TextEvent builds a free-text event.
func TextEvent(userID int64, text string) Event {
	return Event{UserID: userID, Kind: EventText, Text: text}
}

// ButtonEvent builds a choice-press event.
func ButtonEvent(userID int64, token string) Event {
	return Event{UserID: userID, Kind: EventButton, Token: token}
}

// CommandEvent builds an entry-command event.
func CommandEvent(userID int64, cmd Command) Event {
	return Event{UserID: userID, Kind: EventCommand, Command: cmd}
}

// Choice is one tappable option. Token comes back in the ButtonEvent.
type Choice struct {
	Label string
	Token string
}

// Prompt is a message to send to a user, with optional rows of choices.
type Prompt struct {
	UserID  int64
	Text    string
	Choices [][]Choice
}
