package gbmcslack

import (
	"context"
	"log"
	"log/slog"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

type SlackBot struct {
	client       *slack.Client
	socketClient *socketmode.Client
	eventHandler *Handler
}

func NewSlackBot(appToken, botToken string, debug bool, settings Settings) *SlackBot {
	client := slack.New(
		botToken,
		slack.OptionAppLevelToken(appToken),
	)

	socketClient := socketmode.New(
		client,
		socketmode.OptionDebug(debug),
		socketmode.OptionLog(log.New(log.Writer(), "socketmode: ", log.Lshortfile|log.LstdFlags)),
	)

	return &SlackBot{
		client:       client,
		socketClient: socketClient,
		eventHandler: NewHandler(settings),
	}
}

// Start dispatches slash commands until ctx is cancelled or the socket connection fails.
func (sb *SlackBot) Start(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-sb.socketClient.Events:
				if !ok {
					return
				}
				switch evt.Type {
				case socketmode.EventTypeSlashCommand:
					if err := sb.eventHandler.Handle(ctx, &evt, sb.socketClient); err != nil {
						slog.Error("slack command failed", "error", err)
					}
				}
			}
		}
	}()

	return sb.socketClient.RunContext(ctx)
}
