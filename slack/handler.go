// Package gbmcslack exposes the pricers as Slack slash commands over socket mode.
package gbmcslack

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

// Settings are the simulation defaults for values a command does not take as arguments.
type Settings struct {
	Steps      int
	Paths      int
	MaxPaths   int
	Workers    int
	PathCounts []int
}

// Poster is the part of the Slack client the command handlers use.
type Poster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

type Handler struct {
	helpHandler     *HelpHandler
	priceHandler    *PriceHandler
	convergeHandler *ConvergeHandler
}

func NewHandler(settings Settings) *Handler {
	return &Handler{
		helpHandler:     NewHelpHandler(),
		priceHandler:    NewPriceHandler(settings),
		convergeHandler: NewConvergeHandler(settings),
	}
}

func (h *Handler) Handle(ctx context.Context, evt *socketmode.Event, client *socketmode.Client) error {
	data, ok := evt.Data.(slack.SlashCommand)
	if !ok {
		return fmt.Errorf("unexpected slash command payload %T", evt.Data)
	}
	client.Ack(*evt.Request)
	return h.Dispatch(ctx, data.Command, data.Text, data.ChannelID, client)
}

// Dispatch runs one slash command and posts its reply to channelID.
func (h *Handler) Dispatch(ctx context.Context, command, text, channelID string, poster Poster) error {
	switch command {
	case "/help":
		return h.helpHandler.HandleCommand(channelID, poster)
	case "/mcprice":
		return post(poster, channelID, h.priceHandler.MonteCarlo(text))
	case "/bsprice":
		return post(poster, channelID, h.priceHandler.BlackScholes(text))
	case "/converge":
		return h.convergeHandler.HandleCommand(ctx, text, channelID, poster)
	}
	return post(poster, channelID, fmt.Sprintf("Unknown command %s. Try /help.", command))
}

func post(poster Poster, channelID, text string, opts ...slack.MsgOption) error {
	opts = append([]slack.MsgOption{slack.MsgOptionText(text, false)}, opts...)
	_, _, err := poster.PostMessage(channelID, opts...)
	return err
}
