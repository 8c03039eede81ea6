package gbmcslack

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bcdannyboy/gbmc/analysis"
	"github.com/bcdannyboy/gbmc/models"
	"github.com/bcdannyboy/gbmc/report"
	"github.com/slack-go/slack"
)

type ConvergeHandler struct {
	settings Settings
}

func NewConvergeHandler(settings Settings) *ConvergeHandler {
	return &ConvergeHandler{settings: settings}
}

// HandleCommand acknowledges in channelID, then runs the sweep in the background and posts the
// table as a thread reply.
func (h *ConvergeHandler) HandleCommand(ctx context.Context, text, channelID string, poster Poster) error {
	a, err := parseArgs(text, "seed")
	if err != nil {
		return post(poster, channelID, usage(err, convergeUsage))
	}
	params, contract, err := buildParams(h.settings, a)
	if err != nil {
		return post(poster, channelID, usage(err, convergeUsage))
	}

	_, ts, err := poster.PostMessage(channelID,
		slack.MsgOptionText(fmt.Sprintf("Running convergence over %v paths...", h.settings.PathCounts), false))
	if err != nil {
		return err
	}

	go func() {
		reply := h.run(ctx, params, contract)
		if err := post(poster, channelID, reply, slack.MsgOptionTS(ts)); err != nil {
			slog.Error("posting convergence result", "error", err)
		}
	}()
	return nil
}

// Run parses text, runs the convergence sweep and returns the reply text.
func (h *ConvergeHandler) Run(ctx context.Context, text string) string {
	a, err := parseArgs(text, "seed")
	if err != nil {
		return usage(err, convergeUsage)
	}
	params, contract, err := buildParams(h.settings, a)
	if err != nil {
		return usage(err, convergeUsage)
	}
	return h.run(ctx, params, contract)
}

func (h *ConvergeHandler) run(ctx context.Context, params models.SimulationParameters, contract models.OptionContract) string {
	analyzer := analysis.NewConvergenceAnalyzer()
	analyzer.Workers = h.settings.Workers
	rep, err := analyzer.Run(ctx, params, contract, h.settings.PathCounts)
	if err != nil {
		return fmt.Sprintf("Convergence failed: %v", err)
	}
	return "```\n" + report.ConvergenceTable(rep) + "```"
}
