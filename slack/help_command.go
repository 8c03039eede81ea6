package gbmcslack

type HelpHandler struct{}

func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

const helpText = "Available commands:\n" +
	"/help - Show this help message\n" +
	mcpriceUsage + " - Monte Carlo call price\n" +
	bspriceUsage + " - Black-Scholes call price and greeks\n" +
	convergeUsage + " - Monte Carlo convergence against Black-Scholes"

func (h *HelpHandler) HandleCommand(channelID string, poster Poster) error {
	return post(poster, channelID, helpText)
}
