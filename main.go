package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bcdannyboy/gbmc/analysis"
	"github.com/bcdannyboy/gbmc/api"
	"github.com/bcdannyboy/gbmc/blackscholes"
	"github.com/bcdannyboy/gbmc/config"
	"github.com/bcdannyboy/gbmc/logger"
	"github.com/bcdannyboy/gbmc/models"
	"github.com/bcdannyboy/gbmc/probability"
	"github.com/bcdannyboy/gbmc/report"
	gbmcslack "github.com/bcdannyboy/gbmc/slack"
	"github.com/bcdannyboy/gbmc/tradier"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

const usageText = `usage: gbmc [-config file] <command> [flags]

commands:
  price        Monte Carlo and Black-Scholes price of the configured call
  paths        simulate paths and write a snapshot
  converge     Monte Carlo convergence against Black-Scholes
  sensitivity  price surface over volatility and strike
  validate     compare simulated paths with a ticker's history
  serve        start the HTTP API
  slack        start the Slack bot
`

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default $GBMC_CONFIG or ./config.yaml)")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usageText) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	commands := map[string]func(context.Context, *config.Config, []string) error{
		"price":       runPrice,
		"paths":       runPaths,
		"converge":    runConverge,
		"sensitivity": runSensitivity,
		"validate":    runValidate,
		"serve":       runServe,
		"slack":       runSlack,
	}
	run, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err := run(ctx, cfg, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

// simulationFlags registers overrides for the simulation and contract sections on fs.
func simulationFlags(fs *flag.FlagSet, cfg *config.Config) func() error {
	s := &cfg.Simulation
	fs.Float64Var(&s.InitialPrice, "s0", s.InitialPrice, "initial price")
	fs.Float64Var(&s.Volatility, "vol", s.Volatility, "annualized volatility")
	fs.Float64Var(&s.RiskFreeRate, "rate", s.RiskFreeRate, "risk-free rate")
	fs.Float64Var(&s.HorizonYears, "horizon", s.HorizonYears, "simulated horizon in years")
	fs.IntVar(&s.Steps, "steps", s.Steps, "time steps per path")
	fs.IntVar(&s.Paths, "paths", s.Paths, "number of paths")
	fs.Float64Var(&cfg.Contract.Strike, "strike", cfg.Contract.Strike, "strike price")
	fs.Float64Var(&cfg.Contract.MaturityYears, "maturity", cfg.Contract.MaturityYears, "maturity in years")
	seed := fs.Int64("seed", -1, "random seed (negative draws one from entropy)")
	return func() error {
		if *seed >= 0 {
			v := uint64(*seed)
			s.Seed = &v
		}
		return nil
	}
}

func runPrice(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("price", flag.ContinueOnError)
	apply := simulationFlags(fs, cfg)
	confidence := fs.Float64("confidence", 0.95, "confidence level for VaR of buying at the Black-Scholes price")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := apply(); err != nil {
		return err
	}
	params, err := cfg.SimulationParameters()
	if err != nil {
		return err
	}
	contract, err := cfg.OptionContract()
	if err != nil {
		return err
	}

	bs, err := blackscholes.Price(params, contract)
	if err != nil {
		return err
	}
	paths, err := models.GeneratePaths(params.WithHorizon(contract.MaturityYears))
	if err != nil {
		return err
	}
	mc, err := probability.PriceEuropeanCall(paths, contract, params.RiskFreeRate)
	if err != nil {
		return err
	}
	greeks, err := blackscholes.CallGreeks(params.InitialPrice, contract.Strike, contract.MaturityYears, params.RiskFreeRate, params.Volatility)
	if err != nil {
		return err
	}
	risk, err := probability.PayoffRisk(paths, contract, bs.Value, params.RiskFreeRate, *confidence)
	if err != nil {
		return err
	}

	fmt.Println(report.EstimateLine(mc))
	fmt.Println(report.EstimateLine(bs))
	fmt.Printf("difference %s\n", report.FormatPrice(mc.Value-bs.Value, 4))
	fmt.Printf("VaR(%s) %s, expected shortfall %s, P(profit) %s\n",
		report.FormatPrice(risk.Confidence, 2),
		report.FormatPrice(risk.VaR, 4),
		report.FormatPrice(risk.ExpectedShortfall, 4),
		report.FormatPrice(risk.ProbabilityOfProfit, 4))

	f, err := report.WriteJSON(cfg.OutputDir, "price", map[string]interface{}{
		"parameters":    params,
		"contract":      contract,
		"monte_carlo":   mc,
		"black_scholes": bs,
		"greeks":        greeks,
		"risk":          risk,
	})
	if err != nil {
		return err
	}
	slog.Info("wrote price report", "file", f)
	return nil
}

func runPaths(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("paths", flag.ContinueOnError)
	apply := simulationFlags(fs, cfg)
	keep := fs.Int("keep", 100, "paths to include in the snapshot (0 keeps all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := apply(); err != nil {
		return err
	}
	params, err := cfg.SimulationParameters()
	if err != nil {
		return err
	}
	paths, err := models.GeneratePaths(params)
	if err != nil {
		return err
	}
	f, err := report.WriteJSON(cfg.OutputDir, "paths", report.PathSnapshot(paths, *keep))
	if err != nil {
		return err
	}
	slog.Info("wrote path snapshot", "file", f, "paths", paths.PathCount(), "steps", paths.StepCount())
	return nil
}

func runConverge(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("converge", flag.ContinueOnError)
	apply := simulationFlags(fs, cfg)
	fs.StringVar(&cfg.Convergence.SeedPolicy, "seed-policy", cfg.Convergence.SeedPolicy, "shared or derived")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := apply(); err != nil {
		return err
	}
	params, err := cfg.SimulationParameters()
	if err != nil {
		return err
	}
	contract, err := cfg.OptionContract()
	if err != nil {
		return err
	}
	analyzer, err := cfg.ConvergenceAnalyzer()
	if err != nil {
		return err
	}

	rep, err := analyzer.Run(ctx, params.WithHorizon(contract.MaturityYears), contract, cfg.Convergence.PathCounts)
	if err != nil {
		return err
	}
	fmt.Print(report.ConvergenceTable(rep))

	f, err := report.WriteJSON(cfg.OutputDir, "convergence", rep)
	if err != nil {
		return err
	}
	slog.Info("wrote convergence report", "file", f)
	return nil
}

func runSensitivity(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sensitivity", flag.ContinueOnError)
	apply := simulationFlags(fs, cfg)
	sc := &cfg.Sensitivity
	fs.StringVar(&sc.Method, "method", sc.Method, "monte_carlo or black_scholes")
	fs.StringVar(&sc.SeedPolicy, "seed-policy", sc.SeedPolicy, "shared or derived")
	fs.IntVar(&sc.SeedsPerCell, "seeds", sc.SeedsPerCell, "seeds averaged per cell")
	fs.BoolVar(&sc.BestEffort, "best-effort", sc.BestEffort, "record failed cells instead of aborting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := apply(); err != nil {
		return err
	}
	params, err := cfg.SimulationParameters()
	if err != nil {
		return err
	}
	if sc.Paths > 0 {
		params = params.WithPathCount(sc.Paths)
	}
	volAxis, strikeAxis, err := cfg.Axes()
	if err != nil {
		return err
	}
	analyzer, err := cfg.SensitivityAnalyzer()
	if err != nil {
		return err
	}

	p := mpb.NewWithContext(ctx, mpb.WithWidth(64))
	bar := p.AddBar(int64(len(volAxis)*len(strikeAxis)),
		mpb.PrependDecorators(
			decor.Name("Cells"),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
		),
	)
	analyzer.Progress = bar.Increment

	grid, err := analyzer.Run(ctx, params, volAxis, strikeAxis, params.RiskFreeRate, cfg.Contract.MaturityYears)
	if err != nil {
		bar.Abort(false)
		p.Wait()
		return err
	}
	p.Wait()
	fmt.Print(report.GridTable(grid))

	f, err := report.WriteJSON(cfg.OutputDir, "sensitivity", grid)
	if err != nil {
		return err
	}
	slog.Info("wrote sensitivity grid", "file", f, "failures", len(grid.Failures))
	return nil
}

func runValidate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	apply := simulationFlags(fs, cfg)
	tc := &cfg.Tradier
	fs.StringVar(&tc.Ticker, "ticker", tc.Ticker, "ticker symbol")
	fs.StringVar(&tc.Period, "period", tc.Period, "history period (5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, max)")
	fs.StringVar(&tc.Interval, "interval", tc.Interval, "daily, weekly or monthly")
	lower := fs.Float64("lower", 0.05, "lower band quantile")
	upper := fs.Float64("upper", 0.95, "upper band quantile")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := apply(); err != nil {
		return err
	}
	if tc.Token == "" {
		return fmt.Errorf("TRADIER_KEY is not set")
	}

	client := tradier.NewClient(tc.Token)
	client.BaseURL = tc.BaseURL
	var source analysis.MarketData = client

	fetchCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	history, err := source.Fetch(fetchCtx, tc.Ticker, tc.Period, tc.Interval)
	if err != nil {
		return err
	}
	if len(history) < 2 {
		return fmt.Errorf("%w: %s has %d observations, need at least 2", models.ErrEmptyInput, tc.Ticker, len(history))
	}

	params, err := cfg.SimulationParameters()
	if err != nil {
		return err
	}
	observed, err := analysis.NormalizeCloses(history, params.InitialPrice)
	if err != nil {
		return err
	}
	paths, err := models.GeneratePaths(params.WithStepCount(len(observed) - 1))
	if err != nil {
		return err
	}
	cmp, err := analysis.CompareHistory(paths, observed, *lower, *upper)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d points, %s%% inside the [%s, %s] band, terminal percentile %s\n",
		tc.Ticker, cmp.Points,
		report.FormatPrice(100*cmp.InsideFraction, 1),
		report.FormatPrice(*lower, 2), report.FormatPrice(*upper, 2),
		report.FormatPrice(100*cmp.TerminalRank, 1))

	f, err := report.WriteJSON(cfg.OutputDir, "validation_"+tc.Ticker, cmp)
	if err != nil {
		return err
	}
	slog.Info("wrote validation report", "file", f)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	params, err := cfg.SimulationParameters()
	if err != nil {
		return err
	}
	contract, err := cfg.OptionContract()
	if err != nil {
		return err
	}

	srv := api.NewServer(params, contract, cfg.Workers)
	srv.MaxPaths = cfg.Server.MaxPaths
	srv.MaxSteps = cfg.Server.MaxSteps
	srv.MaxPoints = cfg.Server.MaxPoints
	srv.MaxSeedsPerCell = cfg.Server.MaxSeedsPerCell
	srv.SnapshotPaths = cfg.Server.SnapshotPaths
	srv.Logger = logger.Get()
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func runSlack(ctx context.Context, cfg *config.Config, args []string) error {
	if cfg.Slack.AppToken == "" || cfg.Slack.BotToken == "" {
		return fmt.Errorf("SLACK_APP_TOKEN and SLACK_BOT_TOKEN must be set")
	}
	bot := gbmcslack.NewSlackBot(cfg.Slack.AppToken, cfg.Slack.BotToken, cfg.Slack.Debug, gbmcslack.Settings{
		Steps:      cfg.Simulation.Steps,
		Paths:      cfg.Simulation.Paths,
		MaxPaths:   cfg.Server.MaxPaths,
		Workers:    cfg.Workers,
		PathCounts: cfg.Convergence.PathCounts,
	})
	slog.Info("slack bot starting")
	return bot.Start(ctx)
}
