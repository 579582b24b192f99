package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/calvinwijaya/blackjack-table/internal/game"
	"github.com/pterm/pterm"
)

func main() {
	var (
		cfg      simConfig
		strategy string
		shuffle  string
	)
	flag.IntVar(&cfg.Rounds, "rounds", 1000, "Rounds to play")
	flag.StringVar(&strategy, "strategy", string(game.StrategyFlat), "Betting strategy")
	flag.IntVar(&cfg.BaseUnit, "unit", 10, "Base betting unit")
	flag.IntVar(&cfg.MinBet, "min-bet", 10, "Table minimum")
	flag.IntVar(&cfg.MaxBet, "max-bet", 1000, "Table maximum")
	flag.IntVar(&cfg.Balance, "balance", 1000, "Starting bankroll")
	flag.IntVar(&cfg.Decks, "decks", 6, "Decks per shoe")
	flag.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "Shuffle seed")
	flag.StringVar(&shuffle, "shuffle", string(game.FisherYates), "Shuffle kind: fisher-yates, riffle, overhand, strip")
	flag.BoolVar(&cfg.HitSoft17, "hit-soft-17", false, "Dealer hits soft 17")
	flag.IntVar(&cfg.SideBet, "perfect-pairs", 0, "Perfect Pairs side bet per round, 0 for none")
	flag.Parse()

	cfg.Strategy = game.StrategyKind(strategy)
	cfg.Shuffle = game.ShuffleKind(shuffle)

	pterm.DefaultHeader.WithFullWidth().Println("Blackjack Strategy Simulator")
	pterm.Info.Printfln("%s betting, unit %d, %d decks, seed %d", cfg.Strategy, cfg.BaseUnit, cfg.Decks, cfg.Seed)

	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Playing %d rounds ...", cfg.Rounds))
	rep, err := simulate(cfg)
	if err != nil {
		spinner.Fail(err.Error())
		os.Exit(1)
	}
	spinner.Success(fmt.Sprintf("Played %d rounds", rep.Rounds))

	if rep.Broke {
		pterm.Warning.Printfln("Bankroll fell below the table minimum after %d rounds", rep.Rounds)
	}

	printSummary(rep)
	printOutcomes(rep)
}

func printSummary(rep report) {
	pterm.DefaultSection.Println("Summary")

	net := pterm.LightGreen(fmt.Sprintf("%+d", rep.Net()))
	if rep.Net() < 0 {
		net = pterm.LightRed(fmt.Sprintf("%+d", rep.Net()))
	}

	data := pterm.TableData{
		{"Metric", "Value"},
		{"Rounds", fmt.Sprint(rep.Rounds)},
		{"Starting balance", fmt.Sprint(rep.StartBalance)},
		{"Final balance", fmt.Sprint(rep.EndBalance)},
		{"Net", net},
		{"Peak / trough", fmt.Sprintf("%d / %d", rep.Peak, rep.Trough)},
		{"Total wagered", fmt.Sprint(rep.Wagered)},
		{"Largest bet", fmt.Sprint(rep.LargestBet)},
		{"Reshuffles", fmt.Sprint(rep.Reshuffles)},
		{"Voided rounds", fmt.Sprint(rep.Voided)},
	}
	if rep.SideBets > 0 {
		data = append(data,
			[]string{"Perfect Pairs won", fmt.Sprintf("%d of %d", rep.SideBetsWon, rep.SideBets)},
			[]string{"Perfect Pairs paid", fmt.Sprint(rep.SideBetPaid)},
		)
	}

	pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

func printOutcomes(rep report) {
	pterm.DefaultSection.Println("Outcomes")

	outcomes := make([]game.Outcome, 0, len(rep.Outcomes))
	for o := range rep.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool { return rep.Outcomes[outcomes[i]] > rep.Outcomes[outcomes[j]] })

	bars := make(pterm.Bars, 0, len(outcomes))
	for _, o := range outcomes {
		bars = append(bars, pterm.Bar{Label: string(o), Value: rep.Outcomes[o]})
	}
	if len(bars) == 0 {
		pterm.Info.Println("No rounds were played")
		return
	}

	pterm.DefaultBarChart.WithHorizontal().WithBars(bars).WithShowValue().Render()
}
