package main

import (
	"strings"

	"towerdefense/internal/app"
	"towerdefense/internal/domain"

	"github.com/pterm/pterm"
)

func formatCards(cards []domain.Card) string {
	if len(cards) == 0 {
		return "-"
	}
	names := make([]string, 0, len(cards))
	for _, c := range cards {
		names = append(names, string(c.Power)+" of "+string(c.Type))
	}
	return strings.Join(names, " - ")
}

func handPanel(title string, cards []domain.Card, power uint8, hidden bool) pterm.Panel {
	pbox := pterm.DefaultBox.WithLeftPadding(4).WithRightPadding(4).WithTopPadding(1).WithBottomPadding(1)
	body := pterm.BgGreen.Sprint(formatCards(cards))
	if hidden {
		body += pterm.Gray(" - [hidden]")
	}
	return pterm.Panel{Data: pbox.WithTitle(title).WithTitleTopLeft().Sprintf("%s\nPower: %d\n", body, power)}
}

// printState renders both hands and the treasury.
func printState(view app.PlayerView) {
	hidden := view.Phase == domain.PhaseBattleInProgress
	player := handPanel(pterm.LightCyan("|YOUR FORCES|"), view.PlayerCards, view.PlayerPower, false)
	boss := handPanel(pterm.LightRed("|BOSS|"), view.OpponentCards, view.OpponentPower, hidden)

	pbox := pterm.DefaultBox.WithLeftPadding(4).WithRightPadding(4).WithTopPadding(1).WithBottomPadding(1)
	treasury := pterm.Panel{Data: pbox.WithTitle(pterm.LightYellow("|TREASURY|")).WithTitleTopCenter().Sprintf(
		"Gold: %d\nWager: %d\nPhase: %s\nDeck: %d\n",
		view.GoldBalance, view.CurrentWager, view.Phase, view.DeckRemaining,
	)}

	_ = pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		{boss},
		{player, treasury},
	}).Render()
}

func printEvents(events []app.Event) {
	for _, ev := range events {
		switch p := ev.Payload.(type) {
		case app.CardDrawnPayload:
			pterm.Info.Printfln("Reinforcement: %s (power %d)", formatCards([]domain.Card{p.Card}), p.PlayerPower)
		case app.HiddenRevealedPayload:
			pterm.Info.Printfln("The boss reveals %s", formatCards([]domain.Card{p.Card}))
		case app.BossDrewPayload:
			pterm.Info.Printfln("The boss draws %s (power %d)", formatCards([]domain.Card{p.Card}), p.OpponentPower)
		case app.RoundResolvedPayload:
			printOutcome(p)
		case app.GoldGrantedPayload:
			pterm.Success.Printfln("Received %d gold, treasury now %d", p.Amount, p.Balance)
		}
	}
}

func printOutcome(p app.RoundResolvedPayload) {
	switch p.Record.Outcome {
	case domain.OutcomeCriticalVictory, domain.OutcomeVictory, domain.OutcomeEnemyRetreat:
		pterm.Success.Printfln("%s! Payout %d, treasury %d", p.Record.Outcome, p.Record.Payout, p.Balance)
	case domain.OutcomeStalemate:
		pterm.Info.Printfln("Stalemate, wager of %d returned", p.Record.Payout)
	default:
		pterm.Error.Printfln("%s. Treasury %d", p.Record.Outcome, p.Balance)
	}
}
