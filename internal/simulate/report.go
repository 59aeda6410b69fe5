package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/okian/duel/internal/adapters/repository"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/types"
	"github.com/okian/duel/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

func describe(out model.RoundOutcome) string { //nolint:gocritic // hugeParam
	switch out.Kind {
	case model.OutcomeWinner:
		return players(out.Players) + " won in " + seconds(out.Time)
	case model.OutcomeFault:
		return players(out.Players) + " pressed on a trap"
	case model.OutcomeFalseStart:
		return players(out.Players) + " false start"
	case model.OutcomeTie:
		return "tie"
	case model.OutcomeNoResponse:
		return "no response"
	default:
		return out.Kind.String()
	}
}

func players(ps []int) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = "P" + strconv.Itoa(p+1)
	}
	return strings.Join(names, ", ")
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64) + "s"
}

func scoreLine(scores []int) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, "-")
}

func writeRound(w io.Writer, match int, rep model.RoundReport, verbose bool) { //nolint:gocritic // hugeParam
	cue := "no cue"
	if rep.CueShown {
		cue = rep.Cue.String() + "/" + rep.CueColor
	}
	fmt.Fprintf(w, "match %d round %3d  %-14s %-28s scores %s\n",
		match, rep.Round, cue, describe(rep.Outcome), scoreLine(rep.Scores))
	if !verbose {
		return
	}
	for _, c := range rep.Captures {
		fmt.Fprintf(w, "    P%d +%s (%s)\n", c.Player+1, seconds(c.Elapsed), c.Source)
	}
}

func writeMatch(w io.Writer, match int, mr MatchResult) {
	switch {
	case mr.Abandoned:
		fmt.Fprintf(w, "match %d abandoned after %d rounds at %s\n\n", match, mr.Rounds, scoreLine(mr.Scores))
	case len(mr.Winners) == 1:
		fmt.Fprintf(w, "match %d won by P%d in %d rounds, %s\n\n", match, mr.Winners[0]+1, mr.Rounds, scoreLine(mr.Scores))
	default:
		fmt.Fprintf(w, "match %d drawn between %s in %d rounds, %s\n\n", match, players(mr.Winners), mr.Rounds, scoreLine(mr.Scores))
	}
}

func writeStandings(w io.Writer, rows []repository.Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "rank\tplayer\tmatches\tdrawn\trounds\tfaults\tfalse starts\tbest\t")
	for _, e := range rows {
		best := "-"
		if e.BestReaction > 0 {
			best = seconds(e.BestReaction)
		}
		fmt.Fprintf(tw, "%d\tP%d\t%d\t%d\t%d\t%d\t%d\t%s\t\n",
			e.Rank, e.Player+1, e.MatchesWon, e.MatchesDrawn, e.RoundsWon, e.Faults, e.FalseStarts, best)
	}
	_ = tw.Flush()
}

// saveReports writes the round history, oldest first, as a JSON array.
func saveReports(ctx context.Context, filename string, reports []model.RoundReport) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	rounds := make([]types.Round, len(reports))
	for i, r := range reports {
		rounds[len(reports)-1-i] = types.FromReport(r)
	}
	data, err := json.MarshalIndent(rounds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rounds: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "round history saved", logger.String("filename", filename), logger.Int("rounds", len(rounds)))
	return nil
}
