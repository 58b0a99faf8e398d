package automatic

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/stats"
)

const GameLogHeader = "gameID,black,white,layout,turnLimit,timeLimitMs,round,winner,blackMarbles,whiteMarbles,turns,depths\n"

// GameLogPath turns games.csv into games.games.csv.
func GameLogPath(movePath string) string {
	ext := filepath.Ext(movePath)
	return strings.TrimSuffix(movePath, ext) + ".games" + ext
}

// CSV renders the result as one game log line.
func (r GameResult) CSV() string {
	depths := lo.Map(r.Depths, func(d int, _ int) string { return strconv.Itoa(d) })
	winner := "draw"
	if r.Winner != board.Empty {
		winner = r.Winner.String()
	}
	return strings.Join([]string{
		r.ID,
		r.Pairing.Black,
		r.Pairing.White,
		r.Pairing.Layout.Name,
		strconv.Itoa(r.Pairing.TurnLimit),
		strconv.FormatInt(r.Pairing.TimeLimit.Milliseconds(), 10),
		strconv.Itoa(r.Round),
		winner,
		strconv.Itoa(r.BlackMarbles),
		strconv.Itoa(r.WhiteMarbles),
		strconv.Itoa(r.Turns),
		strings.Join(depths, " "),
	}, ",") + "\n"
}

// ParseGameLog reads lines written by the tournament's game log.
func ParseGameLog(rd io.Reader) ([]GameResult, error) {
	r := csv.NewReader(rd)
	r.FieldsPerRecord = 12
	var results []GameResult
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if record[0] == "gameID" {
			continue
		}
		res, err := parseGameRecord(record)
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", record[0], err)
		}
		results = append(results, res)
	}
	return results, nil
}

func parseGameRecord(record []string) (GameResult, error) {
	ints := make([]int, 0, 6)
	for _, idx := range []int{4, 5, 6, 8, 9, 10} {
		v, err := strconv.Atoi(record[idx])
		if err != nil {
			return GameResult{}, err
		}
		ints = append(ints, v)
	}
	layout, err := board.LayoutByName(record[3])
	if err != nil {
		return GameResult{}, err
	}
	var winner board.Player
	switch record[7] {
	case "black":
		winner = board.Black
	case "white":
		winner = board.White
	case "draw":
		winner = board.Empty
	default:
		return GameResult{}, fmt.Errorf("bad winner %q", record[7])
	}
	var depths []int
	for _, f := range strings.Fields(record[11]) {
		d, err := strconv.Atoi(f)
		if err != nil {
			return GameResult{}, err
		}
		depths = append(depths, d)
	}
	return GameResult{
		ID: record[0],
		Pairing: Pairing{
			Black:     record[1],
			White:     record[2],
			Layout:    layout,
			TurnLimit: ints[0],
			TimeLimit: time.Duration(ints[1]) * time.Millisecond,
		},
		Round:        ints[2],
		Winner:       winner,
		BlackMarbles: ints[3],
		WhiteMarbles: ints[4],
		Turns:        ints[5],
		Depths:       depths,
	}, nil
}

type HeuristicRecord struct {
	Name   string
	Games  int
	Wins   int
	Draws  int
	Rate   float64
	Margin float64
}

type Summary struct {
	Games      int
	Confidence float64
	// BlackWins counts games won by whoever moved first.
	BlackWins int
	Draws     int
	Records   []*HeuristicRecord
	depths    []float64
}

// Summarize tallies results per heuristic, sorted by score rate.
func Summarize(results []GameResult, confidence float64) *Summary {
	s := &Summary{Games: len(results), Confidence: confidence}
	records := map[string]*HeuristicRecord{}
	rec := func(name string) *HeuristicRecord {
		if r, ok := records[name]; ok {
			return r
		}
		r := &HeuristicRecord{Name: name}
		records[name] = r
		return r
	}
	byWinner := lo.GroupBy(results, func(r GameResult) string { return r.WinnerName() })
	s.Draws = len(byWinner["draw"])
	s.BlackWins = lo.CountBy(results, func(r GameResult) bool { return r.Winner == board.Black })

	for _, r := range results {
		black, white := rec(r.Pairing.Black), rec(r.Pairing.White)
		black.Games++
		white.Games++
		if r.Winner == board.Empty {
			black.Draws++
			white.Draws++
		}
		for _, d := range r.Depths {
			s.depths = append(s.depths, float64(d))
		}
	}
	for name, games := range byWinner {
		if name == "draw" {
			continue
		}
		rec(name).Wins = len(games)
	}
	for _, r := range records {
		r.Rate, r.Margin = stats.WinRate(float64(r.Wins), float64(r.Draws), r.Games, confidence)
		s.Records = append(s.Records, r)
	}
	sort.Slice(s.Records, func(i, j int) bool {
		if s.Records[i].Rate != s.Records[j].Rate {
			return s.Records[i].Rate > s.Records[j].Rate
		}
		return s.Records[i].Name < s.Records[j].Name
	})
	return s
}

func (s *Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Games played: %d\n", s.Games)
	if s.Games > 0 {
		fmt.Fprintf(&sb, "First player wins: %d (%.3f%%)\n", s.BlackWins,
			100*float64(s.BlackWins)/float64(s.Games))
		fmt.Fprintf(&sb, "Draws: %d (%.3f%%)\n", s.Draws, 100*float64(s.Draws)/float64(s.Games))
	}
	for _, r := range s.Records {
		fmt.Fprintf(&sb, "%-20s games %4d  wins %4d  draws %4d  score %.3f ± %.3f (%.0f%%)\n",
			r.Name, r.Games, r.Wins, r.Draws, r.Rate, r.Margin, s.Confidence)
	}
	if len(s.depths) > 0 {
		var depth stats.Statistic
		for _, d := range s.depths {
			depth.Push(d)
		}
		fmt.Fprintf(&sb, "Search depth: mean %.2f  stdev %.2f  over %d moves\n",
			depth.Mean(), depth.Stdev(), depth.Iterations())
		bins := int(lo.Max(s.depths)-lo.Min(s.depths)) + 1
		hist := histogram.Hist(bins, s.depths)
		if err := histogram.Fprint(&sb, hist, histogram.Linear(40)); err != nil {
			fmt.Fprintf(&sb, "histogram: %v\n", err)
		}
	}
	return sb.String()
}

// AnalyzeLogFile summarizes a tournament game log.
func AnalyzeLogFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	results, err := ParseGameLog(file)
	if err != nil {
		return "", err
	}
	return Summarize(results, 95).String(), nil
}
