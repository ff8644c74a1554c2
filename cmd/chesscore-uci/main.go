// Command chesscore-uci runs the engine behind the UCI protocol on stdin and
// stdout. It can also check a perft suite or analyse the games of a PGN file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/epd"
	"github.com/hailam/chesscore/internal/gamefile"
	"github.com/hailam/chesscore/internal/logx"
	"github.com/hailam/chesscore/internal/reference"
	"github.com/hailam/chesscore/internal/storage"
	"github.com/hailam/chesscore/internal/uci"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "chesscore:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	var (
		overheadMS = flag.Int("overhead", int(cfg.MoveOverhead.Milliseconds()), "move overhead in milliseconds")
		cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
		perftSuite = flag.String("perftsuite", "", "verify the perft counts of an EPD file (.epd or .epd.zst) and exit")
		perftDepth = flag.Int("perft-depth", 0, "deepest perft to check, 0 for every depth in the file")
		analyze    = flag.String("analyze", "", "search the final position of every game in a PGN file and exit")
		depth      = flag.Int("depth", 10, "search depth for -analyze")
		refPath    = flag.String("reference", "", "UCI engine binary to cross-check -analyze results against")
	)
	flag.IntVar(&cfg.HashMB, "hash", cfg.HashMB, "transposition table size in MB")
	flag.IntVar(&cfg.Contempt, "contempt", cfg.Contempt, "draw score in centipawns for the side ahead")
	flag.BoolVar(&cfg.VerifyHash, "verify-hash", cfg.VerifyHash, "recompute position keys during search")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace, debug, info, warn or error")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory of the analysis database")
	flag.BoolVar(&cfg.StoreAnalyses, "store", cfg.StoreAnalyses, "keep finished analyses in the database")
	flag.Parse()
	cfg.MoveOverhead = time.Duration(*overheadMS) * time.Millisecond

	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := logx.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logx.New(os.Stderr, level)

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("cpu-profiling")
	}

	if *perftSuite != "" {
		return checkPerft(log, *perftSuite, *perftDepth)
	}

	opts := []engine.Option{
		engine.WithLogger(log.With().Str("component", "engine").Logger()),
		engine.WithHashSize(cfg.HashMB),
		engine.WithContempt(cfg.Contempt),
		engine.WithMoveOverhead(cfg.MoveOverhead),
		engine.WithVerifyHash(cfg.VerifyHash),
	}
	if cfg.StoreAnalyses {
		dir, err := storage.AnalysisDir(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("analysis directory: %w", err)
		}
		store, err := storage.Open(dir)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, engine.WithStore(store))
		log.Info().Str("dir", dir).Msg("analysis-store-open")
	}
	eng := engine.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *analyze != "" {
		var ref analyser
		if *refPath != "" {
			r, err := reference.Open(*refPath, cfg.HashMB)
			if err != nil {
				return err
			}
			defer r.Close()
			ref = r
		}
		return analyzeGames(ctx, log, eng, ref, *analyze, *depth)
	}
	return uci.New(eng, cfg, os.Stdin, os.Stdout, log).Run(ctx)
}

// checkPerft compares move generation against every perft count of an EPD
// suite up to maxDepth.
func checkPerft(log zerolog.Logger, path string, maxDepth int) error {
	r, err := epd.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	failures := 0
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		pos, err := board.FromFEN(rec.FEN)
		if err != nil {
			return fmt.Errorf("line %d: %w", rec.Line, err)
		}
		last := rec.MaxPerftDepth()
		if maxDepth > 0 {
			last = min(last, maxDepth)
		}
		for d := 1; d <= last; d++ {
			want, ok := rec.Perft(d)
			if !ok {
				continue
			}
			start := time.Now()
			got := pos.Perft(d)
			ev := log.Info()
			if got != want {
				failures++
				ev = log.Error()
			}
			ev.Int("line", rec.Line).
				Str("fen", rec.FEN).
				Int("depth", d).
				Uint64("want", want).
				Uint64("got", got).
				Dur("elapsed", time.Since(start)).
				Msg("perft")
		}
	}
	if failures > 0 {
		return fmt.Errorf("perft: %d mismatches", failures)
	}
	return nil
}

// analyser is the part of a reference engine used for cross checks.
type analyser interface {
	Analyse(fen string, depth int) (reference.Score, error)
}

// crossCheck asks ref for its verdict on fen and reports whether it agrees
// with res on the best move.
func crossCheck(ref analyser, fen string, depth int, res engine.Result) (reference.Score, bool, error) {
	score, err := ref.Analyse(fen, depth)
	if err != nil {
		return score, false, err
	}
	return score, score.BestMove == res.BestMove.String(), nil
}

// analyzeGames searches the final position of each game in a PGN file. With
// a reference engine the same position is analysed by both.
func analyzeGames(ctx context.Context, log zerolog.Logger, eng *engine.Engine, ref analyser, path string, depth int) error {
	agreed, compared := 0, 0
	err := gamefile.Replay(path, func(g *gamefile.Game) error {
		if ctx.Err() != nil {
			return gamefile.ErrStop
		}
		fen := g.Position.ToFEN()
		if err := eng.StartSearch(ctx, g.Position, engine.Budget{Depth: depth}); err != nil {
			return err
		}
		eng.WaitWhileSearching()
		res := eng.Result()
		if res.Err != nil {
			return res.Err
		}
		ev := log.Info().
			Int("game", g.Index).
			Str("white", g.Tags["White"]).
			Str("black", g.Tags["Black"]).
			Str("result", g.Result()).
			Int("plies", len(g.Moves)).
			Str("best", res.BestMove.String()).
			Str("score", engine.FormatScore(res.Score)).
			Int("depth", res.Depth)
		if ref != nil && res.BestMove != board.NoMove {
			score, agree, err := crossCheck(ref, fen, depth, res)
			if err != nil {
				return err
			}
			compared++
			if agree {
				agreed++
			}
			ev = ev.Str("ref_best", score.BestMove).
				Int("ref_score", score.Value).
				Bool("ref_mate", score.Mate).
				Bool("agree", agree)
		}
		ev.Msg("game-analysed")
		return nil
	})
	if compared > 0 {
		log.Info().Int("compared", compared).Int("agreed", agreed).Msg("reference-summary")
	}
	return err
}
