package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"roachrace/communication"
	"roachrace/communication/client"
	"roachrace/communication/server"
	"roachrace/config"
	"roachrace/engine"
	"roachrace/experiments"
	"roachrace/meta"
	"roachrace/render"
	"roachrace/store"
	"roachrace/strategy"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	mode := flag.String("mode", "run", "One of run, serve, experiment, throughput, submit, replay")
	snapshotPath := flag.String("snapshot", "", "Snapshot file to race from")
	out := flag.String("out", "", "Where to write the finished snapshot (run) or the records (experiment, throughput)")
	envFile := flag.String("env", ".env", "Optional env file")
	races := flag.Int("races", 10, "Races per lineup (experiment) or per goroutine count (throughput)")
	lineups := flag.String("lineups", "default+my_strategy+jitter", `Lineups such as "default+jitter,my_strategy+default" (throughput takes exactly one)`)
	goroutines := flag.String("goroutines", "1,2,4,8", "Goroutine counts to sweep (throughput)")
	save := flag.Bool("save", false, "Store the finished race in the database (run)")
	serverURL := flag.String("server", "http://localhost"+meta.DEFAULT_ADDR, "Race server (submit, replay)")
	raceID := flag.String("race", "", "Stored race to replay")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	registry := strategy.Default()
	if cfg.Scripts != "" {
		names, err := registry.LoadScripts(cfg.Scripts)
		if err != nil {
			log.Fatal().Err(err).Msgf("failed to load scripts from %s", cfg.Scripts)
		}
		log.Info().Msgf("loaded scripted strategies %v", names)
	}
	options := []engine.Option{engine.WithRegistry(registry), engine.WithGoroutines(cfg.Goroutines)}

	switch *mode {
	case "run":
		err = runRace(cfg, *snapshotPath, *out, *save, options)
	case "serve":
		err = serve(cfg, options)
	case "experiment":
		err = runExperiment(*snapshotPath, *out, *lineups, *races, options)
	case "throughput":
		err = runThroughput(*snapshotPath, *out, *lineups, *goroutines, *races, options)
	case "submit":
		err = submit(*serverURL, *snapshotPath)
	case "replay":
		err = replay(*serverURL, *raceID)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("%s failed", *mode)
	}
}

func readSnapshot(path string, options []engine.Option) (*engine.Track, error) {
	if path == "" {
		return nil, fmt.Errorf("missing -snapshot")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return engine.Restore(data, options...)
}

func runRace(cfg config.Config, path, out string, save bool, options []engine.Option) error {
	track, err := readSnapshot(path, options)
	if err != nil {
		return err
	}
	origin := track.Serialize()
	if err := track.Run(); err != nil {
		return err
	}
	fmt.Println(render.Standings(track))

	if out != "" {
		data, err := json.MarshalIndent(track, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return err
		}
		log.Info().Msgf("wrote finished snapshot to %s", out)
	}

	if save {
		s, err := store.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer s.Close()
		id, err := s.SaveRace(context.Background(), origin, track.Serialize())
		if err != nil {
			return err
		}
		log.Info().Msgf("stored race %s in %s", id, cfg.DB)
	}
	return nil
}

func serve(cfg config.Config, options []engine.Option) error {
	s, err := store.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer s.Close()

	return server.NewRaceServer(s, options...).Start(cfg.Addr)
}

func runExperiment(path, out, lineups string, races int, options []engine.Option) error {
	track, err := readSnapshot(path, options)
	if err != nil {
		return err
	}
	parsed, err := experiments.ParseLineups(lineups)
	if err != nil {
		return err
	}
	if out == "" {
		out = "results"
	}

	dir, err := experiments.RunAndWrite(out, "lineups", track.Serialize(), parsed, races, options...)
	if err != nil {
		return err
	}
	log.Info().Msgf("experiment records written to %s", dir)
	return nil
}

func runThroughput(path, out, lineups, goroutines string, races int, options []engine.Option) error {
	track, err := readSnapshot(path, options)
	if err != nil {
		return err
	}
	lineup, err := experiments.ParseLineup(lineups)
	if err != nil {
		return err
	}
	counts := []int{}
	for _, g := range strings.Split(goroutines, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(g))
		if err != nil {
			return fmt.Errorf("invalid goroutine count %q: %w", g, err)
		}
		counts = append(counts, n)
	}
	if out == "" {
		out = "results"
	}

	dir, err := experiments.RunThroughputAndWrite(out, track.Serialize(), lineup, counts, races, options...)
	if err != nil {
		return err
	}
	log.Info().Msgf("throughput records written to %s", dir)
	return nil
}

func submit(serverURL, path string) error {
	track, err := readSnapshot(path, nil)
	if err != nil {
		return err
	}
	race, err := client.NewRaceClient(serverURL).Submit(context.Background(), track.Serialize())
	if err != nil {
		return err
	}
	fmt.Println(race.ID)
	return nil
}

func replay(serverURL, id string) error {
	if id == "" {
		return fmt.Errorf("missing -race")
	}
	standings, err := client.NewRaceClient(serverURL).Replay(context.Background(), id, func(f communication.TickFrame) {
		log.Debug().Msgf("tick %d: %v", f.Tick, f.States)
	})
	if err != nil {
		return err
	}
	fmt.Printf("standings: %v\n", standings)
	return nil
}
