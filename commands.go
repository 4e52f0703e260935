package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"

	"logshack/adif"
	"logshack/callstore"
	"logshack/config"
	"logshack/contest"
	"logshack/ingest"
	"logshack/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var commands = map[string]func(*config.Config, []string) error{
	"import":         runImport,
	"export":         runExport,
	"stats":          runStats,
	"contest-create": runContestCreate,
	"contest-list":   runContestList,
	"populate":       runPopulate,
	"leaderboard":    runLeaderboard,
}

func openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(cfg.Database.Path, store.Options{
		BusyTimeoutMS:    cfg.Database.BusyTimeoutMS,
		PreflightTimeout: time.Duration(cfg.Database.PreflightTimeoutMS) * time.Millisecond,
	})
}

func openCallStore(cfg *config.Config) (*callstore.Store, error) {
	if !cfg.CallStore.Enabled {
		return nil, nil
	}
	return callstore.Open(cfg.CallStore.Path, callstore.Options{})
}

func runImport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	owner := fs.String("owner", "", "owner callsign the records belong to")
	file := fs.String("file", "", "ADIF log file to ingest")
	fs.Parse(args)
	if *owner == "" || *file == "" {
		return errors.New("both -owner and -file are required")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	calls, err := openCallStore(cfg)
	if err != nil {
		return err
	}
	if calls != nil {
		defer calls.Close()
	}

	pipeline := ingest.New(st, calls, ingest.Options{
		Scan:   adif.ScanOptions{TokenAwareSplit: cfg.Parser.TokenAwareSplit},
		Review: cfg.Ingest.Review,
	})
	summary, _, err := pipeline.IngestFile(strings.ToUpper(*owner), *file)
	if err != nil {
		return err
	}

	fmt.Printf("Parsed %s records: %s new, %s duplicate, %s error (%s chunks skipped)\n",
		humanize.Comma(int64(summary.Total)),
		humanize.Comma(int64(summary.New)),
		humanize.Comma(int64(summary.Duplicate)),
		humanize.Comma(int64(summary.Error)),
		humanize.Comma(int64(summary.Skipped)))
	for _, suspect := range summary.Suspects {
		fmt.Printf("Review: %s vs %s at %s %s on %s look like the same contact\n",
			suspect.Call, suspect.Similar, suspect.QSODate, suspect.TimeOn, suspect.Band)
	}
	return nil
}

func runExport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	owner := fs.String("owner", "", "owner callsign to export")
	call := fs.String("call", "", "filter: contacted callsign substring")
	band := fs.String("band", "", "filter: exact band, e.g. 20m")
	mode := fs.String("mode", "", "filter: exact mode, e.g. CW")
	out := fs.String("out", "", "output file (default stdout)")
	fs.Parse(args)
	if *owner == "" {
		return errors.New("-owner is required")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	stored, err := st.RecordsByOwner(strings.ToUpper(*owner), store.RecordFilter{
		Call: strings.ToUpper(*call),
		Band: *band,
		Mode: *mode,
	})
	if err != nil {
		return err
	}
	records := make([]adif.Record, 0, len(stored))
	for _, s := range stored {
		records = append(records, s.Record)
	}
	text := adif.Render(records, adif.ExportHeader{
		Comment:        "ADIF export from " + programID,
		ProgramID:      programID,
		ProgramVersion: programVersion,
	})
	if *out == "" {
		fmt.Print(text)
		return nil
	}
	return os.WriteFile(*out, []byte(text), 0o644)
}

func runStats(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	owner := fs.String("owner", "", "owner callsign")
	asJSON := fs.Bool("json", false, "emit JSON")
	fs.Parse(args)
	if *owner == "" {
		return errors.New("-owner is required")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	stored, err := st.RecordsByOwner(strings.ToUpper(*owner), store.RecordFilter{})
	if err != nil {
		return err
	}
	records := make([]adif.Record, 0, len(stored))
	for _, s := range stored {
		records = append(records, s.Record)
	}
	stats := adif.Statistics(records)

	if *asJSON {
		encoded, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	}
	fmt.Printf("Total QSOs: %s\n", humanize.Comma(int64(stats.Total)))
	if stats.DateRange != nil {
		fmt.Printf("Date range: %s to %s\n", stats.DateRange.Earliest, stats.DateRange.Latest)
	}
	fmt.Println("Bands:")
	for band, count := range stats.Bands {
		fmt.Printf("  %-8s %s\n", band, humanize.Comma(int64(count)))
	}
	fmt.Println("Modes:")
	for mode, count := range stats.Modes {
		fmt.Printf("  %-8s %s\n", mode, humanize.Comma(int64(count)))
	}
	return nil
}

func runContestCreate(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("contest-create", flag.ExitOnError)
	name := fs.String("name", "", "contest name")
	description := fs.String("description", "", "contest description")
	start := fs.String("start", "", "start date (YYYY-MM-DD)")
	end := fs.String("end", "", "end date (YYYY-MM-DD)")
	bands := fs.String("bands", "", "comma-separated band allowlist (empty = all)")
	modes := fs.String("modes", "", "comma-separated mode allowlist (empty = all)")
	points := fs.Float64("points", 1, "base points per QSO")
	fs.Parse(args)

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	endDate, err := time.Parse("2006-01-02", *end)
	if err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}

	c := contest.Contest{
		Name:        *name,
		Description: *description,
		StartDate:   startDate,
		EndDate:     endDate,
		Rules: contest.Rules{
			Bands: splitList(*bands),
			Modes: splitList(*modes),
		},
		Scoring:  contest.Scoring{BasePoints: points},
		IsActive: true,
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.CreateContest(&c); err != nil {
		return err
	}
	fmt.Printf("Created contest %d: %s (%s to %s)\n", c.ID, c.Name, c.StartDateString(), c.EndDateString())
	return nil
}

func runContestList(cfg *config.Config, args []string) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	contests, err := st.ListContests()
	if err != nil {
		return err
	}
	if len(contests) == 0 {
		fmt.Println("No contests")
		return nil
	}
	for _, c := range contests {
		state := "inactive"
		if c.IsActive {
			state = "active"
		}
		fmt.Printf("%4d  %-30s %s..%s  %s\n", c.ID, c.Name, c.StartDateString(), c.EndDateString(), state)
	}
	return nil
}

func runPopulate(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	id := fs.Int64("id", 0, "contest id")
	fs.Parse(args)
	if *id == 0 {
		return errors.New("-id is required")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.PopulateContest(*id)
	if err != nil {
		return err
	}
	fmt.Printf("Linked %s new entries (%s total)\n",
		humanize.Comma(summary.NewEntries), humanize.Comma(summary.TotalEntries))
	return nil
}

func runLeaderboard(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
	id := fs.Int64("id", 0, "contest id")
	owner := fs.String("owner", "", "show one participant's entries instead")
	asJSON := fs.Bool("json", false, "emit JSON")
	fs.Parse(args)
	if *id == 0 {
		return errors.New("-id is required")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if *owner != "" {
		entries, err := st.EntriesForOwner(*id, strings.ToUpper(*owner))
		if err != nil {
			return err
		}
		if *asJSON {
			encoded, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		}
		total := 0.0
		for _, e := range entries {
			fmt.Printf("%s %s  %-12s %-6s %-6s %6.1f\n", e.QSODate, e.TimeOn, e.Call, e.Band, e.Mode, e.Points)
			total += e.Points
		}
		fmt.Printf("QSOs: %d  Points: %.1f\n", len(entries), total)
		return nil
	}

	standings, err := st.Leaderboard(*id)
	if err != nil {
		return err
	}
	if *asJSON {
		encoded, err := json.MarshalIndent(standings, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	}
	fmt.Printf("%4s  %-12s %8s %12s\n", "Rank", "Callsign", "QSOs", "Points")
	for _, row := range standings {
		fmt.Printf("%4d  %-12s %8s %12.1f\n", row.Rank, row.Callsign,
			humanize.Comma(int64(row.QSOCount)), row.TotalPoints)
	}
	return nil
}

func splitList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
