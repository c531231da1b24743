package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/salami/internal/tsv"
	"github.com/himanishpuri/salami/pkg/salami"
	"github.com/himanishpuri/salami/pkg/salami/audio"
	"github.com/himanishpuri/salami/pkg/salami/render"
	"github.com/himanishpuri/salami/pkg/salami/segmentation"
	"github.com/himanishpuri/salami/pkg/utils"
)

func (a *app) handleIDs(_ []string) error {
	ix, err := a.index()
	if err != nil {
		return err
	}
	for _, id := range ix.IDs() {
		fmt.Println(id)
	}
	a.log.Infof("%s tracks with audio in %s", humanize.Comma(int64(ix.Len())), a.cfg.AudioDir)
	return nil
}

func (a *app) handleAudio(ctx context.Context, args []string) error {
	id, err := parseID(args, "salami audio <id>")
	if err != nil {
		return err
	}
	ix, err := a.index()
	if err != nil {
		return err
	}
	path, err := ix.AudioPath(id)
	if err != nil {
		return err
	}

	fmt.Printf("Path:     %s\n", path)
	if size, err := utils.FileSize(path); err == nil {
		fmt.Printf("Size:     %s\n", humanize.Bytes(uint64(size)))
	}
	if secs, err := audio.Duration(ctx, path); err == nil {
		d := time.Duration(secs * float64(time.Second)).Round(time.Second)
		fmt.Printf("Duration: %s\n", d)
	} else {
		a.log.Debugf("No duration for %s: %v", path, err)
	}
	return nil
}

func (a *app) handleAnnotation(args []string) error {
	fs := flag.NewFlagSet("annotation", flag.ExitOnError)
	annotator := fs.String("annotator", "1", "1, 2, most or least")
	level := fs.String("level", "uppercase", "uppercase or lowercase")

	id, err := parseID(args, "salami annotation <id> [flags]")
	if err != nil {
		return err
	}
	fs.Parse(args[1:])

	sel, err := salami.ParseSelection(*annotator)
	if err != nil {
		return err
	}
	g, err := salami.ParseGranularity(*level)
	if err != nil {
		return err
	}

	ann := salami.NewAnnotation(id, a.cfg.Options()...)
	a.log.Debugf("Track %d has %s annotators %v", id, g, ann.Available(g))

	segs, err := ann.Select(sel, g)
	if err != nil {
		return err
	}
	rows := make([]tsv.Row, len(segs))
	for i, s := range segs {
		rows[i] = tsv.Row{Time: s.Time, Label: s.Label}
	}
	return tsv.Write(os.Stdout, rows)
}

func (a *app) handleEval(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	source := fs.String("source", "annotator", "Estimate source: annotator, dir or novelty")
	estimates := fs.String("estimates", "", "Directory of <id>.txt estimates (with -source dir)")
	truth := fs.String("truth", "1", "Ground-truth annotator: 1, 2, most or least")
	against := fs.String("against", "2", "Estimate annotator (with -source annotator)")
	level := fs.String("level", "uppercase", "uppercase or lowercase")
	skipMissing := fs.Bool("skip-missing", false, "Skip tracks lacking an annotation or estimate")
	edges := fs.Bool("edges", true, "Add track start and end to novelty estimates")
	save := fs.Bool("save", false, "Store the report in the results database")
	fs.Parse(args)

	g, err := salami.ParseGranularity(*level)
	if err != nil {
		return err
	}
	truthSel, err := salami.ParseSelection(*truth)
	if err != nil {
		return err
	}
	ix, err := a.index()
	if err != nil {
		return err
	}

	var src salami.EstimateSource
	switch *source {
	case "annotator":
		sel, err := salami.ParseSelection(*against)
		if err != nil {
			return err
		}
		src = &salami.AnnotatorSource{Index: ix, Selection: sel, Granularity: g}
	case "dir":
		if *estimates == "" {
			return errors.New("-estimates is required with -source dir")
		}
		src = &salami.DirSource{Dir: *estimates}
	case "novelty":
		src = &salami.NoveltySource{
			Index:        ix,
			TempDir:      a.cfg.TempDir,
			SampleRate:   a.cfg.SampleRate,
			Params:       segmentation.DefaultParams(),
			IncludeEdges: *edges,
		}
	default:
		return fmt.Errorf("unknown source %q", *source)
	}

	ids, err := parseIDs(fs.Args())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		ids = ix.IDs()
	}

	ev := salami.NewEvaluator(ix, src, salami.EvalOptions{
		Granularity: g,
		Selection:   truthSel,
		Tolerance:   a.cfg.Tolerance,
		SkipMissing: *skipMissing,
		Logger:      a.log,
	})
	report, err := ev.Evaluate(ctx, ids)
	if err != nil {
		return err
	}
	printReport(report)

	if *save {
		store, err := a.store()
		if err != nil {
			return err
		}
		defer store.Close()
		runID, err := store.SaveRun(report)
		if err != nil {
			return err
		}
		fmt.Printf("\nSaved run %s to %s\n", runID, a.cfg.DBPath)
	}
	return nil
}

func printReport(r *salami.Report) {
	fmt.Printf("Source: %s | truth: %s %s | tolerance: %gs\n\n", r.Source, r.Selection, r.Granularity, r.Tolerance)
	fmt.Printf("%8s %6s %6s %8s %8s %8s\n", "ID", "Est", "Truth", "P", "R", "F")
	for _, t := range r.Tracks {
		note := ""
		if t.Degenerate {
			note = "  (degenerate)"
		}
		fmt.Printf("%8d %6d %6d %8.3f %8.3f %8.3f%s\n",
			t.TrackID, t.Score.Estimates, t.Score.Truths,
			t.Score.Precision, t.Score.Recall, t.Score.FMeasure, note)
	}
	agg := r.Aggregate
	fmt.Printf("\nTracks:    %s evaluated, %s skipped\n", humanize.Comma(int64(len(r.Tracks))), humanize.Comma(int64(len(r.Skipped))))
	fmt.Printf("Aggregate: P=%.3f R=%.3f F=%.3f (2PR/(P+R)=%.3f)\n", agg.Precision, agg.Recall, agg.FMeasure, agg.HarmonicF1())
	fmt.Printf("Per-track F: mean %.3f, std %.3f\n", r.MeanF, r.StdDevF)
}

func (a *app) novelty(ctx context.Context, id int) ([]float64, []float64, int, error) {
	ix, err := a.index()
	if err != nil {
		return nil, nil, 0, err
	}
	path, err := ix.AudioPath(id)
	if err != nil {
		return nil, nil, 0, err
	}
	samples, sr, err := audio.LoadMono(ctx, path, a.cfg.TempDir, a.cfg.SampleRate)
	if err != nil {
		return nil, nil, 0, err
	}
	bounds, err := segmentation.Estimate(samples, sr, segmentation.DefaultParams())
	if err != nil {
		return nil, nil, 0, err
	}
	return bounds, samples, sr, nil
}

func (a *app) handleSegment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("segment", flag.ExitOnError)
	out := fs.String("out", "", "Write boundaries to this file instead of stdout")

	id, err := parseID(args, "salami segment <id> [-out <file>]")
	if err != nil {
		return err
	}
	fs.Parse(args[1:])

	bounds, _, _, err := a.novelty(ctx, id)
	if err != nil {
		return err
	}
	rows := make([]tsv.Row, len(bounds))
	for i, b := range bounds {
		rows[i] = tsv.Row{Time: b, Label: "boundary"}
	}

	if *out == "" {
		return tsv.Write(os.Stdout, rows)
	}
	if err := utils.MakeDir(filepath.Dir(*out)); err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := tsv.Write(f, rows); err != nil {
		return err
	}
	a.log.Infof("Wrote %d boundaries for track %d to %s", len(rows), id, *out)
	return nil
}

func (a *app) handleFetch(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: salami fetch <id> <url>")
	}
	id, err := parseID(args, "salami fetch <id> <url>")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	fmt.Printf("Downloading track %d from %s...\n", id, args[1])
	path, err := audio.Download(ctx, args[1], a.cfg.AudioDir, id)
	if err != nil {
		return err
	}
	size, _ := utils.FileSize(path)
	fmt.Printf("Saved %s (%s)\n", path, humanize.Bytes(uint64(size)))
	return nil
}

func (a *app) handleSpectrogram(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("spectrogram", flag.ExitOnError)
	out := fs.String("out", "", "Output PNG (default <id>.png)")
	truth := fs.String("truth", "1", "Annotator whose boundaries are drawn: 1, 2, most or least")
	level := fs.String("level", "uppercase", "uppercase or lowercase")
	withNovelty := fs.Bool("novelty", true, "Also draw novelty-estimated boundaries")

	id, err := parseID(args, "salami spectrogram <id> [flags]")
	if err != nil {
		return err
	}
	fs.Parse(args[1:])
	if *out == "" {
		*out = strconv.Itoa(id) + ".png"
	}

	sel, err := salami.ParseSelection(*truth)
	if err != nil {
		return err
	}
	g, err := salami.ParseGranularity(*level)
	if err != nil {
		return err
	}

	ix, err := a.index()
	if err != nil {
		return err
	}
	path, err := ix.AudioPath(id)
	if err != nil {
		return err
	}
	samples, sr, err := audio.LoadMono(ctx, path, a.cfg.TempDir, a.cfg.SampleRate)
	if err != nil {
		return err
	}

	var layers []render.Layer
	segs, err := ix.Annotation(id).Select(sel, g)
	switch {
	case err == nil:
		layers = append(layers, render.Layer{Times: salami.Boundaries(segs), Color: render.TruthColor})
	case errors.Is(err, salami.ErrMissingAnnotation):
		a.log.Warnf("Track %d has no %s annotation for %s", id, g, sel)
	default:
		return err
	}
	if *withNovelty {
		bounds, err := segmentation.Estimate(samples, sr, segmentation.DefaultParams())
		if err != nil {
			return err
		}
		layers = append(layers, render.Layer{Times: bounds, Color: render.EstimateColor})
	}

	if err := render.Spectrogram(samples, sr, *out, render.DefaultOptions(), layers...); err != nil {
		return err
	}
	fmt.Printf("Saved spectrogram to %s\n", *out)
	return nil
}

func (a *app) handleRuns(args []string) error {
	store, err := a.store()
	if err != nil {
		return err
	}
	defer store.Close()

	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "list":
		runs, err := store.ListRuns()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No stored runs")
			return nil
		}
		for _, r := range runs {
			fmt.Printf("%s  %-24s %-9s tol=%-4g tracks=%-5d F=%.3f  %s\n",
				r.RunID, r.Source, r.Granularity, r.Tolerance, r.TrackCount, r.FMeasure, humanize.Time(r.CreatedAt))
		}
	case "show":
		if len(args) < 2 {
			return errors.New("usage: salami runs show <run-id>")
		}
		report, err := store.GetRun(args[1])
		if err != nil {
			return err
		}
		printReport(report)
	case "delete":
		if len(args) < 2 {
			return errors.New("usage: salami runs delete <run-id>")
		}
		if err := store.DeleteRun(args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted run %s\n", args[1])
	case "history":
		id, err := parseID(args[1:], "salami runs history <id>")
		if err != nil {
			return err
		}
		rows, err := store.TrackHistory(id)
		if err != nil {
			return err
		}
		for _, t := range rows {
			fmt.Printf("P=%.3f R=%.3f F=%.3f est=%d truth=%d\n",
				t.Score.Precision, t.Score.Recall, t.Score.FMeasure, t.Score.Estimates, t.Score.Truths)
		}
	default:
		return fmt.Errorf("unknown runs subcommand %q", sub)
	}
	return nil
}
