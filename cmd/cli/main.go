package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/mdobak/go-xerrors"

	"github.com/himanishpuri/salami/internal/config"
	"github.com/himanishpuri/salami/pkg/logger"
	"github.com/himanishpuri/salami/pkg/salami"
)

// Global flags. Unset flags fall back to the config file and environment.
var (
	configPath    string
	annotationDir string
	audioDir      string
	dbPath        string
	tempDir       string
	sampleRate    int
	tolerance     float64
	logLevel      string
)

func init() {
	flag.StringVar(&configPath, "config", "", "YAML config file (env: SALAMI_CONFIG)")
	flag.StringVar(&annotationDir, "annotations", "", "SALAMI annotations directory (env: SALAMI_ANNOTATION_DIR)")
	flag.StringVar(&audioDir, "audio", "", "Directory of <id>.mp3/.wav/.pkl files (env: SALAMI_AUDIO_DIR)")
	flag.StringVar(&dbPath, "db", "", "Results database (env: SALAMI_DB_PATH)")
	flag.StringVar(&tempDir, "temp", "", "Directory for audio conversion (env: SALAMI_TEMP_DIR)")
	flag.IntVar(&sampleRate, "rate", 0, "Analysis sample rate in Hz (env: SALAMI_SAMPLE_RATE)")
	flag.Float64Var(&tolerance, "tolerance", 0, "Boundary tolerance in seconds (env: SALAMI_TOLERANCE)")
	flag.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (env: SALAMI_LOG_LEVEL)")
}

// loadConfig merges explicitly set global flags over the loaded config.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "annotations":
			cfg.AnnotationDir = annotationDir
		case "audio":
			cfg.AudioDir = audioDir
		case "db":
			cfg.DBPath = dbPath
		case "temp":
			cfg.TempDir = tempDir
		case "rate":
			cfg.SampleRate = sampleRate
		case "tolerance":
			cfg.Tolerance = tolerance
		case "log-level":
			cfg.LogLevel = logLevel
		}
	})
	return cfg, cfg.Validate()
}

type app struct {
	cfg config.Config
	log *logger.Logger
}

func (a *app) index() (*salami.Index, error) {
	return salami.NewIndex(append(a.cfg.Options(), salami.WithLogger(a.log))...)
}

func (a *app) store() (salami.Store, error) {
	return salami.NewSQLiteStore(a.cfg.DBPath)
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	log := logger.GetLogger()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fail(log, "Invalid configuration", err)
	}
	if lvl, ok := logger.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(lvl)
	}

	a := &app{cfg: cfg, log: log}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command, rest := args[0], args[1:]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "ids":
		err = a.handleIDs(rest)
	case "audio":
		err = a.handleAudio(ctx, rest)
	case "annotation":
		err = a.handleAnnotation(rest)
	case "eval":
		err = a.handleEval(ctx, rest)
	case "segment":
		err = a.handleSegment(ctx, rest)
	case "fetch":
		err = a.handleFetch(ctx, rest)
	case "spectrogram":
		err = a.handleSpectrogram(ctx, rest)
	case "runs":
		err = a.handleRuns(rest)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		stop()
		fail(log, command+" failed", err)
	}
}

func fail(log *logger.Logger, msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	log.Fatalf("%s: %s", msg, xerrors.Sprint(xerrors.New(err)))
}

// parseIDs reads positional SALAMI IDs. An empty list means every ID.
func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid SALAMI ID %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseID(args []string, usage string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	ids, err := parseIDs(args[:1])
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func printUsage() {
	fmt.Println("salami - SALAMI dataset reader and boundary evaluation")
	fmt.Println("\nGlobal Options:")
	flag.PrintDefaults()
	fmt.Println("\nUsage:")
	fmt.Println("  salami [global-options] ids")
	fmt.Println("  salami [global-options] audio <id>")
	fmt.Println("  salami [global-options] annotation <id> [-annotator 1|2|most|least] [-level uppercase|lowercase]")
	fmt.Println("  salami [global-options] eval [-source annotator|dir|novelty] [-estimates <dir>] [-truth 1] [-against 2]")
	fmt.Println("                               [-level uppercase] [-skip-missing] [-edges] [-save] [id...]")
	fmt.Println("  salami [global-options] segment <id> [-out <file>]")
	fmt.Println("  salami [global-options] fetch <id> <url>")
	fmt.Println("  salami [global-options] spectrogram <id> [-out <png>] [-truth 1] [-novelty]")
	fmt.Println("  salami [global-options] runs [list | show <run-id> | delete <run-id> | history <id>]")
	fmt.Println("\nExamples:")
	fmt.Println("  # Inter-annotator agreement on the coarse level, 3 s window")
	fmt.Println("  salami -tolerance 3 eval -truth 1 -against 2 -skip-missing -save")
	fmt.Println()
	fmt.Println("  # Score estimates stored as <dir>/<id>.txt")
	fmt.Println("  salami eval -source dir -estimates ./estimates 2 4 6")
}
