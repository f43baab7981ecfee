package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"symreg/internal/dataset"
	"symreg/internal/generate"
	"symreg/internal/render"
	"symreg/internal/report"
	"symreg/internal/storage"
	"symreg/pkg/symreg"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "eval":
		return runEval(ctx, args[1:])
	case "gradient":
		return runGradient(ctx, args[1:])
	case "parse":
		return runParse(ctx, args[1:])
	case "render":
		return runRender(ctx, args[1:])
	case "simplify":
		return runSimplify(ctx, args[1:])
	case "distance":
		return runDistance(ctx, args[1:])
	case "generate":
		return runGenerate(ctx, args[1:])
	case "fit":
		return runFit(ctx, args[1:])
	case "benchmark":
		return runBenchmark(ctx, args[1:])
	case "archive":
		return runArchive(ctx, args[1:])
	case "plot":
		return runPlot(ctx, args[1:])
	case "problems":
		return runProblems(ctx, args[1:])
	case "operators":
		return runOperators(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runEval(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	text := fs.String("e", "", "equation text")
	samples := fs.String("x", "", "sample rows, e.g. \"1,2;3,4\"")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *text == "" {
		return usageError("eval requires -e")
	}
	x, err := parseMatrix(*samples)
	if err != nil {
		return err
	}

	client, err := symreg.New(symreg.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	values, err := client.EvaluateAt(symreg.EvaluateRequest{Text: *text, X: x})
	if err != nil {
		return err
	}
	for _, value := range values {
		fmt.Printf("%g\n", value)
	}
	return nil
}

func runGradient(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("gradient", flag.ContinueOnError)
	text := fs.String("e", "", "equation text")
	samples := fs.String("x", "", "sample rows, e.g. \"1,2;3,4\"")
	target := fs.String("target", "variables", "gradient target: variables|constants")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *text == "" {
		return usageError("gradient requires -e")
	}
	x, err := parseMatrix(*samples)
	if err != nil {
		return err
	}

	client, err := symreg.New(symreg.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	result, err := client.GradientAt(symreg.GradientRequest{Text: *text, X: x, Target: *target})
	if err != nil {
		return err
	}
	for s, row := range result.Jacobian {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = fmt.Sprintf("%g", cell)
		}
		fmt.Printf("%g\t[%s]\n", result.Values[s], strings.Join(cells, " "))
	}
	return nil
}

func runParse(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	text := fs.String("e", "", "equation text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *text == "" {
		return usageError("parse requires -e")
	}

	client, err := symreg.New(symreg.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	eq, err := client.ParseEquation(*text)
	if err != nil {
		return err
	}
	rows, err := eq.Format("stack", true)
	if err != nil {
		return err
	}
	fmt.Println(rows)
	if consts := eq.Constants(); len(consts) > 0 {
		fmt.Printf("constants: %v\n", consts)
	}
	return nil
}

func runRender(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	text := fs.String("e", "", "equation text")
	notation := fs.String("notation", "console", "notation: console|latex|stack")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *text == "" {
		return usageError("render requires -e")
	}

	client, err := symreg.New(symreg.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	out, err := client.FormatEquation(symreg.FormatRequest{Text: *text, Notation: *notation})
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runSimplify(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("simplify", flag.ContinueOnError)
	text := fs.String("e", "", "equation text")
	strategy := fs.String("strategy", "", "simplifier strategy: local|algebraic")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *text == "" {
		return usageError("simplify requires -e")
	}

	client, err := symreg.New(symreg.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	result, err := client.SimplifyProgram(symreg.SimplifyRequest{Text: *text, Strategy: *strategy})
	if err != nil {
		return err
	}
	fmt.Println(result.Text)
	fmt.Printf("rows=%d constants=%v\n", result.Rows, result.Constants)
	return nil
}

func runDistance(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("distance", flag.ContinueOnError)
	a := fs.String("a", "", "first equation text")
	b := fs.String("b", "", "second equation text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *a == "" || *b == "" {
		return usageError("distance requires -a and -b")
	}

	client, err := symreg.New(symreg.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	distance, err := client.DistanceBetween(*a, *b)
	if err != nil {
		return err
	}
	fmt.Printf("%d\n", distance)
	return nil
}

func runGenerate(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	features := fs.Int("features", 1, "feature count")
	size := fs.Int("size", 8, "program rows")
	count := fs.Int("count", 1, "programs to generate")
	seed := fs.Int64("seed", 1, "rng seed")
	notation := fs.String("notation", "console", "notation: console|latex|stack")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gen := &generate.Generator{Rand: rand.New(rand.NewSource(*seed)), Features: *features}
	for i := 0; i < *count; i++ {
		p, err := gen.Program(*size)
		if err != nil {
			return err
		}
		text, err := render.Format(*notation, p, nil)
		if err != nil {
			return err
		}
		fmt.Println(text)
	}
	return nil
}

func runFit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	text := fs.String("e", "", "equation text with C_n placeholders")
	dataPath := fs.String("data", "", "CSV dataset path (last column is the target)")
	samples := fs.String("x", "", "inline sample rows, e.g. \"1;2;3\"")
	targets := fs.String("y", "", "inline targets, e.g. \"5;7;9\"")
	fitterName := fs.String("fitter", "gradient", "fitter: gradient|hillclimb")
	configPath := fs.String("config", "", "optional fit config JSON path")
	label := fs.String("label", "", "archive the fitted equation under this label")
	plotPath := fs.String("plot", "", "write the fitting trace chart to this path")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "symreg.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *text == "" {
		return usageError("fit requires -e")
	}

	cfg, err := loadOrDefaultFitConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.Fitter == "" {
		cfg.Fitter = *fitterName
	}
	if cfg.Label == "" {
		cfg.Label = *label
	}

	x, y, err := loadSamples(*dataPath, *samples, *targets)
	if err != nil {
		return err
	}

	client, err := symreg.New(symreg.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.FitConstants(ctx, symreg.FitRequest{
		Text:   *text,
		X:      x,
		Y:      y,
		Fitter: cfg.Fitter,
		Params: cfg.Params,
		Label:  cfg.Label,
	})
	if err != nil {
		return err
	}

	fmt.Printf("fitted %s\n", summary.Text)
	fmt.Printf("mse %.4g -> %.4g after %s iterations (%s evaluations)\n",
		summary.InitialMSE, summary.FinalMSE,
		humanize.Comma(int64(summary.Iterations)), humanize.Comma(int64(summary.Evaluations)))
	if summary.GoalReached {
		fmt.Println("goal reached")
	}
	if summary.EquationID != "" {
		fmt.Printf("archived equation=%s trace=%s\n", summary.EquationID, summary.TraceID)
	}
	if *plotPath != "" {
		points := report.BuildTrace(summary.History, 0, 1)
		if err := report.SavePlot(points, "fit trace", *plotPath); err != nil {
			return err
		}
		fmt.Printf("plot written to %s\n", *plotPath)
	}
	return nil
}

func runBenchmark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	problem := fs.String("problem", "koza-1", "benchmark problem name")
	samples := fs.Int("samples", 64, "dataset sample count")
	candidates := fs.Int("candidates", 32, "random candidates to screen")
	size := fs.Int("size", 8, "candidate program rows")
	seed := fs.Int64("seed", 1, "rng seed")
	fitterName := fs.String("fitter", "hillclimb", "fitter: gradient|hillclimb")
	configPath := fs.String("config", "", "optional fit config JSON path")
	plotPath := fs.String("plot", "", "write the fitting trace chart to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadOrDefaultFitConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.Fitter == "" {
		cfg.Fitter = *fitterName
	}

	client, err := symreg.New(symreg.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Benchmark(ctx, symreg.BenchmarkRequest{
		Problem:      *problem,
		Samples:      *samples,
		Seed:         *seed,
		Candidates:   *candidates,
		ProgramSize:  *size,
		Fitter:       cfg.Fitter,
		FitterParams: cfg.Params,
	})
	if err != nil {
		return err
	}

	fmt.Printf("problem %s: screened %s candidates on %s samples\n",
		summary.Problem, humanize.Comma(int64(summary.Candidates)), humanize.Comma(int64(summary.Samples)))
	fmt.Printf("best candidate: %s\n", summary.Text)
	fmt.Printf("mse %.4g -> %.4g\n", summary.BaselineMSE, summary.FinalMSE)
	if summary.GoalReached {
		fmt.Println("goal reached")
	}
	if *plotPath != "" {
		points := report.BuildTrace(summary.History, 0, 1)
		if err := report.SavePlot(points, summary.Problem, *plotPath); err != nil {
			return err
		}
		fmt.Printf("plot written to %s\n", *plotPath)
	}
	return nil
}

func runArchive(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("archive requires a subcommand: save|show|list|rm")
	}
	switch args[0] {
	case "save":
		return runArchiveSave(ctx, args[1:])
	case "show":
		return runArchiveShow(ctx, args[1:])
	case "list":
		return runArchiveList(ctx, args[1:])
	case "rm":
		return runArchiveRemove(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown archive subcommand: %s", args[0]))
	}
}

func runArchiveSave(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("archive save", flag.ContinueOnError)
	text := fs.String("e", "", "equation text")
	label := fs.String("label", "", "archive label")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "symreg.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *text == "" || *label == "" {
		return usageError("archive save requires -e and -label")
	}

	client, err := symreg.New(symreg.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	eq, err := client.ParseEquation(*text)
	if err != nil {
		return err
	}
	info, err := client.ArchiveEquation(ctx, symreg.ArchiveRequest{Label: *label, Equation: eq})
	if err != nil {
		return err
	}
	fmt.Printf("archived %s as %s\n", info.Label, info.ID)
	return nil
}

func runArchiveShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("archive show", flag.ContinueOnError)
	id := fs.String("id", "", "equation id")
	notation := fs.String("notation", "console", "notation: console|latex|stack")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "symreg.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return usageError("archive show requires -id")
	}

	client, err := symreg.New(symreg.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	eq, err := client.LoadEquation(ctx, *id)
	if err != nil {
		return err
	}
	text, err := eq.Format(*notation, false)
	if err != nil {
		return err
	}
	fmt.Println(text)
	if fitness, set := eq.Fitness(); set {
		fmt.Printf("fitness: %g\n", fitness)
	}
	return nil
}

func runArchiveList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("archive list", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "symreg.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := symreg.New(symreg.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	infos, err := client.ListArchive(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("archive is empty")
		return nil
	}
	for _, info := range infos {
		fitness := "-"
		if info.FitnessSet {
			fitness = fmt.Sprintf("%.4g", info.Fitness)
		}
		fmt.Printf("%s\t%s\trows=%d\tfitness=%s\t%s\n", info.ID, info.Label, info.Complexity, fitness, info.Text)
	}
	return nil
}

func runArchiveRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("archive rm", flag.ContinueOnError)
	id := fs.String("id", "", "equation id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "symreg.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return usageError("archive rm requires -id")
	}

	client, err := symreg.New(symreg.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.DeleteArchived(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("removed %s\n", *id)
	return nil
}

func runPlot(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	tracePath := fs.String("trace", "", "trace JSON path")
	outPath := fs.String("out", "", "output image path")
	title := fs.String("title", "fit trace", "chart title")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tracePath == "" || *outPath == "" {
		return usageError("plot requires -trace and -out")
	}

	points, err := report.ReadTraceFile(*tracePath)
	if err != nil {
		return err
	}
	if err := report.SavePlot(points, *title, *outPath); err != nil {
		return err
	}
	fmt.Printf("plot written to %s\n", *outPath)
	return nil
}

func runProblems(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("problems", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := symreg.New(symreg.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	for _, name := range client.Problems() {
		fmt.Println(name)
	}
	return nil
}

func runOperators(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("operators", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := symreg.New(symreg.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	for _, name := range client.Operators() {
		fmt.Println(name)
	}
	return nil
}

func loadSamples(dataPath, samples, targets string) ([][]float64, []float64, error) {
	if dataPath != "" {
		if samples != "" || targets != "" {
			return nil, nil, usageError("use either -data or inline -x/-y")
		}
		file, err := os.Open(dataPath)
		if err != nil {
			return nil, nil, err
		}
		defer func() {
			_ = file.Close()
		}()
		table, err := dataset.FromCSV(file, dataPath)
		if err != nil {
			return nil, nil, err
		}
		return table.X, table.Y, nil
	}
	if samples == "" || targets == "" {
		return nil, nil, usageError("fit requires -data or both -x and -y")
	}
	x, err := parseMatrix(samples)
	if err != nil {
		return nil, nil, err
	}
	y, err := parseVector(targets)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

// parseMatrix reads semicolon-separated rows of comma-separated features.
func parseMatrix(s string) ([][]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, usageError("sample rows are required (-x)")
	}
	rowTexts := strings.Split(s, ";")
	rows := make([][]float64, 0, len(rowTexts))
	for _, rowText := range rowTexts {
		cells := strings.Split(rowText, ",")
		row := make([]float64, 0, len(cells))
		for _, cell := range cells {
			value, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid sample value %q", cell)
			}
			row = append(row, value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseVector(s string) ([]float64, error) {
	rows, err := parseMatrix(s)
	if err != nil {
		return nil, err
	}
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if len(row) != 1 {
			return nil, fmt.Errorf("targets must hold one value per row")
		}
		values = append(values, row[0])
	}
	return values, nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: symregctl <eval|gradient|parse|render|simplify|distance|generate|fit|benchmark|archive|plot|problems|operators> [flags]", msg)
}
