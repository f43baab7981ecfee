// Package symreg is the public facade over the equation engine: parsing,
// evaluation, simplification, constants fitting, benchmarking and the
// persistent equation archive.
package symreg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"

	"symreg/internal/benchmark"
	"symreg/internal/constants"
	"symreg/internal/equation"
	"symreg/internal/eval"
	"symreg/internal/generate"
	"symreg/internal/model"
	"symreg/internal/op"
	"symreg/internal/parse"
	"symreg/internal/program"
	"symreg/internal/render"
	"symreg/internal/simplify"
	"symreg/internal/storage"
	"symreg/internal/tuning"
)

const defaultDBPath = "symreg.db"

type Options struct {
	StoreKind  string
	DBPath     string
	Simplifier string
	Policy     string
}

type Client struct {
	store      storage.Store
	simplifier string
	policy     string

	mu          sync.Mutex
	initialized bool
}

// Equation is a handle on one symbolic-regression individual.
type Equation struct {
	inner *equation.Equation
}

type NewEquationRequest struct {
	Text       string
	Simplifier string
	Policy     string
}

type EvaluateRequest struct {
	Text string
	X    [][]float64
}

type GradientRequest struct {
	Text   string
	X      [][]float64
	Target string
}

type GradientResult struct {
	Values   []float64
	Jacobian [][]float64
}

type SimplifyRequest struct {
	Text     string
	Strategy string
}

type SimplifyResult struct {
	Text      string
	Rows      int
	Constants []float64
}

type FormatRequest struct {
	Text     string
	Notation string
}

type FitRequest struct {
	Equation *Equation
	Text     string
	X        [][]float64
	Y        []float64
	Fitter   string
	Params   map[string]float64
	// Label, when set, archives the fitted equation and its trace.
	Label string
}

type FitSummary struct {
	EquationID  string
	TraceID     string
	Text        string
	Fitter      string
	InitialMSE  float64
	FinalMSE    float64
	Iterations  int
	Evaluations int
	GoalReached bool
	History     []float64
}

type ArchiveRequest struct {
	Label    string
	Equation *Equation
}

type ArchiveInfo struct {
	ID         string
	Label      string
	Text       string
	Complexity int
	Fitness    float64
	FitnessSet bool
	CreatedAt  string
}

type TraceInfo struct {
	ID          string
	EquationID  string
	Fitter      string
	InitialMSE  float64
	FinalMSE    float64
	GoalReached bool
	History     []float64
	CreatedAt   string
}

type BenchmarkRequest struct {
	Problem      string
	Samples      int
	Seed         int64
	Candidates   int
	ProgramSize  int
	Fitter       string
	FitterParams map[string]float64
}

type BenchmarkSummary struct {
	Problem     string
	Samples     int
	Candidates  int
	Text        string
	BaselineMSE float64
	FinalMSE    float64
	GoalReached bool
	History     []float64
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	simplifier := simplify.NormalizeStrategyName(opts.Simplifier)
	if _, err := simplify.FromName(simplifier); err != nil {
		return nil, err
	}
	policy := constants.NormalizePolicyName(opts.Policy)
	if _, err := constants.FromName(policy); err != nil {
		return nil, err
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, simplifier: simplifier, policy: policy}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) ensureStore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// NewEquation parses an equation text into a fresh individual. Parsed
// literals become the starting constants vector.
func (c *Client) NewEquation(req NewEquationRequest) (*Equation, error) {
	simplifierName := req.Simplifier
	if simplifierName == "" {
		simplifierName = c.simplifier
	}
	policyName := req.Policy
	if policyName == "" {
		policyName = c.policy
	}
	strategy, err := simplify.FromName(simplifierName)
	if err != nil {
		return nil, err
	}
	policy, err := constants.FromName(policyName)
	if err != nil {
		return nil, err
	}

	p, values, err := parse.Equation(req.Text)
	if err != nil {
		return nil, err
	}
	eq := equation.New(equation.Config{Simplifier: strategy, Policy: policy})
	if err := eq.SetProgram(p); err != nil {
		return nil, err
	}
	eq.SetConstants(values)
	return &Equation{inner: eq}, nil
}

// ParseEquation is NewEquation with the client's default strategy and policy.
func (c *Client) ParseEquation(text string) (*Equation, error) {
	return c.NewEquation(NewEquationRequest{Text: text})
}

func (c *Client) EvaluateAt(req EvaluateRequest) ([]float64, error) {
	eq, err := c.ParseEquation(req.Text)
	if err != nil {
		return nil, err
	}
	return eq.EvaluateAt(req.X)
}

func (c *Client) GradientAt(req GradientRequest) (GradientResult, error) {
	eq, err := c.ParseEquation(req.Text)
	if err != nil {
		return GradientResult{}, err
	}
	return eq.GradientAt(req.X, req.Target)
}

func (c *Client) SimplifyProgram(req SimplifyRequest) (SimplifyResult, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = c.simplifier
	}
	eq, err := c.NewEquation(NewEquationRequest{Text: req.Text, Simplifier: strategy})
	if err != nil {
		return SimplifyResult{}, err
	}
	text, err := eq.Format("console", false)
	if err != nil {
		return SimplifyResult{}, err
	}
	rows, err := eq.Complexity()
	if err != nil {
		return SimplifyResult{}, err
	}
	return SimplifyResult{Text: text, Rows: rows, Constants: eq.Constants()}, nil
}

func (c *Client) FormatEquation(req FormatRequest) (string, error) {
	p, values, err := parse.Equation(req.Text)
	if err != nil {
		return "", err
	}
	return render.Format(req.Notation, p, values)
}

// DistanceBetween counts differing program rows between two equation texts.
func (c *Client) DistanceBetween(a, b string) (int, error) {
	pa, _, err := parse.Equation(a)
	if err != nil {
		return 0, err
	}
	pb, _, err := parse.Equation(b)
	if err != nil {
		return 0, err
	}
	return program.Distance(pa, pb), nil
}

// FitConstants optimizes an equation's constants against sample data. The
// equation comes either from req.Equation (fitted in place) or from req.Text.
// With a label the fitted equation and its trace land in the archive.
func (c *Client) FitConstants(ctx context.Context, req FitRequest) (FitSummary, error) {
	eq := req.Equation
	if eq == nil {
		if req.Text == "" {
			return FitSummary{}, errors.New("fit requires an equation or text")
		}
		parsed, err := c.ParseEquation(req.Text)
		if err != nil {
			return FitSummary{}, err
		}
		eq = parsed
	}

	fitter, err := tuning.FromConfig(req.Fitter, req.Params)
	if err != nil {
		return FitSummary{}, err
	}
	x, err := denseFromRows(req.X)
	if err != nil {
		return FitSummary{}, err
	}
	if len(req.Y) != len(req.X) {
		return FitSummary{}, fmt.Errorf("expected %d targets, got %d", len(req.X), len(req.Y))
	}
	y := mat.NewVecDense(len(req.Y), append([]float64(nil), req.Y...))

	report, err := fitter.Fit(ctx, eq.inner, x, y)
	if err != nil {
		return FitSummary{}, err
	}
	eq.inner.SetFitness(report.FinalMSE)

	text, err := eq.Format("console", false)
	if err != nil {
		return FitSummary{}, err
	}
	summary := FitSummary{
		Text:        text,
		Fitter:      fitter.Name(),
		InitialMSE:  report.InitialMSE,
		FinalMSE:    report.FinalMSE,
		Iterations:  report.IterationsExecuted,
		Evaluations: report.Evaluations,
		GoalReached: report.GoalReached,
		History:     append([]float64(nil), report.History...),
	}

	if req.Label != "" {
		info, err := c.ArchiveEquation(ctx, ArchiveRequest{Label: req.Label, Equation: eq})
		if err != nil {
			return FitSummary{}, err
		}
		summary.EquationID = info.ID

		trace := model.FitTraceRecord{
			VersionedRecord:    storage.CurrentVersions(),
			ID:                 model.NewID(),
			EquationID:         info.ID,
			Fitter:             fitter.Name(),
			IterationsPlanned:  report.IterationsPlanned,
			IterationsExecuted: report.IterationsExecuted,
			Evaluations:        report.Evaluations,
			Accepted:           report.Accepted,
			Rejected:           report.Rejected,
			InitialMSE:         report.InitialMSE,
			FinalMSE:           report.FinalMSE,
			GoalReached:        report.GoalReached,
			History:            append([]float64(nil), report.History...),
			CreatedAt:          model.Timestamp(),
		}
		if err := c.store.SaveFitTrace(ctx, trace); err != nil {
			return FitSummary{}, err
		}
		summary.TraceID = trace.ID
	}
	return summary, nil
}

func (c *Client) ArchiveEquation(ctx context.Context, req ArchiveRequest) (ArchiveInfo, error) {
	if req.Equation == nil {
		return ArchiveInfo{}, errors.New("archive requires an equation")
	}
	if req.Label == "" {
		return ArchiveInfo{}, errors.New("archive requires a label")
	}
	if err := c.ensureStore(ctx); err != nil {
		return ArchiveInfo{}, err
	}

	record := model.NewEquationRecord(req.Label, req.Equation.inner.DumpState())
	record.VersionedRecord = storage.CurrentVersions()
	if err := c.store.SaveEquation(ctx, record); err != nil {
		return ArchiveInfo{}, err
	}
	return c.archiveInfo(record)
}

func (c *Client) LoadEquation(ctx context.Context, id string) (*Equation, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	record, ok, err := c.store.GetEquation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("equation not found: %s", id)
	}
	state, err := record.State()
	if err != nil {
		return nil, err
	}
	eq, err := equation.RestoreState(state)
	if err != nil {
		return nil, err
	}
	return &Equation{inner: eq}, nil
}

func (c *Client) ListArchive(ctx context.Context) ([]ArchiveInfo, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	records, err := c.store.ListEquations(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]ArchiveInfo, 0, len(records))
	for _, record := range records {
		info, err := c.archiveInfo(record)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (c *Client) DeleteArchived(ctx context.Context, id string) error {
	if err := c.ensureStore(ctx); err != nil {
		return err
	}
	return c.store.DeleteEquation(ctx, id)
}

func (c *Client) LoadFitTrace(ctx context.Context, id string) (TraceInfo, error) {
	if err := c.ensureStore(ctx); err != nil {
		return TraceInfo{}, err
	}
	record, ok, err := c.store.GetFitTrace(ctx, id)
	if err != nil {
		return TraceInfo{}, err
	}
	if !ok {
		return TraceInfo{}, fmt.Errorf("fit trace not found: %s", id)
	}
	return TraceInfo{
		ID:          record.ID,
		EquationID:  record.EquationID,
		Fitter:      record.Fitter,
		InitialMSE:  record.InitialMSE,
		FinalMSE:    record.FinalMSE,
		GoalReached: record.GoalReached,
		History:     append([]float64(nil), record.History...),
		CreatedAt:   record.CreatedAt,
	}, nil
}

// Benchmark samples a registered problem, generates random candidates, fits
// the best one and reports the result.
func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest) (BenchmarkSummary, error) {
	if req.Samples <= 0 {
		req.Samples = 64
	}
	if req.Candidates <= 0 {
		req.Candidates = 32
	}
	if req.ProgramSize <= 0 {
		req.ProgramSize = 8
	}

	problem, err := benchmark.FromName(req.Problem)
	if err != nil {
		return BenchmarkSummary{}, err
	}
	rng := rand.New(rand.NewSource(req.Seed))
	table, err := problem.Sample(rng, req.Samples)
	if err != nil {
		return BenchmarkSummary{}, err
	}

	strategy, err := simplify.FromName(c.simplifier)
	if err != nil {
		return BenchmarkSummary{}, err
	}
	policy, err := constants.FromName(c.policy)
	if err != nil {
		return BenchmarkSummary{}, err
	}
	gen := &generate.Generator{Rand: rng, Features: problem.Features()}

	var best *equation.Equation
	bestMSE := math.Inf(1)
	for i := 0; i < req.Candidates; i++ {
		if err := ctx.Err(); err != nil {
			return BenchmarkSummary{}, err
		}
		p, err := gen.Program(req.ProgramSize)
		if err != nil {
			return BenchmarkSummary{}, err
		}
		eq := equation.New(equation.Config{Simplifier: strategy, Policy: policy})
		if err := eq.SetProgram(p); err != nil {
			return BenchmarkSummary{}, err
		}
		count, err := eq.LocalOptimizationParamCount()
		if err != nil {
			return BenchmarkSummary{}, err
		}
		eq.SetConstants(gen.ConstantValues(count, 2))

		score, err := benchmark.Score(eq, table)
		if err != nil {
			return BenchmarkSummary{}, err
		}
		if best == nil || score < bestMSE {
			best = eq
			bestMSE = score
		}
	}
	if best == nil {
		return BenchmarkSummary{}, fmt.Errorf("no viable candidate for problem %s", problem.Name())
	}

	fitter, err := tuning.FromConfig(req.Fitter, req.FitterParams)
	if err != nil {
		return BenchmarkSummary{}, err
	}
	x, y, err := table.Matrices()
	if err != nil {
		return BenchmarkSummary{}, err
	}
	report, err := fitter.Fit(ctx, best, x, y)
	if err != nil {
		return BenchmarkSummary{}, err
	}
	text, err := best.Format("console", false)
	if err != nil {
		return BenchmarkSummary{}, err
	}
	return BenchmarkSummary{
		Problem:     problem.Name(),
		Samples:     req.Samples,
		Candidates:  req.Candidates,
		Text:        text,
		BaselineMSE: bestMSE,
		FinalMSE:    report.FinalMSE,
		GoalReached: report.GoalReached,
		History:     append([]float64(nil), report.History...),
	}, nil
}

// Problems lists the registered benchmark problems.
func (c *Client) Problems() []string {
	return benchmark.List()
}

// Operators lists the registered opcodes.
func (c *Client) Operators() []string {
	return op.List()
}

func (e *Equation) EvaluateAt(x [][]float64) ([]float64, error) {
	dense, err := denseFromRows(x)
	if err != nil {
		return nil, err
	}
	values, err := e.inner.EvaluateAt(dense)
	if err != nil {
		return nil, err
	}
	out := make([]float64, values.Len())
	for i := range out {
		out[i] = values.AtVec(i)
	}
	return out, nil
}

func (e *Equation) GradientAt(x [][]float64, target string) (GradientResult, error) {
	dense, err := denseFromRows(x)
	if err != nil {
		return GradientResult{}, err
	}
	evalTarget, err := targetFromName(target)
	if err != nil {
		return GradientResult{}, err
	}
	values, jacobian, err := e.inner.GradientAt(dense, evalTarget)
	if err != nil {
		return GradientResult{}, err
	}

	result := GradientResult{Values: make([]float64, values.Len())}
	for i := range result.Values {
		result.Values[i] = values.AtVec(i)
	}
	if jacobian == nil {
		// Zero-width target (e.g. constants on a constant-free equation):
		// one empty row per sample, matching the declared shape.
		result.Jacobian = make([][]float64, values.Len())
		for i := range result.Jacobian {
			result.Jacobian[i] = []float64{}
		}
		return result, nil
	}
	rows, cols := jacobian.Dims()
	result.Jacobian = make([][]float64, rows)
	for r := 0; r < rows; r++ {
		row := make([]float64, cols)
		for col := 0; col < cols; col++ {
			row[col] = jacobian.At(r, col)
		}
		result.Jacobian[r] = row
	}
	return result, nil
}

func (e *Equation) Format(notation string, raw bool) (string, error) {
	return e.inner.Format(notation, raw)
}

func (e *Equation) Constants() []float64 {
	return e.inner.Constants()
}

func (e *Equation) SetConstants(values []float64) {
	e.inner.SetConstants(values)
}

func (e *Equation) Complexity() (int, error) {
	return e.inner.Complexity()
}

func (e *Equation) NeedsFit() (bool, error) {
	return e.inner.NeedsLocalOptimization()
}

func (e *Equation) Fitness() (float64, bool) {
	return e.inner.Fitness(), e.inner.FitnessSet()
}

func (e *Equation) Age() int {
	return e.inner.Age()
}

func (e *Equation) SetAge(age int) {
	e.inner.SetAge(age)
}

func (e *Equation) Clone() *Equation {
	return &Equation{inner: e.inner.Clone()}
}

func (c *Client) archiveInfo(record model.EquationRecord) (ArchiveInfo, error) {
	simplified, err := model.ProgramFromCommands(record.Simplified)
	if err != nil {
		return ArchiveInfo{}, err
	}
	text, err := render.Format("console", simplified, record.Constants)
	if err != nil {
		return ArchiveInfo{}, err
	}
	return ArchiveInfo{
		ID:         record.ID,
		Label:      record.Label,
		Text:       text,
		Complexity: len(simplified),
		Fitness:    record.Fitness,
		FitnessSet: record.FitSet,
		CreatedAt:  record.CreatedAt,
	}, nil
}

func targetFromName(name string) (eval.Target, error) {
	switch name {
	case "", "variables", "features":
		return eval.Variables, nil
	case "constants":
		return eval.Constants, nil
	default:
		return eval.Variables, fmt.Errorf("unsupported gradient target: %s", name)
	}
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, errors.New("at least one sample row is required")
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, errors.New("sample rows need at least one feature")
	}
	dense := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d: expected %d features, got %d", i, cols, len(row))
		}
		dense.SetRow(i, row)
	}
	return dense, nil
}
