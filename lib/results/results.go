package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ValentinKolb/kvperf/lib/model"
	"github.com/ValentinKolb/kvperf/lib/serializer"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("results")

// FormatVersion is the version of the result file envelope.
const FormatVersion = 1

// TestResults is an ordered collection of test results.
// It is not safe for concurrent mutation.
type TestResults struct {
	results []*model.TestResult
}

// New creates a collection holding results in the given order.
func New(results ...*model.TestResult) *TestResults {
	return &TestResults{results: append([]*model.TestResult(nil), results...)}
}

// Add appends res. Duplicates are kept.
func (r *TestResults) Add(res *model.TestResult) {
	r.results = append(r.results, res)
}

// Len returns the number of results.
func (r *TestResults) Len() int {
	return len(r.results)
}

// All returns the results in order.
func (r *TestResults) All() []*model.TestResult {
	return append([]*model.TestResult(nil), r.results...)
}

// Keys returns the set of distinct inputs.
func (r *TestResults) Keys() map[model.TestInputs]struct{} {
	keys := make(map[model.TestInputs]struct{}, len(r.results))
	for _, res := range r.results {
		keys[res.Inputs] = struct{}{}
	}
	return keys
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

// envelope is the top-level structure of a result file
type envelope struct {
	FormatVersion int                 `json:"format_version" yaml:"format_version"`
	Results       []*model.TestResult `json:"results" yaml:"results"`
}

// Encode serializes the collection with s.
func (r *TestResults) Encode(s serializer.IResultSerializer) ([]byte, error) {
	return s.Serialize(envelope{FormatVersion: FormatVersion, Results: r.results})
}

// Decode deserializes a collection written by Encode.
func Decode(data []byte, s serializer.IResultSerializer) (*TestResults, error) {
	var env envelope
	if err := s.Deserialize(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode %s results: %w", s.Name(), err)
	}
	if env.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported result format version %d (expected %d)", env.FormatVersion, FormatVersion)
	}
	for i, res := range env.Results {
		if res == nil {
			return nil, fmt.Errorf("result %d is empty", i)
		}
	}
	return &TestResults{results: env.Results}, nil
}

// WriteFile replaces the file at path with the collection. s selects the
// codec; nil selects it from the file extension.
func (r *TestResults) WriteFile(path string, s serializer.IResultSerializer) error {
	if s == nil {
		s = serializer.ForPath(path)
	}
	data, err := r.Encode(s)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	// write next to the target and rename, so a failed write keeps the old file
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	Logger.Debugf("wrote %d results to %s (%s)", r.Len(), path, s.Name())
	return nil
}

// ReadFile reads a result file. s selects the codec; nil selects it from
// the file extension.
func ReadFile(path string, s serializer.IResultSerializer) (*TestResults, error) {
	if s == nil {
		s = serializer.ForPath(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	res, err := Decode(data, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	Logger.Debugf("read %d results from %s", res.Len(), path)
	return res, nil
}

// --------------------------------------------------------------------------
// CSV export
// --------------------------------------------------------------------------

var csvHeader = []string{
	"RunID", "Strategy", "Status",
	"KeyKind", "KeySize", "ValueKind", "ValueSize", "Threads",
	"InitKeys", "OpKeys", "Ops", "Iterations", "Mix",
	"Distribution", "DistributionParameter", "Seed", "Shards",
	"InitialInsertsOpsPerSec", "MeanOpsPerSec", "MinOpsPerSec", "MaxOpsPerSec", "StdDevOpsPerSec",
	"LatencyP50Ns", "LatencyP90Ns", "LatencyP99Ns", "ElapsedNs",
}

// WriteCSV writes one row per result.
func (r *TestResults) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	for _, res := range r.results {
		in := res.Inputs
		row := []string{
			res.RunID, res.Strategy, string(res.Status),
			string(in.KeyKind), strconv.Itoa(in.KeySize), string(in.ValueKind), strconv.Itoa(in.ValueSize),
			strconv.Itoa(in.ThreadCount), strconv.Itoa(in.InitKeyCount), strconv.Itoa(in.OperationKeyCount),
			strconv.Itoa(in.OperationCount), strconv.Itoa(in.IterationCount), in.MixString(),
			string(in.Distribution), strconv.FormatFloat(in.DistributionParameter, 'g', -1, 64),
			strconv.FormatInt(in.DistributionSeed, 10), strconv.Itoa(in.Shards),
			f(res.InitialInserts.OpsPerSec), f(res.OpsPerSec.Mean), f(res.OpsPerSec.Min), f(res.OpsPerSec.Max),
			f(res.OpsPerSec.StdDeviation),
			f(res.Latency.P50Ns), f(res.Latency.P90Ns), f(res.Latency.P99Ns),
			strconv.FormatInt(res.ElapsedNs, 10),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for run %s: %w", res.RunID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
