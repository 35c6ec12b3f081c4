package results

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/ValentinKolb/kvperf/lib/model"
	"github.com/ValentinKolb/kvperf/lib/serializer"
	"github.com/ValentinKolb/kvperf/lib/util"
)

// newResult creates a fully populated result for a fixed/fixed16 run
func newResult(keySize int, opsPerSec float64) *model.TestResult {
	in := model.DefaultInputs()
	in.KeySize = keySize
	in.ValueSize = 16
	in.IterationCount = 2

	iterations := []model.IterationResult{
		{Rate: model.NewRate(1000, 1e6), Counts: model.OpCounts{Reads: 500, ReadHits: 480, Upserts: 500}},
		{Rate: model.NewRate(1000, 2e6), Counts: model.OpCounts{Reads: 510, ReadHits: 500, Upserts: 490}},
	}

	return &model.TestResult{
		Inputs:         in,
		RunID:          "run-" + strconv.Itoa(keySize) + "-" + strconv.FormatFloat(opsPerSec, 'f', 0, 64),
		Strategy:       "fixed" + strconv.Itoa(keySize) + "/fixed16",
		Status:         model.StatusOK,
		InitialInserts: model.NewRate(100_000, 25_000_000),
		Iterations:     iterations,
		OpsPerSec:      util.Stats{Mean: opsPerSec, Min: opsPerSec / 2, Max: opsPerSec * 1.5, StdDeviation: 12.5, MinMaxRatio: 1.0 / 3},
		Totals:         iterations[0].Counts.Add(iterations[1].Counts),
		Latency:        model.Latency{Samples: 32, MeanNs: 120.5, P50Ns: 100, P90Ns: 180, P99Ns: 950},
		Engine:         model.EngineInfo{Records: 100_000, Shards: 8, DistributionQuality: 0.97, AvgValueBytes: 16},
		ElapsedNs:      987_654_321,
	}
}

func TestRoundTrip(t *testing.T) {
	failed := newResult(32, 3000)
	failed.Status = model.StatusFailed
	failed.Errors = []string{"iteration 0: worker 1: panic: boom"}

	in := New(newResult(8, 1000), newResult(16, 2000), failed, newResult(8, 1500))

	for _, name := range []string{"json", "yaml", "gob"} {
		t.Run(name, func(t *testing.T) {
			s, err := serializer.ForFormat(name)
			if err != nil {
				t.Fatal(err)
			}

			path := filepath.Join(t.TempDir(), "results."+name)
			if err := in.WriteFile(path, nil); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			out, err := ReadFile(path, s)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if !reflect.DeepEqual(in.All(), out.All()) {
				t.Errorf("round trip mismatch\n got %+v\nwant %+v", out.All()[0], in.All()[0])
			}
		})
	}
}

func TestWriteFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")

	if err := New(newResult(8, 1), newResult(16, 2)).WriteFile(path, nil); err != nil {
		t.Fatal(err)
	}
	if err := New(newResult(64, 3)).WriteFile(path, nil); err != nil {
		t.Fatal(err)
	}

	out, err := ReadFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 1 || out.All()[0].Inputs.KeySize != 64 {
		t.Errorf("file was not rewritten: %d results", out.Len())
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadFile(filepath.Join(dir, "missing.json"), nil); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"format_version": 99, "results": []}`), 0o644)
	if _, err := ReadFile(bad, nil); err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("expected version error, got %v", err)
	}

	garbage := filepath.Join(dir, "garbage.json")
	os.WriteFile(garbage, []byte("not json"), 0o644)
	if _, err := ReadFile(garbage, nil); err == nil {
		t.Error("expected decode error")
	}
}

func TestMergeExample(t *testing.T) {
	a := New(newResult(8, 1000), newResult(16, 2000))
	b := New(newResult(8, 1100))

	union := Merge([]*TestResults{a, b}, false)
	if union.Len() != 3 {
		t.Fatalf("union has %d entries, want 3", union.Len())
	}
	all := union.All()
	if all[2].OpsPerSec.Mean != 1100 || all[0].OpsPerSec.Mean != 1000 {
		t.Error("B's keySize=8 result must coexist with A's, in source order")
	}

	inter := Merge([]*TestResults{a, b}, true)
	if inter.Len() != 1 {
		t.Fatalf("intersection has %d entries, want 1", inter.Len())
	}
	if got := inter.All()[0]; got.Inputs.KeySize != 8 || got.OpsPerSec.Mean != 1000 {
		t.Errorf("intersection should keep the first occurrence, got %+v", got.Inputs)
	}
}

func TestMergeProperties(t *testing.T) {
	a := New(newResult(8, 1), newResult(16, 2))
	b := New(newResult(16, 3), newResult(32, 4))
	c := New(newResult(16, 5), newResult(8, 6))

	keyCounts := func(r *TestResults) map[model.TestInputs]int {
		m := make(map[model.TestInputs]int)
		for _, res := range r.All() {
			m[res.Inputs]++
		}
		return m
	}

	// union is associative and commutative as a multiset
	left := Merge([]*TestResults{Merge([]*TestResults{a, b}, false), c}, false)
	right := Merge([]*TestResults{a, Merge([]*TestResults{b, c}, false)}, false)
	reversed := Merge([]*TestResults{c, b, a}, false)
	if !reflect.DeepEqual(keyCounts(left), keyCounts(right)) || !reflect.DeepEqual(keyCounts(left), keyCounts(reversed)) {
		t.Error("union is not associative/commutative")
	}

	// only keySize=16 is present everywhere
	inter := Merge([]*TestResults{a, b, c}, true)
	if inter.Len() != 1 || inter.All()[0].Inputs.KeySize != 16 {
		t.Errorf("unexpected intersection %v", keyCounts(inter))
	}

	// duplicates within the first source are represented once
	dup := Merge([]*TestResults{New(newResult(8, 1), newResult(8, 2)), New(newResult(8, 3))}, true)
	if dup.Len() != 1 {
		t.Errorf("intersection kept %d duplicates", dup.Len())
	}

	if Merge(nil, true).Len() != 0 {
		t.Error("merge of nothing must be empty")
	}
}

func TestMergeFiles(t *testing.T) {
	dir := t.TempDir()
	if err := New(newResult(8, 1000), newResult(16, 2000)).WriteFile(filepath.Join(dir, "a.json"), nil); err != nil {
		t.Fatal(err)
	}
	if err := New(newResult(8, 1100)).WriteFile(filepath.Join(dir, "b.yaml"), nil); err != nil {
		t.Fatal(err)
	}

	merged, err := MergeFiles([]string{filepath.Join(dir, "*.json"), filepath.Join(dir, "b.yaml")}, false)
	if err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}
	if merged.Len() != 3 {
		t.Errorf("merged %d results, want 3", merged.Len())
	}

	if _, err := MergeFiles([]string{filepath.Join(dir, "*.gob")}, false); err == nil {
		t.Error("expected error for filespec without matches")
	}
}

func TestCompareSelf(t *testing.T) {
	a := New(newResult(8, 1000), newResult(16, 2000), newResult(8, 1500))

	for _, mode := range []Mode{ModeThroughput, ModeFull} {
		cmp := Compare(a, a, mode)
		if len(cmp.Pairs) != 3 {
			t.Errorf("%s: %d pairs, want 3", mode, len(cmp.Pairs))
		}
		if !cmp.Identical() {
			t.Errorf("%s: self comparison is not identical", mode)
		}
		for _, p := range cmp.Pairs {
			if p.RunA != p.RunB {
				t.Errorf("%s: duplicates paired out of order: %s vs %s", mode, p.RunA, p.RunB)
			}
			for _, d := range p.Deltas {
				if d.Absolute != 0 || d.Relative != 0 {
					t.Errorf("%s: non-zero delta %+v", mode, d)
				}
			}
		}
	}
}

func TestCompare(t *testing.T) {
	a := New(newResult(8, 1000), newResult(16, 2000), newResult(16, 2100))
	b := New(newResult(8, 1500), newResult(32, 100), newResult(16, 1000))

	cmp := Compare(a, b, ModeThroughput)

	if len(cmp.Pairs) != 2 {
		t.Fatalf("%d pairs, want 2", len(cmp.Pairs))
	}
	if len(cmp.OnlyInA) != 1 || cmp.OnlyInA[0].KeySize != 16 {
		t.Errorf("OnlyInA = %v", cmp.OnlyInA)
	}
	if len(cmp.OnlyInB) != 1 || cmp.OnlyInB[0].KeySize != 32 {
		t.Errorf("OnlyInB = %v", cmp.OnlyInB)
	}

	var mean Delta
	for _, d := range cmp.Pairs[0].Deltas {
		if d.Metric == "mean_ops_per_sec" {
			mean = d
		}
	}
	if mean.A != 1000 || mean.B != 1500 || mean.Absolute != 500 || mean.Relative != 0.5 {
		t.Errorf("unexpected delta %+v", mean)
	}

	if got := len(Compare(a, b, ModeFull).Pairs[0].Deltas); got != len(fullMetrics) {
		t.Errorf("full mode has %d metrics, want %d", got, len(fullMetrics))
	}
}

func TestNewDeltaZeroBase(t *testing.T) {
	d := NewDelta("x", 0, 10)
	if d.Relative != 0 || d.Absolute != 10 {
		t.Errorf("unexpected delta %+v", d)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Full"); err != nil || m != ModeFull {
		t.Errorf("ParseMode(Full) = %v, %v", m, err)
	}
	if _, err := ParseMode("latency"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestGenerateReport(t *testing.T) {
	a := New(newResult(8, 1000), newResult(16, 2000))
	b := New(newResult(8, 1500))

	var buf bytes.Buffer
	if err := GenerateReport(&buf, Compare(a, b, ModeThroughput)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{"## Comparison (throughput)", "fixed8/fixed16", "mean_ops_per_sec", "+50.00%", "Only in A", "--key-size 16"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Only in B") {
		t.Error("empty section rendered")
	}

	buf.Reset()
	if err := GenerateJSON(&buf, Compare(a, b, ModeFull)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"mode": "full"`) {
		t.Errorf("unexpected json: %s", buf.String())
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := New(newResult(8, 1000), newResult(16, 2000)).WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("%d rows, want 3", len(rows))
	}
	if len(rows[1]) != len(csvHeader) {
		t.Errorf("row has %d columns, header %d", len(rows[1]), len(csvHeader))
	}
	if rows[2][1] != "fixed16/fixed16" {
		t.Errorf("unexpected strategy column %q", rows[2][1])
	}
}
