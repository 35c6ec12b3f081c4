package runner

import (
	"context"
	"strconv"

	"github.com/ValentinKolb/kvperf/lib/model"
	"github.com/ValentinKolb/kvperf/lib/types"
)

// runFunc executes a test run for one concrete key/value encoding pair.
type runFunc func(ctx context.Context, r *TestRun) (*model.TestResult, error)

// Strategy is a resolved key/value encoding pair.
type Strategy struct {
	Key   string // key encoding, e.g. "fixed64"
	Value string // value encoding, e.g. "varlen"
	run   runFunc
}

// Name returns "key/value", e.g. "fixed8/fixed16".
func (s Strategy) Name() string {
	return s.Key + "/" + s.Value
}

// Resolve selects the encoding pair for the kinds and sizes of in.
// A fixed size outside model.FixedWidths fails with a ConfigError matching
// model.ErrUnsupportedWidth, for keys and values alike.
//
// A fixed key with an object value uses the varlen value path.
func Resolve(in model.TestInputs) (Strategy, error) {
	switch in.KeyKind {
	case model.KindVarLen:
		switch in.ValueKind {
		case model.KindVarLen:
			return Strategy{"varlen", "varlen", varLenVarLen}, nil
		case model.KindObject:
			return Strategy{"varlen", "object", varLenObject}, nil
		case model.KindFixed:
			vi, err := model.WidthIndex("value_size", in.ValueSize)
			if err != nil {
				return Strategy{}, err
			}
			return Strategy{"varlen", fixedName(vi), varLenFixedRow[vi]}, nil
		}

	case model.KindObject:
		switch in.ValueKind {
		case model.KindVarLen:
			return Strategy{"object", "varlen", objectVarLen}, nil
		case model.KindObject:
			return Strategy{"object", "object", objectObject}, nil
		case model.KindFixed:
			vi, err := model.WidthIndex("value_size", in.ValueSize)
			if err != nil {
				return Strategy{}, err
			}
			return Strategy{"object", fixedName(vi), objectFixedRow[vi]}, nil
		}

	case model.KindFixed:
		ki, err := model.WidthIndex("key_size", in.KeySize)
		if err != nil {
			return Strategy{}, err
		}
		switch in.ValueKind {
		case model.KindVarLen, model.KindObject:
			return Strategy{fixedName(ki), "varlen", fixedVarLenRow[ki]}, nil
		case model.KindFixed:
			vi, err := model.WidthIndex("value_size", in.ValueSize)
			if err != nil {
				return Strategy{}, err
			}
			return Strategy{fixedName(ki), fixedName(vi), fixedFixedTable[ki][vi]}, nil
		}

	default:
		return Strategy{}, model.NewInputError("key_kind", in.KeyKind, "expected one of: fixed, varlen, object")
	}

	return Strategy{}, model.NewInputError("value_kind", in.ValueKind, "expected one of: fixed, varlen, object")
}

func fixedName(widthIndex int) string {
	return "fixed" + strconv.Itoa(model.FixedWidths[widthIndex])
}

// --------------------------------------------------------------------------
// Instantiation tables
//
// Rows and columns follow the order of model.FixedWidths.
// --------------------------------------------------------------------------

var fixedFixedTable = [model.NumWidths][model.NumWidths]runFunc{
	{
		fixedFixed[types.Fixed8, types.Fixed8], fixedFixed[types.Fixed8, types.Fixed16],
		fixedFixed[types.Fixed8, types.Fixed32], fixedFixed[types.Fixed8, types.Fixed64],
		fixedFixed[types.Fixed8, types.Fixed128], fixedFixed[types.Fixed8, types.Fixed256],
	},
	{
		fixedFixed[types.Fixed16, types.Fixed8], fixedFixed[types.Fixed16, types.Fixed16],
		fixedFixed[types.Fixed16, types.Fixed32], fixedFixed[types.Fixed16, types.Fixed64],
		fixedFixed[types.Fixed16, types.Fixed128], fixedFixed[types.Fixed16, types.Fixed256],
	},
	{
		fixedFixed[types.Fixed32, types.Fixed8], fixedFixed[types.Fixed32, types.Fixed16],
		fixedFixed[types.Fixed32, types.Fixed32], fixedFixed[types.Fixed32, types.Fixed64],
		fixedFixed[types.Fixed32, types.Fixed128], fixedFixed[types.Fixed32, types.Fixed256],
	},
	{
		fixedFixed[types.Fixed64, types.Fixed8], fixedFixed[types.Fixed64, types.Fixed16],
		fixedFixed[types.Fixed64, types.Fixed32], fixedFixed[types.Fixed64, types.Fixed64],
		fixedFixed[types.Fixed64, types.Fixed128], fixedFixed[types.Fixed64, types.Fixed256],
	},
	{
		fixedFixed[types.Fixed128, types.Fixed8], fixedFixed[types.Fixed128, types.Fixed16],
		fixedFixed[types.Fixed128, types.Fixed32], fixedFixed[types.Fixed128, types.Fixed64],
		fixedFixed[types.Fixed128, types.Fixed128], fixedFixed[types.Fixed128, types.Fixed256],
	},
	{
		fixedFixed[types.Fixed256, types.Fixed8], fixedFixed[types.Fixed256, types.Fixed16],
		fixedFixed[types.Fixed256, types.Fixed32], fixedFixed[types.Fixed256, types.Fixed64],
		fixedFixed[types.Fixed256, types.Fixed128], fixedFixed[types.Fixed256, types.Fixed256],
	},
}

var fixedVarLenRow = [model.NumWidths]runFunc{
	fixedVarLen[types.Fixed8], fixedVarLen[types.Fixed16], fixedVarLen[types.Fixed32],
	fixedVarLen[types.Fixed64], fixedVarLen[types.Fixed128], fixedVarLen[types.Fixed256],
}

var varLenFixedRow = [model.NumWidths]runFunc{
	varLenFixed[types.Fixed8], varLenFixed[types.Fixed16], varLenFixed[types.Fixed32],
	varLenFixed[types.Fixed64], varLenFixed[types.Fixed128], varLenFixed[types.Fixed256],
}

var objectFixedRow = [model.NumWidths]runFunc{
	objectFixed[types.Fixed8], objectFixed[types.Fixed16], objectFixed[types.Fixed32],
	objectFixed[types.Fixed64], objectFixed[types.Fixed128], objectFixed[types.Fixed256],
}

// --------------------------------------------------------------------------
// Pair constructors
// --------------------------------------------------------------------------

func fixedFixed[K types.Blittable[K], V types.Blittable[V]](ctx context.Context, r *TestRun) (*model.TestResult, error) {
	return execute[K, V](ctx, r, types.NewBlittableKeys[K](), types.NewBlittableValues[V]())
}

func fixedVarLen[K types.Blittable[K]](ctx context.Context, r *TestRun) (*model.TestResult, error) {
	return execute[K, types.VarLen](ctx, r, types.NewBlittableKeys[K](), types.NewVarLenValues(r.Inputs.ValueSize))
}

func varLenFixed[V types.Blittable[V]](ctx context.Context, r *TestRun) (*model.TestResult, error) {
	return execute[types.VarLen, V](ctx, r, types.NewVarLenKeys(r.Inputs.KeySize), types.NewBlittableValues[V]())
}

func objectFixed[V types.Blittable[V]](ctx context.Context, r *TestRun) (*model.TestResult, error) {
	return execute[types.ObjectKey, V](ctx, r, types.NewObjectKeys(), types.NewBlittableValues[V]())
}

func varLenVarLen(ctx context.Context, r *TestRun) (*model.TestResult, error) {
	return execute[types.VarLen, types.VarLen](ctx, r, types.NewVarLenKeys(r.Inputs.KeySize), types.NewVarLenValues(r.Inputs.ValueSize))
}

func varLenObject(ctx context.Context, r *TestRun) (*model.TestResult, error) {
	return execute[types.VarLen, types.ObjectValue](ctx, r, types.NewVarLenKeys(r.Inputs.KeySize), types.NewObjectValues(r.Inputs.ValueSize))
}

func objectVarLen(ctx context.Context, r *TestRun) (*model.TestResult, error) {
	return execute[types.ObjectKey, types.VarLen](ctx, r, types.NewObjectKeys(), types.NewVarLenValues(r.Inputs.ValueSize))
}

func objectObject(ctx context.Context, r *TestRun) (*model.TestResult, error) {
	return execute[types.ObjectKey, types.ObjectValue](ctx, r, types.NewObjectKeys(), types.NewObjectValues(r.Inputs.ValueSize))
}
