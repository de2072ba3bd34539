package period

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Trend is the direction of a comparison's change.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// Comparison is a metric computed over a current and a previous period.
type Comparison struct {
	Current    float64 `json:"current"`
	Previous   float64 `json:"previous"`
	Change     float64 `json:"change"`
	Percentage float64 `json:"percentage"`
	Trend      Trend   `json:"trend"`
}

var hundred = decimal.NewFromInt(100)

// Compare sums valueOf over both collections, or counts records when valueOf is
// nil. Percentage is zero whenever the previous total is not positive.
func Compare[T any](current, previous []T, valueOf func(T) any) Comparison {
	cur := total(current, valueOf)
	prev := total(previous, valueOf)
	change := cur.Sub(prev)

	pct := decimal.Zero
	if prev.IsPositive() {
		pct = change.Div(prev).Mul(hundred)
	}

	trend := TrendNeutral
	switch change.Sign() {
	case 1:
		trend = TrendUp
	case -1:
		trend = TrendDown
	}

	return Comparison{
		Current:    cur.InexactFloat64(),
		Previous:   prev.InexactFloat64(),
		Change:     change.InexactFloat64(),
		Percentage: pct.InexactFloat64(),
		Trend:      trend,
	}
}

// CompareByField is Compare over map-shaped records. An empty valueField counts records.
func CompareByField[M ~map[string]any](current, previous []M, valueField string) Comparison {
	if valueField == "" {
		return Compare[M](current, previous, nil)
	}
	return Compare(current, previous, Field[M](valueField))
}

func total[T any](records []T, valueOf func(T) any) decimal.Decimal {
	if valueOf == nil {
		return decimal.NewFromInt(int64(len(records)))
	}
	sum := decimal.Zero
	for _, record := range records {
		sum = sum.Add(Value(valueOf(record)))
	}
	return sum
}

// Number coerces a record attribute to a float. Anything that does not parse
// to a finite number counts as zero.
func Number(value any) float64 {
	return Value(value).InexactFloat64()
}

// Value coerces a record attribute to a decimal, with unparseable, NaN and
// infinite inputs mapped to zero.
func Value(value any) decimal.Decimal {
	switch v := value.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return decimal.NewFromInt(int64(v))
	case int8:
		return decimal.NewFromInt(int64(v))
	case int16:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return fromUint(uint64(v))
	case uint8:
		return decimal.NewFromInt(int64(v))
	case uint16:
		return decimal.NewFromInt(int64(v))
	case uint32:
		return decimal.NewFromInt(int64(v))
	case uint64:
		return fromUint(v)
	case bool:
		if v {
			return decimal.NewFromInt(1)
		}
		return decimal.Zero
	case json.Number:
		return fromString(v.String())
	case string:
		return fromString(v)
	default:
		return decimal.Zero
	}
}

func fromString(value string) decimal.Decimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(value); err == nil {
		return d
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return decimal.Zero
	}
	return fromFloat(f)
}

func fromUint(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// fromFloat maps NaN and both infinities to zero.
func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
