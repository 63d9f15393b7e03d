package pushdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"druid-connect/internal/plan"
)

func TestRecognizeTimeGroup(t *testing.T) {
	str := func(v string) plan.Expr { return &plan.Literal{Type: plan.LiteralString, Value: v} }

	cases := []struct {
		name string
		expr plan.Expr
		want *TimeGroupDescriptor
	}{
		{
			name: "date_format over column",
			expr: &plan.ScalarFunc{Name: "date_format", Args: []plan.Expr{col("__time"), str("yyyy-MM-dd")}},
			want: &TimeGroupDescriptor{TimeColumn: "__time", OutputFormat: "yyyy-MM-dd", TimeZone: "UTC"},
		},
		{
			name: "date_format over parse_time",
			expr: &plan.ScalarFunc{Name: "date_format", Args: []plan.Expr{
				&plan.ScalarFunc{Name: "parse_time", Args: []plan.Expr{col("signupDate"), str("yyyyMMdd")}},
				str("yyyy-MM"),
			}},
			want: &TimeGroupDescriptor{TimeColumn: "signupDate", InputFormat: "yyyyMMdd", OutputFormat: "yyyy-MM", TimeZone: "UTC"},
		},
		{
			name: "date_trunc month",
			expr: &plan.ScalarFunc{Name: "date_trunc", Args: []plan.Expr{str("month"), col("__time")}},
			want: &TimeGroupDescriptor{TimeColumn: "__time", OutputFormat: "yyyy-MM", TimeZone: "UTC"},
		},
		{
			name: "unknown trunc unit",
			expr: &plan.ScalarFunc{Name: "date_trunc", Args: []plan.Expr{str("fortnight"), col("__time")}},
			want: nil,
		},
		{
			name: "non-literal format",
			expr: &plan.ScalarFunc{Name: "date_format", Args: []plan.Expr{col("__time"), col("fmt")}},
			want: nil,
		},
		{
			name: "cast to date",
			expr: &plan.Cast{Expr: col("__time"), To: plan.TypeDate},
			want: &TimeGroupDescriptor{TimeColumn: "__time", OutputFormat: "yyyy-MM-dd", TimeZone: "UTC"},
		},
		{
			name: "cast to long is not a time shape",
			expr: &plan.Cast{Expr: col("__time"), To: plan.TypeLong},
			want: nil,
		},
		{
			name: "not a time shape",
			expr: &plan.ScalarFunc{Name: "upper", Args: []plan.Expr{col("cityName")}},
			want: nil,
		},
		{
			name: "bare column",
			expr: col("__time"),
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RecognizeTimeGroup(tc.expr, "UTC")
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTranslator_CustomRecognizer(t *testing.T) {
	custom := func(e plan.Expr, timeZone string) *TimeGroupDescriptor {
		f, ok := e.(*plan.ScalarFunc)
		if !ok || f.Name != "bucket_day" || len(f.Args) != 1 {
			return nil
		}
		ref, ok := f.Args[0].(*plan.ColumnRef)
		if !ok {
			return nil
		}
		return &TimeGroupDescriptor{TimeColumn: ref.Name, OutputFormat: "yyyy-MM-dd", TimeZone: timeZone}
	}

	translator := NewTranslator("UTC", WithTimeGroupRecognizer(custom))
	qb := NewQueryBuilder(testDatasource(t))

	out, err := translator.groupingSpec(qb, &plan.ScalarFunc{Name: "bucket_day", Args: []plan.Expr{col("__time")}})
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Len(t, out.DimensionSpecs(), 1)
}
