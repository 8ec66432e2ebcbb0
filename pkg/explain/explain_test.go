package explain_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sql2nl/pkg/explain"
)

func TestExplain_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t  \r\n"} {
		assert.Equal(t, "Empty SQL.", explain.Explain(in), "input %q", in)
	}
}

func TestExplain_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		contains []string
		want     string
	}{
		{
			name: "select star with limit",
			sql:  "SELECT * FROM public.users LIMIT 5;",
			contains: []string{
				"Reads from public.users.",
				"Selects all columns.",
				"Limits output to 5 rows.",
			},
			want: "Reads from public.users. Selects all columns. Limits output to 5 rows.",
		},
		{
			name: "aggregate with ordering",
			sql:  "SELECT user_id, COUNT(*) FROM public.orders GROUP BY 1 ORDER BY 2 DESC;",
			contains: []string{
				"Reads from public.orders.",
				"Aggregates using GROUP BY.",
				"Orders the result with ORDER BY.",
			},
			want: "Reads from public.orders. Selects: user_id, COUNT(*). Aggregates using GROUP BY. Orders the result with ORDER BY.",
		},
		{
			name: "system table",
			sql:  "SELECT * FROM svv_table_info WHERE unsorted > 20",
			contains: []string{
				"Queries Redshift system tables (SVV_/STL_/PG_).",
			},
			want: "Reads from svv_table_info. Selects all columns. Filters rows with a WHERE clause. Queries Redshift system tables (SVV_/STL_/PG_).",
		},
		{
			name: "joins",
			sql: `SELECT o.id, c.name, p.title
				FROM orders o
				JOIN customers c ON c.id = o.customer_id
				JOIN products p ON p.id = o.product_id
				JOIN customers c2 ON c2.id = o.gift_for`,
			contains: []string{"Reads from orders, customers, products."},
			want:     "Reads from orders, customers, products. Selects: o.id, c.name, p.title.",
		},
		{
			name: "qualify before window in text",
			sql:  "SELECT id FROM events QUALIFY ROW_NUMBER() OVER (PARTITION BY id ORDER BY ts DESC) = 1",
			want: "Reads from events. Selects: id. Computes window functions (OVER ...). " +
				"Applies QUALIFY to filter by window results (Redshift). Orders the result with ORDER BY.",
		},
		{
			name: "no source",
			sql:  "SELECT 1",
			want: "Reads from an unspecified table or source.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := explain.Explain(tt.sql)
			for _, c := range tt.contains {
				assert.Contains(t, got, c)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExplain_WindowAlwaysPrecedesQualify(t *testing.T) {
	for _, sql := range []string{
		"SELECT a FROM t QUALIFY RANK() OVER (ORDER BY a) = 1",
		"SELECT RANK() OVER (ORDER BY a) AS r FROM t QUALIFY r = 1",
	} {
		got := explain.Explain(sql)
		w := strings.Index(got, "Computes window functions")
		q := strings.Index(got, "Applies QUALIFY")
		require.NotEqual(t, -1, w, got)
		require.NotEqual(t, -1, q, got)
		assert.Less(t, w, q, got)
	}
}

func TestExplain_WhitespaceInsensitive(t *testing.T) {
	base := "SELECT a, b FROM s.t1 JOIN s.t2 ON t1.id = t2.id WHERE a > 1 GROUP BY a, b ORDER BY a LIMIT 3"
	variants := []string{
		strings.ReplaceAll(base, " ", "  "),
		strings.ReplaceAll(base, " ", "\n"),
		strings.ReplaceAll(base, " ", " \t\r\n "),
		"\n\n   " + base + "   \n",
		strings.ReplaceAll(base, " ", "\u00a0"),
		strings.ReplaceAll(base, " ", "\v"),
		strings.ReplaceAll(base, " ", " \u2003\u0085"),
	}

	want := explain.Analyze(base)
	for _, v := range variants {
		got := explain.Analyze(v)
		assert.Equal(t, want.Features, got.Features, "variant %q", v)
		assert.Equal(t, want.Explanation, got.Explanation, "variant %q", v)
		assert.Equal(t, want.Normalized, got.Normalized, "variant %q", v)
	}
}

func TestExplain_Total(t *testing.T) {
	inputs := []string{
		"FROM",
		"JOIN",
		"SELECT",
		"LIMIT",
		"OVER(",
		")))(((",
		"\x00\x01\x02",
		"\xff\xfe\xfd",
		"lorem ipsum dolor sit amet",
		`"""""`,
		"SELECT * FROM \"\" JOIN \"",
		strings.Repeat("(", 10000),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			out := explain.Explain(in)
			assert.NotEmpty(t, out)
			assert.True(t, strings.HasSuffix(out, "."), "output %q", out)
		}, "input %q", in)
	}
}

func TestExplain_LargeInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping multi-megabyte input in short mode")
	}

	chunk := "SELECT a, b FROM t1 JOIN t2 ON t1.id = t2.id WHERE x > 1 "
	sql := strings.Repeat(chunk, (2<<20)/len(chunk)+1)
	require.Greater(t, len(sql), 2<<20)

	got := explain.Explain(sql)
	assert.True(t, strings.HasPrefix(got, "Reads from t1, t2. Selects: a, b. Filters rows with a WHERE clause."), got)
}

func TestExplain_Concurrent(t *testing.T) {
	queries := []string{
		"SELECT * FROM public.users LIMIT 5;",
		"SELECT user_id, COUNT(*) FROM public.orders GROUP BY 1 ORDER BY 2 DESC;",
		"SELECT * FROM stl_query",
		"",
	}
	want := make([]string, len(queries))
	for i, q := range queries {
		want[i] = explain.Explain(q)
	}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				idx := i % len(queries)
				assert.Equal(t, want[idx], explain.Explain(queries[idx]))
			}
		}()
	}
	wg.Wait()
}

func TestAnalyze(t *testing.T) {
	a := explain.Analyze("select *\nfrom   stl_load_errors\nlimit 10")

	assert.Equal(t, explain.NormalizedQuery("select * from stl_load_errors limit 10"), a.Normalized)
	assert.False(t, a.Empty())
	assert.Equal(t, []string{"stl_load_errors"}, a.Features.Tables)
	assert.True(t, a.Features.HasSystemTables)

	keys := make([]string, 0, len(a.Fragments))
	for _, f := range a.Fragments {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{explain.KeyTables, explain.KeyColumns, explain.KeyLimit, explain.KeySystemTables}, keys)
	assert.Equal(t, explain.Explain("select *\nfrom   stl_load_errors\nlimit 10"), a.Explanation)

	empty := explain.Analyze(" \n ")
	assert.True(t, empty.Empty())
	assert.Empty(t, empty.Fragments)
	assert.Equal(t, explain.EmptyExplanation, empty.Explanation)
}

func TestExplain_Golden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "queries", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".sql")
		t.Run(name, func(t *testing.T) {
			sql, err := os.ReadFile(file)
			require.NoError(t, err)
			g.Assert(t, name, []byte(explain.Explain(string(sql))+"\n"))
		})
	}
}
