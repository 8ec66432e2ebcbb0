package output_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sql2nl/internal/cli/output"
	"github.com/leapstack-labs/sql2nl/internal/cli/testutil"
	"github.com/leapstack-labs/sql2nl/internal/eval"
	"github.com/leapstack-labs/sql2nl/pkg/explain"
)

func TestMarkdownOutputIsPlain(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeMarkdown)

	sql := "SELECT id FROM spectrum.sales QUALIFY ROW_NUMBER() OVER (ORDER BY id) = 1"
	a := explain.Analyze(sql)
	require.NoError(t, tr.Explanation(output.Explanation{
		Source:      "sales.sql",
		SQL:         sql,
		Explanation: a.Explanation,
		Mode:        "baseline",
		Warning:     "model inference is not configured",
		Features:    &a.Features,
	}))
	require.NoError(t, tr.Scores(eval.Scores{Count: 1, Rouge1: 1}))

	testutil.AssertValidMarkdown(t, tr.Output())
	testutil.AssertNoANSI(t, tr.Output()+tr.ErrorOutput())
}

func TestJSONOutputIsPlain(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeJSON)
	require.NoError(t, tr.Scores(eval.Scores{Count: 3}))
	testutil.AssertNoANSI(t, tr.Output())
}
