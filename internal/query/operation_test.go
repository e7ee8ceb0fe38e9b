package query

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/queryir"
	"github.com/roach88/fieldir/internal/selection"
	"github.com/roach88/fieldir/internal/testutil"
	"github.com/roach88/fieldir/internal/usage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCompiler(md *metadata.Metadata, opts ...Option) *Compiler {
	base := []Option{
		WithLogger(quietLogger()),
		WithRequestIDGenerator(testutil.NewFixedRequestIDGenerator("")),
	}
	return NewCompiler(md, append(base, opts...)...)
}

func assertGolden(t *testing.T, name string, sel *ModelSelection) {
	t.Helper()
	data, err := ir.CanonicalJSON(sel.Selection)
	require.NoError(t, err)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

func TestCompile_Golden(t *testing.T) {
	headers := http.Header{}
	headers.Set("X-Request-Id", "req-1")

	tests := []struct {
		name     string
		role     metadata.Role
		pipeline ir.Pipeline
		query    string
	}{
		{
			name:     "select_one_legacy",
			role:     testutil.RoleAdmin,
			pipeline: ir.PipelineLegacy,
			query:    `{ UserByID(id: 42) { id name } }`,
		},
		{
			name:     "select_many_structured",
			role:     testutil.RoleAdmin,
			pipeline: ir.PipelineStructured,
			query:    `{ Users(where: {id: {_gt: 1}}, order_by: [{name: Desc}], limit: 10) { id posts { title } } }`,
		},
		{
			name:     "select_many_legacy_user",
			role:     testutil.RoleUser,
			pipeline: ir.PipelineLegacy,
			query:    `{ Posts(args: {include_drafts: false}) { title author { name } } }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := testutil.Metadata()
			op := normalize(t, md, tt.role, tt.query)

			got, err := newTestCompiler(md).Compile(context.Background(), OperationRequest{
				Operation: op,
				Pipeline:  tt.pipeline,
				Session:   userSession(),
				Headers:   headers,
			})
			require.NoError(t, err)
			require.Len(t, got.Fields, 1)
			assertGolden(t, tt.name, got.Fields[0])
		})
	}
}

func TestCompile_FieldsInDocumentOrder(t *testing.T) {
	md := testutil.Metadata()
	op := normalize(t, md, testutil.RoleAdmin, `{
		a: UserByID(id: 1) { id }
		b: Users { id posts { id } }
		c: PostByID(id: 2, region: "eu") { id author { id } }
		d: Users(limit: 1) { name }
	}`)

	got, err := newTestCompiler(md, WithMaxConcurrency(8)).Compile(context.Background(), OperationRequest{
		Operation: op,
		Pipeline:  ir.PipelineLegacy,
	})
	require.NoError(t, err)

	var aliases []string
	for _, f := range got.Fields {
		aliases = append(aliases, f.FieldName)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, aliases)
	assert.Equal(t, map[metadata.ModelName]int{"Users": 4, "Posts": 2}, got.UsageCounts.Models)
	assert.Equal(t, "test-request-default", got.RequestID)
	assert.Equal(t, ir.IRVersion, got.IRVersion)
	assert.Equal(t, ir.CompilerVersion, got.CompilerVersion)
}

func TestCompile_FingerprintIgnoresRequestIDAndConcurrency(t *testing.T) {
	md := testutil.Metadata()
	op := normalize(t, md, testutil.RoleAdmin, `{ a: UserByID(id: 1) { id } b: Users { id } c: Posts(args: {region: "eu"}) { id } }`)
	req := OperationRequest{Operation: op, Pipeline: ir.PipelineStructured}
	ids := testutil.NewSequenceRequestIDGenerator()

	sequential, err := newTestCompiler(md, WithMaxConcurrency(1), WithRequestIDGenerator(ids)).Compile(context.Background(), req)
	require.NoError(t, err)
	parallel, err := newTestCompiler(md, WithMaxConcurrency(0), WithRequestIDGenerator(ids)).Compile(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, sequential.RequestID, parallel.RequestID)
	assert.Len(t, sequential.Fingerprint, 64)
	assert.Equal(t, sequential.Fingerprint, parallel.Fingerprint)
	assert.Equal(t, sequential.UsageCounts, parallel.UsageCounts)

	legacy, err := newTestCompiler(md).Compile(context.Background(), OperationRequest{Operation: op, Pipeline: ir.PipelineLegacy})
	require.NoError(t, err)
	assert.NotEqual(t, sequential.Fingerprint, legacy.Fingerprint)
}

func TestCompile_FirstFailingFieldWins(t *testing.T) {
	md := testutil.Metadata()
	op := normalize(t, md, testutil.RoleAdmin, `{
		ok: UserByID(id: 1) { id }
		first: CommentByID(id: 1) { id }
		second: CommentByID(id: 2) { id }
	}`)

	for range 5 {
		_, err := newTestCompiler(md, WithMaxConcurrency(0)).Compile(context.Background(), OperationRequest{
			Operation: op,
			Pipeline:  ir.PipelineLegacy,
		})
		require.Error(t, err)

		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "first", fe.Alias)
		assert.True(t, diag.IsKind(err, diag.KindMissingMapping), "got %v", err)
	}
}

func TestCompile_CanceledContext(t *testing.T) {
	md := testutil.Metadata()
	op := normalize(t, md, testutil.RoleAdmin, `{ UserByID(id: 1) { id } }`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestCompiler(md).Compile(ctx, OperationRequest{Operation: op, Pipeline: ir.PipelineLegacy})
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestCompile_NoOperation(t *testing.T) {
	_, err := newTestCompiler(testutil.Metadata()).Compile(context.Background(), OperationRequest{})
	assert.Error(t, err)
}

func TestCompile_LogsOperation(t *testing.T) {
	md := testutil.Metadata()
	op := normalize(t, md, testutil.RoleAdmin, `query Lookup { UserByID(id: 1) { id } }`)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := newTestCompiler(md, WithLogger(logger)).Compile(context.Background(), OperationRequest{
		Operation: op,
		Pipeline:  ir.PipelineLegacy,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"compiled field"`)
	assert.Contains(t, out, `"msg":"compiled operation"`)
	assert.Contains(t, out, `"operation":"Lookup"`)
	assert.Contains(t, out, `"request_id":"test-request-default"`)
}

// recordingBuilder wraps a Builder and records the requests it receives.
type recordingBuilder struct {
	inner      selection.Builder
	legacy     []selection.LegacyRequest
	structured []selection.StructuredRequest
}

func (b *recordingBuilder) Legacy(req selection.LegacyRequest, counts *usage.Counts) (plan.ModelSelection, error) {
	b.legacy = append(b.legacy, req)
	return b.inner.Legacy(req, counts)
}

func (b *recordingBuilder) Structured(req selection.StructuredRequest, counts *usage.Counts) (queryir.ModelSelection, error) {
	b.structured = append(b.structured, req)
	return b.inner.Structured(req, counts)
}

func TestCompile_SelectOneNeverForwardsPagination(t *testing.T) {
	md := testutil.Metadata()
	rec := &recordingBuilder{inner: selection.NewResolver(md)}
	op := normalize(t, md, testutil.RoleAdmin, `{ UserByID(id: 7) { id } }`)
	c := newTestCompiler(md, WithSelectionBuilder(rec), WithMaxConcurrency(1))

	_, err := c.Compile(context.Background(), OperationRequest{Operation: op, Pipeline: ir.PipelineLegacy})
	require.NoError(t, err)
	_, err = c.Compile(context.Background(), OperationRequest{Operation: op, Pipeline: ir.PipelineStructured})
	require.NoError(t, err)

	require.Len(t, rec.legacy, 1)
	l := rec.legacy[0]
	assert.Nil(t, l.Limit)
	assert.Nil(t, l.Offset)
	assert.Nil(t, l.OrderBy)
	assert.Nil(t, l.Filter.WhereClause)
	assert.NotNil(t, l.Filter.AdditionalFilter)

	require.Len(t, rec.structured, 1)
	s := rec.structured[0].Target
	assert.Nil(t, s.Limit)
	assert.Nil(t, s.Offset)
	assert.Nil(t, s.OrderBy)
	assert.Equal(t, queryir.Comparison{
		Operand:  queryir.FieldOperand{FieldName: "id"},
		Operator: queryir.OperatorEquals,
		Argument: ir.Int(7),
	}, s.Filter)
}
