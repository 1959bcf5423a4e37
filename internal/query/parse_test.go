package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resdir/internal/apierror"
)

func TestParseTermCountAndOrder(t *testing.T) {
	params, err := Parse("name=foo&age__gt=3&name__not_icontains=bar")
	require.NoError(t, err)
	require.Len(t, params, 3)

	assert.Equal(t, "name", params[0].Field)
	assert.Equal(t, OpEquals, params[0].Operator.Op)
	assert.False(t, params[0].Operator.Negated)
	assert.Equal(t, "foo", params[0].Value)

	assert.Equal(t, "age", params[1].Field)
	assert.Equal(t, OpGt, params[1].Operator.Op)
	assert.Equal(t, "3", params[1].Value)

	assert.Equal(t, "name", params[2].Field)
	assert.Equal(t, OpIContains, params[2].Operator.Op)
	assert.True(t, params[2].Operator.Negated)
}

func TestParseEmptyQuery(t *testing.T) {
	params, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestParseMalformedTermCitesTerm(t *testing.T) {
	_, err := Parse("name=foo&broken")
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindBadRequest))
	assert.Contains(t, err.Error(), "'broken'")

	_, err = Parse("a=b=c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'a=b=c'")
}

func TestParseEmptyValue(t *testing.T) {
	_, err := Parse("name=")
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindBadRequest))
	assert.Contains(t, err.Error(), "no value")
}

func TestParseUnknownOperator(t *testing.T) {
	_, err := Parse("name__frobnicate=x")
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindBadRequest))
	assert.Contains(t, err.Error(), "Invalid search operator: 'frobnicate'")

	// not_ on an unknown operator still reports the raw token.
	_, err = Parse("name__not_frobnicate=x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'not_frobnicate'")
}

func TestParseDefaultOperatorIsEquals(t *testing.T) {
	params, err := Parse("namespace_id=1,2")
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, OpEquals, params[0].Operator.Op)
}

func TestParseQueryExtractsSortAndLimit(t *testing.T) {
	params, opts, err := ParseQuery("name=foo&sort=-created_at,name&limit=10&age__gte=2")
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, "name", params[0].Field)
	assert.Equal(t, "age", params[1].Field)

	require.Len(t, opts.Sort, 2)
	assert.Equal(t, SortField{Field: "created_at", Descending: true}, opts.Sort[0])
	assert.Equal(t, SortField{Field: "name"}, opts.Sort[1])
	assert.Equal(t, 10, opts.Limit)
}

func TestParseQueryRejectsBadLimit(t *testing.T) {
	_, _, err := ParseQuery("limit=soon")
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindBadRequest))
}
