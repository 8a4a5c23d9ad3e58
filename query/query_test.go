package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagination_Offset(t *testing.T) {
	tests := []struct {
		page, perPage int
		wantOffset    int
		wantLimited   bool
	}{
		{page: 1, perPage: 10, wantOffset: 0, wantLimited: true},
		{page: 2, perPage: 10, wantOffset: 10, wantLimited: true},
		{page: 7, perPage: 3, wantOffset: 18, wantLimited: true},
		{page: 5, perPage: 0, wantOffset: 0, wantLimited: false},
		{page: 0, perPage: 25, wantOffset: 0, wantLimited: true},
	}

	for _, tt := range tests {
		p, err := NewPagination(tt.page, tt.perPage)
		require.NoError(t, err)
		assert.Equal(t, tt.wantOffset, p.Offset(), "page=%d perPage=%d", tt.page, tt.perPage)
		assert.Equal(t, tt.wantLimited, p.Limited())
		assert.GreaterOrEqual(t, p.Page, 1)
	}
}

func TestPagination_RejectsNegative(t *testing.T) {
	_, err := NewPagination(-1, 10)
	require.Error(t, err)

	_, err = NewPagination(1, -5)
	require.Error(t, err)
}

func TestKeyword_ExpandsIntoOrGroup(t *testing.T) {
	var spec Spec
	require.NoError(t, spec.AddKeyword("x", "a", "b"))
	require.Len(t, spec.Filters, 1)

	group := spec.Filters[0]
	require.True(t, group.IsGroup())
	require.Len(t, group.Filters, 2)

	for i, f := range group.Filters {
		assert.Equal(t, OpLike, f.Operator)
		assert.Equal(t, "%x%", f.Value)
		assert.True(t, f.CaseInsensitive)
		if i > 0 {
			assert.Equal(t, Or, f.Operand)
		}
	}
	assert.Equal(t, "a", group.Filters[0].Property)
	assert.Equal(t, "b", group.Filters[1].Property)
}

func TestKeyword_NoPropertiesIsNoop(t *testing.T) {
	var spec Spec
	require.NoError(t, spec.AddKeyword("x"))
	assert.Empty(t, spec.Filters)
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Property: "status", Value: "draft"}.Normalize()
	assert.Equal(t, OpEqual, f.Operator)
	assert.Equal(t, And, f.Operand)

	f = NewFilter("deleted_at", nil).Normalize()
	assert.Equal(t, OpIsNull, f.Operator)

	f = NewFilter("deleted_at", nil, WithOperator(OpNotEqual)).Normalize()
	assert.Equal(t, OpIsNotNull, f.Operator)

	f = NewFilter("title", "%a%", WithOperator("like"), WithOperand("or")).Normalize()
	assert.Equal(t, OpLike, f.Operator)
	assert.Equal(t, Or, f.Operand)
}

func TestFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{name: "equality", filter: NewFilter("status", "published")},
		{name: "raw expression", filter: Raw("position > ?", 3)},
		{name: "in", filter: NewFilter("id", []int{1, 2}, WithOperator(OpIn))},
		{name: "missing property", filter: Filter{Value: 1}, wantErr: true},
		{name: "unknown operator", filter: NewFilter("id", 1, WithOperator("~~")), wantErr: true},
		{name: "unknown operand", filter: NewFilter("id", 1, WithOperand("XOR")), wantErr: true},
		{name: "in without slice", filter: NewFilter("id", 1, WithOperator(OpIn)), wantErr: true},
		{name: "in with empty slice", filter: NewFilter("id", []string{}, WithOperator(OpIn)), wantErr: true},
		{name: "bad child", filter: Group(And, NewFilter("", 1)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				var invalid *InvalidFilterError
				require.ErrorAs(t, err, &invalid)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSpec_SetFiltersIsAtomic(t *testing.T) {
	var spec Spec
	require.NoError(t, spec.AddFilter(NewFilter("status", "published")))

	err := spec.SetFilters([]Filter{NewFilter("a", 1), {Value: 2}})
	require.Error(t, err)
	require.Len(t, spec.Filters, 1)
	assert.Equal(t, "status", spec.Filters[0].Property)
}

func TestSpec_OrdersKeepInsertionPriority(t *testing.T) {
	var spec Spec
	require.NoError(t, spec.AddOrder(NewOrder("position", "")))
	require.NoError(t, spec.AddOrder(NewOrder("title", Desc)))
	require.Error(t, spec.AddOrder(NewOrder("title", "sideways")))

	require.Len(t, spec.Orders, 2)
	assert.Equal(t, "position", spec.Orders[0].Property)
	assert.Equal(t, Asc, spec.Orders[0].Direction)
	assert.Equal(t, Desc, spec.Orders[1].Direction)
}

func TestSpec_PropertiesAreDeduplicated(t *testing.T) {
	var spec Spec
	require.NoError(t, spec.SetProperties("id", "title", "id"))
	assert.Equal(t, []string{"id", "title"}, spec.Properties)
	require.Error(t, spec.AddProperty(" "))
}

func TestSpec_CloneIsIndependent(t *testing.T) {
	var spec Spec
	require.NoError(t, spec.AddFilter(NewFilter("status", "published")))

	clone := spec.Clone()
	require.NoError(t, clone.AddFilter(NewFilter("kind", "news")))

	assert.Len(t, spec.Filters, 1)
	assert.Len(t, clone.Filters, 2)
}

func TestParseDirection(t *testing.T) {
	dir, err := ParseDirection("DESC")
	require.NoError(t, err)
	assert.Equal(t, Desc, dir)

	dir, err = ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, Asc, dir)

	_, err = ParseDirection("up")
	require.Error(t, err)
}
