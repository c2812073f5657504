package whisk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wskops/wskctl/internal/whisk"
)

func TestSortByKey(t *testing.T) {
	type item struct {
		key string
		seq int
	}
	items := []item{{"b", 1}, {"a", 2}, {"b", 3}, {"a", 4}}

	whisk.SortByKey(items, func(i item) string { return i.key })

	assert.Equal(t, []item{{"a", 2}, {"a", 4}, {"b", 1}, {"b", 3}}, items)
}

func TestSorted(t *testing.T) {
	rules := []whisk.Rule{
		{Namespace: "guest", Name: "Zeta"},
		{Namespace: "guest", Name: "alpha"},
		{Namespace: "admin", Name: "zeta"},
	}

	sorted := whisk.Sorted(rules)

	var names []string
	for _, r := range sorted {
		names = append(names, r.Namespace+"/"+r.Name)
	}
	assert.Equal(t, []string{"admin/zeta", "guest/alpha", "guest/Zeta"}, names)
	assert.Equal(t, "Zeta", rules[0].Name, "input must not be reordered")
}
