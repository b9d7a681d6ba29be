package pkgtree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/pkgtree-mcp/pkg/types"
)

func ns(s string) types.Namespace {
	return types.MustParseNamespace(s, ".")
}

func nss(ss ...string) []types.Namespace {
	out := make([]types.Namespace, len(ss))
	for i, s := range ss {
		out[i] = ns(s)
	}
	return out
}

func assertLongest(t *testing.T, trie *Trie, query, want string) {
	t.Helper()
	got, ok := trie.Longest(ns(query))
	if want == "" {
		assert.False(t, ok, "query %q: expected no match, got %q", query, got.String())
		assert.Nil(t, got)
		return
	}
	require.True(t, ok, "query %q: expected %q, got no match", query, want)
	assert.Equal(t, want, got.String(), "query %q", query)
}

func TestTrie_ExactHit(t *testing.T) {
	registered := []string{"org", "org.child1", "org.child1.grandchild.greatgrandchild", "org.child2", "com"}
	trie := Build(nss(registered...))

	for _, r := range registered {
		assertLongest(t, trie, r, r)
	}
}

func TestTrie_PrefixSpecificity(t *testing.T) {
	trie := Build(nss("com.acme", "com.acme.model"))

	assertLongest(t, trie, "com.acme.model.xml", "com.acme.model")
	assertLongest(t, trie, "com.acme.model.xml.base.deep", "com.acme.model")
	assertLongest(t, trie, "com.acme.util", "com.acme")
}

func TestTrie_NoMatch(t *testing.T) {
	trie := Build(nss("com.acme", "org.chart.render"))

	assertLongest(t, trie, "net.example", "")
	assertLongest(t, trie, "acme.com", "")
	assertLongest(t, trie, "org.chart", "")

	got, ok := trie.Longest(types.Namespace{})
	assert.False(t, ok)
	assert.Nil(t, got)

	got, ok = trie.Longest(nil)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestTrie_EmptyRegistry(t *testing.T) {
	for _, input := range [][]types.Namespace{nil, {}, {types.Namespace{}}} {
		trie := Build(input)
		assert.Equal(t, 0, trie.Len())
		assert.Equal(t, 0, trie.Depth())
		assert.Empty(t, trie.Namespaces())

		for _, q := range []string{"com", "com.acme", "org.chart.DataSet"} {
			assertLongest(t, trie, q, "")
		}
		_, ok := trie.Longest(types.Namespace{})
		assert.False(t, ok)
	}
}

func TestTrie_IdempotentInsert(t *testing.T) {
	once := Build(nss("com.acme", "com.acme.model"))
	many := Build(nss("com.acme", "com.acme.model", "com.acme", "com.acme.model", "com.acme"))

	assert.Equal(t, once.Len(), many.Len())
	assert.Equal(t, once.Namespaces(), many.Namespaces())

	for _, q := range []string{"com", "com.acme", "com.acme.x", "com.acme.model", "com.acme.model.y", "org"} {
		a, aok := once.Longest(ns(q))
		b, bok := many.Longest(ns(q))
		assert.Equal(t, aok, bok, q)
		assert.Equal(t, a, b, q)
	}
}

func TestTrie_NonRegisteredIntermediate(t *testing.T) {
	trie := Build(nss("a.b.c"))

	assertLongest(t, trie, "a", "")
	assertLongest(t, trie, "a.b", "")
	assertLongest(t, trie, "a.b.c", "a.b.c")
	assertLongest(t, trie, "a.b.c.d", "a.b.c")
	assertLongest(t, trie, "a.b.x.d", "")

	assert.False(t, trie.Contains(ns("a.b")))
	assert.True(t, trie.Contains(ns("a.b.c")))
}

func TestTrie_WorkdayScenario(t *testing.T) {
	trie := Build(nss("com.workday", "com.workday.model", "com.workday.model.xml.base"))

	// Namespaces of com.workday.model.xml.GridModel, com.workday.util.GridHelper
	// and org.chart.DataSet
	assertLongest(t, trie, "com.workday.model.xml", "com.workday.model")
	assertLongest(t, trie, "com.workday.util", "com.workday")
	assertLongest(t, trie, "org.chart", "")
	assertLongest(t, trie, "com.workday.model.xml.base.impl", "com.workday.model.xml.base")
}

func TestTrie_OrderIndependent(t *testing.T) {
	a := Build(nss("org.child1.grandchild.greatgrandchild", "org.child1", "org"))
	b := Build(nss("org", "org.child1", "org.child1.grandchild.greatgrandchild"))

	assert.Equal(t, a.Namespaces(), b.Namespaces())
	assertLongest(t, a, "org.child1.grandchild", "org.child1")
	assertLongest(t, b, "org.child1.grandchild", "org.child1")
}

func TestTrie_ResultDoesNotAliasQuery(t *testing.T) {
	trie := Build(nss("com.acme"))
	query := ns("com.acme.model")

	got, ok := trie.Longest(query)
	require.True(t, ok)
	got[0] = "org"
	assert.Equal(t, "com", query[0])
}

func TestTrie_Introspection(t *testing.T) {
	trie := Build(nss("com.zeta", "com.acme.model.xml", "com", "com.acme"))

	assert.Equal(t, 4, trie.Len())
	assert.Equal(t, 4, trie.Depth())
	assert.Equal(t, nss("com", "com.acme", "com.acme.model.xml", "com.zeta"), trie.Namespaces())
	assert.False(t, trie.Contains(types.Namespace{}))
	assert.False(t, trie.Contains(ns("com.acme.model")))
}

func TestTrie_ConcurrentReads(t *testing.T) {
	trie := Build(nss("com.workday", "com.workday.model", "com.workday.model.xml.base"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				got, ok := trie.Longest(ns("com.workday.model.xml"))
				if !ok || got.String() != "com.workday.model" {
					t.Errorf("unexpected match %q", got.String())
					return
				}
			}
		}()
	}
	wg.Wait()
}

func BenchmarkTrie_Longest(b *testing.B) {
	var registered []types.Namespace
	for _, org := range []string{"com", "org", "net", "io"} {
		for _, team := range []string{"acme", "workday", "chart", "shop", "billing"} {
			for _, mod := range []string{"model", "util", "api", "internal", "store"} {
				registered = append(registered, types.Namespace{org, team}, types.Namespace{org, team, mod})
			}
		}
	}
	trie := Build(registered)
	query := ns("com.workday.model.xml.base.GridModel")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = trie.Longest(query)
	}
}
