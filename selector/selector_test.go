package selector

import (
	"bytes"
	"errors"
	"testing"

	"github.com/distribution/ipld/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(s string) datamodel.PathSegment { return datamodel.PathSegmentOfString(s) }

func index(i int64) datamodel.PathSegment { return datamodel.PathSegmentOfInt(i) }

func TestExplore(t *testing.T) {
	m := Match()

	require.Same(t, m, m.Explore(field("x")))
	require.Same(t, m, Selector(All(m)).Explore(index(7)))

	fields := Fields(map[string]Selector{"a": m})
	require.Same(t, m, fields.Explore(field("a")))
	require.Nil(t, fields.Explore(field("b")))

	idx := Index(2, m)
	require.Nil(t, idx.Explore(index(1)))
	require.Same(t, m, idx.Explore(index(2)))
	require.Nil(t, idx.Explore(index(3)))

	rng := Range(2, 5, m)
	for i := int64(0); i < 7; i++ {
		if i >= 2 && i < 5 {
			assert.NotNil(t, rng.Explore(index(i)), "index %d", i)
		} else {
			assert.Nil(t, rng.Explore(index(i)), "index %d", i)
		}
	}
}

func TestUnionExplore(t *testing.T) {
	u := Union(Match(), Field("a", Match()), Field("b", Match()))

	// the matcher applies to the union's own node only.
	next := u.Explore(field("a"))
	require.IsType(t, &Matcher{}, next)
	require.Nil(t, u.Explore(field("c")))

	both := Union(All(Match()), Index(1, MatchLabel("one")))
	require.IsType(t, &ExploreUnion{}, both.Explore(index(1)))
	require.IsType(t, &Matcher{}, both.Explore(index(0)))
}

func TestRecursiveDepth(t *testing.T) {
	r := Recurse(LimitDepth(3), Union(Match(), All(Edge())))

	var sel Selector = r
	for depth := 1; depth <= 3; depth++ {
		require.NotNil(t, sel, "depth %d", depth)
		require.NotNil(t, MatcherOf(sel), "depth %d", depth)
		sel = sel.Explore(index(0))
	}
	require.Nil(t, sel, "recursion should stop after 3 levels")

	unlimited := Recurse(LimitNone(), Union(Match(), All(Edge())))
	sel = unlimited
	for depth := 0; depth < 100; depth++ {
		sel = sel.Explore(field("x"))
		require.NotNil(t, sel)
	}
}

func TestRecursiveSequencePosition(t *testing.T) {
	// match every "b" reachable through alternating "a" fields.
	r := Recurse(LimitNone(), Fields(map[string]Selector{
		"a": Edge(),
		"b": Match(),
	}))

	require.Nil(t, MatcherOf(r))
	require.NotNil(t, ExplorerOf(r))

	b := r.Explore(field("b"))
	require.NotNil(t, MatcherOf(b))
	require.Nil(t, ExplorerOf(b))

	a := r.Explore(field("a"))
	require.IsType(t, &ExploreRecursive{}, a)
	require.Same(t, r.Sequence, a.(*ExploreRecursive).Current())
	require.Nil(t, r.Explore(field("c")))
}

func TestMatcherAndExplorerOf(t *testing.T) {
	m := Match()
	require.Same(t, m, MatcherOf(m))
	require.Nil(t, ExplorerOf(m))

	all := All(m)
	require.Nil(t, MatcherOf(all))
	require.Same(t, all, ExplorerOf(all))

	u := Union(m, all)
	require.Same(t, m, MatcherOf(u))
	require.Same(t, all, ExplorerOf(u))
}

func TestValidate(t *testing.T) {
	for _, testcase := range []struct {
		name string
		sel  Selector
		ok   bool
	}{
		{"matcher", Match(), true},
		{"edge outside recursion", All(Edge()), false},
		{"recursion without edge", &ExploreRecursive{Sequence: All(Match()), Limit: LimitNone()}, false},
		{"edge under nested recursion only", &ExploreRecursive{
			Sequence: All(&ExploreRecursive{Sequence: All(Edge()), Limit: LimitNone()}),
			Limit:    LimitNone(),
		}, false},
		{"recursion", &ExploreRecursive{Sequence: All(Edge()), Limit: LimitDepth(2)}, true},
		{"negative depth", &ExploreRecursive{Sequence: All(Edge()), Limit: LimitDepth(-1)}, false},
		{"union matcher first", &ExploreUnion{Members: []Selector{Match(), All(Match())}}, true},
		{"union matcher second", &ExploreUnion{Members: []Selector{All(Match()), Match()}}, false},
		{"union of one", &ExploreUnion{Members: []Selector{Match()}}, false},
		{"empty range", Range(3, 3, Match()), false},
		{"negative range", Range(-1, 3, Match()), false},
		{"negative index", Index(-1, Match()), false},
		{"bad subset", &Matcher{Subset: &Slice{From: 4, To: 2}}, false},
		{"missing next", &ExploreAll{}, false},
		{"conditional without condition", &ExploreConditional{Next: Match()}, false},
		{"conditional", If(HasField{Name: "a"}, Match()), true},
		{"empty and", If(And{}, Match()), false},
		{"interpret without name", InterpretAs("", Match()), false},
	} {
		err := Validate(testcase.sel)
		if testcase.ok {
			assert.NoError(t, err, testcase.name)
			continue
		}
		if assert.Error(t, err, testcase.name) {
			assert.True(t, errors.Is(err, ErrInvalidSelector), testcase.name)
		}
	}

	require.Panics(t, func() { Union(All(Match()), Match()) })
	require.Panics(t, func() { Recurse(LimitNone(), All(Match())) })
}

func TestParseJSON(t *testing.T) {
	for _, testcase := range []struct {
		input string
		want  Selector
	}{
		{`{".":{}}`, Match()},
		{`{".":{"label":"x","subset":{"[":1,"]":3}}}`, &Matcher{Label: "x", Subset: &Slice{From: 1, To: 3}}},
		{`{"a":{">":{".":{}}}}`, All(Match())},
		{`{"f":{"f>":{"a":{".":{}},"b":{"i":{"i":0,">":{".":{}}}}}}}`, Fields(map[string]Selector{
			"a": Match(),
			"b": Index(0, Match()),
		})},
		{`{"r":{"^":2,"$":5,">":{".":{}}}}`, Range(2, 5, Match())},
		{`{"R":{"l":{"none":{}},":>":{"|":[{".":{}},{"a":{">":{"@":{}}}}]}}}`, MatchAllRecursively()},
		{`{"R":{"l":{"depth":4},":>":{"a":{">":{"@":{}}}},"!":{"/":{}}}}`, &ExploreRecursive{
			Sequence: All(Edge()),
			Limit:    LimitDepth(4),
			StopAt:   IsLink{},
		}},
		{`{"&":{"c":{"and":[{"hasField":"a"},{"=":3}]},">":{".":{}}}}`, If(And{Conditions: []Condition{
			HasField{Name: "a"},
			HasValue{Value: int64(3)},
		}}, Match())},
		{`{"~":{"as":"unixfs",">":{".":{}}}}`, InterpretAs("unixfs", Match())},
	} {
		got, err := ParseJSON(testcase.input)
		require.NoError(t, err, testcase.input)
		require.Equal(t, testcase.want, got, testcase.input)
	}
}

func TestParseJSONErrors(t *testing.T) {
	for _, input := range []string{
		`{}`,
		`{".":{},"a":{">":{".":{}}}}`,
		`{"z":{}}`,
		`{"a":{}}`,
		`{"a":{">":{"@":{}}}}`,
		`{"i":{"i":"zero",">":{".":{}}}}`,
		`{"r":{"^":5,"$":2,">":{".":{}}}}`,
		`{"|":[{"a":{">":{".":{}}}},{".":{}}]}`,
		`[]`,
	} {
		_, err := ParseJSON(input)
		require.Error(t, err, input)
		require.True(t, errors.Is(err, ErrInvalidSelector), "%s: %v", input, err)
	}
}

func TestEncodeJSON(t *testing.T) {
	out, err := JSON(All(Match()))
	require.NoError(t, err)
	require.Equal(t, `{"a":{">":{".":{}}}}`, out)

	out, err = JSON(Range(2, 5, Match()))
	require.NoError(t, err)
	require.Equal(t, `{"r":{"$":5,">":{".":{}},"^":2}}`, out)

	out, err = JSON(MatchAllRecursively())
	require.NoError(t, err)
	require.Equal(t, `{"R":{":>":{"|":[{".":{}},{"a":{">":{"@":{}}}}]},"l":{"none":{}}}}`, out)
}

func TestWireRoundTrip(t *testing.T) {
	for _, sel := range []Selector{
		Match(),
		MatchSubset(0, 10),
		All(Match()),
		Fields(map[string]Selector{"a": Match(), "bb": All(Match()), "c": Range(0, 2, Match())}),
		MatchAllRecursively(),
		&ExploreRecursive{Sequence: Field("next", Edge()), Limit: LimitDepth(10), StopAt: HasKind{Kind: "link"}},
		If(Or{Conditions: []Condition{HasValue{Value: "x"}, HasValue{Value: true}, HasValue{}}}, Match()),
		InterpretAs("hamt", All(Match())),
	} {
		var buf bytes.Buffer
		require.NoError(t, Encode(dagcbor.Codec{}.NewWriter(&buf), sel))

		decoded, err := Decode(dagcbor.Codec{}.NewReader(&buf))
		require.NoError(t, err)
		require.Equal(t, sel, decoded)

		text, err := JSON(sel)
		require.NoError(t, err)
		reparsed, err := ParseJSON(text)
		require.NoError(t, err, text)
		require.Equal(t, sel, reparsed, text)
	}
}

func TestSliceClamping(t *testing.T) {
	s := Slice{From: 2, To: 10}
	require.Equal(t, []byte{3, 4}, s.Apply([]byte{1, 2, 3, 4}))
	require.Equal(t, "", s.ApplyString("a"))
	require.Equal(t, "llo", Slice{From: 2, To: 5}.ApplyString("hello world"))
}
