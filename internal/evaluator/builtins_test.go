package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wisp/internal/object"
)

func TestListBuiltins(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(list)", "nil"},
		{"(list 1 2 3)", "(1 2 3)"},
		{"(cons 1 (list 2 3))", "(1 2 3)"},
		{"(cons 1 nil)", "(1)"},
		{"(cons 1 [2 3])", "(1 2 3)"},
		{"(concat)", "nil"},
		{"(concat (list 1 2) (list 3) nil [4])", "(1 2 3 4)"},
		{"(first (list 1 2))", "1"},
		{"(first nil)", "nil"},
		{"(first (list))", "nil"},
		{"(first [5 6])", "5"},
		{"(rest (list 1 2 3))", "(2 3)"},
		{"(rest (list 1))", "nil"},
		{"(rest nil)", "nil"},
		{"(nth (list 1 2 3) 1)", "2"},
		{"(nth [1 2 3] 0)", "1"},
		{"(count (list 1 2 3))", "3"},
		{"(count nil)", "0"},
		{"(count [1 2])", "2"},
		{`(count "abc")`, "3"},
		{"(empty? nil)", "true"},
		{"(empty? (list))", "true"},
		{"(empty? (list 1))", "false"},
		{"(empty? [])", "true"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, evalOne(t, tt.input).Inspect(), "input %q", tt.input)
	}
}

func TestNthOutOfRange(t *testing.T) {
	wantError(t, evalOne(t, "(nth (list 1 2) 2)"), object.TypeError)
	wantError(t, evalOne(t, "(nth (list 1 2) -1)"), object.TypeError)
}

func TestApplyAndMap(t *testing.T) {
	ev := newTestEvaluator()

	tests := []struct {
		input    string
		expected string
	}{
		{"(apply + (list 1 2 3))", "6"},
		{"(apply + 1 2 (list 3 4))", "10"},
		{"(apply list [1 2])", "(1 2)"},
		{"(map (fn* (x) (* x x)) (list 1 2 3))", "(1 4 9)"},
		{"(map first (list [1 2] [3 4]))", "(1 3)"},
		{"(map (fn* (x) x) nil)", "nil"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ev.EvalString(tt.input).Inspect(), "input %q", tt.input)
	}

	// errors inside the mapped function surface immediately
	wantError(t, ev.EvalString("(map (fn* (x) (throw x)) (list :a))"), object.Throw)
}

func TestStrAndPrStr(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`(str)`, `""`},
		{`(str "a" "b" 1)`, `"ab1"`},
		{`(str (list 1 "x"))`, `"(1 x)"`},
		{`(pr-str "a" 1)`, `"\"a\" 1"`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, evalOne(t, tt.input).Inspect(), "input %q", tt.input)
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(nil? nil)", "true"},
		{"(nil? false)", "false"},
		{"(true? true)", "true"},
		{"(true? 1)", "false"},
		{"(false? false)", "true"},
		{"(number? 1)", "true"},
		{"(number? 1.5)", "true"},
		{`(number? "1")`, "false"},
		{`(string? "x")`, "true"},
		{"(string? :x)", "false"},
		{"(symbol? 'x)", "true"},
		{"(keyword? :x)", "true"},
		{`(keyword? "x")`, "false"},
		{"(list? (list 1))", "true"},
		{"(list? nil)", "true"},
		{"(list? [1])", "false"},
		{"(vector? [1])", "true"},
		{"(vector? (list 1))", "false"},
		{"(sequential? [1])", "true"},
		{"(sequential? (list 1))", "true"},
		{"(sequential? nil)", "true"},
		{"(sequential? {:a 1})", "false"},
		{"(map? {:a 1})", "true"},
		{"(map? [1])", "false"},
		{"(atom? (atom 1))", "true"},
		{"(atom? 1)", "false"},
		{"(fn? (fn* (x) x))", "true"},
		{"(fn? +)", "true"},
		{"(fn? 1)", "false"},
		{"(macro? (fn* (x) x))", "false"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, evalOne(t, tt.input).Inspect(), "input %q", tt.input)
	}
}

func TestMacroPredicate(t *testing.T) {
	ev := newTestEvaluator()
	evalSeq(t, ev, "(defmacro! m (fn* (x) x))")

	assert.Equal(t, "true", ev.EvalString("(macro? m)").Inspect())
	assert.Equal(t, "false", ev.EvalString("(fn? m)").Inspect())
}

func TestSymbolAndKeywordConstructors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`(symbol "abc")`, "abc"},
		{`(keyword "abc")`, ":abc"},
		{"(keyword :abc)", ":abc"},
		{`(= (symbol "abc") 'abc)`, "true"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, evalOne(t, tt.input).Inspect(), "input %q", tt.input)
	}
}

func TestVectorBuiltins(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(vector 1 2)", "[1 2]"},
		{"(vector)", "[]"},
		{"(vec (list 1 2))", "[1 2]"},
		{"(vec [1 2])", "[1 2]"},
		{"(vec nil)", "[]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, evalOne(t, tt.input).Inspect(), "input %q", tt.input)
	}
}

func TestHashMapBuiltins(t *testing.T) {
	ev := newTestEvaluator()

	tests := []struct {
		input    string
		expected string
	}{
		{"(hash-map :a 1)", "{:a 1}"},
		{"(hash-map)", "{}"},
		{"(assoc {:a 1} :b 2)", "{:a 1 :b 2}"},
		{"(assoc {} :a 1 :b 2)", "{:a 1 :b 2}"},
		{"(dissoc {:a 1 :b 2} :a)", "{:b 2}"},
		{"(dissoc {:a 1} :missing)", "{:a 1}"},
		{"(get {:a 1} :a)", "1"},
		{"(get {:a 1} :b)", "nil"},
		{"(get nil :a)", "nil"},
		{"(contains? {:a 1} :a)", "true"},
		{"(contains? {:a 1} :b)", "false"},
		{"(contains? {:a nil} :a)", "true"},
		{"(keys {:a 1})", "(:a)"},
		{"(vals {:a 1})", "(1)"},
		{"(keys {})", "nil"},
		// last write wins for duplicate keys
		{"(hash-map :a 1 :a 2)", "{:a 2}"},
		// string and keyword keys are distinct
		{`(get {:a 1 "a" 2} "a")`, "2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ev.EvalString(tt.input).Inspect(), "input %q", tt.input)
	}

	// assoc copies, the original is untouched
	evalSeq(t, ev, "(def! m {:a 1})", "(def! m2 (assoc m :b 2))")
	assert.Equal(t, "{:a 1}", ev.EvalString("m").Inspect())
	assert.Equal(t, "{:a 1 :b 2}", ev.EvalString("m2").Inspect())
}

func TestHashMapRejectsUnusableKeys(t *testing.T) {
	wantError(t, evalOne(t, "(hash-map [1] 2)"), object.TypeError)
	wantError(t, evalOne(t, "(assoc {} (list 1) 2)"), object.TypeError)
	wantError(t, evalOne(t, "(hash-map :a)"), object.ArityError)
}

func TestAtomBuiltins(t *testing.T) {
	ev := newTestEvaluator()
	evalSeq(t, ev, "(def! a (atom 7))")

	tests := []struct {
		input    string
		expected string
	}{
		{"(atom? a)", "true"},
		{"(deref a)", "7"},
		{"@a", "7"},
		{"(reset! a 8)", "8"},
		{"@a", "8"},
		{"(swap! a (fn* (n) (* n 2)))", "16"},
		{"(swap! a + 1 2)", "19"},
		{"@a", "19"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ev.EvalString(tt.input).Inspect(), "input %q", tt.input)
	}

	// a failing swap function leaves the atom untouched
	wantError(t, ev.EvalString(`(swap! a (fn* (n) (throw "no")))`), object.Throw)
	assert.Equal(t, "19", ev.EvalString("@a").Inspect())
}

func TestStringBuiltins(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`(str-upper "abc")`, `"ABC"`},
		{`(str-lower "AbC")`, `"abc"`},
		{`(str-trim "  x  ")`, `"x"`},
		{`(str-split "a,b,c" ",")`, `("a" "b" "c")`},
		{`(str-join (list "a" "b") "-")`, `"a-b"`},
		{`(str-join nil "-")`, `""`},
		{`(str-replace "aaa" "a" "b")`, `"bbb"`},
		{`(str-contains? "hello" "ell")`, "true"},
		{`(str-contains? "hello" "xyz")`, "false"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, evalOne(t, tt.input).Inspect(), "input %q", tt.input)
	}

	wantError(t, evalOne(t, "(str-upper 1)"), object.TypeError)
	wantError(t, evalOne(t, `(str-join (list 1) "-")`), object.TypeError)
}

func TestTimeBuiltins(t *testing.T) {
	ev := newTestEvaluator()

	before := ev.EvalString("(time-ms)").(*object.Integer)
	ev.EvalString("(sleep 5)")
	after := ev.EvalString("(time-ms)").(*object.Integer)

	assert.GreaterOrEqual(t, after.Value, before.Value+5)

	wantError(t, ev.EvalString("(sleep -1)"), object.TypeError)
	wantError(t, ev.EvalString(`(sleep "x")`), object.TypeError)
}
