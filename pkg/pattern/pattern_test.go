package pattern

import (
	"errors"
	"reflect"
	"regexp"
	"testing"
)

func TestPathMatch(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		match   bool
		params  Params
	}{
		{"help", "help", true, Params{}},
		{"help", "help me", false, nil},
		{"help", "please help", false, nil},
		{"echo :word", "echo hello", true, Params{"word": "hello"}},
		{"echo :word", "echo", false, nil},
		{"echo :word", "echo ", false, nil},
		{"echo :word", "echo hello world", true, Params{"word": "hello world"}},
		{"echo :word", "echo a/b", false, nil},
		{"echo :word", "echo 100%20", true, Params{"word": "100%20"}},
		{"give :who :what", "give bob cake", true, Params{"who": "bob", "what": "cake"}},
		{"file :name.:ext", "file notes.txt", true, Params{"name": "notes", "ext": "txt"}},
		{"remind {who}_now", "remind me_now", true, Params{"who": "me"}},
		{"say *", "say anything / at all", true, Params{SplatKey: "anything / at all"}},
		{"say *", "say ", true, Params{SplatKey: ""}},
		{`cost \:price`, "cost :price", true, Params{}},
		{"time: now", "time: now", true, Params{}},
		{"a+b", "a+b", true, Params{}},
		{"a+b", "a b", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.text, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.pattern, err)
			}
			params, ok := p.Match(tt.text)
			if ok != tt.match {
				t.Fatalf("Match(%q) = %v, want %v", tt.text, ok, tt.match)
			}
			if !ok {
				return
			}
			if !reflect.DeepEqual(params, tt.params) {
				t.Errorf("params = %#v, want %#v", params, tt.params)
			}
		})
	}
}

func TestPathString(t *testing.T) {
	p := MustCompile("echo :word")
	if got := p.String(); got != "echo :word" {
		t.Errorf("String() = %q", got)
	}
	if got := p.Names(); !reflect.DeepEqual(got, []string{"word"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestCompileErrors(t *testing.T) {
	for _, src := range []string{
		"echo :a :a",
		"x {} y",
		"x {1a}",
		"x {open",
		`trailing \`,
		"* and *",
	} {
		_, err := Compile(src)
		var ipe *InvalidPatternError
		if !errors.As(err, &ipe) {
			t.Errorf("Compile(%q) error = %v, want InvalidPatternError", src, err)
		}
	}
}

func TestRegexpMatch(t *testing.T) {
	p := FromRegexp(regexp.MustCompile(`(?P<count>\d+)d(?P<sides>\d+)`))

	params, ok := p.Match("roll 3d6 please")
	if !ok {
		t.Fatal("expected unanchored match")
	}
	want := Params{"count": "3", "sides": "6"}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("params = %v, want %v", params, want)
	}

	if _, ok := p.Match("roll dice"); ok {
		t.Error("unexpected match")
	}
}

func TestRegexpNoNamedGroups(t *testing.T) {
	p := FromRegexp(regexp.MustCompile(`ping`))
	params, ok := p.Match("well, ping!")
	if !ok {
		t.Fatal("expected match")
	}
	if params == nil {
		t.Fatal("params must not be nil on match")
	}
	if len(params) != 0 {
		t.Errorf("params = %v, want empty", params)
	}
}

func TestRegexpOptionalGroupOmitted(t *testing.T) {
	p := FromRegexp(regexp.MustCompile(`^deploy(?: (?P<env>\w+))?$`))
	params, ok := p.Match("deploy")
	if !ok {
		t.Fatal("expected match")
	}
	if _, present := params["env"]; present {
		t.Errorf("env should be absent, got %v", params)
	}
	params, _ = p.Match("deploy prod")
	if params["env"] != "prod" {
		t.Errorf("env = %q", params["env"])
	}
}

func TestMatchDeterministic(t *testing.T) {
	patterns := []Pattern{
		MustCompile("echo :word"),
		FromRegexp(regexp.MustCompile(`(?P<n>\d+)`)),
	}
	for _, p := range patterns {
		first, ok1 := p.Match("echo 42")
		for i := 0; i < 10; i++ {
			again, ok2 := p.Match("echo 42")
			if ok1 != ok2 || !reflect.DeepEqual(first, again) {
				t.Fatalf("%s: non-deterministic match", p)
			}
		}
	}
}

func TestNew(t *testing.T) {
	if p, err := New("help"); err != nil || p.String() != "help" {
		t.Errorf("New(string) = %v, %v", p, err)
	}
	if p, err := New(regexp.MustCompile(`^hi`)); err != nil || p.String() != "^hi" {
		t.Errorf("New(regexp) = %v, %v", p, err)
	}
	existing := MustCompile("x")
	if p, err := New(existing); err != nil || p != Pattern(existing) {
		t.Errorf("New(Pattern) = %v, %v", p, err)
	}

	for _, v := range []any{42, nil, []string{"help"}, (*regexp.Regexp)(nil)} {
		_, err := New(v)
		var ipe *InvalidPatternError
		if !errors.As(err, &ipe) {
			t.Errorf("New(%#v) error = %v, want InvalidPatternError", v, err)
		}
	}
}

func TestMustPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Must(42) did not panic")
		}
	}()
	Must(42)
}
