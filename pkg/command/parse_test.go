package command

import (
	"errors"
	"testing"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		line    string
		want    string
		wantErr bool
	}{
		{`SetProperty(PropertyName="a")`, "SetProperty", false},
		{`   For(Name="i")`, "For", false},
		{`Cmd (A="1")`, "Cmd", false},
		{``, "", false},
		{`   `, "", false},
		{`# comment(with parens)`, "", false},
		{`NoParens`, "", true},
		{`(A="1")`, "", true},
		{`Bad Name(A="1")`, "", true},
	}
	for _, tt := range tests {
		got, err := ParseName(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseName(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseName(%q) = %q, want %q", tt.line, got, tt.want)
		}
		var se *SyntaxError
		if err != nil && !errors.As(err, &se) {
			t.Errorf("ParseName(%q) error is %T, want *SyntaxError", tt.line, err)
		}
	}
}

func TestParseParameterBlock(t *testing.T) {
	tests := []struct {
		line    string
		want    string
		wantErr bool
	}{
		{`Cmd(A="1",B="2")`, `A="1",B="2"`, false},
		{`Cmd()`, ``, false},
		{`Cmd(A="f(x)")  `, `A="f(x)"`, false},
		{`Cmd(A=")")`, `A=")"`, false},
		{`Cmd(A="1"`, ``, true},
		{`Cmd(A="1") trailing`, ``, true},
		{`Cmd(A=(1)`, ``, true},
	}
	for _, tt := range tests {
		got, err := ParseParameterBlock(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseParameterBlock(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseParameterBlock(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestSplitIntoPairsQuotedComma(t *testing.T) {
	pairs, warnings := SplitIntoPairs(`A="x,y",B="z"`)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs %q, want 2", len(pairs), pairs)
	}
	if pairs[0] != `A="x,y"` || pairs[1] != `B="z"` {
		t.Errorf("pairs = %q", pairs)
	}
}

func TestSplitIntoPairsMalformedContinues(t *testing.T) {
	pairs, warnings := SplitIntoPairs(`A="1", Junk, B=2, C="3"`)
	if len(warnings) != 2 {
		t.Errorf("got %d warnings %v, want 2", len(warnings), warnings)
	}
	want := []string{`A="1"`, `B=2`, `C="3"`}
	if len(pairs) != len(want) {
		t.Fatalf("pairs = %q, want %q", pairs, want)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pairs[%d] = %q, want %q", i, pairs[i], want[i])
		}
	}
}

func TestSplitIntoPairsUnbalancedQuote(t *testing.T) {
	_, warnings := SplitIntoPairs(`A="1,B="2`)
	if len(warnings) == 0 {
		t.Error("expected a warning for the unbalanced quote")
	}
}

func TestPairsToMap(t *testing.T) {
	params, warnings := PairsToMap([]string{`A="1"`, `b="say "hi""`, `a="2"`, `C=3`})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if got := params.Value("A"); got != "2" {
		t.Errorf("A = %q, want last value 2", got)
	}
	if got := params.Value("B"); got != `say "hi"` {
		t.Errorf("B = %q, want interior quotes kept", got)
	}
	if got := params.Value("c"); got != "3" {
		t.Errorf("C = %q, want 3", got)
	}
	if names := params.Names(); len(names) != 3 || names[0] != "A" {
		t.Errorf("names = %q", names)
	}
}

func TestParseParametersEscapedQuote(t *testing.T) {
	params, warnings, err := ParseParameters(`Message(Text="a \"quoted, value\"",Level="Info")`)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings: %v", warnings)
	}
	if got := params.Value("Text"); got != `a \"quoted, value\"` {
		t.Errorf("Text = %q", got)
	}
	if params.Len() != 2 {
		t.Errorf("len = %d, want 2", params.Len())
	}
}

func TestParametersCaseInsensitive(t *testing.T) {
	p := NewParameters()
	p.Set("TableID", "t1")
	p.Set("tableid", "t2")
	if p.Len() != 1 {
		t.Fatalf("len = %d, want 1", p.Len())
	}
	if got := p.Names()[0]; got != "TableID" {
		t.Errorf("name = %q, want entered case kept", got)
	}
	if got := p.Value("TABLEID"); got != "t2" {
		t.Errorf("value = %q", got)
	}
	p.Set("Other", "x")
	p.Delete("tableID")
	if p.Has("TableID") || !p.Has("other") || p.Len() != 1 {
		t.Errorf("after delete: %v", p.Map())
	}
	var nilParams *Parameters
	if nilParams.Has("x") || nilParams.Len() != 0 {
		t.Error("nil parameters should read as empty")
	}
}
