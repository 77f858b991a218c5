package controlflow

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

func load(t *testing.T, lines ...string) []command.Command {
	t.Helper()
	cmds := make([]command.Command, 0, len(lines))
	for _, line := range lines {
		c := command.Default.New(line)
		_ = command.Init(c, line, nil, true)
		cmds = append(cmds, c)
	}
	return cmds
}

func collect(t *testing.T, line string) []any {
	t.Helper()
	c := load(t, line)[0]
	f, ok := c.(*For)
	if !ok {
		t.Fatalf("%q is %T, want *For", line, c)
	}
	var out []any
	for i := 0; i < 100; i++ {
		more, err := f.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !more {
			return out
		}
		out = append(out, f.Current())
	}
	t.Fatalf("%q did not terminate", line)
	return nil
}

func TestForSequence(t *testing.T) {
	tests := []struct {
		line string
		want []any
	}{
		{`For(Name="i",SequenceStart="1",SequenceEnd="3",SequenceIncrement="1")`, []any{1, 2, 3}},
		{`For(Name="i",SequenceStart="1",SequenceEnd="3")`, []any{1, 2, 3}},
		{`For(Name="i",SequenceStart="10",SequenceEnd="4",SequenceIncrement="-3")`, []any{10, 7, 4}},
		{`For(Name="i",SequenceStart="0",SequenceEnd="0.3",SequenceIncrement="0.1")`, []any{0.0, 0.1, 0.2, 0.30000000000000004}},
		{`For(Name="i",SequenceStart="5",SequenceEnd="1")`, nil},
		{`For(Name="i",ListValues="['a','b,c']")`, []any{"a", "b,c"}},
	}
	for _, tt := range tests {
		got := collect(t, tt.line)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestForResetsAfterExhaustion(t *testing.T) {
	f := load(t, `For(Name="i",ListValues="x,y")`)[0].(*For)
	ctx := context.Background()
	for pass := 0; pass < 2; pass++ {
		var got []any
		for {
			more, err := f.Next(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if !more {
				break
			}
			got = append(got, f.Current())
		}
		if len(got) != 2 {
			t.Errorf("pass %d: got %v, want 2 values", pass, got)
		}
	}
}

func TestForZeroIncrement(t *testing.T) {
	f := load(t, `For(Name="i",SequenceStart="1",SequenceEnd="3",SequenceIncrement="0")`)[0].(*For)
	if _, err := f.Next(context.Background()); err == nil {
		t.Error("expected error for zero increment")
	}
}

func TestForValidation(t *testing.T) {
	tests := []struct {
		line    string
		wantErr bool
	}{
		{`For(Name="i",SequenceStart="1",SequenceEnd="2")`, false},
		{`For(Name="i",TableID="t",TableColumn="c")`, false},
		{`For(Name="i")`, true},
		{`For(SequenceStart="1",SequenceEnd="2")`, true},
		{`For(Name="i",SequenceStart="1")`, true},
		{`For(Name="i",SequenceStart="1",SequenceEnd="2",ListValues="a")`, true},
		{`For(Name="i",TableID="t")`, true},
	}
	for _, tt := range tests {
		c := command.Default.New(tt.line)
		err := command.Init(c, tt.line, nil, true)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.line, err, tt.wantErr)
		}
	}
}

func TestIteratorPropertyDefaultsToName(t *testing.T) {
	f := load(t, `For(Name="year",ListValues="a")`)[0].(*For)
	if got := f.IteratorProperty(); got != "year" {
		t.Errorf("IteratorProperty = %q", got)
	}
	f = load(t, `For(Name="year",IteratorProperty="Y",ListValues="a")`)[0].(*For)
	if got := f.IteratorProperty(); got != "Y" {
		t.Errorf("IteratorProperty = %q", got)
	}
}

func TestIfWithoutProcessor(t *testing.T) {
	tests := []struct {
		line    string
		want    bool
		wantErr bool
	}{
		{`If(Name="a",Condition="5 > 3")`, true, false},
		{`If(Name="a",Condition="1 == 2")`, false, false},
		{`If(Name="a",Condition="abc == abd",CompareAsStrings="True")`, false, false},
		{`If(Name="a",Condition="abc <= abd",CompareAsStrings="True")`, true, false},
		{`If(Name="a",Condition="1 +")`, false, true},
	}
	for _, tt := range tests {
		c := load(t, tt.line)[0].(*If)
		err := c.Execute(context.Background())
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.line, err, tt.wantErr)
		}
		if c.Result() != tt.want {
			t.Errorf("%s: result = %v, want %v", tt.line, c.Result(), tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		wantErr string
	}{
		{"nested ok", []string{
			`For(Name="i",ListValues="a")`,
			`If(Name="c",Condition="true")`,
			`EndIf(Name="c")`,
			`EndFor(Name="i")`,
		}, ""},
		{"unmatched for", []string{
			`For(Name="i",ListValues="a")`,
			`Exit()`,
		}, "no matching"},
		{"misnamed end", []string{
			`For(Name="i",ListValues="a")`,
			`EndFor(Name="j")`,
		}, "no matching"},
		{"dangling end", []string{
			`EndIf(Name="c")`,
		}, "no matching"},
		{"crossed blocks", []string{
			`For(Name="i",ListValues="a")`,
			`If(Name="c",Condition="true")`,
			`EndFor(Name="i")`,
			`EndIf(Name="c")`,
		}, "closes"},
		{"commented terminator", []string{
			`For(Name="i",ListValues="a")`,
			`/*`,
			`EndFor(Name="i")`,
			`*/`,
		}, "no matching"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(load(t, tt.lines...))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var se *StructureError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *StructureError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestFindEnd(t *testing.T) {
	cmds := load(t,
		`For(Name="i",ListValues="a")`,
		`For(Name="j",ListValues="a")`,
		`EndFor(Name="j")`,
		`EndFor(Name="i")`,
	)
	if got, err := FindEnd(cmds, 0); err != nil || got != 3 {
		t.Errorf("FindEnd(0) = %d, %v; want 3", got, err)
	}
	if got, err := FindEnd(cmds, 1); err != nil || got != 2 {
		t.Errorf("FindEnd(1) = %d, %v; want 2", got, err)
	}
}

func TestStackLive(t *testing.T) {
	var s Stack
	if !s.Live() {
		t.Error("empty stack should be live")
	}
	s.Push(Frame{Name: "i", Kind: FrameFor, True: true})
	s.Push(Frame{Name: "c", Kind: FrameIf, True: false})
	if s.Live() {
		t.Error("stack with a false frame should not be live")
	}
	if f, _ := s.Pop(); f.Name != "c" {
		t.Errorf("popped %q, want c", f.Name)
	}
	if !s.Live() {
		t.Error("stack should be live after popping the false frame")
	}
}

func TestCursor(t *testing.T) {
	c := NewCursor(5)
	if i, ok := c.Next(); i != 0 || !ok {
		t.Fatalf("first Next = %d, %v", i, ok)
	}
	c.Next()
	c.Next()
	c.Restart(1)
	if i, _ := c.Next(); i != 1 {
		t.Errorf("after Restart(1) Next = %d", i)
	}
	c.ResumeAfter(3)
	if i, _ := c.Next(); i != 4 {
		t.Errorf("after ResumeAfter(3) Next = %d", i)
	}
	c.Stop()
	if _, ok := c.Next(); ok {
		t.Error("Next after Stop should report the end")
	}
}

func TestTerminatorSuccess(t *testing.T) {
	c := load(t, `EndIf(Name="c")`)[0]
	if err := c.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := c.Status().Severity(status.Run); got != status.Success {
		t.Errorf("run severity = %s", got)
	}
}
