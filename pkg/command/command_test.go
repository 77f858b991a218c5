package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

type sampleCommand struct {
	Base
	executed int
}

func newSample() Command {
	return &sampleCommand{Base: NewBase("Sample",
		ParameterMetadata{Name: "InputFile", Type: String, Required: true},
		ParameterMetadata{Name: "Mode", Type: String, Choices: []string{"Fast", "Slow"}, Default: "Fast"},
		ParameterMetadata{Name: "Count", Type: Int},
		ParameterMetadata{Name: "Items", Type: List},
		ParameterMetadata{Name: "Verbose", Type: Bool},
	)}
}

func (c *sampleCommand) ValidateParameters(params *Parameters) error {
	return NewValidator(c, params).Standard().Err()
}

func (c *sampleCommand) Execute(context.Context) error {
	c.executed++
	return nil
}

func TestInitValidates(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantErr  bool
		wantInit status.Severity
	}{
		{"valid", `Sample(InputFile="a.csv",Mode="slow",Count="3",Items="['x','y']",Verbose="TRUE")`, false, status.Success},
		{"missing required", `Sample(Mode="Fast")`, true, status.Failure},
		{"bad choice", `Sample(InputFile="a",Mode="Medium")`, true, status.Failure},
		{"bad int", `Sample(InputFile="a",Count="three")`, true, status.Failure},
		{"bad bool", `Sample(InputFile="a",Verbose="yes")`, true, status.Failure},
		{"bad list", `Sample(InputFile="a",Items="['x")`, true, status.Failure},
		{"property deferred", `Sample(InputFile="a",Count="${N}",Mode="${M}")`, false, status.Success},
		{"unrecognized warns", `Sample(InputFile="a",Extra="1")`, false, status.Warning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newSample()
			err := Init(c, tt.line, nil, true)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init error = %v, wantErr %v", err, tt.wantErr)
			}
			var ve *ValidationError
			if err != nil && !errors.As(err, &ve) {
				t.Errorf("error is %T, want *ValidationError", err)
			}
			if got := c.Status().Severity(status.Initialization); got != tt.wantInit {
				t.Errorf("init severity = %s, want %s", got, tt.wantInit)
			}
		})
	}
}

func TestRevalidationDoesNotDuplicate(t *testing.T) {
	c := newSample()
	if err := Init(c, `Sample(Mode="Fast")`, nil, true); err == nil {
		t.Fatal("expected validation error")
	}
	before := len(c.Status().Records(status.Initialization))
	_ = c.ValidateParameters(c.Parameters())
	_ = c.ValidateParameters(c.Parameters())
	if after := len(c.Status().Records(status.Initialization)); after != before {
		t.Errorf("records grew from %d to %d", before, after)
	}
}

func TestInitSyntaxError(t *testing.T) {
	c := newSample()
	err := Init(c, `Sample(InputFile="a"`, nil, true)
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SyntaxError", err)
	}
	if got := c.Status().Severity(status.Initialization); got != status.Failure {
		t.Errorf("init severity = %s, want Failure", got)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	line := `   Sample(Verbose="True",Extra="e",InputFile="x, y.csv",Count="2")`
	c := newSample()
	if err := Init(c, line, nil, true); err != nil {
		t.Fatal(err)
	}
	got := c.Format(false)
	want := `   Sample(InputFile="x, y.csv",Count="2",Verbose="True",Extra="e")`
	if got != want {
		t.Errorf("Format(false) = %q, want %q", got, want)
	}

	again := newSample()
	if err := Init(again, got, nil, true); err != nil {
		t.Fatal(err)
	}
	a, b := c.Parameters().Map(), again.Parameters().Map()
	if len(a) != len(b) {
		t.Fatalf("re-parsed %v, want %v", b, a)
	}
	for k, v := range a {
		if b[k] != v {
			t.Errorf("%s = %q after round trip, want %q", k, b[k], v)
		}
	}

	all := c.Format(true)
	if !strings.Contains(all, `Mode="Fast"`) || !strings.Contains(all, `Items=""`) {
		t.Errorf("Format(true) = %q, want unset parameters listed with defaults", all)
	}
}

func TestFormatKeepsMalformedLine(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"missing equals", `  Sample(InputFile="a",Bad,Count="3")`},
		{"unquoted value", `Sample(InputFile=a)`},
		{"unbalanced quote", `Sample(InputFile="a,Count="3")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newSample()
			_ = Init(c, tt.line, nil, true)
			if got := c.Status().Severity(status.Initialization); got < status.Warning {
				t.Errorf("init severity = %s, want at least Warning", got)
			}
			for _, all := range []bool{false, true} {
				if got := c.Format(all); got != tt.line {
					t.Errorf("Format(%v) = %q, want %q", all, got, tt.line)
				}
			}
		})
	}
}

func TestValueFallsBackToDefault(t *testing.T) {
	c := newSample().(*sampleCommand)
	if err := Init(c, `Sample(InputFile="a")`, nil, true); err != nil {
		t.Fatal(err)
	}
	if got := c.Value("Mode"); got != "Fast" {
		t.Errorf("Mode = %q, want default Fast", got)
	}
	if got := c.Expanded("InputFile"); got != "a" {
		t.Errorf("Expanded without processor = %q", got)
	}
}

func TestFactoryNew(t *testing.T) {
	f := NewFactory()
	f.Register("Sample", newSample)

	tests := []struct {
		line string
		kind Kind
		name string
	}{
		{``, KindBlank, ""},
		{`   # note`, KindComment, "#"},
		{`/* one line */`, KindComment, "#"},
		{`/*`, KindBlockCommentStart, "/*"},
		{`  */`, KindBlockCommentEnd, "*/"},
		{`sample(InputFile="a")`, KindCommand, "Sample"},
		{`Other(A="1")`, KindUnknown, "Other"},
		{`not a command`, KindUnknown, ""},
	}
	for _, tt := range tests {
		c := f.New(tt.line)
		if c.Kind() != tt.kind {
			t.Errorf("New(%q).Kind() = %s, want %s", tt.line, c.Kind(), tt.kind)
		}
		if c.Name() != tt.name {
			t.Errorf("New(%q).Name() = %q, want %q", tt.line, c.Name(), tt.name)
		}
	}
}

func TestFactoryRegisterTwicePanics(t *testing.T) {
	f := NewFactory()
	f.Register("Sample", newSample)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	f.Register("SAMPLE", newSample)
}

func TestUnknownSeverity(t *testing.T) {
	f := NewFactory()
	tests := []struct {
		line string
		want status.Severity
	}{
		{`Unregistered(A="1")`, status.Warning},
		{`garbage`, status.Failure},
	}
	for _, tt := range tests {
		c := f.New(tt.line)
		if err := Init(c, tt.line, nil, true); err != nil {
			t.Fatalf("Init(%q) = %v", tt.line, err)
		}
		if got := c.Status().Severity(status.Initialization); got != tt.want {
			t.Errorf("%q init severity = %s, want %s", tt.line, got, tt.want)
		}
		if err := c.Execute(context.Background()); err != nil {
			t.Fatal(err)
		}
		if got := c.Status().Severity(status.Run); got != tt.want {
			t.Errorf("%q run severity = %s, want %s", tt.line, got, tt.want)
		}
		if got := c.Format(false); got != tt.line {
			t.Errorf("Format = %q, want line verbatim", got)
		}
	}
}

func TestCommentIsSuccess(t *testing.T) {
	c := NewFactory().New("#@expectedStatus Failure")
	if err := Init(c, "#@expectedStatus Failure", nil, true); err != nil {
		t.Fatal(err)
	}
	for _, p := range status.Phases {
		if got := c.Status().Severity(p); got != status.Success {
			t.Errorf("%s severity = %s, want Success", p, got)
		}
	}
	key, val, ok := c.(*Comment).Annotation()
	if !ok || key != "expectedStatus" || val != "Failure" {
		t.Errorf("Annotation = %q, %q, %v", key, val, ok)
	}
}
