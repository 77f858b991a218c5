package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ormasoftchile/geoprocessor/pkg/command"

	_ "github.com/ormasoftchile/geoprocessor/pkg/commands"
	_ "github.com/ormasoftchile/geoprocessor/pkg/controlflow"
)

func TestBuild(t *testing.T) {
	entries := Build(command.Default)
	for _, name := range []string{"For", "If", "SetProperty", "RunCommands", "CopyGeoLayer"} {
		if _, ok := Find(entries, name); !ok {
			t.Errorf("catalog missing %s", name)
		}
	}
	e, _ := Find(entries, "for")
	if e.Kind != "for" {
		t.Errorf("For kind = %q", e.Kind)
	}
	if _, ok := command.Lookup(e.Parameters, "SequenceStart"); !ok {
		t.Errorf("For parameters = %+v", e.Parameters)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Name > entries[i].Name {
			t.Errorf("entries not sorted: %s before %s", entries[i-1].Name, entries[i].Name)
		}
	}
}

func TestMarkdown(t *testing.T) {
	f := command.NewFactory()
	f.Register("Exit", func() command.Command { return &stub{Base: command.NewBase("Exit")} })
	f.Register("Echo", func() command.Command {
		return &stub{Base: command.NewBase("Echo",
			command.ParameterMetadata{Name: "Text", Type: command.String, Required: true, Description: "a|b"},
			command.ParameterMetadata{Name: "Mode", Type: command.String, Default: "Loud", Choices: []string{"Loud", "Quiet"}},
		)}
	})
	md := Markdown(Build(f))
	for _, want := range []string{
		"## Echo",
		"| `Text` | String | yes |  | a\\|b |",
		"| `Mode` | String |  | Loud | One of: Loud, Quiet. |",
		"## Exit\n\nNo parameters.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if _, err := Render(md, 80); err != nil {
		t.Errorf("Render: %v", err)
	}
}

func TestJSON(t *testing.T) {
	out, err := JSON(Build(command.Default))
	if err != nil {
		t.Fatal(err)
	}
	var back []Entry
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if len(back) == 0 {
		t.Error("empty catalog")
	}
	if s, err := Schema(); err != nil || !strings.Contains(string(s), `"parameters"`) {
		t.Errorf("Schema: %v", err)
	}
}

type stub struct{ command.Base }

func (s *stub) ValidateParameters(params *command.Parameters) error {
	return command.NewValidator(s, params).Standard().Err()
}

func (s *stub) Execute(context.Context) error { return nil }
