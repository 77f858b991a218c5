package command

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// Constructor returns a new, uninitialized command.
type Constructor func() Command

type entry struct {
	name string
	ctor Constructor
}

// Factory maps command names to constructors. Lookup is case-insensitive.
// The factory only reads the command name; parameters are parsed by the
// command's Initialize.
type Factory struct {
	mu    sync.RWMutex
	ctors map[string]entry
}

// NewFactory returns an empty factory.
func NewFactory() *Factory {
	return &Factory{ctors: make(map[string]entry)}
}

// Default is the factory commands register themselves with from init.
var Default = NewFactory()

// Register adds ctor to the default factory.
func Register(name string, ctor Constructor) {
	Default.Register(name, ctor)
}

// Register adds ctor under name. Registering a name twice panics.
func (f *Factory) Register(name string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(name)
	if _, dup := f.ctors[key]; dup {
		panic(fmt.Sprintf("command: %s registered twice", name))
	}
	f.ctors[key] = entry{name: name, ctor: ctor}
}

// Lookup returns the constructor for name.
func (f *Factory) Lookup(name string) (Constructor, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.ctors[strings.ToLower(name)]
	return e.ctor, ok
}

// Names returns the registered names, sorted.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.ctors))
	for _, e := range f.ctors {
		out = append(out, e.name)
	}
	sort.Strings(out)
	return out
}

// Clone returns a factory with the same registrations.
func (f *Factory) Clone() *Factory {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c := NewFactory()
	for k, e := range f.ctors {
		c.ctors[k] = e
	}
	return c
}

// New selects the command type for line and returns an uninitialized
// instance. Blank, comment and block-comment lines get placeholders; a line
// whose name cannot be parsed or is not registered gets an Unknown.
func (f *Factory) New(line string) Command {
	t := strings.TrimSpace(line)
	switch {
	case t == "":
		return NewBlank()
	case strings.HasPrefix(t, "/*") && len(t) >= 4 && strings.HasSuffix(t, "*/"):
		return NewComment()
	case strings.HasPrefix(t, "/*"):
		return NewBlockCommentStart()
	case strings.HasSuffix(t, "*/"):
		return NewBlockCommentEnd()
	case strings.HasPrefix(t, "#"):
		return NewComment()
	}
	name, err := ParseName(line)
	if err != nil {
		return NewUnknown("", err.Error(), status.Failure)
	}
	ctor, ok := f.Lookup(name)
	if !ok {
		return NewUnknown(name, fmt.Sprintf("Unrecognized command %q.", name), status.Warning)
	}
	return ctor()
}
