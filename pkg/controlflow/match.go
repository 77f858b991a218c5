package controlflow

import "github.com/ormasoftchile/geoprocessor/pkg/command"

// Named is implemented by the block commands; the name pairs a start with
// its terminator.
type Named interface {
	BlockName() string
}

// BlockName returns the block name of c, or "" if c is not a block command.
func BlockName(c command.Command) string {
	if n, ok := c.(Named); ok {
		return n.BlockName()
	}
	return ""
}

func terminatorOf(k command.Kind) command.Kind {
	if k == command.KindFor {
		return command.KindEndFor
	}
	return command.KindEndIf
}

// FindEnd returns the index of the terminator matching the For or If at
// start: the first later EndFor/EndIf with the same name outside block
// comments. It returns a *StructureError when there is none.
func FindEnd(cmds []command.Command, start int) (int, error) {
	kind := cmds[start].Kind()
	want := terminatorOf(kind)
	name := BlockName(cmds[start])
	inComment := false
	for j := start + 1; j < len(cmds); j++ {
		switch k := cmds[j].Kind(); {
		case inComment:
			inComment = k != command.KindBlockCommentEnd
		case k == command.KindBlockCommentStart:
			inComment = true
		case k == want && BlockName(cmds[j]) == name:
			return j, nil
		}
	}
	return -1, structureErrorf(cmds, start, "%s %q has no matching %s", kind, name, want)
}

// Check verifies that every For and If in cmds is closed by a terminator
// of the same name, and that blocks nest properly.
func Check(cmds []command.Command) error {
	var stack Stack
	inComment := false
	for i, c := range cmds {
		k := c.Kind()
		if inComment {
			inComment = k != command.KindBlockCommentEnd
			continue
		}
		switch k {
		case command.KindBlockCommentStart:
			inComment = true
		case command.KindFor, command.KindIf:
			fk := FrameFor
			if k == command.KindIf {
				fk = FrameIf
			}
			stack.Push(Frame{Name: BlockName(c), Kind: fk, Index: i})
		case command.KindEndFor, command.KindEndIf:
			fk := FrameFor
			if k == command.KindEndIf {
				fk = FrameIf
			}
			name := BlockName(c)
			top, ok := stack.Top()
			if !ok {
				return structureErrorf(cmds, i, "%s %q has no matching %s", k, name, fk)
			}
			if top.Kind != fk || top.Name != name {
				if _, err := FindEnd(cmds, top.Index); err != nil {
					return err
				}
				return structureErrorf(cmds, i, "%s %q closes %s %q opened at command %d", k, name, top.Kind, top.Name, top.Index+1)
			}
			stack.Pop()
		}
	}
	if top, ok := stack.Top(); ok {
		if _, err := FindEnd(cmds, top.Index); err != nil {
			return err
		}
		return structureErrorf(cmds, top.Index, "%s %q is not closed before the end of the file", top.Kind, top.Name)
	}
	return nil
}
