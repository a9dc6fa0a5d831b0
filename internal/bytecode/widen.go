package bytecode

import "github.com/wasm2jar/wasm2jar/internal/label"

// widenJumps repeatedly lays out the method and rewrites any branch
// instruction whose target falls outside the signed 16-bit range a narrow
// jump encodes, until a full pass needs no further changes. A goto simply
// flips to its 5-byte goto_w form in place. A conditional jump has no wide
// form at all, so it is rewritten as "branch (with negated condition) over
// a trampoline block that unconditionally goto_w's to the original
// target" — the standard idiom javac itself falls back to. Either kind of
// widening can grow the method enough to push some other, previously
// in-range jump out of range, which is why this is a fixed-point loop
// rather than a single pass.
func widenJumps(order []label.Label, blocks map[label.Label]*BasicBlock, gen *label.Generator) ([]label.Label, map[label.Label]*BasicBlock, error) {
	order = append([]label.Label(nil), order...)

	for {
		offsets, _, _, err := layoutOffsets(order, blocks)
		if err != nil {
			return nil, nil, err
		}

		changed := false
		newOrder := make([]label.Label, 0, len(order))

		for _, l := range order {
			block := blocks[l]
			newOrder = append(newOrder, l)
			end := block.End
			selfOffset := offsets[l] + block.instructionsWidth()

			switch {
			case end.kind == brGoto && !end.wide:
				if outOfRange(offsets[end.target], selfOffset) {
					end.wide = true
					block.End = end
					changed = true
				}

			case end.conditionalWidenable():
				if outOfRange(offsets[end.target], selfOffset) {
					trampoline := gen.Fresh()
					blocks[trampoline] = &BasicBlock{
						Frame: blocks[end.target].Frame,
						End:   Goto(end.target),
					}
					rewritten := end.invertedForTrampoline(end.fallthrough_)
					rewritten.fallthrough_ = trampoline
					block.End = rewritten
					newOrder = append(newOrder, trampoline)
					changed = true
				}
			}
		}

		order = newOrder
		if !changed {
			return order, blocks, nil
		}
	}
}

func outOfRange(targetOffset, selfOffset int) bool {
	delta := targetOffset - selfOffset
	return delta < -32768 || delta > 32767
}
