package bytecode

import (
	"fmt"

	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/label"
)

// layoutOffsets walks blocks in placement order, computing each block's
// absolute start offset and the padding its closing switch instruction (if
// any) needs for 4-byte table alignment, then returns the start offsets,
// the set of blocks that are some instruction's jump target (and so need a
// stack map frame), and the method's total bytecode width.
func layoutOffsets(order []label.Label, blocks map[label.Label]*BasicBlock) (map[label.Label]int, map[label.Label]bool, int, error) {
	offsets := make(map[label.Label]int, len(order))
	offset := 0
	for _, l := range order {
		block, ok := blocks[l]
		if !ok {
			return nil, nil, 0, fmt.Errorf("bytecode: block order names unplaced label %s", l)
		}
		offsets[l] = offset

		branchOffset := offset + block.instructionsWidth()
		padding := (4 - (branchOffset+1)%4) % 4
		block.End.SetPadding(uint8(padding))

		offset += block.Width()
	}

	jumpTargets := make(map[label.Label]bool)
	for _, l := range order {
		for _, target := range blocks[l].End.JumpTargets() {
			jumpTargets[target] = true
		}
	}

	return offsets, jumpTargets, offset, nil
}

// serializeCode lays the blocks out into one big-endian bytecode array,
// resolving every branch's label targets to offsets relative to its own
// position. Because all block offsets are already final by this point
// (jump widening has already run), a single linear pass suffices.
func serializeCode(order []label.Label, blocks map[label.Label]*BasicBlock, offsets map[label.Label]int) ([]byte, error) {
	e := classfile.NewEncoder()
	resolve := func(l label.Label) (int, error) {
		off, ok := offsets[l]
		if !ok {
			return 0, ErrUnplacedLabel{Label: l}
		}
		return off, nil
	}

	for _, l := range order {
		block := blocks[l]
		base := offsets[l]
		for _, insn := range block.Instructions {
			insn.emit(e)
		}
		selfOffset := base + block.instructionsWidth()
		if err := block.End.emit(e, selfOffset, resolve); err != nil {
			return nil, err
		}
	}
	if err := e.Err(); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}
