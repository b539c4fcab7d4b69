package risc

import "fmt"

var regOpNames = [...]string{
	OpMov: "MOV", OpLsl: "LSL", OpAsr: "ASR", OpRor: "ROR",
	OpAnd: "AND", OpAnn: "ANN", OpIor: "IOR", OpXor: "XOR",
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV",
	OpMovH: "MHI",
}

var condNames = [...]string{
	CondMI: "MI", CondEQ: "EQ", CondCS: "CS", CondVS: "VS",
	CondLS: "LS", CondLT: "LT", CondLE: "LE", CondTrue: "T",
	CondPL: "PL", CondNE: "NE", CondCC: "CC", CondVC: "VC",
	CondHI: "HI", CondGE: "GE", CondGT: "GT", CondFalse: "F",
}

// Decode renders one instruction word as assembly text, mirroring the
// reference disassembler (ORG_Decode). SYSTEM.COND emits no instruction
// of its own (codegen's Condition only yields a Cond item), and a MOV
// with both modifier bits set is rendered as a plain MOV like any other;
// there is no distinct COND mnemonic.
func Decode(ir uint32) string {
	switch {
	case ir&(msbMask|qMask) == 0:
		return decodeF0(ir)
	case ir&(msbMask|qMask) == qMask:
		return decodeF1(ir)
	case ir&0xC0000000 == 0x80000000:
		return decodeF2(ir)
	default:
		return decodeF3(ir)
	}
}

func decodeF0(ir uint32) string {
	a := (ir >> 24) & 0xF
	b := (ir >> 20) & 0xF
	op := (ir >> 16) & 0xF
	c := ir & 0xF
	return fmt.Sprintf("%s R%d, R%d, R%d", regOpNames[op], a, b, c)
}

func decodeF1(ir uint32) string {
	a := (ir >> 24) & 0xF
	b := (ir >> 20) & 0xF
	op := (ir >> 16) & 0xF
	v := ir&vMask != 0
	var n int32
	if v {
		n = sext16(ir)
	} else {
		n = int32(ir & 0xFFFF)
	}
	return fmt.Sprintf("%s R%d, R%d, %d", regOpNames[op], a, b, n)
}

func decodeF2(ir uint32) string {
	a := (ir >> 24) & 0xF
	b := (ir >> 20) & 0xF
	u := ir&uMask != 0
	v := ir&vMask != 0
	off := sext20(ir)
	mnem := "LDR"
	if u {
		mnem = "STR"
	}
	if v {
		mnem += "B"
	}
	return fmt.Sprintf("%s R%d, R%d, %d", mnem, a, b, off)
}

func decodeF3(ir uint32) string {
	cond := (ir >> 24) & 0xF
	u := ir&uMask != 0
	v := ir&vMask != 0
	mnem := "B"
	if v {
		mnem += "L"
	}
	if !u {
		c := ir & 0xF
		return fmt.Sprintf("%s%s R%d", mnem, condNames[cond], c)
	}
	off := sext24(ir)
	return fmt.Sprintf("%sC%s %d", mnem, condNames[cond], off)
}

// Disassemble renders code[0:pc) as a listing of "addr: mnemonic" lines,
// the textual form the -s flag prints.
func Disassemble(code []int32, pc int32) []string {
	lines := make([]string, 0, pc)
	for i := int32(0); i < pc && int(i) < len(code); i++ {
		lines = append(lines, fmt.Sprintf("%4d  %s", i, Decode(uint32(code[i]))))
	}
	return lines
}
