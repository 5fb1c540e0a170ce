package cpu

// Condition is a branch condition code.
type Condition int

//go:generate go tool stringer -linecomment -type=Condition
const (
	COND_EQ = Condition(0)  // EQ
	COND_NE = Condition(1)  // NE
	COND_CS = Condition(2)  // CS
	COND_CC = Condition(3)  // CC
	COND_MI = Condition(4)  // MI
	COND_PL = Condition(5)  // PL
	COND_VS = Condition(6)  // VS
	COND_VC = Condition(7)  // VC
	COND_HI = Condition(8)  // HI
	COND_LS = Condition(9)  // LS
	COND_GE = Condition(10) // GE
	COND_LT = Condition(11) // LT
	COND_GT = Condition(12) // GT
	COND_LE = Condition(13) // LE
	COND_AL = Condition(14) // AL
)

// Condition suffixes accepted after B. HS and LO are the unsigned aliases of CS and CC.
var conditionSuffix = map[string]Condition{
	"EQ": COND_EQ,
	"NE": COND_NE,
	"CS": COND_CS,
	"HS": COND_CS,
	"CC": COND_CC,
	"LO": COND_CC,
	"MI": COND_MI,
	"PL": COND_PL,
	"VS": COND_VS,
	"VC": COND_VC,
	"HI": COND_HI,
	"LS": COND_LS,
	"GE": COND_GE,
	"LT": COND_LT,
	"GT": COND_GT,
	"LE": COND_LE,
	"AL": COND_AL,
}

// Passed evaluates a condition against the NZCV flags.
func (cond Condition) Passed(n, z, c, v bool) (ok bool) {
	switch cond {
	case COND_EQ:
		ok = z
	case COND_NE:
		ok = !z
	case COND_CS:
		ok = c
	case COND_CC:
		ok = !c
	case COND_MI:
		ok = n
	case COND_PL:
		ok = !n
	case COND_VS:
		ok = v
	case COND_VC:
		ok = !v
	case COND_HI:
		ok = c && !z
	case COND_LS:
		ok = !c || z
	case COND_GE:
		ok = n == v
	case COND_LT:
		ok = n != v
	case COND_GT:
		ok = !z && n == v
	case COND_LE:
		ok = z || n != v
	case COND_AL:
		ok = true
	}

	return
}
