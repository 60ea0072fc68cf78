package strategydef

import "strings"

// Strategy identifiers.
const (
	StrategyNone = "none"
	StrategyBob  = "bob"
	StrategyFed  = "fed"
)

// SlotKind is the encoding of one position of an on-chain parameter tuple.
type SlotKind uint8

const (
	// SlotBasisPoints is an integer in hundredths of a percent; decoded value = raw / 100.
	SlotBasisPoints SlotKind = iota + 1
	// SlotBool is a plain boolean.
	SlotBool
	// SlotCurrency is a fixed-point amount with two decimals, decoded to a decimal string.
	SlotCurrency
)

func (k SlotKind) String() string {
	switch k {
	case SlotBasisPoints:
		return "basis points"
	case SlotBool:
		return "boolean"
	case SlotCurrency:
		return "currency"
	}
	return "unknown"
}

// Slot maps a tuple position to a parameter ID.
type Slot struct {
	Field string
	Kind  SlotKind
}

// Kind is the closed set of strategy contract kinds.
type Kind uint8

const (
	KindNone Kind = iota
	KindBob
	KindFed
)

// KindOf maps a strategy ID (case-insensitive) to its kind.
func KindOf(id string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case StrategyNone:
		return KindNone, true
	case StrategyBob:
		return KindBob, true
	case StrategyFed:
		return KindFed, true
	}
	return KindNone, false
}

// Layout is the positional layout of getAllParameters for the kind.
// It must match the contract getter; KindNone has no layout.
func (k Kind) Layout() []Slot {
	switch k {
	case KindBob:
		return []Slot{
			{"targetRangeUpper", SlotBasisPoints},
			{"targetRangeLower", SlotBasisPoints},
			{"rebalanceThresholdUpper", SlotBasisPoints},
			{"rebalanceThresholdLower", SlotBasisPoints},
			{"feeReinvestment", SlotBool},
			{"reinvestmentTrigger", SlotCurrency},
			{"reinvestmentRatio", SlotBasisPoints},
			{"maxSlippage", SlotBasisPoints},
			{"emergencyExitTrigger", SlotBasisPoints},
			{"maxUtilization", SlotBasisPoints},
		}
	case KindFed:
		return []Slot{
			{"targetRange", SlotBasisPoints},
			{"rebalanceThreshold", SlotBasisPoints},
			{"feeReinvestment", SlotBool},
			{"maxSlippage", SlotBasisPoints},
		}
	case KindNone:
		return nil
	}
	return nil
}

// ContractName returns the registry name of the kind's contract.
func (k Kind) ContractName() string {
	switch k {
	case KindBob:
		return "BobStrategy"
	case KindFed:
		return "FedStrategy"
	}
	return ""
}
