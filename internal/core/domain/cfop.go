package domain

// CFOPEffect classifies how an operation code moves the consignment balance.
type CFOPEffect string

const (
	// EffectConsignmentOut decreases the balance: goods shipped to the client.
	EffectConsignmentOut CFOPEffect = "CONSIGNMENT_OUT"
	// EffectConsignmentReturn increases the balance: goods physically returned.
	EffectConsignmentReturn CFOPEffect = "CONSIGNMENT_RETURN"
	// EffectSymbolicReturn increases the balance: material consumed by the
	// recipient, returned on paper only.
	EffectSymbolicReturn CFOPEffect = "SYMBOLIC_RETURN"
	// EffectBilling leaves the balance unchanged: billing of previously
	// consigned stock is a financial event, not a stock movement.
	EffectBilling CFOPEffect = "BILLING"
)

// CFOPTable maps 4-digit operation codes to their consignment effect.
// Codes absent from the table contribute nothing to the balance.
type CFOPTable map[string]CFOPEffect

// DefaultCFOPTable returns the fixed taxonomy used by OPME consignment flows.
func DefaultCFOPTable() CFOPTable {
	return CFOPTable{
		"5917": EffectConsignmentOut,
		"6917": EffectConsignmentOut,
		"1918": EffectConsignmentReturn,
		"2918": EffectConsignmentReturn,
		"1919": EffectSymbolicReturn,
		"2919": EffectSymbolicReturn,
		"5114": EffectBilling,
		"6114": EffectBilling,
	}
}
