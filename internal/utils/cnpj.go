package utils

// IsValidCNPJ reports whether s is a structurally valid CNPJ: exactly 14
// digits with both verification digits matching. It accepts only the bare
// digit form, which is how CNPJs appear inside NF-e documents.
func IsValidCNPJ(s string) bool {
	if len(s) != 14 {
		return false
	}
	digits := make([]int, 14)
	allEqual := true
	for i := 0; i < 14; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		digits[i] = int(c - '0')
		if digits[i] != digits[0] {
			allEqual = false
		}
	}
	// Sequences like 00000000000000 pass the digit check but are not valid.
	if allEqual {
		return false
	}

	return cnpjCheckDigit(digits, 12) == digits[12] && cnpjCheckDigit(digits, 13) == digits[13]
}

func cnpjCheckDigit(digits []int, length int) int {
	weight := length - 7 // 5 for the first digit, 6 for the second
	sum := 0
	for i := 0; i < length; i++ {
		sum += digits[i] * weight
		weight--
		if weight < 2 {
			weight = 9
		}
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}
