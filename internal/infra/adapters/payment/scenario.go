package payment

import "strings"

// Scenario is a forced outcome selected by a reserved card prefix.
type Scenario int

const (
	ScenarioNone Scenario = iota
	ScenarioDecline
	ScenarioExpired
	ScenarioIncorrectCVV
	ScenarioProcessingError
)

const (
	CardSuccessVisa       = "4242424242424242"
	CardSuccessMastercard = "5555555555554444"
	CardSuccessAmex       = "378282246310005"

	CardDecline         = "4000000000000002"
	CardExpired         = "4000000000000069"
	CardIncorrectCVV    = "4000000000000127"
	CardProcessingError = "4000000000000119"
)

var scenarioPrefixes = []struct {
	prefix   string
	scenario Scenario
}{
	{CardDecline, ScenarioDecline},
	{CardExpired, ScenarioExpired},
	{CardIncorrectCVV, ScenarioIncorrectCVV},
	{CardProcessingError, ScenarioProcessingError},
}

// ResolveScenario maps a normalized card number to its forced outcome.
func ResolveScenario(n string) Scenario {
	for _, sp := range scenarioPrefixes {
		if strings.HasPrefix(n, sp.prefix) {
			return sp.scenario
		}
	}
	return ScenarioNone
}

type brandRule struct {
	brand    string
	prefixes []string
}

// order matters: first match wins
var brandRules = []brandRule{
	{"visa", []string{"4"}},
	{"mastercard", []string{"51", "52", "53", "54", "55", "22", "23", "24", "25", "26", "27"}},
	{"amex", []string{"34", "37"}},
	{"discover", []string{"6011", "65", "644", "645", "646", "647", "648", "649"}},
	{"diners", []string{"36", "38", "300", "301", "302", "303", "304", "305"}},
	{"jcb", []string{"35"}},
}

// DetectCardBrand returns the card network for n, or "unknown".
func DetectCardBrand(n string) string {
	for _, r := range brandRules {
		for _, p := range r.prefixes {
			if strings.HasPrefix(n, p) {
				return r.brand
			}
		}
	}
	return "unknown"
}

// TestCards lists the sandbox card numbers by outcome, for documentation.
func TestCards() map[string]map[string]string {
	return map[string]map[string]string{
		"success": {
			"visa":       CardSuccessVisa,
			"mastercard": CardSuccessMastercard,
			"amex":       CardSuccessAmex,
		},
		"decline": {
			"generic_decline":  CardDecline,
			"expired_card":     CardExpired,
			"incorrect_cvv":    CardIncorrectCVV,
			"processing_error": CardProcessingError,
		},
	}
}
