package pattern

import (
	"regexp"
	"strings"

	"github.com/platinummonkey/veil/pkg/pii"
)

// Rule is one compiled detection pattern. When the expression contains a
// capturing group the first group provides the reported span, which lets
// contextual rules ("my name is X") anchor on the phrase but report only the
// sensitive part.
type Rule struct {
	Type        pii.EntityType
	Expr        *regexp.Regexp
	Confidence  float64
	Description string

	// validate optionally rejects a match after the fact. Used where the
	// original pattern language leaned on lookaheads that RE2 does not
	// support, e.g. SSN allocation rules.
	validate func(value string) bool
}

// validSSN rejects values in the never-allocated SSN ranges: area 000, 666
// or 9xx, group 00, serial 0000.
func validSSN(value string) bool {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
	if len(digits) != 9 {
		return false
	}
	area, group, serial := digits[:3], digits[3:5], digits[5:]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if group == "00" || serial == "0000" {
		return false
	}
	return true
}

// builtinRules returns the default rule set with per-rule confidences. All
// expressions compile case-insensitively, matching the behavior of the
// contextual name and address rules.
func builtinRules() []Rule {
	return []Rule{
		{
			Type:        pii.TypeEmail,
			Expr:        regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
			Confidence:  0.95,
			Description: "Standard email address",
		},
		{
			Type:        pii.TypePhone,
			Expr:        regexp.MustCompile(`\b(?:\+?1[-.\s]?)?(?:\(?\d{3}\)?[-.\s]?)?\d{3}[-.\s]?\d{4}\b`),
			Confidence:  0.85,
			Description: "US phone number",
		},
		{
			Type:        pii.TypePhone,
			Expr:        regexp.MustCompile(`\b(?:\+91[-.\s]?)?[6-9]\d{9}\b`),
			Confidence:  0.90,
			Description: "Indian phone number",
		},
		{
			Type:        pii.TypePhone,
			Expr:        regexp.MustCompile(`\b(?:\+\d{1,3}[-.\s]?)?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}\b`),
			Confidence:  0.75,
			Description: "International phone number",
		},
		{
			Type:        pii.TypeAadhaar,
			Expr:        regexp.MustCompile(`\b[2-9]\d{3}[-\s]?\d{4}[-\s]?\d{4}\b`),
			Confidence:  0.90,
			Description: "Indian Aadhaar number",
		},
		{
			Type:        pii.TypeSSN,
			Expr:        regexp.MustCompile(`\b\d{3}[-\s]?\d{2}[-\s]?\d{4}\b`),
			Confidence:  0.88,
			Description: "US Social Security Number",
			validate:    validSSN,
		},
		{
			Type:        pii.TypeCreditCard,
			Expr:        regexp.MustCompile(`\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13}|3(?:0[0-5]|[68][0-9])[0-9]{11}|6(?:011|5[0-9]{2})[0-9]{12}|(?:2131|1800|35\d{3})\d{11})\b`),
			Confidence:  0.92,
			Description: "Credit card number (Visa, MC, Amex, Discover)",
		},
		{
			Type:        pii.TypeCreditCard,
			Expr:        regexp.MustCompile(`\b\d{4}[-\s]\d{4}[-\s]\d{4}[-\s]\d{4}\b`),
			Confidence:  0.85,
			Description: "Credit card with separators",
		},
		{
			Type:        pii.TypeIPAddress,
			Expr:        regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\.){3}(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\b`),
			Confidence:  0.90,
			Description: "IPv4 address",
		},
		{
			Type:        pii.TypeIPAddress,
			Expr:        regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`),
			Confidence:  0.92,
			Description: "IPv6 address",
		},
		{
			Type:        pii.TypeDOB,
			Expr:        regexp.MustCompile(`\b(?:0[1-9]|[12]\d|3[01])[-/](?:0[1-9]|1[0-2])[-/](?:19|20)\d{2}\b`),
			Confidence:  0.70,
			Description: "Date DD/MM/YYYY or DD-MM-YYYY",
		},
		{
			Type:        pii.TypeDOB,
			Expr:        regexp.MustCompile(`\b(?:19|20)\d{2}[-/](?:0[1-9]|1[0-2])[-/](?:0[1-9]|[12]\d|3[01])\b`),
			Confidence:  0.70,
			Description: "Date YYYY/MM/DD or YYYY-MM-DD",
		},
		{
			Type:        pii.TypeURL,
			Expr:        regexp.MustCompile(`(?i)https?://(?:www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b(?:[-a-zA-Z0-9()@:%_+.~#?&/=]*)`),
			Confidence:  0.80,
			Description: "URL/Web address",
		},
		{
			Type:        pii.TypePAN,
			Expr:        regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`),
			Confidence:  0.85,
			Description: "Indian PAN card number",
		},
		{
			Type:        pii.TypePassport,
			Expr:        regexp.MustCompile(`\b[A-Z][1-9]\d{7}\b`),
			Confidence:  0.70,
			Description: "Indian passport number",
		},
		{
			Type:        pii.TypeZipCode,
			Expr:        regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`),
			Confidence:  0.60,
			Description: "US ZIP code",
		},
		{
			Type:        pii.TypeZipCode,
			Expr:        regexp.MustCompile(`\b\d{6}\b`),
			Confidence:  0.50,
			Description: "Indian PIN code",
		},
		{
			Type:        pii.TypePersonName,
			Expr:        regexp.MustCompile(`(?i)(?:my name is|i am|this is|i'm|call me|name:\s*|name\s*[-–]\s*)\s*([A-Za-z][a-z]+(?:\s+[A-Za-z][a-z]+)*)`),
			Confidence:  0.80,
			Description: "Name from contextual phrase",
		},
		{
			Type:        pii.TypePersonName,
			Expr:        regexp.MustCompile(`(?i)(?:hi|hello|hey|dear)\s+(?:this is|i am|i'm)\s+([A-Za-z][a-z]+(?:\s+[A-Za-z][a-z]+)*)`),
			Confidence:  0.80,
			Description: "Name from greeting phrase",
		},
		{
			Type:        pii.TypeAddress,
			Expr:        regexp.MustCompile(`(?i)(?:i live in|i live at|address is|address:\s*|located at|residing at|resident of|live in|stay at|stay in)\s+(.+?)(?:\.|,\s*(?:phone|email|contact|my)|$)`),
			Confidence:  0.78,
			Description: "Address from contextual phrase",
		},
		{
			Type:        pii.TypeAddress,
			Expr:        regexp.MustCompile(`(?i)\b\d{1,5}[-/]\d{1,5}(?:[-/]\d{1,5})?\s+[A-Za-z].*?(?:road|street|st|avenue|ave|lane|ln|nagar|colony|sector|block|cross|main|layout|puram|pet|peta|abad)\b`),
			Confidence:  0.72,
			Description: "Street address with number and road type",
		},
	}
}
