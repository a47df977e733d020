package core

import (
	"fmt"
	"strings"
	"unicode"
)

// CompanyInitials returns the upper-cased first letter or digit of each word in
// name. Names without any such character yield "CO".
func CompanyInitials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
	}
	if b.Len() == 0 {
		return "CO"
	}
	return b.String()
}

// FormatCode renders a human document code such as "ABC PO-001".
// seq comes from the per-(company, type) atomic sequence; padding grows past 999.
func FormatCode(companyName string, docType DocumentType, seq int64) string {
	return fmt.Sprintf("%s %s-%03d", CompanyInitials(companyName), docType.Prefix(), seq)
}
