package catalog

import "strings"

// DefaultPublisher is selected when nothing else is configured
const DefaultPublisher = "Zanichelli"

// Publishers are the publishers an operator may work for
var Publishers = []string{
	"Zanichelli",
	"Piccin",
	"Edises",
	"McGraw-Hill",
	"Pearson",
	"Edi-Ermes",
	"Apogeo",
	"Giappichelli",
	"Il Mulino",
	"Idelson Gnocchi",
}

// CanonicalPublisher returns the listed spelling of name, case-insensitively
func CanonicalPublisher(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, p := range Publishers {
		if strings.EqualFold(p, name) {
			return p, true
		}
	}
	return "", false
}
