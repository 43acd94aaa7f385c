package analysis

import (
	"github.com/miekg/dns"
	"slices"
)

// ancestors returns every name from the root down to (and including) name.
// e.g. "www.example.com." -> [".", "com.", "example.com.", "www.example.com."].
func ancestors(name string) []string {
	name = dns.CanonicalName(name)

	labelIndexes := append(dns.Split(name), len(name)-1)
	slices.Reverse(labelIndexes)

	result := make([]string, 0, len(labelIndexes))
	for _, idx := range labelIndexes {
		result = append(result, name[idx:])
	}
	return result
}

func namesEqual(s1, s2 string) bool {
	return dns.CanonicalName(s1) == dns.CanonicalName(s2)
}
