package redact

import (
	"fmt"
	"math/rand"

	"github.com/platinummonkey/veil/pkg/pii"
)

// generator produces one synthetic value for an entity type. Generators draw
// from the applicator's seeded source under the applicator lock.
type generator func(r *rand.Rand) string

var firstNames = []string{
	"Alex", "Jordan", "Morgan", "Taylor", "Casey", "Riley", "Avery",
	"Quinn", "Jamie", "Cameron", "Dana", "Robin",
}

var lastNames = []string{
	"Walker", "Bennett", "Hayes", "Coleman", "Reyes", "Foster",
	"Chambers", "Douglas", "Mercer", "Whitfield",
}

var cities = []string{
	"Springfield", "Riverton", "Fairview", "Lakewood", "Brookside",
	"Milltown", "Ashford", "Greendale",
}

var companySuffixes = []string{"Labs", "Systems", "Holdings", "Industries", "Group", "Partners"}

var streetNames = []string{"Oak", "Maple", "Cedar", "Elm", "Willow", "Juniper"}

// generators maps entity types to their synthetic-value generators. Types not
// listed here fall back to the "[ANON_<TYPE>]" tag.
var generators = map[pii.EntityType]generator{
	pii.TypeEmail: func(r *rand.Rand) string {
		return fmt.Sprintf("%s.%s%d@example.com",
			lower(pick(r, firstNames)), lower(pick(r, lastNames)), r.Intn(100))
	},
	pii.TypePhone: func(r *rand.Rand) string {
		return fmt.Sprintf("+1-555-%03d-%04d", r.Intn(1000), r.Intn(10000))
	},
	pii.TypePersonName: func(r *rand.Rand) string {
		return pick(r, firstNames) + " " + pick(r, lastNames)
	},
	pii.TypeOrganization: func(r *rand.Rand) string {
		return pick(r, lastNames) + " " + pick(r, companySuffixes)
	},
	pii.TypeLocation: func(r *rand.Rand) string {
		return pick(r, cities)
	},
	pii.TypeDOB: func(r *rand.Rand) string {
		return fmt.Sprintf("%04d-%02d-%02d", 1950+r.Intn(55), 1+r.Intn(12), 1+r.Intn(28))
	},
	pii.TypeCreditCard: func(r *rand.Rand) string {
		return fmt.Sprintf("4%03d%04d%04d%04d", r.Intn(1000), r.Intn(10000), r.Intn(10000), r.Intn(10000))
	},
	pii.TypeSSN: func(r *rand.Rand) string {
		// Stay inside the valid allocation ranges so the substitute looks
		// plausible without colliding with reserved prefixes.
		return fmt.Sprintf("%03d-%02d-%04d", 100+r.Intn(500), 1+r.Intn(99), 1+r.Intn(9999))
	},
	pii.TypeIPAddress: func(r *rand.Rand) string {
		return fmt.Sprintf("10.%d.%d.%d", r.Intn(256), r.Intn(256), 1+r.Intn(254))
	},
	pii.TypeURL: func(r *rand.Rand) string {
		return fmt.Sprintf("https://%s-%d.example.com/", lower(pick(r, streetNames)), r.Intn(100))
	},
	pii.TypeAadhaar: func(r *rand.Rand) string {
		return fmt.Sprintf("%04d %04d %04d", 2000+r.Intn(8000), 1000+r.Intn(9000), 1000+r.Intn(9000))
	},
	pii.TypePAN: func(r *rand.Rand) string {
		return upperLetters(r, 5) + fmt.Sprintf("%04d", r.Intn(10000)) + upperLetters(r, 1)
	},
	pii.TypePassport: func(r *rand.Rand) string {
		return upperLetters(r, 1) + fmt.Sprintf("%07d", 1000000+r.Intn(9000000))
	},
	pii.TypeZipCode: func(r *rand.Rand) string {
		return fmt.Sprintf("%05d", r.Intn(100000))
	},
	pii.TypeAddress: func(r *rand.Rand) string {
		return fmt.Sprintf("%d %s Street, %s", 1+r.Intn(999), pick(r, streetNames), pick(r, cities))
	},
}

// anonymize returns the cached synthetic value for (type, value), generating
// and memoizing one on miss. A panicking generator or an unsupported type
// yields the fallback tag; generation failure is never propagated.
func (a *Applicator) anonymize(e pii.Entity) string {
	cacheKey := string(e.Type) + ":" + e.Value

	a.mu.Lock()
	defer a.mu.Unlock()

	if cached, ok := a.anonCache[cacheKey]; ok {
		return cached
	}

	synthetic := a.generate(e.Type)
	a.anonCache[cacheKey] = synthetic
	return synthetic
}

// generate runs the type's generator with panic containment. Callers hold the
// applicator lock.
func (a *Applicator) generate(entityType pii.EntityType) (out string) {
	fallback := "[ANON_" + string(entityType) + "]"
	defer func() {
		if recover() != nil {
			out = fallback
		}
	}()

	gen, ok := generators[entityType]
	if !ok {
		return fallback
	}
	return gen(a.rng)
}

func pick(r *rand.Rand, options []string) string {
	return options[r.Intn(len(options))]
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func upperLetters(r *rand.Rand, n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte('A' + r.Intn(26))
	}
	return string(out)
}
