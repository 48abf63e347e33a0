package cite

import (
	"hash/fnv"
	"math/rand"

	"github.com/CrispStrobe/citer/internal/record"
)

// RefName derives the footnote reference name for a record: one
// lowercase letter followed by three digits, seeded from the record's
// identifiers so the same work always gets the same name.
func RefName(rec *record.Record) string {
	seed := rec.URL() + rec.ISBN + rec.DOI
	if seed == "" {
		switch {
		case rec.OCLC != "":
			seed = rec.OCLC
		case rec.PMID != "":
			seed = rec.PMID
		default:
			seed = rec.PMCID
		}
	}
	h := fnv.New64a()
	h.Write([]byte(seed))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	name := []byte{byte('a' + rng.Intn(26))}
	for i := 0; i < 3; i++ {
		name = append(name, byte('0'+rng.Intn(10)))
	}
	return string(name)
}
