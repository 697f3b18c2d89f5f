package signature

import (
	"crypto/sha1"
	"crypto/sha256"
	"hash"
	"sort"
	"strings"
)

// AlgorithmID is the short wire name of a hash algorithm, as it appears
// before the "=" in a signature header.
type AlgorithmID string

const (
	SHA1   AlgorithmID = "sha1"
	SHA256 AlgorithmID = "sha256"
)

// Canonical hash names.
const (
	CanonicalSHA1   = "SHA-1"
	CanonicalSHA256 = "SHA-256"
)

// Header names used to carry signatures over HTTP.
const (
	HeaderSHA1   = "X-Hub-Signature"
	HeaderSHA256 = "X-Hub-Signature-256"
)

type algorithm struct {
	canonical string
	newHash   func() hash.Hash
}

// algorithms maps wire names to canonical hash names. It is the only place
// the supported set is defined.
var algorithms = map[AlgorithmID]algorithm{
	SHA1:   {canonical: CanonicalSHA1, newHash: sha1.New},
	SHA256: {canonical: CanonicalSHA256, newHash: sha256.New},
}

// hashFor resolves a canonical hash name through the algorithm table.
func hashFor(canonical string) (func() hash.Hash, bool) {
	for _, a := range algorithms {
		if a.canonical == canonical {
			return a.newHash, true
		}
	}
	return nil, false
}

// supportedList is the sorted, comma-joined supported set used in messages.
var supportedList = func() string {
	names := make([]string, 0, len(algorithms))
	for id := range algorithms {
		names = append(names, string(id))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}()

// Algorithms returns a copy of the supported algorithm table.
func Algorithms() map[AlgorithmID]string {
	out := make(map[AlgorithmID]string, len(algorithms))
	for id, a := range algorithms {
		out[id] = a.canonical
	}
	return out
}

// CanonicalName returns the canonical hash name for id.
func CanonicalName(id AlgorithmID) (string, bool) {
	a, ok := algorithms[id]
	return a.canonical, ok
}

// IsSupported reports whether id is in the supported table.
func IsSupported(id AlgorithmID) bool {
	_, ok := algorithms[id]
	return ok
}

// HeaderName returns the HTTP header that carries a signature made with alg.
func HeaderName(alg AlgorithmID) string {
	if alg == SHA256 {
		return HeaderSHA256
	}
	return HeaderSHA1
}

// ParseAlgorithms splits a comma-separated list such as "sha256,sha1" into
// algorithm IDs. Empty entries are dropped and order is kept.
func ParseAlgorithms(list string) []AlgorithmID {
	var ids []AlgorithmID
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ids = append(ids, AlgorithmID(part))
	}
	return ids
}
