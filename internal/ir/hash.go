package ir

import (
	"github.com/zeebo/blake3"
)

// Domain names for content-addressed identity.
// Version suffix enables future algorithm migration. Changing any of these
// invalidates every identifier derived in that domain.
const (
	DomainData    = "casmemo/data/v1"
	DomainLeaf    = "casmemo/expr/leaf/v1"
	DomainCompute = "casmemo/expr/compute/v1"
)

// domainKey is a 32-byte BLAKE3 key: the ASCII domain name, zero-padded.
// Readable keys stay inspectable in hex dumps; keyed mode treats the key
// as an opaque value either way.
type domainKey [32]byte

func newDomainKey(domain string) domainKey {
	if len(domain) > len(domainKey{}) {
		panic("ir: domain name longer than 32 bytes: " + domain)
	}
	var k domainKey
	copy(k[:], domain)
	return k
}

var (
	dataKey    = newDomainKey(DomainData)
	leafKey    = newDomainKey(DomainLeaf)
	computeKey = newDomainKey(DomainCompute)
)

// HashWithDomain computes the BLAKE3 keyed hash of the concatenated parts
// under the given domain. Domains are at most 32 bytes.
//
// Exposed for reducers that need their own stable, separated hash space.
func HashWithDomain(domain string, parts ...[]byte) [IDSize]byte {
	return keyedHash(newDomainKey(domain), parts...)
}

func keyedHash(key domainKey, parts ...[]byte) [IDSize]byte {
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		// Only possible with a key that is not 32 bytes.
		panic("ir: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out [IDSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveDataID computes the content identifier of a blob.
// Identical bytes yield the same id in every store and every process.
func DeriveDataID(data []byte) DataID {
	return DataID(keyedHash(dataKey, data))
}

// DeriveLeafID computes the identifier of a leaf expression wrapping d.
// The leaf key keeps it distinct from d itself.
func DeriveLeafID(d DataID) ExprID {
	return ExprID(keyedHash(leafKey, d[:]))
}

// DeriveComputeID computes the identifier of a composite expression from
// the ordered ids of its children. Ids are fixed width, so the plain
// concatenation is unambiguous. Permuting children changes the result.
func DeriveComputeID(children []ExprID) ExprID {
	parts := make([][]byte, len(children))
	for i := range children {
		parts[i] = children[i][:]
	}
	return ExprID(keyedHash(computeKey, parts...))
}
