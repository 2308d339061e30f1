package aggregator

import (
	"github.com/fxamacker/cbor/v2"
)

// canonicalEncMode is a deterministic CBOR encoding mode (sorted map
// keys, canonical integer/float forms) so that encoding the same
// Groups twice always yields byte-identical output — canonical bytes
// in, stable hash out, useful for FFI export and golden-test
// comparison alike.
var canonicalEncMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// EncodeGroups canonically CBOR-encodes the aggregator's current
// groups, suitable for hashing or cross-process export over the FFI
// boundary.
func (a *Aggregator) EncodeGroups() ([]byte, error) {
	return canonicalEncMode.Marshal(a.groups)
}
