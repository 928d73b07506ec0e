package reconciler

// tidCharset is atproto's base32-sortable alphabet used to encode TIDs
// (timestamp identifiers): lexicographic string order matches numeric
// order of the encoded 64-bit value, which is what makes a TID usable
// as a monotonically-increasing record key.
const tidCharset = "234567abcdefghijklmnopqrstuvwxyz"

// encodeTID encodes micros (a microsecond-since-epoch clock reading,
// expected to fit in 53 bits) as a 13-character TID, per the atproto
// record-key TID syntax. The low 10 bits are zeroed (no clock
// identifier distinguishing concurrent writers is needed here, since
// the Reconciler is the sole writer and already spaces allocations by
// 1ms).
func encodeTID(micros int64) string {
	v := uint64(micros) << 10

	buf := make([]byte, 13)
	for i := 12; i >= 0; i-- {
		buf[i] = tidCharset[v&0x1f]
		v >>= 5
	}
	return string(buf)
}
