package trace

// radixSortByHash sorts tuples by their stashed 64-bit key hash with a
// least-significant-byte radix sort: eight stable counting-sort passes,
// one per hash byte. Linear in the input for each pass, which is what
// makes the buffered builder's sort cost amortize against the batch
// size.
func radixSortByHash[K any, V any](items []tuple[K, V]) {
	if len(items) < 2 {
		return
	}
	buf := make([]tuple[K, V], len(items))
	src, dst := items, buf

	for shift := uint(0); shift < 64; shift += 8 {
		var counts [256]int
		for i := range src {
			counts[byte(src[i].hash>>shift)]++
		}
		total := 0
		for b := 0; b < 256; b++ {
			c := counts[b]
			counts[b] = total
			total += c
		}
		for i := range src {
			b := byte(src[i].hash >> shift)
			dst[counts[b]] = src[i]
			counts[b]++
		}
		src, dst = dst, src
	}
	// Eight passes swap src and dst an even number of times, so the
	// sorted data already sits in items.
}
