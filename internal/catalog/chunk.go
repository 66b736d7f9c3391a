package catalog

// DefaultChunkSize bounds how many product ids go into one marketplace
// request.
const DefaultChunkSize = 20

// ChunkIDs partitions ids into order-preserving chunks of at most size
// elements. Every id appears in exactly one chunk; the last chunk may be
// shorter. A size <= 0 falls back to DefaultChunkSize.
func ChunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
