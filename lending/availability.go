package lending

// Overlaps reports whether the inclusive day ranges [aStart,aEnd] and
// [bStart,bEnd] share at least one day.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart <= bEnd && aEnd >= bStart
}

// IsAvailable reports whether no contract in existing overlaps [start,end].
func IsAvailable(existing []Contract, start, end int) bool {
	for _, c := range existing {
		if Overlaps(start, end, c.StartDay, c.EndDay) {
			return false
		}
	}
	return true
}
