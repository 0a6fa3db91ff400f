package domain

// WalkOrder maps an area code to the ordered street ids of its known-good walking path.
// It is static configuration; an area without an entry has no preferred path.
type WalkOrder map[string][]string

// Sequence returns the configured path for the area, or nil.
func (w WalkOrder) Sequence(area string) []string {
	if w == nil {
		return nil
	}
	return w[area]
}

// Index maps each street id of the area's path to its position.
// Duplicate ids keep their first position.
func (w WalkOrder) Index(area string) map[string]int {
	seq := w.Sequence(area)
	idx := make(map[string]int, len(seq))
	for i, id := range seq {
		if _, ok := idx[id]; !ok {
			idx[id] = i
		}
	}
	return idx
}
