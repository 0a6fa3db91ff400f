package walkorder

import (
	"context"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/ports"
)

// Merged combines walk order sources. For each area the first source that has a
// non-empty path for it wins.
type Merged []ports.WalkOrderSource

func (m Merged) WalkOrder(ctx context.Context) (domain.WalkOrder, error) {
	out := domain.WalkOrder{}
	for _, src := range m {
		if src == nil {
			continue
		}
		w, err := src.WalkOrder(ctx)
		if err != nil {
			return nil, err
		}
		for area, seq := range w {
			if len(seq) == 0 || len(out[area]) > 0 {
				continue
			}
			out[area] = seq
		}
	}
	return out, nil
}
