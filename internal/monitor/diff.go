package monitor

import (
	"bountywatch/pkg/domain"

	"github.com/samber/lo"
)

// Diff returns the assets of current whose identifier does not appear in
// previous, in current's order. Program, platform and type are ignored when
// matching. Neither input is modified.
func Diff(current, previous []domain.Asset) []domain.Asset {
	seen := lo.Associate(previous, func(a domain.Asset) (string, struct{}) {
		return a.Asset, struct{}{}
	})

	return lo.Filter(current, func(a domain.Asset, _ int) bool {
		_, ok := seen[a.Asset]

		return !ok
	})
}
