package monitor

import (
	"bountywatch/pkg/domain"
	"strings"
)

// Normalize flattens programs into the assets worth tracking: URL and
// wildcard assets of programs that pay bounties. Output follows program order
// and then asset order within each program; asset types keep their original
// case.
func Normalize(programs []domain.Program, platform domain.Platform) []domain.Asset {
	var out []domain.Asset
	for _, p := range programs {
		if !p.Bounty {
			continue
		}
		for _, a := range p.Assets {
			switch strings.ToLower(a.Type) {
			case "url", "wildcard":
			default:
				continue
			}
			out = append(out, domain.Asset{
				Asset:    a.Identifier,
				Program:  p.Name,
				Platform: platform,
				Type:     a.Type,
				Bounty:   true,
			})
		}
	}

	return out
}
