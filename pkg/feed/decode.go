package feed

import (
	"bountywatch/pkg/domain"
	"bountywatch/pkg/serrors"
	"strings"

	"github.com/tidwall/gjson"
)

// Format names a feed document layout.
type Format string

const (
	// FormatPrograms is the flat layout: [{name, bounty, assets:[{asset_identifier, asset_type}]}].
	FormatPrograms Format = "programs"
	// FormatBountyTargets is the per-platform layout published by bounty-targets-data.
	FormatBountyTargets Format = "bounty-targets"
)

// Decoder turns a raw feed document into programs.
type Decoder func(body []byte) ([]domain.Program, error)

// DecoderFor returns the decoder for the given format and platform.
func DecoderFor(format Format, platform domain.Platform) (Decoder, error) {
	switch format {
	case FormatPrograms:
		return DecodePrograms, nil
	case FormatBountyTargets:
		switch platform {
		case domain.PlatformHackerOne:
			return DecodeHackerOne, nil
		case domain.PlatformBugcrowd:
			return DecodeBugcrowd, nil
		}

		return nil, serrors.With(serrors.ErrBadRequest, "no %s decoder for platform %q", format, platform)
	default:
		return nil, serrors.With(serrors.ErrBadRequest, "unknown feed format %q", format)
	}
}

// parseArray validates body as JSON and returns its top-level array elements.
func parseArray(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, serrors.With(serrors.ErrDecode, "feed is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, serrors.With(serrors.ErrDecode, "feed is not a JSON array of programs")
	}

	return root.Array(), nil
}

// requireString returns the string at path or a decode error when it is missing.
func requireString(r gjson.Result, path string, idx int) (string, error) {
	v := r.Get(path)
	if !v.Exists() || v.Type != gjson.String {
		return "", serrors.With(serrors.ErrDecode, "program #%d: missing %s", idx, path)
	}

	return v.Str, nil
}

// inScope returns the targets.in_scope entries of a bounty-targets program.
// Bounty programs must carry the list; for others a missing list is empty.
func inScope(item gjson.Result, program domain.Program) ([]gjson.Result, error) {
	scopes := item.Get("targets.in_scope")
	if scopes.IsArray() {
		return scopes.Array(), nil
	}
	if program.Bounty {
		return nil, serrors.With(serrors.ErrDecode, "program %q: missing targets.in_scope", program.Name)
	}

	return nil, nil
}

// truthy reads a boolean-like flag. Numbers are true when non-zero, strings
// when non-empty and not "false" or "0", objects and arrays always.
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		s := strings.TrimSpace(v.Str)

		return s != "" && s != "0" && !strings.EqualFold(s, "false")
	case gjson.JSON:
		return true
	default:
		return false
	}
}

// DecodePrograms decodes the flat "programs" layout. The bounty flag accepts
// boolean-like values (true, 1, "true", "yes"). A bounty program must carry an
// assets array, and every asset must carry asset_identifier and asset_type.
func DecodePrograms(body []byte) ([]domain.Program, error) {
	items, err := parseArray(body)
	if err != nil {
		return nil, err
	}

	programs := make([]domain.Program, 0, len(items))
	for i, item := range items {
		name, err := requireString(item, "name", i)
		if err != nil {
			return nil, err
		}
		program := domain.Program{Name: name, Bounty: truthy(item.Get("bounty"))}

		assets := item.Get("assets")
		if !assets.IsArray() {
			if !program.Bounty {
				programs = append(programs, program)

				continue
			}

			return nil, serrors.With(serrors.ErrDecode, "program %q: missing assets list", name)
		}
		for j, a := range assets.Array() {
			id, typ := a.Get("asset_identifier"), a.Get("asset_type")
			if id.Type != gjson.String || typ.Type != gjson.String {
				return nil, serrors.With(serrors.ErrDecode,
					"program %q: asset #%d is missing asset_identifier or asset_type", name, j)
			}
			program.Assets = append(program.Assets, domain.ProgramAsset{Identifier: id.Str, Type: typ.Str})
		}

		programs = append(programs, program)
	}

	return programs, nil
}

// DecodeHackerOne decodes hackerone_data.json from bounty-targets-data. A
// program pays bounties when offers_bounties is set; only in-scope assets
// eligible for bounty are kept.
func DecodeHackerOne(body []byte) ([]domain.Program, error) {
	items, err := parseArray(body)
	if err != nil {
		return nil, err
	}

	programs := make([]domain.Program, 0, len(items))
	for i, item := range items {
		name, err := requireString(item, "name", i)
		if err != nil {
			return nil, err
		}
		program := domain.Program{Name: name, Bounty: item.Get("offers_bounties").Bool()}

		scopes, err := inScope(item, program)
		if err != nil {
			return nil, err
		}
		for j, scope := range scopes {
			if !scope.Get("eligible_for_bounty").Bool() {
				continue
			}
			id, typ := scope.Get("asset_identifier"), scope.Get("asset_type")
			if id.Type != gjson.String || typ.Type != gjson.String {
				return nil, serrors.With(serrors.ErrDecode,
					"program %q: scope #%d is missing asset_identifier or asset_type", name, j)
			}
			program.Assets = append(program.Assets, domain.ProgramAsset{Identifier: id.Str, Type: typ.Str})
		}

		programs = append(programs, program)
	}

	return programs, nil
}

// DecodeBugcrowd decodes bugcrowd_data.json from bounty-targets-data. A
// program pays bounties when max_payout is positive.
func DecodeBugcrowd(body []byte) ([]domain.Program, error) {
	items, err := parseArray(body)
	if err != nil {
		return nil, err
	}

	programs := make([]domain.Program, 0, len(items))
	for i, item := range items {
		name, err := requireString(item, "name", i)
		if err != nil {
			return nil, err
		}
		program := domain.Program{Name: name, Bounty: item.Get("max_payout").Float() > 0}

		scopes, err := inScope(item, program)
		if err != nil {
			return nil, err
		}
		for j, scope := range scopes {
			target, typ := scope.Get("target"), scope.Get("type")
			if target.Type != gjson.String || typ.Type != gjson.String {
				return nil, serrors.With(serrors.ErrDecode,
					"program %q: scope #%d is missing target or type", name, j)
			}
			program.Assets = append(program.Assets, domain.ProgramAsset{Identifier: target.Str, Type: typ.Str})
		}

		programs = append(programs, program)
	}

	return programs, nil
}
