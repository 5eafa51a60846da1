package snapshot

import (
	"bountywatch/pkg/domain"
	"bountywatch/pkg/serrors"
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode renders a snapshot as a JSON array indented by two spaces, without
// a trailing newline. Characters such as & < > are written as-is. A nil
// snapshot is written as an empty array.
func Encode(s domain.Snapshot) ([]byte, error) {
	if s == nil {
		s = domain.Snapshot{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("could not encode snapshot: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses a snapshot written by Encode. A JSON null decodes to an
// empty snapshot.
func Decode(b []byte) (domain.Snapshot, error) {
	var s domain.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, serrors.Wrap(serrors.ErrDecode, err, "could not decode snapshot")
	}
	if s == nil {
		s = domain.Snapshot{}
	}

	return s, nil
}
