package profiles

import (
	"encoding/json"

	"letterhead-backend/internal/shared/metrics"
	"letterhead-backend/internal/shared/telemetry"
)

// decodeProfile parses a stored profile. Unreadable data yields an empty
// profile; the corruption is logged and never surfaced to callers.
func decodeProfile(userID string, raw []byte) Profile {
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		metrics.IncProfileCorruption()
		telemetry.Warn("profiles.decode_failed", map[string]any{
			"user_id": userID,
			"err":     err,
			"bytes":   len(raw),
		})
		return Empty(userID)
	}
	p.normalize(userID)
	return p
}
