package utterance

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Hash fingerprints the content fields of u. Fingerprint fields are excluded,
// keys are sorted, and absent optional fields hash the same as their zero value.
func Hash(u Utterance) string {
	u.Hash = ""
	u.AssignedVoiceHash = ""
	u.SpeakerIDHash = ""

	raw, err := json.Marshal(u)
	if err != nil {
		return ""
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	for key := range fields {
		if strings.HasPrefix(key, "_") {
			delete(fields, key)
		}
	}
	// encoding/json writes map keys in sorted order.
	canonical, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return digest(canonical)
}

// FieldHash fingerprints a single field value.
func FieldHash(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return digest(raw)
}

func digest(data []byte) string {
	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err == nil {
		data = compact.Bytes()
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WithHashes returns a copy of utterances with all fingerprints recomputed.
func WithHashes(utterances []Utterance) []Utterance {
	out := Clone(utterances)
	for i := range out {
		out[i].Hash = Hash(out[i])
		out[i].AssignedVoiceHash = FieldHash(out[i].AssignedVoice)
		out[i].SpeakerIDHash = FieldHash(out[i].SpeakerID)
	}
	return out
}

// GetModified returns the utterances whose content no longer matches the
// fingerprint recorded at the last save. Utterances never saved count as modified.
func GetModified(utterances []Utterance) []Utterance {
	var modified []Utterance
	for _, u := range utterances {
		if u.Hash != Hash(u) {
			modified = append(modified, u)
		}
	}
	return modified
}

// ModifiedFields reports which individually tracked fields changed since the
// last save. A field without a stored fingerprint counts as changed only when
// it carries a value.
func ModifiedFields(u Utterance) FieldSet {
	changed := FieldSet{}
	if fieldChanged(u.AssignedVoiceHash, u.AssignedVoice) {
		changed[FieldAssignedVoice] = struct{}{}
	}
	if fieldChanged(u.SpeakerIDHash, u.SpeakerID) {
		changed[FieldSpeakerID] = struct{}{}
	}
	return changed
}

func fieldChanged(stored, value string) bool {
	if stored == "" {
		return value != ""
	}
	return stored != FieldHash(value)
}
