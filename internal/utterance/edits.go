package utterance

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Edit operations accepted by ApplyEdits.
const (
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// ErrInvalidEdit reports an edit directive that cannot be applied.
var ErrInvalidEdit = errors.New("invalid utterance edit")

// Edit is a user directive against a saved utterance. For updates, only the
// non-nil fields are written.
type Edit struct {
	ID             int      `json:"id"`
	Operation      string   `json:"operation"`
	Start          *float64 `json:"start,omitempty"`
	End            *float64 `json:"end,omitempty"`
	SpeakerID      *string  `json:"speaker_id,omitempty"`
	TranslatedText *string  `json:"translated_text,omitempty"`
	Speed          *float64 `json:"speed,omitempty"`
	AssignedVoice  *string  `json:"assigned_voice,omitempty"`
	ForDubbing     *bool    `json:"for_dubbing,omitempty"`
	Gender         *string  `json:"gender,omitempty"`
}

// LoadEdits reads a JSON array of edit directives.
func LoadEdits(path string) ([]Edit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read edits: %w", err)
	}
	var edits []Edit
	if err := json.Unmarshal(data, &edits); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidEdit, path, err)
	}
	return edits, nil
}

// ApplyEdits merges edit directives into a copy of master. Deletes remove the
// record, updates overwrite whitelisted fields only, leaving paths and
// fingerprints untouched. Edits naming an id absent from master are skipped
// and their ids returned so callers can report them.
func ApplyEdits(master []Utterance, edits []Edit) ([]Utterance, []int, error) {
	out := Clone(master)
	var ignored []int
	for i, edit := range edits {
		if edit.Operation != OperationUpdate && edit.Operation != OperationDelete {
			if edit.Operation == "" {
				return nil, nil, fmt.Errorf("%w: edit %d for id %d has no operation", ErrInvalidEdit, i, edit.ID)
			}
			return nil, nil, fmt.Errorf("%w: edit %d for id %d has unknown operation %q", ErrInvalidEdit, i, edit.ID, edit.Operation)
		}

		idx := indexOf(out, edit.ID)
		if idx < 0 {
			ignored = append(ignored, edit.ID)
			continue
		}

		if edit.Operation == OperationDelete {
			out = append(out[:idx], out[idx+1:]...)
			continue
		}

		updated := out[idx]
		edit.applyTo(&updated)
		if (edit.Start != nil || edit.End != nil) && updated.Start >= updated.End {
			return nil, nil, fmt.Errorf("%w: id %d start %.3f must be before end %.3f", ErrInvalidEdit, edit.ID, updated.Start, updated.End)
		}
		out[idx] = updated
	}
	return out, ignored, nil
}

func (e Edit) applyTo(u *Utterance) {
	if e.Start != nil {
		u.Start = *e.Start
	}
	if e.End != nil {
		u.End = *e.End
	}
	if e.SpeakerID != nil {
		u.SpeakerID = *e.SpeakerID
	}
	if e.TranslatedText != nil {
		u.TranslatedText = *e.TranslatedText
	}
	if e.Speed != nil {
		u.Speed = *e.Speed
	}
	if e.AssignedVoice != nil {
		u.AssignedVoice = *e.AssignedVoice
	}
	if e.ForDubbing != nil {
		u.ForDubbing = *e.ForDubbing
	}
	if e.Gender != nil {
		u.Gender = *e.Gender
	}
}

func indexOf(utterances []Utterance, id int) int {
	for i, u := range utterances {
		if u.ID == id {
			return i
		}
	}
	return -1
}
