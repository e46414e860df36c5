package utterance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"opendub/internal/fileutil"
	"opendub/internal/logging"
)

const metadataFilePrefix = "utterance_metadata"

// ErrMetadataMissing reports that no readable metadata document exists.
var ErrMetadataMissing = errors.New("utterance metadata missing or unreadable")

// Store persists the utterance document of one target language inside an
// output directory.
type Store struct {
	dir            string
	targetLanguage string
	logger         *slog.Logger
}

// NewStore binds a store to an output directory and target language.
func NewStore(dir, targetLanguage string, logger *slog.Logger) *Store {
	return &Store{
		dir:            dir,
		targetLanguage: targetLanguage,
		logger:         logging.NewComponentLogger(logger, "utterance-store"),
	}
}

// MetadataFileName returns the document name used for a target language.
func MetadataFileName(targetLanguage string) string {
	suffix := strings.ToLower(strings.ReplaceAll(targetLanguage, "-", "_"))
	return metadataFilePrefix + "_" + suffix + ".json"
}

// Path returns the location of the metadata document.
func (s *Store) Path() string {
	return filepath.Join(s.dir, MetadataFileName(s.targetLanguage))
}

// ModifiedFields reports which tracked fields of u differ from the values
// fingerprinted at the last save.
func (s *Store) ModifiedFields(u Utterance) FieldSet {
	return ModifiedFields(u)
}

// Save assigns ids to utterances lacking one, fingerprints every utterance and
// atomically replaces the metadata document. The hashed utterances are
// returned even when writing fails.
func (s *Store) Save(ctx context.Context, utterances []Utterance, artifacts Artifacts, metadata Metadata) ([]Utterance, error) {
	logger := logging.WithContext(ctx, s.logger)
	hashed := WithHashes(AssignIDs(utterances))

	doc := Document{Utterances: hashed, Artifacts: artifacts, Metadata: metadata}
	if doc.Utterances == nil {
		doc.Utterances = []Utterance{}
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return hashed, fmt.Errorf("encode utterance metadata: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.Path(), data, 0o644); err != nil {
		return hashed, fmt.Errorf("save utterance metadata: %w", err)
	}
	logger.Debug("utterance metadata saved",
		logging.String("path", s.Path()),
		logging.Int("utterances", len(hashed)),
	)
	return hashed, nil
}

// Load reads the metadata document. A missing or corrupt file wraps
// ErrMetadataMissing.
func (s *Store) Load(ctx context.Context) (Document, error) {
	logger := logging.WithContext(ctx, s.logger)
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %w", ErrMetadataMissing, s.Path(), err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %s: %w", ErrMetadataMissing, s.Path(), err)
	}
	logger.Debug("utterance metadata loaded",
		logging.String("path", s.Path()),
		logging.Int("utterances", len(doc.Utterances)),
	)
	return doc, nil
}

// AssignIDs returns a copy of utterances where every record lacking an id
// receives the next free one. Existing ids are preserved.
func AssignIDs(utterances []Utterance) []Utterance {
	out := Clone(utterances)
	next := 0
	for _, u := range out {
		if u.ID > next {
			next = u.ID
		}
	}
	for i := range out {
		if out[i].ID == 0 {
			next++
			out[i].ID = next
		}
	}
	return out
}

// FilePaths returns the source and dubbed chunk paths that are set.
func FilePaths(utterances []Utterance) (paths []string, dubbedPaths []string) {
	for _, u := range utterances {
		if u.Path != "" {
			paths = append(paths, u.Path)
		}
		if u.DubbedPath != "" {
			dubbedPaths = append(dubbedPaths, u.DubbedPath)
		}
	}
	return paths, dubbedPaths
}

// FilterEmpty drops utterances whose transcription is empty.
func FilterEmpty(utterances []Utterance) []Utterance {
	out := make([]Utterance, 0, len(utterances))
	for _, u := range utterances {
		if len(u.Text) == 0 {
			continue
		}
		out = append(out, u)
	}
	return out
}

// MergeByID replaces records of master with the records of updates sharing
// their id. Order of master is preserved and unmatched updates are ignored.
func MergeByID(master, updates []Utterance) []Utterance {
	byID := make(map[int]Utterance, len(updates))
	for _, u := range updates {
		byID[u.ID] = u
	}
	out := Clone(master)
	for i := range out {
		if u, ok := byID[out[i].ID]; ok {
			out[i] = u
		}
	}
	return out
}

// IDs returns the set of ids present in utterances.
func IDs(utterances []Utterance) map[int]struct{} {
	ids := make(map[int]struct{}, len(utterances))
	for _, u := range utterances {
		ids[u.ID] = struct{}{}
	}
	return ids
}
