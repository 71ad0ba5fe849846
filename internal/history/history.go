// Package history adapts Record Store documents for clients: summarised
// listings, existence-checked detail and delete, and saving new records.
//
// Listing is fail-soft. A store failure while listing is logged and the
// caller still gets an empty, non-nil slice alongside the error.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"paintledger/internal/apperr"
	"paintledger/internal/models"
	"paintledger/internal/records"
)

const (
	// ThumbnailLimit bounds the encoded image data kept in a thumbnail,
	// not counting its data: prefix.
	ThumbnailLimit = 1000
	// DefaultImagePrefix is prepended to images stored without one.
	DefaultImagePrefix = "data:image/png;base64,"
	// Uncategorized labels records with no usable questionnaire.
	Uncategorized = "uncategorized"
)

// Summary is a stored record plus the fields derived for list views.
type Summary struct {
	models.AnalysisRecord
	UserID       string `json:"userId"`
	Date         string `json:"date"`
	Thumbnail    string `json:"thumbnail"`
	QuestionType string `json:"questionType"`
}

type Service struct {
	store records.Store
	lg    *zap.SugaredLogger
}

func NewService(store records.Store, lg *zap.SugaredLogger) *Service {
	return &Service{store: store, lg: lg}
}

// Save inserts a record built from a save request body and returns its id.
// Nothing is written to the Credential Store, and the owner is not checked
// against it.
func (s *Service) Save(ctx context.Context, body map[string]json.RawMessage) (string, error) {
	rec := records.FromPayload(body)
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		s.lg.Errorw("save analysis failed", "owner", rec.Owner, "error", err)
		return "", err
	}
	return id, nil
}

// List returns the user's records newest first. On a store failure the
// slice is empty but never nil, so it still encodes as [].
func (s *Service) List(ctx context.Context, username string) ([]Summary, error) {
	recs, err := s.store.FindByOwner(ctx, username)
	if err != nil {
		s.lg.Errorw("list history failed", "username", username, "error", err)
		return []Summary{}, err
	}
	out := make([]Summary, 0, len(recs))
	for _, r := range recs {
		out = append(out, Summarize(r))
	}
	return out, nil
}

func (s *Service) Detail(ctx context.Context, rawID string) (*models.AnalysisRecord, error) {
	id, err := records.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := records.ParseID(rawID)
	if err != nil {
		return err
	}
	n, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("record not found")
	}
	s.lg.Infow("history record deleted", "id", rawID)
	return nil
}

func Summarize(r models.AnalysisRecord) Summary {
	return Summary{
		AnalysisRecord: r,
		UserID:         r.Owner,
		Date:           r.Timestamp,
		Thumbnail:      Thumbnail(r.ImageBase64),
		QuestionType:   QuestionType(r.Questionnaire),
	}
}

// Thumbnail shortens an inline image. A data: URL keeps everything up to
// and including its first comma; the data after it is cut to
// ThumbnailLimit characters. Bare data gets DefaultImagePrefix.
func Thumbnail(image string) string {
	if image == "" {
		return ""
	}
	if strings.HasPrefix(image, "data:") {
		i := strings.Index(image, ",")
		return image[:i+1] + truncate(image[i+1:], ThumbnailLimit)
	}
	return DefaultImagePrefix + truncate(image, ThumbnailLimit)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// QuestionType joins the top-level keys of the questionnaire. Keys follow
// JavaScript property order: array-index keys ascending, then the rest in
// document order, duplicates counted once. An array yields its indices.
// Anything else is Uncategorized.
func QuestionType(q models.Blob) string {
	if q == "" {
		return Uncategorized
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(q)))
	tok, err := dec.Token()
	if err != nil {
		return Uncategorized
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return Uncategorized
	}

	var keys []string
	switch delim {
	case '{':
		for dec.More() {
			k, err := dec.Token()
			if err != nil {
				return Uncategorized
			}
			key, _ := k.(string)
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return Uncategorized
			}
			keys = append(keys, key)
		}
	case '[':
		for i := 0; dec.More(); i++ {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return Uncategorized
			}
			keys = append(keys, strconv.Itoa(i))
		}
	default:
		return Uncategorized
	}
	return strings.Join(propertyOrder(keys), ",")
}

func propertyOrder(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	var idx []uint32
	var named []string
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		if n, ok := arrayIndex(k); ok {
			idx = append(idx, n)
		} else {
			named = append(named, k)
		}
	}
	sort.Slice(idx, func(i, j int) bool { return idx[i] < idx[j] })
	out := make([]string, 0, len(keys))
	for _, n := range idx {
		out = append(out, strconv.FormatUint(uint64(n), 10))
	}
	return append(out, named...)
}

// arrayIndex reports whether k is a canonical array index ("0", "17", not "07").
func arrayIndex(k string) (uint32, bool) {
	n, err := strconv.ParseUint(k, 10, 32)
	if err != nil || n == 1<<32-1 || strconv.FormatUint(n, 10) != k {
		return 0, false
	}
	return uint32(n), true
}
