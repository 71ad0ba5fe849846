// Package records is the document-oriented Record Store for saved analyses.
//
// Identifiers here are document-store ObjectIDs. They share nothing with the
// integer account ids of the Credential Store; records point at their owner
// by username only.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"paintledger/internal/apperr"
	"paintledger/internal/models"
)

// Store persists analysis records. Implementations must not validate payload
// shape; each analysis type carries different fields.
type Store interface {
	Insert(ctx context.Context, rec *models.AnalysisRecord) (string, error)
	// FindByOwner returns the owner's records newest first, comparing the
	// stored timestamp strings lexicographically.
	FindByOwner(ctx context.Context, username string) ([]models.AnalysisRecord, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.AnalysisRecord, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// ParseID validates a record identifier without touching the store.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidID("invalid record id format")
	}
	return id, nil
}

// FromPayload builds a record from an arbitrary save request body. The owner
// is taken from "id", falling back to "username". Structured fields are
// re-encoded as compact JSON and otherwise left alone.
func FromPayload(body map[string]json.RawMessage) *models.AnalysisRecord {
	owner := scalar(body["id"])
	if owner == "" {
		owner = scalar(body["username"])
	}
	return &models.AnalysisRecord{
		Owner:               owner,
		Timestamp:           scalar(body["timestamp"]),
		ImageBase64:         scalar(body["imageBase64"]),
		Questionnaire:       models.NewBlob(body["questionnaire"]),
		ImageAnalysisResult: models.NewBlob(body["imageAnalysisResult"]),
		QuestionnaireResult: models.NewBlob(body["questionnaireResult"]),
		CozeParams:          models.NewBlob(body["cozeParams"]),
		DeepseekParams:      models.NewBlob(body["deepseekParams"]),
	}
}

// scalar renders a JSON string or number as text. Anything else is empty.
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return strings.TrimSpace(n.String())
	}
	return ""
}
