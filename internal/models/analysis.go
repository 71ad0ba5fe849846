package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// AnalysisRecord is one saved analysis in the document store. Owner holds
// the username under the document field "id"; it is a soft reference to
// User.Username, not to User.ID.
type AnalysisRecord struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner               string             `bson:"id" json:"id"`
	Timestamp           string             `bson:"timestamp" json:"timestamp"`
	ImageBase64         string             `bson:"imageBase64,omitempty" json:"imageBase64,omitempty"`
	Questionnaire       Blob               `bson:"questionnaire,omitempty" json:"questionnaire"`
	ImageAnalysisResult Blob               `bson:"imageAnalysisResult,omitempty" json:"imageAnalysisResult"`
	QuestionnaireResult Blob               `bson:"questionnaireResult,omitempty" json:"questionnaireResult"`
	CozeParams          Blob               `bson:"cozeParams,omitempty" json:"cozeParams"`
	DeepseekParams      Blob               `bson:"deepseekParams,omitempty" json:"deepseekParams"`
}
