package model

import "time"

// Episode is the persisted podcast record
type Episode struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" bson:"_id" json:"id"`
	AuthorID       string    `gorm:"type:varchar(128);index" bson:"authorId" json:"authorId"`
	Title          string    `gorm:"column:podcast_title;type:varchar(200);not null" bson:"podcastTitle" json:"podcastTitle"`
	Description    string    `gorm:"column:podcast_description;type:text" bson:"podcastDescription" json:"podcastDescription"`
	AudioStorageID string    `gorm:"type:varchar(512)" bson:"audioStorageId" json:"audioStorageId"`
	AudioURL       string    `gorm:"type:text" bson:"audioUrl" json:"audioUrl"`
	ImageStorageID string    `gorm:"type:varchar(512)" bson:"imageStorageId" json:"imageStorageId"`
	ImageURL       string    `gorm:"type:text" bson:"imageUrl" json:"imageUrl"`
	VoiceType      VoiceType `gorm:"type:varchar(32)" bson:"voiceType" json:"voiceType"`
	VoicePrompt    string    `gorm:"type:text" bson:"voicePrompt" json:"voicePrompt"`
	ImagePrompt    string    `gorm:"type:text" bson:"imagePrompt" json:"imagePrompt"`
	AudioDuration  float64   `bson:"audioDuration" json:"audioDuration"`
	Views          int       `gorm:"default:0" bson:"views" json:"views"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

func (Episode) TableName() string {
	return "episodes"
}

// SubmitResponse is returned when a draft has been published
type SubmitResponse struct {
	PodcastID string `json:"podcastId"`
	Message   string `json:"message"`
	Redirect  string `json:"redirect"`
}
