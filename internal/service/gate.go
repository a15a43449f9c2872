package service

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/podcastr/api/internal/apperr"
	"github.com/podcastr/api/internal/model"
)

const (
	MsgAssetsMissing       = "Please generate audio and image"
	MsgTitleTooShort       = "Podcast title must be at least 2 characters."
	MsgDescriptionTooShort = "Podcast description must be at least 2 characters."
)

var formFieldMessages = map[string]string{
	"Title":       MsgTitleTooShort,
	"Description": MsgDescriptionTooShort,
}

// CheckReady reports whether a draft has everything a published episode
// needs besides its text fields. It reads the snapshot only.
func CheckReady(snap model.DraftSnapshot) error {
	if snap.Audio == nil || snap.Image == nil || !snap.VoiceType.IsValid() {
		return apperr.Validation(MsgAssetsMissing, nil)
	}
	if snap.Audio.URL == "" || snap.Image.URL == "" {
		return apperr.Validation(MsgAssetsMissing, nil)
	}
	return nil
}

// ValidateForm applies the text-field rules to a draft snapshot. Field
// failures are returned as details keyed by JSON field name.
func ValidateForm(validate *validator.Validate, snap model.DraftSnapshot) error {
	form := model.EpisodeForm{Title: snap.Title, Description: snap.Description}

	err := validate.Struct(&form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := formFieldMessages[fe.StructField()]
		if !ok {
			msg = fe.Tag()
		}
		details[jsonFieldName(fe.StructField())] = msg
	}
	return apperr.Validation("Validation failed", details)
}

func jsonFieldName(structField string) string {
	switch structField {
	case "Title":
		return "title"
	case "Description":
		return "description"
	default:
		return structField
	}
}
