package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/podcastr/api/internal/config"
)

func TestSpeechClient_Synthesize(t *testing.T) {
	var got SpeechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3fakeaudio"))
	}))
	defer srv.Close()

	c := NewSpeechClient(&config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/", SpeechModel: "tts-1"})
	if !c.IsConfigured() {
		t.Fatal("expected configured client")
	}

	audio, err := c.Synthesize(context.Background(), "nova", "Welcome to the show")
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if string(audio) != "ID3fakeaudio" {
		t.Errorf("audio = %q", audio)
	}
	if got.Voice != "nova" || got.Input != "Welcome to the show" || got.Model != "tts-1" || got.ResponseFormat != "mp3" {
		t.Errorf("request = %+v", got)
	}
}

func TestSpeechClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewSpeechClient(&config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})
	if _, err := c.Synthesize(context.Background(), "alloy", "hi"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestSpeechClient_NotConfigured(t *testing.T) {
	c := NewSpeechClient(&config.OpenAIConfig{})
	if c.IsConfigured() {
		t.Error("client without key should not be configured")
	}
}
