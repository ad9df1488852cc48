package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gearshare-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridSender_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))

		var body struct {
			From struct {
				Email string `json:"email"`
				Name  string `json:"name"`
			} `json:"from"`
			Subject          string `json:"subject"`
			Personalizations []struct {
				To []struct {
					Email string `json:"email"`
				} `json:"to"`
			} `json:"personalizations"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "shop@gearshare.test", body.From.Email)
		assert.Equal(t, "GearShare", body.From.Name)
		assert.Equal(t, "Your repair", body.Subject)
		require.Len(t, body.Personalizations, 1)
		assert.Equal(t, "ada@example.com", body.Personalizations[0].To[0].Email)

		w.Header().Set("X-Message-Id", "msg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewSendGridSender(config.EmailConfig{
		SendGridAPIKey: "sg-key",
		Host:           srv.URL,
		From:           "shop@gearshare.test",
		FromName:       "GearShare",
	})

	id, err := sender.Send(context.Background(), Message{To: "ada@example.com", Subject: "Your repair", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, "msg-123", id)
}

func TestSendGridSender_SendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"message":"invalid to"}]}`))
	}))
	defer srv.Close()

	sender := NewSendGridSender(config.EmailConfig{SendGridAPIKey: "sg-key", Host: srv.URL, From: "shop@gearshare.test"})
	_, err := sender.Send(context.Background(), Message{To: "bad", Subject: "x", HTML: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}
