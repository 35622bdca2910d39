package state

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/trip-companion/internal/models"
	"github.com/magabrotheeeer/trip-companion/internal/services/session"
)

type snapshotStub session.Snapshot

func (s snapshotStub) Snapshot() session.Snapshot { return session.Snapshot(s) }

func TestStateHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name string
		snap session.Snapshot
		want string
	}{
		{
			name: "initializing",
			snap: session.Snapshot{State: session.StateInitializing, Loading: true},
			want: `{"state":"initializing","loading":true,"user":null,"profile_complete":false}`,
		},
		{
			name: "authenticated",
			snap: session.Snapshot{
				State: session.StateAuthenticated,
				User:  &models.UserProfile{Username: "traveler1"},
			},
			want: `{"state":"authenticated","loading":false,"user":{"username":"traveler1","dependants":0},"profile_complete":false}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)), snapshotStub(tt.snap))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			var resp struct {
				Status string          `json:"status"`
				Data   json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "OK", resp.Status)
			assert.JSONEq(t, tt.want, string(resp.Data))
		})
	}
}
