package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newToolkitServer(t *testing.T, handler http.HandlerFunc) *Provisioner {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	provisioner, err := NewProvisioner(ProvisionerConfig{
		APIKey:  "test-api-key",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return provisioner
}

func TestCreateAccountReturnsProvisionedSubject(t *testing.T) {
	provisioner := newToolkitServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:signUp" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-api-key" {
			t.Fatalf("missing api key query parameter")
		}

		var request signUpRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if request.Email != "maire@example.com" {
			t.Fatalf("unexpected email %s", request.Email)
		}
		if !request.ReturnSecureToken {
			t.Fatalf("expected returnSecureToken to be set")
		}

		_ = json.NewEncoder(w).Encode(signUpResponse{
			LocalID: "firebase-uid-42",
			IDToken: "short-lived-token",
			Email:   request.Email,
		})
	})

	account, err := provisioner.CreateAccount(context.Background(), "maire@example.com", "secret-pass")
	if err != nil {
		t.Fatalf("expected provisioning to succeed: %v", err)
	}
	if account.Subject != "firebase-uid-42" {
		t.Fatalf("unexpected subject %s", account.Subject)
	}
	if account.IDToken != "short-lived-token" {
		t.Fatalf("unexpected id token %s", account.IDToken)
	}
}

func TestCreateAccountMapsEmailExists(t *testing.T) {
	provisioner := newToolkitServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"EMAIL_EXISTS"}}`))
	})

	_, err := provisioner.CreateAccount(context.Background(), "maire@example.com", "secret-pass")
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected email exists error, got %v", err)
	}
}

func TestCreateAccountSurfacesOtherToolkitErrors(t *testing.T) {
	provisioner := newToolkitServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"WEAK_PASSWORD"}}`))
	})

	_, err := provisioner.CreateAccount(context.Background(), "maire@example.com", "123")
	if err == nil || errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected generic toolkit error, got %v", err)
	}
}

func TestDeleteAccountSendsIDToken(t *testing.T) {
	provisioner := newToolkitServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:delete" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}

		var request deleteAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if request.IDToken != "short-lived-token" {
			t.Fatalf("unexpected id token %s", request.IDToken)
		}

		_, _ = w.Write([]byte(`{}`))
	})

	if err := provisioner.DeleteAccount(context.Background(), "short-lived-token"); err != nil {
		t.Fatalf("expected delete to succeed: %v", err)
	}
}

func TestSendPasswordResetUsesResetRequestType(t *testing.T) {
	provisioner := newToolkitServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:sendOobCode" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}

		var request sendOobCodeRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if request.RequestType != "PASSWORD_RESET" {
			t.Fatalf("unexpected request type %s", request.RequestType)
		}
		if request.Email != "maire@example.com" {
			t.Fatalf("unexpected email %s", request.Email)
		}

		_, _ = w.Write([]byte(`{}`))
	})

	if err := provisioner.SendPasswordReset(context.Background(), "maire@example.com"); err != nil {
		t.Fatalf("expected reset request to succeed: %v", err)
	}
}

func TestNewProvisionerRequiresAPIKey(t *testing.T) {
	if _, err := NewProvisioner(ProvisionerConfig{APIKey: " "}); err == nil {
		t.Fatalf("expected constructor to reject empty api key")
	}
}
