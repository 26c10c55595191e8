package handlers

import (
	"net/http"
	"testing"

	"github.com/mtheof/go-chat-functions/internal/domain"
)

func TestRegisterToken_UpsertsDevice(t *testing.T) {
	db := newHandlerDB(t, &domain.UserDevice{})
	r := newRouter(New(&fakeAI{}, &fakeEvents{}, db))

	w := doJSON(t, r, http.MethodPut, "/devices/token", RegisterTokenRequest{
		Token: "tok-1", DisplayName: "Alice",
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var dev domain.UserDevice
	if err := db.First(&dev, "user_id = ?", "u1").Error; err != nil {
		t.Fatalf("load device: %v", err)
	}
	if dev.Token != "tok-1" || dev.DisplayName != "Alice" {
		t.Fatalf("device = %+v", dev)
	}

	// Re-register replaces the token.
	w = doJSON(t, r, http.MethodPut, "/devices/token", RegisterTokenRequest{Token: "tok-2"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("re-register status = %d", w.Code)
	}
	if err := db.First(&dev, "user_id = ?", "u1").Error; err != nil {
		t.Fatalf("reload device: %v", err)
	}
	if dev.Token != "tok-2" {
		t.Fatalf("token = %q, want replacement", dev.Token)
	}
}

func TestRegisterToken_RequiresToken(t *testing.T) {
	db := newHandlerDB(t, &domain.UserDevice{})
	r := newRouter(New(&fakeAI{}, &fakeEvents{}, db))

	w := doJSON(t, r, http.MethodPut, "/devices/token", map[string]string{"display_name": "Alice"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUnregisterToken_BlanksToken(t *testing.T) {
	db := newHandlerDB(t, &domain.UserDevice{})
	if err := db.Create(&domain.UserDevice{UserID: "u1", DisplayName: "Alice", Token: "tok-1"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := newRouter(New(&fakeAI{}, &fakeEvents{}, db))

	w := doJSON(t, r, http.MethodDelete, "/devices/token", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	var dev domain.UserDevice
	if err := db.First(&dev, "user_id = ?", "u1").Error; err != nil {
		t.Fatalf("load device: %v", err)
	}
	if dev.Token != "" {
		t.Fatalf("token not cleared: %q", dev.Token)
	}
}

func TestUnregisterToken_UnknownUserIsNoop(t *testing.T) {
	db := newHandlerDB(t, &domain.UserDevice{})
	r := newRouter(New(&fakeAI{}, &fakeEvents{}, db))

	w := doJSON(t, r, http.MethodDelete, "/devices/token", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout without a registered device must succeed, got %d", w.Code)
	}
}
