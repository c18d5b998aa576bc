package handlers

import (
	"context"
	"net/http"

	"github.com/upb/shopping-assistant/services/assistant"
	"github.com/upb/shopping-assistant/utils"
)

// BannerText is served on GET /
const BannerText = "Smart Shopping Assistant API is running"

// maxBodyBytes caps the /generate request body
const maxBodyBytes = 1 << 20

// Assistant answers one shopper question
type Assistant interface {
	Handle(ctx context.Context, req assistant.Request) (*assistant.Response, error)
}

// HandleBanner handles GET /
func HandleBanner(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteText(w, http.StatusOK, BannerText)
}

// HandleNotFound writes the JSON 404 body for unknown routes
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteNotFound(w, "")
}
