package api

import (
	"context"
	"net/http"
	"strconv"

	"livesync/internal/app/model"
	"livesync/internal/pkg/errs"
	"livesync/internal/pkg/req"
)

// MyProfile returns the profile of the signed-in user.
func (c *Client) MyProfile(ctx context.Context) (model.Profile, *errs.CustomError) {
	return Decode[model.Profile](c.Perform(ctx, http.MethodGet, "/user/profile", nil))
}

// Profile returns the profile with the given id.
func (c *Client) Profile(ctx context.Context, id string) (model.Profile, *errs.CustomError) {
	return Decode[model.Profile](c.Perform(ctx, http.MethodGet, req.Path("user", "profile", id), nil))
}

// Profiles lists all profiles visible to the user.
func (c *Client) Profiles(ctx context.Context) ([]model.Profile, *errs.CustomError) {
	return Decode[[]model.Profile](c.Perform(ctx, http.MethodGet, "/user/profile/all", nil))
}

// SearchProfiles returns at most limit profiles matching query.
func (c *Client) SearchProfiles(ctx context.Context, query string, limit int) ([]model.Profile, *errs.CustomError) {
	path := req.WithQuery("/user/profile/search", "q", query, "limit", strconv.Itoa(limit))
	return Decode[[]model.Profile](c.Perform(ctx, http.MethodGet, path, nil))
}

// Presence returns the online status of the user with the given id.
func (c *Client) Presence(ctx context.Context, userID string) (model.Presence, *errs.CustomError) {
	return Decode[model.Presence](c.Perform(ctx, http.MethodGet, req.Path("user", "profile", userID, "status"), nil))
}

// Settings returns the settings of the signed-in user.
func (c *Client) Settings(ctx context.Context) (model.Settings, *errs.CustomError) {
	return Decode[model.Settings](c.Perform(ctx, http.MethodGet, "/user/settings", nil))
}

// UpdateSettings sends a partial settings update.
func (c *Client) UpdateSettings(ctx context.Context, in model.SettingsUpdate) (bool, *errs.CustomError) {
	return Decode[bool](c.Perform(ctx, http.MethodPut, "/user/settings", in))
}

// Blocks lists the profiles the user has blocked.
func (c *Client) Blocks(ctx context.Context) ([]model.Block, *errs.CustomError) {
	return Decode[[]model.Block](c.Perform(ctx, http.MethodGet, "/user/block/all", nil))
}

// BlockProfile blocks the profile with the given id.
func (c *Client) BlockProfile(ctx context.Context, id string) (model.Block, *errs.CustomError) {
	return Decode[model.Block](c.Perform(ctx, http.MethodPost, req.Path("user", "block", id), nil))
}

// UnblockProfile removes the block on the profile with the given id.
func (c *Client) UnblockProfile(ctx context.Context, id string) (bool, *errs.CustomError) {
	if _, cerr := Decode[messageResponse](c.Perform(ctx, http.MethodDelete, req.Path("user", "block", id), nil)); cerr != nil {
		return false, cerr
	}

	return true, nil
}

// messageResponse is the {"message": ...} acknowledgement some endpoints answer with.
type messageResponse struct {
	Message string `json:"message"`
}

// CheckBlocked reports whether the profile with the given id has blocked the user.
func (c *Client) CheckBlocked(ctx context.Context, id string) (bool, *errs.CustomError) {
	return Decode[bool](c.Perform(ctx, http.MethodGet, req.Path("user", "block", "check", id), nil))
}
