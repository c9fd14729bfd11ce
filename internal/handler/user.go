package handler

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/msomdec/socialfeed/internal/domain"
	"github.com/msomdec/socialfeed/internal/service"
)

// UserHandler serves profile, search and follow requests.
type UserHandler struct {
	responder
	profiles   *service.ProfileService
	engagement *service.EngagementService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(profiles *service.ProfileService, engagement *service.EngagementService, debug bool) *UserHandler {
	return &UserHandler{responder: responder{debug: debug}, profiles: profiles, engagement: engagement}
}

// HandleMe returns the caller's account.
// GET /users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	user, err := h.profiles.Me(r.Context(), caller)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User retrieved successfully", map[string]any{"user": toUserDTO(user)})
}

// HandleUpdateProfile changes the caller's name, email, bio or picture.
// Accepts multipart/form-data (with an optional profilePicture file) or
// a JSON object of the text fields.
// PUT /users/profile
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	update, err := parseProfileUpdate(w, r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	user, err := h.profiles.UpdateProfile(r.Context(), caller, update)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Profile updated successfully", map[string]any{"user": toUserDTO(user)})
}

func parseProfileUpdate(w http.ResponseWriter, r *http.Request) (service.ProfileUpdate, error) {
	var u service.ProfileUpdate

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req struct {
			Name  *string `json:"name"`
			Email *string `json:"email"`
			Bio   *string `json:"bio"`
		}
		if err := readJSON(w, r, &req); err != nil {
			return u, err
		}
		u.Name, u.Email, u.Bio = req.Name, req.Email, req.Bio
		return u, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxMediaSize+maxJSONBody)
	if err := r.ParseMultipartForm(service.MaxMediaSize); err != nil {
		return u, fmt.Errorf("%w: malformed multipart body", domain.ErrInvalidInput)
	}
	form := r.MultipartForm
	u.Name = formValue(form, "name")
	u.Email = formValue(form, "email")
	u.Bio = formValue(form, "bio")

	if headers := form.File["profilePicture"]; len(headers) > 0 {
		file, err := readFormFile(headers[0])
		if err != nil {
			return u, err
		}
		u.Picture = &file
	}
	return u, nil
}

// formValue distinguishes an absent field from an empty one.
func formValue(form *multipart.Form, key string) *string {
	vals, ok := form.Value[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	return &vals[0]
}

func readFormFile(fh *multipart.FileHeader) (domain.MediaFile, error) {
	if fh.Size > service.MaxMediaSize {
		return domain.MediaFile{}, fmt.Errorf("%w: %s exceeds 10MB limit", domain.ErrInvalidInput, fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return domain.MediaFile{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxMediaSize+1))
	if err != nil {
		return domain.MediaFile{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return domain.MediaFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// HandleSearch finds users by name or email.
// GET /users/search?q=...&limit=...
func (h *UserHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	users, err := h.profiles.Search(r.Context(), caller, r.URL.Query().Get("q"), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Users retrieved successfully", map[string]any{"users": toSearchUserDTOs(users)})
}

// HandleToggleFollow follows or unfollows the user in the path.
// POST /users/{userId}/follow
// Response: {"state": "followed"|"unfollowed"}
func (h *UserHandler) HandleToggleFollow(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	state, err := h.engagement.ToggleFollow(r.Context(), caller, r.PathValue("userId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	msg := "User followed successfully"
	if state == service.StateUnfollowed {
		msg = "User unfollowed successfully"
	}
	writeSuccess(w, http.StatusOK, msg, map[string]any{"state": state})
}

// queryInt parses an optional integer query parameter; absent yields 0.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Fields: []domain.FieldError{{Field: key, Message: key + " must be an integer"}}}
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter; absent yields false.
func queryBool(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &domain.ValidationError{Fields: []domain.FieldError{{Field: key, Message: key + " must be true or false"}}}
	}
	return b, nil
}
