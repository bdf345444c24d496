package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sidverma/vidtube/internal/common"
	"github.com/sidverma/vidtube/internal/server/models"
	"github.com/sidverma/vidtube/internal/server/services"
)

const maxUploadMemory = 32 << 20

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, r, common.NewError(common.KindValidation, "invalid multipart form"))
		return
	}

	avatarPath, err := s.saveUpload(r, "avatar")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	coverPath, err := s.saveUpload(r, "coverImage")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// The media store consumes and removes these on upload; anything still on
	// disk here is an aborted registration.
	defer removeIfPresent(avatarPath, coverPath)

	user, err := s.users.Register(r.Context(), services.RegisterInput{
		Username:            r.FormValue("username"),
		Email:               r.FormValue("email"),
		Fullname:            r.FormValue("fullname"),
		Password:            r.FormValue("password"),
		AvatarLocalPath:     avatarPath,
		CoverImageLocalPath: coverPath,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, user, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.NewError(common.KindValidation, "invalid request body"))
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	user, pair, err := s.users.Login(r.Context(), identifier, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setTokenCookies(w, pair)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User logged in successfully")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Logout(r.Context(), userIDFrom(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.clearTokenCookies(w)
	s.writeJSON(w, http.StatusOK, nil, "User logged out")
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	presented := tokenFromRequest(r, refreshTokenCookie)

	pair, err := s.users.RefreshAccess(r.Context(), presented)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setTokenCookies(w, pair)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed")
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.CurrentUser(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user, "Fetched current user")
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.NewError(common.KindValidation, "invalid request body"))
		return
	}

	if err := s.users.ChangePassword(r.Context(), userIDFrom(r.Context()), req.OldPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil, "Password changed successfully")
}

func (s *Server) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	s.handleUpdateImage(w, r, "avatar", s.users.UpdateAvatar, "Avatar updated successfully")
}

func (s *Server) handleUpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	s.handleUpdateImage(w, r, "coverImage", s.users.UpdateCoverImage, "Cover image updated successfully")
}

func (s *Server) handleUpdateImage(w http.ResponseWriter, r *http.Request, field string,
	update func(ctx context.Context, userID, localPath string) (*models.UserView, error), message string) {

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, r, common.NewError(common.KindValidation, "invalid multipart form"))
		return
	}

	path, err := s.saveUpload(r, field)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer removeIfPresent(path)

	user, err := update(r.Context(), userIDFrom(r.Context()), path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user, message)
}

// saveUpload copies the named multipart file to a temp file and returns its
// path, or "" when the field is absent. The extension is preserved so the
// media store can derive the content type.
func (s *Server) saveUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", common.WrapError(common.KindUpload, "could not read uploaded "+field, err)
	}
	defer file.Close()

	return copyToTemp(file, filepath.Ext(header.Filename), field)
}

func copyToTemp(file multipart.File, ext, field string) (string, error) {
	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", common.WrapError(common.KindUpload, "could not store uploaded "+field, err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", common.WrapError(common.KindUpload, "could not store uploaded "+field, err)
	}
	return tmp.Name(), nil
}

func removeIfPresent(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}
