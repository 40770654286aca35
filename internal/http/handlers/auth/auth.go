package auth

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/bloghub/posts-service/internal/storage"
	"github.com/bloghub/posts-service/internal/types/users"
	"github.com/bloghub/posts-service/internal/utils/jwt"
	"github.com/bloghub/posts-service/internal/utils/password"
	"github.com/bloghub/posts-service/internal/utils/response"
)

// SignUp handles user registration
// @Summary Register a new user
// @Description Register a new user account and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body users.SignUpRequest true "User registration details"
// @Success 201 {object} users.AuthResponse "User created successfully"
// @Failure 400 {object} response.Response "Bad request or email taken"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /api/auth/signup [post]
func SignUp(store storage.Storage, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signupReq users.SignUpRequest

		err := json.NewDecoder(r.Body).Decode(&signupReq)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		err = validate.Struct(signupReq)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		hashedPassword, err := password.HashPassword(signupReq.Password)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to hash password")))
			return
		}

		user, err := store.CreateUser(signupReq.Email, hashedPassword)
		if err != nil {
			if errors.Is(err, storage.ErrEmailTaken) {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("Email already registered")))
				return
			}
			slog.Error("Failed to create user", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to create user")))
			return
		}

		token, err := jwt.CreateToken(user.ID, user.Email, jwtSecret)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}
		slog.Info("User created", slog.Int64("user_id", user.ID))

		response.WriteJSON(w, http.StatusCreated, users.AuthResponse{
			User:  user,
			Token: token,
		})
	}
}

// Login handles user authentication
// @Summary Authenticate a user
// @Description Authenticate a user and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body users.SignInRequest true "User login details"
// @Success 200 {object} users.AuthResponse "User authenticated successfully"
// @Failure 400 {object} response.Response "Unknown email or wrong password"
// @Router /api/auth/login [post]
func Login(store storage.Storage, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signinReq users.SignInRequest

		err := json.NewDecoder(r.Body).Decode(&signinReq)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		err = validate.Struct(signinReq)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		user, hashedPassword, err := store.GetUserByEmail(signinReq.Email)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("User not found")))
				return
			}
			slog.Error("Failed to look up user", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to authenticate")))
			return
		}

		if !password.CheckPasswordHash(signinReq.Password, hashedPassword) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("Invalid password")))
			return
		}

		token, err := jwt.CreateToken(user.ID, user.Email, jwtSecret)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}

		response.WriteJSON(w, http.StatusOK, users.AuthResponse{
			User:  user,
			Token: token,
		})
	}
}
