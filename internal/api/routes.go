// ABOUTME: Route table and generic handlers for every record kind.
// ABOUTME: Response messages match the long-standing public API text.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/records"
)

const maxBodyBytes = 1 << 20

// kindRoutes names the paths and messages of one record kind.
type kindRoutes struct {
	logPath    string
	listPath   string
	deletePath string
	scopedPath string
	key        string

	logged  string
	deleted string

	logErr    string
	listErr   string
	deleteErr string
	scopedErr string
}

var (
	workoutRoutes = kindRoutes{
		logPath: "/log-workout", listPath: "/workouts", deletePath: "/delete-workout/{id}",
		scopedPath: "/users/{userId}/workouts", key: "workout",
		logged: "Workout logged successfully!", deleted: "Workout deleted successfully",
		logErr: "Error logging workout", listErr: "Error getting workouts",
		deleteErr: "Error deleting workout", scopedErr: "Error getting workouts for the user",
	}
	nutritionRoutes = kindRoutes{
		logPath: "/log-nutrition", listPath: "/nutrition", deletePath: "/delete-nutrition/{id}",
		scopedPath: "/users/{userId}/nutrition", key: "nutrition",
		logged: "Nutrition logged successfully!", deleted: "Nutrition entry deleted successfully",
		logErr: "Error logging nutrition", listErr: "Error getting nutrition data",
		deleteErr: "Error deleting nutrition entry", scopedErr: "Error getting nutrition data for the user",
	}
	achievementRoutes = kindRoutes{
		logPath: "/log-achievement", listPath: "/achievements", deletePath: "/delete-achievement/{id}",
		scopedPath: "/users/{userId}/achievements", key: "achievement",
		logged: "Achievement logged successfully!", deleted: "Achievement entry deleted successfully",
		logErr: "Error logging achievement", listErr: "Error getting achievements",
		deleteErr: "Error deleting achievement entry", scopedErr: "Error getting achievements for the user",
	}
	metricRoutes = kindRoutes{
		logPath: "/log-metric", listPath: "/metrics", deletePath: "/delete-metric/{id}",
		scopedPath: "/users/{userId}/metrics", key: "metric",
		logged: "Metric logged successfully!", deleted: "Metric entry deleted successfully",
		logErr: "Error logging metric", listErr: "Error getting metrics",
		deleteErr: "Error deleting metric entry", scopedErr: "Error getting metrics for the user",
	}
	goalRoutes = kindRoutes{
		logPath: "/log-goal", listPath: "/goals", deletePath: "/delete-goal/{id}",
		scopedPath: "/users/{userId}/goals", key: "goal",
		logged: "Goal logged successfully!", deleted: "Goal deleted successfully",
		logErr: "Error logging goal", listErr: "Error getting goals",
		deleteErr: "Error deleting goal", scopedErr: "Error getting goals for the user",
	}
	socialPostRoutes = kindRoutes{
		logPath: "/log-social-post", listPath: "/social-posts", deletePath: "/delete-social-post/{id}",
		scopedPath: "/users/{userId}/social-posts", key: "socialPost",
		logged: "Social post logged successfully!", deleted: "Social post deleted successfully",
		logErr: "Error logging social post", listErr: "Error getting social posts",
		deleteErr: "Error deleting social post", scopedErr: "Error getting social posts",
	}
)

// mountKind registers log, list, delete, and scoped-read routes for one kind.
// lastIDKey, when set, adds the previously last identifier to log responses.
func mountKind[T models.Record, I models.Input[T]](r chi.Router, svc *records.Service[T, I], rt kindRoutes, lastIDKey string) {
	r.Post(rt.logPath, func(w http.ResponseWriter, req *http.Request) {
		var in I
		if err := decodeBody(w, req, &in); err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{"message": rt.logErr, "error": err.Error()})
			return
		}
		out, err := svc.Log(req.Context(), in)
		if err != nil {
			writeError(w, err, rt.logErr)
			return
		}
		body := envelope{"message": rt.logged, rt.key: out.Record}
		if lastIDKey != "" {
			body[lastIDKey] = nullable(out.LastID)
		}
		writeJSON(w, http.StatusCreated, body)
	})

	r.Get(rt.listPath, func(w http.ResponseWriter, req *http.Request) {
		recs, err := svc.List(req.Context())
		if err != nil {
			writeError(w, err, rt.listErr)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	})

	r.Delete(rt.deletePath, func(w http.ResponseWriter, req *http.Request) {
		rec, err := svc.Delete(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, err, rt.deleteErr)
			return
		}
		writeJSON(w, http.StatusOK, envelope{"message": rt.deleted, rt.key: rec})
	})

	r.Get(rt.scopedPath, func(w http.ResponseWriter, req *http.Request) {
		recs, err := svc.ListByOwner(req.Context(), chi.URLParam(req, "userId"))
		if err != nil {
			writeError(w, err, rt.scopedErr)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	})
}

// mountUsers registers registration, listing, lookup, and cascading delete.
func mountUsers(r chi.Router, svc *records.Services) {
	r.Post("/register", func(w http.ResponseWriter, req *http.Request) {
		var in models.UserInput
		if err := decodeBody(w, req, &in); err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{"message": "Error registering user", "error": err.Error()})
			return
		}
		out, err := svc.Users.Log(req.Context(), in)
		if err != nil {
			writeError(w, err, "Error registering user")
			return
		}
		writeJSON(w, http.StatusCreated, envelope{"message": "User registered successfully!", "user": out.Record})
	})

	r.Get("/users", func(w http.ResponseWriter, req *http.Request) {
		users, err := svc.Users.List(req.Context())
		if err != nil {
			writeError(w, err, "Error getting users")
			return
		}
		writeJSON(w, http.StatusOK, users)
	})

	r.Get("/users/{userId}", func(w http.ResponseWriter, req *http.Request) {
		user, err := svc.Users.Get(req.Context(), chi.URLParam(req, "userId"))
		if err != nil {
			writeError(w, err, "Error getting user")
			return
		}
		writeJSON(w, http.StatusOK, user)
	})

	r.Delete("/delete-user/{userId}", func(w http.ResponseWriter, req *http.Request) {
		user, err := svc.DeleteUser(req.Context(), chi.URLParam(req, "userId"))
		if err != nil {
			writeError(w, err, "Error deleting user")
			return
		}
		writeJSON(w, http.StatusOK, envelope{"message": "User deleted successfully", "user": user})
	})
}

// decodeBody reads a JSON object into dst. An empty body decodes as {} so
// validation reports the missing fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
