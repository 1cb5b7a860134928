package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth       *AuthHandler
	Scheduling *SchedulingHandler
	Records    *RecordsHandler
	// Protect guards the scheduling and records routes; session routes stay
	// open so a signed-out caller can sign in or register.
	Protect    func(http.Handler) http.Handler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := cfg.Protect
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.CreateSession(w, r)
		})
		mux.HandleFunc("/sessions/current", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Auth.CurrentSession(w, r)
			case http.MethodDelete:
				cfg.Auth.DeleteCurrentSession(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
		mux.HandleFunc("/registrations", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Register(w, r)
		})
	}

	if cfg.Scheduling != nil {
		mux.Handle("/providers", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Scheduling.ListProviders(w, r)
		})))
		mux.Handle("/slots", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Scheduling.ListSlots(w, r)
		})))
		mux.Handle("/bookings", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Scheduling.ListBookings(w, r)
			case http.MethodPost:
				cfg.Scheduling.CreateBooking(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})))
		mux.Handle("/bookings/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := splitResourcePath(r.URL.Path, "/bookings/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithBookingID(r.Context(), id))
			switch {
			case action == "cancel" && r.Method == http.MethodPost:
				cfg.Scheduling.CancelBooking(w, r)
			case action == "payment" && r.Method == http.MethodPost:
				cfg.Scheduling.CompletePayment(w, r)
			case action == "cancel" || action == "payment":
				methodNotAllowed(w, http.MethodPost)
			default:
				http.NotFound(w, r)
			}
		})))
	}

	if cfg.Records != nil {
		mux.Handle("/records", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Records.ListRecords(w, r)
			case http.MethodPost:
				cfg.Records.CreateRecord(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})))
		mux.Handle("/records/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := splitResourcePath(r.URL.Path, "/records/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithRecordID(r.Context(), id))
			switch {
			case action == "" && r.Method == http.MethodPut:
				cfg.Records.UpdateRecord(w, r)
			case action == "" && r.Method == http.MethodDelete:
				cfg.Records.DeleteRecord(w, r)
			case action == "":
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			case action == "unlock" && r.Method == http.MethodPost:
				cfg.Records.UnlockRecord(w, r)
			case action == "unlock":
				methodNotAllowed(w, http.MethodPost)
			default:
				http.NotFound(w, r)
			}
		})))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// splitResourcePath separates "/bookings/a1/cancel" style paths into the
// resource id and an optional trailing action segment.
func splitResourcePath(path, prefix string) (id, action string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || rest == path {
		return "", "", false
	}
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		id, action = rest[:idx], rest[idx+1:]
	} else {
		id = rest
	}
	if id == "" || strings.Contains(action, "/") {
		return "", "", false
	}
	return id, action, true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
