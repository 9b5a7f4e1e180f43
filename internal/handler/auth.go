package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/groceasy/groceasy-api/internal/domain/auth"
)

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			req.Email, err = d.Str()
		case "password":
			req.Password, err = d.Str()
		case "firstName":
			req.FirstName, err = d.Str()
		case "lastName":
			req.LastName, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeSession(e, s) })
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var email, password string
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			email, err = d.Str()
		case "password":
			password, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.accounts.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSession(e, s) })
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so logging out
// ends the shopping session by discarding the cart.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), userID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile handles GET /api/users/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Profile(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUser(e, u) })
}

// UpdateProfile handles PUT /api/users/profile. Omitted fields keep their
// current value.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	current, err := h.accounts.Profile(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	p := current.Profile
	fields := map[string]*string{
		"firstName":  &p.FirstName,
		"lastName":   &p.LastName,
		"phone":      &p.Phone,
		"address":    &p.Address,
		"city":       &p.City,
		"postalCode": &p.PostalCode,
	}
	err = decodeObject(w, r, func(d *jx.Decoder, key string) error {
		dst, ok := fields[key]
		if !ok {
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return err
		}
		*dst = v
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.accounts.UpdateProfile(r.Context(), userID(r), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUser(e, u) })
}

func encodeSession(e *jx.Encoder, s *auth.Session) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("token", func(e *jx.Encoder) { e.Str(s.Token) })
		e.Field("user", func(e *jx.Encoder) { encodeUser(e, s.User) })
	})
}
