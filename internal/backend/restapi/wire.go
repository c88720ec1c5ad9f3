package restapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"tasker/internal/service"
)

// wireID accepts a numeric identifier encoded either as a JSON number or as
// a numeric string.
type wireID int64

func (id *wireID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*id = wireID(n)
	return nil
}

// wireTask is a task as returned by the API. Every field is a pointer so
// omitted and null fields can be told apart from empty ones.
type wireTask struct {
	ID          *wireID `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Completed   *bool   `json:"completed"`
	Status      *string `json:"status"`
}

// toTask converts the record without applying any defaults.
func (w wireTask) toTask() service.Task {
	var t service.Task
	if w.ID != nil {
		t.ID = service.Int64(int64(*w.ID))
	}
	if w.Title != nil {
		t.Title = *w.Title
	}
	if w.Description != nil {
		t.Description = *w.Description
	}
	if w.DueDate != nil {
		t.DueDate = *w.DueDate
	}
	if w.Completed != nil {
		t.Completed = service.Bool(*w.Completed)
	}
	if w.Status != nil {
		t.Status = service.String(*w.Status)
	}
	return t
}

// authResponse is the body returned by sign-in and the OAuth callback.
type authResponse struct {
	ID          *wireID  `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	AccessToken string   `json:"accessToken"`
	TokenType   string   `json:"tokenType"`
}

func (a authResponse) toSession() service.Session {
	s := service.Session{
		AccessToken: a.AccessToken,
		TokenType:   a.TokenType,
		Profile: service.Profile{
			Username: a.Username,
			Email:    a.Email,
			Roles:    a.Roles,
		},
	}
	if a.ID != nil {
		s.Profile.ID = service.Int64(int64(*a.ID))
	}
	return s
}
