package slackapi

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexibleString decodes JSON strings and numbers alike. Slack reports some
// identifiers and timestamps as either.
type FlexibleString string

// UnmarshalJSON accepts a JSON string, number, or null.
func (value *FlexibleString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*value = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var decoded string
		if decodeError := json.Unmarshal(trimmed, &decoded); decodeError != nil {
			return decodeError
		}
		*value = FlexibleString(decoded)
		return nil
	}
	var number json.Number
	if decodeError := json.Unmarshal(trimmed, &number); decodeError != nil {
		return decodeError
	}
	*value = FlexibleString(number.String())
	return nil
}

// String returns the decoded text.
func (value FlexibleString) String() string {
	return string(value)
}

// IsZero reports whether the value is empty or a numeric zero.
func (value FlexibleString) IsZero() bool {
	if len(value) == 0 {
		return true
	}
	parsed, parseError := strconv.ParseFloat(string(value), 64)
	return parseError == nil && parsed == 0
}

// IntegrationLogEntry is one item of team.integrationLogs. Pointer fields are absent
// from some entries and nil when missing.
type IntegrationLogEntry struct {
	ChangeType  string          `json:"change_type"`
	Scope       *string         `json:"scope,omitempty"`
	AppID       *FlexibleString `json:"app_id,omitempty"`
	AppType     *string         `json:"app_type,omitempty"`
	ServiceID   *FlexibleString `json:"service_id,omitempty"`
	ServiceType *string         `json:"service_type,omitempty"`
	UserID      *FlexibleString `json:"user_id,omitempty"`
	UserName    string          `json:"user_name"`
	Date        FlexibleString  `json:"date"`
	Reason      *string         `json:"reason,omitempty"`
	Channel     *string         `json:"channel,omitempty"`
}

// Paging carries numbered pagination state.
type Paging struct {
	Count int `json:"count"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// IntegrationLogsPage is one page of integration logs.
type IntegrationLogsPage struct {
	Logs   []IntegrationLogEntry
	Paging Paging
}

// User is a member of users.list or the subject of users.info.
type User struct {
	ID             string `json:"id"`
	TeamID         string `json:"team_id"`
	Name           string `json:"name"`
	RealName       string `json:"real_name"`
	Deleted        bool   `json:"deleted"`
	IsBot          bool   `json:"is_bot"`
	IsAdmin        bool   `json:"is_admin"`
	IsOwner        bool   `json:"is_owner"`
	IsPrimaryOwner bool   `json:"is_primary_owner"`
	Has2FA         bool   `json:"has_2fa"`
	TwoFactorType  string `json:"two_factor_type,omitempty"`
	Updated        int64  `json:"updated"`
}

// UsersPage is one page of users.list.
type UsersPage struct {
	Members    []User
	NextCursor string
}

// AuthIdentity describes the owner of a token as reported by auth.test.
type AuthIdentity struct {
	UserID string `json:"user_id"`
	User   string `json:"user"`
	TeamID string `json:"team_id"`
	Team   string `json:"team"`
	URL    string `json:"url"`
}

// Attachment is a legacy message attachment.
type Attachment struct {
	Title    string   `json:"title,omitempty"`
	Text     string   `json:"text,omitempty"`
	Color    string   `json:"color,omitempty"`
	Fallback string   `json:"fallback,omitempty"`
	MrkdwnIn []string `json:"mrkdwn_in,omitempty"`
}

// Message describes a chat.postMessage request.
type Message struct {
	Channel     string
	Text        string
	Attachments []Attachment
}

// FileUpload describes a files.upload request.
type FileUpload struct {
	Content  string
	Title    string
	FileType string
	Channels []string
}

// UploadedFile is the file reported by files.upload.
type UploadedFile struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
	URL       string `json:"url_private"`
}
