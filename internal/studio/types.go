package studio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the lifecycle value reported by /status/{id}.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// IsTerminal reports whether polling should stop on this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// normalizeStatus folds the backend's in-progress variants into pending.
// Statuses it does not recognise report ok=false and are treated as
// failures so a poll cannot spin forever on them.
func normalizeStatus(raw string) (status Status, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "pending", "queued", "started", "generating", "processing", "running", "in_progress":
		return StatusPending, true
	case "completed", "complete", "done":
		return StatusCompleted, true
	case "error", "failed", "cancelled", "canceled":
		return StatusError, true
	default:
		return StatusError, false
	}
}

// Theme is a selectable generation preset.
type Theme struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

const defaultThemeIcon = "🎬"

// Handle identifies one in-flight generation job.
type Handle struct {
	ID string
}

// IsZero reports whether the handle is empty.
func (h Handle) IsZero() bool {
	return strings.TrimSpace(h.ID) == ""
}

// Artifact is the finished output of a generation job.
type Artifact struct {
	FinalVideoURL string `json:"final_video_url"`
}

// Progress is one point-in-time status report for a generation job.
type Progress struct {
	Percent     int
	StepLabel   string
	Status      Status
	Result      *Artifact
	ErrorDetail string
}

// HealthStatus summarises backend readiness.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// Health mirrors the payload returned by /health.
type Health struct {
	Status HealthStatus `json:"status"`
	Detail string       `json:"error,omitempty"`
}

// OK reports whether generation requests are expected to succeed.
func (h Health) OK() bool {
	return h.Status == HealthHealthy
}

func normalizeHealth(raw string) HealthStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "healthy", "ok", "running":
		return HealthHealthy
	case "degraded":
		return HealthDegraded
	default:
		return HealthUnhealthy
	}
}

// themesResponse mirrors /themes. The backend has shipped both a list and an
// object keyed by theme id, so decoding accepts either shape.
type themesResponse struct {
	Themes themeList `json:"themes"`
}

type themeList []Theme

func (l *themeList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	switch trimmed[0] {
	case '[':
		var items []Theme
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = items
		return nil
	case '{':
		items, err := decodeThemeObject(trimmed)
		if err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("themes: unexpected JSON %q", string(trimmed[:1]))
	}
}

// decodeThemeObject walks the object token by token so key order survives.
func decodeThemeObject(data []byte) ([]Theme, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var items []Theme
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("themes: non-string key %v", tok)
		}
		var theme Theme
		if err := dec.Decode(&theme); err != nil {
			return nil, fmt.Errorf("themes[%s]: %w", key, err)
		}
		if strings.TrimSpace(theme.ID) == "" {
			theme.ID = key
		}
		items = append(items, theme)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return items, nil
}

// normalizeThemes drops entries without an id and fills display defaults.
func normalizeThemes(items []Theme) []Theme {
	out := make([]Theme, 0, len(items))
	for _, theme := range items {
		theme.ID = strings.TrimSpace(theme.ID)
		if theme.ID == "" {
			continue
		}
		if strings.TrimSpace(theme.Name) == "" {
			theme.Name = titleCase(theme.ID)
		}
		if strings.TrimSpace(theme.Icon) == "" {
			theme.Icon = defaultThemeIcon
		}
		out = append(out, theme)
	}
	return out
}

func titleCase(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		runes := []rune(w)
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

type generateRequest struct {
	Theme    string `json:"theme"`
	Duration int    `json:"duration"`
}

type generateResponse struct {
	AnimationID string `json:"animation_id"`
	Status      string `json:"status"`
}

// statusResponse mirrors /status/{id}.
type statusResponse struct {
	Status      string    `json:"status"`
	Progress    float64   `json:"progress"`
	CurrentStep string    `json:"current_step"`
	Result      *Artifact `json:"result"`
	Error       string    `json:"error"`
}

func (r statusResponse) progress() Progress {
	status, known := normalizeStatus(r.Status)
	p := Progress{
		Percent:   clampPercent(r.Progress),
		StepLabel: strings.TrimSpace(r.CurrentStep),
		Status:    status,
	}
	switch p.Status {
	case StatusCompleted:
		if r.Result != nil {
			artifact := *r.Result
			p.Result = &artifact
		}
		p.Percent = 100
	case StatusError:
		p.ErrorDetail = strings.TrimSpace(r.Error)
		switch {
		case p.ErrorDetail != "":
		case !known:
			p.ErrorDetail = fmt.Sprintf("unrecognised generation status %q", strings.TrimSpace(r.Status))
		default:
			p.ErrorDetail = "generation failed"
		}
	}
	return p
}

func clampPercent(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= 100:
		return 100
	default:
		return int(v)
	}
}

// errorBody captures the failure payloads the backend emits.
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (e errorBody) message() string {
	if d := strings.TrimSpace(e.Detail); d != "" {
		return d
	}
	return strings.TrimSpace(e.Error)
}
