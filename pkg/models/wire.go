package models

import "time"

// ContentItem is a single task input/output content element (spec.md §6.2).
type ContentItem struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Content any    `json:"content"`
}

// TaskInput is the wire shape accepted by create_task.
type TaskInput struct {
	Content []ContentItem `json:"content"`
}

// SegmentView is the wire projection of a Segment, tolerant of unknown
// fields per spec.md §9 ("Polymorphic segments"): consumers must skip
// segment types they don't recognise rather than fail.
type SegmentView struct {
	Ordinal        int             `json:"ordinal"`
	Type           SegmentType     `json:"type"`
	Channel        Channel         `json:"channel,omitempty"`
	Tool           ToolName        `json:"tool,omitempty"`
	Args           map[string]any  `json:"args,omitempty"`
	Output         any             `json:"output,omitempty"`
	Text           string          `json:"text,omitempty"`
	RuntimeSeconds *float64        `json:"runtime_seconds,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TaskView is the materialised projection returned by get_task (spec.md
// §6.2).
type TaskView struct {
	ID            string        `json:"id"`
	AgentName     string        `json:"agent_name"`
	Status        TaskStatus    `json:"status"`
	InputContent  []ContentItem `json:"input_content"`
	OutputContent []ContentItem `json:"output_content"`
	Segments      []SegmentView `json:"segments"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ErrorBody is the uniform error envelope (spec.md §6.3). The HTTP status
// class itself is assigned by the out-of-scope transport layer.
type ErrorBody struct {
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
}

// AgentView is the wire projection of an Agent row.
type AgentView struct {
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	State              AgentState      `json:"state"`
	CreatedBy          string          `json:"created_by"`
	CreatedAt          time.Time       `json:"created_at"`
	IdleTimeoutSeconds int             `json:"idle_timeout_s"`
	BusyTimeoutSeconds int             `json:"busy_timeout_s"`
	Tags               []string        `json:"tags,omitempty"`
	Metadata           map[string]any  `json:"metadata,omitempty"`
	IsPublished        bool            `json:"is_published"`
	PublishedAt        *time.Time      `json:"published_at,omitempty"`
	ParentAgentName    string          `json:"parent_agent_name,omitempty"`
	ContentPort        *int            `json:"content_port,omitempty"`
	LastError          string          `json:"last_error,omitempty"`
}

// PublishPermissions controls what a publish/remix operation copies
// (spec.md §4.6, §8 P7).
type PublishPermissions struct {
	Code    bool `json:"code"`
	Secrets bool `json:"secrets"`
	Content bool `json:"content"`
}

// ContextView is the response shape for API Core's context(name) operation
// (spec.md §4.7).
type ContextView struct {
	SoftLimit     int     `json:"soft_limit"`
	UsedEstimated int     `json:"used_estimated"`
	UsedPercent   float64 `json:"used_percent"`
}
