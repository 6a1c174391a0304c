package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/zulandar/signalbox/internal/agent"
	"github.com/zulandar/signalbox/internal/conversation"
	"github.com/zulandar/signalbox/internal/messaging"
	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/store"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Names and classification applied to messages created from files.
const (
	ProcessorAgent     = "issues_processor"
	DefaultAssigner    = "task_assigner"
	DefaultRecipient   = "default_recipient"
	IssuesConversation = "Issues Processing"

	TypeIssuesFile     = "issues_file"
	TypeTaskAssignment = "task_assignment"

	// AgentNameEnv names the agent that sends task assignments.
	AgentNameEnv = "AGENT_NAME"
)

// Processed describes the message created for one file.
type Processed struct {
	MessageID      string    `json:"message_id"`
	Filename       string    `json:"filename"`
	MessageType    string    `json:"message_type"`
	CreatedAt      time.Time `json:"created_at"`
	ContentPreview string    `json:"content_preview"`
}

// FileError records a file ProcessAll could not turn into a message.
type FileError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// Batch is the result of ProcessAll.
type Batch struct {
	Processed      []Processed `json:"processed_files"`
	TotalProcessed int         `json:"total_processed"`
	Errors         []FileError `json:"errors"`
}

// Assignment describes the task created by AssignLatest.
type Assignment struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	Filename       string    `json:"filename"`
	SenderAgent    string    `json:"sender_agent"`
	RecipientAgent string    `json:"recipient_agent"`
	MessageType    string    `json:"message_type"`
	CreatedAt      time.Time `json:"created_at"`
	ContentPreview string    `json:"content_preview"`
	FileDeleted    bool      `json:"file_deleted"`
}

// Processor creates messages from files in a Dir.
type Processor struct {
	db  *gorm.DB
	dir *Dir
	log *zap.SugaredLogger

	// AgentName is the sender of task assignments.
	AgentName string
	// Now stamps processed_at in message metadata.
	Now func() time.Time
}

// NewProcessor returns a Processor. The assigning agent is taken from the
// AGENT_NAME environment variable, defaulting to "task_assigner".
func NewProcessor(db *gorm.DB, dir *Dir, log *zap.SugaredLogger) *Processor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	name := os.Getenv(AgentNameEnv)
	if name == "" {
		name = DefaultAssigner
	}
	return &Processor{db: db, dir: dir, log: log, AgentName: name, Now: time.Now}
}

// Dir returns the directory the processor reads from.
func (p *Processor) Dir() *Dir { return p.dir }

// ProcessFile records name as an issues_file message from the
// issues_processor agent in the "Issues Processing" conversation. The file is
// left in place.
func (p *Processor) ProcessFile(name string) (*Processed, error) {
	clean, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	content, err := p.dir.Read(clean)
	if err != nil {
		return nil, err
	}
	text := Summarize(content)
	meta, err := p.metadata(clean, content, nil)
	if err != nil {
		return nil, err
	}

	var msg *models.Message
	err = p.db.Transaction(func(tx *gorm.DB) error {
		sender, err := agent.GetOrCreateByName(tx, ProcessorAgent)
		if err != nil {
			return err
		}
		conv, err := issuesConversation(tx)
		if err != nil {
			return err
		}
		msg, err = messaging.Create(tx, messaging.CreateOpts{
			Content:        text,
			SenderID:       &sender.ID,
			ConversationID: &conv.ID,
			MessageType:    strPtr(TypeIssuesFile),
			Importance:     intPtr(5),
			Status:         strPtr("processed"),
			Metadata:       meta,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: process %s: %w", clean, err)
	}

	return &Processed{
		MessageID:      msg.ID,
		Filename:       clean,
		MessageType:    TypeIssuesFile,
		CreatedAt:      msg.SentAt,
		ContentPreview: Preview(text),
	}, nil
}

// ProcessAll runs ProcessFile over every file. A failing file is recorded
// in Errors and does not stop the batch.
func (p *Processor) ProcessAll() (*Batch, error) {
	files, err := p.dir.List()
	if err != nil {
		return nil, err
	}
	b := &Batch{Processed: []Processed{}, Errors: []FileError{}}
	for _, f := range files {
		res, err := p.ProcessFile(f.Filename)
		if err != nil {
			p.log.Errorw("ingest: process file failed", "filename", f.Filename, "error", err)
			b.Errors = append(b.Errors, FileError{Filename: f.Filename, Error: err.Error()})
			continue
		}
		p.log.Infow("ingest: processed file", "filename", f.Filename, "message_id", res.MessageID)
		b.Processed = append(b.Processed, *res)
	}
	b.TotalProcessed = len(b.Processed)
	return b, nil
}

// AssignLatest turns the most recent file into a task_assignment message in a
// new conversation, addressed to the oldest agent other than the sender, and
// then deletes the file. Failure to delete is logged and reported in
// FileDeleted.
func (p *Processor) AssignLatest() (*Assignment, error) {
	latest, err := p.dir.Latest()
	if err != nil {
		return nil, err
	}
	content, err := p.dir.Read(latest.Filename)
	if err != nil {
		return nil, err
	}
	text := Summarize(content)

	var (
		msg       *models.Message
		conv      *models.Conversation
		sender    *models.Agent
		recipient *models.Agent
	)
	err = p.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if sender, err = agent.GetOrCreateByName(tx, p.AgentName); err != nil {
			return err
		}
		if recipient, err = recipientFor(tx, sender.ID); err != nil {
			return err
		}
		if conv, err = p.taskConversation(tx, latest.Filename); err != nil {
			return err
		}
		meta, err := p.metadata(latest.Filename, content, map[string]interface{}{"assigned_to": recipient.ID})
		if err != nil {
			return err
		}
		msg, err = messaging.Create(tx, messaging.CreateOpts{
			Content:        text,
			SenderID:       &sender.ID,
			ConversationID: &conv.ID,
			MessageType:    strPtr(TypeTaskAssignment),
			Importance:     intPtr(7),
			Status:         strPtr("assigned"),
			Metadata:       meta,
		})
		if err != nil {
			return err
		}
		_, err = messaging.AddRecipient(tx, messaging.RecipientOpts{
			MessageID:   msg.ID,
			RecipientID: recipient.ID,
			IsRead:      boolPtr(false),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: assign %s: %w", latest.Filename, err)
	}

	deleted := true
	if err := p.dir.Delete(latest.Filename); err != nil {
		deleted = false
		p.log.Errorw("ingest: delete assigned file failed", "filename", latest.Filename, "error", err)
	}

	return &Assignment{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		Filename:       latest.Filename,
		SenderAgent:    sender.AgentName,
		RecipientAgent: recipient.AgentName,
		MessageType:    TypeTaskAssignment,
		CreatedAt:      msg.SentAt,
		ContentPreview: Preview(text),
		FileDeleted:    deleted,
	}, nil
}

func (p *Processor) metadata(filename string, c *Content, extra map[string]interface{}) (datatypes.JSON, error) {
	m := map[string]interface{}{
		"source_file":   filename,
		"file_type":     c.Kind,
		"processed_at":  p.Now().UTC().Format(time.RFC3339),
		"original_data": c,
	}
	for k, v := range extra {
		m[k] = v
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("ingest: encode metadata for %s: %w", filename, err)
	}
	return datatypes.JSON(raw), nil
}

func (p *Processor) taskConversation(tx *gorm.DB, filename string) (*models.Conversation, error) {
	meta, err := json.Marshal(map[string]string{
		"purpose":     "task_assignment",
		"source_file": filename,
		"created_by":  "system",
		"created_at":  p.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	return conversation.Create(tx, conversation.CreateOpts{
		Title:       strPtr("Task Assignment: " + filename),
		Description: strPtr("Task assignment created from processing file: " + filename),
		Metadata:    datatypes.JSON(meta),
	})
}

func issuesConversation(tx *gorm.DB) (*models.Conversation, error) {
	conv, err := conversation.FindByTitle(tx, IssuesConversation)
	if err != nil || conv != nil {
		return conv, err
	}
	return conversation.Create(tx, conversation.CreateOpts{
		Title:       strPtr(IssuesConversation),
		Description: strPtr("Automated processing of files from issues directory"),
		Metadata:    datatypes.JSON(`{"purpose":"issues_processing","created_by":"system"}`),
	})
}

// recipientFor picks the oldest agent other than senderID, registering
// default_recipient when the sender is the only agent.
func recipientFor(tx *gorm.DB, senderID string) (*models.Agent, error) {
	a, err := agent.FirstOther(tx, senderID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return agent.Create(tx, agent.CreateOpts{AgentName: DefaultRecipient})
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
