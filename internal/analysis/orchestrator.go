// Package analysis runs a note through the chat-completion API and writes
// the answer back into the vault as a new analysis note.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starford/notelens/internal/apperr"
	"github.com/starford/notelens/internal/deepseek"
	"github.com/starford/notelens/internal/models"
	"github.com/starford/notelens/internal/settings"
)

// DocumentStore is the part of the vault a run needs.
type DocumentStore interface {
	Exists(ctx context.Context, path string) (bool, error)
	Read(ctx context.Context, path string) ([]byte, error)
	LinkedPaths(ctx context.Context, path string) ([]string, error)
	Create(ctx context.Context, path string, content []byte) error
}

// Completer sends one chat-completion request.
type Completer interface {
	Complete(ctx context.Context, apiKey string, req deepseek.Request) (string, error)
}

// Outcome describes a finished run.
type Outcome struct {
	Source string   `json:"source"`
	Path   string   `json:"path,omitempty"`
	Note   string   `json:"note"`
	Linked []string `json:"linked"`
	Result Result   `json:"result"`
}

// Orchestrator performs analysis runs. It holds no per-run state.
type Orchestrator struct {
	docs DocumentStore
	llm  Completer
	now  func() time.Time
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(docs DocumentStore, llm Completer) *Orchestrator {
	return &Orchestrator{docs: docs, llm: llm, now: time.Now}
}

// Check verifies the run preconditions without touching the network.
func (o *Orchestrator) Check(ctx context.Context, activePath string, s settings.Settings) error {
	if activePath == "" {
		return ErrNoActiveDocument
	}
	ok, err := o.docs.Exists(ctx, activePath)
	if errors.Is(err, apperr.ErrInvalid) {
		return fmt.Errorf("%w: %s", ErrNoActiveDocument, activePath)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnexpected, activePath, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoActiveDocument, activePath)
	}
	if !s.HasCredential() {
		return ErrMissingCredential
	}
	return nil
}

// Run analyses the note at activePath. On success exactly one completion
// request was sent and, when s.CreateAnalysisFile is set, exactly one note
// was created. Nothing is written on failure.
func (o *Orchestrator) Run(ctx context.Context, activePath string, s settings.Settings) (*Outcome, error) {
	if err := o.Check(ctx, activePath, s); err != nil {
		return nil, err
	}

	content, err := o.docs.Read(ctx, activePath)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoActiveDocument, activePath)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnexpected, activePath, err)
	}

	linked, err := o.docs.LinkedPaths(ctx, activePath)
	if err != nil {
		return nil, fmt.Errorf("%w: links of %s: %v", ErrUnexpected, activePath, err)
	}
	linkedContext, used := BuildContext(ctx, o.docs, linked, ContextLimit(s.MaxLinkedNotes))

	answer, err := o.llm.Complete(ctx, s.APIKey, BuildRequest(s.Model, string(content), linkedContext))
	if err != nil {
		return nil, err
	}

	basename := models.Basename(activePath)
	now := o.now()
	result := ParseResult(answer)
	out := &Outcome{
		Source: activePath,
		Note:   Render(basename, result, now),
		Linked: used,
		Result: result,
	}
	if out.Linked == nil {
		out.Linked = []string{}
	}
	if !s.CreateAnalysisFile {
		return out, nil
	}

	name := FileName(basename, now)
	if err := o.docs.Create(ctx, name, []byte(out.Note)); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrUnexpected, name, err)
	}
	out.Path = name
	return out, nil
}
