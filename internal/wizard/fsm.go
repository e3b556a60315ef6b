package wizard

import (
	"fmt"
	"strings"
)

// Step is one screen of the document wizard.
type Step string

const (
	StepLetterhead Step = "letterhead"
	StepTemplate   Step = "template"
	StepEditor     Step = "editor"
	StepPreview    Step = "preview"
	StepSaved      Step = "saved"
)

// chain is the forward/back order. StepSaved sits outside it.
var chain = []Step{StepLetterhead, StepTemplate, StepEditor, StepPreview}

func (s Step) index() int {
	for i, c := range chain {
		if c == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s names a known step.
func (s Step) Valid() bool {
	return s == StepSaved || s.index() >= 0
}

// guard reports why the session may not leave its current step forward.
func (s *Session) guard() error {
	switch s.Step {
	case StepLetterhead:
		if s.LetterheadID == "" {
			return fmt.Errorf("%w: select a letterhead", ErrGuardFailed)
		}
	case StepTemplate:
		if s.Template == nil {
			return fmt.Errorf("%w: select a template", ErrGuardFailed)
		}
	case StepEditor:
		if strings.TrimSpace(s.Document.Title) == "" || strings.TrimSpace(s.Document.Content) == "" {
			return fmt.Errorf("%w: title and content are required", ErrGuardFailed)
		}
	}
	return nil
}

// CanProceed reports whether Next would succeed.
func (s *Session) CanProceed() bool {
	i := s.Step.index()
	return i >= 0 && i < len(chain)-1 && s.guard() == nil
}

// Next advances along the chain when the current step's guard passes.
// Preview is the last step; saved is not part of the chain.
func (s *Session) Next() error {
	i := s.Step.index()
	if i < 0 || i == len(chain)-1 {
		return fmt.Errorf("%w: no next step from %s", ErrInvalidStep, s.Step)
	}
	if err := s.guard(); err != nil {
		return err
	}
	s.Step = chain[i+1]
	return nil
}

// Back reverses the chain without checking guards. It is a no-op at the
// first step.
func (s *Session) Back() error {
	i := s.Step.index()
	if i < 0 {
		return fmt.Errorf("%w: no previous step from %s", ErrInvalidStep, s.Step)
	}
	if i > 0 {
		s.Step = chain[i-1]
	}
	return nil
}

// OpenSaved enters the saved-documents side step from anywhere.
func (s *Session) OpenSaved() {
	s.Step = StepSaved
}

// Resume returns to the editor once a template is chosen.
func (s *Session) Resume() error {
	if s.Template == nil {
		return fmt.Errorf("%w: select a template", ErrGuardFailed)
	}
	s.Step = StepEditor
	return nil
}

// GoTo jumps via header navigation: backward along the chain, to saved, or
// from saved to the editor.
func (s *Session) GoTo(step Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: unknown step %q", ErrInvalidInput, step)
	}
	switch {
	case step == StepSaved:
		s.OpenSaved()
		return nil
	case s.Step == StepSaved:
		if step == StepEditor {
			return s.Resume()
		}
		if step.index() < StepEditor.index() {
			s.Step = step
			return nil
		}
	case step.index() <= s.Step.index():
		s.Step = step
		return nil
	}
	return fmt.Errorf("%w: cannot jump from %s to %s", ErrInvalidStep, s.Step, step)
}
