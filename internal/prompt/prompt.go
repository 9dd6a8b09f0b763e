// Package prompt asks the user a single question and returns a validated
// answer. Each Kind is handled explicitly; the terminal widgets live behind
// the Questioner interface.
package prompt

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	appErrors "pypilatest/internal/errors"
	"pypilatest/internal/session"
)

// Kind selects the question widget.
type Kind int

const (
	KindConfirm Kind = iota
	KindSelect
	KindText
	KindPassword
)

func (k Kind) String() string {
	switch k {
	case KindConfirm:
		return "confirm"
	case KindSelect:
		return "select"
	case KindText:
		return "text"
	case KindPassword:
		return "password"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrCancelled is returned by a Questioner when the user interrupts a prompt.
	ErrCancelled = errors.New("prompt cancelled")
	// ErrUnsupportedKind reports a Spec whose Kind has no widget.
	ErrUnsupportedKind = errors.New("unsupported prompt kind")
	// ErrNoChoices reports a select prompt without options.
	ErrNoChoices = errors.New("select prompt requires choices")
	// ErrNoTTY reports a masked prompt whose input is not a terminal.
	ErrNoTTY = errors.New("password prompt needs a terminal")
)

// Spec describes one question. HasDefault distinguishes an empty default
// from none at all.
type Spec struct {
	Kind       Kind
	Question   string
	Choices    []string
	Default    string
	HasDefault bool
}

// WithDefault returns a copy of s with def as its default.
func (s Spec) WithDefault(def string) Spec {
	s.Default = def
	s.HasDefault = true
	return s
}

// Answer is the string or boolean outcome of Ask. Set is false when neither
// the user nor a default supplied a value.
type Answer struct {
	Kind      Kind
	Text      string
	Confirmed bool
	Set       bool
}

func (a Answer) String() string {
	if a.Kind == KindConfirm {
		if a.Confirmed {
			return "yes"
		}
		return "no"
	}
	return a.Text
}

// Questioner renders the widgets. Implementations return ErrCancelled when
// the user interrupts.
type Questioner interface {
	Confirm(title string, def bool) (bool, error)
	Select(title string, choices []string, def string) (string, error)
	Input(title, def string, secret bool) (string, error)
}

// Prompter asks questions on behalf of a session.
type Prompter struct {
	sess *session.Session
	q    Questioner
}

// Option configures a Prompter.
type Option func(*Prompter)

// WithQuestioner replaces the terminal widgets.
func WithQuestioner(q Questioner) Option {
	return func(p *Prompter) {
		if q != nil {
			p.q = q
		}
	}
}

// New returns a Prompter backed by huh unless overridden.
func New(sess *session.Session, opts ...Option) *Prompter {
	if sess == nil {
		sess = session.Discard()
	}
	p := &Prompter{sess: sess}
	for _, opt := range opts {
		opt(p)
	}
	if p.q == nil {
		p.q = NewHuhQuestioner()
	}
	return p
}

const redacted = "********"

// Ask presents one question and returns the answer. An interrupt prints "Aborted!"
// and exits the process with status 1 through the session.
func (p *Prompter) Ask(req Spec) (Answer, error) {
	answer := Answer{Kind: req.Kind}
	var err error

	switch req.Kind {
	case KindConfirm:
		def := strings.EqualFold(req.Default, "y") || strings.EqualFold(req.Default, "yes")
		answer.Confirmed, err = p.q.Confirm(inlineDefault(req.Question, req.Default), def)
		answer.Set = err == nil
	case KindSelect:
		if len(req.Choices) == 0 {
			err = appErrors.New(appErrors.CodeUnsupportedPrompt, "", ErrNoChoices)
			p.logFailure(req, err)
			return answer, err
		}
		def := req.Default
		if req.HasDefault && !slices.Contains(req.Choices, def) {
			p.sess.Log.Debug().
				Str("default", def).
				Strs("choices", req.Choices).
				Msg("default is not one of the choices; no option preselected")
			def = ""
		}
		answer.Text, err = p.q.Select(req.Question, req.Choices, def)
	case KindText:
		if !req.HasDefault {
			p.sess.Log.Debug().Str("question", req.Question).Msg("no default for text prompt, using empty string")
		}
		answer.Text, err = p.q.Input(inlineDefault(req.Question, req.Default), req.Default, false)
	case KindPassword:
		answer.Text, err = p.askPassword(req.Question)
	default:
		p.sess.Log.Debug().Stringer("kind", req.Kind).Msg("unsupported prompt kind")
		err = appErrors.New(appErrors.CodeUnsupportedPrompt, "", fmt.Errorf("%w: %s", ErrUnsupportedKind, req.Kind))
	}

	if errors.Is(err, ErrCancelled) {
		p.logFailure(req, err)
		p.sess.Out.Error("Aborted!")
		p.sess.Exit(1)
		return Answer{Kind: req.Kind}, appErrors.New(appErrors.CodePromptCancelled, "", err)
	}
	if err != nil && !errors.Is(err, ErrUnsupportedKind) {
		p.logFailure(req, err)
		return answer, err
	}

	if req.Kind != KindConfirm {
		if answer.Text != "" {
			answer.Set = true
		} else if req.HasDefault {
			answer.Text = req.Default
			answer.Set = true
		}
	}

	logged := answer.String()
	if req.Kind == KindPassword {
		logged = redacted
	}
	p.sess.Log.Debug().
		Stringer("kind", req.Kind).
		Str("question", req.Question).
		Str("answer", logged).
		Msg("prompt answered")

	return answer, err
}

// Confirm asks a yes/no question with a "y"/"yes" style default.
func (p *Prompter) Confirm(question, def string) (bool, error) {
	answer, err := p.Ask(Spec{Kind: KindConfirm, Question: question}.WithDefault(def))
	if err != nil {
		return false, err
	}
	return answer.Confirmed, nil
}

func (p *Prompter) logFailure(req Spec, err error) {
	p.sess.Log.Debug().
		Err(err).
		Stringer("kind", req.Kind).
		Str("question", req.Question).
		Msg("prompt failed")
}

func (p *Prompter) askPassword(question string) (string, error) {
	for {
		secret, err := p.q.Input(question, "", true)
		if err != nil {
			return "", err
		}
		if secret != "" {
			return secret, nil
		}
		p.sess.Log.Debug().Str("question", question).Msg("empty password, asking again")
	}
}

func inlineDefault(question, def string) string {
	return fmt.Sprintf("%s [%s]: ", question, def)
}
