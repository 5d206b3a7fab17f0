package pipeline

import (
	"fmt"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/federation"
)

// Action selects which sources a run ingests.
type Action string

const (
	ActionAll  Action = "all"
	ActionFio  Action = "fio"
	ActionMail Action = "mail"
	ActionNone Action = "none"
)

// CleanupMode selects what is reset after a run, or instead of one.
type CleanupMode string

const (
	CleanupAll    CleanupMode = "all"
	CleanupMail   CleanupMode = "mail"
	CleanupSheets CleanupMode = "sheets"
	CleanupNone   CleanupMode = "none"
)

// ParseAction validates an --actions value.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionAll, ActionFio, ActionMail, ActionNone:
		return a, nil
	}
	return "", fmt.Errorf("invalid action %q (must be all, fio, mail or none)", s)
}

// ParseCleanupMode validates a --cleanup value.
func ParseCleanupMode(s string) (CleanupMode, error) {
	switch m := CleanupMode(s); m {
	case CleanupAll, CleanupMail, CleanupSheets, CleanupNone:
		return m, nil
	}
	return "", fmt.Errorf("invalid cleanup mode %q (must be all, mail, sheets or none)", s)
}

// Options configures one run.
type Options struct {
	Actions      Action
	Cleanup      CleanupMode
	WithLabeling bool
	Period       dateutils.Period
}

// Validate checks the options before any I/O happens.
func (o Options) Validate() error {
	if _, err := ParseAction(string(o.Actions)); err != nil {
		return err
	}
	if _, err := ParseCleanupMode(string(o.Cleanup)); err != nil {
		return err
	}
	if o.Period.IsZero() {
		return fmt.Errorf("no period given")
	}
	return nil
}

func (a Action) needsFio() bool  { return a == ActionAll || a == ActionFio }
func (a Action) needsMail() bool { return a == ActionAll || a == ActionMail }

func (a Action) scope() federation.Scope { return federation.Scope(a) }

func (m CleanupMode) purgesLedger() bool { return m == CleanupAll || m == CleanupSheets }
func (m CleanupMode) resetsMail() bool   { return m == CleanupAll || m == CleanupMail }
